// Copyright 2024 The Erigon Authors
// This file is part of Erigon.
//
// Erigon is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// Erigon is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Lesser General Public License for more details.
//
// You should have received a copy of the GNU Lesser General Public License
// along with Erigon. If not, see <http://www.gnu.org/licenses/>.

// Package utils contains the command line flags shared by the node binaries.
package utils

import (
	"fmt"

	"github.com/c2h5oh/datasize"
	"github.com/urfave/cli/v2"

	"github.com/telosnetwork/telos-erigon/node"
	"github.com/telosnetwork/telos-erigon/node/nodecfg/datadir"
	"github.com/telosnetwork/telos-erigon/telos/statecompare"
	"github.com/telosnetwork/telos-erigon/turbo/logging"
)

// These are all the command line flags we support.
// The flags are defined here so their names and help texts
// are the same for all commands.

var (
	// General settings
	DataDirFlag = cli.PathFlag{
		Name:  "datadir",
		Usage: "Data directory for the databases",
		Value: datadir.DefaultDataDir(),
	}
	DbSizeLimitFlag = cli.StringFlag{
		Name:  "db.size.limit",
		Usage: "Runtime limit of chaindata db size (can change at any time)",
		Value: (2 * datasize.TB).String(),
	}
	ConfigFlag = cli.StringFlag{
		Name:  "config",
		Usage: "Sets flags from YAML/TOML file",
		Value: "",
	}

	// Telos two-way state compare
	TelosEndpointFlag = cli.StringFlag{
		Name:  "telos.endpoint",
		Usage: "Telos native RPC endpoint (nodeos chain API) to compare local state against",
	}
	TelosBlockDeltaFlag = cli.Uint64Flag{
		Name:  "telos.block-delta",
		Usage: "Compare at this many blocks behind the remote head",
	}
	TelosTwoWayStorageCompareFlag = cli.BoolFlag{
		Name:  "telos.two-way-storage-compare",
		Usage: "Compare local EVM state with the Telos native account and accountstate tables",
	}
	TelosEVMContractFlag = cli.StringFlag{
		Name:  "telos.evm-contract",
		Usage: "Native contract holding the EVM tables",
		Value: statecompare.DefaultEVMContract,
	}
	TelosComparePageLimitFlag = cli.IntFlag{
		Name:  "telos.compare.page-limit",
		Usage: "Rows requested per get_table_rows page",
		Value: statecompare.DefaultConfig.PageLimit,
	}
	TelosCompareFetchConcurrencyFlag = cli.IntFlag{
		Name:  "telos.compare.fetch-concurrency",
		Usage: "Account scopes whose accountstate pages are fetched in parallel",
		Value: statecompare.DefaultConfig.FetchConcurrency,
	}
	TelosCompareRetriesFlag = cli.IntFlag{
		Name:  "telos.compare.retries",
		Usage: "Retries of a failed remote request",
		Value: statecompare.DefaultConfig.Retry.MaxRetries,
	}
	TelosComparePageRetriesFlag = cli.IntFlag{
		Name:  "telos.compare.page-retries",
		Usage: "Retries of a malformed page or a page whose cursor did not advance",
		Value: statecompare.DefaultConfig.Retry.PageRetries,
	}
	TelosCompareRetryWaitMinFlag = cli.DurationFlag{
		Name:  "telos.compare.retry-wait-min",
		Usage: "Minimum wait between remote request retries",
		Value: statecompare.DefaultConfig.Retry.WaitMin,
	}
	TelosCompareRetryWaitMaxFlag = cli.DurationFlag{
		Name:  "telos.compare.retry-wait-max",
		Usage: "Maximum wait between remote request retries",
		Value: statecompare.DefaultConfig.Retry.WaitMax,
	}
	TelosCompareRequestTimeoutFlag = cli.DurationFlag{
		Name:  "telos.compare.request-timeout",
		Usage: "Timeout of a single remote request",
		Value: statecompare.DefaultConfig.Retry.RequestTimeout,
	}
	TelosCompareRateLimitFlag = cli.Float64Flag{
		Name:  "telos.compare.rate-limit",
		Usage: "Maximum remote requests per second (0 = unlimited)",
	}
	TelosCompareBidirectionalFlag = cli.BoolFlag{
		Name:  "telos.compare.bidirectional",
		Usage: "Also count local accounts and slots the remote tables do not have",
	}
	TelosCompareSelfCheckFlag = cli.BoolFlag{
		Name:  "telos.compare.self-check",
		Usage: "Cross-check the local scan against the state-by-height reader",
		Value: statecompare.DefaultConfig.SelfCheck,
	}
	TelosCompareDiffSamplesFlag = cli.IntFlag{
		Name:  "telos.compare.diff-samples",
		Usage: "Discrepancies kept in the report",
		Value: statecompare.DefaultConfig.MaxDiffSamples,
	}
)

var StateCompareFlags = []cli.Flag{
	&TelosEndpointFlag,
	&TelosBlockDeltaFlag,
	&TelosTwoWayStorageCompareFlag,
	&TelosEVMContractFlag,
	&TelosComparePageLimitFlag,
	&TelosCompareFetchConcurrencyFlag,
	&TelosCompareRetriesFlag,
	&TelosComparePageRetriesFlag,
	&TelosCompareRetryWaitMinFlag,
	&TelosCompareRetryWaitMaxFlag,
	&TelosCompareRequestTimeoutFlag,
	&TelosCompareRateLimitFlag,
	&TelosCompareBidirectionalFlag,
	&TelosCompareSelfCheckFlag,
	&TelosCompareDiffSamplesFlag,
}

// DefaultFlags are the flags of the node binary.
var DefaultFlags = append([]cli.Flag{
	&DataDirFlag,
	&DbSizeLimitFlag,
	&ConfigFlag,
}, append(StateCompareFlags, logging.Flags...)...)

// NodeConfig reads the datadir and database flags.
func NodeConfig(ctx *cli.Context) (node.Config, error) {
	cfg := node.Config{Dirs: datadir.New(ctx.Path(DataDirFlag.Name))}
	if err := cfg.MapSize.UnmarshalText([]byte(ctx.String(DbSizeLimitFlag.Name))); err != nil {
		return cfg, fmt.Errorf("invalid --%s: %w", DbSizeLimitFlag.Name, err)
	}
	if sz := cfg.MapSize.Bytes(); sz%256 != 0 || sz < 256 {
		return cfg, fmt.Errorf("invalid --%s: %s=%d, see: %s", DbSizeLimitFlag.Name, ctx.String(DbSizeLimitFlag.Name), sz, DbSizeLimitFlag.Usage)
	}
	return cfg, nil
}

// StateCompareConfig reads the two-way compare flags. Endpoint and block
// delta stay nil unless given, so the run can tell "unset" from a zero value.
func StateCompareConfig(ctx *cli.Context) statecompare.Config {
	cfg := statecompare.DefaultConfig
	cfg.TwoWayStorageCompare = ctx.Bool(TelosTwoWayStorageCompareFlag.Name)
	if ctx.IsSet(TelosEndpointFlag.Name) {
		endpoint := ctx.String(TelosEndpointFlag.Name)
		cfg.TelosEndpoint = &endpoint
	}
	if ctx.IsSet(TelosBlockDeltaFlag.Name) {
		delta := ctx.Uint64(TelosBlockDeltaFlag.Name)
		cfg.BlockDelta = &delta
	}
	cfg.EVMContract = ctx.String(TelosEVMContractFlag.Name)
	cfg.PageLimit = ctx.Int(TelosComparePageLimitFlag.Name)
	cfg.FetchConcurrency = ctx.Int(TelosCompareFetchConcurrencyFlag.Name)
	cfg.Retry.MaxRetries = ctx.Int(TelosCompareRetriesFlag.Name)
	cfg.Retry.PageRetries = ctx.Int(TelosComparePageRetriesFlag.Name)
	cfg.Retry.WaitMin = ctx.Duration(TelosCompareRetryWaitMinFlag.Name)
	cfg.Retry.WaitMax = ctx.Duration(TelosCompareRetryWaitMaxFlag.Name)
	cfg.Retry.RequestTimeout = ctx.Duration(TelosCompareRequestTimeoutFlag.Name)
	cfg.Retry.RequestsPerSecond = ctx.Float64(TelosCompareRateLimitFlag.Name)
	cfg.Bidirectional = ctx.Bool(TelosCompareBidirectionalFlag.Name)
	cfg.SelfCheck = ctx.Bool(TelosCompareSelfCheckFlag.Name)
	cfg.MaxDiffSamples = ctx.Int(TelosCompareDiffSamplesFlag.Name)
	return cfg
}
