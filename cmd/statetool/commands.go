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

package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/telosnetwork/telos-erigon/node"
	"github.com/telosnetwork/telos-erigon/node/nodecfg/datadir"
	"github.com/telosnetwork/telos-erigon/telos/antelope"
	"github.com/telosnetwork/telos-erigon/telos/statecompare"
)

var errDivergent = errors.New("local state diverges from the remote tables")

var (
	endpoint    string
	blockDelta  uint64
	remoteDump  string
	outFile     string
	failOnDiff  bool
	compareFlag = statecompare.DefaultConfig
)

func withRemote(cmd *cobra.Command) {
	f := cmd.Flags()
	f.StringVar(&endpoint, "telos.endpoint", "", "Telos native RPC endpoint (nodeos chain API)")
	f.Uint64Var(&blockDelta, "telos.block-delta", 0, "Read the tables this many blocks behind the remote head")
	f.StringVar(&compareFlag.EVMContract, "telos.evm-contract", compareFlag.EVMContract, "Native contract holding the EVM tables")
	f.IntVar(&compareFlag.PageLimit, "telos.compare.page-limit", compareFlag.PageLimit, "Rows requested per get_table_rows page")
	f.IntVar(&compareFlag.FetchConcurrency, "telos.compare.fetch-concurrency", compareFlag.FetchConcurrency, "Account scopes fetched in parallel")
	f.IntVar(&compareFlag.Retry.MaxRetries, "telos.compare.retries", compareFlag.Retry.MaxRetries, "Retries of a failed remote request")
	f.IntVar(&compareFlag.Retry.PageRetries, "telos.compare.page-retries", compareFlag.Retry.PageRetries, "Retries of an unusable page")
	f.DurationVar(&compareFlag.Retry.WaitMin, "telos.compare.retry-wait-min", compareFlag.Retry.WaitMin, "Minimum wait between retries")
	f.DurationVar(&compareFlag.Retry.WaitMax, "telos.compare.retry-wait-max", compareFlag.Retry.WaitMax, "Maximum wait between retries")
	f.DurationVar(&compareFlag.Retry.RequestTimeout, "telos.compare.request-timeout", compareFlag.Retry.RequestTimeout, "Timeout of a single remote request")
	f.Float64Var(&compareFlag.Retry.RequestsPerSecond, "telos.compare.rate-limit", 0, "Maximum remote requests per second (0 = unlimited)")
}

// remoteFetcher builds the live fetcher. Both the endpoint and the block
// delta must be given explicitly.
func remoteFetcher(cmd *cobra.Command) (*statecompare.RemoteFetcher, uint64, error) {
	cfg := compareFlag
	if cmd.Flags().Changed("telos.endpoint") {
		cfg.TelosEndpoint = &endpoint
	}
	if cmd.Flags().Changed("telos.block-delta") {
		cfg.BlockDelta = &blockDelta
	}
	decision := statecompare.Resolve(cfg.BlockDelta, cfg.TelosEndpoint)
	if decision.Skipped() {
		return nil, 0, decision.Err()
	}
	client := antelope.NewClient(decision.Endpoint, logger, cfg.Retry.ClientOptions()...)
	return statecompare.NewRemoteFetcher(client, cfg, logger), decision.BlockDelta, nil
}

func fetchRemoteCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "fetch-remote",
		Short: "Dump the account and accountstate tables to a JSON file",
		RunE: func(cmd *cobra.Command, args []string) error {
			fetcher, delta, err := remoteFetcher(cmd)
			if err != nil {
				return err
			}
			tables, err := statecompare.Fetch(cmd.Context(), fetcher, delta)
			if err != nil {
				return err
			}
			if err := statecompare.WriteDump(outFile, tables); err != nil {
				return err
			}
			logger.Info("Wrote remote dump", "file", outFile, "block", tables.Block.Number,
				"accounts", len(tables.Accounts), "slots", len(tables.Storage))
			return nil
		},
	}
	withRemote(cmd)
	cmd.Flags().StringVar(&outFile, "out", "remote.json", "Dump file to write")
	return cmd
}

func compareCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "compare",
		Short: "Compare a remote dump or a live endpoint with the datadir state",
		RunE: func(cmd *cobra.Command, args []string) error {
			var (
				fetcher statecompare.TableFetcher
				delta   uint64
			)
			if remoteDump != "" {
				tables, err := statecompare.ReadDump(remoteDump)
				if err != nil {
					return err
				}
				fetcher = &statecompare.DumpFetcher{Tables: tables}
			} else {
				live, d, err := remoteFetcher(cmd)
				if err != nil {
					return err
				}
				fetcher, delta = live, d
			}

			n, err := node.Open(cmd.Context(), node.Config{Dirs: datadir.New(datadirCli)}, logger)
			if err != nil {
				return err
			}
			defer n.Close()

			report, err := statecompare.Run(cmd.Context(), compareFlag, fetcher, n.DB(), delta, logger)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), report.String())
			if failOnDiff && !report.Consistent() {
				return fmt.Errorf("%w at block %d", errDivergent, report.Block.Number)
			}
			return nil
		},
	}
	withRemote(cmd)
	f := cmd.Flags()
	f.StringVar(&remoteDump, "remote-dump", "", "Compare against a dump written by fetch-remote instead of a live endpoint")
	f.BoolVar(&compareFlag.Bidirectional, "telos.compare.bidirectional", false, "Also count local records the remote tables do not have")
	f.BoolVar(&compareFlag.SelfCheck, "telos.compare.self-check", compareFlag.SelfCheck, "Cross-check the local scan against the state-by-height reader")
	f.IntVar(&compareFlag.MaxDiffSamples, "telos.compare.diff-samples", compareFlag.MaxDiffSamples, "Discrepancies kept in the report")
	f.BoolVar(&failOnDiff, "fail-on-diff", false, "Exit with an error when the states diverge")
	return cmd
}
