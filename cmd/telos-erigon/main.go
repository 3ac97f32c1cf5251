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
	"fmt"
	"os"
	"os/signal"
	"runtime/debug"
	"syscall"

	"github.com/ledgerwatch/log/v3"
	"github.com/urfave/cli/v2"

	"github.com/telosnetwork/telos-erigon/cmd/utils"
	"github.com/telosnetwork/telos-erigon/node"
	"github.com/telosnetwork/telos-erigon/telos/statecompare"
	"github.com/telosnetwork/telos-erigon/turbo/logging"
)

func main() {
	defer func() {
		panicResult := recover()
		if panicResult == nil {
			return
		}

		log.Error("catch panic", "err", panicResult, "stack", string(debug.Stack()))
		os.Exit(1)
	}()

	app := &cli.App{
		Name:   "telos-erigon",
		Usage:  "Telos EVM node state tooling",
		Flags:  utils.DefaultFlags,
		Action: runNode,
	}
	if err := app.Run(os.Args); err != nil {
		_, printErr := fmt.Fprintln(os.Stderr, err)
		if printErr != nil {
			log.Warn("Fprintln error", "err", printErr)
		}
		os.Exit(1)
	}
}

func runNode(cliCtx *cli.Context) error {
	var configErr error
	if configFilePath := cliCtx.String(utils.ConfigFlag.Name); configFilePath != "" {
		configErr = utils.SetFlagsFromConfigFile(cliCtx, configFilePath)
	}
	logger := logging.SetupLoggerCtx("telos-erigon", cliCtx)
	if configErr != nil {
		logger.Warn("failed setting config flags from yaml/toml file", "err", configErr)
	}

	cfg := utils.StateCompareConfig(cliCtx)
	if !cfg.TwoWayStorageCompare {
		logger.Info("Two-way storage compare disabled, nothing to do", "flag", utils.TelosTwoWayStorageCompareFlag.Name)
		return nil
	}

	nodeCfg, err := utils.NodeConfig(cliCtx)
	if err != nil {
		return err
	}
	ctx, cancel := signal.NotifyContext(cliCtx.Context, os.Interrupt, syscall.SIGTERM)
	defer cancel()

	n, err := node.Open(ctx, nodeCfg, logger)
	if err != nil {
		logger.Error("Telos-erigon startup", "err", err)
		return err
	}
	defer n.Close()

	report, err := statecompare.MaybeRun(ctx, cfg, n.DB(), logger)
	if err != nil {
		return err
	}
	if report != nil && !report.Consistent() {
		logger.Warn("Local state diverges from Telos native state", "block", report.Block.Number,
			"mismatched", report.AccountsMismatched+report.StorageMismatched, "missingOnLocal", report.MissingOnLocal())
	}
	return nil
}
