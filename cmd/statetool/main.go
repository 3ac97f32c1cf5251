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
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ledgerwatch/log/v3"
	"github.com/spf13/cobra"

	"github.com/telosnetwork/telos-erigon/node/nodecfg/datadir"
	"github.com/telosnetwork/telos-erigon/turbo/logging"
)

var (
	datadirCli string
	logger     log.Logger = log.Root()
)

func rootCommand() *cobra.Command {
	startTime := time.Now()
	rootCmd := &cobra.Command{
		Use:          "statetool",
		Short:        "Fetch Telos native EVM tables and compare them with a node datadir",
		SilenceUsage: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			logger = logging.SetupLoggerCmd("statetool", cmd)
			logger.Info(cmd.Name() + " starting")
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			logger.Info(cmd.Name(), "took", time.Since(startTime))
		},
	}
	rootCmd.PersistentFlags().StringVar(&datadirCli, "datadir", datadir.DefaultDataDir(), "Data directory for the databases")
	logging.AddFlags(rootCmd.PersistentFlags())

	rootCmd.AddCommand(fetchRemoteCommand(), compareCommand())
	return rootCmd
}

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := rootCommand().ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
