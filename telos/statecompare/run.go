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

package statecompare

import (
	"context"
	"fmt"

	"github.com/ledgerwatch/log/v3"
	"golang.org/x/sync/errgroup"

	"github.com/telosnetwork/telos-erigon/db/kv"
	"github.com/telosnetwork/telos-erigon/telos/antelope"
)

// MaybeRun runs the reconciliation when it is enabled and fully configured.
// A skipped run returns a nil report and a nil error: missing configuration is
// only warned about.
func MaybeRun(ctx context.Context, cfg Config, db kv.RoDB, logger log.Logger) (*Report, error) {
	if !cfg.TwoWayStorageCompare {
		return nil, nil
	}
	decision := Resolve(cfg.BlockDelta, cfg.TelosEndpoint)
	if decision.Skipped() {
		runsSkipped.Inc()
		logger.Warn(decision.Reason)
		return nil, nil
	}

	client := antelope.NewClient(decision.Endpoint, logger, cfg.Retry.ClientOptions()...)
	report, err := Run(ctx, cfg, NewRemoteFetcher(client, cfg, logger), db, decision.BlockDelta, logger)
	if err != nil {
		return nil, err
	}
	return &report, nil
}

// Run fetches the remote tables and indexes the local state concurrently,
// then compares them. Any failure aborts the run before a report exists.
func Run(ctx context.Context, cfg Config, fetcher TableFetcher, db kv.RoDB, blockDelta uint64, logger log.Logger) (report Report, err error) {
	defer func() {
		if err != nil {
			runsFailed.Inc()
			logger.Error("Two-way storage compare aborted", "err", err)
		}
	}()

	logger.Info("Fetching account and accountstate from Telos native RPC (Can take a long time)...")
	block, err := fetcher.ResolveBlock(ctx, blockDelta)
	if err != nil {
		return Report{}, err
	}
	logger.Info("Two-way comparing state (local vs. Telos) at height", "block", block.Number)

	var (
		remote *RemoteTables
		local  *LocalIndex
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		tables, err := fetcher.FetchTables(gctx, block)
		if err != nil {
			return err
		}
		if tables.Block.Number != block.Number {
			return fmt.Errorf("%w: remote tables at %d, resolved %d", ErrBlockMismatch, tables.Block.Number, block.Number)
		}
		remote = tables
		return nil
	})
	g.Go(func() error {
		idx, err := LoadLocalIndex(gctx, db, block, cfg.SelfCheck, logger)
		if err != nil {
			return err
		}
		local = idx
		return nil
	})
	if err := g.Wait(); err != nil {
		return Report{}, err
	}
	if local.Block.Number != remote.Block.Number {
		return Report{}, fmt.Errorf("%w: local %d, remote %d", ErrBlockMismatch, local.Block.Number, remote.Block.Number)
	}

	report = NewComparator(cfg, logger).Compare(remote, local)
	exportReport(&report)
	runsCompleted.Inc()

	logger.Info("Two-way state compare report\n" + report.String())
	logger.Info("Comparing done",
		"block", block.Number, "remoteHead", report.RemoteHead, "skew", report.Skew(),
		"accountsCompared", report.AccountsCompared, "accountsMatched", report.AccountsMatched, "accountsMismatched", report.AccountsMismatched,
		"slotsCompared", report.StorageCompared, "slotsMatched", report.StorageMatched, "slotsMismatched", report.StorageMismatched,
		"missingOnLocal", report.MissingOnLocal(), "missingOnRemote", report.MissingOnRemote())
	return report, nil
}
