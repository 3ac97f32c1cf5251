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

// Package node holds a read-only handle over the chain database of a node datadir.
package node

import (
	"context"
	"errors"
	"fmt"

	"github.com/c2h5oh/datasize"
	"github.com/ledgerwatch/log/v3"

	"github.com/telosnetwork/telos-erigon/db/kv"
	"github.com/telosnetwork/telos-erigon/db/kv/mdbx"
	"github.com/telosnetwork/telos-erigon/eth/stagedsync/stages"
	"github.com/telosnetwork/telos-erigon/node/nodecfg/datadir"
)

var ErrNoChaindata = errors.New("chaindata not found")

type Config struct {
	Dirs    datadir.Dirs
	MapSize datasize.ByteSize
}

// Node owns the chaindata handle that reconciliation runs borrow.
type Node struct {
	db kv.RoDB
}

// Open opens the chaindata of cfg.Dirs read-only. The writer may keep running.
func Open(ctx context.Context, cfg Config, logger log.Logger) (*Node, error) {
	if !cfg.Dirs.Exists() {
		return nil, fmt.Errorf("%w: %s", ErrNoChaindata, cfg.Dirs.Chaindata)
	}
	opts := mdbx.NewMDBX(logger).Label(mdbx.ChainDB).Path(cfg.Dirs.Chaindata).Readonly()
	if cfg.MapSize > 0 {
		opts = opts.MapSize(cfg.MapSize)
	}
	db, err := opts.Open(ctx)
	if err != nil {
		return nil, fmt.Errorf("open chaindata %s: %w", cfg.Dirs.Chaindata, err)
	}
	n := New(db)

	if progress, err := n.ExecutionProgress(ctx); err == nil {
		logger.Info("Opened chaindata", "path", cfg.Dirs.Chaindata, "executed", progress)
	}
	return n, nil
}

// New wraps an already opened database.
func New(db kv.RoDB) *Node {
	return &Node{db: db}
}

func (n *Node) DB() kv.RoDB { return n.db }

// ExecutionProgress is the highest block whose state is in PlainState.
func (n *Node) ExecutionProgress(ctx context.Context) (progress uint64, err error) {
	err = n.db.View(ctx, func(tx kv.Tx) error {
		progress, err = stages.GetStageProgress(tx, stages.Execution)
		return err
	})
	return progress, err
}

func (n *Node) Close() {
	if n.db != nil {
		n.db.Close()
		n.db = nil
	}
}
