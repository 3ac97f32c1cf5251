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

	"github.com/VictoriaMetrics/fastcache"
	"github.com/holiman/uint256"
	"github.com/ledgerwatch/log/v3"

	"github.com/telosnetwork/telos-erigon/common"
	"github.com/telosnetwork/telos-erigon/common/dbutils"
	"github.com/telosnetwork/telos-erigon/core/state"
	"github.com/telosnetwork/telos-erigon/core/types/accounts"
	"github.com/telosnetwork/telos-erigon/db/kv"
	"github.com/telosnetwork/telos-erigon/eth/stagedsync/stages"
)

// Snapshot is a read-only view of the local state right after Block was
// executed. It owns a read transaction and must be closed, and like the
// transaction it may only be used from the goroutine that opened it.
//
// With a database that provides snapshot isolation (MDBX, memdb) the view is
// consistent even while the node keeps executing blocks. Otherwise no block
// may be executed while the snapshot is open.
type Snapshot struct {
	tx     kv.Tx
	block  BlockRef
	reader stateReader
	logger log.Logger

	// incarnations of the accounts alive at block, filled by the first scan
	incarnations map[common.Address]uint64
}

// OpenAt fails with SnapshotUnavailable when block is not executed yet or its
// history is already pruned.
func OpenAt(ctx context.Context, db kv.RoDB, block BlockRef, logger log.Logger) (_ *Snapshot, err error) {
	tx, err := db.BeginRo(ctx)
	if err != nil {
		return nil, &SnapshotUnavailableError{Block: block.Number, Reason: "cannot open read transaction", Err: err}
	}
	defer func() {
		if err != nil {
			tx.Rollback()
		}
	}()

	executed, err := stages.GetStageProgress(tx, stages.Execution)
	if err != nil {
		return nil, &SnapshotUnavailableError{Block: block.Number, Reason: "cannot read execution progress", Err: err}
	}
	if block.Number > executed {
		return nil, &SnapshotUnavailableError{Block: block.Number, Reason: fmt.Sprintf("not executed yet, local execution progress %d", executed)}
	}
	if block.Number < executed {
		// rewinding to block needs the change sets of block+1 onwards
		for _, table := range []string{kv.AccountChangeSet, kv.StorageChangeSet} {
			firstRetained, err := stages.GetPruneProgress(tx, table)
			if err != nil {
				return nil, &SnapshotUnavailableError{Block: block.Number, Reason: "cannot read prune progress", Err: err}
			}
			if block.Number+1 < firstRetained {
				return nil, &SnapshotUnavailableError{Block: block.Number, Reason: fmt.Sprintf("history pruned, %s retained from block %d", table, firstRetained)}
			}
		}
	}

	logger.Debug("[statecompare] opened local snapshot", "block", block.Number, "executed", executed, "view", tx.ViewID())
	return &Snapshot{
		tx:     tx,
		block:  block,
		reader: newStateReader(tx, block.Number, executed),
		logger: logger,
	}, nil
}

// stateReader is the state-by-height view of a snapshot.
type stateReader interface {
	ReadAccountData(address common.Address) (*accounts.Account, error)
	ReadAccountStorage(address common.Address, incarnation uint64, key common.Hash) ([]byte, error)
	ReadAccountCode(codeHash common.Hash) ([]byte, error)
}

const accountCacheSize = 32 * 1024 * 1024

// At the executed block the plain state already is the requested view.
func newStateReader(tx kv.Tx, blockNum, executed uint64) stateReader {
	if blockNum < executed {
		return state.NewHistoryReader(tx, blockNum)
	}
	r := state.NewPlainStateReader(tx)
	r.SetAccountCache(fastcache.New(accountCacheSize))
	return r
}

func (s *Snapshot) Block() BlockRef { return s.block }

// Close releases the read transaction. It is safe to call more than once.
func (s *Snapshot) Close() {
	if s.tx != nil {
		s.tx.Rollback()
		s.tx = nil
	}
}

// ScanAccounts walks the plain account table as of the snapshot block.
func (s *Snapshot) ScanAccounts(ctx context.Context, walker func(AccountRecord) error) error {
	incarnations := make(map[common.Address]uint64)
	var acc accounts.Account
	n := 0
	err := state.WalkAsOf(s.tx, false /* storage */, s.block.Number, func(k, v []byte) error {
		if n++; n%100_000 == 0 {
			if err := ctx.Err(); err != nil {
				return err
			}
		}
		if err := acc.DecodeForStorage(v); err != nil {
			return fmt.Errorf("decode account %x: %w", k, err)
		}
		addr := common.BytesToAddress(k)
		if acc.Incarnation > 0 {
			incarnations[addr] = acc.Incarnation
		}
		return walker(accountRecord(addr, &acc))
	})
	if err != nil {
		return err
	}
	s.incarnations = incarnations
	return nil
}

// ScanStorage walks the plain storage table as of the snapshot block. Slots of
// an incarnation other than the account's incarnation at the block are skipped.
func (s *Snapshot) ScanStorage(ctx context.Context, walker func(StorageRecord) error) error {
	if s.incarnations == nil {
		if err := s.ScanAccounts(ctx, func(AccountRecord) error { return nil }); err != nil {
			return err
		}
	}
	n := 0
	return state.WalkAsOf(s.tx, true /* storage */, s.block.Number, func(k, v []byte) error {
		if n++; n%100_000 == 0 {
			if err := ctx.Err(); err != nil {
				return err
			}
		}
		addr, inc, key := dbutils.PlainParseCompositeStorageKey(k)
		if current, ok := s.incarnations[addr]; !ok || current != inc {
			return nil
		}
		rec := StorageRecord{Address: addr, Key: key}
		rec.Value.SetBytes(v)
		return walker(rec)
	})
}

// ReadAccount looks the account up through the state-by-height view. The
// second return value is false when the account did not exist at the block.
func (s *Snapshot) ReadAccount(address common.Address) (AccountRecord, bool, error) {
	acc, err := s.reader.ReadAccountData(address)
	if err != nil || acc == nil {
		return AccountRecord{}, false, err
	}
	return accountRecord(address, acc), true, nil
}

// ReadStorage looks the slot up through the state-by-height view. Absent slots
// read as zero.
func (s *Snapshot) ReadStorage(address common.Address, key common.Hash) (uint256.Int, error) {
	var value uint256.Int
	acc, err := s.reader.ReadAccountData(address)
	if err != nil || acc == nil {
		return value, err
	}
	v, err := s.reader.ReadAccountStorage(address, acc.Incarnation, key)
	if err != nil {
		return value, err
	}
	value.SetBytes(v)
	return value, nil
}

func accountRecord(addr common.Address, acc *accounts.Account) AccountRecord {
	rec := AccountRecord{
		Address:  addr,
		Nonce:    acc.Nonce,
		Balance:  acc.Balance,
		CodeHash: acc.CodeHash,
	}
	if acc.IsEmptyCodeHash() {
		rec.CodeHash = common.EmptyCodeHash
	}
	return rec
}
