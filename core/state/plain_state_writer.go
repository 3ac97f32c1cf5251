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

package state

import (
	"bytes"

	"github.com/RoaringBitmap/roaring/v2/roaring64"
	"github.com/holiman/uint256"

	"github.com/telosnetwork/telos-erigon/common"
	"github.com/telosnetwork/telos-erigon/common/changeset"
	"github.com/telosnetwork/telos-erigon/common/dbutils"
	"github.com/telosnetwork/telos-erigon/core/types/accounts"
	"github.com/telosnetwork/telos-erigon/db/kv"
)

// PlainStateWriter applies the state changes of one block: it updates
// PlainState and records the previous values in the change sets and history
// indices, so that HistoryReader can rewind them. Only the last shard of
// every history key is maintained.
type PlainStateWriter struct {
	tx          kv.RwTx
	blockNumber uint64
}

func NewPlainStateWriter(tx kv.RwTx, blockNumber uint64) *PlainStateWriter {
	return &PlainStateWriter{tx: tx, blockNumber: blockNumber}
}

// UpdateAccountData writes account. original is nil when the account did not exist.
func (w *PlainStateWriter) UpdateAccountData(address common.Address, original, account *accounts.Account) error {
	if err := w.writeAccountChange(address, original); err != nil {
		return err
	}
	// PlainState is DupSort: a second Put would add a value instead of replacing it
	if err := w.tx.Delete(kv.PlainState, address[:]); err != nil {
		return err
	}
	return w.tx.Put(kv.PlainState, address[:], accounts.SerialiseForStorage(account))
}

func (w *PlainStateWriter) UpdateAccountCode(codeHash common.Hash, code []byte) error {
	return w.tx.Put(kv.Code, codeHash[:], code)
}

// DeleteAccount removes the account record. Storage of the deleted incarnation
// is expected to be cleared by the caller slot by slot.
func (w *PlainStateWriter) DeleteAccount(address common.Address, original *accounts.Account) error {
	if err := w.writeAccountChange(address, original); err != nil {
		return err
	}
	return w.tx.Delete(kv.PlainState, address[:])
}

func (w *PlainStateWriter) WriteAccountStorage(address common.Address, incarnation uint64, key common.Hash, original, value *uint256.Int) error {
	if original.Eq(value) {
		return nil
	}
	cs, err := w.tx.CursorDupSort(kv.StorageChangeSet)
	if err != nil {
		return err
	}
	defer cs.Close()
	compositeKey := dbutils.PlainGenerateCompositeStorageKey(address[:], incarnation, key[:])
	_, recorded, err := changeset.FindStorage(cs, w.blockNumber, compositeKey)
	if err != nil {
		return err
	}
	if !recorded {
		k, v := changeset.EncodeStorage(w.blockNumber, address[:], incarnation, key[:], original.Bytes())
		if err := w.tx.Put(kv.StorageChangeSet, k, v); err != nil {
			return err
		}
		if err := w.appendHistory(kv.StorageHistory, dbutils.StorageIndexChunkKey(address[:], key[:], dbutils.LastShardSuffix)); err != nil {
			return err
		}
	}

	c, err := w.tx.RwCursorDupSort(kv.PlainState)
	if err != nil {
		return err
	}
	defer c.Close()
	prefix := dbutils.PlainGenerateStoragePrefix(address[:], incarnation)
	current, err := c.SeekBothRange(prefix, key[:])
	if err != nil {
		return err
	}
	if current != nil && bytes.HasPrefix(current, key[:]) {
		if err := c.DeleteCurrent(); err != nil {
			return err
		}
	}
	if value.IsZero() {
		return nil
	}
	return c.Put(prefix, append(common.Copy(key[:]), value.Bytes()...))
}

// writeAccountChange keeps the first original value seen within the block.
func (w *PlainStateWriter) writeAccountChange(address common.Address, original *accounts.Account) error {
	cs, err := w.tx.CursorDupSort(kv.AccountChangeSet)
	if err != nil {
		return err
	}
	defer cs.Close()
	_, recorded, err := changeset.FindAccount(cs, w.blockNumber, address[:])
	if err != nil || recorded {
		return err
	}
	var prev []byte
	if original != nil {
		prev = accounts.SerialiseForStorage(original)
	}
	k, v := changeset.EncodeAccounts(w.blockNumber, address[:], prev)
	if err := w.tx.Put(kv.AccountChangeSet, k, v); err != nil {
		return err
	}
	return w.appendHistory(kv.AccountsHistory, dbutils.AccountIndexChunkKey(address[:], dbutils.LastShardSuffix))
}

// appendHistory adds the block to the history shard stored under key.
func (w *PlainStateWriter) appendHistory(table string, key []byte) error {
	index := roaring64.New()
	v, err := w.tx.GetOne(table, key)
	if err != nil {
		return err
	}
	if len(v) > 0 {
		if _, err := index.ReadFrom(bytes.NewReader(v)); err != nil {
			return err
		}
	}
	index.Add(w.blockNumber)
	index.RunOptimize()
	buf, err := index.ToBytes()
	if err != nil {
		return err
	}
	return w.tx.Put(table, key, buf)
}
