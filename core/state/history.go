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
	"errors"
	"fmt"

	"github.com/RoaringBitmap/roaring/v2/roaring64"

	"github.com/telosnetwork/telos-erigon/common/changeset"
	"github.com/telosnetwork/telos-erigon/common/dbutils"
	"github.com/telosnetwork/telos-erigon/common/length"
	"github.com/telosnetwork/telos-erigon/db/kv"
)

// ErrKeyNotFound means the key was not changed at or after the requested block,
// so its value is the one in PlainState.
var ErrKeyNotFound = errors.New("key not found in history")

// GetAsOf returns the value of a PlainState key as it was before block
// timestamp was executed. For storage the key is address+incarnation+slot.
func GetAsOf(tx kv.Tx, storage bool, key []byte, timestamp uint64) ([]byte, error) {
	v, err := FindByHistory(tx, storage, key, timestamp)
	if err == nil {
		return v, nil
	}
	if !errors.Is(err, ErrKeyNotFound) {
		return nil, err
	}
	if !storage {
		return tx.GetOne(kv.PlainState, key)
	}
	c, err := tx.CursorDupSort(kv.PlainState)
	if err != nil {
		return nil, err
	}
	defer c.Close()
	return plainStorage(c, key)
}

// plainStorage reads a slot from the DupSort layout of PlainState, where
// address+incarnation holds slot+value entries.
func plainStorage(c kv.CursorDupSort, compositeKey []byte) ([]byte, error) {
	prefix, slot := compositeKey[:length.Addr+length.Incarnation], compositeKey[length.Addr+length.Incarnation:]
	v, err := c.SeekBothRange(prefix, slot)
	if err != nil || v == nil {
		return nil, err
	}
	if !bytes.HasPrefix(v, slot) {
		return nil, nil
	}
	return v[length.Hash:], nil
}

// FindByHistory locates the first block >= timestamp which changed key and
// returns the value the key had before that block. An empty value means the key
// did not exist.
func FindByHistory(tx kv.Tx, storage bool, key []byte, timestamp uint64) ([]byte, error) {
	var indexTable, csTable string
	var seek []byte
	if storage {
		if len(key) != length.Addr+length.Incarnation+length.Hash {
			return nil, fmt.Errorf("invalid storage key length: %d", len(key))
		}
		indexTable, csTable = kv.StorageHistory, kv.StorageChangeSet
		seek = dbutils.StorageIndexChunkKey(key[:length.Addr], key[length.Addr+length.Incarnation:], timestamp)
	} else {
		if len(key) != length.Addr {
			return nil, fmt.Errorf("invalid account key length: %d", len(key))
		}
		indexTable, csTable = kv.AccountsHistory, kv.AccountChangeSet
		seek = dbutils.AccountIndexChunkKey(key, timestamp)
	}
	indexPrefix := seek[:len(seek)-dbutils.NumberLength]

	c, err := tx.Cursor(indexTable)
	if err != nil {
		return nil, err
	}
	defer c.Close()
	cs, err := tx.CursorDupSort(csTable)
	if err != nil {
		return nil, err
	}
	defer cs.Close()

	for k, v, err := c.Seek(seek); k != nil || err != nil; k, v, err = c.Next() {
		if err != nil {
			return nil, err
		}
		if len(k) != len(seek) || !bytes.HasPrefix(k, indexPrefix) {
			break
		}
		index := roaring64.New()
		if _, err := index.ReadFrom(bytes.NewReader(v)); err != nil {
			return nil, fmt.Errorf("history index %s %x: %w", indexTable, k, err)
		}
		it := index.Iterator()
		it.AdvanceIfNeeded(timestamp)
		for it.HasNext() {
			changeSetBlock := it.Next()
			var data []byte
			var ok bool
			if storage {
				data, ok, err = changeset.FindStorage(cs, changeSetBlock, key)
			} else {
				data, ok, err = changeset.FindAccount(cs, changeSetBlock, key)
			}
			if err != nil {
				return nil, err
			}
			if !ok {
				// the storage index is shared by all incarnations of a slot
				if !storage {
					return nil, fmt.Errorf("finding %x in the changeset %d: missing record", key, changeSetBlock)
				}
				continue
			}
			if data == nil {
				data = []byte{}
			}
			return data, nil
		}
	}
	return nil, ErrKeyNotFound
}
