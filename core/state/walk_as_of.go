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
	"fmt"

	"github.com/tidwall/btree"

	"github.com/telosnetwork/telos-erigon/common"
	"github.com/telosnetwork/telos-erigon/common/changeset"
	"github.com/telosnetwork/telos-erigon/common/dbutils"
	"github.com/telosnetwork/telos-erigon/common/length"
	"github.com/telosnetwork/telos-erigon/db/kv"
)

type override struct {
	k, v []byte
}

func lessOverride(a, b override) bool { return bytes.Compare(a.k, b.k) < 0 }

// WalkAsOf walks the accounts (storage=false) or storage slots (storage=true)
// of PlainState as they were right after block blockNum, in key order. Storage
// is reported with the logical key address+incarnation+slot. Records which did
// not exist at that block are skipped.
func WalkAsOf(tx kv.Tx, storage bool, blockNum uint64, walker func(k, v []byte) error) error {
	overrides, err := collectOverrides(tx, storage, blockNum+1)
	if err != nil {
		return err
	}

	c, err := tx.CursorDupSort(kv.PlainState)
	if err != nil {
		return err
	}
	defer c.Close()
	plain := &plainStateIter{c: c, storage: storage}

	it := overrides.Iter()
	defer it.Release()
	hasOverride := it.First()

	emit := func(k, v []byte) error {
		if len(v) == 0 {
			return nil
		}
		return walker(k, v)
	}

	k, v, err := plain.first()
	for {
		if err != nil {
			return err
		}
		if k == nil && !hasOverride {
			return nil
		}
		switch {
		case k == nil:
			o := it.Item()
			if err := emit(o.k, o.v); err != nil {
				return err
			}
			hasOverride = it.Next()
		case !hasOverride:
			if err := walker(k, v); err != nil {
				return err
			}
			k, v, err = plain.next()
		default:
			o := it.Item()
			switch cmp := bytes.Compare(k, o.k); {
			case cmp < 0:
				if err := walker(k, v); err != nil {
					return err
				}
				k, v, err = plain.next()
			case cmp > 0:
				if err := emit(o.k, o.v); err != nil {
					return err
				}
				hasOverride = it.Next()
			default:
				if err := emit(o.k, o.v); err != nil {
					return err
				}
				hasOverride = it.Next()
				k, v, err = plain.next()
			}
		}
	}
}

// plainStateIter yields the PlainState records of one kind. Storage entries
// are turned from address+incarnation -> slot+value into the logical form.
type plainStateIter struct {
	c       kv.CursorDupSort
	storage bool
}

func (p *plainStateIter) first() ([]byte, []byte, error) { return p.settle(p.c.First()) }

func (p *plainStateIter) next() ([]byte, []byte, error) { return p.settle(p.c.Next()) }

// settle moves forward from k to the first record of the walked kind.
func (p *plainStateIter) settle(k, v []byte, err error) ([]byte, []byte, error) {
	for {
		if err != nil || k == nil {
			return nil, nil, err
		}
		switch {
		case dbutils.IsPlainAccountKey(k):
			if !p.storage {
				return k, v, nil
			}
			k, v, err = p.c.Next()
		case dbutils.IsPlainStoragePrefix(k) && p.storage:
			if len(v) < length.Hash {
				return nil, nil, fmt.Errorf("invalid PlainState storage entry %x: %x", k, v)
			}
			compositeKey := make([]byte, 0, len(k)+length.Hash)
			compositeKey = append(append(compositeKey, k...), v[:length.Hash]...)
			return compositeKey, v[length.Hash:], nil
		default:
			k, v, err = p.c.NextNoDup()
		}
	}
}

// collectOverrides returns, for every key changed at or after block from, the
// value it had before the earliest such change.
func collectOverrides(tx kv.Tx, storage bool, from uint64) (*btree.BTreeG[override], error) {
	csTable := kv.AccountChangeSet
	if storage {
		csTable = kv.StorageChangeSet
	}
	c, err := tx.Cursor(csTable)
	if err != nil {
		return nil, err
	}
	defer c.Close()

	overrides := btree.NewBTreeGOptions[override](lessOverride, btree.Options{NoLocks: true})
	err = changeset.Walk(c, storage, from, func(_ uint64, k, v []byte) error {
		if _, ok := overrides.Get(override{k: k}); ok {
			return nil
		}
		overrides.Set(override{k: common.Copy(k), v: common.Copy(v)})
		return nil
	})
	if err != nil {
		return nil, err
	}
	return overrides, nil
}
