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
	"github.com/VictoriaMetrics/fastcache"

	"github.com/telosnetwork/telos-erigon/common"
	"github.com/telosnetwork/telos-erigon/common/dbutils"
	"github.com/telosnetwork/telos-erigon/core/types/accounts"
	"github.com/telosnetwork/telos-erigon/db/kv"
)

// PlainStateReader reads data from so called "plain state".
// Data in the plain state is stored using un-hashed account/storage items
// and always reflects the latest executed block.
type PlainStateReader struct {
	tx           kv.Tx
	accountCache *fastcache.Cache
}

func NewPlainStateReader(tx kv.Tx) *PlainStateReader {
	return &PlainStateReader{
		tx: tx,
	}
}

func (r *PlainStateReader) SetAccountCache(accountCache *fastcache.Cache) {
	r.accountCache = accountCache
}

func (r *PlainStateReader) ReadAccountData(address common.Address) (*accounts.Account, error) {
	var enc []byte
	var ok bool
	if r.accountCache != nil {
		enc, ok = r.accountCache.HasGet(nil, address[:])
	}
	if !ok {
		var err error
		enc, err = r.tx.GetOne(kv.PlainState, address[:])
		if err != nil {
			return nil, err
		}
		if r.accountCache != nil {
			r.accountCache.Set(address[:], enc)
		}
	}
	if len(enc) == 0 {
		return nil, nil
	}
	acc := &accounts.Account{}
	if err := acc.DecodeForStorage(enc); err != nil {
		return nil, err
	}
	return acc, nil
}

func (r *PlainStateReader) ReadAccountStorage(address common.Address, incarnation uint64, key common.Hash) ([]byte, error) {
	c, err := r.tx.CursorDupSort(kv.PlainState)
	if err != nil {
		return nil, err
	}
	defer c.Close()
	return plainStorage(c, dbutils.PlainGenerateCompositeStorageKey(address[:], incarnation, key[:]))
}

func (r *PlainStateReader) ReadAccountCode(codeHash common.Hash) ([]byte, error) {
	if codeHash == common.EmptyCodeHash {
		return nil, nil
	}
	return r.tx.GetOne(kv.Code, codeHash[:])
}
