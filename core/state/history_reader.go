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
	"github.com/telosnetwork/telos-erigon/common"
	"github.com/telosnetwork/telos-erigon/common/dbutils"
	"github.com/telosnetwork/telos-erigon/core/types/accounts"
	"github.com/telosnetwork/telos-erigon/db/kv"
)

// HistoryReader reads the state as it was right after block blockNum was
// executed. It is backed by the history indices and change sets.
type HistoryReader struct {
	tx       kv.Tx
	blockNum uint64
}

func NewHistoryReader(tx kv.Tx, blockNum uint64) *HistoryReader {
	return &HistoryReader{tx: tx, blockNum: blockNum}
}

// ReadAccountData returns nil when the account did not exist at the block.
func (r *HistoryReader) ReadAccountData(address common.Address) (*accounts.Account, error) {
	enc, err := GetAsOf(r.tx, false /* storage */, address[:], r.blockNum+1)
	if err != nil {
		return nil, err
	}
	if len(enc) == 0 {
		return nil, nil
	}
	var a accounts.Account
	if err := a.DecodeForStorage(enc); err != nil {
		return nil, err
	}
	return &a, nil
}

func (r *HistoryReader) ReadAccountStorage(address common.Address, incarnation uint64, key common.Hash) ([]byte, error) {
	compositeKey := dbutils.PlainGenerateCompositeStorageKey(address[:], incarnation, key[:])
	v, err := GetAsOf(r.tx, true /* storage */, compositeKey, r.blockNum+1)
	if err != nil {
		return nil, err
	}
	if len(v) == 0 {
		return nil, nil
	}
	return v, nil
}

// ReadAccountCode reads from the Code table, which is content addressed and never pruned.
func (r *HistoryReader) ReadAccountCode(codeHash common.Hash) ([]byte, error) {
	if codeHash == common.EmptyCodeHash {
		return nil, nil
	}
	return r.tx.GetOne(kv.Code, codeHash[:])
}
