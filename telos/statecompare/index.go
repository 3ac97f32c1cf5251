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

	"github.com/holiman/uint256"
	"github.com/ledgerwatch/log/v3"

	"github.com/telosnetwork/telos-erigon/common"
	"github.com/telosnetwork/telos-erigon/db/kv"
)

// LocalIndex holds the local side of a comparison keyed by the natural
// identifiers. It is built once per run.
type LocalIndex struct {
	Block    BlockRef
	Accounts map[common.Address]AccountRecord
	Storage  map[StorageKey]uint256.Int
}

func NewLocalIndex(block BlockRef, accounts []AccountRecord, storage []StorageRecord) *LocalIndex {
	idx := &LocalIndex{
		Block:    block,
		Accounts: make(map[common.Address]AccountRecord, len(accounts)),
		Storage:  make(map[StorageKey]uint256.Int, len(storage)),
	}
	for _, a := range accounts {
		idx.Accounts[a.Address] = a
	}
	for i := range storage {
		idx.Storage[storage[i].StorageKey()] = storage[i].Value
	}
	return idx
}

// LoadLocalIndex opens a snapshot at block, scans it into an index and
// releases it before returning.
func LoadLocalIndex(ctx context.Context, db kv.RoDB, block BlockRef, withSelfCheck bool, logger log.Logger) (*LocalIndex, error) {
	snap, err := OpenAt(ctx, db, block, logger)
	if err != nil {
		return nil, err
	}
	defer snap.Close()

	var check *selfCheck
	if withSelfCheck {
		check = newSelfCheck(snap)
	}

	idx := &LocalIndex{
		Block:    block,
		Accounts: make(map[common.Address]AccountRecord),
		Storage:  make(map[StorageKey]uint256.Int),
	}
	if err := snap.ScanAccounts(ctx, func(rec AccountRecord) error {
		idx.Accounts[rec.Address] = rec
		if check != nil {
			return check.account(rec)
		}
		return nil
	}); err != nil {
		return nil, err
	}
	if err := snap.ScanStorage(ctx, func(rec StorageRecord) error {
		idx.Storage[rec.StorageKey()] = rec.Value
		if check != nil {
			return check.storage(rec)
		}
		return nil
	}); err != nil {
		return nil, err
	}
	if check != nil {
		check.finish(logger)
	}

	logger.Info("[statecompare] indexed local state", "block", block.Number, "accounts", len(idx.Accounts), "slots", len(idx.Storage))
	return idx, nil
}
