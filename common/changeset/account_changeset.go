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

package changeset

import (
	"bytes"
	"fmt"

	"github.com/telosnetwork/telos-erigon/common/dbutils"
	"github.com/telosnetwork/telos-erigon/common/length"
	"github.com/telosnetwork/telos-erigon/db/kv"
)

// EncodeAccounts builds the AccountChangeSet record of block blockN. prev is
// the account encoded for storage, empty when the account did not exist.
func EncodeAccounts(blockN uint64, address, prev []byte) (k, v []byte) {
	k = dbutils.EncodeBlockNumber(blockN)
	v = make([]byte, length.Addr+len(prev))
	copy(v, address)
	copy(v[length.Addr:], prev)
	return k, v
}

func DecodeAccounts(dbKey, dbValue []byte) (uint64, []byte, []byte, error) {
	blockN, err := dbutils.DecodeBlockNumber(dbKey)
	if err != nil {
		return 0, nil, nil, fmt.Errorf("account change set key %x: %w", dbKey, err)
	}
	if len(dbValue) < length.Addr {
		return 0, nil, nil, fmt.Errorf("account changes purged for block %d", blockN)
	}
	k := dbValue[:length.Addr]
	v := dbValue[length.Addr:]
	return blockN, k, v, nil
}

// FindAccount returns the value address had before block blockNumber changed
// it. ok is false when the block did not change address.
func FindAccount(c kv.CursorDupSort, blockNumber uint64, address []byte) (v []byte, ok bool, err error) {
	k := dbutils.EncodeBlockNumber(blockNumber)
	dbValue, err := c.SeekBothRange(k, address)
	if err != nil || dbValue == nil {
		return nil, false, err
	}
	_, addr, v, err := DecodeAccounts(k, dbValue)
	if err != nil {
		return nil, false, err
	}
	if !bytes.Equal(addr, address) {
		return nil, false, nil
	}
	return v, true, nil
}
