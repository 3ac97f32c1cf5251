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

const storagePrefixLen = dbutils.NumberLength + length.Addr + length.Incarnation

// EncodeStorage builds the StorageChangeSet record of block blockN. prev is the
// slot value with leading zeros trimmed, empty when the slot was unset.
func EncodeStorage(blockN uint64, address []byte, incarnation uint64, slot, prev []byte) (k, v []byte) {
	k = make([]byte, storagePrefixLen)
	copy(k, dbutils.EncodeBlockNumber(blockN))
	copy(k[dbutils.NumberLength:], dbutils.PlainGenerateStoragePrefix(address, incarnation))
	v = make([]byte, length.Hash+len(prev))
	copy(v, slot)
	copy(v[length.Hash:], prev)
	return k, v
}

// DecodeStorage returns the block number, the PlainState key
// address+incarnation+slot and the value before the block.
func DecodeStorage(dbKey, dbValue []byte) (uint64, []byte, []byte, error) {
	if len(dbKey) != storagePrefixLen {
		return 0, nil, nil, fmt.Errorf("invalid storage change set key length: %d", len(dbKey))
	}
	blockN, err := dbutils.DecodeBlockNumber(dbKey[:dbutils.NumberLength])
	if err != nil {
		return 0, nil, nil, err
	}
	if len(dbValue) < length.Hash {
		return 0, nil, nil, fmt.Errorf("storage changes purged for block %d", blockN)
	}
	k := make([]byte, length.Addr+length.Incarnation+length.Hash)
	copy(k, dbKey[dbutils.NumberLength:])
	copy(k[length.Addr+length.Incarnation:], dbValue[:length.Hash])
	return blockN, k, dbValue[length.Hash:], nil
}

// FindStorage returns the value of compositeKey (address+incarnation+slot)
// before block blockNumber changed it. ok is false when the block did not
// change the slot of that incarnation.
func FindStorage(c kv.CursorDupSort, blockNumber uint64, compositeKey []byte) (v []byte, ok bool, err error) {
	if len(compositeKey) != length.Addr+length.Incarnation+length.Hash {
		return nil, false, fmt.Errorf("invalid storage key length: %d", len(compositeKey))
	}
	seek := make([]byte, storagePrefixLen)
	copy(seek, dbutils.EncodeBlockNumber(blockNumber))
	copy(seek[dbutils.NumberLength:], compositeKey[:length.Addr+length.Incarnation])
	slot := compositeKey[length.Addr+length.Incarnation:]

	dbValue, err := c.SeekBothRange(seek, slot)
	if err != nil || dbValue == nil {
		return nil, false, err
	}
	if !bytes.HasPrefix(dbValue, slot) {
		return nil, false, nil
	}
	return dbValue[length.Hash:], true, nil
}

// Walk visits the change set records of blocks >= from in table order. k is
// the PlainState key in its logical form and v the value before the change.
func Walk(c kv.Cursor, storage bool, from uint64, f func(blockN uint64, k, v []byte) error) error {
	decode := DecodeAccounts
	if storage {
		decode = DecodeStorage
	}
	for k, v, err := c.Seek(dbutils.EncodeBlockNumber(from)); k != nil || err != nil; k, v, err = c.Next() {
		if err != nil {
			return err
		}
		blockN, key, val, err := decode(k, v)
		if err != nil {
			return err
		}
		if err := f(blockN, key, val); err != nil {
			return err
		}
	}
	return nil
}
