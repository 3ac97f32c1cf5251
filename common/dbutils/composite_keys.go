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

package dbutils

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math"

	"github.com/telosnetwork/telos-erigon/common"
	"github.com/telosnetwork/telos-erigon/common/length"
)

const NumberLength = 8

// EncodeBlockNumber encodes a block number as big endian uint64
func EncodeBlockNumber(number uint64) []byte {
	enc := make([]byte, NumberLength)
	binary.BigEndian.PutUint64(enc, number)
	return enc
}

var ErrInvalidSize = errors.New("bit endian number has an invalid size")

func DecodeBlockNumber(number []byte) (uint64, error) {
	if len(number) != NumberLength {
		return 0, fmt.Errorf("%w: %d", ErrInvalidSize, len(number))
	}
	return binary.BigEndian.Uint64(number), nil
}

// PlainGenerateCompositeStorageKey = address + incarnation + key
// For contract storage (for plain state)
func PlainGenerateCompositeStorageKey(address []byte, incarnation uint64, key []byte) []byte {
	compositeKey := make([]byte, length.Addr+length.Incarnation+length.Hash)
	copy(compositeKey, address)
	binary.BigEndian.PutUint64(compositeKey[length.Addr:], incarnation)
	copy(compositeKey[length.Addr+length.Incarnation:], key)
	return compositeKey
}

func PlainParseCompositeStorageKey(compositeKey []byte) (common.Address, uint64, common.Hash) {
	prefixLen := length.Addr + length.Incarnation
	addr, inc := PlainParseStoragePrefix(compositeKey[:prefixLen])
	var key common.Hash
	copy(key[:], compositeKey[prefixLen:prefixLen+length.Hash])
	return addr, inc, key
}

// PlainGenerateStoragePrefix = address + incarnation
func PlainGenerateStoragePrefix(address []byte, incarnation uint64) []byte {
	prefix := make([]byte, length.Addr+length.Incarnation)
	copy(prefix, address)
	binary.BigEndian.PutUint64(prefix[length.Addr:], incarnation)
	return prefix
}

func PlainParseStoragePrefix(prefix []byte) (common.Address, uint64) {
	var addr common.Address
	copy(addr[:], prefix[:length.Addr])
	inc := binary.BigEndian.Uint64(prefix[length.Addr : length.Addr+length.Incarnation])
	return addr, inc
}

// IsPlainAccountKey reports whether a PlainState key addresses an account record
// rather than the storage of one incarnation.
func IsPlainAccountKey(k []byte) bool { return len(k) == length.Addr }

// IsPlainStoragePrefix reports whether a PlainState key is address+incarnation,
// the DupSort key of a contract's storage slots.
func IsPlainStoragePrefix(k []byte) bool { return len(k) == length.Addr+length.Incarnation }

// AccountIndexChunkKey = address + shard max block
func AccountIndexChunkKey(address []byte, blockNum uint64) []byte {
	k := make([]byte, length.Addr+NumberLength)
	copy(k, address)
	binary.BigEndian.PutUint64(k[length.Addr:], blockNum)
	return k
}

// StorageIndexChunkKey = address + key + shard max block. Incarnation is not part of the key.
func StorageIndexChunkKey(address []byte, key []byte, blockNum uint64) []byte {
	k := make([]byte, length.Addr+length.Hash+NumberLength)
	copy(k, address)
	copy(k[length.Addr:], key)
	binary.BigEndian.PutUint64(k[length.Addr+length.Hash:], blockNum)
	return k
}

// LastShardSuffix marks the open (last) shard of a history index entry.
const LastShardSuffix uint64 = math.MaxUint64
