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

package accounts

import (
	"encoding/binary"
	"fmt"
	"math/bits"

	"github.com/holiman/uint256"

	"github.com/telosnetwork/telos-erigon/common"
)

// Account is the representation of an EVM account as stored in PlainState.
// Storage root is not kept: PlainState is the source of truth for storage.
type Account struct {
	Nonce       uint64
	Balance     uint256.Int
	CodeHash    common.Hash // hash of the bytecode
	Incarnation uint64
}

const (
	fieldNonce       = 1
	fieldBalance     = 2
	fieldIncarnation = 4
	fieldCodeHash    = 8
)

func (a *Account) Reset() {
	a.Nonce = 0
	a.Incarnation = 0
	a.Balance.Clear()
	a.CodeHash = common.EmptyCodeHash
}

func (a *Account) IsEmptyCodeHash() bool {
	return a.CodeHash == common.EmptyCodeHash || a.CodeHash == (common.Hash{})
}

func (a *Account) EncodingLengthForStorage() uint {
	var structLength uint = 1 // 1 byte for fieldset

	if !a.Balance.IsZero() {
		structLength += uint(a.Balance.ByteLen()) + 1
	}

	if a.Nonce > 0 {
		structLength += uint((bits.Len64(a.Nonce)+7)/8) + 1
	}

	if !a.IsEmptyCodeHash() {
		structLength += 33 // 32-byte array + 1 bytes for length
	}

	if a.Incarnation > 0 {
		structLength += uint((bits.Len64(a.Incarnation)+7)/8) + 1
	}

	return structLength
}

func (a *Account) EncodeForStorage(buffer []byte) {
	var fieldSet = 0 // start with first bit set to 0
	var pos = 1
	if a.Nonce > 0 {
		fieldSet = fieldNonce
		nonceBytes := (bits.Len64(a.Nonce) + 7) / 8
		buffer[pos] = byte(nonceBytes)
		putUint(buffer[pos+1:pos+1+nonceBytes], a.Nonce)
		pos += nonceBytes + 1
	}

	// Encoding balance
	if !a.Balance.IsZero() {
		fieldSet |= fieldBalance
		balanceBytes := a.Balance.ByteLen()
		buffer[pos] = byte(balanceBytes)
		a.Balance.WriteToSlice(buffer[pos+1 : pos+1+balanceBytes])
		pos += balanceBytes + 1
	}

	if a.Incarnation > 0 {
		fieldSet |= fieldIncarnation
		incarnationBytes := (bits.Len64(a.Incarnation) + 7) / 8
		buffer[pos] = byte(incarnationBytes)
		putUint(buffer[pos+1:pos+1+incarnationBytes], a.Incarnation)
		pos += incarnationBytes + 1
	}

	// Encoding CodeHash
	if !a.IsEmptyCodeHash() {
		fieldSet |= fieldCodeHash
		buffer[pos] = 32
		copy(buffer[pos+1:], a.CodeHash[:])
	}

	buffer[0] = byte(fieldSet)
}

// SerialiseForStorage allocates and encodes in one go.
func SerialiseForStorage(a *Account) []byte {
	buf := make([]byte, a.EncodingLengthForStorage())
	a.EncodeForStorage(buf)
	return buf
}

func (a *Account) DecodeForStorage(enc []byte) error {
	a.Reset()

	if len(enc) == 0 {
		return nil
	}

	var fieldSet = enc[0]
	var pos = 1

	if fieldSet&fieldNonce > 0 {
		if len(enc) <= pos {
			return fmt.Errorf("malformed CBOR for Account.Nonce: missing length")
		}
		decodeLength := int(enc[pos])
		if len(enc) < pos+decodeLength+1 || decodeLength > 8 {
			return fmt.Errorf("malformed CBOR for Account.Nonce: %x, length %d", enc[pos+1:], decodeLength)
		}
		a.Nonce = bytesToUint64(enc[pos+1 : pos+decodeLength+1])
		pos += decodeLength + 1
	}

	if fieldSet&fieldBalance > 0 {
		if len(enc) <= pos {
			return fmt.Errorf("malformed CBOR for Account.Balance: missing length")
		}
		decodeLength := int(enc[pos])
		if len(enc) < pos+decodeLength+1 || decodeLength > 32 {
			return fmt.Errorf("malformed CBOR for Account.Balance: %x, length %d", enc[pos+1:], decodeLength)
		}
		a.Balance.SetBytes(enc[pos+1 : pos+decodeLength+1])
		pos += decodeLength + 1
	}

	if fieldSet&fieldIncarnation > 0 {
		if len(enc) <= pos {
			return fmt.Errorf("malformed CBOR for Account.Incarnation: missing length")
		}
		decodeLength := int(enc[pos])
		if len(enc) < pos+decodeLength+1 || decodeLength > 8 {
			return fmt.Errorf("malformed CBOR for Account.Incarnation: %x, length %d", enc[pos+1:], decodeLength)
		}
		a.Incarnation = bytesToUint64(enc[pos+1 : pos+decodeLength+1])
		pos += decodeLength + 1
	}

	if fieldSet&fieldCodeHash > 0 {
		if len(enc) <= pos {
			return fmt.Errorf("malformed CBOR for Account.CodeHash: missing length")
		}
		decodeLength := int(enc[pos])
		if decodeLength != 32 || len(enc) < pos+decodeLength+1 {
			return fmt.Errorf("malformed CBOR for Account.CodeHash: %x, length %d", enc[pos+1:], decodeLength)
		}
		copy(a.CodeHash[:], enc[pos+1:pos+decodeLength+1])
	}

	return nil
}

func bytesToUint64(buf []byte) (x uint64) {
	for i, b := range buf {
		x = x<<8 + uint64(b)
		if i == 7 {
			return
		}
	}
	return
}

func putUint(dst []byte, v uint64) {
	var tmp [8]byte
	binary.BigEndian.PutUint64(tmp[:], v)
	copy(dst, tmp[8-len(dst):])
}
