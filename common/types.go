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

package common

import (
	"bytes"
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/telosnetwork/telos-erigon/common/length"
)

var (
	// EmptyCodeHash is the known hash of the empty EVM bytecode.
	EmptyCodeHash = HexToHash("0xc5d2460186f7233c927e7db2dcc703c0e500b653ca82273b7bfad8045d85a470")
)

// Hash represents the 32 byte Keccak256 hash of arbitrary data.
type Hash [length.Hash]byte

// BytesToHash sets b to hash.
// If b is larger than len(h), b will be cropped from the left.
func BytesToHash(b []byte) Hash {
	var h Hash
	h.SetBytes(b)
	return h
}

// HexToHash sets byte representation of s to hash.
// If b is larger than len(h), b will be cropped from the left.
func HexToHash(s string) Hash { return BytesToHash(FromHex(s)) }

// Bytes gets the byte representation of the underlying hash.
func (h Hash) Bytes() []byte { return h[:] }

// Hex converts a hash to a hex string.
func (h Hash) Hex() string { return "0x" + hex.EncodeToString(h[:]) }

func (h Hash) String() string { return h.Hex() }

// SetBytes sets the hash to the value of b.
// If b is larger than len(h), b will be cropped from the left.
func (h *Hash) SetBytes(b []byte) {
	if len(b) > len(h) {
		b = b[len(b)-length.Hash:]
	}
	copy(h[length.Hash-len(b):], b)
}

func (h Hash) IsZero() bool { return h == Hash{} }

// MarshalText returns the hex representation of h.
func (h Hash) MarshalText() ([]byte, error) { return []byte(h.Hex()), nil }

// UnmarshalText parses a hash in hex syntax, with or without 0x prefix.
func (h *Hash) UnmarshalText(input []byte) error {
	return decodeFixed(h[:], input, "Hash")
}

// Address represents the 20 byte address of an Ethereum account.
type Address [length.Addr]byte

// BytesToAddress returns Address with value b.
// If b is larger than len(h), b will be cropped from the left.
func BytesToAddress(b []byte) Address {
	var a Address
	a.SetBytes(b)
	return a
}

// HexToAddress returns Address with byte values of s.
func HexToAddress(s string) Address { return BytesToAddress(FromHex(s)) }

func (a Address) Bytes() []byte { return a[:] }

func (a Address) Hex() string { return "0x" + hex.EncodeToString(a[:]) }

func (a Address) String() string { return a.Hex() }

// SetBytes sets the address to the value of b.
// If b is larger than len(a), b will be cropped from the left.
func (a *Address) SetBytes(b []byte) {
	if len(b) > len(a) {
		b = b[len(b)-length.Addr:]
	}
	copy(a[length.Addr-len(b):], b)
}

// Cmp compares two addresses.
func (a Address) Cmp(other Address) int { return bytes.Compare(a[:], other[:]) }

func (a Address) MarshalText() ([]byte, error) { return []byte(a.Hex()), nil }

func (a *Address) UnmarshalText(input []byte) error {
	return decodeFixed(a[:], input, "Address")
}

// FromHex returns the bytes represented by the hexadecimal string s.
// s may be prefixed with "0x". Odd length input is left padded with a zero.
func FromHex(s string) []byte {
	s = strings.TrimPrefix(strings.TrimPrefix(s, "0x"), "0X")
	if len(s)%2 == 1 {
		s = "0" + s
	}
	b, _ := hex.DecodeString(s)
	return b
}

// Copy returns a copy of b, nil stays nil.
func Copy(b []byte) []byte {
	if b == nil {
		return nil
	}
	c := make([]byte, len(b))
	copy(c, b)
	return c
}

func decodeFixed(dst []byte, input []byte, typ string) error {
	s := strings.TrimPrefix(strings.TrimPrefix(string(input), "0x"), "0X")
	if len(s) != 2*len(dst) {
		return fmt.Errorf("hex string has length %d, want %d for %s", len(s), 2*len(dst), typ)
	}
	if _, err := hex.Decode(dst, []byte(s)); err != nil {
		return fmt.Errorf("invalid hex for %s: %w", typ, err)
	}
	return nil
}
