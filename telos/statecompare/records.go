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
	"fmt"

	"github.com/holiman/uint256"

	"github.com/telosnetwork/telos-erigon/common"
)

type AccountRecord struct {
	Address  common.Address `json:"address"`
	Nonce    uint64         `json:"nonce"`
	Balance  uint256.Int    `json:"balance"`
	CodeHash common.Hash    `json:"codeHash"`
}

type StorageKey struct {
	Address common.Address
	Key     common.Hash
}

func (k StorageKey) String() string { return fmt.Sprintf("%x/%x", k.Address, k.Key) }

type StorageRecord struct {
	Address common.Address `json:"address"`
	Key     common.Hash    `json:"key"`
	Value   uint256.Int    `json:"value"`
}

func (r *StorageRecord) StorageKey() StorageKey {
	return StorageKey{Address: r.Address, Key: r.Key}
}

// BlockRef pins both sides of a comparison to one height. Hash is only known
// when the remote head itself is compared.
type BlockRef struct {
	Number uint64       `json:"number"`
	Hash   *common.Hash `json:"hash,omitempty"`
}

func (b BlockRef) String() string {
	if b.Hash != nil {
		return fmt.Sprintf("%d (%x)", b.Number, b.Hash[:])
	}
	return fmt.Sprintf("%d", b.Number)
}

// RemoteTables is the full content of the remote account and accountstate
// tables at Block.
type RemoteTables struct {
	Block BlockRef `json:"block"`
	// Head is the remote head seen once paging finished. get_table_rows
	// serves head state, so the rows may include changes made after Block.
	Head     uint64          `json:"head,omitempty"`
	Accounts []AccountRecord `json:"accounts"`
	Storage  []StorageRecord `json:"storage"`
}
