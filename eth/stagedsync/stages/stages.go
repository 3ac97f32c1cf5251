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

package stages

import (
	"encoding/binary"
	"fmt"

	"github.com/telosnetwork/telos-erigon/db/kv"
)

// SyncStage represents a stage of the staged sync.
// It is used to persist the information about the stage state into the database.
// It should not be empty and should be unique.
type SyncStage string

// Execution executes each block; PlainState and the change sets are written here
var Execution SyncStage = "Execution"

// GetStageProgress retrieves saved progress of given sync stage from the database
func GetStageProgress(db kv.Getter, stage SyncStage) (uint64, error) {
	v, err := db.GetOne(kv.SyncStageProgress, []byte(stage))
	if err != nil {
		return 0, err
	}
	return unmarshalData(v)
}

func SaveStageProgress(db kv.Putter, stage SyncStage, progress uint64) error {
	return db.Put(kv.SyncStageProgress, []byte(stage), marshalData(progress))
}

// GetPruneProgress returns the first block whose history is still retained for
// the given table. Zero means nothing was pruned.
func GetPruneProgress(db kv.Getter, table string) (uint64, error) {
	v, err := db.GetOne(kv.PruneProgress, []byte(table))
	if err != nil {
		return 0, err
	}
	return unmarshalData(v)
}

func SavePruneProgress(db kv.Putter, table string, firstRetained uint64) error {
	return db.Put(kv.PruneProgress, []byte(table), marshalData(firstRetained))
}

func marshalData(blockNumber uint64) []byte {
	return encodeBigEndian(blockNumber)
}

func unmarshalData(data []byte) (uint64, error) {
	if len(data) == 0 {
		return 0, nil
	}
	if len(data) < 8 {
		return 0, fmt.Errorf("value must be at least 8 bytes, got %d", len(data))
	}
	return binary.BigEndian.Uint64(data[:8]), nil
}

func encodeBigEndian(n uint64) []byte {
	var v [8]byte
	binary.BigEndian.PutUint64(v[:], n)
	return v[:]
}
