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
	"bufio"
	"context"
	"fmt"
	"os"

	jsoniter "github.com/json-iterator/go"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// WriteDump stores fetched remote tables so that they can be compared offline.
func WriteDump(path string, tables *RemoteTables) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	w := bufio.NewWriter(f)
	stream := json.BorrowStream(w)
	defer json.ReturnStream(stream)
	stream.WriteVal(tables)
	if stream.Error != nil {
		f.Close()
		return fmt.Errorf("encode remote dump: %w", stream.Error)
	}
	if err := stream.Flush(); err != nil {
		f.Close()
		return err
	}
	if err := w.Flush(); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func ReadDump(path string) (*RemoteTables, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	var tables RemoteTables
	if err := json.NewDecoder(bufio.NewReader(f)).Decode(&tables); err != nil {
		return nil, fmt.Errorf("decode remote dump %s: %w", path, err)
	}
	return &tables, nil
}

var _ TableFetcher = (*DumpFetcher)(nil)

// DumpFetcher serves previously dumped tables. The block is fixed by the dump,
// the requested block delta is ignored.
type DumpFetcher struct {
	Tables *RemoteTables
}

func (f *DumpFetcher) ResolveBlock(context.Context, uint64) (BlockRef, error) {
	return f.Tables.Block, nil
}

func (f *DumpFetcher) FetchTables(_ context.Context, block BlockRef) (*RemoteTables, error) {
	if block.Number != f.Tables.Block.Number {
		return nil, fmt.Errorf("%w: dump is at %d, requested %d", ErrBlockMismatch, f.Tables.Block.Number, block.Number)
	}
	return f.Tables, nil
}
