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

package kv

import (
	"context"
	"errors"
)

/*
Naming:
 tx - Database Transaction
 blockNum - Ethereum block number - same across all nodes
 RoTx - Read-Only Database Transaction. RwTx - read-write
 k, v - key, value
 Table - collection of key-value pairs. Keys are sorted and unique
 Cursor - low-level api to navigate over Table

Methods Naming:
 Get: exact match of criteria
 ForPrefix: iterate over keys having the given prefix
*/

var (
	ErrUnknownTable = errors.New("unknown table")
	ErrReadOnlyTx   = errors.New("write in read-only transaction")
	ErrTxClosed     = errors.New("transaction already closed")
)

type Closer interface {
	Close()
}

/*
RoDB low-level interface - common abstraction over MDBX and the in-memory database.
Warning: can't move `tx` between goroutines.
Lifetime: read data valid until end of transaction.
Example:

	tx, err := db.BeginRo(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	... application logic using `tx`
*/
type RoDB interface {
	Closer
	ReadOnly() bool
	BeginRo(ctx context.Context) (Tx, error)

	// View like BeginRo but for short-living transactions. Example:
	//	 if err := db.View(ctx, func(tx kv.Tx) error {
	//	    ... code which uses database in transaction
	//	 }); err != nil {
	//			return err
	//	}
	View(ctx context.Context, f func(tx Tx) error) error
}

type RwDB interface {
	RoDB

	Update(ctx context.Context, f func(tx RwTx) error) error
	BeginRw(ctx context.Context) (RwTx, error)
}

// Tx
// WARNING:
//   - Tx is not threadsafe and may only be used in the goroutine that created it
//   - a read-only Tx sees a consistent snapshot of the database for its whole lifetime
type Tx interface {
	Getter

	// Cursor - creates cursor object on top of given table.
	Cursor(table string) (Cursor, error)
	CursorDupSort(table string) (CursorDupSort, error) // CursorDupSort - can be used if table has the DupSort flag

	// Count returns the number of entries in the table.
	Count(table string) (uint64, error)

	// ViewID returns the identifier associated with this transaction. For a
	// read-only transaction, this corresponds to the snapshot being read.
	ViewID() uint64

	Rollback() // Rollback - abandon all the operations of the transaction instead of saving them.
}

type RwTx interface {
	Tx
	Putter

	RwCursorDupSort(table string) (RwCursorDupSort, error)

	Commit() error // Commit all the operations of a transaction into the database.
}

/*
Cursor - low-level api to navigate through a db table
If methods (like First/Next/Seek) return error, then returned key SHOULD not be nil (can be []byte{} for example).
Example iterate table:

	c, err := tx.Cursor(tableName)
	if err != nil {
		return err
	}
	defer c.Close()
	for k, v, err := c.First(); k != nil; k, v, err = c.Next() {
	   if err != nil {
		   return err
	   }
	   ... logic using `k` and `v` (key and value)
	}
*/
type Cursor interface {
	First() ([]byte, []byte, error)               // First - position at first key/data item
	Seek(seek []byte) ([]byte, []byte, error)     // Seek - position at first key greater than or equal to specified key
	SeekExact(key []byte) ([]byte, []byte, error) // SeekExact - position at exact matching key if exists
	Next() ([]byte, []byte, error)                // Next - position at next key/value
	Prev() ([]byte, []byte, error)                // Prev - position at previous key
	Last() ([]byte, []byte, error)                // Last - position at last key and last possible value
	Current() ([]byte, []byte, error)             // Current - return key/data at current cursor position

	Close()
}

type RwCursor interface {
	Cursor

	Put(k, v []byte) error // Put - based on order

	// DeleteCurrent This function deletes the key/data pair to which the cursor refers.
	// This does not invalidate the cursor, so operations such as MDB_NEXT
	// can still be used on it.
	// Both MDB_NEXT and MDB_GET_CURRENT will return the same record after
	// this operation.
	DeleteCurrent() error
}

// CursorDupSort navigates a DupSort table, where one key holds several values
// kept in sorted order. First/Next/Seek visit every key/value pair.
type CursorDupSort interface {
	Cursor

	SeekBothRange(key, value []byte) ([]byte, error) // SeekBothRange - exact match of the key, but range match of the value
	NextNoDup() ([]byte, []byte, error)              // NextNoDup - position at first data item of next key
}

type RwCursorDupSort interface {
	CursorDupSort
	RwCursor
}

type Getter interface {
	// Has indicates whether a key exists in the database.
	Has(table string, key []byte) (bool, error)

	// GetOne references a readonly section of memory that must not be accessed after txn has terminated.
	// In a DupSort table it returns the first value of key.
	GetOne(table string, key []byte) (val []byte, err error)

	// ForEach iterates over entries with keys greater or equal to fromPrefix.
	// walker is called for each eligible entry.
	// If walker returns an error iteration stops and the error is returned.
	ForEach(table string, fromPrefix []byte, walker func(k, v []byte) error) error

	// ForPrefix iterates over all entries whose key starts with prefix.
	ForPrefix(table string, prefix []byte, walker func(k, v []byte) error) error
}

// Putter wraps the database write operations.
type Putter interface {
	// Put inserts or updates a single entry.
	Put(table string, k, v []byte) error

	// Delete removes an entry. In a DupSort table it removes all values of k.
	Delete(table string, k []byte) error
}
