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

package mdbx

import (
	"fmt"
	"runtime"

	"github.com/erigontech/mdbx-go/mdbx"

	"github.com/telosnetwork/telos-erigon/db/kv"
)

type MdbxTx struct {
	tx       *mdbx.Txn
	db       *MdbxKV
	cursors  map[uint64]*MdbxCursor
	cursorID uint64
	readOnly bool
	closed   bool
}

func (tx *MdbxTx) dbi(table string) (mdbx.DBI, error) {
	if tx.closed {
		return 0, kv.ErrTxClosed
	}
	dbi, ok := tx.db.dbis[table]
	if !ok {
		return 0, fmt.Errorf("%w: %s", kv.ErrUnknownTable, table)
	}
	return dbi, nil
}

func (tx *MdbxTx) ViewID() uint64 { return tx.tx.ID() }

func (tx *MdbxTx) Has(table string, key []byte) (bool, error) {
	dbi, err := tx.dbi(table)
	if err != nil {
		return false, err
	}
	if dbi == nonExistingDBI {
		return false, nil
	}
	if _, err = tx.tx.Get(dbi, key); err != nil {
		if mdbx.IsNotFound(err) {
			return false, nil
		}
		return false, fmt.Errorf("table: %s, %w", table, err)
	}
	return true, nil
}

func (tx *MdbxTx) GetOne(table string, key []byte) ([]byte, error) {
	dbi, err := tx.dbi(table)
	if err != nil {
		return nil, err
	}
	if dbi == nonExistingDBI {
		return nil, nil
	}
	v, err := tx.tx.Get(dbi, key)
	if mdbx.IsNotFound(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("table: %s, %w", table, err)
	}
	return v, nil
}

func (tx *MdbxTx) ForEach(table string, fromPrefix []byte, walker func(k, v []byte) error) error {
	c, err := tx.Cursor(table)
	if err != nil {
		return err
	}
	defer c.Close()
	return kv.ForEachWithCursor(c, fromPrefix, walker)
}

func (tx *MdbxTx) ForPrefix(table string, prefix []byte, walker func(k, v []byte) error) error {
	c, err := tx.Cursor(table)
	if err != nil {
		return err
	}
	defer c.Close()
	return kv.ForPrefixWithCursor(c, prefix, walker)
}

func (tx *MdbxTx) Count(table string) (uint64, error) {
	dbi, err := tx.dbi(table)
	if err != nil {
		return 0, err
	}
	if dbi == nonExistingDBI {
		return 0, nil
	}
	st, err := tx.tx.StatDBI(dbi)
	if err != nil {
		return 0, err
	}
	return st.Entries, nil
}

func (tx *MdbxTx) Put(table string, k, v []byte) error {
	if tx.readOnly {
		return kv.ErrReadOnlyTx
	}
	dbi, err := tx.dbi(table)
	if err != nil {
		return err
	}
	return tx.tx.Put(dbi, k, v, 0)
}

func (tx *MdbxTx) Delete(table string, k []byte) error {
	if tx.readOnly {
		return kv.ErrReadOnlyTx
	}
	dbi, err := tx.dbi(table)
	if err != nil {
		return err
	}
	err = tx.tx.Del(dbi, k, nil)
	if mdbx.IsNotFound(err) {
		return nil
	}
	return err
}

func (tx *MdbxTx) Cursor(table string) (kv.Cursor, error) {
	return tx.openCursor(table)
}

func (tx *MdbxTx) CursorDupSort(table string) (kv.CursorDupSort, error) {
	return tx.openCursor(table)
}

func (tx *MdbxTx) RwCursorDupSort(table string) (kv.RwCursorDupSort, error) {
	if tx.readOnly {
		return nil, kv.ErrReadOnlyTx
	}
	return tx.openCursor(table)
}

func (tx *MdbxTx) openCursor(table string) (*MdbxCursor, error) {
	dbi, err := tx.dbi(table)
	if err != nil {
		return nil, err
	}
	c := &MdbxCursor{table: table, tx: tx}
	if dbi == nonExistingDBI {
		return c, nil
	}
	c.c, err = tx.tx.OpenCursor(dbi)
	if err != nil {
		return nil, fmt.Errorf("table: %s, %w", table, err)
	}
	if tx.cursors == nil {
		tx.cursors = make(map[uint64]*MdbxCursor)
	}
	tx.cursorID++
	c.id = tx.cursorID
	tx.cursors[c.id] = c
	return c, nil
}

func (tx *MdbxTx) closeCursors() {
	for _, c := range tx.cursors {
		c.Close()
	}
	tx.cursors = nil
}

func (tx *MdbxTx) Commit() error {
	if tx.closed {
		return kv.ErrTxClosed
	}
	tx.closed = true
	defer func() {
		tx.db.wg.Done()
		runtime.UnlockOSThread()
	}()
	tx.closeCursors()
	_, err := tx.tx.Commit()
	return err
}

// Rollback is safe to call after Commit.
func (tx *MdbxTx) Rollback() {
	if tx.closed {
		return
	}
	tx.closed = true
	defer func() {
		tx.db.wg.Done()
		runtime.UnlockOSThread()
	}()
	tx.closeCursors()
	tx.tx.Abort()
}

type MdbxCursor struct {
	table string
	tx    *MdbxTx
	id    uint64
	c     *mdbx.Cursor // nil for a table missing from a read-only database
}

func (c *MdbxCursor) get(k []byte, op uint) ([]byte, []byte, error) {
	if c.c == nil {
		return nil, nil, nil
	}
	k, v, err := c.c.Get(k, nil, op)
	if err != nil {
		if mdbx.IsNotFound(err) {
			return nil, nil, nil
		}
		return []byte{}, nil, fmt.Errorf("table: %s, %w", c.table, err)
	}
	return k, v, nil
}

func (c *MdbxCursor) First() ([]byte, []byte, error)   { return c.get(nil, mdbx.First) }
func (c *MdbxCursor) Last() ([]byte, []byte, error)    { return c.get(nil, mdbx.Last) }
func (c *MdbxCursor) Next() ([]byte, []byte, error)    { return c.get(nil, mdbx.Next) }
func (c *MdbxCursor) Prev() ([]byte, []byte, error)    { return c.get(nil, mdbx.Prev) }
func (c *MdbxCursor) Current() ([]byte, []byte, error) { return c.get(nil, mdbx.GetCurrent) }

func (c *MdbxCursor) Seek(seek []byte) ([]byte, []byte, error) {
	if len(seek) == 0 {
		return c.First()
	}
	return c.get(seek, mdbx.SetRange)
}

func (c *MdbxCursor) SeekExact(key []byte) ([]byte, []byte, error) {
	return c.get(key, mdbx.SetKey)
}

func (c *MdbxCursor) Put(k, v []byte) error {
	if c.c == nil {
		return fmt.Errorf("%w: %s", kv.ErrUnknownTable, c.table)
	}
	return c.c.Put(k, v, 0)
}

func (c *MdbxCursor) DeleteCurrent() error {
	if c.c == nil {
		return nil
	}
	return c.c.Del(mdbx.Current)
}

func (c *MdbxCursor) SeekBothRange(key, value []byte) ([]byte, error) {
	if c.c == nil {
		return nil, nil
	}
	_, v, err := c.c.Get(key, value, mdbx.GetBothRange)
	if err != nil {
		if mdbx.IsNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("table: %s, in SeekBothRange: %w", c.table, err)
	}
	return v, nil
}

// NextNoDup - iterate with skipping all duplicates
func (c *MdbxCursor) NextNoDup() ([]byte, []byte, error) { return c.get(nil, mdbx.NextNoDup) }

func (c *MdbxCursor) Close() {
	if c.c != nil {
		c.c.Close()
		delete(c.tx.cursors, c.id)
		c.c = nil
	}
}
