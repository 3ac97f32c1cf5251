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

package memdb

import (
	"bytes"
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/tidwall/btree"

	"github.com/telosnetwork/telos-erigon/common"
	"github.com/telosnetwork/telos-erigon/db/kv"
)

type pair struct {
	k, v []byte
}

func lessPair(a, b pair) bool { return bytes.Compare(a.k, b.k) < 0 }

// lessDupPair orders the values of one key, so a DupSort key holds one entry
// per distinct value.
func lessDupPair(a, b pair) bool {
	if c := bytes.Compare(a.k, b.k); c != 0 {
		return c < 0
	}
	return bytes.Compare(a.v, b.v) < 0
}

type table = btree.BTreeG[pair]

func newTable(dupSort bool) *table {
	less := lessPair
	if dupSort {
		less = lessDupPair
	}
	return btree.NewBTreeGOptions[pair](less, btree.Options{NoLocks: true})
}

// first returns the first entry of key, the smallest value in a DupSort table.
func first(t *table, key []byte) (pair, bool) {
	it := t.Iter()
	defer it.Release()
	if !it.Seek(pair{k: key}) {
		return pair{}, false
	}
	p := it.Item()
	return p, bytes.Equal(p.k, key)
}

// MemoryDB is an ordered in-memory key-value store. Every transaction works on a
// copy-on-write clone of the tables, so read-only transactions observe a stable
// snapshot while a writer is active. Writers are serialized.
type MemoryDB struct {
	mu      sync.Mutex // guards tables
	writeMu sync.Mutex // held by the single active RwTx
	tables  map[string]*table

	readOnly bool
	closed   atomic.Bool
	viewID   atomic.Uint64
}

func New() *MemoryDB {
	db := &MemoryDB{tables: make(map[string]*table, len(kv.ChaindataTables))}
	for _, name := range kv.ChaindataTables {
		db.tables[name] = newTable(kv.ChaindataTablesCfg.IsDupSort(name))
	}
	return db
}

func NewTestDB(tb testing.TB) *MemoryDB {
	tb.Helper()
	db := New()
	tb.Cleanup(db.Close)
	return db
}

// ReadOnlyView returns a handle to the same data that refuses read-write transactions.
func (db *MemoryDB) ReadOnlyView() kv.RoDB {
	return &roView{db: db}
}

func (db *MemoryDB) Close() { db.closed.Store(true) }

func (db *MemoryDB) ReadOnly() bool { return db.readOnly }

func (db *MemoryDB) snapshot() map[string]*table {
	db.mu.Lock()
	defer db.mu.Unlock()
	cp := make(map[string]*table, len(db.tables))
	for name, t := range db.tables {
		cp[name] = t.Copy()
	}
	return cp
}

func (db *MemoryDB) BeginRo(ctx context.Context) (kv.Tx, error) {
	if db.closed.Load() {
		return nil, fmt.Errorf("memdb: database closed")
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return &MemTx{db: db, tables: db.snapshot(), readOnly: true, id: db.viewID.Load()}, nil
}

func (db *MemoryDB) BeginRw(ctx context.Context) (kv.RwTx, error) {
	if db.closed.Load() {
		return nil, fmt.Errorf("memdb: database closed")
	}
	if db.readOnly {
		return nil, kv.ErrReadOnlyTx
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	db.writeMu.Lock()
	return &MemTx{db: db, tables: db.snapshot(), id: db.viewID.Add(1)}, nil
}

func (db *MemoryDB) View(ctx context.Context, f func(tx kv.Tx) error) error {
	tx, err := db.BeginRo(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback()
	return f(tx)
}

func (db *MemoryDB) Update(ctx context.Context, f func(tx kv.RwTx) error) error {
	tx, err := db.BeginRw(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback()
	if err := f(tx); err != nil {
		return err
	}
	return tx.Commit()
}

type roView struct{ db *MemoryDB }

func (v *roView) Close()         {}
func (v *roView) ReadOnly() bool { return true }
func (v *roView) BeginRo(ctx context.Context) (kv.Tx, error) {
	return v.db.BeginRo(ctx)
}
func (v *roView) View(ctx context.Context, f func(tx kv.Tx) error) error {
	return v.db.View(ctx, f)
}

type MemTx struct {
	db       *MemoryDB
	tables   map[string]*table
	readOnly bool
	done     bool
	id       uint64
}

func (tx *MemTx) table(name string) (*table, error) {
	if tx.done {
		return nil, kv.ErrTxClosed
	}
	t, ok := tx.tables[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", kv.ErrUnknownTable, name)
	}
	return t, nil
}

func (tx *MemTx) ViewID() uint64 { return tx.id }

func (tx *MemTx) Has(name string, key []byte) (bool, error) {
	t, err := tx.table(name)
	if err != nil {
		return false, err
	}
	_, ok := first(t, key)
	return ok, nil
}

func (tx *MemTx) GetOne(name string, key []byte) ([]byte, error) {
	t, err := tx.table(name)
	if err != nil {
		return nil, err
	}
	p, ok := first(t, key)
	if !ok {
		return nil, nil
	}
	return p.v, nil
}

func (tx *MemTx) ForEach(name string, fromPrefix []byte, walker func(k, v []byte) error) error {
	c, err := tx.Cursor(name)
	if err != nil {
		return err
	}
	defer c.Close()
	return kv.ForEachWithCursor(c, fromPrefix, walker)
}

func (tx *MemTx) ForPrefix(name string, prefix []byte, walker func(k, v []byte) error) error {
	c, err := tx.Cursor(name)
	if err != nil {
		return err
	}
	defer c.Close()
	return kv.ForPrefixWithCursor(c, prefix, walker)
}

func (tx *MemTx) Count(name string) (uint64, error) {
	t, err := tx.table(name)
	if err != nil {
		return 0, err
	}
	return uint64(t.Len()), nil
}

func (tx *MemTx) Put(name string, k, v []byte) error {
	if tx.readOnly {
		return kv.ErrReadOnlyTx
	}
	t, err := tx.table(name)
	if err != nil {
		return err
	}
	t.Set(pair{k: common.Copy(k), v: common.Copy(v)})
	return nil
}

func (tx *MemTx) Delete(name string, k []byte) error {
	if tx.readOnly {
		return kv.ErrReadOnlyTx
	}
	t, err := tx.table(name)
	if err != nil {
		return err
	}
	for p, ok := first(t, k); ok; p, ok = first(t, k) {
		t.Delete(p)
	}
	return nil
}

func (tx *MemTx) Commit() error {
	if tx.done {
		return kv.ErrTxClosed
	}
	if tx.readOnly {
		tx.Rollback()
		return nil
	}
	tx.db.mu.Lock()
	tx.db.tables = tx.tables
	tx.db.mu.Unlock()
	tx.done = true
	tx.db.writeMu.Unlock()
	return nil
}

// Rollback is safe to call after Commit.
func (tx *MemTx) Rollback() {
	if tx.done {
		return
	}
	tx.done = true
	tx.tables = nil
	if !tx.readOnly {
		tx.db.writeMu.Unlock()
	}
}

func (tx *MemTx) Cursor(name string) (kv.Cursor, error) {
	return tx.cursor(name)
}

func (tx *MemTx) CursorDupSort(name string) (kv.CursorDupSort, error) {
	return tx.cursor(name)
}

func (tx *MemTx) RwCursorDupSort(name string) (kv.RwCursorDupSort, error) {
	if tx.readOnly {
		return nil, kv.ErrReadOnlyTx
	}
	return tx.cursor(name)
}

func (tx *MemTx) cursor(name string) (*memCursor, error) {
	t, err := tx.table(name)
	if err != nil {
		return nil, err
	}
	return &memCursor{tx: tx, name: name, t: t, it: t.Iter()}, nil
}
