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
	"context"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"sync"

	"github.com/c2h5oh/datasize"
	"github.com/erigontech/mdbx-go/mdbx"
	"github.com/ledgerwatch/log/v3"

	"github.com/telosnetwork/telos-erigon/db/kv"
)

const nonExistingDBI mdbx.DBI = 999_999_999

type Label string

const (
	ChainDB Label = "chaindata"
	InMem   Label = "inMem"
)

type MdbxOpts struct {
	label      Label // marker to distinct db instances - one process may open many databases
	path       string
	inMem      bool
	mapSize    datasize.ByteSize
	growthStep datasize.ByteSize
	pageSize   datasize.ByteSize
	flags      uint
	tables     []string
	log        log.Logger
}

func NewMDBX(logger log.Logger) MdbxOpts {
	return MdbxOpts{
		label:      ChainDB,
		mapSize:    2 * datasize.TB,
		growthStep: 2 * datasize.GB,
		pageSize:   4 * datasize.KB,
		flags:      mdbx.NoReadahead | mdbx.Coalesce | mdbx.Durable,
		tables:     kv.ChaindataTables,
		log:        logger,
	}
}

func (opts MdbxOpts) Label(label Label) MdbxOpts {
	opts.label = label
	return opts
}

func (opts MdbxOpts) Path(path string) MdbxOpts {
	opts.path = path
	return opts
}

func (opts MdbxOpts) InMem(tmpDir string) MdbxOpts {
	opts.inMem = true
	opts.label = InMem
	opts.path = tmpDir
	opts.mapSize = 512 * datasize.MB
	opts.growthStep = 2 * datasize.MB
	return opts
}

func (opts MdbxOpts) Exclusive() MdbxOpts {
	opts.flags = opts.flags | mdbx.Exclusive
	return opts
}

func (opts MdbxOpts) Readonly() MdbxOpts {
	opts.flags = opts.flags | mdbx.Readonly
	return opts
}

func (opts MdbxOpts) MapSize(sz datasize.ByteSize) MdbxOpts {
	opts.mapSize = sz
	return opts
}

func (opts MdbxOpts) GrowthStep(sz datasize.ByteSize) MdbxOpts {
	opts.growthStep = sz
	return opts
}

func (opts MdbxOpts) WithTables(tables []string) MdbxOpts {
	opts.tables = tables
	return opts
}

func (opts MdbxOpts) readOnly() bool { return opts.flags&mdbx.Readonly != 0 }

func (opts MdbxOpts) Open(ctx context.Context) (*MdbxKV, error) {
	if opts.path == "" {
		return nil, fmt.Errorf("mdbx: empty path")
	}
	if !opts.readOnly() {
		if err := os.MkdirAll(opts.path, 0744); err != nil {
			return nil, fmt.Errorf("mdbx: create dir %s: %w", opts.path, err)
		}
	}
	logger := opts.log
	if logger == nil {
		logger = log.New()
	}
	logger = logger.New("db", opts.label)

	env, err := mdbx.NewEnv(mdbx.Label(opts.label))
	if err != nil {
		return nil, err
	}
	if err = env.SetOption(mdbx.OptMaxDB, 200); err != nil {
		env.Close()
		return nil, err
	}
	if !opts.readOnly() {
		if err = env.SetGeometry(-1, -1, int(opts.mapSize), int(opts.growthStep), -1, int(opts.pageSize)); err != nil {
			env.Close()
			return nil, err
		}
	}
	if err = env.Open(opts.path, opts.flags, 0644); err != nil {
		env.Close()
		return nil, fmt.Errorf("mdbx: open %s: %w", opts.path, err)
	}

	db := &MdbxKV{
		opts: opts,
		env:  env,
		log:  logger,
		wg:   &sync.WaitGroup{},
		dbis: make(map[string]mdbx.DBI, len(opts.tables)),
	}
	if err := db.openTables(ctx); err != nil {
		env.Close()
		return nil, err
	}
	return db, nil
}

func (opts MdbxOpts) MustOpen() *MdbxKV {
	db, err := opts.Open(context.Background())
	if err != nil {
		panic(fmt.Errorf("fail to open mdbx: %w", err))
	}
	return db
}

// openTables resolves table handles once. In read-only mode a missing table is
// remembered and served as an empty table.
func (db *MdbxKV) openTables(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()

	if db.opts.readOnly() {
		txn, err := db.env.BeginTxn(nil, mdbx.Readonly)
		if err != nil {
			return err
		}
		for _, name := range db.opts.tables {
			dbi, err := txn.OpenDBISimple(name, tableFlags(name))
			if err != nil {
				if mdbx.IsNotFound(err) {
					db.dbis[name] = nonExistingDBI
					db.log.Debug("table not found, treating as empty", "table", name)
					continue
				}
				txn.Abort()
				return fmt.Errorf("table: %s, %w", name, err)
			}
			db.dbis[name] = dbi
		}
		// handles opened by an aborted transaction are closed, commit keeps them
		_, err = txn.Commit()
		return err
	}

	txn, err := db.env.BeginTxn(nil, 0)
	if err != nil {
		return err
	}
	for _, name := range db.opts.tables {
		dbi, err := txn.OpenDBISimple(name, mdbx.Create|tableFlags(name))
		if err != nil {
			txn.Abort()
			return fmt.Errorf("table: %s, %w", name, err)
		}
		db.dbis[name] = dbi
	}
	_, err = txn.Commit()
	return err
}

// tableFlags translates kv.ChaindataTablesCfg into native flags. Opening an
// existing table with different flags fails with MDBX_INCOMPATIBLE.
func tableFlags(name string) uint {
	if kv.ChaindataTablesCfg.IsDupSort(name) {
		return mdbx.DupSort
	}
	return 0
}

type MdbxKV struct {
	env  *mdbx.Env
	log  log.Logger
	wg   *sync.WaitGroup
	opts MdbxOpts
	dbis map[string]mdbx.DBI
}

func (db *MdbxKV) ReadOnly() bool { return db.opts.readOnly() }

// Close closes db
// All transactions must be closed before closing the database.
func (db *MdbxKV) Close() {
	if db.env == nil {
		return
	}

	db.wg.Wait()
	db.env.Close()
	db.env = nil

	if db.opts.inMem {
		if err := os.RemoveAll(db.opts.path); err != nil {
			db.log.Warn("failed to remove in-mem db file", "err", err)
		}
	} else {
		db.log.Info("database closed (MDBX)", "path", filepath.Base(db.opts.path))
	}
}

func (db *MdbxKV) BeginRo(ctx context.Context) (txn kv.Tx, err error) {
	if db.env == nil {
		return nil, fmt.Errorf("db closed")
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	// reader slots are bound to the OS thread
	runtime.LockOSThread()
	tx, err := db.env.BeginTxn(nil, mdbx.Readonly)
	if err != nil {
		runtime.UnlockOSThread()
		return nil, err
	}
	db.wg.Add(1)
	return &MdbxTx{db: db, tx: tx, readOnly: true}, nil
}

func (db *MdbxKV) BeginRw(ctx context.Context) (txn kv.RwTx, err error) {
	if db.env == nil {
		return nil, fmt.Errorf("db closed")
	}
	if db.ReadOnly() {
		return nil, kv.ErrReadOnlyTx
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	runtime.LockOSThread()
	tx, err := db.env.BeginTxn(nil, 0)
	if err != nil {
		runtime.UnlockOSThread() // unlock only in case of error. normal flow is "defer .Rollback()"
		return nil, err
	}
	db.wg.Add(1)
	return &MdbxTx{db: db, tx: tx}, nil
}

func (db *MdbxKV) View(ctx context.Context, f func(tx kv.Tx) error) error {
	tx, err := db.BeginRo(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback()
	return f(tx)
}

func (db *MdbxKV) Update(ctx context.Context, f func(tx kv.RwTx) error) error {
	tx, err := db.BeginRw(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback()
	if err = f(tx); err != nil {
		return err
	}
	return tx.Commit()
}
