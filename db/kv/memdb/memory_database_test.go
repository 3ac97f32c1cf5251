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
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/telosnetwork/telos-erigon/db/kv"
)

func TestPutGetCursor(t *testing.T) {
	t.Parallel()
	db := NewTestDB(t)
	ctx := context.Background()

	require.NoError(t, db.Update(ctx, func(tx kv.RwTx) error {
		for _, k := range []string{"b", "a", "d", "c"} {
			if err := tx.Put(kv.Code, []byte(k), []byte("v"+k)); err != nil {
				return err
			}
		}
		return nil
	}))

	require.NoError(t, db.View(ctx, func(tx kv.Tx) error {
		v, err := tx.GetOne(kv.Code, []byte("c"))
		require.NoError(t, err)
		require.Equal(t, []byte("vc"), v)

		v, err = tx.GetOne(kv.Code, []byte("x"))
		require.NoError(t, err)
		require.Nil(t, v)

		c, err := tx.Cursor(kv.Code)
		require.NoError(t, err)
		defer c.Close()

		var keys []string
		for k, _, err := c.First(); k != nil; k, _, err = c.Next() {
			require.NoError(t, err)
			keys = append(keys, string(k))
		}
		require.Equal(t, []string{"a", "b", "c", "d"}, keys)

		k, _, err := c.Seek([]byte("bb"))
		require.NoError(t, err)
		require.Equal(t, "c", string(k))

		k, _, err = c.SeekExact([]byte("bb"))
		require.NoError(t, err)
		require.Nil(t, k)

		k, _, err = c.Last()
		require.NoError(t, err)
		require.Equal(t, "d", string(k))

		k, _, err = c.Prev()
		require.NoError(t, err)
		require.Equal(t, "c", string(k))

		cnt, err := tx.Count(kv.Code)
		require.NoError(t, err)
		require.Equal(t, uint64(4), cnt)
		return nil
	}))
}

func TestForPrefix(t *testing.T) {
	t.Parallel()
	db := NewTestDB(t)
	ctx := context.Background()

	require.NoError(t, db.Update(ctx, func(tx kv.RwTx) error {
		for _, k := range []string{"aa1", "aa2", "ab1", "b"} {
			if err := tx.Put(kv.Code, []byte(k), nil); err != nil {
				return err
			}
		}
		return nil
	}))

	tx, err := db.BeginRo(ctx)
	require.NoError(t, err)
	defer tx.Rollback()

	var keys []string
	require.NoError(t, tx.ForPrefix(kv.Code, []byte("aa"), func(k, v []byte) error {
		keys = append(keys, string(k))
		return nil
	}))
	require.Equal(t, []string{"aa1", "aa2"}, keys)

	keys = keys[:0]
	require.NoError(t, tx.ForEach(kv.Code, []byte("ab"), func(k, v []byte) error {
		keys = append(keys, string(k))
		return nil
	}))
	require.Equal(t, []string{"ab1", "b"}, keys)
}

func TestReadTxIsolation(t *testing.T) {
	t.Parallel()
	db := NewTestDB(t)
	ctx := context.Background()

	require.NoError(t, db.Update(ctx, func(tx kv.RwTx) error {
		return tx.Put(kv.Code, []byte("k"), []byte("old"))
	}))

	ro, err := db.BeginRo(ctx)
	require.NoError(t, err)
	defer ro.Rollback()

	require.NoError(t, db.Update(ctx, func(tx kv.RwTx) error {
		if err := tx.Put(kv.Code, []byte("k"), []byte("new")); err != nil {
			return err
		}
		return tx.Put(kv.Code, []byte("k2"), []byte("x"))
	}))

	v, err := ro.GetOne(kv.Code, []byte("k"))
	require.NoError(t, err)
	require.Equal(t, []byte("old"), v)
	has, err := ro.Has(kv.Code, []byte("k2"))
	require.NoError(t, err)
	require.False(t, has)

	require.NoError(t, db.View(ctx, func(tx kv.Tx) error {
		v, err := tx.GetOne(kv.Code, []byte("k"))
		require.NoError(t, err)
		require.Equal(t, []byte("new"), v)
		return nil
	}))
}

func TestRollbackDiscardsWrites(t *testing.T) {
	t.Parallel()
	db := NewTestDB(t)
	ctx := context.Background()

	tx, err := db.BeginRw(ctx)
	require.NoError(t, err)
	require.NoError(t, tx.Put(kv.Code, []byte("k"), []byte("v")))
	tx.Rollback()

	require.NoError(t, db.View(ctx, func(tx kv.Tx) error {
		has, err := tx.Has(kv.Code, []byte("k"))
		require.NoError(t, err)
		require.False(t, has)
		return nil
	}))
}

func TestReadOnlyViewAndUnknownTable(t *testing.T) {
	t.Parallel()
	db := NewTestDB(t)
	ro := db.ReadOnlyView()
	require.True(t, ro.ReadOnly())

	tx, err := ro.BeginRo(context.Background())
	require.NoError(t, err)
	defer tx.Rollback()

	_, err = tx.GetOne("NoSuchTable", []byte("k"))
	require.ErrorIs(t, err, kv.ErrUnknownTable)

	rtx := tx.(*MemTx)
	require.ErrorIs(t, rtx.Put(kv.Code, []byte("k"), nil), kv.ErrReadOnlyTx)
}

func TestDupSortCursor(t *testing.T) {
	t.Parallel()
	db := NewTestDB(t)
	ctx := context.Background()

	require.NoError(t, db.Update(ctx, func(tx kv.RwTx) error {
		for _, e := range [][2]string{{"a", "1"}, {"b", "3"}, {"b", "1"}, {"b", "2"}, {"c", "1"}} {
			if err := tx.Put(kv.PlainState, []byte(e[0]), []byte(e[1])); err != nil {
				return err
			}
		}
		// same value twice is one entry
		return tx.Put(kv.PlainState, []byte("b"), []byte("2"))
	}))

	require.NoError(t, db.View(ctx, func(tx kv.Tx) error {
		cnt, err := tx.Count(kv.PlainState)
		require.NoError(t, err)
		require.Equal(t, uint64(5), cnt)

		v, err := tx.GetOne(kv.PlainState, []byte("b"))
		require.NoError(t, err)
		require.Equal(t, []byte("1"), v)

		c, err := tx.CursorDupSort(kv.PlainState)
		require.NoError(t, err)
		defer c.Close()

		v, err = c.SeekBothRange([]byte("b"), []byte("15"))
		require.NoError(t, err)
		require.Equal(t, []byte("2"), v)
		k, v, err := c.Next()
		require.NoError(t, err)
		require.Equal(t, "b3", string(k)+string(v))

		// past the last value of the key
		v, err = c.SeekBothRange([]byte("b"), []byte("4"))
		require.NoError(t, err)
		require.Nil(t, v)
		v, err = c.SeekBothRange([]byte("bb"), nil)
		require.NoError(t, err)
		require.Nil(t, v)

		k, _, err = c.First()
		require.NoError(t, err)
		require.Equal(t, "a", string(k))
		k, v, err = c.NextNoDup()
		require.NoError(t, err)
		require.Equal(t, "b1", string(k)+string(v))
		k, v, err = c.NextNoDup()
		require.NoError(t, err)
		require.Equal(t, "c1", string(k)+string(v))
		k, _, err = c.NextNoDup()
		require.NoError(t, err)
		require.Nil(t, k)
		return nil
	}))

	require.NoError(t, db.Update(ctx, func(tx kv.RwTx) error {
		c, err := tx.RwCursorDupSort(kv.PlainState)
		require.NoError(t, err)
		defer c.Close()
		v, err := c.SeekBothRange([]byte("b"), []byte("2"))
		require.NoError(t, err)
		require.Equal(t, []byte("2"), v)
		require.NoError(t, c.DeleteCurrent())
		// the cursor moves on to the following entry
		k, v, err := c.Next()
		require.NoError(t, err)
		require.Equal(t, "b3", string(k)+string(v))
		require.NoError(t, c.Put([]byte("b"), []byte("9")))
		k, v, err = c.Current()
		require.NoError(t, err)
		require.Equal(t, "b9", string(k)+string(v))

		var got []string
		require.NoError(t, tx.ForPrefix(kv.PlainState, []byte("b"), func(k, v []byte) error {
			got = append(got, string(k)+string(v))
			return nil
		}))
		require.Equal(t, []string{"b1", "b3", "b9"}, got)

		// Delete drops every value of the key
		require.NoError(t, tx.Delete(kv.PlainState, []byte("b")))
		has, err := tx.Has(kv.PlainState, []byte("b"))
		require.NoError(t, err)
		require.False(t, has)
		cnt, err := tx.Count(kv.PlainState)
		require.NoError(t, err)
		require.Equal(t, uint64(2), cnt)
		return nil
	}))
}

func TestPutReplacesInPlainTable(t *testing.T) {
	t.Parallel()
	db := NewTestDB(t)
	require.NoError(t, db.Update(context.Background(), func(tx kv.RwTx) error {
		require.NoError(t, tx.Put(kv.Code, []byte("k"), []byte("1")))
		require.NoError(t, tx.Put(kv.Code, []byte("k"), []byte("2")))
		v, err := tx.GetOne(kv.Code, []byte("k"))
		require.NoError(t, err)
		require.Equal(t, []byte("2"), v)
		cnt, err := tx.Count(kv.Code)
		require.NoError(t, err)
		require.Equal(t, uint64(1), cnt)
		return nil
	}))
}

func TestReadOnlyTxRefusesRwCursor(t *testing.T) {
	t.Parallel()
	db := NewTestDB(t)
	tx, err := db.BeginRo(context.Background())
	require.NoError(t, err)
	defer tx.Rollback()
	_, err = tx.(*MemTx).RwCursorDupSort(kv.PlainState)
	require.ErrorIs(t, err, kv.ErrReadOnlyTx)
}
