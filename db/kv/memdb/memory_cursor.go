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

	"github.com/tidwall/btree"

	"github.com/telosnetwork/telos-erigon/db/kv"
)

type memCursor struct {
	tx         *MemTx
	name       string
	t          *table
	it         btree.IterG[pair]
	positioned bool
	valid      bool
	// set by DeleteCurrent: the cursor already stands on the following entry
	deleted bool
}

func (c *memCursor) result(ok bool) ([]byte, []byte, error) {
	c.positioned = true
	c.valid = ok
	c.deleted = false
	if !ok {
		return nil, nil, nil
	}
	p := c.it.Item()
	return p.k, p.v, nil
}

func (c *memCursor) First() ([]byte, []byte, error) { return c.result(c.it.First()) }

func (c *memCursor) Last() ([]byte, []byte, error) { return c.result(c.it.Last()) }

func (c *memCursor) Seek(seek []byte) ([]byte, []byte, error) {
	if len(seek) == 0 {
		return c.First()
	}
	return c.result(c.it.Seek(pair{k: seek}))
}

func (c *memCursor) SeekExact(key []byte) ([]byte, []byte, error) {
	k, v, err := c.Seek(key)
	if err != nil || k == nil {
		return nil, nil, err
	}
	if !bytes.Equal(k, key) {
		return nil, nil, nil
	}
	return k, v, nil
}

func (c *memCursor) SeekBothRange(key, value []byte) ([]byte, error) {
	k, v, err := c.result(c.it.Seek(pair{k: key, v: value}))
	if err != nil || k == nil {
		return nil, err
	}
	if !bytes.Equal(k, key) {
		c.valid = false
		return nil, nil
	}
	return v, nil
}

func (c *memCursor) Next() ([]byte, []byte, error) {
	if !c.positioned {
		return c.First()
	}
	if c.deleted {
		c.deleted = false
		return c.Current()
	}
	if !c.valid {
		return nil, nil, nil
	}
	return c.result(c.it.Next())
}

func (c *memCursor) NextNoDup() ([]byte, []byte, error) {
	cur, _, err := c.Current()
	if err != nil || cur == nil {
		return c.Next()
	}
	for {
		k, v, err := c.Next()
		if err != nil || k == nil || !bytes.Equal(k, cur) {
			return k, v, err
		}
	}
}

func (c *memCursor) Prev() ([]byte, []byte, error) {
	if !c.positioned {
		return c.Last()
	}
	if !c.valid {
		return nil, nil, nil
	}
	return c.result(c.it.Prev())
}

func (c *memCursor) Current() ([]byte, []byte, error) {
	if !c.valid {
		return nil, nil, nil
	}
	p := c.it.Item()
	return p.k, p.v, nil
}

// Put writes through the transaction and re-positions the cursor on the new
// entry, since mutating the tree invalidates the iterator.
func (c *memCursor) Put(k, v []byte) error {
	if err := c.tx.Put(c.name, k, v); err != nil {
		return err
	}
	c.reset()
	_, _, err := c.result(c.it.Seek(pair{k: k, v: v}))
	return err
}

func (c *memCursor) DeleteCurrent() error {
	if c.tx.readOnly {
		return kv.ErrReadOnlyTx
	}
	if !c.valid {
		return nil
	}
	p := c.it.Item()
	c.t.Delete(p)
	c.reset()
	if _, _, err := c.result(c.it.Seek(p)); err != nil {
		return err
	}
	c.deleted = c.valid
	return nil
}

func (c *memCursor) reset() {
	c.it.Release()
	c.it = c.t.Iter()
	c.positioned, c.valid, c.deleted = false, false, false
}

func (c *memCursor) Close() { c.it.Release() }
