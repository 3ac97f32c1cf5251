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
	"errors"
	"fmt"
)

var (
	ErrConfigIncomplete    = errors.New("telos endpoint or block delta not configured")
	ErrRemoteUnavailable   = errors.New("remote unavailable")
	ErrIncompleteTable     = errors.New("incomplete remote table")
	ErrBlockNotFound       = errors.New("block not found")
	ErrSnapshotUnavailable = errors.New("local snapshot unavailable")
	ErrBlockMismatch       = errors.New("remote and local block mismatch")
)

type IncompleteTableError struct {
	Table   string
	Scope   string
	Fetched int
	Reason  string
}

func (e *IncompleteTableError) Error() string {
	return fmt.Sprintf("%s: table %s scope %s after %d rows: %s", ErrIncompleteTable, e.Table, e.Scope, e.Fetched, e.Reason)
}

func (e *IncompleteTableError) Unwrap() error { return ErrIncompleteTable }

type BlockNotFoundError struct {
	Block  uint64
	Head   uint64
	Reason string
}

func (e *BlockNotFoundError) Error() string {
	return fmt.Sprintf("%s: block %d (remote head %d): %s", ErrBlockNotFound, e.Block, e.Head, e.Reason)
}

func (e *BlockNotFoundError) Unwrap() error { return ErrBlockNotFound }

type SnapshotUnavailableError struct {
	Block  uint64
	Reason string
	Err    error
}

func (e *SnapshotUnavailableError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: block %d: %s: %v", ErrSnapshotUnavailable, e.Block, e.Reason, e.Err)
	}
	return fmt.Sprintf("%s: block %d: %s", ErrSnapshotUnavailable, e.Block, e.Reason)
}

func (e *SnapshotUnavailableError) Unwrap() []error {
	if e.Err != nil {
		return []error{ErrSnapshotUnavailable, e.Err}
	}
	return []error{ErrSnapshotUnavailable}
}
