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
	"bytes"
	"fmt"
	"slices"
	"strings"

	"github.com/holiman/uint256"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/ledgerwatch/log/v3"

	"github.com/telosnetwork/telos-erigon/common"
)

type DiffKind uint8

const (
	AccountMissingOnLocal DiffKind = iota
	AccountMismatch
	SlotMissingOnLocal
	SlotMismatch
	AccountMissingOnRemote
	SlotMissingOnRemote
)

func (k DiffKind) String() string {
	switch k {
	case AccountMissingOnLocal:
		return "account missing on local"
	case AccountMismatch:
		return "account mismatch"
	case SlotMissingOnLocal:
		return "slot missing on local"
	case SlotMismatch:
		return "slot mismatch"
	case AccountMissingOnRemote:
		return "account missing on remote"
	case SlotMissingOnRemote:
		return "slot missing on remote"
	default:
		return fmt.Sprintf("DiffKind(%d)", uint8(k))
	}
}

// Diff describes one discrepancy. Field is set for account mismatches.
type Diff struct {
	Kind    DiffKind
	Address common.Address
	Key     *common.Hash
	Field   string
	Local   string
	Remote  string
}

// Report is the outcome of one comparison. It is produced once and handed out
// by value.
type Report struct {
	Block         BlockRef
	Bidirectional bool
	// RemoteHead is the remote head the tables were read at, zero if unknown.
	RemoteHead uint64

	AccountsCompared   uint64
	AccountsMatched    uint64
	AccountsMismatched uint64

	StorageCompared   uint64
	StorageMatched    uint64
	StorageMismatched uint64

	AccountsMissingOnLocal  uint64
	StorageMissingOnLocal   uint64
	AccountsMissingOnRemote uint64
	StorageMissingOnRemote  uint64

	diffs        []Diff
	droppedDiffs uint64
}

// Skew is how many blocks the remote tables may be ahead of the local state.
func (r Report) Skew() uint64 {
	if r.RemoteHead <= r.Block.Number {
		return 0
	}
	return r.RemoteHead - r.Block.Number
}

func (r Report) MissingOnLocal() uint64 {
	return r.AccountsMissingOnLocal + r.StorageMissingOnLocal
}

func (r Report) MissingOnRemote() uint64 {
	return r.AccountsMissingOnRemote + r.StorageMissingOnRemote
}

// Consistent reports whether no discrepancy of any kind was found.
func (r Report) Consistent() bool {
	return r.AccountsMismatched == 0 && r.StorageMismatched == 0 && r.MissingOnLocal() == 0 && r.MissingOnRemote() == 0
}

// Diffs returns a copy of the kept diff samples.
func (r Report) Diffs() []Diff { return slices.Clone(r.diffs) }

func (r Report) String() string {
	t := table.NewWriter()
	title := "Two-way state compare at block " + r.Block.String()
	if skew := r.Skew(); skew > 0 {
		title += fmt.Sprintf(" (remote tables read at head %d, %d blocks ahead)", r.RemoteHead, skew)
	}
	t.SetTitle("%s", title)
	t.AppendHeader(table.Row{"", "Compared", "Matched", "Mismatched", "Missing on local", "Missing on remote"})
	onRemote := func(n uint64) any {
		if !r.Bidirectional {
			return "-"
		}
		return n
	}
	t.AppendRow(table.Row{"Accounts", r.AccountsCompared, r.AccountsMatched, r.AccountsMismatched, r.AccountsMissingOnLocal, onRemote(r.AccountsMissingOnRemote)})
	t.AppendRow(table.Row{"Storage slots", r.StorageCompared, r.StorageMatched, r.StorageMismatched, r.StorageMissingOnLocal, onRemote(r.StorageMissingOnRemote)})
	t.AppendFooter(table.Row{"Total", "", "", "", r.MissingOnLocal(), onRemote(r.MissingOnRemote())})
	t.SetStyle(table.StyleLight)

	var sb strings.Builder
	sb.WriteString(t.Render())
	if len(r.diffs) == 0 {
		return sb.String()
	}

	d := table.NewWriter()
	d.SetTitle(fmt.Sprintf("First %d discrepancies", len(r.diffs)))
	d.AppendHeader(table.Row{"Kind", "Address", "Slot / field", "Local", "Remote"})
	for _, diff := range r.diffs {
		where := diff.Field
		if diff.Key != nil {
			where = diff.Key.Hex()
		}
		d.AppendRow(table.Row{diff.Kind, diff.Address.Hex(), where, diff.Local, diff.Remote})
	}
	if r.droppedDiffs > 0 {
		d.AppendFooter(table.Row{fmt.Sprintf("%d more not shown", r.droppedDiffs)})
	}
	d.SetStyle(table.StyleLight)
	// keep the footer sentence as written, go-pretty upper-cases footers by default
	d.Style().Format.Footer = text.FormatDefault
	sb.WriteByte('\n')
	sb.WriteString(d.Render())
	return sb.String()
}

type reportBuilder struct {
	r        Report
	maxDiffs int
	logger   log.Logger
}

func (b *reportBuilder) diff(d Diff) {
	if d.Key != nil {
		b.logger.Debug("[statecompare] storage discrepancy", "kind", d.Kind, "address", d.Address, "slot", d.Key, "local", d.Local, "remote", d.Remote)
	} else {
		b.logger.Debug("[statecompare] account discrepancy", "kind", d.Kind, "address", d.Address, "field", d.Field, "local", d.Local, "remote", d.Remote)
	}
	if len(b.r.diffs) < b.maxDiffs {
		b.r.diffs = append(b.r.diffs, d)
		return
	}
	b.r.droppedDiffs++
}

func (b *reportBuilder) finish() Report {
	r := b.r
	b.r = Report{}
	return r
}

func sortedAddresses(m map[common.Address]AccountRecord) []common.Address {
	keys := make([]common.Address, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.SortFunc(keys, func(a, b common.Address) int { return a.Cmp(b) })
	return keys
}

func sortedStorageKeys(m map[StorageKey]uint256.Int) []StorageKey {
	keys := make([]StorageKey, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.SortFunc(keys, func(a, b StorageKey) int {
		if c := a.Address.Cmp(b.Address); c != 0 {
			return c
		}
		return bytes.Compare(a.Key[:], b.Key[:])
	})
	return keys
}
