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
	"fmt"

	"github.com/holiman/uint256"
	"github.com/ledgerwatch/log/v3"

	"github.com/telosnetwork/telos-erigon/common"
)

// selfCheck re-reads every scanned record through the state-by-height view.
// Disagreements are a local consistency problem (history index vs change
// sets) and never reach the report.
type selfCheck struct {
	snap          *Snapshot
	checked       uint64
	disagreements uint64
	first         string
}

func newSelfCheck(snap *Snapshot) *selfCheck {
	return &selfCheck{snap: snap}
}

func (c *selfCheck) account(rec AccountRecord) error {
	c.checked++
	got, ok, err := c.snap.ReadAccount(rec.Address)
	if err != nil {
		return err
	}
	if !ok {
		c.disagree(fmt.Sprintf("account %x scanned but missing in history view", rec.Address))
		return nil
	}
	if diffs := accountDiffs(&got, &rec); len(diffs) > 0 {
		c.disagree(fmt.Sprintf("account %x %s: history=%s scan=%s", rec.Address, diffs[0].Field, diffs[0].Local, diffs[0].Remote))
		return nil
	}
	return c.code(rec)
}

// code checks that the bytecode behind a contract's code hash is present.
func (c *selfCheck) code(rec AccountRecord) error {
	if rec.CodeHash == common.EmptyCodeHash {
		return nil
	}
	code, err := c.snap.reader.ReadAccountCode(rec.CodeHash)
	if err != nil {
		return err
	}
	if len(code) == 0 {
		c.disagree(fmt.Sprintf("account %x code %x missing", rec.Address, rec.CodeHash))
	} else if h := common.Keccak256Hash(code); h != rec.CodeHash {
		c.disagree(fmt.Sprintf("account %x code hash %x, stored code hashes to %x", rec.Address, rec.CodeHash, h))
	}
	return nil
}

// storage must be called after the account scan, which records incarnations.
func (c *selfCheck) storage(rec StorageRecord) error {
	c.checked++
	v, err := c.snap.reader.ReadAccountStorage(rec.Address, c.snap.incarnations[rec.Address], rec.Key)
	if err != nil {
		return err
	}
	var got uint256.Int
	got.SetBytes(v)
	if !got.Eq(&rec.Value) {
		c.disagree(fmt.Sprintf("slot %x/%x: history=%s scan=%s", rec.Address, rec.Key, got.Hex(), rec.Value.Hex()))
	}
	return nil
}

func (c *selfCheck) disagree(what string) {
	if c.disagreements == 0 {
		c.first = what
	}
	c.disagreements++
}

func (c *selfCheck) finish(logger log.Logger) {
	if c.disagreements == 0 {
		logger.Debug("[statecompare] local self-check passed", "checked", c.checked)
		return
	}
	selfCheckDisagreements.Add(int(c.disagreements))
	logger.Warn("[statecompare] local plain state scan disagrees with state-by-height view",
		"block", c.snap.block.Number, "checked", c.checked, "disagreements", c.disagreements, "first", c.first)
}
