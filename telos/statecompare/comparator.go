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
	"strconv"

	"github.com/ledgerwatch/log/v3"

	"github.com/telosnetwork/telos-erigon/common"
)

// Comparator checks that the local state contains what the remote tables
// report. The remote side drives the comparison; local-only records are
// counted only when Bidirectional is set.
type Comparator struct {
	Bidirectional  bool
	MaxDiffSamples int
	logger         log.Logger
}

func NewComparator(cfg Config, logger log.Logger) *Comparator {
	if logger == nil {
		logger = log.Root()
	}
	return &Comparator{Bidirectional: cfg.Bidirectional, MaxDiffSamples: cfg.MaxDiffSamples, logger: logger}
}

// Compare is the one-directional comparison with default settings.
func Compare(remoteAccounts []AccountRecord, remoteStorage []StorageRecord, localAccounts []AccountRecord, localStorage []StorageRecord) Report {
	remote := &RemoteTables{Accounts: remoteAccounts, Storage: remoteStorage}
	local := NewLocalIndex(BlockRef{}, localAccounts, localStorage)
	c := &Comparator{MaxDiffSamples: DefaultConfig.MaxDiffSamples, logger: log.Root()}
	return c.Compare(remote, local)
}

func (c *Comparator) Compare(remote *RemoteTables, local *LocalIndex) Report {
	b := reportBuilder{maxDiffs: c.MaxDiffSamples, logger: c.logger}
	b.r.Block = remote.Block
	b.r.RemoteHead = remote.Head
	b.r.Bidirectional = c.Bidirectional

	for i := range remote.Accounts {
		ra := &remote.Accounts[i]
		b.r.AccountsCompared++
		la, ok := local.Accounts[ra.Address]
		if !ok {
			b.r.AccountsMissingOnLocal++
			b.diff(Diff{Kind: AccountMissingOnLocal, Address: ra.Address, Remote: describeAccount(ra)})
			continue
		}
		diffs := accountDiffs(&la, ra)
		if len(diffs) == 0 {
			b.r.AccountsMatched++
			continue
		}
		b.r.AccountsMismatched++
		for _, d := range diffs {
			b.diff(d)
		}
	}

	for i := range remote.Storage {
		rs := &remote.Storage[i]
		b.r.StorageCompared++
		lv, ok := local.Storage[rs.StorageKey()]
		if !ok {
			// an absent slot is an implicit zero
			if rs.Value.IsZero() {
				b.r.StorageMatched++
				continue
			}
			b.r.StorageMissingOnLocal++
			b.diff(Diff{Kind: SlotMissingOnLocal, Address: rs.Address, Key: keyPtr(rs.Key), Remote: rs.Value.Hex()})
			continue
		}
		if lv.Eq(&rs.Value) {
			b.r.StorageMatched++
			continue
		}
		b.r.StorageMismatched++
		b.diff(Diff{Kind: SlotMismatch, Address: rs.Address, Key: keyPtr(rs.Key), Local: lv.Hex(), Remote: rs.Value.Hex()})
	}

	if c.Bidirectional {
		c.countLocalOnly(&b, remote, local)
	}
	return b.finish()
}

// countLocalOnly is the second pass of the bidirectional mode.
func (c *Comparator) countLocalOnly(b *reportBuilder, remote *RemoteTables, local *LocalIndex) {
	remoteAccounts := make(map[common.Address]struct{}, len(remote.Accounts))
	for i := range remote.Accounts {
		remoteAccounts[remote.Accounts[i].Address] = struct{}{}
	}
	remoteSlots := make(map[StorageKey]struct{}, len(remote.Storage))
	for i := range remote.Storage {
		remoteSlots[remote.Storage[i].StorageKey()] = struct{}{}
	}

	for _, addr := range sortedAddresses(local.Accounts) {
		if _, ok := remoteAccounts[addr]; !ok {
			la := local.Accounts[addr]
			b.r.AccountsMissingOnRemote++
			b.diff(Diff{Kind: AccountMissingOnRemote, Address: addr, Local: describeAccount(&la)})
		}
	}
	for _, k := range sortedStorageKeys(local.Storage) {
		v := local.Storage[k]
		if v.IsZero() {
			continue
		}
		if _, ok := remoteSlots[k]; !ok {
			b.r.StorageMissingOnRemote++
			b.diff(Diff{Kind: SlotMissingOnRemote, Address: k.Address, Key: keyPtr(k.Key), Local: v.Hex()})
		}
	}
}

func accountDiffs(local, remote *AccountRecord) []Diff {
	var diffs []Diff
	if local.Nonce != remote.Nonce {
		diffs = append(diffs, Diff{Kind: AccountMismatch, Address: remote.Address, Field: "nonce",
			Local: strconv.FormatUint(local.Nonce, 10), Remote: strconv.FormatUint(remote.Nonce, 10)})
	}
	if !local.Balance.Eq(&remote.Balance) {
		diffs = append(diffs, Diff{Kind: AccountMismatch, Address: remote.Address, Field: "balance",
			Local: local.Balance.Dec(), Remote: remote.Balance.Dec()})
	}
	if local.CodeHash != remote.CodeHash {
		diffs = append(diffs, Diff{Kind: AccountMismatch, Address: remote.Address, Field: "codeHash",
			Local: local.CodeHash.Hex(), Remote: remote.CodeHash.Hex()})
	}
	return diffs
}

func describeAccount(a *AccountRecord) string {
	return "nonce=" + strconv.FormatUint(a.Nonce, 10) + " balance=" + a.Balance.Dec() + " codeHash=" + a.CodeHash.Hex()
}

func keyPtr(h common.Hash) *common.Hash { return &h }
