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
	"math/rand"
	"testing"

	"github.com/holiman/uint256"
	"github.com/ledgerwatch/log/v3"
	"github.com/stretchr/testify/require"

	"github.com/telosnetwork/telos-erigon/common"
)

func TestCompareAccountMatched(t *testing.T) {
	t.Parallel()
	a := account(addr1, 2, 100)
	r := Compare([]AccountRecord{a}, nil, []AccountRecord{a}, nil)
	require.Equal(t, uint64(1), r.AccountsCompared)
	require.Equal(t, uint64(1), r.AccountsMatched)
	require.Zero(t, r.AccountsMismatched)
	require.Zero(t, r.MissingOnLocal())
	require.True(t, r.Consistent())
}

func TestCompareAccountMissingOnLocal(t *testing.T) {
	t.Parallel()
	r := Compare([]AccountRecord{account(addr2, 1, 50)}, nil, nil, nil)
	require.Equal(t, uint64(1), r.MissingOnLocal())
	require.Equal(t, uint64(1), r.AccountsMissingOnLocal)
	require.Zero(t, r.AccountsMatched)
	require.False(t, r.Consistent())

	diffs := r.Diffs()
	require.Len(t, diffs, 1)
	require.Equal(t, AccountMissingOnLocal, diffs[0].Kind)
	require.Equal(t, addr2, diffs[0].Address)
}

func TestCompareAccountMismatch(t *testing.T) {
	t.Parallel()
	r := Compare([]AccountRecord{account(addr3, 3, 10)}, nil, []AccountRecord{account(addr3, 3, 99)}, nil)
	require.Equal(t, uint64(1), r.AccountsMismatched)
	require.Zero(t, r.AccountsMatched)
	require.Zero(t, r.MissingOnLocal())

	diffs := r.Diffs()
	require.Len(t, diffs, 1)
	require.Equal(t, AccountMismatch, diffs[0].Kind)
	require.Equal(t, "balance", diffs[0].Field)
	require.Equal(t, "99", diffs[0].Local)
	require.Equal(t, "10", diffs[0].Remote)
}

func TestCompareAccountMismatchEveryField(t *testing.T) {
	t.Parallel()
	remote := account(addr1, 1, 1)
	local := account(addr1, 2, 2)
	local.CodeHash = codeHash
	r := Compare([]AccountRecord{remote}, nil, []AccountRecord{local}, nil)

	// one mismatched account, one diff per differing field
	require.Equal(t, uint64(1), r.AccountsMismatched)
	var fields []string
	for _, d := range r.Diffs() {
		fields = append(fields, d.Field)
	}
	require.Equal(t, []string{"nonce", "balance", "codeHash"}, fields)
}

func TestCompareImplicitZeroSlot(t *testing.T) {
	t.Parallel()
	r := Compare(nil, []StorageRecord{slot(addr1, slotA, 0)}, nil, nil)
	require.Equal(t, uint64(1), r.StorageCompared)
	require.Equal(t, uint64(1), r.StorageMatched)
	require.Zero(t, r.MissingOnLocal())
	require.True(t, r.Consistent())
}

func TestCompareStorage(t *testing.T) {
	t.Parallel()
	remote := []StorageRecord{
		slot(addr1, slotA, 5),
		slot(addr1, slotB, 7),
		slot(addr2, slotA, 1),
	}
	local := []StorageRecord{
		slot(addr1, slotA, 5),
		slot(addr1, slotB, 8),
	}
	r := Compare(nil, remote, nil, local)
	require.Equal(t, uint64(3), r.StorageCompared)
	require.Equal(t, uint64(1), r.StorageMatched)
	require.Equal(t, uint64(1), r.StorageMismatched)
	require.Equal(t, uint64(1), r.StorageMissingOnLocal)

	diffs := r.Diffs()
	require.Len(t, diffs, 2)
	require.Equal(t, SlotMismatch, diffs[0].Kind)
	require.Equal(t, slotB, *diffs[0].Key)
	require.Equal(t, SlotMissingOnLocal, diffs[1].Kind)
	require.Equal(t, addr2, diffs[1].Address)
}

func TestCompareLocalOnlyRecordsIgnoredByDefault(t *testing.T) {
	t.Parallel()
	local := []AccountRecord{account(addr1, 1, 1), account(addr2, 1, 1)}
	r := Compare([]AccountRecord{account(addr1, 1, 1)}, nil, local, []StorageRecord{slot(addr2, slotA, 3)})
	require.True(t, r.Consistent())
	require.Zero(t, r.MissingOnRemote())
}

func TestCompareBidirectional(t *testing.T) {
	t.Parallel()
	c := NewComparator(Config{Bidirectional: true, MaxDiffSamples: 10}, log.New())
	remote := &RemoteTables{
		Block:    BlockRef{Number: 7},
		Accounts: []AccountRecord{account(addr1, 1, 1)},
		Storage:  []StorageRecord{slot(addr1, slotA, 1)},
	}
	local := NewLocalIndex(BlockRef{Number: 7},
		[]AccountRecord{account(addr1, 1, 1), account(addr2, 4, 4)},
		[]StorageRecord{slot(addr1, slotA, 1), slot(addr1, slotB, 2), slot(addr2, slotA, 0)},
	)
	r := c.Compare(remote, local)
	require.Equal(t, uint64(1), r.AccountsMissingOnRemote)
	// zero valued local slots are absent by the implicit-zero rule
	require.Equal(t, uint64(1), r.StorageMissingOnRemote)
	require.Equal(t, uint64(2), r.MissingOnRemote())
	require.False(t, r.Consistent())
	require.Equal(t, uint64(7), r.Block.Number)

	kinds := map[DiffKind]int{}
	for _, d := range r.Diffs() {
		kinds[d.Kind]++
	}
	require.Equal(t, map[DiffKind]int{AccountMissingOnRemote: 1, SlotMissingOnRemote: 1}, kinds)
}

func TestCompareDiffSamplesBounded(t *testing.T) {
	t.Parallel()
	c := NewComparator(Config{MaxDiffSamples: 2}, log.New())
	remote := &RemoteTables{}
	for i := 0; i < 5; i++ {
		remote.Accounts = append(remote.Accounts, account(common.BytesToAddress([]byte{byte(i + 1)}), 1, 1))
	}
	r := c.Compare(remote, NewLocalIndex(BlockRef{}, nil, nil))
	require.Equal(t, uint64(5), r.AccountsMissingOnLocal)
	require.Len(t, r.Diffs(), 2)
	require.Equal(t, uint64(3), r.droppedDiffs)
	require.Contains(t, r.String(), "3 more not shown")
}

func TestReportString(t *testing.T) {
	t.Parallel()
	h := common.HexToHash("0xabcd")
	r := Compare([]AccountRecord{account(addr3, 3, 10)}, nil, []AccountRecord{account(addr3, 3, 99)}, nil)
	r.Block = BlockRef{Number: 42, Hash: &h}
	s := r.String()
	require.Contains(t, s, "Two-way state compare at block 42")
	require.Contains(t, s, "Accounts")
	require.Contains(t, s, "Storage slots")
	require.Contains(t, s, "account mismatch")
	require.Contains(t, s, addr3.Hex())
}

func TestDiffsReturnsCopy(t *testing.T) {
	t.Parallel()
	r := Compare([]AccountRecord{account(addr2, 1, 50)}, nil, nil, nil)
	d := r.Diffs()
	d[0].Remote = "changed"
	require.NotEqual(t, "changed", r.Diffs()[0].Remote)
}

func randomTables(rnd *rand.Rand) (remoteAccounts []AccountRecord, remoteStorage []StorageRecord, localAccounts []AccountRecord, localStorage []StorageRecord) {
	for i := 0; i < 200; i++ {
		addr := common.BytesToAddress([]byte{byte(i >> 8), byte(i)})
		a := account(addr, uint64(rnd.Intn(3)), uint64(rnd.Intn(3)))
		switch rnd.Intn(4) {
		case 0: // remote only
			remoteAccounts = append(remoteAccounts, a)
		case 1: // local only
			localAccounts = append(localAccounts, a)
		case 2: // both, maybe differing
			remoteAccounts = append(remoteAccounts, a)
			b := a
			b.Nonce = uint64(rnd.Intn(3))
			localAccounts = append(localAccounts, b)
		default:
			remoteAccounts = append(remoteAccounts, a)
			localAccounts = append(localAccounts, a)
		}
		for j := 0; j < rnd.Intn(4); j++ {
			key := common.BytesToHash([]byte{byte(j)})
			v := uint64(rnd.Intn(3))
			switch rnd.Intn(3) {
			case 0:
				remoteStorage = append(remoteStorage, slot(addr, key, v))
			case 1:
				localStorage = append(localStorage, slot(addr, key, v))
			default:
				remoteStorage = append(remoteStorage, slot(addr, key, v))
				localStorage = append(localStorage, slot(addr, key, uint64(rnd.Intn(3))))
			}
		}
	}
	return
}

func TestComparePartitionsRemoteRecords(t *testing.T) {
	t.Parallel()
	rnd := rand.New(rand.NewSource(1))
	for i := 0; i < 20; i++ {
		ra, rs, la, ls := randomTables(rnd)
		r := Compare(ra, rs, la, ls)
		require.Equal(t, uint64(len(ra)), r.AccountsCompared)
		require.Equal(t, uint64(len(rs)), r.StorageCompared)
		require.Equal(t, r.AccountsCompared, r.AccountsMatched+r.AccountsMismatched+r.AccountsMissingOnLocal)
		require.Equal(t, r.StorageCompared, r.StorageMatched+r.StorageMismatched+r.StorageMissingOnLocal)
		require.Zero(t, r.MissingOnRemote())
	}
}

func TestCompareIsOrderIndependentAndIdempotent(t *testing.T) {
	t.Parallel()
	rnd := rand.New(rand.NewSource(2))
	ra, rs, la, ls := randomTables(rnd)
	first := Compare(ra, rs, la, ls)
	again := Compare(ra, rs, la, ls)
	require.Equal(t, first, again)

	shuffle := func(n int, swap func(i, j int)) { rnd.Shuffle(n, swap) }
	shuffle(len(ra), func(i, j int) { ra[i], ra[j] = ra[j], ra[i] })
	shuffle(len(rs), func(i, j int) { rs[i], rs[j] = rs[j], rs[i] })
	shuffle(len(la), func(i, j int) { la[i], la[j] = la[j], la[i] })
	shuffle(len(ls), func(i, j int) { ls[i], ls[j] = ls[j], ls[i] })
	shuffled := Compare(ra, rs, la, ls)

	require.Equal(t, first.AccountsMatched, shuffled.AccountsMatched)
	require.Equal(t, first.AccountsMismatched, shuffled.AccountsMismatched)
	require.Equal(t, first.StorageMatched, shuffled.StorageMatched)
	require.Equal(t, first.StorageMismatched, shuffled.StorageMismatched)
	require.Equal(t, first.MissingOnLocal(), shuffled.MissingOnLocal())
}

func TestLocalIndexKeepsLastDuplicate(t *testing.T) {
	t.Parallel()
	idx := NewLocalIndex(BlockRef{}, nil, []StorageRecord{slot(addr1, slotA, 1), slot(addr1, slotA, 2)})
	v := idx.Storage[StorageKey{Address: addr1, Key: slotA}]
	require.True(t, v.Eq(uint256.NewInt(2)))
}
