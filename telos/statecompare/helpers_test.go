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
	"context"
	"encoding/hex"
	"sync"
	"testing"

	"github.com/holiman/uint256"
	jsoniter "github.com/json-iterator/go"
	"github.com/ledgerwatch/log/v3"
	"github.com/stretchr/testify/require"

	"github.com/telosnetwork/telos-erigon/common"
	"github.com/telosnetwork/telos-erigon/core/state"
	"github.com/telosnetwork/telos-erigon/core/types/accounts"
	"github.com/telosnetwork/telos-erigon/db/kv"
	"github.com/telosnetwork/telos-erigon/db/kv/memdb"
	"github.com/telosnetwork/telos-erigon/eth/stagedsync/stages"
	"github.com/telosnetwork/telos-erigon/telos/antelope"
)

var (
	addr1    = common.HexToAddress("0x01")
	addr2    = common.HexToAddress("0x02")
	addr3    = common.HexToAddress("0x03")
	slotA    = common.HexToHash("0x0a")
	slotB    = common.HexToHash("0x0b")
	code3    = []byte{0x60, 0x80, 0x60, 0x40}
	codeHash = common.Keccak256Hash(code3)
)

func account(addr common.Address, nonce, balance uint64) AccountRecord {
	return AccountRecord{Address: addr, Nonce: nonce, Balance: *uint256.NewInt(balance), CodeHash: common.EmptyCodeHash}
}

func slot(addr common.Address, key common.Hash, value uint64) StorageRecord {
	return StorageRecord{Address: addr, Key: key, Value: *uint256.NewInt(value)}
}

func stateAcc(nonce, balance, incarnation uint64, codeHash common.Hash) *accounts.Account {
	return &accounts.Account{Nonce: nonce, Balance: *uint256.NewInt(balance), Incarnation: incarnation, CodeHash: codeHash}
}

func writeBlock(t *testing.T, db kv.RwDB, blockNum uint64, f func(w *state.PlainStateWriter) error) {
	t.Helper()
	require.NoError(t, db.Update(context.Background(), func(tx kv.RwTx) error {
		if err := f(state.NewPlainStateWriter(tx, blockNum)); err != nil {
			return err
		}
		return stages.SaveStageProgress(tx, stages.Execution, blockNum)
	}))
}

// localFixture executes two blocks:
// block 1: addr1 {2, 100}; contract addr3 {1, 0, inc 1} with slotA=5, slotB=7
// block 2: addr1 -> {3, 80}; addr2 {1, 50}; slotA=6
func localFixture(t *testing.T) *memdb.MemoryDB {
	t.Helper()
	db := memdb.NewTestDB(t)
	u := uint256.NewInt
	writeBlock(t, db, 1, func(w *state.PlainStateWriter) error {
		if err := w.UpdateAccountData(addr1, nil, stateAcc(2, 100, 0, common.EmptyCodeHash)); err != nil {
			return err
		}
		if err := w.UpdateAccountData(addr3, nil, stateAcc(1, 0, 1, codeHash)); err != nil {
			return err
		}
		if err := w.UpdateAccountCode(codeHash, code3); err != nil {
			return err
		}
		if err := w.WriteAccountStorage(addr3, 1, slotA, u(0), u(5)); err != nil {
			return err
		}
		return w.WriteAccountStorage(addr3, 1, slotB, u(0), u(7))
	})
	writeBlock(t, db, 2, func(w *state.PlainStateWriter) error {
		if err := w.UpdateAccountData(addr1, stateAcc(2, 100, 0, common.EmptyCodeHash), stateAcc(3, 80, 0, common.EmptyCodeHash)); err != nil {
			return err
		}
		if err := w.UpdateAccountData(addr2, nil, stateAcc(1, 50, 0, common.EmptyCodeHash)); err != nil {
			return err
		}
		return w.WriteAccountStorage(addr3, 1, slotA, u(5), u(6))
	})
	return db
}

// remoteAtBlock1 mirrors the fixture state after block 1.
func remoteAtBlock1() *RemoteTables {
	contract := account(addr3, 1, 0)
	contract.CodeHash = codeHash
	return &RemoteTables{
		Block:    BlockRef{Number: 1},
		Accounts: []AccountRecord{account(addr1, 2, 100), contract},
		Storage:  []StorageRecord{slot(addr3, slotA, 5), slot(addr3, slotB, 7)},
	}
}

type capturedRecord struct {
	lvl log.Lvl
	msg string
	ctx []interface{}
}

type logCapture struct {
	mu      sync.Mutex
	records []capturedRecord
}

func newCapturingLogger() (log.Logger, *logCapture) {
	c := &logCapture{}
	logger := log.New()
	logger.SetHandler(log.FuncHandler(func(r *log.Record) error {
		c.mu.Lock()
		defer c.mu.Unlock()
		c.records = append(c.records, capturedRecord{lvl: r.Lvl, msg: r.Msg, ctx: r.Ctx})
		return nil
	}))
	return logger, c
}

func (c *logCapture) messages(lvl log.Lvl) []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	var res []string
	for _, r := range c.records {
		if r.lvl == lvl {
			res = append(res, r.msg)
		}
	}
	return res
}

// value returns the context value logged under key by the last record with msg.
func (c *logCapture) value(msg, key string) (interface{}, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for i := len(c.records) - 1; i >= 0; i-- {
		r := c.records[i]
		if r.msg != msg {
			continue
		}
		for j := 0; j+1 < len(r.ctx); j += 2 {
			if r.ctx[j] == key {
				return r.ctx[j+1], true
			}
		}
		return nil, false
	}
	return nil, false
}

func checksum160(a common.Address) string { return hex.EncodeToString(a[:]) }

func checksum256(v uint64) string {
	h := common.BytesToHash(uint256.NewInt(v).Bytes())
	return hex.EncodeToString(h[:])
}

func hashChecksum(h common.Hash) string { return hex.EncodeToString(h[:]) }

func rawRows(t *testing.T, rows ...any) []jsoniter.RawMessage {
	t.Helper()
	res := make([]jsoniter.RawMessage, len(rows))
	for i, r := range rows {
		b, err := json.Marshal(r)
		require.NoError(t, err)
		res[i] = b
	}
	return res
}

func accountRow(index uint64, addr common.Address, nonce, balance uint64, code []byte) antelope.AccountRow {
	return antelope.AccountRow{
		Index:   antelope.Uint64(index),
		Address: checksum160(addr),
		Account: "acct" + string(rune('a'+index)),
		Nonce:   antelope.Uint64(nonce),
		Code:    code,
		Balance: checksum256(balance),
	}
}

func stateRow(index uint64, key common.Hash, value uint64) antelope.AccountStateRow {
	return antelope.AccountStateRow{Index: antelope.Uint64(index), Key: hashChecksum(key), Value: checksum256(value)}
}
