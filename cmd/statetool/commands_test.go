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

package main

import (
	"bytes"
	"context"
	"path/filepath"
	"testing"

	"github.com/holiman/uint256"
	"github.com/ledgerwatch/log/v3"
	"github.com/stretchr/testify/require"

	"github.com/telosnetwork/telos-erigon/common"
	"github.com/telosnetwork/telos-erigon/core/state"
	"github.com/telosnetwork/telos-erigon/core/types/accounts"
	"github.com/telosnetwork/telos-erigon/db/kv"
	"github.com/telosnetwork/telos-erigon/db/kv/mdbx"
	"github.com/telosnetwork/telos-erigon/eth/stagedsync/stages"
	"github.com/telosnetwork/telos-erigon/node/nodecfg/datadir"
	"github.com/telosnetwork/telos-erigon/telos/statecompare"
)

func TestCompareRemoteDump(t *testing.T) {
	dir := t.TempDir()
	dirs := datadir.New(dir)
	addr := common.HexToAddress("0x01")

	db := mdbx.NewMDBX(log.New()).Path(dirs.Chaindata).MustOpen()
	require.NoError(t, db.Update(context.Background(), func(tx kv.RwTx) error {
		w := state.NewPlainStateWriter(tx, 1)
		acc := &accounts.Account{Nonce: 2, Balance: *uint256.NewInt(100), CodeHash: common.EmptyCodeHash}
		if err := w.UpdateAccountData(addr, nil, acc); err != nil {
			return err
		}
		return stages.SaveStageProgress(tx, stages.Execution, 1)
	}))
	db.Close()

	dump := filepath.Join(dir, "remote.json")
	require.NoError(t, statecompare.WriteDump(dump, &statecompare.RemoteTables{
		Block: statecompare.BlockRef{Number: 1},
		Accounts: []statecompare.AccountRecord{
			{Address: addr, Nonce: 2, Balance: *uint256.NewInt(100), CodeHash: common.EmptyCodeHash},
			{Address: common.HexToAddress("0x02"), Nonce: 1, CodeHash: common.EmptyCodeHash},
		},
	}))

	var out bytes.Buffer
	cmd := rootCommand()
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"compare", "--datadir", dir, "--remote-dump", dump, "--fail-on-diff", "--log.dir.path", filepath.Join(dir, "logs")})
	err := cmd.ExecuteContext(context.Background())
	require.ErrorIs(t, err, errDivergent)
	require.Contains(t, out.String(), "Two-way state compare at block 1")
	require.Contains(t, out.String(), "account missing on local")
}

func TestFetchRemoteNeedsEndpoint(t *testing.T) {
	cmd := rootCommand()
	cmd.SetArgs([]string{"fetch-remote", "--telos.block-delta", "3", "--log.dir.path", filepath.Join(t.TempDir(), "logs")})
	err := cmd.ExecuteContext(context.Background())
	require.ErrorIs(t, err, statecompare.ErrConfigIncomplete)
}
