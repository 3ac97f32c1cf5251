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
	"fmt"
	"strconv"
	"sync"
	"testing"
	"time"

	jsoniter "github.com/json-iterator/go"
	"github.com/ledgerwatch/log/v3"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/telosnetwork/telos-erigon/common"
	"github.com/telosnetwork/telos-erigon/telos/antelope"
)

func testFetcherConfig() Config {
	cfg := DefaultConfig
	cfg.PageLimit = 2
	cfg.FetchConcurrency = 2
	cfg.Retry.PageRetries = 2
	cfg.Retry.PageRetryWait = time.Millisecond
	return cfg
}

func info(head uint64) *antelope.Info {
	return &antelope.Info{HeadBlockNum: antelope.Uint64(head)}
}

// fakeTables pages stored rows the way nodeos does: lower_bound is the row
// position to resume from and next_key the position of the first row left out.
type fakeTables struct {
	t     *testing.T
	mu    sync.Mutex
	rows  map[string][]jsoniter.RawMessage // table/scope
	calls map[string]int
}

func newFakeTables(t *testing.T) *fakeTables {
	return &fakeTables{t: t, rows: map[string][]jsoniter.RawMessage{}, calls: map[string]int{}}
}

func (f *fakeTables) set(table, scope string, rows ...any) {
	f.rows[table+"/"+scope] = rawRows(f.t, rows...)
}

func (f *fakeTables) getTableRows(_ context.Context, req antelope.TableRowsRequest) (*antelope.TableRowsResponse, error) {
	f.mu.Lock()
	f.calls[req.Table+"/"+req.Scope]++
	f.mu.Unlock()

	rows := f.rows[req.Table+"/"+req.Scope]
	from := 0
	if req.LowerBound != "" {
		var err error
		if from, err = strconv.Atoi(req.LowerBound); err != nil {
			return nil, err
		}
	}
	to := min(from+req.Limit, len(rows))
	resp := &antelope.TableRowsResponse{Rows: rows[from:to]}
	if to < len(rows) {
		resp.More, resp.NextKey = true, strconv.Itoa(to)
	}
	return resp, nil
}

func TestResolveBlock(t *testing.T) {
	t.Parallel()
	headID := "0000007b" + "11111111111111111111111111111111111111111111111111111111"
	earliest := antelope.Uint64(95)

	tests := []struct {
		name    string
		info    *antelope.Info
		delta   uint64
		want    BlockRef
		wantErr error
	}{
		{name: "behind head", info: info(100), delta: 10, want: BlockRef{Number: 90}},
		{name: "at head carries the block id", info: &antelope.Info{HeadBlockNum: 123, HeadBlockID: headID}, delta: 0,
			want: BlockRef{Number: 123, Hash: ptr(common.HexToHash(headID))}},
		{name: "delta equals head", info: info(100), delta: 100, want: BlockRef{Number: 0}},
		{name: "delta above head", info: info(100), delta: 101, wantErr: ErrBlockNotFound},
		{name: "before retained history", info: &antelope.Info{HeadBlockNum: 100, EarliestAvailableBlockNum: &earliest}, delta: 10, wantErr: ErrBlockNotFound},
		{name: "retained history boundary", info: &antelope.Info{HeadBlockNum: 100, EarliestAvailableBlockNum: &earliest}, delta: 5, want: BlockRef{Number: 95}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			ctrl := gomock.NewController(t)
			api := NewMockchainAPI(ctrl)
			api.EXPECT().GetInfo(gomock.Any()).Return(tt.info, nil)

			block, err := NewRemoteFetcher(api, testFetcherConfig(), log.New()).ResolveBlock(context.Background(), tt.delta)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			require.Equal(t, tt.want, block)
		})
	}
}

func TestResolveBlockRemoteDown(t *testing.T) {
	t.Parallel()
	ctrl := gomock.NewController(t)
	api := NewMockchainAPI(ctrl)
	api.EXPECT().GetInfo(gomock.Any()).Return(nil, fmt.Errorf("%w: connection refused", antelope.ErrUnavailable))

	_, err := NewRemoteFetcher(api, testFetcherConfig(), log.New()).ResolveBlock(context.Background(), 1)
	require.ErrorIs(t, err, ErrRemoteUnavailable)
	require.ErrorIs(t, err, antelope.ErrUnavailable)
}

func TestFetchTablesPaging(t *testing.T) {
	t.Parallel()
	ctrl := gomock.NewController(t)
	api := NewMockchainAPI(ctrl)
	fake := newFakeTables(t)

	a4, a5 := common.HexToAddress("0x04"), common.HexToAddress("0x05")
	fake.set(accountTable, DefaultEVMContract,
		accountRow(0, addr1, 2, 100, nil),
		accountRow(1, addr2, 1, 50, nil),
		accountRow(2, addr3, 1, 0, code3),
		accountRow(3, a4, 0, 1, nil),
		accountRow(4, a5, 0, 2, nil),
	)
	fake.set(accountStateTable, "0", stateRow(0, slotA, 1), stateRow(1, slotB, 2), stateRow(2, common.HexToHash("0x0c"), 3))
	fake.set(accountStateTable, "2", stateRow(0, slotA, 5))
	fake.set(accountStateTable, "4", stateRow(0, slotB, 8))

	api.EXPECT().GetTableRows(gomock.Any(), gomock.Any()).DoAndReturn(fake.getTableRows).AnyTimes()
	api.EXPECT().GetInfo(gomock.Any()).Return(info(12), nil)

	logger, logs := newCapturingLogger()
	tables, err := NewRemoteFetcher(api, testFetcherConfig(), logger).FetchTables(context.Background(), BlockRef{Number: 10})
	require.NoError(t, err)
	require.Equal(t, uint64(10), tables.Block.Number)
	require.Equal(t, uint64(12), tables.Head)
	// the skew is expected with a nonzero delta and only surfaces in the report
	require.Contains(t, logs.messages(log.LvlDebug), "[statecompare] remote head after fetch")
	skew, _ := logs.value("[statecompare] remote head after fetch", "skew")
	require.Equal(t, uint64(2), skew)

	contract := account(addr3, 1, 0)
	contract.CodeHash = codeHash
	require.Equal(t, []AccountRecord{
		account(addr1, 2, 100), account(addr2, 1, 50), contract, account(a4, 0, 1), account(a5, 0, 2),
	}, tables.Accounts)
	// accountstate rows follow account order, then row order within a scope
	require.Equal(t, []StorageRecord{
		slot(addr1, slotA, 1), slot(addr1, slotB, 2), slot(addr1, common.HexToHash("0x0c"), 3),
		slot(addr3, slotA, 5),
		slot(a5, slotB, 8),
	}, tables.Storage)

	require.Equal(t, 3, fake.calls[accountTable+"/"+DefaultEVMContract])
	require.Equal(t, 2, fake.calls[accountStateTable+"/0"])
	require.Equal(t, 1, fake.calls[accountStateTable+"/1"])
}

func TestFetchTablesRequestShape(t *testing.T) {
	t.Parallel()
	ctrl := gomock.NewController(t)
	api := NewMockchainAPI(ctrl)
	cfg := testFetcherConfig()
	cfg.EVMContract = "evm.testnet"

	api.EXPECT().GetTableRows(gomock.Any(), antelope.TableRowsRequest{
		Code: "evm.testnet", Scope: "evm.testnet", Table: accountTable, JSON: true, Limit: 2,
	}).Return(&antelope.TableRowsResponse{}, nil)
	api.EXPECT().GetInfo(gomock.Any()).Return(info(1), nil)

	tables, err := NewRemoteFetcher(api, cfg, log.New()).FetchTables(context.Background(), BlockRef{Number: 1})
	require.NoError(t, err)
	require.Empty(t, tables.Accounts)
	require.Empty(t, tables.Storage)
}

func TestFetchTablesCursorNotAdvancing(t *testing.T) {
	t.Parallel()
	ctrl := gomock.NewController(t)
	api := NewMockchainAPI(ctrl)

	page := &antelope.TableRowsResponse{Rows: rawRows(t, accountRow(0, addr1, 1, 1, nil)), More: true}
	// the first attempt plus two page retries
	api.EXPECT().GetTableRows(gomock.Any(), gomock.Any()).Return(page, nil).Times(3)

	_, err := NewRemoteFetcher(api, testFetcherConfig(), log.New()).FetchTables(context.Background(), BlockRef{Number: 1})
	require.ErrorIs(t, err, ErrIncompleteTable)
	var incomplete *IncompleteTableError
	require.ErrorAs(t, err, &incomplete)
	require.Equal(t, accountTable, incomplete.Table)
	require.Zero(t, incomplete.Fetched)
}

func TestFetchTablesCursorRepeatsLowerBound(t *testing.T) {
	t.Parallel()
	ctrl := gomock.NewController(t)
	api := NewMockchainAPI(ctrl)

	first := &antelope.TableRowsResponse{Rows: rawRows(t, accountRow(0, addr1, 1, 1, nil)), More: true, NextKey: "1"}
	stuck := &antelope.TableRowsResponse{Rows: rawRows(t, accountRow(1, addr2, 1, 1, nil)), More: true, NextKey: "1"}
	gomock.InOrder(
		api.EXPECT().GetTableRows(gomock.Any(), gomock.Any()).Return(first, nil),
		api.EXPECT().GetTableRows(gomock.Any(), gomock.Any()).Return(stuck, nil).Times(3),
	)

	_, err := NewRemoteFetcher(api, testFetcherConfig(), log.New()).FetchTables(context.Background(), BlockRef{Number: 1})
	var incomplete *IncompleteTableError
	require.ErrorAs(t, err, &incomplete)
	require.Equal(t, 1, incomplete.Fetched)
}

func TestFetchTablesRetriesMalformedPage(t *testing.T) {
	t.Parallel()
	ctrl := gomock.NewController(t)
	api := NewMockchainAPI(ctrl)

	bad := &antelope.TableRowsResponse{Rows: []jsoniter.RawMessage{jsoniter.RawMessage(`{"index":"x"}`)}}
	good := &antelope.TableRowsResponse{Rows: rawRows(t, accountRow(0, addr1, 2, 100, nil))}
	gomock.InOrder(
		api.EXPECT().GetTableRows(gomock.Any(), gomock.Any()).Return(bad, nil),
		api.EXPECT().GetTableRows(gomock.Any(), gomock.Any()).Return(nil, fmt.Errorf("%w: truncated body", antelope.ErrDecode)),
		api.EXPECT().GetTableRows(gomock.Any(), gomock.Any()).Return(good, nil),
		api.EXPECT().GetTableRows(gomock.Any(), gomock.Any()).Return(&antelope.TableRowsResponse{}, nil),
	)
	api.EXPECT().GetInfo(gomock.Any()).Return(info(1), nil)

	tables, err := NewRemoteFetcher(api, testFetcherConfig(), log.New()).FetchTables(context.Background(), BlockRef{Number: 1})
	require.NoError(t, err)
	require.Equal(t, []AccountRecord{account(addr1, 2, 100)}, tables.Accounts)
}

func TestFetchTablesMalformedPageGivesUp(t *testing.T) {
	t.Parallel()
	ctrl := gomock.NewController(t)
	api := NewMockchainAPI(ctrl)

	bad := &antelope.TableRowsResponse{Rows: []jsoniter.RawMessage{jsoniter.RawMessage(`{"index":"x"}`)}}
	api.EXPECT().GetTableRows(gomock.Any(), gomock.Any()).Return(bad, nil).Times(3)

	_, err := NewRemoteFetcher(api, testFetcherConfig(), log.New()).FetchTables(context.Background(), BlockRef{Number: 1})
	require.ErrorIs(t, err, ErrRemoteUnavailable)
	require.ErrorIs(t, err, antelope.ErrDecode)
}

func TestFetchTablesTransportErrorNotRetried(t *testing.T) {
	t.Parallel()
	ctrl := gomock.NewController(t)
	api := NewMockchainAPI(ctrl)

	api.EXPECT().GetTableRows(gomock.Any(), gomock.Any()).Return(nil, fmt.Errorf("%w: 503", antelope.ErrUnavailable)).Times(1)

	_, err := NewRemoteFetcher(api, testFetcherConfig(), log.New()).FetchTables(context.Background(), BlockRef{Number: 1})
	require.ErrorIs(t, err, ErrRemoteUnavailable)
}

func TestFetchTablesScopeFailureAborts(t *testing.T) {
	t.Parallel()
	ctrl := gomock.NewController(t)
	api := NewMockchainAPI(ctrl)
	fake := newFakeTables(t)
	fake.set(accountTable, DefaultEVMContract, accountRow(0, addr1, 1, 1, nil), accountRow(1, addr2, 1, 1, nil))

	api.EXPECT().GetTableRows(gomock.Any(), gomock.Any()).
		DoAndReturn(func(ctx context.Context, req antelope.TableRowsRequest) (*antelope.TableRowsResponse, error) {
			if req.Table == accountStateTable && req.Scope == "1" {
				return nil, &antelope.APIError{StatusCode: 400, Path: "/v1/chain/get_table_rows", What: "bad scope"}
			}
			return fake.getTableRows(ctx, req)
		}).AnyTimes()

	_, err := NewRemoteFetcher(api, testFetcherConfig(), log.New()).FetchTables(context.Background(), BlockRef{Number: 1})
	require.ErrorIs(t, err, ErrRemoteUnavailable)
	var apiErr *antelope.APIError
	require.ErrorAs(t, err, &apiErr)
}

func TestFetchTablesRejectsBadChecksum(t *testing.T) {
	t.Parallel()
	ctrl := gomock.NewController(t)
	api := NewMockchainAPI(ctrl)

	row := accountRow(0, addr1, 1, 1, nil)
	row.Address = "abcd"
	api.EXPECT().GetTableRows(gomock.Any(), gomock.Any()).Return(&antelope.TableRowsResponse{Rows: rawRows(t, row)}, nil)

	_, err := NewRemoteFetcher(api, testFetcherConfig(), log.New()).FetchTables(context.Background(), BlockRef{Number: 1})
	require.ErrorIs(t, err, ErrRemoteUnavailable)
}

func TestFetchTablesRemoteRewound(t *testing.T) {
	t.Parallel()
	ctrl := gomock.NewController(t)
	api := NewMockchainAPI(ctrl)

	api.EXPECT().GetTableRows(gomock.Any(), gomock.Any()).Return(&antelope.TableRowsResponse{}, nil)
	api.EXPECT().GetInfo(gomock.Any()).Return(info(9), nil)

	_, err := NewRemoteFetcher(api, testFetcherConfig(), log.New()).FetchTables(context.Background(), BlockRef{Number: 10})
	require.ErrorIs(t, err, ErrBlockNotFound)
}

func TestFetch(t *testing.T) {
	t.Parallel()
	ctrl := gomock.NewController(t)
	fetcher := NewMockTableFetcher(ctrl)
	want := remoteAtBlock1()

	gomock.InOrder(
		fetcher.EXPECT().ResolveBlock(gomock.Any(), uint64(4)).Return(BlockRef{Number: 1}, nil),
		fetcher.EXPECT().FetchTables(gomock.Any(), BlockRef{Number: 1}).Return(want, nil),
	)
	got, err := Fetch(context.Background(), fetcher, 4)
	require.NoError(t, err)
	require.Same(t, want, got)
}
