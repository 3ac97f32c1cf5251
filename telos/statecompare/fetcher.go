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
	"errors"
	"fmt"
	"strconv"

	"github.com/cenkalti/backoff/v4"
	"github.com/ledgerwatch/log/v3"
	"golang.org/x/sync/errgroup"

	"github.com/telosnetwork/telos-erigon/common"
	"github.com/telosnetwork/telos-erigon/common/length"
	"github.com/telosnetwork/telos-erigon/telos/antelope"
)

const (
	accountTable      = "account"
	accountStateTable = "accountstate"
)

//go:generate mockgen -typed=true -destination=./table_fetcher_mock.go -package=statecompare . TableFetcher
type TableFetcher interface {
	// ResolveBlock picks the block blockDelta blocks behind the remote head.
	ResolveBlock(ctx context.Context, blockDelta uint64) (BlockRef, error)
	// FetchTables reads the complete account and accountstate tables.
	FetchTables(ctx context.Context, block BlockRef) (*RemoteTables, error)
}

// Fetch resolves the block and reads both remote tables at it.
func Fetch(ctx context.Context, f TableFetcher, blockDelta uint64) (*RemoteTables, error) {
	block, err := f.ResolveBlock(ctx, blockDelta)
	if err != nil {
		return nil, err
	}
	return f.FetchTables(ctx, block)
}

//go:generate mockgen -typed=true -destination=./chain_api_mock.go -package=statecompare . chainAPI
type chainAPI interface {
	GetInfo(ctx context.Context) (*antelope.Info, error)
	GetTableRows(ctx context.Context, req antelope.TableRowsRequest) (*antelope.TableRowsResponse, error)
}

var _ TableFetcher = (*RemoteFetcher)(nil)

// RemoteFetcher reads the EVM contract tables through the native chain API.
type RemoteFetcher struct {
	api         chainAPI
	contract    string
	pageLimit   int
	concurrency int
	retry       RetryConfig
	logger      log.Logger
}

func NewRemoteFetcher(api chainAPI, cfg Config, logger log.Logger) *RemoteFetcher {
	f := &RemoteFetcher{
		api:         api,
		contract:    cfg.EVMContract,
		pageLimit:   cfg.PageLimit,
		concurrency: cfg.FetchConcurrency,
		retry:       cfg.Retry,
		logger:      logger,
	}
	if f.contract == "" {
		f.contract = DefaultEVMContract
	}
	if f.pageLimit <= 0 {
		f.pageLimit = DefaultConfig.PageLimit
	}
	if f.concurrency <= 0 {
		f.concurrency = 1
	}
	return f
}

func (f *RemoteFetcher) ResolveBlock(ctx context.Context, blockDelta uint64) (BlockRef, error) {
	info, err := f.api.GetInfo(ctx)
	if err != nil {
		return BlockRef{}, remoteError(err)
	}
	head := uint64(info.HeadBlockNum)
	if blockDelta > head {
		return BlockRef{}, &BlockNotFoundError{Head: head, Reason: fmt.Sprintf("block delta %d exceeds remote head", blockDelta)}
	}
	block := BlockRef{Number: head - blockDelta}
	if info.EarliestAvailableBlockNum != nil && block.Number < uint64(*info.EarliestAvailableBlockNum) {
		return BlockRef{}, &BlockNotFoundError{
			Block:  block.Number,
			Head:   head,
			Reason: fmt.Sprintf("predates remote retained history (earliest %d)", *info.EarliestAvailableBlockNum),
		}
	}
	if blockDelta == 0 && info.HeadBlockID != "" {
		if id, err := antelope.ParseChecksum(info.HeadBlockID, length.Hash); err == nil {
			h := common.BytesToHash(id)
			block.Hash = &h
		}
	}
	f.logger.Debug("[statecompare] resolved remote block", "head", head, "delta", blockDelta, "block", block.Number)
	return block, nil
}

func (f *RemoteFetcher) FetchTables(ctx context.Context, block BlockRef) (*RemoteTables, error) {
	accountRows, err := fetchTable[antelope.AccountRow](ctx, f, f.contract, accountTable)
	if err != nil {
		return nil, err
	}
	accounts := make([]AccountRecord, len(accountRows))
	for i := range accountRows {
		if accounts[i], err = accountRecordFromRow(&accountRows[i]); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrRemoteUnavailable, err)
		}
	}
	f.logger.Info("[statecompare] fetched remote account table", "accounts", len(accounts))

	perAccount := make([][]StorageRecord, len(accountRows))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(f.concurrency)
	for i := range accountRows {
		g.Go(func() error {
			scope := strconv.FormatUint(uint64(accountRows[i].Index), 10)
			rows, err := fetchTable[antelope.AccountStateRow](gctx, f, scope, accountStateTable)
			if err != nil {
				return err
			}
			slots := make([]StorageRecord, len(rows))
			for j := range rows {
				if slots[j], err = storageRecordFromRow(accounts[i].Address, &rows[j]); err != nil {
					return fmt.Errorf("%w: scope %s: %w", ErrRemoteUnavailable, scope, err)
				}
			}
			perAccount[i] = slots
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	total := 0
	for _, slots := range perAccount {
		total += len(slots)
	}
	storage := make([]StorageRecord, 0, total)
	for _, slots := range perAccount {
		storage = append(storage, slots...)
	}
	f.logger.Info("[statecompare] fetched remote accountstate table", "slots", len(storage), "scopes", len(accounts))

	head, err := f.checkDrift(ctx, block)
	if err != nil {
		return nil, err
	}
	return &RemoteTables{Block: block, Head: head, Accounts: accounts, Storage: storage}, nil
}

// checkDrift re-reads the head after paging. The tables are read at the head,
// so a long fetch moves them past the resolved block. A head below the
// resolved block means the remote node rewound.
func (f *RemoteFetcher) checkDrift(ctx context.Context, block BlockRef) (uint64, error) {
	info, err := f.api.GetInfo(ctx)
	if err != nil {
		return 0, remoteError(err)
	}
	head := uint64(info.HeadBlockNum)
	if head < block.Number {
		return 0, &BlockNotFoundError{Block: block.Number, Head: head, Reason: "remote head moved below the resolved block"}
	}
	f.logger.Debug("[statecompare] remote head after fetch", "block", block.Number, "head", head, "skew", head-block.Number)
	return head, nil
}

var errCursorNotAdvancing = errors.New("pagination cursor did not advance")

// fetchTable pages through one table scope, concatenating pages in the order received.
func fetchTable[T any](ctx context.Context, f *RemoteFetcher, scope, table string) ([]T, error) {
	var rows []T
	lowerBound := ""
	for page := 0; ; page++ {
		req := antelope.TableRowsRequest{
			Code:       f.contract,
			Scope:      scope,
			Table:      table,
			JSON:       true,
			Limit:      f.pageLimit,
			LowerBound: lowerBound,
		}
		resp, pageRows, err := fetchPage[T](ctx, f, req)
		if err != nil {
			if errors.Is(err, errCursorNotAdvancing) {
				return nil, &IncompleteTableError{Table: table, Scope: scope, Fetched: len(rows), Reason: err.Error()}
			}
			return nil, err
		}
		rows = append(rows, pageRows...)
		pagesFetched.Inc()
		f.logger.Trace("[statecompare] fetched page", "table", table, "scope", scope, "page", page, "rows", len(pageRows))
		if !resp.More {
			return rows, nil
		}
		lowerBound = resp.NextKey
	}
}

func fetchPage[T any](ctx context.Context, f *RemoteFetcher, req antelope.TableRowsRequest) (*antelope.TableRowsResponse, []T, error) {
	type page struct {
		resp *antelope.TableRowsResponse
		rows []T
	}
	res, err := backoff.RetryWithData(func() (page, error) {
		resp, err := f.api.GetTableRows(ctx, req)
		if err != nil {
			// malformed pages are retried, transport errors were retried by the client
			if errors.Is(err, antelope.ErrDecode) {
				return page{}, err
			}
			return page{}, backoff.Permanent(remoteError(err))
		}
		if resp.More && (resp.NextKey == "" || resp.NextKey == req.LowerBound) {
			return page{}, fmt.Errorf("%w: more=true next_key=%q lower_bound=%q", errCursorNotAdvancing, resp.NextKey, req.LowerBound)
		}
		rows, err := antelope.DecodeRows[T](resp)
		if err != nil {
			return page{}, err
		}
		return page{resp: resp, rows: rows}, nil
	}, backoff.WithContext(backoff.WithMaxRetries(backoff.NewConstantBackOff(f.retry.PageRetryWait), uint64(f.retry.PageRetries)), ctx))
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, nil, ctxErr
		}
		if errors.Is(err, antelope.ErrDecode) {
			return nil, nil, fmt.Errorf("%w: %w", ErrRemoteUnavailable, err)
		}
		return nil, nil, err
	}
	return res.resp, res.rows, nil
}

func remoteError(err error) error {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	return fmt.Errorf("%w: %w", ErrRemoteUnavailable, err)
}

func accountRecordFromRow(row *antelope.AccountRow) (AccountRecord, error) {
	addr, err := antelope.ParseChecksum(row.Address, length.Addr)
	if err != nil {
		return AccountRecord{}, fmt.Errorf("account %d address: %w", row.Index, err)
	}
	balance, err := antelope.ParseChecksum(row.Balance, length.Hash)
	if err != nil {
		return AccountRecord{}, fmt.Errorf("account %d balance: %w", row.Index, err)
	}
	rec := AccountRecord{
		Address:  common.BytesToAddress(addr),
		Nonce:    uint64(row.Nonce),
		CodeHash: common.EmptyCodeHash,
	}
	rec.Balance.SetBytes32(balance)
	if len(row.Code) > 0 {
		rec.CodeHash = common.Keccak256Hash(row.Code)
	}
	return rec, nil
}

func storageRecordFromRow(address common.Address, row *antelope.AccountStateRow) (StorageRecord, error) {
	key, err := antelope.ParseChecksum(row.Key, length.Hash)
	if err != nil {
		return StorageRecord{}, fmt.Errorf("slot %d key: %w", row.Index, err)
	}
	value, err := antelope.ParseChecksum(row.Value, length.Hash)
	if err != nil {
		return StorageRecord{}, fmt.Errorf("slot %d value: %w", row.Index, err)
	}
	rec := StorageRecord{Address: address, Key: common.BytesToHash(key)}
	rec.Value.SetBytes32(value)
	return rec, nil
}
