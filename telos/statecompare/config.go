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
	"time"

	"github.com/telosnetwork/telos-erigon/telos/antelope"
)

const DefaultEVMContract = "eosio.evm"

type RetryConfig struct {
	// MaxRetries bounds transport level retries of a single request.
	MaxRetries     int
	WaitMin        time.Duration
	WaitMax        time.Duration
	RequestTimeout time.Duration
	// PageRetries bounds retries of a page whose content is unusable
	// (malformed rows, pagination cursor not advancing).
	PageRetries   int
	PageRetryWait time.Duration
	// RequestsPerSecond throttles remote requests, zero means unlimited.
	RequestsPerSecond float64
}

type Config struct {
	// TwoWayStorageCompare gates the whole reconciliation.
	TwoWayStorageCompare bool
	TelosEndpoint        *string
	BlockDelta           *uint64

	EVMContract      string
	PageLimit        int
	FetchConcurrency int
	Retry            RetryConfig

	// Bidirectional also counts local records unknown to the remote side.
	Bidirectional  bool
	SelfCheck      bool
	MaxDiffSamples int
}

var DefaultConfig = Config{
	EVMContract:      DefaultEVMContract,
	PageLimit:        1000,
	FetchConcurrency: 8,
	Retry: RetryConfig{
		MaxRetries:     antelope.DefaultMaxRetries,
		WaitMin:        antelope.DefaultRetryWaitMin,
		WaitMax:        antelope.DefaultRetryWaitMax,
		RequestTimeout: antelope.DefaultRequestTimeout,
		PageRetries:    3,
		PageRetryWait:  2 * time.Second,
	},
	SelfCheck:      true,
	MaxDiffSamples: 20,
}

// ClientOptions translates the retry policy into antelope client options.
func (c RetryConfig) ClientOptions() []antelope.ClientOption {
	opts := []antelope.ClientOption{
		antelope.WithHttpMaxRetries(c.MaxRetries),
		antelope.WithHttpRetryWait(c.WaitMin, c.WaitMax),
		antelope.WithHttpRequestTimeout(c.RequestTimeout),
	}
	if c.RequestsPerSecond > 0 {
		opts = append(opts, antelope.WithRateLimit(c.RequestsPerSecond, 1))
	}
	return opts
}
