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
	"strings"
)

type DecisionKind int

const (
	Skip DecisionKind = iota
	Proceed
)

// Decision tells whether the reconciliation can run with the given
// configuration. A Skip is not an error: the host keeps running.
type Decision struct {
	Kind       DecisionKind
	Endpoint   string
	BlockDelta uint64
	// Reason names the missing input of a Skip.
	Reason string
}

// Resolve requires both the endpoint and the block delta. The endpoint is
// checked first.
func Resolve(blockDelta *uint64, endpoint *string) Decision {
	if endpoint == nil || strings.TrimSpace(*endpoint) == "" {
		return Decision{Kind: Skip, Reason: "Telos RPC Endpoint is not specified, skipping two-way storage compare"}
	}
	if blockDelta == nil {
		return Decision{Kind: Skip, Reason: "Block delta is not specified, skipping two-way storage compare"}
	}
	return Decision{Kind: Proceed, Endpoint: strings.TrimSpace(*endpoint), BlockDelta: *blockDelta}
}

func (d Decision) Skipped() bool { return d.Kind == Skip }

// Err is ErrConfigIncomplete for a Skip and nil otherwise.
func (d Decision) Err() error {
	if d.Kind == Skip {
		return fmt.Errorf("%w: %s", ErrConfigIncomplete, d.Reason)
	}
	return nil
}
