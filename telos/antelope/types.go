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

package antelope

import (
	"bytes"
	"encoding/hex"
	"fmt"
	"strconv"
	"strings"

	jsoniter "github.com/json-iterator/go"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Uint64 decodes both JSON numbers and strings. Nodeos serializes 64-bit
// integers as strings once they exceed the safe JavaScript range.
type Uint64 uint64

func (u *Uint64) UnmarshalJSON(b []byte) error {
	s := string(bytes.Trim(b, `"`))
	if s == "" || s == "null" {
		*u = 0
		return nil
	}
	v, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		return fmt.Errorf("antelope: invalid uint64 %s: %w", b, err)
	}
	*u = Uint64(v)
	return nil
}

func (u Uint64) MarshalJSON() ([]byte, error) {
	return []byte(strconv.FormatUint(uint64(u), 10)), nil
}

// HexBytes is a vector<uint8_t>, serialized by nodeos as a hex string. Some
// versions emit an array of numbers instead, both are accepted.
type HexBytes []byte

func (h *HexBytes) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) > 0 && b[0] == '[' {
		var arr []uint8
		if err := json.Unmarshal(b, &arr); err != nil {
			return fmt.Errorf("antelope: invalid byte array: %w", err)
		}
		*h = arr
		return nil
	}
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return fmt.Errorf("antelope: invalid hex bytes: %w", err)
	}
	decoded, err := hex.DecodeString(strings.TrimPrefix(s, "0x"))
	if err != nil {
		return fmt.Errorf("antelope: invalid hex bytes %q: %w", s, err)
	}
	*h = decoded
	return nil
}

func (h HexBytes) MarshalJSON() ([]byte, error) {
	return json.Marshal(hex.EncodeToString(h))
}

// ParseChecksum decodes a checksum160/checksum256 hex string of exactly size bytes.
func ParseChecksum(s string, size int) ([]byte, error) {
	s = strings.TrimPrefix(s, "0x")
	if len(s) != size*2 {
		return nil, fmt.Errorf("antelope: checksum %q: want %d hex chars, got %d", s, size*2, len(s))
	}
	b, err := hex.DecodeString(s)
	if err != nil {
		return nil, fmt.Errorf("antelope: checksum %q: %w", s, err)
	}
	return b, nil
}

type Info struct {
	ServerVersion             string  `json:"server_version"`
	ChainID                   string  `json:"chain_id"`
	HeadBlockNum              Uint64  `json:"head_block_num"`
	LastIrreversibleBlockNum  Uint64  `json:"last_irreversible_block_num"`
	HeadBlockID               string  `json:"head_block_id"`
	EarliestAvailableBlockNum *Uint64 `json:"earliest_available_block_num,omitempty"`
}

type TableRowsRequest struct {
	Code       string `json:"code"`
	Scope      string `json:"scope"`
	Table      string `json:"table"`
	JSON       bool   `json:"json"`
	Limit      int    `json:"limit,omitempty"`
	LowerBound string `json:"lower_bound,omitempty"`
	UpperBound string `json:"upper_bound,omitempty"`
}

type TableRowsResponse struct {
	Rows    []jsoniter.RawMessage `json:"rows"`
	More    bool                  `json:"-"`
	NextKey string                `json:"next_key"`
}

// UnmarshalJSON handles both response shapes: "more" as a bool together with
// "next_key", and the legacy form where "more" carries the next key itself.
func (r *TableRowsResponse) UnmarshalJSON(b []byte) error {
	var raw struct {
		Rows    []jsoniter.RawMessage `json:"rows"`
		More    jsoniter.RawMessage   `json:"more"`
		NextKey string                `json:"next_key"`
	}
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	r.Rows, r.NextKey, r.More = raw.Rows, raw.NextKey, false
	more := bytes.TrimSpace(raw.More)
	switch {
	case len(more) == 0, string(more) == "null", string(more) == "false":
	case string(more) == "true":
		r.More = true
	case more[0] == '"':
		var s string
		if err := json.Unmarshal(more, &s); err != nil {
			return err
		}
		if s != "" {
			r.More = true
			if r.NextKey == "" {
				r.NextKey = s
			}
		}
	default:
		return fmt.Errorf("antelope: unexpected \"more\" value %s", more)
	}
	return nil
}

// DecodeRows decodes every row of the page into T.
func DecodeRows[T any](resp *TableRowsResponse) ([]T, error) {
	rows := make([]T, len(resp.Rows))
	for i, raw := range resp.Rows {
		if err := json.Unmarshal(raw, &rows[i]); err != nil {
			return nil, fmt.Errorf("%w: row %d: %w", ErrDecode, i, err)
		}
	}
	return rows, nil
}

// AccountRow is a row of the EVM contract "account" table.
type AccountRow struct {
	Index   Uint64   `json:"index"`
	Address string   `json:"address"` // checksum160
	Account string   `json:"account"`
	Nonce   Uint64   `json:"nonce"`
	Code    HexBytes `json:"code"`
	Balance string   `json:"balance"` // checksum256, big endian
}

// AccountStateRow is a row of the EVM contract "accountstate" table. The
// table is scoped by the account index.
type AccountStateRow struct {
	Index Uint64 `json:"index"`
	Key   string `json:"key"`   // checksum256
	Value string `json:"value"` // checksum256
}

type apiErrorBody struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Error   struct {
		Code int    `json:"code"`
		Name string `json:"name"`
		What string `json:"what"`
	} `json:"error"`
}
