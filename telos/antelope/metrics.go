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
	"context"
	"time"

	"github.com/VictoriaMetrics/metrics"
)

type (
	requestTypeKey struct{}
	requestType    string

	meter struct {
		request map[bool]*metrics.Counter
		timer   *metrics.Summary
	}
)

const (
	getInfoRequest      requestType = "get-info"
	getTableRowsRequest requestType = "get-table-rows"
)

func withRequestType(ctx context.Context, reqType requestType) context.Context {
	return context.WithValue(ctx, requestTypeKey{}, reqType)
}

func getRequestType(ctx context.Context) (requestType, bool) {
	reqType, ok := ctx.Value(requestTypeKey{}).(requestType)
	return reqType, ok
}

var (
	requestMeters = map[requestType]meter{
		getInfoRequest: {
			request: map[bool]*metrics.Counter{
				true:  metrics.GetOrCreateCounter("antelope_requests_getinfo_valid"),
				false: metrics.GetOrCreateCounter("antelope_requests_getinfo_invalid"),
			},
			timer: metrics.GetOrCreateSummary("antelope_requests_getinfo_duration"),
		},
		getTableRowsRequest: {
			request: map[bool]*metrics.Counter{
				true:  metrics.GetOrCreateCounter("antelope_requests_gettablerows_valid"),
				false: metrics.GetOrCreateCounter("antelope_requests_gettablerows_invalid"),
			},
			timer: metrics.GetOrCreateSummary("antelope_requests_gettablerows_duration"),
		},
	}

	rowsFetched = metrics.GetOrCreateCounter("antelope_table_rows_fetched")
)

func sendMetrics(ctx context.Context, start time.Time, isSuccessful bool) {
	reqType, ok := getRequestType(ctx)
	if !ok {
		return
	}

	meters, ok := requestMeters[reqType]
	if !ok {
		return
	}

	meters.request[isSuccessful].Inc()
	meters.timer.UpdateDuration(start)
}
