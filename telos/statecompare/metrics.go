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

import "github.com/VictoriaMetrics/metrics"

var (
	pagesFetched           = metrics.GetOrCreateCounter("statecompare_remote_pages_fetched")
	selfCheckDisagreements = metrics.GetOrCreateCounter("statecompare_selfcheck_disagreements")
	runsCompleted          = metrics.GetOrCreateCounter(`statecompare_runs{result="completed"}`)
	runsFailed             = metrics.GetOrCreateCounter(`statecompare_runs{result="failed"}`)
	runsSkipped            = metrics.GetOrCreateCounter(`statecompare_runs{result="skipped"}`)

	lastReport = struct {
		accountsCompared, accountsMatched, accountsMismatched *metrics.Counter
		storageCompared, storageMatched, storageMismatched    *metrics.Counter
		missingOnLocal, missingOnRemote                       *metrics.Counter
	}{
		accountsCompared:   metrics.GetOrCreateCounter(`statecompare_records{kind="account",outcome="compared"}`),
		accountsMatched:    metrics.GetOrCreateCounter(`statecompare_records{kind="account",outcome="matched"}`),
		accountsMismatched: metrics.GetOrCreateCounter(`statecompare_records{kind="account",outcome="mismatched"}`),
		storageCompared:    metrics.GetOrCreateCounter(`statecompare_records{kind="storage",outcome="compared"}`),
		storageMatched:     metrics.GetOrCreateCounter(`statecompare_records{kind="storage",outcome="matched"}`),
		storageMismatched:  metrics.GetOrCreateCounter(`statecompare_records{kind="storage",outcome="mismatched"}`),
		missingOnLocal:     metrics.GetOrCreateCounter(`statecompare_records{outcome="missing_on_local"}`),
		missingOnRemote:    metrics.GetOrCreateCounter(`statecompare_records{outcome="missing_on_remote"}`),
	}
)

func exportReport(r *Report) {
	lastReport.accountsCompared.Set(r.AccountsCompared)
	lastReport.accountsMatched.Set(r.AccountsMatched)
	lastReport.accountsMismatched.Set(r.AccountsMismatched)
	lastReport.storageCompared.Set(r.StorageCompared)
	lastReport.storageMatched.Set(r.StorageMatched)
	lastReport.storageMismatched.Set(r.StorageMismatched)
	lastReport.missingOnLocal.Set(r.MissingOnLocal())
	lastReport.missingOnRemote.Set(r.MissingOnRemote())
}
