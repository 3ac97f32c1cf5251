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

package kv

/*
PlainState logical layout:

	Contains Accounts:
	  key - address (unhashed)
	  value - account encoded for storage
	Contains Storage:
	  key - address (unhashed) + incarnation + storage key (unhashed)
	  value - storage value, leading zero bytes trimmed

PlainState utilises the DupSort feature of MDBX (store multiple values inside 1 key).
Physical layout:

	key                  | value
	---------------------+----------------------------------
	[address]            | [account]
	[address]+[inc]      | [storage1_key]+[storage1_value]
	                     | [storage2_key]+[storage2_value]
	[address]+[old_inc]  | [storage1_key]+[storage1_value]
	[address2]           | [account2]
*/
const PlainState = "PlainState"

/*
AccountChangeSet and StorageChangeSet - of block N store values of state before block N changed them.
Because values "after" change stored in PlainState.
Logical format:

	key - blockNum_u64 + key_in_plain_state
	value - value_in_plain_state_before_blockNum_changes

Example: If block N changed account A from value X to Y. Then:

	AccountChangeSet has record: bigEndian(N) + A -> X
	PlainState has record: A -> Y

An empty value means the key did not exist before block N.

Both tables are DupSort-ed and have physical format:

	AccountChangeSet:
		key - blockNum_u64
		value - address + account(encoded)

	StorageChangeSet:
		key - blockNum_u64 + address + incarnation_u64
		value - plain_storage_key + value
*/
const (
	AccountChangeSet = "AccountChangeSet"
	StorageChangeSet = "StorageChangeSet"
)

/*
AccountsHistory and StorageHistory - indices designed to serve the request:
what is smallest block number >= X where account A changed.

If seek(A+bigEndian(X)) finds a shard, the first block Y >= X in it locates the
ChangeSet record holding the value of A as of X. If no shard is found the value
is read from PlainState.

	AccountsHistory:
		key - address + shard_max_block_u64
		value - roaring bitmap - list of block where it changed

	StorageHistory:
		key - address + storage_key + shard_max_block_u64
		value - roaring bitmap - list of block where it changed

The last shard of a key has suffix 0xFF..FF.
*/
const (
	AccountsHistory = "AccountHistory"
	StorageHistory  = "StorageHistory"
)

const (
	// SyncStageProgress - stage name -> block number up to which the stage is done
	SyncStageProgress = "SyncStage"

	// PruneProgress - table name -> first block whose history is still available
	PruneProgress = "PruneProgress"

	// Code - contract code hash -> contract code
	Code = "Code"
)

// ChaindataTables is the list of tables the node reads and writes.
var ChaindataTables = []string{
	PlainState,
	AccountChangeSet,
	StorageChangeSet,
	AccountsHistory,
	StorageHistory,
	SyncStageProgress,
	PruneProgress,
	Code,
}

type TableFlags uint

const (
	Default TableFlags = 0x00
	DupSort TableFlags = 0x04
)

type TableCfgItem struct {
	Flags TableFlags
}

type TableCfg map[string]TableCfgItem

// ChaindataTablesCfg holds the non-default table flags. They must match the
// flags the tables were created with.
var ChaindataTablesCfg = TableCfg{
	PlainState:       {Flags: DupSort},
	AccountChangeSet: {Flags: DupSort},
	StorageChangeSet: {Flags: DupSort},
}

func (c TableCfg) IsDupSort(table string) bool { return c[table].Flags&DupSort != 0 }
