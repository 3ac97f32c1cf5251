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

package datadir

import (
	"os"
	"path/filepath"
)

// Dirs is the on-disk layout of a node data directory.
type Dirs struct {
	RelativeDataDir string // as set by the user
	DataDir         string // absolute
	Chaindata       string
	Logs            string
	Dumps           string
}

func New(datadir string) Dirs {
	relativeDataDir := datadir
	if datadir != "" {
		absdatadir, err := filepath.Abs(datadir)
		if err != nil {
			panic(err)
		}
		datadir = absdatadir
	}

	return Dirs{
		RelativeDataDir: relativeDataDir,
		DataDir:         datadir,
		Chaindata:       filepath.Join(datadir, "chaindata"),
		Logs:            filepath.Join(datadir, "logs"),
		Dumps:           filepath.Join(datadir, "statecompare"),
	}
}

// DefaultDataDir is the datadir used when none is given.
func DefaultDataDir() string {
	if home, err := os.UserHomeDir(); err == nil {
		return filepath.Join(home, ".local", "share", "telos-erigon")
	}
	return ""
}

// Exists reports whether the chaindata directory is present.
func (d Dirs) Exists() bool {
	info, err := os.Stat(d.Chaindata)
	return err == nil && info.IsDir()
}
