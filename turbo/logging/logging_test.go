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

package logging

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/ledgerwatch/log/v3"
	"github.com/spf13/cobra"
	"github.com/stretchr/testify/require"
)

func TestTryGetLogLevel(t *testing.T) {
	lvl, err := tryGetLogLevel("debug")
	require.NoError(t, err)
	require.Equal(t, log.LvlDebug, lvl)

	lvl, err = tryGetLogLevel("2")
	require.NoError(t, err)
	require.Equal(t, log.LvlWarn, lvl)

	_, err = tryGetLogLevel("loud")
	require.Error(t, err)

	require.Equal(t, log.LvlTrace, consoleLevel("", "trace"))
	require.Equal(t, log.LvlError, consoleLevel("error", "trace"))
	require.Equal(t, log.LvlInfo, consoleLevel("", ""))
}

func TestSetupLoggerCmdWritesToDir(t *testing.T) {
	dir := t.TempDir()
	handler := log.Root().GetHandler()
	t.Cleanup(func() { log.Root().SetHandler(handler) })

	cmd := &cobra.Command{Use: "test"}
	AddFlags(cmd.PersistentFlags())
	cmd.PersistentFlags().String("datadir", "", "")
	require.NoError(t, cmd.PersistentFlags().Set("datadir", dir))
	require.NoError(t, cmd.PersistentFlags().Set(LogDirVerbosityFlag.Name, "warn"))

	logger := SetupLoggerCmd("statetool", cmd)
	logger.Warn("visible in file")
	logger.Info("filtered from file")

	data, err := os.ReadFile(filepath.Join(dir, "logs", "statetool.log"))
	require.NoError(t, err)
	require.Contains(t, string(data), "visible in file")
	require.NotContains(t, string(data), "filtered from file")
}
