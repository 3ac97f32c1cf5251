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
	"strconv"

	"github.com/ledgerwatch/log/v3"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/urfave/cli/v2"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Config selects the console and file sinks of the root logger.
type Config struct {
	ConsoleLevel log.Lvl
	ConsoleJson  bool
	DirPath      string
	DirPrefix    string
	DirLevel     log.Lvl
	DirJson      bool
}

// SetupLoggerCtx configures the root logger from urfave flags and returns it.
func SetupLoggerCtx(filePrefix string, ctx *cli.Context) log.Logger {
	cfg := Config{
		ConsoleJson: ctx.Bool(LogJsonFlag.Name) || ctx.Bool(LogConsoleJsonFlag.Name),
		DirJson:     ctx.Bool(LogDirJsonFlag.Name),
		DirPath:     ctx.String(LogDirPathFlag.Name),
		DirPrefix:   ctx.String(LogDirPrefixFlag.Name),
	}
	cfg.ConsoleLevel = consoleLevel(ctx.String(LogConsoleVerbosityFlag.Name), ctx.String(LogVerbosityFlag.Name))
	cfg.DirLevel = levelOr(ctx.String(LogDirVerbosityFlag.Name), log.LvlInfo)
	if cfg.DirPath == "" {
		if datadir := ctx.String("datadir"); datadir != "" {
			cfg.DirPath = filepath.Join(datadir, "logs")
		}
	}
	if cfg.DirPrefix == "" {
		cfg.DirPrefix = filePrefix
	}
	return Setup(cfg)
}

// SetupLoggerCmd is SetupLoggerCtx for cobra commands that registered the
// flags through AddFlags.
func SetupLoggerCmd(filePrefix string, cmd *cobra.Command) log.Logger {
	str := func(name string) string {
		if f := cmd.Flag(name); f != nil {
			return f.Value.String()
		}
		return ""
	}
	boolean := func(name string) bool {
		v, err := strconv.ParseBool(str(name))
		return err == nil && v
	}

	cfg := Config{
		ConsoleJson:  boolean(LogJsonFlag.Name) || boolean(LogConsoleJsonFlag.Name),
		DirJson:      boolean(LogDirJsonFlag.Name),
		DirPath:      str(LogDirPathFlag.Name),
		DirPrefix:    str(LogDirPrefixFlag.Name),
		ConsoleLevel: consoleLevel(str(LogConsoleVerbosityFlag.Name), str(LogVerbosityFlag.Name)),
		DirLevel:     levelOr(str(LogDirVerbosityFlag.Name), log.LvlInfo),
	}
	if cfg.DirPath == "" {
		if datadir := str("datadir"); datadir != "" {
			cfg.DirPath = filepath.Join(datadir, "logs")
		}
	}
	if cfg.DirPrefix == "" {
		cfg.DirPrefix = filePrefix
	}
	return Setup(cfg)
}

// AddFlags registers the logging flags on a cobra flag set.
func AddFlags(f *pflag.FlagSet) {
	f.Bool(LogJsonFlag.Name, false, LogJsonFlag.Usage)
	f.Bool(LogConsoleJsonFlag.Name, false, LogConsoleJsonFlag.Usage)
	f.Bool(LogDirJsonFlag.Name, false, LogDirJsonFlag.Usage)
	f.String(LogVerbosityFlag.Name, LogVerbosityFlag.Value, LogVerbosityFlag.Usage)
	f.String(LogConsoleVerbosityFlag.Name, LogConsoleVerbosityFlag.Value, LogConsoleVerbosityFlag.Usage)
	f.String(LogDirPathFlag.Name, "", LogDirPathFlag.Usage)
	f.String(LogDirPrefixFlag.Name, "", LogDirPrefixFlag.Usage)
	f.String(LogDirVerbosityFlag.Name, LogDirVerbosityFlag.Value, LogDirVerbosityFlag.Usage)
}

// Setup installs the handlers on the root logger. File logs rotate through
// lumberjack when a directory is given.
func Setup(cfg Config) log.Logger {
	logger := log.Root()

	if cfg.ConsoleJson {
		logger.SetHandler(log.LvlFilterHandler(cfg.ConsoleLevel, log.StreamHandler(os.Stderr, log.JsonFormat())))
	} else {
		logger.SetHandler(log.LvlFilterHandler(cfg.ConsoleLevel, log.StderrHandler))
	}

	if cfg.DirPath == "" {
		logger.Warn("no log dir set, console logging only")
		return logger
	}
	if err := os.MkdirAll(cfg.DirPath, 0764); err != nil {
		logger.Warn("failed to create log dir, console logging only", "err", err)
		return logger
	}

	dirFormat := log.TerminalFormatNoColor()
	if cfg.DirJson {
		dirFormat = log.JsonFormat()
	}
	rotating := &lumberjack.Logger{
		Filename:   filepath.Join(cfg.DirPath, cfg.DirPrefix+".log"),
		MaxSize:    100, // megabytes
		MaxBackups: 3,
		MaxAge:     28, // days
	}
	fileHandler := log.LvlFilterHandler(cfg.DirLevel, log.StreamHandler(rotating, dirFormat))
	logger.SetHandler(log.MultiHandler(logger.GetHandler(), fileHandler))
	logger.Info("logging to file system", "log dir", cfg.DirPath, "file prefix", cfg.DirPrefix, "log level", cfg.DirLevel, "json", cfg.DirJson)
	return logger
}

func consoleLevel(console, verbosity string) log.Lvl {
	if lvl, err := tryGetLogLevel(console); err == nil {
		return lvl
	}
	return levelOr(verbosity, log.LvlInfo)
}

func levelOr(s string, def log.Lvl) log.Lvl {
	if lvl, err := tryGetLogLevel(s); err == nil {
		return lvl
	}
	return def
}

// tryGetLogLevel accepts level names as well as their numeric form.
func tryGetLogLevel(s string) (log.Lvl, error) {
	lvl, err := log.LvlFromString(s)
	if err != nil {
		l, err := strconv.Atoi(s)
		if err != nil {
			return 0, err
		}
		return log.Lvl(l), nil
	}
	return lvl, nil
}
