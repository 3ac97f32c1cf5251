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

package utils

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"github.com/urfave/cli/v2"
	"gopkg.in/yaml.v3"
)

// SetFlagsFromConfigFile sets every flag named in a YAML or TOML file that
// was not given on the command line.
func SetFlagsFromConfigFile(ctx *cli.Context, filePath string) error {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return err
	}

	fileConfig := make(map[string]any)
	switch filepath.Ext(filePath) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &fileConfig); err != nil {
			return err
		}
	case ".toml":
		if err := toml.Unmarshal(data, &fileConfig); err != nil {
			return err
		}
	default:
		return errors.New("config files only accepted are .yaml and .toml")
	}

	for key, value := range fileConfig {
		if ctx.IsSet(key) {
			continue
		}
		if values, ok := value.([]any); ok {
			s := make([]string, len(values))
			for i, v := range values {
				s[i] = fmt.Sprintf("%v", v)
			}
			if err := ctx.Set(key, strings.Join(s, ",")); err != nil {
				return fmt.Errorf("failed setting %s flag with values=%s error=%w", key, s, err)
			}
			continue
		}
		if err := ctx.Set(key, fmt.Sprintf("%v", value)); err != nil {
			return fmt.Errorf("failed setting %s flag with value=%v error=%w", key, value, err)
		}
	}
	return nil
}
