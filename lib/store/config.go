// Copyright (c) 2016-2019 Uber Technologies, Inc.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.
package store

import (
	"github.com/uber/modelpull/utils/osutil"
)

// OwnerConfig overrides the uid and gid given to every path a pull creates.
type OwnerConfig struct {
	UID int `yaml:"uid"`
	GID int `yaml:"gid"`
}

// Config defines CAStore configuration.
type Config struct {
	// Root is the models directory, containing blobs/ and manifests/.
	Root string `yaml:"root"`

	// Owner, if set, is applied instead of the owner inferred from Root.
	Owner *OwnerConfig `yaml:"owner"`
}

func (c Config) applyDefaults() (Config, error) {
	if c.Root == "" {
		c.Root = "~/.ollama/models"
	}
	root, err := osutil.ExpandHome(c.Root)
	if err != nil {
		return c, err
	}
	c.Root = root
	return c, nil
}
