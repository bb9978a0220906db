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
package fetcher

import (
	"github.com/c2h5oh/datasize"

	"github.com/uber/modelpull/utils/bandwidth"
)

// Config defines Fetcher configuration.
type Config struct {
	// ChunkSize bounds each read from the response body. Cancellation is
	// checked between chunks.
	ChunkSize datasize.ByteSize `yaml:"chunk_size"`

	Bandwidth bandwidth.Config `yaml:"bandwidth"`

	// StagingDir holds in-flight downloads. Defaults to a directory under the
	// system temp dir.
	StagingDir string `yaml:"staging_dir"`
}

func (c Config) applyDefaults() Config {
	if c.ChunkSize == 0 {
		c.ChunkSize = 8 * datasize.KB
	}
	return c
}
