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
	"fmt"
	"os"
	"path/filepath"

	"github.com/satori/go.uuid"

	"github.com/uber/modelpull/core"
)

// StagedBlob is a fully downloaded blob waiting in the staging area. It is
// owned by the fetch which produced it until it is committed or discarded.
type StagedBlob struct {
	Path     string
	Named    core.Digest
	Computed core.Digest
	Size     int64
}

// Verified returns true if the content hashed to the declared digest.
func (b *StagedBlob) Verified() bool {
	return b.Named.Hex() == b.Computed.Hex()
}

// StagingArea creates the temp files in-flight downloads are written to.
type StagingArea struct {
	dir string
}

// NewStagingArea creates dir if needed and returns a StagingArea in it.
func NewStagingArea(dir string) (*StagingArea, error) {
	if dir == "" {
		dir = DefaultStagingDir()
	}
	if err := os.MkdirAll(dir, 0775); err != nil {
		return nil, fmt.Errorf("mkdir: %s", err)
	}
	return &StagingArea{dir}, nil
}

// DefaultStagingDir returns the staging directory used when none is
// configured.
func DefaultStagingDir() string {
	return filepath.Join(os.TempDir(), "modelpull")
}

// Dir returns the staging directory.
func (s *StagingArea) Dir() string {
	return s.dir
}

// Create opens a new uniquely named temp file for writing. The path is
// recorded in ledger before the file exists on disk.
func (s *StagingArea) Create(ledger *Ledger) (*os.File, error) {
	p := filepath.Join(s.dir, fmt.Sprintf("blob-%s.partial", uuid.NewV4()))
	ledger.Add(p)
	f, err := os.OpenFile(p, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0644)
	if err != nil {
		ledger.Remove(p)
		return nil, fmt.Errorf("create staging file: %s", err)
	}
	return f, nil
}

// Discard deletes a staged file and stops tracking it.
func (s *StagingArea) Discard(p string, ledger *Ledger) error {
	if err := os.Remove(p); err != nil && !os.IsNotExist(err) {
		return err
	}
	ledger.Remove(p)
	return nil
}
