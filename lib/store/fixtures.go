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
	"io/ioutil"
	"os"
	"path/filepath"

	"github.com/uber-go/tally"

	"github.com/uber/modelpull/core"
)

// CAStoreFixture returns a CAStore rooted in a new temp directory which
// already contains blobs/, plus a cleanup function.
func CAStoreFixture() (*CAStore, func()) {
	root, err := ioutil.TempDir("", "modelpull-store")
	if err != nil {
		panic(err)
	}
	if err := os.Mkdir(filepath.Join(root, "blobs"), 0755); err != nil {
		panic(err)
	}
	s, err := NewCAStore(Config{Root: root}, tally.NoopScope)
	if err != nil {
		panic(err)
	}
	return s, func() { os.RemoveAll(root) }
}

// StagingAreaFixture returns a StagingArea in a new temp directory, plus a
// cleanup function.
func StagingAreaFixture() (*StagingArea, func()) {
	dir, err := ioutil.TempDir("", "modelpull-staging")
	if err != nil {
		panic(err)
	}
	s, err := NewStagingArea(dir)
	if err != nil {
		panic(err)
	}
	return s, func() { os.RemoveAll(dir) }
}

// StagedBlobFixture stages content as if it had been downloaded for named.
func StagedBlobFixture(area *StagingArea, ledger *Ledger, named core.Digest, content []byte) *StagedBlob {
	f, err := area.Create(ledger)
	if err != nil {
		panic(err)
	}
	defer f.Close()
	if _, err := f.Write(content); err != nil {
		panic(err)
	}
	return &StagedBlob{
		Path:     f.Name(),
		Named:    named,
		Computed: core.DigestBytes(content),
		Size:     int64(len(content)),
	}
}
