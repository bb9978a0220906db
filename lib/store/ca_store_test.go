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
	"crypto/sha256"
	"encoding/hex"
	"io/ioutil"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/uber-go/tally"

	"github.com/uber/modelpull/core"
	"github.com/uber/modelpull/lib/pullerrors"
)

func listDir(t *testing.T, dir string) []string {
	entries, err := ioutil.ReadDir(dir)
	require.NoError(t, err)
	var names []string
	for _, e := range entries {
		names = append(names, e.Name())
	}
	return names
}

func TestSaveBlob(t *testing.T) {
	require := require.New(t)

	s, cleanup := CAStoreFixture()
	defer cleanup()
	area, cleanupArea := StagingAreaFixture()
	defer cleanupArea()

	blob := core.SizedBlobFixture(10000)
	l := NewLedger()
	staged := StagedBlobFixture(area, l, blob.Digest, blob.Content)

	p, err := s.SaveBlob(staged, blob.Digest, l)
	require.NoError(err)
	require.Equal(filepath.Join(s.Root(), "blobs", "sha256-"+blob.Digest.Hex()), p)

	content, err := ioutil.ReadFile(p)
	require.NoError(err)
	sum := sha256.Sum256(content)
	require.Equal(blob.Digest.Hex(), hex.EncodeToString(sum[:]))

	require.Equal([]string{p}, l.Paths())
	_, err = os.Stat(staged.Path)
	require.True(os.IsNotExist(err))
	require.Equal([]string{blob.Digest.BlobName()}, listDir(t, filepath.Join(s.Root(), "blobs")))
}

func TestSaveBlobDigestMismatch(t *testing.T) {
	require := require.New(t)

	s, cleanup := CAStoreFixture()
	defer cleanup()
	area, cleanupArea := StagingAreaFixture()
	defer cleanupArea()

	declared := core.DigestFixture()
	l := NewLedger()
	staged := StagedBlobFixture(area, l, declared, []byte("not what was declared"))

	_, err := s.SaveBlob(staged, declared, l)
	require.Error(err)
	require.Equal(pullerrors.KindDigestMismatch, pullerrors.KindOf(err))

	require.Empty(listDir(t, filepath.Join(s.Root(), "blobs")))
	require.True(l.Contains(staged.Path))

	require.NoError(l.Rollback())
	_, err = os.Stat(staged.Path)
	require.True(os.IsNotExist(err))
}

func TestSaveBlobMissingBlobsDir(t *testing.T) {
	require := require.New(t)

	s, cleanup := CAStoreFixture()
	defer cleanup()
	area, cleanupArea := StagingAreaFixture()
	defer cleanupArea()

	require.NoError(os.Remove(filepath.Join(s.Root(), "blobs")))
	require.NoError(ioutil.WriteFile(filepath.Join(s.Root(), "blobs"), nil, 0644))

	blob := core.NewBlobFixture()
	l := NewLedger()
	staged := StagedBlobFixture(area, l, blob.Digest, blob.Content)

	_, err := s.SaveBlob(staged, blob.Digest, l)
	require.Error(err)
	require.Equal(pullerrors.KindOther, pullerrors.KindOf(err))
}

func TestSaveBlobPreexistingNotTracked(t *testing.T) {
	require := require.New(t)

	s, cleanup := CAStoreFixture()
	defer cleanup()
	area, cleanupArea := StagingAreaFixture()
	defer cleanupArea()

	blob := core.NewBlobFixture()
	require.NoError(ioutil.WriteFile(s.BlobPath(blob.Digest), blob.Content, 0644))

	l := NewLedger()
	staged := StagedBlobFixture(area, l, blob.Digest, blob.Content)
	p, err := s.SaveBlob(staged, blob.Digest, l)
	require.NoError(err)
	require.Equal(0, l.Len())

	require.NoError(l.Rollback())
	_, err = os.Stat(p)
	require.NoError(err)
}

func TestSaveManifest(t *testing.T) {
	require := require.New(t)

	s, cleanup := CAStoreFixture()
	defer cleanup()

	data := []byte(`{"schemaVersion":2}` + "\n")
	dir := s.ManifestDir("registry.ollama.ai", "library", "llama3")
	l := NewLedger()

	p, err := s.SaveManifest(data, dir, "latest", l)
	require.NoError(err)
	require.Equal(filepath.Join(s.Root(), "manifests", "registry.ollama.ai", "library", "llama3", "latest"), p)

	content, err := ioutil.ReadFile(p)
	require.NoError(err)
	require.Equal(data, content)

	require.Equal([]string{"latest"}, listDir(t, dir))

	manifests := filepath.Join(s.Root(), "manifests")
	require.ElementsMatch([]string{
		manifests,
		filepath.Join(manifests, "registry.ollama.ai"),
		filepath.Join(manifests, "registry.ollama.ai", "library"),
		dir,
		p,
	}, l.Paths())

	require.NoError(l.Rollback())
	_, err = os.Stat(manifests)
	require.True(os.IsNotExist(err))
	require.Equal([]string{"blobs"}, listDir(t, s.Root()))
}

func TestSaveManifestPartialAncestors(t *testing.T) {
	require := require.New(t)

	s, cleanup := CAStoreFixture()
	defer cleanup()

	existing := s.ManifestDir("registry.ollama.ai", "library")
	require.NoError(os.MkdirAll(existing, 0755))

	dir := s.ManifestDir("registry.ollama.ai", "library", "phi3")
	l := NewLedger()
	p, err := s.SaveManifest([]byte("{}"), dir, "mini", l)
	require.NoError(err)
	require.ElementsMatch([]string{dir, p}, l.Paths())
}

func TestSaveManifestReplacesPreexisting(t *testing.T) {
	require := require.New(t)

	s, cleanup := CAStoreFixture()
	defer cleanup()

	dir := s.ManifestDir("hf.co", "user", "repo")
	require.NoError(os.MkdirAll(dir, 0755))
	require.NoError(ioutil.WriteFile(filepath.Join(dir, "Q4_K_M"), []byte("old"), 0644))

	l := NewLedger()
	p, err := s.SaveManifest([]byte("new"), dir, "Q4_K_M", l)
	require.NoError(err)
	require.Equal(0, l.Len())

	content, err := ioutil.ReadFile(p)
	require.NoError(err)
	require.Equal("new", string(content))
}

func TestSaveManifestInvalidTag(t *testing.T) {
	s, cleanup := CAStoreFixture()
	defer cleanup()

	_, err := s.SaveManifest([]byte("{}"), s.ManifestDir("h", "m"), "a/b", NewLedger())
	require.Error(t, err)
}

func TestOwnershipOverrideApplied(t *testing.T) {
	require := require.New(t)

	root := t.TempDir()
	require.NoError(os.Mkdir(filepath.Join(root, "blobs"), 0755))

	// Chowning to one's own ids is always permitted.
	uid, gid := os.Getuid(), os.Getgid()
	s, err := NewCAStore(Config{Root: root, Owner: &OwnerConfig{UID: uid, GID: gid}}, tally.NoopScope)
	require.NoError(err)
	require.Equal(&Ownership{UID: uid, GID: gid}, s.owner)

	l := NewLedger()
	_, err = s.SaveManifest([]byte("{}"), s.ManifestDir("h", "library", "m"), "latest", l)
	require.NoError(err)
}

func TestInferOwnership(t *testing.T) {
	require := require.New(t)

	defer func(f func() int) { geteuid = f }(geteuid)

	root := t.TempDir()

	geteuid = func() int { return 1000 }
	o, err := InferOwnership(root, nil)
	require.NoError(err)
	require.Nil(o)

	geteuid = func() int { return 0 }
	o, err = InferOwnership(root, nil)
	require.NoError(err)
	require.NotNil(o)
	require.Equal(os.Getuid(), o.UID)

	o, err = InferOwnership(filepath.Join(root, "missing"), nil)
	require.NoError(err)
	require.Nil(o)

	o, err = InferOwnership(root, &OwnerConfig{UID: 7, GID: 8})
	require.NoError(err)
	require.Equal(&Ownership{UID: 7, GID: 8}, o)

	var nilOwner *Ownership
	require.Equal(0, nilOwner.Apply(root))
}

func TestSaveRefusedChownKeepsCommit(t *testing.T) {
	require := require.New(t)

	defer func(f func(string, int, int) error) { chown = f }(chown)
	chown = func(string, int, int) error { return os.ErrPermission }

	root := t.TempDir()
	require.NoError(os.Mkdir(filepath.Join(root, "blobs"), 0755))
	stats := tally.NewTestScope("", nil)
	s, err := NewCAStore(Config{Root: root, Owner: &OwnerConfig{UID: 7, GID: 8}}, stats)
	require.NoError(err)

	area, cleanupArea := StagingAreaFixture()
	defer cleanupArea()

	blob := core.SizedBlobFixture(100)
	l := NewLedger()
	staged := StagedBlobFixture(area, l, blob.Digest, blob.Content)

	p, err := s.SaveBlob(staged, blob.Digest, l)
	require.NoError(err)
	require.Equal([]string{p}, l.Paths())

	m, err := s.SaveManifest([]byte("{}"), s.ManifestDir("h", "library", "m"), "latest", l)
	require.NoError(err)
	require.True(l.Contains(m))

	require.Equal(int64(2), stats.Snapshot().Counters()["chown_failures+module=castore"].Value())
}
