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
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/satori/go.uuid"
	"github.com/uber-go/tally"

	"github.com/uber/modelpull/core"
	"github.com/uber/modelpull/lib/pullerrors"
	"github.com/uber/modelpull/utils/log"
	"github.com/uber/modelpull/utils/osutil"
)

// CAStore commits verified blobs and manifests into a content-addressed
// models directory:
//
//   <root>/blobs/sha256-<hex>
//   <root>/manifests/<host>/<namespace>/<model>/<tag>
//
// Every path a commit creates is recorded in the caller's Ledger, so a failed
// session can remove exactly what it added.
type CAStore struct {
	root  string
	owner *Ownership
	stats tally.Scope
}

// NewCAStore creates a new CAStore.
func NewCAStore(config Config, stats tally.Scope) (*CAStore, error) {
	config, err := config.applyDefaults()
	if err != nil {
		return nil, fmt.Errorf("config: %s", err)
	}
	owner, err := InferOwnership(config.Root, config.Owner)
	if err != nil {
		return nil, fmt.Errorf("infer ownership: %s", err)
	}
	log.Debugf("Store at %s, ownership %s", config.Root, owner)

	stats = stats.Tagged(map[string]string{
		"module": "castore",
	})
	return &CAStore{config.Root, owner, stats}, nil
}

// Root returns the models directory.
func (s *CAStore) Root() string {
	return s.root
}

func (s *CAStore) blobsDir() string {
	return filepath.Join(s.root, "blobs")
}

// BlobPath returns the path a blob with digest d is committed to.
func (s *CAStore) BlobPath(d core.Digest) string {
	return filepath.Join(s.blobsDir(), d.BlobName())
}

// ManifestDir returns the manifests directory for the given path components,
// e.g. ("registry.ollama.ai", "library", "llama3").
func (s *CAStore) ManifestDir(components ...string) string {
	return filepath.Join(append([]string{s.root, "manifests"}, components...)...)
}

// SaveBlob commits a staged blob under its digest-derived name. If the staged
// content did not hash to expected, a DigestMismatchError is returned and the
// store is not touched; the staged file stays in ledger for rollback.
//
// The content is copied rather than renamed since staging may live on another
// filesystem. It first lands in a hidden partial file next to the target and
// is renamed into place once synced, so the target name never refers to
// unverified or incomplete content. A blob which already existed before the
// session is replaced but not tracked, as it may be referenced by other
// manifests.
func (s *CAStore) SaveBlob(staged *StagedBlob, expected core.Digest, ledger *Ledger) (string, error) {
	if staged.Computed.Hex() != expected.Hex() {
		return "", &pullerrors.DigestMismatchError{Expected: expected, Computed: staged.Computed}
	}

	blobs := s.blobsDir()
	info, err := os.Stat(blobs)
	if err != nil {
		return "", fmt.Errorf("blobs directory: %s", err)
	}
	if !info.IsDir() {
		return "", fmt.Errorf("blobs directory %s is not a directory", blobs)
	}

	target := s.BlobPath(expected)
	existed := exists(target)

	partial := partialPath(blobs, expected.BlobName())
	ledger.Add(partial)
	n, err := copyFile(staged.Path, partial)
	if err != nil {
		os.Remove(partial)
		ledger.Remove(partial)
		return "", fmt.Errorf("copy staged blob: %s", err)
	}
	if err := os.Rename(partial, target); err != nil {
		os.Remove(partial)
		ledger.Remove(partial)
		return "", fmt.Errorf("rename blob into place: %s", err)
	}
	ledger.Remove(partial)

	if existed {
		ledger.Remove(staged.Path)
	} else {
		ledger.Transfer(staged.Path, target)
	}
	if err := os.Remove(staged.Path); err != nil && !os.IsNotExist(err) {
		log.Warnf("Error removing staged blob %s: %s", staged.Path, err)
	}

	if s.owner.Apply(target, blobs) > 0 {
		s.stats.Counter("chown_failures").Inc(1)
	}

	s.stats.Counter("blobs_saved").Inc(1)
	s.stats.Counter("bytes_saved").Inc(n)
	return target, nil
}

// SaveManifest writes data to <manifestDir>/<tag>. manifestDir and any of its
// missing ancestors are created and tracked in ledger. The body becomes
// visible in one rename after it is fully written. Ownership is reconciled
// from the store root down to the new file.
func (s *CAStore) SaveManifest(data []byte, manifestDir, tag string, ledger *Ledger) (string, error) {
	if tag == "" || strings.ContainsRune(tag, filepath.Separator) || tag == "." || tag == ".." {
		return "", fmt.Errorf("invalid manifest tag %q", tag)
	}

	missing, err := osutil.MissingAncestors(manifestDir)
	if err != nil {
		return "", fmt.Errorf("manifest directory: %s", err)
	}
	for _, dir := range missing {
		ledger.Add(dir)
		if err := os.Mkdir(dir, 0755); err != nil {
			if os.IsExist(err) {
				ledger.Remove(dir)
				continue
			}
			return "", fmt.Errorf("mkdir: %s", err)
		}
	}

	target := filepath.Join(manifestDir, tag)
	existed := exists(target)

	partial := partialPath(manifestDir, tag)
	ledger.Add(partial)
	if err := writeFileSync(partial, data); err != nil {
		os.Remove(partial)
		ledger.Remove(partial)
		return "", fmt.Errorf("write manifest: %s", err)
	}
	if err := os.Rename(partial, target); err != nil {
		os.Remove(partial)
		ledger.Remove(partial)
		return "", fmt.Errorf("rename manifest into place: %s", err)
	}
	ledger.Remove(partial)
	if !existed {
		ledger.Add(target)
	}

	if s.owner.Apply(s.chain(target)...) > 0 {
		s.stats.Counter("chown_failures").Inc(1)
	}

	s.stats.Counter("manifests_saved").Inc(1)
	return target, nil
}

// chain returns the root and every path from it down to p. If p is not under
// the root, only p is returned.
func (s *CAStore) chain(p string) []string {
	rel, err := filepath.Rel(s.root, p)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return []string{p}
	}
	paths := []string{s.root}
	cur := s.root
	for _, part := range strings.Split(rel, string(filepath.Separator)) {
		cur = filepath.Join(cur, part)
		paths = append(paths, cur)
	}
	return paths
}

func partialPath(dir, name string) string {
	return filepath.Join(dir, fmt.Sprintf(".%s-%s.partial", name, uuid.NewV4()))
}

func exists(p string) bool {
	_, err := os.Lstat(p)
	return err == nil
}

func copyFile(src, dst string) (int64, error) {
	in, err := os.Open(src)
	if err != nil {
		return 0, err
	}
	defer in.Close()

	out, err := os.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0644)
	if err != nil {
		return 0, err
	}
	n, err := io.Copy(out, in)
	if err != nil {
		out.Close()
		return n, err
	}
	if err := out.Sync(); err != nil {
		out.Close()
		return n, err
	}
	return n, out.Close()
}

func writeFileSync(p string, data []byte) error {
	f, err := os.OpenFile(p, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0644)
	if err != nil {
		return err
	}
	if _, err := f.Write(data); err != nil {
		f.Close()
		return err
	}
	if err := f.Sync(); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
