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
	"sort"
	"strings"
	"sync"

	"github.com/uber/modelpull/utils/errutil"
	"github.com/uber/modelpull/utils/log"
	"github.com/uber/modelpull/utils/osutil"
)

// Ledger tracks the paths one pull session has created but not yet made
// permanent. A Ledger belongs to exactly one session.
type Ledger struct {
	sync.Mutex
	paths map[string]struct{}
}

// NewLedger returns an empty Ledger.
func NewLedger() *Ledger {
	return &Ledger{paths: make(map[string]struct{})}
}

// Add records p as a side effect of the session.
func (l *Ledger) Add(p string) {
	l.Lock()
	defer l.Unlock()
	l.paths[filepath.Clean(p)] = struct{}{}
}

// Remove stops tracking p. The path itself is left untouched.
func (l *Ledger) Remove(p string) {
	l.Lock()
	defer l.Unlock()
	delete(l.paths, filepath.Clean(p))
}

// Transfer hands cleanup responsibility from one path to another, e.g. from
// a staged temp file to the committed blob it was copied into.
func (l *Ledger) Transfer(from, to string) {
	l.Lock()
	defer l.Unlock()
	delete(l.paths, filepath.Clean(from))
	l.paths[filepath.Clean(to)] = struct{}{}
}

// Contains returns true if p is tracked.
func (l *Ledger) Contains(p string) bool {
	l.Lock()
	defer l.Unlock()
	_, ok := l.paths[filepath.Clean(p)]
	return ok
}

// Paths returns the tracked paths in sorted order.
func (l *Ledger) Paths() []string {
	l.Lock()
	defer l.Unlock()
	paths := make([]string, 0, len(l.paths))
	for p := range l.paths {
		paths = append(paths, p)
	}
	sort.Strings(paths)
	return paths
}

// Len returns the number of tracked paths.
func (l *Ledger) Len() int {
	l.Lock()
	defer l.Unlock()
	return len(l.paths)
}

// Clear forgets every tracked path, making the session's effects permanent.
func (l *Ledger) Clear() {
	l.Lock()
	defer l.Unlock()
	l.paths = make(map[string]struct{})
}

// Rollback removes every tracked path. Files go first, then directories from
// the deepest up, so directories emptied by the pass can be removed as well.
// A directory which still has foreign content is left in place with a
// warning. Paths which no longer exist are skipped, which makes Rollback
// idempotent. Paths which fail to delete stay tracked and their errors are
// returned together once the pass is over.
func (l *Ledger) Rollback() error {
	l.Lock()
	defer l.Unlock()

	var files, dirs []string
	for p := range l.paths {
		info, err := os.Lstat(p)
		if os.IsNotExist(err) {
			delete(l.paths, p)
			continue
		}
		if err == nil && info.IsDir() {
			dirs = append(dirs, p)
		} else {
			files = append(files, p)
		}
	}
	sort.Strings(files)
	sort.Slice(dirs, func(i, j int) bool {
		di, dj := depth(dirs[i]), depth(dirs[j])
		if di != dj {
			return di > dj
		}
		return dirs[i] > dirs[j]
	})

	var errs []error
	for _, p := range files {
		if err := os.Remove(p); err != nil && !os.IsNotExist(err) {
			errs = append(errs, fmt.Errorf("remove %s: %s", p, err))
			continue
		}
		log.Debugf("Rollback removed file %s", p)
		delete(l.paths, p)
	}
	for _, p := range dirs {
		empty, err := osutil.IsEmpty(p)
		if err == nil && !empty {
			log.Warnf("Rollback left non-empty directory %s in place", p)
			delete(l.paths, p)
			continue
		}
		if err := os.Remove(p); err != nil && !os.IsNotExist(err) {
			errs = append(errs, fmt.Errorf("remove dir %s: %s", p, err))
			continue
		}
		log.Debugf("Rollback removed directory %s", p)
		delete(l.paths, p)
	}
	return errutil.Join(errs)
}

func depth(p string) int {
	return strings.Count(p, string(filepath.Separator))
}
