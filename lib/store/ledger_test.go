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
	"testing"

	"github.com/stretchr/testify/require"
)

func writeTestFile(t *testing.T, p string) {
	require.NoError(t, ioutil.WriteFile(p, []byte("x"), 0644))
}

func TestLedgerAddRemoveTransfer(t *testing.T) {
	require := require.New(t)

	l := NewLedger()
	l.Add("/a/b")
	l.Add("/a/c/")
	require.True(l.Contains("/a/b"))
	require.True(l.Contains("/a/c"))
	require.Equal(2, l.Len())

	l.Transfer("/a/b", "/a/d")
	require.False(l.Contains("/a/b"))
	require.True(l.Contains("/a/d"))
	require.Equal([]string{"/a/c", "/a/d"}, l.Paths())

	l.Remove("/a/c")
	require.Equal([]string{"/a/d"}, l.Paths())

	l.Clear()
	require.Equal(0, l.Len())
}

func TestLedgerRollbackRemovesFilesThenDirsDeepestFirst(t *testing.T) {
	require := require.New(t)

	root := t.TempDir()
	outer := filepath.Join(root, "outer")
	inner := filepath.Join(outer, "inner")
	require.NoError(os.MkdirAll(inner, 0755))
	f1 := filepath.Join(inner, "f1")
	f2 := filepath.Join(root, "f2")
	writeTestFile(t, f1)
	writeTestFile(t, f2)

	l := NewLedger()
	// Insertion order deliberately shallow-first.
	for _, p := range []string{outer, inner, f1, f2} {
		l.Add(p)
	}
	require.NoError(l.Rollback())
	require.Equal(0, l.Len())

	for _, p := range []string{outer, inner, f1, f2} {
		_, err := os.Stat(p)
		require.True(os.IsNotExist(err), p)
	}
	_, err := os.Stat(root)
	require.NoError(err)
}

func TestLedgerRollbackKeepsNonEmptyDir(t *testing.T) {
	require := require.New(t)

	root := t.TempDir()
	dir := filepath.Join(root, "shared")
	require.NoError(os.Mkdir(dir, 0755))
	foreign := filepath.Join(dir, "foreign")
	writeTestFile(t, foreign)

	l := NewLedger()
	l.Add(dir)
	require.NoError(l.Rollback())

	_, err := os.Stat(foreign)
	require.NoError(err)
	require.Equal(0, l.Len())
}

func TestLedgerRollbackIdempotent(t *testing.T) {
	require := require.New(t)

	root := t.TempDir()
	f := filepath.Join(root, "f")
	writeTestFile(t, f)

	l := NewLedger()
	l.Add(f)
	l.Add(filepath.Join(root, "never-created"))
	require.NoError(l.Rollback())

	l.Add(f)
	require.NoError(l.Rollback())

	entries, err := ioutil.ReadDir(root)
	require.NoError(err)
	require.Empty(entries)
}

func TestStagingAreaCreateTracksBeforeWrite(t *testing.T) {
	require := require.New(t)

	area, cleanup := StagingAreaFixture()
	defer cleanup()

	l := NewLedger()
	f, err := area.Create(l)
	require.NoError(err)
	defer f.Close()

	require.True(l.Contains(f.Name()))
	require.Equal(area.Dir(), filepath.Dir(f.Name()))

	g, err := area.Create(l)
	require.NoError(err)
	defer g.Close()
	require.NotEqual(f.Name(), g.Name())
	require.Equal(2, l.Len())

	require.NoError(area.Discard(g.Name(), l))
	require.False(l.Contains(g.Name()))
	_, err = os.Stat(g.Name())
	require.True(os.IsNotExist(err))
}

func TestStagingAreaCreateFailureUntracks(t *testing.T) {
	require := require.New(t)

	area, cleanup := StagingAreaFixture()
	require.NoError(os.RemoveAll(area.Dir()))
	defer cleanup()

	l := NewLedger()
	_, err := area.Create(l)
	require.Error(err)
	require.Equal(0, l.Len())
}
