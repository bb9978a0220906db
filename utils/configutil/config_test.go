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
package configutil

import (
	"errors"
	"io/ioutil"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"gopkg.in/validator.v2"
)

type testConfig struct {
	ServerURL string   `yaml:"server_url" validate:"nonzero"`
	ChunkSize int      `yaml:"chunk_size" validate:"min=512"`
	Mirrors   []string `yaml:"mirrors"`
	Log       struct {
		Level string `yaml:"level"`
	} `yaml:"log"`
}

func writeConfig(t *testing.T, dir, name, contents string) string {
	p := filepath.Join(dir, name)
	require.NoError(t, ioutil.WriteFile(p, []byte(contents), 0644))
	return p
}

func TestLoadSingleFile(t *testing.T) {
	require := require.New(t)

	dir := t.TempDir()
	p := writeConfig(t, dir, "base.yaml", `
server_url: http://localhost:11434/
chunk_size: 8192
mirrors:
  - a
  - b
`)

	var c testConfig
	require.NoError(Load(p, &c))
	require.Equal("http://localhost:11434/", c.ServerURL)
	require.Equal(8192, c.ChunkSize)
	require.Equal([]string{"a", "b"}, c.Mirrors)
}

func TestLoadExtendsOverridesBase(t *testing.T) {
	require := require.New(t)

	dir := t.TempDir()
	writeConfig(t, dir, "base.yaml", `
server_url: http://localhost:11434/
chunk_size: 8192
log:
  level: info
`)
	p := writeConfig(t, dir, "development.yaml", `
extends: base.yaml
log:
  level: debug
`)

	var c testConfig
	require.NoError(Load(p, &c))
	require.Equal("http://localhost:11434/", c.ServerURL)
	require.Equal(8192, c.ChunkSize)
	require.Equal("debug", c.Log.Level)
}

func TestLoadValidatesMergedResultOnly(t *testing.T) {
	require := require.New(t)

	dir := t.TempDir()
	base := writeConfig(t, dir, "base.yaml", "chunk_size: 1024\n")
	p := writeConfig(t, dir, "top.yaml", "extends: base.yaml\nserver_url: http://x/\n")

	var invalid testConfig
	err := Load(base, &invalid)
	require.Error(err)
	verr, ok := err.(ValidationError)
	require.True(ok)
	require.Equal(validator.ErrorArray{validator.ErrZeroValue}, verr.ErrForField("ServerURL"))

	var merged testConfig
	require.NoError(Load(p, &merged))
	require.Equal(1024, merged.ChunkSize)
}

func TestLoadCycle(t *testing.T) {
	dir := t.TempDir()
	writeConfig(t, dir, "a.yaml", "extends: b.yaml\n")
	p := writeConfig(t, dir, "b.yaml", "extends: a.yaml\n")

	var c testConfig
	require.Equal(t, ErrCycleRef, Load(p, &c))
}

func TestExtendsChainOrder(t *testing.T) {
	require := require.New(t)

	parents := map[string]string{
		"/etc/c.yaml": "b.yaml",
		"/etc/b.yaml": "/opt/a.yaml",
		"/opt/a.yaml": "",
	}
	chain, err := extendsChain("/etc/c.yaml", func(f string) (string, error) {
		p, ok := parents[f]
		if !ok {
			return "", errors.New("missing")
		}
		return p, nil
	})
	require.NoError(err)
	require.Equal([]string{"/opt/a.yaml", "/etc/b.yaml", "/etc/c.yaml"}, chain)
}

func TestLoadMissingFile(t *testing.T) {
	var c testConfig
	require.Error(t, Load(filepath.Join(t.TempDir(), "nope.yaml"), &c))
}
