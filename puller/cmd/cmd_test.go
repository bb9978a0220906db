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
package cmd

import (
	"bytes"
	"errors"
	"io/ioutil"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"testing"
	"time"

	"github.com/c2h5oh/datasize"
	"github.com/go-chi/chi"
	"github.com/stretchr/testify/require"
	"github.com/uber-go/tally"
	"go.uber.org/zap"

	"github.com/uber/modelpull/core"
	"github.com/uber/modelpull/lib/cancellation"
	"github.com/uber/modelpull/lib/fetcher"
	"github.com/uber/modelpull/lib/manifest"
	"github.com/uber/modelpull/lib/progress"
	"github.com/uber/modelpull/lib/pullerrors"
	"github.com/uber/modelpull/lib/registry"
	"github.com/uber/modelpull/lib/store"
	"github.com/uber/modelpull/utils/configutil"
	"github.com/uber/modelpull/utils/testutil"
)

type testServer struct {
	manifest []byte
	blobs    map[string][]byte
	present  string
}

func newTestServer() *testServer {
	config := core.SizedBlobFixture(16)
	layer := core.SizedBlobFixture(64)
	return &testServer{
		manifest: manifest.Fixture(config, layer),
		blobs: map[string][]byte{
			config.Digest.BlobName(): config.Content,
			layer.Digest.BlobName():  layer.Content,
		},
		present: "llama3:8b",
	}
}

func (s *testServer) handler() http.Handler {
	r := chi.NewRouter()
	r.Get("/v2/library/{model}/manifests/{tag}", func(w http.ResponseWriter, r *http.Request) {
		w.Write(s.manifest)
	})
	r.Get("/v2/library/{model}/blobs/{name}", func(w http.ResponseWriter, r *http.Request) {
		b, ok := s.blobs[chi.URLParam(r, "name")]
		if !ok {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		w.Header().Set("Content-Length", strconv.Itoa(len(b)))
		w.Write(b)
	})
	r.Get("/api/tags", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"models":[{"name":"` + s.present + `"}]}`))
	})
	r.Get("/api/models/{user}/{repo}", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"siblings":[{"rfilename":"m-Q8_0.gguf"},{"rfilename":"m-Q4_K_M.gguf"}]}`))
	})
	r.Get("/library/", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`<a href="/library/qwen2">q</a><a href="/library/llama3">l</a>`))
	})
	return r
}

type testEnv struct {
	config Config
	out    *bytes.Buffer
	root   string
}

func newTestEnv(t *testing.T, addr string) (*testEnv, func()) {
	root, err := ioutil.TempDir("", "modelpull-cmd")
	require.NoError(t, err)
	require.NoError(t, os.Mkdir(filepath.Join(root, "blobs"), 0755))
	staging, err := ioutil.TempDir("", "modelpull-cmd-staging")
	require.NoError(t, err)

	base := "http://" + addr
	config := Config{
		Registry: registry.Config{
			RegistryBaseURL:   base + "/v2/library/",
			LibraryBaseURL:    base + "/library/",
			HuggingFaceAPIURL: base + "/api/",
			ServerURL:         base,
			Timeout:           5 * time.Second,
		},
		Store:   store.Config{Root: root},
		Fetcher: fetcher.Config{StagingDir: staging},
	}
	env := &testEnv{config: config, out: new(bytes.Buffer), root: root}
	return env, func() {
		os.RemoveAll(root)
		os.RemoveAll(staging)
	}
}

func (e *testEnv) run(args ...string) int {
	return Run(
		args,
		WithConfig(e.config),
		WithMetrics(tally.NoopScope),
		WithLogger(zap.NewNop()),
		WithOutput(e.out),
		WithProgressSink(progress.NopSink{}),
		WithCancellationOptions(cancellation.WithExitFunc(func(int) {})))
}

func (e *testEnv) blobCount(t *testing.T) int {
	infos, err := ioutil.ReadDir(filepath.Join(e.root, "blobs"))
	require.NoError(t, err)
	return len(infos)
}

func TestPullCommand(t *testing.T) {
	require := require.New(t)

	s := newTestServer()
	addr, stop := testutil.StartServer(s.handler())
	defer stop()
	env, cleanup := newTestEnv(t, addr)
	defer cleanup()

	require.Equal(exitOK, env.run("pull", "llama3:8b"))
	require.Contains(env.out.String(), "download completed successfully")
	require.Equal(2, env.blobCount(t))

	ref, err := registry.ParseLibraryReference("llama3:8b")
	require.NoError(err)
	_, err = os.Stat(filepath.Join(
		env.root, "manifests", addr, ref.Namespace, ref.Repository, ref.Tag))
	require.NoError(err)
}

func TestPullCommandExitCodes(t *testing.T) {
	tests := []struct {
		desc     string
		args     []string
		setup    func(*testServer)
		expected int
	}{
		{
			"missing blob",
			[]string{"pull", "llama3:8b"},
			func(s *testServer) { s.blobs = map[string][]byte{} },
			exitNetwork,
		}, {
			"malformed manifest",
			[]string{"pull", "llama3:8b"},
			func(s *testServer) { s.manifest = []byte("not json") },
			exitParse,
		}, {
			"corrupt blob",
			[]string{"pull", "llama3:8b"},
			func(s *testServer) {
				for name := range s.blobs {
					s.blobs[name] = []byte("corrupt")
				}
			},
			exitDigest,
		}, {
			"not visible to server",
			[]string{"pull", "llama3:8b"},
			func(s *testServer) { s.present = "other:latest" },
			exitPresenceCheck,
		}, {
			"invalid identifier",
			[]string{"pull", "a:b:c"},
			func(*testServer) {},
			exitOther,
		},
	}
	for _, test := range tests {
		t.Run(test.desc, func(t *testing.T) {
			s := newTestServer()
			test.setup(s)
			addr, stop := testutil.StartServer(s.handler())
			defer stop()
			env, cleanup := newTestEnv(t, addr)
			defer cleanup()

			require.Equal(t, test.expected, env.run(test.args...))
			require.Equal(t, 0, env.blobCount(t))
		})
	}
}

func TestListCommands(t *testing.T) {
	tests := []struct {
		args     []string
		expected string
	}{
		{[]string{"list-models"}, "Model identifiers (2):\nllama3\nqwen2\n"},
		{[]string{"list-models", "--page", "2", "--page-size", "1"}, "Model identifiers, page 2 (1):\nqwen2\n"},
		{[]string{"hf-list-tags", "bartowski/m-GGUF"}, "Model tags (2):\nbartowski/m-GGUF:Q4_K_M\nbartowski/m-GGUF:Q8_0\n"},
	}
	for _, test := range tests {
		t.Run(test.args[0], func(t *testing.T) {
			addr, stop := testutil.StartServer(newTestServer().handler())
			defer stop()
			env, cleanup := newTestEnv(t, addr)
			defer cleanup()

			require.Equal(t, exitOK, env.run(test.args...))
			require.Equal(t, test.expected, env.out.String())
		})
	}
}

func TestHFListModelsBeyondLimit(t *testing.T) {
	env, cleanup := newTestEnv(t, "127.0.0.1:1")
	defer cleanup()

	require.Equal(t, exitOther, env.run("hf-list-models", "--page", "10", "--page-size", "100"))
}

func TestShowConfig(t *testing.T) {
	env, cleanup := newTestEnv(t, "127.0.0.1:1")
	defer cleanup()

	require.Equal(t, exitOK, env.run("show-config"))
	require.Contains(t, env.out.String(), "registry_base_url: http://127.0.0.1:1/v2/library/")
}

func TestUnknownCommand(t *testing.T) {
	env, cleanup := newTestEnv(t, "127.0.0.1:1")
	defer cleanup()

	require.Equal(t, exitOther, env.run("push", "llama3"))
}

func TestSampleConfigs(t *testing.T) {
	require := require.New(t)

	var config Config
	require.NoError(configutil.Load("../../config/modelpull/development.yaml", &config))
	require.Equal("debug", config.ZapLogging.Level)
	require.Equal("log", config.Metrics.Backend)
	require.Equal("https://registry.ollama.ai/v2/library/", config.Registry.RegistryBaseURL)
	require.Equal(120*time.Second, config.Registry.Timeout)
	require.True(config.Fetcher.Bandwidth.Enable)
	require.Equal(50*datasize.MB, config.Fetcher.Bandwidth.IngressBytesPerSec)
	require.True(config.Puller.KeepOnError)
	require.Equal(10*time.Second, config.Cancellation.PromptTimeout)
}

func TestExitCode(t *testing.T) {
	tests := []struct {
		desc     string
		err      error
		expected int
	}{
		{"success", nil, 0},
		{"cancelled", pullerrors.ErrUserCancelled, 130},
		{"network", &pullerrors.NetworkError{URL: "u", Err: errors.New("refused")}, 2},
		{"parse", &pullerrors.ParseError{Err: errors.New("bad")}, 3},
		{"digest", &pullerrors.DigestMismatchError{}, 4},
		{"presence", &pullerrors.PresenceCheckError{Names: []string{"x"}}, 5},
		{"other", errors.New("disk full"), 1},
	}
	for _, test := range tests {
		t.Run(test.desc, func(t *testing.T) {
			require.Equal(t, test.expected, exitCode(test.err, nil))
		})
	}
}
