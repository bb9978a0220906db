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
package registry

import (
	"context"
	"fmt"
	"net/http"
	"testing"

	"github.com/go-chi/chi"
	"github.com/stretchr/testify/require"

	"github.com/uber/modelpull/utils/testutil"
)

func catalogServer(t *testing.T) (string, func()) {
	var addr string
	pages := map[string]string{
		"1": `[{"modelId":"b/Zeta-GGUF"},{"modelId":"a/alpha-GGUF"}]`,
		"2": `[{"modelId":"c/Beta-GGUF"},{"modelId":"d/gamma-GGUF"}]`,
	}
	link := func(w http.ResponseWriter, cursor string) {
		if cursor == "1" {
			w.Header().Set("Link",
				fmt.Sprintf(`<http://%s/api/models?cursor=2>; rel="next", <http://x>; rel="prev"`, addr))
		}
	}
	cursorOf := func(r *http.Request) string {
		if c := r.URL.Query().Get("cursor"); c != "" {
			return c
		}
		require.Equal(t, "ollama", r.URL.Query().Get("apps"))
		require.Equal(t, "false", r.URL.Query().Get("gated"))
		require.Equal(t, "trendingScore", r.URL.Query().Get("sort"))
		return "1"
	}

	r := chi.NewRouter()
	r.Head("/api/models", func(w http.ResponseWriter, r *http.Request) {
		link(w, cursorOf(r))
	})
	r.Get("/api/models", func(w http.ResponseWriter, r *http.Request) {
		cursor := cursorOf(r)
		link(w, cursor)
		w.Write([]byte(pages[cursor]))
	})
	r.Get("/api/models/{user}/{repo}", func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "true", r.URL.Query().Get("blobs"))
		if chi.URLParam(r, "repo") == "empty" {
			w.Write([]byte(`{"siblings":[{"rfilename":"README.md"}]}`))
			return
		}
		w.Write([]byte(`{"siblings":[
			{"rfilename":"README.md"},
			{"rfilename":"model-Q8_0.gguf"},
			{"rfilename":"model-IQ2_M.gguf"},
			{"rfilename":"model-q4_k_m.gguf"}
		]}`))
	})
	a, stop := testutil.StartServer(r)
	addr = a
	return addr, stop
}

func TestListModelsFirstPage(t *testing.T) {
	addr, stop := catalogServer(t)
	defer stop()

	models, err := newTestClient(addr).ListModels(context.Background(), 0, 0)
	require.NoError(t, err)
	require.Equal(t, []string{"a/alpha-GGUF", "b/Zeta-GGUF"}, models)
}

func TestListModelsFollowsLinks(t *testing.T) {
	addr, stop := catalogServer(t)
	defer stop()

	models, err := newTestClient(addr).ListModels(context.Background(), 2, 2)
	require.NoError(t, err)
	require.Equal(t, []string{"c/Beta-GGUF", "d/gamma-GGUF"}, models)
}

func TestListModelsBeyondData(t *testing.T) {
	addr, stop := catalogServer(t)
	defer stop()

	_, err := newTestClient(addr).ListModels(context.Background(), 3, 2)
	require.Error(t, err)
}

func TestListModelsCatalogLimit(t *testing.T) {
	require := require.New(t)

	c := NewClient(Config{})
	_, err := c.ListModels(context.Background(), 9, 100)
	require.Error(err)
	limitErr, ok := err.(CatalogLimitError)
	require.True(ok)
	require.Equal(1, limitErr.Excess())

	// The page size is capped before the limit is checked.
	_, err = c.ListModels(context.Background(), 9, 500)
	_, ok = err.(CatalogLimitError)
	require.True(ok)
}

func TestListTags(t *testing.T) {
	addr, stop := catalogServer(t)
	defer stop()

	c := newTestClient(addr)
	tags, err := c.ListTags(context.Background(), "user/repo")
	require.NoError(t, err)
	require.Equal(t, []string{"user/repo:IQ2_M", "user/repo:q4_k_m", "user/repo:Q8_0"}, tags)

	_, err = c.ListTags(context.Background(), "user/empty")
	require.Error(t, err)
}

func TestNextLink(t *testing.T) {
	require.Equal(t, "https://h/next", nextLink(`<https://h/prev>; rel="prev", <https://h/next>; rel="next"`))
	require.Equal(t, "", nextLink(`<https://h/prev>; rel="prev"`))
	require.Equal(t, "", nextLink(""))
}
