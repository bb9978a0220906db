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
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/uber/modelpull/utils/log"
)

const (
	_defaultPageSize = 25
	_maxPageSize     = 100

	// The Hugging Face API refuses to page past this many results.
	_catalogLimit = 999
)

// CatalogLimitError is returned when a listing page reaches past the results
// the Hugging Face API is willing to serve.
type CatalogLimitError struct {
	Page     int
	PageSize int
}

// Excess returns how many requested models lie beyond the limit.
func (e CatalogLimitError) Excess() int {
	return (e.Page+1)*e.PageSize - _catalogLimit
}

func (e CatalogLimitError) Error() string {
	return fmt.Sprintf(
		"Hugging Face does not allow obtaining information beyond the first %d models: "+
			"page %d with page size %d exceeds this limit by %d model(s)",
		_catalogLimit, e.Page, e.PageSize, e.Excess())
}

// ListModels returns the Ollama compatible Hugging Face models on the given
// page, starting at 1, sorted case-insensitively within the page. Pages are
// reached by following the API's Link headers.
func (c *Client) ListModels(ctx context.Context, page, pageSize int) ([]string, error) {
	if page <= 0 {
		page = 1
	}
	if pageSize <= 0 {
		pageSize = _defaultPageSize
	}
	if pageSize > _maxPageSize {
		pageSize = _maxPageSize
	}
	if pageSize*(page+1) >= _catalogLimit+1 {
		return nil, CatalogLimitError{page, pageSize}
	}

	next := fmt.Sprintf(
		"%smodels?apps=ollama&gated=false&limit=%d&sort=trendingScore",
		withSlash(c.config.HuggingFaceAPIURL), pageSize)
	for current := 1; current < page; current++ {
		resp, err := c.head(ctx, next)
		if err != nil {
			return nil, err
		}
		next = nextLink(resp.Header.Get("Link"))
		if next == "" {
			return nil, fmt.Errorf("requested page %d is beyond available data", page)
		}
	}
	if page > 1 {
		log.Infof("Requesting page %d from %s", page, next)
	}

	resp, err := c.get(ctx, next, nil)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var models []struct {
		ModelID string `json:"modelId"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&models); err != nil {
		return nil, fmt.Errorf("decode models: %s", err)
	}
	ids := make([]string, len(models))
	for i, m := range models {
		ids[i] = m.ModelID
	}
	sortFold(ids)
	return ids, nil
}

// ListTags returns "<repo>:<quantization>" for every GGUF file of repo.
func (c *Client) ListTags(ctx context.Context, repo string) ([]string, error) {
	url := fmt.Sprintf("%smodels/%s?blobs=true", withSlash(c.config.HuggingFaceAPIURL), repo)
	resp, err := c.get(ctx, url, nil)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var info struct {
		Siblings []struct {
			RFilename string `json:"rfilename"`
		} `json:"siblings"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&info); err != nil {
		return nil, fmt.Errorf("decode model info: %s", err)
	}

	var tags []string
	for _, s := range info.Siblings {
		if !strings.HasSuffix(s.RFilename, ".gguf") {
			continue
		}
		base := strings.TrimSuffix(s.RFilename, ".gguf")
		quant := base[strings.LastIndex(base, "-")+1:]
		tags = append(tags, repo+":"+quant)
	}
	if len(tags) == 0 {
		return nil, fmt.Errorf("model %s has no Ollama support (no .gguf files found)", repo)
	}
	sortFold(tags)
	return tags, nil
}

// nextLink extracts the rel="next" target from a Link header.
func nextLink(header string) string {
	for _, part := range strings.Split(header, ",") {
		if !strings.Contains(part, `rel="next"`) {
			continue
		}
		target := strings.TrimSpace(strings.SplitN(part, ";", 2)[0])
		return strings.TrimSuffix(strings.TrimPrefix(target, "<"), ">")
	}
	return ""
}

func sortFold(s []string) {
	sort.SliceStable(s, func(i, j int) bool {
		return strings.ToLower(s[i]) < strings.ToLower(s[j])
	})
}
