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
	"io"
	"strings"

	"golang.org/x/net/html"

	"github.com/uber/modelpull/utils/log"
)

const _libraryPrefix = "/library/"

// ListLibraryModels returns the models of the Ollama library index, sorted
// case-insensitively. If page and pageSize are both positive only that page,
// starting at 1, is returned; a page past the end yields every model.
func (c *Client) ListLibraryModels(ctx context.Context, page, pageSize int) ([]string, error) {
	models, err := c.libraryModels(ctx)
	if err != nil {
		return nil, err
	}
	if page <= 0 || pageSize <= 0 {
		return models, nil
	}
	start := (page - 1) * pageSize
	if start >= len(models) {
		log.Warnf("No models found for page %d with page size %d, returning all models", page, pageSize)
		return models, nil
	}
	end := start + pageSize
	if end > len(models) {
		end = len(models)
	}
	return models[start:end], nil
}

// ListLibraryTags returns "<model>:<tag>" for every tag of a library model.
func (c *Client) ListLibraryTags(ctx context.Context, model string) ([]string, error) {
	models, err := c.libraryModels(ctx)
	if err != nil {
		return nil, err
	}
	found := false
	for _, m := range models {
		if m == model {
			found = true
			break
		}
	}
	if !found {
		return nil, fmt.Errorf("model %s not found in the library models list", model)
	}

	url := withSlash(c.config.LibraryBaseURL) + model + "/tags"
	links, err := c.libraryLinks(ctx, url)
	if err != nil {
		return nil, err
	}
	prefix := _libraryPrefix + model + ":"
	seen := make(map[string]bool)
	var tags []string
	for _, href := range links {
		if !strings.HasPrefix(href, prefix) {
			continue
		}
		tag := strings.TrimPrefix(href, _libraryPrefix)
		if !seen[tag] {
			seen[tag] = true
			tags = append(tags, tag)
		}
	}
	sortFold(tags)
	return tags, nil
}

func (c *Client) libraryModels(ctx context.Context) ([]string, error) {
	links, err := c.libraryLinks(ctx, c.config.LibraryBaseURL)
	if err != nil {
		return nil, err
	}
	seen := make(map[string]bool)
	var models []string
	for _, href := range links {
		if !strings.HasPrefix(href, _libraryPrefix) {
			continue
		}
		name := strings.TrimPrefix(href, _libraryPrefix)
		if name == "" || strings.HasSuffix(name, "/") || seen[name] {
			continue
		}
		seen[name] = true
		models = append(models, name)
	}
	log.Debugf("Found %d models in the library", len(models))
	sortFold(models)
	return models, nil
}

// libraryLinks returns the href of every anchor in the page at url.
func (c *Client) libraryLinks(ctx context.Context, url string) ([]string, error) {
	resp, err := c.get(ctx, url, nil)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	links, err := anchors(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %s", url, err)
	}
	return links, nil
}

func anchors(r io.Reader) ([]string, error) {
	var links []string
	z := html.NewTokenizer(r)
	for {
		switch z.Next() {
		case html.ErrorToken:
			if z.Err() == io.EOF {
				return links, nil
			}
			return nil, z.Err()
		case html.StartTagToken, html.SelfClosingTagToken:
			name, hasAttr := z.TagName()
			if string(name) != "a" {
				continue
			}
			for hasAttr {
				var key, val []byte
				key, val, hasAttr = z.TagAttr()
				if string(key) == "href" {
					links = append(links, string(val))
				}
			}
		}
	}
}
