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
	"io/ioutil"
	"net/http"
	"strings"
	"time"

	"github.com/cenkalti/backoff"

	"github.com/uber/modelpull/lib/manifest"
	"github.com/uber/modelpull/lib/pullerrors"
	"github.com/uber/modelpull/utils/httputil"
	"github.com/uber/modelpull/utils/log"
)

// Client talks to model registries and the local model server.
type Client struct {
	config Config
	http   *http.Client
}

// NewClient creates a new Client.
func NewClient(config Config) *Client {
	config = config.applyDefaults()
	return &Client{
		config: config,
		http: httputil.NewClient(httputil.ClientConfig{
			Timeout:            config.Timeout,
			InsecureSkipVerify: config.InsecureSkipVerify,
			UserAgent:          config.UserAgent,
		}),
	}
}

// HTTPClient returns the underlying http.Client, for streaming blobs.
func (c *Client) HTTPClient() *http.Client {
	return c.http
}

// Library returns the Ollama library Source.
func (c *Client) Library() *LibrarySource {
	return NewLibrarySource(c.config.RegistryBaseURL)
}

// HuggingFace returns the Hugging Face Source.
func (c *Client) HuggingFace() *HuggingFaceSource {
	return NewHuggingFaceSource(c.config.HuggingFaceBaseURL)
}

// FetchManifest downloads the raw manifest at url.
func (c *Client) FetchManifest(ctx context.Context, url string) ([]byte, error) {
	log.Debugf("Fetching manifest %s", url)
	resp, err := c.get(ctx, url, map[string]string{
		"Accept": strings.Join(manifest.AcceptedMediaTypes, ", "),
	})
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	b, err := ioutil.ReadAll(resp.Body)
	if err != nil {
		return nil, &pullerrors.NetworkError{URL: url, Err: err}
	}
	return b, nil
}

// IsPresent asks the local model server whether it lists any of names.
func (c *Client) IsPresent(ctx context.Context, names []string) (bool, error) {
	url := strings.TrimRight(c.config.ServerURL, "/") + "/api/tags"
	log.Debugf("Checking %s for model(s) %v", url, names)

	resp, err := c.get(ctx, url, nil)
	if err != nil {
		return false, err
	}
	defer resp.Body.Close()

	var tags struct {
		Models *[]struct {
			Name string `json:"name"`
		} `json:"models"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&tags); err != nil {
		return false, fmt.Errorf("decode tags response: %s", err)
	}
	if tags.Models == nil {
		return false, fmt.Errorf("tags response from %s has no models list", url)
	}
	for _, m := range *tags.Models {
		for _, n := range names {
			if m.Name == n {
				log.Debugf("Model %s found on server", m.Name)
				return true, nil
			}
		}
	}
	return false, nil
}

// get sends a GET bounded by the configured timeout, including the body.
func (c *Client) get(ctx context.Context, url string, headers map[string]string) (*http.Response, error) {
	resp, err := httputil.Get(
		url,
		httputil.SendClient(c.http),
		httputil.SendContext(ctx),
		httputil.SendTimeout(c.config.Timeout),
		httputil.SendHeaders(headers),
		httputil.SendRetry(c.retryBackOff()))
	if err != nil {
		return nil, pullerrors.FromHTTP(url, err)
	}
	return resp, nil
}

func (c *Client) head(ctx context.Context, url string) (*http.Response, error) {
	resp, err := httputil.Head(
		url,
		httputil.SendClient(c.http),
		httputil.SendContext(ctx),
		httputil.SendTimeout(c.config.Timeout),
		httputil.SendRetry(c.retryBackOff()))
	if err != nil {
		return nil, pullerrors.FromHTTP(url, err)
	}
	resp.Body.Close()
	return resp, nil
}

// retryBackOff returns a fresh backoff for one request.
func (c *Client) retryBackOff() backoff.BackOff {
	r := c.config.Retry
	if r.MaxRetries < 0 {
		return &backoff.StopBackOff{}
	}
	b := &backoff.ExponentialBackOff{
		InitialInterval:     r.InitialInterval,
		RandomizationFactor: 0.05,
		Multiplier:          1.5,
		MaxInterval:         r.MaxInterval,
		MaxElapsedTime:      time.Duration(r.MaxRetries+1) * c.config.Timeout,
		Clock:               backoff.SystemClock,
	}
	return backoff.WithMaxRetries(b, uint64(r.MaxRetries))
}
