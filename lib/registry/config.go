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
	"time"
)

// Config defines registry client configuration.
type Config struct {
	// RegistryBaseURL is the Ollama library registry, ending in the
	// namespace path.
	RegistryBaseURL string `yaml:"registry_base_url"`

	// LibraryBaseURL is the Ollama library web index, scraped for listings.
	LibraryBaseURL string `yaml:"library_base_url"`

	// HuggingFaceBaseURL is the Hugging Face OCI registry endpoint.
	HuggingFaceBaseURL string `yaml:"huggingface_base_url"`

	// HuggingFaceAPIURL is the Hugging Face JSON API used for listings.
	HuggingFaceAPIURL string `yaml:"huggingface_api_url"`

	// ServerURL is the local model server queried for presence checks.
	ServerURL string `yaml:"server_url"`

	Timeout            time.Duration `yaml:"timeout"`
	InsecureSkipVerify bool          `yaml:"insecure_skip_verify"`
	UserAgent          string        `yaml:"user_agent"`

	// Retry applies to manifest, listing and presence requests. Blob
	// downloads are never retried.
	Retry RetryConfig `yaml:"retry"`
}

// RetryConfig defines exponential backoff for transient request failures.
type RetryConfig struct {
	// MaxRetries is the number of retries after the first attempt. Negative
	// disables retries.
	MaxRetries      int           `yaml:"max_retries"`
	InitialInterval time.Duration `yaml:"initial_interval"`
	MaxInterval     time.Duration `yaml:"max_interval"`
}

func (c RetryConfig) applyDefaults() RetryConfig {
	if c.MaxRetries == 0 {
		c.MaxRetries = 2
	}
	if c.InitialInterval == 0 {
		c.InitialInterval = 500 * time.Millisecond
	}
	if c.MaxInterval == 0 {
		c.MaxInterval = 5 * time.Second
	}
	return c
}

func (c Config) applyDefaults() Config {
	if c.RegistryBaseURL == "" {
		c.RegistryBaseURL = "https://registry.ollama.ai/v2/library/"
	}
	if c.LibraryBaseURL == "" {
		c.LibraryBaseURL = "https://ollama.com/library/"
	}
	if c.HuggingFaceBaseURL == "" {
		c.HuggingFaceBaseURL = "https://hf.co/v2/"
	}
	if c.HuggingFaceAPIURL == "" {
		c.HuggingFaceAPIURL = "https://huggingface.co/api/"
	}
	if c.ServerURL == "" {
		c.ServerURL = "http://localhost:11434/"
	}
	if c.Timeout == 0 {
		c.Timeout = 120 * time.Second
	}
	if c.UserAgent == "" {
		c.UserAgent = "modelpull"
	}
	c.Retry = c.Retry.applyDefaults()
	return c
}
