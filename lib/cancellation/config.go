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
package cancellation

import "time"

// Config defines Coordinator configuration.
type Config struct {
	// DisableConfirmation makes signals terminate the process immediately.
	DisableConfirmation bool `yaml:"disable_confirmation"`

	// PromptTimeout bounds how long the user has to answer. No answer is No.
	PromptTimeout time.Duration `yaml:"prompt_timeout"`

	// CleanupTimeout bounds how long the listener waits for the workflow to
	// acknowledge its rollback before exiting anyway.
	CleanupTimeout time.Duration `yaml:"cleanup_timeout"`

	// CleanupPollInterval is how often the acknowledgement is checked.
	CleanupPollInterval time.Duration `yaml:"cleanup_poll_interval"`
}

func (c Config) applyDefaults() Config {
	if c.PromptTimeout == 0 {
		c.PromptTimeout = 10 * time.Second
	}
	if c.CleanupTimeout == 0 {
		c.CleanupTimeout = 5 * time.Second
	}
	if c.CleanupPollInterval == 0 {
		c.CleanupPollInterval = 100 * time.Millisecond
	}
	return c
}
