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
	"github.com/uber/modelpull/lib/cancellation"
	"github.com/uber/modelpull/lib/fetcher"
	"github.com/uber/modelpull/lib/puller"
	"github.com/uber/modelpull/lib/registry"
	"github.com/uber/modelpull/lib/store"
	"github.com/uber/modelpull/metrics"
	"github.com/uber/modelpull/utils/log"
)

// Config defines modelpull configuration.
type Config struct {
	ZapLogging   log.Config          `yaml:"zap"`
	Metrics      metrics.Config      `yaml:"metrics"`
	Registry     registry.Config     `yaml:"registry"`
	Store        store.Config        `yaml:"store"`
	Fetcher      fetcher.Config      `yaml:"fetcher"`
	Puller       puller.Config       `yaml:"puller"`
	Cancellation cancellation.Config `yaml:"cancellation"`
}
