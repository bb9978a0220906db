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
package metrics

import (
	"io"
	"time"

	"github.com/uber-go/tally"

	"github.com/uber/modelpull/utils/log"
)

// newLogScope reports every metric as a debug log line. Useful when running
// pulls by hand with debug logging on.
func newLogScope(Config) (tally.Scope, io.Closer, error) {
	s, c := tally.NewRootScope(tally.ScopeOptions{
		Reporter: logReporter{},
	}, time.Second)
	return s, c, nil
}

type logReporter struct{}

func (r logReporter) ReportCounter(name string, tags map[string]string, value int64) {
	log.With("tags", tags).Debugf("count %s %d", name, value)
}

func (r logReporter) ReportGauge(name string, tags map[string]string, value float64) {
	log.With("tags", tags).Debugf("gauge %s %f", name, value)
}

func (r logReporter) ReportTimer(name string, tags map[string]string, interval time.Duration) {
	log.With("tags", tags).Debugf("timer %s %s", name, interval)
}

func (r logReporter) ReportHistogramValueSamples(
	name string,
	tags map[string]string,
	_ tally.Buckets,
	bucketLowerBound,
	bucketUpperBound float64,
	samples int64) {

	log.With("tags", tags).Debugf("histogram %s bucket lower %f upper %f samples %d",
		name, bucketLowerBound, bucketUpperBound, samples)
}

func (r logReporter) ReportHistogramDurationSamples(
	name string,
	tags map[string]string,
	_ tally.Buckets,
	bucketLowerBound,
	bucketUpperBound time.Duration,
	samples int64) {

	log.With("tags", tags).Debugf("histogram %s bucket lower %v upper %v samples %d",
		name, bucketLowerBound, bucketUpperBound, samples)
}

func (r logReporter) Capabilities() tally.Capabilities { return r }
func (r logReporter) Reporting() bool                  { return true }
func (r logReporter) Tagging() bool                    { return true }
func (r logReporter) Flush()                           {}
