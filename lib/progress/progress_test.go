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
package progress

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/andres-erbsen/clock"
	"github.com/stretchr/testify/require"
)

func TestTerminalSinkDrawsBar(t *testing.T) {
	require := require.New(t)

	var buf bytes.Buffer
	clk := clock.NewMock()
	s := NewWriterSink(&buf, true, clk)

	s.Start("sha256-abc", 1000)
	clk.Add(time.Second)
	s.Update(1000, 500)
	require.Contains(buf.String(), "sha256-abc [===============               ]")

	s.Finish()
	require.True(strings.HasSuffix(buf.String(), " done\n"))
}

func TestTerminalSinkThrottlesRedraws(t *testing.T) {
	require := require.New(t)

	var buf bytes.Buffer
	clk := clock.NewMock()
	s := NewWriterSink(&buf, true, clk)

	s.Start("blob", 100)
	n := buf.Len()
	s.Update(100, 1)
	s.Update(100, 2)
	require.Equal(n, buf.Len())

	clk.Add(_redrawEvery)
	s.Update(100, 3)
	require.True(buf.Len() > n)
}

func TestTerminalSinkAbortOnlyOnce(t *testing.T) {
	require := require.New(t)

	var buf bytes.Buffer
	s := NewWriterSink(&buf, true, clock.NewMock())

	s.Start("blob", 10)
	s.Abort()
	s.Abort()
	s.Finish()
	require.Equal(1, strings.Count(buf.String(), "failed"))
	require.NotContains(buf.String(), "done")
}

func TestTerminalSinkSuspendClearsAndRedraws(t *testing.T) {
	require := require.New(t)

	var buf bytes.Buffer
	s := NewWriterSink(&buf, true, clock.NewMock())
	s.Start("blob", 10)

	var during string
	result := s.Suspend(func() bool {
		during = buf.String()
		return true
	})
	require.True(result)
	require.True(strings.HasSuffix(during, "\r\033[K"))
	require.True(strings.HasSuffix(buf.String(), "0B/10.00B"))
}

func TestTerminalSinkNotATerminalWritesNothing(t *testing.T) {
	var buf bytes.Buffer
	s := NewWriterSink(&buf, false, clock.NewMock())
	s.Start("blob", 10)
	s.Update(10, 10)
	s.Finish()
	require.Equal(t, 0, buf.Len())
}

func TestNopSinkSuspendRunsFunc(t *testing.T) {
	require.False(t, NopSink{}.Suspend(func() bool { return false }))
}
