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
package log

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNewAppliesDefaults(t *testing.T) {
	require := require.New(t)

	l, err := New(Config{}, map[string]interface{}{"session": "abc"})
	require.NoError(err)
	require.True(l.Core().Enabled(-0))
	require.False(l.Core().Enabled(-1))
}

func TestNewDisabled(t *testing.T) {
	l, err := New(Config{Disable: true}, nil)
	require.NoError(t, err)
	require.False(t, l.Core().Enabled(2))
}

func TestNewInvalidLevel(t *testing.T) {
	_, err := New(Config{Level: "loud"}, nil)
	require.Error(t, err)
}

func TestConfigureLoggerReplacesDefault(t *testing.T) {
	require := require.New(t)

	before := Default()
	defer SetGlobalLogger(before)

	l, err := ConfigureLogger(Config{Level: "debug"})
	require.NoError(err)
	require.Equal(l, Default())
	Debugf("debug logging %s", "enabled")
}
