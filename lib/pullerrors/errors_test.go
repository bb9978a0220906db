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
package pullerrors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/uber/modelpull/core"
	"github.com/uber/modelpull/utils/httputil"
)

func TestKindOf(t *testing.T) {
	d1 := core.DigestFixture()
	d2 := core.DigestFixture()

	tests := []struct {
		desc string
		err  error
		kind Kind
	}{
		{"nil", nil, KindOther},
		{"plain", errors.New("disk full"), KindOther},
		{"network", &NetworkError{URL: "http://x", Status: 500, Err: errors.New("boom")}, KindNetwork},
		{"wrapped network", fmt.Errorf("fetch: %w", &NetworkError{URL: "http://x", Err: errors.New("refused")}), KindNetwork},
		{"parse", &ParseError{errors.New("bad json")}, KindParse},
		{"mismatch", &DigestMismatchError{d1, d2}, KindDigestMismatch},
		{"presence", &PresenceCheckError{Names: []string{"a"}}, KindPresenceCheck},
		{"cancelled", ErrUserCancelled, KindUserCancelled},
		{"wrapped cancelled", fmt.Errorf("blob: %w", ErrUserCancelled), KindUserCancelled},
	}
	for _, test := range tests {
		t.Run(test.desc, func(t *testing.T) {
			require.Equal(t, test.kind, KindOf(test.err))
		})
	}
}

func TestShouldRollback(t *testing.T) {
	netErr := &NetworkError{URL: "http://x", Status: 404, Err: errors.New("not found")}
	presenceErr := &PresenceCheckError{Names: []string{"m:latest"}}
	mismatch := &DigestMismatchError{core.DigestFixture(), core.DigestFixture()}

	tests := []struct {
		desc          string
		err           error
		removeOnError bool
		expected      bool
	}{
		{"nil", nil, true, false},
		{"network with policy", netErr, true, true},
		{"network without policy", netErr, false, false},
		{"presence with policy", presenceErr, true, true},
		{"presence without policy", presenceErr, false, false},
		{"mismatch without policy", mismatch, false, true},
		{"parse without policy", &ParseError{errors.New("x")}, false, true},
		{"cancelled without policy", ErrUserCancelled, false, true},
		{"local io without policy", errors.New("no space left on device"), false, true},
	}
	for _, test := range tests {
		t.Run(test.desc, func(t *testing.T) {
			require.Equal(t, test.expected, ShouldRollback(test.err, test.removeOnError))
		})
	}
}

func TestErrorMessages(t *testing.T) {
	require := require.New(t)

	err := &NetworkError{URL: "http://r/v2/m/blobs/x", Status: 503, Err: errors.New("unavailable")}
	require.Contains(err.Error(), "http://r/v2/m/blobs/x")
	require.Contains(err.Error(), "503")

	d1 := core.DigestFixture()
	d2 := core.DigestFixture()
	mismatch := &DigestMismatchError{d1, d2}
	require.Contains(mismatch.Error(), d1.String())
	require.Contains(mismatch.Error(), d2.String())

	require.Equal("user_cancelled", KindUserCancelled.String())
}

func TestFromHTTP(t *testing.T) {
	require := require.New(t)

	err := FromHTTP("http://r/x", httputil.StatusError{Method: "GET", URL: "http://r/x", Status: 404})
	var netErr *NetworkError
	require.True(errors.As(err, &netErr))
	require.Equal(404, netErr.Status)

	err = FromHTTP("http://r/x", httputil.NetworkError{})
	require.Equal(KindNetwork, KindOf(err))

	err = FromHTTP("http://r/x", errors.New("bad url"))
	require.Equal(KindOther, KindOf(err))
}
