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
// Package pullerrors defines the error kinds a pull session can fail with and
// which of them force the session's side effects to be rolled back.
package pullerrors

import (
	"errors"
	"fmt"

	"github.com/uber/modelpull/core"
	"github.com/uber/modelpull/utils/httputil"
)

// ErrUserCancelled is returned when the user confirmed an interrupt.
var ErrUserCancelled = errors.New("cancelled by user")

// NetworkError occurs when a request could not be sent or the registry
// answered with a non-2xx status. Status is zero for transport failures.
type NetworkError struct {
	URL    string
	Status int
	Err    error
}

func (e *NetworkError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("request %s failed with status %d: %s", e.URL, e.Status, e.Err)
	}
	return fmt.Sprintf("request %s failed: %s", e.URL, e.Err)
}

func (e *NetworkError) Unwrap() error { return e.Err }

// FromHTTP converts an error returned by utils/httputil for a request to url
// into a NetworkError. Other errors are returned with url as context.
func FromHTTP(url string, err error) error {
	switch e := err.(type) {
	case httputil.StatusError:
		return &NetworkError{URL: url, Status: e.Status, Err: e}
	case httputil.NetworkError:
		return &NetworkError{URL: url, Err: e.Unwrap()}
	default:
		return fmt.Errorf("request %s: %s", url, err)
	}
}

// ParseError occurs when a manifest document is malformed.
type ParseError struct {
	Err error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse manifest: %s", e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// DigestMismatchError occurs when downloaded content does not hash to the
// digest declared for it.
type DigestMismatchError struct {
	Expected core.Digest
	Computed core.Digest
}

func (e *DigestMismatchError) Error() string {
	return fmt.Sprintf("digest mismatch: expected %s, computed %s", e.Expected, e.Computed)
}

// PresenceCheckError occurs when the pulled model cannot be confirmed as
// present on the local model server after the pull.
type PresenceCheckError struct {
	Names []string
	Err   error
}

func (e *PresenceCheckError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("presence check for %v: %s", e.Names, e.Err)
	}
	return fmt.Sprintf("presence check: none of %v found on server", e.Names)
}

func (e *PresenceCheckError) Unwrap() error { return e.Err }

// Kind classifies errors for rollback and exit code decisions.
type Kind int

// Kinds, from least to most specific.
const (
	KindOther Kind = iota
	KindNetwork
	KindParse
	KindDigestMismatch
	KindPresenceCheck
	KindUserCancelled
)

func (k Kind) String() string {
	switch k {
	case KindNetwork:
		return "network"
	case KindParse:
		return "parse"
	case KindDigestMismatch:
		return "digest_mismatch"
	case KindPresenceCheck:
		return "presence_check"
	case KindUserCancelled:
		return "user_cancelled"
	default:
		return "other"
	}
}

// KindOf returns the Kind of err, looking through wrapped errors.
func KindOf(err error) Kind {
	var (
		netErr      *NetworkError
		parseErr    *ParseError
		mismatchErr *DigestMismatchError
		presenceErr *PresenceCheckError
	)
	switch {
	case err == nil:
		return KindOther
	case errors.Is(err, ErrUserCancelled):
		return KindUserCancelled
	case errors.As(err, &mismatchErr):
		return KindDigestMismatch
	case errors.As(err, &parseErr):
		return KindParse
	case errors.As(err, &presenceErr):
		return KindPresenceCheck
	case errors.As(err, &netErr):
		return KindNetwork
	default:
		return KindOther
	}
}

// IsUserCancelled returns true if err was caused by a confirmed interrupt.
func IsUserCancelled(err error) bool {
	return errors.Is(err, ErrUserCancelled)
}

// ShouldRollback reports whether a session failing with err must remove its
// side effects. Network and presence check failures only do so when
// removeOnError is set; integrity, parse and cancellation failures always do.
// Local I/O failures always roll back since they leave the store half written.
func ShouldRollback(err error, removeOnError bool) bool {
	if err == nil {
		return false
	}
	switch KindOf(err) {
	case KindNetwork, KindPresenceCheck:
		return removeOnError
	default:
		return true
	}
}
