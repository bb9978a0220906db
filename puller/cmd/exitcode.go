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
	"github.com/uber/modelpull/lib/pullerrors"
)

// Exit codes for failed commands. Cancelled pulls exit with the code of the
// signal that cancelled them.
const (
	exitOK            = 0
	exitOther         = 1
	exitNetwork       = 2
	exitParse         = 3
	exitDigest        = 4
	exitPresenceCheck = 5
)

// exitCode maps the error a command failed with to the process exit code.
// c may be nil if the command failed before cancellation was set up.
func exitCode(err error, c *cancellation.Coordinator) int {
	if err == nil {
		return exitOK
	}
	switch pullerrors.KindOf(err) {
	case pullerrors.KindUserCancelled:
		if c != nil {
			if code := c.ExitCode(); code != 0 {
				return code
			}
		}
		return cancellation.SignalInterrupt.ExitCode()
	case pullerrors.KindNetwork:
		return exitNetwork
	case pullerrors.KindParse:
		return exitParse
	case pullerrors.KindDigestMismatch:
		return exitDigest
	case pullerrors.KindPresenceCheck:
		return exitPresenceCheck
	default:
		return exitOther
	}
}
