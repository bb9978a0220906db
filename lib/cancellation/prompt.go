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

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"
)

// Prompter asks the user whether to cancel after sig.
type Prompter interface {
	Confirm(sig Signal, timeout time.Duration) bool
}

// TerminalPrompter prompts on out and reads the answer from in. It waits at
// most the given timeout, and anything but yes is treated as No.
type TerminalPrompter struct {
	in  *os.File
	out io.Writer
}

// NewTerminalPrompter creates a new TerminalPrompter.
func NewTerminalPrompter(in *os.File, out io.Writer) *TerminalPrompter {
	return &TerminalPrompter{in, out}
}

// Confirm implements Prompter.
func (p *TerminalPrompter) Confirm(sig Signal, timeout time.Duration) bool {
	fmt.Fprintf(p.out,
		"\n%s: All partially completed downloaded data will be removed. "+
			"Do you really want to exit? [y/N] (timeout to N in %d seconds): ",
		sig.Label(), int(timeout.Seconds()))

	line, ok := readLine(p.in, timeout)
	if !ok {
		fmt.Fprintln(p.out)
		return false
	}
	return isYes(line)
}

func isYes(answer string) bool {
	switch strings.ToLower(strings.TrimSpace(answer)) {
	case "y", "yes":
		return true
	default:
		return false
	}
}
