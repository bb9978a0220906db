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
//go:build !unix

package cancellation

import (
	"bufio"
	"os"
	"time"
)

// readLine reads a line from f on a separate goroutine, giving up after
// timeout. The goroutine is left blocked if no input ever arrives.
func readLine(f *os.File, timeout time.Duration) (string, bool) {
	result := make(chan string, 1)
	go func() {
		line, err := bufio.NewReader(f).ReadString('\n')
		if err != nil && line == "" {
			return
		}
		result <- line
	}()
	select {
	case line := <-result:
		return line, true
	case <-time.After(timeout):
		return "", false
	}
}
