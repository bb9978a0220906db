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
//go:build unix

package cancellation

import (
	"os"
	"strings"
	"time"

	"golang.org/x/sys/unix"
)

// readLine waits for input on f using poll(2), so that the deadline is
// honored without a read blocking past it. A poll interrupted by a signal, or
// one that wakes up early, is retried with whatever time remains.
func readLine(f *os.File, timeout time.Duration) (string, bool) {
	fd := int(f.Fd())
	deadline := time.Now().Add(timeout)
	for {
		remaining := time.Until(deadline)
		if remaining <= 0 {
			return "", false
		}
		fds := []unix.PollFd{{Fd: int32(fd), Events: unix.POLLIN}}
		// Rounded up, so poll never returns before the deadline.
		ms := int((remaining + time.Millisecond - 1) / time.Millisecond)
		n, err := unix.Poll(fds, ms)
		if err == unix.EINTR || (err == nil && n == 0) {
			continue
		}
		if err != nil {
			return "", false
		}
		if fds[0].Revents&(unix.POLLIN|unix.POLLHUP) == 0 {
			return "", false
		}
		buf := make([]byte, 256)
		n, err = unix.Read(fd, buf)
		if err == unix.EINTR || err == unix.EAGAIN {
			continue
		}
		if err != nil || n <= 0 {
			return "", false
		}
		line := string(buf[:n])
		if i := strings.IndexByte(line, '\n'); i >= 0 {
			line = line[:i]
		}
		return line, true
	}
}
