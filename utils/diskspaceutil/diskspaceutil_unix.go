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

package diskspaceutil

import (
	"fmt"

	"golang.org/x/sys/unix"
)

// Usage returns the usage of the file system containing path. FreeBytes
// counts only blocks available to unprivileged users.
func Usage(path string) (DiskSpaceUsage, error) {
	var fs unix.Statfs_t
	if err := unix.Statfs(path, &fs); err != nil {
		return DiskSpaceUsage{}, fmt.Errorf("statfs %s: %s", path, err)
	}
	bsize := uint64(fs.Bsize)
	total := uint64(fs.Blocks) * bsize
	used := total - uint64(fs.Bfree)*bsize
	u := DiskSpaceUsage{
		TotalBytes: total,
		FreeBytes:  uint64(fs.Bavail) * bsize,
		UsedBytes:  used,
	}
	if total > 0 {
		u.Util = float64(used) / float64(total)
	}
	return u, nil
}
