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

package store

import (
	"os"

	"golang.org/x/sys/unix"
)

func statOwner(p string) (uid, gid int, err error) {
	var st unix.Stat_t
	if err := unix.Stat(p, &st); err != nil {
		return 0, 0, &os.PathError{Op: "stat", Path: p, Err: err}
	}
	return int(st.Uid), int(st.Gid), nil
}

func lchown(p string, uid, gid int) error {
	return unix.Lchown(p, uid, gid)
}
