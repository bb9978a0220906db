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
package osutil

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// IsEmpty returns true if directory dir is empty.
func IsEmpty(dir string) (bool, error) {
	f, err := os.Open(dir)
	if err != nil {
		return false, err
	}
	defer f.Close()

	_, err = f.Readdirnames(1)
	if err == io.EOF {
		return true, nil
	}
	return false, err
}

// ExpandHome replaces a leading "~" in p with the current user's home directory.
func ExpandHome(p string) (string, error) {
	if p != "~" && !strings.HasPrefix(p, "~/") {
		return p, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("home dir: %s", err)
	}
	return filepath.Join(home, strings.TrimPrefix(p, "~")), nil
}

// MissingAncestors returns dir and each of its ancestors which do not exist yet,
// ordered from the shallowest to dir itself.
func MissingAncestors(dir string) ([]string, error) {
	var missing []string
	for cur := filepath.Clean(dir); ; cur = filepath.Dir(cur) {
		_, err := os.Stat(cur)
		if err == nil {
			break
		}
		if !os.IsNotExist(err) {
			return nil, fmt.Errorf("stat: %s", err)
		}
		missing = append([]string{cur}, missing...)
		if filepath.Dir(cur) == cur {
			break
		}
	}
	return missing, nil
}
