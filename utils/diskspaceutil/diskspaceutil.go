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
// Package diskspaceutil reports file system usage.
package diskspaceutil

import "errors"

// ErrUnsupported is returned where file system usage cannot be queried.
var ErrUnsupported = errors.New("disk usage is not supported on this platform")

// DiskSpaceUsage describes the file system containing a path.
type DiskSpaceUsage struct {
	TotalBytes uint64
	FreeBytes  uint64
	UsedBytes  uint64

	// Util is UsedBytes over TotalBytes, between 0 and 1.
	Util float64
}
