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
package puller

import (
	"fmt"

	"github.com/uber/modelpull/utils/memsize"
)

// InsufficientSpaceError occurs when the store cannot hold a model's blobs.
type InsufficientSpaceError struct {
	Path string
	Need uint64
	Free uint64
}

func (e *InsufficientSpaceError) Error() string {
	return fmt.Sprintf(
		"insufficient disk space in %s: need %s, %s available",
		e.Path, memsize.Format(e.Need), memsize.Format(e.Free))
}
