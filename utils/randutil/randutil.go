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
package randutil

import (
	"math/rand"
	"time"
)

const _chars = "abcdefghijklmnopqrstuvwxyz0123456789"

func init() {
	rand.Seed(time.Now().UnixNano())
}

// Text returns randomly generated alphanumeric text of length n.
func Text(n uint64) []byte {
	b := make([]byte, n)
	for i := range b {
		b[i] = _chars[rand.Intn(len(_chars))]
	}
	return b
}

// Blob returns randomly generated binary content of length n.
func Blob(n uint64) []byte {
	b := make([]byte, n)
	rand.Read(b)
	return b
}
