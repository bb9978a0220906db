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
package core

import (
	"hash"

	"github.com/opencontainers/go-digest"
)

// Digester calculates the sha256 digest of a data stream. It never buffers
// the data it is fed.
type Digester struct {
	hash hash.Hash
}

// NewDigester instantiates and returns a new Digester object.
func NewDigester() *Digester {
	return &Digester{hash: digest.SHA256.Hash()}
}

// Write feeds p into the running hash. It never returns an error.
func (d *Digester) Write(p []byte) (int, error) {
	return d.hash.Write(p)
}

// Feed feeds p into the running hash.
func (d *Digester) Feed(p []byte) {
	d.hash.Write(p)
}

// Hex returns the lowercase hex digest of all data fed so far.
func (d *Digester) Hex() string {
	return d.Digest().Hex()
}

// Digest returns the digest of all data fed so far.
func (d *Digester) Digest() Digest {
	return Digest{algo: SHA256, hex: digest.NewDigest(digest.SHA256, d.hash).Encoded()}
}

// DigestBytes returns the digest of p.
func DigestBytes(p []byte) Digest {
	d := NewDigester()
	d.Feed(p)
	return d.Digest()
}
