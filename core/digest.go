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
	_ "crypto/sha256" // Registers the hash behind digest.SHA256.
	"errors"
	"fmt"
	"strings"

	"github.com/opencontainers/go-digest"
)

// SHA256 is the only digest algorithm accepted in manifests.
const SHA256 = string(digest.SHA256)

// Digest can be represented in a string like "<algorithm>:<hex_digest_string>"
// Example:
// 	 sha256:e3b0c44298fc1c149afbf4c8996fb92427ae41e4649b934ca495991b7852b855
type Digest struct {
	algo string
	hex  string
}

// ParseSHA256Digest parses s as a sha256 digest. Any other algorithm, and any
// hex part which is not 64 lowercase hex characters, is rejected.
func ParseSHA256Digest(s string) (Digest, error) {
	parts := strings.SplitN(s, ":", 2)
	if len(parts) != 2 {
		return Digest{}, fmt.Errorf("digest %q is not of the form <algorithm>:<hex>", s)
	}
	if parts[0] != SHA256 {
		return Digest{}, fmt.Errorf("digest %q: unsupported algorithm %q", s, parts[0])
	}
	if err := CheckSHA256Digest(parts[1]); err != nil {
		return Digest{}, fmt.Errorf("digest %q: %s", s, err)
	}
	return Digest{algo: SHA256, hex: parts[1]}, nil
}

// NewSHA256DigestFromHex creates a sha256 Digest from a hex string.
func NewSHA256DigestFromHex(hex string) (Digest, error) {
	return ParseSHA256Digest(SHA256 + ":" + hex)
}

// String returns digest in string format like "<algorithm>:<hex_digest_string>".
func (d Digest) String() string {
	if d.algo == "" {
		return ""
	}
	return d.algo + ":" + d.hex
}

// Algo returns the algo part of the digest.
func (d Digest) Algo() string {
	return d.algo
}

// Hex returns the hex part of the digest.
// Example:
//   e3b0c44298fc1c149afbf4c8996fb92427ae41e4649b934ca495991b7852b855
func (d Digest) Hex() string {
	return d.hex
}

// BlobName returns the file name the blob is stored under, which is the
// digest with ':' replaced by '-'.
// Example:
//   sha256-e3b0c44298fc1c149afbf4c8996fb92427ae41e4649b934ca495991b7852b855
func (d Digest) BlobName() string {
	return d.algo + "-" + d.hex
}

// IsZero reports whether d is the zero Digest.
func (d Digest) IsZero() bool {
	return d.algo == "" && d.hex == ""
}

// CheckSHA256Digest returns error if s is not a valid SHA256 hex digest.
func CheckSHA256Digest(s string) error {
	if len(s) != 64 {
		return errors.New("must be 64 characters")
	}
	if err := digest.SHA256.Validate(s); err != nil {
		return errors.New("must be lowercase hex")
	}
	return nil
}
