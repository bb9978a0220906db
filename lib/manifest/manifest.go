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
// Package manifest parses and validates the image manifests served by model
// registries. Both the Docker schema2 and the OCI image manifest formats are
// accepted since they share the same structure.
package manifest

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/docker/distribution"
	"github.com/docker/distribution/manifest/schema2"
	ocispec "github.com/opencontainers/image-spec/specs-go/v1"

	"github.com/uber/modelpull/core"
	"github.com/uber/modelpull/lib/pullerrors"
)

// AcceptedMediaTypes lists the manifest media types which may be requested
// from a registry.
var AcceptedMediaTypes = []string{
	schema2.MediaTypeManifest,
	ocispec.MediaTypeImageManifest,
}

// Entry describes one content-addressed blob referenced by a manifest.
type Entry struct {
	MediaType string
	Size      int64
	Digest    core.Digest
	URLs      []string
}

// Manifest is a parsed and validated manifest document.
type Manifest struct {
	SchemaVersion int
	MediaType     string
	Config        Entry
	Layers        []Entry

	raw []byte
}

// Parse decodes and validates raw. Any failure is a pullerrors.ParseError.
func Parse(raw []byte) (*Manifest, error) {
	m, err := parse(raw)
	if err != nil {
		return nil, &pullerrors.ParseError{Err: err}
	}
	return m, nil
}

func parse(raw []byte) (*Manifest, error) {
	var doc schema2.Manifest
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("unmarshal: %s", err)
	}
	if doc.SchemaVersion != 2 {
		return nil, fmt.Errorf("unsupported schema version: %d", doc.SchemaVersion)
	}
	if !knownMediaType(doc.MediaType) {
		return nil, fmt.Errorf("unsupported media type: %q", doc.MediaType)
	}
	if doc.Config.Digest == "" {
		return nil, errors.New("config is missing")
	}

	config, err := newEntry(doc.Config)
	if err != nil {
		return nil, fmt.Errorf("config: %s", err)
	}
	layers := make([]Entry, len(doc.Layers))
	for i, l := range doc.Layers {
		e, err := newEntry(l)
		if err != nil {
			return nil, fmt.Errorf("layer %d: %s", i, err)
		}
		layers[i] = e
	}

	b := make([]byte, len(raw))
	copy(b, raw)
	return &Manifest{
		SchemaVersion: doc.SchemaVersion,
		MediaType:     doc.MediaType,
		Config:        config,
		Layers:        layers,
		raw:           b,
	}, nil
}

func knownMediaType(t string) bool {
	if t == "" {
		return true
	}
	for _, a := range AcceptedMediaTypes {
		if t == a {
			return true
		}
	}
	return false
}

func newEntry(desc distribution.Descriptor) (Entry, error) {
	d, err := core.ParseSHA256Digest(string(desc.Digest))
	if err != nil {
		return Entry{}, err
	}
	if desc.Size < 0 {
		return Entry{}, fmt.Errorf("negative size %d", desc.Size)
	}
	return Entry{
		MediaType: desc.MediaType,
		Size:      desc.Size,
		Digest:    d,
		URLs:      desc.URLs,
	}, nil
}

// Blobs returns the config followed by the layers, in declared order. This is
// the order blobs must be fetched and committed in.
func (m *Manifest) Blobs() []Entry {
	return append([]Entry{m.Config}, m.Layers...)
}

// TotalSize returns the sum of the declared sizes of all blobs.
func (m *Manifest) TotalSize() int64 {
	var total int64
	for _, e := range m.Blobs() {
		total += e.Size
	}
	return total
}

// Raw returns the document exactly as it was received.
func (m *Manifest) Raw() []byte {
	return m.raw
}

// Digest returns the digest of the raw document.
func (m *Manifest) Digest() core.Digest {
	return core.DigestBytes(m.raw)
}
