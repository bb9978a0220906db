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
package registry

import (
	"net/url"
	"strings"

	"github.com/uber/modelpull/core"
)

// Source maps references to registry URLs and store locations.
type Source interface {
	// Parse parses a user supplied model identifier.
	Parse(identifier string) (Reference, error)

	// ManifestURL returns the URL of the manifest of ref.
	ManifestURL(ref Reference) string

	// BlobURL returns the URL of blob d of ref.
	BlobURL(ref Reference, d core.Digest) string

	// ManifestPath returns the directory components under manifests/ which
	// hold the manifests of ref, one file per tag.
	ManifestPath(ref Reference) []string

	// PresenceNames returns the names the local model server may list ref
	// under once it has been pulled.
	PresenceNames(ref Reference) []string
}

// LibrarySource serves models of the Ollama library.
type LibrarySource struct {
	baseURL string
	host    string
}

// NewLibrarySource creates a LibrarySource for the registry at baseURL,
// e.g. "https://registry.ollama.ai/v2/library/".
func NewLibrarySource(baseURL string) *LibrarySource {
	return &LibrarySource{withSlash(baseURL), hostOf(baseURL, "registry.ollama.ai")}
}

// Parse implements Source.
func (s *LibrarySource) Parse(identifier string) (Reference, error) {
	ref, err := ParseLibraryReference(identifier)
	if err != nil {
		return Reference{}, err
	}
	ref.Host = s.host
	return ref, nil
}

// ManifestURL implements Source.
func (s *LibrarySource) ManifestURL(ref Reference) string {
	return s.baseURL + ref.Repository + "/manifests/" + ref.Tag
}

// BlobURL implements Source. The library registry names blobs like the store
// does, with '-' in place of ':'.
func (s *LibrarySource) BlobURL(ref Reference, d core.Digest) string {
	return s.baseURL + ref.Repository + "/blobs/" + d.BlobName()
}

// ManifestPath implements Source.
func (s *LibrarySource) ManifestPath(ref Reference) []string {
	return []string{ref.Host, ref.Namespace, ref.Repository}
}

// PresenceNames implements Source.
func (s *LibrarySource) PresenceNames(ref Reference) []string {
	short := ref.Repository + ":" + ref.Tag
	return []string{
		short,
		ref.Namespace + "/" + short,
		ref.Host + "/" + ref.Namespace + "/" + short,
	}
}

// HuggingFaceSource serves GGUF models from the Hugging Face registry.
type HuggingFaceSource struct {
	baseURL string
	host    string
}

// NewHuggingFaceSource creates a HuggingFaceSource for the registry at
// baseURL, e.g. "https://hf.co/v2/".
func NewHuggingFaceSource(baseURL string) *HuggingFaceSource {
	return &HuggingFaceSource{withSlash(baseURL), hostOf(baseURL, "hf.co")}
}

// Parse implements Source.
func (s *HuggingFaceSource) Parse(identifier string) (Reference, error) {
	ref, err := ParseHuggingFaceReference(identifier)
	if err != nil {
		return Reference{}, err
	}
	ref.Host = s.host
	return ref, nil
}

// ManifestURL implements Source.
func (s *HuggingFaceSource) ManifestURL(ref Reference) string {
	return s.baseURL + ref.Name() + "/manifests/" + ref.Tag
}

// BlobURL implements Source.
func (s *HuggingFaceSource) BlobURL(ref Reference, d core.Digest) string {
	return s.baseURL + ref.Name() + "/blobs/" + d.String()
}

// ManifestPath implements Source.
func (s *HuggingFaceSource) ManifestPath(ref Reference) []string {
	return []string{ref.Host, ref.Namespace, ref.Repository}
}

// PresenceNames implements Source.
func (s *HuggingFaceSource) PresenceNames(ref Reference) []string {
	id := ref.Name() + ":" + ref.Tag
	return []string{
		"hf.co/" + id,
		"huggingface.co/" + id,
		id,
	}
}

func withSlash(u string) string {
	if strings.HasSuffix(u, "/") {
		return u
	}
	return u + "/"
}

func hostOf(rawurl, fallback string) string {
	u, err := url.Parse(rawurl)
	if err != nil || u.Host == "" {
		return fallback
	}
	return u.Host
}
