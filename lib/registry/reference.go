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
	"errors"
	"fmt"
	"strings"
)

// Reference identifies one tagged model in a registry.
type Reference struct {
	Host       string
	Namespace  string
	Repository string
	Tag        string
}

// Name returns the namespaced repository, e.g. "library/llama3".
func (r Reference) Name() string {
	return r.Namespace + "/" + r.Repository
}

func (r Reference) String() string {
	return fmt.Sprintf("%s/%s:%s", r.Host, r.Name(), r.Tag)
}

const _defaultTag = "latest"

// ParseLibraryReference parses "model[:tag]" in the library namespace.
func ParseLibraryReference(s string) (Reference, error) {
	model, tag, err := splitTag(s)
	if err != nil {
		return Reference{}, err
	}
	if strings.Contains(model, "/") {
		return Reference{}, fmt.Errorf("library model %q must not contain '/'", model)
	}
	return Reference{Namespace: "library", Repository: model, Tag: tag}, nil
}

// ParseHuggingFaceReference parses "user/repository[:quantization]".
func ParseHuggingFaceReference(s string) (Reference, error) {
	repo, tag, err := splitTag(s)
	if err != nil {
		return Reference{}, err
	}
	parts := strings.Split(repo, "/")
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return Reference{}, fmt.Errorf(
			"model identifier %q must be in format 'user/repository:quantization'", s)
	}
	return Reference{Namespace: parts[0], Repository: parts[1], Tag: tag}, nil
}

func splitTag(s string) (name, tag string, err error) {
	parts := strings.Split(s, ":")
	switch len(parts) {
	case 1:
		name, tag = parts[0], _defaultTag
	case 2:
		name, tag = parts[0], parts[1]
	default:
		return "", "", fmt.Errorf("model identifier %q has more than one tag separator", s)
	}
	if name == "" {
		return "", "", errors.New("empty model name")
	}
	if tag == "" || strings.Contains(tag, "/") {
		return "", "", fmt.Errorf("invalid tag %q", tag)
	}
	return name, tag, nil
}
