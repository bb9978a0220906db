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
// Package configutil loads YAML configuration files which may extend a base
// file through a top-level "extends" key. Files later in the chain override
// values from earlier ones, and the merged result is validated with
// gopkg.in/validator.v2 struct tags.
package configutil

import (
	"errors"
	"fmt"
	"io/ioutil"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/validator.v2"
	"gopkg.in/yaml.v2"
)

// ErrCycleRef is returned when a chain of extends refers back to itself.
var ErrCycleRef = errors.New("cyclic reference in configuration extends detected")

type extendsHeader struct {
	Extends string `yaml:"extends"`
}

// ValidationError is returned when the merged configuration fails validation.
type ValidationError struct {
	errorMap validator.ErrorMap
}

// ErrForField returns the validation error for the named field, if any.
func (e ValidationError) ErrForField(name string) error {
	return e.errorMap[name]
}

func (e ValidationError) Error() string {
	fields := make([]string, 0, len(e.errorMap))
	for f := range e.errorMap {
		fields = append(fields, f)
	}
	sort.Strings(fields)

	parts := make([]string, len(fields))
	for i, f := range fields {
		parts[i] = fmt.Sprintf("%s: %v", f, e.errorMap[f])
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// Load reads filename and everything it extends into config, base first.
func Load(filename string, config interface{}) error {
	chain, err := extendsChain(filename, readExtends)
	if err != nil {
		return err
	}
	for _, f := range chain {
		data, err := ioutil.ReadFile(f)
		if err != nil {
			return err
		}
		if err := yaml.Unmarshal(data, config); err != nil {
			return fmt.Errorf("unmarshal %s: %s", f, err)
		}
	}
	return Validate(config)
}

// Validate runs struct tag validation on config.
func Validate(config interface{}) error {
	if err := validator.Validate(config); err != nil {
		if m, ok := err.(validator.ErrorMap); ok {
			return ValidationError{m}
		}
		return err
	}
	return nil
}

// extendsChain returns the files to load in order, with the root of the
// extends chain first and filename last. Relative extends paths are resolved
// against the directory of the file naming them.
func extendsChain(filename string, read func(string) (string, error)) ([]string, error) {
	chain := []string{filename}
	seen := map[string]bool{filepath.Clean(filename): true}
	for cur := filename; ; {
		parent, err := read(cur)
		if err != nil {
			return nil, err
		}
		if parent == "" {
			return chain, nil
		}
		if !filepath.IsAbs(parent) {
			parent = filepath.Join(filepath.Dir(cur), parent)
		}
		parent = filepath.Clean(parent)
		if seen[parent] {
			return nil, ErrCycleRef
		}
		seen[parent] = true
		chain = append([]string{parent}, chain...)
		cur = parent
	}
}

func readExtends(filename string) (string, error) {
	data, err := ioutil.ReadFile(filename)
	if err != nil {
		return "", err
	}
	var h extendsHeader
	if err := yaml.Unmarshal(data, &h); err != nil {
		return "", fmt.Errorf("unmarshal %s: %s", filename, err)
	}
	return h.Extends, nil
}
