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
package store

import (
	"fmt"
	"os"

	"github.com/uber/modelpull/utils/log"
)

var (
	geteuid = os.Geteuid
	chown   = lchown
)

// Ownership is the uid and gid applied to every path a pull creates, so that
// a store populated by root stays usable by the account owning it.
type Ownership struct {
	UID int
	GID int
}

// InferOwnership decides which owner new store paths get. An override always
// wins. Otherwise, when running as root, the owner of root is used. A nil
// Ownership means paths keep the default owner of the process.
func InferOwnership(root string, override *OwnerConfig) (*Ownership, error) {
	if override != nil {
		return &Ownership{UID: override.UID, GID: override.GID}, nil
	}
	if geteuid() != 0 {
		return nil, nil
	}
	uid, gid, err := statOwner(root)
	if err != nil {
		if os.IsNotExist(err) {
			log.Warnf("Store root %s does not exist, keeping default ownership", root)
			return nil, nil
		}
		return nil, fmt.Errorf("stat owner of %s: %s", root, err)
	}
	return &Ownership{UID: uid, GID: gid}, nil
}

// Apply changes the owner of each path, without following symlinks. A path
// which cannot be chowned keeps its owner and is logged; content already
// committed stays valid either way. Returns the number of failures. A nil
// Ownership is a no-op.
func (o *Ownership) Apply(paths ...string) int {
	if o == nil {
		return 0
	}
	var failed int
	for _, p := range paths {
		if err := chown(p, o.UID, o.GID); err != nil {
			log.Warnf("Failed to set owner of %s to %s: %s", p, o, err)
			failed++
		}
	}
	return failed
}

func (o *Ownership) String() string {
	if o == nil {
		return "default"
	}
	return fmt.Sprintf("%d:%d", o.UID, o.GID)
}
