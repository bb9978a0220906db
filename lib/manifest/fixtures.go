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
package manifest

import (
	"fmt"

	"github.com/uber/modelpull/core"
)

// Fixture builds a raw schema2 manifest referencing config and layers.
func Fixture(config *core.BlobFixture, layers ...*core.BlobFixture) []byte {
	var ls string
	for i, l := range layers {
		if i > 0 {
			ls += ","
		}
		ls += fmt.Sprintf(
			`{"mediaType":"application/vnd.ollama.image.model","digest":%q,"size":%d}`,
			l.Digest, l.Length())
	}
	return []byte(fmt.Sprintf(`{
  "schemaVersion": 2,
  "mediaType": "application/vnd.docker.distribution.manifest.v2+json",
  "config": {"mediaType":"application/vnd.docker.container.image.v1+json","digest":%q,"size":%d},
  "layers": [%s]
}`, config.Digest, config.Length(), ls))
}
