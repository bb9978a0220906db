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

// Config defines Puller configuration.
type Config struct {
	// KeepOnError keeps committed blobs and manifests when a pull fails with
	// a network or presence check error. Integrity, parse and cancellation
	// failures always roll back regardless.
	KeepOnError bool `yaml:"keep_downloaded_on_error"`

	// SkipPresenceCheck disables asking the local model server whether it
	// lists the model after the pull.
	SkipPresenceCheck bool `yaml:"skip_presence_check"`

	// SkipDiskSpaceCheck disables verifying that the store's file system can
	// hold the missing blobs before downloading them.
	SkipDiskSpaceCheck bool `yaml:"skip_disk_space_check"`
}
