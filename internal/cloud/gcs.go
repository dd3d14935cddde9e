// Copyright 2024 Google, LLC
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     https://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package cloud

// GetGCSObjectName returns the well-known chain context key under which
// upload commands publish the GCS location of the artifact they wrote.
func GetGCSObjectName() string {
	return "__GCS__OBJ__"
}

// GCSObject is a lightweight reference to an object in Google Cloud
// Storage, passed between workflow commands.
type GCSObject struct {
	Bucket   string // The bucket name.
	Name     string // The object name within the bucket.
	MIMEType string // The object's MIME type (e.g. "video/mp4").
}
