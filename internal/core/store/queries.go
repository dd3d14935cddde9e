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

// This file centralizes the BigQuery SQL used by the BigQuery-backed
// ProductionStore. The queries use fmt.Sprintf verbs as placeholders for
// the fully qualified table names and row identifiers injected at runtime.
package store

const (
	// QryFindProjectById looks up one project record by its unique id.
	// Placeholders: project table FQN, project id.
	QryFindProjectById = "SELECT * FROM `%s` WHERE id = '%s'"

	// QryUpdateProjectStatus transitions a project's lifecycle status.
	// Placeholders: project table FQN, new status, project id.
	QryUpdateProjectStatus = "UPDATE `%s` SET status = '%s', updated_at = CURRENT_TIMESTAMP() WHERE id = '%s'"

	// QryUpdateSceneStatus records a scene's production status inside the
	// project's nested scenes array, and links the clip when a clip id is
	// given. An empty clip id keeps the existing linkage.
	// Placeholders: project table FQN, scene id, status, scene id,
	// clip id, clip id, project id.
	QryUpdateSceneStatus = "UPDATE `%s` SET scenes = ARRAY(SELECT AS STRUCT s.* REPLACE(IF(s.scene_id = '%s', '%s', s.status) AS status, IF(s.scene_id = '%s' AND '%s' != '', '%s', s.clip_id) AS clip_id) FROM UNNEST(scenes) AS s), updated_at = CURRENT_TIMESTAMP() WHERE id = '%s'"

	// QryFindClipById looks up one clip record by its unique id.
	// Placeholders: clip table FQN, clip id.
	QryFindClipById = "SELECT * FROM `%s` WHERE clip_id = '%s'"

	// QryFindClipByScene looks up the most recent clip generated for a
	// project scene.
	// Placeholders: clip table FQN, project id, scene id.
	QryFindClipByScene = "SELECT * FROM `%s` WHERE project_id = '%s' AND scene_id = '%s' ORDER BY created_at DESC LIMIT 1"

	// QryListClipsByProject lists a project's clips in creation order.
	// Placeholders: clip table FQN, project id.
	QryListClipsByProject = "SELECT * FROM `%s` WHERE project_id = '%s' ORDER BY created_at ASC"
)
