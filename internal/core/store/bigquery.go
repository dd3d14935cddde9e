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

package store

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"cloud.google.com/go/bigquery"
	"google.golang.org/api/iterator"

	"github.com/jaycherian/gcp-go-commercial-studio/internal/core/model"
)

// BigQueryStore is the durable ProductionStore. New records stream in
// through table inserters; status transitions and scene updates run as
// DML against the project table.
type BigQueryStore struct {
	client       *bigquery.Client
	dataset      string
	projectTable string
	clipTable    string
}

// NewBigQueryStore creates a store bound to the configured dataset and
// tables.
func NewBigQueryStore(client *bigquery.Client, dataset string, projectTable string, clipTable string) *BigQueryStore {
	return &BigQueryStore{
		client:       client,
		dataset:      dataset,
		projectTable: projectTable,
		clipTable:    clipTable,
	}
}

// fqn returns the fully qualified, dot-separated name of a table so it
// can be interpolated into standard SQL.
func (s *BigQueryStore) fqn(table string) string {
	name := s.client.Dataset(s.dataset).Table(table).FullyQualifiedName()
	return strings.Replace(name, ":", ".", -1)
}

// run executes a DML statement and waits for its job to finish.
func (s *BigQueryStore) run(ctx context.Context, queryText string) error {
	job, err := s.client.Query(queryText).Run(ctx)
	if err != nil {
		return err
	}
	status, err := job.Wait(ctx)
	if err != nil {
		return err
	}
	return status.Err()
}

// CreateProject streams the project record into the project table.
func (s *BigQueryStore) CreateProject(ctx context.Context, project *model.Project) error {
	inserter := s.client.Dataset(s.dataset).Table(s.projectTable).Inserter()
	if err := inserter.Put(ctx, project); err != nil {
		return fmt.Errorf("bigquery insert failed for project '%s': %w", project.Id, err)
	}
	return nil
}

// GetProject reads one project record by id.
func (s *BigQueryStore) GetProject(ctx context.Context, projectId string) (*model.Project, error) {
	queryText := fmt.Sprintf(QryFindProjectById, s.fqn(s.projectTable), projectId)
	itr, err := s.client.Query(queryText).Read(ctx)
	if err != nil {
		return nil, err
	}
	project := &model.Project{}
	if err := itr.Next(project); err != nil {
		if errors.Is(err, iterator.Done) {
			return nil, ErrProjectNotFound
		}
		return nil, err
	}
	return project, nil
}

// UpdateProject rewrites the project record by deleting and re-inserting
// it. BigQuery has no row-level replace, so the status and scene updates
// below prefer targeted DML; this full rewrite exists for project edits.
func (s *BigQueryStore) UpdateProject(ctx context.Context, project *model.Project) error {
	deleteText := fmt.Sprintf("DELETE FROM `%s` WHERE id = '%s'", s.fqn(s.projectTable), project.Id)
	if err := s.run(ctx, deleteText); err != nil {
		return fmt.Errorf("bigquery delete failed for project '%s': %w", project.Id, err)
	}
	return s.CreateProject(ctx, project)
}

// UpdateProjectStatus transitions the project's lifecycle status.
func (s *BigQueryStore) UpdateProjectStatus(ctx context.Context, projectId string, status model.ProjectStatus) error {
	queryText := fmt.Sprintf(QryUpdateProjectStatus, s.fqn(s.projectTable), string(status), projectId)
	if err := s.run(ctx, queryText); err != nil {
		return fmt.Errorf("bigquery status update failed for project '%s': %w", projectId, err)
	}
	return nil
}

// UpdateSceneStatus records a scene's production status and links its
// clip when one is given.
func (s *BigQueryStore) UpdateSceneStatus(ctx context.Context, projectId string, sceneId string, status model.ClipStatus, clipId string) error {
	queryText := fmt.Sprintf(QryUpdateSceneStatus, s.fqn(s.projectTable), sceneId, string(status), sceneId, clipId, clipId, projectId)
	if err := s.run(ctx, queryText); err != nil {
		return fmt.Errorf("bigquery scene update failed for project '%s' scene '%s': %w", projectId, sceneId, err)
	}
	return nil
}

// SetFinalVideo records the assembled final video on the project record.
func (s *BigQueryStore) SetFinalVideo(ctx context.Context, projectId string, video *model.FinalVideo) error {
	queryText := fmt.Sprintf(
		"UPDATE `%s` SET final_video = STRUCT('%s' AS path, %d AS size_bytes, %f AS duration_seconds, '%s' AS gcs_bucket, '%s' AS gcs_object, '%s' AS url), updated_at = CURRENT_TIMESTAMP() WHERE id = '%s'",
		s.fqn(s.projectTable), video.Path, video.SizeBytes, video.DurationSeconds, video.GCSBucket, video.GCSObject, video.Url, projectId)
	if err := s.run(ctx, queryText); err != nil {
		return fmt.Errorf("bigquery final video update failed for project '%s': %w", projectId, err)
	}
	return nil
}

// CreateClip streams the clip record into the clip table.
func (s *BigQueryStore) CreateClip(ctx context.Context, clip *model.Clip) error {
	inserter := s.client.Dataset(s.dataset).Table(s.clipTable).Inserter()
	if err := inserter.Put(ctx, clip); err != nil {
		return fmt.Errorf("bigquery insert failed for clip '%s': %w", clip.ClipId, err)
	}
	return nil
}

// UpdateClip rewrites the clip record.
func (s *BigQueryStore) UpdateClip(ctx context.Context, clip *model.Clip) error {
	deleteText := fmt.Sprintf("DELETE FROM `%s` WHERE clip_id = '%s'", s.fqn(s.clipTable), clip.ClipId)
	if err := s.run(ctx, deleteText); err != nil {
		return fmt.Errorf("bigquery delete failed for clip '%s': %w", clip.ClipId, err)
	}
	return s.CreateClip(ctx, clip)
}

// GetClip reads one clip record by id.
func (s *BigQueryStore) GetClip(ctx context.Context, clipId string) (*model.Clip, error) {
	queryText := fmt.Sprintf(QryFindClipById, s.fqn(s.clipTable), clipId)
	return s.readClip(ctx, queryText)
}

// GetClipByScene reads the most recent clip generated for a scene.
func (s *BigQueryStore) GetClipByScene(ctx context.Context, projectId string, sceneId string) (*model.Clip, error) {
	queryText := fmt.Sprintf(QryFindClipByScene, s.fqn(s.clipTable), projectId, sceneId)
	return s.readClip(ctx, queryText)
}

// ListClips reads every clip of a project in creation order.
func (s *BigQueryStore) ListClips(ctx context.Context, projectId string) ([]*model.Clip, error) {
	queryText := fmt.Sprintf(QryListClipsByProject, s.fqn(s.clipTable), projectId)
	itr, err := s.client.Query(queryText).Read(ctx)
	if err != nil {
		return nil, err
	}
	clips := make([]*model.Clip, 0)
	for {
		clip := &model.Clip{}
		err := itr.Next(clip)
		if errors.Is(err, iterator.Done) {
			break
		}
		if err != nil {
			return nil, err
		}
		clips = append(clips, clip)
	}
	return clips, nil
}

func (s *BigQueryStore) readClip(ctx context.Context, queryText string) (*model.Clip, error) {
	itr, err := s.client.Query(queryText).Read(ctx)
	if err != nil {
		return nil, err
	}
	clip := &model.Clip{}
	if err := itr.Next(clip); err != nil {
		if errors.Is(err, iterator.Done) {
			return nil, ErrClipNotFound
		}
		return nil, err
	}
	return clip, nil
}
