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

// Package services contains the business logic behind the API handlers.
// This file defines the ProductionService: read access to projects and
// clips plus secure, time-limited URLs for the video artifacts in Google
// Cloud Storage.
package services

import (
	"context"
	"fmt"
	"time"

	credentials "cloud.google.com/go/iam/credentials/apiv1"
	"cloud.google.com/go/iam/credentials/apiv1/credentialspb"
	"cloud.google.com/go/storage"
	"github.com/jaycherian/gcp-go-commercial-studio/internal/core/model"
	"github.com/jaycherian/gcp-go-commercial-studio/internal/core/store"
)

// ProductionService is the data access layer for the API: it reads
// projects and clips from the production store and signs GCS URLs so
// browsers can stream clips and final videos without credentials.
type ProductionService struct {
	Store         store.ProductionStore             // The persistence layer for projects and clips.
	StorageClient *storage.Client                   // Client for interacting with Google Cloud Storage.
	IAMClient     *credentials.IamCredentialsClient // Client used for signing URLs via the IAM Credentials API.
	SignerEmail   string                            // The service account email used to sign URLs.
}

// GetProject returns the project by id.
func (s *ProductionService) GetProject(ctx context.Context, id string) (*model.Project, error) {
	return s.Store.GetProject(ctx, id)
}

// CreateProject persists a new project.
func (s *ProductionService) CreateProject(ctx context.Context, project *model.Project) error {
	return s.Store.CreateProject(ctx, project)
}

// UpdateProject replaces the stored project.
func (s *ProductionService) UpdateProject(ctx context.Context, project *model.Project) error {
	return s.Store.UpdateProject(ctx, project)
}

// GetClip returns the clip by id.
func (s *ProductionService) GetClip(ctx context.Context, id string) (*model.Clip, error) {
	return s.Store.GetClip(ctx, id)
}

// ListClips returns every clip of a project in creation order.
func (s *ProductionService) ListClips(ctx context.Context, projectId string) ([]*model.Clip, error) {
	return s.Store.ListClips(ctx, projectId)
}

// SignedClipURL returns a time-limited URL for a clip's archived video.
func (s *ProductionService) SignedClipURL(ctx context.Context, clipId string, expires time.Duration) (string, error) {
	clip, err := s.Store.GetClip(ctx, clipId)
	if err != nil {
		return "", err
	}
	if clip.File == nil || clip.File.GCSBucket == "" || clip.File.GCSObject == "" {
		return "", fmt.Errorf("clip %s has not been archived yet", clipId)
	}
	return s.GenerateSignedURL(ctx, clip.File.GCSBucket, clip.File.GCSObject, expires)
}

// SignedFinalVideoURL returns a time-limited URL for a project's
// assembled commercial.
func (s *ProductionService) SignedFinalVideoURL(ctx context.Context, projectId string, expires time.Duration) (string, error) {
	project, err := s.Store.GetProject(ctx, projectId)
	if err != nil {
		return "", err
	}
	if project.FinalVideo == nil || project.FinalVideo.GCSBucket == "" || project.FinalVideo.GCSObject == "" {
		return "", fmt.Errorf("project %s has no final video", projectId)
	}
	return s.GenerateSignedURL(ctx, project.FinalVideo.GCSBucket, project.FinalVideo.GCSObject, expires)
}

// GenerateSignedURL creates a time-limited, secure URL for a private GCS
// object. Signing goes through the IAM Credentials API with the
// configured service account, so no private key material is needed on
// the server.
func (s *ProductionService) GenerateSignedURL(ctx context.Context, bucket string, object string, expires time.Duration) (string, error) {
	opts := &storage.SignedURLOptions{
		Scheme:         storage.SigningSchemeV4,
		Method:         "GET",
		Expires:        time.Now().Add(expires),
		GoogleAccessID: s.SignerEmail,
		SignBytes: func(b []byte) ([]byte, error) {
			req := &credentialspb.SignBlobRequest{
				Name:    fmt.Sprintf("projects/-/serviceAccounts/%s", s.SignerEmail),
				Payload: b,
			}
			resp, err := s.IAMClient.SignBlob(ctx, req)
			if err != nil {
				return nil, fmt.Errorf("IAMClient.SignBlob: %w", err)
			}
			return resp.SignedBlob, nil
		},
	}

	u, err := s.StorageClient.Bucket(bucket).SignedURL(object, opts)
	if err != nil {
		return "", fmt.Errorf("Bucket(%q).Object(%q).SignedURL: %w", bucket, object, err)
	}
	return u, nil
}
