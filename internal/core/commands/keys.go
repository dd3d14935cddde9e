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

package commands

// Well-known chain context keys shared between the scene commands and the
// production workflow. The workflow seeds the per-scene keys before each
// scene chain runs and harvests the outputs afterwards.
const (
	// CtxProject holds the *model.Project under production.
	CtxProject = "__project__"
	// CtxScene holds the *model.Scene currently being generated.
	CtxScene = "__scene__"
	// CtxSceneIndex holds the zero-based index of the current scene.
	CtxSceneIndex = "__scene_index__"
	// CtxPreviousClip holds the *model.Clip of the previous scene, absent
	// for the first scene.
	CtxPreviousClip = "__previous_clip__"
	// CtxContinuityElements holds the []model.ContinuityElement extracted
	// from the previous clip's last frame.
	CtxContinuityElements = "__continuity_elements__"
	// CtxReferenceFrame holds the local path of the previous clip's last
	// frame, used to anchor continuation scenes.
	CtxReferenceFrame = "__reference_frame__"
	// CtxRefinement holds the *model.RefinementResult for the scene.
	CtxRefinement = "__refinement__"
	// CtxClip holds the *model.Clip being produced for the scene.
	CtxClip = "__clip__"
	// CtxFrameAnalysis holds the *model.FrameAnalysis of the scene's last
	// frame.
	CtxFrameAnalysis = "__frame_analysis__"
)
