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

package prompt

import (
	"regexp"
	"strings"

	"github.com/jaycherian/gcp-go-commercial-studio/internal/core/model"
)

// modelKeywords catalogs the technical vocabulary known to work well for
// each supported video model, grouped by category.
var modelKeywords = map[string]map[string][]string{
	"veo-3.1": {
		"quality": {"4K quality", "high-resolution", "professional", "cinematic"},
		"lighting": {
			"soft key lighting", "dramatic rim light", "golden hour",
			"studio lighting", "natural light", "diffused lighting",
		},
		"camera": {
			"shallow depth of field", "bokeh", "smooth tracking shot",
			"dolly movement", "crane shot", "steadicam",
		},
		"composition": {
			"rule of thirds", "symmetrical composition", "leading lines",
			"negative space", "balanced frame",
		},
		"style": {
			"luxury commercial aesthetic", "editorial style",
			"fashion photography", "product photography",
		},
	},
}

// sceneTypeKeywords suggests vocabulary per scene type.
var sceneTypeKeywords = map[string][]string{
	"product_reveal": {
		"product photography", "clean background", "focused lighting",
		"detailed texture", "premium presentation",
	},
	"character_closeup": {
		"portrait lighting", "soft focus background", "eye contact",
		"facial expression", "emotional depth",
	},
	"action": {
		"dynamic movement", "motion blur", "energetic", "fluid motion",
	},
	"atmospheric": {
		"moody lighting", "atmospheric", "cinematic mood",
		"dramatic shadows", "depth",
	},
}

// emotionKeywords suggests vocabulary per emotion family. Keys are matched
// as substrings of the scene's emotion text.
var emotionKeywords = map[string][]string{
	"confidence": {"confident posture", "direct gaze", "powerful presence"},
	"mystery":    {"mysterious atmosphere", "enigmatic expression", "shadowy"},
	"joy":        {"bright", "radiant", "joyful energy", "warm tones"},
	"elegance":   {"graceful movement", "refined", "sophisticated", "poised"},
}

var (
	commaSpacing = regexp.MustCompile(`\s*,\s*`)
	multiSpace   = regexp.MustCompile(`\s+`)
)

// Optimizer is the deterministic half of the refinement subsystem. It
// improves a prompt with catalog keywords and structural cleanup without
// any remote calls, so it always succeeds.
type Optimizer struct {
	modelType string
	keywords  map[string][]string
}

// NewOptimizer creates an Optimizer targeting the given video model.
// Unknown models get an empty catalog; structural optimization still works.
func NewOptimizer(modelType string) *Optimizer {
	kw := modelKeywords[modelType]
	if kw == nil {
		kw = map[string][]string{}
	}
	return &Optimizer{modelType: modelType, keywords: kw}
}

// OptimizedPrompt is the result of a full optimization pass.
type OptimizedPrompt struct {
	OriginalPrompt  string   `json:"original_prompt"`
	OptimizedPrompt string   `json:"optimized_prompt"`
	KeywordsAdded   []string `json:"keywords_added"`
	Applied         struct {
		Structure      bool `json:"structure"`
		Keywords       bool `json:"keywords"`
		Cinematography bool `json:"cinematography"`
	} `json:"optimization_applied"`
}

// AddTechnicalKeywords appends catalog keywords the prompt is missing:
// one quality keyword unless the prompt already mentions 4K or quality,
// at most two scene-type keywords, and at most one emotion keyword.
// Matching is case-insensitive and existing text is never removed.
func (o *Optimizer) AddTechnicalKeywords(prompt string, sceneType string, emotion string) string {
	var keywordsToAdd []string
	promptLower := strings.ToLower(prompt)

	if !strings.Contains(prompt, "4K") && !strings.Contains(promptLower, "quality") {
		keywordsToAdd = append(keywordsToAdd, "4K quality")
	}

	sceneKeywords := sceneTypeKeywords[sceneType]
	if len(sceneKeywords) > 2 {
		sceneKeywords = sceneKeywords[:2]
	}
	for _, keyword := range sceneKeywords {
		if !strings.Contains(promptLower, strings.ToLower(keyword)) {
			keywordsToAdd = append(keywordsToAdd, keyword)
		}
	}

	if emotion != "" {
		emotionLower := strings.ToLower(emotion)
		for emotionKey, keywords := range emotionKeywords {
			if !strings.Contains(emotionLower, emotionKey) {
				continue
			}
			for _, keyword := range keywords[:1] {
				if !strings.Contains(promptLower, strings.ToLower(keyword)) {
					keywordsToAdd = append(keywordsToAdd, keyword)
				}
			}
			break
		}
	}

	if len(keywordsToAdd) > 0 {
		return prompt + ", " + strings.Join(keywordsToAdd, ", ")
	}
	return prompt
}

// OptimizeStructure normalizes a prompt: trailing periods removed, comma
// spacing regularized, runs of whitespace collapsed, first letter
// capitalized. Running it on its own output is a no-op.
func (o *Optimizer) OptimizeStructure(prompt string) string {
	prompt = strings.TrimRight(prompt, ". ")
	prompt = commaSpacing.ReplaceAllString(prompt, ", ")
	prompt = strings.TrimSpace(multiSpace.ReplaceAllString(prompt, " "))
	if len(prompt) > 0 {
		prompt = strings.ToUpper(prompt[:1]) + prompt[1:]
	}
	return prompt
}

// movementPhrases maps camera movement terms to their prompt phrasing.
var movementPhrases = []struct{ key, phrase string }{
	{"dolly", "smooth dolly movement"},
	{"pan", "slow pan"},
	{"zoom", "gradual zoom"},
	{"static", "static shot"},
	{"tracking", "tracking shot"},
}

// anglePhrases maps camera angle terms to shot descriptions.
var anglePhrases = []struct{ key, phrase string }{
	{"close-up", "close-up shot"},
	{"medium", "medium shot"},
	{"wide", "wide shot"},
	{"full", "full shot"},
}

// EnhanceCinematography appends camera phrasing derived from the scene's
// camera specs: the movement phrase when the movement term is absent, the
// shot description when the prompt names no shot, and the focal length
// when no lens is mentioned.
func (o *Optimizer) EnhanceCinematography(prompt string, camera *model.CameraSpecs) string {
	if camera == nil {
		return prompt
	}

	var enhancements []string
	promptLower := strings.ToLower(prompt)

	if camera.Movement != "" && !strings.Contains(promptLower, strings.ToLower(camera.Movement)) {
		movementLower := strings.ToLower(camera.Movement)
		for _, m := range movementPhrases {
			if strings.Contains(movementLower, m.key) {
				enhancements = append(enhancements, m.phrase)
				break
			}
		}
	}

	if camera.Angle != "" && !strings.Contains(promptLower, "shot") {
		angleLower := strings.ToLower(camera.Angle)
		for _, a := range anglePhrases {
			if strings.Contains(angleLower, a.key) {
				enhancements = append(enhancements, a.phrase)
				break
			}
		}
	}

	if camera.FocalLength != "" && !strings.Contains(promptLower, "mm") {
		enhancements = append(enhancements, camera.FocalLength+" lens")
	}

	if len(enhancements) > 0 {
		return prompt + ", " + strings.Join(enhancements, ", ")
	}
	return prompt
}

// GetModelKeywords returns the catalog keywords for the target model, for
// one category or flattened across all of them.
func (o *Optimizer) GetModelKeywords(category string) []string {
	if category == "all" {
		var all []string
		for _, keywords := range o.keywords {
			all = append(all, keywords...)
		}
		return all
	}
	return o.keywords[category]
}

// OptimizeFullPrompt runs the complete deterministic pass: structure
// cleanup, technical keywords, then cinematography, recording which
// keywords were appended.
func (o *Optimizer) OptimizeFullPrompt(prompt string, sceneType string, emotion string, camera *model.CameraSpecs) *OptimizedPrompt {
	out := &OptimizedPrompt{OriginalPrompt: prompt}

	optimized := o.OptimizeStructure(prompt)

	beforeKeywords := optimized
	optimized = o.AddTechnicalKeywords(optimized, sceneType, emotion)
	if optimized != beforeKeywords {
		added := strings.Trim(optimized[len(beforeKeywords):], ", ")
		for _, k := range strings.Split(added, ",") {
			out.KeywordsAdded = append(out.KeywordsAdded, strings.TrimSpace(k))
		}
	}

	optimized = o.EnhanceCinematography(optimized, camera)

	out.OptimizedPrompt = optimized
	out.Applied.Structure = true
	out.Applied.Keywords = len(out.KeywordsAdded) > 0
	out.Applied.Cinematography = camera != nil
	return out
}
