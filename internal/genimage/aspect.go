/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package genimage generates board panel images through the Gemini API:
// prompt enhancement and reference-image description via a text model,
// image synthesis via Imagen.
package genimage

import "fmt"

// AspectRatio is the generation aspect token passed to the image model.
type AspectRatio string

const (
	AspectSquare    AspectRatio = "1:1"
	AspectWide      AspectRatio = "16:9"
	AspectTall      AspectRatio = "9:16"
	AspectClassic   AspectRatio = "4:3"
	AspectPortrait  AspectRatio = "3:4"
	DefaultAspect               = AspectSquare
	aspectShortSide             = 300.0
)

// Valid reports whether a is one of the supported tokens.
func (a AspectRatio) Valid() bool {
	switch a {
	case AspectSquare, AspectWide, AspectTall, AspectClassic, AspectPortrait:
		return true
	}
	return false
}

// Size returns the world-unit dimensions of a placed panel with this
// aspect ratio. The short side is fixed at 300 so generated panels land
// on the board at a consistent scale.
func (a AspectRatio) Size() (w, h float64) {
	switch a {
	case AspectWide:
		return 533, aspectShortSide
	case AspectTall:
		return aspectShortSide, 533
	case AspectClassic:
		return 400, aspectShortSide
	case AspectPortrait:
		return aspectShortSide, 400
	default:
		return aspectShortSide, aspectShortSide
	}
}

// ParseAspect validates a user-supplied token, defaulting empty input
// to the square aspect.
func ParseAspect(s string) (AspectRatio, error) {
	if s == "" {
		return DefaultAspect, nil
	}
	a := AspectRatio(s)
	if !a.Valid() {
		return "", fmt.Errorf("unsupported aspect ratio %q", s)
	}
	return a, nil
}
