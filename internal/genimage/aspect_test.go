/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package genimage

import "testing"

func TestAspectSizes(t *testing.T) {
	cases := []struct {
		aspect AspectRatio
		w, h   float64
	}{
		{AspectSquare, 300, 300},
		{AspectWide, 533, 300},
		{AspectTall, 300, 533},
		{AspectClassic, 400, 300},
		{AspectPortrait, 300, 400},
	}
	for _, c := range cases {
		w, h := c.aspect.Size()
		if w != c.w || h != c.h {
			t.Errorf("%s: got %gx%g want %gx%g", c.aspect, w, h, c.w, c.h)
		}
	}
}

func TestParseAspect(t *testing.T) {
	if a, err := ParseAspect(""); err != nil || a != AspectSquare {
		t.Fatalf("empty should default to 1:1, got %s %v", a, err)
	}
	if a, err := ParseAspect("16:9"); err != nil || a != AspectWide {
		t.Fatalf("16:9: got %s %v", a, err)
	}
	if _, err := ParseAspect("2:1"); err == nil {
		t.Fatal("expected error for unsupported ratio")
	}
}

func TestNewRequiresKey(t *testing.T) {
	if _, err := New(t.Context(), "  "); err != ErrAPIKeyMissing {
		t.Fatalf("expected ErrAPIKeyMissing, got %v", err)
	}
}
