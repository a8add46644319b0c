/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package geom

import "testing"

func TestUnionAndContains(t *testing.T) {
	a := R(0, 0, 10, 10)
	b := R(20, 5, 10, 10)
	u := a.Union(b)
	if u != (Rect{X: 0, Y: 0, W: 30, H: 15}) {
		t.Fatalf("union = %+v", u)
	}
	if !u.Contains(Pt{15, 7}) || a.Contains(Pt{15, 7}) {
		t.Fatal("contains misbehaves")
	}
}

func TestNormalize(t *testing.T) {
	r := Rect{X: 100, Y: 50, W: -40, H: -20}.Normalize()
	if r != (Rect{X: 60, Y: 30, W: 40, H: 20}) {
		t.Fatalf("normalize = %+v", r)
	}
}

func TestCenterFraction(t *testing.T) {
	r := R(0, 0, 100, 200).CenterFraction(0.7)
	if r.W != 70 || r.H != 140 {
		t.Fatalf("size = %v x %v", r.W, r.H)
	}
	if r.X != 15 || r.Y != 30 {
		t.Fatalf("origin = %v,%v", r.X, r.Y)
	}
}

func TestSnap(t *testing.T) {
	cases := []struct{ v, spacing, want float64 }{
		{23, 20, 20},
		{31, 20, 40},
		{-9, 20, 0},
		{-11, 20, -20},
		{50, 0, 50}, // disabled
	}
	for _, c := range cases {
		if got := Snap(c.v, c.spacing); got != c.want {
			t.Errorf("Snap(%v,%v) = %v, want %v", c.v, c.spacing, got, c.want)
		}
	}
}

func TestIntersects(t *testing.T) {
	if !R(0, 0, 10, 10).Intersects(R(5, 5, 10, 10)) {
		t.Fatal("overlapping rects should intersect")
	}
	if R(0, 0, 10, 10).Intersects(R(10, 0, 5, 5)) {
		t.Fatal("edge-adjacent rects should not intersect")
	}
}
