// SPDX-License-Identifier: EPL-2.0

package utils

import (
	"math"
	"testing"
)

func TestCubicInterpolate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name           string
		y0, y1, y2, y3 float32
		x              float32
		want           float32
		tolerance      float32
	}{
		{"start returns y1", 0.0, 1.0, 2.0, 3.0, 0.0, 1.0, 0.001},
		{"end returns y2", 0.0, 1.0, 2.0, 3.0, 1.0, 2.0, 0.001},
		{"linear data stays linear", 1.0, 2.0, 3.0, 4.0, 0.25, 2.25, 0.01},
		{"zero values", 0.0, 0.0, 0.0, 0.0, 0.5, 0.0, 0.001},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got := CubicInterpolate(tt.y0, tt.y1, tt.y2, tt.y3, tt.x)
			diff := float32(math.Abs(float64(got - tt.want)))

			if diff > tt.tolerance {
				t.Errorf("CubicInterpolate() = %v, want %v (tolerance %v, diff %v)",
					got, tt.want, tt.tolerance, diff)
			}
		})
	}
}

func TestCubicInterpolateMonotonic(t *testing.T) {
	t.Parallel()

	y0, y1, y2, y3 := float32(1.0), float32(2.0), float32(3.0), float32(4.0)
	for x := float32(0.0); x <= 1.0; x += 0.1 {
		result := CubicInterpolate(y0, y1, y2, y3, x)
		if result < y1-0.5 || result > y2+0.5 {
			t.Errorf("x=%v: result %v outside reasonable range [%v, %v]",
				x, result, y1-0.5, y2+0.5)
		}
	}
}
