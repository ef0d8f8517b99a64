package geometry

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPointsFromFlat(t *testing.T) {
	pts, err := PointsFromFlat([]float64{0.1, 0.2, 0.3, 0.4})
	require.NoError(t, err)
	assert.Equal(t, []Point{{0.1, 0.2}, {0.3, 0.4}}, pts)

	_, err = PointsFromFlat([]float64{0.1, 0.2, 0.3})
	require.ErrorIs(t, err, ErrOddCoordinates)

	pts, err = PointsFromFlat(nil)
	require.NoError(t, err)
	assert.Empty(t, pts)
}

func TestFlatten(t *testing.T) {
	assert.Equal(t, []float64{1, 2, 3, 4, 5, 6}, Flatten([]Point{{1, 2}, {3, 4}, {5, 6}}))
	assert.Empty(t, Flatten(nil))
}

func TestDenormalize(t *testing.T) {
	pts := []Point{{0.1, 0.1}, {0.5, 0.1}, {0.5, 0.5}, {0.1, 0.5}}
	got := Denormalize(pts, 100, 200)

	want := []Point{{10, 20}, {50, 20}, {50, 100}, {10, 100}}
	require.Len(t, got, len(want))
	for i := range want {
		assert.InDelta(t, want[i].X, got[i].X, 1e-9)
		assert.InDelta(t, want[i].Y, got[i].Y, 1e-9)
	}
}

func TestNormalize_ZeroDimensions(t *testing.T) {
	got := Normalize([]Point{{10, 20}}, 0, 0)
	assert.Equal(t, []Point{{0, 0}}, got)
}

func TestBounds(t *testing.T) {
	tests := []struct {
		name string
		pts  []Point
		want [4]float64
	}{
		{
			name: "square",
			pts:  []Point{{10, 20}, {50, 20}, {50, 100}, {10, 100}},
			want: [4]float64{10, 20, 40, 80},
		},
		{
			name: "single point",
			pts:  []Point{{3, 4}},
			want: [4]float64{3, 4, 0, 0},
		},
		{
			name: "collinear horizontal",
			pts:  []Point{{1, 5}, {4, 5}, {9, 5}},
			want: [4]float64{1, 5, 8, 0},
		},
		{
			name: "empty",
			pts:  nil,
			want: [4]float64{0, 0, 0, 0},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Bounds(tt.pts).XYWH())
		})
	}
}

func TestBoxContains(t *testing.T) {
	b := Box{MinX: 0, MinY: 0, MaxX: 10, MaxY: 5}
	assert.True(t, b.Contains(Point{0, 0}))
	assert.True(t, b.Contains(Point{10, 5}))
	assert.False(t, b.Contains(Point{10.1, 5}))
}

func TestPolygonArea(t *testing.T) {
	tests := []struct {
		name string
		pts  []Point
		want float64
	}{
		{"empty", nil, 0},
		{"single point", []Point{{1, 1}}, 0},
		{"segment", []Point{{0, 0}, {4, 4}}, 0},
		{"unit square", []Point{{0, 0}, {1, 0}, {1, 1}, {0, 1}}, 1},
		{"clockwise square", []Point{{0, 0}, {0, 1}, {1, 1}, {1, 0}}, 1},
		{"right triangle", []Point{{0, 0}, {4, 0}, {0, 3}}, 6},
		{"collinear", []Point{{0, 0}, {1, 1}, {2, 2}}, 0},
		{"denormalized square", []Point{{10, 20}, {50, 20}, {50, 100}, {10, 100}}, 3200},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, PolygonArea(tt.pts), 1e-9)
		})
	}
}

func TestAllFinite(t *testing.T) {
	assert.True(t, AllFinite())
	assert.True(t, AllFinite(0, -1.5, math.MaxFloat64))
	assert.False(t, AllFinite(1, math.Inf(1)))
	assert.False(t, AllFinite(math.Inf(-1)))
	assert.False(t, AllFinite(2, math.NaN()))
}
