package similarity

import (
	"math"
	"testing"
)

func almostEqual(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

func TestCosine(t *testing.T) {
	tests := []struct {
		name string
		a, b []float64
		want float64
	}{
		{
			name: "identical vectors",
			a:    []float64{1, 2, 3},
			b:    []float64{1, 2, 3},
			want: 1.0,
		},
		{
			name: "orthogonal vectors",
			a:    []float64{1, 0},
			b:    []float64{0, 1},
			want: 0.0,
		},
		{
			name: "opposite vectors",
			a:    []float64{1, 2},
			b:    []float64{-1, -2},
			want: -1.0,
		},
		{
			name: "zero norm left",
			a:    []float64{0, 0, 0},
			b:    []float64{1, 2, 3},
			want: 0.0,
		},
		{
			name: "zero norm right",
			a:    []float64{1, 2, 3},
			b:    []float64{0, 0, 0},
			want: 0.0,
		},
		{
			name: "both zero norm",
			a:    []float64{0, 0},
			b:    []float64{0, 0},
			want: 0.0,
		},
		{
			name: "empty vectors",
			a:    nil,
			b:    nil,
			want: 0.0,
		},
		{
			name: "known value",
			a:    []float64{5, 4, 2, 0},
			b:    []float64{3, 4, 0, 5},
			want: 31.0 / (math.Sqrt(45) * math.Sqrt(50)),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Cosine(tt.a, tt.b)
			if math.IsNaN(got) {
				t.Fatalf("Cosine(%v, %v) = NaN", tt.a, tt.b)
			}
			if !almostEqual(got, tt.want) {
				t.Errorf("Cosine(%v, %v) = %v, want %v", tt.a, tt.b, got, tt.want)
			}
		})
	}
}

func TestCosineNeverNaN(t *testing.T) {
	vectors := [][]float64{
		{}, {0}, {0, 0, 0}, {1}, {1, 0, 0},
	}
	for _, a := range vectors {
		for _, b := range vectors {
			if got := Cosine(a, b); math.IsNaN(got) {
				t.Errorf("Cosine(%v, %v) = NaN", a, b)
			}
		}
	}
}

func TestPearson(t *testing.T) {
	tests := []struct {
		name string
		a, b []float64
		want float64
	}{
		{
			name: "perfect positive correlation",
			a:    []float64{1, 2, 3},
			b:    []float64{2, 4, 6},
			want: 1.0,
		},
		{
			name: "perfect negative correlation",
			a:    []float64{1, 2, 3},
			b:    []float64{3, 2, 1},
			want: -1.0,
		},
		{
			name: "zero positions excluded from overlap",
			// 位置 2 和 3 各有一侧为 0（未评分哨兵），只剩 1 个有效重叠
			a:    []float64{5, 0, 2},
			b:    []float64{4, 3, 0},
			want: 0.0,
		},
		{
			name: "insufficient overlap",
			a:    []float64{5},
			b:    []float64{4},
			want: 0.0,
		},
		{
			name: "empty vectors",
			a:    nil,
			b:    nil,
			want: 0.0,
		},
		{
			name: "constant vector has zero variance",
			a:    []float64{3, 3, 3},
			b:    []float64{1, 2, 3},
			want: 0.0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Pearson(tt.a, tt.b)
			if math.IsNaN(got) {
				t.Fatalf("Pearson(%v, %v) = NaN", tt.a, tt.b)
			}
			if !almostEqual(got, tt.want) {
				t.Errorf("Pearson(%v, %v) = %v, want %v", tt.a, tt.b, got, tt.want)
			}
		})
	}
}

func TestPearsonOverlapRule(t *testing.T) {
	// 双方都非零的位置为 [5,4,1] vs [4,5,2]，结果必须与直接在该
	// 子集上计算一致，而不是把 0 当作真实评分。
	a := []float64{5, 4, 1, 0}
	b := []float64{4, 5, 2, 5}
	got := Pearson(a, b)
	want := Pearson([]float64{5, 4, 1}, []float64{4, 5, 2})
	if !almostEqual(got, want) {
		t.Errorf("Pearson with zero positions = %v, want %v", got, want)
	}
	if got <= 0 {
		t.Errorf("expected positive correlation, got %v", got)
	}
}
