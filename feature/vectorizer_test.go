package feature

import (
	"math"
	"testing"

	"github.com/arcadelab/gamerec/core"
)

func TestVectorize_DimensionInvariant(t *testing.T) {
	items := []TaggedItem{
		{ID: 1, Tags: map[string]float64{"action": 1, "shooter": 0.5}},
		{ID: 2, Tags: map[string]float64{"strategy": 1}},
		{ID: 3, Tags: map[string]float64{"action": 0.3, "horror": 0.9}},
	}

	ids, dims, matrix := Vectorize(items)
	if len(ids) != 3 {
		t.Fatalf("ids = %d, want 3", len(ids))
	}
	// 维度集合是所有键的排序并集
	wantDims := []string{"action", "horror", "shooter", "strategy"}
	if len(dims) != len(wantDims) {
		t.Fatalf("dims = %v, want %v", dims, wantDims)
	}
	for i, d := range wantDims {
		if dims[i] != d {
			t.Errorf("dims[%d] = %q, want %q", i, dims[i], d)
		}
	}
	// 每行恰好 |dims| 个分量，缺失维度为 0
	for i, row := range matrix {
		if len(row) != len(dims) {
			t.Errorf("row %d has %d components, want %d", i, len(row), len(dims))
		}
	}
	if matrix[1][0] != 0 {
		t.Errorf("missing dimension should contribute 0, got %v", matrix[1][0])
	}
	if matrix[0][0] != 1 {
		t.Errorf("matrix[0][action] = %v, want 1", matrix[0][0])
	}
}

func TestVectorize_Empty(t *testing.T) {
	ids, dims, matrix := Vectorize(nil)
	if ids != nil || dims != nil || matrix != nil {
		t.Fatalf("empty input should yield explicit empty result, got %v %v %v", ids, dims, matrix)
	}
}

func TestNormalize_Idempotent(t *testing.T) {
	matrix := [][]float64{{3, 4}}
	once := Normalize(matrix)
	twice := Normalize(once)

	if math.Abs(once[0][0]-0.6) > 1e-12 || math.Abs(once[0][1]-0.8) > 1e-12 {
		t.Fatalf("normalized row = %v, want [0.6 0.8]", once[0])
	}
	for i := range once[0] {
		if math.Abs(once[0][i]-twice[0][i]) > 1e-9 {
			t.Errorf("normalization not idempotent at %d: %v vs %v", i, once[0][i], twice[0][i])
		}
	}
	// 输入不被修改
	if matrix[0][0] != 3 {
		t.Errorf("input mutated: %v", matrix[0])
	}
}

func TestNormalize_ZeroRowIsFinite(t *testing.T) {
	out := Normalize([][]float64{{0, 0, 0}})
	for i, v := range out[0] {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			t.Errorf("component %d not finite: %v", i, v)
		}
	}
}

// fakeSource 是测试用的 ItemVectorSource。
type fakeSource struct {
	dim  int
	vecs map[int64][]float64
}

func (f *fakeSource) Dim() int { return f.dim }
func (f *fakeSource) VectorByID(id int64) ([]float64, bool) {
	v, ok := f.vecs[id]
	return v, ok
}

func TestVectorizePreference(t *testing.T) {
	src := &fakeSource{
		dim: 2,
		vecs: map[int64][]float64{
			10: {1, 0},
			20: {0, 1},
		},
	}

	tests := []struct {
		name    string
		ratings []core.Rating
		want    []float64 // nil 表示期望无信号
	}{
		{
			name: "positive rating follows item vector",
			ratings: []core.Rating{
				{AppID: 10, Polarity: core.PolarityPositive},
			},
			want: []float64{1, 0},
		},
		{
			name: "negative cancels positive to zero signal",
			ratings: []core.Rating{
				{AppID: 10, Polarity: core.PolarityPositive},
				{AppID: 10, Polarity: core.PolarityNegative},
			},
			want: nil,
		},
		{
			name: "unknown item ids are skipped",
			ratings: []core.Rating{
				{AppID: 999, Polarity: core.PolarityPositive},
			},
			want: nil,
		},
		{
			name: "neutral polarity contributes nothing",
			ratings: []core.Rating{
				{AppID: 20, Polarity: "meh"},
			},
			want: nil,
		},
		{
			name: "mixed ratings normalize",
			ratings: []core.Rating{
				{AppID: 10, Polarity: core.PolarityPositive},
				{AppID: 20, Polarity: core.PolarityNegative},
			},
			want: []float64{1 / math.Sqrt2, -1 / math.Sqrt2},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := VectorizePreference(tt.ratings, src)
			if tt.want == nil {
				if got != nil {
					t.Fatalf("want nil (no signal), got %v", got)
				}
				return
			}
			if got == nil {
				t.Fatalf("want %v, got nil", tt.want)
			}
			for i := range tt.want {
				if math.Abs(got[i]-tt.want[i]) > 1e-9 {
					t.Errorf("component %d = %v, want %v", i, got[i], tt.want[i])
				}
			}
		})
	}
}
