package filter

import (
	"testing"
)

func TestNewRuleFilter_CompileError(t *testing.T) {
	if _, err := NewRuleFilter([]string{"tags[["}); err == nil {
		t.Fatal("invalid expression must fail at construction")
	}
}

func TestRuleFilter_Excluded(t *testing.T) {
	rf, err := NewRuleFilter([]string{
		`"horror" in tags && tags["horror"] > 0.5`,
		`familiar && distance > 0.8`,
	})
	if err != nil {
		t.Fatalf("NewRuleFilter: %v", err)
	}

	tests := []struct {
		name string
		cand *Candidate
		want bool
	}{
		{
			name: "heavy horror excluded",
			cand: &Candidate{ID: 1, Distance: 0.2, Tags: map[string]float64{"horror": 0.9}},
			want: true,
		},
		{
			name: "light horror kept",
			cand: &Candidate{ID: 2, Distance: 0.2, Tags: map[string]float64{"horror": 0.1}},
			want: false,
		},
		{
			name: "no horror tag kept",
			cand: &Candidate{ID: 3, Distance: 0.2, Tags: map[string]float64{"action": 1}},
			want: false,
		},
		{
			name: "distant familiar excluded",
			cand: &Candidate{ID: 4, Distance: 0.9, Familiar: true, Tags: map[string]float64{}},
			want: true,
		},
		{
			name: "distant but novel kept",
			cand: &Candidate{ID: 5, Distance: 0.9, Familiar: false, Tags: map[string]float64{}},
			want: false,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := rf.Excluded(tt.cand)
			if err != nil {
				t.Fatalf("Excluded: %v", err)
			}
			if got != tt.want {
				t.Errorf("Excluded = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestRuleFilter_NilCandidate(t *testing.T) {
	rf, err := NewRuleFilter(nil)
	if err != nil {
		t.Fatalf("NewRuleFilter: %v", err)
	}
	if excluded, _ := rf.Excluded(nil); !excluded {
		t.Error("nil candidate should be excluded")
	}
}

func TestChain_Apply(t *testing.T) {
	rf, err := NewRuleFilter([]string{`id == 2`})
	if err != nil {
		t.Fatalf("NewRuleFilter: %v", err)
	}
	chain := &Chain{Filters: []Filter{rf}}

	in := []*Candidate{
		{ID: 1, Tags: map[string]float64{}},
		{ID: 2, Tags: map[string]float64{}},
		nil,
		{ID: 3, Tags: map[string]float64{}},
	}
	out := chain.Apply(in)
	ids := IDs(out)
	if len(ids) != 2 || ids[0] != 1 || ids[1] != 3 {
		t.Fatalf("ids = %v, want [1 3] with order preserved", ids)
	}
}

func TestChain_NilAndEmptyPassThrough(t *testing.T) {
	in := []*Candidate{{ID: 1}}

	var nilChain *Chain
	if out := nilChain.Apply(in); len(out) != 1 {
		t.Errorf("nil chain must pass candidates through, got %v", out)
	}
	empty := &Chain{}
	if out := empty.Apply(in); len(out) != 1 {
		t.Errorf("empty chain must pass candidates through, got %v", out)
	}
}
