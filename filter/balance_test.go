package filter

import (
	"math/rand"
	"testing"

	"github.com/arcadelab/gamerec/core"
)

func TestSelect_InvalidCount(t *testing.T) {
	b := NewBalance()
	for _, n := range []int{0, -1} {
		if _, err := b.Select([]int64{1, 2}, nil, n); !core.IsInvalidCount(err) {
			t.Errorf("Select(n=%d) err = %v, want INVALID_COUNT", n, err)
		}
	}
}

func TestSelect_NoCandidates(t *testing.T) {
	b := NewBalance()
	if _, err := b.Select(nil, []int64{1}, 4); !core.IsNoCandidates(err) {
		t.Errorf("err = %v, want NO_CANDIDATES", err)
	}
}

func TestSelect_NoRatedPassThrough(t *testing.T) {
	b := &Balance{Rand: rand.New(rand.NewSource(1))}

	// 无已评分集合：保持相似度顺序原样返回，不洗牌
	got, err := b.Select([]int64{5, 6}, nil, 4)
	if err != nil {
		t.Fatalf("Select: %v", err)
	}
	if len(got) != 2 || got[0] != 5 || got[1] != 6 {
		t.Fatalf("got %v, want [5 6] unchanged", got)
	}
}

func TestSelect_NoRatedTruncatesToN(t *testing.T) {
	b := NewBalance()
	got, err := b.Select([]int64{1, 2, 3, 4, 5}, nil, 3)
	if err != nil {
		t.Fatalf("Select: %v", err)
	}
	want := []int64{1, 2, 3}
	if len(got) != 3 {
		t.Fatalf("got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("got[%d] = %d, want %d", i, got[i], want[i])
		}
	}
}

func TestSelect_FamiliarNovelMix(t *testing.T) {
	b := &Balance{Rand: rand.New(rand.NewSource(42))}
	candidates := []int64{1, 2, 3, 4, 5, 6, 7, 8, 9, 10}
	rated := []int64{3, 7}

	got, err := b.Select(candidates, rated, 4)
	if err != nil {
		t.Fatalf("Select: %v", err)
	}
	if len(got) != 4 {
		t.Fatalf("got %d items, want 4", len(got))
	}

	ratedSet := map[int64]bool{3: true, 7: true}
	seen := make(map[int64]bool)
	familiarCount := 0
	for _, id := range got {
		if seen[id] {
			t.Errorf("duplicate id %d in %v", id, got)
		}
		seen[id] = true
		if ratedSet[id] {
			familiarCount++
		}
	}
	// floor(0.25 * 4) = 1 个熟悉物品，其余 3 个新颖
	if familiarCount != 1 {
		t.Errorf("familiar count = %d, want exactly 1 (got %v)", familiarCount, got)
	}
}

func TestSelect_FamiliarQuotaCappedByAvailability(t *testing.T) {
	b := &Balance{Rand: rand.New(rand.NewSource(7))}

	// 熟悉配额 floor(0.25*8)=2，但熟悉分区只有 1 个候选
	candidates := []int64{1, 2, 3, 4, 5}
	got, err := b.Select(candidates, []int64{2}, 8)
	if err != nil {
		t.Fatalf("Select: %v", err)
	}
	// 1 熟悉 + 4 新颖 = 全部候选，短于 n 是允许的
	if len(got) != 5 {
		t.Fatalf("got %v, want all 5 candidates", got)
	}
	hasFamiliar := false
	for _, id := range got {
		if id == 2 {
			hasFamiliar = true
		}
	}
	if !hasFamiliar {
		t.Errorf("familiar item 2 missing from %v", got)
	}
}

func TestSelect_AllCandidatesRated(t *testing.T) {
	b := &Balance{Rand: rand.New(rand.NewSource(3))}

	// 新颖分区为空：只能给出熟悉配额的数量
	got, err := b.Select([]int64{1, 2, 3, 4}, []int64{1, 2, 3, 4}, 4)
	if err != nil {
		t.Fatalf("Select: %v", err)
	}
	// floor(0.25*4) = 1
	if len(got) != 1 {
		t.Fatalf("got %v, want exactly the familiar quota (1 item)", got)
	}
}

func TestSelect_SmallNHasNoFamiliarQuota(t *testing.T) {
	b := &Balance{Rand: rand.New(rand.NewSource(9))}

	// floor(0.25*3) = 0：结果全部来自新颖分区
	candidates := []int64{1, 2, 3, 4, 5, 6}
	rated := []int64{1, 2}
	got, err := b.Select(candidates, rated, 3)
	if err != nil {
		t.Fatalf("Select: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("got %v, want 3 items", got)
	}
	for _, id := range got {
		if id == 1 || id == 2 {
			t.Errorf("familiar item %d selected with zero familiar quota: %v", id, got)
		}
	}
}

func TestPick_DoesNotMutateInput(t *testing.T) {
	b := &Balance{Rand: rand.New(rand.NewSource(5))}
	in := []int64{1, 2, 3, 4, 5}
	snapshot := []int64{1, 2, 3, 4, 5}

	b.pick(in, 3)
	for i := range snapshot {
		if in[i] != snapshot[i] {
			t.Fatalf("input mutated: %v", in)
		}
	}
}
