package profile

import (
	"context"
	"testing"

	"github.com/arcadelab/gamerec/core"
	"github.com/arcadelab/gamerec/store"
)

func TestLoadRatings_Fallback(t *testing.T) {
	s := store.NewMemoryStore()
	s.Insert("game_feedback",
		core.Document{
			"UserID": 42, "StationID": 7,
			"rating": []any{
				map[string]any{"AppID": 101, "RatingType": "positive"},
				map[string]any{"AppID": "102", "RatingType": "negative"},
			},
		},
		core.Document{
			"UserID": 1, "StationID": 1,
			"rating": []any{
				map[string]any{"AppID": 500, "RatingType": "positive"},
			},
		},
	)
	agg := NewAggregator(s)

	tests := []struct {
		name       string
		userID     int64
		stationID  int64
		wantOrigin core.RatingOrigin
		wantLen    int
	}{
		{"primary key hit", 42, 7, core.OriginUser, 2},
		{"fallback to default key", 9, 9, core.OriginDefault, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			set, err := agg.LoadRatings(context.Background(), tt.userID, tt.stationID)
			if err != nil {
				t.Fatalf("LoadRatings: %v", err)
			}
			if set.Origin != tt.wantOrigin {
				t.Errorf("Origin = %v, want %v", set.Origin, tt.wantOrigin)
			}
			if len(set.Ratings) != tt.wantLen {
				t.Errorf("len(Ratings) = %d, want %d", len(set.Ratings), tt.wantLen)
			}
		})
	}
}

func TestLoadRatings_LegacyStringAppID(t *testing.T) {
	s := store.NewMemoryStore()
	s.Insert("game_feedback", core.Document{
		"UserID": 1, "StationID": 2,
		"rating": []any{
			map[string]any{"AppID": "730", "RatingType": "positive"},
		},
	})
	agg := NewAggregator(s)

	set, err := agg.LoadRatings(context.Background(), 1, 2)
	if err != nil {
		t.Fatalf("LoadRatings: %v", err)
	}
	if len(set.Ratings) != 1 || set.Ratings[0].AppID != 730 {
		t.Fatalf("ratings = %v, want single AppID 730", set.Ratings)
	}
}

func TestLoadRatings_NeitherKeyPresent(t *testing.T) {
	agg := NewAggregator(store.NewMemoryStore())

	set, err := agg.LoadRatings(context.Background(), 5, 5)
	if err != nil {
		t.Fatalf("missing ratings must not be an error here: %v", err)
	}
	if set.Origin != core.OriginNone {
		t.Errorf("Origin = %v, want none", set.Origin)
	}
	if len(set.Ratings) != 0 {
		t.Errorf("Ratings = %v, want empty", set.Ratings)
	}
}

func TestLoadRatings_UnparsableAppID(t *testing.T) {
	s := store.NewMemoryStore()
	s.Insert("game_feedback", core.Document{
		"UserID": 3, "StationID": 3,
		"rating": []any{
			map[string]any{"AppID": "not-a-number", "RatingType": "positive"},
		},
	})
	agg := NewAggregator(s)

	_, err := agg.LoadRatings(context.Background(), 3, 3)
	if !core.IsInvalidRatingData(err) {
		t.Fatalf("err = %v, want INVALID_RATING_DATA", err)
	}
}

func TestLoadRatings_SkipsNonMapEntries(t *testing.T) {
	s := store.NewMemoryStore()
	s.Insert("game_feedback", core.Document{
		"UserID": 3, "StationID": 4,
		"rating": []any{
			"garbage",
			map[string]any{"RatingType": "positive"}, // 缺 AppID，跳过
			map[string]any{"AppID": 9, "RatingType": "negative"},
		},
	})
	agg := NewAggregator(s)

	set, err := agg.LoadRatings(context.Background(), 3, 4)
	if err != nil {
		t.Fatalf("LoadRatings: %v", err)
	}
	if len(set.Ratings) != 1 || set.Ratings[0].AppID != 9 {
		t.Fatalf("ratings = %v, want single AppID 9", set.Ratings)
	}
}

func TestLoadRatings_QuizSourceTag(t *testing.T) {
	s := store.NewMemoryStore()
	s.Insert("game_feedback", core.Document{
		"UserID": 8, "StationID": 8,
		"rating": []any{
			map[string]any{"AppID": 1, "RatingType": "positive", "source": "quiz"},
			map[string]any{"AppID": 2, "RatingType": "positive"},
		},
	})
	agg := NewAggregator(s)

	set, err := agg.LoadRatings(context.Background(), 8, 8)
	if err != nil {
		t.Fatalf("LoadRatings: %v", err)
	}
	if set.Ratings[0].Source != core.SourceQuiz {
		t.Errorf("Ratings[0].Source = %v, want quiz", set.Ratings[0].Source)
	}
	if set.Ratings[1].Source != core.SourceExplicit {
		t.Errorf("Ratings[1].Source = %v, want explicit", set.Ratings[1].Source)
	}
}

func TestRatedItemIDs(t *testing.T) {
	ids := RatedItemIDs([]core.Rating{
		{AppID: 3}, {AppID: 1}, {AppID: 3},
	})
	want := []int64{3, 1, 3}
	if len(ids) != len(want) {
		t.Fatalf("ids = %v, want %v", ids, want)
	}
	for i := range want {
		if ids[i] != want[i] {
			t.Errorf("ids[%d] = %d, want %d (order preserved, no dedupe)", i, ids[i], want[i])
		}
	}
}
