package filter

import (
	"context"
	"testing"

	"github.com/rushteam/shoprec/core"
	"github.com/rushteam/shoprec/store"
)

func testContext() *core.RecommendContext {
	return &core.RecommendContext{
		Catalog: core.Catalog{
			{ID: 1, Category: "bags", Price: 109.95, Rating: core.Rating{Rate: 3.9}},
			{ID: 2, Category: "jewelery", Price: 9.99, Rating: core.Rating{Rate: 4.6}},
			{ID: 3, Category: "electronics", Price: 64, Rating: core.Rating{Rate: 3.3}},
		},
		Interactions: []core.Interaction{
			{ProductID: 3, Timestamp: 1_000, Kind: core.KindView},
			{ProductID: 1, Timestamp: 10_000_000, Kind: core.KindClick},
		},
	}
}

func testScores() []core.RecommendationScore {
	return []core.RecommendationScore{
		{ProductID: 1, Score: 0.9, Reasons: []string{"a"}},
		{ProductID: 2, Score: 0.5, Reasons: []string{"b"}},
		{ProductID: 3, Score: 0.1, Reasons: []string{"c"}},
	}
}

func ids(scores []core.RecommendationScore) []int64 {
	out := make([]int64, len(scores))
	for i, s := range scores {
		out[i] = s.ProductID
	}
	return out
}

func equalIDs(a, b []int64) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func mustExpr(t *testing.T, expr string, invert bool) *ExprFilter {
	t.Helper()
	f, err := NewExprFilter(expr, invert)
	if err != nil {
		t.Fatalf("NewExprFilter(%q) error = %v", expr, err)
	}
	return f
}

func TestFilterNode(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name    string
		filters []Filter
		want    []int64
	}{
		{name: "no filters", filters: nil, want: []int64{1, 2, 3}},
		{name: "blacklist", filters: []Filter{NewBlacklistFilter([]int64{2}, nil, "")}, want: []int64{1, 3}},
		{name: "expr keep", filters: []Filter{mustExpr(t, `item.price <= 100.0`, false)}, want: []int64{2, 3}},
		{name: "expr invert", filters: []Filter{mustExpr(t, `item.category == "jewelery"`, true)}, want: []int64{1, 3}},
		{name: "exposed any time", filters: []Filter{NewExposedFilter(0, 1)}, want: []int64{2}},
		{name: "exposed window", filters: []Filter{NewExposedFilter(60_000, 1)}, want: []int64{2, 3}},
		{
			name: "combined",
			filters: []Filter{
				NewBlacklistFilter([]int64{1}, nil, ""),
				mustExpr(t, `item.rate >= 4.0`, false),
			},
			want: []int64{2},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			node := &FilterNode{Filters: tt.filters}
			got, err := node.Process(ctx, testContext(), testScores())
			if err != nil {
				t.Fatalf("Process error = %v", err)
			}
			if !equalIDs(ids(got), tt.want) {
				t.Errorf("Process() = %v, want %v", ids(got), tt.want)
			}
		})
	}
}

func TestBlacklistFilter_Store(t *testing.T) {
	ctx := context.Background()
	mem := store.NewMemoryStore()
	adapter := NewStoreAdapter(mem)

	f := NewBlacklistFilter(nil, adapter, "blacklist:global")

	// key 不存在时不过滤
	drop, err := f.ShouldFilter(ctx, nil, core.RecommendationScore{ProductID: 3})
	if err != nil || drop {
		t.Fatalf("missing key: drop=%v err=%v", drop, err)
	}

	if err := adapter.PutBlacklist(ctx, "blacklist:global", []int64{3}); err != nil {
		t.Fatalf("PutBlacklist error = %v", err)
	}
	drop, err = f.ShouldFilter(ctx, nil, core.RecommendationScore{ProductID: 3})
	if err != nil || !drop {
		t.Errorf("stored blacklist: drop=%v err=%v, want true", drop, err)
	}
}

func TestNewExprFilter_Invalid(t *testing.T) {
	if _, err := NewExprFilter("item.price >", false); err == nil {
		t.Error("expected compile error")
	}
}
