package rank

import (
	"context"
	"testing"

	"github.com/rushteam/shoprec/core"
)

func TestHybridNode(t *testing.T) {
	node := &HybridNode{Recommender: NewHybrid(constRandom(0))}
	rctx := &core.RecommendContext{
		Catalog:      workedCatalog(),
		Interactions: []core.Interaction{{ProductID: 1, Timestamp: 1000, Kind: core.KindClick}},
	}

	// 上游分数被忽略
	stale := []core.RecommendationScore{{ProductID: 99, Score: 1}}
	got, err := node.Process(context.Background(), rctx, stale)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 3 || got[0].ProductID != 1 {
		t.Fatalf("got %+v", got)
	}

	if got, _ := node.Process(context.Background(), nil, nil); len(got) != 0 {
		t.Errorf("nil rctx: got %v, want empty", got)
	}
}
