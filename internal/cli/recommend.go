package cli

import (
	"github.com/spf13/cobra"

	"github.com/rushteam/shoprec/core"
)

func init() {
	cmd := &cobra.Command{
		Use:   "recommend",
		Short: "Score every catalog product for the interaction log",
		Run:   runRecommend,
	}
	cmd.Flags().IntP("limit", "n", 0, "Print at most n scores (0 = all)")
	RootCmd.AddCommand(cmd)
}

func runRecommend(cmd *cobra.Command, args []string) {
	ctx := cmd.Context()
	limit, _ := cmd.Flags().GetInt("limit")

	s := openStore(ctx)

	catalog := loadCatalog(ctx)
	scores, err := newEngine(s, nil).Recommend(ctx, catalog, loadEvents())
	if err != nil {
		exitErr("recommend", err)
	}
	if limit > 0 && len(scores) > limit {
		scores = scores[:limit]
	}
	if scores == nil {
		scores = []core.RecommendationScore{}
	}
	printJSON(scores)
}
