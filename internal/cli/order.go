package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func init() {
	RootCmd.AddCommand(&cobra.Command{
		Use:   "order",
		Short: "Print the catalog in recommended display order",
		Run:   runOrder,
	})
}

func runOrder(cmd *cobra.Command, args []string) {
	ctx := cmd.Context()

	s := openStore(ctx)

	ordered, err := newEngine(s, nil).Ordered(ctx, loadCatalog(ctx), loadEvents())
	if err != nil {
		exitErr("order", err)
	}
	for i, p := range ordered {
		fmt.Printf("%2d. [%d] %s (%s, $%.2f, %.1f★)\n", i+1, p.ID, p.Title, p.Category, p.Price, p.Rating.Rate)
	}
}
