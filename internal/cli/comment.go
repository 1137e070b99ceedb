package cli

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/rushteam/shoprec/moderation"
)

func init() {
	comment := &cobra.Command{
		Use:   "comment",
		Short: "Post or list moderated product comments",
	}

	post := &cobra.Command{
		Use:   "post [product-id] [text]",
		Short: "Post a comment after the toxicity check",
		Args:  cobra.MinimumNArgs(2),
		Run:   runCommentPost,
	}
	post.Flags().StringP("author", "a", moderation.DefaultAuthor, "Comment author")

	list := &cobra.Command{
		Use:   "list [product-id]",
		Short: "List comments for a product, newest first",
		Args:  cobra.ExactArgs(1),
		Run:   runCommentList,
	}

	comment.AddCommand(post, list)
	RootCmd.AddCommand(comment)
}

func newBoard(cmd *cobra.Command) *moderation.Board {
	s := openStore(cmd.Context())

	var oracle moderation.Oracle
	if ep := appCfg.Moderation.Endpoint; ep != "" {
		oracle = moderation.NewHTTPOracle(ep, appCfg.Moderation.Timeout)
	}
	guard := moderation.NewGuard(oracle, appCfg.Moderation.Breaker)
	return moderation.NewBoard(guard, s)
}

func parseProductID(arg string) int64 {
	id, err := strconv.ParseInt(arg, 10, 64)
	if err != nil {
		exitErr("product id", err)
	}
	return id
}

func runCommentPost(cmd *cobra.Command, args []string) {
	productID := parseProductID(args[0])
	author, _ := cmd.Flags().GetString("author")

	board := newBoard(cmd)

	c, err := board.Post(cmd.Context(), productID, author, strings.Join(args[1:], " "))
	switch {
	case errors.Is(err, moderation.ErrCommentRejected):
		exitErr("comment", moderation.ErrCommentRejected)
	case errors.Is(err, moderation.ErrOracleUnavailable):
		exitErr("comment", fmt.Errorf("moderation service unavailable, comment not posted: %w", err))
	case err != nil:
		exitErr("comment", err)
	}
	printJSON(c)
}

func runCommentList(cmd *cobra.Command, args []string) {
	productID := parseProductID(args[0])

	board := newBoard(cmd)

	comments, err := board.List(cmd.Context(), productID)
	if err != nil {
		exitErr("list comments", err)
	}
	if comments == nil {
		comments = []moderation.Comment{}
	}
	printJSON(comments)
}
