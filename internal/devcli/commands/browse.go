package commands

import (
	"github.com/spf13/cobra"

	"github.com/steven3002/datamarket-go/market"
)

// NewBrowseCommand resolves one filter selection the way the marketplace
// UI does.
func NewBrowseCommand() *cobra.Command {
	var (
		categories []string
		query      string
	)
	cmd := &cobra.Command{
		Use:   "browse",
		Short: "Resolve a filter selection into a dataset list",
		Long: `browse applies the marketplace filter rules: a non-blank query searches and
ignores categories, a single category is fetched server side, and several
categories fetch everything and filter locally.`,
		Example: `  marketdev browse --category "ESG & Sustainability" --category "Credit Risk"
  marketdev browse --query "ESG data for European banks" --category "Market Trading"`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			e := env(cmd)
			cats, err := parseCategories(categories)
			if err != nil {
				return err
			}
			ctx, cancel := e.Ctx(cmd.Context())
			defer cancel()

			r := market.Resolver{Source: e.Client, Logger: e.Logger}
			ds, d, err := r.Resolve(ctx, market.FilterState{Categories: cats, SearchQuery: query})
			if err != nil {
				return err
			}
			if !e.Printer.JSON() {
				e.Printer.Note("request: %s", d)
			}
			return e.Printer.Datasets(ds)
		},
	}
	cmd.Flags().StringArrayVarP(&categories, "category", "c", nil, "category label (repeatable)")
	cmd.Flags().StringVarP(&query, "query", "q", "", "free-text search; overrides categories")
	_ = cmd.RegisterFlagCompletionFunc("category", completeCategories)
	return cmd
}
