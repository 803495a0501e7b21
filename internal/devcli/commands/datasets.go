package commands

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/steven3002/datamarket-go/market"
)

// NewDatasetsCommand groups the catalogue commands.
func NewDatasetsCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "datasets",
		Aliases: []string{"ds"},
		Short:   "List, search and inspect datasets",
	}
	cmd.AddCommand(newDatasetsListCommand())
	cmd.AddCommand(newDatasetsGetCommand())
	cmd.AddCommand(newDatasetsSearchCommand())
	cmd.AddCommand(newDatasetsStatsCommand())
	cmd.AddCommand(newDatasetsRefreshCommand())
	return cmd
}

func newDatasetsListCommand() *cobra.Command {
	var (
		category    string
		page, limit int
		all, stream bool
	)
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List datasets, optionally scoped to one category",
		Example: `  marketdev datasets list
  marketdev datasets list --category "Credit Risk" --limit 10
  marketdev datasets list --all --limit 25`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			e := env(cmd)
			opts := market.ListOptions{Page: page, Limit: limit}
			if category != "" {
				c, err := market.ParseCategory(category)
				if err != nil {
					return fmt.Errorf("%w (known: %s)", err, knownCategories())
				}
				opts.Category = c
			}
			ctx, cancel := e.Ctx(cmd.Context())
			defer cancel()

			switch {
			case all && stream:
				return errors.New("--all and --stream are mutually exclusive")
			case all:
				p := &market.DatasetPager{Client: e.Client, Category: opts.Category, Limit: limit}
				ds, err := p.All(ctx)
				if err != nil {
					return err
				}
				return e.Printer.Datasets(ds)
			case stream:
				sc, err := e.Client.StreamDatasets(ctx, opts)
				if err != nil {
					return err
				}
				defer sc.Close()
				var ds []market.Dataset
				var d market.Dataset
				for sc.Next(&d) {
					ds = append(ds, d)
				}
				if err := sc.Err(); err != nil {
					return err
				}
				return e.Printer.Datasets(ds)
			}

			res, err := e.Client.ListDatasets(ctx, opts)
			if err != nil {
				return err
			}
			if e.Printer.JSON() {
				return e.Printer.PrintJSON(res)
			}
			if err := e.Printer.Datasets(res.Data); err != nil {
				return err
			}
			e.Printer.Note("page %d, limit %d, total %d", res.Page, res.Limit, res.Total)
			return nil
		},
	}
	cmd.Flags().StringVarP(&category, "category", "c", "", "category label, for example \"ESG & Sustainability\"")
	cmd.Flags().IntVar(&page, "page", 0, "page number (server default 1)")
	cmd.Flags().IntVar(&limit, "limit", 0, "page size, at most 100 (server default 50)")
	cmd.Flags().BoolVar(&all, "all", false, "follow pages until the catalogue is exhausted")
	cmd.Flags().BoolVar(&stream, "stream", false, "decode the response incrementally")
	_ = cmd.RegisterFlagCompletionFunc("category", completeCategories)
	return cmd
}

func newDatasetsGetCommand() *cobra.Command {
	var preview bool
	cmd := &cobra.Command{
		Use:   "get <id>",
		Short: "Show one dataset",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			e := env(cmd)
			ctx, cancel := e.Ctx(cmd.Context())
			defer cancel()

			if !preview {
				d, err := e.Client.GetDataset(ctx, args[0])
				if err != nil {
					return err
				}
				return e.Printer.Dataset(d)
			}

			d, p, err := e.Client.Dataset(args[0]).Preview(ctx)
			if d == nil {
				return err
			}
			if perr := e.Printer.Dataset(d); perr != nil {
				return perr
			}
			if err != nil || p.Empty() {
				if err == nil {
					err = market.ErrEmptyPreview
				}
				return e.Printer.Unavailable(d.SampleURL, err)
			}
			return e.Printer.Preview(p)
		},
	}
	cmd.Flags().BoolVar(&preview, "preview", false, "also preview the dataset sample")
	return cmd
}

func newDatasetsSearchCommand() *cobra.Command {
	return &cobra.Command{
		Use:     "search <query...>",
		Short:   "Free-text search across datasets",
		Example: `  marketdev datasets search ESG data for European banks`,
		Args:    cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			e := env(cmd)
			ctx, cancel := e.Ctx(cmd.Context())
			defer cancel()

			ds, err := e.Client.SearchDatasets(ctx, strings.Join(args, " "))
			if err != nil {
				return err
			}
			return e.Printer.Datasets(ds)
		},
	}
}

func newDatasetsStatsCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show catalogue counts per category",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			e := env(cmd)
			ctx, cancel := e.Ctx(cmd.Context())
			defer cancel()

			s, err := e.Client.GetStats(ctx)
			if err != nil {
				return err
			}
			return e.Printer.Stats(s)
		},
	}
}

func newDatasetsRefreshCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "refresh",
		Short: "Ask the backend to reload its dataset cache",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			e := env(cmd)
			ctx, cancel := e.Ctx(cmd.Context())
			defer cancel()

			res, err := e.Client.RefreshDatasets(ctx)
			if err != nil {
				return err
			}
			if e.Printer.JSON() {
				return e.Printer.PrintJSON(res)
			}
			e.Printer.Status("refresh", true, res.Message)
			return nil
		},
	}
}

func parseCategories(in []string) ([]market.Category, error) {
	out := make([]market.Category, 0, len(in))
	for _, s := range in {
		c, err := market.ParseCategory(strings.TrimSpace(s))
		if err != nil {
			return nil, fmt.Errorf("%w (known: %s)", err, knownCategories())
		}
		out = append(out, c)
	}
	return out, nil
}

func knownCategories() string {
	names := make([]string, len(market.Categories))
	for i, c := range market.Categories {
		names[i] = fmt.Sprintf("%q", c)
	}
	return strings.Join(names, ", ")
}

func completeCategories(*cobra.Command, []string, string) ([]string, cobra.ShellCompDirective) {
	names := make([]string, len(market.Categories))
	for i, c := range market.Categories {
		names[i] = string(c)
	}
	return names, cobra.ShellCompDirectiveNoFileComp
}
