package commands

import (
	"bufio"
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/steven3002/datamarket-go/market"
)

// NewExploreCommand feeds stdin lines into a FilterSession.
func NewExploreCommand() *cobra.Command {
	var categories []string
	cmd := &cobra.Command{
		Use:   "explore",
		Short: "Interactive, debounced filtering driven by stdin",
		Long: `explore reads one line at a time from stdin:

  <text>            set the search query (debounced)
  :cat A, B         select categories (empty clears them)
  :refetch          resolve the current filters again

Every committed result is printed. Input ends at EOF.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			e := env(cmd)
			cats, err := parseCategories(categories)
			if err != nil {
				return err
			}

			changed := make(chan struct{}, 1)
			var printed uint64
			s := market.NewFilterSession(
				market.Resolver{Source: e.Client, Logger: e.Logger},
				e.Config.SessionConfig(e.Logger, func(market.SessionState) {
					select {
					case changed <- struct{}{}:
					default:
					}
				}),
			)
			defer s.Close()

			report := func() error {
				st := s.State()
				if st.Loading || st.Debouncing || st.Generation == printed {
					return nil
				}
				printed = st.Generation
				if st.Err != nil {
					e.Printer.Status("resolve", false, st.Err.Error())
					return nil
				}
				e.Printer.Note("#%d %s", st.Generation, st.Decision)
				return e.Printer.Datasets(st.Datasets)
			}

			ctx := cmd.Context()
			lines := make(chan string)
			scanErr := make(chan error, 1)
			go func() {
				defer close(lines)
				sc := bufio.NewScanner(cmd.InOrStdin())
				for sc.Scan() {
					select {
					case lines <- sc.Text():
					case <-ctx.Done():
						scanErr <- ctx.Err()
						return
					}
				}
				scanErr <- sc.Err()
			}()

			s.SetCategories(cats...)
			for line := range merge(ctx, lines, changed, report) {
				switch {
				case line == ":refetch":
					s.Refetch()
				case strings.HasPrefix(line, ":cat"):
					var names []string
					if rest := strings.TrimSpace(strings.TrimPrefix(line, ":cat")); rest != "" {
						names = strings.Split(rest, ",")
					}
					cs, err := parseCategories(names)
					if err != nil {
						e.Printer.Status("input", false, err.Error())
						continue
					}
					s.SetCategories(cs...)
				default:
					s.SetQuery(line)
				}
			}
			select {
			case err := <-scanErr:
				if err != nil && ctx.Err() == nil {
					return fmt.Errorf("read input: %w", err)
				}
			case <-ctx.Done():
			}
			if err := ctx.Err(); err != nil {
				return err
			}

			// Let the last debounced query resolve before exiting.
			settle, cancel := context.WithTimeout(ctx, e.Config.Debounce+e.Config.Timeout)
			defer cancel()
			for {
				st := s.State()
				if !st.Loading && !st.Debouncing {
					return report()
				}
				select {
				case <-changed:
				case <-settle.Done():
					return settle.Err()
				}
			}
		},
	}
	cmd.Flags().StringArrayVarP(&categories, "category", "c", nil, "initial category selection (repeatable)")
	_ = cmd.RegisterFlagCompletionFunc("category", completeCategories)
	return cmd
}

// merge forwards input lines while running report on every state change.
// The returned channel closes when lines is drained or ctx ends.
func merge(ctx context.Context, lines <-chan string, changed <-chan struct{}, report func() error) <-chan string {
	out := make(chan string)
	go func() {
		defer close(out)
		for {
			select {
			case <-ctx.Done():
				return
			case <-changed:
				_ = report()
			case line, ok := <-lines:
				if !ok {
					return
				}
				select {
				case out <- line:
				case <-ctx.Done():
					return
				}
			}
		}
	}()
	return out
}
