package commands

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/steven3002/datamarket-go/internal/devcli"
	"github.com/steven3002/datamarket-go/market"
)

// NewPreviewCommand groups the table preview commands.
func NewPreviewCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "preview",
		Short: "Preview sample tables",
	}
	cmd.AddCommand(newPreviewShowCommand())
	cmd.AddCommand(newPreviewTestCommand())
	return cmd
}

func newPreviewShowCommand() *cobra.Command {
	var datasetID string
	cmd := &cobra.Command{
		Use:   "show [table_reference]",
		Short: "Fetch a table preview, retrying once after the first failure",
		Example: `  marketdev preview show samples.nyctaxi.trips
  marketdev preview show --dataset msci-esg`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			e := env(cmd)
			var ref string
			switch {
			case datasetID != "" && len(args) > 0:
				return errors.New("pass either a table reference or --dataset")
			case datasetID != "":
				ctx, cancel := e.Ctx(cmd.Context())
				d, err := e.Client.GetDataset(ctx, datasetID)
				cancel()
				if err != nil {
					return err
				}
				if !market.PreviewAvailable(*d) {
					return e.Printer.Unavailable(datasetID, market.ErrEmptyPreview)
				}
				ref = d.SampleURL
			case len(args) == 1:
				ref = args[0]
			default:
				return errors.New("table reference required")
			}

			st, err := settlePreview(cmd.Context(), e, ref)
			if err != nil {
				return err
			}
			if st.Unavailable() {
				return e.Printer.Unavailable(ref, st.Problem())
			}
			return e.Printer.Preview(st.Payload)
		},
	}
	cmd.Flags().StringVarP(&datasetID, "dataset", "d", "", "preview the sample of this dataset")
	return cmd
}

// settlePreview drives a PreviewController for ref until it settles.
func settlePreview(ctx context.Context, e *devcli.Env, ref string) (market.PreviewState, error) {
	changed := make(chan struct{}, 1)
	c := market.NewPreviewController(e.Client, e.Config.PreviewConfig(e.Logger, func(st market.PreviewState) {
		if st.RetryPending {
			e.Logger.Info("preview failed, retrying", "table_reference", st.Reference, "error", st.Err)
		}
		select {
		case changed <- struct{}{}:
		default:
		}
	}))
	defer c.Close()

	// Budget one request, one retry delay and the retried request.
	budget := 2*e.Config.Timeout + e.Config.PreviewRetryDelay
	ctx, cancel := context.WithTimeout(ctx, budget)
	defer cancel()

	c.SetReference(ref)
	for {
		st := c.State()
		if st.Settled() {
			return st, nil
		}
		select {
		case <-changed:
		case <-ctx.Done():
			return st, fmt.Errorf("preview %q: %w", ref, ctx.Err())
		}
	}
}

func newPreviewTestCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "test",
		Short: "Check the backend's connection to its SQL warehouse",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			e := env(cmd)
			ctx, cancel := e.Ctx(cmd.Context())
			defer cancel()

			st, err := e.Client.TestConnection(ctx)
			if err != nil {
				return err
			}
			if e.Printer.JSON() {
				return e.Printer.PrintJSON(st)
			}
			e.Printer.Status("warehouse", st.Status == market.Connected,
				fmt.Sprintf("%s %s%s (preview limit %d)", st.Service, st.ServerHostname, st.HTTPPath, st.PreviewLimit))
			return nil
		},
	}
}
