package commands

import (
	"fmt"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/steven3002/datamarket-go/market"
)

type statusReport struct {
	Health     *market.Health           `json:"health,omitempty"`
	Stats      *market.DatasetStats     `json:"stats,omitempty"`
	Connection *market.ConnectionStatus `json:"connection,omitempty"`
	Errors     map[string]string        `json:"errors,omitempty"`
}

// NewStatusCommand reports backend health, catalogue size and warehouse
// connectivity, fetched concurrently.
func NewStatusCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show backend health, catalogue stats and warehouse connectivity",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			e := env(cmd)
			ctx, cancel := e.Ctx(cmd.Context())
			defer cancel()

			var (
				rep                          statusReport
				healthErr, statsErr, connErr error
			)
			// Each probe records its own error so one failure does not hide
			// the others.
			var g errgroup.Group
			g.Go(func() error {
				rep.Health, healthErr = e.Client.Health(ctx)
				return nil
			})
			g.Go(func() error {
				rep.Stats, statsErr = e.Client.GetStats(ctx)
				return nil
			})
			g.Go(func() error {
				rep.Connection, connErr = e.Client.TestConnection(ctx)
				return nil
			})
			_ = g.Wait()

			rep.Errors = map[string]string{}
			for name, err := range map[string]error{"health": healthErr, "stats": statsErr, "connection": connErr} {
				if err != nil {
					rep.Errors[name] = err.Error()
				}
			}

			if e.Printer.JSON() {
				if err := e.Printer.PrintJSON(rep); err != nil {
					return err
				}
			} else {
				printStatus(e.Printer, rep, healthErr, statsErr, connErr)
			}
			if len(rep.Errors) == 3 {
				return fmt.Errorf("backend unreachable at %s", e.Config.BaseURL)
			}
			return nil
		},
	}
}

type statusPrinter interface {
	Status(label string, ok bool, detail string)
}

func printStatus(p statusPrinter, rep statusReport, healthErr, statsErr, connErr error) {
	if healthErr != nil {
		p.Status("health", false, healthErr.Error())
	} else {
		detail := fmt.Sprintf("%s (%s, database %s)", rep.Health.Service, rep.Health.Environment, rep.Health.Database)
		p.Status("health", rep.Health.Status == "healthy", detail)
	}
	if statsErr != nil {
		p.Status("catalogue", false, statsErr.Error())
	} else {
		p.Status("catalogue", true, fmt.Sprintf("%d datasets from %d providers", rep.Stats.TotalDatasets, rep.Stats.TotalProviders))
	}
	if connErr != nil {
		p.Status("warehouse", false, connErr.Error())
	} else {
		p.Status("warehouse", rep.Connection.Status == market.Connected, rep.Connection.Service)
	}
}
