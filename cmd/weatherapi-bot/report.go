package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/i474232898/weatherapi-bot/internal/config"
	"github.com/i474232898/weatherapi-bot/internal/weather"
)

func newReportCmd() *cobra.Command {
	var kindName string

	cmd := &cobra.Command{
		Use:   "report <place...>",
		Short: "Print one weather report to stdout",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			kind, err := weather.ParseKind(kindName)
			if err != nil {
				return err
			}
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			return report(cmd.Context(), cmd, newFacade(cfg), kind, strings.Join(args, " "))
		},
	}
	cmd.Flags().StringVarP(&kindName, "kind", "k", "weather", "report kind: weather, today or weekly")
	return cmd
}

// report prints the reply text; lookup failures are printed too, not returned.
func report(ctx context.Context, cmd *cobra.Command, facade *weather.Facade, kind weather.ReportKind, place string) error {
	if ctx == nil {
		ctx = context.Background()
	}
	_, err := fmt.Fprintln(cmd.OutOrStdout(), facade.FetchReport(ctx, place, kind))
	return err
}
