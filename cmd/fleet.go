package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

var fleetCmd = &cobra.Command{
	Use:   "fleet",
	Short: "Fleet registry commands",
}

var fleetLsCmd = &cobra.Command{
	Use:   "ls",
	Short: "List registered transit mixers and pumps",
	RunE:  runFleetLs,
}

func init() {
	fleetCmd.AddCommand(fleetLsCmd)
	rootCmd.AddCommand(fleetCmd)
}

func runFleetLs(cmd *cobra.Command, args []string) error {
	svc, err := newService()
	if err != nil {
		return err
	}
	defer func() { _ = svc.Close() }()

	tms, pumps, err := svc.Fleet(context.Background())
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	for _, tm := range tms {
		fmt.Fprintf(out, "tm\t%s\t%s\t%.1f m3\t%d commitments\n",
			tm.ID, tm.Identifier, tm.Capacity, len(tm.Unavailable))
	}
	for _, p := range pumps {
		fmt.Fprintf(out, "pump\t%s\t%s\t%s\n", p.ID, p.Identifier, p.Type)
	}
	return nil
}
