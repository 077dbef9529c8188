package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/tmhire/pourplan/core/model"
)

var requestPath string

var calculateCmd = &cobra.Command{
	Use:   "calculate",
	Short: "Size the fleet for a pour request",
	RunE:  runCalculate,
}

func init() {
	calculateCmd.Flags().StringVarP(&requestPath, "request", "r", "", "pour request JSON file")
	_ = calculateCmd.MarkFlagRequired("request")
	rootCmd.AddCommand(calculateCmd)
}

func runCalculate(cmd *cobra.Command, args []string) error {
	b, err := os.ReadFile(requestPath)
	if err != nil {
		return fmt.Errorf("read request: %w", err)
	}
	var req model.PourRequest
	if err := json.Unmarshal(b, &req); err != nil {
		return fmt.Errorf("parse request: %w", err)
	}

	svc, err := newService()
	if err != nil {
		return err
	}
	defer func() { _ = svc.Close() }()

	res, err := svc.Calculate(context.Background(), req)
	if err != nil {
		return err
	}
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(res)
}
