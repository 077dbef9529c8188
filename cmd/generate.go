package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/tmhire/pourplan/app"
	"github.com/tmhire/pourplan/config"
	"github.com/tmhire/pourplan/core/model"
)

var (
	scheduleID string
	sequence   string
	policyName string
	overrule   int
)

var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Expand a vehicle sequence into the trip table",
	RunE:  runGenerate,
}

func init() {
	generateCmd.Flags().StringVarP(&scheduleID, "schedule", "s", "", "schedule id")
	generateCmd.Flags().StringVar(&sequence, "sequence", "", "comma-separated vehicle ids in dispatch order")
	generateCmd.Flags().StringVarP(&policyName, "policy", "p", "", "pumping policy: zero-wait or burst (default from scheduler.default_policy)")
	generateCmd.Flags().IntVar(&overrule, "overrule", 0, "dispatcher TM count override")
	_ = generateCmd.MarkFlagRequired("schedule")
	_ = generateCmd.MarkFlagRequired("sequence")
	rootCmd.AddCommand(generateCmd)
}

// policyFor resolves the pumping policy for a generate call, falling back
// to the configured default when no flag was given.
func policyFor(explicit string, cfg *config.Config) (model.PumpingPolicy, error) {
	name := explicit
	if name == "" {
		name = cfg.Scheduler.DefaultPolicy
	}
	return model.ParsePolicy(name)
}

func runGenerate(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	policy, err := policyFor(policyName, cfg)
	if err != nil {
		return err
	}
	var ids []string
	for _, id := range strings.Split(sequence, ",") {
		if id = strings.TrimSpace(id); id != "" {
			ids = append(ids, id)
		}
	}
	if len(ids) == 0 {
		return fmt.Errorf("empty vehicle sequence")
	}

	svc, err := app.New(cfg)
	if err != nil {
		return err
	}
	defer func() { _ = svc.Close() }()

	res, err := svc.Generate(context.Background(), scheduleID, app.GenerateInput{
		Sequence: ids,
		Policy:   policy,
		Overrule: overrule,
	})
	if err != nil {
		return err
	}
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(res)
}
