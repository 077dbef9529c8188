package cmd

import (
	"context"

	"github.com/spf13/cobra"
)

var (
	cancelReason string
	cancelActor  string
	deleteType   string
)

var cancelCmd = &cobra.Command{
	Use:   "cancel",
	Short: "Cancel a generated schedule and release its vehicles",
	RunE:  runCancel,
}

var deleteCmd = &cobra.Command{
	Use:   "delete",
	Short: "Delete a schedule",
	RunE:  runDelete,
}

func init() {
	cancelCmd.Flags().StringVarP(&scheduleID, "schedule", "s", "", "schedule id")
	cancelCmd.Flags().StringVar(&cancelReason, "reason", "", "cancellation reason")
	cancelCmd.Flags().StringVar(&cancelActor, "by", "", "who canceled")
	_ = cancelCmd.MarkFlagRequired("schedule")

	deleteCmd.Flags().StringVarP(&scheduleID, "schedule", "s", "", "schedule id")
	deleteCmd.Flags().StringVar(&deleteType, "type", "soft", "delete type")
	_ = deleteCmd.MarkFlagRequired("schedule")

	rootCmd.AddCommand(cancelCmd)
	rootCmd.AddCommand(deleteCmd)
}

func runCancel(cmd *cobra.Command, args []string) error {
	svc, err := newService()
	if err != nil {
		return err
	}
	defer func() { _ = svc.Close() }()
	return svc.Cancel(context.Background(), scheduleID, cancelReason, cancelActor)
}

func runDelete(cmd *cobra.Command, args []string) error {
	svc, err := newService()
	if err != nil {
		return err
	}
	defer func() { _ = svc.Close() }()
	return svc.Delete(context.Background(), scheduleID, deleteType)
}
