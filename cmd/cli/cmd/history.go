// Package cmd - history commands
package cmd

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"staas-order/adapters/history"
)

var (
	historyRegion      string
	historyStorageType string
	historyLimit       int
)

// historyCmd groups the order history commands
var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Manage local order history",
	Long: `Inspect and prune the local record of placed orders.

History is written when history.enabled is set in the config file.

Examples:
  staas-order history list
  staas-order history list --region DALLAS09 --limit 10
  staas-order history show 6a1f8c2e-6b7d-4a53-9f01-58d1c2b9a77e
  staas-order history delete 6a1f8c2e-6b7d-4a53-9f01-58d1c2b9a77e`,
}

var historyListCmd = &cobra.Command{
	Use:   "list",
	Short: "List recorded orders",
	Args:  cobra.NoArgs,
	RunE:  runHistoryList,
}

var historyShowCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Show a recorded order",
	Args:  cobra.ExactArgs(1),
	RunE:  runHistoryShow,
}

var historyDeleteCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "Delete a recorded order",
	Args:  cobra.ExactArgs(1),
	RunE:  runHistoryDelete,
}

func init() {
	historyCmd.AddCommand(historyListCmd)
	historyCmd.AddCommand(historyShowCmd)
	historyCmd.AddCommand(historyDeleteCmd)

	historyListCmd.Flags().StringVarP(&historyRegion, "region", "r", "", "only show orders for this region")
	historyListCmd.Flags().StringVar(&historyStorageType, "storage-type", "", "only show orders of this storage type")
	historyListCmd.Flags().IntVar(&historyLimit, "limit", 0, "maximum number of orders to show")
}

// requireHistory opens the store and fails when history is disabled
func requireHistory() (history.Store, error) {
	store, err := openHistory()
	if err != nil {
		return nil, err
	}
	if store == nil {
		return nil, fmt.Errorf("order history is not enabled; set history.enabled in the config file")
	}
	return store, nil
}

func runHistoryList(cmd *cobra.Command, args []string) error {
	store, err := requireHistory()
	if err != nil {
		return err
	}
	defer store.Close()

	records, err := store.List(context.Background(), &history.ListFilter{
		Region:      historyRegion,
		StorageType: historyStorageType,
		Limit:       historyLimit,
	})
	if err != nil {
		return err
	}

	if len(records) == 0 {
		fmt.Println("No recorded orders.")
		return nil
	}

	fmt.Printf("%-36s %-16s %-12s %6s %-6s %10s  %s\n", "ID", "NAME", "REGION", "SIZE", "TYPE", "MONTHLY", "CREATED")
	for _, record := range records {
		fmt.Printf("%-36s %-16s %-12s %6d %-6s %10s  %s\n",
			record.ID,
			truncate(record.Name, 16),
			record.Region,
			record.Size,
			record.StorageType,
			record.MonthlyEstimate.StringFixed(2),
			record.CreatedAt.Format("2006-01-02 15:04"))
	}
	return nil
}

func runHistoryShow(cmd *cobra.Command, args []string) error {
	store, err := requireHistory()
	if err != nil {
		return err
	}
	defer store.Close()

	record, err := store.Get(context.Background(), args[0])
	if err != nil {
		return err
	}

	data, err := json.MarshalIndent(record, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(data))
	return nil
}

func runHistoryDelete(cmd *cobra.Command, args []string) error {
	store, err := requireHistory()
	if err != nil {
		return err
	}
	defer store.Close()

	if err := store.Delete(context.Background(), args[0]); err != nil {
		return err
	}
	fmt.Printf("Deleted %s\n", args[0])
	return nil
}
