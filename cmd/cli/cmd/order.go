// Package cmd - order command
package cmd

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"staas-order/adapters/hcl"
	"staas-order/adapters/history"
	"staas-order/core/order"
	"staas-order/internal/config"
)

var (
	orderSize             int
	orderStorageType      string
	orderPerformanceType  string
	orderPerformanceValue int
	orderRegion           string
	orderName             string
	orderFile             string
	orderDryRun           bool
)

// orderCmd represents the order command
var orderCmd = &cobra.Command{
	Use:   "order",
	Short: "Order a storage volume",
	Long: `Order a storage-as-a-service volume.

A single volume is described with flags, or several volumes are declared in
an HCL file and ordered in sequence. With --dry-run the order is verified
and priced but never placed.

Examples:
  staas-order order --size 100 --storage-type file --performance-type tier --performance-value 200 --region DALLAS09
  staas-order order --size 800 --storage-type block --performance-type iops --performance-value 10000 --region SANJOSE01
  staas-order order --file volumes.hcl
  staas-order order --file volumes.hcl --dry-run`,
	Args: cobra.NoArgs,
	RunE: runOrder,
}

func init() {
	orderCmd.Flags().IntVar(&orderSize, "size", 0, "volume size in GB")
	orderCmd.Flags().StringVar(&orderStorageType, "storage-type", "", "storage type (file, block)")
	orderCmd.Flags().StringVar(&orderPerformanceType, "performance-type", "", "performance type (tier, iops)")
	orderCmd.Flags().IntVar(&orderPerformanceValue, "performance-value", 0, "tier level or IOPS count")
	orderCmd.Flags().StringVarP(&orderRegion, "region", "r", "", "datacenter region name")
	orderCmd.Flags().StringVar(&orderName, "name", "", "volume label for order history")
	orderCmd.Flags().StringVarP(&orderFile, "file", "f", "", "HCL file declaring volumes to order")
	orderCmd.Flags().BoolVar(&orderDryRun, "dry-run", false, "verify and price the order without placing it")
}

func runOrder(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	session, err := newSession()
	if err != nil {
		return err
	}

	store, err := openHistory()
	if err != nil {
		return fmt.Errorf("opening order history: %w", err)
	}
	if store != nil {
		defer store.Close()
	}

	if orderFile != "" {
		return orderFromFile(ctx, session, store)
	}

	region := orderRegion
	if region == "" {
		region = config.Get().Order.DefaultRegion
	}
	params := order.Parameters{
		Size:             orderSize,
		StorageType:      orderStorageType,
		PerformanceType:  orderPerformanceType,
		PerformanceValue: orderPerformanceValue,
		RegionName:       region,
	}
	return submitVolume(ctx, session, store, orderName, params)
}

func orderFromFile(ctx context.Context, session *order.Session, store history.Store) error {
	volumes, err := hcl.NewLoader().LoadFile(orderFile)
	if err != nil {
		return err
	}
	if len(volumes) == 0 {
		fmt.Println("No volumes declared in the file.")
		return nil
	}

	fmt.Printf("Found %d volume(s) in %s\n", len(volumes), orderFile)
	for _, volume := range volumes {
		if err := submitVolume(ctx, session, store, volume.Name, volume.Params); err != nil {
			return fmt.Errorf("volume %s: %w", volume.Name, err)
		}
	}
	return nil
}

func submitVolume(ctx context.Context, session *order.Session, store history.Store, name string, params order.Parameters) error {
	if orderDryRun {
		preview, err := session.Verify(ctx, params)
		if err != nil {
			return err
		}
		printVolume("VERIFIED (not placed)", name, params, preview.Container, preview.Estimate, 0)
		return nil
	}

	result, err := session.Order(ctx, params)
	if err != nil {
		return err
	}
	printVolume("ORDER PLACED", name, params, result.Container, result.Estimate, result.Receipt.OrderID)

	if store != nil {
		record := history.NewRecord(name, params, result)
		if err := store.Save(ctx, record); err != nil {
			fmt.Printf("Warning: failed to record order history: %v\n", err)
		} else {
			fmt.Printf("  History:  %s\n", record.ID)
		}
	}
	return nil
}

func printVolume(heading, name string, params order.Parameters, container order.Container, estimate order.Estimate, orderID int) {
	fmt.Println()
	fmt.Println(heading)
	if name != "" {
		fmt.Printf("  Volume:   %s\n", name)
	}
	if orderID != 0 {
		fmt.Printf("  Order ID: %d\n", orderID)
	}
	fmt.Printf("  Size:     %d GB %s (%s %d)\n", params.Size, params.StorageType, params.PerformanceType, params.PerformanceValue)
	fmt.Printf("  Region:   %s\n", params.RegionName)
	fmt.Printf("  Prices:   %s\n", priceList(container.Prices))
	fmt.Printf("  Monthly:  $%s\n", estimate.Monthly.StringFixed(2))
	fmt.Printf("  Hourly:   $%s\n", estimate.Hourly.StringFixed(4))
}

func priceList(prices []order.PriceReference) string {
	ids := make([]string, 0, len(prices))
	for _, price := range prices {
		ids = append(ids, strconv.Itoa(price.ID))
	}
	return strings.Join(ids, ", ")
}
