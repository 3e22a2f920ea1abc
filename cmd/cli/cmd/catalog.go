// Package cmd - catalog command
package cmd

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"staas-order/core/catalog"
	"staas-order/internal/config"
)

var (
	catalogCategory string
	catalogAll      bool
)

// catalogCmd represents the catalog command
var catalogCmd = &cobra.Command{
	Use:   "catalog",
	Short: "List catalog prices",
	Long: `List the price entries of the storage product package.

Only standard prices are shown unless --all is given; location-specific
prices never participate in ordering.

Examples:
  staas-order catalog
  staas-order catalog --category performance_storage_iops
  staas-order catalog --all`,
	Args: cobra.NoArgs,
	RunE: runCatalog,
}

func init() {
	catalogCmd.Flags().StringVarP(&catalogCategory, "category", "c", "", "only show prices for this category code")
	catalogCmd.Flags().BoolVar(&catalogAll, "all", false, "include location-specific prices")
}

func runCatalog(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	session, err := newSession()
	if err != nil {
		return err
	}

	pkg, err := session.Package(ctx)
	if err != nil {
		return err
	}

	prices := pkg.ItemPrices
	if !catalogAll {
		prices = catalog.StandardPrices(prices)
	}
	if catalogCategory != "" {
		prices = catalog.PricesForCategory(prices, catalogCategory)
	}

	fmt.Printf("Package %d (%s): %d price entries\n", pkg.ID, config.Get().Order.PackageType, len(prices))
	if excluded := session.ExcludedPrices(); len(excluded) > 0 {
		fmt.Printf("%d price(s) hidden by account entitlements\n", len(excluded))
	}
	fmt.Println()

	if len(prices) == 0 {
		fmt.Println("No matching prices.")
		return nil
	}

	fmt.Printf("%-8s %-30s %12s %12s  %s\n", "ID", "CATEGORY", "MONTHLY", "HOURLY", "DESCRIPTION")
	for _, price := range prices {
		fmt.Printf("%-8d %-30s %12s %12s  %s\n",
			price.ID,
			truncate(categoryCodes(price), 30),
			price.RecurringFee.StringFixed(2),
			price.HourlyRecurringFee.StringFixed(4),
			truncate(price.Item.Description, 44))
	}
	return nil
}

func categoryCodes(price catalog.PriceEntry) string {
	codes := make([]string, 0, len(price.Categories))
	for _, category := range price.Categories {
		codes = append(codes, category.CategoryCode)
	}
	return strings.Join(codes, ",")
}

func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen-3] + "..."
}
