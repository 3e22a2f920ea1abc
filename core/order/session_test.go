package order

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"

	"staas-order/core/catalog"
	"staas-order/core/selection"
	"staas-order/internal/errors"
)

type stubClient struct {
	packages    []catalog.Package
	packagesErr error
	vmware      bool
	beta        bool
	placeErr    error
	verifyErr   error

	lastTypeKey  string
	lastOrder    Container
	packageCalls int
	vmwareCalls  int
	betaCalls    int
	placeCalls   int
	verifyCalls  int
}

func (c *stubClient) PackagesByType(ctx context.Context, typeKey string) ([]catalog.Package, error) {
	c.packageCalls++
	c.lastTypeKey = typeKey
	return c.packages, c.packagesErr
}

func (c *stubClient) ActiveVMwareCustomer(ctx context.Context) (bool, error) {
	c.vmwareCalls++
	return c.vmware, nil
}

func (c *stubClient) FileBlockBetaAccess(ctx context.Context) (bool, error) {
	c.betaCalls++
	return c.beta, nil
}

func (c *stubClient) PlaceOrder(ctx context.Context, container Container) (Receipt, error) {
	c.placeCalls++
	c.lastOrder = container
	if c.placeErr != nil {
		return Receipt{}, c.placeErr
	}
	return Receipt{OrderID: 11493593}, nil
}

func (c *stubClient) VerifyOrder(ctx context.Context, container Container) error {
	c.verifyCalls++
	c.lastOrder = container
	return c.verifyErr
}

func sessionPackages() []catalog.Package {
	return []catalog.Package{{
		ID: 759,
		ItemPrices: []catalog.PriceEntry{
			{ID: 10, Categories: []catalog.Category{{CategoryCode: "storage_as_a_service"}}},
			{ID: 20, Categories: []catalog.Category{{CategoryCode: "storage_file"}}},
			{ID: 21, Categories: []catalog.Category{{CategoryCode: "block"}}},
			{ID: 31, Categories: []catalog.Category{{CategoryCode: "storage_tier_level"}},
				RecurringFee:       decimal.RequireFromString("13.72"),
				HourlyRecurringFee: decimal.RequireFromString("0.021"),
				Item: catalog.Item{Attributes: []catalog.Attribute{
					{AttributeTypeKeyName: "STORAGE_TIER_LEVEL", Value: "200"},
				}}},
			{ID: 40, Categories: []catalog.Category{{CategoryCode: "performance_storage_iops"}},
				CapacityRestrictionMinimum: "20", CapacityRestrictionMaximum: "500",
				CapacityRestrictionType: "STORAGE_SPACE",
				Item:                    catalog.Item{CapacityMinimum: "100", CapacityMaximum: "6000"}},
			{ID: 41, Categories: []catalog.Category{{CategoryCode: "performance_storage_iops"}},
				CapacityRestrictionMinimum: "501", CapacityRestrictionMaximum: "12000",
				CapacityRestrictionType: "STORAGE_SPACE",
				Item:                    catalog.Item{CapacityMinimum: "100", CapacityMaximum: "20000"}},
			{ID: 51, Categories: []catalog.Category{{CategoryCode: "performance_storage_space"}},
				CapacityRestrictionMinimum: "100", CapacityRestrictionMaximum: "300",
				CapacityRestrictionType:    "STORAGE_TIER_LEVEL",
				RecurringFee:               decimal.RequireFromString("55.20"),
				HourlyRecurringFee:         decimal.RequireFromString("0.084"),
				Item:                       catalog.Item{CapacityMinimum: "100", CapacityMaximum: "499"}},
			{ID: 53, Categories: []catalog.Category{{CategoryCode: "performance_storage_space"}},
				CapacityRestrictionMinimum: "6001", CapacityRestrictionMaximum: "20000",
				CapacityRestrictionType:    "IOPS",
				Item:                       catalog.Item{CapacityMinimum: "500", CapacityMaximum: "12000"}},
		},
	}}
}

func fileTierParams() Parameters {
	return Parameters{
		Size: 100, StorageType: StorageTypeFile,
		PerformanceType: "tier", PerformanceValue: 200, RegionName: "DALLAS09",
	}
}

func assertPriceIDs(t *testing.T, prices []PriceReference, want []int) {
	t.Helper()
	if len(prices) != len(want) {
		t.Fatalf("expected %d prices, got %d", len(want), len(prices))
	}
	for i, id := range want {
		if prices[i].ID != id {
			t.Errorf("prices[%d] = %d, want %d", i, prices[i].ID, id)
		}
	}
}

// TestOrderFileTier tests the full flow for a tier-based file volume
func TestOrderFileTier(t *testing.T) {
	client := &stubClient{packages: sessionPackages()}
	session := NewSession(client, Options{})

	result, err := session.Order(context.Background(), fileTierParams())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Receipt.OrderID != 11493593 {
		t.Errorf("order id = %d", result.Receipt.OrderID)
	}
	if result.Estimate.Monthly.String() != "68.92" {
		t.Errorf("monthly estimate = %s, want 68.92", result.Estimate.Monthly)
	}
	if client.lastTypeKey != "STORAGE_AS_A_SERVICE" {
		t.Errorf("package type key = %q", client.lastTypeKey)
	}

	container := client.lastOrder
	if container.ComplexType != ContainerComplexType {
		t.Errorf("complexType = %q", container.ComplexType)
	}
	if container.PackageID != 759 || container.Location != "DALLAS09" || container.VolumeSize != 100 {
		t.Errorf("container header = %+v", container)
	}
	assertPriceIDs(t, container.Prices, []int{10, 20, 51, 31})

	if container.OSFormatType != nil {
		t.Errorf("file order must not carry osFormatType, got %+v", container.OSFormatType)
	}
	if container.IOPS != 0 {
		t.Errorf("tier order must not carry iops, got %d", container.IOPS)
	}
}

// TestOrderBlock tests the os format stamp and the storage type mapping
func TestOrderBlock(t *testing.T) {
	params := fileTierParams()
	params.StorageType = StorageTypeBlock

	t.Run("shipped mapping", func(t *testing.T) {
		client := &stubClient{packages: sessionPackages()}
		session := NewSession(client, Options{})

		if _, err := session.Order(context.Background(), params); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		container := client.lastOrder
		if container.OSFormatType == nil || container.OSFormatType.KeyName != "VMWARE" {
			t.Errorf("osFormatType = %+v, want keyName VMWARE", container.OSFormatType)
		}
		// The shipped mapping resolves "block" to the file category price.
		assertPriceIDs(t, container.Prices, []int{10, 20, 51, 31})
	})

	t.Run("mapping override", func(t *testing.T) {
		client := &stubClient{packages: sessionPackages()}
		session := NewSession(client, Options{
			Mapping: selection.TypeCategoryMapping{
				Categories: map[string]string{StorageTypeBlock: catalog.CategoryBlock},
				Default:    catalog.CategoryFile,
			},
		})

		if _, err := session.Order(context.Background(), params); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		assertPriceIDs(t, client.lastOrder.Prices, []int{10, 21, 51, 31})
	})
}

// TestOrderIOPS tests the raw-IOPS order flow
func TestOrderIOPS(t *testing.T) {
	client := &stubClient{packages: sessionPackages()}
	session := NewSession(client, Options{})

	params := Parameters{
		Size: 800, StorageType: StorageTypeFile,
		PerformanceType: "iops", PerformanceValue: 10000, RegionName: "DALLAS09",
	}
	if _, err := session.Order(context.Background(), params); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	container := client.lastOrder
	if container.IOPS != 10000 {
		t.Errorf("iops = %d, want 10000", container.IOPS)
	}
	assertPriceIDs(t, container.Prices, []int{10, 20, 53, 41})
}

// TestInvalidPerformanceTypeStopsBeforeSubmission tests that a bad
// performance type never reaches the order service
func TestInvalidPerformanceTypeStopsBeforeSubmission(t *testing.T) {
	client := &stubClient{packages: sessionPackages()}
	session := NewSession(client, Options{})

	params := fileTierParams()
	params.PerformanceType = "bogus"

	_, err := session.Order(context.Background(), params)
	if !errors.IsType(err, errors.TypeInvalidPerformanceType) {
		t.Fatalf("expected INVALID_PERFORMANCE_TYPE, got %v", err)
	}
	if client.placeCalls != 0 {
		t.Errorf("order service called %d times, want 0", client.placeCalls)
	}
}

// TestCatalogFetchedOnce tests the per-session memoization
func TestCatalogFetchedOnce(t *testing.T) {
	client := &stubClient{packages: sessionPackages()}
	session := NewSession(client, Options{})

	for i := 0; i < 3; i++ {
		if _, err := session.Order(context.Background(), fileTierParams()); err != nil {
			t.Fatalf("order %d: %v", i, err)
		}
	}

	if client.packageCalls != 1 {
		t.Errorf("package fetched %d times, want 1", client.packageCalls)
	}
	if client.placeCalls != 3 {
		t.Errorf("orders placed %d times, want 3", client.placeCalls)
	}
}

// TestEmptyCatalog tests the empty-catalog error and that a failed fetch
// is retried on the next call
func TestEmptyCatalog(t *testing.T) {
	client := &stubClient{}
	session := NewSession(client, Options{})

	_, err := session.Order(context.Background(), fileTierParams())
	if !errors.IsType(err, errors.TypeEmptyCatalog) {
		t.Fatalf("expected EMPTY_CATALOG, got %v", err)
	}

	_, err = session.Order(context.Background(), fileTierParams())
	if !errors.IsType(err, errors.TypeEmptyCatalog) {
		t.Fatalf("expected EMPTY_CATALOG on retry, got %v", err)
	}
	if client.packageCalls != 2 {
		t.Errorf("package fetched %d times, want 2", client.packageCalls)
	}
}

// TestEntitlementFlags tests that account flags are fetched only for
// restricted catalogs, and then only once
func TestEntitlementFlags(t *testing.T) {
	t.Run("unrestricted catalog skips the account flags", func(t *testing.T) {
		client := &stubClient{packages: sessionPackages()}
		session := NewSession(client, Options{})

		if _, err := session.Order(context.Background(), fileTierParams()); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if client.vmwareCalls != 0 || client.betaCalls != 0 {
			t.Errorf("flag calls = %d/%d, want 0/0", client.vmwareCalls, client.betaCalls)
		}
	})

	restricted := sessionPackages()
	restricted[0].ItemPrices = append(restricted[0].ItemPrices, catalog.PriceEntry{
		ID:                  60,
		Categories:          []catalog.Category{{CategoryCode: "block"}},
		EligibilityStrategy: "FILE_BLOCK_BETA_ACCESS",
	})

	t.Run("restricted catalog fetches each flag once", func(t *testing.T) {
		client := &stubClient{packages: restricted}
		session := NewSession(client, Options{})

		for i := 0; i < 2; i++ {
			if _, err := session.Order(context.Background(), fileTierParams()); err != nil {
				t.Fatalf("order %d: %v", i, err)
			}
		}
		if client.vmwareCalls != 1 || client.betaCalls != 1 {
			t.Errorf("flag calls = %d/%d, want 1/1", client.vmwareCalls, client.betaCalls)
		}
		if len(session.ExcludedPrices()) != 1 {
			t.Errorf("excluded = %d, want 1", len(session.ExcludedPrices()))
		}
	})

	t.Run("granted entitlement keeps the price", func(t *testing.T) {
		client := &stubClient{packages: restricted, beta: true}
		session := NewSession(client, Options{})

		if _, err := session.Order(context.Background(), fileTierParams()); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(session.ExcludedPrices()) != 0 {
			t.Errorf("excluded = %d, want 0", len(session.ExcludedPrices()))
		}
	})
}

// TestPreviewDoesNotSubmit tests the local dry run
func TestPreviewDoesNotSubmit(t *testing.T) {
	client := &stubClient{packages: sessionPackages()}
	session := NewSession(client, Options{})

	preview, err := session.Preview(context.Background(), fileTierParams())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if client.placeCalls != 0 || client.verifyCalls != 0 {
		t.Errorf("remote order calls = %d/%d, want 0/0", client.placeCalls, client.verifyCalls)
	}

	assertPriceIDs(t, preview.Container.Prices, []int{10, 20, 51, 31})
	if preview.Estimate.Monthly.String() != "68.92" {
		t.Errorf("monthly estimate = %s, want 68.92", preview.Estimate.Monthly)
	}
}

// TestVerify tests the server-side dry run
func TestVerify(t *testing.T) {
	client := &stubClient{packages: sessionPackages()}
	session := NewSession(client, Options{})

	if _, err := session.Verify(context.Background(), fileTierParams()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if client.verifyCalls != 1 || client.placeCalls != 0 {
		t.Errorf("verify/place calls = %d/%d, want 1/0", client.verifyCalls, client.placeCalls)
	}

	client.verifyErr = errors.Transport("SoftLayer_Product_Order/verifyOrder", context.DeadlineExceeded)
	if _, err := session.Verify(context.Background(), fileTierParams()); !errors.IsType(err, errors.TypeTransport) {
		t.Fatalf("expected TRANSPORT_ERROR, got %v", err)
	}
}

// TestTransportErrorsPropagate tests that remote failures pass through
// unchanged
func TestTransportErrorsPropagate(t *testing.T) {
	t.Run("catalog fetch", func(t *testing.T) {
		client := &stubClient{
			packagesErr: errors.Transport("SoftLayer_Product_Package/getAllObjects", context.DeadlineExceeded),
		}
		session := NewSession(client, Options{})

		_, err := session.Order(context.Background(), fileTierParams())
		if !errors.IsType(err, errors.TypeTransport) {
			t.Fatalf("expected TRANSPORT_ERROR, got %v", err)
		}
	})

	t.Run("order placement", func(t *testing.T) {
		client := &stubClient{
			packages: sessionPackages(),
			placeErr: errors.Transport("SoftLayer_Product_Order/placeOrder", context.DeadlineExceeded),
		}
		session := NewSession(client, Options{})

		_, err := session.Order(context.Background(), fileTierParams())
		if !errors.IsType(err, errors.TypeTransport) {
			t.Fatalf("expected TRANSPORT_ERROR, got %v", err)
		}
	})
}

// TestInputValidationBeforeFetch tests that malformed parameters fail
// before any remote call
func TestInputValidationBeforeFetch(t *testing.T) {
	client := &stubClient{packages: sessionPackages()}
	session := NewSession(client, Options{})

	params := fileTierParams()
	params.Size = 0

	_, err := session.Order(context.Background(), params)
	if !errors.IsType(err, errors.TypeInput) {
		t.Fatalf("expected INPUT_ERROR, got %v", err)
	}
	if client.packageCalls != 0 {
		t.Errorf("package fetched %d times, want 0", client.packageCalls)
	}
}
