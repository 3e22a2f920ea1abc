// Package catalog defines the storage-as-a-service product catalog and the
// pure filters the price selection pipeline is built from.
package catalog

import (
	"strconv"

	"github.com/shopspring/decimal"
)

// Category codes used by storage-as-a-service price selection
const (
	// CategoryService is the zero-dollar service umbrella price
	CategoryService = "storage_as_a_service"

	// CategoryBlock is the block storage type price
	CategoryBlock = "block"

	// CategoryFile is the file storage type price
	CategoryFile = "storage_file"

	// CategoryIOPS is the performance price for IOPS-based orders
	CategoryIOPS = "performance_storage_iops"

	// CategoryTier is the performance price for tier-based orders
	CategoryTier = "storage_tier_level"

	// CategorySpace is the storage space price
	CategorySpace = "performance_storage_space"
)

// Capacity restriction types qualifying storage-space prices
const (
	RestrictionIOPS = "IOPS"
	RestrictionTier = "STORAGE_TIER_LEVEL"
)

// AttributeStorageTier is the item attribute key marking a tier level
const AttributeStorageTier = "STORAGE_TIER_LEVEL"

// Eligibility strategies restricting who may order a price entry
const (
	EligibilityVMwareCustomer = "VMWARE_CUSTOMER"
	EligibilityFileBlockBeta  = "FILE_BLOCK_BETA_ACCESS"
)

// PackageTypeStorageAsAService is the package type key this client orders from.
// Packages are always queried by type key, never by numeric id.
const PackageTypeStorageAsAService = "STORAGE_AS_A_SERVICE"

// Package is a product offering together with its orderable price entries
type Package struct {
	ID         int          `json:"id"`
	ItemPrices []PriceEntry `json:"itemPrices"`
}

// PriceEntry is a priceable line item belonging to one or more categories,
// optionally restricted by capacity range, location group, or eligibility.
// Capacity bounds arrive as decimal strings and are compared as integers.
type PriceEntry struct {
	ID                         int             `json:"id"`
	Categories                 []Category      `json:"categories,omitempty"`
	CapacityRestrictionMinimum string          `json:"capacityRestrictionMinimum,omitempty"`
	CapacityRestrictionMaximum string          `json:"capacityRestrictionMaximum,omitempty"`
	CapacityRestrictionType    string          `json:"capacityRestrictionType,omitempty"`
	LocationGroupID            *int            `json:"locationGroupId"`
	EligibilityStrategy        string          `json:"eligibilityStrategy,omitempty"`
	RecurringFee               decimal.Decimal `json:"recurringFee"`
	HourlyRecurringFee         decimal.Decimal `json:"hourlyRecurringFee"`
	Item                       Item            `json:"item"`
}

// Category assigns a price entry to a selectable category
type Category struct {
	CategoryCode string `json:"categoryCode"`
}

// Item is the product item a price entry charges for
type Item struct {
	Description     string          `json:"description,omitempty"`
	Attributes      []Attribute     `json:"attributes,omitempty"`
	Capacity        decimal.Decimal `json:"capacity"`
	CapacityMinimum string          `json:"capacityMinimum,omitempty"`
	CapacityMaximum string          `json:"capacityMaximum,omitempty"`
}

// Attribute is a typed key/value marker on an item
type Attribute struct {
	AttributeTypeKeyName string `json:"attributeTypeKeyName"`
	Value                string `json:"value"`
}

// Entitlements are the account flags gating restricted price entries
type Entitlements struct {
	ActiveVMwareCustomer bool
	FileBlockBetaAccess  bool
}

// Allows reports whether these entitlements satisfy an eligibility strategy.
// Unknown strategies are treated as restricted.
func (e Entitlements) Allows(strategy string) bool {
	switch strategy {
	case "":
		return true
	case EligibilityVMwareCustomer:
		return e.ActiveVMwareCustomer
	case EligibilityFileBlockBeta:
		return e.FileBlockBetaAccess
	default:
		return false
	}
}

// IsStandard reports whether the entry is a standard price, one not tied to
// a location group. Location-based prices carry a non-zero locationGroupId;
// the API swaps standard prices for location ones server-side when needed.
func (p PriceEntry) IsStandard() bool {
	return p.LocationGroupID == nil || *p.LocationGroupID == 0
}

// HasCategory reports whether the entry is assigned to the category code
func (p PriceEntry) HasCategory(categoryCode string) bool {
	for _, c := range p.Categories {
		if c.CategoryCode == categoryCode {
			return true
		}
	}
	return false
}

// RestrictionContains reports whether value falls inside the entry's
// capacity restriction range, inclusive on both bounds
func (p PriceEntry) RestrictionContains(value int) bool {
	return rangeContains(p.CapacityRestrictionMinimum, p.CapacityRestrictionMaximum, value)
}

// CapacityContains reports whether value falls inside the item's capacity
// range, inclusive on both bounds
func (i Item) CapacityContains(value int) bool {
	return rangeContains(i.CapacityMinimum, i.CapacityMaximum, value)
}

// TierLevel returns the item's STORAGE_TIER_LEVEL attribute as an integer.
// The second result is false when no numeric tier attribute exists.
func (i Item) TierLevel() (int, bool) {
	for _, a := range i.Attributes {
		if a.AttributeTypeKeyName != AttributeStorageTier {
			continue
		}
		level, err := strconv.Atoi(a.Value)
		if err != nil {
			continue
		}
		return level, true
	}
	return 0, false
}

// rangeContains compares inclusive integer bounds carried as decimal
// strings. Non-numeric bounds never match.
func rangeContains(min, max string, value int) bool {
	lo, err := strconv.Atoi(min)
	if err != nil {
		return false
	}
	hi, err := strconv.Atoi(max)
	if err != nil {
		return false
	}
	return lo <= value && value <= hi
}
