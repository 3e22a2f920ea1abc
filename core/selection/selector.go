// Package selection derives the four price entries a storage-as-a-service
// order requires: service, storage type, storage space, and performance.
// Selection is pure; it never calls the remote API.
package selection

import (
	"strings"

	"staas-order/core/catalog"
	"staas-order/internal/errors"
)

// Performance types accepted by the selection pipeline
const (
	// PerformanceTypeIOPS orders by a raw IOPS target
	PerformanceTypeIOPS = "iops"

	// PerformanceTypeTier orders by a discrete tier level
	PerformanceTypeTier = "tier"
)

// TypeCategoryMapping resolves an order's storage type to a price category
// code. Unmapped types resolve to Default.
type TypeCategoryMapping struct {
	Categories map[string]string
	Default    string
}

// DefaultTypeCategoryMapping returns the shipped mapping. Only the internal
// literal "storage_block" maps to the block category; every other value,
// including the public "block", falls through to the file category. The
// ordering configuration can override the table.
func DefaultTypeCategoryMapping() TypeCategoryMapping {
	return TypeCategoryMapping{
		Categories: map[string]string{
			"storage_block": catalog.CategoryBlock,
		},
		Default: catalog.CategoryFile,
	}
}

// CategoryFor resolves a storage type to its price category code
func (m TypeCategoryMapping) CategoryFor(storageType string) string {
	if code, ok := m.Categories[storageType]; ok {
		return code
	}
	return m.Default
}

// Selected holds the four price entries an order submits
type Selected struct {
	Service      catalog.PriceEntry
	StorageType  catalog.PriceEntry
	StorageSpace catalog.PriceEntry
	Performance  catalog.PriceEntry

	// StorageTypeCategory is the category the storage type resolved to
	StorageTypeCategory string
}

// Prices returns the entries in the fixed order the order container
// expects: service, storage type, storage space, performance
func (s *Selected) Prices() []catalog.PriceEntry {
	return []catalog.PriceEntry{s.Service, s.StorageType, s.StorageSpace, s.Performance}
}

// Selector runs the selection pipeline over an entitlement-filtered
// package. The excluded entries removed by entitlement are kept so empty
// selections can report why candidates disappeared.
type Selector struct {
	pkg      catalog.Package
	excluded []catalog.PriceEntry
	mapping  TypeCategoryMapping
}

// NewSelector creates a selector. A zero-value mapping falls back to
// DefaultTypeCategoryMapping.
func NewSelector(pkg catalog.Package, excluded []catalog.PriceEntry, mapping TypeCategoryMapping) *Selector {
	if mapping.Categories == nil && mapping.Default == "" {
		mapping = DefaultTypeCategoryMapping()
	}
	return &Selector{
		pkg:      pkg,
		excluded: excluded,
		mapping:  mapping,
	}
}

// Select derives all four prices for an order. Lookups run in the order the
// container lists them; the first failing lookup aborts the selection.
func (s *Selector) Select(size int, storageType, performanceType string, performanceValue int) (*Selected, error) {
	service, err := s.ServicePrice()
	if err != nil {
		return nil, err
	}

	typePrice, err := s.StorageTypePrice(storageType)
	if err != nil {
		return nil, err
	}

	space, err := s.StorageSpacePrice(size, performanceType, performanceValue)
	if err != nil {
		return nil, err
	}

	performance, err := s.PerformancePrice(size, performanceType, performanceValue)
	if err != nil {
		return nil, err
	}

	return &Selected{
		Service:             service,
		StorageType:         typePrice,
		StorageSpace:        space,
		Performance:         performance,
		StorageTypeCategory: s.mapping.CategoryFor(storageType),
	}, nil
}

// ServicePrice returns the zero-dollar storage-as-a-service umbrella price
func (s *Selector) ServicePrice() (catalog.PriceEntry, error) {
	return s.firstPrice(catalog.CategoryService,
		standardFor(s.pkg.ItemPrices, catalog.CategoryService),
		standardFor(s.excluded, catalog.CategoryService))
}

// StorageTypePrice returns the price for the storage type's category as
// resolved through the mapping table
func (s *Selector) StorageTypePrice(storageType string) (catalog.PriceEntry, error) {
	code := s.mapping.CategoryFor(storageType)
	return s.firstPrice(code,
		standardFor(s.pkg.ItemPrices, code),
		standardFor(s.excluded, code),
		"storage_type", storageType)
}

// StorageTypeCategory resolves the storage type without selecting a price
func (s *Selector) StorageTypeCategory(storageType string) string {
	return s.mapping.CategoryFor(storageType)
}

// PerformancePrice returns the price for the requested performance. Tier
// orders match on the item's tier attribute; IOPS orders match the IOPS
// value against the item capacity range and the order size against the
// capacity restriction range.
func (s *Selector) PerformancePrice(size int, performanceType string, performanceValue int) (catalog.PriceEntry, error) {
	switch performanceType {
	case PerformanceTypeTier:
		return s.firstPrice(catalog.CategoryTier,
			tierCandidates(s.pkg.ItemPrices, performanceValue),
			tierCandidates(s.excluded, performanceValue),
			"performance_value", performanceValue)
	case PerformanceTypeIOPS:
		return s.firstPrice(catalog.CategoryIOPS,
			iopsCandidates(s.pkg.ItemPrices, size, performanceValue),
			iopsCandidates(s.excluded, size, performanceValue),
			"size", size, "performance_value", performanceValue)
	default:
		return catalog.PriceEntry{}, errors.InvalidPerformanceType(performanceType)
	}
}

// StorageSpacePrice returns the space price compatible with both the
// requested performance and the order size
func (s *Selector) StorageSpacePrice(size int, performanceType string, performanceValue int) (catalog.PriceEntry, error) {
	restrictionType, err := restrictionTypeFor(performanceType)
	if err != nil {
		return catalog.PriceEntry{}, err
	}

	return s.firstPrice(catalog.CategorySpace,
		spaceCandidates(s.pkg.ItemPrices, restrictionType, performanceValue, size),
		spaceCandidates(s.excluded, restrictionType, performanceValue, size),
		"size", size, "performance_type", performanceType, "performance_value", performanceValue)
}

// firstPrice takes the first candidate in catalog order. An empty candidate
// list becomes a no-matching-price error; when entries removed by
// entitlement would have matched the same filters, the error names the
// missing entitlement instead of claiming the price does not exist.
func (s *Selector) firstPrice(categoryCode string, matches, excludedMatches []catalog.PriceEntry, kv ...interface{}) (catalog.PriceEntry, error) {
	if len(matches) > 0 {
		return matches[0], nil
	}

	var err *errors.Error
	if len(excludedMatches) > 0 {
		required := requiredStrategies(excludedMatches)
		err = errors.Newf(errors.TypeNoMatchingPrice,
			"no orderable price for category %s: %d matching price(s) require entitlement %s",
			categoryCode, len(excludedMatches), required).
			WithContext("category", categoryCode).
			WithContext("excluded_by_entitlement", len(excludedMatches)).
			WithContext("required_entitlement", required)
	} else {
		err = errors.NoMatchingPrice(categoryCode)
	}

	for i := 0; i+1 < len(kv); i += 2 {
		if key, ok := kv[i].(string); ok {
			err = err.WithContext(key, kv[i+1])
		}
	}

	return catalog.PriceEntry{}, err
}

// restrictionTypeFor maps the local performance type naming to the API's
// capacity restriction type naming
func restrictionTypeFor(performanceType string) (string, error) {
	switch performanceType {
	case PerformanceTypeIOPS:
		return catalog.RestrictionIOPS, nil
	case PerformanceTypeTier:
		return catalog.RestrictionTier, nil
	default:
		return "", errors.InvalidPerformanceType(performanceType)
	}
}

func standardFor(prices []catalog.PriceEntry, categoryCode string) []catalog.PriceEntry {
	return catalog.PricesForCategory(catalog.StandardPrices(prices), categoryCode)
}

func tierCandidates(prices []catalog.PriceEntry, tierLevel int) []catalog.PriceEntry {
	return catalog.PricesForTierLevel(standardFor(prices, catalog.CategoryTier), tierLevel)
}

func iopsCandidates(prices []catalog.PriceEntry, size, iops int) []catalog.PriceEntry {
	candidates := catalog.PricesWithinItemCapacity(standardFor(prices, catalog.CategoryIOPS), iops)
	return catalog.PricesWithinRestriction(candidates, size)
}

func spaceCandidates(prices []catalog.PriceEntry, restrictionType string, performanceValue, size int) []catalog.PriceEntry {
	candidates := catalog.PricesWithRestrictionType(standardFor(prices, catalog.CategorySpace), restrictionType)
	candidates = catalog.PricesWithinRestriction(candidates, performanceValue)
	return catalog.PricesWithinItemCapacity(candidates, size)
}

func requiredStrategies(prices []catalog.PriceEntry) string {
	seen := make(map[string]bool)
	var names []string
	for _, p := range prices {
		if p.EligibilityStrategy == "" || seen[p.EligibilityStrategy] {
			continue
		}
		seen[p.EligibilityStrategy] = true
		names = append(names, p.EligibilityStrategy)
	}
	return strings.Join(names, ", ")
}
