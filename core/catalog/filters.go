package catalog

// StandardPrices returns the entries not tied to a location group.
// Catalog order is preserved; nothing is re-sorted.
func StandardPrices(prices []PriceEntry) []PriceEntry {
	var matches []PriceEntry
	for _, p := range prices {
		if p.IsStandard() {
			matches = append(matches, p)
		}
	}
	return matches
}

// PricesForCategory returns the entries assigned to the category code
func PricesForCategory(prices []PriceEntry, categoryCode string) []PriceEntry {
	var matches []PriceEntry
	for _, p := range prices {
		if p.HasCategory(categoryCode) {
			matches = append(matches, p)
		}
	}
	return matches
}

// PricesForTierLevel returns the entries whose item carries a
// STORAGE_TIER_LEVEL attribute equal to tierLevel
func PricesForTierLevel(prices []PriceEntry, tierLevel int) []PriceEntry {
	var matches []PriceEntry
	for _, p := range prices {
		if level, ok := p.Item.TierLevel(); ok && level == tierLevel {
			matches = append(matches, p)
		}
	}
	return matches
}

// PricesWithinItemCapacity returns the entries whose item capacity range
// contains value
func PricesWithinItemCapacity(prices []PriceEntry, value int) []PriceEntry {
	var matches []PriceEntry
	for _, p := range prices {
		if p.Item.CapacityContains(value) {
			matches = append(matches, p)
		}
	}
	return matches
}

// PricesWithRestrictionType returns the entries with the given capacity
// restriction type
func PricesWithRestrictionType(prices []PriceEntry, restrictionType string) []PriceEntry {
	var matches []PriceEntry
	for _, p := range prices {
		if p.CapacityRestrictionType == restrictionType {
			matches = append(matches, p)
		}
	}
	return matches
}

// PricesWithinRestriction returns the entries whose capacity restriction
// range contains value
func PricesWithinRestriction(prices []PriceEntry, value int) []PriceEntry {
	var matches []PriceEntry
	for _, p := range prices {
		if p.RestrictionContains(value) {
			matches = append(matches, p)
		}
	}
	return matches
}

// ApplyEntitlements splits a package into the entries the account may order
// and the entries removed by entitlement. The eligible package keeps catalog
// order. The removed entries are retained so an empty selection can report
// that candidates existed but were filtered.
func ApplyEntitlements(pkg Package, ent Entitlements) (Package, []PriceEntry) {
	eligible := Package{ID: pkg.ID}
	var excluded []PriceEntry

	for _, p := range pkg.ItemPrices {
		if ent.Allows(p.EligibilityStrategy) {
			eligible.ItemPrices = append(eligible.ItemPrices, p)
		} else {
			excluded = append(excluded, p)
		}
	}

	return eligible, excluded
}

// Restricted reports whether any entry in the package carries an
// eligibility strategy, meaning entitlement flags must be consulted
func Restricted(pkg Package) bool {
	for _, p := range pkg.ItemPrices {
		if p.EligibilityStrategy != "" {
			return true
		}
	}
	return false
}
