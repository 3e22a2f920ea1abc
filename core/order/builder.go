package order

import (
	"staas-order/core/selection"
)

// DefaultOSFormatKeyName is the OS format stamped on block orders when no
// override is configured.
const DefaultOSFormatKeyName = "VMWARE"

// BuildContainer assembles the order container from the selected prices
// and the order parameters. It performs no validation of its own; the
// selection pipeline has already vetted everything it depends on.
func BuildContainer(packageID int, params Parameters, selected *selection.Selected, osFormatKeyName string) Container {
	container := Container{
		ComplexType: ContainerComplexType,
		PackageID:   packageID,
		Location:    params.RegionName,
		VolumeSize:  params.Size,
		Prices:      make([]PriceReference, 0, 4),
	}

	for _, price := range selected.Prices() {
		container.Prices = append(container.Prices, PriceReference{ID: price.ID})
	}

	if params.StorageType == StorageTypeBlock {
		if osFormatKeyName == "" {
			osFormatKeyName = DefaultOSFormatKeyName
		}
		container.OSFormatType = &OSFormat{KeyName: osFormatKeyName}
	}

	// The raw IOPS number rides on the container itself, not only on the
	// performance price.
	if params.PerformanceType == selection.PerformanceTypeIOPS {
		container.IOPS = params.PerformanceValue
	}

	return container
}
