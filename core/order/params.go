package order

import (
	"staas-order/internal/errors"
)

// Storage type values accepted on order parameters
const (
	StorageTypeFile  = "file"
	StorageTypeBlock = "block"
)

// Parameters describes a single storage volume order.
//
// PerformanceValue is read through PerformanceType: a tier level for tier
// orders (the catalog currently carries levels 100, 200, 300 and 10000),
// a raw IOPS target for IOPS orders.
type Parameters struct {
	// Size is the volume size in GB
	Size int `json:"size"`

	// StorageType is "file" or "block"
	StorageType string `json:"storage_type"`

	// PerformanceType is "iops" or "tier"
	PerformanceType string `json:"performance_type"`

	PerformanceValue int `json:"performance_value"`

	// RegionName names the datacenter the volume lands in, e.g. "DALLAS09"
	RegionName string `json:"region_name"`
}

// Validate rejects parameters that cannot describe any order. Performance
// type validity is left to the selection pipeline, which reports it with
// its own error type.
func (p Parameters) Validate() error {
	if p.Size <= 0 {
		return errors.Input("size must be a positive number of GB").
			WithContext("size", p.Size)
	}
	if p.StorageType == "" {
		return errors.Input("storage type is required")
	}
	if p.PerformanceValue <= 0 {
		return errors.Input("performance value must be positive").
			WithContext("performance_value", p.PerformanceValue)
	}
	if p.RegionName == "" {
		return errors.Input("region name is required")
	}
	return nil
}
