package order

// ContainerComplexType is the container type the product order service
// requires for storage-as-a-service orders.
const ContainerComplexType = "SoftLayer_Container_Product_Order_Network_Storage_AsAService"

// Container is the order request wire shape sent to the product order
// service. Prices carries exactly four references in a fixed order:
// service, storage type, storage space, performance.
type Container struct {
	ComplexType string           `json:"complexType"`
	PackageID   int              `json:"packageId"`
	Location    string           `json:"location"`
	VolumeSize  int              `json:"volumeSize"`
	Prices      []PriceReference `json:"prices"`

	// OSFormatType is set only on block orders
	OSFormatType *OSFormat `json:"osFormatType,omitempty"`

	// IOPS is set only when ordering by raw IOPS
	IOPS int `json:"iops,omitempty"`
}

// PriceReference identifies a catalog price by id. The order service
// resolves the full price server-side, switching standard prices to their
// location-specific equivalents when the datacenter requires it.
type PriceReference struct {
	ID int `json:"id"`
}

// OSFormat names the OS format type for block volumes
type OSFormat struct {
	KeyName string `json:"keyName"`
}

// Receipt is the order service response for a placed order
type Receipt struct {
	OrderID   int    `json:"orderId"`
	OrderDate string `json:"orderDate,omitempty"`
}
