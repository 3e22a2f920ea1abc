// Package order drives a storage-as-a-service purchase end to end: fetch
// the product package, select the four required prices, assemble the order
// container and hand it to the product order service.
package order

import (
	"context"

	"go.uber.org/zap"

	"staas-order/core/catalog"
	"staas-order/core/selection"
	"staas-order/internal/errors"
	"staas-order/internal/logging"
)

// Client is the remote API surface a session depends on
type Client interface {
	// PackagesByType returns the product packages whose type matches typeKey
	PackagesByType(ctx context.Context, typeKey string) ([]catalog.Package, error)

	// ActiveVMwareCustomer reports the account's VMware entitlement
	ActiveVMwareCustomer(ctx context.Context) (bool, error)

	// FileBlockBetaAccess reports the account's file/block beta entitlement
	FileBlockBetaAccess(ctx context.Context) (bool, error)

	// PlaceOrder submits the container and returns the order receipt
	PlaceOrder(ctx context.Context, container Container) (Receipt, error)

	// VerifyOrder runs the order service's dry-run check on the container
	VerifyOrder(ctx context.Context, container Container) error
}

// Options tunes a session. Zero values fall back to the shipped defaults.
type Options struct {
	// PackageType is the package type key to order against
	PackageType string

	// OSFormatKeyName is stamped on block orders
	OSFormatKeyName string

	// Mapping resolves storage types to price categories
	Mapping selection.TypeCategoryMapping
}

// Preview is a dry-run order: the container that would be submitted and
// the standard-fee estimate for its prices.
type Preview struct {
	Container Container `json:"container"`
	Estimate  Estimate  `json:"estimate"`
}

// Result is a placed order: the receipt plus the local view of what was
// submitted
type Result struct {
	Receipt   Receipt   `json:"receipt"`
	Container Container `json:"container"`
	Estimate  Estimate  `json:"estimate"`
}

// Session carries the per-session catalog state. The package and the
// account entitlements are fetched on first use and reused for every
// subsequent order. A session is not safe for concurrent use; callers
// that share one across goroutines serialize access themselves.
type Session struct {
	client Client
	opts   Options
	log    *zap.Logger

	pkg      *catalog.Package
	excluded []catalog.PriceEntry
}

// NewSession creates a session over the given client
func NewSession(client Client, opts Options) *Session {
	if opts.PackageType == "" {
		opts.PackageType = catalog.PackageTypeStorageAsAService
	}
	if opts.OSFormatKeyName == "" {
		opts.OSFormatKeyName = DefaultOSFormatKeyName
	}
	return &Session{
		client: client,
		opts:   opts,
		log:    logging.Named("order"),
	}
}

// Package returns the entitlement-filtered product package, fetching it on
// first use
func (s *Session) Package(ctx context.Context) (catalog.Package, error) {
	if err := s.ensureCatalog(ctx); err != nil {
		return catalog.Package{}, err
	}
	return *s.pkg, nil
}

// ExcludedPrices returns the catalog entries the account's entitlements
// removed. Empty until the catalog has been fetched.
func (s *Session) ExcludedPrices() []catalog.PriceEntry {
	return s.excluded
}

// Order selects prices for the parameters, assembles the container and
// places the order
func (s *Session) Order(ctx context.Context, params Parameters) (*Result, error) {
	container, selected, err := s.assemble(ctx, params)
	if err != nil {
		return nil, err
	}

	receipt, err := s.client.PlaceOrder(ctx, container)
	if err != nil {
		return nil, err
	}

	s.log.Info("order placed",
		zap.Int("order_id", receipt.OrderID),
		zap.Int("size_gb", params.Size),
		zap.String("storage_type", params.StorageType),
		zap.String("region", params.RegionName))

	return &Result{
		Receipt:   receipt,
		Container: container,
		Estimate:  NewEstimate(selected),
	}, nil
}

// Preview runs selection and assembly without contacting the order
// service
func (s *Session) Preview(ctx context.Context, params Parameters) (*Preview, error) {
	container, selected, err := s.assemble(ctx, params)
	if err != nil {
		return nil, err
	}
	return &Preview{Container: container, Estimate: NewEstimate(selected)}, nil
}

// Verify is Preview plus a server-side dry run of the assembled container
func (s *Session) Verify(ctx context.Context, params Parameters) (*Preview, error) {
	preview, err := s.Preview(ctx, params)
	if err != nil {
		return nil, err
	}
	if err := s.client.VerifyOrder(ctx, preview.Container); err != nil {
		return nil, err
	}
	return preview, nil
}

func (s *Session) assemble(ctx context.Context, params Parameters) (Container, *selection.Selected, error) {
	if err := params.Validate(); err != nil {
		return Container{}, nil, err
	}

	selected, err := s.selectPrices(ctx, params)
	if err != nil {
		return Container{}, nil, err
	}

	return BuildContainer(s.pkg.ID, params, selected, s.opts.OSFormatKeyName), selected, nil
}

func (s *Session) selectPrices(ctx context.Context, params Parameters) (*selection.Selected, error) {
	if err := s.ensureCatalog(ctx); err != nil {
		return nil, err
	}

	sel := selection.NewSelector(*s.pkg, s.excluded, s.opts.Mapping)
	selected, err := sel.Select(params.Size, params.StorageType, params.PerformanceType, params.PerformanceValue)
	if err != nil {
		return nil, err
	}

	if params.StorageType == StorageTypeBlock && selected.StorageTypeCategory == catalog.CategoryFile {
		s.log.Warn("block order resolved to the file storage category; override the storage type mapping if this is unintended",
			zap.String("storage_type", params.StorageType),
			zap.String("category", selected.StorageTypeCategory))
	}

	return selected, nil
}

// ensureCatalog fetches and filters the package once. Failed fetches are
// not memoized; the next call retries.
func (s *Session) ensureCatalog(ctx context.Context) error {
	if s.pkg != nil {
		return nil
	}

	packages, err := s.client.PackagesByType(ctx, s.opts.PackageType)
	if err != nil {
		return err
	}
	if len(packages) == 0 {
		return errors.EmptyCatalog(s.opts.PackageType)
	}

	pkg := packages[0]
	if len(packages) > 1 {
		s.log.Warn("multiple packages match type, using the first",
			zap.String("package_type", s.opts.PackageType),
			zap.Int("count", len(packages)),
			zap.Int("package_id", pkg.ID))
	}

	ent := catalog.Entitlements{}
	if catalog.Restricted(pkg) {
		if ent, err = s.entitlements(ctx); err != nil {
			return err
		}
	}

	eligible, excluded := catalog.ApplyEntitlements(pkg, ent)
	s.pkg = &eligible
	s.excluded = excluded

	s.log.Debug("catalog ready",
		zap.Int("package_id", eligible.ID),
		zap.Int("prices", len(eligible.ItemPrices)),
		zap.Int("excluded", len(excluded)))
	return nil
}

// entitlements fetches the account flags. Called only when the catalog
// actually carries eligibility-restricted prices.
func (s *Session) entitlements(ctx context.Context) (catalog.Entitlements, error) {
	vmware, err := s.client.ActiveVMwareCustomer(ctx)
	if err != nil {
		return catalog.Entitlements{}, err
	}
	beta, err := s.client.FileBlockBetaAccess(ctx)
	if err != nil {
		return catalog.Entitlements{}, err
	}
	return catalog.Entitlements{
		ActiveVMwareCustomer: vmware,
		FileBlockBetaAccess:  beta,
	}, nil
}
