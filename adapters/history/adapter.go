// Package history keeps a local record of placed orders. Two backends:
// JSON files under a base directory, and memory for tests.
package history

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"staas-order/core/order"
	"staas-order/internal/errors"
)

// Backend selects a store implementation
type Backend string

const (
	BackendFile   Backend = "file"
	BackendMemory Backend = "memory"
)

// Record is one placed order
type Record struct {
	// ID is the record id, assigned on save
	ID string `json:"id"`

	// Name is the caller's label for the volume, when there is one
	Name string `json:"name,omitempty"`

	// OrderID is the receipt's order id
	OrderID int `json:"order_id"`

	Size             int    `json:"size"`
	StorageType      string `json:"storage_type"`
	PerformanceType  string `json:"performance_type"`
	PerformanceValue int    `json:"performance_value"`
	Region           string `json:"region"`

	// PriceIDs are the submitted price ids in container order
	PriceIDs []int `json:"price_ids"`

	// MonthlyEstimate is the standard-fee estimate at order time
	MonthlyEstimate decimal.Decimal `json:"monthly_estimate"`

	CreatedAt time.Time `json:"created_at"`
}

// NewRecord builds a record from a placed order
func NewRecord(name string, params order.Parameters, result *order.Result) *Record {
	ids := make([]int, 0, len(result.Container.Prices))
	for _, price := range result.Container.Prices {
		ids = append(ids, price.ID)
	}
	return &Record{
		Name:             name,
		OrderID:          result.Receipt.OrderID,
		Size:             params.Size,
		StorageType:      params.StorageType,
		PerformanceType:  params.PerformanceType,
		PerformanceValue: params.PerformanceValue,
		Region:           params.RegionName,
		PriceIDs:         ids,
		MonthlyEstimate:  result.Estimate.Monthly,
	}
}

// ListFilter narrows List results. Zero fields match everything.
type ListFilter struct {
	Region      string
	StorageType string
	Since       time.Time
	Limit       int
}

func (f *ListFilter) matches(record *Record) bool {
	if f == nil {
		return true
	}
	if f.Region != "" && record.Region != f.Region {
		return false
	}
	if f.StorageType != "" && record.StorageType != f.StorageType {
		return false
	}
	if !f.Since.IsZero() && record.CreatedAt.Before(f.Since) {
		return false
	}
	return true
}

// Store is the order history surface
type Store interface {
	// Save stores a record, assigning its id and timestamp when unset
	Save(ctx context.Context, record *Record) error

	// Get retrieves a record by id
	Get(ctx context.Context, id string) (*Record, error)

	// List returns matching records, newest first
	List(ctx context.Context, filter *ListFilter) ([]*Record, error)

	// Delete removes a record
	Delete(ctx context.Context, id string) error

	// Close closes the store
	Close() error
}

var _ Store = (*FileStore)(nil)
var _ Store = (*MemoryStore)(nil)

// NewStore creates a store for the configured backend
func NewStore(backend Backend, directory string) (Store, error) {
	switch backend {
	case BackendFile, "":
		if directory == "" {
			return nil, errors.New(errors.TypeConfig, "history directory is required for the file backend")
		}
		return NewFileStore(directory)
	case BackendMemory:
		return NewMemoryStore(), nil
	default:
		return nil, errors.Newf(errors.TypeConfig, "unsupported history backend %q", string(backend))
	}
}

func stamp(record *Record) {
	if record.ID == "" {
		record.ID = uuid.New().String()
	}
	if record.CreatedAt.IsZero() {
		record.CreatedAt = time.Now().UTC()
	}
}

func sortNewestFirst(records []*Record) {
	sort.Slice(records, func(i, j int) bool {
		if !records[i].CreatedAt.Equal(records[j].CreatedAt) {
			return records[i].CreatedAt.After(records[j].CreatedAt)
		}
		return records[i].ID < records[j].ID
	})
}

// FileStore keeps one JSON file per record under a base directory
type FileStore struct {
	basePath string
	mu       sync.RWMutex
}

// NewFileStore creates a file store, creating the directory if needed
func NewFileStore(basePath string) (*FileStore, error) {
	if err := os.MkdirAll(basePath, 0o755); err != nil {
		return nil, errors.Internal("creating history directory", err)
	}
	return &FileStore{basePath: basePath}, nil
}

func (s *FileStore) Save(ctx context.Context, record *Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	stamp(record)

	data, err := json.MarshalIndent(record, "", "  ")
	if err != nil {
		return errors.Internal("encoding history record", err)
	}
	path := filepath.Join(s.basePath, record.ID+".json")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return errors.Internal("writing history record", err)
	}
	return nil
}

func (s *FileStore) Get(ctx context.Context, id string) (*Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.read(id)
}

func (s *FileStore) read(id string) (*Record, error) {
	// Record ids never contain path separators; anything else is treated
	// as absent rather than resolved against the base directory.
	if id == "" || id != filepath.Base(id) {
		return nil, errors.NotFound("order record", id)
	}

	data, err := os.ReadFile(filepath.Join(s.basePath, id+".json"))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.NotFound("order record", id)
		}
		return nil, errors.Internal("reading history record", err)
	}

	var record Record
	if err := json.Unmarshal(data, &record); err != nil {
		return nil, errors.Parsing(fmt.Sprintf("decoding history record %s", id), err)
	}
	return &record, nil
}

func (s *FileStore) List(ctx context.Context, filter *ListFilter) ([]*Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	entries, err := os.ReadDir(s.basePath)
	if err != nil {
		return nil, errors.Internal("reading history directory", err)
	}

	var records []*Record
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") {
			continue
		}
		record, err := s.read(strings.TrimSuffix(entry.Name(), ".json"))
		if err != nil {
			continue
		}
		if filter.matches(record) {
			records = append(records, record)
		}
	}

	sortNewestFirst(records)
	if filter != nil && filter.Limit > 0 && filter.Limit < len(records) {
		records = records[:filter.Limit]
	}
	return records, nil
}

func (s *FileStore) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if id == "" || id != filepath.Base(id) {
		return errors.NotFound("order record", id)
	}

	if err := os.Remove(filepath.Join(s.basePath, id+".json")); err != nil {
		if os.IsNotExist(err) {
			return errors.NotFound("order record", id)
		}
		return errors.Internal("deleting history record", err)
	}
	return nil
}

func (s *FileStore) Close() error {
	return nil
}

// MemoryStore is an in-memory backend for tests
type MemoryStore struct {
	records map[string]*Record
	mu      sync.RWMutex
}

// NewMemoryStore creates a memory store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		records: make(map[string]*Record),
	}
}

func (s *MemoryStore) Save(ctx context.Context, record *Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	stamp(record)
	s.records[record.ID] = record
	return nil
}

func (s *MemoryStore) Get(ctx context.Context, id string) (*Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	record, ok := s.records[id]
	if !ok {
		return nil, errors.NotFound("order record", id)
	}
	return record, nil
}

func (s *MemoryStore) List(ctx context.Context, filter *ListFilter) ([]*Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var records []*Record
	for _, record := range s.records {
		if filter.matches(record) {
			records = append(records, record)
		}
	}

	sortNewestFirst(records)
	if filter != nil && filter.Limit > 0 && filter.Limit < len(records) {
		records = records[:filter.Limit]
	}
	return records, nil
}

func (s *MemoryStore) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.records[id]; !ok {
		return errors.NotFound("order record", id)
	}
	delete(s.records, id)
	return nil
}

func (s *MemoryStore) Close() error {
	return nil
}
