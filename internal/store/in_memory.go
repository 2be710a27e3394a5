package store

import (
	"context"
	"sync"

	inverrors "github.com/abgdnv/inventory/internal/errors"
	"github.com/abgdnv/inventory/internal/model"
)

type recordKey struct {
	productID int64
	condition string
}

// inMemory implements InventoryStore using an in-memory map.
// Records are kept in insertion order, matching the PostgreSQL implementation.
type inMemory struct {
	mu      sync.RWMutex
	records map[recordKey]model.Record
	order   []recordKey
}

// NewInMemoryStore creates a new instance of InventoryStore backed by process memory.
func NewInMemoryStore() InventoryStore {
	return &inMemory{
		records: make(map[recordKey]model.Record),
	}
}

func (s *inMemory) Create(_ context.Context, record *model.Record) (*model.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := recordKey{record.ProductID, record.Condition}
	if _, ok := s.records[key]; ok {
		return nil, inverrors.ErrConflict
	}
	s.records[key] = *record
	s.order = append(s.order, key)

	created := *record
	return &created, nil
}

func (s *inMemory) Find(_ context.Context, productID int64, condition string) (*model.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	record, ok := s.records[recordKey{productID, condition}]
	if !ok {
		return nil, inverrors.ErrNotFound
	}
	return &record, nil
}

func (s *inMemory) FindByProductID(_ context.Context, productID int64) ([]model.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	list := make([]model.Record, 0)
	for _, key := range s.order {
		if key.productID == productID {
			list = append(list, s.records[key])
		}
	}
	return list, nil
}

func (s *inMemory) FindAll(_ context.Context, filter Filter) ([]model.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	list := make([]model.Record, 0, len(s.order))
	for _, key := range s.order {
		record := s.records[key]
		if filter.Condition != nil && record.Condition != *filter.Condition {
			continue
		}
		if filter.Available != nil && record.Available != *filter.Available {
			continue
		}
		if filter.Quantity != nil && record.Quantity != *filter.Quantity {
			continue
		}
		list = append(list, record)
	}
	return list, nil
}

func (s *inMemory) Update(_ context.Context, record *model.Record) (*model.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := recordKey{record.ProductID, record.Condition}
	if _, ok := s.records[key]; !ok {
		return nil, inverrors.ErrNotFound
	}
	s.records[key] = *record

	updated := *record
	return &updated, nil
}

func (s *inMemory) Delete(_ context.Context, productID int64, condition string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := recordKey{productID, condition}
	if _, ok := s.records[key]; !ok {
		return nil
	}
	delete(s.records, key)
	for i, k := range s.order {
		if k == key {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
	return nil
}
