// Package store provides an interface for inventory record storage operations.
package store

import (
	"context"

	"github.com/abgdnv/inventory/internal/model"
)

// Filter narrows FindAll to records matching every set field.
type Filter struct {
	Condition *string
	Available *int64
	Quantity  *int64
}

// InventoryStore is an interface for inventory record storage operations.
// It abstracts the underlying data store, allowing for different implementations (e.g., in-memory, database).
type InventoryStore interface {
	// Create adds a new record to the store.
	// Returns ErrConflict if a record with the same (product_id, condition) already exists.
	Create(ctx context.Context, record *model.Record) (*model.Record, error)

	// Find retrieves the record with the given natural key.
	// Returns ErrNotFound if no such record exists.
	Find(ctx context.Context, productID int64, condition string) (*model.Record, error)

	// FindByProductID returns every record for the given product id, across conditions.
	// Returns an empty slice if none exist.
	FindByProductID(ctx context.Context, productID int64) ([]model.Record, error)

	// FindAll returns every record matching the filter, in insertion order.
	// Returns an empty slice if none exist.
	FindAll(ctx context.Context, filter Filter) ([]model.Record, error)

	// Update replaces the stored record identified by the record's natural key.
	// Returns ErrNotFound if no such record exists.
	Update(ctx context.Context, record *model.Record) (*model.Record, error)

	// Delete removes the record with the given natural key.
	// Deleting an absent key is not an error.
	Delete(ctx context.Context, productID int64, condition string) error
}
