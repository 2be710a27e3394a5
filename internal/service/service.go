// Package service provides the implementation of inventory-related business logic.
package service

import (
	"context"
	"fmt"

	inverrors "github.com/abgdnv/inventory/internal/errors"
	"github.com/abgdnv/inventory/internal/model"
	"github.com/abgdnv/inventory/internal/store"
)

// Quantity adjustment operations accepted by AdjustQuantity.
const (
	OpAdd      = "add"
	OpSubtract = "sub"
)

// InventoryService defines the methods for managing inventory records.
// It abstracts the underlying business logic and data access.
type InventoryService interface {
	// Find retrieves a single record by its (product_id, condition) key.
	// Returns ErrNotFound if no such record exists.
	Find(ctx context.Context, productID int64, condition string) (*RecordDto, error)

	// FindByProductID returns every record for a product id, across conditions.
	// Returns an empty slice if none exist.
	FindByProductID(ctx context.Context, productID int64) ([]RecordDto, error)

	// FindAll returns every record matching the filter.
	// Returns an empty slice if none exist.
	FindAll(ctx context.Context, filter store.Filter) ([]RecordDto, error)

	// Create adds a new record to the system.
	// Returns ErrConflict if the key pair is already taken.
	Create(ctx context.Context, record RecordCreateDto) (*RecordDto, error)

	// Update replaces the mutable attributes of an existing record.
	// Returns ErrNotFound if no record exists with the given key.
	Update(ctx context.Context, productID int64, condition string, record RecordUpdateDto) (*RecordDto, error)

	// AdjustQuantity adds or subtracts a positive amount from the stored quantity.
	// Returns ErrInsufficientStock if a subtraction would drive the quantity negative.
	AdjustQuantity(ctx context.Context, productID int64, condition, operation string, amount int64) (*RecordDto, error)

	// Restock increases the stored quantity by a positive amount.
	// Returns ErrNonPositiveAmount if the amount is zero or negative.
	Restock(ctx context.Context, productID int64, condition string, amount int64) (*RecordDto, error)

	// Activate marks a record as orderable.
	// Returns ErrOutOfStock if the stored quantity is zero.
	Activate(ctx context.Context, productID int64, condition string) (*RecordDto, error)

	// Deactivate marks a record as not orderable. It has no guard.
	Deactivate(ctx context.Context, productID int64, condition string) (*RecordDto, error)

	// Delete removes a record by its key. Absence is not an error.
	Delete(ctx context.Context, productID int64, condition string) error
}

// Service implements InventoryService and provides methods to manage inventory records.
type Service struct {
	repository store.InventoryStore
}

// NewService creates a new instance of InventoryService with the provided repository.
func NewService(repo store.InventoryStore) *Service {
	return &Service{
		repository: repo,
	}
}

// RecordCreateDto represents the data transfer object for creating a new inventory record.
// Pointer fields distinguish an absent attribute from a zero value.
type RecordCreateDto struct {
	ProductID    *int64  `json:"product_id"    validate:"required,gt=0"`
	Condition    *string `json:"condition"     validate:"required"`
	Quantity     *int64  `json:"quantity"      validate:"required,gte=0"`
	RestockLevel *int64  `json:"restock_level" validate:"required,gte=0"`
	Available    *int64  `json:"available"     validate:"required,oneof=0 1"`
}

// RecordUpdateDto represents the data transfer object for a full update.
// The record's identity is fixed by the request path and cannot be changed.
type RecordUpdateDto struct {
	Quantity     *int64 `json:"quantity"      validate:"required,gte=0"`
	RestockLevel *int64 `json:"restock_level" validate:"required,gte=0"`
	Available    *int64 `json:"available"     validate:"required,oneof=0 1"`
}

// RestockDto carries the amount for a restock operation.
type RestockDto struct {
	Amount *int64 `json:"amount" validate:"required"`
}

// RecordDto represents the data transfer object for an inventory record.
type RecordDto struct {
	ProductID    int64  `json:"product_id"`
	Condition    string `json:"condition"`
	Quantity     int64  `json:"quantity"`
	RestockLevel int64  `json:"restock_level"`
	Available    int64  `json:"available"`
}

// Find retrieves a record by its key and returns it as a RecordDto.
func (s *Service) Find(ctx context.Context, productID int64, condition string) (*RecordDto, error) {
	record, err := s.repository.Find(ctx, productID, condition)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch record %d/%s: %w", productID, condition, err)
	}
	return toDto(record), nil
}

// FindByProductID retrieves every record for a product id as RecordDtos.
func (s *Service) FindByProductID(ctx context.Context, productID int64) ([]RecordDto, error) {
	records, err := s.repository.FindByProductID(ctx, productID)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch records for product_id %d: %w", productID, err)
	}
	return toDtos(records), nil
}

// FindAll retrieves every record matching the filter as RecordDtos.
func (s *Service) FindAll(ctx context.Context, filter store.Filter) ([]RecordDto, error) {
	records, err := s.repository.FindAll(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch records: %w", err)
	}
	return toDtos(records), nil
}

// Create validates and persists a new record.
// Returns a ValidationError if any attribute is out of range, ErrConflict if
// the key pair already exists.
func (s *Service) Create(ctx context.Context, dto RecordCreateDto) (*RecordDto, error) {
	condition, err := model.ParseCondition(deref(dto.Condition))
	if err != nil {
		return nil, err
	}
	record := model.Record{
		ProductID:    deref(dto.ProductID),
		Condition:    condition,
		Quantity:     deref(dto.Quantity),
		RestockLevel: deref(dto.RestockLevel),
		Available:    deref(dto.Available),
	}
	if err := record.Validate(); err != nil {
		return nil, err
	}
	created, err := s.repository.Create(ctx, &record)
	if err != nil {
		return nil, fmt.Errorf("failed to create record %s: %w", record.Key(), err)
	}
	return toDto(created), nil
}

// Update validates and replaces the mutable attributes of an existing record.
func (s *Service) Update(ctx context.Context, productID int64, condition string, dto RecordUpdateDto) (*RecordDto, error) {
	record := model.Record{
		ProductID:    productID,
		Condition:    condition,
		Quantity:     deref(dto.Quantity),
		RestockLevel: deref(dto.RestockLevel),
		Available:    deref(dto.Available),
	}
	if err := record.Validate(); err != nil {
		return nil, err
	}
	updated, err := s.repository.Update(ctx, &record)
	if err != nil {
		return nil, fmt.Errorf("failed to update record %s: %w", record.Key(), err)
	}
	return toDto(updated), nil
}

// AdjustQuantity applies an add/sub delta to the stored quantity.
// The amount must be positive and the operation must be OpAdd or OpSubtract;
// both are checked before any read. A subtraction that would drive the
// quantity negative is rejected with ErrInsufficientStock and leaves the
// record unmodified.
func (s *Service) AdjustQuantity(ctx context.Context, productID int64, condition, operation string, amount int64) (*RecordDto, error) {
	if amount <= 0 {
		return nil, &model.ValidationError{Field: "amount", Reason: "must be a positive whole number"}
	}
	if operation != OpAdd && operation != OpSubtract {
		return nil, &model.ValidationError{Field: "operation", Reason: "must be add or sub"}
	}
	record, err := s.repository.Find(ctx, productID, condition)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch record %d/%s: %w", productID, condition, err)
	}
	if operation == OpAdd {
		record.Quantity += amount
	} else {
		if amount > record.Quantity {
			return nil, inverrors.ErrInsufficientStock
		}
		record.Quantity -= amount
	}
	updated, err := s.repository.Update(ctx, record)
	if err != nil {
		return nil, fmt.Errorf("failed to update record %s: %w", record.Key(), err)
	}
	return toDto(updated), nil
}

// Restock adds a positive amount to the stored quantity.
func (s *Service) Restock(ctx context.Context, productID int64, condition string, amount int64) (*RecordDto, error) {
	record, err := s.repository.Find(ctx, productID, condition)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch record %d/%s: %w", productID, condition, err)
	}
	if amount <= 0 {
		return nil, inverrors.ErrNonPositiveAmount
	}
	record.Quantity += amount
	updated, err := s.repository.Update(ctx, record)
	if err != nil {
		return nil, fmt.Errorf("failed to update record %s: %w", record.Key(), err)
	}
	return toDto(updated), nil
}

// Activate marks a record as orderable. Activating an out-of-stock record is
// rejected with ErrOutOfStock; activating an already-available record is a
// no-op success.
func (s *Service) Activate(ctx context.Context, productID int64, condition string) (*RecordDto, error) {
	return s.setAvailability(ctx, productID, condition, 1)
}

// Deactivate marks a record as not orderable. Deactivating an already
// unavailable record is a no-op success.
func (s *Service) Deactivate(ctx context.Context, productID int64, condition string) (*RecordDto, error) {
	return s.setAvailability(ctx, productID, condition, 0)
}

func (s *Service) setAvailability(ctx context.Context, productID int64, condition string, available int64) (*RecordDto, error) {
	record, err := s.repository.Find(ctx, productID, condition)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch record %d/%s: %w", productID, condition, err)
	}
	if available == 1 && record.Quantity == 0 {
		return nil, inverrors.ErrOutOfStock
	}
	if record.Available == available {
		return toDto(record), nil
	}
	record.Available = available
	updated, err := s.repository.Update(ctx, record)
	if err != nil {
		return nil, fmt.Errorf("failed to update record %s: %w", record.Key(), err)
	}
	return toDto(updated), nil
}

// Delete removes a record by its key. Absence is not an error.
func (s *Service) Delete(ctx context.Context, productID int64, condition string) error {
	if err := s.repository.Delete(ctx, productID, condition); err != nil {
		return fmt.Errorf("failed to delete record %d/%s: %w", productID, condition, err)
	}
	return nil
}

// toDto converts a model.Record to a RecordDto.
func toDto(record *model.Record) *RecordDto {
	return &RecordDto{
		ProductID:    record.ProductID,
		Condition:    record.Condition,
		Quantity:     record.Quantity,
		RestockLevel: record.RestockLevel,
		Available:    record.Available,
	}
}

func toDtos(records []model.Record) []RecordDto {
	dtos := make([]RecordDto, len(records))
	for i, record := range records {
		dtos[i] = *toDto(&record)
	}
	return dtos
}

func deref[T any](v *T) T {
	var zero T
	if v == nil {
		return zero
	}
	return *v
}
