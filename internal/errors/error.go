// Package errors provides custom error types for inventory-related operations.
package errors

import "errors"

var ErrNotFound = errors.New("inventory record not found")
var ErrConflict = errors.New("inventory record already exists for this product_id and condition")

var ErrInsufficientStock = errors.New("stock quantity cannot become negative")
var ErrOutOfStock = errors.New("record is out of stock and cannot be made available")
var ErrNonPositiveAmount = errors.New("restock amount must be a positive whole number")

var ErrStoreUnavailable = errors.New("inventory store is unavailable")
