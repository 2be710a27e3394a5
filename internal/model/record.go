// Package model defines the InventoryRecord entity and its validation rules.
package model

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
)

// Record is an inventory record. A record is uniquely identified by the
// (ProductID, Condition) pair; Available is carried as 0/1 on the wire.
type Record struct {
	ProductID    int64  `json:"product_id"`
	Condition    string `json:"condition"`
	Quantity     int64  `json:"quantity"`
	RestockLevel int64  `json:"restock_level"`
	Available    int64  `json:"available"`
}

// Key returns the natural key of the record.
func (r *Record) Key() string {
	return fmt.Sprintf("%d/%s", r.ProductID, r.Condition)
}

// ValidationError reports a single attribute that failed validation.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

var validate = validator.New()

// ValidateProductID checks that the product id is a positive whole number.
func ValidateProductID(v int64) error {
	if err := validate.Var(v, "gt=0"); err != nil {
		return &ValidationError{Field: "product_id", Reason: "must be a positive whole number"}
	}
	return nil
}

// ValidateCondition checks that the condition is non-empty after trimming.
func ValidateCondition(v string) error {
	if err := validate.Var(strings.TrimSpace(v), "required"); err != nil {
		return &ValidationError{Field: "condition", Reason: "must be a non-empty string"}
	}
	return nil
}

// ValidateQuantity checks that the quantity is zero or positive.
func ValidateQuantity(v int64) error {
	if err := validate.Var(v, "gte=0"); err != nil {
		return &ValidationError{Field: "quantity", Reason: "must be zero or a positive whole number"}
	}
	return nil
}

// ValidateRestockLevel checks that the restock level is zero or positive.
func ValidateRestockLevel(v int64) error {
	if err := validate.Var(v, "gte=0"); err != nil {
		return &ValidationError{Field: "restock_level", Reason: "must be zero or a positive whole number"}
	}
	return nil
}

// ValidateAvailable checks that the availability flag is exactly 0 or 1.
func ValidateAvailable(v int64) error {
	if err := validate.Var(v, "oneof=0 1"); err != nil {
		return &ValidationError{Field: "available", Reason: "must be 0 or 1"}
	}
	return nil
}

// Validate runs every per-field rule and reports the first failure.
func (r *Record) Validate() error {
	if err := ValidateProductID(r.ProductID); err != nil {
		return err
	}
	if err := ValidateCondition(r.Condition); err != nil {
		return err
	}
	if err := ValidateQuantity(r.Quantity); err != nil {
		return err
	}
	if err := ValidateRestockLevel(r.RestockLevel); err != nil {
		return err
	}
	return ValidateAvailable(r.Available)
}

// ParseProductID parses a raw product id (e.g. a path parameter) into a
// validated value.
func ParseProductID(raw string) (int64, error) {
	v, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, &ValidationError{Field: "product_id", Reason: "must be a whole number"}
	}
	if err := ValidateProductID(v); err != nil {
		return 0, err
	}
	return v, nil
}

// ParseCondition trims and validates a raw condition value.
func ParseCondition(raw string) (string, error) {
	v := strings.TrimSpace(raw)
	if err := ValidateCondition(v); err != nil {
		return "", err
	}
	return v, nil
}

// ParseAvailable parses a raw availability flag into a validated 0/1 value.
func ParseAvailable(raw string) (int64, error) {
	v, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, &ValidationError{Field: "available", Reason: "must be 0 or 1"}
	}
	if err := ValidateAvailable(v); err != nil {
		return 0, err
	}
	return v, nil
}

// ParseQuantity parses a raw quantity (e.g. a query parameter) into a
// validated value.
func ParseQuantity(raw string) (int64, error) {
	v, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, &ValidationError{Field: "quantity", Reason: "must be a whole number"}
	}
	if err := ValidateQuantity(v); err != nil {
		return 0, err
	}
	return v, nil
}
