package store

import (
	"context"
	"errors"
	"fmt"
	"strings"

	inverrors "github.com/abgdnv/inventory/internal/errors"
	"github.com/abgdnv/inventory/internal/model"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PgStore implements InventoryStore using PostgreSQL as the data store.
type PgStore struct {
	db *pgxpool.Pool
}

// NewPgStore creates a new instance of InventoryStore using a PostgreSQL connection pool.
func NewPgStore(dbp *pgxpool.Pool) *PgStore {
	return &PgStore{db: dbp}
}

// Create adds a new record to the store.
// Returns ErrConflict if a record with the same (product_id, condition) already exists.
func (p *PgStore) Create(ctx context.Context, record *model.Record) (*model.Record, error) {
	query := `
		INSERT INTO inventory (product_id, condition, quantity, restock_level, available)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING product_id, condition, quantity, restock_level, available`
	var created model.Record
	err := p.db.QueryRow(ctx, query,
		record.ProductID, record.Condition, record.Quantity, record.RestockLevel, record.Available,
	).Scan(&created.ProductID, &created.Condition, &created.Quantity, &created.RestockLevel, &created.Available)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, inverrors.ErrConflict
		}
		return nil, classify("failed to create inventory record", err)
	}
	return &created, nil
}

// Find retrieves the record with the given natural key.
// Returns ErrNotFound if no such record exists.
func (p *PgStore) Find(ctx context.Context, productID int64, condition string) (*model.Record, error) {
	query := `
		SELECT product_id, condition, quantity, restock_level, available
		FROM inventory WHERE product_id = $1 AND condition = $2`
	var record model.Record
	err := p.db.QueryRow(ctx, query, productID, condition).
		Scan(&record.ProductID, &record.Condition, &record.Quantity, &record.RestockLevel, &record.Available)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, inverrors.ErrNotFound
		}
		return nil, classify("failed to find inventory record", err)
	}
	return &record, nil
}

// FindByProductID returns every record for the given product id, across conditions.
func (p *PgStore) FindByProductID(ctx context.Context, productID int64) ([]model.Record, error) {
	query := `
		SELECT product_id, condition, quantity, restock_level, available
		FROM inventory WHERE product_id = $1 ORDER BY id`
	rows, err := p.db.Query(ctx, query, productID)
	if err != nil {
		return nil, classify("failed to find inventory records by product_id", err)
	}
	defer rows.Close()
	return collect(rows)
}

// FindAll returns every record matching the filter, in insertion order.
func (p *PgStore) FindAll(ctx context.Context, filter Filter) ([]model.Record, error) {
	var conditions []string
	var args []any
	if filter.Condition != nil {
		args = append(args, *filter.Condition)
		conditions = append(conditions, fmt.Sprintf("condition = $%d", len(args)))
	}
	if filter.Available != nil {
		args = append(args, *filter.Available)
		conditions = append(conditions, fmt.Sprintf("available = $%d", len(args)))
	}
	if filter.Quantity != nil {
		args = append(args, *filter.Quantity)
		conditions = append(conditions, fmt.Sprintf("quantity = $%d", len(args)))
	}
	query := "SELECT product_id, condition, quantity, restock_level, available FROM inventory"
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	query += " ORDER BY id"

	rows, err := p.db.Query(ctx, query, args...)
	if err != nil {
		return nil, classify("failed to find inventory records", err)
	}
	defer rows.Close()
	return collect(rows)
}

// Update replaces the stored record identified by the record's natural key.
// Returns ErrNotFound if no such record exists.
func (p *PgStore) Update(ctx context.Context, record *model.Record) (*model.Record, error) {
	query := `
		UPDATE inventory
		SET quantity = $3, restock_level = $4, available = $5
		WHERE product_id = $1 AND condition = $2
		RETURNING product_id, condition, quantity, restock_level, available`
	var updated model.Record
	err := p.db.QueryRow(ctx, query,
		record.ProductID, record.Condition, record.Quantity, record.RestockLevel, record.Available,
	).Scan(&updated.ProductID, &updated.Condition, &updated.Quantity, &updated.RestockLevel, &updated.Available)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, inverrors.ErrNotFound
		}
		return nil, classify("failed to update inventory record", err)
	}
	return &updated, nil
}

// Delete removes the record with the given natural key. Absence is not an error.
func (p *PgStore) Delete(ctx context.Context, productID int64, condition string) error {
	query := `DELETE FROM inventory WHERE product_id = $1 AND condition = $2`
	if _, err := p.db.Exec(ctx, query, productID, condition); err != nil {
		return classify("failed to delete inventory record", err)
	}
	return nil
}

// collect scans the remaining rows into records.
func collect(rows pgx.Rows) ([]model.Record, error) {
	records := make([]model.Record, 0)
	for rows.Next() {
		var record model.Record
		if err := rows.Scan(&record.ProductID, &record.Condition, &record.Quantity, &record.RestockLevel, &record.Available); err != nil {
			return nil, fmt.Errorf("failed to scan inventory record: %w", err)
		}
		records = append(records, record)
	}
	if err := rows.Err(); err != nil {
		return nil, classify("failed to read inventory records", err)
	}
	return records, nil
}

// isUniqueViolation checks if an error is a unique constraint violation (SQLSTATE 23505).
func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

// classify wraps a backing-store error, surfacing connectivity failures as
// ErrStoreUnavailable so they stay distinguishable from domain outcomes.
func classify(msg string, err error) error {
	var pgErr *pgconn.PgError
	if pgconn.Timeout(err) || (errors.As(err, &pgErr) && strings.HasPrefix(pgErr.Code, "08")) {
		return fmt.Errorf("%w: %s: %v", inverrors.ErrStoreUnavailable, msg, err)
	}
	return fmt.Errorf("%s: %w", msg, err)
}
