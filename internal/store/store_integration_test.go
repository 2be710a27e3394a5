package store

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	inverrors "github.com/abgdnv/inventory/internal/errors"
	"github.com/abgdnv/inventory/internal/model"
	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
)

const skipIntegrationTests = "INVENTORY_SKIP_INTEGRATION_TESTS"

// InventoryStoreSuite is a test suite for the PostgreSQL InventoryStore implementation.
type InventoryStoreSuite struct {
	suite.Suite                             // Embedding testify suite for structured testing
	pgContainer *postgres.PostgresContainer // PostgreSQL container for integration tests
	dbPool      *pgxpool.Pool               // PostgreSQL connection pool for integration tests
	store       InventoryStore              //
	logger      *slog.Logger                // Logger for the test suite
	ctx         context.Context             // Context for the test suite, used for cancellation and timeouts
}

// SetupSuite initializes the test suite by setting up a PostgreSQL container,
func (s *InventoryStoreSuite) SetupSuite() {
	s.ctx = context.Background()
	var err error
	s.logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug}))

	dbName := "inventory_db"
	dbUser := "user"
	dbPassword := "password"

	// 1. Start a PostgreSQL container with the specified configuration. Wait for the container to be ready.
	s.pgContainer, err = postgres.Run(s.ctx,
		"postgres:17.5-alpine",
		postgres.WithDatabase(dbName),
		postgres.WithUsername(dbUser),
		postgres.WithPassword(dbPassword),
		// Wait for a specific log message indicating the database service is ready.
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(5*time.Minute),
		),
		// Ensure the container is ready to accept connections on the default PostgreSQL port.
		testcontainers.WithWaitStrategy(
			wait.ForListeningPort("5432/tcp"),
		),
	)
	require.NoError(s.T(), err, "Failed to run PostgreSQL container")

	// 2. Get the connection string from the container
	connStr, err := s.pgContainer.ConnectionString(s.ctx, "sslmode=disable")
	require.NoError(s.T(), err, "Failed to get connection string from container")

	// 3. create a new pgxpool instance using the connection string
	s.dbPool, err = pgxpool.New(s.ctx, connStr)
	require.NoError(s.T(), err, "Failed to create pgxpool")

	// 3.1 Ping the database to ensure the connection is established
	for i := range 10 {
		s.logger.Info("Pinging PostgreSQL database", "attempt", i+1)
		err = s.dbPool.Ping(s.ctx)
		if err == nil {
			break
		}
		time.Sleep(time.Second * 2)
	}
	require.NoError(s.T(), err, "Failed to connect to PostgreSQL after retries")

	// 4. Database migration
	wd, _ := os.Getwd()
	migrationsPath := filepath.Join(wd, "../../migrations")
	sourceURL := "file://" + migrationsPath
	m, err := migrate.New(sourceURL, connStr)
	require.NoError(s.T(), err, "Failed to create migrate instance")
	err = m.Up()
	if err != nil && !errors.Is(err, migrate.ErrNoChange) {
		_, _ = m.Close()
		require.NoError(s.T(), err, "Failed to apply migrations")
	}
	s.logger.Info("Migrations applied for integration tests")

	s.store = NewPgStore(s.dbPool)
	s.logger.Info("Initialization complete for InventoryStoreSuite")
}

// TearDownSuite cleans up resources after all tests in the suite have run.
func (s *InventoryStoreSuite) TearDownSuite() {
	s.logger.Info("Tearing down suite...")
	if s.dbPool != nil {
		s.dbPool.Close()
		s.logger.Info("DB pool closed.")
	}
	if s.pgContainer != nil {
		s.logger.Info("Terminating PostgreSQL container...")
		err := s.pgContainer.Terminate(s.ctx)
		if err != nil {
			s.logger.Warn("failed to terminate PostgreSQL container", "error", err)
		} else {
			s.logger.Info("PostgreSQL container terminated.")
		}
	}
}

// SetupTest prepares the database for each test by truncating the inventory table.
func (s *InventoryStoreSuite) SetupTest() {
	_, err := s.dbPool.Exec(s.ctx, "TRUNCATE TABLE inventory RESTART IDENTITY")
	require.NoError(s.T(), err, "Failed to truncate inventory table")
}

func (s *InventoryStoreSuite) TestCreateAndFind() {
	record := model.Record{ProductID: 123456, Condition: "new", Quantity: 1, RestockLevel: 10, Available: 1}

	created, err := s.store.Create(s.ctx, &record)
	require.NoError(s.T(), err)
	assert.Equal(s.T(), record, *created)

	found, err := s.store.Find(s.ctx, 123456, "new")
	require.NoError(s.T(), err)
	assert.Equal(s.T(), record, *found)
}

func (s *InventoryStoreSuite) TestCreateDuplicateKeyConflicts() {
	record := model.Record{ProductID: 123456, Condition: "new", Quantity: 1, RestockLevel: 10, Available: 1}

	_, err := s.store.Create(s.ctx, &record)
	require.NoError(s.T(), err)

	dup := record
	dup.Quantity = 99
	_, err = s.store.Create(s.ctx, &dup)
	assert.ErrorIs(s.T(), err, inverrors.ErrConflict)

	// original record must be unchanged
	found, err := s.store.Find(s.ctx, 123456, "new")
	require.NoError(s.T(), err)
	assert.Equal(s.T(), int64(1), found.Quantity)
}

func (s *InventoryStoreSuite) TestFindNotFound() {
	_, err := s.store.Find(s.ctx, 42, "new")
	assert.ErrorIs(s.T(), err, inverrors.ErrNotFound)
}

func (s *InventoryStoreSuite) TestFindByProductID() {
	for _, record := range []model.Record{
		{ProductID: 123456, Condition: "new", Quantity: 1, RestockLevel: 10, Available: 1},
		{ProductID: 123456, Condition: "used", Quantity: 2, RestockLevel: 20, Available: 0},
		{ProductID: 777, Condition: "new", Quantity: 3, RestockLevel: 30, Available: 1},
	} {
		r := record
		_, err := s.store.Create(s.ctx, &r)
		require.NoError(s.T(), err)
	}

	list, err := s.store.FindByProductID(s.ctx, 123456)
	require.NoError(s.T(), err)
	require.Len(s.T(), list, 2)
	assert.Equal(s.T(), "new", list[0].Condition)
	assert.Equal(s.T(), "used", list[1].Condition)

	empty, err := s.store.FindByProductID(s.ctx, 42)
	require.NoError(s.T(), err)
	assert.Empty(s.T(), empty)
}

func (s *InventoryStoreSuite) TestFindAllWithFilters() {
	records := []model.Record{
		{ProductID: 1, Condition: "new", Quantity: 5, RestockLevel: 1, Available: 1},
		{ProductID: 2, Condition: "used", Quantity: 0, RestockLevel: 1, Available: 0},
		{ProductID: 3, Condition: "new", Quantity: 0, RestockLevel: 1, Available: 0},
	}
	for _, record := range records {
		r := record
		_, err := s.store.Create(s.ctx, &r)
		require.NoError(s.T(), err)
	}

	all, err := s.store.FindAll(s.ctx, Filter{})
	require.NoError(s.T(), err)
	require.Len(s.T(), all, 3)
	// insertion order is preserved
	assert.Equal(s.T(), int64(1), all[0].ProductID)
	assert.Equal(s.T(), int64(3), all[2].ProductID)

	condition := "new"
	byCondition, err := s.store.FindAll(s.ctx, Filter{Condition: &condition})
	require.NoError(s.T(), err)
	assert.Len(s.T(), byCondition, 2)

	available := int64(0)
	quantity := int64(0)
	combined, err := s.store.FindAll(s.ctx, Filter{Available: &available, Quantity: &quantity})
	require.NoError(s.T(), err)
	require.Len(s.T(), combined, 2)
	assert.Equal(s.T(), int64(2), combined[0].ProductID)
}

func (s *InventoryStoreSuite) TestUpdate() {
	record := model.Record{ProductID: 123456, Condition: "new", Quantity: 1, RestockLevel: 10, Available: 1}
	_, err := s.store.Create(s.ctx, &record)
	require.NoError(s.T(), err)

	record.Quantity = 30
	record.Available = 0
	updated, err := s.store.Update(s.ctx, &record)
	require.NoError(s.T(), err)
	assert.Equal(s.T(), int64(30), updated.Quantity)
	assert.Equal(s.T(), int64(0), updated.Available)

	missing := model.Record{ProductID: 9999, Condition: "new", Quantity: 1, RestockLevel: 1, Available: 1}
	_, err = s.store.Update(s.ctx, &missing)
	assert.ErrorIs(s.T(), err, inverrors.ErrNotFound)
}

func (s *InventoryStoreSuite) TestDeleteIsIdempotent() {
	record := model.Record{ProductID: 123456, Condition: "new", Quantity: 1, RestockLevel: 10, Available: 1}
	_, err := s.store.Create(s.ctx, &record)
	require.NoError(s.T(), err)

	require.NoError(s.T(), s.store.Delete(s.ctx, 123456, "new"))
	_, err = s.store.Find(s.ctx, 123456, "new")
	assert.ErrorIs(s.T(), err, inverrors.ErrNotFound)

	// deleting an absent key is a no-op success
	assert.NoError(s.T(), s.store.Delete(s.ctx, 123456, "new"))
}

func TestInventoryStoreSuite(t *testing.T) {
	if os.Getenv(skipIntegrationTests) != "" {
		t.Skipf("Skipping integration tests because %s is set", skipIntegrationTests)
	}
	suite.Run(t, new(InventoryStoreSuite))
}
