package database

import (
	"context"
	"os"
	"sync"
	"testing"

	"github.com/jackc/pgx/v5/pgxpool"
)

// TestDatabaseEnv names the variable holding the integration database URL.
const TestDatabaseEnv = "TEST_DATABASE_URL"

var shared struct {
	once sync.Once
	pool *pgxpool.Pool
	err  error
}

// TestPool connects to the integration database once per test binary and
// migrates it. Tests are skipped when TEST_DATABASE_URL is unset.
func TestPool(t *testing.T) *pgxpool.Pool {
	t.Helper()

	url := os.Getenv(TestDatabaseEnv)
	if url == "" {
		t.Skipf("%s not set, skipping integration test", TestDatabaseEnv)
	}

	shared.once.Do(func() {
		ctx := context.Background()
		if shared.pool, shared.err = Connect(ctx, url); shared.err == nil {
			shared.err = RunMigrations(ctx, shared.pool)
		}
	})
	if shared.err != nil {
		t.Fatalf("test database: %v", shared.err)
	}
	return shared.pool
}

// TestTx opens a transaction that is rolled back when the test ends, so
// parallel tests never see each other's rows.
//
//	store := storage.NewPostgres(database.TestTx(t))
func TestTx(t *testing.T) Querier {
	t.Helper()

	tx, err := TestPool(t).Begin(context.Background())
	if err != nil {
		t.Fatalf("begin test transaction: %v", err)
	}
	t.Cleanup(func() { _ = tx.Rollback(context.Background()) })
	return tx
}
