package test_utils

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/sitebook/sitebook/internal/config"
	"github.com/sitebook/sitebook/internal/database"
	log "github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
)

const (
	postgresImage = "postgres:18.1-alpine"
	snapshotName  = "sitebook-migrated"
)

// TestDB is a migrated Postgres container shared by the tests of one package.
// Every test gets its own pool and the migrated snapshot is restored after it.
type TestDB struct {
	container *postgres.PostgresContainer
	cfg       config.Database
}

// StartTestDB starts Postgres, applies all migrations and snapshots the result.
// It exits the process on failure since no repository test can run without it.
func StartTestDB() *TestDB {
	ctx := context.Background()
	cfg := config.Database{
		User:   "test_sitebook",
		Pass:   "test_sitebook",
		Name:   "sitebook",
		Schema: "sitebook",
	}

	initScript, err := devInitScript()
	if err != nil {
		log.Fatalf("Failed to find dev/init.sql: %v", err)
	}

	container, err := postgres.Run(ctx, postgresImage,
		postgres.WithInitScripts(initScript),
		postgres.WithDatabase(cfg.Name),
		postgres.WithUsername(cfg.User),
		postgres.WithPassword(cfg.Pass),
		postgres.BasicWaitStrategies(),
	)
	if err != nil {
		log.Fatalf("Failed to start postgres container: %v", err)
	}

	cfg.Host, err = container.Host(ctx)
	if err != nil {
		log.Fatalf("Failed to get postgres host: %v", err)
	}
	port, err := container.MappedPort(ctx, "5432/tcp")
	if err != nil {
		log.Fatalf("Failed to get postgres port: %v", err)
	}
	cfg.Port = port.Int()
	log.Infof("Postgres container started at %s:%d", cfg.Host, cfg.Port)

	if err := database.Migrate(cfg); err != nil {
		log.Fatalf("Failed to apply migrations: %v", err)
	}
	if err := container.Snapshot(ctx, postgres.WithSnapshotName(snapshotName)); err != nil {
		log.Fatalf("Failed to snapshot postgres container: %v", err)
	}
	return &TestDB{container: container, cfg: cfg}
}

// Pool opens a pool for one test. Closing it and restoring the snapshot is registered
// with t.Cleanup.
func (d *TestDB) Pool(t *testing.T) *pgxpool.Pool {
	t.Helper()
	db, err := database.Open(d.cfg)
	require.NoError(t, err)
	t.Cleanup(func() {
		db.Close()
		require.NoError(t, d.container.Restore(context.Background(), postgres.WithSnapshotName(snapshotName)))
	})
	return db
}

func (d *TestDB) Terminate() {
	if err := testcontainers.TerminateContainer(d.container); err != nil {
		log.Errorf("failed to terminate container: %s", err)
	}
}

// RunWithDB is the body of TestMain for packages with repository tests.
func RunWithDB(m *testing.M, db **TestDB) {
	*db = StartTestDB()
	code := m.Run()
	(*db).Terminate()
	os.Exit(code)
}

func devInitScript() (string, error) {
	dir, err := os.Getwd()
	if err != nil {
		return "", err
	}
	for {
		candidate := filepath.Join(dir, "dev", "init.sql")
		if _, err := os.Stat(candidate); err == nil {
			return candidate, nil
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", fmt.Errorf("dev/init.sql not found above %s", dir)
		}
		dir = parent
	}
}
