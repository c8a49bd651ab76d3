package testutil

import (
	"context"
	"testing"
	"time"

	"streameconomy/database"

	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
)

const (
	postgresImage    = "postgres:16-alpine"
	terminateTimeout = 30 * time.Second
)

// TestDatabase is a migrated Postgres container owned by one test
type TestDatabase struct {
	Container *postgres.PostgresContainer
	DB        *database.DB
	URL       string
}

// SetupTestDatabase starts a Postgres container, applies every migration and
// opens a pool. The container is terminated when the test ends.
func SetupTestDatabase(t *testing.T) *TestDatabase {
	t.Helper()
	ctx := context.Background()

	container, err := postgres.Run(ctx, postgresImage,
		postgres.WithDatabase("streameconomy_test"),
		postgres.WithUsername("economy"),
		postgres.WithPassword("economy"),
		postgres.BasicWaitStrategies(),
		testcontainers.WithLabels(map[string]string{
			"suite": "streameconomy",
			"test":  t.Name(),
		}),
	)
	testDB := &TestDatabase{Container: container}
	t.Cleanup(func() { testDB.terminate(t) })
	require.NoError(t, err, "failed to start postgres container")

	testDB.URL, err = container.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)
	require.NoError(t, database.RunMigrationsWithURL(testDB.URL), "failed to migrate test database")

	testDB.DB, err = database.NewConnection(ctx, testDB.URL, database.WithMaxConns(8))
	require.NoError(t, err)

	return testDB
}

func (td *TestDatabase) terminate(t *testing.T) {
	if td.DB != nil {
		td.DB.Close()
	}
	if td.Container == nil {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), terminateTimeout)
	defer cancel()
	if err := td.Container.Terminate(ctx); err != nil {
		t.Logf("failed to terminate postgres container: %v", err)
	}
}
