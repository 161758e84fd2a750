package store

import (
	"context"
	"fmt"
	"os/exec"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// setupTestDatabase starts a containerized PostgreSQL and returns a connection to it.
func setupTestDatabase(t *testing.T) *gorm.DB {
	if _, err := exec.LookPath("docker"); err != nil {
		t.Skip("docker not installed, skipping container-based test")
	}

	ctx := context.Background()

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "postgres:16-alpine",
			ExposedPorts: []string{"5432/tcp"},
			Env: map[string]string{
				"POSTGRES_USER":     "postgres",
				"POSTGRES_PASSWORD": "postpass",
				"POSTGRES_DB":       "menuvision_test",
			},
			WaitingFor: wait.ForAll(
				wait.ForListeningPort("5432/tcp"),
				wait.ForLog("database system is ready to accept connections").WithOccurrence(2),
			).WithStartupTimeout(60 * time.Second),
		},
		Started: true,
	})
	if err != nil {
		t.Fatalf("failed to start container: %v", err)
	}

	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := container.Terminate(ctx); err != nil {
			t.Errorf("failed to terminate container: %v", err)
		}
	})

	host, err := container.Host(ctx)
	if err != nil {
		t.Fatalf("failed to get container host: %v", err)
	}
	mappedPort, err := container.MappedPort(ctx, "5432")
	if err != nil {
		t.Fatalf("failed to get container port: %v", err)
	}

	dsn := fmt.Sprintf("host=%s port=%s user=postgres password=postpass dbname=menuvision_test sslmode=disable",
		host, mappedPort.Port())

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("failed to connect to database: %v", err)
	}
	return db
}

func TestGormStore(t *testing.T) {
	db := setupTestDatabase(t)
	ctx := context.Background()

	st, err := NewGormStore(db)
	require.NoError(t, err)

	t.Run("should assign serial ids starting at one", func(t *testing.T) {
		session, err := st.CreateSession(ctx, "Grilled Salmon\nCaesar Salad")
		require.NoError(t, err)
		assert.Equal(t, 1, session.ID)

		item, err := st.CreateItem(ctx, session.ID, "Grilled Salmon", "Tender fillet", "https://example.com/salmon.jpg")
		require.NoError(t, err)
		assert.Equal(t, 1, item.ID)
	})

	t.Run("should round-trip sessions and items", func(t *testing.T) {
		session, err := st.CreateSession(ctx, "lunch specials")
		require.NoError(t, err)

		created, err := st.CreateItem(ctx, session.ID, "Caesar Salad", "Crisp romaine", "https://example.com/salad.jpg")
		require.NoError(t, err)

		fetchedSession, err := st.GetSession(ctx, session.ID)
		require.NoError(t, err)
		assert.Equal(t, "lunch specials", fetchedSession.OriginalText)

		fetched, err := st.GetItem(ctx, created.ID)
		require.NoError(t, err)
		assert.Equal(t, "Caesar Salad", fetched.Name)
		assert.Equal(t, session.ID, fetched.SessionID)
	})

	t.Run("should translate missing rows to ErrNotFound", func(t *testing.T) {
		_, err := st.GetSession(ctx, 9999)
		assert.ErrorIs(t, err, ErrNotFound)

		_, err = st.GetItem(ctx, 9999)
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("should list items in id order", func(t *testing.T) {
		session, err := st.CreateSession(ctx, "dinner")
		require.NoError(t, err)

		names := []string{"Bruschetta", "Lasagna", "Tiramisu"}
		for _, name := range names {
			_, err := st.CreateItem(ctx, session.ID, name, "d", "u")
			require.NoError(t, err)
		}

		items, err := st.ListItemsBySession(ctx, session.ID)
		require.NoError(t, err)
		require.Len(t, items, 3)
		for i, name := range names {
			assert.Equal(t, name, items[i].Name)
		}

		all, err := st.ListAllItems(ctx)
		require.NoError(t, err)
		assert.GreaterOrEqual(t, len(all), 3)
	})
}
