//go:build integration

package providerconfig

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"assetmatch/internal/infra"
	"assetmatch/migrations"
)

func startPostgres(t *testing.T, ctx context.Context) string {
	t.Helper()
	req := testcontainers.ContainerRequest{
		Image:        "postgres:16-alpine",
		Env:          map[string]string{"POSTGRES_USER": "assetmatch", "POSTGRES_PASSWORD": "assetmatch", "POSTGRES_DB": "assetmatch"},
		ExposedPorts: []string{"5432/tcp"},
		WaitingFor:   wait.ForLog("database system is ready to accept connections").WithOccurrence(2).WithStartupTimeout(60 * time.Second),
	}
	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{ContainerRequest: req, Started: true})
	if err != nil {
		t.Fatalf("start postgres: %v", err)
	}
	t.Cleanup(func() { _ = container.Terminate(ctx) })

	host, err := container.Host(ctx)
	if err != nil {
		t.Fatalf("container host: %v", err)
	}
	port, err := container.MappedPort(ctx, "5432/tcp")
	if err != nil {
		t.Fatalf("mapped port: %v", err)
	}
	return fmt.Sprintf("postgres://assetmatch:assetmatch@%s:%s/assetmatch?sslmode=disable", host, port.Port())
}

func TestPostgresStoreAgainstDatabase(t *testing.T) {
	ctx := context.Background()
	dsn := startPostgres(t, ctx)

	if err := migrations.Up(dsn); err != nil {
		t.Fatalf("migrations failed: %v", err)
	}
	if err := migrations.Up(dsn); err != nil {
		t.Fatalf("second Up must be a no-op: %v", err)
	}
	version, dirty, err := migrations.Version(dsn)
	if err != nil || version != 1 || dirty {
		t.Fatalf("Version() = %d, %t, %v", version, dirty, err)
	}

	cfg := &infra.Config{ProviderStore: infra.StorePostgres, DatabaseURL: dsn}
	store, closeStore, err := OpenStore(ctx, cfg, zerolog.Nop())
	if err != nil {
		t.Fatalf("OpenStore: %v", err)
	}
	t.Cleanup(closeStore)

	checkStoreContract(t, store)

	if err := migrations.Down(dsn); err != nil {
		t.Fatalf("migrate down: %v", err)
	}
	if version, _, err := migrations.Version(dsn); err != nil || version != 0 {
		t.Fatalf("Version() after down = %d, %v", version, err)
	}
}
