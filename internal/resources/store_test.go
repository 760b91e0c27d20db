package resources_test

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/hmawbi/uniguide/internal/config"
	"github.com/hmawbi/uniguide/internal/models"
	"github.com/hmawbi/uniguide/internal/resources"
)

func TestStoreEnsureSchemaAndPriorityListing(t *testing.T) {
	dsn := os.Getenv("TEST_POSTGRES_DSN")
	if dsn == "" {
		t.Skip("TEST_POSTGRES_DSN not set; skipping postgres integration test")
	}

	cfg := config.PostgresConfig{
		DSN:            dsn,
		ConnectTimeout: 5 * time.Second,
	}

	store, err := resources.NewStore(context.Background(), cfg)
	if err != nil {
		t.Fatalf("failed to connect to postgres: %v", err)
	}
	defer store.Close()

	if err := store.Ping(context.Background()); err != nil {
		t.Fatalf("ping failed: %v", err)
	}
	if err := store.EnsureSchema(context.Background()); err != nil {
		t.Fatalf("ensure schema failed: %v", err)
	}

	ctx := context.Background()

	marker := "test_" + uuid.NewString()
	defer store.Pool.Exec(ctx, "DELETE FROM admission_resources WHERE description = $1", marker)

	priority := models.Resource{Title: "Helpline " + marker, Description: marker, URL: "https://example.org/help"}
	regular := models.Resource{Title: "Campus tour " + marker, Description: marker, URL: ""}

	if err := store.Insert(ctx, priority, true); err != nil {
		t.Fatalf("failed to insert priority resource: %v", err)
	}
	if err := store.Insert(ctx, regular, false); err != nil {
		t.Fatalf("failed to insert regular resource: %v", err)
	}

	listed, err := store.PriorityResources(ctx)
	if err != nil {
		t.Fatalf("failed to list priority resources: %v", err)
	}

	var found bool
	for _, res := range listed {
		if res.Description != marker {
			continue
		}
		if res.Title != priority.Title {
			t.Fatalf("unexpected priority resource: %+v", res)
		}
		found = true
	}
	if !found {
		t.Fatal("priority resource missing from listing")
	}

	for _, res := range listed {
		if res.Title == regular.Title {
			t.Fatal("non-priority resource leaked into priority listing")
		}
	}
}
