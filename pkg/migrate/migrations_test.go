package migrate_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/angelmondragon/storefront-backend/pkg/migrate"
)

func TestMigrationsDirIsValid(t *testing.T) {
	names, err := migrate.Check("migrations")
	if err != nil {
		t.Fatalf("Check: %v", err)
	}
	if len(names) != 4 {
		t.Fatalf("expected 4 migrations, got %d", len(names))
	}
	if !strings.HasSuffix(names[0], "_create_products_table.sql") {
		t.Fatalf("expected products first, got %s", names[0])
	}
}

func TestMigrationsContainSchemas(t *testing.T) {
	cases := map[string][]string{
		"*_create_products_table.sql": {
			"CREATE TABLE IF NOT EXISTS products",
			"price numeric(12,2) NOT NULL CHECK (price >= 0)",
			"CREATE INDEX IF NOT EXISTS idx_products_is_active",
		},
		"*_create_orders_table.sql": {
			"CREATE TABLE IF NOT EXISTS orders",
			"card_last4 varchar(4) NOT NULL",
			"CREATE INDEX IF NOT EXISTS orders_session_id_idx",
		},
		"*_create_wishlist_items_table.sql": {
			"CREATE TABLE IF NOT EXISTS wishlist_items",
			"PRIMARY KEY (user_id, product_id)",
		},
		"*_create_cart_slots_table.sql": {
			"CREATE TABLE IF NOT EXISTS cart_slots",
			"slot_key text PRIMARY KEY",
		},
	}

	for pattern, checks := range cases {
		matches, err := filepath.Glob(filepath.Join("migrations", pattern))
		if err != nil {
			t.Fatalf("glob migrations: %v", err)
		}
		if len(matches) != 1 {
			t.Fatalf("expected one migration for %s, got %d", pattern, len(matches))
		}
		data, err := os.ReadFile(matches[0])
		if err != nil {
			t.Fatalf("read migration file: %v", err)
		}
		content := string(data)
		for _, sub := range checks {
			if !strings.Contains(content, sub) {
				t.Errorf("%s missing expected statement %q", matches[0], sub)
			}
		}
	}
}

func TestOrdersMigrationNeverStoresFullCard(t *testing.T) {
	matches, _ := filepath.Glob(filepath.Join("migrations", "*_create_orders_table.sql"))
	if len(matches) == 0 {
		t.Fatal("orders migration missing")
	}
	data, err := os.ReadFile(matches[0])
	if err != nil {
		t.Fatalf("read migration file: %v", err)
	}
	for _, banned := range []string{"card_number", "cvv", "expiry"} {
		if strings.Contains(string(data), banned) {
			t.Errorf("orders migration must not contain %q", banned)
		}
	}
}

func TestScaffoldWritesCheckableMigration(t *testing.T) {
	dir := t.TempDir()
	now := time.Date(2026, 3, 1, 12, 5, 0, 0, time.UTC)
	path, err := migrate.Scaffold(dir, "Add Cart Index!", now)
	if err != nil {
		t.Fatalf("Scaffold: %v", err)
	}
	if filepath.Base(path) != "20260301120500_add_cart_index.sql" {
		t.Fatalf("unexpected migration path %s", path)
	}
	if _, err := migrate.Check(dir); err != nil {
		t.Fatalf("scaffolded migration should pass Check: %v", err)
	}

	if _, err := migrate.Scaffold(dir, "add cart index", now); err == nil {
		t.Fatal("expected existing file to be kept")
	}
	if _, err := migrate.Scaffold(dir, "!!!", now); err == nil {
		t.Fatal("expected name without usable characters to fail")
	}
}

func TestCheckRejectsBadNames(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "add_index.sql"), []byte("-- +goose Up\n-- +goose Down\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := migrate.Check(dir); err == nil {
		t.Fatal("expected unversioned file to fail")
	}
}
