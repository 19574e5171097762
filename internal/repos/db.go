package repos

import (
	"context"
	"log"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"golang.org/x/crypto/bcrypt"
	_ "modernc.org/sqlite"
)

// TimeFormat is fixed width so TEXT timestamps order lexicographically.
const TimeFormat = "2006-01-02T15:04:05.000000Z"

func Timestamp(t time.Time) string { return t.UTC().Format(TimeFormat) }

func now() string { return Timestamp(time.Now()) }

// driverFor picks lib/pq for postgres URLs and modernc sqlite for everything else.
func driverFor(dsn string) string {
	if strings.HasPrefix(dsn, "postgres://") || strings.HasPrefix(dsn, "postgresql://") {
		return "postgres"
	}
	return "sqlite"
}

func OpenDB(dsn string) (*sqlx.DB, error) {
	driver := driverFor(dsn)
	db, err := sqlx.Open(driver, dsn)
	if err != nil {
		return nil, err
	}
	if driver == "sqlite" && strings.Contains(dsn, ":memory:") {
		// every new connection would otherwise get its own empty database
		db.SetMaxOpenConns(1)
	}
	if err = db.Ping(); err != nil {
		return nil, err
	}
	if err := ensureSchema(db); err != nil {
		return nil, err
	}
	return db, nil
}

func ensureSchema(db *sqlx.DB) error {
	visibility := `visibility INTEGER NOT NULL DEFAULT 1`
	if db.DriverName() == "postgres" {
		visibility = `visibility BOOLEAN NOT NULL DEFAULT TRUE`
	}
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS vendors(
  id TEXT PRIMARY KEY,
  name TEXT NOT NULL,
  description TEXT NOT NULL DEFAULT '',
  landmark TEXT NOT NULL DEFAULT '',
  photos_json TEXT NOT NULL DEFAULT '[]',
  vendor_type TEXT NOT NULL DEFAULT '' CHECK (vendor_type IN ('','stall','cafe')),
  api_key_hash TEXT NOT NULL DEFAULT '',
  created_at TEXT NOT NULL
)`,
		`CREATE TABLE IF NOT EXISTS categories(
  id TEXT PRIMARY KEY,
  vendor_id TEXT NOT NULL,
  name TEXT NOT NULL,
  ` + visibility + `,
  photo_url TEXT NOT NULL DEFAULT '',
  created_at TEXT NOT NULL,
  deleting_at TEXT NOT NULL DEFAULT ''
)`,
		`CREATE INDEX IF NOT EXISTS idx_categories_vendor ON categories(vendor_id, created_at)`,
		`CREATE INDEX IF NOT EXISTS idx_categories_deleting ON categories(deleting_at)`,
		`CREATE TABLE IF NOT EXISTS food_items(
  id TEXT PRIMARY KEY,
  seller_id TEXT NOT NULL,
  name TEXT NOT NULL,
  description TEXT NOT NULL DEFAULT '',
  price NUMERIC NOT NULL CHECK (price > 0),
  photo_urls_json TEXT NOT NULL DEFAULT '[]',
  rating NUMERIC NOT NULL DEFAULT 0,
  created_at TEXT NOT NULL
)`,
		`CREATE INDEX IF NOT EXISTS idx_food_items_seller ON food_items(seller_id)`,
		// no foreign keys: a cascade in progress legitimately leaves
		// category_items pointing at deleted rows until it is resumed
		`CREATE TABLE IF NOT EXISTS category_items(
  category_id TEXT NOT NULL,
  food_item_id TEXT NOT NULL,
  created_at TEXT NOT NULL,
  PRIMARY KEY (category_id, food_item_id)
)`,
		`CREATE INDEX IF NOT EXISTS idx_category_items_item ON category_items(food_item_id)`,
	}
	for _, s := range stmts {
		if _, err := db.Exec(s); err != nil {
			return err
		}
	}
	return nil
}

// SeedVendor is a demo vendor with its plain seller token.
type SeedVendor struct {
	ID, Name, Description, Landmark, Token string
}

// DemoVendors are inserted by Seed. Their categories are created through
// the service so classification and presence stay in step.
var DemoVendors = []SeedVendor{
	{ID: "v-mama-lee", Name: "Mama Lee's", Description: "Hand pulled noodles and dumplings", Landmark: "Food court, level 2", Token: "demo-mama-lee"},
	{ID: "v-bean-there", Name: "Bean There Cafe", Description: "Espresso, pastries and brunch plates", Landmark: "Next to the library", Token: "demo-bean-there"},
}

// Seed ensures the demo vendors exist (idempotent).
func Seed(ctx context.Context, db *sqlx.DB) error {
	tx, err := db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	for _, v := range DemoVendors {
		h, err := bcrypt.GenerateFromPassword([]byte(v.Token), bcrypt.DefaultCost)
		if err != nil {
			return err
		}
		res, err := tx.ExecContext(ctx, tx.Rebind(`
			INSERT INTO vendors(id,name,description,landmark,api_key_hash,created_at)
			VALUES(?,?,?,?,?,?)
			ON CONFLICT(id) DO NOTHING
		`), v.ID, v.Name, v.Description, v.Landmark, string(h), now())
		if err != nil {
			return err
		}
		if n, _ := res.RowsAffected(); n > 0 {
			log.Printf("[seed] vendor %s", v.ID)
		}
	}
	return tx.Commit()
}
