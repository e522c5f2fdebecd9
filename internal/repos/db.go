package repos

import (
	"context"
	"fmt"
	"log"

	_ "github.com/go-sql-driver/mysql"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"golang.org/x/crypto/bcrypt"
	_ "modernc.org/sqlite"

	"detailhub/internal/domain"
)

// OpenDB connects, bootstraps the schema and seeds the service catalog.
// driver is "sqlite" (dev, tests) or "mysql".
func OpenDB(driver, dsn string) (*sqlx.DB, error) {
	if driver == "" {
		driver = "sqlite"
	}
	db, err := sqlx.Open(driver, dsn)
	if err != nil {
		return nil, err
	}
	if driver == "sqlite" {
		// One connection: writers serialise and :memory: stays a single database.
		db.SetMaxOpenConns(1)
		if _, err := db.Exec(`PRAGMA foreign_keys = ON`); err != nil {
			return nil, err
		}
	}
	if err = db.Ping(); err != nil {
		return nil, err
	}

	if err := ensureSchema(db); err != nil {
		return nil, err
	}
	if err := seedCatalog(db); err != nil {
		return nil, err
	}
	return db, nil
}

// Statements are portable between SQLite and MySQL: table-level constraints
// only, since MySQL ignores inline column REFERENCES.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS users(
  id VARCHAR(64) PRIMARY KEY,
  email VARCHAR(191) NOT NULL,
  name VARCHAR(191) NOT NULL,
  password_hash VARCHAR(100) NOT NULL,
  role VARCHAR(32) NOT NULL CHECK (role IN ('admin','manager','technician','customer_service')),
  created_at VARCHAR(32) NOT NULL,
  UNIQUE (email)
)`,
	`CREATE TABLE IF NOT EXISTS staff(
  id VARCHAR(64) PRIMARY KEY,
  user_id VARCHAR(64) NOT NULL,
  name VARCHAR(191) NOT NULL,
  phone VARCHAR(32) NOT NULL,
  position VARCHAR(32) NOT NULL,
  active BOOLEAN NOT NULL DEFAULT TRUE,
  created_at VARCHAR(32) NOT NULL,
  UNIQUE (user_id),
  FOREIGN KEY (user_id) REFERENCES users(id) ON DELETE CASCADE
)`,
	`CREATE TABLE IF NOT EXISTS customers(
  id VARCHAR(64) PRIMARY KEY,
  name VARCHAR(191) NOT NULL,
  phone VARCHAR(32) NOT NULL,
  email VARCHAR(191) NOT NULL,
  address TEXT NOT NULL,
  total_spent DECIMAL(12,2) NOT NULL DEFAULT 0,
  last_visit VARCHAR(32) NULL,
  created_at VARCHAR(32) NOT NULL,
  updated_at VARCHAR(32) NOT NULL,
  UNIQUE (phone)
)`,
	`CREATE TABLE IF NOT EXISTS vehicles(
  id VARCHAR(64) PRIMARY KEY,
  customer_id VARCHAR(64) NOT NULL,
  brand VARCHAR(64) NOT NULL,
  model VARCHAR(64) NOT NULL,
  year INT NOT NULL DEFAULT 0,
  color VARCHAR(32) NOT NULL,
  type VARCHAR(32) NOT NULL,
  registration_number VARCHAR(32) NOT NULL,
  created_at VARCHAR(32) NOT NULL,
  FOREIGN KEY (customer_id) REFERENCES customers(id) ON DELETE CASCADE
)`,
	`CREATE TABLE IF NOT EXISTS services(
  id VARCHAR(64) PRIMARY KEY,
  name VARCHAR(191) NOT NULL,
  description TEXT NOT NULL,
  category VARCHAR(64) NOT NULL,
  base_price DECIMAL(12,2) NOT NULL CHECK (base_price >= 0),
  duration_minutes INT NOT NULL DEFAULT 0,
  active BOOLEAN NOT NULL DEFAULT TRUE,
  created_at VARCHAR(32) NOT NULL,
  updated_at VARCHAR(32) NOT NULL
)`,
	`CREATE TABLE IF NOT EXISTS service_packages(
  id VARCHAR(64) PRIMARY KEY,
  name VARCHAR(191) NOT NULL,
  description TEXT NOT NULL,
  price DECIMAL(12,2) NOT NULL CHECK (price >= 0),
  active BOOLEAN NOT NULL DEFAULT TRUE,
  created_at VARCHAR(32) NOT NULL
)`,
	`CREATE TABLE IF NOT EXISTS package_services(
  package_id VARCHAR(64) NOT NULL,
  service_id VARCHAR(64) NOT NULL,
  quantity INT NOT NULL CHECK (quantity >= 1),
  PRIMARY KEY (package_id, service_id),
  FOREIGN KEY (package_id) REFERENCES service_packages(id) ON DELETE CASCADE,
  FOREIGN KEY (service_id) REFERENCES services(id)
)`,
	`CREATE TABLE IF NOT EXISTS bookings(
  id VARCHAR(64) PRIMARY KEY,
  customer_id VARCHAR(64) NOT NULL,
  vehicle_id VARCHAR(64) NOT NULL,
  booking_date VARCHAR(10) NOT NULL,
  booking_time VARCHAR(5) NOT NULL,
  status VARCHAR(16) NOT NULL CHECK (status IN ('pending','confirmed','in_progress','completed','cancelled')),
  total_amount DECIMAL(12,2) NOT NULL,
  notes TEXT NOT NULL,
  source VARCHAR(16) NOT NULL,
  created_at VARCHAR(32) NOT NULL,
  updated_at VARCHAR(32) NOT NULL,
  FOREIGN KEY (customer_id) REFERENCES customers(id) ON DELETE CASCADE,
  FOREIGN KEY (vehicle_id) REFERENCES vehicles(id) ON DELETE CASCADE
)`,
	`CREATE TABLE IF NOT EXISTS booking_services(
  booking_id VARCHAR(64) NOT NULL,
  service_id VARCHAR(64) NOT NULL,
  quantity INT NOT NULL CHECK (quantity >= 1),
  price DECIMAL(12,2) NOT NULL,
  ordinal INT NOT NULL,
  PRIMARY KEY (booking_id, service_id),
  FOREIGN KEY (booking_id) REFERENCES bookings(id) ON DELETE CASCADE,
  FOREIGN KEY (service_id) REFERENCES services(id)
)`,
	`CREATE TABLE IF NOT EXISTS job_cards(
  id VARCHAR(64) PRIMARY KEY,
  booking_id VARCHAR(64) NOT NULL,
  technician_id VARCHAR(64) NULL,
  status VARCHAR(16) NOT NULL CHECK (status IN ('assigned','in_progress','qc_check','completed','delivered')),
  notes TEXT NOT NULL,
  started_at VARCHAR(32) NULL,
  completed_at VARCHAR(32) NULL,
  delivered_at VARCHAR(32) NULL,
  created_at VARCHAR(32) NOT NULL,
  updated_at VARCHAR(32) NOT NULL,
  UNIQUE (booking_id),
  FOREIGN KEY (booking_id) REFERENCES bookings(id) ON DELETE CASCADE,
  FOREIGN KEY (technician_id) REFERENCES staff(id) ON DELETE SET NULL
)`,
	`CREATE TABLE IF NOT EXISTS job_card_photos(
  id VARCHAR(64) PRIMARY KEY,
  job_card_id VARCHAR(64) NOT NULL,
  type VARCHAR(16) NOT NULL CHECK (type IN ('before','during','after')),
  file_path VARCHAR(255) NOT NULL,
  thumb_path VARCHAR(255) NOT NULL,
  created_at VARCHAR(32) NOT NULL,
  FOREIGN KEY (job_card_id) REFERENCES job_cards(id) ON DELETE CASCADE
)`,
	`CREATE TABLE IF NOT EXISTS inventory_items(
  id VARCHAR(64) PRIMARY KEY,
  name VARCHAR(191) NOT NULL,
  category VARCHAR(64) NOT NULL,
  unit VARCHAR(16) NOT NULL,
  current_stock DECIMAL(12,3) NOT NULL DEFAULT 0 CHECK (current_stock >= 0),
  min_stock_level DECIMAL(12,3) NOT NULL DEFAULT 0,
  cost_per_unit DECIMAL(12,2) NOT NULL DEFAULT 0,
  created_at VARCHAR(32) NOT NULL,
  updated_at VARCHAR(32) NOT NULL
)`,
	`CREATE TABLE IF NOT EXISTS inventory_transactions(
  id VARCHAR(64) PRIMARY KEY,
  item_id VARCHAR(64) NOT NULL,
  type VARCHAR(4) NOT NULL CHECK (type IN ('in','out')),
  quantity DECIMAL(12,3) NOT NULL CHECK (quantity > 0),
  reference_type VARCHAR(16) NOT NULL CHECK (reference_type IN ('purchase','return','adjustment','usage')),
  reference_id VARCHAR(64) NULL,
  notes TEXT NOT NULL,
  created_by VARCHAR(64) NULL,
  created_at VARCHAR(32) NOT NULL,
  FOREIGN KEY (item_id) REFERENCES inventory_items(id) ON DELETE CASCADE
)`,
	`CREATE TABLE IF NOT EXISTS billing(
  id VARCHAR(64) PRIMARY KEY,
  invoice_number VARCHAR(32) NOT NULL,
  booking_id VARCHAR(64) NOT NULL,
  customer_id VARCHAR(64) NOT NULL,
  subtotal DECIMAL(12,2) NOT NULL,
  tax_rate DECIMAL(6,4) NOT NULL,
  tax_amount DECIMAL(12,2) NOT NULL,
  discount_amount DECIMAL(12,2) NOT NULL DEFAULT 0,
  total_amount DECIMAL(12,2) NOT NULL,
  payment_status VARCHAR(16) NOT NULL CHECK (payment_status IN ('pending','paid','partial','refunded')),
  payment_method VARCHAR(16) NULL,
  paid_amount DECIMAL(12,2) NOT NULL DEFAULT 0,
  notes TEXT NOT NULL,
  created_at VARCHAR(32) NOT NULL,
  updated_at VARCHAR(32) NOT NULL,
  paid_at VARCHAR(32) NULL,
  UNIQUE (invoice_number),
  UNIQUE (booking_id),
  FOREIGN KEY (booking_id) REFERENCES bookings(id) ON DELETE CASCADE,
  FOREIGN KEY (customer_id) REFERENCES customers(id) ON DELETE CASCADE
)`,
}

func ensureSchema(db *sqlx.DB) error {
	for _, stmt := range schema {
		if _, err := db.Exec(stmt); err != nil {
			return fmt.Errorf("schema: %w", err)
		}
	}
	return nil
}

// seedCatalog inserts a starter service menu into an empty catalog.
func seedCatalog(db *sqlx.DB) error {
	var n int
	if err := db.Get(&n, `SELECT COUNT(*) FROM services`); err != nil {
		return err
	}
	if n > 0 {
		return nil
	}

	log.Println("[seed] inserting starter service catalog")

	type svc struct {
		name, category, price string
		minutes               int
	}
	menu := []svc{
		{"Exterior Foam Wash", "wash", "500", 45},
		{"Interior Deep Clean", "interior", "1200", 120},
		{"Machine Polish", "paint", "2500", 180},
		{"Ceramic Coating", "protection", "15000", 480},
		{"Engine Bay Detail", "wash", "800", 60},
	}

	tx := db.MustBegin()
	defer func() { _ = tx.Rollback() }()
	now := domain.Now()
	for _, s := range menu {
		if _, err := tx.Exec(`
			INSERT INTO services(id,name,description,category,base_price,duration_minutes,active,created_at,updated_at)
			VALUES(?,?,?,?,?,?,?,?,?)`,
			uuid.NewString(), s.name, "", s.category, s.price, s.minutes, true, now, now); err != nil {
			return err
		}
	}
	return tx.Commit()
}

// SeedAdmin makes sure an admin account (and its staff row) exists for the
// configured email. Safe to run on every start.
func SeedAdmin(ctx context.Context, db *sqlx.DB, email, password string) error {
	var n int
	if err := db.GetContext(ctx, &n, `SELECT COUNT(*) FROM users WHERE LOWER(email)=LOWER(?)`, email); err != nil {
		return err
	}
	if n > 0 {
		return nil
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	return WithTransaction(ctx, db, DefaultTxOptions(), func(tx *sqlx.Tx) error {
		u := domain.User{ID: uuid.NewString(), Email: email, Name: "Administrator", Hash: string(hash), Role: domain.RoleAdmin}
		if err := NewUserRepo(tx).Create(ctx, u); err != nil {
			return err
		}
		log.Printf("[seed] admin account %s created", email)
		return NewStaffRepo(tx).Create(ctx, domain.Staff{
			ID: uuid.NewString(), UserID: u.ID, Name: u.Name, Position: domain.RoleAdmin, Active: true,
		})
	})
}
