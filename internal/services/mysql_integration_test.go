//go:build integration

package services_test

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"detailhub/internal/domain"
	"detailhub/internal/repos"
	"detailhub/internal/services"
)

func setupMySQL(t *testing.T) *sqlx.DB {
	t.Helper()
	ctx := context.Background()

	req := testcontainers.ContainerRequest{
		Image:        "mysql:8.0",
		ExposedPorts: []string{"3306/tcp"},
		Env: map[string]string{
			"MYSQL_ROOT_PASSWORD": "rootpass",
			"MYSQL_DATABASE":      "detailhub",
			"MYSQL_USER":          "testuser",
			"MYSQL_PASSWORD":      "testpass",
		},
		WaitingFor: wait.ForLog("port: 3306  MySQL Community Server").
			WithStartupTimeout(120 * time.Second),
	}
	mysql, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		t.Fatalf("start mysql container: %v", err)
	}
	t.Cleanup(func() {
		if err := mysql.Terminate(ctx); err != nil {
			t.Logf("terminate container: %v", err)
		}
	})

	host, err := mysql.Host(ctx)
	if err != nil {
		t.Fatal(err)
	}
	port, err := mysql.MappedPort(ctx, "3306")
	if err != nil {
		t.Fatal(err)
	}
	dsn := fmt.Sprintf("testuser:testpass@tcp(%s:%s)/detailhub", host, port.Port())

	db, err := repos.OpenDB("mysql", dsn)
	if err != nil {
		t.Fatalf("open mysql: %v", err)
	}
	db.SetMaxOpenConns(16)
	t.Cleanup(func() { db.Close() })
	return db
}

func TestConcurrentWithdrawalsNeverOversell(t *testing.T) {
	db := setupMySQL(t)
	ctx := context.Background()
	inv := services.NewInventoryService(db)

	it, err := inv.CreateItem(ctx, services.ItemInput{
		Name: "Foam Shampoo", Category: "chemicals", Unit: "L", OpeningStock: dec("5"), MinStock: dec("1"),
	}, "")
	if err != nil {
		t.Fatal(err)
	}

	var wg sync.WaitGroup
	var mu sync.Mutex
	ok, rejected := 0, 0
	for i := 0; i < 12; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := inv.RemoveStock(ctx, it.ID, services.StockInput{Quantity: dec("1")}, "")
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				ok++
			case domain.IsValidation(err):
				rejected++
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}()
	}
	wg.Wait()

	if ok != 5 || rejected != 7 {
		t.Fatalf("want 5 ok / 7 rejected, got %d / %d", ok, rejected)
	}
	cur, err := inv.Get(ctx, it.ID)
	if err != nil {
		t.Fatal(err)
	}
	if !cur.CurrentStock.IsZero() {
		t.Fatalf("stock: want 0, got %s", cur.CurrentStock)
	}
	txs, _ := inv.Transactions(ctx, it.ID)
	if len(txs) != 6 {
		t.Fatalf("ledger: want 6 entries, got %d", len(txs))
	}
}

func TestInvoiceNumbersUniqueUnderConcurrency(t *testing.T) {
	db := setupMySQL(t)
	ctx := context.Background()
	catalog := services.NewCatalogService(db)
	customers := services.NewCustomerService(db)
	bookings := services.NewBookingService(db, nil)
	billing := services.NewBillingService(db, dec("0.18"), nil)

	svc, err := catalog.CreateService(ctx, services.ServiceInput{Name: "Foam Wash", Category: "exterior", BasePrice: dec("500")})
	if err != nil {
		t.Fatal(err)
	}
	var ids []string
	for i := 0; i < 6; i++ {
		c, err := customers.Create(ctx, services.CustomerInput{Name: "C", Phone: fmt.Sprintf("+91 90000 %05d", i)})
		if err != nil {
			t.Fatal(err)
		}
		b, err := bookings.Create(ctx, services.CreateBookingInput{
			CustomerID: c.ID, Date: "2026-03-14", Time: "10:00",
			Vehicle:  &services.VehicleInput{Brand: "Honda", Model: "City", Registration: fmt.Sprintf("KA01AB%04d", i)},
			Services: []services.LineItemInput{{ServiceID: svc.ID}},
		}, "")
		if err != nil {
			t.Fatal(err)
		}
		ids = append(ids, b.ID)
	}

	var wg sync.WaitGroup
	numbers := make(chan string, len(ids))
	for _, id := range ids {
		wg.Add(1)
		go func(id string) {
			defer wg.Done()
			inv, err := billing.GenerateInvoice(ctx, services.GenerateInvoiceInput{BookingID: id})
			if err != nil {
				t.Errorf("invoice %s: %v", id, err)
				return
			}
			numbers <- inv.InvoiceNumber
		}(id)
	}
	wg.Wait()
	close(numbers)

	seen := map[string]bool{}
	for n := range numbers {
		if seen[n] {
			t.Fatalf("duplicate invoice number %s", n)
		}
		seen[n] = true
	}
	if len(seen) != len(ids) {
		t.Fatalf("want %d invoices, got %d", len(ids), len(seen))
	}
}
