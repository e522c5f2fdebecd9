package services_test

import (
	"context"
	"strings"
	"testing"

	"github.com/shopspring/decimal"

	"detailhub/internal/config"
	"detailhub/internal/domain"
	"detailhub/internal/services"
)

func newItem(t *testing.T, f *fixture, name, opening, min string) *domain.InventoryItem {
	t.Helper()
	it, err := f.inventory.CreateItem(context.Background(), services.ItemInput{
		Name: name, Category: "chemicals", Unit: "L",
		OpeningStock: dec(opening), MinStock: dec(min), CostPerUnit: dec("250"),
	}, "")
	if err != nil {
		t.Fatal(err)
	}
	return it
}

func TestStockMovementsAndLowStock(t *testing.T) {
	f := newFixture(t, config.Linkage{})
	ctx := context.Background()
	it := newItem(t, f, "Foam Shampoo", "0", "5")

	if _, err := f.inventory.AddStock(ctx, it.ID, services.StockInput{Quantity: dec("10")}, ""); err != nil {
		t.Fatal(err)
	}
	got, err := f.inventory.RemoveStock(ctx, it.ID, services.StockInput{Quantity: dec("7")}, "")
	if err != nil {
		t.Fatal(err)
	}
	if !got.CurrentStock.Equal(dec("3")) {
		t.Fatalf("stock: want 3, got %s", got.CurrentStock)
	}

	low, err := f.inventory.ListLowStock(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(low) != 1 || low[0].ID != it.ID {
		t.Fatalf("want item in low stock list, got %+v", low)
	}

	_, err = f.inventory.RemoveStock(ctx, it.ID, services.StockInput{Quantity: dec("5")}, "")
	wantKind(t, err, domain.KindValidation)
	if !strings.HasPrefix(domain.Message(err), "insufficient stock") {
		t.Fatalf("unexpected message %q", domain.Message(err))
	}
	after, err := f.inventory.Get(ctx, it.ID)
	if err != nil {
		t.Fatal(err)
	}
	if !after.CurrentStock.Equal(dec("3")) {
		t.Fatalf("rejected withdrawal changed stock to %s", after.CurrentStock)
	}
	txs, _ := f.inventory.Transactions(ctx, it.ID)
	if len(txs) != 2 {
		t.Fatalf("rejected withdrawal must not be ledgered, got %d entries", len(txs))
	}
}

func TestLedgerReplaysToCurrentStock(t *testing.T) {
	f := newFixture(t, config.Linkage{})
	ctx := context.Background()
	it := newItem(t, f, "Ceramic Coat", "4.5", "1")

	moves := []struct {
		in  bool
		qty string
		ref string
	}{
		{true, "2.25", domain.RefPurchase},
		{false, "1.5", domain.RefUsage},
		{true, "0.75", domain.RefReturn},
		{false, "3", domain.RefAdjustment},
	}
	for _, m := range moves {
		in := services.StockInput{Quantity: dec(m.qty), ReferenceType: m.ref}
		var err error
		if m.in {
			_, err = f.inventory.AddStock(ctx, it.ID, in, "")
		} else {
			_, err = f.inventory.RemoveStock(ctx, it.ID, in, "")
		}
		if err != nil {
			t.Fatal(err)
		}
	}

	txs, err := f.inventory.Transactions(ctx, it.ID)
	if err != nil {
		t.Fatal(err)
	}
	replay := decimal.Zero
	for _, tx := range txs {
		if tx.Type == domain.TxIn {
			replay = replay.Add(tx.Quantity)
		} else {
			replay = replay.Sub(tx.Quantity)
		}
	}
	cur, _ := f.inventory.Get(ctx, it.ID)
	if !replay.Equal(cur.CurrentStock) || !cur.CurrentStock.Equal(dec("3")) {
		t.Fatalf("replay %s, stock %s, want 3", replay, cur.CurrentStock)
	}
	opening := 0
	for _, tx := range txs {
		if tx.Notes == "opening stock" && tx.ReferenceType == domain.RefAdjustment {
			opening++
		}
	}
	if len(txs) != 5 || opening != 1 {
		t.Fatalf("want 5 entries with one opening adjustment, got %d/%d", len(txs), opening)
	}
}

func TestStockInputRules(t *testing.T) {
	f := newFixture(t, config.Linkage{})
	ctx := context.Background()
	it := newItem(t, f, "Tyre Gel", "5", "1")

	_, err := f.inventory.AddStock(ctx, it.ID, services.StockInput{Quantity: dec("0")}, "")
	wantKind(t, err, domain.KindValidation)
	_, err = f.inventory.AddStock(ctx, it.ID, services.StockInput{Quantity: dec("1"), ReferenceType: domain.RefUsage}, "")
	wantKind(t, err, domain.KindValidation)
	_, err = f.inventory.RemoveStock(ctx, it.ID, services.StockInput{Quantity: dec("1"), ReferenceType: domain.RefPurchase}, "")
	wantKind(t, err, domain.KindValidation)
	_, err = f.inventory.AddStock(ctx, "missing", services.StockInput{Quantity: dec("1")}, "")
	wantKind(t, err, domain.KindNotFound)
}

func TestUpdateItemLeavesStockAlone(t *testing.T) {
	f := newFixture(t, config.Linkage{})
	ctx := context.Background()
	it := newItem(t, f, "Glass Cleaner", "8", "2")

	got, err := f.inventory.UpdateItem(ctx, it.ID, services.ItemInput{
		Name: "Glass Cleaner Pro", Category: "chemicals", Unit: "L",
		OpeningStock: dec("100"), MinStock: dec("3"), CostPerUnit: dec("300"),
	})
	if err != nil {
		t.Fatal(err)
	}
	if !got.CurrentStock.Equal(dec("8")) || got.Name != "Glass Cleaner Pro" {
		t.Fatalf("unexpected item after update: %+v", got)
	}
}

func TestInventoryStats(t *testing.T) {
	f := newFixture(t, config.Linkage{})
	ctx := context.Background()
	newItem(t, f, "Wax", "2", "5")
	newItem(t, f, "Polish", "10", "5")

	st, err := f.inventory.Stats(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if st.ItemCount != 2 || st.LowStockCount != 1 {
		t.Fatalf("unexpected stats: %+v", st)
	}
	if !st.TotalValue.Equal(dec("3000")) {
		t.Fatalf("value: want 3000, got %s", st.TotalValue)
	}
}
