package repos

import (
	"context"

	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"

	"detailhub/internal/domain"
)

type InventoryRepo struct{ q sqlx.ExtContext }

func NewInventoryRepo(q sqlx.ExtContext) *InventoryRepo { return &InventoryRepo{q: q} }

func (r *InventoryRepo) WithTx(tx *sqlx.Tx) *InventoryRepo { return &InventoryRepo{q: tx} }

const itemCols = `id, name, category, unit, current_stock, min_stock_level, cost_per_unit, created_at, updated_at`

// CreateItem inserts the item with zero stock; opening stock goes through
// the ledger.
func (r *InventoryRepo) CreateItem(ctx context.Context, it domain.InventoryItem) error {
	_, err := r.q.ExecContext(ctx, `
		INSERT INTO inventory_items(id,name,category,unit,current_stock,min_stock_level,cost_per_unit,created_at,updated_at)
		VALUES(?,?,?,?,0,?,?,?,?)`,
		it.ID, it.Name, it.Category, it.Unit, it.MinStock, it.CostPerUnit, it.CreatedAt, it.UpdatedAt)
	return wrap(err, "inventory item")
}

// UpdateItem never touches current_stock.
func (r *InventoryRepo) UpdateItem(ctx context.Context, it domain.InventoryItem) error {
	res, err := r.q.ExecContext(ctx, `
		UPDATE inventory_items SET name=?, category=?, unit=?, min_stock_level=?, cost_per_unit=?, updated_at=?
		WHERE id=?`, it.Name, it.Category, it.Unit, it.MinStock, it.CostPerUnit, domain.Now(), it.ID)
	if err != nil {
		return wrap(err, "inventory item")
	}
	return requireRow(res, "inventory item")
}

func (r *InventoryRepo) Get(ctx context.Context, id string, lock bool) (*domain.InventoryItem, error) {
	q := `SELECT ` + itemCols + ` FROM inventory_items WHERE id=?`
	if lock {
		q += lockClause(r.q)
	}
	var it domain.InventoryItem
	if err := sqlx.GetContext(ctx, r.q, &it, q, id); err != nil {
		return nil, wrap(err, "inventory item")
	}
	return &it, nil
}

func (r *InventoryRepo) List(ctx context.Context, category, search string) ([]domain.InventoryItem, error) {
	q := `SELECT ` + itemCols + ` FROM inventory_items WHERE 1=1`
	var args []any
	if category != "" {
		q += ` AND category = ?`
		args = append(args, category)
	}
	if search != "" {
		q += ` AND LOWER(name) LIKE LOWER(?)`
		args = append(args, "%"+search+"%")
	}
	q += ` ORDER BY name`
	out := []domain.InventoryItem{}
	err := sqlx.SelectContext(ctx, r.q, &out, q, args...)
	return out, wrap(err, "inventory")
}

// ListLowStock orders the most depleted items first, then by name.
func (r *InventoryRepo) ListLowStock(ctx context.Context) ([]domain.InventoryItem, error) {
	out := []domain.InventoryItem{}
	err := sqlx.SelectContext(ctx, r.q, &out, `
		SELECT `+itemCols+` FROM inventory_items
		WHERE current_stock <= min_stock_level
		ORDER BY (current_stock - min_stock_level), name`)
	return out, wrap(err, "low stock")
}

func (r *InventoryRepo) SetStock(ctx context.Context, id string, stock decimal.Decimal) error {
	_, err := r.q.ExecContext(ctx, `UPDATE inventory_items SET current_stock=?, updated_at=? WHERE id=?`,
		stock, domain.Now(), id)
	return wrap(err, "inventory item")
}

func (r *InventoryRepo) InsertTx(ctx context.Context, t domain.InventoryTx) error {
	_, err := r.q.ExecContext(ctx, `
		INSERT INTO inventory_transactions(id,item_id,type,quantity,reference_type,reference_id,notes,created_by,created_at)
		VALUES(?,?,?,?,?,?,?,?,?)`,
		t.ID, t.ItemID, t.Type, t.Quantity, t.ReferenceType, t.ReferenceID, t.Notes, t.CreatedBy, t.CreatedAt)
	return wrap(err, "inventory transaction")
}

// Transactions returns the ledger of one item in application order.
func (r *InventoryRepo) Transactions(ctx context.Context, itemID string) ([]domain.InventoryTx, error) {
	out := []domain.InventoryTx{}
	err := sqlx.SelectContext(ctx, r.q, &out, `
		SELECT id, item_id, type, quantity, reference_type, reference_id, notes, created_by, created_at
		FROM inventory_transactions WHERE item_id=? ORDER BY created_at, id`, itemID)
	return out, wrap(err, "inventory transactions")
}

type inventoryTotals struct {
	ItemCount  int             `db:"item_count"`
	TotalValue decimal.Decimal `db:"total_value"`
	LowCount   int             `db:"low_count"`
}

func (r *InventoryRepo) Stats(ctx context.Context) (domain.InventoryStats, error) {
	var t inventoryTotals
	if err := sqlx.GetContext(ctx, r.q, &t, `
		SELECT COUNT(*) AS item_count,
		       COALESCE(SUM(current_stock * cost_per_unit), 0) AS total_value,
		       COALESCE(SUM(CASE WHEN current_stock <= min_stock_level THEN 1 ELSE 0 END), 0) AS low_count
		FROM inventory_items`); err != nil {
		return domain.InventoryStats{}, wrap(err, "inventory stats")
	}
	cats := []string{}
	if err := sqlx.SelectContext(ctx, r.q, &cats, `SELECT DISTINCT category FROM inventory_items ORDER BY category`); err != nil {
		return domain.InventoryStats{}, wrap(err, "inventory categories")
	}
	return domain.InventoryStats{
		ItemCount:     t.ItemCount,
		TotalValue:    t.TotalValue.Round(2),
		LowStockCount: t.LowCount,
		Categories:    cats,
	}, nil
}
