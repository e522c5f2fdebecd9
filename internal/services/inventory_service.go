package services

import (
	"context"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"

	"detailhub/internal/domain"
	"detailhub/internal/repos"
	"detailhub/internal/validate"
)

type ItemInput struct {
	Name         string          `json:"name" validate:"required,max=191"`
	Category     string          `json:"category" validate:"required,max=64"`
	Unit         string          `json:"unit" validate:"required,max=16"`
	OpeningStock decimal.Decimal `json:"current_stock"`
	MinStock     decimal.Decimal `json:"min_stock_level"`
	CostPerUnit  decimal.Decimal `json:"cost_per_unit"`
}

type StockInput struct {
	Quantity      decimal.Decimal `json:"quantity"`
	ReferenceType string          `json:"reference_type"`
	ReferenceID   string          `json:"reference_id" validate:"max=64"`
	Notes         string          `json:"notes" validate:"max=1000"`
}

var (
	inReferences  = []string{domain.RefPurchase, domain.RefReturn, domain.RefAdjustment}
	outReferences = []string{domain.RefUsage, domain.RefAdjustment}
)

type InventoryService struct {
	DB  *sqlx.DB
	Inv *repos.InventoryRepo
}

func NewInventoryService(db *sqlx.DB) *InventoryService {
	return &InventoryService{DB: db, Inv: repos.NewInventoryRepo(db)}
}

// CreateItem registers an item; a non-zero opening stock is booked as an
// "in" adjustment so the ledger always replays to current_stock.
func (s *InventoryService) CreateItem(ctx context.Context, in ItemInput, actorID string) (*domain.InventoryItem, error) {
	if err := validate.Struct(in); err != nil {
		return nil, err
	}
	if in.OpeningStock.IsNegative() || in.MinStock.IsNegative() || in.CostPerUnit.IsNegative() {
		return nil, domain.Validation("stock levels and cost cannot be negative")
	}
	now := domain.Now()
	it := domain.InventoryItem{
		ID: uuid.NewString(), Name: in.Name, Category: in.Category, Unit: in.Unit,
		MinStock: in.MinStock, CostPerUnit: in.CostPerUnit.Round(2), CreatedAt: now, UpdatedAt: now,
	}
	err := repos.WithTransaction(ctx, s.DB, repos.DefaultTxOptions(), func(tx *sqlx.Tx) error {
		inv := s.Inv.WithTx(tx)
		if err := inv.CreateItem(ctx, it); err != nil {
			return err
		}
		if !in.OpeningStock.IsPositive() {
			return nil
		}
		_, err := s.apply(ctx, inv, it.ID, domain.TxIn, StockInput{
			Quantity: in.OpeningStock, ReferenceType: domain.RefAdjustment, Notes: "opening stock",
		}, actorID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return s.Inv.Get(ctx, it.ID, false)
}

func (s *InventoryService) UpdateItem(ctx context.Context, id string, in ItemInput) (*domain.InventoryItem, error) {
	if err := validate.Struct(in); err != nil {
		return nil, err
	}
	if in.MinStock.IsNegative() || in.CostPerUnit.IsNegative() {
		return nil, domain.Validation("stock levels and cost cannot be negative")
	}
	it := domain.InventoryItem{ID: id, Name: in.Name, Category: in.Category, Unit: in.Unit,
		MinStock: in.MinStock, CostPerUnit: in.CostPerUnit.Round(2)}
	if err := s.Inv.UpdateItem(ctx, it); err != nil {
		return nil, err
	}
	return s.Inv.Get(ctx, id, false)
}

func (s *InventoryService) Get(ctx context.Context, id string) (*domain.InventoryItem, error) {
	return s.Inv.Get(ctx, id, false)
}

func (s *InventoryService) List(ctx context.Context, category, search string) ([]domain.InventoryItem, error) {
	return s.Inv.List(ctx, category, search)
}

func (s *InventoryService) AddStock(ctx context.Context, itemID string, in StockInput, actorID string) (*domain.InventoryItem, error) {
	if in.ReferenceType == "" {
		in.ReferenceType = domain.RefPurchase
	}
	if !contains(inReferences, in.ReferenceType) {
		return nil, domain.Validation("reference_type must be one of: purchase, return, adjustment")
	}
	return s.move(ctx, itemID, domain.TxIn, in, actorID)
}

// RemoveStock rejects withdrawals larger than the stock on hand and leaves
// the item untouched in that case.
func (s *InventoryService) RemoveStock(ctx context.Context, itemID string, in StockInput, actorID string) (*domain.InventoryItem, error) {
	if in.ReferenceType == "" {
		in.ReferenceType = domain.RefUsage
	}
	if !contains(outReferences, in.ReferenceType) {
		return nil, domain.Validation("reference_type must be one of: usage, adjustment")
	}
	return s.move(ctx, itemID, domain.TxOut, in, actorID)
}

func (s *InventoryService) move(ctx context.Context, itemID, kind string, in StockInput, actorID string) (*domain.InventoryItem, error) {
	if err := validate.Struct(in); err != nil {
		return nil, err
	}
	var out *domain.InventoryItem
	err := repos.WithTransaction(ctx, s.DB, repos.DefaultTxOptions(), func(tx *sqlx.Tx) error {
		var err error
		out, err = s.apply(ctx, s.Inv.WithTx(tx), itemID, kind, in, actorID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// apply locks the item, writes the ledger row and the new stock level.
func (s *InventoryService) apply(ctx context.Context, inv *repos.InventoryRepo, itemID, kind string, in StockInput, actorID string) (*domain.InventoryItem, error) {
	if !in.Quantity.IsPositive() {
		return nil, domain.Validation("quantity must be greater than 0")
	}
	it, err := inv.Get(ctx, itemID, true)
	if err != nil {
		return nil, err
	}
	next := it.CurrentStock.Add(in.Quantity)
	if kind == domain.TxOut {
		next = it.CurrentStock.Sub(in.Quantity)
		if next.IsNegative() {
			return nil, domain.Validation("insufficient stock: %s %s available", it.CurrentStock.String(), it.Unit)
		}
	}
	t := domain.InventoryTx{
		ID: uuid.NewString(), ItemID: itemID, Type: kind, Quantity: in.Quantity,
		ReferenceType: in.ReferenceType, ReferenceID: optional(in.ReferenceID), Notes: in.Notes,
		CreatedBy: optional(actorID), CreatedAt: domain.Now(),
	}
	if err := inv.InsertTx(ctx, t); err != nil {
		return nil, err
	}
	if err := inv.SetStock(ctx, itemID, next); err != nil {
		return nil, err
	}
	it.CurrentStock = next
	return it, nil
}

func (s *InventoryService) Transactions(ctx context.Context, itemID string) ([]domain.InventoryTx, error) {
	if _, err := s.Inv.Get(ctx, itemID, false); err != nil {
		return nil, err
	}
	return s.Inv.Transactions(ctx, itemID)
}

func (s *InventoryService) ListLowStock(ctx context.Context) ([]domain.InventoryItem, error) {
	return s.Inv.ListLowStock(ctx)
}

func (s *InventoryService) Stats(ctx context.Context) (domain.InventoryStats, error) {
	return s.Inv.Stats(ctx)
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func contains(list []string, s string) bool {
	for _, x := range list {
		if x == s {
			return true
		}
	}
	return false
}
