package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// TimeLayout is fixed-width so stored timestamps sort lexically.
const TimeLayout = "2006-01-02T15:04:05.000000Z"

func Now() string { return time.Now().UTC().Format(TimeLayout) }

type Customer struct {
	ID         string          `db:"id" json:"id"`
	Name       string          `db:"name" json:"name"`
	Phone      string          `db:"phone" json:"phone"`
	Email      string          `db:"email" json:"email"`
	Address    string          `db:"address" json:"address"`
	TotalSpent decimal.Decimal `db:"total_spent" json:"total_spent"`
	LastVisit  *string         `db:"last_visit" json:"last_visit"`
	CreatedAt  string          `db:"created_at" json:"created_at"`
	UpdatedAt  string          `db:"updated_at" json:"updated_at"`
}

type Vehicle struct {
	ID           string `db:"id" json:"id"`
	CustomerID   string `db:"customer_id" json:"customer_id"`
	Brand        string `db:"brand" json:"brand"`
	Model        string `db:"model" json:"model"`
	Year         int    `db:"year" json:"year"`
	Color        string `db:"color" json:"color"`
	Type         string `db:"type" json:"type"`
	Registration string `db:"registration_number" json:"registration_number"`
	CreatedAt    string `db:"created_at" json:"created_at"`
}

type Service struct {
	ID          string          `db:"id" json:"id"`
	Name        string          `db:"name" json:"name"`
	Description string          `db:"description" json:"description"`
	Category    string          `db:"category" json:"category"`
	BasePrice   decimal.Decimal `db:"base_price" json:"base_price"`
	Duration    int             `db:"duration_minutes" json:"duration_minutes"`
	Active      bool            `db:"active" json:"active"`
	CreatedAt   string          `db:"created_at" json:"created_at"`
	UpdatedAt   string          `db:"updated_at" json:"updated_at"`
}

type ServicePackage struct {
	ID          string          `db:"id" json:"id"`
	Name        string          `db:"name" json:"name"`
	Description string          `db:"description" json:"description"`
	Price       decimal.Decimal `db:"price" json:"price"`
	Active      bool            `db:"active" json:"active"`
	CreatedAt   string          `db:"created_at" json:"created_at"`
	Items       []PackageItem   `db:"-" json:"items"`
}

type PackageItem struct {
	PackageID   string `db:"package_id" json:"-"`
	ServiceID   string `db:"service_id" json:"service_id"`
	ServiceName string `db:"service_name" json:"service_name"`
	Quantity    int    `db:"quantity" json:"quantity"`
}

const (
	SourceAdmin  = "admin"
	SourcePortal = "portal"
)

type Booking struct {
	ID          string          `db:"id" json:"id"`
	CustomerID  string          `db:"customer_id" json:"customer_id"`
	VehicleID   string          `db:"vehicle_id" json:"vehicle_id"`
	Date        string          `db:"booking_date" json:"booking_date"`
	Time        string          `db:"booking_time" json:"booking_time"`
	Status      string          `db:"status" json:"status"`
	TotalAmount decimal.Decimal `db:"total_amount" json:"total_amount"`
	Notes       string          `db:"notes" json:"notes"`
	Source      string          `db:"source" json:"source"`
	CreatedAt   string          `db:"created_at" json:"created_at"`
	UpdatedAt   string          `db:"updated_at" json:"updated_at"`
	Items       []LineItem      `db:"-" json:"services"`
}

// LineItem is a booked service with the price captured at booking time.
type LineItem struct {
	BookingID   string          `db:"booking_id" json:"-"`
	ServiceID   string          `db:"service_id" json:"service_id"`
	ServiceName string          `db:"service_name" json:"service_name"`
	Quantity    int             `db:"quantity" json:"quantity"`
	Price       decimal.Decimal `db:"price" json:"price"`
	Ordinal     int             `db:"ordinal" json:"-"`
}

func (li LineItem) Amount() decimal.Decimal {
	return li.Price.Mul(decimal.NewFromInt(int64(li.Quantity)))
}

// LineTotal sums price times quantity over items.
func LineTotal(items []LineItem) decimal.Decimal {
	total := decimal.Zero
	for _, li := range items {
		total = total.Add(li.Amount())
	}
	return total
}

type JobCard struct {
	ID           string  `db:"id" json:"id"`
	BookingID    string  `db:"booking_id" json:"booking_id"`
	TechnicianID *string `db:"technician_id" json:"technician_id"`
	Status       string  `db:"status" json:"status"`
	Notes        string  `db:"notes" json:"notes"`
	StartedAt    *string `db:"started_at" json:"started_at"`
	CompletedAt  *string `db:"completed_at" json:"completed_at"`
	DeliveredAt  *string `db:"delivered_at" json:"delivered_at"`
	CreatedAt    string  `db:"created_at" json:"created_at"`
	UpdatedAt    string  `db:"updated_at" json:"updated_at"`
	Photos       []Photo `db:"-" json:"photos"`
}

const (
	PhotoBefore = "before"
	PhotoDuring = "during"
	PhotoAfter  = "after"
)

func ValidPhotoType(t string) bool {
	return t == PhotoBefore || t == PhotoDuring || t == PhotoAfter
}

type Photo struct {
	ID        string `db:"id" json:"id"`
	JobCardID string `db:"job_card_id" json:"job_card_id"`
	Type      string `db:"type" json:"type"`
	FilePath  string `db:"file_path" json:"file_path"`
	ThumbPath string `db:"thumb_path" json:"thumb_path"`
	CreatedAt string `db:"created_at" json:"created_at"`
}

type TechnicianLoad struct {
	StaffID    string `db:"staff_id" json:"staff_id"`
	Name       string `db:"name" json:"name"`
	ActiveJobs int    `db:"active_jobs" json:"active_jobs"`
}

type InventoryItem struct {
	ID           string          `db:"id" json:"id"`
	Name         string          `db:"name" json:"name"`
	Category     string          `db:"category" json:"category"`
	Unit         string          `db:"unit" json:"unit"`
	CurrentStock decimal.Decimal `db:"current_stock" json:"current_stock"`
	MinStock     decimal.Decimal `db:"min_stock_level" json:"min_stock_level"`
	CostPerUnit  decimal.Decimal `db:"cost_per_unit" json:"cost_per_unit"`
	CreatedAt    string          `db:"created_at" json:"created_at"`
	UpdatedAt    string          `db:"updated_at" json:"updated_at"`
}

func (it InventoryItem) IsLow() bool { return it.CurrentStock.LessThanOrEqual(it.MinStock) }

const (
	TxIn  = "in"
	TxOut = "out"

	RefPurchase   = "purchase"
	RefReturn     = "return"
	RefAdjustment = "adjustment"
	RefUsage      = "usage"
)

type InventoryTx struct {
	ID            string          `db:"id" json:"id"`
	ItemID        string          `db:"item_id" json:"item_id"`
	Type          string          `db:"type" json:"type"`
	Quantity      decimal.Decimal `db:"quantity" json:"quantity"`
	ReferenceType string          `db:"reference_type" json:"reference_type"`
	ReferenceID   *string         `db:"reference_id" json:"reference_id"`
	Notes         string          `db:"notes" json:"notes"`
	CreatedBy     *string         `db:"created_by" json:"created_by"`
	CreatedAt     string          `db:"created_at" json:"created_at"`
}

type InventoryStats struct {
	ItemCount     int             `json:"item_count"`
	TotalValue    decimal.Decimal `json:"total_value"`
	LowStockCount int             `json:"low_stock_count"`
	Categories    []string        `json:"categories"`
}

const (
	PaymentPending  = "pending"
	PaymentPaid     = "paid"
	PaymentPartial  = "partial"
	PaymentRefunded = "refunded"
)

var PaymentMethods = []string{"cash", "card", "upi", "bank_transfer", "other"}

type Invoice struct {
	ID             string          `db:"id" json:"id"`
	InvoiceNumber  string          `db:"invoice_number" json:"invoice_number"`
	BookingID      string          `db:"booking_id" json:"booking_id"`
	CustomerID     string          `db:"customer_id" json:"customer_id"`
	CustomerName   string          `db:"customer_name" json:"customer_name,omitempty"`
	Subtotal       decimal.Decimal `db:"subtotal" json:"subtotal"`
	TaxRate        decimal.Decimal `db:"tax_rate" json:"tax_rate"`
	TaxAmount      decimal.Decimal `db:"tax_amount" json:"tax_amount"`
	DiscountAmount decimal.Decimal `db:"discount_amount" json:"discount_amount"`
	TotalAmount    decimal.Decimal `db:"total_amount" json:"total_amount"`
	PaymentStatus  string          `db:"payment_status" json:"payment_status"`
	PaymentMethod  *string         `db:"payment_method" json:"payment_method"`
	PaidAmount     decimal.Decimal `db:"paid_amount" json:"paid_amount"`
	Notes          string          `db:"notes" json:"notes"`
	CreatedAt      string          `db:"created_at" json:"created_at"`
	UpdatedAt      string          `db:"updated_at" json:"updated_at"`
	PaidAt         *string         `db:"paid_at" json:"paid_at"`
}

func (inv Invoice) Outstanding() decimal.Decimal {
	if inv.PaymentStatus == PaymentRefunded {
		return decimal.Zero
	}
	return inv.TotalAmount.Sub(inv.PaidAmount)
}

// PaymentStatusFor derives the status from paid against total.
func PaymentStatusFor(paid, total decimal.Decimal) string {
	switch {
	case paid.GreaterThanOrEqual(total):
		return PaymentPaid
	case paid.IsPositive():
		return PaymentPartial
	default:
		return PaymentPending
	}
}

type BillingStats struct {
	InvoiceCount     int             `json:"invoice_count"`
	TotalBilled      decimal.Decimal `json:"total_billed"`
	TotalPaid        decimal.Decimal `json:"total_paid"`
	TotalOutstanding decimal.Decimal `json:"total_outstanding"`
}

type Staff struct {
	ID        string `db:"id" json:"id"`
	UserID    string `db:"user_id" json:"user_id"`
	Name      string `db:"name" json:"name"`
	Email     string `db:"email" json:"email"`
	Phone     string `db:"phone" json:"phone"`
	Position  string `db:"position" json:"position"`
	Role      string `db:"role" json:"role"`
	Active    bool   `db:"active" json:"active"`
	CreatedAt string `db:"created_at" json:"created_at"`
}
