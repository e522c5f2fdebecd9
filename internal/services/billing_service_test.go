package services_test

import (
	"context"
	"strings"
	"testing"

	"detailhub/internal/config"
	"detailhub/internal/domain"
	"detailhub/internal/services"
)

func TestInvoicePaymentLifecycle(t *testing.T) {
	f := newFixture(t, config.Linkage{})
	ctx := context.Background()
	b := f.standardBooking(t)

	inv, err := f.billing.GenerateInvoice(ctx, services.GenerateInvoiceInput{BookingID: b.ID})
	if err != nil {
		t.Fatal(err)
	}
	if !inv.Subtotal.Equal(dec("1100")) || !inv.TaxAmount.Equal(dec("198")) || !inv.TotalAmount.Equal(dec("1298")) {
		t.Fatalf("unexpected amounts: %+v", inv)
	}
	if inv.PaymentStatus != domain.PaymentPending || !strings.HasPrefix(inv.InvoiceNumber, "INV-") {
		t.Fatalf("unexpected invoice: %+v", inv)
	}

	inv, err = f.billing.RecordPayment(ctx, inv.ID, services.PaymentInput{Amount: dec("650"), Method: "cash"})
	if err != nil {
		t.Fatal(err)
	}
	if inv.PaymentStatus != domain.PaymentPartial || !inv.Outstanding().Equal(dec("648")) {
		t.Fatalf("want partial with 648 outstanding, got %s / %s", inv.PaymentStatus, inv.Outstanding())
	}
	out, err := f.billing.ListOutstanding(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(out) != 1 || !out[0].OutstandingAmount.Equal(dec("648")) {
		t.Fatalf("unexpected outstanding list: %+v", out)
	}

	inv, err = f.billing.RecordPayment(ctx, inv.ID, services.PaymentInput{Amount: dec("1298"), Method: "upi"})
	if err != nil {
		t.Fatal(err)
	}
	if inv.PaymentStatus != domain.PaymentPaid || !inv.Outstanding().IsZero() || inv.PaidAt == nil {
		t.Fatalf("want paid, got %+v", inv)
	}

	c, err := f.customers.Get(ctx, b.CustomerID)
	if err != nil {
		t.Fatal(err)
	}
	if !c.TotalSpent.Equal(dec("1298")) {
		t.Fatalf("total_spent: want 1298, got %s", c.TotalSpent)
	}
	if out, _ := f.billing.ListOutstanding(ctx); len(out) != 0 {
		t.Fatalf("paid invoice still outstanding: %+v", out)
	}
}

func TestPaymentRules(t *testing.T) {
	f := newFixture(t, config.Linkage{})
	ctx := context.Background()
	b := f.standardBooking(t)
	inv, err := f.billing.GenerateInvoice(ctx, services.GenerateInvoiceInput{BookingID: b.ID})
	if err != nil {
		t.Fatal(err)
	}

	_, err = f.billing.RecordPayment(ctx, inv.ID, services.PaymentInput{Amount: dec("1298.01"), Method: "cash"})
	wantKind(t, err, domain.KindValidation)
	_, err = f.billing.RecordPayment(ctx, inv.ID, services.PaymentInput{Amount: dec("10"), Method: "cheque"})
	wantKind(t, err, domain.KindValidation)
	_, err = f.billing.RecordPayment(ctx, inv.ID, services.PaymentInput{Amount: dec("-1"), Method: "cash"})
	wantKind(t, err, domain.KindValidation)

	_, err = f.billing.Refund(ctx, inv.ID, "")
	wantKind(t, err, domain.KindValidation)

	if _, err := f.billing.RecordPayment(ctx, inv.ID, services.PaymentInput{Amount: dec("1298"), Method: "card"}); err != nil {
		t.Fatal(err)
	}
	refunded, err := f.billing.Refund(ctx, inv.ID, "paint damage")
	if err != nil {
		t.Fatal(err)
	}
	if refunded.PaymentStatus != domain.PaymentRefunded || !refunded.Outstanding().IsZero() {
		t.Fatalf("unexpected refund result: %+v", refunded)
	}
	_, err = f.billing.RecordPayment(ctx, inv.ID, services.PaymentInput{Amount: dec("1"), Method: "cash"})
	wantKind(t, err, domain.KindValidation)

	st, err := f.billing.Stats(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if st.InvoiceCount != 0 || !st.TotalBilled.IsZero() {
		t.Fatalf("refunded invoices must not count: %+v", st)
	}
}

func TestGenerateInvoiceRules(t *testing.T) {
	f := newFixture(t, config.Linkage{})
	ctx := context.Background()
	b := f.standardBooking(t)

	_, err := f.billing.GenerateInvoice(ctx, services.GenerateInvoiceInput{BookingID: b.ID, Discount: dec("2000")})
	wantKind(t, err, domain.KindValidation)

	inv, err := f.billing.GenerateInvoice(ctx, services.GenerateInvoiceInput{BookingID: b.ID, Discount: dec("98")})
	if err != nil {
		t.Fatal(err)
	}
	if !inv.TotalAmount.Equal(dec("1200")) {
		t.Fatalf("total after discount: want 1200, got %s", inv.TotalAmount)
	}
	_, err = f.billing.GenerateInvoice(ctx, services.GenerateInvoiceInput{BookingID: b.ID})
	wantKind(t, err, domain.KindConflict)

	other := f.standardBooking(t)
	if _, err := f.bookings.Cancel(ctx, other.ID, "", ""); err != nil {
		t.Fatal(err)
	}
	_, err = f.billing.GenerateInvoice(ctx, services.GenerateInvoiceInput{BookingID: other.ID})
	wantKind(t, err, domain.KindValidation)

	_, err = f.billing.GenerateInvoice(ctx, services.GenerateInvoiceInput{BookingID: "missing"})
	wantKind(t, err, domain.KindNotFound)
}

func TestInvoiceNumbersAreSequential(t *testing.T) {
	f := newFixture(t, config.Linkage{})
	ctx := context.Background()

	first, err := f.billing.GenerateInvoice(ctx, services.GenerateInvoiceInput{BookingID: f.standardBooking(t).ID})
	if err != nil {
		t.Fatal(err)
	}
	second, err := f.billing.GenerateInvoice(ctx, services.GenerateInvoiceInput{BookingID: f.standardBooking(t).ID})
	if err != nil {
		t.Fatal(err)
	}
	if first.InvoiceNumber >= second.InvoiceNumber {
		t.Fatalf("numbers not increasing: %s then %s", first.InvoiceNumber, second.InvoiceNumber)
	}

	view, err := f.billing.PrintView(ctx, second.ID)
	if err != nil {
		t.Fatal(err)
	}
	if view.Customer.ID != view.Invoice.CustomerID || len(view.Booking.Items) != 2 {
		t.Fatalf("incomplete print view: %+v", view)
	}
}
