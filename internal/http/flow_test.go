package handlers_test

import (
	"bytes"
	"encoding/json"
	"image"
	"image/color"
	"image/jpeg"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/xuri/excelize/v2"

	"detailhub/internal/domain"
	"detailhub/internal/services"
)

// bookStandard creates two services and a booking of 500 x1 + 300 x2.
func bookStandard(t *testing.T, e *testEnv, token string) domain.Booking {
	t.Helper()
	var wash, wax domain.Service
	resp := e.do(t, http.MethodPost, "/api/services", token, map[string]any{"name": "Foam Wash", "category": "exterior", "base_price": 500})
	expectStatus(t, resp, http.StatusCreated)
	decode(t, resp, &wash)
	resp = e.do(t, http.MethodPost, "/api/services", token, map[string]any{"name": "Wax Polish", "category": "exterior", "base_price": "300"})
	expectStatus(t, resp, http.StatusCreated)
	decode(t, resp, &wax)

	var cust domain.Customer
	resp = e.do(t, http.MethodPost, "/api/customers", token, map[string]string{"name": "Asha Rao", "phone": "+91 98450 12345"})
	expectStatus(t, resp, http.StatusCreated)
	decode(t, resp, &cust)

	var b domain.Booking
	resp = e.do(t, http.MethodPost, "/api/bookings", token, map[string]any{
		"customer_id":  cust.ID,
		"vehicle":      map[string]any{"brand": "Honda", "model": "City", "registration_number": "KA01AB1234"},
		"booking_date": "2026-03-14",
		"booking_time": "10:30",
		"services": []map[string]any{
			{"service_id": wash.ID, "quantity": 1},
			{"service_id": wax.ID, "quantity": 2},
		},
	})
	expectStatus(t, resp, http.StatusCreated)
	decode(t, resp, &b)
	return b
}

func TestAmountsAreJSONNumbers(t *testing.T) {
	e := newEnv(t)
	admin := e.login(t, adminEmail, adminPass)
	b := bookStandard(t, e, admin)

	resp := e.do(t, http.MethodGet, "/api/bookings/"+b.ID, admin, nil)
	expectStatus(t, resp, http.StatusOK)
	var raw map[string]json.RawMessage
	decode(t, resp, &raw)
	got := string(raw["total_amount"])
	if got == "" || strings.HasPrefix(got, `"`) || !dec(got).Equal(dec("1100")) {
		t.Fatalf("total_amount: want bare number 1100, got %s", got)
	}
}

func TestBookingToPaidInvoice(t *testing.T) {
	e := newEnv(t)
	admin := e.login(t, adminEmail, adminPass)
	b := bookStandard(t, e, admin)
	if !b.TotalAmount.Equal(dec("1100")) || b.Status != domain.BookingConfirmed {
		t.Fatalf("unexpected booking: %+v", b)
	}

	var inv domain.Invoice
	resp := e.do(t, http.MethodPost, "/api/billing/generate-invoice", admin, map[string]string{"booking_id": b.ID})
	expectStatus(t, resp, http.StatusCreated)
	decode(t, resp, &inv)
	if !inv.TotalAmount.Equal(dec("1298")) {
		t.Fatalf("invoice total: want 1298, got %s", inv.TotalAmount)
	}
	expectStatus(t, e.do(t, http.MethodPost, "/api/billing", admin, map[string]string{"booking_id": b.ID}), http.StatusConflict)

	resp = e.do(t, http.MethodPut, "/api/billing/"+inv.ID+"/payment", admin, map[string]any{"amount": 650, "payment_method": "cash"})
	expectStatus(t, resp, http.StatusOK)
	decode(t, resp, &inv)
	if inv.PaymentStatus != domain.PaymentPartial {
		t.Fatalf("want partial, got %s", inv.PaymentStatus)
	}

	var outstanding []services.OutstandingInvoice
	resp = e.do(t, http.MethodGet, "/api/billing/outstanding/list", admin, nil)
	expectStatus(t, resp, http.StatusOK)
	decode(t, resp, &outstanding)
	if len(outstanding) != 1 || !outstanding[0].OutstandingAmount.Equal(dec("648")) {
		t.Fatalf("unexpected outstanding: %+v", outstanding)
	}

	resp = e.do(t, http.MethodPut, "/api/billing/"+inv.ID+"/payment", admin, map[string]any{"amount": "1298", "payment_method": "upi"})
	expectStatus(t, resp, http.StatusOK)
	decode(t, resp, &inv)
	if inv.PaymentStatus != domain.PaymentPaid {
		t.Fatalf("want paid, got %s", inv.PaymentStatus)
	}

	resp = e.do(t, http.MethodGet, "/api/billing/"+inv.ID+"/print", admin, nil)
	expectStatus(t, resp, http.StatusOK)
	var page bytes.Buffer
	page.ReadFrom(resp.Body)
	if !strings.Contains(page.String(), inv.InvoiceNumber) || !strings.Contains(page.String(), "Wax Polish") {
		t.Fatal("printable invoice is missing the number or line items")
	}
}

func TestBookingStatusEndpoints(t *testing.T) {
	e := newEnv(t)
	admin := e.login(t, adminEmail, adminPass)
	b := bookStandard(t, e, admin)

	resp := e.do(t, http.MethodPut, "/api/bookings/"+b.ID+"/status", admin, map[string]string{"status": "completed"})
	expectStatus(t, resp, http.StatusBadRequest)

	expectStatus(t, e.do(t, http.MethodPut, "/api/bookings/"+b.ID+"/cancel", admin, nil), http.StatusOK)
	resp = e.do(t, http.MethodPut, "/api/bookings/"+b.ID+"/cancel", admin, map[string]string{"reason": "duplicate"})
	expectStatus(t, resp, http.StatusOK)
	var got domain.Booking
	decode(t, resp, &got)
	if got.Status != domain.BookingCancelled {
		t.Fatalf("want cancelled, got %s", got.Status)
	}
	expectStatus(t, e.do(t, http.MethodGet, "/api/bookings/missing", admin, nil), http.StatusNotFound)
}

func photoRequest(t *testing.T, path, token, kind string, withFile bool) *http.Request {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	if kind != "" {
		mw.WriteField("type", kind)
	}
	if withFile {
		img := image.NewRGBA(image.Rect(0, 0, 64, 48))
		for x := 0; x < 64; x++ {
			img.Set(x, x%48, color.RGBA{R: 255, A: 255})
		}
		fw, err := mw.CreateFormFile("photo", "before.jpg")
		if err != nil {
			t.Fatal(err)
		}
		if err := jpeg.Encode(fw, img, nil); err != nil {
			t.Fatal(err)
		}
	}
	mw.Close()
	req := httptest.NewRequest(http.MethodPost, path, &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+token)
	return req
}

func TestJobCardPhotoUpload(t *testing.T) {
	e := newEnv(t)
	admin := e.login(t, adminEmail, adminPass)
	b := bookStandard(t, e, admin)

	var j domain.JobCard
	resp := e.do(t, http.MethodPost, "/api/job-cards", admin, map[string]string{"booking_id": b.ID})
	expectStatus(t, resp, http.StatusCreated)
	decode(t, resp, &j)

	path := "/api/job-cards/" + j.ID + "/photos"
	resp = e.send(t, photoRequest(t, path, admin, "before", false))
	expectStatus(t, resp, http.StatusBadRequest)
	if msg := errorOf(t, resp); msg != "photo file is required" {
		t.Fatalf("unexpected message %q", msg)
	}
	expectStatus(t, e.send(t, photoRequest(t, path, admin, "sideways", true)), http.StatusBadRequest)

	var p domain.Photo
	resp = e.send(t, photoRequest(t, path, admin, "before", true))
	expectStatus(t, resp, http.StatusCreated)
	decode(t, resp, &p)

	expectStatus(t, e.do(t, http.MethodGet, "/media/"+p.ThumbPath, "", nil), http.StatusOK)
}

func TestInventoryOverHTTP(t *testing.T) {
	e := newEnv(t)
	admin := e.login(t, adminEmail, adminPass)
	tech := e.staffToken(t, admin, "bay1@studio.test", domain.RoleTechnician)

	var it domain.InventoryItem
	resp := e.do(t, http.MethodPost, "/api/inventory", admin, map[string]any{
		"name": "Foam Shampoo", "category": "chemicals", "unit": "L", "min_stock_level": 5, "cost_per_unit": 250,
	})
	expectStatus(t, resp, http.StatusCreated)
	decode(t, resp, &it)

	expectStatus(t, e.do(t, http.MethodPost, "/api/inventory/"+it.ID+"/add-stock", admin, map[string]any{"quantity": 10}), http.StatusOK)
	resp = e.do(t, http.MethodPost, "/api/inventory/"+it.ID+"/remove-stock", tech, map[string]any{"quantity": 7})
	expectStatus(t, resp, http.StatusOK)
	decode(t, resp, &it)
	if !it.CurrentStock.Equal(dec("3")) {
		t.Fatalf("stock: want 3, got %s", it.CurrentStock)
	}
	resp = e.do(t, http.MethodPost, "/api/inventory/"+it.ID+"/remove-stock", tech, map[string]any{"quantity": 5})
	expectStatus(t, resp, http.StatusBadRequest)

	var low []domain.InventoryItem
	resp = e.do(t, http.MethodGet, "/api/inventory/alerts/low-stock", tech, nil)
	expectStatus(t, resp, http.StatusOK)
	decode(t, resp, &low)
	if len(low) != 1 || low[0].ID != it.ID {
		t.Fatalf("unexpected low stock: %+v", low)
	}

	resp = e.do(t, http.MethodGet, "/api/inventory/export", admin, nil)
	expectStatus(t, resp, http.StatusOK)
	if ct := resp.Header.Get("Content-Type"); !strings.Contains(ct, "spreadsheetml") {
		t.Fatalf("unexpected content type %q", ct)
	}
	f, err := excelize.OpenReader(resp.Body)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	if name, _ := f.GetCellValue("Inventory", "A2"); name != "Foam Shampoo" {
		t.Fatalf("export first row: got %q", name)
	}
}

func TestMutationsAreAudited(t *testing.T) {
	e := newEnv(t)
	admin := e.login(t, adminEmail, adminPass)

	entries := captureLogs(t, func() {
		bookStandard(t, e, admin)
	})
	ent := findLog(entries, "audit", "booking.create")
	if ent == nil {
		t.Fatalf("no booking.create audit entry in %+v", entries)
	}
	if ent.Role != domain.RoleAdmin || ent.Fields["booking_id"] == nil {
		t.Fatalf("audit entry incomplete: %+v", ent)
	}
}
