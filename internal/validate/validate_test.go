package validate_test

import (
	"strings"
	"testing"

	"detailhub/internal/domain"
	"detailhub/internal/validate"
)

type sample struct {
	Phone string   `json:"phone" validate:"required,phone"`
	Date  string   `json:"booking_date" validate:"required,date"`
	Time  string   `json:"booking_time" validate:"required,hhmm"`
	IDs   []string `json:"services" validate:"min=1"`
}

func TestStructReportsJSONFieldNames(t *testing.T) {
	err := validate.Struct(sample{Phone: "+91 98765 43210", Date: "2026-02-30", Time: "10:30", IDs: []string{"a"}})
	if !domain.IsValidation(err) {
		t.Fatalf("want validation error, got %v", err)
	}
	if !strings.Contains(domain.Message(err), "booking_date") {
		t.Fatalf("message should name the json field: %q", domain.Message(err))
	}

	err = validate.Struct(sample{Phone: "+91 98765 43210", Date: "2026-03-01", Time: "25:00", IDs: []string{"a"}})
	if err == nil || !strings.Contains(domain.Message(err), "booking_time") {
		t.Fatalf("want booking_time error, got %v", err)
	}

	if err := validate.Struct(sample{Phone: "+91 98765 43210", Date: "2026-03-01", Time: "09:05", IDs: []string{"a"}}); err != nil {
		t.Fatalf("valid sample rejected: %v", err)
	}
}

func TestPassword(t *testing.T) {
	if validate.Password("short") {
		t.Fatal("short password accepted")
	}
	if validate.Password("alllowercase1!") {
		t.Fatal("missing upper accepted")
	}
	if !validate.Password("Passw0rd!") {
		t.Fatal("strong password rejected")
	}
}
