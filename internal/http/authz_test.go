package handlers_test

import (
	"net/http"
	"testing"

	"detailhub/internal/domain"
)

func TestRoleGating(t *testing.T) {
	e := newEnv(t)
	admin := e.login(t, adminEmail, adminPass)
	tech := e.staffToken(t, admin, "tech@studio.test", domain.RoleTechnician)
	desk := e.staffToken(t, admin, "desk@studio.test", domain.RoleCustomerService)

	cases := []struct {
		name   string
		token  string
		method string
		path   string
		body   any
		want   int
	}{
		{"technician cannot list invoices", tech, http.MethodGet, "/api/billing", nil, http.StatusForbidden},
		{"technician cannot list customers", tech, http.MethodGet, "/api/customers", nil, http.StatusForbidden},
		{"technician cannot add stock", tech, http.MethodPost, "/api/inventory/x/add-stock", `{"quantity":1}`, http.StatusForbidden},
		{"desk cannot open job cards", desk, http.MethodPost, "/api/job-cards", `{"booking_id":"x"}`, http.StatusForbidden},
		{"desk cannot delete customers", desk, http.MethodDelete, "/api/customers/x", nil, http.StatusForbidden},
		{"desk cannot list staff", desk, http.MethodGet, "/api/staff", nil, http.StatusForbidden},
		{"desk can list invoices", desk, http.MethodGet, "/api/billing", nil, http.StatusOK},
		{"technician can read inventory", tech, http.MethodGet, "/api/inventory", nil, http.StatusOK},
		{"technician can read bookings", tech, http.MethodGet, "/api/bookings", nil, http.StatusOK},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			resp := e.do(t, tc.method, tc.path, tc.token, tc.body)
			expectStatus(t, resp, tc.want)
		})
	}
}

func TestRoleChangeAppliesToExistingToken(t *testing.T) {
	e := newEnv(t)
	admin := e.login(t, adminEmail, adminPass)
	tech := e.staffToken(t, admin, "promo@studio.test", domain.RoleTechnician)

	expectStatus(t, e.do(t, http.MethodGet, "/api/job-cards/workload", tech, nil), http.StatusForbidden)

	staff, err := e.deps.Staff.List(t.Context(), domain.RoleTechnician)
	if err != nil || len(staff) != 1 {
		t.Fatalf("list staff: %v %+v", err, staff)
	}
	resp := e.do(t, http.MethodPut, "/api/staff/"+staff[0].ID, admin, map[string]any{
		"name": staff[0].Name, "position": domain.RoleManager,
	})
	expectStatus(t, resp, http.StatusOK)

	expectStatus(t, e.do(t, http.MethodGet, "/api/job-cards/workload", tech, nil), http.StatusOK)
}

func TestDeniedAccessIsLogged(t *testing.T) {
	e := newEnv(t)
	admin := e.login(t, adminEmail, adminPass)
	tech := e.staffToken(t, admin, "nosy@studio.test", domain.RoleTechnician)

	entries := captureLogs(t, func() {
		e.do(t, http.MethodGet, "/api/billing", tech, nil)
	})
	ent := findLog(entries, "warn", "access.denied")
	if ent == nil {
		t.Fatalf("expected access.denied entry, got %+v", entries)
	}
	if ent.Role != domain.RoleTechnician || ent.UserID == "" {
		t.Fatalf("denied entry missing principal: %+v", ent)
	}
}
