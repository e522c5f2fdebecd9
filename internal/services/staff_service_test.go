package services_test

import (
	"context"
	"testing"

	"detailhub/internal/config"
	"detailhub/internal/domain"
	"detailhub/internal/repos"
	"detailhub/internal/services"
)

func TestStaffPositionDrivesRole(t *testing.T) {
	f := newFixture(t, config.Linkage{})
	ctx := context.Background()
	st := f.technician(t, "Ravi@Studio.test")
	if st.Role != domain.RoleTechnician || st.Email != "ravi@studio.test" {
		t.Fatalf("unexpected staff: %+v", st)
	}

	up, err := f.staff.Update(ctx, st.ID, services.UpdateStaffInput{Name: st.Name, Position: domain.RoleManager})
	if err != nil {
		t.Fatal(err)
	}
	if up.Position != domain.RoleManager || up.Role != domain.RoleManager {
		t.Fatalf("role did not follow position: %+v", up)
	}
	u, err := repos.NewUserRepo(f.db).ByID(ctx, st.UserID)
	if err != nil {
		t.Fatal(err)
	}
	if u.Role != domain.RoleManager {
		t.Fatalf("user role: want manager, got %s", u.Role)
	}
}

func TestStaffCreateRules(t *testing.T) {
	f := newFixture(t, config.Linkage{})
	ctx := context.Background()
	f.technician(t, "dup@studio.test")

	_, err := f.staff.Create(ctx, services.CreateStaffInput{Name: "Dup", Email: "dup@studio.test", Position: domain.RoleTechnician, Password: "Tech!2026x"})
	wantKind(t, err, domain.KindConflict)
	_, err = f.staff.Create(ctx, services.CreateStaffInput{Name: "Weak", Email: "weak@studio.test", Position: domain.RoleTechnician, Password: "password"})
	wantKind(t, err, domain.KindValidation)
	_, err = f.staff.Create(ctx, services.CreateStaffInput{Name: "Odd", Email: "odd@studio.test", Position: "janitor", Password: "Tech!2026x"})
	wantKind(t, err, domain.KindValidation)
}

func TestDeleteStaffUnassignsJobCards(t *testing.T) {
	f := newFixture(t, config.Linkage{})
	ctx := context.Background()
	tech := f.technician(t, "leaving@studio.test")
	j, err := f.jobs.Create(ctx, services.CreateJobCardInput{BookingID: f.standardBooking(t).ID, TechnicianID: tech.ID})
	if err != nil {
		t.Fatal(err)
	}

	err = f.staff.Delete(ctx, tech.ID, tech.UserID)
	wantKind(t, err, domain.KindValidation)

	if err := f.staff.Delete(ctx, tech.ID, "someone-else"); err != nil {
		t.Fatal(err)
	}
	got, err := f.jobs.Get(ctx, j.ID)
	if err != nil {
		t.Fatal(err)
	}
	if got.TechnicianID != nil || got.Status != domain.JobAssigned {
		t.Fatalf("job card should stay open and unassigned: %+v", got)
	}
	_, err = f.staff.Get(ctx, tech.ID)
	wantKind(t, err, domain.KindNotFound)
}
