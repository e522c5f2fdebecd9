package services

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"golang.org/x/crypto/bcrypt"

	"detailhub/internal/domain"
	"detailhub/internal/repos"
	"detailhub/internal/validate"
)

type CreateStaffInput struct {
	Name     string `json:"name" validate:"required,max=191"`
	Email    string `json:"email" validate:"required,email"`
	Phone    string `json:"phone" validate:"omitempty,phone"`
	Position string `json:"position" validate:"required,role"`
	Password string `json:"password" validate:"required"`
}

type UpdateStaffInput struct {
	Name     string `json:"name" validate:"required,max=191"`
	Phone    string `json:"phone" validate:"omitempty,phone"`
	Position string `json:"position" validate:"required,role"`
	Active   *bool  `json:"active"`
}

type StaffService struct {
	DB    *sqlx.DB
	Staff *repos.StaffRepo
	Users *repos.UserRepo
}

func NewStaffService(db *sqlx.DB) *StaffService {
	return &StaffService{DB: db, Staff: repos.NewStaffRepo(db), Users: repos.NewUserRepo(db)}
}

// Create provisions the login account and the staff row together; the
// account role mirrors the position.
func (s *StaffService) Create(ctx context.Context, in CreateStaffInput) (*domain.Staff, error) {
	if err := validate.Struct(in); err != nil {
		return nil, err
	}
	if !validate.Password(in.Password) {
		return nil, domain.Validation("password needs 8+ characters with upper, lower, digit and symbol")
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}
	u := domain.User{ID: uuid.NewString(), Email: strings.ToLower(strings.TrimSpace(in.Email)), Name: in.Name, Hash: string(hash), Role: in.Position}
	st := domain.Staff{ID: uuid.NewString(), UserID: u.ID, Name: in.Name, Phone: in.Phone, Position: in.Position, Active: true}
	err = repos.WithTransaction(ctx, s.DB, repos.DefaultTxOptions(), func(tx *sqlx.Tx) error {
		if err := s.Users.WithTx(tx).Create(ctx, u); err != nil {
			if domain.IsConflict(err) {
				return domain.Conflict("email %s is already registered", u.Email)
			}
			return err
		}
		return s.Staff.WithTx(tx).Create(ctx, st)
	})
	if err != nil {
		return nil, err
	}
	return s.Staff.Get(ctx, st.ID)
}

// Update rewrites the account role whenever the position changes.
func (s *StaffService) Update(ctx context.Context, id string, in UpdateStaffInput) (*domain.Staff, error) {
	if err := validate.Struct(in); err != nil {
		return nil, err
	}
	err := repos.WithTransaction(ctx, s.DB, repos.DefaultTxOptions(), func(tx *sqlx.Tx) error {
		staff := s.Staff.WithTx(tx)
		cur, err := staff.Get(ctx, id)
		if err != nil {
			return err
		}
		cur.Name, cur.Phone, cur.Position = in.Name, in.Phone, in.Position
		if in.Active != nil {
			cur.Active = *in.Active
		}
		if err := staff.Update(ctx, *cur); err != nil {
			return err
		}
		return s.Users.WithTx(tx).UpdateProfile(ctx, cur.UserID, cur.Name, cur.Position)
	})
	if err != nil {
		return nil, err
	}
	return s.Staff.Get(ctx, id)
}

// Delete removes the staff member and their account. Job cards they held
// stay open, unassigned.
func (s *StaffService) Delete(ctx context.Context, id, actorID string) error {
	st, err := s.Staff.Get(ctx, id)
	if err != nil {
		return err
	}
	if st.UserID == actorID {
		return domain.Validation("you cannot delete your own account")
	}
	return s.Users.Delete(ctx, st.UserID)
}

func (s *StaffService) Get(ctx context.Context, id string) (*domain.Staff, error) {
	return s.Staff.Get(ctx, id)
}

func (s *StaffService) List(ctx context.Context, position string) ([]domain.Staff, error) {
	if position != "" && !domain.ValidRole(position) {
		return nil, domain.Validation("unknown position %q", position)
	}
	return s.Staff.List(ctx, position)
}
