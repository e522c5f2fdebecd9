package services

import (
	"context"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"

	"github.com/disintegration/imaging"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"

	"detailhub/internal/domain"
	"detailhub/internal/events"
	"detailhub/internal/repos"
	"detailhub/internal/validate"
)

const thumbSize = 320

type CreateJobCardInput struct {
	BookingID    string `json:"booking_id" validate:"required"`
	TechnicianID string `json:"technician_id"`
	Notes        string `json:"notes" validate:"max=2000"`
}

type ConsumeInput struct {
	ItemID   string          `json:"item_id" validate:"required"`
	Quantity decimal.Decimal `json:"quantity"`
	Notes    string          `json:"notes" validate:"max=1000"`
}

type JobCardService struct {
	DB        *sqlx.DB
	JobCards  *repos.JobCardRepo
	Bookings  *repos.BookingRepo
	Staff     *repos.StaffRepo
	Inventory *InventoryService
	MediaDir  string
	Events    *events.Bus
}

func NewJobCardService(db *sqlx.DB, inv *InventoryService, mediaDir string, bus *events.Bus) *JobCardService {
	return &JobCardService{
		DB:        db,
		JobCards:  repos.NewJobCardRepo(db),
		Bookings:  repos.NewBookingRepo(db),
		Staff:     repos.NewStaffRepo(db),
		Inventory: inv,
		MediaDir:  mediaDir,
		Events:    bus,
	}
}

// Create opens the work order for a booking. A booking has at most one.
func (s *JobCardService) Create(ctx context.Context, in CreateJobCardInput) (*domain.JobCard, error) {
	if err := validate.Struct(in); err != nil {
		return nil, err
	}
	now := domain.Now()
	j := domain.JobCard{
		ID: uuid.NewString(), BookingID: in.BookingID, Status: domain.JobAssigned,
		Notes: in.Notes, CreatedAt: now, UpdatedAt: now,
	}
	err := repos.WithTransaction(ctx, s.DB, repos.DefaultTxOptions(), func(tx *sqlx.Tx) error {
		b, err := s.Bookings.WithTx(tx).Get(ctx, in.BookingID, true)
		if err != nil {
			return err
		}
		if b.Status == domain.BookingCancelled {
			return domain.Validation("cannot open a job card for a cancelled booking")
		}
		if in.TechnicianID != "" {
			if err := activeStaff(ctx, s.Staff.WithTx(tx), in.TechnicianID); err != nil {
				return err
			}
			j.TechnicianID = &in.TechnicianID
		}
		jobs := s.JobCards.WithTx(tx)
		if _, err := jobs.ByBooking(ctx, in.BookingID); err == nil {
			return domain.Conflict("booking already has a job card")
		} else if !domain.IsNotFound(err) {
			return err
		}
		return jobs.Insert(ctx, j)
	})
	if err != nil {
		return nil, err
	}
	return s.Get(ctx, j.ID)
}

// AssignTechnician replaces any current assignment.
func (s *JobCardService) AssignTechnician(ctx context.Context, id, staffID string) (*domain.JobCard, error) {
	if staffID == "" {
		return nil, domain.Validation("technician_id is required")
	}
	err := repos.WithTransaction(ctx, s.DB, repos.DefaultTxOptions(), func(tx *sqlx.Tx) error {
		jobs := s.JobCards.WithTx(tx)
		j, err := jobs.Get(ctx, id, true)
		if err != nil {
			return err
		}
		if err := activeStaff(ctx, s.Staff.WithTx(tx), staffID); err != nil {
			return err
		}
		j.TechnicianID = &staffID
		return jobs.Update(ctx, *j)
	})
	if err != nil {
		return nil, err
	}
	return s.Get(ctx, id)
}

// UpdateStatus advances the card one step along
// assigned, in_progress, qc_check, completed, delivered.
func (s *JobCardService) UpdateStatus(ctx context.Context, id, status, note, actorID string) (*domain.JobCard, error) {
	if !domain.ValidJobCardStatus(status) {
		return nil, domain.Validation("unknown job card status %q", status)
	}
	var bookingID string
	changed := false
	err := repos.WithTransaction(ctx, s.DB, repos.DefaultTxOptions(), func(tx *sqlx.Tx) error {
		jobs := s.JobCards.WithTx(tx)
		j, err := jobs.Get(ctx, id, true)
		if err != nil {
			return err
		}
		bookingID = j.BookingID
		if j.Status == status {
			return nil
		}
		if !domain.CanTransitionJobCard(j.Status, status) {
			return domain.Validation("cannot move job card from %s to %s", j.Status, status)
		}
		now := domain.Now()
		switch status {
		case domain.JobInProgress:
			j.StartedAt = &now
		case domain.JobCompleted:
			j.CompletedAt = &now
		case domain.JobDelivered:
			j.DeliveredAt = &now
		}
		j.Status = status
		j.Notes = appendNote(j.Notes, note)
		changed = true
		return jobs.Update(ctx, *j)
	})
	if err != nil {
		return nil, err
	}
	if changed && status == domain.JobDelivered {
		s.Events.Publish(ctx, events.Event{Name: events.JobCardDelivered, JobCardID: id, BookingID: bookingID, ActorID: actorID})
	}
	return s.Get(ctx, id)
}

// AttachPhoto stores the image and a thumbnail under the media dir, then
// records it. Files left behind by a failed insert are tolerated.
func (s *JobCardService) AttachPhoto(ctx context.Context, id, photoType string, r io.Reader) (*domain.Photo, error) {
	if !domain.ValidPhotoType(photoType) {
		return nil, domain.Validation("type must be one of: before, during, after")
	}
	if r == nil {
		return nil, domain.Validation("photo file is required")
	}
	if _, err := s.JobCards.Get(ctx, id, false); err != nil {
		return nil, err
	}
	img, err := imaging.Decode(r, imaging.AutoOrientation(true))
	if err != nil {
		return nil, domain.Validation("photo must be a JPEG, PNG, GIF, BMP or TIFF image")
	}

	p := domain.Photo{ID: uuid.NewString(), JobCardID: id, Type: photoType, CreatedAt: domain.Now()}
	rel := path.Join("jobcards", id)
	p.FilePath = path.Join(rel, p.ID+".jpg")
	p.ThumbPath = path.Join(rel, p.ID+"_thumb.jpg")

	dir := filepath.Join(s.MediaDir, filepath.FromSlash(rel))
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("photo dir: %w", err)
	}
	if err := imaging.Save(img, filepath.Join(s.MediaDir, filepath.FromSlash(p.FilePath)), imaging.JPEGQuality(90)); err != nil {
		return nil, fmt.Errorf("save photo: %w", err)
	}
	thumb := imaging.Fit(img, thumbSize, thumbSize, imaging.Lanczos)
	if err := imaging.Save(thumb, filepath.Join(s.MediaDir, filepath.FromSlash(p.ThumbPath)), imaging.JPEGQuality(80)); err != nil {
		return nil, fmt.Errorf("save thumbnail: %w", err)
	}

	if err := s.JobCards.AddPhoto(ctx, p); err != nil {
		return nil, err
	}
	return &p, nil
}

// ConsumeStock books material used on the job against inventory.
func (s *JobCardService) ConsumeStock(ctx context.Context, id string, in ConsumeInput, actorID string) (*domain.InventoryItem, error) {
	if err := validate.Struct(in); err != nil {
		return nil, err
	}
	if _, err := s.JobCards.Get(ctx, id, false); err != nil {
		return nil, err
	}
	return s.Inventory.RemoveStock(ctx, in.ItemID, StockInput{
		Quantity: in.Quantity, ReferenceType: domain.RefUsage, ReferenceID: id, Notes: in.Notes,
	}, actorID)
}

func (s *JobCardService) Get(ctx context.Context, id string) (*domain.JobCard, error) {
	j, err := s.JobCards.Get(ctx, id, false)
	if err != nil {
		return nil, err
	}
	photos, err := s.JobCards.Photos(ctx, id)
	if err != nil {
		return nil, err
	}
	j.Photos = photos
	return j, nil
}

func (s *JobCardService) List(ctx context.Context, status, technicianID string, limit, offset int) ([]domain.JobCard, error) {
	if status != "" && !domain.ValidJobCardStatus(status) {
		return nil, domain.Validation("unknown job card status %q", status)
	}
	limit, offset = page(limit, offset)
	return s.JobCards.List(ctx, status, technicianID, limit, offset)
}

func (s *JobCardService) Workload(ctx context.Context) ([]domain.TechnicianLoad, error) {
	return s.JobCards.Workload(ctx)
}

func activeStaff(ctx context.Context, staff *repos.StaffRepo, id string) error {
	st, err := staff.Get(ctx, id)
	if err != nil {
		return err
	}
	if !st.Active {
		return domain.Validation("staff member %s is inactive", st.Name)
	}
	return nil
}
