package repos

import (
	"context"

	"github.com/jmoiron/sqlx"

	"detailhub/internal/domain"
)

type JobCardRepo struct{ q sqlx.ExtContext }

func NewJobCardRepo(q sqlx.ExtContext) *JobCardRepo { return &JobCardRepo{q: q} }

func (r *JobCardRepo) WithTx(tx *sqlx.Tx) *JobCardRepo { return &JobCardRepo{q: tx} }

const jobCardCols = `id, booking_id, technician_id, status, notes, started_at, completed_at, delivered_at, created_at, updated_at`

func (r *JobCardRepo) Insert(ctx context.Context, j domain.JobCard) error {
	_, err := r.q.ExecContext(ctx, `
		INSERT INTO job_cards(id,booking_id,technician_id,status,notes,created_at,updated_at)
		VALUES(?,?,?,?,?,?,?)`, j.ID, j.BookingID, j.TechnicianID, j.Status, j.Notes, j.CreatedAt, j.UpdatedAt)
	if isUniqueViolation(err) {
		return domain.Conflict("booking already has a job card")
	}
	return wrap(err, "job card")
}

func (r *JobCardRepo) Get(ctx context.Context, id string, lock bool) (*domain.JobCard, error) {
	q := `SELECT ` + jobCardCols + ` FROM job_cards WHERE id=?`
	if lock {
		q += lockClause(r.q)
	}
	var j domain.JobCard
	if err := sqlx.GetContext(ctx, r.q, &j, q, id); err != nil {
		return nil, wrap(err, "job card")
	}
	return &j, nil
}

func (r *JobCardRepo) ByBooking(ctx context.Context, bookingID string) (*domain.JobCard, error) {
	var j domain.JobCard
	if err := sqlx.GetContext(ctx, r.q, &j, `SELECT `+jobCardCols+` FROM job_cards WHERE booking_id=?`, bookingID); err != nil {
		return nil, wrap(err, "job card")
	}
	return &j, nil
}

func (r *JobCardRepo) List(ctx context.Context, status, technicianID string, limit, offset int) ([]domain.JobCard, error) {
	q := `SELECT ` + jobCardCols + ` FROM job_cards WHERE 1=1`
	var args []any
	if status != "" {
		q += ` AND status = ?`
		args = append(args, status)
	}
	if technicianID != "" {
		q += ` AND technician_id = ?`
		args = append(args, technicianID)
	}
	q += ` ORDER BY created_at DESC LIMIT ? OFFSET ?`
	args = append(args, limit, offset)
	out := []domain.JobCard{}
	err := sqlx.SelectContext(ctx, r.q, &out, q, args...)
	return out, wrap(err, "job cards")
}

func (r *JobCardRepo) Update(ctx context.Context, j domain.JobCard) error {
	_, err := r.q.ExecContext(ctx, `
		UPDATE job_cards SET technician_id=?, status=?, notes=?, started_at=?, completed_at=?, delivered_at=?, updated_at=?
		WHERE id=?`, j.TechnicianID, j.Status, j.Notes, j.StartedAt, j.CompletedAt, j.DeliveredAt, domain.Now(), j.ID)
	return wrap(err, "job card")
}

func (r *JobCardRepo) AddPhoto(ctx context.Context, p domain.Photo) error {
	_, err := r.q.ExecContext(ctx, `
		INSERT INTO job_card_photos(id,job_card_id,type,file_path,thumb_path,created_at) VALUES(?,?,?,?,?,?)`,
		p.ID, p.JobCardID, p.Type, p.FilePath, p.ThumbPath, p.CreatedAt)
	return wrap(err, "photo")
}

func (r *JobCardRepo) Photos(ctx context.Context, jobCardID string) ([]domain.Photo, error) {
	out := []domain.Photo{}
	err := sqlx.SelectContext(ctx, r.q, &out, `
		SELECT id, job_card_id, type, file_path, thumb_path, created_at
		FROM job_card_photos WHERE job_card_id=? ORDER BY created_at, id`, jobCardID)
	return out, wrap(err, "photos")
}

// Workload counts unfinished job cards per active technician.
func (r *JobCardRepo) Workload(ctx context.Context) ([]domain.TechnicianLoad, error) {
	out := []domain.TechnicianLoad{}
	err := sqlx.SelectContext(ctx, r.q, &out, `
		SELECT s.id AS staff_id, s.name,
		       COUNT(j.id) AS active_jobs
		FROM staff s
		LEFT JOIN job_cards j ON j.technician_id = s.id AND j.status IN ('assigned','in_progress','qc_check')
		WHERE s.position = 'technician' AND s.active = ?
		GROUP BY s.id, s.name
		ORDER BY active_jobs, s.name`, true)
	return out, wrap(err, "workload")
}
