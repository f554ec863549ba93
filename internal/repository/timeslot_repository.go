package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/einsicht/review-scheduler/internal/allocation"
	"github.com/einsicht/review-scheduler/internal/model"
)

// TimeslotRepo provides CRUD operations for timeslots and the read
// projections built on enrollments.  Occupancy counters are never
// touched here; every mutation of current_occupancy goes through the
// allocation store so the capacity check stays in one place.
type TimeslotRepo struct {
	db *sql.DB
}

// NewTimeslotRepo returns a new TimeslotRepo bound to the given database.
func NewTimeslotRepo(db *sql.DB) *TimeslotRepo { return &TimeslotRepo{db: db} }

const timeslotCols = `id, start_time, duration, max_occupancy, current_occupancy, review_id, created_at, updated_at`

func scanTimeslot(row interface{ Scan(...any) error }) (*model.Timeslot, error) {
	var t model.Timeslot
	err := row.Scan(&t.ID, &t.StartTime, &t.Duration, &t.MaxOccupancy,
		&t.CurrentOccupancy, &t.ReviewID, &t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// CreateForReview inserts one timeslot under a review.  Fails with
// ErrReviewNotFound when the review does not exist (checked up front
// rather than relying on the foreign-key error text).
func (r *TimeslotRepo) CreateForReview(ctx context.Context, reviewID uint64, ts *model.Timeslot) (*model.Timeslot, error) {
	var exists bool
	if err := r.db.QueryRowContext(ctx,
		`SELECT EXISTS(SELECT 1 FROM reviews WHERE id = ?)`, reviewID).Scan(&exists); err != nil {
		return nil, err
	}
	if !exists {
		return nil, ErrReviewNotFound
	}
	const q = `INSERT INTO timeslots (start_time, duration, max_occupancy, current_occupancy, review_id)
	           VALUES (?, ?, ?, 0, ?)`
	res, err := r.db.ExecContext(ctx, q, ts.StartTime.UTC(), ts.Duration, ts.MaxOccupancy, reviewID)
	if err != nil {
		return nil, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, err
	}
	return r.GetByID(ctx, uint64(id))
}

// CreateBulk inserts multiple timeslots for one review in a single
// statement.  New slots always start empty.  Passing an empty slice
// has no effect and returns nil.
func (r *TimeslotRepo) CreateBulk(ctx context.Context, reviewID uint64, slots []model.Timeslot) error {
	if len(slots) == 0 {
		return nil
	}
	query := `INSERT INTO timeslots (start_time, duration, max_occupancy, current_occupancy, review_id) VALUES `
	args := make([]any, 0, len(slots)*4)
	for i, ts := range slots {
		if i > 0 {
			query += ","
		}
		query += "(?, ?, ?, 0, ?)"
		args = append(args, ts.StartTime.UTC(), ts.Duration, ts.MaxOccupancy, reviewID)
	}
	_, err := r.db.ExecContext(ctx, query, args...)
	return err
}

// GetByID fetches a single timeslot.  Returns
// allocation.ErrTimeslotNotFound when no row exists.
func (r *TimeslotRepo) GetByID(ctx context.Context, id uint64) (*model.Timeslot, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+timeslotCols+` FROM timeslots WHERE id = ?`, id)
	ts, err := scanTimeslot(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, allocation.ErrTimeslotNotFound
	}
	return ts, err
}

// GetForReview fetches a timeslot scoped to its review, so a slot id
// from another review reads as not found.
func (r *TimeslotRepo) GetForReview(ctx context.Context, reviewID, timeslotID uint64) (*model.Timeslot, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+timeslotCols+` FROM timeslots WHERE id = ? AND review_id = ?`, timeslotID, reviewID)
	ts, err := scanTimeslot(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, allocation.ErrTimeslotNotFound
	}
	return ts, err
}

// ListForReview returns every timeslot of a review ordered by start
// time ascending, id ascending on ties.
func (r *TimeslotRepo) ListForReview(ctx context.Context, reviewID uint64) ([]model.Timeslot, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+timeslotCols+` FROM timeslots WHERE review_id = ? ORDER BY start_time ASC, id ASC`, reviewID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectTimeslots(rows)
}

// ListForStudent returns every timeslot the student is enrolled in,
// across all reviews, ordered by start time.
func (r *TimeslotRepo) ListForStudent(ctx context.Context, studentID uint64) ([]model.Timeslot, error) {
	const q = `SELECT t.id, t.start_time, t.duration, t.max_occupancy, t.current_occupancy, t.review_id, t.created_at, t.updated_at
	           FROM timeslots t
	           JOIN enrollments e ON e.timeslot_id = t.id
	           WHERE e.student_id = ?
	           ORDER BY t.start_time ASC, t.id ASC`
	rows, err := r.db.QueryContext(ctx, q, studentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectTimeslots(rows)
}

// UpdateForReview overwrites the editable fields of a timeslot.  Max
// occupancy may not be lowered below the current occupancy, otherwise
// the capacity invariant would be violated retroactively; that case
// reports ErrConflict.
func (r *TimeslotRepo) UpdateForReview(ctx context.Context, reviewID, timeslotID uint64, ts *model.Timeslot) (*model.Timeslot, error) {
	cur, err := r.GetForReview(ctx, reviewID, timeslotID)
	if err != nil {
		return nil, err
	}
	if ts.MaxOccupancy < cur.CurrentOccupancy {
		return nil, ErrConflict
	}
	const q = `UPDATE timeslots SET start_time = ?, duration = ?, max_occupancy = ? WHERE id = ? AND review_id = ?`
	if _, err := r.db.ExecContext(ctx, q, ts.StartTime.UTC(), ts.Duration, ts.MaxOccupancy, timeslotID, reviewID); err != nil {
		return nil, err
	}
	return r.GetByID(ctx, timeslotID)
}

// DeleteForReview removes a timeslot; enrollments referencing it go
// with it via the cascading foreign key.
func (r *TimeslotRepo) DeleteForReview(ctx context.Context, reviewID, timeslotID uint64) error {
	res, err := r.db.ExecContext(ctx,
		`DELETE FROM timeslots WHERE id = ? AND review_id = ?`, timeslotID, reviewID)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return allocation.ErrTimeslotNotFound
	}
	return nil
}

// StudentsForTimeslot returns the students enrolled in one timeslot,
// ordered by last then first name.
func (r *TimeslotRepo) StudentsForTimeslot(ctx context.Context, timeslotID uint64) ([]model.Student, error) {
	const q = `SELECT st.id, st.google_id, st.first_name, st.last_name, st.matriculation_number
	           FROM students st
	           JOIN enrollments e ON e.student_id = st.id
	           WHERE e.timeslot_id = ?
	           ORDER BY st.last_name, st.first_name, st.id`
	rows, err := r.db.QueryContext(ctx, q, timeslotID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]model.Student, 0)
	for rows.Next() {
		var s model.Student
		if err := rows.Scan(&s.ID, &s.GoogleID, &s.FirstName, &s.LastName, &s.MatriculationNumber); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

func collectTimeslots(rows *sql.Rows) ([]model.Timeslot, error) {
	out := make([]model.Timeslot, 0)
	for rows.Next() {
		ts, err := scanTimeslot(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *ts)
	}
	return out, rows.Err()
}
