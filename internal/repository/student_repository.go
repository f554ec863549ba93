package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/einsicht/review-scheduler/internal/model"
)

// ErrStudentExists is returned when a registration collides with an
// existing google_id or matriculation number.
var ErrStudentExists = errors.New("student already exists")

// StudentRepo mirrors the 'students' table.
type StudentRepo struct{ DB *sql.DB }

func NewStudentRepo(db *sql.DB) *StudentRepo { return &StudentRepo{DB: db} }

// isDuplicateKey detects a MySQL duplicate-entry error (code 1062).
func isDuplicateKey(err error) bool {
	return err != nil && strings.Contains(strings.ToLower(err.Error()), "1062")
}

// Create inserts a student and returns its ID.
func (r *StudentRepo) Create(ctx context.Context, s *model.Student) (uint64, error) {
	res, err := r.DB.ExecContext(ctx,
		"INSERT INTO students (google_id, first_name, last_name, matriculation_number) VALUES (?,?,?,?)",
		s.GoogleID, s.FirstName, s.LastName, s.MatriculationNumber)
	if err != nil {
		if isDuplicateKey(err) {
			return 0, ErrStudentExists
		}
		return 0, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	return uint64(id), nil
}

// GetByID fetches a student by id.
func (r *StudentRepo) GetByID(ctx context.Context, id uint64) (model.Student, error) {
	var s model.Student
	err := r.DB.QueryRowContext(ctx,
		"SELECT id,google_id,first_name,last_name,matriculation_number FROM students WHERE id=? LIMIT 1",
		id).Scan(&s.ID, &s.GoogleID, &s.FirstName, &s.LastName, &s.MatriculationNumber)
	return s, err
}

// GetByGoogleID fetches a student by external auth identifier.
func (r *StudentRepo) GetByGoogleID(ctx context.Context, googleID string) (model.Student, error) {
	var s model.Student
	err := r.DB.QueryRowContext(ctx,
		"SELECT id,google_id,first_name,last_name,matriculation_number FROM students WHERE google_id=? LIMIT 1",
		googleID).Scan(&s.ID, &s.GoogleID, &s.FirstName, &s.LastName, &s.MatriculationNumber)
	return s, err
}

// ListAll returns every student ordered by id.
func (r *StudentRepo) ListAll(ctx context.Context) ([]model.Student, error) {
	rows, err := r.DB.QueryContext(ctx,
		"SELECT id,google_id,first_name,last_name,matriculation_number FROM students ORDER BY id")
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

// UpdateByID overwrites the student's fields.
func (r *StudentRepo) UpdateByID(ctx context.Context, id uint64, s *model.Student) (model.Student, error) {
	_, err := r.DB.ExecContext(ctx,
		"UPDATE students SET google_id=?, first_name=?, last_name=?, matriculation_number=? WHERE id=?",
		s.GoogleID, s.FirstName, s.LastName, s.MatriculationNumber, id)
	if err != nil {
		if isDuplicateKey(err) {
			return model.Student{}, ErrStudentExists
		}
		return model.Student{}, err
	}
	return r.GetByID(ctx, id)
}

// DeleteByID removes a student.  Enrollments referencing the student
// are removed by the cascading foreign key; seats they held are
// released by the caller through the allocation engine beforehand.
func (r *StudentRepo) DeleteByID(ctx context.Context, id uint64) error {
	res, err := r.DB.ExecContext(ctx, "DELETE FROM students WHERE id=?", id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// ReviewsForStudent returns the reviews in which the student holds an
// enrollment, ordered by start time.
func (r *StudentRepo) ReviewsForStudent(ctx context.Context, studentID uint64) ([]model.Review, error) {
	const q = `SELECT DISTINCT rv.id, rv.name, rv.location, rv.start_time, rv.slot_length, rv.slot_count, rv.creator_id, rv.description, rv.created_at, rv.updated_at
	           FROM reviews rv
	           JOIN timeslots t ON t.review_id = rv.id
	           JOIN enrollments e ON e.timeslot_id = t.id
	           WHERE e.student_id = ?
	           ORDER BY rv.start_time ASC, rv.id ASC`
	rows, err := r.DB.QueryContext(ctx, q, studentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectReviews(rows)
}

// TimeslotsHeldByStudent returns the ids of all timeslots the student
// currently occupies.  Used when deleting a student so the caller can
// release each seat through the allocation engine first.
func (r *StudentRepo) TimeslotsHeldByStudent(ctx context.Context, studentID uint64) ([]uint64, error) {
	rows, err := r.DB.QueryContext(ctx,
		"SELECT timeslot_id FROM enrollments WHERE student_id=?", studentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var ids []uint64
	for rows.Next() {
		var id uint64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}
