package store

import (
	"database/sql"
	"time"
)

// RepRecord is the persisted record of one completed repetition.
type RepRecord struct {
	ID        int64     `json:"id"`
	SessionID string    `json:"session_id"`
	Exercise  string    `json:"exercise"`
	RepNumber int       `json:"rep_number"`
	Phase     string    `json:"phase"`
	Angle     float64   `json:"angle"`
	RPM       float64   `json:"rpm"`
	Feedback  string    `json:"feedback"`
	CreatedAt time.Time `json:"created_at"`
}

// RepRepository provides access to completed reps.
type RepRepository struct {
	db *sql.DB
}

// Reps returns the rep repository for this store.
func (s *Store) Reps() *RepRepository {
	return &RepRepository{db: s.db}
}

// Create inserts a rep and sets its ID. A zero CreatedAt is set to now.
func (r *RepRepository) Create(rep *RepRecord) error {
	if rep.CreatedAt.IsZero() {
		rep.CreatedAt = time.Now().UTC()
	}

	result, err := r.db.Exec(
		`INSERT INTO reps (session_id, exercise, rep_number, phase, angle, rpm, feedback, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		rep.SessionID, rep.Exercise, rep.RepNumber, rep.Phase, rep.Angle, rep.RPM, rep.Feedback, rep.CreatedAt,
	)
	if err != nil {
		return err
	}

	id, err := result.LastInsertId()
	if err != nil {
		return err
	}
	rep.ID = id
	return nil
}

// ListBySession returns the reps of a session in completion order.
func (r *RepRepository) ListBySession(sessionID string) ([]*RepRecord, error) {
	rows, err := r.db.Query(
		`SELECT id, session_id, exercise, rep_number, phase, angle, rpm, feedback, created_at
		 FROM reps WHERE session_id = ? ORDER BY rep_number`,
		sessionID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	reps := []*RepRecord{}
	for rows.Next() {
		rep := &RepRecord{}
		err := rows.Scan(&rep.ID, &rep.SessionID, &rep.Exercise, &rep.RepNumber, &rep.Phase,
			&rep.Angle, &rep.RPM, &rep.Feedback, &rep.CreatedAt)
		if err != nil {
			return nil, err
		}
		reps = append(reps, rep)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return reps, nil
}

// CountBySession returns how many reps a session has.
func (r *RepRepository) CountBySession(sessionID string) (int, error) {
	var n int
	err := r.db.QueryRow(`SELECT COUNT(*) FROM reps WHERE session_id = ?`, sessionID).Scan(&n)
	return n, err
}
