package db

import (
	"database/sql"
	"errors"
	"fmt"
)

// ErrSessionNotFound is returned when a session id has no row.
var ErrSessionNotFound = errors.New("session not found")

// Session is the stored summary of one replayed session.
type Session struct {
	SessionID       string
	ExerciseType    string
	SkillLevel      string
	SmoothingMethod string
	WindowSize      int
	Source          string
	TotalFrames     int
	PoseFrames      int
	RepCount        int // all reps of the session, matching its rep_events rows
	StartS          *float64
	EndS            *float64
	CreatedUnix     int64
	Notes           string
}

// RepEvent is one completed repetition.
type RepEvent struct {
	EventID     int64
	SessionID   string
	RepNumber   int
	CompletedS  float64
	MinAngleDeg *float64 // deepest tracked angle of the rep, if seen
}

// CreateSession inserts a new session row. CreatedUnix defaults to now.
func (db *DB) CreateSession(s *Session) error {
	if s.CreatedUnix == 0 {
		s.CreatedUnix = db.clock.Now().Unix()
	}
	_, err := db.Exec(`
		INSERT INTO sessions (
			session_id, exercise_type, skill_level, smoothing_method, window_size,
			source, total_frames, pose_frames, rep_count, start_s, end_s,
			created_unix, notes
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		s.SessionID, s.ExerciseType, s.SkillLevel, s.SmoothingMethod, s.WindowSize,
		s.Source, s.TotalFrames, s.PoseFrames, s.RepCount, s.StartS, s.EndS,
		s.CreatedUnix, s.Notes,
	)
	if err != nil {
		return fmt.Errorf("failed to create session: %w", err)
	}
	return nil
}

// UpdateSessionTotals stores the final frame and rep counters of a session.
func (db *DB) UpdateSessionTotals(sessionID string, totalFrames, poseFrames, repCount int, startS, endS *float64) error {
	res, err := db.Exec(`
		UPDATE sessions
		SET total_frames = ?, pose_frames = ?, rep_count = ?, start_s = ?, end_s = ?
		WHERE session_id = ?`,
		totalFrames, poseFrames, repCount, startS, endS, sessionID,
	)
	if err != nil {
		return fmt.Errorf("failed to update session: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check rows affected: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("%w: %s", ErrSessionNotFound, sessionID)
	}
	return nil
}

// GetSession loads one session by id.
func (db *DB) GetSession(sessionID string) (*Session, error) {
	row := db.QueryRow(`
		SELECT session_id, exercise_type, skill_level, smoothing_method, window_size,
			source, total_frames, pose_frames, rep_count, start_s, end_s,
			created_unix, notes
		FROM sessions WHERE session_id = ?`, sessionID)

	s, err := scanSession(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrSessionNotFound, sessionID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get session: %w", err)
	}
	return s, nil
}

// ListSessions returns sessions newest first, at most limit rows
// (limit <= 0 means all).
func (db *DB) ListSessions(limit int) ([]Session, error) {
	query := `
		SELECT session_id, exercise_type, skill_level, smoothing_method, window_size,
			source, total_frames, pose_frames, rep_count, start_s, end_s,
			created_unix, notes
		FROM sessions ORDER BY created_unix DESC, session_id`
	args := []interface{}{}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list sessions: %w", err)
	}
	defer rows.Close()

	var out []Session
	for rows.Next() {
		s, err := scanSession(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan session: %w", err)
		}
		out = append(out, *s)
	}
	return out, rows.Err()
}

// DeleteSession removes a session and, through the foreign key, its rep events.
func (db *DB) DeleteSession(sessionID string) error {
	res, err := db.Exec(`DELETE FROM sessions WHERE session_id = ?`, sessionID)
	if err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("%w: %s", ErrSessionNotFound, sessionID)
	}
	return nil
}

// InsertRepEvent records a completed rep and fills in EventID.
func (db *DB) InsertRepEvent(e *RepEvent) error {
	res, err := db.Exec(`
		INSERT INTO rep_events (session_id, rep_number, completed_s, min_angle_deg)
		VALUES (?, ?, ?, ?)`,
		e.SessionID, e.RepNumber, e.CompletedS, e.MinAngleDeg,
	)
	if err != nil {
		return fmt.Errorf("failed to insert rep event: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to read rep event id: %w", err)
	}
	e.EventID = id
	return nil
}

// ListRepEvents returns the rep events of a session in rep order.
func (db *DB) ListRepEvents(sessionID string) ([]RepEvent, error) {
	rows, err := db.Query(`
		SELECT event_id, session_id, rep_number, completed_s, min_angle_deg
		FROM rep_events WHERE session_id = ? ORDER BY rep_number`, sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to list rep events: %w", err)
	}
	defer rows.Close()

	var out []RepEvent
	for rows.Next() {
		var e RepEvent
		var minAngle sql.NullFloat64
		if err := rows.Scan(&e.EventID, &e.SessionID, &e.RepNumber, &e.CompletedS, &minAngle); err != nil {
			return nil, fmt.Errorf("failed to scan rep event: %w", err)
		}
		if minAngle.Valid {
			v := minAngle.Float64
			e.MinAngleDeg = &v
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanSession(r rowScanner) (*Session, error) {
	var s Session
	var startS, endS sql.NullFloat64
	if err := r.Scan(
		&s.SessionID, &s.ExerciseType, &s.SkillLevel, &s.SmoothingMethod, &s.WindowSize,
		&s.Source, &s.TotalFrames, &s.PoseFrames, &s.RepCount, &startS, &endS,
		&s.CreatedUnix, &s.Notes,
	); err != nil {
		return nil, err
	}
	if startS.Valid {
		v := startS.Float64
		s.StartS = &v
	}
	if endS.Valid {
		v := endS.Float64
		s.EndS = &v
	}
	return &s, nil
}
