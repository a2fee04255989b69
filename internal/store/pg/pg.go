// Package pg es el backend Postgres del store (pgx/v5). El registro de cada
// sesión se guarda como JSONB con la fecha de nacimiento y el SSN sellados
// cuando hay clave configurada.
package pg

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/manasv777/investiq-hacknc/internal/onboarding"
	"github.com/manasv777/investiq-hacknc/internal/security/secretbox"
	"github.com/manasv777/investiq-hacknc/internal/store"
	migrations "github.com/manasv777/investiq-hacknc/migrations/postgres"
)

func init() { store.RegisterAdapter(adapter{}) }

type adapter struct{}

func (adapter) Name() string { return "postgres" }

func (adapter) Connect(ctx context.Context, cfg store.Config) (store.Repository, error) {
	pcfg, err := pgxpool.ParseConfig(cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("pg: parse dsn: %w", err)
	}
	if cfg.MaxConns > 0 {
		pcfg.MaxConns = int32(cfg.MaxConns)
	}
	if pcfg.MaxConns == 0 {
		pcfg.MaxConns = 5
	}

	pool, err := pgxpool.NewWithConfig(ctx, pcfg)
	if err != nil {
		return nil, fmt.Errorf("pg: open pool: %w", err)
	}
	pctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := pool.Ping(pctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("pg: ping: %w", err)
	}
	if _, err := Migrate(ctx, pool, migrations.FS, migrations.Dir); err != nil {
		pool.Close()
		return nil, err
	}

	var box *secretbox.Box
	if cfg.SecretKey != "" {
		if box, err = secretbox.New(cfg.SecretKey); err != nil {
			pool.Close()
			return nil, err
		}
	}
	s := &Store{pool: pool, box: box}
	if cfg.Seed {
		if err := s.seed(ctx, time.Now()); err != nil {
			pool.Close()
			return nil, err
		}
	}
	return s, nil
}

type Store struct {
	pool *pgxpool.Pool
	box  *secretbox.Box
}

// Pool expone el pool para métricas.
func (s *Store) Pool() *pgxpool.Pool { return s.pool }

func (s *Store) Ping(ctx context.Context) error { return s.pool.Ping(ctx) }

// Close cierra el pool (idempotente).
func (s *Store) Close() error {
	if s != nil && s.pool != nil {
		s.pool.Close()
	}
	return nil
}

func (s *Store) AppendStepLog(ctx context.Context, l store.StepLog) error {
	const q = `
		INSERT INTO onboarding_step_logs (session_id, user_id, step, user_input, ai_output, completed, created_at)
		VALUES ($1, NULLIF($2, ''), $3, $4, $5, $6, $7)`
	_, err := s.pool.Exec(ctx, q, l.SessionID, l.UserID, string(l.Step), l.UserInput, l.AIOutput, l.Completed, l.Timestamp)
	return err
}

func (s *Store) AppendAuditLog(ctx context.Context, l store.AuditLog) error {
	const q = `
		INSERT INTO audit_logs (event_id, session_id, event_type, details, created_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (event_id) DO NOTHING`
	_, err := s.pool.Exec(ctx, q, l.EventID, l.SessionID, l.EventType, l.Details, l.Timestamp)
	return err
}

func (s *Store) AppendFAQLog(ctx context.Context, l store.FAQLog) error {
	const q = `
		INSERT INTO faq_logs (session_id, user_query, ai_reply, category, created_at)
		VALUES ($1, $2, $3, $4, $5)`
	_, err := s.pool.Exec(ctx, q, l.SessionID, l.UserQuery, l.AIReply, l.Category, l.Timestamp)
	return err
}

func (s *Store) UpsertSession(ctx context.Context, rec onboarding.Record) error {
	doc, err := s.seal(rec)
	if err != nil {
		return err
	}
	const q = `
		INSERT INTO onboarding_sessions
			(session_id, user_id, current_step, application_status, started_at, completed_at, record, updated_at)
		VALUES ($1, NULLIF($2, ''), $3, $4, $5, $6, $7, NOW())
		ON CONFLICT (session_id) DO UPDATE SET
			user_id = EXCLUDED.user_id,
			current_step = EXCLUDED.current_step,
			application_status = EXCLUDED.application_status,
			completed_at = EXCLUDED.completed_at,
			record = EXCLUDED.record,
			updated_at = NOW()`
	status := rec.ApplicationStatus
	if status == "" {
		status = onboarding.ApplicationDraft
	}
	_, err = s.pool.Exec(ctx, q, rec.SessionID, rec.UserID, string(rec.CurrentStep), string(status),
		rec.StartedAt, rec.CompletedAt, doc)
	return err
}

func (s *Store) GetSession(ctx context.Context, sessionID string) (onboarding.Record, error) {
	var doc []byte
	err := s.pool.QueryRow(ctx, `SELECT record FROM onboarding_sessions WHERE session_id = $1`, sessionID).Scan(&doc)
	if errors.Is(err, pgx.ErrNoRows) {
		return onboarding.Record{}, store.ErrNotFound
	}
	if err != nil {
		return onboarding.Record{}, err
	}
	return s.open(doc)
}

func (s *Store) ListSessions(ctx context.Context) ([]onboarding.Record, error) {
	rows, err := s.pool.Query(ctx, `SELECT record FROM onboarding_sessions ORDER BY started_at, session_id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []onboarding.Record{}
	for rows.Next() {
		var doc []byte
		if err := rows.Scan(&doc); err != nil {
			return nil, err
		}
		rec, err := s.open(doc)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

func (s *Store) StepLogs(ctx context.Context, sessionID string) ([]store.StepLog, error) {
	const q = `
		SELECT session_id, COALESCE(user_id, ''), step, user_input, ai_output, completed, created_at
		FROM onboarding_step_logs WHERE session_id = $1 ORDER BY id`
	rows, err := s.pool.Query(ctx, q, sessionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []store.StepLog{}
	for rows.Next() {
		var l store.StepLog
		var step string
		if err := rows.Scan(&l.SessionID, &l.UserID, &step, &l.UserInput, &l.AIOutput, &l.Completed, &l.Timestamp); err != nil {
			return nil, err
		}
		l.Step = onboarding.Step(step)
		out = append(out, l)
	}
	return out, rows.Err()
}

func (s *Store) AuditLogs(ctx context.Context, sessionID string) ([]store.AuditLog, error) {
	const q = `
		SELECT event_id, session_id, event_type, details, created_at
		FROM audit_logs WHERE ($1 = '' OR session_id = $1) ORDER BY created_at, event_id`
	rows, err := s.pool.Query(ctx, q, sessionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []store.AuditLog{}
	for rows.Next() {
		var l store.AuditLog
		if err := rows.Scan(&l.EventID, &l.SessionID, &l.EventType, &l.Details, &l.Timestamp); err != nil {
			return nil, err
		}
		out = append(out, l)
	}
	return out, rows.Err()
}

func (s *Store) FAQLogs(ctx context.Context) ([]store.FAQLog, error) {
	rows, err := s.pool.Query(ctx, `SELECT session_id, user_query, ai_reply, category, created_at FROM faq_logs ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []store.FAQLog{}
	for rows.Next() {
		var l store.FAQLog
		if err := rows.Scan(&l.SessionID, &l.UserQuery, &l.AIReply, &l.Category, &l.Timestamp); err != nil {
			return nil, err
		}
		out = append(out, l)
	}
	return out, rows.Err()
}

// seed inserta la demo solo si la tabla de sesiones está vacía.
func (s *Store) seed(ctx context.Context, now time.Time) error {
	var n int
	if err := s.pool.QueryRow(ctx, `SELECT COUNT(*) FROM onboarding_sessions`).Scan(&n); err != nil {
		return err
	}
	if n > 0 {
		return nil
	}
	for _, rec := range store.DemoSessions(now) {
		if err := s.UpsertSession(ctx, rec); err != nil {
			return fmt.Errorf("pg: seed session: %w", err)
		}
	}
	for _, f := range store.DemoFAQs(now) {
		if err := s.AppendFAQLog(ctx, f); err != nil {
			return fmt.Errorf("pg: seed faq: %w", err)
		}
	}
	return nil
}

func (s *Store) seal(rec onboarding.Record) ([]byte, error) {
	if s.box != nil {
		var err error
		if rec.DOB, err = s.box.Seal(rec.DOB); err != nil {
			return nil, err
		}
		if rec.SSN, err = s.box.Seal(rec.SSN); err != nil {
			return nil, err
		}
	}
	return json.Marshal(rec)
}

func (s *Store) open(doc []byte) (onboarding.Record, error) {
	var rec onboarding.Record
	if err := json.Unmarshal(doc, &rec); err != nil {
		return rec, fmt.Errorf("pg: decode record: %w", err)
	}
	if s.box == nil {
		if secretbox.IsSealed(rec.DOB) || secretbox.IsSealed(rec.SSN) {
			return rec, errors.New("pg: record has sealed fields but no secret key is configured")
		}
		return rec, nil
	}
	var err error
	if rec.DOB, err = s.box.Open(rec.DOB); err != nil {
		return rec, fmt.Errorf("pg: open dob: %w", err)
	}
	if rec.SSN, err = s.box.Open(rec.SSN); err != nil {
		return rec, fmt.Errorf("pg: open ssn: %w", err)
	}
	return rec, nil
}
