// Package session es la fuente de verdad del wizard en el cliente: el
// registro de onboarding activo, el transcript del chat y el flag de
// privacidad. Cada mutación se persiste antes de hacerse visible, así que
// un reinicio del proceso retoma exactamente donde quedó.
package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/manasv777/investiq-hacknc/internal/observability/logger"
	"github.com/manasv777/investiq-hacknc/internal/onboarding"
)

var (
	ErrInvalidStep = errors.New("session: invalid step")
	ErrInvalidRole = errors.New("session: invalid chat role")
	// ErrSkipAhead: el movimiento dejaría pasos previos sin completar.
	ErrSkipAhead = errors.New("session: cannot move past incomplete steps")
)

// State es lo que se persiste entre reinicios.
type State struct {
	Version       int
	SessionID     string
	UserID        string
	Record        onboarding.Record
	Transcript    []onboarding.ChatMessage
	RevealPrivate bool

	// ConfigIdentity: UserID vino de la configuración y no de `init --user`.
	ConfigIdentity bool
}

func (s State) clone() State {
	out := s
	out.Record = s.Record.Clone()
	out.Transcript = make([]onboarding.ChatMessage, len(s.Transcript))
	copy(out.Transcript, s.Transcript)
	return out
}

// Option configura un Store.
type Option func(*Store)

// WithClock inyecta el reloj (tests).
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// WithIDGenerator inyecta el generador de ids de sesión y de mensajes.
func WithIDGenerator(gen func() string) Option {
	return func(s *Store) { s.newID = gen }
}

func WithLogger(l *zap.Logger) Option {
	return func(s *Store) { s.log = l }
}

// Store es seguro para uso concurrente, pero el contrato sigue siendo
// un único escritor lógico: last write wins.
type Store struct {
	mu     sync.Mutex
	p      Persister
	now    func() time.Time
	newID  func() string
	log    *zap.Logger
	st     State
	loaded bool
}

func New(p Persister, opts ...Option) *Store {
	s := &Store{
		p:     p,
		now:   time.Now,
		newID: uuid.NewString,
	}
	for _, o := range opts {
		o(s)
	}
	if s.log == nil {
		s.log = logger.L()
	}
	s.log = s.log.With(logger.Component("session"))
	return s
}

// Load lee el estado persistido. Sin estado previo, inicializa una sesión anónima.
func (s *Store) Load(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loadLocked(ctx)
}

func (s *Store) loadLocked(ctx context.Context) error {
	raw, err := s.p.Load(ctx)
	if errors.Is(err, ErrNoState) {
		s.log.Debug("no persisted state, starting new session")
		return s.commit(ctx, s.fresh(s.st, ""))
	}
	if err != nil {
		return err
	}
	st, err := Decode(raw)
	if errors.Is(err, ErrNoState) {
		return s.commit(ctx, s.fresh(s.st, ""))
	}
	if err != nil {
		// un blob ilegible no debe bloquear init ni reset; se descarta
		s.log.Warn("unreadable persisted state, starting new session", logger.Err(err))
		return s.commit(ctx, s.fresh(s.st, ""))
	}
	if st.Version != CurrentVersion {
		s.log.Info("migrated legacy state",
			zap.Int("from_version", st.Version), logger.SessionID(st.SessionID))
	}
	st.Version = CurrentVersion
	s.st = st
	s.loaded = true
	return nil
}

// Initialize abre una sesión nueva: id nuevo, registro en blanco en el paso A
// y transcript vacío. El flag de privacidad se conserva.
func (s *Store) Initialize(ctx context.Context, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.commit(ctx, s.fresh(s.st, userID))
}

// Reset equivale a Initialize anónimo y además oculta los datos sensibles.
func (s *Store) Reset(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	next := s.fresh(s.st, "")
	next.RevealPrivate = false
	return s.commit(ctx, next)
}

// SyncIdentity reinicializa la sesión si cambió la identidad autenticada
// (incluido el paso a/desde anónimo). Retorna true si reinicializó.
func (s *Store) SyncIdentity(ctx context.Context, userID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.ensureLoaded(ctx); err != nil {
		return false, err
	}
	if s.st.UserID == userID {
		return false, nil
	}
	s.log.Info("identity changed, starting new session",
		logger.UserID(userID), logger.SessionID(s.st.SessionID))
	return true, s.commit(ctx, s.fresh(s.st, userID))
}

// SyncConfigIdentity alinea la sesión con la identidad configurada. Una
// identidad vacía solo fuerza reinicio si la actual también vino de la
// configuración; la fijada a mano con Initialize se respeta. Retorna true
// si reinicializó.
func (s *Store) SyncConfigIdentity(ctx context.Context, userID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.ensureLoaded(ctx); err != nil {
		return false, err
	}
	if userID == "" && !s.st.ConfigIdentity {
		return false, nil
	}
	if s.st.UserID == userID {
		if s.st.ConfigIdentity == (userID != "") {
			return false, nil
		}
		next := s.st.clone()
		next.ConfigIdentity = userID != ""
		return false, s.commit(ctx, next)
	}
	s.log.Info("configured identity changed, starting new session",
		logger.UserID(userID), logger.SessionID(s.st.SessionID))
	next := s.fresh(s.st, userID)
	next.ConfigIdentity = userID != ""
	return true, s.commit(ctx, next)
}

// UpdateFields mergea p sobre el registro. No valida.
func (s *Store) UpdateFields(ctx context.Context, p onboarding.Patch) error {
	return s.mutate(ctx, func(st *State) error {
		p.Apply(&st.Record.Fields)
		return nil
	})
}

// SetCurrentStep mueve el puntero sin validar (navegación libre, "Back").
func (s *Store) SetCurrentStep(ctx context.Context, step onboarding.Step) error {
	if !step.Valid() {
		return fmt.Errorf("%w: %q", ErrInvalidStep, step)
	}
	return s.mutate(ctx, func(st *State) error {
		st.Record.CurrentStep = step
		return nil
	})
}

// MarkStepComplete agrega step al set. Repetirlo no cambia nada.
func (s *Store) MarkStepComplete(ctx context.Context, step onboarding.Step) error {
	if !step.Valid() {
		return fmt.Errorf("%w: %q", ErrInvalidStep, step)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.ensureLoaded(ctx); err != nil {
		return err
	}
	if s.st.Record.IsCompleted(step) {
		return nil
	}
	next := s.st.clone()
	next.Record.MarkCompleted(step)
	return s.commit(ctx, next)
}

// CompleteAndMove marca from como completo y mueve el puntero a to en una
// sola escritura. Es la única transición hacia adelante: tanto el
// controller como el bridge pasan por acá, así que todos los pasos
// anteriores a to quedan completos.
func (s *Store) CompleteAndMove(ctx context.Context, from, to onboarding.Step) error {
	if !from.Valid() || !to.Valid() {
		return fmt.Errorf("%w: %q -> %q", ErrInvalidStep, from, to)
	}
	return s.mutate(ctx, func(st *State) error {
		st.Record.MarkCompleted(from)
		for _, prev := range onboarding.Steps() {
			if !prev.Before(to) {
				break
			}
			if !st.Record.IsCompleted(prev) {
				return fmt.Errorf("%w: %s not completed before %s", ErrSkipAhead, prev, to)
			}
		}
		st.Record.CurrentStep = to
		return nil
	})
}

// AppendChatMessage agrega un mensaje nuevo al transcript con id y timestamp propios.
func (s *Store) AppendChatMessage(ctx context.Context, role onboarding.Role, content string) (onboarding.ChatMessage, error) {
	if !role.Valid() {
		return onboarding.ChatMessage{}, fmt.Errorf("%w: %q", ErrInvalidRole, role)
	}
	var msg onboarding.ChatMessage
	err := s.mutate(ctx, func(st *State) error {
		msg = onboarding.ChatMessage{
			ID:        s.newID(),
			Role:      role,
			Content:   content,
			Timestamp: s.now().UTC(),
		}
		st.Transcript = append(st.Transcript, msg)
		return nil
	})
	return msg, err
}

func (s *Store) SetPrivacyReveal(ctx context.Context, reveal bool) error {
	return s.mutate(ctx, func(st *State) error {
		st.RevealPrivate = reveal
		return nil
	})
}

// Amend aplica fn sobre el registro. Lo usa el controller para sello de
// completado, KYC y decisión. fn no debe retener el puntero.
func (s *Store) Amend(ctx context.Context, fn func(*onboarding.Record)) error {
	return s.mutate(ctx, func(st *State) error {
		fn(&st.Record)
		return nil
	})
}

// Snapshot retorna una copia profunda del estado actual.
func (s *Store) Snapshot() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.st.clone()
}

// Record es un atajo de Snapshot().Record.
func (s *Store) Record() onboarding.Record {
	return s.Snapshot().Record
}

// mutate aplica fn sobre una copia y solo la publica si se persistió.
func (s *Store) mutate(ctx context.Context, fn func(*State) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.ensureLoaded(ctx); err != nil {
		return err
	}
	next := s.st.clone()
	if err := fn(&next); err != nil {
		return err
	}
	return s.commit(ctx, next)
}

func (s *Store) ensureLoaded(ctx context.Context) error {
	if s.loaded {
		return nil
	}
	return s.loadLocked(ctx)
}

func (s *Store) commit(ctx context.Context, next State) error {
	next.Version = CurrentVersion
	data, err := Encode(next)
	if err != nil {
		return err
	}
	if err := s.p.Save(ctx, data); err != nil {
		s.log.Warn("persist failed", logger.SessionID(next.SessionID), logger.Err(err))
		return fmt.Errorf("session: persist: %w", err)
	}
	s.st = next
	s.loaded = true
	return nil
}

func (s *Store) fresh(prev State, userID string) State {
	id := s.newID()
	return State{
		Version:       CurrentVersion,
		SessionID:     id,
		UserID:        userID,
		Record:        onboarding.NewRecord(id, userID, s.now()),
		Transcript:    []onboarding.ChatMessage{},
		RevealPrivate: prev.RevealPrivate,
	}
}
