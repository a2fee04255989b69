package session

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/manasv777/investiq-hacknc/internal/onboarding"
)

// CurrentVersion es la versión del envelope que escribe Encode.
//
//	v2: {"version":2,"state":{"sessionId","userId","record","transcript","revealPrivate","configIdentity"}}
//	v1: {"version":1,"state":{"sessionId","userId","onboardingData","chatMessages","showPrivateInput"}}
//	v0: el state v1 sin envelope
//
// v0 y v1 podían guardar los booleanos de compliance como "true"/"false".
const CurrentVersion = 2

// ErrUnsupportedVersion indica un blob escrito por una versión más nueva.
var ErrUnsupportedVersion = errors.New("session: unsupported state version")

type envelope struct {
	Version int             `json:"version"`
	State   json.RawMessage `json:"state"`
}

type stateV2 struct {
	SessionID     string                   `json:"sessionId"`
	UserID        string                   `json:"userId,omitempty"`
	Record        json.RawMessage          `json:"record"`
	Transcript    []onboarding.ChatMessage `json:"transcript"`
	RevealPrivate bool                     `json:"revealPrivate"`

	// ausente en blobs v2 anteriores: la identidad se trata como manual
	ConfigIdentity bool `json:"configIdentity,omitempty"`
}

type stateV1 struct {
	SessionID        string                   `json:"sessionId"`
	UserID           string                   `json:"userId,omitempty"`
	OnboardingData   json.RawMessage          `json:"onboardingData"`
	ChatMessages     []onboarding.ChatMessage `json:"chatMessages"`
	ShowPrivateInput bool                     `json:"showPrivateInput"`
}

// Encode serializa st en el formato actual.
func Encode(st State) ([]byte, error) {
	rec, err := json.Marshal(st.Record)
	if err != nil {
		return nil, fmt.Errorf("session: encode record: %w", err)
	}
	transcript := st.Transcript
	if transcript == nil {
		transcript = []onboarding.ChatMessage{}
	}
	inner, err := json.Marshal(stateV2{
		SessionID:     st.SessionID,
		UserID:        st.UserID,
		Record:        rec,
		Transcript:    transcript,
		RevealPrivate: st.RevealPrivate,

		ConfigIdentity: st.ConfigIdentity,
	})
	if err != nil {
		return nil, fmt.Errorf("session: encode state: %w", err)
	}
	return json.Marshal(envelope{Version: CurrentVersion, State: inner})
}

// Decode lee cualquier versión conocida y migra al State actual.
func Decode(data []byte) (State, error) {
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return State{}, ErrNoState
	}

	var top map[string]json.RawMessage
	if err := json.Unmarshal(data, &top); err != nil {
		return State{}, fmt.Errorf("session: decode: %w", err)
	}

	version := 0
	inner := json.RawMessage(data)
	if rawVer, ok := top["version"]; ok {
		if err := json.Unmarshal(rawVer, &version); err != nil {
			return State{}, fmt.Errorf("session: decode version: %w", err)
		}
		inner = top["state"]
	}
	if version > CurrentVersion {
		return State{}, fmt.Errorf("%w: %d", ErrUnsupportedVersion, version)
	}

	var (
		st  State
		err error
	)
	if version == CurrentVersion {
		st, err = decodeV2(inner)
	} else {
		st, err = decodeV1(inner)
	}
	if err != nil {
		return State{}, err
	}
	st.Version = version
	normalize(&st)
	return st, nil
}

func decodeV2(raw json.RawMessage) (State, error) {
	var s stateV2
	if err := json.Unmarshal(raw, &s); err != nil {
		return State{}, fmt.Errorf("session: decode v2 state: %w", err)
	}
	rec, err := decodeRecord(s.Record)
	if err != nil {
		return State{}, err
	}
	return State{
		SessionID:     s.SessionID,
		UserID:        s.UserID,
		Record:        rec,
		Transcript:    s.Transcript,
		RevealPrivate: s.RevealPrivate,

		ConfigIdentity: s.ConfigIdentity,
	}, nil
}

func decodeV1(raw json.RawMessage) (State, error) {
	var s stateV1
	if err := json.Unmarshal(raw, &s); err != nil {
		return State{}, fmt.Errorf("session: decode legacy state: %w", err)
	}
	rec, err := decodeRecord(s.OnboardingData)
	if err != nil {
		return State{}, err
	}
	return State{
		SessionID:     s.SessionID,
		UserID:        s.UserID,
		Record:        rec,
		Transcript:    s.ChatMessages,
		RevealPrivate: s.ShowPrivateInput,
	}, nil
}

// decodeRecord coerciona los nueve booleanos guardados como string antes
// de decodificar al struct tipado.
func decodeRecord(raw json.RawMessage) (onboarding.Record, error) {
	var rec onboarding.Record
	if len(bytes.TrimSpace(raw)) == 0 || bytes.Equal(bytes.TrimSpace(raw), []byte("null")) {
		return rec, nil
	}

	var fields map[string]any
	if err := json.Unmarshal(raw, &fields); err != nil {
		return rec, fmt.Errorf("session: decode record: %w", err)
	}
	for _, name := range onboarding.BooleanFieldNames() {
		v, ok := fields[name]
		if !ok {
			continue
		}
		b, ok := onboarding.CoerceBool(v)
		if !ok {
			return rec, fmt.Errorf("session: field %q: cannot coerce %v to bool", name, v)
		}
		if b == nil {
			delete(fields, name)
			continue
		}
		fields[name] = *b
	}

	clean, err := json.Marshal(fields)
	if err != nil {
		return rec, fmt.Errorf("session: re-encode record: %w", err)
	}
	if err := json.Unmarshal(clean, &rec); err != nil {
		return rec, fmt.Errorf("session: decode record: %w", err)
	}
	return rec, nil
}

// normalize repara invariantes que versiones viejas no garantizaban:
// ids consistentes, step válido y completedSteps como set ordenado.
func normalize(st *State) {
	if st.Record.SessionID == "" {
		st.Record.SessionID = st.SessionID
	}
	if st.SessionID == "" {
		st.SessionID = st.Record.SessionID
	}
	if st.Record.UserID == "" {
		st.Record.UserID = st.UserID
	}
	if !st.Record.CurrentStep.Valid() {
		st.Record.CurrentStep = onboarding.FirstStep
	}
	if st.Record.ApplicationStatus == "" {
		st.Record.ApplicationStatus = onboarding.ApplicationDraft
	}

	steps := st.Record.CompletedSteps
	st.Record.CompletedSteps = []onboarding.Step{}
	for _, s := range steps {
		st.Record.MarkCompleted(s)
	}
	if st.Transcript == nil {
		st.Transcript = []onboarding.ChatMessage{}
	}
}
