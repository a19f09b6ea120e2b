package session

import (
	"context"
	"errors"
	"strings"
	"sync"

	"github.com/kengpt/kengpt/pkg/chat"
	"github.com/kengpt/kengpt/pkg/logger"
	"github.com/kengpt/kengpt/pkg/notify"
	"github.com/kengpt/kengpt/pkg/store"
)

var (
	ErrBusy         = errors.New("a request is already in flight")
	ErrNotHydrated  = errors.New("session is still loading")
	ErrEmptyMessage = errors.New("message text is empty")
)

// Store is the persisted-state adapter the session flushes to on every
// mutation.
type Store interface {
	Load() store.State
	SaveMemory(memory []chat.Message) error
	SaveActiveProfile(profile chat.Profile) error
	SaveProfiles(profiles chat.Profiles) error
}

// Backend is the chat service contract the session submits requests to.
type Backend interface {
	SubmitChat(ctx context.Context, request chat.Message) (chat.Message, error)
	SystemStatus(ctx context.Context) (chat.System, error)
}

// Notifier surfaces user-facing status outward. The session never renders
// anything itself.
type Notifier interface {
	AddNotification(message string, severity notify.Severity)
}

// Options tune session behavior.
type Options struct {
	// HistoryLimit caps the history snapshot bundled into each request.
	// Zero sends the full transcript.
	HistoryLimit int
}

// Session owns the conversation state: the transcript, the active profile
// and profile directory, the session thread, and the request lifecycle
// status. It is the single writer of the persisted store; every mutation
// flushes the affected slice.
type Session struct {
	mu           sync.Mutex
	status       chat.Status
	memory       []chat.Message
	profile      chat.Profile
	profiles     chat.Profiles
	sessionID    string
	hydrated     bool
	historyLimit int

	store    Store
	backend  Backend
	notifier Notifier
}

// New builds a session in the Loading state. Call Hydrate before
// accepting input.
func New(st Store, be Backend, notifier Notifier, opts Options) *Session {
	return &Session{
		status:       chat.StatusLoading,
		memory:       []chat.Message{},
		profile:      chat.DefaultProfile(),
		profiles:     chat.SeedProfiles(),
		historyLimit: opts.HistoryLimit,
		store:        st,
		backend:      be,
		notifier:     notifier,
	}
}

// Hydrate loads persisted state and moves Loading -> Standby. It fires
// once; repeat calls are no-ops.
func (s *Session) Hydrate() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.hydrated {
		return
	}

	state := s.store.Load()
	s.memory = state.Memory
	s.profile = state.ActiveProfile
	s.profiles = state.Profiles
	s.sessionID = lastSessionID(state.Memory)
	s.hydrated = true
	s.status = chat.StatusStandby

	logger.InfoCF("session", "Hydrated persisted state", map[string]interface{}{
		"messages": len(s.memory),
		"profiles": len(s.profiles),
		"profile":  s.profile.Botname,
	})
}

// lastSessionID recovers the thread identifier from the newest message
// that carries one.
func lastSessionID(memory []chat.Message) string {
	for i := len(memory) - 1; i >= 0; i-- {
		if memory[i].SessionID != "" {
			return memory[i].SessionID
		}
	}
	return ""
}

// SendRequest submits the draft text as a user turn. At most one request
// may be in flight: concurrent calls fail with ErrBusy instead of racing
// appends. On success the request (history stripped) and the response are
// appended to memory as one atomic update and the reply is returned. On
// failure memory is untouched, the status moves to Error, and the error
// propagates so the caller can surface it and retain the draft.
func (s *Session) SendRequest(ctx context.Context, text string) (chat.Message, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return chat.Message{}, ErrEmptyMessage
	}

	s.mu.Lock()
	if !s.hydrated {
		s.mu.Unlock()
		return chat.Message{}, ErrNotHydrated
	}
	if s.status == chat.StatusRunning {
		s.mu.Unlock()
		return chat.Message{}, ErrBusy
	}
	request := chat.NewRequest(text, s.profile, s.historySnapshot(), s.sessionID)
	s.status = chat.StatusRunning
	s.mu.Unlock()

	response, err := s.backend.SubmitChat(ctx, request)

	s.mu.Lock()
	defer s.mu.Unlock()

	if err != nil {
		s.status = chat.StatusError
		logger.ErrorCF("session", "Chat request failed", map[string]interface{}{
			"error": err.Error(),
		})
		return chat.Message{}, err
	}

	s.memory = append(s.memory, request.StripHistory(), response)
	s.sessionID = response.SessionID
	s.status = chat.StatusStandby
	s.flushMemory()

	return response, nil
}

// historySnapshot copies the transcript for a request, honoring the
// configured limit. Callers must hold s.mu.
func (s *Session) historySnapshot() []chat.Message {
	memory := s.memory
	if s.historyLimit > 0 && len(memory) > s.historyLimit {
		memory = memory[len(memory)-s.historyLimit:]
	}
	snapshot := make([]chat.Message, len(memory))
	copy(snapshot, memory)
	return snapshot
}

// ClearMemory drops the whole transcript and the session thread. Profiles
// are untouched.
func (s *Session) ClearMemory() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.memory = []chat.Message{}
	s.sessionID = ""
	s.flushMemory()
}

// DeleteMemory removes every message whose timestamp is at or after the
// cutoff, keeping strict predecessors. Deleting a user message this way
// rewinds the conversation from that point.
func (s *Session) DeleteMemory(cutoff int64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	kept := s.memory[:0:len(s.memory)]
	for _, m := range s.memory {
		if m.Timestamp < cutoff {
			kept = append(kept, m)
		}
	}
	s.memory = kept
	s.flushMemory()
}

// SetActiveProfile validates the profile, makes it active, and upserts it
// into the directory under its botname. Saving settings and switching
// profiles are the same operation. An invalid profile is refused and
// never persisted.
func (s *Session) SetActiveProfile(profile chat.Profile) error {
	if err := profile.Validate(); err != nil {
		if s.notifier != nil {
			s.notifier.AddNotification("Profile not saved: "+err.Error(), notify.SeverityWarning)
		}
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.profile = profile
	s.profiles[profile.Botname] = profile

	if err := s.store.SaveActiveProfile(profile); err != nil {
		logger.ErrorCF("session", "Failed to persist active profile", map[string]interface{}{
			"error": err.Error(),
		})
	}
	if err := s.store.SaveProfiles(s.profiles); err != nil {
		logger.ErrorCF("session", "Failed to persist profile directory", map[string]interface{}{
			"error": err.Error(),
		})
	}
	return nil
}

// SetStatus overrides the lifecycle status. Used by the status poll to
// flag the backend Offline and by callers resetting Error back to Standby
// after surfacing it.
func (s *Session) SetStatus(status chat.Status) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.status = status
}

// Status returns the current lifecycle status.
func (s *Session) Status() chat.Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.status
}

// Memory returns a copy of the transcript.
func (s *Session) Memory() []chat.Message {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]chat.Message, len(s.memory))
	copy(out, s.memory)
	return out
}

// ActiveProfile returns the profile requests are sent with.
func (s *Session) ActiveProfile() chat.Profile {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.profile
}

// Profiles returns a copy of the profile directory.
func (s *Session) Profiles() chat.Profiles {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.profiles.Clone()
}

// SessionID returns the backend thread identifier, empty before the first
// reply.
func (s *Session) SessionID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sessionID
}

// flushMemory persists the transcript slice. Persistence is best-effort:
// in-memory state stays authoritative and a write failure is surfaced as
// a notification, not an error. Callers must hold s.mu.
func (s *Session) flushMemory() {
	if err := s.store.SaveMemory(s.memory); err != nil {
		logger.ErrorCF("session", "Failed to persist memory", map[string]interface{}{
			"error": err.Error(),
		})
		if s.notifier != nil {
			s.notifier.AddNotification("Failed to save conversation", notify.SeverityWarning)
		}
	}
}
