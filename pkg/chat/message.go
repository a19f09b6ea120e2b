package chat

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// Role identifies the sender of a message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Status describes the client's relationship to the chat backend.
// Exactly one value holds at any instant.
type Status string

const (
	StatusRunning Status = "running" // one request is in flight
	StatusLoading Status = "loading" // initial hydration not yet complete
	StatusStandby Status = "standby" // accepting input
	StatusOffline Status = "offline" // backend reported unavailable
	StatusError   Status = "error"   // last request failed
)

// ContentFormat tags the payload kind of a single content item.
type ContentFormat string

const (
	FormatText  ContentFormat = "text"
	FormatTable ContentFormat = "table"
	FormatImage ContentFormat = "image"
	FormatAudio ContentFormat = "audio"
	FormatVideo ContentFormat = "video"
	FormatFile  ContentFormat = "file"
)

// Content is one item of a message payload.
type Content struct {
	Format      ContentFormat `json:"format"`
	Content     string        `json:"content"`
	Description string        `json:"description,omitempty"`
}

// Message represents one conversation turn on the wire and in memory.
// The Role tag decides which optional fields are populated: user-role
// requests carry Profile and History, assistant-role responses carry
// Thoughts and model metadata. Use NewRequest to build outbound turns so
// the variant fields stay consistent.
type Message struct {
	ID        string    `json:"id,omitempty"`
	Role      Role      `json:"role"`
	Contents  []Content `json:"contents"`
	Timestamp int64     `json:"timestamp"` // milliseconds since epoch, also the identity key

	// User-role requests only. History is cleared before the message is
	// persisted; prior turns are already in memory, re-embedding them per
	// message would grow storage quadratically.
	Profile *Profile  `json:"profile,omitempty"`
	History []Message `json:"history,omitempty"`

	// Assistant-role responses only.
	Thoughts       []string `json:"thoughts,omitempty"`
	Status         Status   `json:"status,omitempty"`
	ModelSignature string   `json:"model_signature,omitempty"`

	// SessionID threads the conversation: responses carry it, the next
	// request echoes it back.
	SessionID string `json:"session_id,omitempty"`
}

// NewRequest builds a user-role message carrying the active profile and a
// snapshot of the conversation so far.
func NewRequest(text string, profile Profile, history []Message, sessionID string) Message {
	return Message{
		ID:   uuid.NewString(),
		Role: RoleUser,
		Contents: []Content{
			{Format: FormatText, Content: text},
		},
		Timestamp: time.Now().UnixMilli(),
		Profile:   &profile,
		History:   history,
		SessionID: sessionID,
	}
}

// IsRequest reports whether the message is a user-role turn.
func (m Message) IsRequest() bool {
	return m.Role == RoleUser
}

// Text joins the message's text-format contents into one string.
func (m Message) Text() string {
	parts := make([]string, 0, len(m.Contents))
	for _, c := range m.Contents {
		if c.Format == FormatText {
			parts = append(parts, c.Content)
		}
	}
	return strings.Join(parts, " ")
}

// HasThoughts reports whether the assistant attached reasoning to the turn.
func (m Message) HasThoughts() bool {
	return len(m.Thoughts) > 0
}

// StripHistory returns a copy with the history snapshot emptied, which is
// the form a request takes in persisted memory.
func (m Message) StripHistory() Message {
	m.History = nil
	return m
}

// System is the backend-reported runtime state used by the status poll.
type System struct {
	Status Status `json:"status"`
	Model  string `json:"model"`
}
