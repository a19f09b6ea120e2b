package session

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kengpt/kengpt/pkg/chat"
	"github.com/kengpt/kengpt/pkg/notify"
)

func TestNewStatusPoller_RejectsBadSchedule(t *testing.T) {
	s, _, _, _ := newTestSession(t)

	_, err := NewStatusPoller(s, "not a cron expression")
	assert.Error(t, err)

	_, err = NewStatusPoller(s, "*/5 * * * *")
	assert.NoError(t, err)
}

// TestPoll_FlipsOfflineAndBack verifies the poll only ever moves the
// session between Standby and Offline.
func TestPoll_FlipsOfflineAndBack(t *testing.T) {
	s, _, be, nt := newTestSession(t)
	p, err := NewStatusPoller(s, "* * * * *")
	require.NoError(t, err)

	be.statusErr = errors.New("connection refused")
	p.poll(context.Background())
	assert.Equal(t, chat.StatusOffline, s.Status())
	require.Len(t, nt.notifications, 1)
	assert.Equal(t, notify.SeverityWarning, nt.notifications[0].Severity)

	// Repeated failures do not spam notifications.
	p.poll(context.Background())
	assert.Len(t, nt.notifications, 1)

	be.statusErr = nil
	p.poll(context.Background())
	assert.Equal(t, chat.StatusStandby, s.Status())
	require.Len(t, nt.notifications, 2)
	assert.Equal(t, notify.SeverityInfo, nt.notifications[1].Severity)
}

// TestPoll_DoesNotTouchErrorState verifies request-lifecycle states are
// left alone.
func TestPoll_DoesNotTouchErrorState(t *testing.T) {
	s, _, be, _ := newTestSession(t)
	p, err := NewStatusPoller(s, "* * * * *")
	require.NoError(t, err)

	s.SetStatus(chat.StatusError)
	be.statusErr = errors.New("down")
	p.poll(context.Background())
	assert.Equal(t, chat.StatusError, s.Status())

	be.statusErr = nil
	p.poll(context.Background())
	assert.Equal(t, chat.StatusError, s.Status())
}
