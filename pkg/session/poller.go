package session

import (
	"context"
	"fmt"
	"time"

	"github.com/adhocore/gronx"

	"github.com/kengpt/kengpt/pkg/chat"
	"github.com/kengpt/kengpt/pkg/logger"
	"github.com/kengpt/kengpt/pkg/notify"
)

// StatusPoller periodically asks the backend for its self-reported state
// and flips the session between Offline and Standby accordingly. It is an
// optional background worker, disabled by default; it never touches the
// session while a request is in flight or before hydration.
type StatusPoller struct {
	session  *Session
	schedule string
	gron     *gronx.Gronx
}

// NewStatusPoller validates the cron schedule and binds the poller to a
// session.
func NewStatusPoller(s *Session, schedule string) (*StatusPoller, error) {
	g := gronx.New()
	if !g.IsValid(schedule) {
		return nil, fmt.Errorf("invalid status poll schedule %q", schedule)
	}
	return &StatusPoller{
		session:  s,
		schedule: schedule,
		gron:     g,
	}, nil
}

// Run blocks until ctx is done, polling whenever the schedule is due.
func (p *StatusPoller) Run(ctx context.Context) {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()

	logger.InfoCF("poller", "Status poll started", map[string]interface{}{
		"schedule": p.schedule,
	})

	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			due, err := p.gron.IsDue(p.schedule, now)
			if err != nil || !due {
				continue
			}
			p.poll(ctx)
		}
	}
}

// poll runs one status check. Only the Offline<->Standby pair is ever
// touched; Running, Loading, and Error belong to the request lifecycle.
func (p *StatusPoller) poll(ctx context.Context) {
	system, err := p.session.backend.SystemStatus(ctx)
	current := p.session.Status()

	if err != nil {
		if current == chat.StatusStandby {
			p.session.SetStatus(chat.StatusOffline)
			if p.session.notifier != nil {
				p.session.notifier.AddNotification("Chat backend is offline", notify.SeverityWarning)
			}
			logger.WarnCF("poller", "Backend unreachable", map[string]interface{}{
				"error": err.Error(),
			})
		}
		return
	}

	if current == chat.StatusOffline {
		p.session.SetStatus(chat.StatusStandby)
		if p.session.notifier != nil {
			p.session.notifier.AddNotification("Chat backend is back online", notify.SeverityInfo)
		}
	}

	logger.DebugCF("poller", "Backend status", map[string]interface{}{
		"status": string(system.Status),
		"model":  system.Model,
	})
}
