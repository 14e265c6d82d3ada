package notify

import (
	"context"
	"errors"
	"time"

	"github.com/ppiankov/tenderwatch/internal/logger"
	"github.com/ppiankov/tenderwatch/internal/model"
)

// HeartbeatState records when the last heartbeat went out
type HeartbeatState interface {
	LastHeartbeat() time.Time
	SetLastHeartbeat(t time.Time)
}

// Notifier decides what to send and hands it to a Sender
type Notifier struct {
	sender    Sender
	heartbeat model.HeartbeatConfig
	now       func() time.Time
	log       logger.Logger
}

// Option configures a Notifier
type Option func(*Notifier)

// WithClock overrides the time source
func WithClock(now func() time.Time) Option {
	return func(n *Notifier) { n.now = now }
}

// NewNotifier creates a notifier
func NewNotifier(sender Sender, heartbeat model.HeartbeatConfig, log logger.Logger, opts ...Option) *Notifier {
	n := &Notifier{
		sender:    sender,
		heartbeat: heartbeat,
		now:       time.Now,
		log:       log,
	}
	for _, opt := range opts {
		opt(n)
	}
	return n
}

// SendDigest formats and sends the digest. It reports whether mail went out.
// Missing credentials are logged and are not an error.
func (n *Notifier) SendDigest(ctx context.Context, notices []model.Notice, checked int) (bool, error) {
	msg, err := FormatDigest(notices, checked)
	if err != nil {
		return false, err
	}
	if err := n.deliver(ctx, msg); err != nil {
		if errors.Is(err, ErrNotConfigured) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// MaybeSendHeartbeat sends the heartbeat once per UTC day, on the first call
// at or after the configured hour. The heartbeat time is recorded in st when
// the email was delivered or when mail is not configured at all; a failed
// delivery leaves it unrecorded so a later run that day tries again.
// Persisting st is the caller's job.
func (n *Notifier) MaybeSendHeartbeat(ctx context.Context, st HeartbeatState) (bool, error) {
	if !n.heartbeat.Enabled {
		return false, nil
	}

	now := n.now().UTC()
	last := st.LastHeartbeat()
	if !HeartbeatDue(now, last, n.heartbeat.HourUTC) {
		n.log.Debug("Heartbeat not due", logger.Time("last_heartbeat", last))
		return false, nil
	}

	err := n.deliver(ctx, HeartbeatMessage())
	switch {
	case errors.Is(err, ErrNotConfigured):
		st.SetLastHeartbeat(now)
		return false, nil
	case err != nil:
		return false, err
	}
	st.SetLastHeartbeat(now)
	return true, nil
}

func (n *Notifier) deliver(ctx context.Context, msg Message) error {
	err := n.sender.Send(ctx, msg)
	if errors.Is(err, ErrNotConfigured) {
		n.log.Error("SMTP creds or recipient missing; cannot send email", logger.String("subject", msg.Subject))
		return err
	}
	if err != nil {
		return err
	}
	n.log.Info("Email sent", logger.String("subject", msg.Subject))
	return nil
}

// HeartbeatTarget returns today's heartbeat time: hour:00 UTC on now's UTC date
func HeartbeatTarget(now time.Time, hour int) time.Time {
	y, m, d := now.UTC().Date()
	return time.Date(y, m, d, hour, 0, 0, 0, time.UTC)
}

// HeartbeatDue reports whether now has reached today's target while the last
// heartbeat predates it
func HeartbeatDue(now, last time.Time, hour int) bool {
	target := HeartbeatTarget(now, hour)
	return !now.Before(target) && last.Before(target)
}
