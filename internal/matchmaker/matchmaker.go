// internal/matchmaker/matchmaker.go
package matchmaker

import (
	"time"

	"github.com/sirupsen/logrus"

	"github.com/webminigames/lobbyd/internal/lobby"
)

// Matchmaker drives the QUEUED -> IN_SESSION transition. The admission rule
// itself (player count within the game type's bounds) is enforced when the
// lobby enters the queue; the matchmaker's job is the timing of the start,
// optionally delayed by a countdown that leaving the queue cancels.
type Matchmaker struct {
	countdown time.Duration
	logger    *logrus.Logger
}

// New returns a matchmaker. A countdown of zero starts sessions immediately
// on admission.
func New(countdown time.Duration, logger *logrus.Logger) *Matchmaker {
	return &Matchmaker{countdown: countdown, logger: logger}
}

// Admit schedules the session start for a lobby that just entered the queue.
// The caller must hold l.Mu; start is always invoked with l.Mu held, either
// synchronously (no countdown) or from the countdown timer.
func (m *Matchmaker) Admit(l *lobby.Lobby, start func(*lobby.Lobby)) {
	if m.countdown <= 0 {
		start(l)
		return
	}

	m.logger.WithFields(logrus.Fields{
		"lobby_id":  l.ID,
		"countdown": m.countdown,
	}).Info("Queue admitted, countdown started")

	var timer *time.Timer
	timer = time.AfterFunc(m.countdown, func() {
		l.Mu.Lock()
		defer l.Mu.Unlock()
		// A stale timer means the queue was abandoned or replaced while we
		// were waiting; the current cycle no longer belongs to us.
		if l.QueueTimer != timer || l.Queue == nil {
			m.logger.WithField("lobby_id", l.ID).Debug("Stale queue countdown fired, ignoring")
			return
		}
		l.QueueTimer = nil
		start(l)
	})
	l.QueueTimer = timer
}
