// Package enrollment holds the session-counting rules shared by package
// enrollments and standalone multi-session services.
package enrollment

import (
	"time"

	"github.com/BruksfildServices01/clinic-pos/internal/models"
)

// AddSession consumes one session. It returns false, leaving p untouched,
// when the progress is already complete or at capacity.
func AddSession(p *models.SessionProgress, now time.Time) bool {
	if p.IsCompleted || p.SessionsCompleted >= p.TotalSessions {
		return false
	}

	p.SessionsCompleted++
	if p.SessionsCompleted >= p.TotalSessions {
		p.IsCompleted = true
		p.CompletedAt = &now
	}
	return true
}

func Remaining(p models.SessionProgress) int {
	if r := p.TotalSessions - p.SessionsCompleted; r > 0 {
		return r
	}
	return 0
}

// ProgressPercentage is truncated to a whole percent.
func ProgressPercentage(p models.SessionProgress) int {
	if p.TotalSessions <= 0 {
		return 0
	}
	return p.SessionsCompleted * 100 / p.TotalSessions
}

// NewProgress starts a fresh counter for total sessions. A total below one
// is treated as a single session.
func NewProgress(total int) models.SessionProgress {
	if total < 1 {
		total = 1
	}
	return models.SessionProgress{TotalSessions: total}
}
