package enrollment

import (
	"context"

	"github.com/BruksfildServices01/clinic-pos/internal/actor"
	"github.com/BruksfildServices01/clinic-pos/internal/audit"
	domain "github.com/BruksfildServices01/clinic-pos/internal/domain/enrollment"
	"github.com/BruksfildServices01/clinic-pos/internal/metrics"
	"github.com/BruksfildServices01/clinic-pos/internal/models"
	"github.com/BruksfildServices01/clinic-pos/internal/timezone"
)

// ======================================================
// PACKAGE
// ======================================================

type AddPackageSession struct {
	repo  domain.Repository
	audit *audit.Dispatcher
}

func NewAddPackageSession(repo domain.Repository, audit *audit.Dispatcher) *AddPackageSession {
	return &AddPackageSession{repo: repo, audit: audit}
}

// Execute consumes one session of the enrollment. added is false, with a
// nil error, when the enrollment was already complete. The returned record
// is always re-read after the write.
func (uc *AddPackageSession) Execute(
	ctx context.Context,
	a actor.Actor,
	clientID uint,
	clientPackageID uint,
) (cp *models.ClientPackage, added bool, err error) {

	if _, err := uc.repo.GetClientPackage(ctx, clientID, clientPackageID); err != nil {
		return nil, false, notFound(err, "client_package_not_found")
	}

	added, err = uc.repo.AddPackageSession(ctx, clientPackageID, timezone.Now())
	if err != nil {
		return nil, false, err
	}

	cp, err = uc.repo.GetClientPackage(ctx, clientID, clientPackageID)
	if err != nil {
		return nil, false, err
	}

	if added {
		metrics.RecordSessionAdded("package")
		uc.audit.Dispatch(audit.Event{
			Actor:    a,
			Action:   "package_session_added",
			Entity:   "client_package",
			EntityID: &cp.ID,
			Metadata: map[string]any{
				"sessions_completed": cp.SessionsCompleted,
				"total_sessions":     cp.TotalSessions,
			},
		})
	}

	return cp, added, nil
}

// ======================================================
// SERVICE
// ======================================================

type AddServiceSession struct {
	repo  domain.Repository
	audit *audit.Dispatcher
}

func NewAddServiceSession(repo domain.Repository, audit *audit.Dispatcher) *AddServiceSession {
	return &AddServiceSession{repo: repo, audit: audit}
}

func (uc *AddServiceSession) Execute(
	ctx context.Context,
	a actor.Actor,
	clientID uint,
	serviceSessionID uint,
) (s *models.ClientServiceSession, added bool, err error) {

	if _, err := uc.repo.GetServiceSession(ctx, clientID, serviceSessionID); err != nil {
		return nil, false, notFound(err, "service_session_not_found")
	}

	added, err = uc.repo.AddServiceSession(ctx, serviceSessionID, timezone.Now())
	if err != nil {
		return nil, false, err
	}

	s, err = uc.repo.GetServiceSession(ctx, clientID, serviceSessionID)
	if err != nil {
		return nil, false, err
	}

	if added {
		metrics.RecordSessionAdded("service")
		uc.audit.Dispatch(audit.Event{
			Actor:    a,
			Action:   "service_session_added",
			Entity:   "client_service_session",
			EntityID: &s.ID,
			Metadata: map[string]any{
				"sessions_completed": s.SessionsCompleted,
				"total_sessions":     s.TotalSessions,
			},
		})
	}

	return s, added, nil
}
