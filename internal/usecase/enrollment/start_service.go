package enrollment

import (
	"context"

	"github.com/BruksfildServices01/clinic-pos/internal/actor"
	"github.com/BruksfildServices01/clinic-pos/internal/audit"
	domain "github.com/BruksfildServices01/clinic-pos/internal/domain/enrollment"
	"github.com/BruksfildServices01/clinic-pos/internal/httperr"
	"github.com/BruksfildServices01/clinic-pos/internal/models"
	"github.com/BruksfildServices01/clinic-pos/internal/timezone"
	"github.com/BruksfildServices01/clinic-pos/internal/validators"
)

type StartServiceSession struct {
	repo  domain.Repository
	audit *audit.Dispatcher
}

func NewStartServiceSession(repo domain.Repository, audit *audit.Dispatcher) *StartServiceSession {
	return &StartServiceSession{repo: repo, audit: audit}
}

// Execute starts tracking a standalone service purchase. The session total
// is the service's sessions_required at the time of purchase.
func (uc *StartServiceSession) Execute(
	ctx context.Context,
	a actor.Actor,
	clientID uint,
	rawServiceID string,
) (*models.ClientServiceSession, error) {

	client, err := uc.repo.GetActiveClient(ctx, clientID)
	if err != nil {
		return nil, notFound(err, "client_not_found")
	}

	serviceID, err := validators.RequiredID(rawServiceID, "service_required", "invalid_service_id")
	if err != nil {
		return nil, err
	}

	svc, err := uc.repo.GetActiveService(ctx, serviceID)
	if err != nil {
		return nil, notFound(err, "service_not_found")
	}

	s := &models.ClientServiceSession{
		ClientID:        client.ID,
		ServiceID:       svc.ID,
		SessionProgress: domain.NewProgress(svc.SessionsRequired),
		StartedAt:       timezone.Now(),
	}

	err = uc.repo.Transaction(ctx, func(repo domain.Repository) error {
		exists, err := repo.HasActiveServiceSession(ctx, client.ID, svc.ID)
		if err != nil {
			return err
		}
		if exists {
			return httperr.ErrBusiness("service_already_started")
		}
		return repo.CreateServiceSession(ctx, s)
	})
	if err != nil {
		return nil, err
	}

	s.Client = client
	s.Service = svc

	uc.audit.Dispatch(audit.Event{
		Actor:    a,
		Action:   "service_session_started",
		Entity:   "client_service_session",
		EntityID: &s.ID,
		Metadata: map[string]any{"client_id": client.ID, "service_id": svc.ID},
	})

	return s, nil
}
