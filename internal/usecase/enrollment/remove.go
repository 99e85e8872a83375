package enrollment

import (
	"context"

	"github.com/BruksfildServices01/clinic-pos/internal/actor"
	"github.com/BruksfildServices01/clinic-pos/internal/audit"
	domain "github.com/BruksfildServices01/clinic-pos/internal/domain/enrollment"
)

type Kind string

const (
	KindPackage Kind = "package"
	KindService Kind = "service"
)

type RemoveEnrollment struct {
	repo  domain.Repository
	audit *audit.Dispatcher
}

func NewRemoveEnrollment(repo domain.Repository, audit *audit.Dispatcher) *RemoveEnrollment {
	return &RemoveEnrollment{repo: repo, audit: audit}
}

// Execute deletes a package enrollment or service session of the client
// and returns the name of what was removed.
func (uc *RemoveEnrollment) Execute(
	ctx context.Context,
	a actor.Actor,
	kind Kind,
	clientID uint,
	id uint,
) (string, error) {

	var (
		name   string
		entity string
	)

	switch kind {
	case KindPackage:
		cp, err := uc.repo.GetClientPackage(ctx, clientID, id)
		if err != nil {
			return "", notFound(err, "client_package_not_found")
		}
		if cp.Package != nil {
			name = cp.Package.Name
		}
		if err := uc.repo.DeleteClientPackage(ctx, id); err != nil {
			return "", err
		}
		entity = "client_package"

	default:
		s, err := uc.repo.GetServiceSession(ctx, clientID, id)
		if err != nil {
			return "", notFound(err, "service_session_not_found")
		}
		if s.Service != nil {
			name = s.Service.Name
		}
		if err := uc.repo.DeleteServiceSession(ctx, id); err != nil {
			return "", err
		}
		entity = "client_service_session"
	}

	uc.audit.Dispatch(audit.Event{
		Actor:    a,
		Action:   entity + "_removed",
		Entity:   entity,
		EntityID: &id,
		Metadata: map[string]any{"client_id": clientID, "name": name},
	})

	return name, nil
}
