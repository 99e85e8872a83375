package audit

import (
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/BruksfildServices01/clinic-pos/internal/actor"
	"github.com/BruksfildServices01/clinic-pos/internal/models"
	"github.com/BruksfildServices01/clinic-pos/internal/testutil"
)

func TestDispatcherCloseDrainsQueue(t *testing.T) {
	db := testutil.NewDB(t)
	d := NewDispatcher(New(db), logrus.New())

	a := actor.Actor{UserID: 3, Username: "maria"}
	for i := 0; i < 5; i++ {
		d.Dispatch(Event{Actor: a, Action: "package_assigned", Entity: "client_package", EntityID: Ref(uint(i + 1))})
	}
	d.Close()

	var logs []models.AuditLog
	require.NoError(t, db.Order("id").Find(&logs).Error)
	require.Len(t, logs, 5)
	assert.Equal(t, uint(3), *logs[0].ActorID)
	assert.Contains(t, logs[0].Metadata, `"actor":"maria"`)
}

func TestNilDispatcher(t *testing.T) {
	var d *Dispatcher
	d.Dispatch(Event{Action: "noop"})
	d.Close()
}
