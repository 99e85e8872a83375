package audit

import (
	"encoding/json"

	"gorm.io/gorm"

	"github.com/BruksfildServices01/clinic-pos/internal/models"
)

type Logger struct {
	db *gorm.DB
}

func New(db *gorm.DB) *Logger {
	return &Logger{db: db}
}

func (l *Logger) Log(ev Event) error {
	meta := map[string]any{"actor": ev.Actor.String()}
	if ev.Metadata != nil {
		meta["data"] = ev.Metadata
	}

	var metaJSON string
	if b, err := json.Marshal(meta); err == nil {
		metaJSON = string(b)
	}

	row := models.AuditLog{
		ActorID:  ev.Actor.ID(),
		Action:   ev.Action,
		Entity:   ev.Entity,
		EntityID: ev.EntityID,
		Metadata: metaJSON,
	}

	return l.db.Create(&row).Error
}

// Ref is a helper for the optional EntityID field.
func Ref(id uint) *uint {
	return &id
}
