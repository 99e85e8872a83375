package catalog

import (
	"context"
	"errors"
	"strings"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/BruksfildServices01/clinic-pos/internal/models"
)

var ErrPasswordRequired = errors.New("SUPERUSER_PASSWORD is required")

type CreateSuperuser struct {
	db *gorm.DB
}

func NewCreateSuperuser(db *gorm.DB) *CreateSuperuser {
	return &CreateSuperuser{db: db}
}

// Execute creates the account unless the username is taken; created
// reports whether a row was written.
func (uc *CreateSuperuser) Execute(ctx context.Context, username, email, password string) (created bool, err error) {
	username = strings.TrimSpace(username)
	if username == "" {
		username = "admin"
	}
	if password == "" {
		return false, ErrPasswordRequired
	}

	var count int64
	if err := uc.db.WithContext(ctx).
		Model(&models.User{}).
		Where("username = ?", username).
		Count(&count).Error; err != nil {
		return false, err
	}
	if count > 0 {
		return false, nil
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return false, err
	}

	user := models.User{
		Username:     username,
		Email:        strings.TrimSpace(email),
		PasswordHash: string(hashed),
		IsSuperuser:  true,
		IsActive:     true,
	}
	if err := uc.db.WithContext(ctx).Create(&user).Error; err != nil {
		return false, err
	}
	return true, nil
}
