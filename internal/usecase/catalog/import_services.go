package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"regexp"
	"strconv"
	"strings"

	"gorm.io/gorm"

	"github.com/BruksfildServices01/clinic-pos/internal/actor"
	"github.com/BruksfildServices01/clinic-pos/internal/audit"
	"github.com/BruksfildServices01/clinic-pos/internal/models"
)

const (
	MinPackageServices = 3
	MaxPackageServices = 5

	defaultServiceDuration = 45
	defaultPackageSessions = 4
)

// ======================================================
// FILE FORMAT
// ======================================================

type ImportFile struct {
	Services []ServiceRecord `json:"services"`
	Packages []PackageRecord `json:"packages"`
}

type ServiceRecord struct {
	Name             string   `json:"name"`
	Price            *float64 `json:"price"`
	Duration         *int     `json:"duration"`
	SessionsRequired *int     `json:"sessions_required"`
	Description      string   `json:"description"`
	IsActive         *bool    `json:"is_active"`
}

type PackageRecord struct {
	Name          string   `json:"name"`
	Price         *float64 `json:"price"`
	Description   string   `json:"description"`
	Products      string   `json:"products"`
	TotalSessions *int     `json:"total_sessions"`
	// Services names catalog entries explicitly; otherwise they are
	// matched against the description.
	Services []string `json:"services"`
}

type ImportResult struct {
	ServicesCreated int      `json:"services_created"`
	ServicesUpdated int      `json:"services_updated"`
	PackagesCreated int      `json:"packages_created"`
	PackagesUpdated int      `json:"packages_updated"`
	Warnings        []string `json:"warnings"`
}

// ======================================================
// USE CASE
// ======================================================

type ImportServices struct {
	db    *gorm.DB
	audit *audit.Dispatcher
}

func NewImportServices(db *gorm.DB, audit *audit.Dispatcher) *ImportServices {
	return &ImportServices{db: db, audit: audit}
}

// Execute upserts services and packages by name in one transaction.
// Package prices are taken as original prices and sold at DefaultDiscount
// percent off. With clear set, existing packages and services are removed
// first.
func (uc *ImportServices) Execute(ctx context.Context, a actor.Actor, r io.Reader, clear bool) (*ImportResult, error) {
	var file ImportFile
	if err := json.NewDecoder(r).Decode(&file); err != nil {
		return nil, fmt.Errorf("parse import file: %w", err)
	}

	res := &ImportResult{}

	err := uc.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if clear {
			if err := clearCatalog(tx); err != nil {
				return err
			}
		}

		var services []models.Service
		for _, rec := range file.Services {
			svc, created, err := upsertService(tx, rec)
			if err != nil {
				return err
			}
			if svc == nil {
				continue
			}
			services = append(services, *svc)
			if created {
				res.ServicesCreated++
			} else {
				res.ServicesUpdated++
			}
		}

		for _, rec := range file.Packages {
			created, warn, err := upsertPackage(tx, rec, services)
			if err != nil {
				return err
			}
			if warn != "" {
				res.Warnings = append(res.Warnings, warn)
			}
			if created == nil {
				continue
			}
			if *created {
				res.PackagesCreated++
			} else {
				res.PackagesUpdated++
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	uc.audit.Dispatch(audit.Event{
		Actor:    a,
		Action:   "catalog_imported",
		Entity:   "service",
		Metadata: res,
	})

	return res, nil
}

func clearCatalog(tx *gorm.DB) error {
	global := tx.Session(&gorm.Session{AllowGlobalUpdate: true})
	for _, m := range []any{&models.PackageService{}, &models.Package{}, &models.Service{}} {
		if err := global.Delete(m).Error; err != nil {
			return err
		}
	}
	return nil
}

func upsertService(tx *gorm.DB, rec ServiceRecord) (*models.Service, bool, error) {
	name := strings.TrimSpace(rec.Name)
	if name == "" {
		return nil, false, nil
	}

	svc := models.Service{
		Name:             name,
		Description:      rec.Description,
		DurationMin:      valueOr(rec.Duration, defaultServiceDuration),
		Price:            valueOr(rec.Price, 0),
		SessionsRequired: valueOr(rec.SessionsRequired, 1),
		IsActive:         valueOr(rec.IsActive, true),
	}

	var existing models.Service
	err := tx.Where("name = ?", name).First(&existing).Error
	switch {
	case err == nil:
		svc.ID = existing.ID
		svc.CreatedAt = existing.CreatedAt
		return &svc, false, tx.Save(&svc).Error
	case errors.Is(err, gorm.ErrRecordNotFound):
		return &svc, true, tx.Create(&svc).Error
	default:
		return nil, false, err
	}
}

// upsertPackage returns nil for created when the record was skipped.
func upsertPackage(tx *gorm.DB, rec PackageRecord, services []models.Service) (created *bool, warning string, err error) {
	name := strings.TrimSpace(rec.Name)
	if name == "" {
		return nil, "", nil
	}

	price, ok := packagePrice(rec)
	if !ok {
		return nil, fmt.Sprintf("package %s has no price, skipped", name), nil
	}

	description := rec.Description
	if rec.Products != "" {
		if description != "" {
			description += "\n\n"
		}
		description += "Products included: " + rec.Products
	}

	original := price
	pkg := models.Package{
		Name:          name,
		Description:   description,
		TotalSessions: valueOr(rec.TotalSessions, defaultPackageSessions),
		OriginalPrice: &original,
		Price:         discounted(price, DefaultDiscount),
		IsActive:      true,
	}

	var existing models.Package
	err = tx.Where("name = ?", name).First(&existing).Error
	switch {
	case err == nil:
		pkg.ID = existing.ID
		pkg.CreatedAt = existing.CreatedAt
		err = tx.Omit("Services").Save(&pkg).Error
		created = boolPtr(false)
	case errors.Is(err, gorm.ErrRecordNotFound):
		err = tx.Omit("Services").Create(&pkg).Error
		created = boolPtr(true)
	}
	if err != nil {
		return nil, "", err
	}

	linked := linkServices(rec, description, services)
	if len(linked) < MinPackageServices {
		warning = fmt.Sprintf("package %s matched %d services, filled to %d", name, len(linked), MinPackageServices)
		linked = fillServices(linked, services, MinPackageServices)
	}
	if len(linked) > MaxPackageServices {
		linked = linked[:MaxPackageServices]
	}

	if err := tx.Model(&pkg).Association("Services").Replace(linked); err != nil {
		return nil, "", err
	}

	return created, warning, nil
}

var dollarAmount = regexp.MustCompile(`\$(\d+)`)

// packagePrice uses the explicit price, else the sum of "$N" amounts in the
// description.
func packagePrice(rec PackageRecord) (float64, bool) {
	if rec.Price != nil && *rec.Price > 0 {
		return *rec.Price, true
	}

	var total float64
	for _, m := range dollarAmount.FindAllStringSubmatch(rec.Description, -1) {
		n, err := strconv.Atoi(m[1])
		if err == nil {
			total += float64(n)
		}
	}
	return total, total > 0
}

func linkServices(rec PackageRecord, description string, services []models.Service) []models.Service {
	var out []models.Service
	seen := map[uint]bool{}
	add := func(s models.Service) {
		if !seen[s.ID] {
			seen[s.ID] = true
			out = append(out, s)
		}
	}

	if len(rec.Services) > 0 {
		byName := map[string]models.Service{}
		for _, s := range services {
			byName[strings.ToLower(s.Name)] = s
		}
		for _, n := range rec.Services {
			if s, ok := byName[strings.ToLower(strings.TrimSpace(n))]; ok {
				add(s)
			}
		}
		return out
	}

	for _, s := range services {
		if mentions(description, s.Name) {
			add(s)
		}
	}
	return out
}

// mentions matches a service name against free text by its key terms:
// words longer than three letters. Two hits, or the only key term, count.
func mentions(text, serviceName string) bool {
	text = strings.ToLower(text)

	var terms []string
	for _, w := range strings.Fields(strings.ToLower(serviceName)) {
		if len(w) > 3 {
			terms = append(terms, w)
		}
	}

	hits := 0
	for _, t := range terms {
		if strings.Contains(text, t) {
			hits++
		}
	}
	return hits >= 2 || (len(terms) == 1 && hits == 1)
}

func fillServices(linked, all []models.Service, n int) []models.Service {
	seen := map[uint]bool{}
	for _, s := range linked {
		seen[s.ID] = true
	}
	for _, s := range all {
		if len(linked) >= n {
			break
		}
		if !seen[s.ID] {
			seen[s.ID] = true
			linked = append(linked, s)
		}
	}
	return linked
}

func valueOr[T any](p *T, def T) T {
	if p == nil {
		return def
	}
	return *p
}

func boolPtr(v bool) *bool { return &v }
