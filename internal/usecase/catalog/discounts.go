package catalog

import (
	"context"

	"gorm.io/gorm"

	"github.com/BruksfildServices01/clinic-pos/internal/actor"
	"github.com/BruksfildServices01/clinic-pos/internal/audit"
	"github.com/BruksfildServices01/clinic-pos/internal/domain/order"
	"github.com/BruksfildServices01/clinic-pos/internal/models"
)

const DefaultDiscount = 20.0

type PriceChange struct {
	Package  string  `json:"package"`
	Original float64 `json:"original_price"`
	Old      float64 `json:"old_price"`
	New      float64 `json:"new_price"`
}

type ApplyPackageDiscount struct {
	db    *gorm.DB
	audit *audit.Dispatcher
}

func NewApplyPackageDiscount(db *gorm.DB, audit *audit.Dispatcher) *ApplyPackageDiscount {
	return &ApplyPackageDiscount{db: db, audit: audit}
}

// Execute prices every package at pct percent off its original price.
// A package without an original price takes its current price as original,
// so running the command twice does not compound the discount.
func (uc *ApplyPackageDiscount) Execute(ctx context.Context, a actor.Actor, pct float64) ([]PriceChange, error) {
	var changes []PriceChange

	err := uc.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var packages []models.Package
		if err := tx.Order("id ASC").Find(&packages).Error; err != nil {
			return err
		}

		for _, p := range packages {
			original := p.Price
			if p.OriginalPrice != nil && *p.OriginalPrice > 0 {
				original = *p.OriginalPrice
			}
			price := discounted(original, pct)

			if err := tx.Model(&models.Package{ID: p.ID}).Updates(map[string]any{
				"original_price": original,
				"price":          price,
			}).Error; err != nil {
				return err
			}

			changes = append(changes, PriceChange{Package: p.Name, Original: original, Old: p.Price, New: price})
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	uc.audit.Dispatch(audit.Event{
		Actor:    a,
		Action:   "package_discounts_applied",
		Entity:   "package",
		Metadata: map[string]any{"discount": pct, "packages": len(changes)},
	})

	return changes, nil
}

func discounted(original, pct float64) float64 {
	return order.RoundCents(original * (1 - pct/100))
}
