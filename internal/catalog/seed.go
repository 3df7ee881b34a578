package catalog

import (
	"context"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/homefix/homeservices-backend/pkg/db/models"
	pkgerrors "github.com/homefix/homeservices-backend/pkg/errors"
)

// SeedEntry is one catalog row installed by Seed.
type SeedEntry struct {
	Name        string
	Description string
	Category    string
	BasePrice   int64
	Unit        string
}

// DefaultCatalog is the launch catalog, priced in rupees.
var DefaultCatalog = []SeedEntry{
	{"Plumbing Repair", "General plumbing repairs and maintenance", "plumber", 500, "per hour"},
	{"Pipe Installation", "New pipe installation and replacement", "plumber", 800, "per hour"},
	{"Interior Painting", "Interior wall and ceiling painting", "painter", 400, "per sq ft"},
	{"Exterior Painting", "Exterior wall painting and waterproofing", "painter", 600, "per sq ft"},
	{"Electrical Wiring", "Electrical wiring and installation", "electrician", 550, "per hour"},
	{"AC Installation", "Air conditioner installation and repair", "electrician", 1200, "per unit"},
	{"Structural Design", "Building structural design and consultation", "civil-engineer", 1500, "per hour"},
	{"Marble Installation", "Marble flooring and wall installation", "marble-provider", 800, "per sq ft"},
	{"Construction Labor", "General construction and manual labor", "laborer", 300, "per day"},
}

// Seed inserts entries missing by (name, category) and reports how many rows
// it created. Existing rows are left untouched so prices edited in
// production survive a re-run.
func Seed(ctx context.Context, db *gorm.DB, entries []SeedEntry) (int, error) {
	if db == nil {
		return 0, pkgerrors.New(pkgerrors.CodeInternal, "database required")
	}
	created := 0
	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, entry := range entries {
			var existing int64
			if err := tx.Model(&models.Service{}).
				Where("name = ? AND category = ?", entry.Name, entry.Category).
				Count(&existing).Error; err != nil {
				return err
			}
			if existing > 0 {
				continue
			}
			description := entry.Description
			row := &models.Service{
				Name:        entry.Name,
				Description: &description,
				Category:    entry.Category,
				BasePrice:   decimal.NewFromInt(entry.BasePrice),
				Unit:        entry.Unit,
				IsActive:    true,
			}
			if err := tx.Create(row).Error; err != nil {
				return err
			}
			created++
		}
		return nil
	})
	if err != nil {
		return 0, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "seed catalog")
	}
	return created, nil
}
