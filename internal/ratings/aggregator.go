// Package ratings maintains each provider's running review average.
package ratings

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/homefix/homeservices-backend/pkg/db/models"
	pkgerrors "github.com/homefix/homeservices-backend/pkg/errors"
)

const (
	MinRating = 1
	MaxRating = 5
)

var ErrProviderNotFound = errors.New("provider profile not found")

// Aggregator folds new review scores into service_providers.rating.
type Aggregator struct{}

func NewAggregator() *Aggregator {
	return &Aggregator{}
}

// ValidRating reports whether rating is an accepted review score.
func ValidRating(rating int) bool {
	return rating >= MinRating && rating <= MaxRating
}

// Apply adds one review score to the provider's mean and count inside tx.
// The update is a single statement so concurrent reviews never lose a write.
// Calling it twice for the same review skews the mean; callers guard that.
func (a *Aggregator) Apply(ctx context.Context, tx *gorm.DB, providerID uuid.UUID, rating int) (*models.ServiceProvider, error) {
	if tx == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "transaction required")
	}
	if !ValidRating(rating) {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "rating must be between 1 and 5")
	}

	res := tx.WithContext(ctx).
		Model(&models.ServiceProvider{}).
		Where("user_id = ?", providerID).
		UpdateColumns(map[string]any{
			"rating":        gorm.Expr("(rating * total_reviews + ?) / (total_reviews + 1.0)", float64(rating)),
			"total_reviews": gorm.Expr("total_reviews + 1"),
		})
	if res.Error != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, res.Error, "update provider rating")
	}
	if res.RowsAffected == 0 {
		return nil, pkgerrors.Wrap(pkgerrors.CodeNotFound, ErrProviderNotFound, "provider profile not found")
	}

	var profile models.ServiceProvider
	if err := tx.WithContext(ctx).Where("user_id = ?", providerID).First(&profile).Error; err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "reload provider profile")
	}
	return &profile, nil
}
