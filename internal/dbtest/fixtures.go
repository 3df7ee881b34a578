package dbtest

import (
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/homefix/homeservices-backend/pkg/db/models"
	"github.com/homefix/homeservices-backend/pkg/enums"
)

// SeedUser inserts an active, unverified user with a unique email and phone.
func SeedUser(t *testing.T, conn *gorm.DB, role enums.UserRole, phone string) *models.User {
	t.Helper()
	id := uuid.New()
	if phone == "" {
		phone = fmt.Sprintf("+91%010d", uint64(id.ID())%10000000000)
	}
	user := &models.User{
		ID:           id,
		Role:         role,
		Name:         "User " + id.String()[:8],
		Email:        id.String() + "@example.test",
		Phone:        phone,
		PasswordHash: "x",
		IsActive:     true,
	}
	require.NoError(t, conn.Create(user).Error)
	return user
}

// SeedProvider inserts a provider user plus its profile.
func SeedProvider(t *testing.T, conn *gorm.DB, available bool) *models.ServiceProvider {
	t.Helper()
	user := SeedUser(t, conn, enums.UserRoleServiceProvider, "")
	profile := &models.ServiceProvider{
		UserID:      user.ID,
		HourlyRate:  decimal.NewFromInt(500),
		IsAvailable: available,
	}
	require.NoError(t, conn.Create(profile).Error)
	profile.User = user
	return profile
}

// SeedService inserts a catalog service.
func SeedService(t *testing.T, conn *gorm.DB, active bool) *models.Service {
	t.Helper()
	svc := &models.Service{
		Name:      "Pipe repair",
		Category:  "plumbing",
		BasePrice: decimal.NewFromInt(300),
		Unit:      "hour",
		IsActive:  active,
	}
	require.NoError(t, conn.Create(svc).Error)
	return svc
}
