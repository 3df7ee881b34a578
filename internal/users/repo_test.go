package users

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/homefix/homeservices-backend/internal/dbtest"
	"github.com/homefix/homeservices-backend/pkg/db"
	"github.com/homefix/homeservices-backend/pkg/enums"
)

func TestRepositoryCreateAndLookup(t *testing.T) {
	conn := dbtest.Open(t)
	repo := NewRepository(conn)
	ctx := context.Background()

	user, err := repo.Create(ctx, CreateUserDTO{
		Role:         enums.UserRoleCustomer,
		Name:         " Asha ",
		Email:        "Asha@Example.com",
		Phone:        "+919800000001",
		PasswordHash: "hash",
	})
	require.NoError(t, err)
	assert.NotEqual(t, uuid.Nil, user.ID)
	assert.Equal(t, "asha@example.com", user.Email)
	assert.True(t, user.IsActive)
	assert.False(t, user.PhoneVerified)

	byPhone, err := repo.FindByPhone(ctx, "+919800000001")
	require.NoError(t, err)
	assert.Equal(t, user.ID, byPhone.ID)

	exists, err := repo.ExistsByEmailOrPhone(ctx, "other@example.com", "+919800000001")
	require.NoError(t, err)
	assert.True(t, exists)

	_, err = repo.FindByPhone(ctx, "+910000000000")
	assert.True(t, db.IsNotFound(err))
}

func TestRepositoryVerificationFlags(t *testing.T) {
	conn := dbtest.Open(t)
	repo := NewRepository(conn)
	ctx := context.Background()
	user := dbtest.SeedUser(t, conn, enums.UserRoleCustomer, "")

	require.NoError(t, repo.MarkPhoneVerified(ctx, user.ID))
	require.NoError(t, repo.AttachAadhaar(ctx, user.ID, "123412341234"))
	require.NoError(t, repo.UpdateLastLogin(ctx, user.ID, time.Now().UTC()))

	reloaded, err := repo.FindByID(ctx, user.ID)
	require.NoError(t, err)
	assert.True(t, reloaded.PhoneVerified)
	require.NotNil(t, reloaded.AadhaarNumber)
	assert.Equal(t, "123412341234", *reloaded.AadhaarNumber)
	assert.False(t, reloaded.AadhaarVerified)
	assert.NotNil(t, reloaded.LastLoginAt)

	require.NoError(t, repo.MarkAadhaarVerified(ctx, user.ID))
	reloaded, err = repo.FindByID(ctx, user.ID)
	require.NoError(t, err)
	assert.True(t, reloaded.AadhaarVerified)
}

func TestRepositoryAadhaarUniqueness(t *testing.T) {
	conn := dbtest.Open(t)
	repo := NewRepository(conn)
	ctx := context.Background()
	first := dbtest.SeedUser(t, conn, enums.UserRoleCustomer, "")
	second := dbtest.SeedUser(t, conn, enums.UserRoleCustomer, "")

	require.NoError(t, repo.AttachAadhaar(ctx, first.ID, "999988887777"))

	holder, err := repo.FindAadhaarHolder(ctx, "999988887777", second.ID)
	require.NoError(t, err)
	assert.Equal(t, first.ID, holder.ID)

	_, err = repo.FindAadhaarHolder(ctx, "999988887777", first.ID)
	assert.True(t, db.IsNotFound(err))

	err = conn.Transaction(func(tx *gorm.DB) error {
		return repo.WithTx(tx).AttachAadhaar(ctx, second.ID, "999988887777")
	})
	require.Error(t, err)
	assert.True(t, db.IsUniqueViolation(err, ""))
}

func TestFromModelMasksAadhaar(t *testing.T) {
	number := "123456789012"
	dto := FromModel(dbtestUser(number))
	require.NotNil(t, dto.AadhaarNumber)
	assert.Equal(t, "XXXXXXXX9012", *dto.AadhaarNumber)
	assert.Nil(t, FromModel(nil))
}

func TestRepositoryUpdateProfileKeepsBlankFields(t *testing.T) {
	conn := dbtest.Open(t)
	repo := NewRepository(conn)
	ctx := context.Background()
	user := dbtest.SeedUser(t, conn, enums.UserRoleCustomer, "")
	at := time.Date(2026, 7, 1, 10, 0, 0, 0, time.UTC)

	name, city, pincode := " Meera Iyer ", "Chennai", "600041"
	updated, err := repo.UpdateProfile(ctx, user.ID, ProfileUpdate{Name: &name, City: &city, Pincode: &pincode}, at)
	require.NoError(t, err)
	assert.Equal(t, "Meera Iyer", updated.Name)
	require.NotNil(t, updated.City)
	assert.Equal(t, "Chennai", *updated.City)
	assert.Equal(t, "600041", *updated.Pincode)
	assert.Nil(t, updated.Address)

	blank := "   "
	updated, err = repo.UpdateProfile(ctx, user.ID, ProfileUpdate{Name: &blank, City: &blank}, at.Add(time.Hour))
	require.NoError(t, err)
	assert.Equal(t, "Meera Iyer", updated.Name)
	assert.Equal(t, "Chennai", *updated.City)

	dto := FromModel(updated)
	assert.Equal(t, "600041", *dto.Pincode)
}

func TestRepositoryUpdateProfileUnknownUser(t *testing.T) {
	repo := NewRepository(dbtest.Open(t))
	name := "Ghost"

	_, err := repo.UpdateProfile(context.Background(), uuid.New(), ProfileUpdate{Name: &name}, time.Now().UTC())
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}
