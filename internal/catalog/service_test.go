package catalog

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/homefix/homeservices-backend/internal/dbtest"
	"github.com/homefix/homeservices-backend/pkg/db/models"
)

func TestListActiveSkipsInactiveAndFiltersCategory(t *testing.T) {
	conn := dbtest.Open(t)
	for _, svc := range []models.Service{
		{Name: "Wall painting", Category: "painting", BasePrice: decimal.NewFromInt(900), Unit: "room", IsActive: true},
		{Name: "Tap fix", Category: "plumbing", BasePrice: decimal.NewFromInt(200), Unit: "visit", IsActive: true},
		{Name: "Retired", Category: "plumbing", BasePrice: decimal.NewFromInt(1), Unit: "visit", IsActive: false},
	} {
		svc := svc
		require.NoError(t, conn.Create(&svc).Error)
	}
	catalog, err := NewService(conn)
	require.NoError(t, err)

	all, err := catalog.ListActive(context.Background(), ListFilter{})
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "Wall painting", all[0].Name)

	plumbing, err := catalog.ListActive(context.Background(), ListFilter{Category: "plumbing"})
	require.NoError(t, err)
	require.Len(t, plumbing, 1)
	assert.Equal(t, "Tap fix", plumbing[0].Name)
}

func TestSeedIsIdempotent(t *testing.T) {
	conn := dbtest.Open(t)
	ctx := context.Background()

	created, err := Seed(ctx, conn, DefaultCatalog)
	require.NoError(t, err)
	assert.Equal(t, len(DefaultCatalog), created)

	require.NoError(t, conn.Model(&models.Service{}).
		Where("name = ?", "AC Installation").
		Update("base_price", decimal.NewFromInt(1400)).Error)

	again, err := Seed(ctx, conn, DefaultCatalog)
	require.NoError(t, err)
	assert.Zero(t, again)

	var ac models.Service
	require.NoError(t, conn.Where("name = ?", "AC Installation").First(&ac).Error)
	assert.True(t, ac.BasePrice.Equal(decimal.NewFromInt(1400)), "re-seeding must keep edited prices")

	catalog, err := NewService(conn)
	require.NoError(t, err)
	painters, err := catalog.ListActive(ctx, ListFilter{Category: "painter"})
	require.NoError(t, err)
	assert.Len(t, painters, 2)
}

func TestListActiveSearchesNameAndDescription(t *testing.T) {
	conn := dbtest.Open(t)
	_, err := Seed(context.Background(), conn, DefaultCatalog)
	require.NoError(t, err)
	desc := "Covers 100% of leaks"
	require.NoError(t, conn.Create(&models.Service{Name: "Leak audit", Description: &desc, Category: "plumber", BasePrice: decimal.NewFromInt(300), Unit: "visit", IsActive: true}).Error)
	catalog, err := NewService(conn)
	require.NoError(t, err)
	ctx := context.Background()

	byName, err := catalog.ListActive(ctx, ListFilter{Search: "ac install"})
	require.NoError(t, err)
	require.Len(t, byName, 1)
	assert.Equal(t, "AC Installation", byName[0].Name)

	literal, err := catalog.ListActive(ctx, ListFilter{Search: "100%"})
	require.NoError(t, err)
	require.Len(t, literal, 1)
	assert.Equal(t, "Leak audit", literal[0].Name)

	none, err := catalog.ListActive(ctx, ListFilter{Category: "electrician", Search: "leak"})
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestCategoriesCountActiveServices(t *testing.T) {
	conn := dbtest.Open(t)
	for _, svc := range []models.Service{
		{Name: "Wall painting", Category: "painter", BasePrice: decimal.NewFromInt(900), Unit: "room", IsActive: true},
		{Name: "Texture", Category: "painter", BasePrice: decimal.NewFromInt(1500), Unit: "room", IsActive: true},
		{Name: "Tap fix", Category: "plumber", BasePrice: decimal.NewFromInt(200), Unit: "visit", IsActive: true},
		{Name: "Retired", Category: "carpenter", BasePrice: decimal.NewFromInt(1), Unit: "visit", IsActive: false},
	} {
		svc := svc
		require.NoError(t, conn.Create(&svc).Error)
	}
	catalog, err := NewService(conn)
	require.NoError(t, err)

	counts, err := catalog.Categories(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []CategoryCount{{Category: "painter", Count: 2}, {Category: "plumber", Count: 1}}, counts)
}
