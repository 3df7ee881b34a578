package dbtest

import (
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/homefix/homeservices-backend/pkg/enums"
)

var indianMobile = regexp.MustCompile(`^\+91\d{10}$`)

func TestSeedUserGeneratesDistinctPhones(t *testing.T) {
	conn := Open(t)

	first := SeedUser(t, conn, enums.UserRoleCustomer, "")
	second := SeedUser(t, conn, enums.UserRoleCustomer, "")

	assert.Regexp(t, indianMobile, first.Phone)
	assert.Regexp(t, indianMobile, second.Phone)
	assert.NotEqual(t, first.Phone, second.Phone)
}

func TestSeedUserKeepsExplicitPhone(t *testing.T) {
	conn := Open(t)
	user := SeedUser(t, conn, enums.UserRoleServiceProvider, "+919812345678")
	require.Equal(t, "+919812345678", user.Phone)
}
