package users

import (
	"github.com/google/uuid"

	"github.com/homefix/homeservices-backend/pkg/db/models"
	"github.com/homefix/homeservices-backend/pkg/enums"
)

func dbtestUser(aadhaar string) *models.User {
	return &models.User{
		ID:            uuid.New(),
		Role:          enums.UserRoleCustomer,
		Name:          "Ravi",
		Email:         "ravi@example.com",
		Phone:         "+919811111111",
		AadhaarNumber: &aadhaar,
	}
}
