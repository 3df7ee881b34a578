package models

import (
	"time"

	"github.com/google/uuid"
)

// ProviderService links a provider to a catalog service they offer.
type ProviderService struct {
	ProviderID uuid.UUID `gorm:"column:provider_id;type:uuid;primaryKey"`
	ServiceID  uuid.UUID `gorm:"column:service_id;type:uuid;primaryKey;index"`
	CreatedAt  time.Time `gorm:"column:created_at;autoCreateTime"`
}

func (ProviderService) TableName() string { return "provider_services" }
