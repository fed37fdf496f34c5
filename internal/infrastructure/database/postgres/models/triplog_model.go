package models

import (
	"time"

	"rx-logistics/internal/domain/triplog"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
)

// TripLogModel represents the database model for TripLog
type TripLogModel struct {
	ID         int64                                 `gorm:"primaryKey;autoIncrement"`
	UserID     uuid.UUID                             `gorm:"type:uuid;not null;index"`
	DriverName string                                `gorm:"type:varchar(255);not null"`
	RouteID    string                                `gorm:"type:varchar(50);not null;index"`
	Odometer   decimal.Decimal                       `gorm:"type:numeric(12,1);not null"`
	TripType   string                                `gorm:"type:varchar(20);not null;index"`
	Checklist  datatypes.JSONType[triplog.Checklist] `gorm:"type:jsonb;not null"`
	Images     datatypes.JSONType[triplog.Images]    `gorm:"type:jsonb;not null"`
	Notes      string                                `gorm:"type:text;not null"`
	// IssueCount is derived from Checklist on every write so listings can
	// filter on it without reading the JSON.
	IssueCount int       `gorm:"not null;index"`
	ShareToken *string   `gorm:"type:varchar(64);uniqueIndex"`
	EditCount  int       `gorm:"not null"`
	CreatedAt  time.Time `gorm:"not null;index"`
	UpdatedAt  time.Time `gorm:"not null"`
}

func (TripLogModel) TableName() string {
	return "trip_logs"
}
