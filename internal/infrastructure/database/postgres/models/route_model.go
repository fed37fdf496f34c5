package models

import (
	"rx-logistics/internal/domain/route"

	"gorm.io/datatypes"
)

// RouteModel stores a delivery route. Stops keep their delivery order inside
// the JSON array.
type RouteModel struct {
	Code         string                          `gorm:"type:varchar(10);primary_key"`
	Region       string                          `gorm:"type:varchar(100);not null"`
	ScannerPhone string                          `gorm:"type:varchar(30);not null"`
	Duration     string                          `gorm:"type:varchar(30);not null"`
	Stops        datatypes.JSONSlice[route.Stop] `gorm:"type:jsonb;not null"`
}

func (RouteModel) TableName() string {
	return "routes"
}
