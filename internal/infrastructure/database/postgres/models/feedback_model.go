package models

import (
	"time"

	"github.com/google/uuid"
)

type FeedbackModel struct {
	ID        uuid.UUID `gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	Name      string    `gorm:"type:varchar(255);not null"`
	Email     string    `gorm:"type:varchar(255);not null"`
	Subject   string    `gorm:"type:varchar(50);not null"`
	Message   string    `gorm:"type:text;not null"`
	IsRead    bool      `gorm:"not null;index"`
	CreatedAt time.Time `gorm:"not null;index"`
}

func (FeedbackModel) TableName() string {
	return "feedback"
}
