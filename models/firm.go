package models

import (
	"time"
)

type FirmProfile struct {
	FirmID       int        `gorm:"primaryKey;column:firm_id" json:"firm_id"`
	FirmName     string     `gorm:"column:firm_name" json:"firm_name"`
	ContactEmail string     `gorm:"column:contact_email" json:"contact_email"`
	Industry     string     `gorm:"column:industry" json:"industry"`
	CreateAt     *time.Time `gorm:"column:create_at" json:"create_at"`
	UpdateAt     *time.Time `gorm:"column:update_at" json:"update_at"`
	DeleteAt     *time.Time `gorm:"column:delete_at" json:"delete_at,omitempty"`
}

func (FirmProfile) TableName() string {
	return "firm_profiles"
}
