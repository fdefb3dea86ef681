package models

import (
	"gorm.io/gorm"
)

type RegistrationHistory struct {
	gorm.Model
	RegistrationID     uint `json:"registration_id" gorm:"index"`
	RetreatID          uint `json:"retreat_id"`
	ChangedByID        uint `json:"changed_by_id"`
	RegistrationFields `gorm:"embedded"`
}
