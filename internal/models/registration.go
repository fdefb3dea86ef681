package models

import (
	"gorm.io/gorm"
)

type RegistrationFields struct {
	Name           string         `json:"name"`
	Gender         Gender         `json:"gender"`
	Age            int            `json:"age"`
	Category       Category       `json:"category" gorm:"index"`
	Nationality    string         `json:"nationality"`
	Location       string         `json:"location"`
	InvitationType InvitationType `json:"invitation_type"`
	Day            int            `json:"day"`
	Note           string         `json:"note"`
}

type Registration struct {
	gorm.Model
	RetreatID          uint    `json:"retreat_id" gorm:"index"`
	Retreat            Retreat `json:"-" gorm:"foreignKey:RetreatID"`
	RegistrationFields `gorm:"embedded"`
}
