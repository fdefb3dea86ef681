package models

// RetreatType is the season a retreat is held in.
type RetreatType string

const (
	RetreatSummer RetreatType = "summer"
	RetreatWinter RetreatType = "winter"
)

func (t RetreatType) Valid() bool {
	return t == RetreatSummer || t == RetreatWinter
}

// Category is the life-stage group of an attendee. Sessions are scheduled
// per category as well.
type Category string

const (
	CategoryAdult    Category = "Adult"
	CategoryYouth    Category = "Youth"
	CategoryCampus   Category = "Campus"
	CategoryChildren Category = "Children"
)

// Categories lists every category in display order.
var Categories = []Category{CategoryAdult, CategoryYouth, CategoryCampus, CategoryChildren}

func (c Category) Valid() bool {
	for _, known := range Categories {
		if c == known {
			return true
		}
	}
	return false
}

type InvitationType string

const (
	InvitationMember   InvitationType = "Member"
	InvitationInvited  InvitationType = "Invited"
	InvitationNewcomer InvitationType = "Newcomer"
)

var InvitationTypes = []InvitationType{InvitationMember, InvitationInvited, InvitationNewcomer}

func (t InvitationType) Valid() bool {
	for _, known := range InvitationTypes {
		if t == known {
			return true
		}
	}
	return false
}

type Gender string

const (
	GenderMale   Gender = "Male"
	GenderFemale Gender = "Female"
)

var Genders = []Gender{GenderMale, GenderFemale}

func (g Gender) Valid() bool {
	return g == GenderMale || g == GenderFemale
}
