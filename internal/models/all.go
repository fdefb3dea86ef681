package models

// All returns every persisted model, in migration order.
func All() []any {
	return []any{
		&Admin{},
		&APIKey{},
		&Retreat{},
		&Registration{},
		&RegistrationHistory{},
		&AttendanceSession{},
		&AttendanceRecord{},
	}
}
