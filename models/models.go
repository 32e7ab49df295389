package models

// All lists the tables owned by the backend, in migration order.
func All() []any {
	return []any{
		&AdminUser{},
		&Client{},
		&Service{},
		&Reservation{},
		&WorkRecord{},
		&ReminderLog{},
	}
}
