package models

// All returns every gorm model for migration.
func All() []interface{} {
	return []interface{}{
		&User{},
		&Board{},
		&Member{},
		&Task{},
		&Invite{},
		&ChatMessage{},
	}
}
