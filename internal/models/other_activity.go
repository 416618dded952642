package models

import "time"

type OtherActivity struct {
	ID          uint64    `gorm:"primarykey" json:"id"`
	Date        time.Time `gorm:"not null;index" json:"date"`
	Description string    `gorm:"type:text;not null" json:"description"`
	Address     string    `gorm:"type:varchar(255)" json:"address"`
	Notes       string    `gorm:"type:text" json:"notes"`
	CreatorID   uint64    `gorm:"not null;index" json:"creator_id"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// AllModels is the migration set, in dependency order.
func AllModels() []interface{} {
	return []interface{}{
		&User{},
		&File{},
		&Task{},
		&TaskStatusChange{},
		&OtherActivity{},
	}
}
