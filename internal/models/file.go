package models

import "time"

type FileStatus string

const (
	FileStatusInProcess FileStatus = "in_process"
	FileStatusCompleted FileStatus = "completed"
)

// File is an expediente. It has no status column: the status is derived
// from ExitDate so the two can never disagree.
type File struct {
	ID          uint64     `gorm:"primarykey" json:"id"`
	EntryDate   time.Time  `gorm:"not null;index" json:"entry_date"`
	CaseNumber  string     `gorm:"type:varchar(50);not null;index" json:"case_number"`
	Caption     string     `gorm:"type:varchar(500);not null" json:"caption"`
	ExitDate    *time.Time `gorm:"index" json:"exit_date"`
	Destination string     `gorm:"type:varchar(255)" json:"destination"`
	Notes       string     `gorm:"type:text" json:"notes"`
	CreatorID   uint64     `gorm:"not null;index" json:"creator_id"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`

	// Relations
	Creator User `gorm:"foreignKey:CreatorID" json:"creator,omitempty"`
}

// Status returns completed iff the file has an exit date.
func (f File) Status() FileStatus {
	if f.ExitDate != nil {
		return FileStatusCompleted
	}
	return FileStatusInProcess
}
