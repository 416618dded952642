package models

import "time"

// TaskStatusChange is one append-only entry of a task's audit list.
type TaskStatusChange struct {
	ID         uint64     `gorm:"primarykey" json:"id"`
	TaskID     uint64     `gorm:"not null;index:idx_status_changes_task_changed,priority:1" json:"task_id"`
	FromStatus TaskStatus `gorm:"type:varchar(20);not null" json:"from"`
	ToStatus   TaskStatus `gorm:"type:varchar(20);not null" json:"to"`
	Note       string     `gorm:"type:text" json:"note"`
	Actor      string     `gorm:"type:varchar(255);not null" json:"actor"`
	ActorID    *uint64    `json:"actor_id"`
	ChangedAt  time.Time  `gorm:"not null;index:idx_status_changes_task_changed,priority:2" json:"changed_at"`
}
