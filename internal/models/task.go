package models

import "time"

// MaxTaskContentLength is the longest content a task may hold, in characters.
const MaxTaskContentLength = 200

// Task is a to-do item owned by exactly one Account.
type Task struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	Content   string    `json:"content" gorm:"type:varchar(200);not null"`
	CreatedAt time.Time `json:"created_at" gorm:"index;not null"`
	Complete  bool      `json:"complete" gorm:"not null;default:false"`
	AccountID uint      `json:"account_id" gorm:"not null;index"`
}
