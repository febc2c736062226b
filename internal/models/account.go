package models

import "time"

// Account is a registered user. It starts unverified and becomes verified once
// the owner confirms their email address.
type Account struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	Username  string    `json:"username" gorm:"uniqueIndex;type:varchar(50);not null"`
	Email     string    `json:"email" gorm:"uniqueIndex;type:varchar(255);not null"`
	Password  string    `json:"-" gorm:"type:varchar(255);not null"` // bcrypt hash
	Verified  bool      `json:"verified" gorm:"not null;default:false"`
	CreatedAt time.Time `json:"created_at"`
	Tasks     []Task    `json:"-" gorm:"foreignKey:AccountID;constraint:OnDelete:RESTRICT"`
}
