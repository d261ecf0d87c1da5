package model

import "time"

type Session struct {
	ID            uint      `gorm:"primaryKey" json:"id"`
	DocumentID    uint      `gorm:"not null;index" json:"document_id"`
	Title         string    `gorm:"size:256;not null" json:"title"`
	CreatedAt     time.Time `json:"created_at"`
	LastMessageAt time.Time `gorm:"index" json:"last_message_at"`
}
