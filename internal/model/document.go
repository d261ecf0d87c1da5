package model

import "time"

// Document is immutable after creation except for deletion. Content holds
// the full extracted text of the uploaded file.
type Document struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	Name        string    `gorm:"size:256;not null" json:"name"`
	Filename    string    `gorm:"size:256;not null" json:"filename"`
	ContentType string    `gorm:"size:128;not null" json:"content_type"`
	Size        int64     `gorm:"not null" json:"size"`
	Content     string    `gorm:"type:text;not null" json:"content"`
	UploadedAt  time.Time `gorm:"index" json:"uploaded_at"`
}
