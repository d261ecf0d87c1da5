package repository

import (
	"fmt"
	"time"

	"gorm.io/gorm"

	"docuchat/internal/model"
)

type MessageRepository struct {
	db          *gorm.DB
	sessionRepo *SessionRepository
}

func NewMessageRepository(db *gorm.DB, sessionRepo *SessionRepository) *MessageRepository {
	return &MessageRepository{db: db, sessionRepo: sessionRepo}
}

// Create inserts the message and advances the owning session's
// last_message_at to the message timestamp.
func (r *MessageRepository) Create(message *model.Message) error {
	if message.CreatedAt.IsZero() {
		message.CreatedAt = time.Now()
	}
	if err := r.db.Create(message).Error; err != nil {
		return fmt.Errorf("create message failed: %w", err)
	}
	return r.sessionRepo.TouchLastMessage(message.SessionID, message.CreatedAt)
}

func (r *MessageRepository) ListBySessionID(sessionID uint) ([]model.Message, error) {
	var messages []model.Message
	if err := r.db.Where("session_id = ?", sessionID).
		Order("created_at ASC, id ASC").
		Find(&messages).Error; err != nil {
		return nil, fmt.Errorf("list messages failed: %w", err)
	}
	return messages, nil
}

func (r *MessageRepository) DeleteBySessionIDs(sessionIDs []uint) error {
	if len(sessionIDs) == 0 {
		return nil
	}
	if err := r.db.Where("session_id IN ?", sessionIDs).Delete(&model.Message{}).Error; err != nil {
		return fmt.Errorf("delete messages failed: %w", err)
	}
	return nil
}
