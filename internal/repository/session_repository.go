package repository

import (
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"docuchat/internal/model"
)

type SessionRepository struct {
	db *gorm.DB
}

func NewSessionRepository(db *gorm.DB) *SessionRepository {
	return &SessionRepository{db: db}
}

func (r *SessionRepository) Create(session *model.Session) error {
	now := time.Now()
	if session.CreatedAt.IsZero() {
		session.CreatedAt = now
	}
	if session.LastMessageAt.IsZero() {
		session.LastMessageAt = now
	}
	if err := r.db.Create(session).Error; err != nil {
		return fmt.Errorf("create session failed: %w", err)
	}
	return nil
}

func (r *SessionRepository) ListByDocumentID(documentID uint) ([]model.Session, error) {
	var sessions []model.Session
	if err := r.db.Where("document_id = ?", documentID).
		Order("last_message_at DESC, id DESC").
		Find(&sessions).Error; err != nil {
		return nil, fmt.Errorf("list sessions failed: %w", err)
	}
	return sessions, nil
}

func (r *SessionRepository) GetByID(id uint) (*model.Session, error) {
	var session model.Session
	if err := r.db.First(&session, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("get session failed: %w", err)
	}
	return &session, nil
}

// TouchLastMessage advances the session's last_message_at. A missing session
// is a silent no-op, and a timestamp at or before the current value never
// moves last_message_at backwards.
func (r *SessionRepository) TouchLastMessage(id uint, at time.Time) error {
	if err := r.db.Model(&model.Session{}).
		Where("id = ? AND last_message_at < ?", id, at).
		Update("last_message_at", at).Error; err != nil {
		return fmt.Errorf("touch session failed: %w", err)
	}
	return nil
}

func (r *SessionRepository) DeleteByDocumentID(documentID uint) error {
	if err := r.db.Where("document_id = ?", documentID).Delete(&model.Session{}).Error; err != nil {
		return fmt.Errorf("delete sessions failed: %w", err)
	}
	return nil
}
