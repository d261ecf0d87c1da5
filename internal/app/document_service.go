package app

import (
	"context"
	"fmt"
	"strings"

	"docuchat/internal/extract"
	"docuchat/internal/model"
	"docuchat/internal/repository"
)

// HistoryCache is the optional redis-backed message list cache. A nil cache
// disables all caching.
type HistoryCache interface {
	GetHistory(ctx context.Context, sessionID uint) ([]model.Message, bool, error)
	SetHistory(ctx context.Context, sessionID uint, messages []model.Message) error
	DeleteHistory(ctx context.Context, sessionID uint) error
	MarkDirty(ctx context.Context, sessionID uint) error
	IsDirty(ctx context.Context, sessionID uint) (bool, error)
}

type DocumentService struct {
	docRepo      *repository.DocumentRepository
	sessionRepo  *repository.SessionRepository
	messageRepo  *repository.MessageRepository
	historyCache HistoryCache
	maxSize      int64
}

type UploadInput struct {
	Filename    string
	ContentType string
	Size        int64
	Data        []byte
}

type UploadResult struct {
	Document model.Document `json:"document"`
	Session  model.Session  `json:"session"`
}

func NewDocumentService(
	docRepo *repository.DocumentRepository,
	sessionRepo *repository.SessionRepository,
	messageRepo *repository.MessageRepository,
	historyCache HistoryCache,
	maxSize int64,
) *DocumentService {
	if maxSize <= 0 {
		maxSize = 10 << 20
	}
	return &DocumentService{
		docRepo:      docRepo,
		sessionRepo:  sessionRepo,
		messageRepo:  messageRepo,
		historyCache: historyCache,
		maxSize:      maxSize,
	}
}

// Upload validates size and type before anything is written, extracts the
// text, then persists document, initial session and the seeded system
// greeting for that session.
func (s *DocumentService) Upload(input UploadInput) (*UploadResult, error) {
	filename := strings.TrimSpace(input.Filename)
	if filename == "" || len(input.Data) == 0 {
		return nil, ErrInvalidInput
	}
	if input.Size > s.maxSize || int64(len(input.Data)) > s.maxSize {
		return nil, ErrFileTooLarge
	}
	if !extract.Supported(input.ContentType) {
		return nil, extract.ErrUnsupportedType
	}

	content, err := extract.Text(input.ContentType, input.Data)
	if err != nil {
		return nil, err
	}

	doc := &model.Document{
		Name:        filename,
		Filename:    filename,
		ContentType: input.ContentType,
		Size:        int64(len(input.Data)),
		Content:     content,
	}
	if err := s.docRepo.Create(doc); err != nil {
		return nil, err
	}

	session, err := s.seedSession(doc)
	if err != nil {
		return nil, err
	}

	return &UploadResult{Document: *doc, Session: *session}, nil
}

func (s *DocumentService) List() ([]model.Document, error) {
	return s.docRepo.List()
}

func (s *DocumentService) Get(id uint) (*model.Document, error) {
	if id == 0 {
		return nil, ErrInvalidInput
	}
	doc, err := s.docRepo.GetByID(id)
	if err != nil {
		return nil, err
	}
	if doc == nil {
		return nil, ErrDocumentNotFound
	}
	return doc, nil
}

// Delete removes the document together with its sessions and their messages.
// The original store left sessions orphaned on document delete; cascading
// here is the deliberate replacement for that silent gap.
func (s *DocumentService) Delete(ctx context.Context, id uint) error {
	if id == 0 {
		return ErrInvalidInput
	}

	sessions, err := s.sessionRepo.ListByDocumentID(id)
	if err != nil {
		return err
	}

	existed, err := s.docRepo.Delete(id)
	if err != nil {
		return err
	}
	if !existed {
		return ErrDocumentNotFound
	}

	sessionIDs := make([]uint, 0, len(sessions))
	for _, session := range sessions {
		sessionIDs = append(sessionIDs, session.ID)
	}
	if err := s.messageRepo.DeleteBySessionIDs(sessionIDs); err != nil {
		return err
	}
	if err := s.sessionRepo.DeleteByDocumentID(id); err != nil {
		return err
	}
	if s.historyCache != nil {
		for _, sessionID := range sessionIDs {
			_ = s.historyCache.DeleteHistory(ctx, sessionID)
		}
	}
	return nil
}

// ListSessions returns the document's sessions, most recently active first.
func (s *DocumentService) ListSessions(documentID uint) ([]model.Session, error) {
	if _, err := s.Get(documentID); err != nil {
		return nil, err
	}
	return s.sessionRepo.ListByDocumentID(documentID)
}

// CreateSession opens a fresh conversation over an existing document,
// seeded with the system greeting.
func (s *DocumentService) CreateSession(documentID uint) (*model.Session, error) {
	doc, err := s.Get(documentID)
	if err != nil {
		return nil, err
	}
	return s.seedSession(doc)
}

// ListMessages returns the session history in ascending timestamp order,
// served from the cache when it is populated and clean.
func (s *DocumentService) ListMessages(ctx context.Context, sessionID uint) ([]model.Message, error) {
	if sessionID == 0 {
		return nil, ErrInvalidInput
	}
	session, err := s.sessionRepo.GetByID(sessionID)
	if err != nil {
		return nil, err
	}
	if session == nil {
		return nil, ErrSessionNotFound
	}

	if s.historyCache != nil {
		if dirty, err := s.historyCache.IsDirty(ctx, sessionID); err == nil && !dirty {
			if cached, hit, cacheErr := s.historyCache.GetHistory(ctx, sessionID); cacheErr == nil && hit {
				return cached, nil
			}
		}
	}

	messages, err := s.messageRepo.ListBySessionID(sessionID)
	if err != nil {
		return nil, err
	}
	if s.historyCache != nil {
		if dirty, dirtyErr := s.historyCache.IsDirty(ctx, sessionID); dirtyErr == nil && !dirty {
			_ = s.historyCache.SetHistory(ctx, sessionID, messages)
		}
	}
	return messages, nil
}

func (s *DocumentService) seedSession(doc *model.Document) (*model.Session, error) {
	session := &model.Session{
		DocumentID: doc.ID,
		Title:      fmt.Sprintf("Chat about %s", doc.Name),
	}
	if err := s.sessionRepo.Create(session); err != nil {
		return nil, err
	}

	greeting := &model.Message{
		SessionID: session.ID,
		Role:      model.RoleSystem,
		Content:   fmt.Sprintf("I've processed %q. Ask me anything about its contents.", doc.Name),
	}
	if err := s.messageRepo.Create(greeting); err != nil {
		return nil, err
	}
	session.LastMessageAt = greeting.CreatedAt
	return session, nil
}
