package app

import (
	"context"
	"fmt"
	"strings"

	"docuchat/internal/ai"
	"docuchat/internal/model"
	"docuchat/internal/repository"
)

const systemInstructions = "You are a helpful assistant answering questions about a document " +
	"the user uploaded. Base every answer on the document content below. " +
	"If the document does not contain the answer, say so instead of guessing."

// Completer is the hosted chat completion API. One call per chat turn, no
// retries; a failure aborts the whole turn.
type Completer interface {
	Complete(ctx context.Context, cfg ai.ChatConfig, messages []ai.ChatMessage) (string, error)
}

type ChatService struct {
	docRepo      *repository.DocumentRepository
	sessionRepo  *repository.SessionRepository
	messageRepo  *repository.MessageRepository
	historyCache HistoryCache
	completer    Completer
	llm          ai.ChatConfig
}

type SendInput struct {
	DocumentID uint
	SessionID  uint // 0 = start a new session
	Content    string
}

type SendResult struct {
	Session     model.Session `json:"session"`
	UserMessage model.Message `json:"user_message"`
	AIMessage   model.Message `json:"ai_message"`
}

func NewChatService(
	docRepo *repository.DocumentRepository,
	sessionRepo *repository.SessionRepository,
	messageRepo *repository.MessageRepository,
	historyCache HistoryCache,
	completer Completer,
	llm ai.ChatConfig,
) *ChatService {
	return &ChatService{
		docRepo:      docRepo,
		sessionRepo:  sessionRepo,
		messageRepo:  messageRepo,
		historyCache: historyCache,
		completer:    completer,
		llm:          llm,
	}
}

// Send runs one chat turn: resolve the document and session, persist the
// user's message, assemble the prompt from the document plus the full
// history, call the completion API and persist its reply.
//
// The user message is committed before the completion call, so a downstream
// failure leaves it in the history without an assistant reply.
func (s *ChatService) Send(ctx context.Context, input SendInput) (*SendResult, error) {
	if input.DocumentID == 0 {
		return nil, ErrInvalidInput
	}
	content := strings.TrimSpace(input.Content)
	if content == "" {
		return nil, ErrMessageEmpty
	}

	doc, err := s.docRepo.GetByID(input.DocumentID)
	if err != nil {
		return nil, err
	}
	if doc == nil {
		return nil, ErrDocumentNotFound
	}

	session, err := s.resolveSession(doc, input.SessionID)
	if err != nil {
		return nil, err
	}

	if s.historyCache != nil {
		_ = s.historyCache.MarkDirty(ctx, session.ID)
		_ = s.historyCache.DeleteHistory(ctx, session.ID)
	}

	userMessage := &model.Message{
		SessionID: session.ID,
		Role:      model.RoleUser,
		Content:   content,
	}
	if err := s.messageRepo.Create(userMessage); err != nil {
		return nil, err
	}

	history, err := s.messageRepo.ListBySessionID(session.ID)
	if err != nil {
		return nil, err
	}

	reply, err := s.completer.Complete(ctx, s.llm, buildPrompt(doc, history))
	if err != nil {
		return nil, fmt.Errorf("chat completion failed: %w", err)
	}
	reply = strings.TrimSpace(reply)
	if reply == "" {
		reply = "The model returned an empty response."
	}

	aiMessage := &model.Message{
		SessionID: session.ID,
		Role:      model.RoleAssistant,
		Content:   reply,
	}
	if err := s.messageRepo.Create(aiMessage); err != nil {
		return nil, err
	}
	session.LastMessageAt = aiMessage.CreatedAt

	if s.historyCache != nil {
		_ = s.historyCache.DeleteHistory(ctx, session.ID)
	}

	return &SendResult{
		Session:     *session,
		UserMessage: *userMessage,
		AIMessage:   *aiMessage,
	}, nil
}

func (s *ChatService) resolveSession(doc *model.Document, sessionID uint) (*model.Session, error) {
	if sessionID != 0 {
		session, err := s.sessionRepo.GetByID(sessionID)
		if err != nil {
			return nil, err
		}
		// a session belonging to another document is as good as absent
		if session == nil || session.DocumentID != doc.ID {
			return nil, ErrSessionNotFound
		}
		return session, nil
	}

	session := &model.Session{
		DocumentID: doc.ID,
		Title:      fmt.Sprintf("Chat about %s", doc.Name),
	}
	if err := s.sessionRepo.Create(session); err != nil {
		return nil, err
	}
	return session, nil
}

// buildPrompt prepends one system message carrying the instructions and the
// full document text, then replays the complete history with roles kept as
// stored. The user's latest message is already part of history.
func buildPrompt(doc *model.Document, history []model.Message) []ai.ChatMessage {
	messages := make([]ai.ChatMessage, 0, len(history)+1)
	messages = append(messages, ai.ChatMessage{
		Role:    model.RoleSystem,
		Content: fmt.Sprintf("%s\n\nDocument: %s\n\n%s", systemInstructions, doc.Name, doc.Content),
	})
	for _, item := range history {
		role := item.Role
		if role == "" {
			role = model.RoleUser
		}
		messages = append(messages, ai.ChatMessage{
			Role:    role,
			Content: item.Content,
		})
	}
	return messages
}
