package app

import (
	"context"
	"errors"
	"strings"
	"testing"

	"gorm.io/gorm"

	"docuchat/internal/ai"
	"docuchat/internal/model"
	"docuchat/internal/repository"
)

type recordingCompleter struct {
	last  []ai.ChatMessage
	reply string
	err   error
}

func (c *recordingCompleter) Complete(ctx context.Context, cfg ai.ChatConfig, messages []ai.ChatMessage) (string, error) {
	_ = ctx
	_ = cfg
	// copy to avoid mutations
	c.last = append([]ai.ChatMessage(nil), messages...)
	if c.err != nil {
		return "", c.err
	}
	return c.reply, nil
}

func newTestChatService(t *testing.T, completer Completer) (*ChatService, *DocumentService, *gorm.DB) {
	t.Helper()
	db := openTestDB(t)
	docRepo := repository.NewDocumentRepository(db)
	sessionRepo := repository.NewSessionRepository(db)
	messageRepo := repository.NewMessageRepository(db, sessionRepo)

	chatSvc := NewChatService(docRepo, sessionRepo, messageRepo, nil, completer, ai.ChatConfig{
		BaseURL: "http://llm.test",
		APIKey:  "test-key",
		Model:   "test-model",
	})
	docSvc := NewDocumentService(docRepo, sessionRepo, messageRepo, nil, 10<<20)
	return chatSvc, docSvc, db
}

func uploadFixture(t *testing.T, docSvc *DocumentService, content string) *UploadResult {
	t.Helper()
	result, err := docSvc.Upload(UploadInput{
		Filename:    "notes.txt",
		ContentType: "text/plain",
		Size:        int64(len(content)),
		Data:        []byte(content),
	})
	if err != nil {
		t.Fatalf("upload fixture: %v", err)
	}
	return result
}

func TestSend_ExistingSessionAppendsTwoMessages(t *testing.T) {
	completer := &recordingCompleter{reply: "It is a greeting."}
	chatSvc, docSvc, db := newTestChatService(t, completer)

	fixture := uploadFixture(t, docSvc, "Hello world")

	result, err := chatSvc.Send(context.Background(), SendInput{
		DocumentID: fixture.Document.ID,
		SessionID:  fixture.Session.ID,
		Content:    "What is this?",
	})
	if err != nil {
		t.Fatalf("send: %v", err)
	}

	if result.Session.ID != fixture.Session.ID {
		t.Fatalf("expected reuse of session %d, got %d", fixture.Session.ID, result.Session.ID)
	}
	if result.UserMessage.Role != model.RoleUser || result.UserMessage.Content != "What is this?" {
		t.Fatalf("unexpected user message: %+v", result.UserMessage)
	}
	if result.AIMessage.Role != model.RoleAssistant || result.AIMessage.Content != "It is a greeting." {
		t.Fatalf("unexpected assistant message: %+v", result.AIMessage)
	}

	var sessionCount int64
	if err := db.Model(&model.Session{}).Count(&sessionCount).Error; err != nil {
		t.Fatalf("count sessions: %v", err)
	}
	if sessionCount != 1 {
		t.Fatalf("expected no new session, got %d sessions", sessionCount)
	}

	var messages []model.Message
	if err := db.Where("session_id = ?", fixture.Session.ID).
		Order("created_at ASC, id ASC").
		Find(&messages).Error; err != nil {
		t.Fatalf("query messages: %v", err)
	}
	// seeded system greeting plus the new user/assistant pair
	if len(messages) != 3 {
		t.Fatalf("expected 3 messages, got %d", len(messages))
	}
	if messages[1].Role != model.RoleUser || messages[2].Role != model.RoleAssistant {
		t.Fatalf("expected user then assistant, got %q then %q", messages[1].Role, messages[2].Role)
	}
}

func TestSend_NoSessionCreatesOne(t *testing.T) {
	completer := &recordingCompleter{reply: "ok"}
	chatSvc, docSvc, db := newTestChatService(t, completer)

	fixture := uploadFixture(t, docSvc, "Hello world")

	result, err := chatSvc.Send(context.Background(), SendInput{
		DocumentID: fixture.Document.ID,
		Content:    "Summarize this.",
	})
	if err != nil {
		t.Fatalf("send: %v", err)
	}

	if result.Session.ID == fixture.Session.ID {
		t.Fatalf("expected a fresh session, got the upload session")
	}
	if result.Session.DocumentID != fixture.Document.ID {
		t.Fatalf("new session bound to wrong document: %d", result.Session.DocumentID)
	}

	var sessionCount int64
	if err := db.Model(&model.Session{}).Count(&sessionCount).Error; err != nil {
		t.Fatalf("count sessions: %v", err)
	}
	if sessionCount != 2 {
		t.Fatalf("expected exactly one new session, got %d total", sessionCount)
	}
}

func TestSend_PromptCarriesDocumentAndHistory(t *testing.T) {
	completer := &recordingCompleter{reply: "answer"}
	chatSvc, docSvc, _ := newTestChatService(t, completer)

	fixture := uploadFixture(t, docSvc, "The capital of France is Paris.")

	if _, err := chatSvc.Send(context.Background(), SendInput{
		DocumentID: fixture.Document.ID,
		SessionID:  fixture.Session.ID,
		Content:    "What is the capital?",
	}); err != nil {
		t.Fatalf("send: %v", err)
	}

	if len(completer.last) == 0 {
		t.Fatalf("completer never called")
	}
	system := completer.last[0]
	if system.Role != model.RoleSystem {
		t.Fatalf("expected leading system message, got role %q", system.Role)
	}
	if !strings.Contains(system.Content, "The capital of France is Paris.") {
		t.Fatalf("system prompt missing document content: %q", system.Content)
	}
	if !strings.Contains(system.Content, "notes.txt") {
		t.Fatalf("system prompt missing document name: %q", system.Content)
	}

	final := completer.last[len(completer.last)-1]
	if final.Role != model.RoleUser || final.Content != "What is the capital?" {
		t.Fatalf("expected prompt to end with the new user message, got %+v", final)
	}

	// seeded greeting (system) + user message follow the document prompt
	if len(completer.last) != 3 {
		t.Fatalf("expected 3 prompt messages, got %d", len(completer.last))
	}
}

func TestSend_MissingDocumentAndSession(t *testing.T) {
	chatSvc, docSvc, _ := newTestChatService(t, &recordingCompleter{reply: "ok"})

	if _, err := chatSvc.Send(context.Background(), SendInput{
		DocumentID: 42,
		Content:    "hi",
	}); !errors.Is(err, ErrDocumentNotFound) {
		t.Fatalf("expected ErrDocumentNotFound, got %v", err)
	}

	fixture := uploadFixture(t, docSvc, "Hello")
	if _, err := chatSvc.Send(context.Background(), SendInput{
		DocumentID: fixture.Document.ID,
		SessionID:  999,
		Content:    "hi",
	}); !errors.Is(err, ErrSessionNotFound) {
		t.Fatalf("expected ErrSessionNotFound, got %v", err)
	}
}

func TestSend_SessionOfOtherDocumentRejected(t *testing.T) {
	chatSvc, docSvc, _ := newTestChatService(t, &recordingCompleter{reply: "ok"})

	first := uploadFixture(t, docSvc, "First document")
	second, err := docSvc.Upload(UploadInput{
		Filename:    "other.txt",
		ContentType: "text/plain",
		Size:        5,
		Data:        []byte("Other"),
	})
	if err != nil {
		t.Fatalf("upload second document: %v", err)
	}

	if _, err := chatSvc.Send(context.Background(), SendInput{
		DocumentID: second.Document.ID,
		SessionID:  first.Session.ID,
		Content:    "hi",
	}); !errors.Is(err, ErrSessionNotFound) {
		t.Fatalf("expected ErrSessionNotFound for foreign session, got %v", err)
	}
}

func TestSend_CompletionFailureKeepsUserMessage(t *testing.T) {
	completer := &recordingCompleter{err: errors.New("upstream boom")}
	chatSvc, docSvc, db := newTestChatService(t, completer)

	fixture := uploadFixture(t, docSvc, "Hello world")

	_, err := chatSvc.Send(context.Background(), SendInput{
		DocumentID: fixture.Document.ID,
		SessionID:  fixture.Session.ID,
		Content:    "What is this?",
	})
	if err == nil {
		t.Fatalf("expected completion failure to surface")
	}

	// the user message is committed before the completion call; a downstream
	// failure leaves it without an assistant reply
	var messages []model.Message
	if err := db.Where("session_id = ?", fixture.Session.ID).
		Order("created_at ASC, id ASC").
		Find(&messages).Error; err != nil {
		t.Fatalf("query messages: %v", err)
	}
	if len(messages) != 2 {
		t.Fatalf("expected greeting plus user message, got %d messages", len(messages))
	}
	if messages[len(messages)-1].Role != model.RoleUser {
		t.Fatalf("expected last message to be the user's, got %q", messages[len(messages)-1].Role)
	}
}

func TestSend_EmptyMessageRejected(t *testing.T) {
	chatSvc, docSvc, _ := newTestChatService(t, &recordingCompleter{reply: "ok"})
	fixture := uploadFixture(t, docSvc, "Hello")

	if _, err := chatSvc.Send(context.Background(), SendInput{
		DocumentID: fixture.Document.ID,
		Content:    "   ",
	}); !errors.Is(err, ErrMessageEmpty) {
		t.Fatalf("expected ErrMessageEmpty, got %v", err)
	}
}
