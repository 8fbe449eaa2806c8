package chat

import (
	"context"
	"time"

	"github.com/AdamsEmmanuel/Chatbot/internal/auth"
	"github.com/AdamsEmmanuel/Chatbot/internal/bot"
	"github.com/AdamsEmmanuel/Chatbot/internal/common"
)

type Service struct {
	repo      *Repo
	responder *bot.Responder
}

func NewService(repo *Repo, responder *bot.Responder) *Service {
	return &Service{repo: repo, responder: responder}
}

const (
	defaultTitle    = "New Chat"
	titlePrefixLen  = 30
	maxSessionLimit = 50
	maxHistoryLimit = 100
)

// SendResult is what a completed exchange hands back to the caller.
type SendResult struct {
	MessageID   uint64    `json:"message_id"`
	UserMessage string    `json:"user_message"`
	BotResponse string    `json:"bot_response"`
	SessionID   string    `json:"session_id"`
	Timestamp   time.Time `json:"timestamp"`
}

func sessionTitle(message string) string {
	runes := []rune(message)
	if len(runes) > titlePrefixLen {
		runes = runes[:titlePrefixLen]
	}
	return "Chat - " + string(runes) + "..."
}

func (s *Service) CreateSession(ctx context.Context, userID uint64, title string) (*Session, error) {
	if title == "" {
		title = defaultTitle
	}

	sid, err := common.NewULID()
	if err != nil {
		return nil, err
	}

	session := &Session{
		SessionID: sid,
		UserID:    userID,
		Title:     title,
		IsActive:  true,
	}
	if err := s.repo.CreateSession(ctx, session); err != nil {
		return nil, err
	}
	return session, nil
}

// SendMessage runs one exchange: resolve (or create) the session, generate
// the reply, persist the message together with its response.
func (s *Service) SendMessage(ctx context.Context, ident auth.Identity, sessionID, text string) (*SendResult, error) {
	sessionID, err := s.resolveSession(ctx, ident.UserID, sessionID, text)
	if err != nil {
		return nil, err
	}

	reply, err := s.responder.Reply(ctx, text, bot.UserContext{
		UserID:   ident.UserID,
		Username: ident.Username,
	})
	if err != nil {
		return nil, err
	}

	msg := &Message{
		UserID:       ident.UserID,
		SessionID:    &sessionID,
		MessageText:  text,
		ResponseText: &reply,
	}
	if err := s.repo.InsertMessage(ctx, msg); err != nil {
		return nil, err
	}

	return &SendResult{
		MessageID:   msg.ID,
		UserMessage: msg.MessageText,
		BotResponse: reply,
		SessionID:   sessionID,
		Timestamp:   msg.CreatedAt,
	}, nil
}

// SendMessageDeferred persists the message without a response and leaves
// reply generation to the worker. The returned message is the pending row.
func (s *Service) SendMessageDeferred(ctx context.Context, ident auth.Identity, sessionID, text string) (*Message, error) {
	sessionID, err := s.resolveSession(ctx, ident.UserID, sessionID, text)
	if err != nil {
		return nil, err
	}

	msg := &Message{
		UserID:      ident.UserID,
		SessionID:   &sessionID,
		MessageText: text,
	}
	if err := s.repo.InsertMessage(ctx, msg); err != nil {
		return nil, err
	}
	return msg, nil
}

// resolveSession returns a session id owned by the user, creating a fresh
// session titled after the message when none was given.
func (s *Service) resolveSession(ctx context.Context, userID uint64, sessionID, text string) (string, error) {
	if sessionID == "" {
		session, err := s.CreateSession(ctx, userID, sessionTitle(text))
		if err != nil {
			return "", err
		}
		return session.SessionID, nil
	}

	if _, err := s.repo.GetSession(ctx, sessionID, userID); err != nil {
		return "", err
	}
	return sessionID, nil
}

// GenerateDeferredReply completes a pending exchange: the worker calls this
// with a message whose response has not been attached yet. Attaching is
// guarded so a redelivered task cannot overwrite an existing response.
func (s *Service) GenerateDeferredReply(ctx context.Context, messageID uint64) error {
	msg, err := s.repo.GetMessageByID(ctx, messageID)
	if err != nil {
		return err
	}
	if msg.ResponseText != nil {
		return nil
	}

	reply, err := s.responder.Reply(ctx, msg.MessageText, bot.UserContext{UserID: msg.UserID})
	if err != nil {
		return err
	}

	_, err = s.repo.AttachResponse(ctx, messageID, reply)
	return err
}

func (s *Service) ListSessions(ctx context.Context, userID uint64, limit, offset int) ([]Session, error) {
	if limit <= 0 || limit > maxSessionLimit {
		limit = maxSessionLimit
	}
	if offset < 0 {
		offset = 0
	}
	return s.repo.ListSessions(ctx, userID, limit, offset)
}

func (s *Service) GetSession(ctx context.Context, userID uint64, sessionID string) (*Session, error) {
	return s.repo.GetSessionWithMessages(ctx, sessionID, userID)
}

// EndSession transitions active -> ended. Ending an already ended session is
// a no-op that keeps the original ended_at; a session the caller does not
// own reads as not found.
func (s *Service) EndSession(ctx context.Context, userID uint64, sessionID string) error {
	affected, err := s.repo.EndSession(ctx, sessionID, userID, time.Now())
	if err != nil {
		return err
	}
	if affected > 0 {
		return nil
	}

	// Nothing flipped: either the session is already ended (fine) or it
	// does not exist for this user.
	_, err = s.repo.GetSession(ctx, sessionID, userID)
	return err
}

func (s *Service) History(ctx context.Context, userID uint64, limit int, beforeID uint64) ([]Message, error) {
	if limit <= 0 || limit > maxHistoryLimit {
		limit = maxHistoryLimit
	}
	return s.repo.ListUserMessages(ctx, userID, limit, beforeID)
}
