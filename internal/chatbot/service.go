package chatbot

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/aniemarie21/maes-laboratory-system/pkg/database"
	"github.com/aniemarie21/maes-laboratory-system/pkg/interfaces"
	"github.com/aniemarie21/maes-laboratory-system/pkg/logger"
	"github.com/aniemarie21/maes-laboratory-system/pkg/monitoring"
	"github.com/aniemarie21/maes-laboratory-system/pkg/types"
)

// maxMessageLength bounds what is answered and stored per message
const maxMessageLength = 1000

// Service answers chat messages and keeps a conversation log
type Service struct {
	logs    interfaces.ChatLogRepository
	metrics *monitoring.MetricsCollector
	logger  *logger.Logger
	now     func() time.Time
}

// NewService creates a new chatbot service
func NewService(logs interfaces.ChatLogRepository, metrics *monitoring.MetricsCollector, log *logger.Logger) *Service {
	return &Service{logs: logs, metrics: metrics, logger: log, now: time.Now}
}

// Chat answers req. Failing to store the exchange is logged and otherwise ignored.
func (s *Service) Chat(ctx context.Context, req *types.ChatRequest, userID string) *types.ChatReply {
	message := req.Message
	if runes := []rune(message); len(runes) > maxMessageLength {
		message = string(runes[:maxMessageLength])
	}

	reply, matched := Respond(message)
	s.metrics.RecordChatbotMessage(matched)

	sessionID := req.SessionID
	if sessionID == "" {
		sessionID = uuid.New().String()
	}
	reply.SessionID = sessionID

	if message != "" {
		err := s.logs.SaveExchange(ctx, &types.ChatLog{
			ID:        uuid.New().String(),
			SessionID: sessionID,
			UserID:    userID,
			Message:   message,
			Response:  reply.Response,
			CreatedAt: s.now(),
		})
		if err != nil {
			s.logger.WithContext(ctx).WithError(err).WithField("session_id", sessionID).Warn("Failed to store chatbot exchange")
		}
	}
	return reply
}

// Repository stores chatbot exchanges in chatbot_conversations
type Repository struct {
	db     *database.DB
	logger *logger.Logger
}

// NewRepository creates a new chat log repository
func NewRepository(db *database.DB, log *logger.Logger) interfaces.ChatLogRepository {
	return &Repository{db: db, logger: log}
}

// SaveExchange inserts one message and its reply
func (r *Repository) SaveExchange(ctx context.Context, l *types.ChatLog) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO chatbot_conversations (id, session_id, user_id, message, response, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		l.ID, l.SessionID, l.UserID, l.Message, l.Response, l.CreatedAt,
	)
	if err != nil {
		r.logger.DatabaseOperation(ctx, "insert", "chatbot_conversations", err)
		return fmt.Errorf("failed to save chatbot exchange: %w", err)
	}
	return nil
}
