package api

import (
	"errors"
	"net/http"
	"sort"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"defi-copilot/internal/chat"
	"defi-copilot/internal/llm"
	pkgapi "defi-copilot/pkg/api"
)

type ChatService struct {
	service   *chat.ConversationService
	providers *llm.Registry
	db        *gorm.DB
}

func NewChatService(service *chat.ConversationService, providers *llm.Registry, db *gorm.DB) *ChatService {
	return &ChatService{service: service, providers: providers, db: db}
}

func (s *ChatService) AddRoutes(r chi.Router) {
	r.Get("/health", RestHandler(s.Health))
	r.Get("/models", RestHandler(s.Models))
	r.Post("/completions", RestHandler(s.Completions))
	r.Route("/chats", func(r chi.Router) {
		r.Get("/", RestHandler(s.ListChats))
		r.Post("/", RestHandler(s.CreateChat))
		r.Route("/{chat_id}", func(r chi.Router) {
			r.Get("/", RestHandler(s.GetChat))
			r.Patch("/", RestHandler(s.RenameChat))
			r.Delete("/", RestHandler(s.DeleteChat))
			r.Get("/messages", RestHandler(s.ListMessages))
			r.Post("/messages", RestHandler(s.PostMessage))
		})
	})
}

// serviceError translates conversation-service failures into coded HTTP
// errors: validation problems are 400, missing chats 404, everything else
// 500. Store details never reach the caller.
func serviceError(err error) error {
	var perr *chat.ProviderError
	switch {
	case errors.Is(err, chat.ErrEmptyTitle), errors.Is(err, chat.ErrEmptyQuestion):
		return CodedError(http.StatusBadRequest, err)
	case errors.Is(err, chat.ErrChatNotFound):
		return CodedErrorf(http.StatusNotFound, "chat not found")
	case errors.As(err, &perr):
		return CodedErrorf(http.StatusInternalServerError, "error getting AI response: %v", perr.Err)
	default:
		return CodedError(http.StatusInternalServerError, err)
	}
}

func (s *ChatService) Health(r *http.Request) (any, error) {
	status := pkgapi.HealthResponse{Status: "ok", Database: "ok"}
	if err := s.pingDatabase(r); err != nil {
		status.Database = "unavailable"
	}
	return status, nil
}

func (s *ChatService) pingDatabase(r *http.Request) error {
	if s.db == nil {
		return errors.New("database is not configured")
	}
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(r.Context())
}

func (s *ChatService) Models(r *http.Request) (any, error) {
	names := s.providers.Names()
	sort.Strings(names)
	return pkgapi.ModelsResponse{Models: names, Default: s.providers.Default()}, nil
}

func (s *ChatService) ListChats(r *http.Request) (any, error) {
	params, err := ParseRequestQueryParams[pkgapi.ListChatsParams](r)
	if err != nil {
		return nil, err
	}

	chats, err := s.service.ListChats(r.Context())
	if err != nil {
		return nil, serviceError(err)
	}

	if params.Limit > 0 && params.Limit < len(chats) {
		chats = chats[:params.Limit]
	}
	return chats, nil
}

func (s *ChatService) CreateChat(r *http.Request) (any, error) {
	req, err := ParseRequest[pkgapi.CreateChatRequest](r)
	if err != nil {
		return nil, err
	}

	created, err := s.service.CreateChat(r.Context(), req.Title)
	if err != nil {
		return nil, serviceError(err)
	}
	return created, nil
}

func (s *ChatService) GetChat(r *http.Request) (any, error) {
	chatID, err := URLParamUUID(r, "chat_id")
	if err != nil {
		return nil, err
	}

	found, err := s.service.GetChat(r.Context(), chatID)
	if err != nil {
		return nil, serviceError(err)
	}
	return found, nil
}

func (s *ChatService) RenameChat(r *http.Request) (any, error) {
	chatID, err := URLParamUUID(r, "chat_id")
	if err != nil {
		return nil, err
	}
	req, err := ParseRequest[pkgapi.RenameChatRequest](r)
	if err != nil {
		return nil, err
	}

	renamed, err := s.service.RenameChat(r.Context(), chatID, req.Title)
	if err != nil {
		return nil, serviceError(err)
	}
	return renamed, nil
}

func (s *ChatService) DeleteChat(r *http.Request) (any, error) {
	chatID, err := URLParamUUID(r, "chat_id")
	if err != nil {
		return nil, err
	}

	if err := s.service.DeleteChat(r.Context(), chatID); err != nil {
		return nil, serviceError(err)
	}
	return pkgapi.DeleteChatResponse{Success: true}, nil
}

func (s *ChatService) ListMessages(r *http.Request) (any, error) {
	chatID, err := URLParamUUID(r, "chat_id")
	if err != nil {
		return nil, err
	}

	messages, err := s.service.ListMessages(r.Context(), chatID)
	if err != nil {
		return nil, serviceError(err)
	}
	return messages, nil
}

func (s *ChatService) PostMessage(r *http.Request) (any, error) {
	chatID, err := URLParamUUID(r, "chat_id")
	if err != nil {
		return nil, err
	}
	req, err := ParseRequest[pkgapi.PostMessageRequest](r)
	if err != nil {
		return nil, err
	}

	created, err := s.service.PostMessage(r.Context(), chatID, req.Question, req.Model)
	if err != nil {
		return nil, serviceError(err)
	}
	return created, nil
}

func (s *ChatService) Completions(r *http.Request) (any, error) {
	req, err := ParseRequest[pkgapi.CompletionRequest](r)
	if err != nil {
		return nil, err
	}

	if len(req.Messages) == 0 {
		return nil, CodedErrorf(http.StatusBadRequest, "messages are required and must be a non-empty array")
	}

	history := make([]llm.Message, 0, len(req.Messages))
	hasUserMessage := false
	for _, msg := range req.Messages {
		if msg.Role == llm.RoleUser {
			hasUserMessage = true
		}
		history = append(history, llm.Message{Role: msg.Role, Content: msg.Content})
	}
	if !hasUserMessage {
		return nil, CodedErrorf(http.StatusBadRequest, "no user message found")
	}

	chatID := uuid.Nil
	if req.ChatID != "" {
		chatID, err = uuid.Parse(req.ChatID)
		if err != nil {
			return nil, CodedErrorf(http.StatusBadRequest, "invalid chatId: %v", err)
		}
	}

	completion, err := s.service.Complete(r.Context(), history, chatID, req.Model)
	if err != nil {
		return nil, serviceError(err)
	}
	return completion, nil
}
