package handler

import (
	"github.com/labstack/echo/v4"
	"github.com/samber/lo"

	"duochat/internal/adapter/api/middleware"
	"duochat/internal/usecase"
	"duochat/pkg/errors"
	"duochat/pkg/response"
)

type ChatHandler struct {
	chatUseCase    *usecase.ChatUseCase
	messageUseCase *usecase.MessageUseCase
	userUseCase    *usecase.UserUseCase
}

func NewChatHandler(chatUseCase *usecase.ChatUseCase, messageUseCase *usecase.MessageUseCase, userUseCase *usecase.UserUseCase) *ChatHandler {
	return &ChatHandler{
		chatUseCase:    chatUseCase,
		messageUseCase: messageUseCase,
		userUseCase:    userUseCase,
	}
}

type resolveChatRequest struct {
	UserIDs []string `json:"user_ids" validate:"required,min=1,dive,required"`
}

type sendMessageRequest struct {
	Text string `json:"text" validate:"required,max=4000"`
}

// ResolveChat returns the chat between the caller and user_ids, creating it on first use.
func (h *ChatHandler) ResolveChat(c echo.Context) error {
	uid, err := middleware.UserID(c)
	if err != nil {
		return response.Error(c, err)
	}

	var req resolveChatRequest
	if err := c.Bind(&req); err != nil {
		return response.Error(c, errors.BadRequest("Invalid request body", err))
	}
	if err := c.Validate(&req); err != nil {
		return response.Error(c, err)
	}

	participants := lo.Uniq(append(req.UserIDs, uid))
	if len(participants) < 2 {
		return response.Error(c, errors.BadRequest("Cannot open a chat with yourself", nil))
	}

	chat, err := h.chatUseCase.ResolveOrCreate(c.Request().Context(), participants)
	if err != nil {
		return response.Error(c, err)
	}

	return response.Success(c, chat)
}

func (h *ChatHandler) GetMessages(c echo.Context) error {
	uid, err := middleware.UserID(c)
	if err != nil {
		return response.Error(c, err)
	}

	ctx := c.Request().Context()
	chat, err := h.chatUseCase.GetChat(ctx, uid, c.Param("id"))
	if err != nil {
		return response.Error(c, err)
	}

	messages, err := h.messageUseCase.LoadHistory(ctx, chat.ID)
	if err != nil {
		return response.Error(c, err)
	}

	return response.Success(c, messages)
}

func (h *ChatHandler) SendMessage(c echo.Context) error {
	uid, err := middleware.UserID(c)
	if err != nil {
		return response.Error(c, err)
	}

	var req sendMessageRequest
	if err := c.Bind(&req); err != nil {
		return response.Error(c, errors.BadRequest("Invalid request body", err))
	}
	if err := c.Validate(&req); err != nil {
		return response.Error(c, err)
	}

	ctx := c.Request().Context()
	chat, err := h.chatUseCase.GetChat(ctx, uid, c.Param("id"))
	if err != nil {
		return response.Error(c, err)
	}

	author, err := h.userUseCase.GetProfile(ctx, uid)
	if err != nil {
		return response.Error(c, err)
	}

	message, err := h.messageUseCase.Append(ctx, chat.ID, req.Text, *author)
	if err != nil {
		return response.Error(c, err)
	}

	return response.Created(c, message)
}
