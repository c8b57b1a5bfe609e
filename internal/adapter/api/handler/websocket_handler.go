package handler

import (
	"context"
	stderrors "errors"
	"net/http"
	"strings"
	"time"

	gorillaws "github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
	"github.com/samber/lo"

	"duochat/internal/adapter/api/middleware"
	"duochat/internal/domain/entity"
	ws "duochat/internal/infrastructure/websocket"
	"duochat/internal/usecase"
	"duochat/pkg/errors"
	"duochat/pkg/logger"
	"duochat/pkg/response"
)

const sessionStartTimeout = 30 * time.Second

type WebSocketHandler struct {
	wsManager      *ws.Manager
	chatUseCase    *usecase.ChatUseCase
	messageUseCase *usecase.MessageUseCase
	userUseCase    *usecase.UserUseCase
}

var upgrader = gorillaws.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

func NewWebSocketHandler(wsManager *ws.Manager, chatUseCase *usecase.ChatUseCase, messageUseCase *usecase.MessageUseCase, userUseCase *usecase.UserUseCase) *WebSocketHandler {
	return &WebSocketHandler{
		wsManager:      wsManager,
		chatUseCase:    chatUseCase,
		messageUseCase: messageUseCase,
		userUseCase:    userUseCase,
	}
}

// HandleChat opens a live chat between the caller and the comma separated
// uids in "with". The connection owns one chat session for its lifetime.
func (h *WebSocketHandler) HandleChat(c echo.Context) error {
	uid, err := middleware.UserID(c)
	if err != nil {
		return response.Error(c, err)
	}

	participants, err := participantsFromQuery(uid, c.QueryParam("with"))
	if err != nil {
		return response.Error(c, err)
	}

	author, err := h.userUseCase.GetProfile(c.Request().Context(), uid)
	if err != nil {
		return response.Error(c, err)
	}

	conn, err := upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		logger.Warn("WebSocket: upgrade failed for %s: %v", uid, err)
		return nil
	}

	client := ws.NewClient(uid, conn)
	session := usecase.NewChatSession(h.chatUseCase, h.messageUseCase, participants,
		usecase.WithOnResolved(func(chat *entity.Chat) {
			client.Push(ws.MessageTypeChat, chat)
		}),
		usecase.WithOnMessages(func(msgs []entity.Message) {
			client.Push(ws.MessageTypeMessages, msgs)
		}),
		usecase.WithOnFeedError(func(err error) {
			pushError(client, err)
		}),
	)

	base := context.WithoutCancel(c.Request().Context())
	client.OnSendMessage = func(data ws.SendMessageData) {
		if _, err := session.Send(base, data.Text, *author); err != nil {
			pushError(client, err)
		}
	}

	go func() {
		defer session.Close()

		ctx, cancel := context.WithTimeout(base, sessionStartTimeout)
		if err := session.Start(ctx); err != nil {
			pushError(client, err)
		}
		cancel()

		h.wsManager.Serve(client)
		logger.Debug("WebSocket: chat session of %s with %v ended", uid, participants)
	}()

	return nil
}

func participantsFromQuery(uid, with string) ([]string, error) {
	others := lo.Compact(lo.Map(strings.Split(with, ","), func(id string, _ int) string {
		return strings.TrimSpace(id)
	}))
	if len(others) == 0 {
		return nil, errors.BadRequest("with is required", nil)
	}

	participants := lo.Uniq(append(others, uid))
	if len(participants) < 2 {
		return nil, errors.BadRequest("Cannot open a chat with yourself", nil)
	}
	return participants, nil
}

func pushError(client *ws.Client, err error) {
	var appErr *errors.AppError
	if stderrors.As(err, &appErr) {
		client.PushError(appErr.Code, appErr.Message)
		return
	}
	logger.Error("WebSocket: unexpected error for client %s: %v", client.ID, err)
	client.PushError(errors.CodeInternal, "An unexpected error occurred")
}
