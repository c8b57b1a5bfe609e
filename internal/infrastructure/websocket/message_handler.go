package websocket

import (
	"encoding/json"
	"strings"
	"time"

	"duochat/pkg/errors"
	"duochat/pkg/logger"
)

const (
	MessageTypePing        = "ping"
	MessageTypePong        = "pong"
	MessageTypeSendMessage = "send_message"
	MessageTypeChat        = "chat"
	MessageTypeMessages    = "messages"
	MessageTypeError       = "error"
)

const maxTextLength = 4000

type WSMessage struct {
	Type      string          `json:"type"`
	Data      json.RawMessage `json:"data,omitempty"`
	Timestamp string          `json:"timestamp"`
}

type outgoingMessage struct {
	Type      string      `json:"type"`
	Data      interface{} `json:"data"`
	Timestamp string      `json:"timestamp"`
}

type SendMessageData struct {
	Text string `json:"text"`
}

type ErrorData struct {
	Code    string `json:"code,omitempty"`
	Message string `json:"message"`
}

// Push encodes a frame and queues it for the client. Frames for a closed or
// backed-up client are dropped.
func (c *Client) Push(msgType string, data interface{}) {
	frame, err := json.Marshal(outgoingMessage{
		Type:      msgType,
		Data:      data,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	})
	if err != nil {
		logger.Error("WebSocket: failed to encode %s frame: %v", msgType, err)
		return
	}
	if !c.enqueue(frame) {
		logger.Warn("WebSocket: dropped %s frame for client %s", msgType, c.ID)
	}
}

func (c *Client) PushError(code, message string) {
	c.Push(MessageTypeError, ErrorData{Code: code, Message: message})
}

// HandleClientMessage dispatches one frame read from the client.
func (m *Manager) HandleClientMessage(client *Client, raw []byte) {
	var msg WSMessage
	if err := json.Unmarshal(raw, &msg); err != nil {
		logger.Debug("WebSocket: invalid frame from client %s: %v", client.ID, err)
		client.PushError(errors.CodeBadRequest, "Invalid message format")
		return
	}

	switch msg.Type {
	case MessageTypePing:
		client.Push(MessageTypePong, map[string]string{"status": "alive"})

	case MessageTypeSendMessage:
		var data SendMessageData
		if len(msg.Data) == 0 || json.Unmarshal(msg.Data, &data) != nil {
			client.PushError(errors.CodeBadRequest, "Invalid send message format")
			return
		}
		data.Text = strings.TrimSpace(data.Text)
		if data.Text == "" {
			client.PushError(errors.CodeBadRequest, "Message text is required")
			return
		}
		if len([]rune(data.Text)) > maxTextLength {
			client.PushError(errors.CodeBadRequest, "Message text is too long")
			return
		}
		if client.OnSendMessage == nil {
			client.PushError(errors.CodeUnresolvedChat, "Chat is not loaded")
			return
		}
		client.OnSendMessage(data)

	default:
		logger.Debug("WebSocket: unknown message type %q from client %s", msg.Type, client.ID)
		client.PushError(errors.CodeBadRequest, "Unknown message type")
	}
}
