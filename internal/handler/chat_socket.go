package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/restaurant-chatbot/internal/chat"
	"github.com/iliyamo/restaurant-chatbot/internal/logger"
	"github.com/iliyamo/restaurant-chatbot/internal/repository"
	"github.com/iliyamo/restaurant-chatbot/internal/utils"
)

// Envelope event names.  "message" and "error" mirror chat.Event; "session"
// is sent once after the upgrade.
const (
	eventSession = "session"
	eventMessage = string(chat.EventMessage)
	eventError   = string(chat.EventError)
)

const (
	maxFrameBytes = 4096
	writeTimeout  = 10 * time.Second
)

const msgBadFrame = "Invalid message format."

// Frame is the JSON envelope of every WebSocket message in both directions.
type Frame struct {
	Event string    `json:"event"`
	Data  FrameData `json:"data"`
}

type FrameData struct {
	Text     string `json:"text,omitempty"`
	DeviceID string `json:"deviceId"`
	Token    string `json:"token,omitempty"`
}

// ChatSocket is the transport adapter between WebSocket connections and the
// conversation engine.
type ChatSocket struct {
	Engine      *chat.Engine
	Logger      *logger.Logger
	TokenSecret string        // empty disables device tokens
	TokenTTL    time.Duration // lifetime of issued device tokens
	Upgrader    websocket.Upgrader
}

func NewChatSocket(engine *chat.Engine, logg *logger.Logger, tokenSecret string, tokenTTL time.Duration) *ChatSocket {
	if engine == nil {
		panic("nil engine passed to NewChatSocket")
	}
	if logg == nil {
		logg = logger.Nop()
	}
	return &ChatSocket{
		Engine:      engine,
		Logger:      logg,
		TokenSecret: tokenSecret,
		TokenTTL:    tokenTTL,
		Upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(*http.Request) bool { return true },
		},
	}
}

// Serve handles GET /ws.  The device is taken from ?token=, then ?deviceId=,
// and generated when neither is present.
func (h *ChatSocket) Serve(c echo.Context) error {
	deviceID, err := h.resolveDevice(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid token"})
	}

	conn, err := h.Upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		// the upgrader already replied to the client
		h.Logger.Warn(h.Logger.WithField(c.Request().Context(), "error", err.Error()), "websocket upgrade failed")
		return nil
	}
	defer conn.Close()
	conn.SetReadLimit(maxFrameBytes)

	ctx := h.Logger.WithDeviceID(context.WithoutCancel(c.Request().Context()), deviceID)
	connID, welcome, err := h.Engine.Connect(ctx, deviceID)
	if err != nil {
		text := chat.ConnectFailedText()
		switch {
		case errors.Is(err, chat.ErrTooManySessions):
			text = chat.BusyText()
		case errors.Is(err, repository.ErrSessionNotFound):
			text = chat.SessionNotFoundText()
		}
		h.Logger.Error(ctx, "chat connect failed", err)
		_ = h.write(conn, Frame{Event: eventError, Data: FrameData{Text: text, DeviceID: deviceID}})
		h.close(conn, websocket.CloseTryAgainLater, text)
		return nil
	}
	defer h.Engine.Disconnect(connID)
	ctx = h.Logger.WithConnID(ctx, connID)

	session := Frame{Event: eventSession, Data: FrameData{DeviceID: deviceID}}
	if h.TokenSecret != "" {
		tok, err := utils.NewDeviceToken(h.TokenSecret, deviceID, h.TokenTTL)
		if err != nil {
			h.Logger.Error(ctx, "issue device token failed", err)
		} else {
			session.Data.Token = tok.Token
		}
	}
	if err := h.write(conn, session); err != nil {
		return nil
	}
	if err := h.write(conn, Frame{Event: string(welcome.Event), Data: FrameData{Text: welcome.Text, DeviceID: deviceID}}); err != nil {
		return nil
	}

	for {
		_, raw, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				h.Logger.Warn(h.Logger.WithField(ctx, "error", err.Error()), "websocket read failed")
			}
			return nil
		}
		var in Frame
		if err := json.Unmarshal(raw, &in); err != nil || in.Event != eventMessage {
			if err := h.write(conn, Frame{Event: eventError, Data: FrameData{Text: msgBadFrame, DeviceID: deviceID}}); err != nil {
				return nil
			}
			continue
		}

		out := h.Engine.Handle(ctx, connID, chat.Inbound{Text: in.Data.Text, DeviceID: in.Data.DeviceID})
		for _, r := range out.Replies {
			if err := h.write(conn, Frame{Event: string(r.Event), Data: FrameData{Text: r.Text, DeviceID: deviceID}}); err != nil {
				return nil
			}
		}
		if out.Terminate {
			h.close(conn, websocket.ClosePolicyViolation, chat.SessionNotFoundText())
			return nil
		}
	}
}

func (h *ChatSocket) resolveDevice(c echo.Context) (string, error) {
	if raw := c.QueryParam("token"); raw != "" {
		if h.TokenSecret == "" {
			return "", utils.ErrInvalidDeviceToken
		}
		return utils.ParseDeviceToken(h.TokenSecret, raw)
	}
	if id := c.QueryParam("deviceId"); id != "" {
		return id, nil
	}
	return uuid.NewString(), nil
}

func (h *ChatSocket) write(conn *websocket.Conn, f Frame) error {
	_ = conn.SetWriteDeadline(time.Now().Add(writeTimeout))
	return conn.WriteJSON(f)
}

func (h *ChatSocket) close(conn *websocket.Conn, code int, reason string) {
	msg := websocket.FormatCloseMessage(code, reason)
	_ = conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(writeTimeout))
}
