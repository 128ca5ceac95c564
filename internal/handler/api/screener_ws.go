package api

import (
	"context"
	"net/http"
	"time"

	"OsloScan/internal/domain/models"
	xhttp "OsloScan/pkg/http"
	xlogger "OsloScan/pkg/logger"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
)

const (
	wsReadTimeout  = 30 * time.Second
	wsWriteTimeout = 10 * time.Second
	wsMaxMessage   = 64 << 10
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 4096,
	CheckOrigin:     func(*http.Request) bool { return true },
}

// Frame types sent on /ws/screener.
const (
	frameProgress = "progress"
	frameReport   = "report"
	frameError    = "error"
)

type wsFrame struct {
	Type    string                  `json:"type"`
	Event   *models.ScanEvent       `json:"event,omitempty"`
	Report  *models.ScreenerReport  `json:"report,omitempty"`
	Error   string                  `json:"error,omitempty"`
	Code    string                  `json:"code,omitempty"`
	Details []xhttp.ValidationError `json:"details,omitempty"`
}

// ScreenerWS reads one screener request, streams a progress frame per
// ticker and ends with the report or an error frame.
func (h *Handler) ScreenerWS(c echo.Context) error {
	conn, err := upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		// Upgrade has already written the HTTP error
		h.logger.Warn("websocket upgrade failed", xlogger.Error(err))
		return nil
	}
	defer conn.Close()

	conn.SetReadLimit(wsMaxMessage)
	_ = conn.SetReadDeadline(time.Now().Add(wsReadTimeout))

	req := &models.ScreenerRequest{}
	if err := conn.ReadJSON(req); err != nil {
		h.writeFrame(conn, wsFrame{Type: frameError, Error: "Malformed screener request", Code: xhttp.CodeMalformed})
		return nil
	}
	_ = conn.SetReadDeadline(time.Time{})

	ctx, cancel := context.WithCancel(c.Request().Context())
	defer cancel()

	if verr := xhttp.ValidateStruct(ctx, req); verr != nil {
		h.writeFrame(conn, wsFrame{Type: frameError, Error: "Invalid request", Code: xhttp.CodeValidation, Details: verr})
		return nil
	}

	// a closed client cancels the scan
	go func() {
		for {
			if _, _, err := conn.NextReader(); err != nil {
				cancel()
				return
			}
		}
	}()

	report, err := h.screener.Scan(ctx, "websocket", req, func(ev models.ScanEvent) {
		if !h.writeFrame(conn, wsFrame{Type: frameProgress, Event: &ev}) {
			cancel()
		}
	})
	if err != nil {
		if ctx.Err() == nil {
			h.logger.Error("websocket screener error", xlogger.Error(err))
		}
		h.writeFrame(conn, wsFrame{Type: frameError, Error: "Internal server error", Code: xhttp.CodeInternal})
		return nil
	}

	if h.writeFrame(conn, wsFrame{Type: frameReport, Report: report}) {
		_ = conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, "done"),
			time.Now().Add(wsWriteTimeout))
	}
	return nil
}

// writeFrame reports whether the frame was sent. Callers never write concurrently.
func (h *Handler) writeFrame(conn *websocket.Conn, f wsFrame) bool {
	_ = conn.SetWriteDeadline(time.Now().Add(wsWriteTimeout))
	if err := conn.WriteJSON(f); err != nil {
		h.logger.Debug("websocket write failed", xlogger.String("type", f.Type), xlogger.Error(err))
		return false
	}
	return true
}
