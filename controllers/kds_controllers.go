package controllers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/yeremiapane/table-order/hub"
	"github.com/yeremiapane/table-order/utils"
)

type EventController struct {
	Hub            *hub.Hub
	AllowedOrigins []string
	upgrader       websocket.Upgrader
}

// NewEventController accepts upgrades from allowedOrigins only; "*" or an
// empty list allows any origin.
func NewEventController(h *hub.Hub, allowedOrigins []string) *EventController {
	ec := &EventController{Hub: h, AllowedOrigins: allowedOrigins}
	ec.upgrader = websocket.Upgrader{CheckOrigin: ec.checkOrigin}
	return ec
}

// checkOrigin -> CORS tidak berlaku untuk upgrade websocket, jadi dicek di sini
func (ec *EventController) checkOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" || len(ec.AllowedOrigins) == 0 {
		return true
	}
	for _, allowed := range ec.AllowedOrigins {
		if allowed == "*" || strings.EqualFold(allowed, origin) {
			return true
		}
	}
	utils.InfoLogger.Warnf("Rejected websocket origin %s", origin)
	return false
}

// TableEvents -> endpoint WebSocket per meja
func (ec *EventController) TableEvents(c *gin.Context) {
	scope, ok := mustScope(c)
	if !ok {
		return
	}

	ws, err := ec.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		utils.ErrorLogger.Printf("Websocket upgrade for %s failed: %v", scope, err)
		return
	}

	ec.Hub.Register(ws, scope.String())

	// Baca pesan sampai client disconnect
	for {
		if _, _, err := ws.ReadMessage(); err != nil {
			break
		}
	}

	// Unregister saat disconnect
	ec.Hub.Unregister(ws)
}
