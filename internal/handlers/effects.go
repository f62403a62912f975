package handlers

import (
	"log"
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

const maxClientMessage = 1024

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 4096,
}

// clientMessage is an event reported by the page
type clientMessage struct {
	Type   string `json:"type"`
	Hidden bool   `json:"hidden"`
	WebGL  *bool  `json:"webgl"`
}

// HandleEffects upgrades to the effect channel. The server pushes effect
// commands; the page reports visibility, resize and WebGL support.
func (h *Handlers) HandleEffects(w http.ResponseWriter, r *http.Request) {
	c, err := r.Cookie(visitorCookie)
	if err != nil {
		http.Error(w, "missing visitor", http.StatusBadRequest)
		return
	}
	if _, err := uuid.Parse(c.Value); err != nil {
		http.Error(w, "invalid visitor", http.StatusBadRequest)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("Websocket upgrade failed: %v", err)
		return
	}
	conn.SetReadLimit(maxClientMessage)

	sess := h.svc.Sessions.Get(c.Value)
	sess.Remote.SetWebGL(r.URL.Query().Get("webgl") != "0")
	sess.Attach(conn)
	defer func() {
		sess.Detach(conn)
		conn.Close()
	}()

	for {
		var msg clientMessage
		if err := conn.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Printf("Websocket read error: %v", err)
			}
			return
		}

		switch msg.Type {
		case "visibility":
			sess.Effects.SetHidden(msg.Hidden)
		case "resize":
			sess.Effects.Resize()
		case "capabilities":
			if msg.WebGL != nil {
				sess.SetWebGL(*msg.WebGL)
			}
		default:
			log.Printf("Websocket: unknown message type %q", msg.Type)
		}
	}
}
