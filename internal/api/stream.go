package api

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/talgya/hexempire/internal/engine"
	"github.com/talgya/hexempire/internal/session"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxInboundSize = 512
)

// streamGame upgrades to a WebSocket and forwards the game's updates as JSON
// text frames, starting with the current state. The player id may also be
// given as ?player= for browsers, which cannot set headers on upgrade.
func (s *Server) streamGame(c *gin.Context) {
	gameID := c.Param("id")
	player := c.GetHeader(PlayerHeader)
	if player == "" {
		player = c.Query("player")
	}

	updates, cancel, err := s.mgr.Subscribe(gameID, player)
	if err != nil {
		s.writeError(c, err)
		return
	}
	st, err := s.mgr.State(gameID)
	if err != nil {
		cancel()
		s.writeError(c, err)
		return
	}

	conn, err := s.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		cancel()
		s.log.Warn("websocket upgrade failed", zap.String("game_id", gameID), zap.Error(err))
		return
	}
	s.log.Debug("stream opened", zap.String("game_id", gameID), zap.String("player", player))

	digest, _ := engine.Digest(st)
	first := session.Update{
		GameID: gameID,
		Turn:   st.Turn,
		Phase:  st.Phase.String(),
		Digest: digest,
		State:  st,
	}

	closed := make(chan struct{})
	go s.readPump(conn, closed)
	s.writePump(conn, first, updates, closed)

	cancel()
	conn.Close()
	s.log.Debug("stream closed", zap.String("game_id", gameID), zap.String("player", player))
}

// readPump discards client frames; it exists to process pongs and notice
// the peer going away.
func (s *Server) readPump(conn *websocket.Conn, closed chan<- struct{}) {
	defer close(closed)
	conn.SetReadLimit(maxInboundSize)
	conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				s.log.Debug("stream read error", zap.Error(err))
			}
			return
		}
	}
}

func (s *Server) writePump(conn *websocket.Conn, first session.Update, updates <-chan session.Update, closed <-chan struct{}) {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	conn.SetWriteDeadline(time.Now().Add(writeWait))
	if err := conn.WriteJSON(first); err != nil {
		return
	}
	for {
		select {
		case u, ok := <-updates:
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				// Game closed.
				conn.WriteMessage(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseGoingAway, "game closed"))
				return
			}
			if err := conn.WriteJSON(u); err != nil {
				return
			}
		case <-ticker.C:
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case <-closed:
			return
		}
	}
}
