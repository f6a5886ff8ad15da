package api

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/talgya/hexempire/internal/engine"
	"github.com/talgya/hexempire/internal/game"
	"github.com/talgya/hexempire/internal/gameerr"
	"github.com/talgya/hexempire/internal/persistence"
	"github.com/talgya/hexempire/internal/units"
)

// maxActionBytes caps an action envelope.
const maxActionBytes = 16 << 10

type createGameRequest struct {
	Players            []engine.Seat `json:"players" binding:"required,min=1,max=16"`
	Seed               int64         `json:"seed"`
	MapWidth           int           `json:"map_width" binding:"omitempty,min=8,max=256"`
	MapHeight          int           `json:"map_height" binding:"omitempty,min=8,max=256"`
	Simultaneous       *bool         `json:"simultaneous"`
	MaxTurns           *int          `json:"max_turns" binding:"omitempty,min=0"`
	TurnTimeoutSeconds *int          `json:"turn_timeout_seconds" binding:"omitempty,min=0"`
}

func (r createGameRequest) apply(settings game.Settings) game.Settings {
	if r.MapWidth > 0 {
		settings.MapWidth = r.MapWidth
	}
	if r.MapHeight > 0 {
		settings.MapHeight = r.MapHeight
	}
	if r.Simultaneous != nil {
		settings.Simultaneous = *r.Simultaneous
	}
	if r.MaxTurns != nil {
		settings.MaxTurns = *r.MaxTurns
	}
	if r.TurnTimeoutSeconds != nil {
		settings.TurnTimeout = time.Duration(*r.TurnTimeoutSeconds) * time.Second
	}
	return settings
}

type gameResponse struct {
	State    *game.GameState `json:"state"`
	Digest   string          `json:"digest"`
	Awaiting []string        `json:"awaiting"`
}

type actionResponse struct {
	Turn         int                 `json:"turn"`
	Phase        string              `json:"phase"`
	Digest       string              `json:"digest"`
	Events       []engine.Event      `json:"events"`
	Combat       *units.CombatResult `json:"combat,omitempty"`
	TurnAdvanced bool                `json:"turn_advanced"`
	Winner       string              `json:"winner,omitempty"`
}

func (s *Server) createGame(c *gin.Context) {
	var req createGameRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.writeError(c, gameerr.Wrap(gameerr.CodeInvalidRequest, err))
		return
	}
	if s.maxSeats > 0 && len(req.Players) > s.maxSeats {
		s.writeError(c, gameerr.Newf(gameerr.CodeInvalidRequest, "%d players, at most %d", len(req.Players), s.maxSeats))
		return
	}
	st, err := s.mgr.Create(req.apply(s.settings()), req.Players, req.Seed)
	if err != nil {
		s.writeError(c, err)
		return
	}
	s.writeGame(c, http.StatusCreated, st)
}

func (s *Server) listGames(c *gin.Context) {
	resp := gin.H{"games": s.mgr.List()}
	if c.Query("stored") == "true" && s.archive != nil {
		stored, err := s.archive.ListGames()
		if err != nil {
			s.writeError(c, gameerr.Wrap(gameerr.CodeStorage, err))
			return
		}
		if stored == nil {
			stored = []persistence.GameSummary{}
		}
		resp["stored"] = stored
	}
	c.JSON(http.StatusOK, resp)
}

func (s *Server) getGame(c *gin.Context) {
	st, err := s.mgr.State(c.Param("id"))
	if err != nil {
		s.writeError(c, err)
		return
	}
	s.writeGame(c, http.StatusOK, st)
}

func (s *Server) restoreGame(c *gin.Context) {
	st, err := s.mgr.Restore(c.Param("id"))
	if err != nil {
		s.writeError(c, err)
		return
	}
	s.writeGame(c, http.StatusOK, st)
}

func (s *Server) closeGame(c *gin.Context) {
	if err := s.mgr.Close(c.Param("id")); err != nil {
		s.writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (s *Server) gameEvents(c *gin.Context) {
	if s.archive == nil {
		c.JSON(http.StatusNotImplemented, gameerr.Newf(gameerr.CodeStorage, "no store").Descriptor())
		return
	}
	limit, err := strconv.Atoi(c.DefaultQuery("limit", "50"))
	if err != nil || limit < 1 || limit > 500 {
		s.writeError(c, gameerr.Newf(gameerr.CodeInvalidRequest, "limit must be 1-500"))
		return
	}
	events, err := s.archive.RecentEvents(c.Param("id"), limit)
	if err != nil {
		s.writeError(c, gameerr.Wrap(gameerr.CodeStorage, err))
		return
	}
	if events == nil {
		events = []engine.Event{}
	}
	c.JSON(http.StatusOK, gin.H{"events": events})
}

func (s *Server) submitAction(c *gin.Context) {
	player := c.GetHeader(PlayerHeader)
	if player == "" {
		s.writeError(c, gameerr.Newf(gameerr.CodeInvalidRequest, "missing %s header", PlayerHeader))
		return
	}
	body, err := io.ReadAll(io.LimitReader(c.Request.Body, maxActionBytes+1))
	if err != nil || len(body) > maxActionBytes {
		s.writeError(c, gameerr.Newf(gameerr.CodeMalformedAction, "body unreadable or over %d bytes", maxActionBytes))
		return
	}
	a, err := engine.DecodeAction(body)
	if err != nil {
		s.writeError(c, err)
		return
	}

	res, err := s.mgr.Submit(c.Request.Context(), c.Param("id"), player, a)
	if err != nil {
		s.writeError(c, err)
		return
	}
	digest, err := engine.Digest(res.State)
	if err != nil {
		s.writeError(c, gameerr.Wrap(gameerr.CodeStorage, err))
		return
	}
	events := res.Events
	if events == nil {
		events = []engine.Event{}
	}
	c.JSON(http.StatusOK, actionResponse{
		Turn:         res.State.Turn,
		Phase:        res.State.Phase.String(),
		Digest:       digest,
		Events:       events,
		Combat:       res.Combat,
		TurnAdvanced: res.TurnAdvanced,
		Winner:       res.State.Winner,
	})
}

func (s *Server) writeGame(c *gin.Context, status int, st *game.GameState) {
	digest, err := engine.Digest(st)
	if err != nil {
		s.writeError(c, gameerr.Wrap(gameerr.CodeStorage, err))
		return
	}
	c.JSON(status, gameResponse{State: st, Digest: digest, Awaiting: engine.AwaitingPlayers(st)})
}

// writeError maps err to a status and a {reason, code} body.
func (s *Server) writeError(c *gin.Context, err error) {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		c.AbortWithStatusJSON(http.StatusServiceUnavailable, gin.H{"reason": err.Error(), "code": 0})
		return
	}
	e := gameerr.As(err, gameerr.CodeStorage)
	status := statusFor(e)
	if status >= http.StatusInternalServerError {
		s.log.Error("request failed",
			zap.String("path", c.FullPath()),
			zap.String("game_id", c.Param("id")),
			zap.Error(err),
		)
	} else {
		s.log.Debug("request refused",
			zap.String("path", c.FullPath()),
			zap.String("game_id", c.Param("id")),
			zap.Int("code", int(e.Code)),
			zap.String("detail", e.Detail),
		)
	}
	c.AbortWithStatusJSON(status, e.Descriptor())
}

func statusFor(e *gameerr.Error) int {
	switch e.Code {
	case gameerr.CodeGameNotFound:
		return http.StatusNotFound
	case gameerr.CodeGameClosed:
		return http.StatusGone
	case gameerr.CodeRateLimited:
		return http.StatusTooManyRequests
	case gameerr.CodeTooManyGames:
		return http.StatusServiceUnavailable
	case gameerr.CodeInvalidRequest:
		return http.StatusBadRequest
	}
	switch e.Kind {
	case gameerr.KindValidation:
		return http.StatusBadRequest
	case gameerr.KindRule:
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}
