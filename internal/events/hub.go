package events

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"physio-backend/internal/models"
	"physio-backend/internal/policy"

	"github.com/olahol/melody"
)

const (
	keyRole = "role"
	keyUser = "user_id"
)

// Hub is the websocket live feed. Each connection is tagged with the
// session role and only receives events that role may list.
type Hub struct {
	m   *melody.Melody
	log *slog.Logger
}

func NewHub(log *slog.Logger) *Hub {
	m := melody.New()
	m.Config.MaxMessageSize = 1024
	m.Config.PingPeriod = 30 * time.Second
	m.Config.PongWait = 60 * time.Second

	h := &Hub{m: m, log: log}

	m.HandleConnect(func(s *melody.Session) {
		user, _ := s.Get(keyUser)
		log.Info("live connect: ok", slog.Any("user_id", user))
	})
	m.HandleDisconnect(func(s *melody.Session) {
		user, _ := s.Get(keyUser)
		log.Info("live disconnect: ok", slog.Any("user_id", user))
	})
	m.HandleError(func(s *melody.Session, err error) {
		log.Warn("live session: error", slog.String("error", err.Error()))
	})
	return h
}

// Serve upgrades the request and binds the connection to profile.
func (h *Hub) Serve(w http.ResponseWriter, r *http.Request, profile models.Profile) error {
	return h.m.HandleRequestWithKeys(w, r, map[string]interface{}{
		keyRole: profile.Role,
		keyUser: profile.ID,
	})
}

func (h *Hub) Publish(ctx context.Context, event Event) error {
	msg, err := json.Marshal(event)
	if err != nil {
		return err
	}
	return h.m.BroadcastFilter(msg, func(s *melody.Session) bool {
		role, ok := s.Get(keyRole)
		if !ok {
			return false
		}
		r, ok := role.(models.Role)
		return ok && policy.Can(r, policy.ActionList, event.Resource)
	})
}

func (h *Hub) Len() int {
	return h.m.Len()
}

func (h *Hub) Close() error {
	return h.m.Close()
}
