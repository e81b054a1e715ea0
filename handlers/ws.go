package handlers

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/olahol/melody"
	"github.com/sirupsen/logrus"
)

// WSHandler pushes "ledger changed" signals to a user's open sessions so
// clients know to refetch the dashboard.
type WSHandler struct {
	M   *melody.Melody
	log *logrus.Logger
}

func NewWSHandler(log *logrus.Logger) *WSHandler {
	m := melody.New()

	m.Config.MaxMessageSize = 1024
	m.Config.PingPeriod = 30 * time.Second
	m.Config.PongWait = 60 * time.Second

	m.HandleDisconnect(func(s *melody.Session) {
		userID, _ := s.Get("user_id")
		log.WithField("user_id", userID).Debug("websocket client disconnected")
	})

	m.HandleError(func(s *melody.Session, err error) {
		log.WithError(err).Warn("websocket error")
	})

	return &WSHandler{M: m, log: log}
}

// HandleWS upgrades the request; the session is tagged with the
// authenticated user so broadcasts stay tenant-scoped.
func (h *WSHandler) HandleWS(c *gin.Context) {
	keys := map[string]interface{}{"user_id": c.GetString("userID")}
	if err := h.M.HandleRequestWithKeys(c.Writer, c.Request, keys); err != nil {
		h.log.WithError(err).Warn("failed to upgrade websocket")
	}
}

// BroadcastUpdate notifies all of the user's sessions that the ledger
// changed.
func (h *WSHandler) BroadcastUpdate(userID, updateType string) {
	msg := []byte(`{"type": "` + updateType + `"}`)

	err := h.M.BroadcastFilter(msg, func(s *melody.Session) bool {
		id, exists := s.Get("user_id")
		return exists && id == userID
	})
	if err != nil {
		h.log.WithError(err).WithField("user_id", userID).Warn("websocket broadcast failed")
	}
}
