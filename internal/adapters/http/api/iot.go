package api

import (
	"net/http"
	"slices"
	"time"

	"github.com/gorilla/websocket"

	"github.com/okian/skillup/internal/domain/model"
	"github.com/okian/skillup/pkg/logger"
)

const (
	wsWriteWait  = 5 * time.Second
	wsPongWait   = 60 * time.Second
	wsPingPeriod = wsPongWait * 9 / 10
	wsReadLimit  = 512
)

// IoTHandler serves the simulated biometric device.
type IoTHandler struct {
	deps     Dependencies
	errs     *errorWriter
	logger   logger.Logger
	upgrader websocket.Upgrader
}

func newUpgrader(origins []string) websocket.Upgrader {
	return websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			origin := r.Header.Get("Origin")
			if origin == "" || slices.Contains(origins, "*") {
				return true
			}
			return slices.Contains(origins, origin)
		},
	}
}

type sessionsResponse struct {
	Sessions []model.Session `json:"sessions"`
}

// HandleConnect handles POST /iot/device/connect.
func (h *IoTHandler) HandleConnect(w http.ResponseWriter, r *http.Request) {
	st, err := h.deps.ConnectDevice(UserID(r.Context()))
	h.reply(w, r, st, err)
}

// HandleDisconnect handles POST /iot/device/disconnect.
func (h *IoTHandler) HandleDisconnect(w http.ResponseWriter, r *http.Request) {
	st, err := h.deps.DisconnectDevice(UserID(r.Context()))
	h.reply(w, r, st, err)
}

// HandleStart handles POST /iot/sessions/start.
func (h *IoTHandler) HandleStart(w http.ResponseWriter, r *http.Request) {
	st, err := h.deps.StartSession(UserID(r.Context()))
	h.reply(w, r, st, err)
}

// HandleStop handles POST /iot/sessions/stop.
func (h *IoTHandler) HandleStop(w http.ResponseWriter, r *http.Request) {
	sess, err := h.deps.StopSession(UserID(r.Context()))
	h.reply(w, r, sess, err)
}

// HandleReading handles GET /iot/reading.
func (h *IoTHandler) HandleReading(w http.ResponseWriter, r *http.Request) {
	st, err := h.deps.BiometricStatus(UserID(r.Context()))
	h.reply(w, r, st, err)
}

// HandleSessions handles GET /iot/sessions.
func (h *IoTHandler) HandleSessions(w http.ResponseWriter, r *http.Request) {
	sessions, err := h.deps.StudySessions(UserID(r.Context()))
	if err != nil {
		h.errs.write(w, r, err)
		return
	}
	if sessions == nil {
		sessions = []model.Session{}
	}
	writeJSON(w, http.StatusOK, sessionsResponse{Sessions: sessions})
}

// HandlePerformance handles GET /iot/performance.
func (h *IoTHandler) HandlePerformance(w http.ResponseWriter, r *http.Request) {
	rep, err := h.deps.Performance(UserID(r.Context()))
	h.reply(w, r, rep, err)
}

func (h *IoTHandler) reply(w http.ResponseWriter, r *http.Request, v any, err error) {
	if err != nil {
		h.errs.write(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, v)
}

// HandleStream handles GET /iot/stream. It upgrades to a websocket and
// pushes every new reading as JSON until either side closes.
func (h *IoTHandler) HandleStream(w http.ResponseWriter, r *http.Request) {
	uid := UserID(r.Context())
	readings, cancel, err := h.deps.SubscribeReadings(uid)
	if err != nil {
		h.errs.write(w, r, err)
		return
	}
	defer cancel()

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn(r.Context(), "websocket upgrade failed", logger.Error(err))
		return
	}
	defer conn.Close()

	// The reader only handles control frames and notices the client leaving.
	gone := make(chan struct{})
	go func() {
		defer close(gone)
		conn.SetReadLimit(wsReadLimit)
		_ = conn.SetReadDeadline(time.Now().Add(wsPongWait))
		conn.SetPongHandler(func(string) error {
			return conn.SetReadDeadline(time.Now().Add(wsPongWait))
		})
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	ping := time.NewTicker(wsPingPeriod)
	defer ping.Stop()

	for {
		select {
		case <-gone:
			return
		case <-r.Context().Done():
			return
		case reading, ok := <-readings:
			if !ok {
				_ = conn.WriteControl(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseGoingAway, "stream closed"),
					time.Now().Add(wsWriteWait))
				return
			}
			_ = conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
			if err := conn.WriteJSON(reading); err != nil {
				h.logger.Debug(r.Context(), "websocket write failed", logger.String("uid", uid), logger.Error(err))
				return
			}
		case <-ping.C:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(wsWriteWait)); err != nil {
				return
			}
		}
	}
}
