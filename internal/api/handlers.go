package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	gwebsocket "github.com/gorilla/websocket" // Alias to avoid name conflict

	"factorypulse-gateway/internal/alerting"
	"factorypulse-gateway/internal/auth"
	"factorypulse-gateway/internal/data"
	"factorypulse-gateway/internal/diagnostic"
	"factorypulse-gateway/internal/logger"
	"factorypulse-gateway/internal/metrics"
	"factorypulse-gateway/internal/storage"
	"factorypulse-gateway/internal/websocket"
)

const maxBodySize = 64 << 10

var upgrader = gwebsocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true }, // dashboard may be served from another origin
}

// Snapshotter exposes the latest readings of the engine.
type Snapshotter interface {
	Snapshot() []data.BandedReading
}

// MaintenanceStore persists the maintenance journal.
type MaintenanceStore interface {
	Add(entry data.MaintenanceLog) data.MaintenanceLog
	Get(id string) (data.MaintenanceLog, error)
	Update(entry data.MaintenanceLog) (data.MaintenanceLog, error)
	Delete(id string) error
	GetAll() []data.MaintenanceLog
}

type APIHandler struct {
	registry *alerting.Registry
	engine   Snapshotter
	matcher  *diagnostic.Matcher
	store    MaintenanceStore
	hub      *websocket.Hub
	auth     *auth.AuthManager
	now      func() time.Time
}

// Deps holds the collaborators of the API
type Deps struct {
	Registry *alerting.Registry
	Engine   Snapshotter
	Matcher  *diagnostic.Matcher
	Store    MaintenanceStore
	Hub      *websocket.Hub
	Auth     *auth.AuthManager
}

func NewAPIHandler(d Deps) *APIHandler {
	return &APIHandler{
		registry: d.Registry,
		engine:   d.Engine,
		matcher:  d.Matcher,
		store:    d.Store,
		hub:      d.Hub,
		auth:     d.Auth,
		now:      time.Now,
	}
}

type chatRequest struct {
	Text string `json:"text"`
}

type chatResponse struct {
	Response string `json:"response"`
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type loginResponse struct {
	Token string    `json:"token"`
	Role  auth.Role `json:"role"`
}

// HandleListAlerts returns the active alerts, most recent first.
func (h *APIHandler) HandleListAlerts(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.registry.List())
}

// HandleDismissAlert always answers 204; dismissing an unknown id is a no-op.
// Live clients learn about the dismissal through the registry listener.
func (h *APIHandler) HandleDismissAlert(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if h.registry.Dismiss(id) {
		log := logger.WithComponent("api")
		log.Info().Str("alert_id", id).Str("user", auth.UsernameFromContext(r.Context())).Msg("alert dismissed")
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *APIHandler) HandleReadings(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.engine.Snapshot())
}

func (h *APIHandler) HandleGreeting(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, chatResponse{Response: diagnostic.Greeting})
}

func (h *APIHandler) HandleChat(w http.ResponseWriter, r *http.Request) {
	var req chatRequest
	if err := decodeBody(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if strings.TrimSpace(req.Text) == "" {
		writeError(w, http.StatusBadRequest, "text is required")
		return
	}

	rule := h.matcher.Match(req.Text)
	metrics.ChatRequestsTotal.WithLabelValues(rule.Name).Inc()
	writeJSON(w, http.StatusOK, chatResponse{Response: rule.Response})
}

func (h *APIHandler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	if !h.auth.Enabled() {
		writeError(w, http.StatusNotFound, "authentication is disabled")
		return
	}

	var req loginRequest
	if err := decodeBody(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	role, err := h.auth.AuthenticateUser(req.Username, req.Password)
	if err != nil {
		log := logger.WithComponent("api")
		log.Warn().Str("user", req.Username).Msg("login rejected")
		writeError(w, http.StatusUnauthorized, auth.ErrInvalidCredentials.Error())
		return
	}

	token, err := h.auth.GenerateJWT(req.Username, role)
	if err != nil {
		log := logger.WithComponent("api")
		log.Error().Err(err).Msg("sign token")
		writeError(w, http.StatusInternalServerError, "could not issue token")
		return
	}
	writeJSON(w, http.StatusOK, loginResponse{Token: token, Role: role})
}

func (h *APIHandler) HandleListMaintenance(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.store.GetAll())
}

func (h *APIHandler) HandleGetMaintenance(w http.ResponseWriter, r *http.Request) {
	entry, err := h.store.Get(chi.URLParam(r, "id"))
	if err != nil {
		writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, entry)
}

func (h *APIHandler) HandleCreateMaintenance(w http.ResponseWriter, r *http.Request) {
	entry, ok := h.readMaintenance(w, r)
	if !ok {
		return
	}
	entry.ID = ""
	writeJSON(w, http.StatusCreated, h.store.Add(*entry))
}

func (h *APIHandler) HandleUpdateMaintenance(w http.ResponseWriter, r *http.Request) {
	entry, ok := h.readMaintenance(w, r)
	if !ok {
		return
	}
	entry.ID = chi.URLParam(r, "id")

	updated, err := h.store.Update(*entry)
	if err != nil {
		writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

func (h *APIHandler) HandleDeleteMaintenance(w http.ResponseWriter, r *http.Request) {
	if err := h.store.Delete(chi.URLParam(r, "id")); err != nil {
		writeStoreError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// writeStoreError maps journal errors onto HTTP statuses.
func writeStoreError(w http.ResponseWriter, err error) {
	if errors.Is(err, storage.ErrNotFound) {
		writeError(w, http.StatusNotFound, err.Error())
		return
	}
	log := logger.WithComponent("api")
	log.Error().Err(err).Msg("maintenance store")
	writeError(w, http.StatusInternalServerError, "maintenance journal unavailable")
}

func (h *APIHandler) readMaintenance(w http.ResponseWriter, r *http.Request) (*data.MaintenanceLog, bool) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodySize))
	if err != nil {
		writeError(w, http.StatusRequestEntityTooLarge, "request body too large")
		return nil, false
	}
	entry, err := data.ParseMaintenanceLog(body, h.now())
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return nil, false
	}
	return entry, true
}

// HandleWebSocket upgrades connections, sends the current alert list and
// registers the client with the hub.
func (h *APIHandler) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	log := logger.WithComponent("api")
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Warn().Err(err).Msg("websocket upgrade failed")
		return
	}

	client := websocket.NewClient(h.hub, conn)
	h.sendInitialState(client, conn.RemoteAddr().String())

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if !h.hub.RegisterClient(ctx, client) {
		log.Warn().Str("remote", conn.RemoteAddr().String()).Msg("hub unavailable, closing websocket")
		conn.Close()
		return
	}

	// Start read/write pumps in separate goroutines
	go client.WritePump()
	go client.ReadPump()

	log.Info().Str("remote", conn.RemoteAddr().String()).Msg("websocket connection established")
}

// sendInitialState queues the alert history and the latest readings for a
// new client. Frames that do not fit the client buffer are dropped.
func (h *APIHandler) sendInitialState(client *websocket.Client, remote string) {
	log := logger.WithComponent("api")
	if !client.Queue(websocket.Message{Type: "history", Payload: h.registry.List()}) {
		log.Warn().Str("remote", remote).Msg("history frame dropped, client buffer full")
	}
	if readings := h.engine.Snapshot(); len(readings) > 0 {
		if !client.Queue(websocket.Message{Type: "readings", Payload: readings}) {
			log.Warn().Str("remote", remote).Msg("readings frame dropped, client buffer full")
		}
	}
}

func (h *APIHandler) HandleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":       "ok",
		"activeAlerts": h.registry.Len(),
	})
}

func decodeBody(w http.ResponseWriter, r *http.Request, v interface{}) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodySize))
	if err := dec.Decode(v); err != nil {
		return errors.New("invalid JSON body")
	}
	return nil
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log := logger.WithComponent("api")
		log.Error().Err(err).Msg("encode response")
	}
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
