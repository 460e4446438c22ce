package handler

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"github.com/livepoll/livepoll/internal/event"
	"github.com/livepoll/livepoll/internal/live"
	"github.com/livepoll/livepoll/internal/platform/config"
	"github.com/livepoll/livepoll/internal/store"
	"github.com/livepoll/livepoll/pkg/lifecycle"
)

// Options carries the settings handlers need from the configuration.
type Options struct {
	ClientIdentity string
	DefaultTitle   string
	Port           int
	PingInterval   time.Duration
	SendTimeout    time.Duration
	AllowedOrigins []string
	Version        string
}

// OptionsFromConfig derives handler options from the loaded configuration.
func OptionsFromConfig(cfg *config.Config, version string) Options {
	return Options{
		ClientIdentity: cfg.Poll.ClientIdentity,
		DefaultTitle:   cfg.Poll.DefaultTitle,
		Port:           cfg.Server.Port,
		PingInterval:   cfg.Poll.PingInterval,
		SendTimeout:    cfg.Poll.SendTimeout,
		AllowedOrigins: cfg.Server.Cors.AllowedOrigins,
		Version:        version,
	}
}

// Handler serves the poll API. Every request handler commits its store
// mutation first and only then notifies the event router.
type Handler struct {
	store    *store.Store
	hub      *live.Hub
	events   *event.Router
	services *lifecycle.Manager
	opts     Options
	upgrader websocket.Upgrader
}

// New wires the handlers to their collaborators.
func New(st *store.Store, hub *live.Hub, events *event.Router, services *lifecycle.Manager, opts Options) *Handler {
	h := &Handler{
		store:    st,
		hub:      hub,
		events:   events,
		services: services,
		opts:     opts,
	}
	h.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     h.checkOrigin,
	}
	return h
}

// errorBody is the JSON shape of every 4xx/5xx response.
type errorBody struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// resultBody answers actions that can be rejected without being an error.
type resultBody struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

func badRequest(c *gin.Context, msg string) {
	c.JSON(http.StatusBadRequest, errorBody{Error: "bad_request", Message: msg})
}

func notFound(c *gin.Context, msg string) {
	c.JSON(http.StatusNotFound, errorBody{Error: "not_found", Message: msg})
}

func internalError(c *gin.Context, msg string, err error) {
	c.Error(err)
	c.JSON(http.StatusInternalServerError, errorBody{Error: "internal_error", Message: msg})
}

func (h *Handler) checkOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true
	}
	for _, allowed := range h.opts.AllowedOrigins {
		if allowed == "*" || strings.EqualFold(allowed, origin) {
			return true
		}
	}
	return false
}
