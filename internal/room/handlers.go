package room

import (
	"crypto/subtle"
	"encoding/json"
	"io"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/gorilla/websocket"
)

const (
	HeaderUserId        = "X-User-Id"
	HeaderUsername      = "X-Username"
	HeaderExcludeUserId = "X-Exclude-User-Id"
	HeaderSecret        = "X-Room-Secret"
	maxBroadcastSize    = 64 << 10
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// origins are checked by the API edge before forwarding
	CheckOrigin: func(r *http.Request) bool { return true },
}

type BroadcastResponse struct {
	Sent int `json:"sent"`
}

type errorResponse struct {
	Message string `json:"message"`
}

func writeJson(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJson(w, status, errorResponse{Message: msg})
}

// Handler exposes the host's rooms over HTTP.
func (h *Host) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		writeJson(w, http.StatusOK, map[string]int{"rooms": h.RoomCount()})
	})

	r.Group(func(r chi.Router) {
		r.Use(h.requireSecret)
		r.Get("/rooms/{ownerId}/websocket", h.serveWebSocket)
		r.Post("/rooms/{ownerId}/broadcast", h.serveBroadcast)
	})

	return r
}

func (h *Host) requireSecret(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if h.secret != "" {
			got := r.Header.Get(HeaderSecret)
			if subtle.ConstantTimeCompare([]byte(got), []byte(h.secret)) != 1 {
				writeError(w, http.StatusUnauthorized, "invalid room secret")
				return
			}
		}
		next.ServeHTTP(w, r)
	})
}

func ownerIdParam(r *http.Request) (int, bool) {
	id, err := strconv.Atoi(chi.URLParam(r, "ownerId"))
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}

func (h *Host) serveWebSocket(w http.ResponseWriter, r *http.Request) {
	ownerId, ok := ownerIdParam(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid owner id")
		return
	}

	userId, err := strconv.Atoi(r.Header.Get(HeaderUserId))
	if err != nil || userId <= 0 {
		writeError(w, http.StatusBadRequest, "missing or invalid "+HeaderUserId)
		return
	}
	username := r.Header.Get(HeaderUsername)
	if username == "" {
		writeError(w, http.StatusBadRequest, "missing "+HeaderUsername)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Println("ws upgrade:", err)
		return
	}

	s := &session{conn: conn, userId: userId, username: username}
	room, err := h.join(ownerId, s)
	if err != nil {
		h.log.Printf("join room %d: %v", ownerId, err)
		conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseTryAgainLater, err.Error()))
		conn.Close()
		return
	}

	room.readLoop(s)
}

func (h *Host) serveBroadcast(w http.ResponseWriter, r *http.Request) {
	ownerId, ok := ownerIdParam(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid owner id")
		return
	}

	exclude := 0
	if v := r.Header.Get(HeaderExcludeUserId); v != "" {
		id, err := strconv.Atoi(v)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid "+HeaderExcludeUserId)
			return
		}
		exclude = id
	}

	frame, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBroadcastSize))
	if err != nil {
		writeError(w, http.StatusRequestEntityTooLarge, "payload too large")
		return
	}
	if !json.Valid(frame) {
		writeError(w, http.StatusBadRequest, "payload must be json")
		return
	}

	sent, err := h.Broadcast(ownerId, frame, exclude)
	if err != nil {
		h.log.Printf("broadcast to room %d: %v", ownerId, err)
		writeError(w, http.StatusServiceUnavailable, err.Error())
		return
	}

	writeJson(w, http.StatusOK, BroadcastResponse{Sent: sent})
}
