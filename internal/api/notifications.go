package api

import (
	"encoding/json"
	"net/http"
	"net/http/httputil"
	"slices"
	"strconv"

	"github.com/npezzotti/go-budget/internal/database"
	"github.com/npezzotti/go-budget/internal/notify"
	"github.com/npezzotti/go-budget/internal/room"
	"github.com/npezzotti/go-budget/internal/types"
)

func toNotification(n database.Notification) types.Notification {
	return types.Notification{
		Id:                  n.Id,
		Type:                n.Type,
		Params:              json.RawMessage(n.Params),
		SourceUsername:      n.SourceUsername,
		BudgetOwnerUsername: n.BudgetOwnerUsername,
		Read:                n.Read,
		CreatedAt:           n.CreatedAt,
	}
}

func (s *BudgetApp) listNotifications(w http.ResponseWriter, r *http.Request) {
	userId, ok := UserId(r.Context())
	if !ok {
		errResp := NewUnauthorizedError()
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	limit := database.DefaultNotificationLimit
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			errResp := NewBadRequestError()
			s.writeJson(w, errResp.StatusCode, errResp)
			return
		}
		limit = min(n, database.DefaultNotificationLimit)
	}

	notifications, err := s.notifier.ListFor(r.Context(), userId, limit)
	if err != nil {
		errResp := NewInternalServerError(err)
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	res := make([]types.Notification, 0, len(notifications))
	for _, n := range notifications {
		res = append(res, toNotification(n))
	}

	s.writeJson(w, http.StatusOK, res)
}

func (s *BudgetApp) markNotificationRead(w http.ResponseWriter, r *http.Request) {
	userId, ok := UserId(r.Context())
	if !ok {
		errResp := NewUnauthorizedError()
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	matched, err := s.notifier.MarkRead(r.Context(), r.PathValue("id"), userId)
	if err != nil {
		errResp := NewInternalServerError(err)
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	if !matched {
		errResp := NewNotFoundError()
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (s *BudgetApp) markAllNotificationsRead(w http.ResponseWriter, r *http.Request) {
	userId, ok := UserId(r.Context())
	if !ok {
		errResp := NewUnauthorizedError()
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	n, err := s.notifier.MarkAllRead(r.Context(), userId)
	if err != nil {
		errResp := NewInternalServerError(err)
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	s.writeJson(w, http.StatusOK, map[string]int64{"updated": n})
}

// notificationEvents holds an SSE stream open for the caller until the client
// goes away or a newer stream replaces it.
func (s *BudgetApp) notificationEvents(w http.ResponseWriter, r *http.Request) {
	userId, ok := UserId(r.Context())
	if !ok {
		errResp := NewUnauthorizedError()
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	stream, err := notify.NewStream(w, userId, s.heartbeat, s.log)
	if err != nil {
		errResp := NewInternalServerError(err)
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	frame, err := notify.SSEFrame(notify.ConnectedFrame(userId))
	if err != nil {
		errResp := NewInternalServerError(err)
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)

	stream.Write(frame)
	s.registry.Register(userId, stream)
	defer s.registry.Release(userId, stream)

	if err := stream.Run(r.Context()); err != nil {
		s.log.Printf("event stream for user %d: %v", userId, err)
	}
}

func (s *BudgetApp) subscribe(w http.ResponseWriter, r *http.Request) {
	b, ok := s.resolveBudget(w, r, "username", false)
	if !ok {
		return
	}

	s.subs.Subscribe(b.userId, b.owner.Id)
	w.WriteHeader(http.StatusNoContent)
}

func (s *BudgetApp) unsubscribe(w http.ResponseWriter, r *http.Request) {
	b, ok := s.resolveBudget(w, r, "username", false)
	if !ok {
		return
	}

	s.subs.Unsubscribe(b.userId, b.owner.Id)
	w.WriteHeader(http.StatusNoContent)
}

func (s *BudgetApp) originAllowed(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true
	}
	return slices.Contains(s.allowedOrigins, "*") || slices.Contains(s.allowedOrigins, origin)
}

// forwardWebSocket proxies the upgrade to the host that owns the budget's
// room. Identity headers are set here and never taken from the client.
func (s *BudgetApp) forwardWebSocket(w http.ResponseWriter, r *http.Request) {
	userId, ok := UserId(r.Context())
	if !ok {
		errResp := NewUnauthorizedError()
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	ownerId, err := strconv.Atoi(r.PathValue("budgetOwnerId"))
	if err != nil || ownerId <= 0 {
		errResp := NewBadRequestError()
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	if !s.originAllowed(r) {
		errResp := NewForbiddenError()
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	owner, err := s.db.GetAccountById(r.Context(), ownerId)
	if err != nil {
		errResp := dbError(err)
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	if _, errResp := s.checkAccess(r.Context(), userId, owner, false); errResp != nil {
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	caller, err := s.db.GetAccountById(r.Context(), userId)
	if err != nil {
		errResp := dbError(err)
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	target := s.resolver.URL(ownerId, room.WebSocketPath(ownerId))
	proxy := &httputil.ReverseProxy{
		Rewrite: func(pr *httputil.ProxyRequest) {
			pr.Out.URL = target
			pr.Out.Host = ""
			pr.Out.Header.Del("Cookie")
			pr.Out.Header.Del("Authorization")
			pr.Out.Header.Del(room.HeaderExcludeUserId)
			pr.Out.Header.Set(room.HeaderUserId, strconv.Itoa(userId))
			pr.Out.Header.Set(room.HeaderUsername, caller.Username)
			pr.Out.Header.Del(room.HeaderSecret)
			if s.roomSecret != "" {
				pr.Out.Header.Set(room.HeaderSecret, s.roomSecret)
			}
			pr.SetXForwarded()
		},
		ErrorHandler: func(w http.ResponseWriter, r *http.Request, err error) {
			s.log.Printf("forward websocket for owner %d: %v", ownerId, err)
			errResp := NewBadGatewayError(err)
			s.writeJson(w, errResp.StatusCode, errResp)
		},
	}

	proxy.ServeHTTP(w, r)
}
