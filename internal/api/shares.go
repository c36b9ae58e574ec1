package api

import (
	"encoding/json"
	"net/http"

	"github.com/npezzotti/go-budget/internal/database"
	"github.com/npezzotti/go-budget/internal/notify"
	"github.com/npezzotti/go-budget/internal/types"
)

type ShareRequest struct {
	Permission string `json:"permission"`
}

func toShare(sh database.Share) types.Share {
	return types.Share{
		OwnerId:       sh.OwnerId,
		OwnerUsername: sh.OwnerUsername,
		UserId:        sh.UserId,
		Username:      sh.Username,
		Permission:    string(sh.Permission),
		CreatedAt:     sh.CreatedAt,
		UpdatedAt:     sh.UpdatedAt,
	}
}

func toShares(in []database.Share) []types.Share {
	out := make([]types.Share, 0, len(in))
	for _, sh := range in {
		out = append(out, toShare(sh))
	}
	return out
}

func (s *BudgetApp) listShares(w http.ResponseWriter, r *http.Request) {
	userId, ok := UserId(r.Context())
	if !ok {
		errResp := NewUnauthorizedError()
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	granted, err := s.db.ListSharesByOwner(r.Context(), userId)
	if err != nil {
		errResp := NewInternalServerError(err)
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	received, err := s.db.ListSharesForUser(r.Context(), userId)
	if err != nil {
		errResp := NewInternalServerError(err)
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	s.writeJson(w, http.StatusOK, types.Shares{
		Granted:  toShares(granted),
		Received: toShares(received),
	})
}

// shareTarget loads the user named in the path, who must not be the caller.
func (s *BudgetApp) shareTarget(w http.ResponseWriter, r *http.Request) (int, database.User, bool) {
	userId, ok := UserId(r.Context())
	if !ok {
		errResp := NewUnauthorizedError()
		s.writeJson(w, errResp.StatusCode, errResp)
		return 0, database.User{}, false
	}

	target, err := s.db.GetAccountByUsername(r.Context(), r.PathValue("username"))
	if err != nil {
		errResp := dbError(err)
		s.writeJson(w, errResp.StatusCode, errResp)
		return 0, database.User{}, false
	}

	if target.Id == userId {
		errResp := NewBadRequestError()
		s.writeJson(w, errResp.StatusCode, errResp)
		return 0, database.User{}, false
	}

	return userId, target, true
}

func (s *BudgetApp) putShare(w http.ResponseWriter, r *http.Request) {
	var req ShareRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		errResp := NewBadRequestError()
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	perm := database.Permission(req.Permission)
	if !perm.Valid() {
		errResp := NewBadRequestError()
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	userId, target, ok := s.shareTarget(w, r)
	if !ok {
		return
	}

	share, created, err := s.db.UpsertShare(r.Context(), userId, target.Id, perm)
	if err != nil {
		errResp := NewInternalServerError(err)
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	status := http.StatusOK
	if created {
		status = http.StatusCreated
		s.notifyAsync(userId, userId, notify.ShareGranted{Username: target.Username, Permission: string(perm)})
	} else {
		s.notifyAsync(userId, userId, notify.ShareUpdated{Username: target.Username, Permission: string(perm)})
	}

	s.writeJson(w, status, toShare(share))
}

func (s *BudgetApp) deleteShare(w http.ResponseWriter, r *http.Request) {
	userId, target, ok := s.shareTarget(w, r)
	if !ok {
		return
	}

	if err := s.db.DeleteShare(r.Context(), userId, target.Id); err != nil {
		errResp := dbError(err)
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	// a revoked user may no longer watch this budget
	if s.subs != nil {
		s.subs.Unsubscribe(target.Id, userId)
	}

	s.notifyAsync(userId, userId, notify.ShareRevoked{Username: target.Username})

	w.WriteHeader(http.StatusNoContent)
}
