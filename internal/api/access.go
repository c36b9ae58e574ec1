package api

import (
	"context"
	"database/sql"
	"errors"
	"net/http"

	"github.com/npezzotti/go-budget/internal/database"
)

// budget is the budget a request addresses and the caller's rights on it.
type budget struct {
	userId int
	owner  database.User
	write  bool
}

// checkAccess returns the caller's rights on owner's budget. Owners have full
// access; otherwise a share is required, and a write share for mutations.
func (s *BudgetApp) checkAccess(ctx context.Context, userId int, owner database.User, needWrite bool) (budget, *ApiError) {
	if owner.Id == userId {
		return budget{userId: userId, owner: owner, write: true}, nil
	}

	share, err := s.db.GetShare(ctx, owner.Id, userId)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return budget{}, NewForbiddenError()
		}
		return budget{}, NewInternalServerError(err)
	}

	b := budget{userId: userId, owner: owner, write: share.Permission == database.PermissionWrite}
	if needWrite && !b.write {
		return budget{}, NewForbiddenError()
	}

	return b, nil
}

// resolveBudget loads the budget named by the path value key and checks the
// caller may access it. It writes the error response itself.
func (s *BudgetApp) resolveBudget(w http.ResponseWriter, r *http.Request, key string, needWrite bool) (budget, bool) {
	userId, ok := UserId(r.Context())
	if !ok {
		errResp := NewUnauthorizedError()
		s.writeJson(w, errResp.StatusCode, errResp)
		return budget{}, false
	}

	username := r.PathValue(key)
	if username == "" {
		errResp := NewBadRequestError()
		s.writeJson(w, errResp.StatusCode, errResp)
		return budget{}, false
	}

	owner, err := s.db.GetAccountByUsername(r.Context(), username)
	if err != nil {
		errResp := dbError(err)
		s.writeJson(w, errResp.StatusCode, errResp)
		return budget{}, false
	}

	b, errResp := s.checkAccess(r.Context(), userId, owner, needWrite)
	if errResp != nil {
		s.writeJson(w, errResp.StatusCode, errResp)
		return budget{}, false
	}

	return b, true
}

func (s *BudgetApp) readBudget(w http.ResponseWriter, r *http.Request) (budget, bool) {
	return s.resolveBudget(w, r, "owner", false)
}

func (s *BudgetApp) writeBudget(w http.ResponseWriter, r *http.Request) (budget, bool) {
	return s.resolveBudget(w, r, "owner", true)
}
