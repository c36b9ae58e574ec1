package api

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/npezzotti/go-budget/internal/database"
	"github.com/npezzotti/go-budget/internal/notify"
	"github.com/npezzotti/go-budget/internal/types"
)

const maxNoteLength = 2000

type ContentRequest struct {
	Content string `json:"content"`
}

func (s *BudgetApp) decodeContent(w http.ResponseWriter, r *http.Request) (string, bool) {
	var req ContentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		errResp := NewBadRequestError()
		s.writeJson(w, errResp.StatusCode, errResp)
		return "", false
	}

	content := strings.TrimSpace(req.Content)
	if content == "" || len(content) > maxNoteLength {
		errResp := NewBadRequestError()
		s.writeJson(w, errResp.StatusCode, errResp)
		return "", false
	}

	return content, true
}

func toTodo(t database.Todo) types.Todo {
	return types.Todo{
		Id:        t.Id,
		Content:   t.Content,
		Completed: t.Completed,
		CreatedAt: t.CreatedAt,
		UpdatedAt: t.UpdatedAt,
	}
}

func toMemo(m database.Memo) types.Memo {
	return types.Memo{
		Id:        m.Id,
		Content:   m.Content,
		CreatedAt: m.CreatedAt,
		UpdatedAt: m.UpdatedAt,
	}
}

func (s *BudgetApp) listTodos(w http.ResponseWriter, r *http.Request) {
	b, ok := s.readBudget(w, r)
	if !ok {
		return
	}

	todos, err := s.db.ListTodos(r.Context(), b.owner.Id)
	if err != nil {
		errResp := NewInternalServerError(err)
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	res := make([]types.Todo, 0, len(todos))
	for _, t := range todos {
		res = append(res, toTodo(t))
	}

	s.writeJson(w, http.StatusOK, res)
}

func (s *BudgetApp) createTodo(w http.ResponseWriter, r *http.Request) {
	content, ok := s.decodeContent(w, r)
	if !ok {
		return
	}

	b, ok := s.writeBudget(w, r)
	if !ok {
		return
	}

	sid, err := s.generateShortId()
	if err != nil {
		s.log.Print("generateShortId:", err)
		errResp := NewInternalServerError(err)
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	t, err := s.db.CreateTodo(r.Context(), database.Todo{Id: sid, OwnerId: b.owner.Id, Content: content})
	if err != nil {
		errResp := dbError(err)
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	s.notifyAsync(b.userId, b.owner.Id, notify.TodoCreated{Todo: notify.Todo{Content: t.Content, Completed: t.Completed}})

	s.writeJson(w, http.StatusCreated, toTodo(t))
}

func (s *BudgetApp) updateTodo(w http.ResponseWriter, r *http.Request) {
	content, ok := s.decodeContent(w, r)
	if !ok {
		return
	}

	b, ok := s.writeBudget(w, r)
	if !ok {
		return
	}

	t, err := s.db.UpdateTodo(r.Context(), b.owner.Id, r.PathValue("id"), content)
	if err != nil {
		errResp := dbError(err)
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	s.notifyAsync(b.userId, b.owner.Id, notify.TodoUpdated{Todo: notify.Todo{Content: t.Content, Completed: t.Completed}})

	s.writeJson(w, http.StatusOK, toTodo(t))
}

func (s *BudgetApp) toggleTodo(w http.ResponseWriter, r *http.Request) {
	b, ok := s.writeBudget(w, r)
	if !ok {
		return
	}

	t, err := s.db.ToggleTodo(r.Context(), b.owner.Id, r.PathValue("id"))
	if err != nil {
		errResp := dbError(err)
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	s.notifyAsync(b.userId, b.owner.Id, notify.TodoToggled{Todo: notify.Todo{Content: t.Content, Completed: t.Completed}})

	s.writeJson(w, http.StatusOK, toTodo(t))
}

func (s *BudgetApp) deleteTodo(w http.ResponseWriter, r *http.Request) {
	b, ok := s.writeBudget(w, r)
	if !ok {
		return
	}

	t, err := s.db.DeleteTodo(r.Context(), b.owner.Id, r.PathValue("id"))
	if err != nil {
		errResp := dbError(err)
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	s.notifyAsync(b.userId, b.owner.Id, notify.TodoDeleted{Todo: notify.Todo{Content: t.Content, Completed: t.Completed}})

	w.WriteHeader(http.StatusNoContent)
}

func (s *BudgetApp) listMemos(w http.ResponseWriter, r *http.Request) {
	b, ok := s.readBudget(w, r)
	if !ok {
		return
	}

	memos, err := s.db.ListMemos(r.Context(), b.owner.Id)
	if err != nil {
		errResp := NewInternalServerError(err)
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	res := make([]types.Memo, 0, len(memos))
	for _, m := range memos {
		res = append(res, toMemo(m))
	}

	s.writeJson(w, http.StatusOK, res)
}

func (s *BudgetApp) createMemo(w http.ResponseWriter, r *http.Request) {
	content, ok := s.decodeContent(w, r)
	if !ok {
		return
	}

	b, ok := s.writeBudget(w, r)
	if !ok {
		return
	}

	sid, err := s.generateShortId()
	if err != nil {
		s.log.Print("generateShortId:", err)
		errResp := NewInternalServerError(err)
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	m, err := s.db.CreateMemo(r.Context(), database.Memo{Id: sid, OwnerId: b.owner.Id, Content: content})
	if err != nil {
		errResp := dbError(err)
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	s.notifyAsync(b.userId, b.owner.Id, notify.MemoCreated{Memo: notify.Memo{Content: m.Content}})

	s.writeJson(w, http.StatusCreated, toMemo(m))
}

func (s *BudgetApp) updateMemo(w http.ResponseWriter, r *http.Request) {
	content, ok := s.decodeContent(w, r)
	if !ok {
		return
	}

	b, ok := s.writeBudget(w, r)
	if !ok {
		return
	}

	m, err := s.db.UpdateMemo(r.Context(), b.owner.Id, r.PathValue("id"), content)
	if err != nil {
		errResp := dbError(err)
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	s.notifyAsync(b.userId, b.owner.Id, notify.MemoUpdated{Memo: notify.Memo{Content: m.Content}})

	s.writeJson(w, http.StatusOK, toMemo(m))
}

func (s *BudgetApp) deleteMemo(w http.ResponseWriter, r *http.Request) {
	b, ok := s.writeBudget(w, r)
	if !ok {
		return
	}

	m, err := s.db.DeleteMemo(r.Context(), b.owner.Id, r.PathValue("id"))
	if err != nil {
		errResp := dbError(err)
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	s.notifyAsync(b.userId, b.owner.Id, notify.MemoDeleted{Memo: notify.Memo{Content: m.Content}})

	w.WriteHeader(http.StatusNoContent)
}
