package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/npezzotti/go-budget/internal/database"
	"github.com/npezzotti/go-budget/internal/money"
	"github.com/npezzotti/go-budget/internal/notify"
	"github.com/npezzotti/go-budget/internal/types"
	"github.com/shopspring/decimal"
)

const maxImportEntries = 1000

type MonthRequest struct {
	Year  int `json:"year"`
	Month int `json:"month"`
}

type EntryRequest struct {
	Year        int             `json:"year"`
	Month       int             `json:"month"`
	Kind        string          `json:"kind"`
	Description string          `json:"description"`
	Amount      decimal.Decimal `json:"amount"`
	Currency    string          `json:"currency"`
}

type ImportRequest struct {
	Entries []EntryRequest `json:"entries"`
}

var errInvalidEntry = errors.New("invalid entry")

func validMonth(year, month int) bool {
	return year >= 1900 && year <= 9999 && month >= 1 && month <= 12
}

// normalize validates req and fills the owner's currency when none is given.
func (req *EntryRequest) normalize(defaultCurrency string, withMonth bool) error {
	req.Currency = strings.ToUpper(req.Currency)
	if req.Currency == "" {
		req.Currency = defaultCurrency
	}

	req.Description = strings.TrimSpace(req.Description)
	switch {
	case !database.EntryKind(req.Kind).Valid(),
		req.Description == "",
		req.Amount.IsNegative(),
		!validCurrency(req.Currency),
		withMonth && !validMonth(req.Year, req.Month):
		return errInvalidEntry
	}

	return nil
}

func toMonth(m database.Month) types.Month {
	return types.Month{Year: m.Year, Month: m.Month, CreatedAt: m.CreatedAt}
}

func toEntry(e database.Entry) types.Entry {
	return types.Entry{
		Id:          e.Id,
		Year:        e.Year,
		Month:       e.Month,
		Kind:        string(e.Kind),
		Description: e.Description,
		Amount:      e.Amount,
		Currency:    e.Currency,
		CreatedBy:   e.CreatedBy,
		CreatedAt:   e.CreatedAt,
		UpdatedAt:   e.UpdatedAt,
	}
}

func entryParams(e database.Entry) notify.Entry {
	return notify.Entry{
		Kind:        string(e.Kind),
		Description: e.Description,
		Amount:      notify.NewAmount(e.Amount),
		Currency:    e.Currency,
		Month:       e.Month,
		Year:        e.Year,
	}
}

// ownerCurrency is the currency an owner's budget is reported in.
func (s *BudgetApp) ownerCurrency(owner database.User) string {
	if owner.Currency != "" {
		return owner.Currency
	}
	return s.converter.Base()
}

func pathMonth(r *http.Request) (int, int, bool) {
	year, err := strconv.Atoi(r.PathValue("year"))
	if err != nil {
		return 0, 0, false
	}
	month, err := strconv.Atoi(r.PathValue("month"))
	if err != nil {
		return 0, 0, false
	}
	return year, month, validMonth(year, month)
}

func (s *BudgetApp) listMonths(w http.ResponseWriter, r *http.Request) {
	b, ok := s.readBudget(w, r)
	if !ok {
		return
	}

	months, err := s.db.ListMonths(r.Context(), b.owner.Id)
	if err != nil {
		errResp := NewInternalServerError(err)
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	res := make([]types.Month, 0, len(months))
	for _, m := range months {
		res = append(res, toMonth(m))
	}

	s.writeJson(w, http.StatusOK, res)
}

func (s *BudgetApp) createMonth(w http.ResponseWriter, r *http.Request) {
	var req MonthRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || !validMonth(req.Year, req.Month) {
		errResp := NewBadRequestError()
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	b, ok := s.writeBudget(w, r)
	if !ok {
		return
	}

	m, err := s.db.CreateMonth(r.Context(), b.owner.Id, req.Year, req.Month)
	if err != nil {
		errResp := dbError(err)
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	s.notifyAsync(b.userId, b.owner.Id, notify.MonthAdded{Month: notify.Month{Month: m.Month, Year: m.Year}})

	s.writeJson(w, http.StatusCreated, toMonth(m))
}

func (s *BudgetApp) deleteMonth(w http.ResponseWriter, r *http.Request) {
	year, month, ok := pathMonth(r)
	if !ok {
		errResp := NewBadRequestError()
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	b, ok := s.writeBudget(w, r)
	if !ok {
		return
	}

	deleted, err := s.db.DeleteMonth(r.Context(), b.owner.Id, year, month)
	if err != nil {
		errResp := dbError(err)
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	s.notifyAsync(b.userId, b.owner.Id, notify.MonthDeleted{
		Month:          notify.Month{Month: month, Year: year},
		EntriesDeleted: deleted,
	})

	w.WriteHeader(http.StatusNoContent)
}

func (s *BudgetApp) listEntries(w http.ResponseWriter, r *http.Request) {
	year, month, ok := pathMonth(r)
	if !ok {
		errResp := NewBadRequestError()
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	b, ok := s.readBudget(w, r)
	if !ok {
		return
	}

	entries, err := s.db.ListEntries(r.Context(), b.owner.Id, year, month)
	if err != nil {
		errResp := NewInternalServerError(err)
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	res := make([]types.Entry, 0, len(entries))
	for _, e := range entries {
		res = append(res, toEntry(e))
	}

	s.writeJson(w, http.StatusOK, res)
}

// monthSummary totals a month in the owner's currency.
func (s *BudgetApp) monthSummary(w http.ResponseWriter, r *http.Request) {
	year, month, ok := pathMonth(r)
	if !ok {
		errResp := NewBadRequestError()
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	b, ok := s.readBudget(w, r)
	if !ok {
		return
	}

	entries, err := s.db.ListEntries(r.Context(), b.owner.Id, year, month)
	if err != nil {
		errResp := NewInternalServerError(err)
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	items := make([]money.Item, 0, len(entries))
	for _, e := range entries {
		items = append(items, money.Item{Kind: string(e.Kind), Money: money.New(e.Amount, e.Currency)})
	}

	s.writeJson(w, http.StatusOK, s.converter.Summarize(s.ownerCurrency(b.owner), items))
}

func (s *BudgetApp) createEntry(w http.ResponseWriter, r *http.Request) {
	var req EntryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		errResp := NewBadRequestError()
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	b, ok := s.writeBudget(w, r)
	if !ok {
		return
	}

	if err := req.normalize(s.ownerCurrency(b.owner), true); err != nil {
		errResp := NewBadRequestError()
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	sid, err := s.generateShortId()
	if err != nil {
		s.log.Print("generateShortId:", err)
		errResp := NewInternalServerError(err)
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	e, err := s.db.CreateEntry(r.Context(), database.Entry{
		Id:          sid,
		OwnerId:     b.owner.Id,
		Year:        req.Year,
		Month:       req.Month,
		Kind:        database.EntryKind(req.Kind),
		Description: req.Description,
		Amount:      req.Amount,
		Currency:    req.Currency,
		CreatedBy:   b.userId,
	})
	if err != nil {
		errResp := dbError(err)
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	s.notifyAsync(b.userId, b.owner.Id, notify.EntryCreated{Entry: entryParams(e)})

	s.writeJson(w, http.StatusCreated, toEntry(e))
}

func (s *BudgetApp) updateEntry(w http.ResponseWriter, r *http.Request) {
	var req EntryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		errResp := NewBadRequestError()
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	b, ok := s.writeBudget(w, r)
	if !ok {
		return
	}

	if err := req.normalize(s.ownerCurrency(b.owner), false); err != nil {
		errResp := NewBadRequestError()
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	e, err := s.db.UpdateEntry(r.Context(), database.UpdateEntryParams{
		OwnerId:     b.owner.Id,
		Id:          r.PathValue("id"),
		Kind:        database.EntryKind(req.Kind),
		Description: req.Description,
		Amount:      req.Amount,
		Currency:    req.Currency,
	})
	if err != nil {
		errResp := dbError(err)
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	s.notifyAsync(b.userId, b.owner.Id, notify.EntryUpdated{Entry: entryParams(e)})

	s.writeJson(w, http.StatusOK, toEntry(e))
}

func (s *BudgetApp) deleteEntry(w http.ResponseWriter, r *http.Request) {
	b, ok := s.writeBudget(w, r)
	if !ok {
		return
	}

	e, err := s.db.DeleteEntry(r.Context(), b.owner.Id, r.PathValue("id"))
	if err != nil {
		errResp := dbError(err)
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	s.notifyAsync(b.userId, b.owner.Id, notify.EntryDeleted{Entry: entryParams(e)})

	w.WriteHeader(http.StatusNoContent)
}

// importEntries stores a batch of entries in one transaction, creating any
// months they reference.
func (s *BudgetApp) importEntries(w http.ResponseWriter, r *http.Request) {
	var req ImportRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		errResp := NewBadRequestError()
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	if len(req.Entries) == 0 || len(req.Entries) > maxImportEntries {
		errResp := NewBadRequestError()
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	b, ok := s.writeBudget(w, r)
	if !ok {
		return
	}

	entries := make([]database.Entry, 0, len(req.Entries))
	for _, er := range req.Entries {
		if err := er.normalize(s.ownerCurrency(b.owner), true); err != nil {
			errResp := NewBadRequestError()
			s.writeJson(w, errResp.StatusCode, errResp)
			return
		}

		sid, err := s.generateShortId()
		if err != nil {
			s.log.Print("generateShortId:", err)
			errResp := NewInternalServerError(err)
			s.writeJson(w, errResp.StatusCode, errResp)
			return
		}

		entries = append(entries, database.Entry{
			Id:          sid,
			OwnerId:     b.owner.Id,
			Year:        er.Year,
			Month:       er.Month,
			Kind:        database.EntryKind(er.Kind),
			Description: er.Description,
			Amount:      er.Amount,
			Currency:    er.Currency,
			CreatedBy:   b.userId,
		})
	}

	res, err := s.db.ImportEntries(r.Context(), entries)
	if err != nil {
		errResp := dbError(err)
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	s.notifyAsync(b.userId, b.owner.Id, notify.BudgetImported{Entries: res.Entries, Months: res.Months})

	s.writeJson(w, http.StatusCreated, types.ImportResult{Entries: res.Entries, Months: res.Months})
}
