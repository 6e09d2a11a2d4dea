package http

import (
	"errors"
	"net/http"
	"strings"

	"fintrack/internal/core"
	applog "fintrack/internal/log"
	"fintrack/internal/store"
	"fintrack/internal/view"
)

type transactionsResponse struct {
	Transactions   []core.Transaction             `json:"transactions"`
	CategoryTotals map[string]int64               `json:"category_totals"`
	TypeTotals     map[core.TransactionType]int64 `json:"type_totals"`
	GrandTotal     int64                          `json:"grand_total"`
	FilteredCount  int                            `json:"filtered_count"`
	Loading        bool                           `json:"loading"`
}

// computeView runs the pipeline against the current snapshot, serving from
// the view cache when the store version has not moved.
func (s *Server) computeView(opts view.Options) view.View {
	key := viewCacheKey(s.store.Version(), opts)
	if v, found := s.viewCache.Get(key); found {
		return v
	}

	v := view.ComputeView(s.store.Snapshot(), opts)
	s.viewCache.Set(key, v)
	return v
}

func (s *Server) handleTransactions(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		s.handleListTransactions(w, r)
	case http.MethodPost:
		s.handleCreateTransaction(w, r)
	default:
		w.Header().Set("Allow", "GET, POST")
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

func (s *Server) handleListTransactions(w http.ResponseWriter, r *http.Request) {
	opts := s.parseViewOptions(r)
	v := s.computeView(opts)

	writeJSON(w, http.StatusOK, transactionsResponse{
		Transactions:   v.Visible,
		CategoryTotals: v.CategoryTotals,
		TypeTotals:     v.TypeTotals,
		GrandTotal:     v.GrandTotal,
		FilteredCount:  v.FilteredCount,
		Loading:        s.store.Loading(),
	})
}

type transactionRequest struct {
	Date     string `json:"date"`
	Type     string `json:"transaction_type"`
	Amount   string `json:"transaction_amount"`
	Category string `json:"transaction_category"`
}

func (req transactionRequest) toTransaction(id string) core.Transaction {
	return core.Transaction{
		ID:       id,
		Date:     strings.TrimSpace(req.Date),
		Type:     core.TransactionType(strings.ToLower(strings.TrimSpace(req.Type))),
		Amount:   strings.TrimSpace(req.Amount),
		Category: sanitizeInput(req.Category),
	}
}

func (s *Server) handleCreateTransaction(w http.ResponseWriter, r *http.Request) {
	var req transactionRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	tx := req.toTransaction("")
	if err := tx.Validate(); err != nil {
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	created, err := s.store.Add(r.Context(), tx)
	if err != nil {
		applog.FromContext(r.Context()).ErrorContext(r.Context(), "Transaction create failed", "error", err)
		if errors.Is(err, store.ErrDuplicateID) {
			writeError(w, http.StatusConflict, "transaction id already exists")
			return
		}
		writeError(w, http.StatusBadGateway, "could not create transaction")
		return
	}

	writeJSON(w, http.StatusCreated, created)
}

func (s *Server) handleTransactionByID(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimPrefix(r.URL.Path, "/api/transactions/")
	if id == "" || strings.Contains(id, "/") {
		writeError(w, http.StatusNotFound, "not found")
		return
	}

	switch r.Method {
	case http.MethodPut:
		s.handleUpdateTransaction(w, r, id)
	case http.MethodDelete:
		s.handleDeleteTransaction(w, r, id)
	default:
		w.Header().Set("Allow", "PUT, DELETE")
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

func (s *Server) handleUpdateTransaction(w http.ResponseWriter, r *http.Request, id string) {
	var req transactionRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	tx := req.toTransaction(id)
	if err := tx.Validate(); err != nil {
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	updated, err := s.store.Update(r.Context(), tx)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "transaction not found")
			return
		}
		applog.FromContext(r.Context()).ErrorContext(r.Context(), "Transaction update failed", "id", id, "error", err)
		writeError(w, http.StatusBadGateway, "could not update transaction")
		return
	}

	writeJSON(w, http.StatusOK, updated)
}

func (s *Server) handleDeleteTransaction(w http.ResponseWriter, r *http.Request, id string) {
	if err := s.store.Remove(r.Context(), id); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "transaction not found")
			return
		}
		applog.FromContext(r.Context()).ErrorContext(r.Context(), "Transaction delete failed", "id", id, "error", err)
		writeError(w, http.StatusBadGateway, "could not delete transaction")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleRefresh(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", "POST")
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	if err := s.store.FetchAll(r.Context()); err != nil {
		// The previous collection is still intact; report the failure.
		writeError(w, http.StatusBadGateway, "could not refresh transactions from remote")
		return
	}

	writeJSON(w, http.StatusOK, map[string]int{"count": len(s.store.Snapshot())})
}

func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.Header().Set("Allow", "GET")
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	opts := s.parseViewOptions(r)
	v := s.computeView(opts)

	writeJSON(w, http.StatusOK, struct {
		CategoryTotals map[string]int64               `json:"category_totals"`
		TypeTotals     map[core.TransactionType]int64 `json:"type_totals"`
		GrandTotal     int64                          `json:"grand_total"`
		FilteredCount  int                            `json:"filtered_count"`
	}{
		CategoryTotals: v.CategoryTotals,
		TypeTotals:     v.TypeTotals,
		GrandTotal:     v.GrandTotal,
		FilteredCount:  v.FilteredCount,
	})
}
