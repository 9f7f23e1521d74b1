package api

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/marceleta/crypto-monitor/internal/evolution"
)

// handleEvolution returns the per-period portfolio change series,
// newest period first, paginated.
func (s *Server) handleEvolution(w http.ResponseWriter, r *http.Request) {
	userID, err := s.userID(r)
	if err != nil {
		s.respondError(w, http.StatusUnauthorized, err.Error())
		return
	}

	grouping, err := evolution.ParseGrouping(r.URL.Query().Get("grouping"))
	if err != nil {
		s.respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	page := 1
	if raw := r.URL.Query().Get("page"); raw != "" {
		page, err = strconv.Atoi(raw)
		if err != nil || page < 1 {
			s.respondError(w, http.StatusBadRequest, "invalid page")
			return
		}
	}

	series, err := s.aggregator.Evolution(r.Context(), userID, grouping)
	if err != nil {
		if errors.Is(err, evolution.ErrNoAssets) {
			s.respondError(w, http.StatusNotFound, "no assets found")
			return
		}
		s.logger.WithError(err).Error("Failed to compute evolution")
		s.respondError(w, http.StatusInternalServerError, "failed to compute evolution")
		return
	}

	s.respondJSON(w, http.StatusOK, evolution.Paginate(series, page, evolution.DefaultPageSize))
}

// handleAllocation returns the current portfolio distribution by token
func (s *Server) handleAllocation(w http.ResponseWriter, r *http.Request) {
	userID, err := s.userID(r)
	if err != nil {
		s.respondError(w, http.StatusUnauthorized, err.Error())
		return
	}

	report, err := s.aggregator.Allocation(r.Context(), userID)
	if err != nil {
		if errors.Is(err, evolution.ErrNoAssets) {
			s.respondError(w, http.StatusNotFound, "no assets found")
			return
		}
		s.logger.WithError(err).Error("Failed to compute allocation")
		s.respondError(w, http.StatusInternalServerError, "failed to compute allocation")
		return
	}

	s.respondJSON(w, http.StatusOK, report)
}
