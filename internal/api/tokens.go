package api

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"

	"github.com/marceleta/crypto-monitor/internal/evolution"
	"github.com/marceleta/crypto-monitor/pkg/models"
)

// handleCreateToken registers a tracked token for the caller
func (s *Server) handleCreateToken(w http.ResponseWriter, r *http.Request) {
	userID, err := s.userID(r)
	if err != nil {
		s.respondError(w, http.StatusUnauthorized, err.Error())
		return
	}

	var token models.Token
	if err := json.NewDecoder(r.Body).Decode(&token); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	token.UserID = userID

	if err := token.Validate(); err != nil {
		s.respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	if token.HasCredential() {
		cred, err := s.mysqlDB.GetCredential(r.Context(), *token.CredentialID)
		if err != nil {
			s.respondError(w, http.StatusInternalServerError, "failed to resolve credential")
			return
		}
		if cred == nil || cred.UserID != userID {
			s.respondError(w, http.StatusBadRequest, "unknown credential")
			return
		}
	}

	if err := s.mysqlDB.InsertToken(r.Context(), &token); err != nil {
		s.logger.WithError(err).Error("Failed to insert token")
		s.respondError(w, http.StatusInternalServerError, "failed to create token")
		return
	}

	s.respondJSON(w, http.StatusCreated, token)
}

// handleListTokens returns all tokens tracked by the caller
func (s *Server) handleListTokens(w http.ResponseWriter, r *http.Request) {
	userID, err := s.userID(r)
	if err != nil {
		s.respondError(w, http.StatusUnauthorized, err.Error())
		return
	}

	tokens, err := s.mysqlDB.TokensByUser(r.Context(), userID)
	if err != nil {
		s.logger.WithError(err).Error("Failed to list tokens")
		s.respondError(w, http.StatusInternalServerError, "failed to list tokens")
		return
	}
	if tokens == nil {
		tokens = []*models.Token{}
	}

	s.respondJSON(w, http.StatusOK, tokens)
}

// handleTokenHistory returns averaged close prices for a token, bucketed
// by the requested grouping (weekly, fortnightly or monthly).
func (s *Server) handleTokenHistory(w http.ResponseWriter, r *http.Request) {
	userID, err := s.userID(r)
	if err != nil {
		s.respondError(w, http.StatusUnauthorized, err.Error())
		return
	}

	id, err := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	if err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid token id")
		return
	}

	token, err := s.mysqlDB.GetTokenByID(r.Context(), id)
	if err != nil {
		s.respondError(w, http.StatusInternalServerError, "failed to resolve token")
		return
	}
	if token == nil || token.UserID != userID {
		s.respondError(w, http.StatusNotFound, "token not found")
		return
	}

	grouping, err := evolution.ParseHistoryGrouping(r.URL.Query().Get("grouping"))
	if err != nil {
		s.respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	from, err := parseDateParam(r.URL.Query().Get("from"))
	if err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid from date")
		return
	}
	to, err := parseDateParam(r.URL.Query().Get("to"))
	if err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid to date")
		return
	}

	points, err := s.aggregator.PriceHistory(r.Context(), token.ID, grouping, from, to)
	if err != nil {
		s.logger.WithError(err).Error("Failed to build price history")
		s.respondError(w, http.StatusInternalServerError, "failed to build price history")
		return
	}
	if points == nil {
		points = []evolution.PricePoint{}
	}

	s.respondJSON(w, http.StatusOK, points)
}

func parseDateParam(raw string) (time.Time, error) {
	if raw == "" {
		return time.Time{}, nil
	}
	return time.ParseInLocation("2006-01-02", raw, time.UTC)
}
