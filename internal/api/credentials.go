package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/marceleta/crypto-monitor/internal/exchange"
	"github.com/marceleta/crypto-monitor/pkg/models"
)

// credentialRequest carries the write-only secret fields that the model
// never serializes back out.
type credentialRequest struct {
	Exchange   string `json:"exchange"`
	BaseURL    string `json:"base_url"`
	APIKey     string `json:"api_key"`
	APISecret  string `json:"api_secret"`
	Passphrase string `json:"passphrase"`
	Operations string `json:"operations"`
}

// handleCreateCredential stores exchange API credentials for the caller.
// Secrets are accepted on input and never echoed in any response.
func (s *Server) handleCreateCredential(w http.ResponseWriter, r *http.Request) {
	userID, err := s.userID(r)
	if err != nil {
		s.respondError(w, http.StatusUnauthorized, err.Error())
		return
	}

	var req credentialRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	cred := &models.ExchangeCredential{
		UserID:     userID,
		Exchange:   req.Exchange,
		BaseURL:    req.BaseURL,
		APIKey:     req.APIKey,
		APISecret:  req.APISecret,
		Passphrase: req.Passphrase,
		Operations: req.Operations,
	}

	if err := cred.Validate(); err != nil {
		s.respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := s.mysqlDB.InsertCredential(r.Context(), cred); err != nil {
		s.logger.WithError(err).Error("Failed to insert credential")
		s.respondError(w, http.StatusInternalServerError, "failed to create credential")
		return
	}

	s.respondJSON(w, http.StatusCreated, cred)
}

// handleListCredentials returns the caller's credentials without secrets
func (s *Server) handleListCredentials(w http.ResponseWriter, r *http.Request) {
	userID, err := s.userID(r)
	if err != nil {
		s.respondError(w, http.StatusUnauthorized, err.Error())
		return
	}

	creds, err := s.mysqlDB.CredentialsByUser(r.Context(), userID)
	if err != nil {
		s.logger.WithError(err).Error("Failed to list credentials")
		s.respondError(w, http.StatusInternalServerError, "failed to list credentials")
		return
	}
	if creds == nil {
		creds = []*models.ExchangeCredential{}
	}

	s.respondJSON(w, http.StatusOK, creds)
}

// handleTestCredential verifies that a stored credential can reach its
// exchange
func (s *Server) handleTestCredential(w http.ResponseWriter, r *http.Request) {
	userID, err := s.userID(r)
	if err != nil {
		s.respondError(w, http.StatusUnauthorized, err.Error())
		return
	}

	id, err := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	if err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid credential id")
		return
	}

	cred, err := s.mysqlDB.GetCredential(r.Context(), id)
	if err != nil {
		s.respondError(w, http.StatusInternalServerError, "failed to resolve credential")
		return
	}
	if cred == nil || cred.UserID != userID {
		s.respondError(w, http.StatusNotFound, "credential not found")
		return
	}

	client, err := s.registry.ClientFor(cred, &s.cfg.Exchange, s.logger)
	if err != nil {
		if errors.Is(err, exchange.ErrUnsupported) {
			s.respondError(w, http.StatusBadRequest, err.Error())
			return
		}
		s.respondError(w, http.StatusInternalServerError, "failed to build exchange client")
		return
	}

	if err := client.Ping(r.Context()); err != nil {
		s.respondJSON(w, http.StatusOK, map[string]interface{}{
			"ok":    false,
			"error": err.Error(),
		})
		return
	}

	s.respondJSON(w, http.StatusOK, map[string]interface{}{"ok": true})
}
