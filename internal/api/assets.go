package api

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"

	"github.com/marceleta/crypto-monitor/pkg/models"
)

// handleCreateAsset registers a purchase lot and enqueues a quote backfill
// for the owning token.
func (s *Server) handleCreateAsset(w http.ResponseWriter, r *http.Request) {
	userID, err := s.userID(r)
	if err != nil {
		s.respondError(w, http.StatusUnauthorized, err.Error())
		return
	}

	var asset models.Asset
	if err := json.NewDecoder(r.Body).Decode(&asset); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	asset.UserID = userID

	if err := asset.Validate(); err != nil {
		s.respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	token, err := s.mysqlDB.GetTokenByID(r.Context(), asset.TokenID)
	if err != nil {
		s.respondError(w, http.StatusInternalServerError, "failed to resolve token")
		return
	}
	if token == nil {
		s.respondError(w, http.StatusBadRequest, "unknown token")
		return
	}

	if err := s.mysqlDB.InsertAsset(r.Context(), &asset); err != nil {
		s.logger.WithError(err).Error("Failed to insert asset")
		s.respondError(w, http.StatusInternalServerError, "failed to create asset")
		return
	}

	// Quote history for new lots is filled asynchronously. A publish
	// failure never rolls back the lot; the worker picks up the gap on
	// the next request for the same token.
	req := &models.BackfillRequest{
		AssetID:      asset.ID,
		TokenID:      asset.TokenID,
		UserID:       userID,
		PurchaseDate: asset.PurchaseDate.UTC().Format("2006-01-02"),
		RequestedAt:  time.Now().UTC(),
	}
	if err := s.natsClient.PublishBackfillRequest(req); err != nil {
		s.logger.WithFields(logrus.Fields{
			"asset_id": asset.ID,
			"token_id": asset.TokenID,
			"error":    err.Error(),
		}).Warn("Failed to enqueue backfill request")
	}

	s.respondJSON(w, http.StatusCreated, asset)
}

// handleListAssets returns all purchase lots owned by the caller
func (s *Server) handleListAssets(w http.ResponseWriter, r *http.Request) {
	userID, err := s.userID(r)
	if err != nil {
		s.respondError(w, http.StatusUnauthorized, err.Error())
		return
	}

	assets, err := s.mysqlDB.AssetsByUser(r.Context(), userID)
	if err != nil {
		s.logger.WithError(err).Error("Failed to list assets")
		s.respondError(w, http.StatusInternalServerError, "failed to list assets")
		return
	}
	if assets == nil {
		assets = []*models.Asset{}
	}

	s.respondJSON(w, http.StatusOK, assets)
}

// handleDeleteAsset removes a purchase lot owned by the caller
func (s *Server) handleDeleteAsset(w http.ResponseWriter, r *http.Request) {
	userID, err := s.userID(r)
	if err != nil {
		s.respondError(w, http.StatusUnauthorized, err.Error())
		return
	}

	id, err := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	if err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid asset id")
		return
	}

	deleted, err := s.mysqlDB.DeleteAsset(r.Context(), id, userID)
	if err != nil {
		s.logger.WithError(err).Error("Failed to delete asset")
		s.respondError(w, http.StatusInternalServerError, "failed to delete asset")
		return
	}
	if !deleted {
		s.respondError(w, http.StatusNotFound, "asset not found")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
