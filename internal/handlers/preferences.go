package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/gorilla/mux"
	"github.com/rfaulk/flicklist/internal/database"
	"github.com/rfaulk/flicklist/internal/models"
	"github.com/rfaulk/flicklist/internal/validation"
)

// PreferencesHandler handles schedule preference requests
type PreferencesHandler struct {
	prefsRepo database.PreferencesRepositoryInterface
}

// NewPreferencesHandler creates a new preferences handler
func NewPreferencesHandler(prefsRepo database.PreferencesRepositoryInterface) *PreferencesHandler {
	return &PreferencesHandler{prefsRepo: prefsRepo}
}

// RegisterRoutes registers preference routes on the given router
// The router should already have the /preferences prefix
func (h *PreferencesHandler) RegisterRoutes(r *mux.Router) {
	r.HandleFunc("", h.GetPreferences).Methods("GET")
	r.HandleFunc("", h.SetPreferences).Methods("PUT")
}

// GetPreferences returns the stored schedule preferences, or defaults when
// none have been saved yet.
func (h *PreferencesHandler) GetPreferences(w http.ResponseWriter, r *http.Request) {
	prefs, err := h.prefsRepo.Get(r.Context())
	if err != nil {
		respondJSONError(w, http.StatusInternalServerError, "Internal Server Error", "Failed to retrieve preferences")
		return
	}
	respondJSON(w, http.StatusOK, prefs)
}

// SetPreferences replaces the stored schedule preferences
func (h *PreferencesHandler) SetPreferences(w http.ResponseWriter, r *http.Request) {
	var prefs models.SchedulePreferences
	decoder := json.NewDecoder(r.Body)
	if err := decoder.Decode(&prefs); err != nil {
		if maxBytesErr, ok := err.(*http.MaxBytesError); ok {
			respondJSONError(w, http.StatusRequestEntityTooLarge, "Request Entity Too Large", fmt.Sprintf("Request body exceeds maximum size of %d bytes", maxBytesErr.Limit))
			return
		}
		respondJSONError(w, http.StatusBadRequest, "Bad Request", "Invalid request body")
		return
	}

	if err := validation.Validate.Struct(prefs); err != nil {
		if validationErrors, ok := err.(validator.ValidationErrors); ok {
			for _, fieldError := range validationErrors {
				respondJSONError(w, http.StatusBadRequest, "Bad Request", fmt.Sprintf("Validation failed: %s", fieldError.Error()))
				return
			}
		}
		respondJSONError(w, http.StatusBadRequest, "Bad Request", "Validation failed")
		return
	}

	if err := h.prefsRepo.Set(r.Context(), &prefs); err != nil {
		respondJSONError(w, http.StatusInternalServerError, "Internal Server Error", "Failed to save preferences")
		return
	}

	respondJSON(w, http.StatusOK, &prefs)
}
