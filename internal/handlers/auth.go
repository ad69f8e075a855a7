package handlers

import (
	"encoding/json"
	"net/http"

	"llmchat-backend/internal/middleware"
	"llmchat-backend/internal/models"
	"llmchat-backend/internal/services"
)

type AuthHandler struct {
	authService *services.AuthService
}

func NewAuthHandler(authService *services.AuthService) *AuthHandler {
	return &AuthHandler{authService: authService}
}

func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req models.RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid request body", r))
		return
	}

	user, err := h.authService.Register(r.Context(), req)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, models.NewUserResponse(user))
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req models.LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid request body", r))
		return
	}

	tokens, err := h.authService.Login(r.Context(), req)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, tokens)
}

func (h *AuthHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	var req models.RefreshRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid request body", r))
		return
	}

	tokens, err := h.authService.RefreshToken(r.Context(), req.RefreshToken)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, tokens)
}

func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	var req models.RefreshRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid request body", r))
		return
	}

	h.authService.Logout(r.Context(), req.RefreshToken)
	writeJSON(w, http.StatusOK, map[string]string{"message": "Logged out successfully"})
}

func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())

	user, err := h.authService.Me(r.Context(), userID)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, models.NewUserResponse(user))
}

// Shared helpers

type apiError struct {
	Code      string            `json:"code"`
	Message   string            `json:"message"`
	Fields    map[string]string `json:"fields,omitempty"`
	RequestID string            `json:"request_id,omitempty"`
}

type errorResponse struct {
	Error apiError `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func errorResp(code, message string, r *http.Request) errorResponse {
	return errorResponse{
		Error: apiError{
			Code:      code,
			Message:   message,
			RequestID: r.Header.Get("X-Request-ID"),
		},
	}
}

func errorRespWithFields(code, message string, fields map[string]string, r *http.Request) errorResponse {
	return errorResponse{
		Error: apiError{
			Code:      code,
			Message:   message,
			Fields:    fields,
			RequestID: r.Header.Get("X-Request-ID"),
		},
	}
}

func handleServiceError(w http.ResponseWriter, r *http.Request, err error) {
	switch e := err.(type) {
	case *services.ValidationError:
		writeJSON(w, http.StatusBadRequest, errorRespWithFields("VALIDATION_ERROR", "Validation failed", e.Fields, r))
	case *services.ConflictError:
		// The register contract answers duplicates with 400, not 409.
		writeJSON(w, http.StatusBadRequest, errorResp("CONFLICT", e.Message, r))
	case *services.NotFoundError:
		writeJSON(w, http.StatusNotFound, errorResp("NOT_FOUND", e.Message, r))
	case *services.UnauthorizedError:
		writeJSON(w, http.StatusUnauthorized, errorResp("UNAUTHORIZED", e.Message, r))
	default:
		writeJSON(w, http.StatusInternalServerError, errorResp("INTERNAL_ERROR", "An unexpected error occurred", r))
	}
}
