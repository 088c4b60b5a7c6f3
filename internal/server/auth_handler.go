package server

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/jonathan/sop-question-agent/internal/config"
)

// TokenRequest exchanges client credentials for a bearer token.
type TokenRequest struct {
	ClientID     string `json:"client_id" validate:"required,max=100"`
	ClientSecret string `json:"client_secret" validate:"required,max=200"`
}

// TokenResponse carries an issued bearer token.
type TokenResponse struct {
	AccessToken string    `json:"access_token"`
	TokenType   string    `json:"token_type"`
	ExpiresAt   time.Time `json:"expires_at"`
}

// AuthHandler handles the client-credentials token exchange.
type AuthHandler struct {
	clients    map[string]string
	secrets    *config.SecretConfig
	jwtService *JWTService
	validator  *validator.Validate
}

// NewAuthHandler creates a new AuthHandler. clients maps each client ID to
// the bcrypt hash of its secret.
func NewAuthHandler(clients map[string]string, secrets *config.SecretConfig, jwtService *JWTService) *AuthHandler {
	return &AuthHandler{
		clients:    clients,
		secrets:    secrets,
		jwtService: jwtService,
		validator:  validator.New(),
	}
}

// Token handles POST /auth/token.
func (h *AuthHandler) Token(w http.ResponseWriter, r *http.Request) {
	var req TokenRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	if err := h.validator.Struct(req); err != nil {
		http.Error(w, extractValidationErrors(err), http.StatusBadRequest)
		return
	}

	if err := h.authenticate(req.ClientID, req.ClientSecret); err != nil {
		http.Error(w, err.Error(), HTTPStatus(err))
		return
	}

	token, expiresAt, err := h.jwtService.GenerateToken(req.ClientID)
	if err != nil {
		http.Error(w, "Failed to generate token", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(TokenResponse{
		AccessToken: token,
		TokenType:   "Bearer",
		ExpiresAt:   expiresAt.UTC(),
	})
}

func (h *AuthHandler) authenticate(clientID, secret string) error {
	hash, ok := h.clients[clientID]
	if !ok {
		return &ErrInvalidCredentials{}
	}
	if !h.secrets.VerifySecret(secret, hash) {
		return &ErrInvalidCredentials{}
	}
	return nil
}

func extractValidationErrors(err error) string {
	if validationErrors, ok := err.(validator.ValidationErrors); ok && len(validationErrors) > 0 {
		// Return first validation error for simplicity
		ve := validationErrors[0]
		return fmt.Sprintf("validation error: %s - %s", ve.Field(), ve.Tag())
	}
	return "validation error: invalid request"
}
