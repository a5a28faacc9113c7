package handlers

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/kinship-app/kinshipbackend/models"
	"github.com/kinship-app/kinshipbackend/repository"
)

type AuthHandler struct {
	AccountRepo   repository.AccountRepository
	JWTSecret     []byte
	JWTExpiration time.Duration
}

func NewAuthHandler(accountRepo repository.AccountRepository, jwtSecret []byte, jwtExpiration time.Duration) *AuthHandler {
	return &AuthHandler{AccountRepo: accountRepo, JWTSecret: jwtSecret, JWTExpiration: jwtExpiration}
}

type RegisterPayload struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type LoginPayload struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type LoginResponse struct {
	Token     string         `json:"token"`
	Account   models.Account `json:"account"`
	ExpiresAt time.Time      `json:"expires_at"`
}

// Register creates a new account. Registration is open; claiming a person in
// the tree is a separate, invite-driven step.
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var payload RegisterPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		WriteAPIError(w, http.StatusBadRequest, "invalid_payload", "Invalid request payload: "+err.Error())
		return
	}

	payload.Email = strings.TrimSpace(strings.ToLower(payload.Email))
	if payload.Email == "" || payload.Password == "" {
		WriteAPIError(w, http.StatusBadRequest, "invalid_payload", "Email and password are required")
		return
	}
	if len(payload.Password) < 8 {
		WriteAPIError(w, http.StatusBadRequest, "invalid_payload", "Password must be at least 8 characters")
		return
	}

	account := &models.Account{Email: payload.Email}
	if err := account.SetPassword(payload.Password); err != nil {
		WriteAPIError(w, http.StatusInternalServerError, "server_error", "Failed to process password")
		return
	}

	if err := h.AccountRepo.Create(account); err != nil {
		WriteAPIError(w, http.StatusConflict, "email_taken", "An account with that email already exists")
		return
	}

	writeJSON(w, http.StatusCreated, account)
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var payload LoginPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		WriteAPIError(w, http.StatusBadRequest, "invalid_payload", "Invalid request payload")
		return
	}

	account, err := h.AccountRepo.GetByEmail(strings.TrimSpace(strings.ToLower(payload.Email)))
	if err != nil || !account.CheckPassword(payload.Password) {
		WriteAPIError(w, http.StatusUnauthorized, "invalid_credentials", "Invalid email or password")
		return
	}

	expirationTime := time.Now().Add(h.JWTExpiration)
	claims := &jwt.RegisteredClaims{
		Subject:   account.ID,
		ExpiresAt: jwt.NewNumericDate(expirationTime),
		IssuedAt:  jwt.NewNumericDate(time.Now()),
		Issuer:    "kinshipbackend",
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString(h.JWTSecret)
	if err != nil {
		WriteAPIError(w, http.StatusInternalServerError, "server_error", "Failed to generate token")
		return
	}

	writeJSON(w, http.StatusOK, LoginResponse{
		Token:     tokenString,
		Account:   *account,
		ExpiresAt: expirationTime,
	})
}
