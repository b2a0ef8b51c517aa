// internal/handlers/user.go
package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/jason-s-yu/peekmatch/internal/auth"
)

const authCookieName = "auth_token"

type guestRequest struct {
	Name string `json:"name"`
}

type guestResponse struct {
	UserID string `json:"user_id"`
	Name   string `json:"name"`
	Token  string `json:"token"`
}

// GuestHandler issues an ephemeral identity and sets it as the auth_token cookie.
func (s *Server) GuestHandler(w http.ResponseWriter, r *http.Request) {
	var req guestRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		http.Error(w, "bad guest request payload", http.StatusBadRequest)
		return
	}
	name := strings.TrimSpace(req.Name)
	if name == "" {
		name = "Guest"
	}
	userID := uuid.NewString()
	token, err := s.Signer.CreateJWT(userID, name)
	if err != nil {
		s.Logger.WithError(err).Error("Failed to sign guest token")
		http.Error(w, "failed to create guest", http.StatusInternalServerError)
		return
	}
	http.SetCookie(w, &http.Cookie{
		Name:     authCookieName,
		Value:    token,
		HttpOnly: true,
		Path:     "/",
	})
	writeJSON(w, http.StatusOK, guestResponse{UserID: userID, Name: name, Token: token})
}

// authenticate reads the token from the auth_token cookie, a bearer header or the token query parameter.
func (s *Server) authenticate(r *http.Request) (*auth.Claims, error) {
	var token string
	if c, err := r.Cookie(authCookieName); err == nil {
		token = c.Value
	} else if h := r.Header.Get("Authorization"); strings.HasPrefix(h, "Bearer ") {
		token = strings.TrimPrefix(h, "Bearer ")
	} else {
		token = r.URL.Query().Get("token")
	}
	if token == "" {
		return nil, auth.ErrInvalidToken
	}
	return s.Signer.AuthenticateJWT(token)
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
