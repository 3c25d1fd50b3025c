package adminfake

import (
	"encoding/json"
	"net/http"
	"strings"
)

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type refreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

func (b *Backend) loginHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		b.loginCalls.Add(1)

		var req loginRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "Malformed request body")
			return
		}
		if strings.TrimSpace(req.Email) == "" || req.Password == "" {
			writeValidation(w, "Email and password are required", map[string][]string{
				"email":    {"can't be blank"},
				"password": {"can't be blank"},
			})
			return
		}

		account, ok := b.authenticate(req.Email, req.Password)
		if !ok {
			writeError(w, http.StatusUnauthorized, "Invalid email or password")
			return
		}

		accessToken, err := b.issuer.accessToken(account.id)
		if err != nil {
			writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
		refreshToken, err := b.issuer.refreshToken(account.id)
		if err != nil {
			writeError(w, http.StatusInternalServerError, err.Error())
			return
		}

		w.Header().Set("Cache-Control", "no-store")
		writeJSON(w, http.StatusOK, map[string]any{
			"access_token":  accessToken,
			"refresh_token": refreshToken,
			"token_type":    "Bearer",
			"expires_in":    int64(b.access.Seconds()),
			"user": map[string]any{
				"id":    account.id,
				"email": account.email,
				"name":  account.name,
			},
		})
	}
}

// refreshHandler answers with the older {token, refresh_token} contract so
// both token field names stay exercised.
func (b *Backend) refreshHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		b.refreshCalls.Add(1)

		if status := int(b.refreshFailure.Load()); status != 0 {
			writeError(w, status, "Refresh unavailable")
			return
		}

		var req refreshRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.RefreshToken == "" {
			writeError(w, http.StatusBadRequest, "refresh_token is required")
			return
		}

		adminID, err := b.issuer.redeem(req.RefreshToken)
		if err != nil {
			writeError(w, http.StatusUnauthorized, err.Error())
			return
		}
		if _, ok := b.adminByID(adminID); !ok {
			writeError(w, http.StatusUnauthorized, "Unknown admin")
			return
		}

		accessToken, err := b.issuer.accessToken(adminID)
		if err != nil {
			writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
		refreshToken, err := b.issuer.refreshToken(adminID)
		if err != nil {
			writeError(w, http.StatusInternalServerError, err.Error())
			return
		}

		w.Header().Set("Cache-Control", "no-store")
		writeJSON(w, http.StatusOK, map[string]any{
			"token":         accessToken,
			"refresh_token": refreshToken,
			"expires_in":    int64(b.access.Seconds()),
		})
	}
}

func (b *Backend) logoutHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		accessToken := strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")
		b.issuer.revoke(accessToken)
		w.WriteHeader(http.StatusNoContent)
	}
}
