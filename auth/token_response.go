package auth

import (
	"encoding/json"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/tidwall/gjson"
)

// TokenResponse is the login/refresh payload. The backend has shipped two
// contracts: {access_token, refresh_token, expires_in} and {token,
// refresh_token}; both are accepted, optionally wrapped in "data".
type TokenResponse struct {
	AccessToken  string
	RefreshToken *string
	// ExpiresIn is nil when the backend did not say.
	ExpiresIn *int64
	// User is the admin profile when the backend includes one.
	User json.RawMessage
}

func parseTokenResponse(raw []byte) (TokenResponse, error) {
	if !gjson.ValidBytes(raw) {
		return TokenResponse{}, MalformedResponseErr
	}
	doc := gjson.ParseBytes(raw)
	if !doc.IsObject() {
		return TokenResponse{}, MalformedResponseErr
	}
	if data := doc.Get("data"); data.IsObject() && (data.Get("access_token").Exists() || data.Get("token").Exists()) {
		doc = data
	}

	tr := TokenResponse{}
	for _, field := range []string{"access_token", "token"} {
		if v := doc.Get(field); v.Type == gjson.String && v.String() != "" {
			tr.AccessToken = v.String()
			break
		}
	}
	if tr.AccessToken == "" {
		return TokenResponse{}, MalformedResponseErr
	}

	if v := doc.Get("refresh_token"); v.Type == gjson.String && v.String() != "" {
		rt := v.String()
		tr.RefreshToken = &rt
	}
	if v := doc.Get("expires_in"); v.Exists() && v.Int() > 0 {
		secs := v.Int()
		tr.ExpiresIn = &secs
	}
	if v := doc.Get("user"); v.IsObject() {
		tr.User = json.RawMessage(v.Raw)
	}
	return tr, nil
}

// expiresInSeconds picks expires_in, then the access token's exp claim, then fallback.
func (tr TokenResponse) expiresInSeconds(now time.Time, fallback time.Duration) int64 {
	if tr.ExpiresIn != nil {
		return *tr.ExpiresIn
	}
	if exp, ok := jwtExpiry(tr.AccessToken); ok {
		if secs := int64(exp.Sub(now).Seconds()); secs > 0 {
			return secs
		}
	}
	return int64(fallback.Seconds())
}

// jwtExpiry reads the exp claim without verifying the signature; the client
// only needs it as an expiry hint and never trusts it for authorization.
func jwtExpiry(accessToken string) (time.Time, bool) {
	parsed, _, err := jwt.NewParser().ParseUnverified(accessToken, jwt.MapClaims{})
	if err != nil {
		return time.Time{}, false
	}
	exp, err := parsed.Claims.GetExpirationTime()
	if err != nil || exp == nil {
		return time.Time{}, false
	}
	return exp.Time, true
}
