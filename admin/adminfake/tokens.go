package adminfake

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"sync"
	"time"

	jwtlib "github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const refreshTokenLength = 32

var (
	errUnknownRefreshToken = errors.New("invalid refresh token")
	errInvalidAccessToken  = errors.New("invalid access token")
)

// issuedRefresh is the server side record behind an opaque refresh token.
type issuedRefresh struct {
	adminID string
	iat     time.Time
}

// tokenIssuer mints HS256 access tokens and rotating refresh tokens. A refresh
// token is single use: redeeming it deletes it.
type tokenIssuer struct {
	secret      []byte
	accessTTL   time.Duration
	refreshTTL  time.Duration
	now         func() time.Time
	lock        sync.Mutex
	refresh     map[string]issuedRefresh
	revokedJTIs map[string]struct{}
	// generation is stamped into every access token; tokens from an older
	// generation no longer verify.
	generation int64
}

func newTokenIssuer(secret []byte, accessTTL, refreshTTL time.Duration, now func() time.Time) *tokenIssuer {
	return &tokenIssuer{
		secret:      secret,
		accessTTL:   accessTTL,
		refreshTTL:  refreshTTL,
		now:         now,
		refresh:     make(map[string]issuedRefresh),
		revokedJTIs: make(map[string]struct{}),
	}
}

func (ti *tokenIssuer) accessToken(adminID string) (string, error) {
	now := ti.now()
	ti.lock.Lock()
	gen := ti.generation
	ti.lock.Unlock()

	claims := jwtlib.MapClaims{
		"sub":   adminID,
		"iat":   now.Unix(),
		"exp":   now.Add(ti.accessTTL).Unix(),
		"jti":   uuid.New().String(),
		"gen":   gen,
		"scope": "admin",
	}
	signed, err := jwtlib.NewWithClaims(jwtlib.SigningMethodHS256, claims).SignedString(ti.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign access token: %w", err)
	}
	return signed, nil
}

func (ti *tokenIssuer) refreshToken(adminID string) (string, error) {
	tokenBytes := make([]byte, refreshTokenLength)
	if _, err := rand.Read(tokenBytes); err != nil {
		return "", fmt.Errorf("failed to generate random bytes: %w", err)
	}
	tok := hex.EncodeToString(tokenBytes)

	ti.lock.Lock()
	defer ti.lock.Unlock()
	ti.refresh[tok] = issuedRefresh{adminID: adminID, iat: ti.now()}
	return tok, nil
}

// redeem consumes a refresh token and returns the admin it was issued to.
func (ti *tokenIssuer) redeem(tok string) (string, error) {
	ti.lock.Lock()
	defer ti.lock.Unlock()

	rt, ok := ti.refresh[tok]
	if !ok {
		return "", errUnknownRefreshToken
	}
	delete(ti.refresh, tok)
	if ti.now().Sub(rt.iat) > ti.refreshTTL {
		return "", errUnknownRefreshToken
	}
	return rt.adminID, nil
}

// verify checks signature, expiry and revocation, returning the subject.
func (ti *tokenIssuer) verify(accessToken string) (string, error) {
	parsed, err := jwtlib.Parse(accessToken, func(t *jwtlib.Token) (any, error) {
		return ti.secret, nil
	},
		jwtlib.WithValidMethods([]string{jwtlib.SigningMethodHS256.Alg()}),
		jwtlib.WithTimeFunc(ti.now),
	)
	if err != nil || !parsed.Valid {
		return "", errInvalidAccessToken
	}
	claims, ok := parsed.Claims.(jwtlib.MapClaims)
	if !ok {
		return "", errInvalidAccessToken
	}

	gen, _ := claims["gen"].(float64)
	ti.lock.Lock()
	_, revoked := ti.revokedJTIs[fmt.Sprint(claims["jti"])]
	stale := int64(gen) < ti.generation
	ti.lock.Unlock()
	if revoked || stale {
		return "", errInvalidAccessToken
	}

	sub, err := claims.GetSubject()
	if err != nil || sub == "" {
		return "", errInvalidAccessToken
	}
	return sub, nil
}

// revoke invalidates the access token and every refresh token of its subject.
func (ti *tokenIssuer) revoke(accessToken string) {
	parsed, _, err := jwtlib.NewParser().ParseUnverified(accessToken, jwtlib.MapClaims{})
	if err != nil {
		return
	}
	claims, ok := parsed.Claims.(jwtlib.MapClaims)
	if !ok {
		return
	}

	ti.lock.Lock()
	defer ti.lock.Unlock()
	ti.revokedJTIs[fmt.Sprint(claims["jti"])] = struct{}{}
	if sub, err := claims.GetSubject(); err == nil {
		for tok, rt := range ti.refresh {
			if rt.adminID == sub {
				delete(ti.refresh, tok)
			}
		}
	}
}

// expireAccess makes every access token issued so far fail verification
// while refresh tokens stay usable, which is how an expired session looks.
func (ti *tokenIssuer) expireAccess() {
	ti.lock.Lock()
	defer ti.lock.Unlock()
	ti.generation++
}

// dropRefresh forgets every refresh token so the next refresh is rejected.
func (ti *tokenIssuer) dropRefresh() {
	ti.lock.Lock()
	defer ti.lock.Unlock()
	ti.refresh = make(map[string]issuedRefresh)
}
