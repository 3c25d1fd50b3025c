package token

import (
	"strconv"
	"time"

	"github.com/rs/zerolog/log"
)

// NowTimeFunc returns the current time. It can be overridden in tests.
var NowTimeFunc = time.Now

// Store persists the access token, refresh token and access token expiry.
type Store struct {
	kv      KV
	nowFunc func() time.Time
}

type StoreOption func(*Store)

func WithNowFunc(now func() time.Time) StoreOption {
	return func(s *Store) {
		s.nowFunc = now
	}
}

func NewStore(kv KV, options ...StoreOption) *Store {
	s := &Store{kv: kv}
	for _, opt := range options {
		opt(s)
	}
	if s.nowFunc == nil {
		s.nowFunc = NowTimeFunc
	}
	return s
}

// AccessToken returns the stored access token, or nil when there is none
func (s *Store) AccessToken() (*string, error) {
	return s.get(AccessTokenKey)
}

// RefreshToken returns the stored refresh token, or nil when there is none
func (s *Store) RefreshToken() (*string, error) {
	return s.get(RefreshTokenKey)
}

// Expiry returns the access token expiry in epoch milliseconds, or nil.
// An unparseable value is treated as absent.
func (s *Store) Expiry() (*int64, error) {
	raw, err := s.get(ExpiryKey)
	if err != nil || raw == nil {
		return nil, err
	}
	ms, err := strconv.ParseInt(*raw, 10, 64)
	if err != nil {
		return nil, nil
	}
	return &ms, nil
}

// Save writes the access token and, when given, the refresh token and the
// expiry computed as now + expiresInSeconds. Fields not given are left as they are.
// The write is all or nothing: on failure the previously stored session is kept.
func (s *Store) Save(accessToken string, refreshToken *string, expiresInSeconds *int64) error {
	entries := []Entry{{Key: AccessTokenKey, Value: accessToken}}
	if refreshToken != nil && *refreshToken != "" {
		entries = append(entries, Entry{Key: RefreshTokenKey, Value: *refreshToken})
	}
	if expiresInSeconds != nil {
		expiresAt := s.nowFunc().UnixMilli() + *expiresInSeconds*1000
		entries = append(entries, Entry{Key: ExpiryKey, Value: strconv.FormatInt(expiresAt, 10)})
	}

	if batch, ok := s.kv.(BatchKV); ok {
		if err := batch.SetMany(entries); err != nil {
			return &StorageError{Operation: "save", Key: AccessTokenKey, Cause: err}
		}
		return nil
	}
	return s.saveEach(entries)
}

// saveEach writes entries one at a time, restoring the earlier values of
// the keys already written when a later write fails.
func (s *Store) saveEach(entries []Entry) error {
	type previous struct {
		value string
		ok    bool
	}
	prior := make([]previous, len(entries))
	for i, e := range entries {
		v, ok, err := s.kv.Get(e.Key)
		if err != nil {
			return &StorageError{Operation: "save", Key: e.Key, Cause: err}
		}
		prior[i] = previous{value: v, ok: ok}
	}

	for i, e := range entries {
		if err := s.set(e.Key, e.Value); err != nil {
			for j := i - 1; j >= 0; j-- {
				var rollbackErr error
				if prior[j].ok {
					rollbackErr = s.kv.Set(entries[j].Key, prior[j].value)
				} else {
					rollbackErr = s.kv.Delete(entries[j].Key)
				}
				if rollbackErr != nil {
					log.Err(rollbackErr).Str("key", entries[j].Key).Msg("[token.Save] restoring previous value")
				}
			}
			return err
		}
	}
	return nil
}

// Clear removes all session fields.
func (s *Store) Clear() error {
	if err := s.kv.Delete(AccessTokenKey, RefreshTokenKey, ExpiryKey); err != nil {
		return &StorageError{Operation: "clear", Cause: err}
	}
	return nil
}

// Snapshot reads all three fields in one go
func (s *Store) Snapshot() (accessToken, refreshToken *string, expiresAtMs *int64, err error) {
	if accessToken, err = s.AccessToken(); err != nil {
		return nil, nil, nil, err
	}
	if refreshToken, err = s.RefreshToken(); err != nil {
		return nil, nil, nil, err
	}
	if expiresAtMs, err = s.Expiry(); err != nil {
		return nil, nil, nil, err
	}
	return accessToken, refreshToken, expiresAtMs, nil
}

func (s *Store) get(key string) (*string, error) {
	v, ok, err := s.kv.Get(key)
	if err != nil {
		return nil, &StorageError{Operation: "get", Key: key, Cause: err}
	}
	if !ok || v == "" {
		return nil, nil
	}
	return &v, nil
}

func (s *Store) set(key, value string) error {
	if err := s.kv.Set(key, value); err != nil {
		return &StorageError{Operation: "save", Key: key, Cause: err}
	}
	return nil
}
