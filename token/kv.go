package token

// Keys under which the session is persisted. They match the browser storage
// keys used by the web dashboard so an exported session can be shared.
const (
	AccessTokenKey  = "token"
	RefreshTokenKey = "refresh_token"
	ExpiryKey       = "token_expiry"
)

// KV is the key-value capability the Store persists through.
// Get reports ok=false for a missing key; it is not an error.
type KV interface {
	Get(key string) (value string, ok bool, err error)
	Set(key, value string) error
	Delete(keys ...string) error
}

// Entry is one key-value pair of a batch write.
type Entry struct {
	Key   string
	Value string
}

// BatchKV is implemented by KVs that can write several keys atomically.
// Store.Save uses it when available; otherwise it writes key by key and
// restores the previous values when a write fails.
type BatchKV interface {
	KV
	SetMany(entries []Entry) error
}
