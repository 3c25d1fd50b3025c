package kvfake

import (
	"sync"

	"github.com/jrsteele09/vpn-admin/token"
)

var _ token.KV = (*FakeKV)(nil)

// FakeKV is an in-memory token.KV. It never fails unless FailWith is set.
type FakeKV struct {
	values map[string]string
	lock   sync.RWMutex
	err    error
}

func NewFakeKV() *FakeKV {
	return &FakeKV{
		values: make(map[string]string),
	}
}

// FailWith makes every subsequent operation return err. Pass nil to recover.
func (kv *FakeKV) FailWith(err error) {
	kv.lock.Lock()
	defer kv.lock.Unlock()
	kv.err = err
}

func (kv *FakeKV) Get(key string) (string, bool, error) {
	kv.lock.RLock()
	defer kv.lock.RUnlock()
	if kv.err != nil {
		return "", false, kv.err
	}
	v, ok := kv.values[key]
	return v, ok, nil
}

func (kv *FakeKV) Set(key, value string) error {
	kv.lock.Lock()
	defer kv.lock.Unlock()
	if kv.err != nil {
		return kv.err
	}
	kv.values[key] = value
	return nil
}

func (kv *FakeKV) Delete(keys ...string) error {
	kv.lock.Lock()
	defer kv.lock.Unlock()
	if kv.err != nil {
		return kv.err
	}
	for _, k := range keys {
		delete(kv.values, k)
	}
	return nil
}

// Len is the number of stored keys
func (kv *FakeKV) Len() int {
	kv.lock.RLock()
	defer kv.lock.RUnlock()
	return len(kv.values)
}
