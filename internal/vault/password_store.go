package vault

import "sync"

// passwordStore caches the password of every opened snapshot, keyed by
// snapshot path. It is re-set on every bootstrap so that a reloaded store
// never gets served a stale credential. Passwords are never logged nor
// returned to callers.
type passwordStore struct {
	mtx       sync.RWMutex
	passwords map[string][]byte
}

func newPasswordStore() *passwordStore {
	return &passwordStore{passwords: map[string][]byte{}}
}

func (p *passwordStore) set(path string, password []byte) {
	p.mtx.Lock()
	defer p.mtx.Unlock()

	buf := make([]byte, len(password))
	copy(buf, password)
	p.passwords[path] = buf
}

func (p *passwordStore) get(path string) ([]byte, bool) {
	p.mtx.RLock()
	defer p.mtx.RUnlock()

	password, ok := p.passwords[path]
	return password, ok
}
