package bot

import "sync"

// pendingStore holds each user's most recently requested content key while
// the gate prompt round trip is in flight. Entries are keyed per user id so
// concurrent users never overwrite each other; a new request from the same
// user replaces the previous entry. There is no expiry: an abandoned entry
// is simply overwritten by the next request or answered as stale.
type pendingStore struct {
	mu   sync.Mutex
	keys map[int64]string
}

func newPendingStore() *pendingStore {
	return &pendingStore{keys: make(map[int64]string)}
}

// put records userID's pending content key, replacing any previous one.
func (p *pendingStore) put(userID int64, key string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.keys[userID] = key
}

// get returns userID's pending key, if any.
func (p *pendingStore) get(userID int64) (string, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	k, ok := p.keys[userID]
	return k, ok
}

// clear removes userID's pending entry.
func (p *pendingStore) clear(userID int64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	delete(p.keys, userID)
}
