package app

import (
	"encoding/json"
	"sync"
)

// peer serializes frame writes to one connection. Writes are best-effort:
// a dead subscriber is dropped by its own connection teardown, never by the
// broadcaster.
type peer struct {
	mu      sync.Mutex
	encoder *json.Encoder
}

func newPeer(encoder *json.Encoder) *peer {
	return &peer{encoder: encoder}
}

func (p *peer) writeFrame(frame wsFrame) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.encoder.Encode(frame)
}

// hub tracks which connections subscribe to which table.
type hub struct {
	mu          sync.Mutex
	subscribers map[string]map[*peer]struct{}
}

func newHub() *hub {
	return &hub{subscribers: make(map[string]map[*peer]struct{})}
}

func (h *hub) subscribe(tableID string, p *peer) {
	h.mu.Lock()
	defer h.mu.Unlock()

	peers, ok := h.subscribers[tableID]
	if !ok {
		peers = make(map[*peer]struct{})
		h.subscribers[tableID] = peers
	}
	peers[p] = struct{}{}
}

func (h *hub) unsubscribe(tableID string, p *peer) {
	h.mu.Lock()
	defer h.mu.Unlock()

	peers, ok := h.subscribers[tableID]
	if !ok {
		return
	}
	delete(peers, p)
	if len(peers) == 0 {
		delete(h.subscribers, tableID)
	}
}

// unsubscribeAll removes p from every table and returns the ids it watched.
func (h *hub) unsubscribeAll(p *peer) []string {
	h.mu.Lock()
	defer h.mu.Unlock()

	var ids []string
	for tableID, peers := range h.subscribers {
		if _, ok := peers[p]; !ok {
			continue
		}
		delete(peers, p)
		if len(peers) == 0 {
			delete(h.subscribers, tableID)
		}
		ids = append(ids, tableID)
	}
	return ids
}

// broadcast fans a frame out to every subscriber of a table. The snapshot of
// peers is taken under the hub lock; writes happen outside it.
func (h *hub) broadcast(tableID string, frame wsFrame) {
	h.mu.Lock()
	peers := make([]*peer, 0, len(h.subscribers[tableID]))
	for p := range h.subscribers[tableID] {
		peers = append(peers, p)
	}
	h.mu.Unlock()

	for _, p := range peers {
		_ = p.writeFrame(frame)
	}
}
