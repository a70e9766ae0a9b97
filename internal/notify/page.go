package notify

import (
	"sync"

	"github.com/gameportal/portal/internal/domain"
)

// Page is one agent's loaded notification list. Read state on the page is
// the viewer's effective state: a broadcast counts as read once the viewer
// holds a receipt for it. Safe for concurrent use.
type Page struct {
	mu     sync.Mutex
	viewer domain.Session
	items  []domain.Notification
	index  map[string]int
}

func newPage(viewer domain.Session, items []domain.Notification) *Page {
	p := &Page{viewer: viewer, items: items, index: make(map[string]int, len(items))}
	for i, n := range items {
		if _, dup := p.index[n.ID]; !dup {
			p.index[n.ID] = i
		}
	}
	return p
}

// Viewer returns the session the page was loaded for.
func (p *Page) Viewer() domain.Session { return p.viewer }

// Items returns a copy of the loaded notifications, newest first.
func (p *Page) Items() []domain.Notification {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]domain.Notification, len(p.items))
	copy(out, p.items)
	return out
}

// Len returns the number of loaded notifications.
func (p *Page) Len() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.items)
}

// UnreadCount counts unread notifications on the page. It is recomputed on
// every call, never tracked separately.
func (p *Page) UnreadCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	n := 0
	for _, item := range p.items {
		if !item.IsRead() {
			n++
		}
	}
	return n
}

// lookup returns the notification with id and whether it is on the page.
func (p *Page) lookup(id string) (domain.Notification, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	i, ok := p.index[id]
	if !ok {
		return domain.Notification{}, false
	}
	return p.items[i], true
}

// markRead flips id to Read and reports whether this call made the transition.
func (p *Page) markRead(id string) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	i, ok := p.index[id]
	if !ok || p.items[i].IsRead() {
		return false
	}
	p.items[i].ReadStatus = domain.Read
	return true
}

// unreadIDs snapshots the ids currently unread on the page.
func (p *Page) unreadIDs() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	var ids []string
	for _, item := range p.items {
		if !item.IsRead() {
			ids = append(ids, item.ID)
		}
	}
	return ids
}
