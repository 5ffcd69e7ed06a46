package hierarchy

import (
	"strconv"
	"strings"

	lru "github.com/hashicorp/golang-lru/v2"
)

const defaultMaxWidgetStoreSize = 50

// WidgetStore is a thread-safe LRU cache from a snapshot key (for example
// "<task>/<step>") to the numbered widgets of that snapshot, so an id-based
// action resolves against the numbering the agent was shown.
type WidgetStore struct {
	entries *lru.Cache[string, []Widget]
}

// NewWidgetStore creates a WidgetStore with default capacity.
func NewWidgetStore() *WidgetStore {
	return NewWidgetStoreSize(defaultMaxWidgetStoreSize)
}

// NewWidgetStoreSize creates a WidgetStore holding at most size snapshots.
func NewWidgetStoreSize(size int) *WidgetStore {
	if size <= 0 {
		size = defaultMaxWidgetStoreSize
	}
	cache, _ := lru.New[string, []Widget](size)
	return &WidgetStore{entries: cache}
}

// Store saves the widgets of h under key, evicting the oldest snapshot if over capacity.
func (ws *WidgetStore) Store(key string, h *Hierarchy) {
	ws.entries.Add(key, h.Widgets())
}

// Widgets returns the numbered widgets stored for key.
func (ws *WidgetStore) Widgets(key string) ([]Widget, bool) {
	return ws.entries.Get(key)
}

// Resolve looks up a widget by its dump index. The id may be given as
// "3", "[3]" or "#3".
func (ws *WidgetStore) Resolve(key, id string) (Widget, bool) {
	widgets, ok := ws.entries.Get(key)
	if !ok {
		return Widget{}, false
	}
	n, ok := NormalizeWidgetID(id)
	if !ok || n >= len(widgets) {
		return Widget{}, false
	}
	return widgets[n], true
}

// Len returns the number of cached snapshots.
func (ws *WidgetStore) Len() int {
	return ws.entries.Len()
}

// NormalizeWidgetID normalizes id formats: "[3]", "#3", "3" → 3.
func NormalizeWidgetID(raw string) (int, bool) {
	s := strings.TrimSpace(raw)
	s = strings.TrimPrefix(s, "#")
	s = strings.TrimSuffix(strings.TrimPrefix(s, "["), "]")
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || n < 0 {
		return 0, false
	}
	return n, true
}
