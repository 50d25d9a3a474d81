// internal/stock/table/tabs.go
package table

import (
	"context"
	"encoding/json"
	"strings"
	"sync"

	"stock-backoffice/internal/common/logger"
	"stock-backoffice/internal/common/storage"
	"stock-backoffice/internal/models"
	"stock-backoffice/internal/stock/filters"
)

const ActiveTabKey = "vehicle-active-tab"

// savedTab is the persisted active tab. Older entries hold the bare group
// name instead of the {data} object.
type savedTab struct {
	Data string `json:"data"`
}

func (s *savedTab) UnmarshalJSON(raw []byte) error {
	var name string
	if err := json.Unmarshal(raw, &name); err == nil {
		s.Data = name
		return nil
	}
	type plain savedTab
	return json.Unmarshal(raw, (*plain)(s))
}

type TabsSnapshot struct {
	Group  filters.StatusGroup
	Active int
	Tabs   []models.Tab
}

// Tabs tracks the listing tabs and the status group they select.
type Tabs struct {
	store  *storage.Store
	logger logger.Logger

	mu     sync.Mutex
	group  filters.StatusGroup
	active int
	tabs   []models.Tab
}

func NewTabs(store *storage.Store, log logger.Logger) *Tabs {
	return &Tabs{
		store:  store,
		logger: logger.ForComponent(log, "table.tabs"),
		group:  filters.GroupActive,
		tabs:   []models.Tab{},
	}
}

// Load restores the saved status group.
func (t *Tabs) Load(ctx context.Context) filters.StatusGroup {
	var saved savedTab
	ok := t.store.Load(ctx, ActiveTabKey, &saved)

	t.mu.Lock()
	defer t.mu.Unlock()
	if ok && saved.Data != "" {
		t.group = filters.GroupFromTab(saved.Data)
	}
	t.active = t.indexLocked()
	return t.group
}

// SetByName selects the tab's status group: "archive" in any case selects
// Archive, anything else Active.
func (t *Tabs) SetByName(ctx context.Context, name string) filters.StatusGroup {
	t.mu.Lock()
	t.group = filters.GroupFromTab(name)
	t.active = t.indexLocked()
	group := t.group
	t.mu.Unlock()

	if err := t.store.Save(ctx, ActiveTabKey, savedTab{Data: string(group)}); err != nil {
		t.logger.Warn("failed to save active tab", map[string]interface{}{"error": err.Error()})
	}
	return group
}

// SetTabs replaces the tab list. An empty list keeps the current tabs.
func (t *Tabs) SetTabs(tabs []models.Tab) {
	if len(tabs) == 0 {
		return
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	t.tabs = append([]models.Tab{}, tabs...)
	t.active = t.indexLocked()
}

func (t *Tabs) indexLocked() int {
	for i, tab := range t.tabs {
		if strings.EqualFold(tab.Name, string(t.group)) {
			return i
		}
	}
	return 0
}

func (t *Tabs) Group() filters.StatusGroup {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.group
}

func (t *Tabs) Snapshot() TabsSnapshot {
	t.mu.Lock()
	defer t.mu.Unlock()
	return TabsSnapshot{
		Group:  t.group,
		Active: t.active,
		Tabs:   append([]models.Tab{}, t.tabs...),
	}
}
