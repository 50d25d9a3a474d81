// internal/models/feed.go
package models

import (
	"bytes"
	"encoding/json"
	"strconv"
)

// FeedEventType classifies activity feed events.
type FeedEventType string

const (
	EventSeizedPropertyCreated FeedEventType = "SeizedPropertyCreated"
	EventValuationAdded        FeedEventType = "ValuationAdded"
	EventResponsibleAssigned   FeedEventType = "ResponsibleAssigned"
	EventStatusChanged         FeedEventType = "StatusChanged"
)

var feedEventLabels = map[FeedEventType]string{
	EventSeizedPropertyCreated: "Создание ИИ в РМ ОРИИ",
	EventValuationAdded:        "Оценка",
	EventResponsibleAssigned:   "Назначение ответственного",
	EventStatusChanged:         `Присвоение статуса "Расторгнут, изъят"`,
}

// FeedEventTypes lists the known event types in backend enum order.
func FeedEventTypes() []FeedEventType {
	return []FeedEventType{EventSeizedPropertyCreated, EventValuationAdded, EventResponsibleAssigned, EventStatusChanged}
}

// Label is the user-facing name of the event type.
func (t FeedEventType) Label() string {
	if label, ok := feedEventLabels[t]; ok {
		return label
	}
	return string(t)
}

// UnmarshalJSON accepts the type name or its numeric enum position.
func (t *FeedEventType) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*t = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*t = FeedEventType(s)
		return nil
	}
	n, err := strconv.Atoi(string(data))
	if err != nil {
		return err
	}
	if types := FeedEventTypes(); n >= 0 && n < len(types) {
		*t = types[n]
		return nil
	}
	*t = FeedEventType(strconv.Itoa(n))
	return nil
}

// FeedItem is one activity feed entry.
type FeedItem struct {
	UID         string          `json:"uid"`
	EventType   FeedEventType   `json:"event_type"`
	Title       string          `json:"title"`
	Description string          `json:"description"`
	CreatedAt   string          `json:"created_at"`
	EntityUID   string          `json:"entity_uid"`
	Payload     json.RawMessage `json:"payload,omitempty"`
	Read        bool            `json:"read"`
}

// FeedPage is one page of the feed.
type FeedPage struct {
	Count int        `json:"count"`
	Items []FeedItem `json:"items"`
}

// MarkReadRequest marks one item, or every item when FeedItem is nil.
type MarkReadRequest struct {
	FeedItem *string `json:"feed_item"`
}
