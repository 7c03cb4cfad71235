// Package events carries product sync requests from the API to the worker
// over Kafka.
package events

import (
	"time"

	"storesync/internal/models"

	"github.com/google/uuid"
)

type Type string

const (
	TypeProductCreated Type = "product.created"
	TypeProductUpdated Type = "product.updated"
	TypeProductDeleted Type = "product.deleted"
)

// Event is one queued sync request. Deleted products no longer exist
// locally, so Data carries the fields the delete lookup needs.
type Event struct {
	ID        string                 `json:"id"`
	Type      Type                   `json:"type"`
	ProductID string                 `json:"product_id"`
	Data      map[string]interface{} `json:"data,omitempty"`
	Timestamp time.Time              `json:"timestamp"`
}

// NewProductEvent builds the event for a sync action on p.
func NewProductEvent(action models.SyncAction, p *models.Product) Event {
	e := Event{
		ID:        uuid.NewString(),
		Type:      typeFor(action),
		ProductID: p.ID,
		Timestamp: time.Now().UTC(),
	}
	if action == models.SyncActionDelete {
		e.Data = map[string]interface{}{"name": p.Name}
	}
	return e
}

// Action maps the event type back to a sync action.
func (e Event) Action() (models.SyncAction, bool) {
	switch e.Type {
	case TypeProductCreated:
		return models.SyncActionCreate, true
	case TypeProductUpdated:
		return models.SyncActionUpdate, true
	case TypeProductDeleted:
		return models.SyncActionDelete, true
	}
	return "", false
}

// DeletedProduct rebuilds the local product a delete event refers to.
func (e Event) DeletedProduct() *models.Product {
	name, _ := e.Data["name"].(string)
	return &models.Product{ID: e.ProductID, Name: name}
}

func typeFor(action models.SyncAction) Type {
	switch action {
	case models.SyncActionCreate:
		return TypeProductCreated
	case models.SyncActionDelete:
		return TypeProductDeleted
	default:
		return TypeProductUpdated
	}
}
