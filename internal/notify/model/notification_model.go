package model

import (
	"time"

	exampleModel "github.com/go-sift/sift/internal/example/model"
	"github.com/google/uuid"
)

func NewNotification(dataset string, examples []exampleModel.Example) Notification {
	return Notification{
		ID:        uuid.New(),
		Dataset:   dataset,
		Examples:  examples,
		CreatedAt: time.Now(),
	}
}

// Notification is a batch of flagged examples waiting for delivery to a
// webhook target. Undelivered batches are persisted across restarts.
type Notification struct {
	ID        uuid.UUID              `json:"id"`
	Dataset   string                 `json:"dataset"`
	Examples  []exampleModel.Example `json:"examples"`
	CreatedAt time.Time              `json:"createdAt"`
}
