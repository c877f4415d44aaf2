package model

import (
	"time"

	"github.com/go-sift/sift/pkg/math/vector"
	"github.com/google/uuid"
)

type Status uint8

const (
	// StatusNew marks an example that has not been through an audit yet.
	StatusNew Status = iota
	StatusAudited
)

func NewExample(dataset string, vec vector.V, label int, createdAt time.Time, extra interface{}) Example {
	return Example{
		ID:             uuid.New(),
		Dataset:        dataset,
		Vec:            vec,
		Label:          label,
		SuggestedLabel: -1,
		Status:         StatusNew,
		CreatedAt:      createdAt,
		Extra:          extra,
	}
}

// Example is a single labeled training example owned by a dataset. An audit
// fills in the quality fields: Issue, Score and SuggestedLabel.
type Example struct {
	ID             uuid.UUID   `json:"id"`
	Dataset        string      `json:"dataset"`
	Vec            vector.V    `json:"vec"`
	Label          int         `json:"label"`
	SuggestedLabel int         `json:"suggestedLabel"`
	Score          float64     `json:"score"`
	Issue          bool        `json:"issue"`
	Status         Status      `json:"status"`
	CreatedAt      time.Time   `json:"createdAt"`
	Extra          interface{} `json:"extra"`
}

func (e Example) IsAudited() bool {
	return e.Status == StatusAudited
}

func (e Example) IsNew() bool {
	return e.Status == StatusNew
}

func (e Example) Vector() vector.V {
	return e.Vec
}

func (e Example) Time() time.Time {
	return e.CreatedAt
}
