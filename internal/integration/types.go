package integration

import "time"

type Request struct {
	Dataset string `json:"dataset"`
	Data    []Item `json:"data"`
}

type Item struct {
	Vec       []float64   `json:"vector"`
	Label     int         `json:"label"`
	Extra     interface{} `json:"extra"`
	CreatedAt time.Time   `json:"createdAt"`
}

type AuditRequest struct {
	Dataset string `json:"dataset"`
}
