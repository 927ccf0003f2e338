package api

import (
	"time"

	"token-holders/internal/holders/model"
)

type ErrorResponse struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

type HoldersResponse struct {
	Token     model.TokenMetadata    `json:"token"`
	Stats     model.ViewStats        `json:"stats"`
	Sort      model.SortConfig       `json:"sort"`
	Search    string                 `json:"search,omitempty"`
	Matched   int                    `json:"matched"`
	Rows      []model.EnrichedHolder `json:"rows"`
	Endpoint  model.EndpointInfo     `json:"endpoint"`
	FetchedAt time.Time              `json:"fetched_at"`
}
