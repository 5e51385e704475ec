package dto

import (
	"encoding/json"
	"time"

	"cv-hub/internal/domain/cv"
	"cv-hub/internal/repository"
)

type UpdateCVRequest struct {
	CV json.RawMessage `json:"cv"`
}

type CVVersionResponse struct {
	ID        int64           `json:"id"`
	CVID      int64           `json:"cvId"`
	Data      json.RawMessage `json:"data"`
	Status    string          `json:"status"`
	Source    *string         `json:"source"`
	FileHash  *string         `json:"fileHash"`
	CreatedAt string          `json:"createdAt"`
}

func NewCVVersionResponse(v cv.Version) CVVersionResponse {
	return CVVersionResponse{
		ID:        v.ID,
		CVID:      v.CVID,
		Data:      json.RawMessage(v.Data),
		Status:    string(v.Status),
		Source:    optional(v.Source),
		FileHash:  optional(v.FileHash),
		CreatedAt: v.CreatedAt.UTC().Format(time.RFC3339Nano),
	}
}

func NewCVVersionListResponse(items []cv.Version) []CVVersionResponse {
	out := make([]CVVersionResponse, 0, len(items))
	for _, v := range items {
		out = append(out, NewCVVersionResponse(v))
	}
	return out
}

type HealthResponse struct {
	Status    string         `json:"status"`
	Timestamp string         `json:"timestamp"`
	Uptime    int64          `json:"uptime"`
	Database  DatabaseHealth `json:"database"`
	Cache     string         `json:"cache"`
}

type DatabaseHealth struct {
	Status string `json:"status"`
	Type   string `json:"type"`
}

type SystemConfigRequest struct {
	Value *string `json:"value"`
}

type SystemConfigResponse struct {
	Key       string `json:"key"`
	Value     string `json:"value"`
	UpdatedAt string `json:"updatedAt"`
}

func NewSystemConfigResponse(c repository.SystemConfig) SystemConfigResponse {
	return SystemConfigResponse{
		Key:       c.Key,
		Value:     c.Value,
		UpdatedAt: c.UpdatedAt.UTC().Format(time.RFC3339Nano),
	}
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
