package dto

import (
	"time"

	"github.com/cuidobem/finance-backend/internal/core/domain"
)

// UpdateSettingRequest defines the payload for writing a setting.
type UpdateSettingRequest struct {
	Value string `json:"value" binding:"required"`
}

// SettingResponse defines the data returned for a setting.
type SettingResponse struct {
	Key           string    `json:"key"`
	Value         string    `json:"value"`
	Version       int       `json:"version"`
	LastUpdatedAt time.Time `json:"lastUpdatedAt"`
	LastUpdatedBy string    `json:"lastUpdatedBy"`
}

// SettingHistoryResponse defines one superseded value of a setting.
type SettingHistoryResponse struct {
	Value     string    `json:"value"`
	Version   int       `json:"version"`
	ChangedBy string    `json:"changedBy"`
	ChangedAt time.Time `json:"changedAt"`
}

// ToSettingResponse converts a domain.Setting to its DTO.
func ToSettingResponse(s *domain.Setting) SettingResponse {
	return SettingResponse{
		Key:           s.Key,
		Value:         s.Value,
		Version:       s.Version,
		LastUpdatedAt: s.LastUpdatedAt,
		LastUpdatedBy: s.LastUpdatedBy,
	}
}

// ToSettingHistoryResponses converts history rows to DTOs.
func ToSettingHistoryResponses(rows []domain.SettingHistory) []SettingHistoryResponse {
	out := make([]SettingHistoryResponse, len(rows))
	for i, h := range rows {
		out[i] = SettingHistoryResponse{
			Value:     h.Value,
			Version:   h.Version,
			ChangedBy: h.ChangedBy,
			ChangedAt: h.CreatedAt,
		}
	}
	return out
}
