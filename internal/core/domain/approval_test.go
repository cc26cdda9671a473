package domain_test

import (
	"testing"
	"time"

	"github.com/cuidobem/finance-backend/internal/core/domain"
	"github.com/stretchr/testify/assert"
)

func TestApproval_IsDecided(t *testing.T) {
	assert.False(t, domain.Approval{Status: domain.ApprovalPending}.IsDecided())
	assert.True(t, domain.Approval{Status: domain.ApprovalApproved}.IsDecided())
	assert.True(t, domain.Approval{Status: domain.ApprovalRejected}.IsDecided())
	assert.True(t, domain.Approval{Status: domain.ApprovalAutoApproved}.IsDecided())
}

func TestApproval_IsExpired(t *testing.T) {
	now := time.Date(2026, 8, 15, 12, 0, 0, 0, time.UTC)
	past := now.Add(-time.Hour)
	future := now.Add(time.Hour)

	tests := []struct {
		name      string
		status    domain.ApprovalStatus
		expiresAt *time.Time
		want      bool
	}{
		{name: "pending past expiry", status: domain.ApprovalPending, expiresAt: &past, want: true},
		{name: "pending before expiry", status: domain.ApprovalPending, expiresAt: &future, want: false},
		{name: "pending without expiry", status: domain.ApprovalPending, expiresAt: nil, want: false},
		{name: "approved never expires", status: domain.ApprovalApproved, expiresAt: &past, want: false},
		{name: "rejected never expires", status: domain.ApprovalRejected, expiresAt: &past, want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := domain.Approval{Status: tt.status, ExpiresAt: tt.expiresAt}
			assert.Equal(t, tt.want, a.IsExpired(now))
		})
	}
}
