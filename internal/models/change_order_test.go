package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func ts(t time.Time) *time.Time { return &t }

func TestChangeOrder_Guards_Draft(t *testing.T) {
	co := &ChangeOrder{Status: "draft"}

	assert.True(t, co.CanEdit())
	assert.True(t, co.CanSignInternally())
	assert.False(t, co.CanSend())
	assert.False(t, co.CanResend())
	assert.False(t, co.CanApprove())
	assert.True(t, co.CanReject())
	assert.True(t, co.CanVoid())
	assert.True(t, co.CanDelete())
}

func TestChangeOrder_Guards_PendingInternal(t *testing.T) {
	co := &ChangeOrder{Status: "pending_internal"}

	assert.True(t, co.CanEdit())
	assert.True(t, co.CanSignInternally())
	assert.False(t, co.CanSend())
	assert.True(t, co.CanApprove())
	assert.True(t, co.CanReject())
	assert.True(t, co.CanVoid())
	assert.False(t, co.CanDelete())
}

func TestChangeOrder_Guards_PendingClientSigned(t *testing.T) {
	now := time.Now()
	co := &ChangeOrder{
		Status:           "pending_client",
		InternalSignedAt: ts(now),
	}

	assert.False(t, co.CanEdit())
	assert.False(t, co.CanSignInternally(), "внутренняя подпись ставится один раз")
	assert.True(t, co.CanSend())
	assert.False(t, co.CanResend(), "повторная отправка требует состоявшейся первой")
	assert.True(t, co.CanApprove())

	co.SentAt = ts(now)
	assert.False(t, co.CanSend(), "после отправки доступен только resend")
	assert.True(t, co.CanResend())

	co.ClientSignedAt = ts(now)
	assert.False(t, co.CanResend(), "после подписи клиента отправка закрыта")
}

func TestChangeOrder_Guards_Terminal(t *testing.T) {
	for _, status := range []string{"approved", "rejected", "voided"} {
		co := &ChangeOrder{Status: status}

		assert.False(t, co.CanEdit(), status)
		assert.False(t, co.CanSend(), status)
		assert.False(t, co.CanResend(), status)
		assert.False(t, co.CanDelete(), status)
	}

	// Из rejected ещё можно аннулировать, обратный переход запрещён.
	assert.True(t, (&ChangeOrder{Status: "rejected"}).CanVoid())
	assert.False(t, (&ChangeOrder{Status: "voided"}).CanVoid())
	assert.False(t, (&ChangeOrder{Status: "voided"}).CanReject())
	assert.False(t, (&ChangeOrder{Status: "approved"}).CanReject())
	assert.False(t, (&ChangeOrder{Status: "approved"}).CanVoid())
	assert.False(t, (&ChangeOrder{Status: "voided"}).CanSignInternally())
	assert.False(t, (&ChangeOrder{Status: "rejected"}).CanSignInternally())
}

func TestChangeOrder_AllowedActions(t *testing.T) {
	co := &ChangeOrder{Status: "draft"}
	actions := co.AllowedActions()

	assert.Contains(t, actions, ActionEdit)
	assert.Contains(t, actions, ActionSign)
	assert.Contains(t, actions, ActionDelete)
	assert.NotContains(t, actions, ActionSend)
	assert.NotContains(t, actions, ActionApprove)

	assert.Empty(t, (&ChangeOrder{Status: "voided"}).AllowedActions())
}

func TestChangeOrder_Timeline(t *testing.T) {
	base := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	signer := "Анна Орлова"
	email := "client@example.com"

	co := &ChangeOrder{
		CreatedAt:        base,
		InternalSignedAt: ts(base.Add(time.Hour)),
		InternalSignedBy: &signer,
		SentAt:           ts(base.Add(2 * time.Hour)),
		SentToEmail:      &email,
		ApprovedAt:       ts(base.Add(3 * time.Hour)),
	}

	entries := co.Timeline()
	assert.Len(t, entries, 4)
	assert.Equal(t, "created", entries[0].Event)
	assert.Equal(t, "internally_signed", entries[1].Event)
	assert.Equal(t, &signer, entries[1].Actor)
	assert.Equal(t, "sent", entries[2].Event)
	assert.Equal(t, "approved", entries[3].Event)
}

func TestChangeOrder_ItemsAndDeposit(t *testing.T) {
	co := &ChangeOrder{
		Amount:             90,
		DepositPercentage:  50,
		LegacyServiceNames: []string{"Дизайн", "Надзор"},
	}

	items := co.Items()
	assert.True(t, items.IsLegacy())

	normalized := items.Normalize(co.Amount)
	assert.Len(t, normalized, 2)
	assert.Equal(t, 45.0, normalized[0].Amount)

	assert.Equal(t, 45.0, co.DepositAmount())
}
