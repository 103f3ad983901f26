package billing

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/siatbridge/backend/internal/domain/shared"
)

func TestInvoiceStatus_CanTransitionTo(t *testing.T) {
	tests := []struct {
		name     string
		from     InvoiceStatus
		to       InvoiceStatus
		expected bool
	}{
		{"draft to emitted", InvoiceStatusDraft, InvoiceStatusEmitted, true},
		{"draft to queued", InvoiceStatusDraft, InvoiceStatusQueued, true},
		{"draft to cancelled", InvoiceStatusDraft, InvoiceStatusCancelled, false},
		{"queued to emitted", InvoiceStatusQueued, InvoiceStatusEmitted, true},
		{"queued to cancelled", InvoiceStatusQueued, InvoiceStatusCancelled, false},
		{"emitted to cancelled", InvoiceStatusEmitted, InvoiceStatusCancelled, true},
		{"emitted to queued", InvoiceStatusEmitted, InvoiceStatusQueued, false},
		{"cancelled back to emitted", InvoiceStatusCancelled, InvoiceStatusEmitted, true},
		{"cancelled to queued", InvoiceStatusCancelled, InvoiceStatusQueued, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.from.CanTransitionTo(tt.to))
		})
	}
}

func newDraftInvoice(t *testing.T) *Invoice {
	t.Helper()
	inv, err := NewInvoice(uuid.New(), uuid.New(), 1, time.Now())
	require.NoError(t, err)
	return inv
}

func TestNewInvoice_Validation(t *testing.T) {
	_, err := NewInvoice(uuid.Nil, uuid.New(), 1, time.Now())
	assert.Error(t, err)

	_, err = NewInvoice(uuid.New(), uuid.Nil, 1, time.Now())
	assert.Error(t, err)

	_, err = NewInvoice(uuid.New(), uuid.New(), 0, time.Now())
	assert.Error(t, err)
}

func TestInvoice_AddLine(t *testing.T) {
	inv := newDraftInvoice(t)

	err := inv.AddLine(uuid.New(), decimal.NewFromInt(2), decimal.NewFromFloat(10.5), decimal.NewFromInt(1))
	require.NoError(t, err)
	err = inv.AddLine(uuid.New(), decimal.NewFromInt(1), decimal.NewFromInt(5), decimal.Zero)
	require.NoError(t, err)

	assert.Len(t, inv.Lines, 2)
	// 2*10.5 - 1 + 5
	assert.True(t, inv.Total.Equal(decimal.NewFromInt(25)), "total was %s", inv.Total)
}

func TestInvoice_AddLine_Rejections(t *testing.T) {
	inv := newDraftInvoice(t)

	assert.Error(t, inv.AddLine(uuid.Nil, decimal.NewFromInt(1), decimal.NewFromInt(1), decimal.Zero))
	assert.Error(t, inv.AddLine(uuid.New(), decimal.Zero, decimal.NewFromInt(1), decimal.Zero))
	assert.Error(t, inv.AddLine(uuid.New(), decimal.NewFromInt(1), decimal.NewFromInt(-1), decimal.Zero))
	// discount larger than the line amount
	assert.Error(t, inv.AddLine(uuid.New(), decimal.NewFromInt(1), decimal.NewFromInt(2), decimal.NewFromInt(5)))

	require.NoError(t, inv.MarkEmitted("908", "CUF-1", 1, ""))
	assert.ErrorIs(t, inv.AddLine(uuid.New(), decimal.NewFromInt(1), decimal.NewFromInt(1), decimal.Zero), shared.ErrInvalidState)
}

func TestInvoice_OnlineLifecycle(t *testing.T) {
	inv := newDraftInvoice(t)

	require.NoError(t, inv.MarkEmitted("908", "CUF-ABC", 42, "https://siat.example.com/view/CUF-ABC"))
	assert.Equal(t, InvoiceStatusEmitted, inv.Status)
	assert.Equal(t, "CUF-ABC", inv.UniqueCode)
	require.NotNil(t, inv.Number)
	assert.Equal(t, int64(42), *inv.Number)

	require.NoError(t, inv.MarkCancelled("905"))
	assert.Equal(t, InvoiceStatusCancelled, inv.Status)
	assert.False(t, inv.Reverted)

	require.NoError(t, inv.MarkReversed("907"))
	assert.Equal(t, InvoiceStatusEmitted, inv.Status)
	assert.Equal(t, "907", inv.StateCode)
	assert.True(t, inv.Reverted)

	// cancelling again clears the reversal trace
	require.NoError(t, inv.MarkCancelled("905"))
	assert.False(t, inv.Reverted)
}

func TestInvoice_ContingencyLifecycle(t *testing.T) {
	inv := newDraftInvoice(t)
	eventID := uuid.New()

	require.NoError(t, inv.MarkQueued(eventID, "904", "CUF-OFF", 7))
	assert.Equal(t, InvoiceStatusQueued, inv.Status)
	assert.True(t, inv.Offline)
	require.NotNil(t, inv.EventID)
	assert.Equal(t, eventID, *inv.EventID)

	// queued invoices cannot be cancelled before the package confirms them
	assert.ErrorIs(t, inv.MarkCancelled("905"), shared.ErrInvoiceNotCancellable)

	require.NoError(t, inv.ConfirmQueued("908"))
	assert.Equal(t, InvoiceStatusEmitted, inv.Status)

	require.NoError(t, inv.MarkCancelled("905"))
}

func TestInvoice_ReversalRequiresCancelled(t *testing.T) {
	inv := newDraftInvoice(t)
	require.NoError(t, inv.MarkEmitted("908", "CUF-1", 1, ""))

	assert.ErrorIs(t, inv.MarkReversed("907"), shared.ErrInvoiceNotReversible)
}

func TestSameFiscalDay(t *testing.T) {
	loc, err := time.LoadLocation("America/La_Paz")
	require.NoError(t, err)

	// 03:00 UTC is 23:00 of the previous day in La Paz (UTC-4)
	utcMorning := time.Date(2026, 3, 10, 3, 0, 0, 0, time.UTC)
	lapazEvening := time.Date(2026, 3, 9, 22, 0, 0, 0, loc)
	assert.True(t, SameFiscalDay(utcMorning, lapazEvening, loc))

	lapazNextDay := time.Date(2026, 3, 10, 8, 0, 0, 0, loc)
	assert.False(t, SameFiscalDay(utcMorning, lapazNextDay, loc))
}
