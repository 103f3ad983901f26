package integration

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/siatbridge/backend/internal/domain/billing"
	"github.com/siatbridge/backend/internal/domain/integration"
	"github.com/siatbridge/backend/internal/domain/shared"
	"github.com/siatbridge/backend/internal/infrastructure/persistence"
)

// TestContingencyEventRepository_Integration exercises the contingency event
// store against a real PostgreSQL database
func TestContingencyEventRepository_Integration(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	testDB := NewTestDB(t)
	repo := persistence.NewGormContingencyEventRepository(testDB.DB)
	posRepo := persistence.NewGormPointOfSaleRepository(testDB.DB)
	ctx := context.Background()

	branch := &billing.Branch{BaseEntity: shared.NewBaseEntity(), Name: "Sucursal 1", Code: 1}
	require.NoError(t, persistence.NewGormBranchRepository(testDB.DB).Save(ctx, branch))

	pos := &billing.PointOfSale{BaseEntity: shared.NewBaseEntity(), Name: "Caja 1", Code: 1, BranchID: branch.ID}
	require.NoError(t, posRepo.Save(ctx, pos))

	newEvent := func(startedAt time.Time) *integration.ContingencyEvent {
		return &integration.ContingencyEvent{
			BaseEntity:    shared.NewBaseEntity(),
			PointOfSaleID: pos.ID,
			Reason:        integration.ReasonServiceUnreachable,
			Status:        integration.EventStatusOpen,
			StartedAt:     startedAt,
		}
	}

	t.Run("finds the open event for a point of sale", func(t *testing.T) {
		event := newEvent(time.Now().Add(-time.Hour))
		require.NoError(t, repo.Save(ctx, event))

		found, err := repo.FindOpenByPointOfSale(ctx, pos.ID)
		require.NoError(t, err)
		assert.Equal(t, event.ID, found.ID)
		assert.True(t, found.IsOpen())

		// Closing it removes the open marker
		event.Close(time.Now(), 4)
		require.NoError(t, repo.Save(ctx, event))

		_, err = repo.FindOpenByPointOfSale(ctx, pos.ID)
		assert.ErrorIs(t, err, shared.ErrNotFound)

		closed, err := repo.FindByID(ctx, event.ID)
		require.NoError(t, err)
		assert.Equal(t, integration.EventStatusClosed, closed.Status)
		assert.Equal(t, 4, closed.InvoiceCount)
		assert.NotNil(t, closed.EndedAt)
	})

	t.Run("history lists events newest first", func(t *testing.T) {
		older := newEvent(time.Now().Add(-48 * time.Hour))
		older.Close(time.Now().Add(-47*time.Hour), 1)
		require.NoError(t, repo.Save(ctx, older))

		events, err := repo.FindByPointOfSale(ctx, pos.ID, shared.DefaultFilter())
		require.NoError(t, err)
		require.GreaterOrEqual(t, len(events), 2)
		for i := 1; i < len(events); i++ {
			assert.False(t, events[i-1].StartedAt.Before(events[i].StartedAt))
		}
	})

	t.Run("remote event id survives a reload", func(t *testing.T) {
		event := newEvent(time.Now())
		remoteID := int64(5501)
		event.RemoteEventID = &remoteID
		require.NoError(t, repo.Save(ctx, event))

		found, err := repo.FindByID(ctx, event.ID)
		require.NoError(t, err)
		require.NotNil(t, found.RemoteEventID)
		assert.Equal(t, int64(5501), *found.RemoteEventID)
	})
}

// TestEndpointRepository_Integration exercises the endpoint store against a
// real PostgreSQL database
func TestEndpointRepository_Integration(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	testDB := NewTestDB(t)
	repo := persistence.NewGormEndpointRepository(testDB.DB)
	ctx := context.Background()

	t.Run("finds only active endpoints", func(t *testing.T) {
		active := &integration.ServiceEndpoint{
			BaseEntity: shared.NewBaseEntity(),
			Name:       "pilot",
			BaseURL:    "https://siat.example.com/api",
			Kind:       integration.EndpointKindElectronic,
			Active:     true,
		}
		require.NoError(t, repo.Save(ctx, active))

		inactive := &integration.ServiceEndpoint{
			BaseEntity: shared.NewBaseEntity(),
			Name:       "staging",
			BaseURL:    "https://staging.example.com/api",
			Kind:       integration.EndpointKindElectronic,
		}
		require.NoError(t, repo.Save(ctx, inactive))

		found, err := repo.FindActive(ctx)
		require.NoError(t, err)
		require.Len(t, found, 1)
		assert.Equal(t, "pilot", found[0].Name)
	})
}
