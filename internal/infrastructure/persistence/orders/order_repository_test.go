package orders

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/AtRiskMedia/vsl-go/internal/domain/attribution"
	"github.com/AtRiskMedia/vsl-go/internal/infrastructure/persistence/database"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newOrder(id string) *Order {
	return &Order{
		ID:               id,
		ProductID:        "1",
		ProductName:      "RevitaMax Pro - Fórmula Completa",
		Amount:           "197.00",
		Currency:         "BRL",
		CustomerName:     "Maria Silva",
		CustomerEmail:    "maria@example.com",
		CustomerDocument: "000.000.000-00",
		CustomerPhone:    "(11) 90000-0000",
		VisitorID:        "v1",
		Attribution:      attribution.Set{attribution.KeySource: "ig"},
	}
}

func TestSQLOrderRepository_CreateAndFind(t *testing.T) {
	repo := NewSQLOrderRepository(database.OpenTest(t))

	require.NoError(t, repo.Create(newOrder("VSL-1")))

	order, err := repo.FindByID("VSL-1")
	require.NoError(t, err)
	assert.Equal(t, "197.00", order.Amount)
	assert.Equal(t, "ig", order.Attribution[attribution.KeySource])
	assert.NotZero(t, order.CreatedAt)
	assert.False(t, order.PurchaseTrackedAt.Valid)

	_, err = repo.FindByID("VSL-404")
	assert.ErrorIs(t, err, ErrOrderNotFound)

	n, err := repo.Count(time.Now().Add(-time.Minute))
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestSQLOrderRepository_PurchaseTrackedOnce(t *testing.T) {
	repo := NewSQLOrderRepository(database.OpenTest(t))
	require.NoError(t, repo.Create(newOrder("VSL-2")))

	var claimed atomic.Int32
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ok, err := repo.MarkPurchaseTracked("VSL-2")
			assert.NoError(t, err)
			if ok {
				claimed.Add(1)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), claimed.Load())

	ok, err := repo.MarkPurchaseTracked("VSL-unknown")
	require.NoError(t, err)
	assert.False(t, ok)
}
