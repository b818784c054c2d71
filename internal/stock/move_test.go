package stock

import (
	"context"
	"sync"
	"testing"

	"inventory-backend/internal/models"
	"inventory-backend/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ptr[T any](v T) *T { return &v }

func TestUpdateItem_MovesBetweenCategories(t *testing.T) {
	db := testutil.OpenDB(t)
	from := testutil.SeedCategory(t, db, "Cables", "", 0)
	to := testutil.SeedCategory(t, db, "Adapters", "", 0)
	it := testutil.SeedItem(t, db, from.ID, "A", 6)

	before, after, err := UpdateItem(context.Background(), db, it.ID, models.ItemUpdate{Name: ptr("HDMI"), CategoryID: &to.ID})
	require.NoError(t, err)
	assert.Equal(t, from.ID, before.CategoryID)
	assert.Equal(t, to.ID, after.CategoryID)
	assert.Equal(t, "HDMI", after.Name)
	assert.Equal(t, 6, after.Quantity)

	fromTotal, err := CategoryTotal(context.Background(), db, from.ID)
	require.NoError(t, err)
	toTotal, err := CategoryTotal(context.Background(), db, to.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, fromTotal)
	assert.Equal(t, 6, toTotal)
}

func TestUpdateItem_UnknownTargetLeavesItem(t *testing.T) {
	db := testutil.OpenDB(t)
	cat := testutil.SeedCategory(t, db, "Cables", "", 0)
	it := testutil.SeedItem(t, db, cat.ID, "A", 6)

	_, _, err := UpdateItem(context.Background(), db, it.ID, models.ItemUpdate{Name: ptr("renamed"), CategoryID: ptr(uint(99))})
	require.ErrorIs(t, err, ErrUnknownCategory)

	var got models.Item
	require.NoError(t, db.First(&got, it.ID).Error)
	assert.Equal(t, cat.ID, got.CategoryID)
	assert.Equal(t, "Item A", got.Name)

	_, _, err = UpdateItem(context.Background(), db, 404, models.ItemUpdate{Name: ptr("x")})
	assert.ErrorIs(t, err, ErrNotFound)
}

// Moves racing with adjustments must leave every category total equal to the
// quantities of the items it holds, and every item equal to its ledger.
func TestUpdateItem_ConcurrentWithAdjust(t *testing.T) {
	svc, db, _ := newService(t)
	a := testutil.SeedCategory(t, db, "A", "", 0)
	b := testutil.SeedCategory(t, db, "B", "", 0)
	mover := testutil.SeedItem(t, db, a.ID, "M", 50)
	fixed := testutil.SeedItem(t, db, a.ID, "F", 50)

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(3)
		target := a.ID
		if i%2 == 0 {
			target = b.ID
		}
		go func() {
			defer wg.Done()
			_, _, err := UpdateItem(context.Background(), db, mover.ID, models.ItemUpdate{CategoryID: &target})
			assert.NoError(t, err)
		}()
		go func() {
			defer wg.Done()
			_, err := svc.Adjust(context.Background(), AdjustRequest{ItemID: mover.ID, Delta: -1})
			assert.NoError(t, err)
		}()
		go func() {
			defer wg.Done()
			_, err := svc.Adjust(context.Background(), AdjustRequest{ItemID: fixed.ID, Delta: -2})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	var m, f models.Item
	require.NoError(t, db.First(&m, mover.ID).Error)
	require.NoError(t, db.First(&f, fixed.ID).Error)
	assert.Equal(t, 40, m.Quantity)
	assert.Equal(t, 30, f.Quantity)

	sumM, _ := ledgerSum(t, db, mover.ID)
	sumF, _ := ledgerSum(t, db, fixed.ID)
	assert.Equal(t, -10, sumM)
	assert.Equal(t, -20, sumF)

	totalA, err := CategoryTotal(context.Background(), db, a.ID)
	require.NoError(t, err)
	totalB, err := CategoryTotal(context.Background(), db, b.ID)
	require.NoError(t, err)
	assert.Equal(t, m.Quantity+f.Quantity, totalA+totalB)
	if m.CategoryID == a.ID {
		assert.Equal(t, 70, totalA)
	} else {
		assert.Equal(t, 30, totalA)
		assert.Equal(t, 40, totalB)
	}
}
