package production

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mebel-mes/internal/constants"
	"mebel-mes/internal/storage"
)

func inProgress(stage storage.ShopStage, n int) []storage.WorkOrder {
	out := make([]storage.WorkOrder, n)
	for i := range out {
		out[i] = storage.WorkOrder{Stage: stage, Status: storage.StatusInProgress}
	}
	return out
}

func findLoad(t *testing.T, loads []StageLoad, stage storage.ShopStage) StageLoad {
	t.Helper()
	for _, l := range loads {
		if l.Stage == stage {
			return l
		}
	}
	t.Fatalf("stage %s not in snapshot", stage)
	return StageLoad{}
}

func TestWipSnapshot_ClampedAt100(t *testing.T) {
	catalog := NewCatalog(nil)
	capacity := NewCapacity(catalog, map[storage.ShopStage]StageCapacity{
		storage.StageDrill: {WipLimit: 4},
	})

	loads := WipSnapshot(inProgress(storage.StageDrill, 5), capacity, constants.StageLabels)

	l := findLoad(t, loads, storage.StageDrill)
	assert.Equal(t, 5, l.Active)
	assert.Equal(t, 100, l.LoadPct)
	assert.True(t, l.OverLimit)
	assert.Equal(t, "Присадка", l.Label)
}

func TestWipSnapshot_ZeroLimitSafe(t *testing.T) {
	catalog := NewCatalog(nil)
	capacity := NewCapacity(catalog, map[storage.ShopStage]StageCapacity{
		storage.StagePurchase: {WipLimit: 0},
	})

	loads := WipSnapshot(inProgress(storage.StagePurchase, 7), capacity, nil)

	l := findLoad(t, loads, storage.StagePurchase)
	assert.Equal(t, 7, l.Active)
	assert.Equal(t, 0, l.LoadPct)
	assert.False(t, l.OverLimit)

	// этап без записи — лимит 0, загрузка 0
	assert.Equal(t, 0, capacity.WipLimit(storage.StagePaint))
	assert.Equal(t, 0, LoadPct(3, capacity.WipLimit(storage.StagePaint)))
}

func TestWipSnapshot_CountsAndHours(t *testing.T) {
	catalog := NewCatalog(nil)
	capacity := NewCapacity(catalog, map[storage.ShopStage]StageCapacity{
		storage.StageEdge:   {WipLimit: 6, HourRate: 700},
		storage.StageCutCNC: {WipLimit: 5, HourRate: 800},
	})

	orders := []storage.WorkOrder{
		{Stage: storage.StageEdge, Status: storage.StatusInProgress, TimeMinutes: 45},
		{Stage: storage.StageEdge, Status: storage.StatusQueued, TimeMinutes: 75},
		{Stage: storage.StageEdge, Status: storage.StatusRework},
		{Stage: storage.StageCutCNC, Status: storage.StatusInProgress},
		{Stage: storage.StagePaint, Status: storage.StatusInProgress, TimeMinutes: 600},
	}

	loads := WipSnapshot(orders, capacity, constants.StageLabels)
	require.Len(t, loads, 2)

	// порядок каталога
	assert.Equal(t, storage.StageCutCNC, loads[0].Stage)
	assert.Equal(t, storage.StageEdge, loads[1].Stage)

	edge := loads[1]
	assert.Equal(t, 1, edge.Active)
	assert.Equal(t, 3, edge.Total)
	assert.Equal(t, 17, edge.LoadPct) // 1/6 = 16.7
	assert.InDelta(t, 2.0, edge.PlannedHours, 1e-9)
	assert.InDelta(t, 1400.0, edge.LaborCost, 1e-9)

	assert.Equal(t, 20, loads[0].LoadPct)
}

func TestLoadPct(t *testing.T) {
	assert.Equal(t, 0, LoadPct(0, 5))
	assert.Equal(t, 50, LoadPct(2, 4))
	assert.Equal(t, 100, LoadPct(4, 4))
	assert.Equal(t, 100, LoadPct(9, 4))
	assert.Equal(t, 0, LoadPct(9, 0))
	assert.Equal(t, 0, LoadPct(9, -1))
}
