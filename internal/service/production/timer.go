package production

import (
	"math"
	"time"

	"mebel-mes/internal/storage"
)

// StartTimer не трогает партию, если таймер уже идёт
func StartTimer(wo *storage.WorkOrder, now time.Time) bool {
	if wo.TimerRunning() {
		return false
	}

	wo.Status = storage.StatusInProgress
	if wo.ActualStart == nil {
		t := now
		wo.ActualStart = &t
	}
	ms := now.UnixMilli()
	wo.TimerStartAt = &ms

	return true
}

// StopTimer начисляет минуты с округлением до ближайшего (1.5 -> 2) и возвращает прирост.
// Без запущенного таймера прирост 0.
func StopTimer(wo *storage.WorkOrder, now time.Time) int {
	delta := 0
	if wo.TimerStartAt != nil {
		delta = elapsedMinutes(*wo.TimerStartAt, now)
	}

	wo.TimeMinutes += delta
	wo.Status = storage.StatusQueued
	t := now
	wo.ActualEnd = &t
	wo.TimerStartAt = nil

	return delta
}

func elapsedMinutes(startMs int64, now time.Time) int {
	elapsed := now.UnixMilli() - startMs
	if elapsed <= 0 {
		return 0
	}
	return int(math.Round(float64(elapsed) / 60000))
}
