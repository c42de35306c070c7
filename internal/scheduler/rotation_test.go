package scheduler

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestRotationOrder(t *testing.T) {
	workers := workersOf("A", "B", "C", "D", "E", "F")
	reversed := workersOf("F", "E", "D", "C", "B", "A")

	seed := SeedFor("tenant-1", testWeek)
	first := RotationOrder(workers, seed)

	assert.Equal(t, first, RotationOrder(workers, seed), "同一种子结果一致")
	assert.Equal(t, first, RotationOrder(reversed, seed), "结果与输入顺序无关")
	assert.ElementsMatch(t, workers, first)
	assert.Equal(t, "A", workers[0].ID, "不修改入参")
}

func TestSeedFor(t *testing.T) {
	sameDay := time.Date(2026, 10, 19, 18, 0, 0, 0, time.UTC)

	assert.Equal(t, SeedFor("tenant-1", testWeek), SeedFor("tenant-1", sameDay))
	assert.NotEqual(t, SeedFor("tenant-1", testWeek), SeedFor("tenant-1", testWeek.AddDate(0, 0, 7)))
	assert.NotEqual(t, SeedFor("tenant-1", testWeek), SeedFor("tenant-2", testWeek))
	assert.GreaterOrEqual(t, SeedFor("tenant-1", testWeek), int64(0))
}
