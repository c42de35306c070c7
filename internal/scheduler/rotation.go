package scheduler

import (
	"hash/fnv"
	"math/rand"
	"sort"
	"time"
)

// SeedFor 由租户与周起始日派生轮换种子：同一周重复计算结果一致，不同周顺序不同
func SeedFor(tenantID string, weekStart time.Time) int64 {
	h := fnv.New64a()
	_, _ = h.Write([]byte(tenantID))
	_, _ = h.Write([]byte{0})
	_, _ = h.Write([]byte(NormalizeDate(weekStart).Format(dateLayout)))
	return int64(h.Sum64() & 0x7fffffffffffffff)
}

// RotationOrder 返回按种子打乱后的人员顺序，作为引擎最后一级同分裁决
// 先按 ID 排序，使结果与存储层返回顺序无关
func RotationOrder(workers []Worker, seed int64) []Worker {
	out := make([]Worker, len(workers))
	copy(out, workers)
	sort.SliceStable(out, func(i, j int) bool { return out[i].ID < out[j].ID })

	r := rand.New(rand.NewSource(seed))
	r.Shuffle(len(out), func(i, j int) { out[i], out[j] = out[j], out[i] })
	return out
}
