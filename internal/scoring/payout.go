package scoring

import (
	"math"
	"sort"
)

// rewardEpsilon absorbs float error so that e.g. 50*1.06 floors to 53, not 52.
const rewardEpsilon = 1e-9

// Reward returns floor(base * multiplier). Negative bases pay nothing.
func Reward(base int64, multiplier float64) int64 {
	if base <= 0 || multiplier <= 0 {
		return 0
	}
	return int64(math.Floor(float64(base)*multiplier + rewardEpsilon))
}

// BonusPool returns floor(totalStaked * rate).
func BonusPool(totalStaked int64, rate float64) int64 {
	if totalStaked <= 0 || rate <= 0 {
		return 0
	}
	return int64(math.Floor(float64(totalStaked)*rate + rewardEpsilon))
}

// Stake is one supporter's contribution to a pool, in join order.
type Stake struct {
	UserID string
	Amount int64
}

// DistributePool splits pool across stakes proportionally to Amount using the
// largest-remainder method. Shares always sum to pool when any stake is positive;
// remainder ties go to the earlier stake. The result is index-aligned with stakes.
func DistributePool(pool int64, stakes []Stake) []int64 {
	shares := make([]int64, len(stakes))
	if pool <= 0 || len(stakes) == 0 {
		return shares
	}

	var total int64
	for _, s := range stakes {
		if s.Amount > 0 {
			total += s.Amount
		}
	}
	if total == 0 {
		return shares
	}

	type remainder struct {
		index int
		rem   int64
	}
	rems := make([]remainder, 0, len(stakes))

	var distributed int64
	for i, s := range stakes {
		if s.Amount <= 0 {
			continue
		}
		// pool*amount fits in int64 for any realistic coin volume
		num := pool * s.Amount
		shares[i] = num / total
		distributed += shares[i]
		rems = append(rems, remainder{index: i, rem: num % total})
	}

	sort.SliceStable(rems, func(a, b int) bool {
		return rems[a].rem > rems[b].rem
	})

	left := pool - distributed
	for i := 0; left > 0 && i < len(rems); i++ {
		shares[rems[i].index]++
		left--
	}

	return shares
}
