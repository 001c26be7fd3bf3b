package coinselect

import (
	"errors"
	"sort"
)

// ErrInsufficientFunds is returned when the candidate coins cannot cover the
// target amount.
var ErrInsufficientFunds = errors.New(
	"total balance of candidate inputs does not cover the target amount",
)

// maxOvershootRatio bounds how much a selected combination may exceed the
// target before a bigger combination is tried.
const maxOvershootRatio = 10

// Coin is a spendable unit owning an amount.
type Coin interface {
	Value() uint64
}

// Strategy selects a subset of coins whose summed value covers the target
// amount. Implementations must return ErrInsufficientFunds when no subset
// can cover it.
type Strategy func(coins []Coin, target uint64) ([]Coin, error)

// MinimalCoins is the default Strategy. The goal of the selection is to pick
// as few coins as possible: it tries all combinations of growing size and
// returns the first one whose total matches the target exactly or exceeds it
// within the overshoot ratio.
func MinimalCoins(coins []Coin, target uint64) ([]Coin, error) {
	if target == 0 {
		return nil, nil
	}

	sorted := make([]Coin, len(coins))
	copy(sorted, coins)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Value() > sorted[j].Value()
	})

	total := uint64(0)
	for _, coin := range sorted {
		total += coin.Value()
	}
	if total < target {
		return nil, ErrInsufficientFunds
	}

	for size := 1; size <= len(sorted); size++ {
		for _, combination := range combinations(sorted, size) {
			sum := sumCoins(combination)
			if sum < target {
				continue
			}
			if sum == target || sum <= target*maxOvershootRatio {
				return combination, nil
			}
		}
	}

	// No combination within the overshoot ratio, fall back to the first coin
	// that covers the target alone, or to the full candidate set.
	for _, coin := range sorted {
		if coin.Value() >= target {
			return []Coin{coin}, nil
		}
	}
	return sorted, nil
}

// combinations returns every subset of the given size preserving the input
// order of the elements.
func combinations(coins []Coin, size int) [][]Coin {
	result := [][]Coin{}
	current := make([]Coin, 0, size)

	var walk func(offset int)
	walk = func(offset int) {
		if len(current) == size {
			combination := make([]Coin, size)
			copy(combination, current)
			result = append(result, combination)
			return
		}
		for i := offset; i <= len(coins)-(size-len(current)); i++ {
			current = append(current, coins[i])
			walk(i + 1)
			current = current[:len(current)-1]
		}
	}
	walk(0)

	return result
}

func sumCoins(coins []Coin) uint64 {
	var total uint64
	for _, coin := range coins {
		total += coin.Value()
	}
	return total
}
