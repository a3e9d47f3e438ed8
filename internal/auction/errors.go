package auction

import "errors"

var (
	// ErrTradeBeforeStart and ErrTradeAfterEnd reject fills outside the
	// sale window. The engine mutates nothing when returning them.
	ErrTradeBeforeStart = errors.New("trade before sale start")
	ErrTradeAfterEnd    = errors.New("trade after sale end")

	// ErrInsufficientInventory means a target layout would need more
	// tokens than the sale has left. This is fatal for the sale.
	ErrInsufficientInventory = errors.New("insufficient token inventory for slug layout")

	// ErrNegativeTotals guards the running sold/proceeds totals against
	// going below zero.
	ErrNegativeTotals = errors.New("running totals would go negative")

	// ErrNotInitialized and ErrAlreadyInitialized police the engine
	// lifecycle: Initialize must run exactly once before trades.
	ErrNotInitialized     = errors.New("engine not initialized")
	ErrAlreadyInitialized = errors.New("engine already initialized")
)
