// Package engine computes group balances and settlement plans.
//
// The engine is a set of pure transforms over one captured snapshot of a
// group's history: it normalizes raw expenses into explicit per-participant
// shares, folds expenses and recorded settlements into a balance per
// participant, and produces a greedy minimal-transaction plan that would
// settle every outstanding debt. It never fetches, persists, or renders
// anything itself; callers assemble a Snapshot and read back the results.
//
// All amounts are a single implicit currency with 2-decimal display
// precision; Epsilon (0.01) is the tolerance below which any balance or
// transaction is treated as zero.
package engine
