package dispatcher

import "sync/atomic"

// ControlPlane holds the atomic control flags set by presentation-layer
// callbacks running on other goroutines and polled once per dispatch
// iteration (spec.md §5, §6 "Inbound control events"). No locks: each
// flag is idempotent, so concurrent sets race only among themselves,
// which spec.md §5 explicitly accepts. Grounded on the teacher's
// atomic.Int32/atomic.Bool usage in internal/ai/manager.go.
type ControlPlane struct {
	reset          atomic.Bool
	pause          atomic.Bool
	save           atomic.Bool
	bossOnlyDamage atomic.Bool
	emitDetails    atomic.Bool
}

// NewControlPlane returns a ControlPlane with every flag cleared.
func NewControlPlane() *ControlPlane {
	return &ControlPlane{}
}

// RequestReset corresponds to reset-request (spec.md §6).
func (c *ControlPlane) RequestReset() { c.reset.Store(true) }

// RequestSave corresponds to save-request (spec.md §6).
func (c *ControlPlane) RequestSave() { c.save.Store(true) }

// RequestPauseToggle corresponds to pause-request, a toggle (spec.md §6).
func (c *ControlPlane) RequestPauseToggle() { c.pause.Store(!c.pause.Load()) }

// SetBossOnlyDamage corresponds to boss-only-damage-request, which carries
// an explicit "true"/"false" payload rather than toggling (spec.md §6).
func (c *ControlPlane) SetBossOnlyDamage(v bool) { c.bossOnlyDamage.Store(v) }

// RequestEmitDetailsToggle corresponds to emit-details-request, a toggle
// (spec.md §6).
func (c *ControlPlane) RequestEmitDetailsToggle() { c.emitDetails.Store(!c.emitDetails.Load()) }

// consumeReset atomically clears and reports the reset flag so the
// dispatcher acts on each reset-request exactly once.
func (c *ControlPlane) consumeReset() bool { return c.reset.CompareAndSwap(true, false) }

// consumeSave atomically clears and reports the save flag.
func (c *ControlPlane) consumeSave() bool { return c.save.CompareAndSwap(true, false) }

func (c *ControlPlane) paused() bool         { return c.pause.Load() }
func (c *ControlPlane) bossOnly() bool       { return c.bossOnlyDamage.Load() }
func (c *ControlPlane) detailsEnabled() bool { return c.emitDetails.Load() }
