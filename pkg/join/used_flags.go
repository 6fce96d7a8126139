package join

import "go.uber.org/atomic"

// UsedFlags tracks, per hash-table slot, whether any prober has consumed
// the entry. It is meaningful only for (kind, strictness) combinations that
// can produce non-joined right output; for every other combination it
// specializes to a no-op so the probe hot path pays nothing for it (spec
// §4.6 describes this as "two template/generic code paths" — Go expresses
// the same specialization as two small interface implementations rather
// than two template instantiations).
type UsedFlags interface {
	// Resize grows the flag vector to cover n slots.
	Resize(n uint32)
	// Get reports whether slot has been consumed by a prior prober.
	Get(slot uint32) bool
	// Set marks slot consumed with a relaxed store (spec §4.5).
	Set(slot uint32)
	// SetOnce marks slot consumed and reports whether this call was the
	// first to do so, via an early relaxed-load no-op plus a CAS to
	// arbitrate concurrent callers (spec §4.5 set_used_once).
	SetOnce(slot uint32) (first bool)
}

// trackingUsedFlags is the real implementation: one atomic bool per slot.
type trackingUsedFlags struct {
	flags []atomic.Bool
}

// NewUsedFlags returns a tracking UsedFlags if active is true, or a
// zero-cost no-op implementation otherwise.
func NewUsedFlags(active bool) UsedFlags {
	if !active {
		return noopUsedFlags{}
	}
	return &trackingUsedFlags{}
}

func (f *trackingUsedFlags) Resize(n uint32) {
	want := int(n)
	if want <= len(f.flags) {
		return
	}
	grown := make([]atomic.Bool, want)
	copy(grown, f.flags)
	f.flags = grown
}

func (f *trackingUsedFlags) Get(slot uint32) bool {
	return f.flags[slot].Load()
}

func (f *trackingUsedFlags) Set(slot uint32) {
	f.flags[slot].Store(true)
}

func (f *trackingUsedFlags) SetOnce(slot uint32) bool {
	if f.flags[slot].Load() {
		return false
	}
	return f.flags[slot].CompareAndSwap(false, true)
}

// noopUsedFlags specializes UsedFlags away for combinations that never
// need to distinguish matched from unmatched right rows: Get is
// constant-true, Set/SetOnce are no-ops (spec §4.6).
type noopUsedFlags struct{}

func (noopUsedFlags) Resize(uint32)       {}
func (noopUsedFlags) Get(uint32) bool     { return true }
func (noopUsedFlags) Set(uint32)          {}
func (noopUsedFlags) SetOnce(uint32) bool { return true }

// needsUsedFlags reports whether (kind, strictness) can produce non-joined
// right output and therefore needs real tracking (spec §4.6).
func needsUsedFlags(kind Kind, strictness Strictness) bool {
	switch kind {
	case Right, Full:
		return true
	}
	if strictness == RightAny {
		return true
	}
	if (strictness == Any || strictness == Semi) && kind == Inner {
		// Any/Semi "on the right side" per spec §4.6 means the build
		// side is the side being deduplicated against, which for this
		// engine's fixed right-is-build orientation only arises when
		// emitting unmatched right rows is possible, i.e. Right/Full.
		// Inner+Any/Semi never scans for unmatched rows.
		return false
	}
	return false
}
