package safety

// Scheduler gates compaction, prefetch, and eviction on whether the event
// stream is currently inside a marked safe window. Compaction is strictly
// gated to safe windows because it relocates bytes en masse; prefetch and
// eviction have compile-time policy flags that, by default, permit them
// outside a window too.
type Scheduler struct {
	AllowPrefetchOutsideWindow bool
	AllowEvictOutsideWindow    bool
	InSafeWindow               bool
}

// NewScheduler constructs a Scheduler with both outside-window flags true
// by default, matching the spec's defaults.
func NewScheduler() *Scheduler {
	return &Scheduler{
		AllowPrefetchOutsideWindow: true,
		AllowEvictOutsideWindow:    true,
	}
}

// OnSafeWindow marks the stream as currently inside a safe window.
func (s *Scheduler) OnSafeWindow() {
	s.InSafeWindow = true
}

// EndWindow resets the safe-window flag at an epoch boundary.
func (s *Scheduler) EndWindow() {
	s.InSafeWindow = false
}

// CanCompact reports whether compaction is currently permitted.
func (s *Scheduler) CanCompact() bool {
	return s.InSafeWindow
}

// CanPrefetch reports whether admission/prefetch is currently permitted.
func (s *Scheduler) CanPrefetch() bool {
	return s.AllowPrefetchOutsideWindow || s.InSafeWindow
}

// CanEvict reports whether eviction is currently permitted.
func (s *Scheduler) CanEvict() bool {
	return s.AllowEvictOutsideWindow || s.InSafeWindow
}
