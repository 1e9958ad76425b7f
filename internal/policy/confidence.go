package policy

import "fmt"

// ConfidenceGatedPolicy is a hysteretic admission/eviction policy driven by
// forecast confidence bounds. Admission uses the lower bound (LB);
// eviction uses the upper bound (UB); the gap between evict_ub and
// admit_lb is the anti-thrash hysteresis band.
type ConfidenceGatedPolicy struct {
	AdmitLB float64
	EvictUB float64
	Z       float64

	pinned map[string]struct{}
}

// NewConfidenceGatedPolicy constructs a policy with the spec's defaults:
// admit_lb=0.60, evict_ub=0.35, z=1.0.
func NewConfidenceGatedPolicy() *ConfidenceGatedPolicy {
	return &ConfidenceGatedPolicy{
		AdmitLB: 0.60,
		EvictUB: 0.35,
		Z:       1.0,
		pinned:  make(map[string]struct{}),
	}
}

// pinPromotionMargin is added to AdmitLB to decide pin-promotion.
const pinPromotionMargin = 0.15

// pinReleaseFloorFactor scales EvictUB to get the hard pin-release floor.
const pinReleaseFloorFactor = 0.6

// IsPinned reports whether id is currently in the pinned set.
func (p *ConfidenceGatedPolicy) IsPinned(id string) bool {
	_, ok := p.pinned[id]
	return ok
}

// DecideOnTouch evaluates the decision table top-to-bottom, first match
// wins, exactly per spec.
func (p *ConfidenceGatedPolicy) DecideOnTouch(id string, inHBM bool, fc *Forecast) Decision {
	if fc == nil {
		return Decision{Noop, "no_forecast"}
	}
	lb := fc.LB(p.Z)
	ub := fc.UB(p.Z)

	if !inHBM {
		if lb >= p.AdmitLB {
			return Decision{Admit, fmt.Sprintf("lb=%.2f>=admit_lb", lb)}
		}
		return Decision{Noop, fmt.Sprintf("lb=%.2f<admit_lb", lb)}
	}

	if p.IsPinned(id) {
		if ub < p.EvictUB*pinReleaseFloorFactor {
			delete(p.pinned, id)
			return Decision{Evict, fmt.Sprintf("pinned_ub=%.2f<hard_floor", ub)}
		}
		return Decision{Noop, "pinned"}
	}

	if ub <= p.EvictUB {
		return Decision{Evict, fmt.Sprintf("ub=%.2f<=evict_ub", ub)}
	}

	if lb >= p.AdmitLB+pinPromotionMargin {
		p.pinned[id] = struct{}{}
		return Decision{Pin, fmt.Sprintf("lb=%.2f promote", lb)}
	}

	return Decision{Noop, fmt.Sprintf("hold lb=%.2f ub=%.2f", lb, ub)}
}

// compactionFragThreshold triggers compaction on quality grounds alone.
const compactionFragThreshold = 0.45

// RequestCompaction decides whether fragmentation or an imminent
// allocation need justifies a compaction. The LFE deficit test takes
// precedence over the fragmentation-ratio test.
func (p *ConfidenceGatedPolicy) RequestCompaction(fragRatio float64, lfe, upcomingNeed int) Decision {
	if lfe < upcomingNeed {
		return Decision{Compact, fmt.Sprintf("lfe=%d<need=%d", lfe, upcomingNeed)}
	}
	if fragRatio > compactionFragThreshold {
		return Decision{Compact, fmt.Sprintf("frag_ratio=%.2f>0.45", fragRatio)}
	}
	return Decision{Noop, "no_compaction"}
}
