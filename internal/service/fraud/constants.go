package fraud

// Decision thresholds (inclusive lower bounds on the final weighted score)
const (
	// DefaultRejectThreshold marks scores that are auto-rejected
	DefaultRejectThreshold = 85

	// DefaultReviewThreshold marks scores routed to manual review
	DefaultReviewThreshold = 70
)

// Component weights for the final score
const (
	DefaultDuplicateWeight    = 0.30
	DefaultVendorRiskWeight   = 0.25
	DefaultBehaviorRiskWeight = 0.25
	DefaultRuleRiskWeight     = 0.20
)

// Duplicate detection defaults
const (
	// DefaultSimilarityThreshold is the fuzzy text-similarity cutoff
	DefaultSimilarityThreshold = 0.85

	// DefaultAmountTolerance is the absolute tolerance for amount equality
	DefaultAmountTolerance = 0.01

	// DefaultDateWindowDays bounds the composite-key date window
	DefaultDateWindowDays = 1

	// MaxDuplicateMatches caps the returned match list
	MaxDuplicateMatches = 3
)

// Vendor risk penalties
const (
	DefaultPersonalKeywordPenalty   = 25
	DefaultSuspiciousPatternPenalty = 20
	DefaultSmallVendorPenalty       = 15
	DefaultCategoryMismatchPenalty  = 25

	DefaultVendorFrequencyHighCount   = 5
	DefaultVendorFrequencyHighPenalty = 30
	DefaultVendorFrequencyLowCount    = 3
	DefaultVendorFrequencyLowPenalty  = 15
)

// Behavior penalties
const (
	DefaultRepeatedAmountCount   = 3
	DefaultRepeatedAmountPenalty = 40
	DefaultSameDayCount          = 3
	DefaultSameDayPenalty        = 30
	DefaultWeekendPenalty        = 15
)

// History scan bounds
const (
	// DefaultRecentWindow bounds detector scans to the most recent records
	// so worst-case latency stays independent of total history size
	DefaultRecentWindow = 100
)

// MaxReasons caps the deduplicated reason list on a final assessment
const MaxReasons = 5
