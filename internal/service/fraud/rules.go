package fraud

import (
	"fmt"
	"math"
	"regexp"
)

// VendorRiskEntry maps a vendor keyword to its base risk. Entries are ordered:
// the first keyword contained in the vendor name wins, so the table never
// double counts.
type VendorRiskEntry struct {
	Keyword string `koanf:"keyword"`
	Risk    int    `koanf:"risk"`
}

// CategoryExpectation pins a vendor keyword to the category its expenses are
// expected to carry (ride-hailing -> travel, food delivery -> meals).
type CategoryExpectation struct {
	Keyword  string `koanf:"keyword"`
	Expected string `koanf:"expected"`
}

// ScoringRules is the engine configuration: per-rule penalties, thresholds,
// weights and vendor tables. Loaded once, immutable during a scoring session.
type ScoringRules struct {
	// Duplicate detection
	SimilarityThreshold float64 `koanf:"similarity_threshold"`
	AmountTolerance     float64 `koanf:"amount_tolerance"`
	DateWindowDays      int     `koanf:"date_window_days"`

	// Vendor risk
	HighRiskVendors          []VendorRiskEntry     `koanf:"high_risk_vendors"`
	PersonalKeywords         []string              `koanf:"personal_keywords"`
	SuspiciousPatterns       []string              `koanf:"suspicious_patterns"`
	SmallVendorKeywords      []string              `koanf:"small_vendor_keywords"`
	ExpectedCategories       []CategoryExpectation `koanf:"expected_categories"`
	PersonalKeywordPenalty   int                   `koanf:"personal_keyword_penalty"`
	SuspiciousPatternPenalty int                   `koanf:"suspicious_pattern_penalty"`
	SmallVendorPenalty       int                   `koanf:"small_vendor_penalty"`
	CategoryMismatchPenalty  int                   `koanf:"category_mismatch_penalty"`

	VendorFrequencyHighCount   int `koanf:"vendor_frequency_high_count"`
	VendorFrequencyHighPenalty int `koanf:"vendor_frequency_high_penalty"`
	VendorFrequencyLowCount    int `koanf:"vendor_frequency_low_count"`
	VendorFrequencyLowPenalty  int `koanf:"vendor_frequency_low_penalty"`

	// Behavior analysis
	RepeatedAmountCount   int `koanf:"repeated_amount_count"`
	RepeatedAmountPenalty int `koanf:"repeated_amount_penalty"`
	SameDayCount          int `koanf:"same_day_count"`
	SameDayPenalty        int `koanf:"same_day_penalty"`
	WeekendPenalty        int `koanf:"weekend_penalty"`

	// Score combination
	DuplicateWeight    float64 `koanf:"duplicate_weight"`
	VendorRiskWeight   float64 `koanf:"vendor_risk_weight"`
	BehaviorRiskWeight float64 `koanf:"behavior_risk_weight"`
	RuleRiskWeight     float64 `koanf:"rule_risk_weight"`
	RejectThreshold    int     `koanf:"reject_threshold"`
	ReviewThreshold    int     `koanf:"review_threshold"`

	// History scan bound
	RecentWindow int `koanf:"recent_window"`
}

// DefaultScoringRules returns the built-in rule set
func DefaultScoringRules() *ScoringRules {
	return &ScoringRules{
		SimilarityThreshold: DefaultSimilarityThreshold,
		AmountTolerance:     DefaultAmountTolerance,
		DateWindowDays:      DefaultDateWindowDays,

		HighRiskVendors: []VendorRiskEntry{
			{Keyword: "uber", Risk: 30},
			{Keyword: "ola", Risk: 30},
			{Keyword: "zomato", Risk: 20},
			{Keyword: "swiggy", Risk: 20},
			{Keyword: "amazon", Risk: 10},
			{Keyword: "flipkart", Risk: 10},
		},
		PersonalKeywords: []string{
			"recharge", "mobile", "prepaid", "gift", "personal", "family",
			"entertainment", "movie", "party", "drinks", "alcohol",
			"fashion", "jewelry", "liquor", "bar",
		},
		SuspiciousPatterns: []string{
			`recharge`,
			`gift.*card`,
			`personal`,
			`entertainment`,
			`liquor`,
			`alcohol`,
			`\bbar\b`,
			`casino`,
		},
		SmallVendorKeywords: []string{
			"store", "shop", "local", "corner", "kirana",
			"vendor", "merchant", "trader",
		},
		ExpectedCategories: []CategoryExpectation{
			{Keyword: "uber", Expected: "travel"},
			{Keyword: "ola", Expected: "travel"},
			{Keyword: "taxi", Expected: "travel"},
			{Keyword: "cab", Expected: "travel"},
			{Keyword: "hotel", Expected: "travel"},
			{Keyword: "flight", Expected: "travel"},
			{Keyword: "train", Expected: "travel"},
			{Keyword: "airline", Expected: "travel"},
			{Keyword: "zomato", Expected: "meals"},
			{Keyword: "swiggy", Expected: "meals"},
			{Keyword: "restaurant", Expected: "meals"},
			{Keyword: "cafe", Expected: "meals"},
		},
		PersonalKeywordPenalty:   DefaultPersonalKeywordPenalty,
		SuspiciousPatternPenalty: DefaultSuspiciousPatternPenalty,
		SmallVendorPenalty:       DefaultSmallVendorPenalty,
		CategoryMismatchPenalty:  DefaultCategoryMismatchPenalty,

		VendorFrequencyHighCount:   DefaultVendorFrequencyHighCount,
		VendorFrequencyHighPenalty: DefaultVendorFrequencyHighPenalty,
		VendorFrequencyLowCount:    DefaultVendorFrequencyLowCount,
		VendorFrequencyLowPenalty:  DefaultVendorFrequencyLowPenalty,

		RepeatedAmountCount:   DefaultRepeatedAmountCount,
		RepeatedAmountPenalty: DefaultRepeatedAmountPenalty,
		SameDayCount:          DefaultSameDayCount,
		SameDayPenalty:        DefaultSameDayPenalty,
		WeekendPenalty:        DefaultWeekendPenalty,

		DuplicateWeight:    DefaultDuplicateWeight,
		VendorRiskWeight:   DefaultVendorRiskWeight,
		BehaviorRiskWeight: DefaultBehaviorRiskWeight,
		RuleRiskWeight:     DefaultRuleRiskWeight,
		RejectThreshold:    DefaultRejectThreshold,
		ReviewThreshold:    DefaultReviewThreshold,

		RecentWindow: DefaultRecentWindow,
	}
}

// Validate fails fast on a rule set the engine cannot score with. It runs at
// configuration-load time, never per record.
func (r *ScoringRules) Validate() error {
	if r.SimilarityThreshold <= 0 || r.SimilarityThreshold > 1 {
		return fmt.Errorf("similarity_threshold must be in (0, 1], got %v", r.SimilarityThreshold)
	}
	if r.AmountTolerance < 0 {
		return fmt.Errorf("amount_tolerance must be >= 0, got %v", r.AmountTolerance)
	}
	if r.DateWindowDays < 0 {
		return fmt.Errorf("date_window_days must be >= 0, got %d", r.DateWindowDays)
	}
	if r.RecentWindow <= 0 {
		return fmt.Errorf("recent_window must be > 0, got %d", r.RecentWindow)
	}

	weightSum := r.DuplicateWeight + r.VendorRiskWeight + r.BehaviorRiskWeight + r.RuleRiskWeight
	if math.Abs(weightSum-1.0) > 1e-9 {
		return fmt.Errorf("component weights must sum to 1.0, got %v", weightSum)
	}

	if r.RejectThreshold <= r.ReviewThreshold {
		return fmt.Errorf("reject_threshold (%d) must exceed review_threshold (%d)",
			r.RejectThreshold, r.ReviewThreshold)
	}
	if r.ReviewThreshold <= 0 || r.RejectThreshold > 100 {
		return fmt.Errorf("decision thresholds must lie in (0, 100]")
	}

	for _, pattern := range r.SuspiciousPatterns {
		if _, err := regexp.Compile(pattern); err != nil {
			return fmt.Errorf("invalid suspicious pattern %q: %w", pattern, err)
		}
	}

	for _, entry := range r.HighRiskVendors {
		if entry.Keyword == "" {
			return fmt.Errorf("high_risk_vendors entries require a keyword")
		}
	}
	for _, entry := range r.ExpectedCategories {
		if entry.Keyword == "" || entry.Expected == "" {
			return fmt.Errorf("expected_categories entries require keyword and expected")
		}
	}

	return nil
}
