package service

import "beckon/internal/domain"

// TrustStatusFor maps a trust score to the consumer's standing.
func TrustStatusFor(score int) domain.TrustStatus {
	switch {
	case score < domain.TrustBlockBelow:
		return domain.TrustBlocked
	case score < domain.TrustRateLimitBelow:
		return domain.TrustRateLimited
	default:
		return domain.TrustGood
	}
}

// TrustOnCompletion rewards a completed engagement, clamped to the maximum.
func TrustOnCompletion(score int) int {
	next := score + domain.TrustCompletionDelta
	if next > domain.TrustMaxScore {
		return domain.TrustMaxScore
	}
	return next
}

// TrustOnNoShow penalizes a no-show, clamped to the minimum.
func TrustOnNoShow(score int) int {
	next := score - domain.TrustNoShowPenalty
	if next < domain.TrustMinScore {
		return domain.TrustMinScore
	}
	return next
}
