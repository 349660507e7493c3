package domain

import "time"

// RequestStatus is the lifecycle state of a service request.
type RequestStatus string

const (
	StatusDraft        RequestStatus = "draft"
	StatusBroadcasting RequestStatus = "broadcasting"
	StatusAccepted     RequestStatus = "accepted"
	StatusCompleted    RequestStatus = "completed"
	StatusNoShow       RequestStatus = "no_show"
	StatusCancelled    RequestStatus = "cancelled"
)

// Terminal reports whether no further transition is allowed from s.
func (s RequestStatus) Terminal() bool {
	return s == StatusCompleted || s == StatusNoShow || s == StatusCancelled
}

// SenderType identifies which side of a chat wrote a message.
type SenderType string

const (
	SenderUser     SenderType = "user"
	SenderBusiness SenderType = "business"
	SenderSystem   SenderType = "system"
)

// TrustStatus is derived from a consumer's trust score.
type TrustStatus string

const (
	TrustGood        TrustStatus = "good"
	TrustRateLimited TrustStatus = "rate_limited"
	TrustBlocked     TrustStatus = "blocked"
)

const (
	CategoryRestaurant = "restaurant"
	CategoryNightlife  = "nightlife"
	CategorySalon      = "salon"
	CategoryCafe       = "cafe"
	CategoryGeneral    = "general"
)

// Push notification kinds carried in the FCM data payload.
const (
	NotifyIntentDelivered  = "intent_delivered"
	NotifyOfferAccepted    = "offer_accepted"
	NotifyChatMessage      = "chat_message"
	NotifyRequestCancelled = "request_cancelled"
	NotifyNoShow           = "no_show"
)

const (
	// TrustDefaultScore is assumed for consumers with no trust record.
	TrustDefaultScore = 100
	TrustMaxScore     = 100
	TrustMinScore     = 0

	// Scores below these cut-offs demote the consumer's trust status.
	TrustRateLimitBelow = 50
	TrustBlockBelow     = 25

	TrustCompletionDelta = 2
	TrustNoShowPenalty   = 25
)

// NoShowThreshold is the minimum time after acceptance before a business
// may report the consumer as a no-show.
const NoShowThreshold = 30 * time.Minute

// MaxOfferPhotos caps photo URLs attached to a single offer.
const MaxOfferPhotos = 3
