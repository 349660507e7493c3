package models

import (
	"time"

	"beckon/internal/domain"
)

// Collection paths in the document store. Deliveries and offers live under
// their request; chats are a top-level collection.
const (
	RequestsCollection   = "requests"
	BusinessesCollection = "businesses"
	ChatsCollection      = "chats"
	UsersCollection      = "users"
)

func DeliveriesCollection(requestID string) string {
	return RequestsCollection + "/" + requestID + "/deliveries"
}

func OffersCollection(requestID string) string {
	return RequestsCollection + "/" + requestID + "/offers"
}

func MessagesCollection(chatID string) string {
	return ChatsCollection + "/" + chatID + "/messages"
}

// Request is a consumer's service-seeking intent with location and status.
type Request struct {
	ID                 string               `firestore:"-"`
	CreatedByUID       string               `firestore:"createdByUid"`
	RawQuery           string               `firestore:"rawQuery"`
	ResolvedCategory   string               `firestore:"resolvedCategory,omitempty"`
	Lat                float64              `firestore:"lat"`
	Lng                float64              `firestore:"lng"`
	Status             domain.RequestStatus `firestore:"status"`
	AcceptedBusinessID string               `firestore:"acceptedBusinessId,omitempty"`
	CreatedAt          time.Time            `firestore:"createdAt"`
	AcceptedAt         *time.Time           `firestore:"acceptedAt,omitempty"`
	CompletedAt        *time.Time           `firestore:"completedAt,omitempty"`
	NoShowAt           *time.Time           `firestore:"noShowAt,omitempty"`
	CancelledAt        *time.Time           `firestore:"cancelledAt,omitempty"`
}

// Delivery records that a business was matched and notified for a request.
// Its document id is the business id, which makes matching writes idempotent.
type Delivery struct {
	BusinessID  string    `firestore:"-"`
	DeliveredAt time.Time `firestore:"deliveredAt"`
}
