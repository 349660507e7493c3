package models

import "time"

// Offer is a business's proposal against a request it was matched to.
type Offer struct {
	ID         string    `firestore:"-"`
	BusinessID string    `firestore:"businessId"`
	Message    string    `firestore:"message"`
	Price      *float64  `firestore:"price,omitempty"`
	ETA        string    `firestore:"eta,omitempty"`
	PhotoURLs  []string  `firestore:"photoUrls,omitempty"`
	CreatedAt  time.Time `firestore:"createdAt"`
}
