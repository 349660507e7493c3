package models

// UserTrust is the consumer-side record keyed by uid: the 0-100 trust score
// plus registered push tokens. Upserted lazily on outcome events.
type UserTrust struct {
	UID        string   `firestore:"-"`
	TrustScore int      `firestore:"trustScore"`
	FCMTokens  []string `firestore:"fcmTokens,omitempty"`
}
