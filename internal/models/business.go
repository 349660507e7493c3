package models

// Business is a provider that can receive matched requests while online.
type Business struct {
	ID        string   `firestore:"-"`
	OwnerUID  string   `firestore:"ownerUid"`
	Name      string   `firestore:"name,omitempty"`
	Category  string   `firestore:"category"`
	Lat       float64  `firestore:"lat"`
	Lng       float64  `firestore:"lng"`
	RadiusKm  float64  `firestore:"radiusKm"`
	IsOnline  bool     `firestore:"isOnline"`
	FCMTokens []string `firestore:"fcmTokens,omitempty"`
}
