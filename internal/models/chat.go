package models

import (
	"time"

	"beckon/internal/domain"
)

// Chat links the consumer and the accepted business for one request.
// Created at acceptance, immutable afterwards.
type Chat struct {
	ID         string    `firestore:"-"`
	RequestID  string    `firestore:"requestId"`
	UserID     string    `firestore:"userId"`
	BusinessID string    `firestore:"businessId"`
	CreatedAt  time.Time `firestore:"createdAt"`
}

type ChatMessage struct {
	ID         string            `firestore:"-"`
	SenderType domain.SenderType `firestore:"senderType"`
	Text       string            `firestore:"text"`
	CreatedAt  time.Time         `firestore:"createdAt"`
}
