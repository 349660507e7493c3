package service

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"beckon/internal/apperr"
	"beckon/internal/domain"
	"beckon/internal/models"
	"beckon/internal/store"
	"beckon/pkg/location"
)

// Lifecycle drives a request through its state machine. Every command runs
// as one atomic transaction; notification intents returned by the body are
// dispatched only after the commit succeeds, so a re-run of the body on
// contention can never double-send.
type Lifecycle struct {
	store      store.Store
	dispatcher *Dispatcher
	log        *zap.Logger

	// now is the domain clock for the no-show threshold; tests override it.
	now func() time.Time
}

func NewLifecycle(st store.Store, dispatcher *Dispatcher, log *zap.Logger) *Lifecycle {
	return &Lifecycle{store: st, dispatcher: dispatcher, log: log, now: time.Now}
}

// transact runs body atomically and dispatches the final attempt's intents
// after commit. Push runs on a detached context: a caller disconnect must
// not cancel fanout for a transition that already committed.
func (l *Lifecycle) transact(ctx context.Context, body func(tx store.Tx) ([]Intent, error)) error {
	var intents []Intent
	err := l.store.RunTransaction(ctx, func(tx store.Tx) error {
		intents = nil
		var err error
		intents, err = body(tx)
		return err
	})
	if err != nil {
		var ae *apperr.Error
		if errors.As(err, &ae) {
			return err
		}
		l.log.Error("transaction failed", zap.Error(err))
		return apperr.External("transaction failed", err)
	}
	l.dispatcher.Dispatch(context.Background(), intents)
	return nil
}

type RouteResult struct {
	DeliveriesCreated int    `json:"deliveriesCreated"`
	ResolvedCategory  string `json:"resolvedCategory"`
}

// RouteRequest resolves the request's category and fans it out to online
// businesses of that category within their service radius. Idempotent:
// delivery ids are business ids, so repeat calls merge instead of
// duplicating, and a persisted category is reused rather than recomputed.
func (l *Lifecycle) RouteRequest(ctx context.Context, callerUID, requestID string) (*RouteResult, error) {
	if requestID == "" {
		return nil, apperr.Validation("requestId is required")
	}
	var result RouteResult
	err := l.transact(ctx, func(tx store.Tx) ([]Intent, error) {
		result = RouteResult{}
		req, err := getRequest(tx, requestID)
		if err != nil {
			return nil, err
		}
		if req.CreatedByUID != callerUID {
			return nil, apperr.Forbidden("not authorized for request")
		}
		if req.Status != domain.StatusBroadcasting {
			return nil, apperr.Conflict("request is not broadcasting")
		}

		resolved := req.ResolvedCategory
		if resolved == "" {
			resolved = ResolveCategory(req.RawQuery)
		}
		snaps, err := tx.Query(models.BusinessesCollection,
			store.Where("category", "==", resolved),
			store.Where("isOnline", "==", true))
		if err != nil {
			return nil, err
		}

		var intents []Intent
		var matched []*models.Business
		for _, snap := range snaps {
			biz, err := decodeBusiness(snap)
			if err != nil {
				return nil, err
			}
			dist := location.HaversineKm(req.Lat, req.Lng, biz.Lat, biz.Lng)
			if location.WithinRadiusKm(dist, biz.RadiusKm) {
				matched = append(matched, biz)
			}
		}
		for _, biz := range matched {
			if err := tx.Merge(models.DeliveriesCollection(requestID), biz.ID, map[string]interface{}{
				"deliveredAt": store.ServerTimestamp,
			}); err != nil {
				return nil, err
			}
			intents = append(intents, NewIntent(domain.NotifyIntentDelivered, biz.FCMTokens, map[string]string{
				"requestId": requestID,
				"category":  resolved,
			}))
		}
		if req.ResolvedCategory != resolved {
			if err := tx.Merge(models.RequestsCollection, requestID, map[string]interface{}{
				"resolvedCategory": resolved,
			}); err != nil {
				return nil, err
			}
		}
		result = RouteResult{DeliveriesCreated: len(matched), ResolvedCategory: resolved}
		return intents, nil
	})
	if err != nil {
		return nil, err
	}
	return &result, nil
}

type RespondOfferInput struct {
	RequestID  string
	BusinessID string
	Message    string
	Price      *float64
	ETA        string
	PhotoURLs  []string
}

// RespondOffer records a business's proposal against a request it was
// matched to. The request's status does not change.
func (l *Lifecycle) RespondOffer(ctx context.Context, callerUID string, in RespondOfferInput) (string, error) {
	if in.RequestID == "" {
		return "", apperr.Validation("requestId is required")
	}
	if in.BusinessID == "" {
		return "", apperr.Validation("businessId is required")
	}
	if in.Message == "" {
		return "", apperr.Validation("message is required")
	}
	if len(in.PhotoURLs) > domain.MaxOfferPhotos {
		return "", apperr.Validation("at most %d photo urls allowed", domain.MaxOfferPhotos)
	}
	var offerID string
	err := l.transact(ctx, func(tx store.Tx) ([]Intent, error) {
		biz, err := getBusiness(tx, in.BusinessID)
		if err != nil {
			return nil, err
		}
		req, err := getRequest(tx, in.RequestID)
		if err != nil {
			return nil, err
		}
		if err := requireDelivery(tx, in.RequestID, in.BusinessID); err != nil {
			return nil, err
		}
		if biz.OwnerUID != callerUID {
			return nil, apperr.Forbidden("not authorized for business")
		}
		if req.Status != domain.StatusBroadcasting {
			return nil, apperr.Conflict("request is not open for offers")
		}

		offerID = l.store.NewID(models.OffersCollection(in.RequestID))
		payload := map[string]interface{}{
			"businessId": in.BusinessID,
			"message":    in.Message,
			"createdAt":  store.ServerTimestamp,
		}
		if in.Price != nil {
			payload["price"] = *in.Price
		}
		if in.ETA != "" {
			payload["eta"] = in.ETA
		}
		if len(in.PhotoURLs) > 0 {
			payload["photoUrls"] = in.PhotoURLs
		}
		if err := tx.Set(models.OffersCollection(in.RequestID), offerID, payload); err != nil {
			return nil, err
		}
		// offers reach the consumer through a live view, not push
		return nil, nil
	})
	if err != nil {
		return "", err
	}
	return offerID, nil
}

type AcceptResult struct {
	ChatID     string `json:"chatId"`
	BusinessID string `json:"businessId"`
}

// AcceptOffer transitions the request to accepted and opens the chat.
// Concurrent accepts race on the broadcasting guard; the store's commit
// validation guarantees exactly one winner.
func (l *Lifecycle) AcceptOffer(ctx context.Context, callerUID, requestID, offerID string) (*AcceptResult, error) {
	if requestID == "" {
		return nil, apperr.Validation("requestId is required")
	}
	if offerID == "" {
		return nil, apperr.Validation("offerId is required")
	}
	var result AcceptResult
	err := l.transact(ctx, func(tx store.Tx) ([]Intent, error) {
		result = AcceptResult{}
		req, err := getRequest(tx, requestID)
		if err != nil {
			return nil, err
		}
		offer, err := getOffer(tx, requestID, offerID)
		if err != nil {
			return nil, err
		}
		if req.CreatedByUID != callerUID {
			return nil, apperr.Forbidden("not authorized for request")
		}
		if req.Status != domain.StatusBroadcasting {
			return nil, apperr.Conflict("request is not accepting offers")
		}
		// a delivery must back the offer; rejects stale or forged offers
		if err := requireDelivery(tx, requestID, offer.BusinessID); err != nil {
			return nil, err
		}
		biz, err := getBusiness(tx, offer.BusinessID)
		if err != nil {
			return nil, err
		}

		chatID := l.store.NewID(models.ChatsCollection)
		if err := tx.Update(models.RequestsCollection, requestID, map[string]interface{}{
			"status":             string(domain.StatusAccepted),
			"acceptedBusinessId": offer.BusinessID,
			"acceptedAt":         store.ServerTimestamp,
		}); err != nil {
			return nil, err
		}
		if err := tx.Set(models.ChatsCollection, chatID, map[string]interface{}{
			"requestId":  requestID,
			"userId":     callerUID,
			"businessId": offer.BusinessID,
			"createdAt":  store.ServerTimestamp,
		}); err != nil {
			return nil, err
		}
		result = AcceptResult{ChatID: chatID, BusinessID: offer.BusinessID}
		return []Intent{NewIntent(domain.NotifyOfferAccepted, biz.FCMTokens, map[string]string{
			"requestId": requestID,
			"chatId":    chatID,
		})}, nil
	})
	if err != nil {
		return nil, err
	}
	return &result, nil
}

// SendChatMessage appends a message to an accepted engagement's chat. The
// sender role is derived from which party of the chat is authenticated.
func (l *Lifecycle) SendChatMessage(ctx context.Context, callerUID, chatID, text string) (string, error) {
	if chatID == "" {
		return "", apperr.Validation("chatId is required")
	}
	if text == "" {
		return "", apperr.Validation("text is required")
	}
	var messageID string
	err := l.transact(ctx, func(tx store.Tx) ([]Intent, error) {
		chat, err := getChat(tx, chatID)
		if err != nil {
			return nil, err
		}
		biz, err := getBusiness(tx, chat.BusinessID)
		if err != nil {
			return nil, err
		}
		consumer, err := getUserTrust(tx, chat.UserID)
		if err != nil {
			return nil, err
		}

		var sender domain.SenderType
		var recipientTokens []string
		switch callerUID {
		case chat.UserID:
			sender = domain.SenderUser
			recipientTokens = biz.FCMTokens
		case biz.OwnerUID:
			sender = domain.SenderBusiness
			recipientTokens = consumer.FCMTokens
		default:
			return nil, apperr.Forbidden("not a participant of this chat")
		}

		messageID = l.store.NewID(models.MessagesCollection(chatID))
		if err := tx.Set(models.MessagesCollection(chatID), messageID, map[string]interface{}{
			"senderType": string(sender),
			"text":       text,
			"createdAt":  store.ServerTimestamp,
		}); err != nil {
			return nil, err
		}
		return []Intent{NewIntent(domain.NotifyChatMessage, recipientTokens, map[string]string{
			"chatId":     chatID,
			"requestId":  chat.RequestID,
			"senderType": string(sender),
		})}, nil
	})
	if err != nil {
		return "", err
	}
	return messageID, nil
}

// CancelRequest cancels a broadcasting or accepted request. If a business
// had already been accepted it is notified.
func (l *Lifecycle) CancelRequest(ctx context.Context, callerUID, requestID string) error {
	if requestID == "" {
		return apperr.Validation("requestId is required")
	}
	return l.transact(ctx, func(tx store.Tx) ([]Intent, error) {
		req, err := getRequest(tx, requestID)
		if err != nil {
			return nil, err
		}
		if req.CreatedByUID != callerUID {
			return nil, apperr.Forbidden("not authorized for request")
		}
		if req.Status != domain.StatusBroadcasting && req.Status != domain.StatusAccepted {
			return nil, apperr.Conflict("request cannot be cancelled in status %s", req.Status)
		}

		var intents []Intent
		fields := map[string]interface{}{
			"status":      string(domain.StatusCancelled),
			"cancelledAt": store.ServerTimestamp,
		}
		if req.Status == domain.StatusAccepted && req.AcceptedBusinessID != "" {
			// only accepted and post-acceptance terminal states carry the
			// assigned business
			fields["acceptedBusinessId"] = ""
			biz, err := getBusiness(tx, req.AcceptedBusinessID)
			if err == nil {
				intents = append(intents, NewIntent(domain.NotifyRequestCancelled, biz.FCMTokens, map[string]string{
					"requestId": requestID,
				}))
			} else if apperr.KindOf(err) != apperr.KindNotFound {
				return nil, err
			}
		}
		if err := tx.Update(models.RequestsCollection, requestID, fields); err != nil {
			return nil, err
		}
		return intents, nil
	})
}

// MarkCompleted closes an accepted engagement as completed and rewards the
// consumer's trust score.
func (l *Lifecycle) MarkCompleted(ctx context.Context, callerUID, requestID, businessID string) error {
	if requestID == "" {
		return apperr.Validation("requestId is required")
	}
	if businessID == "" {
		return apperr.Validation("businessId is required")
	}
	return l.transact(ctx, func(tx store.Tx) ([]Intent, error) {
		req, _, err := l.assignedEngagement(tx, callerUID, requestID, businessID)
		if err != nil {
			return nil, err
		}
		trust, err := getUserTrust(tx, req.CreatedByUID)
		if err != nil {
			return nil, err
		}

		if err := tx.Update(models.RequestsCollection, requestID, map[string]interface{}{
			"status":      string(domain.StatusCompleted),
			"completedAt": store.ServerTimestamp,
		}); err != nil {
			return nil, err
		}
		if err := tx.Merge(models.UsersCollection, req.CreatedByUID, map[string]interface{}{
			"trustScore": TrustOnCompletion(trust.TrustScore),
		}); err != nil {
			return nil, err
		}
		return nil, nil
	})
}

// MarkNoShow reports the consumer as a no-show, allowed only once the
// threshold after acceptance has elapsed. Penalizes the trust score and
// notifies the consumer.
func (l *Lifecycle) MarkNoShow(ctx context.Context, callerUID, requestID, businessID string) error {
	if requestID == "" {
		return apperr.Validation("requestId is required")
	}
	if businessID == "" {
		return apperr.Validation("businessId is required")
	}
	return l.transact(ctx, func(tx store.Tx) ([]Intent, error) {
		req, _, err := l.assignedEngagement(tx, callerUID, requestID, businessID)
		if err != nil {
			return nil, err
		}
		if req.AcceptedAt == nil {
			return nil, apperr.Conflict("request acceptance time missing")
		}
		if l.now().Sub(*req.AcceptedAt) < domain.NoShowThreshold {
			return nil, apperr.Conflict("no-show threshold not reached")
		}
		trust, err := getUserTrust(tx, req.CreatedByUID)
		if err != nil {
			return nil, err
		}

		if err := tx.Update(models.RequestsCollection, requestID, map[string]interface{}{
			"status":   string(domain.StatusNoShow),
			"noShowAt": store.ServerTimestamp,
		}); err != nil {
			return nil, err
		}
		if err := tx.Merge(models.UsersCollection, req.CreatedByUID, map[string]interface{}{
			"trustScore": TrustOnNoShow(trust.TrustScore),
		}); err != nil {
			return nil, err
		}
		return []Intent{NewIntent(domain.NotifyNoShow, trust.FCMTokens, map[string]string{
			"requestId": requestID,
		})}, nil
	})
}

// RegisterPushToken unions a device token into the caller's token set, and
// into a business's set when the caller owns it.
func (l *Lifecycle) RegisterPushToken(ctx context.Context, callerUID, token, businessID string) error {
	if token == "" {
		return apperr.Validation("token is required")
	}
	return l.transact(ctx, func(tx store.Tx) ([]Intent, error) {
		if businessID != "" {
			biz, err := getBusiness(tx, businessID)
			if err != nil {
				return nil, err
			}
			if biz.OwnerUID != callerUID {
				return nil, apperr.Forbidden("not authorized for business")
			}
			if err := tx.Merge(models.BusinessesCollection, businessID, map[string]interface{}{
				"fcmTokens": store.ArrayUnion(token),
			}); err != nil {
				return nil, err
			}
		}
		if err := tx.Merge(models.UsersCollection, callerUID, map[string]interface{}{
			"fcmTokens": store.ArrayUnion(token),
		}); err != nil {
			return nil, err
		}
		return nil, nil
	})
}

// TrustFor reads a consumer's trust record outside any transaction, for
// read-only surfaces. Missing records carry the default score.
func (l *Lifecycle) TrustFor(ctx context.Context, uid string) (int, domain.TrustStatus, error) {
	snap, err := l.store.Get(ctx, models.UsersCollection, uid)
	if err != nil {
		return 0, "", apperr.External("trust lookup failed", err)
	}
	score := domain.TrustDefaultScore
	if snap.Exists() {
		var trust models.UserTrust
		if err := snap.DataTo(&trust); err != nil {
			return 0, "", apperr.Validation("malformed user document: %v", err)
		}
		score = trust.TrustScore
	}
	return score, TrustStatusFor(score), nil
}

// assignedEngagement checks the shared MarkCompleted/MarkNoShow guards:
// caller owns the business, the business was delivered the request, and the
// request is accepted and assigned to that business.
func (l *Lifecycle) assignedEngagement(tx store.Tx, callerUID, requestID, businessID string) (*models.Request, *models.Business, error) {
	req, err := getRequest(tx, requestID)
	if err != nil {
		return nil, nil, err
	}
	biz, err := getBusiness(tx, businessID)
	if err != nil {
		return nil, nil, err
	}
	if biz.OwnerUID != callerUID {
		return nil, nil, apperr.Forbidden("not authorized for business")
	}
	if err := requireDelivery(tx, requestID, businessID); err != nil {
		return nil, nil, err
	}
	if req.Status != domain.StatusAccepted {
		return nil, nil, apperr.Conflict("request is not accepted")
	}
	if req.AcceptedBusinessID != businessID {
		return nil, nil, apperr.Conflict("request not assigned to business")
	}
	return req, biz, nil
}

func getRequest(tx store.Tx, id string) (*models.Request, error) {
	snap, err := tx.Get(models.RequestsCollection, id)
	if err != nil {
		return nil, err
	}
	if !snap.Exists() {
		return nil, apperr.NotFound("request not found")
	}
	var req models.Request
	if err := snap.DataTo(&req); err != nil {
		return nil, apperr.Validation("malformed request document: %v", err)
	}
	req.ID = id
	return &req, nil
}

func getBusiness(tx store.Tx, id string) (*models.Business, error) {
	snap, err := tx.Get(models.BusinessesCollection, id)
	if err != nil {
		return nil, err
	}
	if !snap.Exists() {
		return nil, apperr.NotFound("business not found")
	}
	return decodeBusiness(snap)
}

func decodeBusiness(snap store.Snapshot) (*models.Business, error) {
	var biz models.Business
	if err := snap.DataTo(&biz); err != nil {
		return nil, apperr.Validation("malformed business document: %v", err)
	}
	biz.ID = snap.ID()
	return &biz, nil
}

func getOffer(tx store.Tx, requestID, offerID string) (*models.Offer, error) {
	snap, err := tx.Get(models.OffersCollection(requestID), offerID)
	if err != nil {
		return nil, err
	}
	if !snap.Exists() {
		return nil, apperr.NotFound("offer not found")
	}
	var offer models.Offer
	if err := snap.DataTo(&offer); err != nil {
		return nil, apperr.Validation("malformed offer document: %v", err)
	}
	offer.ID = offerID
	return &offer, nil
}

func getChat(tx store.Tx, id string) (*models.Chat, error) {
	snap, err := tx.Get(models.ChatsCollection, id)
	if err != nil {
		return nil, err
	}
	if !snap.Exists() {
		return nil, apperr.NotFound("chat not found")
	}
	var chat models.Chat
	if err := snap.DataTo(&chat); err != nil {
		return nil, apperr.Validation("malformed chat document: %v", err)
	}
	chat.ID = id
	return &chat, nil
}

func requireDelivery(tx store.Tx, requestID, businessID string) error {
	snap, err := tx.Get(models.DeliveriesCollection(requestID), businessID)
	if err != nil {
		return err
	}
	if !snap.Exists() {
		return apperr.Forbidden("business was not matched to this request")
	}
	return nil
}

// getUserTrust reads the consumer record, defaulting a missing one.
func getUserTrust(tx store.Tx, uid string) (*models.UserTrust, error) {
	snap, err := tx.Get(models.UsersCollection, uid)
	if err != nil {
		return nil, err
	}
	trust := models.UserTrust{UID: uid, TrustScore: domain.TrustDefaultScore}
	if snap.Exists() {
		if err := snap.DataTo(&trust); err != nil {
			return nil, apperr.Validation("malformed user document: %v", err)
		}
		trust.UID = uid
	}
	return &trust, nil
}
