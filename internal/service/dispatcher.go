package service

import (
	"context"

	"go.uber.org/zap"
)

// Intent is a notification side effect accumulated inside a transaction
// body and dispatched only after the transaction commits.
type Intent struct {
	Kind   string
	Tokens []string
	Data   map[string]string
}

// NewIntent builds an intent; the kind rides in the data payload under
// "type" so clients can route it.
func NewIntent(kind string, tokens []string, data map[string]string) Intent {
	if data == nil {
		data = make(map[string]string, 1)
	}
	data["type"] = kind
	return Intent{Kind: kind, Tokens: tokens, Data: data}
}

// Pusher delivers a keyed data payload to a set of device tokens.
type Pusher interface {
	SendToTokens(ctx context.Context, tokens []string, data map[string]string) error
}

// Dispatcher fans committed intents out to the pusher. Delivery is
// best-effort: failures are logged and never surfaced to the caller.
type Dispatcher struct {
	pusher Pusher
	log    *zap.Logger
}

func NewDispatcher(pusher Pusher, log *zap.Logger) *Dispatcher {
	return &Dispatcher{pusher: pusher, log: log}
}

func (d *Dispatcher) Dispatch(ctx context.Context, intents []Intent) {
	for _, intent := range intents {
		tokens := dedupeTokens(intent.Tokens)
		if len(tokens) == 0 {
			continue
		}
		if d.pusher == nil {
			d.log.Debug("push disabled, dropping intent", zap.String("kind", intent.Kind))
			continue
		}
		if err := d.pusher.SendToTokens(ctx, tokens, intent.Data); err != nil {
			d.log.Warn("push dispatch failed",
				zap.String("kind", intent.Kind),
				zap.Int("tokens", len(tokens)),
				zap.Error(err))
		}
	}
}

func dedupeTokens(tokens []string) []string {
	seen := make(map[string]struct{}, len(tokens))
	out := tokens[:0:0]
	for _, t := range tokens {
		if t == "" {
			continue
		}
		if _, ok := seen[t]; ok {
			continue
		}
		seen[t] = struct{}{}
		out = append(out, t)
	}
	return out
}
