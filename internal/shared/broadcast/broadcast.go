// Package broadcast moves realtime events from the instance that produced
// them to every connected websocket client, across instances when a Redis
// pub/sub channel is configured.
package broadcast

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/cristianortiz/auctionhouse/internal/shared/logger"
	"github.com/google/uuid"
)

var log = logger.GetLogger()

type Target string

const (
	TargetAuction Target = "auction"
	TargetUser    Target = "user"
)

// Envelope is what crosses instances on the events channel.
type Envelope struct {
	Target    Target          `json:"target"`
	Key       string          `json:"key"`
	Event     string          `json:"event"`
	Payload   json.RawMessage `json:"payload"`
	EmittedAt time.Time       `json:"emittedAt"`
}

// Frame is the JSON message a websocket client receives.
type Frame struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

// Deliverer hands frames to locally connected clients, *websocket.Hub in
// production.
type Deliverer interface {
	BroadcastToRoom(room string, data []byte)
	SendToUser(userID string, data []byte)
}

func NewEnvelope(target Target, key uuid.UUID, event string, payload any) (*Envelope, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal %s payload: %w", event, err)
	}
	return &Envelope{
		Target:    target,
		Key:       key.String(),
		Event:     event,
		Payload:   raw,
		EmittedAt: time.Now().UTC(),
	}, nil
}

// Deliver renders env as a frame and routes it to its target.
func Deliver(d Deliverer, env *Envelope) error {
	frame, err := json.Marshal(Frame{Type: env.Event, Payload: env.Payload})
	if err != nil {
		return err
	}
	switch env.Target {
	case TargetAuction:
		d.BroadcastToRoom(env.Key, frame)
	case TargetUser:
		d.SendToUser(env.Key, frame)
	default:
		return fmt.Errorf("unknown envelope target %q", env.Target)
	}
	return nil
}

// Local delivers straight to the in-process hub. It serves single instance
// deployments.
type Local struct {
	d Deliverer
}

func NewLocal(d Deliverer) *Local {
	return &Local{d: d}
}

func (l *Local) BroadcastToAuction(_ context.Context, auctionID uuid.UUID, event string, payload any) error {
	env, err := NewEnvelope(TargetAuction, auctionID, event, payload)
	if err != nil {
		return err
	}
	return Deliver(l.d, env)
}

func (l *Local) NotifyUser(_ context.Context, userID uuid.UUID, event string, payload any) error {
	env, err := NewEnvelope(TargetUser, userID, event, payload)
	if err != nil {
		return err
	}
	return Deliver(l.d, env)
}
