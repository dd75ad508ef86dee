// Package nats publishes prediction events to a NATS subject.
package nats

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"healthrisk/internal/domain"

	"github.com/google/uuid"
	nats "github.com/nats-io/nats.go"
)

// EventType identifies a recorded-prediction event.
const EventType = "prediction.recorded"

// Event is the JSON payload published for every recorded prediction.
type Event struct {
	ID           string    `json:"id"`
	Type         string    `json:"type"`
	PredictionID int64     `json:"predictionId"`
	UserID       int64     `json:"userId"`
	Disease      string    `json:"disease"`
	RiskLevel    string    `json:"riskLevel"`
	RiskScore    float64   `json:"riskScore"`
	Method       string    `json:"method"`
	RecordedAt   time.Time `json:"recordedAt"`
}

type msgPublisher interface {
	PublishMsg(m *nats.Msg) error
}

var _ domain.PredictionPublisher = (*Publisher)(nil)

// Publisher implements domain.PredictionPublisher.
type Publisher struct {
	conn    msgPublisher
	subject string
}

// Connect dials url and returns a publisher for subject. The caller owns the
// returned connection.
func Connect(url, subject string) (*Publisher, *nats.Conn, error) {
	nc, err := nats.Connect(url, nats.Name("healthrisk"))
	if err != nil {
		return nil, nil, fmt.Errorf("nats connect: %w", err)
	}
	return NewPublisher(nc, subject), nc, nil
}

// NewPublisher wraps an established connection.
func NewPublisher(conn msgPublisher, subject string) *Publisher {
	return &Publisher{conn: conn, subject: subject}
}

// PublishPrediction publishes rec as an Event.
func (p *Publisher) PublishPrediction(ctx context.Context, rec domain.PredictionRecord) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	ev := Event{
		ID:           uuid.NewString(),
		Type:         EventType,
		PredictionID: rec.ID,
		UserID:       rec.UserID,
		Disease:      rec.Condition.String(),
		RiskLevel:    rec.Tier.String(),
		RiskScore:    rec.Score,
		Method:       rec.Method,
		RecordedAt:   rec.CreatedAt.UTC(),
	}
	data, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	hdr := nats.Header{}
	hdr.Set("Content-Type", "application/json")
	hdr.Set(nats.MsgIdHdr, ev.ID)
	if err := p.conn.PublishMsg(&nats.Msg{Subject: p.subject, Data: data, Header: hdr}); err != nil {
		return fmt.Errorf("publish %s: %w", p.subject, err)
	}
	return nil
}
