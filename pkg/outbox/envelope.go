package outbox

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/angelmondragon/pos-inventory/pkg/enums"
)

const currentVersion = 1

var (
	// ErrEmptyData means the envelope decoded but carried no payload.
	ErrEmptyData = errors.New("envelope data is empty")
	// ErrUnsupportedVersion means the envelope was written by a newer schema.
	ErrUnsupportedVersion = errors.New("unsupported envelope version")
)

// OriginRef names the process that emitted the event, so a subscriber can
// tell a terminal's stock change from one made by the cron worker.
type OriginRef struct {
	Service  string `json:"service"`
	Instance string `json:"instance,omitempty"`
}

// PayloadEnvelope is what outbox_events.payload and the published message body
// hold. EventID equals the outbox row id; subscribers dedupe on it.
type PayloadEnvelope struct {
	Version    int                   `json:"version"`
	EventID    string                `json:"eventId"`
	Type       enums.OutboxEventType `json:"type,omitempty"`
	OccurredAt time.Time             `json:"occurredAt"`
	Origin     *OriginRef            `json:"origin,omitempty"`
	Data       json.RawMessage       `json:"data"`
}

// DecodeEnvelope parses raw and checks it is something this build can read.
func DecodeEnvelope(raw []byte) (PayloadEnvelope, error) {
	var env PayloadEnvelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return PayloadEnvelope{}, fmt.Errorf("decode envelope: %w", err)
	}
	if env.Version > currentVersion {
		return PayloadEnvelope{}, fmt.Errorf("%w: %d", ErrUnsupportedVersion, env.Version)
	}
	trimmed := bytes.TrimSpace(env.Data)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return PayloadEnvelope{}, ErrEmptyData
	}
	return env, nil
}

// DecodeData unmarshals the envelope's data into dst.
func (e PayloadEnvelope) DecodeData(dst any) error {
	if err := json.Unmarshal(e.Data, dst); err != nil {
		return fmt.Errorf("decode %s data: %w", e.Type, err)
	}
	return nil
}
