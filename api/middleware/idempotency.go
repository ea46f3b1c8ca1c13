package middleware

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/angelmondragon/pos-inventory/api/responses"
	pkgerrors "github.com/angelmondragon/pos-inventory/pkg/errors"
	"github.com/angelmondragon/pos-inventory/pkg/logger"
	pkgredis "github.com/angelmondragon/pos-inventory/pkg/redis"
)

const (
	idempotencyHeader = "Idempotency-Key"
	replayedHeader    = "Idempotent-Replayed"
	maxKeyLength      = 255

	// ConfigTTL covers category registration, bottle sizes and price overrides.
	ConfigTTL = 24 * time.Hour
	// StockTTL covers stock receipts and adjustments. They are additive, so a
	// retried POST would count the same crate twice.
	StockTTL = 7 * 24 * time.Hour
)

type recordState string

const (
	statePending  recordState = "pending"
	stateComplete recordState = "complete"
)

// idempotencyRecord is stored under the key. A pending record marks a
// request still being handled by another replica.
type idempotencyRecord struct {
	State       recordState `json:"state"`
	RequestHash string      `json:"request_hash"`
	Status      int         `json:"status,omitempty"`
	ContentType string      `json:"content_type,omitempty"`
	Body        []byte      `json:"body,omitempty"`
}

// Idempotency guards mutating routes with the Idempotency-Key header. Attach
// Guard per route with chi's With.
type Idempotency struct {
	store pkgredis.IdempotencyStore
	logg  *logger.Logger
}

func NewIdempotency(store pkgredis.IdempotencyStore, logg *logger.Logger) *Idempotency {
	return &Idempotency{store: store, logg: logg}
}

// Guard returns middleware that keeps responses for ttl. Without a store it
// passes requests straight through.
func (i *Idempotency) Guard(ttl time.Duration) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if i == nil || i.store == nil {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			i.serve(w, r, next, ttl)
		})
	}
}

func (i *Idempotency) serve(w http.ResponseWriter, r *http.Request, next http.Handler, ttl time.Duration) {
	ctx := r.Context()
	clientKey := strings.TrimSpace(r.Header.Get(idempotencyHeader))
	switch {
	case clientKey == "":
		i.fail(ctx, w, pkgerrors.New(pkgerrors.CodeValidation, "Idempotency-Key header required"))
		return
	case len(clientKey) > maxKeyLength:
		i.fail(ctx, w, pkgerrors.New(pkgerrors.CodeValidation, "Idempotency-Key too long"))
		return
	}

	body, err := io.ReadAll(r.Body)
	if err != nil {
		i.fail(ctx, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "read request body"))
		return
	}
	r.Body = io.NopCloser(bytes.NewReader(body))

	hash := requestHash(r.Method, body)
	key := i.store.IdempotencyKey(r.Method+"|"+r.URL.Path, clientKey)

	reserved, err := i.reserve(ctx, key, hash, ttl)
	if err != nil {
		i.fail(ctx, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "reserve idempotency key"))
		return
	}
	if !reserved {
		i.replay(ctx, w, key, hash)
		return
	}

	capture := &responseCapture{ResponseWriter: w}
	next.ServeHTTP(capture, r)

	// Server failures release the key so the client can retry.
	if capture.statusCode() >= http.StatusInternalServerError {
		if err := i.store.Del(context.WithoutCancel(ctx), key); err != nil {
			i.logError(ctx, "release idempotency key", err)
		}
		return
	}
	done := idempotencyRecord{
		State:       stateComplete,
		RequestHash: hash,
		Status:      capture.statusCode(),
		ContentType: capture.Header().Get("Content-Type"),
		Body:        capture.body.Bytes(),
	}
	if err := i.save(context.WithoutCancel(ctx), key, done, ttl); err != nil {
		i.logError(ctx, "persist idempotency record", err)
	}
}

func (i *Idempotency) reserve(ctx context.Context, key, hash string, ttl time.Duration) (bool, error) {
	payload, err := json.Marshal(idempotencyRecord{State: statePending, RequestHash: hash})
	if err != nil {
		return false, err
	}
	return i.store.SetNX(ctx, key, string(payload), ttl)
}

func (i *Idempotency) save(ctx context.Context, key string, record idempotencyRecord, ttl time.Duration) error {
	payload, err := json.Marshal(record)
	if err != nil {
		return err
	}
	return i.store.Set(ctx, key, string(payload), ttl)
}

func (i *Idempotency) replay(ctx context.Context, w http.ResponseWriter, key, hash string) {
	raw, err := i.store.Get(ctx, key)
	if errors.Is(err, redis.Nil) {
		i.fail(ctx, w, pkgerrors.New(pkgerrors.CodeConflict, "idempotency record expired mid-request; retry"))
		return
	}
	if err != nil {
		i.fail(ctx, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load idempotency record"))
		return
	}
	var record idempotencyRecord
	if err := json.Unmarshal([]byte(raw), &record); err != nil {
		i.fail(ctx, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "decode idempotency record"))
		return
	}
	switch {
	case record.RequestHash != hash:
		i.fail(ctx, w, pkgerrors.New(pkgerrors.CodeIdempotency, "idempotency key reused with different request body"))
	case record.State == statePending:
		i.fail(ctx, w, pkgerrors.New(pkgerrors.CodeConflict, "a request with this idempotency key is still in progress"))
	default:
		if record.ContentType != "" {
			w.Header().Set("Content-Type", record.ContentType)
		}
		w.Header().Set(replayedHeader, "true")
		w.WriteHeader(record.Status)
		_, _ = w.Write(record.Body)
	}
}

func (i *Idempotency) fail(ctx context.Context, w http.ResponseWriter, err error) {
	responses.WriteError(ctx, i.logg, w, err)
}

func (i *Idempotency) logError(ctx context.Context, msg string, err error) {
	if i.logg != nil {
		i.logg.Error(ctx, msg, err)
	}
}

func requestHash(method string, body []byte) string {
	sum := sha256.New()
	sum.Write([]byte(method))
	sum.Write([]byte{0})
	sum.Write(body)
	return hex.EncodeToString(sum.Sum(nil))
}

// responseCapture tees the response so it can be stored for replays.
type responseCapture struct {
	http.ResponseWriter
	body   bytes.Buffer
	status int
}

func (r *responseCapture) WriteHeader(code int) {
	if r.status == 0 {
		r.status = code
	}
	r.ResponseWriter.WriteHeader(code)
}

func (r *responseCapture) Write(b []byte) (int, error) {
	if r.status == 0 {
		r.status = http.StatusOK
	}
	r.body.Write(b)
	return r.ResponseWriter.Write(b)
}

func (r *responseCapture) statusCode() int {
	if r.status == 0 {
		return http.StatusOK
	}
	return r.status
}
