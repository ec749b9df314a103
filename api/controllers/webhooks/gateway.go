package webhooks

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"io"
	"net/http"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/harborclub/harborclub-backend/api/responses"
	"github.com/harborclub/harborclub-backend/internal/ingest"
	"github.com/harborclub/harborclub-backend/pkg/enums"
	pkgerrors "github.com/harborclub/harborclub-backend/pkg/errors"
	"github.com/harborclub/harborclub-backend/pkg/logger"
)

const signatureHeader = "X-Gateway-Signature"

var validate = validator.New(validator.WithRequiredStructEnabled())

// GatewayEvent is the wire shape of a gateway webhook delivery.
type GatewayEvent struct {
	EventID string `json:"event_id" validate:"required"`
	Type    string `json:"type" validate:"required"`
	Data    struct {
		Type   string          `json:"type" validate:"required"`
		ID     string          `json:"id" validate:"required"`
		Object json.RawMessage `json:"object"`
	} `json:"data"`
}

type eventProcessor interface {
	Process(ctx context.Context, event ingest.Event) (ingest.Result, error)
}

type webhookGuard interface {
	CheckAndMark(ctx context.Context, eventID string) (bool, error)
	Release(ctx context.Context, eventID string)
}

type gatewayClient interface {
	SigningSecret() string
}

// GatewayWebhook ingests payment-gateway events. Every terminal outcome is
// acknowledged with 200 so the gateway stops redelivering; only transient
// infrastructure failures produce a retryable status.
func GatewayWebhook(engine eventProcessor, client gatewayClient, guard webhookGuard, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		if engine == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "ingest engine unavailable"))
			return
		}
		if client == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "gateway client unavailable"))
			return
		}

		payload, err := io.ReadAll(r.Body)
		if err != nil {
			responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "read request body"))
			return
		}

		sigHeader := r.Header.Get(signatureHeader)
		if sigHeader == "" {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "gateway signature missing"))
			return
		}
		if !validateSignature(payload, client.SigningSecret(), sigHeader) {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "invalid gateway signature"))
			return
		}

		var dto GatewayEvent
		if err := json.Unmarshal(payload, &dto); err != nil {
			responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "decode event"))
			return
		}
		if err := validate.Struct(&dto); err != nil {
			responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid event").WithDetails(err.Error()))
			return
		}

		eventID := strings.TrimSpace(dto.EventID)

		// Fast path: the Redis mark catches the common immediate
		// redelivery without opening a transaction. The database claim
		// remains the authority when the mark is missing or Redis is down.
		if guard != nil {
			seen, err := guard.CheckAndMark(ctx, eventID)
			if err == nil && seen {
				responses.WriteSuccess(w, map[string]string{"outcome": string(ingest.OutcomeDuplicate)})
				return
			}
		}

		event := ingest.Event{
			ID:   eventID,
			Type: enums.GatewayEventType(dto.Type),
			Resource: ingest.ResourceRef{
				Type: enums.ResourceType(dto.Data.Type),
				ID:   dto.Data.ID,
			},
			Payload: dto.Data.Object,
		}

		result, err := engine.Process(ctx, event)
		if err != nil {
			// Nothing committed. Drop the fast-path mark so the
			// gateway's retry reaches the engine again.
			if guard != nil && pkgerrors.IsRetryable(err) {
				guard.Release(ctx, eventID)
			}
			responses.WriteError(ctx, logg, w, err)
			return
		}

		responses.WriteSuccess(w, map[string]string{"outcome": string(result.Outcome)})
	}
}

func validateSignature(payload []byte, secret, header string) bool {
	if header == "" || secret == "" {
		return false
	}
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(payload)
	expected := base64.StdEncoding.EncodeToString(mac.Sum(nil))
	return hmac.Equal([]byte(expected), []byte(header))
}

// Sign computes the signature the gateway attaches to a payload. Exported
// for tests and local tooling.
func Sign(payload []byte, secret string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(payload)
	return base64.StdEncoding.EncodeToString(mac.Sum(nil))
}
