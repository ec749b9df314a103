package gateway

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	sq "github.com/square/square-go-sdk"
	sqclient "github.com/square/square-go-sdk/client"
	sqcore "github.com/square/square-go-sdk/core"
	sqoption "github.com/square/square-go-sdk/option"

	"github.com/harborclub/harborclub-backend/pkg/config"
	pkgerrors "github.com/harborclub/harborclub-backend/pkg/errors"
	"github.com/harborclub/harborclub-backend/pkg/logger"
)

const (
	sandboxEnv    = "sandbox"
	productionEnv = "production"
)

var (
	errAccessTokenRequired   = errors.New("gateway access token is required")
	errWebhookSecretRequired = errors.New("gateway webhook secret is required")
	errInvalidGatewayEnv     = fmt.Errorf("gateway environment must be %q or %q", sandboxEnv, productionEnv)
	errLoggerRequired        = errors.New("gateway logger is required")
)

var baseURLs = map[string]string{
	sandboxEnv:    "https://connect.squareupsandbox.com",
	productionEnv: "https://connect.squareup.com",
}

// PaymentRecord is the gateway's own view of a payment, used by the
// reconcile sweep as the source of truth.
type PaymentRecord struct {
	ID          string
	Status      string
	AmountCents int64
	Currency    string
	CreatedAt   time.Time
}

// Client wraps the Square SDK with centralized auth, logging, and error mapping.
type Client struct {
	sdk           *sqclient.Client
	accessToken   string
	environment   string
	webhookSecret string
	locationID    string
	baseURL       string
	logger        *logger.Logger
}

// NewClient initializes the gateway wrapper and validates the credentials.
func NewClient(ctx context.Context, cfg config.GatewayConfig, logg *logger.Logger) (*Client, error) {
	if logg == nil {
		return nil, errLoggerRequired
	}
	env, err := normalizeEnv(cfg.Environment())
	if err != nil {
		return nil, err
	}

	accessToken := strings.TrimSpace(cfg.AccessToken)
	if accessToken == "" {
		return nil, errAccessTokenRequired
	}

	webhookSecret := strings.TrimSpace(cfg.WebhookSecret)
	if webhookSecret == "" {
		return nil, errWebhookSecretRequired
	}

	baseURL := baseURLs[env]
	sdk := sqclient.NewClient(
		sqoption.WithBaseURL(baseURL),
		sqoption.WithToken(accessToken),
	)

	c := &Client{
		sdk:           sdk,
		accessToken:   accessToken,
		environment:   env,
		webhookSecret: webhookSecret,
		locationID:    strings.TrimSpace(cfg.LocationID),
		baseURL:       baseURL,
		logger:        logg,
	}

	logg.Info(ctx, "gateway client initialized")
	return c, nil
}

// Environment reports the normalized gateway environment.
func (c *Client) Environment() string {
	if c == nil {
		return ""
	}
	return c.environment
}

// SigningSecret returns the webhook signing secret.
func (c *Client) SigningSecret() string {
	if c == nil {
		return ""
	}
	return c.webhookSecret
}

// ListPayments returns the gateway's payments created since the given time.
func (c *Client) ListPayments(ctx context.Context, since time.Time) ([]PaymentRecord, error) {
	req := &sq.PaymentsListRequest{
		BeginTime: sq.String(since.UTC().Format(time.RFC3339)),
		SortOrder: sq.String("ASC"),
	}
	if c.locationID != "" {
		req.LocationID = sq.String(c.locationID)
	}

	c.log(ctx, "request", "list_payments", map[string]any{"begin_time": since.UTC().Format(time.RFC3339)})

	page, err := c.sdk.Payments.List(ctx, req)
	if err != nil {
		c.log(ctx, "error", "list_payments", map[string]any{"error": err.Error()})
		return nil, c.mapGatewayError(err, "list_payments")
	}

	records := make([]PaymentRecord, 0, len(page.Results))
	for _, payment := range page.Results {
		if payment == nil {
			continue
		}
		record := PaymentRecord{
			ID:     stringValue(payment.ID),
			Status: stringValue(payment.Status),
		}
		if money := payment.AmountMoney; money != nil {
			if money.Amount != nil {
				record.AmountCents = *money.Amount
			}
			if money.Currency != nil {
				record.Currency = strings.ToLower(string(*money.Currency))
			}
		}
		if payment.CreatedAt != nil {
			if parsed, parseErr := time.Parse(time.RFC3339, *payment.CreatedAt); parseErr == nil {
				record.CreatedAt = parsed
			}
		}
		records = append(records, record)
	}

	c.log(ctx, "response", "list_payments", map[string]any{"count": len(records)})
	return records, nil
}

func (c *Client) log(ctx context.Context, phase, op string, fields map[string]any) {
	if c == nil || c.logger == nil {
		return
	}
	logFields := map[string]any{
		"operation": op,
		"phase":     phase,
	}
	for k, v := range fields {
		logFields[k] = c.redact(k, v)
	}
	ctx = c.logger.WithFields(ctx, logFields)
	switch phase {
	case "error":
		c.logger.Error(ctx, fmt.Sprintf("gateway %s", op), errors.New(fmt.Sprint(fields["error"])))
	default:
		c.logger.Info(ctx, fmt.Sprintf("gateway %s", phase))
	}
}

func (c *Client) redact(key string, value any) any {
	lower := strings.ToLower(key)
	for _, sensitive := range []string{"card", "nonce", "token", "cvv", "cvc", "secret", "email", "phone"} {
		if strings.Contains(lower, sensitive) {
			return "[REDACTED]"
		}
	}
	return value
}

func (c *Client) mapGatewayError(err error, op string) error {
	if err == nil {
		return nil
	}
	var apiErr *sqcore.APIError
	if errors.As(err, &apiErr) {
		return pkgerrors.Wrap(domainCodeForStatus(apiErr.StatusCode), err, fmt.Sprintf("gateway %s failed", op))
	}
	return pkgerrors.Wrap(pkgerrors.CodeDependency, err, fmt.Sprintf("gateway %s failed", op))
}

func domainCodeForStatus(status int) pkgerrors.Code {
	switch status {
	case http.StatusUnauthorized:
		return pkgerrors.CodeUnauthorized
	case http.StatusForbidden:
		return pkgerrors.CodeForbidden
	case http.StatusNotFound:
		return pkgerrors.CodeNotFound
	case http.StatusConflict:
		return pkgerrors.CodeConflict
	case http.StatusTooManyRequests:
		return pkgerrors.CodeRateLimit
	case http.StatusBadRequest:
		return pkgerrors.CodeValidation
	default:
		if status >= 400 && status < 500 {
			return pkgerrors.CodeValidation
		}
		return pkgerrors.CodeDependency
	}
}

func stringValue(ptr *string) string {
	if ptr == nil {
		return ""
	}
	return *ptr
}

func normalizeEnv(raw string) (string, error) {
	env := strings.TrimSpace(strings.ToLower(raw))
	if env == "" {
		return sandboxEnv, nil
	}
	if _, ok := baseURLs[env]; !ok {
		return "", errInvalidGatewayEnv
	}
	return env, nil
}
