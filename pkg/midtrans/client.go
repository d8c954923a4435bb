package midtrans

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/radityapw/eggmart-backend/pkg/config"
	pkgerrors "github.com/radityapw/eggmart-backend/pkg/errors"
	"github.com/radityapw/eggmart-backend/pkg/logger"
)

const (
	sandboxEnv    = "sandbox"
	productionEnv = "production"

	snapPath = "/snap/v1/transactions"
)

var (
	errServerKeyRequired  = errors.New("midtrans server key is required")
	errInvalidMidtransEnv = fmt.Errorf("midtrans environment must be %q or %q", sandboxEnv, productionEnv)
	errLoggerRequired     = errors.New("midtrans logger is required")
)

var baseURLs = map[string]string{
	sandboxEnv:    "https://app.sandbox.midtrans.com",
	productionEnv: "https://app.midtrans.com",
}

// Client exposes Midtrans Snap primitives with centralized auth, logging, and error mapping.
type Client struct {
	httpClient  *http.Client
	serverKey   string
	environment string
	baseURL     string
	logger      *logger.Logger
}

// SnapItem is one line in the Snap item_details list.
type SnapItem struct {
	ID       string `json:"id"`
	Price    int64  `json:"price"`
	Quantity int    `json:"quantity"`
	Name     string `json:"name"`
}

// SnapSessionParams carries the inputs for creating a Snap checkout session.
// GrossAmount must already be rounded to whole currency units.
type SnapSessionParams struct {
	OrderCode     string
	GrossAmount   int64
	CustomerName  string
	CustomerEmail string
	Items         []SnapItem
}

// SnapSession is the subset of the Snap response the platform consumes.
type SnapSession struct {
	Token       string `json:"token"`
	RedirectURL string `json:"redirect_url"`
}

type snapRequest struct {
	TransactionDetails struct {
		OrderID     string `json:"order_id"`
		GrossAmount int64  `json:"gross_amount"`
	} `json:"transaction_details"`
	CreditCard struct {
		Secure bool `json:"secure"`
	} `json:"credit_card"`
	CustomerDetails struct {
		FirstName string `json:"first_name,omitempty"`
		Email     string `json:"email,omitempty"`
	} `json:"customer_details"`
	ItemDetails []SnapItem `json:"item_details,omitempty"`
}

// NewClient initializes the Midtrans wrapper and validates the credentials.
func NewClient(ctx context.Context, cfg config.MidtransConfig, logg *logger.Logger) (*Client, error) {
	if logg == nil {
		return nil, errLoggerRequired
	}
	env, err := normalizeEnv(cfg.Environment())
	if err != nil {
		return nil, err
	}

	serverKey := strings.TrimSpace(cfg.ServerKey)
	if serverKey == "" {
		return nil, errServerKeyRequired
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	c := &Client{
		httpClient:  &http.Client{Timeout: timeout},
		serverKey:   serverKey,
		environment: env,
		baseURL:     baseURLs[env],
		logger:      logg,
	}

	logg.Info(ctx, "midtrans client initialized")
	return c, nil
}

// Environment reports the normalized Midtrans environment.
func (c *Client) Environment() string {
	if c == nil {
		return ""
	}
	return c.environment
}

// CreateSnapSession creates a Snap checkout session and returns its token.
func (c *Client) CreateSnapSession(ctx context.Context, params SnapSessionParams) (*SnapSession, error) {
	if strings.TrimSpace(params.OrderCode) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order code is required")
	}
	if params.GrossAmount <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "gross amount must be positive")
	}

	body := snapRequest{ItemDetails: params.Items}
	body.TransactionDetails.OrderID = params.OrderCode
	body.TransactionDetails.GrossAmount = params.GrossAmount
	body.CreditCard.Secure = true
	body.CustomerDetails.FirstName = params.CustomerName
	body.CustomerDetails.Email = params.CustomerEmail

	c.log(ctx, "request", "create_snap_session", map[string]any{
		"order_code":   params.OrderCode,
		"gross_amount": params.GrossAmount,
		"item_count":   len(params.Items),
	})

	payload, err := json.Marshal(body)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "encode snap request")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+snapPath, bytes.NewReader(payload))
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "build snap request")
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Authorization", "Basic "+c.basicAuth())

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.log(ctx, "error", "create_snap_session", map[string]any{"error": err.Error()})
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "midtrans create snap session failed")
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		c.log(ctx, "error", "create_snap_session", map[string]any{"error": err.Error()})
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "read snap response")
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		c.log(ctx, "error", "create_snap_session", map[string]any{
			"error":  fmt.Sprintf("unexpected status %d", resp.StatusCode),
			"status": resp.StatusCode,
		})
		return nil, c.mapStatusError(resp.StatusCode, raw)
	}

	session := &SnapSession{}
	if err := json.Unmarshal(raw, session); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "decode snap response")
	}
	if session.Token == "" {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "snap response missing token")
	}

	c.log(ctx, "response", "create_snap_session", map[string]any{
		"order_code": params.OrderCode,
		"token":      session.Token,
	})
	return session, nil
}

func (c *Client) basicAuth() string {
	return base64.StdEncoding.EncodeToString([]byte(c.serverKey + ":"))
}

func (c *Client) mapStatusError(status int, body []byte) error {
	code := pkgerrors.CodeDependency
	switch status {
	case http.StatusUnauthorized:
		code = pkgerrors.CodeUnauthorized
	case http.StatusBadRequest:
		code = pkgerrors.CodeValidation
	}
	msg := fmt.Sprintf("midtrans snap returned status %d", status)
	return pkgerrors.Wrap(code, fmt.Errorf("%s: %s", msg, truncate(string(body), 512)), msg)
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
		c.logger.Error(ctx, fmt.Sprintf("midtrans %s", op), errors.New(fmt.Sprint(fields["error"])))
	default:
		c.logger.Info(ctx, fmt.Sprintf("midtrans %s", phase))
	}
}

func (c *Client) redact(key string, value any) any {
	lower := strings.ToLower(key)
	for _, sensitive := range []string{"token", "key", "secret", "email", "phone", "card"} {
		if strings.Contains(lower, sensitive) {
			return "[REDACTED]"
		}
	}
	return value
}

func normalizeEnv(raw string) (string, error) {
	env := strings.TrimSpace(strings.ToLower(raw))
	if env == "" {
		env = sandboxEnv
	}
	switch env {
	case sandboxEnv, productionEnv:
		return env, nil
	default:
		return "", errInvalidMidtransEnv
	}
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
