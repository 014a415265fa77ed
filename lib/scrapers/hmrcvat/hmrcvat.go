package hmrcvat

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"leadscout-backend/lib/oauth"
	"leadscout-backend/lib/restyutil"
	"leadscout-backend/lib/telemetry"
	"leadscout-backend/lib/timezone"

	"github.com/go-resty/resty/v2"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
)

var tracer = otel.Tracer("scrapers/hmrcvat")

// the sandbox environment, production would be api.service.hmrc.gov.uk
const DefaultBaseUrl = "https://test-api.service.hmrc.gov.uk"

const maxAttempts = 3

var restyInstrumentOutput restyutil.InstrumentOutput

// routes verbose request/response dumps to the given output, must be
// called before NewClient to take effect
func SetRestyInstrumentOutput(out restyutil.InstrumentOutput) {
	restyInstrumentOutput = out
}

type Client struct {
	api   *resty.Client
	auth  *resty.Client
	creds oauth.ClientCredentials

	token     oauth.Token
	expiresAt time.Time
}

type ClientOptions struct {
	// defaults to the sandbox endpoint
	BaseUrl      string
	ClientId     string
	ClientSecret string
	// the sandbox wants the server token as a bearer header on the
	// grant request itself
	ServerToken string
}

func NewClient(opts ClientOptions) (*Client, error) {
	if opts.ClientId == "" {
		return nil, fmt.Errorf("hmrc client id is empty")
	}
	if opts.ClientSecret == "" {
		return nil, fmt.Errorf("hmrc client secret is empty")
	}
	baseUrl := opts.BaseUrl
	if baseUrl == "" {
		baseUrl = DefaultBaseUrl
	}

	api := resty.New()
	api.SetBaseURL(baseUrl)
	api.SetHeader("Accept", "application/vnd.hmrc.1.0+json")
	api.SetTimeout(time.Second * 30)

	auth := resty.New()
	auth.SetBaseURL(baseUrl)
	auth.SetTimeout(time.Second * 30)
	if opts.ServerToken != "" {
		auth.SetHeader("Authorization", fmt.Sprintf("Bearer %s", opts.ServerToken))
	}

	if restyInstrumentOutput != nil {
		restyutil.InstrumentClient(api, tracer, restyInstrumentOutput)
		restyutil.InstrumentClient(auth, tracer, restyInstrumentOutput)
	} else {
		telemetry.InstrumentResty(api, "scrapers/hmrcvat/http")
		telemetry.InstrumentResty(auth, "scrapers/hmrcvat/auth")
	}

	return &Client{
		api: api,
		auth: auth,
		creds: oauth.ClientCredentials{
			ClientId:     opts.ClientId,
			ClientSecret: opts.ClientSecret,
		},
	}, nil
}

func (c *Client) Authenticate(ctx context.Context) error {
	ctx, span := tracer.Start(ctx, "Authenticate")
	defer span.End()

	token, err := oauth.RequestToken(ctx, c.auth, "/oauth/token", c.creds)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to authenticate")
		return err
	}

	c.token = token
	c.expiresAt = token.ExpiresAt(timezone.Now())
	c.api.SetAuthToken(token.AccessToken)

	slog.InfoContext(ctx, "authenticated with hmrc api", "expires_at", c.expiresAt)
	return nil
}

func (c *Client) get(ctx context.Context, path string, result any) error {
	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		if c.token.AccessToken == "" || timezone.Now().After(c.expiresAt) {
			slog.DebugContext(ctx, "token missing or expired, re-authenticating")
			err := c.Authenticate(ctx)
			if err != nil {
				lastErr = err
				continue
			}
		}

		res, err := c.api.R().
			SetContext(ctx).
			SetResult(result).
			Get(path)
		if err != nil {
			lastErr = err
			select {
			case <-time.After(time.Second):
			case <-ctx.Done():
				return ctx.Err()
			}
			continue
		}

		switch {
		case res.StatusCode() == http.StatusUnauthorized:
			lastErr = fmt.Errorf("hmrc api rejected the access token")
			// force a fresh grant on the next attempt
			c.token = oauth.Token{}
			continue
		case res.StatusCode() == http.StatusTooManyRequests:
			wait := time.Duration(attempt) * 2 * time.Second
			slog.WarnContext(ctx, "hmrc rate limit hit, backing off", "wait", wait)
			lastErr = fmt.Errorf("hmrc rate limit exceeded")
			select {
			case <-time.After(wait):
			case <-ctx.Done():
				return ctx.Err()
			}
			continue
		case res.IsError():
			return fmt.Errorf("hmrc api returned status %d: %s", res.StatusCode(), res.String())
		}
		return nil
	}
	return lastErr
}

// Ping hits the application-restricted hello endpoint, which proves
// the credentials grant works before a long run starts.
func (c *Client) Ping(ctx context.Context) error {
	ctx, span := tracer.Start(ctx, "Ping")
	defer span.End()

	var result struct {
		Message string `json:"message"`
	}
	err := c.get(ctx, "/hello/application", &result)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "hello endpoint failed")
		return err
	}

	slog.DebugContext(ctx, "hmrc hello endpoint responded", "message", result.Message)
	return nil
}
