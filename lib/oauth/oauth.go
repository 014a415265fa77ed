package oauth

import (
	"context"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

var tracer = otel.Tracer("lib/oauth")

// fallback lifetime when the token endpoint does not report one
const DefaultExpiresIn = 14400

type Token struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int    `json:"expires_in"`
	Scope       string `json:"scope"`
}

func (t Token) ExpiresAt(issued time.Time) time.Time {
	expiresIn := t.ExpiresIn
	if expiresIn <= 0 {
		expiresIn = DefaultExpiresIn
	}
	return issued.Add(time.Duration(expiresIn) * time.Second)
}

type ClientCredentials struct {
	ClientId     string
	ClientSecret string
}

// RequestToken performs a client_credentials grant against the given
// token endpoint. Extra headers the provider requires on the grant
// request (some sandboxes want a server token) go on `client`.
func RequestToken(ctx context.Context, client *resty.Client, endpoint string, creds ClientCredentials) (Token, error) {
	ctx, span := tracer.Start(ctx, "RequestToken")
	defer span.End()

	span.SetAttributes(
		attribute.KeyValue{
			Key:   "endpoint",
			Value: attribute.StringValue(endpoint),
		},
		attribute.KeyValue{
			Key:   "client_id",
			Value: attribute.StringValue(creds.ClientId),
		},
	)

	var token Token
	res, err := client.R().
		SetContext(ctx).
		SetFormData(map[string]string{
			"client_id":     creds.ClientId,
			"client_secret": creds.ClientSecret,
			"grant_type":    "client_credentials",
		}).
		SetResult(&token).
		Post(endpoint)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to request token")
		return Token{}, err
	}
	if res.IsError() {
		err := fmt.Errorf("token endpoint returned status %d: %s", res.StatusCode(), res.String())
		span.RecordError(err)
		span.SetStatus(codes.Error, "token endpoint rejected grant")
		return Token{}, err
	}
	if token.AccessToken == "" {
		err := fmt.Errorf("token endpoint returned no access token")
		span.RecordError(err)
		span.SetStatus(codes.Error, "empty access token")
		return Token{}, err
	}

	return token, nil
}
