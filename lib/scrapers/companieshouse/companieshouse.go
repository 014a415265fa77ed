package companieshouse

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"leadscout-backend/lib/restyutil"
	"leadscout-backend/lib/telemetry"

	"github.com/go-resty/resty/v2"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"golang.org/x/time/rate"
)

var tracer = otel.Tracer("scrapers/companieshouse")

const DefaultBaseUrl = "https://api.company-information.service.gov.uk"

// extra wait after the registry reports a 429 before the next request
// is allowed through
const rateLimitCooloff = 1200 * time.Millisecond

var restyInstrumentOutput restyutil.InstrumentOutput

// routes verbose request/response dumps to the given output, must be
// called before NewClient to take effect
func SetRestyInstrumentOutput(out restyutil.InstrumentOutput) {
	restyInstrumentOutput = out
}

type Client struct {
	http    *resty.Client
	limiter *rate.Limiter
}

type ClientOptions struct {
	// defaults to the public registry endpoint
	BaseUrl string
	ApiKey  string
	// defaults to 0.5, which keeps a full run well inside the
	// registry's 600 requests per 5 minutes quota
	RequestsPerSecond float64
}

func NewClient(opts ClientOptions) (*Client, error) {
	if opts.ApiKey == "" {
		return nil, fmt.Errorf("companies house api key is empty")
	}
	baseUrl := opts.BaseUrl
	if baseUrl == "" {
		baseUrl = DefaultBaseUrl
	}
	rps := opts.RequestsPerSecond
	if rps <= 0 {
		rps = 0.5
	}

	client := resty.New()
	client.SetBaseURL(baseUrl)
	// the registry takes the api key as basic auth username with an
	// empty password
	client.SetBasicAuth(opts.ApiKey, "")
	client.SetHeader("user-agent", "leadscout-backend")
	client.SetTimeout(time.Second * 30)

	if restyInstrumentOutput != nil {
		restyutil.InstrumentClient(client, tracer, restyInstrumentOutput)
	} else {
		telemetry.InstrumentResty(client, "scrapers/companieshouse/http")
	}

	return &Client{
		http:    client,
		limiter: rate.NewLimiter(rate.Limit(rps), 1),
	}, nil
}

func (c *Client) get(ctx context.Context, path string, query map[string]string, result any) error {
	err := c.limiter.Wait(ctx)
	if err != nil {
		return err
	}

	res, err := c.http.R().
		SetContext(ctx).
		SetQueryParams(query).
		SetResult(result).
		Get(path)
	if err != nil {
		return err
	}

	switch {
	case res.StatusCode() == http.StatusUnauthorized:
		return fmt.Errorf("authentication failed, check the api key")
	case res.StatusCode() == http.StatusTooManyRequests:
		slog.WarnContext(
			ctx, "registry rate limit exceeded, cooling off",
			"wait", rateLimitCooloff,
		)
		select {
		case <-time.After(rateLimitCooloff):
		case <-ctx.Done():
			return ctx.Err()
		}
		return fmt.Errorf("rate limit exceeded")
	case res.IsError():
		return fmt.Errorf("registry returned status %d: %s", res.StatusCode(), res.String())
	}
	return nil
}

func (c *Client) SearchCompanies(ctx context.Context, q SearchQuery) (SearchPage, error) {
	ctx, span := tracer.Start(ctx, "SearchCompanies")
	defer span.End()

	span.SetAttributes(
		attribute.KeyValue{
			Key:   "query",
			Value: attribute.StringValue(q.Query),
		},
		attribute.KeyValue{
			Key:   "start_index",
			Value: attribute.IntValue(q.StartIndex),
		},
	)

	itemsPerPage := q.ItemsPerPage
	if itemsPerPage <= 0 {
		itemsPerPage = 100
	}
	params := map[string]string{
		"q":              q.Query,
		"items_per_page": strconv.Itoa(itemsPerPage),
		"start_index":    strconv.Itoa(q.StartIndex),
	}
	if q.ActiveOnly {
		params["restrictions"] = "active"
	}

	var page SearchPage
	err := c.get(ctx, "/search/companies", params, &page)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "search request failed")
		return SearchPage{}, err
	}
	return page, nil
}

type SearchOptions struct {
	// stop once this many results have been fetched, defaults to 500
	MaxResults int
	// defaults to 100, the registry's page ceiling
	ItemsPerPage int
	ActiveOnly   bool
}

// SearchAllCompanies pages through search results for a query until
// the registry runs out of items or MaxResults is reached.
func (c *Client) SearchAllCompanies(ctx context.Context, query string, opts SearchOptions) ([]SearchItem, error) {
	ctx, span := tracer.Start(ctx, "SearchAllCompanies")
	defer span.End()

	maxResults := opts.MaxResults
	if maxResults <= 0 {
		maxResults = 500
	}
	itemsPerPage := opts.ItemsPerPage
	if itemsPerPage <= 0 {
		itemsPerPage = 100
	}

	var all []SearchItem
	for startIndex := 0; startIndex < maxResults; startIndex += itemsPerPage {
		slog.InfoContext(
			ctx, "searching companies",
			"query", query,
			"start_index", startIndex,
		)

		page, err := c.SearchCompanies(ctx, SearchQuery{
			Query:        query,
			ItemsPerPage: itemsPerPage,
			StartIndex:   startIndex,
			ActiveOnly:   opts.ActiveOnly,
		})
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "search page failed")
			return all, err
		}
		if len(page.Items) == 0 {
			break
		}

		all = append(all, page.Items...)
		if len(page.Items) < itemsPerPage {
			break
		}
	}
	return all, nil
}

func (c *Client) GetProfile(ctx context.Context, companyNumber string) (Profile, error) {
	ctx, span := tracer.Start(ctx, "GetProfile")
	defer span.End()

	span.SetAttributes(attribute.KeyValue{
		Key:   "company_number",
		Value: attribute.StringValue(companyNumber),
	})

	var profile Profile
	err := c.get(ctx, fmt.Sprintf("/company/%s", companyNumber), nil, &profile)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "profile request failed")
		return Profile{}, err
	}
	return profile, nil
}

func (c *Client) GetOfficers(ctx context.Context, companyNumber string) ([]Officer, error) {
	ctx, span := tracer.Start(ctx, "GetOfficers")
	defer span.End()

	span.SetAttributes(attribute.KeyValue{
		Key:   "company_number",
		Value: attribute.StringValue(companyNumber),
	})

	var page OfficerPage
	err := c.get(
		ctx,
		fmt.Sprintf("/company/%s/officers", companyNumber),
		map[string]string{"items_per_page": "100"},
		&page,
	)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "officer request failed")
		return nil, err
	}
	return page.Items, nil
}

func (c *Client) GetFilingHistory(ctx context.Context, companyNumber string) ([]Filing, error) {
	ctx, span := tracer.Start(ctx, "GetFilingHistory")
	defer span.End()

	span.SetAttributes(attribute.KeyValue{
		Key:   "company_number",
		Value: attribute.StringValue(companyNumber),
	})

	var page FilingPage
	err := c.get(ctx, fmt.Sprintf("/company/%s/filing-history", companyNumber), nil, &page)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "filing history request failed")
		return nil, err
	}
	return page.Items, nil
}
