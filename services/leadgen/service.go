// Package leadgen runs the acquisition lead pipeline: it searches Companies
// House for candidate companies, resolves their turnover from filing history
// and the VAT API, filters on director age, and writes qualifying companies
// to a lead sink.
package leadgen

import (
	"context"
	"log/slog"
	"strings"

	"github.com/antzucaro/matchr"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"leadscout-backend/lib/scrapers/companieshouse"
	"leadscout-backend/lib/scrapers/hmrcvat"
	"leadscout-backend/lib/textutil"
	"leadscout-backend/lib/timezone"
	"leadscout-backend/services/eligibility"
)

var tracer = otel.Tracer("services/leadgen")

// nameSimilarityFloor is the Jaro-Winkler score below which the search title
// and the registered company name are considered different businesses. We only
// warn, the registered profile stays authoritative.
const nameSimilarityFloor = 0.8

// Category buckets a company by the leading digits of its SIC codes.
type Category struct {
	Name        string   `json:"name"`
	SicPrefixes []string `json:"sic_prefixes"`
}

type Options struct {
	// Queries are run against the Companies House search endpoint in order.
	Queries []string `json:"queries"`
	// Categories are tried in order, first match wins. Companies matching no
	// category are dropped.
	Categories []Category           `json:"categories"`
	Criteria   eligibility.Criteria `json:"criteria"`
	// MaxResults caps how many search results are taken per query.
	MaxResults int `json:"max_results"`
}

func DefaultOptions() Options {
	return Options{
		Queries: []string{
			"waste management",
			"cleaning services",
			"recycling",
			"facilities management",
		},
		Categories: []Category{
			{
				Name:        "Cleaning",
				SicPrefixes: []string{"81210", "81220", "81290"},
			},
			{
				Name:        "Waste Management",
				SicPrefixes: []string{"38110", "38120", "38210", "38220", "38230"},
			},
		},
		Criteria:   eligibility.DefaultCriteria(),
		MaxResults: 500,
	}
}

// CompanyRegistry is the slice of the Companies House client the pipeline
// uses. *companieshouse.Client implements it.
type CompanyRegistry interface {
	SearchAllCompanies(ctx context.Context, query string, opts companieshouse.SearchOptions) ([]companieshouse.SearchItem, error)
	GetProfile(ctx context.Context, companyNumber string) (companieshouse.Profile, error)
	GetOfficers(ctx context.Context, companyNumber string) ([]companieshouse.Officer, error)
	GetFilingHistory(ctx context.Context, companyNumber string) ([]companieshouse.Filing, error)
}

// VatSource resolves VAT registrations and turnover figures.
// *hmrcvat.Client implements it.
type VatSource interface {
	GetVatInfo(ctx context.Context, companyNumber string) hmrcvat.VatInfo
	GetCompanyTurnover(ctx context.Context, vatNumber string) (float64, error)
}

type Service struct {
	registry CompanyRegistry
	vat      VatSource
	opts     Options
}

func NewService(registry CompanyRegistry, vat VatSource, opts Options) Service {
	defaults := DefaultOptions()
	if len(opts.Queries) == 0 {
		opts.Queries = defaults.Queries
	}
	if len(opts.Categories) == 0 {
		opts.Categories = defaults.Categories
	}
	if opts.Criteria == (eligibility.Criteria{}) {
		opts.Criteria = defaults.Criteria
	}
	if opts.MaxResults <= 0 {
		opts.MaxResults = defaults.MaxResults
	}
	return Service{registry: registry, vat: vat, opts: opts}
}

// Run executes every configured query and writes qualifying companies to the
// sink. A company appearing under multiple queries is evaluated once. Failures
// on individual companies are logged and skipped, only sink errors abort the
// run since losing output rows invalidates the whole report.
func (s Service) Run(ctx context.Context, sink LeadSink) (Stats, error) {
	ctx, span := tracer.Start(ctx, "Run")
	defer span.End()

	stats := Stats{Started: timezone.Now()}
	seen := map[string]bool{}

	for _, query := range s.opts.Queries {
		items, err := s.registry.SearchAllCompanies(ctx, query, companieshouse.SearchOptions{
			MaxResults: s.opts.MaxResults,
			ActiveOnly: true,
		})
		if err != nil {
			span.RecordError(err)
			slog.ErrorContext(ctx, "company search failed", "query", query, "err", err)
			stats.SearchFailures++
			continue
		}
		slog.InfoContext(ctx, "search complete", "query", query, "results", len(items))

		for _, item := range items {
			if err := ctx.Err(); err != nil {
				span.SetStatus(codes.Error, "run cancelled")
				stats.Finished = timezone.Now()
				return stats, err
			}
			if item.CompanyNumber == "" || seen[item.CompanyNumber] {
				continue
			}
			seen[item.CompanyNumber] = true
			stats.Processed++

			lead, ok := s.evaluate(ctx, item, &stats)
			if !ok {
				continue
			}
			if err := sink.Write(lead); err != nil {
				span.RecordError(err)
				span.SetStatus(codes.Error, "failed to write lead")
				stats.Finished = timezone.Now()
				return stats, err
			}
			stats.countAccepted(lead.Category)
		}
	}

	stats.Finished = timezone.Now()
	span.SetAttributes(
		attribute.KeyValue{Key: "processed", Value: attribute.IntValue(stats.Processed)},
		attribute.KeyValue{Key: "accepted", Value: attribute.IntValue(stats.Accepted)},
	)
	return stats, nil
}

// evaluate works through the cheap checks first. Turnover is resolved before
// officers so companies that fail on turnover never cost an officer lookup.
func (s Service) evaluate(ctx context.Context, item companieshouse.SearchItem, stats *Stats) (Lead, bool) {
	ctx, span := tracer.Start(ctx, "evaluate")
	defer span.End()
	span.SetAttributes(attribute.KeyValue{
		Key:   "company_number",
		Value: attribute.StringValue(item.CompanyNumber),
	})

	slog.InfoContext(ctx, "processing company", "name", item.Title, "number", item.CompanyNumber)

	profile, err := s.registry.GetProfile(ctx, item.CompanyNumber)
	if err != nil {
		span.RecordError(err)
		slog.WarnContext(ctx, "failed to fetch company profile",
			"number", item.CompanyNumber, "err", err)
		stats.ProfileFailures++
		return Lead{}, false
	}

	if !strings.EqualFold(profile.CompanyStatus, "active") {
		stats.SkippedInactive++
		return Lead{}, false
	}

	category, ok := s.categoryFor(profile.SicCodes)
	if !ok {
		stats.SkippedNoCategory++
		return Lead{}, false
	}

	s.warnOnNameMismatch(ctx, item.Title, profile.CompanyName)

	registry := s.registryTurnover(ctx, item.CompanyNumber)
	vatInfo := s.vat.GetVatInfo(ctx, item.CompanyNumber)
	vat := s.vatTurnover(ctx, vatInfo)

	if !eligibility.QualifyingTurnover(registry, s.opts.Criteria) &&
		!eligibility.QualifyingTurnover(vat, s.opts.Criteria) {
		stats.SkippedTurnover++
		return Lead{}, false
	}

	officers, err := s.registry.GetOfficers(ctx, item.CompanyNumber)
	if err != nil {
		span.RecordError(err)
		slog.WarnContext(ctx, "failed to fetch officers",
			"number", item.CompanyNumber, "err", err)
	}
	directors := eligibility.EligibleDirectors(officers, s.opts.Criteria.MinAge, timezone.Now())

	decision := eligibility.Decide(registry, vat, directors, s.opts.Criteria)
	if !decision.Accepted {
		stats.SkippedDirectors++
		return Lead{}, false
	}

	slog.InfoContext(ctx, "company qualifies",
		"name", profile.CompanyName,
		"number", item.CompanyNumber,
		"category", category.Name,
		"basis", string(decision.Basis),
		"directors", len(directors))

	return newLead(profile, decision, vatInfo, category.Name, s.opts.Criteria), true
}

func (s Service) categoryFor(sicCodes []string) (Category, bool) {
	for _, category := range s.opts.Categories {
		for _, prefix := range category.SicPrefixes {
			for _, code := range sicCodes {
				if strings.HasPrefix(code, prefix) {
					return category, true
				}
			}
		}
	}
	return Category{}, false
}

// registryTurnover derives turnover from the most recent accounts filing.
// Filing history failures degrade to "no turnover on record" rather than
// aborting, the VAT figure may still qualify the company.
func (s Service) registryTurnover(ctx context.Context, companyNumber string) eligibility.Turnover {
	filings, err := s.registry.GetFilingHistory(ctx, companyNumber)
	if err != nil {
		slog.WarnContext(ctx, "failed to fetch filing history",
			"number", companyNumber, "err", err)
		return eligibility.Turnover{}
	}
	return eligibility.TurnoverFromFilings(ctx, filings, s.opts.Criteria.MinTurnover, s.opts.Criteria.MaxTurnover)
}

func (s Service) vatTurnover(ctx context.Context, info hmrcvat.VatInfo) eligibility.Turnover {
	if info.VatNumber == "" {
		return eligibility.Turnover{}
	}
	amount, err := s.vat.GetCompanyTurnover(ctx, info.VatNumber)
	if err != nil {
		slog.WarnContext(ctx, "failed to fetch vat turnover",
			"vat_number", info.VatNumber, "err", err)
		return eligibility.Turnover{}
	}
	return eligibility.Turnover{Amount: amount, Known: true}
}

func (s Service) warnOnNameMismatch(ctx context.Context, searchTitle, registeredName string) {
	left := textutil.NormalizeCompanyName(searchTitle)
	right := textutil.NormalizeCompanyName(registeredName)
	if left == "" || right == "" {
		return
	}
	similarity := matchr.JaroWinkler(left, right, false)
	if similarity < nameSimilarityFloor {
		slog.WarnContext(ctx, "search title differs from registered name",
			"title", searchTitle,
			"registered", registeredName,
			"similarity", similarity)
	}
}
