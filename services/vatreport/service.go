// Package vatreport filters a list of VAT registration numbers by annual
// turnover. It is the VAT-first counterpart to leadgen for callers who
// already hold VRNs rather than company numbers.
package vatreport

import (
	"context"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"leadscout-backend/lib/scrapers/hmrcvat"
	"leadscout-backend/lib/timezone"
)

var tracer = otel.Tracer("services/vatreport")

type Options struct {
	MinTurnover float64 `json:"min_turnover"`
	// Delay paces lookups to stay inside the VAT API rate limits. Applied
	// after every saved row.
	Delay time.Duration `json:"-"`
}

func DefaultOptions() Options {
	return Options{
		MinTurnover: 1_000_000,
		Delay:       500 * time.Millisecond,
	}
}

// VatSource is the slice of the VAT client this report needs.
// *hmrcvat.Client implements it.
type VatSource interface {
	GetVatInfo(ctx context.Context, companyNumber string) hmrcvat.VatInfo
	GetCompanyTurnover(ctx context.Context, vatNumber string) (float64, error)
}

type Service struct {
	vat  VatSource
	opts Options
}

func NewService(vat VatSource, opts Options) Service {
	defaults := DefaultOptions()
	if opts.MinTurnover <= 0 {
		opts.MinTurnover = defaults.MinTurnover
	}
	if opts.Delay <= 0 {
		opts.Delay = defaults.Delay
	}
	return Service{vat: vat, opts: opts}
}

type Stats struct {
	Processed      int
	Saved          int
	BelowThreshold int
	Failures       int
	Started        time.Time
	Finished       time.Time
}

// Run resolves every VRN in order and writes the ones whose turnover clears
// the threshold. Lookup failures skip the VRN, sink errors abort the run.
func (s Service) Run(ctx context.Context, vrns []string, sink RowSink) (Stats, error) {
	ctx, span := tracer.Start(ctx, "Run")
	defer span.End()
	span.SetAttributes(attribute.KeyValue{
		Key:   "vrn_count",
		Value: attribute.IntValue(len(vrns)),
	})

	stats := Stats{Started: timezone.Now()}

	for _, vrn := range vrns {
		if err := ctx.Err(); err != nil {
			span.SetStatus(codes.Error, "run cancelled")
			stats.Finished = timezone.Now()
			return stats, err
		}
		if vrn == "" {
			continue
		}
		stats.Processed++
		slog.InfoContext(ctx, "processing vrn", "vrn", vrn)

		info := s.vat.GetVatInfo(ctx, vrn)
		turnover, err := s.vat.GetCompanyTurnover(ctx, vrn)
		if err != nil {
			span.RecordError(err)
			slog.WarnContext(ctx, "failed to fetch turnover", "vrn", vrn, "err", err)
			stats.Failures++
			continue
		}
		if turnover < s.opts.MinTurnover {
			slog.InfoContext(ctx, "turnover below threshold", "vrn", vrn, "turnover", turnover)
			stats.BelowThreshold++
			continue
		}

		if err := sink.Write(newRow(vrn, info, turnover)); err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "failed to write row")
			stats.Finished = timezone.Now()
			return stats, err
		}
		stats.Saved++

		select {
		case <-time.After(s.opts.Delay):
		case <-ctx.Done():
			span.SetStatus(codes.Error, "run cancelled")
			stats.Finished = timezone.Now()
			return stats, ctx.Err()
		}
	}

	stats.Finished = timezone.Now()
	slog.InfoContext(ctx, "vat report complete",
		"processed", stats.Processed, "saved", stats.Saved)
	return stats, nil
}
