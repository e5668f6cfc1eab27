package report

import (
	"context"
	"fmt"
	"time"

	"github.com/EdwarHercules/bots-telegram/internal/domain/meter"
	"github.com/EdwarHercules/bots-telegram/internal/domain/request"
)

// Builder assembles report texts by normalizing the requested meter,
// resolving its canonical key and dispatching to the dataset queries for the
// request's (report type, brand) pair. It holds no state between calls.
type Builder struct {
	datasets meter.Datasets
	now      func() time.Time
}

func NewBuilder(datasets meter.Datasets) *Builder {
	return &Builder{datasets: datasets, now: time.Now}
}

// Build produces the full report text for one queued request. A meter with
// no catalog match short-circuits to the "no information" report without
// touching the datasets further.
func (b *Builder) Build(ctx context.Context, req *request.Request) (string, error) {
	normalized := meter.Normalize(req.Meter, req.Brand)

	key, err := b.datasets.ResolveKey(ctx, req.Brand, normalized)
	if err != nil {
		return "", fmt.Errorf("resolving catalog key for meter %s (%s): %w", normalized, req.Brand, err)
	}
	if key == meter.EmptyKey {
		return FormatNoInformation(req.RequesterName, req.Meter), nil
	}

	switch req.ReportType {
	case request.ReportMeterInfo:
		info, err := b.datasets.Info(ctx, req.Brand, normalized, key)
		if err != nil {
			return "", fmt.Errorf("querying meter info: %w", err)
		}
		return FormatInfo(req.RequesterName, req.Meter, info), nil

	case request.ReportCommunication:
		return b.buildCommunication(ctx, req, normalized, key)

	case request.ReportAlarms:
		alarms, err := b.datasets.Alarms(ctx, req.Brand, normalized, key, maxListEntries)
		if err != nil {
			return "", fmt.Errorf("querying alarms: %w", err)
		}
		return FormatAlarms(req.RequesterName, req.Meter, alarms), nil

	case request.ReportServiceOrders:
		orders, err := b.datasets.ServiceOrders(ctx, req.Brand, key)
		if err != nil {
			return "", fmt.Errorf("querying service orders: %w", err)
		}
		return FormatServiceOrders(req.RequesterName, req.Meter, key, orders), nil

	case request.ReportAnalystComments:
		comments, err := b.datasets.AnalystComments(ctx, key)
		if err != nil {
			return "", fmt.Errorf("querying analyst comments: %w", err)
		}
		return FormatAnalystComments(req.RequesterName, req.Meter, key, comments), nil

	default:
		return "", fmt.Errorf("unknown report type: %d", req.ReportType)
	}
}

// buildCommunication branches per brand: Elster meters report through the
// relay dataset, Union and Hexing through last communication plus averages.
func (b *Builder) buildCommunication(ctx context.Context, req *request.Request, normalized, key string) (string, error) {
	if req.Brand == meter.BrandElster {
		rs, err := b.datasets.RelayStatus(ctx, normalized)
		if err != nil {
			return "", fmt.Errorf("querying relay status: %w", err)
		}
		return FormatRelayStatus(req.RequesterName, req.Meter, key, rs, b.now()), nil
	}

	last, err := b.datasets.LastCommunication(ctx, req.Brand, normalized, key)
	if err != nil {
		return "", fmt.Errorf("querying last communication: %w", err)
	}
	avg, err := b.datasets.CommAverages(ctx, req.Brand, key)
	if err != nil {
		return "", fmt.Errorf("querying communication averages: %w", err)
	}
	return FormatCommunication(req.RequesterName, req.Meter, key, last, avg), nil
}
