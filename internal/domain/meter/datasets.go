package meter

import (
	"context"
	"database/sql"
	"time"
)

// Info is one row of a brand's universe dataset: the commercial and
// geographic description of a metering point.
type Info struct {
	Key             string
	SubscriberName  string
	Meter           string
	Multiplier      sql.NullString
	LastConsumption sql.NullString
	CurrentReading  sql.NullString
	ReadingCode     sql.NullString
	Tariff          sql.NullString
	MeasureType     sql.NullString
	Zone            sql.NullString
	Region          sql.NullString
	Circuit         sql.NullString
	Substation      sql.NullString
	GeoLat          sql.NullString
	GeoLon          sql.NullString
	UTMX            sql.NullString
	UTMY            sql.NullString
}

// RelayStatus is the Elster remote-disconnect dataset row. LastRegisterRead
// is the gatekeeper-relayed reading; LastRegistered the direct one.
type RelayStatus struct {
	Gatekeeper       sql.NullString
	RelayCode        string
	LastRegistered   sql.NullTime
	LastRegisterRead sql.NullTime
}

// LastCommunication is the most recent reading of a Union or Hexing meter.
type LastCommunication struct {
	Date    time.Time
	Reading string
}

// CommAverages holds communication-success percentages over trailing windows.
type CommAverages struct {
	Pct7Days   float64
	Pct30Days  float64
	Pct3Months float64
	Pct1Year   float64
}

// Alarm is one aggregated alarm row: event name, most recent occurrence and
// total count.
type Alarm struct {
	Name     string
	LastSeen time.Time
	Count    int
}

// ServiceOrder is one field service order raised against a metering point.
type ServiceOrder struct {
	Number      string
	State       string
	Category    sql.NullString
	Description sql.NullString
	GeneratedAt sql.NullTime
	ExecutedAt  sql.NullTime
}

// AnalystComment is one telemetry-desk review of a metering point.
type AnalystComment struct {
	AnalyzedAt  sql.NullTime
	Alarm       string
	AlarmDate   sql.NullTime
	Comment     string
	Criticality sql.NullString
	State       string
}

// Datasets is the read-only view over the brand catalogs and their
// associated datasets. Every query is parameterized and every result may be
// empty; callers branch on emptiness explicitly. Single-row methods return
// (nil, nil) when the dataset has no matching row; list methods return an
// empty slice.
type Datasets interface {
	// ResolveKey looks the normalized meter number up in the brand's
	// catalog and returns the canonical key, or EmptyKey when no catalog
	// row matches.
	ResolveKey(ctx context.Context, brand Brand, normalized string) (string, error)

	Info(ctx context.Context, brand Brand, normalized string, key string) (*Info, error)
	RelayStatus(ctx context.Context, normalized string) (*RelayStatus, error)
	// LastCommunication and Alarms take both identifiers because the
	// datasets are not uniformly keyed: some brands file these rows under
	// the meter number, others under the canonical key.
	LastCommunication(ctx context.Context, brand Brand, normalized, key string) (*LastCommunication, error)
	CommAverages(ctx context.Context, brand Brand, key string) (*CommAverages, error)
	Alarms(ctx context.Context, brand Brand, normalized, key string, limit int) ([]Alarm, error)
	ServiceOrders(ctx context.Context, brand Brand, key string) ([]ServiceOrder, error)
	AnalystComments(ctx context.Context, key string) ([]AnalystComment, error)
}
