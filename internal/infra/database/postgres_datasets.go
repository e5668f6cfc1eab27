package database

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/EdwarHercules/bots-telegram/internal/domain/meter"
)

// brandTables describes where one brand's datasets live in the warehouse.
// The per-brand conditional blocks of the old bots collapse into this
// descriptor: the query shapes are shared, only names differ. Table and
// column names come from this fixed map, never from user input; every user
// value travels as a bind parameter.
type brandTables struct {
	catalog         string // meter number -> canonical key
	universe        string // metering-point master data
	universeByKey   bool   // Union keys its universe by clave, the others by meter
	alarms          string
	alarmEventCol   string
	alarmsByKey     bool // Union and Hexing alarms are clave-keyed; Elster's by meter
	orders          string
	lastComm        string // last-reading dataset (Union and Hexing)
	lastCommByMeter bool   // Hexing readings also match on the meter number
	gaps            string // missed-reading events, for communication averages
	gapEvent        string
}

var brandCatalog = map[meter.Brand]brandTables{
	meter.BrandElster: {
		catalog:       "airflow_elster_universo",
		universe:      "airflow_elster_universo",
		alarms:        "airflow_elster_alarmas",
		alarmEventCol: "nombre_evento",
		orders:        "airflow_elster_os",
	},
	meter.BrandUnion: {
		catalog:       "airflow_union_universo",
		universe:      "airflow_union_universo",
		universeByKey: true,
		alarms:        "alarmas_union_consumo",
		alarmEventCol: "nombre_evento",
		alarmsByKey:   true,
		orders:        "airflow_union_os",
		lastComm:      "airflow_union_ulti_comu",
		gaps:          "alarmas_union_consumo",
		gapEvent:      "Día sin lectura",
	},
	meter.BrandHexing: {
		catalog:         "airflow_hexing_universo",
		universe:        "airflow_hexing_universo",
		alarms:          "airflow_hexing_alarmas",
		alarmEventCol:   "alarm_desc",
		alarmsByKey:     true,
		orders:          "airflow_hexing_os",
		lastComm:        "airflow_hexing_ulti_comu",
		lastCommByMeter: true,
		gaps:            "airflow_hexing_sinlectura",
		gapEvent:        "Sin Lectura",
	},
}

// PostgresDatasets implements meter.Datasets against the warehouse.
type PostgresDatasets struct {
	db *sql.DB
}

func NewPostgresDatasets(db *sql.DB) *PostgresDatasets {
	return &PostgresDatasets{db: db}
}

func (d *PostgresDatasets) tables(brand meter.Brand) (brandTables, error) {
	t, ok := brandCatalog[brand]
	if !ok {
		return brandTables{}, fmt.Errorf("no dataset catalog for brand %q", brand)
	}
	return t, nil
}

func (d *PostgresDatasets) ResolveKey(ctx context.Context, brand meter.Brand, normalized string) (string, error) {
	t, err := d.tables(brand)
	if err != nil {
		return "", err
	}
	query := fmt.Sprintf(`SELECT clave_catalogo FROM %s WHERE medidor_catalogo = $1 LIMIT 1`, t.catalog)
	var key string
	err = d.db.QueryRowContext(ctx, query, normalized).Scan(&key)
	if err != nil {
		if err == sql.ErrNoRows {
			return meter.EmptyKey, nil
		}
		return "", fmt.Errorf("error resolving catalog key: %w", err)
	}
	return key, nil
}

func (d *PostgresDatasets) Info(ctx context.Context, brand meter.Brand, normalized string, key string) (*meter.Info, error) {
	t, err := d.tables(brand)
	if err != nil {
		return nil, err
	}
	filterCol, filterVal := "medidor_catalogo", normalized
	if t.universeByKey {
		filterCol, filterVal = "clave_catalogo", key
	}
	query := fmt.Sprintf(`SELECT clave_incms, nombre_abonado_incms, medidor_incms, multiplicador,
                ultimo_consumo, lectura_actual, codigo_lectura, tarifa, tipo_medida,
                zona, region_pnrp, circuito, subestacion,
                coord_u_y, coord_u_x, coord_x, coord_y
               FROM %s WHERE %s = $1 LIMIT 1`, t.universe, filterCol)
	info := meter.Info{}
	err = d.db.QueryRowContext(ctx, query, filterVal).Scan(
		&info.Key, &info.SubscriberName, &info.Meter, &info.Multiplier,
		&info.LastConsumption, &info.CurrentReading, &info.ReadingCode, &info.Tariff, &info.MeasureType,
		&info.Zone, &info.Region, &info.Circuit, &info.Substation,
		&info.GeoLat, &info.GeoLon, &info.UTMX, &info.UTMY,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("error querying meter info: %w", err)
	}
	return &info, nil
}

func (d *PostgresDatasets) RelayStatus(ctx context.Context, normalized string) (*meter.RelayStatus, error) {
	query := `SELECT gatekeeper, service_status, last_registered, last_register_read
               FROM ws_elster_rele WHERE device_name = $1 LIMIT 1`
	rs := meter.RelayStatus{}
	err := d.db.QueryRowContext(ctx, query, normalized).Scan(
		&rs.Gatekeeper, &rs.RelayCode, &rs.LastRegistered, &rs.LastRegisterRead,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("error querying relay status: %w", err)
	}
	return &rs, nil
}

func (d *PostgresDatasets) LastCommunication(ctx context.Context, brand meter.Brand, normalized, key string) (*meter.LastCommunication, error) {
	t, err := d.tables(brand)
	if err != nil {
		return nil, err
	}
	if t.lastComm == "" {
		return nil, fmt.Errorf("brand %q has no last-communication dataset", brand)
	}
	query := fmt.Sprintf(`SELECT fecha, lectura FROM %s WHERE clave = $1 ORDER BY fecha DESC LIMIT 1`, t.lastComm)
	args := []interface{}{key}
	if t.lastCommByMeter {
		query = fmt.Sprintf(`SELECT fecha, lectura FROM %s WHERE clave = $1 OR medidor = $2 ORDER BY fecha DESC LIMIT 1`, t.lastComm)
		args = []interface{}{key, normalized}
	}
	lc := meter.LastCommunication{}
	err = d.db.QueryRowContext(ctx, query, args...).Scan(&lc.Date, &lc.Reading)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("error querying last communication: %w", err)
	}
	return &lc, nil
}

func (d *PostgresDatasets) CommAverages(ctx context.Context, brand meter.Brand, key string) (*meter.CommAverages, error) {
	t, err := d.tables(brand)
	if err != nil {
		return nil, err
	}
	if t.gaps == "" {
		return nil, fmt.Errorf("brand %q has no missed-reading dataset", brand)
	}
	// A day with a missed-reading event counts against the window; the
	// percentage is the share of days without one.
	query := fmt.Sprintf(`SELECT
                (7 - COUNT(DISTINCT fecha) FILTER (WHERE fecha >= CURRENT_DATE - INTERVAL '7 days'))::float / 7 * 100,
                (30 - COUNT(DISTINCT fecha) FILTER (WHERE fecha >= CURRENT_DATE - INTERVAL '30 days'))::float / 30 * 100,
                (90 - COUNT(DISTINCT fecha) FILTER (WHERE fecha >= CURRENT_DATE - INTERVAL '90 days'))::float / 90 * 100,
                (365 - COUNT(DISTINCT fecha) FILTER (WHERE fecha >= CURRENT_DATE - INTERVAL '365 days'))::float / 365 * 100
               FROM %s
               WHERE clave = $1 AND %s = $2 AND fecha >= CURRENT_DATE - INTERVAL '365 days'`, t.gaps, t.alarmEventCol)
	avg := meter.CommAverages{}
	err = d.db.QueryRowContext(ctx, query, key, t.gapEvent).Scan(&avg.Pct7Days, &avg.Pct30Days, &avg.Pct3Months, &avg.Pct1Year)
	if err != nil {
		return nil, fmt.Errorf("error querying communication averages: %w", err)
	}
	return &avg, nil
}

func (d *PostgresDatasets) Alarms(ctx context.Context, brand meter.Brand, normalized, key string, limit int) ([]meter.Alarm, error) {
	t, err := d.tables(brand)
	if err != nil {
		return nil, err
	}
	filterCol, filterVal := "medidor", normalized
	if t.alarmsByKey {
		filterCol, filterVal = "clave", key
	}
	query := fmt.Sprintf(`SELECT %[1]s, MAX(fecha) AS fecha, COUNT(%[1]s) AS cantidad
               FROM %[2]s WHERE %[3]s = $1
               GROUP BY %[1]s ORDER BY fecha DESC LIMIT $2`, t.alarmEventCol, t.alarms, filterCol)
	rows, err := d.db.QueryContext(ctx, query, filterVal, limit)
	if err != nil {
		return nil, fmt.Errorf("error querying alarms: %w", err)
	}
	defer rows.Close()

	alarms := make([]meter.Alarm, 0)
	for rows.Next() {
		a := meter.Alarm{}
		if err := rows.Scan(&a.Name, &a.LastSeen, &a.Count); err != nil {
			return nil, fmt.Errorf("error scanning alarm row: %w", err)
		}
		alarms = append(alarms, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating alarm rows: %w", err)
	}
	return alarms, nil
}

func (d *PostgresDatasets) ServiceOrders(ctx context.Context, brand meter.Brand, key string) ([]meter.ServiceOrder, error) {
	t, err := d.tables(brand)
	if err != nil {
		return nil, err
	}
	query := fmt.Sprintf(`SELECT os, estado, categoria, descripcion, fecha_generada, fecha_ejecucion
               FROM %s WHERE clave = $1 ORDER BY fecha_ejecucion DESC`, t.orders)
	rows, err := d.db.QueryContext(ctx, query, key)
	if err != nil {
		return nil, fmt.Errorf("error querying service orders: %w", err)
	}
	defer rows.Close()

	orders := make([]meter.ServiceOrder, 0)
	for rows.Next() {
		o := meter.ServiceOrder{}
		if err := rows.Scan(&o.Number, &o.State, &o.Category, &o.Description, &o.GeneratedAt, &o.ExecutedAt); err != nil {
			return nil, fmt.Errorf("error scanning service order row: %w", err)
		}
		orders = append(orders, o)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating service order rows: %w", err)
	}
	return orders, nil
}

func (d *PostgresDatasets) AnalystComments(ctx context.Context, key string) ([]meter.AnalystComment, error) {
	query := `SELECT fecha_analisis, alarma, fecha_alarma, comentario_analista, criticidad_alarma, estado
               FROM bitacora_ac
               WHERE clave = $1 AND estado <> 'ANULADO' AND requiere_os = TRUE
               ORDER BY fecha_asignacion DESC`
	rows, err := d.db.QueryContext(ctx, query, key)
	if err != nil {
		return nil, fmt.Errorf("error querying analyst comments: %w", err)
	}
	defer rows.Close()

	comments := make([]meter.AnalystComment, 0)
	for rows.Next() {
		c := meter.AnalystComment{}
		if err := rows.Scan(&c.AnalyzedAt, &c.Alarm, &c.AlarmDate, &c.Comment, &c.Criticality, &c.State); err != nil {
			return nil, fmt.Errorf("error scanning analyst comment row: %w", err)
		}
		comments = append(comments, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating analyst comment rows: %w", err)
	}
	return comments, nil
}
