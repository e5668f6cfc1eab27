package report

import (
	"database/sql"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/EdwarHercules/bots-telegram/internal/domain/meter"
)

func nullStr(s string) sql.NullString {
	return sql.NullString{String: s, Valid: true}
}

func nullTime(t time.Time) sql.NullTime {
	return sql.NullTime{Time: t, Valid: true}
}

func TestFormatInfoNilRowFallsBack(t *testing.T) {
	got := FormatInfo("Perez", "HX001", nil)
	if got == "" {
		t.Fatal("empty report text")
	}
	if !strings.Contains(got, "no tenemos información") || !strings.Contains(got, "HX001") {
		t.Errorf("unexpected fallback text: %q", got)
	}
}

func TestFormatInfoMissingFieldsRenderND(t *testing.T) {
	info := &meter.Info{
		Key:            "CL-001",
		SubscriberName: "Comercial XYZ",
		Meter:          "HX001",
		Tariff:         nullStr("BT-2"),
	}
	got := FormatInfo("Perez", "HX001", info)
	for _, want := range []string{"Clave: CL-001", "Tarifa: BT-2", "Multiplicador: N/D", "Zona: N/D"} {
		if !strings.Contains(got, want) {
			t.Errorf("report missing %q:\n%s", want, got)
		}
	}
}

func TestRelayLabel(t *testing.T) {
	cases := []struct {
		code string
		want string
	}{
		{"connect", "Conectado"},
		{"CONNECT", "Conectado"},
		{"disconnect", "Desconectado"},
		{" disconnect ", "Desconectado"},
		{"garbage", "Desconocido"},
		{"", "Desconocido"},
	}
	for _, tc := range cases {
		if got := RelayLabel(tc.code); got != tc.want {
			t.Errorf("RelayLabel(%q) = %q, want %q", tc.code, got, tc.want)
		}
	}
}

func TestFormatRelayStatusFreshness(t *testing.T) {
	now := time.Date(2025, 6, 10, 12, 0, 0, 0, time.UTC)

	fresh := &meter.RelayStatus{
		Gatekeeper:       nullStr("GK-17"),
		RelayCode:        "connect",
		LastRegisterRead: nullTime(now.Add(-24 * time.Hour)),
	}
	got := FormatRelayStatus("Perez", "2023-100-123456", "CL-9", fresh, now)
	if !strings.Contains(got, "Sí comunica") {
		t.Errorf("reading one day old must count as communicating:\n%s", got)
	}
	if !strings.Contains(got, "a través del gatekeeper") {
		t.Errorf("expected gatekeeper line:\n%s", got)
	}
	if !strings.Contains(got, "Estado del relé: Conectado") {
		t.Errorf("expected relay state line:\n%s", got)
	}

	stale := &meter.RelayStatus{
		RelayCode:        "disconnect",
		LastRegisterRead: nullTime(now.Add(-4 * 24 * time.Hour)),
	}
	got = FormatRelayStatus("Perez", "2023-100-123456", "CL-9", stale, now)
	if !strings.Contains(got, "No comunica") {
		t.Errorf("reading four days old must not count as communicating:\n%s", got)
	}
	if !strings.Contains(got, "no tiene gatekeeper asociado") {
		t.Errorf("expected missing-gatekeeper line:\n%s", got)
	}
}

func TestFormatRelayStatusPrefersGatekeeperReading(t *testing.T) {
	now := time.Date(2025, 6, 10, 12, 0, 0, 0, time.UTC)
	rs := &meter.RelayStatus{
		Gatekeeper:       nullStr("GK-17"),
		RelayCode:        "connect",
		LastRegistered:   nullTime(now.Add(-10 * 24 * time.Hour)),
		LastRegisterRead: nullTime(now.Add(-time.Hour)),
	}
	got := FormatRelayStatus("Perez", "M1", "CL-9", rs, now)
	if !strings.Contains(got, "a través del gatekeeper: "+rs.LastRegisterRead.Time.Format(dateLayout)) {
		t.Errorf("gatekeeper reading must win over the direct one:\n%s", got)
	}
}

func TestFormatRelayStatusNoReadings(t *testing.T) {
	got := FormatRelayStatus("Perez", "M1", "CL-9", &meter.RelayStatus{RelayCode: "x"}, time.Now())
	if !strings.Contains(got, "No se registra ninguna comunicación") {
		t.Errorf("expected no-communication line:\n%s", got)
	}
	if !strings.Contains(got, "No comunica") {
		t.Errorf("meter without readings must not communicate:\n%s", got)
	}
}

func TestFormatCommunicationCombinations(t *testing.T) {
	last := &meter.LastCommunication{
		Date:    time.Date(2025, 6, 9, 8, 30, 0, 0, time.UTC),
		Reading: "123.45",
	}
	avg := &meter.CommAverages{Pct7Days: 98.5, Pct30Days: 91.2, Pct3Months: 88.4, Pct1Year: 75.1}

	got := FormatCommunication("Perez", "M1", "CL-9", last, avg)
	for _, want := range []string{
		"Última lectura: 123.45",
		"Últimos 7 días: 98.50%",
		"Últimos 30 días: 91.20%",
		"Últimos 3 meses: 88.40%",
		"Último año: 75.10%",
	} {
		if !strings.Contains(got, want) {
			t.Errorf("full report missing %q:\n%s", want, got)
		}
	}

	got = FormatCommunication("Perez", "M1", "CL-9", nil, avg)
	if !strings.Contains(got, "No se obtuvo la última comunicación.") {
		t.Errorf("missing last-communication fallback:\n%s", got)
	}

	got = FormatCommunication("Perez", "M1", "CL-9", last, nil)
	if !strings.Contains(got, "No se obtuvo el promedio de comunicación.") {
		t.Errorf("missing averages fallback:\n%s", got)
	}

	got = FormatCommunication("Perez", "M1", "CL-9", nil, nil)
	if !strings.Contains(got, "no se obtuvo la comunicación del medidor: M1") {
		t.Errorf("missing empty-report fallback: %q", got)
	}
}

func TestFormatAlarmsTruncatesAndKeepsOrder(t *testing.T) {
	alarms := make([]meter.Alarm, 0, 35)
	base := time.Date(2025, 6, 10, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 35; i++ {
		alarms = append(alarms, meter.Alarm{
			Name:     fmt.Sprintf("Alarma %02d", i),
			LastSeen: base.Add(-time.Duration(i) * time.Hour),
			Count:    i + 1,
		})
	}

	got := FormatAlarms("Perez", "M1", alarms)
	if !strings.Contains(got, "Alarma 00") || !strings.Contains(got, "Alarma 29") {
		t.Errorf("first thirty alarms must be present:\n%s", got)
	}
	if strings.Contains(got, "Alarma 30") {
		t.Errorf("alarms past the cap must be dropped:\n%s", got)
	}
	if strings.Index(got, "Alarma 00") > strings.Index(got, "Alarma 01") {
		t.Error("alarms must keep their incoming order")
	}
}

func TestFormatAlarmsEmpty(t *testing.T) {
	got := FormatAlarms("Perez", "M1", nil)
	if !strings.Contains(got, "no se encontraron alarmas") {
		t.Errorf("unexpected empty-alarms text: %q", got)
	}
}

func TestFormatServiceOrders(t *testing.T) {
	orders := []meter.ServiceOrder{
		{
			Number:      "OS-1001",
			State:       "EJECUTADA",
			Category:    nullStr("Medidor detenido"),
			GeneratedAt: nullTime(time.Date(2025, 5, 1, 9, 0, 0, 0, time.UTC)),
		},
	}
	got := FormatServiceOrders("Perez", "M1", "CL-9", orders)
	for _, want := range []string{"Número de OS: OS-1001", "Estado de la OS: EJECUTADA", "Descripción de OS: N/D", "Fecha de Ejecución: N/D"} {
		if !strings.Contains(got, want) {
			t.Errorf("service order report missing %q:\n%s", want, got)
		}
	}

	got = FormatServiceOrders("Perez", "M1", "CL-9", nil)
	if !strings.Contains(got, "no se encontraron órdenes de servicio") {
		t.Errorf("unexpected empty-orders text: %q", got)
	}
}

func TestFormatAnalystComments(t *testing.T) {
	comments := []meter.AnalystComment{
		{
			AnalyzedAt:  nullTime(time.Date(2025, 5, 20, 14, 0, 0, 0, time.UTC)),
			Alarm:       "Tapa abierta",
			Comment:     "Se programó inspección en sitio.",
			Criticality: nullStr("Alta"),
			State:       "EN PROCESO",
		},
	}
	got := FormatAnalystComments("Perez", "M1", "CL-9", comments)
	for _, want := range []string{"Alarma encontrada: Tapa abierta", "Criticidad de la alarma: Alta", "Fecha de la alarma encontrada: N/D"} {
		if !strings.Contains(got, want) {
			t.Errorf("analyst report missing %q:\n%s", want, got)
		}
	}

	got = FormatAnalystComments("Perez", "M1", "CL-9", nil)
	if !strings.Contains(got, "no se ha realizado análisis") {
		t.Errorf("unexpected empty-comments text: %q", got)
	}
}

func TestFormatNoInformation(t *testing.T) {
	got := FormatNoInformation("Perez", "XYZ")
	if !strings.Contains(got, "no se tiene información del medidor: XYZ") {
		t.Errorf("unexpected text: %q", got)
	}
}
