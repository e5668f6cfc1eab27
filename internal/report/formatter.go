// Package report turns dataset rows into the Spanish-language report texts
// delivered to requesters, and hosts the builder that assembles them from
// the brand datasets.
package report

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/EdwarHercules/bots-telegram/internal/domain/meter"
)

const (
	// maxListEntries bounds every list-valued report.
	maxListEntries = 30

	// commFreshness is the window inside which a reading still counts as
	// "currently communicating".
	commFreshness = 3 * 24 * time.Hour

	dateLayout = "2006-01-02 15:04:05"
)

// FormatNoInformation is the report for a meter that resolved to no catalog
// key.
func FormatNoInformation(requester, meterNo string) string {
	return fmt.Sprintf("Hola ingeniero %s, no se tiene información del medidor: %s.", requester, meterNo)
}

// FormatInfo renders the meter-information report. A nil row yields the
// empty-dataset fallback.
func FormatInfo(requester, meterNo string, info *meter.Info) string {
	if info == nil {
		return fmt.Sprintf("Hola ingeniero %s, no tenemos información del medidor: %s.", requester, meterNo)
	}
	var b strings.Builder
	fmt.Fprintf(&b, "Hola Ingeniero %s\n\n", requester)
	fmt.Fprintf(&b, "El siguiente reporte es para el medidor: %s.\n\n", meterNo)
	fmt.Fprintf(&b, "Clave: %s\n", info.Key)
	fmt.Fprintf(&b, "Nombre Abonado: %s\n", info.SubscriberName)
	fmt.Fprintf(&b, "Medidor: %s\n", info.Meter)
	fmt.Fprintf(&b, "Multiplicador: %s\n", orND(info.Multiplier))
	fmt.Fprintf(&b, "Último Consumo: %s\n", orND(info.LastConsumption))
	fmt.Fprintf(&b, "Lectura Actual: %s\n", orND(info.CurrentReading))
	fmt.Fprintf(&b, "Código de Lectura: %s\n", orND(info.ReadingCode))
	fmt.Fprintf(&b, "Tarifa: %s\n", orND(info.Tariff))
	fmt.Fprintf(&b, "Tipo de Medida: %s\n", orND(info.MeasureType))
	fmt.Fprintf(&b, "Zona: %s\n", orND(info.Zone))
	fmt.Fprintf(&b, "Región PNRP: %s\n", orND(info.Region))
	fmt.Fprintf(&b, "Circuito: %s\n", orND(info.Circuit))
	fmt.Fprintf(&b, "Subestación: %s\n", orND(info.Substation))
	fmt.Fprintf(&b, "Coord. (X,Y): %s, %s\n", orND(info.GeoLat), orND(info.GeoLon))
	fmt.Fprintf(&b, "Coord. UTM (X,Y): %s, %s\n", orND(info.UTMY), orND(info.UTMX))
	fmt.Fprintf(&b, "Ubicación de medidor: https://www.google.com/maps?q=%s,%s", orND(info.GeoLat), orND(info.GeoLon))
	return b.String()
}

// RelayLabel maps a raw relay status code to its human label, defaulting to
// "Desconocido" for anything unrecognized.
func RelayLabel(code string) string {
	switch strings.ToLower(strings.TrimSpace(code)) {
	case "connect":
		return "Conectado"
	case "disconnect":
		return "Desconectado"
	default:
		return "Desconocido"
	}
}

// FormatRelayStatus renders the Elster communication report: last reading,
// gatekeeper association, relay state and whether the meter currently
// communicates (most recent reading within the freshness window of now).
func FormatRelayStatus(requester, meterNo, key string, rs *meter.RelayStatus, now time.Time) string {
	if rs == nil {
		return fmt.Sprintf("Hola ingeniero %s, no hay información de comunicación del medidor: %s.", requester, meterNo)
	}

	var lastLine string
	var communicates bool
	if rs.LastRegisterRead.Valid {
		communicates = now.Sub(rs.LastRegisterRead.Time) < commFreshness
		lastLine = fmt.Sprintf("Última fecha de comunicación del medidor a través del gatekeeper: %s", rs.LastRegisterRead.Time.Format(dateLayout))
	} else if rs.LastRegistered.Valid {
		communicates = now.Sub(rs.LastRegistered.Time) < commFreshness
		lastLine = fmt.Sprintf("Última fecha de comunicación directa del medidor: %s", rs.LastRegistered.Time.Format(dateLayout))
	} else {
		lastLine = "No se registra ninguna comunicación del medidor."
	}

	commLabel := "No comunica"
	if communicates {
		commLabel = "Sí comunica"
	}

	var gatekeeperLine string
	if !rs.Gatekeeper.Valid {
		if communicates {
			gatekeeperLine = "El medidor comunica, pero no tiene gatekeeper asociado."
		} else {
			gatekeeperLine = "El medidor no comunica y no tiene gatekeeper asociado."
		}
	} else if rs.LastRegisterRead.Valid {
		gatekeeperLine = "El medidor comunica a través del gatekeeper asociado."
	} else {
		gatekeeperLine = "El medidor tiene un gatekeeper asociado, pero no ha comunicado a través de él."
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Hola Ingeniero %s\n\n", requester)
	fmt.Fprintf(&b, "El siguiente reporte es para el medidor: %s con clave: %s.\n\n", meterNo, key)
	fmt.Fprintf(&b, "%s\n", lastLine)
	fmt.Fprintf(&b, "%s\n", gatekeeperLine)
	fmt.Fprintf(&b, "Estado del relé: %s\n\n", RelayLabel(rs.RelayCode))
	fmt.Fprintf(&b, "Comunicación: %s", commLabel)
	return b.String()
}

// FormatCommunication renders the Union/Hexing communication report from the
// last reading and the trailing-window averages. Partial data takes a
// dedicated fallback for each missing half.
func FormatCommunication(requester, meterNo, key string, last *meter.LastCommunication, avg *meter.CommAverages) string {
	if last == nil && avg == nil {
		return fmt.Sprintf("Hola ingeniero %s, no se obtuvo la comunicación del medidor: %s.", requester, meterNo)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Hola Ingeniero %s\n\n", requester)
	fmt.Fprintf(&b, "El reporte de comunicación para el medidor: %s con clave: %s es el siguiente:\n\n", meterNo, key)
	if last != nil {
		fmt.Fprintf(&b, "- Última fecha de comunicación: %s\n", last.Date.Format(dateLayout))
		fmt.Fprintf(&b, "- Última lectura: %s\n", last.Reading)
	} else {
		b.WriteString("No se obtuvo la última comunicación.\n")
	}
	if avg != nil {
		b.WriteString("\nPromedio de comunicaciones:\n")
		fmt.Fprintf(&b, "- Últimos 7 días: %.2f%%\n", avg.Pct7Days)
		fmt.Fprintf(&b, "- Últimos 30 días: %.2f%%\n", avg.Pct30Days)
		fmt.Fprintf(&b, "- Últimos 3 meses: %.2f%%\n", avg.Pct3Months)
		fmt.Fprintf(&b, "- Último año: %.2f%%\n", avg.Pct1Year)
	} else {
		b.WriteString("\nNo se obtuvo el promedio de comunicación.\n")
	}
	b.WriteString("\nPor favor revise los porcentajes de comunicación mencionados.")
	return b.String()
}

// FormatAlarms renders the alarms report. Rows arrive in descending date
// order; at most maxListEntries are included.
func FormatAlarms(requester, meterNo string, alarms []meter.Alarm) string {
	if len(alarms) == 0 {
		return fmt.Sprintf("Hola ingeniero %s, no se encontraron alarmas para el medidor: %s.", requester, meterNo)
	}
	if len(alarms) > maxListEntries {
		alarms = alarms[:maxListEntries]
	}
	var b strings.Builder
	fmt.Fprintf(&b, "Hola Ingeniero %s\n\n", requester)
	fmt.Fprintf(&b, "El siguiente reporte es para el medidor: %s.\n\n", meterNo)
	b.WriteString("Alarmas del medidor:\n\n")
	for _, a := range alarms {
		fmt.Fprintf(&b, "- %s\n(Última Fecha Detectada: %s, Cantidad: %d)\n\n", a.Name, a.LastSeen.Format(dateLayout), a.Count)
	}
	b.WriteString("\nPor favor revise las alarmas mencionadas.")
	return b.String()
}

// FormatServiceOrders renders the service-order report, bounded to the most
// recent maxListEntries orders.
func FormatServiceOrders(requester, meterNo, key string, orders []meter.ServiceOrder) string {
	if len(orders) == 0 {
		return fmt.Sprintf("Hola ingeniero %s, no se encontraron órdenes de servicio para el medidor: %s con clave: %s.", requester, meterNo, key)
	}
	if len(orders) > maxListEntries {
		orders = orders[:maxListEntries]
	}
	var b strings.Builder
	fmt.Fprintf(&b, "Hola Ingeniero %s\n\n", requester)
	fmt.Fprintf(&b, "El siguiente reporte es para el medidor: %s.\n\n", meterNo)
	b.WriteString("Órdenes de servicio del medidor:\n\n")
	blocks := make([]string, 0, len(orders))
	for _, o := range orders {
		blocks = append(blocks, fmt.Sprintf(
			"Número de OS: %s\nEstado de la OS: %s\nCategoría de la anomalía: %s\nDescripción de OS: %s\nFecha Generada: %s\nFecha de Ejecución: %s",
			o.Number, o.State, orND(o.Category), orND(o.Description), orNDTime(o.GeneratedAt), orNDTime(o.ExecutedAt)))
	}
	b.WriteString(strings.Join(blocks, "\n\n"))
	return b.String()
}

// FormatAnalystComments renders the telemetry-desk review report, bounded to
// the most recent maxListEntries entries.
func FormatAnalystComments(requester, meterNo, key string, comments []meter.AnalystComment) string {
	if len(comments) == 0 {
		return fmt.Sprintf("Hola ingeniero %s, no se ha realizado análisis para el medidor: %s con clave: %s.", requester, meterNo, key)
	}
	if len(comments) > maxListEntries {
		comments = comments[:maxListEntries]
	}
	var b strings.Builder
	fmt.Fprintf(&b, "Hola Ingeniero %s\n\n", requester)
	fmt.Fprintf(&b, "El siguiente reporte es para el medidor: %s.\n\n", meterNo)
	b.WriteString("El departamento de telegestión ha hecho una o más revisiones al medidor.\n\n")
	blocks := make([]string, 0, len(comments))
	for _, c := range comments {
		blocks = append(blocks, fmt.Sprintf(
			"Fecha de análisis: %s\nAlarma encontrada: %s\nFecha de la alarma encontrada: %s\nComentario del analista: %s\nCriticidad de la alarma: %s\nEstado de la revisión: %s",
			orNDTime(c.AnalyzedAt), c.Alarm, orNDTime(c.AlarmDate), c.Comment, orND(c.Criticality), c.State))
	}
	b.WriteString(strings.Join(blocks, "\n\n"))
	return b.String()
}

func orND(s sql.NullString) string {
	if s.Valid && strings.TrimSpace(s.String) != "" {
		return s.String
	}
	return "N/D"
}

func orNDTime(t sql.NullTime) string {
	if t.Valid {
		return t.Time.Format(dateLayout)
	}
	return "N/D"
}
