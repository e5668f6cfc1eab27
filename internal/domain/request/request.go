// Package request defines the durable work queue: one row per "build and
// deliver a report of type T for meter M to user U".
package request

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/EdwarHercules/bots-telegram/internal/domain/meter"
)

// ReportType enumerates the reports a user can request.
type ReportType int

const (
	ReportMeterInfo       ReportType = 1
	ReportCommunication   ReportType = 2
	ReportAlarms          ReportType = 3
	ReportServiceOrders   ReportType = 4
	ReportAnalystComments ReportType = 5
)

// Title is the menu label shown for the report type.
func (t ReportType) Title() string {
	switch t {
	case ReportMeterInfo:
		return "Información del medidor"
	case ReportCommunication:
		return "Comunicación del medidor"
	case ReportAlarms:
		return "Alarmas del medidor"
	case ReportServiceOrders:
		return "Órdenes de servicio del medidor"
	case ReportAnalystComments:
		return "Comentario de Telegestión"
	default:
		return fmt.Sprintf("Reporte %d", int(t))
	}
}

// ReportTypes lists the report types in menu order.
func ReportTypes() []ReportType {
	return []ReportType{
		ReportMeterInfo,
		ReportCommunication,
		ReportAlarms,
		ReportServiceOrders,
		ReportAnalystComments,
	}
}

// ParseReportType maps a menu label back to its type.
func ParseReportType(label string) (ReportType, bool) {
	for _, t := range ReportTypes() {
		if t.Title() == label {
			return t, true
		}
	}
	return 0, false
}

// Request is one queued unit of work. The two flags form a monotonic state
// machine: unclaimed -> claimed -> delivered, never backward. Claimed is set
// by exactly one processor execution through an atomic single-row update;
// Delivered only after the notifier confirmed the send.
type Request struct {
	ID            int64
	RequesterID   int64
	RequesterName string
	ReportType    ReportType
	Meter         string
	Brand         meter.Brand
	SubmittedAt   time.Time
	Claimed       bool
	ClaimedAt     sql.NullTime
	Delivered     bool
}
