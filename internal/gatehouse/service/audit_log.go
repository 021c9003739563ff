package service

import (
	"context"
	"encoding/csv"
	"io"
	"strconv"
	"time"

	"github.com/clearpath-sec/gatehouse/internal/gatehouse/store"
	"github.com/clearpath-sec/gatehouse/internal/gatehouse/types"
	"github.com/clearpath-sec/gatehouse/internal/metrics"
)

// csvColumns is the fixed export column order. Changing it breaks downstream
// audit tooling.
var csvColumns = []string{
	"id", "timestamp", "requestNumber", "requestId", "requesterName",
	"facility", "gate", "action", "method", "guardName", "reason", "valid",
}

// AuditLog fronts the access-log store: it classifies storage faults as
// persistence errors, records metrics, and renders CSV exports.
type AuditLog struct {
	store   store.AccessLogStore
	metrics *metrics.Metrics
}

func NewAuditLog(st store.AccessLogStore, m *metrics.Metrics) *AuditLog {
	return &AuditLog{store: st, metrics: m}
}

func (a *AuditLog) Append(ctx context.Context, in store.AccessLogInput) (types.AccessLogEntry, error) {
	start := time.Now()
	entry, err := a.store.Append(ctx, in)
	if err != nil {
		return types.AccessLogEntry{}, &store.PersistenceError{Op: "append", Err: err}
	}
	a.metrics.ObserveAppendLatency(time.Since(start))
	a.metrics.IncDecision(string(entry.Action), string(entry.Method))
	return entry, nil
}

func (a *AuditLog) Query(ctx context.Context, f store.LogFilter) ([]types.AccessLogEntry, error) {
	entries, err := a.store.Query(ctx, f)
	if err != nil {
		return nil, &store.PersistenceError{Op: "query", Err: err}
	}
	return entries, nil
}

func (a *AuditLog) Facilities(ctx context.Context) ([]string, error) {
	facilities, err := a.store.ListFacilities(ctx)
	if err != nil {
		return nil, &store.PersistenceError{Op: "list facilities", Err: err}
	}
	return facilities, nil
}

// Purge removes every entry. Irreversible; the caller owns confirmation.
func (a *AuditLog) Purge(ctx context.Context) error {
	if err := a.store.Purge(ctx); err != nil {
		return &store.PersistenceError{Op: "purge", Err: err}
	}
	return nil
}

// WriteCSV renders rows in the fixed export column order. encoding/csv
// applies RFC 4180 quoting: fields containing the delimiter or a double
// quote are wrapped in quotes with internal quotes doubled.
func (a *AuditLog) WriteCSV(w io.Writer, rows []types.AccessLogEntry) error {
	cw := csv.NewWriter(w)

	if err := cw.Write(csvColumns); err != nil {
		return err
	}

	for _, e := range rows {
		record := []string{
			e.ID,
			e.Timestamp.UTC().Format(time.RFC3339),
			e.RequestNumber,
			e.RequestID,
			e.RequesterName,
			e.Facility,
			e.Gate,
			string(e.Action),
			string(e.Method),
			e.GuardName,
			e.Reason,
			strconv.FormatBool(e.Valid),
		}
		if err := cw.Write(record); err != nil {
			return err
		}
	}

	cw.Flush()
	return cw.Error()
}

// ExportFilename names a CSV export artifact for the given day.
func ExportFilename(now time.Time) string {
	return "access-logs-" + now.UTC().Format("2006-01-02") + ".csv"
}
