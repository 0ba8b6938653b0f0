// Package updater drives one conditional update run: records are read in
// order, classified, evaluated against the rule set, appended to the audit
// log and written to the output at the same position.
package updater

import (
	"context"
	"fmt"
	"io"

	"github.com/pigdbc/dat-conditional-updater/internal/audit"
	"github.com/pigdbc/dat-conditional-updater/internal/engine"
	"github.com/pigdbc/dat-conditional-updater/internal/format"
	"github.com/pigdbc/dat-conditional-updater/internal/logger"
	"github.com/pigdbc/dat-conditional-updater/internal/rules"
	"github.com/pigdbc/dat-conditional-updater/internal/stream"
)

// Job describes a single run over one input stream.
type Job struct {
	Settings  format.Settings
	Rules     *rules.RuleSet
	Input     io.Reader
	InputSize int64     // -1 when unknown; otherwise checked before any record is written
	Output    io.Writer // nil discards output
	Audit     *audit.Log
	AuditSink io.Writer // nil skips the flush
	Decoder   engine.Decoder
}

// Result totals a completed run.
type Result struct {
	Summary      audit.Summary
	BytesWritten int64
}

// Run processes job.Input to completion. Any returned error is a
// FatalError; the output may then hold a prefix of the records and must be
// discarded by the caller. The audit log is flushed only on success.
func Run(ctx context.Context, job Job) (Result, error) {
	eng, err := engine.New(job.Settings, job.Rules, job.Decoder)
	if err != nil {
		return Result{}, err
	}
	size := job.Settings.RecordSize

	if job.InputSize >= 0 {
		count, err := stream.CountRecords(job.InputSize, size)
		if err != nil {
			return Result{}, err
		}
		logger.Debug("input sized", "bytes", job.InputSize, "records", count)
	}

	log := job.Audit
	if log == nil {
		log = audit.New(audit.Preamble{
			Settings:  job.Settings,
			Rules:     job.Rules.Rules(),
			InputSize: job.InputSize,
		})
	}
	out := job.Output
	if out == nil {
		out = io.Discard
	}

	r := stream.NewReader(job.Input, size)
	w := stream.NewWriter(out, size)
	for {
		if err := ctx.Err(); err != nil {
			return Result{}, &format.FatalError{
				Op:      "run",
				Record:  r.Count(),
				Offset:  int64(r.Count()) * int64(size),
				Message: "cancelled",
				Cause:   err,
			}
		}

		rec, ok, err := r.Next()
		if err != nil {
			return Result{}, err
		}
		if !ok {
			break
		}
		index := r.Count() - 1

		outcome, err := eng.Process(rec)
		if err != nil {
			return Result{}, &format.FatalError{
				Op:      "process",
				Record:  index,
				Offset:  int64(index) * int64(size),
				Message: "evaluating record",
				Cause:   err,
			}
		}
		entry := log.Record(index, outcome)
		trace(entry)

		if err := w.Write(rec); err != nil {
			return Result{}, err
		}
	}

	hits := eng.Hits()
	summary := log.Summary(hits)
	if job.AuditSink != nil {
		if err := log.Flush(job.AuditSink, hits); err != nil {
			return Result{}, format.Fatal("audit", "writing audit log", err)
		}
	}
	logger.Info("run complete",
		"records", summary.Records,
		"data", summary.DataRecords,
		"updated", summary.Updated,
		"changes", summary.Changes,
	)
	return Result{Summary: summary, BytesWritten: w.Bytes()}, nil
}

func trace(e audit.Entry) {
	switch e.Status {
	case audit.StatusUnknown:
		logger.Warn("unknown marker", "record", e.Index+1, "marker", fmt.Sprintf("0x%02X", e.Marker))
	case audit.StatusUpdated:
		for _, c := range e.Changes {
			if c.Lossy {
				logger.Warn("old value not decodable", "record", e.Index+1, "rule", c.Rule, "offset", c.Offset)
			}
			if c.Overwrites != "" {
				logger.Debug("overlapping update", "record", e.Index+1, "rule", c.Rule, "overwrites", c.Overwrites)
			}
		}
		logger.Debug("record updated", "record", e.Index+1, "changes", len(e.Changes))
	}
}
