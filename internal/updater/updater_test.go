package updater

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
	"testing/iotest"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pigdbc/dat-conditional-updater/internal/audit"
	"github.com/pigdbc/dat-conditional-updater/internal/codec"
	"github.com/pigdbc/dat-conditional-updater/internal/engine"
	"github.com/pigdbc/dat-conditional-updater/internal/fixture"
	"github.com/pigdbc/dat-conditional-updater/internal/format"
	"github.com/pigdbc/dat-conditional-updater/internal/rules"
	"github.com/pigdbc/dat-conditional-updater/internal/testutil"
)

func referenceRules(t *testing.T) *rules.RuleSet {
	t.Helper()
	rs, cerrs := rules.Load([]rules.Definition{
		{Name: "Rule-1", Conditions: "50:02, 78:534", Updates: "70:056"},
		{Name: "Rule-2", Conditions: "234:99", Updates: "300:77"},
	}, codec.Codec{})
	require.Empty(t, cerrs)
	return rs
}

func referenceInput(t *testing.T) []byte {
	t.Helper()
	data, err := fixture.Reference(format.DefaultSettings())
	require.NoError(t, err)
	return data
}

func readField(t *testing.T, data []byte, record, offset, chars int) string {
	t.Helper()
	return testutil.Field(t, data, format.DefaultRecordSize, record, offset, chars)
}

func TestRun_ReferenceScenario(t *testing.T) {
	input := referenceInput(t)
	var out, report bytes.Buffer

	res, err := Run(context.Background(), Job{
		Settings:  format.DefaultSettings(),
		Rules:     referenceRules(t),
		Input:     bytes.NewReader(input),
		InputSize: int64(len(input)),
		Output:    &out,
		AuditSink: &report,
	})
	require.NoError(t, err)

	// Records #2 and #3 fire Rule-1 and record #4 fires Rule-2: three distinct records.
	assert.Equal(t, "4/4 data records evaluated, 3/4 updated", res.Summary.String())
	want := []engine.RuleHits{{Rule: "Rule-1", Hits: 2}, {Rule: "Rule-2", Hits: 1}}
	if diff := cmp.Diff(want, res.Summary.Hits); diff != "" {
		t.Errorf("hits mismatch (-want +got):\n%s", diff)
	}
	assert.Equal(t, 1, res.Summary.Headers)
	assert.Equal(t, 3, res.Summary.Changes)
	assert.Equal(t, int64(len(input)), res.BytesWritten)

	got := out.Bytes()
	require.Len(t, got, len(input))
	assert.Equal(t, input[:format.DefaultRecordSize], got[:format.DefaultRecordSize], "header untouched")
	assert.Equal(t, "056", readField(t, got, 1, 70, 3))
	assert.Equal(t, "056", readField(t, got, 2, 70, 3))
	assert.Equal(t, "77", readField(t, got, 3, 300, 2))
	assert.Equal(t, input[4*format.DefaultRecordSize:], got[4*format.DefaultRecordSize:], "record 4 untouched")

	doc := report.String()
	assert.Contains(t, doc, "[#   1] HEADER - skipped")
	assert.Contains(t, doc, "  Rule-1: Byte70 '000' → '056'")
	assert.Contains(t, doc, "  Rule-2: Byte300 '00' → '77'")
	assert.Contains(t, doc, "[#   5] UNMODIFIED")
	assert.Contains(t, doc, "Rule-1 hits: 2")
}

func TestRun_OnlyFiredRangesDiffer(t *testing.T) {
	input := referenceInput(t)
	var out bytes.Buffer
	_, err := Run(context.Background(), Job{
		Settings:  format.DefaultSettings(),
		Rules:     referenceRules(t),
		Input:     bytes.NewReader(input),
		InputSize: -1,
		Output:    &out,
	})
	require.NoError(t, err)

	allowed := map[int]bool{}
	mark := func(record, offset, n int) {
		for i := range n {
			allowed[record*format.DefaultRecordSize+offset-1+i] = true
		}
	}
	mark(1, 70, 6)
	mark(2, 70, 6)
	mark(3, 300, 4)

	got := out.Bytes()
	for i := range input {
		if input[i] != got[i] && !allowed[i] {
			t.Fatalf("byte %d changed outside an update window", i)
		}
	}
}

func TestRun_ZeroMatchIsByteIdentical(t *testing.T) {
	data, err := fixture.Random(fixture.Profile{Records: 30, Seed: 9, UnknownPct: 0.1})
	require.NoError(t, err)

	rs, cerrs := rules.Load([]rules.Definition{
		{Name: "never", Conditions: "50:ZZ", Updates: "70:XX"},
	}, codec.Codec{})
	require.Empty(t, cerrs)

	var out bytes.Buffer
	res, err := Run(context.Background(), Job{
		Settings:  format.DefaultSettings(),
		Rules:     rs,
		Input:     iotest.HalfReader(bytes.NewReader(data)),
		InputSize: int64(len(data)),
		Output:    &out,
	})
	require.NoError(t, err)
	assert.Equal(t, data, out.Bytes())
	assert.Zero(t, res.Summary.Updated)
	assert.Equal(t, 30, res.Summary.Records)
}

func TestRun_EmptyRuleSetCopiesInput(t *testing.T) {
	input := referenceInput(t)
	var out bytes.Buffer
	res, err := Run(context.Background(), Job{
		Settings:  format.DefaultSettings(),
		Input:     bytes.NewReader(input),
		InputSize: -1,
		Output:    &out,
	})
	require.NoError(t, err)
	assert.Equal(t, input, out.Bytes())
	assert.Equal(t, "4/4 data records evaluated, 0/4 updated", res.Summary.String())
}

func TestRun_TruncatedSizedInput(t *testing.T) {
	input := append(referenceInput(t), 0x32, 0x00, 0x00)
	var out, report bytes.Buffer

	_, err := Run(context.Background(), Job{
		Settings:  format.DefaultSettings(),
		Rules:     referenceRules(t),
		Input:     bytes.NewReader(input),
		InputSize: int64(len(input)),
		Output:    &out,
		AuditSink: &report,
	})
	require.ErrorIs(t, err, format.ErrTruncated)
	assert.True(t, format.IsFatal(err))
	assert.Zero(t, out.Len(), "nothing written before the size check")
	assert.Zero(t, report.Len(), "audit not flushed")
}

func TestRun_TruncatedStream(t *testing.T) {
	input := append(referenceInput(t), 0x32, 0x00, 0x00)
	var out, report bytes.Buffer

	_, err := Run(context.Background(), Job{
		Settings:  format.DefaultSettings(),
		Rules:     referenceRules(t),
		Input:     bytes.NewReader(input),
		InputSize: -1,
		Output:    &out,
		AuditSink: &report,
	})
	require.ErrorIs(t, err, format.ErrTruncated)
	var fe *format.FatalError
	require.True(t, errors.As(err, &fe))
	assert.Equal(t, 5, fe.Record)
	assert.Zero(t, report.Len())
}

func TestRun_WindowOutOfRangeIsFatal(t *testing.T) {
	rs, cerrs := rules.Load([]rules.Definition{
		{Name: "far", Conditions: "1299:AB", Updates: "1:x"},
	}, codec.Codec{})
	require.Empty(t, cerrs)

	_, err := Run(context.Background(), Job{
		Settings:  format.DefaultSettings(),
		Rules:     rs,
		Input:     bytes.NewReader(nil),
		InputSize: 0,
	})
	require.ErrorIs(t, err, format.ErrWindowOutOfRange)
}

func TestRun_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := Run(ctx, Job{
		Settings:  format.DefaultSettings(),
		Rules:     referenceRules(t),
		Input:     bytes.NewReader(referenceInput(t)),
		InputSize: -1,
	})
	require.ErrorIs(t, err, context.Canceled)
	assert.True(t, format.IsFatal(err))
}

func TestRun_UsesSuppliedAuditLog(t *testing.T) {
	log := audit.New(audit.Preamble{RunID: "fixed", InputPath: "in/data.dat", InputSize: -1})
	var report bytes.Buffer

	_, err := Run(context.Background(), Job{
		Settings:  format.DefaultSettings(),
		Rules:     referenceRules(t),
		Input:     bytes.NewReader(referenceInput(t)),
		InputSize: -1,
		Audit:     log,
		AuditSink: &report,
	})
	require.NoError(t, err)
	assert.True(t, log.Flushed())
	assert.Len(t, log.Entries(), 5)
	assert.True(t, strings.Contains(report.String(), "Run:    fixed"))
	require.ErrorIs(t, log.Flush(&report, nil), audit.ErrFlushed)
}

func TestRun_UnknownMarkerPassesThrough(t *testing.T) {
	s := format.DefaultSettings()
	rec := fixture.NewRecord(s.RecordSize, 'X')
	require.NoError(t, fixture.Place(rec, fixture.Placement{Offset: 50, Value: "02"}, fixture.Placement{Offset: 78, Value: "534"}))

	var out, report bytes.Buffer
	res, err := Run(context.Background(), Job{
		Settings:  s,
		Rules:     referenceRules(t),
		Input:     bytes.NewReader(rec),
		InputSize: int64(len(rec)),
		Output:    &out,
		AuditSink: &report,
	})
	require.NoError(t, err)
	assert.Equal(t, rec, out.Bytes())
	assert.Equal(t, 1, res.Summary.Unknown)
	assert.Contains(t, report.String(), "UNKNOWN marker 0x58 - skipped")
}
