package engine

import (
	"bytes"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"

	"github.com/pigdbc/dat-conditional-updater/internal/codec"
	"github.com/pigdbc/dat-conditional-updater/internal/format"
	"github.com/pigdbc/dat-conditional-updater/internal/rules"
)

// --- helpers ---

func mkRecord(t *testing.T, size int, marker byte, fields map[int]string) []byte {
	t.Helper()
	rec := make([]byte, size)
	rec[0] = marker
	for offset, value := range fields {
		put(t, rec, offset, value)
	}
	return rec
}

func put(t *testing.T, rec []byte, offset int, value string) {
	t.Helper()
	enc, err := codec.Encode(value)
	require.NoError(t, err)
	copy(rec[offset-1:], enc)
}

func get(t *testing.T, rec []byte, offset, chars int) string {
	t.Helper()
	s, ok := codec.Decode(rec[offset-1 : offset-1+chars*codec.BytesPerChar])
	require.True(t, ok)
	return s
}

func mustRules(t *testing.T, defs ...rules.Definition) *rules.RuleSet {
	t.Helper()
	rs, cfgErrs := rules.Load(defs, codec.Codec{})
	require.Empty(t, cfgErrs)
	return rs
}

func referenceRules(t *testing.T) *rules.RuleSet {
	return mustRules(t,
		rules.Definition{Name: "Rule-1", Conditions: "50:02, 78:534", Updates: "70:056"},
		rules.Definition{Name: "Rule-2", Conditions: "234:99", Updates: "300:77"},
	)
}

func newEngine(t *testing.T, rs *rules.RuleSet) *Engine {
	t.Helper()
	e, err := New(format.DefaultSettings(), rs, nil)
	require.NoError(t, err)
	return e
}

// --- tests ---

func TestProcess_RuleFires(t *testing.T) {
	e := newEngine(t, referenceRules(t))
	rec := mkRecord(t, 1300, '2', map[int]string{50: "02", 78: "534", 70: "000"})

	out, err := e.Process(rec)
	require.NoError(t, err)
	require.Equal(t, format.KindData, out.Kind)
	require.True(t, out.Modified())
	require.Equal(t, []string{"Rule-1"}, out.Fired)

	want := []Change{{Rule: "Rule-1", Offset: 70, Old: "000", New: "056"}}
	if diff := cmp.Diff(want, out.Changes); diff != "" {
		t.Fatalf("changes mismatch (-want +got):\n%s", diff)
	}
	require.Equal(t, "056", get(t, rec, 70, 3))
	require.Equal(t, 1, e.Hit("Rule-1"))
	require.Equal(t, 0, e.Hit("Rule-2"))
}

func TestProcess_PartialMatchDoesNotFire(t *testing.T) {
	e := newEngine(t, referenceRules(t))
	rec := mkRecord(t, 1300, '2', map[int]string{50: "02", 78: "535", 70: "000"})
	before := bytes.Clone(rec)

	out, err := e.Process(rec)
	require.NoError(t, err)
	require.False(t, out.Modified())
	require.Empty(t, out.Changes)
	require.Equal(t, before, rec)
}

func TestProcess_HeaderNeverMutated(t *testing.T) {
	e := newEngine(t, referenceRules(t))
	// Header carrying bytes that would satisfy Rule-1 on a data record.
	rec := mkRecord(t, 1300, '1', map[int]string{50: "02", 78: "534", 70: "000"})
	before := bytes.Clone(rec)

	out, err := e.Process(rec)
	require.NoError(t, err)
	require.Equal(t, format.KindHeader, out.Kind)
	require.False(t, out.Modified())
	require.Equal(t, before, rec)
	require.Equal(t, 0, e.Hit("Rule-1"))
}

func TestProcess_UnknownMarkerPassesThrough(t *testing.T) {
	e := newEngine(t, referenceRules(t))
	rec := mkRecord(t, 1300, '7', map[int]string{234: "99"})
	before := bytes.Clone(rec)

	out, err := e.Process(rec)
	require.NoError(t, err)
	require.Equal(t, format.KindUnknown, out.Kind)
	require.Equal(t, byte('7'), out.Marker)
	require.Equal(t, before, rec)
}

func TestProcess_HitCountsOncePerRecordNotPerUpdate(t *testing.T) {
	rs := mustRules(t, rules.Definition{Name: "multi", Conditions: "10:1", Updates: "20:a, 30:b, 40:c"})
	e := newEngine(t, rs)

	for i := 0; i < 3; i++ {
		rec := mkRecord(t, 1300, '2', map[int]string{10: "1"})
		out, err := e.Process(rec)
		require.NoError(t, err)
		require.Len(t, out.Changes, 3)
		require.Equal(t, "a", get(t, rec, 20, 1))
		require.Equal(t, "b", get(t, rec, 30, 1))
		require.Equal(t, "c", get(t, rec, 40, 1))
	}
	require.Equal(t, []RuleHits{{Rule: "multi", Hits: 3}}, e.Hits())
}

func TestProcess_AllMatchingRulesFire(t *testing.T) {
	rs := mustRules(t,
		rules.Definition{Name: "A", Conditions: "10:1", Updates: "20:x"},
		rules.Definition{Name: "B", Conditions: "10:1", Updates: "30:y"},
		rules.Definition{Name: "C", Conditions: "10:9", Updates: "40:z"},
	)
	e := newEngine(t, rs)
	rec := mkRecord(t, 1300, '2', map[int]string{10: "1"})

	out, err := e.Process(rec)
	require.NoError(t, err)
	require.Equal(t, []string{"A", "B"}, out.Fired)
	require.Equal(t, []RuleHits{{"A", 1}, {"B", 1}, {"C", 0}}, e.Hits())
}

func TestProcess_LastWriterWins(t *testing.T) {
	rs := mustRules(t,
		rules.Definition{Name: "first", Conditions: "2:k", Updates: "10:111"},
		rules.Definition{Name: "second", Conditions: "2:k", Updates: "12:22"},
	)
	e := newEngine(t, rs)
	rec := mkRecord(t, 1300, '2', map[int]string{2: "k", 10: "000"})

	out, err := e.Process(rec)
	require.NoError(t, err)

	want := []Change{
		{Rule: "first", Offset: 10, Old: "000", New: "111"},
		{Rule: "second", Offset: 12, Old: "11", New: "22", Overwrites: "first"},
	}
	if diff := cmp.Diff(want, out.Changes); diff != "" {
		t.Fatalf("changes mismatch (-want +got):\n%s", diff)
	}
	require.Equal(t, "122", get(t, rec, 10, 3))
}

func TestProcess_LaterRuleSeesEarlierWrites(t *testing.T) {
	rs := mustRules(t,
		rules.Definition{Name: "set", Conditions: "2:k", Updates: "20:on"},
		rules.Definition{Name: "chain", Conditions: "20:on", Updates: "30:!"},
	)
	e := newEngine(t, rs)
	rec := mkRecord(t, 1300, '2', map[int]string{2: "k"})

	out, err := e.Process(rec)
	require.NoError(t, err)
	require.Equal(t, []string{"set", "chain"}, out.Fired)
}

func TestProcess_LossyOldValue(t *testing.T) {
	rs := mustRules(t, rules.Definition{Name: "fix", Conditions: "2:k", Updates: "10:7"})
	e := newEngine(t, rs)
	rec := mkRecord(t, 1300, '2', map[int]string{2: "k"})
	rec[9], rec[10] = 0xDC, 0x00 // lone low surrogate

	out, err := e.Process(rec)
	require.NoError(t, err)
	require.Len(t, out.Changes, 1)
	require.True(t, out.Changes[0].Lossy)
	require.Equal(t, codec.Replacement, out.Changes[0].Old)
	require.Equal(t, "7", get(t, rec, 10, 1))
}

func TestProcess_WrongRecordSize(t *testing.T) {
	e := newEngine(t, referenceRules(t))
	_, err := e.Process(make([]byte, 10))
	require.ErrorIs(t, err, format.ErrRecordSize)
}

func TestNew_WindowOutsideRecordIsFatal(t *testing.T) {
	rs := mustRules(t, rules.Definition{Name: "far", Conditions: "1299:12", Updates: "2:1"})
	_, err := New(format.DefaultSettings(), rs, nil)
	require.Error(t, err)
	require.True(t, format.IsFatal(err))
	require.ErrorIs(t, err, format.ErrWindowOutOfRange)
}

func TestNew_InvalidSettingsIsFatal(t *testing.T) {
	s := format.DefaultSettings()
	s.RecordSize = -1
	_, err := New(s, referenceRules(t), nil)
	require.True(t, format.IsFatal(err))
	require.ErrorIs(t, err, format.ErrInvalidSettings)
}

func TestNew_EmptyRuleSet(t *testing.T) {
	e, err := New(format.DefaultSettings(), nil, nil)
	require.NoError(t, err)
	rec := mkRecord(t, 1300, '2', nil)
	out, err := e.Process(rec)
	require.NoError(t, err)
	require.False(t, out.Modified())
	require.Empty(t, e.Hits())
}

func TestEvaluate_Stateless(t *testing.T) {
	rs := referenceRules(t)
	rec := mkRecord(t, 1300, '2', map[int]string{234: "99", 300: "00"})

	changes, fired := Evaluate(rec, rs, codec.Codec{})
	require.Equal(t, []string{"Rule-2"}, fired)
	require.Equal(t, []Change{{Rule: "Rule-2", Offset: 300, Old: "00", New: "77"}}, changes)
	require.Equal(t, "77", get(t, rec, 300, 2))

	// Evaluate ignores the marker byte.
	rec2 := mkRecord(t, 1300, '1', map[int]string{234: "99"})
	_, fired = Evaluate(rec2, rs, codec.Codec{})
	require.Equal(t, []string{"Rule-2"}, fired)
}

func TestEvaluate_NilDecoderUsesCodec(t *testing.T) {
	rec := mkRecord(t, 1300, '2', map[int]string{50: "02", 78: "534", 70: "000"})
	changes, fired := Evaluate(rec, referenceRules(t), nil)
	require.Equal(t, []string{"Rule-1"}, fired)
	require.Equal(t, []Change{{Rule: "Rule-1", Offset: 70, Old: "000", New: "056"}}, changes)
	require.Equal(t, "056", get(t, rec, 70, 3))
}

func TestEvaluate_NoMatchReturnsNil(t *testing.T) {
	rec := mkRecord(t, 1300, '2', nil)
	changes, fired := Evaluate(rec, referenceRules(t), codec.Codec{})
	require.Nil(t, changes)
	require.Nil(t, fired)
}

func TestRegionOverlaps(t *testing.T) {
	a := Region{Start: 10, End: 16}
	require.True(t, a.Overlaps(Region{Start: 15, End: 20}))
	require.True(t, a.Overlaps(Region{Start: 0, End: 11}))
	require.False(t, a.Overlaps(Region{Start: 16, End: 20}))
	require.False(t, a.Overlaps(Region{Start: 0, End: 10}))
	require.Equal(t, 6, a.Size())
}
