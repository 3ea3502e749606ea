package engine

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/daryltucker/afdb-filter/internal/config"
	"github.com/daryltucker/afdb-filter/internal/confidence"
	"github.com/daryltucker/afdb-filter/internal/model"
	"github.com/daryltucker/afdb-filter/internal/structure"
	"github.com/daryltucker/afdb-filter/internal/testutil"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func modelEntry(t *testing.T, key string, pts []testutil.Point) testutil.Entry {
	t.Helper()
	return testutil.Entry{Name: key + "-model_v4.cif.gz", Body: testutil.Gzip(t, testutil.CIF(pts))}
}

func confEntry(t *testing.T, key string, scores []float64) testutil.Entry {
	t.Helper()
	return testutil.Entry{Name: key + "-confidence_v4.json.gz", Body: testutil.Gzip(t, testutil.Confidence(scores))}
}

func testProcessor(t *testing.T) *Processor {
	t.Helper()
	return NewProcessor(config.DefaultConfig())
}

// Three complete pairs: two pass both gates, one fails confidence.
func threePairArchive(t *testing.T, dir, name string) string {
	t.Helper()
	return testutil.WriteTar(t, dir, name, []testutil.Entry{
		modelEntry(t, "AF-P1-F1", testutil.Tetrahedron()),
		confEntry(t, "AF-P2-F1", []float64{0.2, 0.3}),
		confEntry(t, "AF-P1-F1", []float64{0.9, 0.8}),
		modelEntry(t, "AF-P2-F1", testutil.Tetrahedron()),
		modelEntry(t, "AF-P3-F1", testutil.Tetrahedron()),
		confEntry(t, "AF-P3-F1", []float64{0.75}),
	})
}

func TestProcessCountsAcceptedAndTotal(t *testing.T) {
	path := threePairArchive(t, t.TempDir(), "a.tar")
	res, err := testProcessor(t).Process(context.Background(), path)
	require.NoError(t, err)
	assert.Equal(t, 2, res.Accepted)
	assert.Equal(t, 3, res.Total)
	assert.Equal(t, 1, res.RejectedConfidence)
	assert.Zero(t, res.DecodeErrors)
}

func TestProcessRejectsGeometry(t *testing.T) {
	path := testutil.WriteTar(t, t.TempDir(), "a.tar", []testutil.Entry{
		modelEntry(t, "AF-X-F1", testutil.ExtendedChain(30)),
		confEntry(t, "AF-X-F1", []float64{0.95}),
	})
	res, err := testProcessor(t).Process(context.Background(), path)
	require.NoError(t, err)
	assert.Equal(t, model.ArchiveResult{Total: 1, RejectedGeometry: 1}, res)
}

func TestProcessMalformedConfidenceContinues(t *testing.T) {
	path := testutil.WriteTar(t, t.TempDir(), "a.tar", []testutil.Entry{
		modelEntry(t, "AF-BAD-F1", testutil.Tetrahedron()),
		{Name: "AF-BAD-F1-confidence_v4.json.gz", Body: []byte("not gzip at all")},
		modelEntry(t, "AF-OK-F1", testutil.Tetrahedron()),
		confEntry(t, "AF-OK-F1", []float64{0.9}),
	})
	res, err := testProcessor(t).Process(context.Background(), path)
	require.NoError(t, err)
	assert.Equal(t, 1, res.Accepted)
	assert.Equal(t, 2, res.Total)
	assert.Equal(t, 1, res.DecodeErrors)
	assert.Equal(t, 1, res.RejectedConfidence)
}

func TestProcessMalformedModelRejects(t *testing.T) {
	path := testutil.WriteTar(t, t.TempDir(), "a.tar", []testutil.Entry{
		{Name: "AF-M-F1-model_v4.cif.gz", Body: testutil.Gzip(t, "this is not mmcif\n")},
		confEntry(t, "AF-M-F1", []float64{0.9}),
	})
	res, err := testProcessor(t).Process(context.Background(), path)
	require.NoError(t, err)
	assert.Equal(t, model.ArchiveResult{Total: 1, RejectedGeometry: 1, DecodeErrors: 1}, res)
}

func TestProcessIncompletePair(t *testing.T) {
	path := testutil.WriteTar(t, t.TempDir(), "a.tar", []testutil.Entry{
		modelEntry(t, "AF-LONE-F1", testutil.Tetrahedron()),
		confEntry(t, "AF-ORPHAN-F1", []float64{0.9}),
		{Name: "README.txt", Body: []byte("ignored")},
	})
	res, err := testProcessor(t).Process(context.Background(), path)
	require.NoError(t, err)
	assert.Equal(t, model.ArchiveResult{Total: 2, Incomplete: 2}, res)
}

func TestProcessEmptyConfidencePasses(t *testing.T) {
	path := testutil.WriteTar(t, t.TempDir(), "a.tar", []testutil.Entry{
		modelEntry(t, "AF-E-F1", testutil.Tetrahedron()),
		confEntry(t, "AF-E-F1", []float64{}),
	})
	res, err := testProcessor(t).Process(context.Background(), path)
	require.NoError(t, err)
	assert.Equal(t, model.ArchiveResult{Accepted: 1, Total: 1}, res)
}

func TestProcessEmptyArchive(t *testing.T) {
	path := testutil.WriteTar(t, t.TempDir(), "empty.tar", nil)
	res, err := testProcessor(t).Process(context.Background(), path)
	require.NoError(t, err)
	assert.Equal(t, model.ArchiveResult{}, res)
}

func TestProcessMissingArchive(t *testing.T) {
	res, err := testProcessor(t).Process(context.Background(), filepath.Join(t.TempDir(), "nope.tar"))
	require.ErrorIs(t, err, ErrIO)
	assert.Equal(t, model.ArchiveResult{}, res)
	assert.Equal(t, CodeIO, Classify(err))
}

func TestProcessNotATar(t *testing.T) {
	path := filepath.Join(t.TempDir(), "junk.tar")
	require.NoError(t, os.WriteFile(path, []byte(strings.Repeat("garbage!", 200)), 0o644))
	_, err := testProcessor(t).Process(context.Background(), path)
	assert.ErrorIs(t, err, ErrIO)
}

func TestProcessCancelled(t *testing.T) {
	path := threePairArchive(t, t.TempDir(), "a.tar")
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	res, err := testProcessor(t).Process(ctx, path)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, model.ArchiveResult{}, res)
}

func TestClassify(t *testing.T) {
	cases := []struct {
		err  error
		want Code
	}{
		{nil, CodeUnknown},
		{errors.New("boom"), CodeUnknown},
		{fmt.Errorf("wrap: %w", ErrIO), CodeIO},
		{&os.PathError{Op: "open", Path: "x", Err: os.ErrNotExist}, CodeIO},
		{ErrIncompletePair, CodeIncomplete},
		{fmt.Errorf("%w: x", ErrPanic), CodePanic},
		{context.DeadlineExceeded, CodeCancel},
		{&DecodeError{Key: "k", Role: model.RoleConfidence, Err: confidence.ErrCompression}, CodeCompression},
		{&DecodeError{Key: "k", Role: model.RoleModel, Err: structure.ErrFormat}, CodeFormat},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, Classify(tc.err), "%v", tc.err)
	}
}

func TestDecodeErrorMessage(t *testing.T) {
	err := &DecodeError{Key: "AF-P1-F1", Role: model.RoleModel, Err: structure.ErrFormat}
	assert.Contains(t, err.Error(), "AF-P1-F1 model")
	assert.Equal(t, CodeFormat, err.Kind())
}

type memReport struct {
	rows   []model.ArchiveReport
	closed bool
}

func (m *memReport) Write(r model.ArchiveReport) error {
	m.rows = append(m.rows, r)
	return nil
}

func (m *memReport) Close() error {
	m.closed = true
	return nil
}

// fakeProcess maps archive names to canned results.
func fakeProcess(results map[string]model.ArchiveResult) ProcessFunc {
	return func(_ context.Context, path string) (model.ArchiveResult, error) {
		r, ok := results[path]
		if !ok {
			return model.ArchiveResult{}, fmt.Errorf("%w: %s", ErrIO, path)
		}
		return r, nil
	}
}

func TestFleetSumIsOrderAndWorkerIndependent(t *testing.T) {
	results := map[string]model.ArchiveResult{}
	var archives []string
	for i := 0; i < 50; i++ {
		name := fmt.Sprintf("a%02d.tar", i)
		archives = append(archives, name)
		results[name] = model.ArchiveResult{Accepted: i % 5, Total: i%5 + i%3, RejectedGeometry: i % 3}
	}
	archives = append(archives, "missing.tar")

	base := (&Fleet{Process: fakeProcess(results), Workers: 1}).Run(context.Background(), archives)
	assert.Equal(t, 51, base.Archives)
	assert.Equal(t, 1, base.ArchivesFailed)

	rng := rand.New(rand.NewSource(7))
	for _, n := range []int{2, 4, 16} {
		shuffled := append([]string(nil), archives...)
		rng.Shuffle(len(shuffled), func(i, j int) { shuffled[i], shuffled[j] = shuffled[j], shuffled[i] })
		got := (&Fleet{Process: fakeProcess(results), Workers: n}).Run(context.Background(), shuffled)
		if diff := cmp.Diff(base, got); diff != "" {
			t.Errorf("workers=%d mismatch (-want +got):\n%s", n, diff)
		}
	}

	// Two halves add up to the same totals as one pass.
	left := (&Fleet{Process: fakeProcess(results), Workers: 3}).Run(context.Background(), archives[:20])
	right := (&Fleet{Process: fakeProcess(results), Workers: 3}).Run(context.Background(), archives[20:])
	assert.Equal(t, base.Archives, left.Archives+right.Archives)
	assert.Equal(t, base.ArchivesFailed, left.ArchivesFailed+right.ArchivesFailed)
	assert.Equal(t, base.Accepted, left.Accepted+right.Accepted)
	assert.Equal(t, base.Total, left.Total+right.Total)
	assert.Equal(t, base.RejectedGeometry, left.RejectedGeometry+right.RejectedGeometry)
}

func TestFleetIsolatesPanicsAndFailures(t *testing.T) {
	process := func(_ context.Context, path string) (model.ArchiveResult, error) {
		switch path {
		case "panic.tar":
			panic("corrupt state")
		case "bad.tar":
			return model.ArchiveResult{Accepted: 9, Total: 9}, fmt.Errorf("%w: bad", ErrIO)
		}
		return model.ArchiveResult{Accepted: 1, Total: 2}, nil
	}
	rep := &memReport{}
	got := (&Fleet{Process: process, Workers: 2, Reports: []ReportWriter{rep}}).Run(
		context.Background(), []string{"ok1.tar", "panic.tar", "bad.tar", "ok2.tar"})

	assert.Equal(t, 4, got.Archives)
	assert.Equal(t, 2, got.ArchivesFailed)
	assert.Equal(t, 2, got.Accepted)
	assert.Equal(t, 4, got.Total)

	require.Len(t, rep.rows, 4)
	sort.Slice(rep.rows, func(i, j int) bool { return rep.rows[i].Archive < rep.rows[j].Archive })
	assert.Equal(t, "panic.tar", rep.rows[3].Archive)
	assert.Contains(t, rep.rows[3].Error, "worker panic")
	assert.Equal(t, model.ArchiveResult{}, rep.rows[0].ArchiveResult) // bad.tar contributes nothing
}

func TestFleetTimeout(t *testing.T) {
	process := func(ctx context.Context, _ string) (model.ArchiveResult, error) {
		<-ctx.Done()
		return model.ArchiveResult{}, ctx.Err()
	}
	got := (&Fleet{Process: process, Workers: 2, Timeout: 10 * time.Millisecond}).Run(
		context.Background(), []string{"slow1.tar", "slow2.tar"})
	assert.Equal(t, 2, got.ArchivesFailed)
	_, ok := got.Ratio()
	assert.False(t, ok)
}

func TestFleetEmpty(t *testing.T) {
	got := (&Fleet{Process: fakeProcess(nil), Workers: 4}).Run(context.Background(), nil)
	assert.Equal(t, model.FleetResult{}, got)
}

func TestRunEndToEnd(t *testing.T) {
	dir := t.TempDir()
	a := threePairArchive(t, dir, "UP1.tar")
	b := testutil.WriteTar(t, dir, "UP2.tar", []testutil.Entry{
		modelEntry(t, "AF-Q1-F1", testutil.ExtendedChain(20)),
		confEntry(t, "AF-Q1-F1", []float64{0.9}),
	})
	missing := filepath.Join(dir, "UP3.tar")

	cfg := config.DefaultConfig()
	cfg.Workers = 2
	cfg.Progress = false
	cfg.ReportDir = filepath.Join(dir, "reports")

	got, err := Run(context.Background(), cfg, []string{a, b, missing})
	require.NoError(t, err)
	assert.Equal(t, 3, got.Archives)
	assert.Equal(t, 1, got.ArchivesFailed)
	assert.Equal(t, 2, got.Accepted)
	assert.Equal(t, 4, got.Total)
	assert.LessOrEqual(t, got.Accepted, got.Total)

	csvBody, err := os.ReadFile(filepath.Join(cfg.ReportDir, "archives.csv"))
	require.NoError(t, err)
	assert.Len(t, strings.Split(strings.TrimSpace(string(csvBody)), "\n"), 4)

	jsonBody, err := os.ReadFile(filepath.Join(cfg.ReportDir, "archives.jsonl"))
	require.NoError(t, err)
	assert.Equal(t, 3, strings.Count(string(jsonBody), "\n"))
	assert.Contains(t, string(jsonBody), "UP3.tar")
}

func TestCountMarker(t *testing.T) {
	dir := t.TempDir()
	a := threePairArchive(t, dir, "a.tar")
	b := testutil.WriteTar(t, dir, "b.tar", []testutil.Entry{
		confEntry(t, "AF-Z-F1", []float64{0.5}),
		{Name: "notes.txt", Body: []byte("x")},
	})
	got := CountMarker(context.Background(), []string{a, b, filepath.Join(dir, "gone.tar")}, "confidence", 2, nil)
	assert.Equal(t, model.CountResult{Archives: 3, Failed: 1, Matches: 4}, got)
}
