package pipeline

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/JakeFAU/jobboard-harvester/internal/discovery"
	"github.com/JakeFAU/jobboard-harvester/internal/dispatcher"
	"github.com/JakeFAU/jobboard-harvester/internal/extract"
	collyfetcher "github.com/JakeFAU/jobboard-harvester/internal/fetcher/colly"
	"github.com/JakeFAU/jobboard-harvester/internal/fixture"
	"github.com/JakeFAU/jobboard-harvester/internal/listing"
	"github.com/JakeFAU/jobboard-harvester/internal/output"
	"github.com/JakeFAU/jobboard-harvester/internal/progress"
	"github.com/JakeFAU/jobboard-harvester/internal/worker"
)

// newBoard serves two index pages of three listings each; /oferta/5 is gone.
func newBoard(t *testing.T) *httptest.Server {
	t.Helper()

	mux := http.NewServeMux()
	mux.HandleFunc("/ofertas-trabajo/", func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Query().Get("pagina") {
		case "1":
			fmt.Fprint(w, fixture.IndexHTML("/oferta/1", "/oferta/2", "/oferta/3"))
		case "2":
			fmt.Fprint(w, fixture.IndexHTML("/oferta/4", "/oferta/5", "/oferta/1"))
		default:
			http.NotFound(w, r)
		}
	})
	mux.HandleFunc("/oferta/", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/oferta/5" {
			http.NotFound(w, r)
			return
		}
		fmt.Fprint(w, fixture.ListingHTML(fixture.Listing{
			Title:      "Oferta " + r.URL.Path,
			CVCaption:  "CVs inscritos en el proceso: 12",
			Location:   "Madrid",
			Experience: "Más de 5 años",
			Salary:     "30.000€ - 45.000€",
			Paragraphs: []string{"Equipo", "remoto"},
		}))
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func newDriver(srv *httptest.Server, events progress.Emitter, runID uuid.UUID) *Driver {
	fetcher := collyfetcher.New(collyfetcher.Config{UserAgent: "harvester-test"})
	disp := dispatcher.New(
		worker.New(fetcher, extract.New(extract.DefaultSelectors()), zap.NewNop()),
		dispatcher.Config{Concurrency: 3},
		dispatcher.WithEvents(progress.UUIDToBytes(runID), events),
	)
	return New(
		discovery.New(fetcher, "", zap.NewNop()),
		disp,
		Config{BaseURL: srv.URL + "/ofertas-trabajo/", PageParam: "pagina"},
		WithRunID(runID),
		WithEvents(events),
	)
}

func TestDriverRunEndToEnd(t *testing.T) {
	t.Parallel()

	srv := newBoard(t)
	events := &recordingEmitter{}
	runID := uuid.New()
	driver := newDriver(srv, events, runID)

	var buf bytes.Buffer
	sink, err := output.NewCSVWriter(&buf)
	require.NoError(t, err)

	summary, err := driver.Run(context.Background(), 1, 2, sink)
	require.NoError(t, err)
	require.NoError(t, sink.Close())

	require.Equal(t, runID.String(), summary.RunID)
	require.Equal(t, 6, summary.Links)
	require.Equal(t, 6, summary.Records)
	require.Equal(t, 1, summary.Unavailable)
	require.Equal(t, progress.Snapshot{Total: 6, Completed: 6, Unavailable: 1}, driver.Progress())

	rows, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 7)
	require.Equal(t, listing.Columns, rows[0])

	var links []string
	unavailable := 0
	for _, row := range rows[1:] {
		links = append(links, row[1])
		if row[0] == listing.UnavailableTitle {
			unavailable++
			require.Equal(t, srv.URL+"/oferta/5", row[1])
			require.Equal(t, []string{"", "", "", "", "", "", "", "", ""}, row[2:])
			continue
		}
		require.Equal(t, "Oferta "+row[1][len(srv.URL):], row[0])
		require.Equal(t, []string{"12", "Madrid", "", "", "5", "", "30000", "45000", "Equipo remoto"}, row[2:])
	}
	require.Equal(t, 1, unavailable)

	sort.Strings(links)
	want := []string{
		srv.URL + "/oferta/1", srv.URL + "/oferta/1", srv.URL + "/oferta/2",
		srv.URL + "/oferta/3", srv.URL + "/oferta/4", srv.URL + "/oferta/5",
	}
	require.Equal(t, want, links)

	require.Equal(t, 1, events.count(progress.StageRunStart))
	require.Equal(t, 2, events.count(progress.StageIndexDone))
	require.Equal(t, 6, events.count(progress.StageListingDone))
	require.Equal(t, 1, events.count(progress.StageRunDone))
}

func TestDriverRunStartPageWindow(t *testing.T) {
	t.Parallel()

	links := &stubLinks{pages: map[string][]string{}}
	disp := &stubDispatcher{}
	d := New(links, disp, Config{BaseURL: "https://board.test/ofertas/", PageParam: "pagina"})

	summary, err := d.Run(context.Background(), 3, 2, &discardWriter{})
	require.NoError(t, err)
	require.Equal(t, 3, summary.StartPage)
	require.Equal(t, []string{
		"https://board.test/ofertas/?pagina=3",
		"https://board.test/ofertas/?pagina=4",
	}, links.visited)
}

func TestDriverRunZeroPages(t *testing.T) {
	t.Parallel()

	links := &stubLinks{}
	disp := &stubDispatcher{}
	d := New(links, disp, Config{BaseURL: "https://board.test/", PageParam: "pagina"})

	summary, err := d.Run(context.Background(), 1, 0, &discardWriter{})
	require.NoError(t, err)
	require.Zero(t, summary.Records)
	require.Empty(t, links.visited)
	require.Equal(t, 1, disp.calls)
}

func TestDriverRunRejectsBadWindow(t *testing.T) {
	t.Parallel()

	d := New(&stubLinks{}, &stubDispatcher{}, Config{BaseURL: "https://board.test/", PageParam: "pagina"})
	_, err := d.Run(context.Background(), 0, 1, &discardWriter{})
	require.ErrorContains(t, err, "start page must be >= 1")
	_, err = d.Run(context.Background(), 1, -1, &discardWriter{})
	require.ErrorContains(t, err, "page count must be >= 0")
}

func TestDriverRunDispatchFailure(t *testing.T) {
	t.Parallel()

	boom := errors.New("disk full")
	events := &recordingEmitter{}
	d := New(&stubLinks{}, &stubDispatcher{err: boom}, Config{BaseURL: "https://board.test/", PageParam: "pagina"},
		WithEvents(events))

	_, err := d.Run(context.Background(), 1, 1, &discardWriter{})
	require.ErrorIs(t, err, boom)
	require.Equal(t, 1, events.count(progress.StageRunError))
	require.Zero(t, events.count(progress.StageRunDone))
}

func TestDriverRunCanceled(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	d := New(&stubLinks{}, &stubDispatcher{}, Config{BaseURL: "https://board.test/", PageParam: "pagina"})
	_, err := d.Run(ctx, 1, 3, &discardWriter{})
	require.ErrorIs(t, err, context.Canceled)
}

type stubLinks struct {
	pages   map[string][]string
	visited []string
}

func (s *stubLinks) Links(_ context.Context, indexURL string) []string {
	s.visited = append(s.visited, indexURL)
	return s.pages[indexURL]
}

type stubDispatcher struct {
	calls int
	err   error
}

func (s *stubDispatcher) RunAll(ctx context.Context, urls []string, emit dispatcher.EmitFunc) (dispatcher.Summary, error) {
	s.calls++
	if s.err != nil {
		return dispatcher.Summary{Total: len(urls)}, s.err
	}
	for _, u := range urls {
		if err := emit(ctx, listing.Unavailable(u)); err != nil {
			return dispatcher.Summary{}, err
		}
	}
	return dispatcher.Summary{Total: len(urls), Completed: len(urls), Unavailable: len(urls)}, nil
}

func (s *stubDispatcher) Progress() progress.Snapshot {
	return progress.Snapshot{}
}

type discardWriter struct{}

func (discardWriter) WriteRow(context.Context, listing.Record) error { return nil }
func (discardWriter) Close() error { return nil }

type recordingEmitter struct {
	mu     sync.Mutex
	events []progress.Event
}

func (r *recordingEmitter) Emit(evt progress.Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, evt)
}

func (r *recordingEmitter) count(stage progress.Stage) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, evt := range r.events {
		if evt.Stage == stage {
			n++
		}
	}
	return n
}

type fixedClock struct{ t time.Time }

func (c fixedClock) Now() time.Time { return c.t }

func TestDriverRunUsesClock(t *testing.T) {
	t.Parallel()

	at := time.Date(2026, 10, 19, 9, 30, 0, 0, time.UTC)
	d := New(&stubLinks{}, &stubDispatcher{}, Config{BaseURL: "https://board.test/", PageParam: "pagina"},
		WithClock(fixedClock{t: at}))

	summary, err := d.Run(context.Background(), 1, 0, &discardWriter{})
	require.NoError(t, err)
	require.Equal(t, at, summary.StartedAt)
	require.Equal(t, at, summary.FinishedAt)
	require.Zero(t, summary.Duration())
}
