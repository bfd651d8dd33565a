package observability_test

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/jidogo/runtime/observability"
)

// tagObserver appends its tag to a shared log on every event, so tests
// can assert both delivery and ordering.
type tagObserver struct {
	tag string
	mu  *sync.Mutex
	log *[]string
}

func (o tagObserver) OnEvent(ctx context.Context, event observability.Event) {
	o.mu.Lock()
	defer o.mu.Unlock()
	*o.log = append(*o.log, o.tag+":"+string(event.Type))
}

func TestLevelSeverityText(t *testing.T) {
	cases := []struct {
		level observability.Level
		want  string
	}{
		{1, "TRACE"},
		{4, "TRACE"},
		{observability.LevelVerbose, "DEBUG"},
		{8, "DEBUG"},
		{observability.LevelInfo, "INFO"},
		{12, "INFO"},
		{observability.LevelWarning, "WARN"},
		{observability.LevelError, "ERROR"},
		{20, "ERROR"},
		{21, "FATAL"},
	}
	for _, tc := range cases {
		if got := tc.level.String(); got != tc.want {
			t.Errorf("Level(%d).String() = %q, want %q", tc.level, got, tc.want)
		}
	}
}

func TestLevelSlogLevel(t *testing.T) {
	cases := []struct {
		level observability.Level
		want  slog.Level
	}{
		{1, slog.LevelDebug},
		{observability.LevelVerbose, slog.LevelDebug},
		{observability.LevelInfo, slog.LevelInfo},
		{observability.LevelWarning, slog.LevelWarn},
		{observability.LevelError, slog.LevelError},
		{25, slog.LevelError},
	}
	for _, tc := range cases {
		if got := tc.level.SlogLevel(); got != tc.want {
			t.Errorf("Level(%d).SlogLevel() = %v, want %v", tc.level, got, tc.want)
		}
	}
}

func TestLevelOTelAlignment(t *testing.T) {
	// Each constant must sit at the bottom of its OTel SeverityNumber
	// range so events feed an OTel pipeline without translation.
	want := map[observability.Level]int{
		observability.LevelVerbose: 5,
		observability.LevelInfo:    9,
		observability.LevelWarning: 13,
		observability.LevelError:   17,
	}
	for level, n := range want {
		if int(level) != n {
			t.Errorf("Level %s = %d, want %d", level, int(level), n)
		}
	}
}

func TestSlogObserverWritesTypeSourceAndData(t *testing.T) {
	var buf bytes.Buffer
	obs := observability.NewSlogObserver(slog.New(slog.NewJSONHandler(&buf, nil)))

	obs.OnEvent(context.Background(), observability.Event{
		Type:      "workflow.run.start",
		Level:     observability.LevelInfo,
		Timestamp: time.Now(),
		Source:    "workflow.Run",
		Data:      map[string]any{"queue_length": 3},
	})

	out := buf.String()
	for _, want := range []string{"workflow.run.start", `"source":"workflow.Run"`, `"queue_length":3`} {
		if !strings.Contains(out, want) {
			t.Errorf("log output missing %q: %s", want, out)
		}
	}
}

func TestSlogObserverHonorsHandlerLevel(t *testing.T) {
	var buf bytes.Buffer
	handler := slog.NewJSONHandler(&buf, &slog.HandlerOptions{Level: slog.LevelWarn})
	obs := observability.NewSlogObserver(slog.New(handler))

	obs.OnEvent(context.Background(), observability.Event{Type: "quiet", Level: observability.LevelVerbose})
	if buf.Len() != 0 {
		t.Errorf("verbose event logged through a warn-level handler: %s", buf.String())
	}

	obs.OnEvent(context.Background(), observability.Event{Type: "loud", Level: observability.LevelError})
	if !strings.Contains(buf.String(), "loud") {
		t.Errorf("error event not logged through a warn-level handler: %s", buf.String())
	}
}

func TestMultiObserverFanOutInOrder(t *testing.T) {
	var mu sync.Mutex
	var log []string

	multi := observability.NewMultiObserver(
		tagObserver{tag: "a", mu: &mu, log: &log},
		nil,
		tagObserver{tag: "b", mu: &mu, log: &log},
	)

	multi.OnEvent(context.Background(), observability.Event{Type: "ev", Level: observability.LevelInfo})

	if len(log) != 2 || log[0] != "a:ev" || log[1] != "b:ev" {
		t.Errorf("log = %v, want [a:ev b:ev] (nil observers skipped, order kept)", log)
	}
}

func TestNoOpObserverImplementsObserver(t *testing.T) {
	var obs observability.Observer = observability.NoOpObserver{}
	obs.OnEvent(context.Background(), observability.Event{Type: "dropped"})
}

func TestGetObserverDefaults(t *testing.T) {
	for _, name := range []string{"noop", "slog", "otel"} {
		obs, err := observability.GetObserver(name)
		if err != nil {
			t.Errorf("GetObserver(%q) error = %v", name, err)
		}
		if obs == nil {
			t.Errorf("GetObserver(%q) = nil", name)
		}
	}

	_, err := observability.GetObserver("nonexistent")
	if !errors.Is(err, observability.ErrObserverNotFound) {
		t.Errorf("GetObserver(nonexistent) error = %v, want ErrObserverNotFound", err)
	}
}

func TestRegisterObserverReplaces(t *testing.T) {
	var mu sync.Mutex
	var log []string

	observability.RegisterObserver("test-replace", tagObserver{tag: "old", mu: &mu, log: &log})
	observability.RegisterObserver("test-replace", tagObserver{tag: "new", mu: &mu, log: &log})

	obs, err := observability.GetObserver("test-replace")
	if err != nil {
		t.Fatalf("GetObserver() error = %v", err)
	}
	obs.OnEvent(context.Background(), observability.Event{Type: "ev"})

	if len(log) != 1 || log[0] != "new:ev" {
		t.Errorf("log = %v, want [new:ev] (later registration wins)", log)
	}
}
