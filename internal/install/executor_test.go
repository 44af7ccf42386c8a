package install

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func TestExecuteRunsStepsInOrder(t *testing.T) {
	dir := t.TempDir()
	var ran []string

	runner := NewExecutor(
		WithRunFunc(func(_ context.Context, argv []string) error {
			ran = append(ran, "run:"+strings.Join(argv, " "))
			return nil
		}),
		WithFetchFunc(func(_ context.Context, url string) ([]byte, error) {
			ran = append(ran, "fetch:"+url)
			return []byte("key material"), nil
		}),
	)

	plan := InstallPlan{Steps: []Step{
		{ID: "fetch_key", Title: "fetch key", Fetch: &FileFetch{URL: "https://example.test/key.asc", Path: filepath.Join(dir, "keyrings", "zabbly.asc")}},
		{ID: "write_sources", Title: "write sources", File: &FileWrite{Path: filepath.Join(dir, "sources.list.d", "zabbly.sources"), Content: "Enabled: yes\n"}},
		{ID: "apt_update", Title: "update", Run: []string{"apt", "update"}},
	}}

	if err := runner.Execute(context.Background(), plan); err != nil {
		t.Fatalf("Execute: %v", err)
	}

	wantOrder := []string{"fetch:https://example.test/key.asc", "run:apt update"}
	if strings.Join(ran, ";") != strings.Join(wantOrder, ";") {
		t.Fatalf("calls = %v, want %v", ran, wantOrder)
	}

	key, err := os.ReadFile(filepath.Join(dir, "keyrings", "zabbly.asc"))
	if err != nil {
		t.Fatalf("fetched file missing: %v", err)
	}
	if string(key) != "key material" {
		t.Fatalf("fetched content = %q", key)
	}
	sources, err := os.ReadFile(filepath.Join(dir, "sources.list.d", "zabbly.sources"))
	if err != nil {
		t.Fatalf("written file missing: %v", err)
	}
	if string(sources) != "Enabled: yes\n" {
		t.Fatalf("written content = %q", sources)
	}
}

func TestExecuteStopsAtFirstFailure(t *testing.T) {
	boom := errors.New("apt broke")
	var ran []string

	runner := NewExecutor(WithRunFunc(func(_ context.Context, argv []string) error {
		ran = append(ran, strings.Join(argv, " "))
		if argv[0] == "apt" && argv[1] == "update" {
			return boom
		}
		return nil
	}))

	plan := InstallPlan{Steps: []Step{
		{ID: "apt_update", Title: "update", Run: []string{"apt", "update"}},
		{ID: "apt_install", Title: "install", Run: []string{"apt", "install", "-y", "incus"}},
	}}

	err := runner.Execute(context.Background(), plan)
	var stepErr *StepError
	if !errors.As(err, &stepErr) {
		t.Fatalf("error = %v, want *StepError", err)
	}
	if stepErr.StepID != "apt_update" {
		t.Fatalf("failed step = %q, want apt_update", stepErr.StepID)
	}
	if !errors.Is(err, boom) {
		t.Fatalf("step error does not wrap cause: %v", err)
	}
	if len(ran) != 1 {
		t.Fatalf("later steps ran after failure: %v", ran)
	}
}

func TestExecuteEmitsStepSpans(t *testing.T) {
	recorder := tracetest.NewSpanRecorder()
	provider := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))

	runner := NewExecutor(
		WithTracer(provider.Tracer("executor-test")),
		WithRunFunc(func(context.Context, []string) error { return nil }),
	)
	plan := InstallPlan{Steps: []Step{
		{ID: "apt_update", Title: "update", Run: []string{"apt", "update"}},
		{ID: "apt_install", Title: "install", Run: []string{"apt", "install", "-y", "incus"}},
	}}

	if err := runner.Execute(context.Background(), plan); err != nil {
		t.Fatalf("Execute: %v", err)
	}

	spans := recorder.Ended()
	// One span per step plus the root operation span.
	if len(spans) != 3 {
		t.Fatalf("span count = %d, want 3", len(spans))
	}
	names := make(map[string]bool, len(spans))
	for _, s := range spans {
		names[s.Name()] = true
	}
	for _, want := range []string{"install", "apt_update", "apt_install"} {
		if !names[want] {
			t.Fatalf("missing span %q in %v", want, names)
		}
	}
}
