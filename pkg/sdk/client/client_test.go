package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"path/filepath"
	"sync"
	"testing"

	"incman/pkg/sdk/types"

	"github.com/containerd/errdefs"
)

// recordingHandler serves canned daemon responses and remembers the last
// request it saw.
type recordingHandler struct {
	mu sync.Mutex

	status int
	body   string

	lastMethod string
	lastPath   string
	lastBody   []byte
}

func (h *recordingHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	body, _ := io.ReadAll(r.Body)

	h.mu.Lock()
	h.lastMethod = r.Method
	h.lastPath = r.URL.Path
	h.lastBody = body
	h.mu.Unlock()

	w.WriteHeader(h.status)
	fmt.Fprint(w, h.body)
}

func (h *recordingHandler) last() (method, path string, body []byte) {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.lastMethod, h.lastPath, h.lastBody
}

func newTestClient(t *testing.T, h http.Handler) *Client {
	t.Helper()

	sock := filepath.Join(t.TempDir(), "incus.sock")
	ln, err := net.Listen("unix", sock)
	if err != nil {
		t.Fatalf("listen unix: %v", err)
	}
	srv := &http.Server{Handler: h}
	go srv.Serve(ln)
	t.Cleanup(func() { srv.Close() })

	c, err := New(sock)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	t.Cleanup(c.Close)
	return c
}

func TestListInstances(t *testing.T) {
	h := &recordingHandler{
		status: http.StatusOK,
		body:   `{"type":"sync","status":"Success","status_code":200,"metadata":["/1.0/instances/web","/1.0/instances/db"]}`,
	}
	c := newTestClient(t, h)

	names, err := c.ListInstances(context.Background())
	if err != nil {
		t.Fatalf("ListInstances: %v", err)
	}
	want := []string{"web", "db"}
	if len(names) != len(want) {
		t.Fatalf("names = %v, want %v", names, want)
	}
	for i := range want {
		if names[i] != want[i] {
			t.Fatalf("names = %v, want %v", names, want)
		}
	}

	method, path, _ := h.last()
	if method != http.MethodGet || path != "/1.0/instances" {
		t.Fatalf("request = %s %s, want GET /1.0/instances", method, path)
	}
}

func TestListInstancesEmptyMetadata(t *testing.T) {
	h := &recordingHandler{
		status: http.StatusOK,
		body:   `{"type":"sync","status":"Success","status_code":200}`,
	}
	c := newTestClient(t, h)

	names, err := c.ListInstances(context.Background())
	if err != nil {
		t.Fatalf("ListInstances: %v", err)
	}
	if len(names) != 0 {
		t.Fatalf("names = %v, want empty", names)
	}
}

func TestListInstancesDaemonError(t *testing.T) {
	h := &recordingHandler{
		status: http.StatusInternalServerError,
		body:   `{"type":"error","error":"daemon on fire","error_code":500}`,
	}
	c := newTestClient(t, h)

	_, err := c.ListInstances(context.Background())
	var derr *DaemonError
	if !errors.As(err, &derr) {
		t.Fatalf("error = %v, want *DaemonError", err)
	}
	if derr.StatusCode != http.StatusInternalServerError {
		t.Fatalf("StatusCode = %d, want 500", derr.StatusCode)
	}
	if !errdefs.IsInternal(err) {
		t.Fatalf("expected internal class, got %v", err)
	}
}

func TestInstanceState(t *testing.T) {
	cases := []struct {
		name   string
		status int
		body   string
		want   types.Status
	}{
		{"running", http.StatusOK, `{"metadata":{"status":"Running","status_code":103}}`, types.StatusRunning},
		{"stopped", http.StatusOK, `{"metadata":{"status":"Stopped","status_code":102}}`, types.StatusStopped},
		{"missing status field", http.StatusOK, `{"metadata":{"status_code":103}}`, types.StatusUnknown},
		{"no metadata", http.StatusOK, `{"type":"sync"}`, types.StatusUnknown},
		{"not found degrades", http.StatusNotFound, `{"type":"error","error":"not found"}`, types.StatusUnknown},
		{"server error degrades", http.StatusInternalServerError, ``, types.StatusUnknown},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			h := &recordingHandler{status: tc.status, body: tc.body}
			c := newTestClient(t, h)

			got, err := c.InstanceState(context.Background(), "web")
			if err != nil {
				t.Fatalf("InstanceState: %v", err)
			}
			if got != tc.want {
				t.Fatalf("state = %q, want %q", got, tc.want)
			}

			_, path, _ := h.last()
			if path != "/1.0/instances/web/state" {
				t.Fatalf("path = %s, want /1.0/instances/web/state", path)
			}
		})
	}
}

func TestSetInstanceState(t *testing.T) {
	h := &recordingHandler{
		status: http.StatusAccepted,
		body:   `{"type":"async","status":"Operation created","status_code":100}`,
	}
	c := newTestClient(t, h)

	if err := c.SetInstanceState(context.Background(), "web", types.ActionStop); err != nil {
		t.Fatalf("SetInstanceState: %v", err)
	}

	method, path, body := h.last()
	if method != http.MethodPut || path != "/1.0/instances/web/state" {
		t.Fatalf("request = %s %s, want PUT /1.0/instances/web/state", method, path)
	}
	var payload struct {
		Action string `json:"action"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		t.Fatalf("unmarshal request body: %v", err)
	}
	if payload.Action != "stop" {
		t.Fatalf("action = %q, want stop", payload.Action)
	}
}

func TestSetInstanceStateRejected(t *testing.T) {
	h := &recordingHandler{
		status: http.StatusForbidden,
		body:   `{"type":"error","error":"not authorized","error_code":403}`,
	}
	c := newTestClient(t, h)

	err := c.SetInstanceState(context.Background(), "web", types.ActionStart)
	var derr *DaemonError
	if !errors.As(err, &derr) {
		t.Fatalf("error = %v, want *DaemonError", err)
	}
	if !errdefs.IsPermissionDenied(err) {
		t.Fatalf("expected permission denied class, got %v", err)
	}
	if derr.Error() == "" {
		t.Fatal("empty error message")
	}
}

func TestTransportErrorOnDeadSocket(t *testing.T) {
	c, err := New(filepath.Join(t.TempDir(), "nope.sock"))
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	_, err = c.ListInstances(context.Background())
	var terr *TransportError
	if !errors.As(err, &terr) {
		t.Fatalf("error = %v, want *TransportError", err)
	}
	if !errdefs.IsUnavailable(err) {
		t.Fatalf("expected unavailable class, got %v", err)
	}
}

func TestDefaultSocketPath(t *testing.T) {
	t.Setenv("INCMAN_SOCKET", "")
	if got := DefaultSocketPath(); got != "/var/lib/incus/unix.socket" {
		t.Fatalf("DefaultSocketPath() = %q", got)
	}

	t.Setenv("INCMAN_SOCKET", "/tmp/alt.socket")
	if got := DefaultSocketPath(); got != "/tmp/alt.socket" {
		t.Fatalf("DefaultSocketPath() = %q, want override", got)
	}
}

func TestDaemonErrorMessage(t *testing.T) {
	err := &DaemonError{StatusCode: 404, Body: `{"type":"error","error":"instance not found"}`}
	if got, want := err.Error(), `daemon: instance not found (status 404)`; got != want {
		t.Fatalf("Error() = %q, want %q", got, want)
	}

	plain := &DaemonError{StatusCode: 500, Body: "boom"}
	if got, want := plain.Error(), "daemon: boom (status 500)"; got != want {
		t.Fatalf("Error() = %q, want %q", got, want)
	}
}
