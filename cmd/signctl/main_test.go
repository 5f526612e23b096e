package main

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

type recorded struct {
	method string
	path   string
	body   map[string]any
}

func newServer(t *testing.T, status int, reply string) (*httptest.Server, *[]recorded) {
	t.Helper()
	var calls []recorded
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rec := recorded{method: r.Method, path: r.URL.RequestURI()}
		if r.ContentLength > 0 {
			_ = json.NewDecoder(r.Body).Decode(&rec.body)
		}
		calls = append(calls, rec)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(reply))
	}))
	t.Cleanup(srv.Close)
	return srv, &calls
}

func TestCommandsHitExpectedRoutes(t *testing.T) {
	cases := []struct {
		args   []string
		method string
		path   string
	}{
		{[]string{"state"}, http.MethodGet, "/api/state"},
		{[]string{"clear"}, http.MethodPost, "/api/clear"},
		{[]string{"translate"}, http.MethodPost, "/api/translate"},
		{[]string{"letter", "A"}, http.MethodPost, "/api/letters"},
		{[]string{"detection", "off"}, http.MethodPut, "/api/detection"},
		{[]string{"camera", "on"}, http.MethodPut, "/api/camera"},
		{[]string{"events", "-limit", "5"}, http.MethodGet, "/api/events?limit=5"},
	}
	for _, tc := range cases {
		srv, calls := newServer(t, http.StatusOK, `{"ok":true}`)
		var stdout, stderr bytes.Buffer
		code := run(append([]string{"-addr", srv.URL}, tc.args...), &stdout, &stderr)
		if code != 0 {
			t.Fatalf("%v: exit %d, stderr %s", tc.args, code, stderr.String())
		}
		if len(*calls) != 1 || (*calls)[0].method != tc.method || (*calls)[0].path != tc.path {
			t.Fatalf("%v: unexpected calls %+v", tc.args, *calls)
		}
		if !strings.Contains(stdout.String(), `"ok": true`) {
			t.Fatalf("%v: expected indented output, got %s", tc.args, stdout.String())
		}
	}
}

func TestToggleSendsEnabledFlag(t *testing.T) {
	srv, calls := newServer(t, http.StatusOK, `{}`)
	var stdout, stderr bytes.Buffer
	if code := run([]string{"-addr", srv.URL, "detection", "off"}, &stdout, &stderr); code != 0 {
		t.Fatalf("exit %d: %s", code, stderr.String())
	}
	if enabled, ok := (*calls)[0].body["enabled"].(bool); !ok || enabled {
		t.Fatalf("expected enabled=false, got %+v", (*calls)[0].body)
	}
}

func TestServerErrorSurfaces(t *testing.T) {
	srv, _ := newServer(t, http.StatusConflict, `{"error":"translation already in progress"}`)
	var stdout, stderr bytes.Buffer
	if code := run([]string{"-addr", srv.URL, "translate"}, &stdout, &stderr); code != 1 {
		t.Fatalf("expected exit 1, got %d", code)
	}
	if !strings.Contains(stderr.String(), "already in progress") {
		t.Fatalf("expected server message, got %s", stderr.String())
	}
}

func TestUsageErrors(t *testing.T) {
	var stdout, stderr bytes.Buffer
	if code := run(nil, &stdout, &stderr); code != 2 {
		t.Fatalf("expected usage exit 2, got %d", code)
	}
	if code := run([]string{"camera", "maybe"}, &stdout, &stderr); code != 2 {
		t.Fatalf("expected exit 2 for bad switch, got %d", code)
	}
	if code := run([]string{"bogus"}, &stdout, &stderr); code != 2 {
		t.Fatalf("expected exit 2 for unknown command, got %d", code)
	}
}

func TestValidateConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sign.yaml")
	if err := os.WriteFile(path, []byte("camera:\n  mode: exec\n"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	var stdout, stderr bytes.Buffer
	if code := run([]string{"validate", "-file", path}, &stdout, &stderr); code != 1 {
		t.Fatalf("expected invalid config, got exit %d", code)
	}

	if err := os.WriteFile(path, []byte("recognition:\n  mode: mock\n"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	stdout.Reset()
	if code := run([]string{"validate", "-file", path}, &stdout, &stderr); code != 0 {
		t.Fatalf("expected valid config, got exit %d: %s", code, stderr.String())
	}
	if !strings.Contains(stdout.String(), "config valid") {
		t.Fatalf("unexpected output %s", stdout.String())
	}
}
