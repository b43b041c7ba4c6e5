package httpadapter

import (
	"bytes"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/kirillkom/safety-qa/internal/core/domain"
)

func capturedLogger() (*slog.Logger, *bytes.Buffer) {
	var buf bytes.Buffer
	return slog.New(slog.NewTextHandler(&buf, nil)), &buf
}

func TestRequestIDMiddlewareMintsAndEchoes(t *testing.T) {
	var seen string
	inner := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = requestIDFromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	})
	handler := requestIDMiddleware(inner)

	res := httptest.NewRecorder()
	handler.ServeHTTP(res, httptest.NewRequest(http.MethodGet, "/v1/index/status", nil))
	minted := res.Header().Get(requestIDHeader)
	if minted == "" || minted != seen {
		t.Fatalf("minted id %q, handler saw %q", minted, seen)
	}

	req := httptest.NewRequest(http.MethodGet, "/v1/index/status", nil)
	req.Header.Set(requestIDHeader, "loader-batch-7")
	res = httptest.NewRecorder()
	handler.ServeHTTP(res, req)
	if res.Header().Get(requestIDHeader) != "loader-batch-7" || seen != "loader-batch-7" {
		t.Fatalf("caller id not propagated: header %q, context %q", res.Header().Get(requestIDHeader), seen)
	}
}

func TestAccessLogCarriesRequestID(t *testing.T) {
	logger, buf := capturedLogger()
	rt := NewRouter("api-test", ingestorFake{}, askerFake{}, &indexFake{}, docsFake{}, nil, logger)

	handler := requestIDMiddleware(rt.accessLog(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})))

	req := httptest.NewRequest(http.MethodGet, "/v1/index/status", nil)
	req.Header.Set(requestIDHeader, "req-42")
	handler.ServeHTTP(httptest.NewRecorder(), req)

	line := buf.String()
	for _, want := range []string{"http_request", "request_id=req-42", "method=GET", "path=/v1/index/status", "status=200"} {
		if !strings.Contains(line, want) {
			t.Fatalf("access log missing %q: %s", want, line)
		}
	}
}

func TestServerErrorsLogWithRequestID(t *testing.T) {
	logger, buf := capturedLogger()
	embedDown := domain.WrapError(domain.ErrEmbeddingFailure, "ask", domain.ErrEmbeddingFailure)
	rt := NewRouter("api-test", ingestorFake{}, askerFake{err: embedDown}, &indexFake{}, docsFake{}, nil, logger)

	req := httptest.NewRequest(http.MethodPost, "/v1/ask", strings.NewReader(`{"q":"crane"}`))
	req.Header.Set(requestIDHeader, "req-err-1")
	res := httptest.NewRecorder()
	rt.Handler().ServeHTTP(res, req)

	if res.Code != http.StatusBadGateway {
		t.Fatalf("expected 502, got %d", res.Code)
	}
	line := buf.String()
	if !strings.Contains(line, "request failed") || !strings.Contains(line, "request_id=req-err-1") {
		t.Fatalf("server error not logged with request id: %s", line)
	}

	// 4xx stays out of the error log, only the access line records it.
	buf.Reset()
	res = httptest.NewRecorder()
	rt.Handler().ServeHTTP(res, httptest.NewRequest(http.MethodPost, "/v1/ask", strings.NewReader(`{"q":""}`)))
	if res.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", res.Code)
	}
	if strings.Contains(buf.String(), "request failed") {
		t.Fatalf("client error should not produce an error log: %s", buf.String())
	}
}
