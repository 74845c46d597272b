package httpclient

import (
	"bytes"
	"compress/gzip"
	"compress/zlib"
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/MinorTermite/prizmbet-v2/internal/pkg/apperrors"
	"github.com/MinorTermite/prizmbet-v2/internal/pkg/proxy"
	"github.com/andybalholm/brotli"
	"github.com/klauspost/compress/zstd"
)

func newTestClient() *Client {
	c := New(nil, nil, "", 5*time.Second)
	c.sleep = func(context.Context, time.Duration) error { return nil }
	return c
}

func TestGetRetriesTransient(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		w.Write([]byte("ok"))
	}))
	defer srv.Close()

	body, err := newTestClient().Get(context.Background(), srv.URL, Options{})
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if string(body) != "ok" {
		t.Errorf("body = %q, want ok", body)
	}
	if got := atomic.LoadInt32(&calls); got != 3 {
		t.Errorf("server hit %d times, want 3", got)
	}
}

func TestGetDoesNotRetryPermanent(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusForbidden)
	}))
	defer srv.Close()

	_, err := newTestClient().Get(context.Background(), srv.URL, Options{})
	if !errors.Is(err, apperrors.ErrPermanent) {
		t.Fatalf("err = %v, want ErrPermanent", err)
	}
	if got := atomic.LoadInt32(&calls); got != 1 {
		t.Errorf("server hit %d times, want 1 (no retry on 4xx)", got)
	}
}

func TestGetGivesUpAfterThreeAttempts(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	_, err := newTestClient().Get(context.Background(), srv.URL, Options{})
	if !errors.Is(err, apperrors.ErrTransient) {
		t.Fatalf("err = %v, want wrapped ErrTransient", err)
	}
	if got := atomic.LoadInt32(&calls); got != 3 {
		t.Errorf("server hit %d times, want 3", got)
	}
}

func TestGetQueryAndHeaders(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("apiKey") != "k" {
			t.Errorf("missing apiKey query, got %q", r.URL.RawQuery)
		}
		if r.Header.Get("X-Auth") != "secret" {
			t.Errorf("missing X-Auth header")
		}
		if r.Header.Get("User-Agent") == "" {
			t.Errorf("missing rotated User-Agent")
		}
		w.Write([]byte("{}"))
	}))
	defer srv.Close()

	opts := Options{Header: http.Header{"X-Auth": {"secret"}}}
	opts.Query = map[string][]string{"apiKey": {"k"}}
	if _, err := newTestClient().GetJSON(context.Background(), srv.URL, opts); err != nil {
		t.Fatal(err)
	}
}

func TestGetRefreshesExhaustedProxyPool(t *testing.T) {
	// The target doubles as the proxy: an HTTP proxy receives the request
	// verbatim, so the httptest handler answers either way.
	target := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	}))
	defer target.Close()

	var listFetches int32
	listSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&listFetches, 1)
		fmt.Fprintln(w, strings.TrimPrefix(target.URL, "http://"))
	}))
	defer listSrv.Close()

	mgr := proxy.NewManager([]string{listSrv.URL})
	mgr.Refresh(context.Background())
	proxyURL := mgr.Get()
	if proxyURL == "" {
		t.Fatal("expected a working proxy after the initial refresh")
	}
	mgr.MarkFailed(proxyURL)

	c := New(nil, mgr, "", 5*time.Second)
	c.sleep = func(context.Context, time.Duration) error { return nil }
	body, err := c.Get(context.Background(), target.URL, Options{})
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if string(body) != "ok" {
		t.Errorf("body = %q, want ok", body)
	}
	if got := atomic.LoadInt32(&listFetches); got != 2 {
		t.Errorf("list fetched %d times, want 2 (exhausted pool re-fetched)", got)
	}
	if got := mgr.Get(); got != proxyURL {
		t.Errorf("pool not repopulated: Get() = %q, want %q", got, proxyURL)
	}
}

func TestDecodeBodyByContentEncoding(t *testing.T) {
	const payload = `{"Success":true}`

	var br bytes.Buffer
	bw := brotli.NewWriter(&br)
	bw.Write([]byte(payload))
	bw.Close()

	var zs bytes.Buffer
	zw, err := zstd.NewWriter(&zs)
	if err != nil {
		t.Fatal(err)
	}
	zw.Write([]byte(payload))
	zw.Close()

	var gz bytes.Buffer
	gzw := gzip.NewWriter(&gz)
	gzw.Write([]byte(payload))
	gzw.Close()

	var df bytes.Buffer
	dw := zlib.NewWriter(&df)
	dw.Write([]byte(payload))
	dw.Close()

	tests := []struct {
		encoding string
		body     []byte
	}{
		{"br", br.Bytes()},
		{"zstd", zs.Bytes()},
		{"gzip", gz.Bytes()},
		{"deflate", df.Bytes()},
		{"", []byte(payload)},
		// Headerless gzip still gets sniffed by magic bytes.
		{"", gz.Bytes()},
	}
	for _, tt := range tests {
		out, err := decodeBody(tt.body, tt.encoding)
		if err != nil {
			t.Errorf("decodeBody(%q): %v", tt.encoding, err)
			continue
		}
		if string(out) != payload {
			t.Errorf("decodeBody(%q) = %q, want %q", tt.encoding, out, payload)
		}
	}
}

func TestGetDecodesBrotliResponse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Accept-Encoding"); got != "gzip, deflate, br, zstd" {
			t.Errorf("Accept-Encoding = %q, advertises more than the client decodes", got)
		}
		w.Header().Set("Content-Encoding", "br")
		bw := brotli.NewWriter(w)
		bw.Write([]byte(`{"ok":true}`))
		bw.Close()
	}))
	defer srv.Close()

	body, err := newTestClient().Get(context.Background(), srv.URL, Options{})
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if string(body) != `{"ok":true}` {
		t.Errorf("body = %q", body)
	}
}

func TestMaybeGunzip(t *testing.T) {
	var buf bytes.Buffer
	zw := gzip.NewWriter(&buf)
	zw.Write([]byte(`{"Success":true}`))
	zw.Close()

	out, err := maybeGunzip(buf.Bytes())
	if err != nil {
		t.Fatal(err)
	}
	if string(out) != `{"Success":true}` {
		t.Errorf("gunzip = %q", out)
	}

	plain, err := maybeGunzip([]byte("plain"))
	if err != nil || string(plain) != "plain" {
		t.Errorf("plain body mangled: %q, %v", plain, err)
	}
}

func TestClassifyStatus(t *testing.T) {
	tests := []struct {
		status int
		want   error
	}{
		{200, nil},
		{204, nil},
		{429, apperrors.ErrTransient},
		{500, apperrors.ErrTransient},
		{503, apperrors.ErrTransient},
		{400, apperrors.ErrPermanent},
		{401, apperrors.ErrPermanent},
		{404, apperrors.ErrPermanent},
	}
	for _, tt := range tests {
		err := apperrors.ClassifyStatus(tt.status)
		if tt.want == nil {
			if err != nil {
				t.Errorf("ClassifyStatus(%d) = %v, want nil", tt.status, err)
			}
			continue
		}
		if !errors.Is(err, tt.want) {
			t.Errorf("ClassifyStatus(%d) = %v, want %v", tt.status, err, tt.want)
		}
	}
}
