package sender

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"pricemind-sync-api/internal/model"
	"pricemind-sync-api/internal/obs"
)

type fakeTransport struct {
	calls []Request
	resp  Response
	err   error
	panic bool
}

func (f *fakeTransport) Do(ctx context.Context, req Request) (Response, error) {
	f.calls = append(f.calls, req)
	if f.panic {
		panic("transport exploded")
	}
	return f.resp, f.err
}

func TestSendJSON_EmptyURLIsNoop(t *testing.T) {
	ft := &fakeTransport{}
	s := New(ft, obs.Discard())

	out := s.SendJSON(context.Background(), model.OutboundRequest{Payload: map[string]string{"a": "b"}})

	if !out.OK || out.Status != nil || out.Body != nil {
		t.Fatalf("unexpected outcome %+v", out)
	}
	if len(ft.calls) != 0 {
		t.Fatalf("expected no transport calls, got %d", len(ft.calls))
	}
}

func TestSendJSON_StatusBoundaries(t *testing.T) {
	cases := []struct {
		status int
		ok     bool
	}{
		{199, false},
		{200, true},
		{204, true},
		{299, true},
		{300, false},
		{404, false},
		{500, false},
	}
	for _, tc := range cases {
		ft := &fakeTransport{resp: Response{Status: tc.status, Body: []byte("body")}}
		s := New(ft, obs.Discard())

		out := s.SendJSON(context.Background(), model.OutboundRequest{URL: "http://x", Payload: struct{}{}})

		if out.OK != tc.ok {
			t.Errorf("status %d: OK = %v, want %v", tc.status, out.OK, tc.ok)
		}
		if out.Status == nil || *out.Status != tc.status {
			t.Errorf("status %d: Status = %v", tc.status, out.Status)
		}
		if out.Body == nil || *out.Body != "body" {
			t.Errorf("status %d: Body = %v", tc.status, out.Body)
		}
	}
}

func TestSendJSON_DefaultsAndHeaders(t *testing.T) {
	ft := &fakeTransport{resp: Response{Status: 201}}
	s := New(ft, obs.Discard())

	s.SendJSON(context.Background(), model.OutboundRequest{
		URL:     "http://x/v1",
		Headers: map[string]string{"X-API-Key": "secret"},
		Payload: map[string]int{"n": 1},
	})

	if len(ft.calls) != 1 {
		t.Fatalf("expected 1 call, got %d", len(ft.calls))
	}
	got := ft.calls[0]
	if got.Method != "POST" {
		t.Errorf("method = %q, want POST", got.Method)
	}
	if got.ConnectTimeout != time.Second || got.Timeout != 2*time.Second {
		t.Errorf("timeouts = %v/%v", got.ConnectTimeout, got.Timeout)
	}
	if got.Header["Content-Type"] != "application/json" {
		t.Errorf("content type = %q", got.Header["Content-Type"])
	}
	if got.Header["X-Api-Key"] != "secret" {
		t.Errorf("api key header missing: %v", got.Header)
	}
	if string(got.Body) != `{"n":1}` {
		t.Errorf("body = %s", got.Body)
	}
}

func TestSendJSON_CallerHeaderWins(t *testing.T) {
	ft := &fakeTransport{resp: Response{Status: 200}}
	s := New(ft, obs.Discard())

	s.SendJSON(context.Background(), model.OutboundRequest{
		URL:     "http://x",
		Method:  "put",
		Headers: map[string]string{"content-type": "application/vnd.pricemind+json"},
		Payload: 1,
	})

	got := ft.calls[0]
	if got.Header["Content-Type"] != "application/vnd.pricemind+json" {
		t.Errorf("content type = %q", got.Header["Content-Type"])
	}
	if len(got.Header) != 1 {
		t.Errorf("expected a single merged header, got %v", got.Header)
	}
	if got.Method != "PUT" {
		t.Errorf("method = %q, want PUT", got.Method)
	}
}

func TestSendJSON_TransportError(t *testing.T) {
	ft := &fakeTransport{err: errors.New("connection refused")}
	s := New(ft, obs.Discard())

	out := s.SendJSON(context.Background(), model.OutboundRequest{URL: "http://x", Payload: 1})

	if out.OK || out.Status != nil {
		t.Fatalf("unexpected outcome %+v", out)
	}
	if out.Body == nil || *out.Body != "connection refused" {
		t.Fatalf("body = %v", out.Body)
	}
}

func TestSendJSON_SerializationError(t *testing.T) {
	ft := &fakeTransport{}
	s := New(ft, obs.Discard())

	out := s.SendJSON(context.Background(), model.OutboundRequest{URL: "http://x", Payload: make(chan int)})

	if out.OK || out.Status != nil || out.Body == nil {
		t.Fatalf("unexpected outcome %+v", out)
	}
	if len(ft.calls) != 0 {
		t.Fatalf("transport must not be called")
	}
}

func TestSendJSON_TransportPanicIsRecovered(t *testing.T) {
	ft := &fakeTransport{panic: true}
	s := New(ft, obs.Discard())

	out := s.SendJSON(context.Background(), model.OutboundRequest{URL: "http://x", Payload: 1})

	if out.OK || out.Body == nil {
		t.Fatalf("unexpected outcome %+v", out)
	}
}

func TestHTTPTransport_SendsNativeVerb(t *testing.T) {
	var gotMethod, gotType, gotKey string
	var gotBody map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotMethod = r.Method
		gotType = r.Header.Get("Content-Type")
		gotKey = r.Header.Get("X-API-Key")
		data, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(data, &gotBody)
		w.WriteHeader(http.StatusAccepted)
		_, _ = w.Write([]byte(`{"status":"queued"}`))
	}))
	defer srv.Close()

	s := New(NewHTTPTransport(), obs.Discard())
	out := s.SendJSON(context.Background(), model.OutboundRequest{
		URL:     srv.URL + "/v1/custom-fields",
		Method:  "PUT",
		Headers: map[string]string{"X-API-Key": "k"},
		Payload: model.CustomFieldPayload{ChannelID: 7, MachineName: "m", ProductSKU: "S", Value: "v"},
	})

	if !out.OK || *out.Status != http.StatusAccepted || *out.Body != `{"status":"queued"}` {
		t.Fatalf("unexpected outcome ok=%v status=%v body=%v", out.OK, out.Status, out.Body)
	}
	if gotMethod != http.MethodPut {
		t.Errorf("method = %q", gotMethod)
	}
	if gotType != "application/json" || gotKey != "k" {
		t.Errorf("headers: type=%q key=%q", gotType, gotKey)
	}
	if gotBody["channel_id"] != float64(7) || gotBody["machine_name"] != "m" {
		t.Errorf("body = %v", gotBody)
	}
}

func TestHTTPTransport_TotalTimeout(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()
	defer close(release)

	s := New(NewHTTPTransport(), obs.Discard())
	start := time.Now()
	out := s.SendJSON(context.Background(), model.OutboundRequest{
		URL:     srv.URL,
		Payload: 1,
		Timeout: 100 * time.Millisecond,
	})

	if out.OK || out.Status != nil || out.Body == nil {
		t.Fatalf("expected timeout failure, got %+v", out)
	}
	if elapsed := time.Since(start); elapsed > 2*time.Second {
		t.Fatalf("timeout not applied, took %v", elapsed)
	}
}
