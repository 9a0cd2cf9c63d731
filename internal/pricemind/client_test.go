package pricemind

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"pricemind-sync-api/internal/model"
	"pricemind-sync-api/internal/obs"
	"pricemind-sync-api/pkg/secret"
)

type mapConfig map[string]string

func (m mapConfig) Value(ctx context.Context, path, website string) (string, error) {
	if v, ok := m[website+"|"+path]; ok {
		return v, nil
	}
	return m["|"+path], nil
}

type failingDecrypter struct{}

func (failingDecrypter) Decrypt(string) (string, error) { return "", errors.New("bad key") }

func newTestClient(t *testing.T, baseURL string, extra mapConfig) *Client {
	t.Helper()
	box, err := secret.NewBox("test-secret")
	if err != nil {
		t.Fatalf("NewBox: %v", err)
	}
	enc, err := box.Encrypt("  k  ")
	if err != nil {
		t.Fatalf("Encrypt: %v", err)
	}
	cfg := mapConfig{
		"|" + model.ConfigPathBaseURL:   baseURL + "/",
		"|" + model.ConfigPathAccessKey: enc,
		"|" + model.ConfigPathChannelID: "999",
	}
	for k, v := range extra {
		cfg[k] = v
	}
	return NewClient(cfg, box, Options{RatePerSecond: 1000, Burst: 100}, obs.Discard())
}

func TestResolveChannelConfig(t *testing.T) {
	c := newTestClient(t, "https://api.pricemind.io", mapConfig{"eu|" + model.ConfigPathChannelID: "12"})

	got := c.ResolveChannelConfig(context.Background(), "")
	want := model.ChannelConfig{BaseURL: "https://api.pricemind.io", APIKey: "k", ChannelID: "999"}
	if got != want {
		t.Fatalf("default scope = %+v, want %+v", got, want)
	}

	if id := c.ChannelID(context.Background(), "eu"); id != "12" {
		t.Fatalf("website channel id = %q", id)
	}
}

func TestBaseURLFallsBackToDefault(t *testing.T) {
	c := NewClient(mapConfig{}, failingDecrypter{}, Options{DefaultBaseURL: "https://fallback.example/"}, obs.Discard())
	if got := c.BaseURL(context.Background(), "eu"); got != "https://fallback.example" {
		t.Fatalf("BaseURL = %q", got)
	}
}

func TestAPIKeyDecryptFailureIsEmpty(t *testing.T) {
	c := NewClient(mapConfig{"|" + model.ConfigPathAccessKey: "garbage"}, failingDecrypter{}, Options{}, obs.Discard())
	if got := c.APIKey(context.Background(), ""); got != "" {
		t.Fatalf("APIKey = %q, want empty", got)
	}
	if c.ResolveChannelConfig(context.Background(), "").Configured() {
		t.Fatal("undecryptable key must not count as configured")
	}
}

func TestListChannels(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/channels" || r.Method != http.MethodGet {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		if r.Header.Get("X-API-Key") != "k" {
			t.Errorf("api key header = %q", r.Header.Get("X-API-Key"))
		}
		_, _ = w.Write([]byte(`{"data":[{"channel_id":1,"name":"One"},"junk",{"id":"2"}]}`))
	}))
	defer srv.Close()

	c := newTestClient(t, srv.URL, nil)
	channels := c.ListChannels(context.Background(), "")
	if len(channels) != 2 {
		t.Fatalf("got %d channels: %+v", len(channels), channels)
	}
	if channels[0].Identifier() != "1" || channels[0].Name != "One" || channels[1].Identifier() != "2" {
		t.Fatalf("unexpected channels %+v", channels)
	}
}

func TestListChannelsSoftFailures(t *testing.T) {
	cases := map[string]struct {
		status int
		body   string
	}{
		"non-2xx":      {http.StatusUnauthorized, `{"error":"nope"}`},
		"no data":      {http.StatusOK, `{"items":[]}`},
		"scalar data":  {http.StatusOK, `{"data":"x"}`},
		"invalid json": {http.StatusOK, `not json`},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tc.status)
				_, _ = w.Write([]byte(tc.body))
			}))
			defer srv.Close()

			if got := newTestClient(t, srv.URL, nil).ListChannels(context.Background(), ""); got != nil {
				t.Fatalf("expected nil, got %+v", got)
			}
		})
	}
}

func TestListChannelsWithoutKeyMakesNoCall(t *testing.T) {
	called := false
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { called = true }))
	defer srv.Close()

	c := NewClient(mapConfig{"|" + model.ConfigPathBaseURL: srv.URL}, failingDecrypter{}, Options{}, obs.Discard())
	if got := c.ListChannels(context.Background(), ""); got != nil || called {
		t.Fatalf("expected no call, got %+v called=%v", got, called)
	}
}

func TestActiveChannelSource(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.EscapedPath() != "/v1/channels/a%2Fb/sources/active" {
			t.Errorf("unexpected path %s", r.URL.EscapedPath())
		}
		_, _ = w.Write([]byte(`{"data":{"type":"Magento","title":"Shop","config":{"mapping":{"sku_attribute":"sku"}}}}`))
	}))
	defer srv.Close()

	src := newTestClient(t, srv.URL, nil).ActiveChannelSource(context.Background(), "a/b", "")
	if src == nil || src.Type != "Magento" || src.Title != "Shop" || src.Config.Mapping["sku_attribute"] != "sku" {
		t.Fatalf("unexpected source %+v", src)
	}
}

func TestLookupProductDomainID(t *testing.T) {
	bodies := map[string]struct {
		body string
		id   int
		ok   bool
	}{
		"number": {`{"data":{"product_domain_id":42}}`, 42, true},
		"string": {`{"data":{"product_domain_id":"43"}}`, 43, true},
		"null":   {`{"data":{"product_domain_id":null}}`, 0, false},
		"absent": {`{"data":{}}`, 0, false},
	}
	for name, tc := range bodies {
		t.Run(name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if r.URL.Query().Get("sku") != "SKU 1" {
					t.Errorf("sku = %q", r.URL.Query().Get("sku"))
				}
				_, _ = w.Write([]byte(tc.body))
			}))
			defer srv.Close()

			id, ok := newTestClient(t, srv.URL, nil).LookupProductDomainID(context.Background(), "999", "SKU 1", "")
			if id != tc.id || ok != tc.ok {
				t.Fatalf("got (%d, %v), want (%d, %v)", id, ok, tc.id, tc.ok)
			}
		})
	}
}
