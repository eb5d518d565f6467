package backend

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sort"
	"testing"
	"time"

	"github.com/FotoFacturas/revamp-sub000/internal/config"
	"github.com/FotoFacturas/revamp-sub000/internal/kv"
	"github.com/FotoFacturas/revamp-sub000/internal/logging"
)

func testConfig(legacyURL, apiURL string, useNew bool) config.Config {
	return config.Config{
		AppName:        "fotofacturas",
		AppBuild:       "test",
		LegacyAPIURL:   legacyURL,
		APIURL:         apiURL,
		UseNewBackend:  useNew,
		RequestTimeout: time.Second,
	}
}

func TestNewSelectsImplementationFromFlag(t *testing.T) {
	deps := Deps{Store: kv.NewMemory(), Logger: logging.Discard()}

	b, err := New(testConfig("http://legacy", "http://api", false), deps)
	if err != nil {
		t.Fatalf("new legacy: %v", err)
	}
	if _, ok := b.(*Legacy); !ok {
		t.Fatalf("expected *Legacy, got %T", b)
	}

	b, err = New(testConfig("http://legacy", "http://api", true), deps)
	if err != nil {
		t.Fatalf("new modern: %v", err)
	}
	if _, ok := b.(*Modern); !ok {
		t.Fatalf("expected *Modern, got %T", b)
	}
}

func TestNewRejectsMissingAPIURL(t *testing.T) {
	if _, err := New(testConfig("http://legacy", "", true), Deps{}); err == nil {
		t.Fatalf("expected error for empty API URL")
	}
}

func jsonKeys(t *testing.T, v any) []string {
	t.Helper()
	raw, err := json.Marshal(v)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var m map[string]json.RawMessage
	if err := json.Unmarshal(raw, &m); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func equalKeys(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func TestResponseShapeIsBackendIndependent(t *testing.T) {
	legacySrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, `{"id":"u-1","email":"ana@example.com","name":"Ana","phone":"+525512345678","rfc":"XAXX010101000"}`)
	}))
	defer legacySrv.Close()
	apiSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, `{"isSuccess":true,"data":{"userId":"u-1","email":"ana@example.com","firstName":"Ana","phone":"5512345678","phoneCode":"52","taxId":"XAXX010101000"}}`)
	}))
	defer apiSrv.Close()

	deps := Deps{Store: kv.NewMemory(), Logger: logging.Discard()}
	legacy, err := New(testConfig(legacySrv.URL, apiSrv.URL, false), deps)
	if err != nil {
		t.Fatalf("new legacy: %v", err)
	}
	modern, err := New(testConfig(legacySrv.URL, apiSrv.URL, true), deps)
	if err != nil {
		t.Fatalf("new modern: %v", err)
	}

	ctx := context.Background()
	fromLegacyResp, err := legacy.GetUserData(ctx, "tok")
	if err != nil {
		t.Fatalf("legacy get user: %v", err)
	}
	fromModernResp, err := modern.GetUserData(ctx, "tok")
	if err != nil {
		t.Fatalf("modern get user: %v", err)
	}

	if a, b := jsonKeys(t, fromLegacyResp), jsonKeys(t, fromModernResp); !equalKeys(a, b) {
		t.Fatalf("response keys differ: %v vs %v", a, b)
	}
	if a, b := jsonKeys(t, fromLegacyResp.User), jsonKeys(t, fromModernResp.User); !equalKeys(a, b) {
		t.Fatalf("user keys differ: %v vs %v", a, b)
	}
	if *fromLegacyResp.User != *fromModernResp.User {
		t.Fatalf("normalized users differ:\n%+v\n%+v", *fromLegacyResp.User, *fromModernResp.User)
	}

	// An empty response still carries every key.
	if got := jsonKeys(t, Response{}); !equalKeys(got, jsonKeys(t, fromModernResp)) {
		t.Fatalf("zero response dropped keys: %v", got)
	}
}
