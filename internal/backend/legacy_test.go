package backend

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/FotoFacturas/revamp-sub000/internal/apierr"
	"github.com/FotoFacturas/revamp-sub000/internal/logging"
	"github.com/FotoFacturas/revamp-sub000/internal/transport"
)

func newTestLegacy(t *testing.T, timeout time.Duration, h http.HandlerFunc) *Legacy {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return NewLegacy(transport.New(srv.URL, srv.Client()), timeout, logging.Discard())
}

func TestLegacyAddUserEchoesName(t *testing.T) {
	l := newTestLegacy(t, time.Second, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/users" {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		body := decodeBody(t, r)
		if body["email"] != "ana@example.com" || body["name"] != "Ana" {
			t.Errorf("unexpected body %v", body)
		}
		writeJSON(w, http.StatusOK, `{"id":17,"email":"ana@example.com","otp_sent":true}`)
	})

	resp, err := l.AddUser(context.Background(), SignupInput{Email: "ana@example.com", Name: "Ana"})
	if err != nil {
		t.Fatalf("add user: %v", err)
	}
	if resp.User == nil || resp.User.ID != "17" {
		t.Fatalf("expected numeric id to be normalized, got %+v", resp.User)
	}
	if resp.Name == nil || *resp.Name != "Ana" {
		t.Fatalf("expected name echo, got %v", resp.Name)
	}
	if resp.OTPSent == nil || !*resp.OTPSent {
		t.Fatalf("expected otp_sent passthrough, got %v", resp.OTPSent)
	}
}

func TestLegacyLoginSendsOTPField(t *testing.T) {
	l := newTestLegacy(t, time.Second, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/login/otp/email" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		body := decodeBody(t, r)
		if body["otp"] != "123456" {
			t.Errorf("expected otp field, got %v", body)
		}
		writeJSON(w, http.StatusOK, `{"id":"u-1","email":"ana@example.com","name":"Ana","token":"legacy-tok"}`)
	})

	resp, err := l.LoginOTPEmail(context.Background(), "ana@example.com", "123456")
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if resp.Token == nil || *resp.Token != "legacy-tok" {
		t.Fatalf("unexpected token %v", resp.Token)
	}
}

func TestLegacyGetUserDataTimesOut(t *testing.T) {
	release := make(chan struct{})
	l := newTestLegacy(t, 50*time.Millisecond, func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("token"); got != "a b" {
			t.Errorf("expected escaped token, got %q", got)
		}
		select {
		case <-release:
		case <-r.Context().Done():
		}
	})
	defer close(release)

	_, err := l.GetUserData(context.Background(), "a b")
	if !errors.Is(err, apierr.ErrTimeout) {
		t.Fatalf("expected timeout, got %v", err)
	}
}

func TestLegacyUpdateUserSendsOnlyChangedFields(t *testing.T) {
	l := newTestLegacy(t, time.Second, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPut || r.URL.Path != "/users" {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		body := decodeBody(t, r)
		if len(body) != 3 || body["token"] != "tok" || body["rfc"] != "XAXX010101000" || body["codigo_postal"] != "06600" {
			t.Errorf("unexpected body %v", body)
		}
		writeJSON(w, http.StatusOK, `{"id":"u-1","rfc":"XAXX010101000","codigo_postal":"06600"}`)
	})

	resp, err := l.UpdateUser(context.Background(), "tok", UserUpdate{TaxID: "XAXX010101000", ZipCode: "06600"})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if resp.User == nil || resp.User.TaxID != "XAXX010101000" {
		t.Fatalf("unexpected user %+v", resp.User)
	}
}

func TestLegacyHTTPErrorPropagates(t *testing.T) {
	l := newTestLegacy(t, time.Second, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusUnauthorized, `{"message":"token expirado"}`)
	})

	_, err := l.KeepSession(context.Background(), "tok")
	if apierr.Status(err) != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %v", err)
	}
}
