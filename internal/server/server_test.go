package server

import (
	"context"
	"io"
	"net"
	"strings"
	"testing"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/FotoFacturas/revamp-sub000/internal/account"
	"github.com/FotoFacturas/revamp-sub000/internal/apiclient"
	"github.com/FotoFacturas/revamp-sub000/internal/apierr"
	"github.com/FotoFacturas/revamp-sub000/internal/backend"
	"github.com/FotoFacturas/revamp-sub000/internal/config"
	"github.com/FotoFacturas/revamp-sub000/internal/kv"
	"github.com/FotoFacturas/revamp-sub000/internal/logging"
	"github.com/FotoFacturas/revamp-sub000/internal/session"
)

const testCode = "654321"

func startServer(t *testing.T) string {
	t.Helper()
	cfg := config.MockConfig{AppName: "test", OTPCode: testCode, TokenSecret: "secret", OTPPerMinute: 100}
	srv, err := New(cfg, nil, logging.Discard(), WithBcryptCost(bcrypt.MinCost))
	if err != nil {
		t.Fatalf("new server: %v", err)
	}

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	go func() { _ = srv.Serve(ln) }()
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(ctx)
	})
	return "http://" + ln.Addr().String()
}

func clientConfig(base string, useNew bool) config.Config {
	return config.Config{
		AppName:        "fotofacturas",
		AppBuild:       "test",
		LegacyAPIURL:   base + "/legacy",
		APIURL:         base + "/v2",
		UseNewBackend:  useNew,
		RequestTimeout: 5 * time.Second,
	}
}

func TestAccountFlowsAgainstBothBackends(t *testing.T) {

	for _, tc := range []struct {
		name   string
		useNew bool
	}{
		{"legacy", false},
		{"new", true},
	} {
		t.Run(tc.name, func(t *testing.T) {
			// A server per backend: users on one surface would otherwise hold
			// the phone numbers the other one sets.
			base := startServer(t)
			ctx := context.Background()
			cfg := clientConfig(base, tc.useNew)
			store := kv.NewMemory()

			b, err := backend.New(cfg, backend.Deps{Store: store, Logger: logging.Discard()})
			if err != nil {
				t.Fatalf("backend: %v", err)
			}
			sessions := session.New(store, cfg.SessionKey())
			sessions.Restore(ctx)
			svc := account.NewService(b, sessions, logging.Discard())

			email := tc.name + "@example.com"
			signup, err := svc.Signup(ctx, email, "Ana")
			if err != nil {
				t.Fatalf("signup: %v", err)
			}
			if signup.OTPSent == nil || !*signup.OTPSent {
				t.Fatalf("expected signup code to be sent, got %+v", signup)
			}
			if signup.Name == nil || *signup.Name != "Ana" {
				t.Fatalf("expected name echo, got %v", signup.Name)
			}

			if _, err := svc.RequestLogin(ctx, email); err != nil {
				t.Fatalf("request login: %v", err)
			}
			if _, err := svc.Login(ctx, email, "000000"); apierr.Classify(err) != apierr.KindRejected {
				t.Fatalf("expected wrong code to be rejected, got %v", err)
			}
			if _, err := svc.RequestLogin(ctx, email); err != nil {
				t.Fatalf("request login again: %v", err)
			}
			logged, err := svc.Login(ctx, email, testCode)
			if err != nil {
				t.Fatalf("login: %v", err)
			}
			if !logged.LoggedIn || session.Value(logged.UserID) == "" {
				t.Fatalf("unexpected session %+v", logged)
			}

			changed, err := svc.ChangePhone(ctx, "+52 55 1234 5678")
			if err != nil {
				t.Fatalf("change phone: %v", err)
			}
			if got := session.Value(changed.Phone); got != "+525512345678" {
				t.Fatalf("expected normalized phone, got %q", got)
			}
			if _, err := svc.VerifyPhone(ctx, "+525512345678", testCode); err != nil {
				t.Fatalf("verify phone: %v", err)
			}

			updated, err := svc.UpdateProfile(ctx, backend.UserUpdate{TaxID: "XAXX010101000", ZipCode: "06600"})
			if err != nil {
				t.Fatalf("update profile: %v", err)
			}
			if session.Value(updated.TaxID) != "XAXX010101000" || session.Value(updated.Phone) != "+525512345678" {
				t.Fatalf("unexpected profile %+v", updated)
			}

			kept, err := svc.KeepAlive(ctx)
			if err != nil {
				t.Fatalf("keep alive: %v", err)
			}
			if session.Value(kept.Token) == "" {
				t.Fatalf("keep alive dropped the token")
			}

			refreshed, err := svc.Refresh(ctx)
			if err != nil {
				t.Fatalf("refresh: %v", err)
			}
			if session.Value(refreshed.Email) != email {
				t.Fatalf("unexpected refreshed email %q", session.Value(refreshed.Email))
			}

			out := svc.Logout(ctx)
			if out.LoggedIn || session.Value(out.Email) != email {
				t.Fatalf("unexpected logout session %+v", out)
			}
		})
	}
}

func TestTicketsThroughTheEngine(t *testing.T) {
	base := startServer(t)
	ctx := context.Background()
	cfg := clientConfig(base, true)

	api, err := apiclient.New(apiclient.Config{
		BaseURL: cfg.APIURL,
		Opener: func(_ context.Context, uri string) (io.ReadCloser, error) {
			return io.NopCloser(strings.NewReader("jpeg:" + uri)), nil
		},
		Logger: logging.Discard(),
	})
	if err != nil {
		t.Fatalf("api client: %v", err)
	}

	if _, err := api.CreateUser(ctx, apiclient.NewUser{Email: "ana@example.com", FirstName: "Ana"}); err != nil {
		t.Fatalf("create user: %v", err)
	}
	if _, err := api.RequestEmailOTP(ctx, "ana@example.com"); err != nil {
		t.Fatalf("request otp: %v", err)
	}
	auth, err := api.LoginEmailOTP(ctx, "ana@example.com", testCode)
	if err != nil {
		t.Fatalf("login: %v", err)
	}

	created, err := api.CreateTicket(ctx, auth.Token, apiclient.TicketInput{Store: "OXXO", Total: "99.90"},
		apiclient.FileRef{URI: "file:///tmp/receipt.jpg", MIMEType: "image/jpeg", Name: "receipt.jpg"})
	if err != nil {
		t.Fatalf("create ticket: %v", err)
	}
	if created.TicketID == "" || created.Store != "OXXO" {
		t.Fatalf("unexpected ticket %+v", created)
	}

	list, err := api.ListTickets(ctx, auth.Token)
	if err != nil {
		t.Fatalf("list tickets: %v", err)
	}
	if len(list) != 1 || list[0].TicketID != created.TicketID {
		t.Fatalf("unexpected list %+v", list)
	}

	user, err := api.UploadTaxInfo(ctx, auth.Token, apiclient.TaxInfo{LegalName: "Ana SA", TaxID: "XAXX010101000", TaxRegime: "612", ZipCode: "06600"},
		apiclient.FileRef{URI: "file:///tmp/csf.pdf", MIMEType: "application/pdf", Name: "csf.pdf"})
	if err != nil {
		t.Fatalf("upload tax info: %v", err)
	}
	if user.CSFStatus != "pending" || user.TaxID != "XAXX010101000" {
		t.Fatalf("unexpected user %+v", user)
	}
}
