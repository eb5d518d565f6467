package session

import (
	"bytes"
	"context"
	"errors"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/FotoFacturas/revamp-sub000/internal/kv"
	"github.com/FotoFacturas/revamp-sub000/internal/logging"
)

const testKey = "fotofacturas:test:session"

type failingStore struct{ kv.Store }

func (failingStore) Set(context.Context, string, string) error { return errors.New("disk full") }

func fullProfile() Profile {
	return Profile{
		UserID:         "u-1",
		Email:          "ana@example.com",
		Plan:           "pro",
		LegalName:      "Ana Pérez",
		TaxID:          "PEAA800101XXX",
		TaxRegime:      "612",
		ZipCode:        "06700",
		Street:         "Durango",
		ExteriorNumber: "12",
		InteriorNumber: "4B",
		Neighborhood:   "Roma Norte",
		Municipality:   "Cuauhtémoc",
		State:          "CDMX",
		Phone:          "5512345678",
		CSFURL:         "https://files.example.com/csf.pdf",
		CSFStatus:      "verified",
	}
}

func TestRestoreMissingRecordGivesDefault(t *testing.T) {
	s := New(kv.NewMemory(), testKey)

	got := s.Restore(context.Background())
	if !reflect.DeepEqual(got, Default()) {
		t.Fatalf("expected default session, got %+v", got)
	}
	select {
	case <-s.Ready():
	default:
		t.Fatalf("ready must be closed after restore")
	}
}

func TestRoundTrip(t *testing.T) {
	ctx := context.Background()
	store := kv.NewMemory()

	first := New(store, testKey)
	first.Restore(ctx)
	saved := first.SaveUser(ctx, fullProfile(), "tok-123")

	second := New(store, testKey)
	restored := second.Restore(ctx)
	if !reflect.DeepEqual(saved, restored) {
		t.Fatalf("round trip mismatch:\nsaved    %+v\nrestored %+v", saved, restored)
	}
	if !restored.LoggedIn || Value(restored.Token) != "tok-123" || Value(restored.Neighborhood) != "Roma Norte" {
		t.Fatalf("unexpected restored session %+v", restored)
	}
}

func TestCorruptRecordRestoresDefault(t *testing.T) {
	for _, raw := range []string{"{not json", `["a"]`, "null"} {
		store := kv.NewMemory()
		_ = store.Set(context.Background(), testKey, raw)

		got := New(store, testKey).Restore(context.Background())
		if !reflect.DeepEqual(got, Default()) {
			t.Fatalf("record %q: expected default, got %+v", raw, got)
		}
	}
}

func TestUnsetFieldsPersistAsNull(t *testing.T) {
	ctx := context.Background()
	store := kv.NewMemory()
	s := New(store, testKey)
	s.SaveUser(ctx, Profile{Email: "a@b.mx"}, "tok")

	raw, err := store.Get(ctx, testKey)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	for _, want := range []string{`"csf_status":null`, `"tax_id":null`, `"logged_in":true`, `"email":"a@b.mx"`} {
		if !strings.Contains(raw, want) {
			t.Fatalf("expected %s in %s", want, raw)
		}
	}
}

func TestSaveUserMergesAndKeepsUnknownFields(t *testing.T) {
	ctx := context.Background()
	s := New(kv.NewMemory(), testKey)
	s.SaveUser(ctx, fullProfile(), "tok-1")

	got := s.SaveUser(ctx, Profile{Email: "ana@example.com", Phone: "5599999999"}, "tok-2")
	if Value(got.Phone) != "5599999999" || Value(got.Token) != "tok-2" {
		t.Fatalf("expected merged phone and token, got %+v", got)
	}
	if Value(got.TaxID) != "PEAA800101XXX" {
		t.Fatalf("merge must not clear fields missing from the profile")
	}
}

func TestSaveDoesNotFlipLoggedIn(t *testing.T) {
	ctx := context.Background()
	s := New(kv.NewMemory(), testKey)

	s.Save(ctx, Session{LoggedIn: true, Email: ptr("x@y.mx")})
	if s.Current().LoggedIn {
		t.Fatalf("save must not log the user in")
	}
	if Value(s.Current().Email) != "x@y.mx" {
		t.Fatalf("save must replace the session")
	}

	s.SaveUser(ctx, Profile{Email: "x@y.mx"}, "tok")
	s.Save(ctx, Default())
	if !s.Current().LoggedIn {
		t.Fatalf("save must not log the user out")
	}
}

func TestLogoutThenRestoreKeepsEmail(t *testing.T) {
	ctx := context.Background()
	store := kv.NewMemory()

	s := New(store, testKey)
	s.Restore(ctx)
	s.SaveUser(ctx, fullProfile(), "tok")
	s.Logout(ctx)

	restarted := New(store, testKey).Restore(ctx)
	if restarted.LoggedIn {
		t.Fatalf("expected logged out")
	}
	if restarted.Token != nil {
		t.Fatalf("expected null token, got %q", *restarted.Token)
	}
	if Value(restarted.Email) != "ana@example.com" {
		t.Fatalf("expected email preserved, got %v", restarted.Email)
	}
	if restarted.TaxID != nil || restarted.UserID != nil {
		t.Fatalf("expected everything else reset, got %+v", restarted)
	}
}

func TestPersistenceFailureKeepsInMemoryValue(t *testing.T) {
	var logs bytes.Buffer
	s := New(failingStore{kv.NewMemory()}, testKey, WithLogger(logging.NewWithWriter(&logs, "info")))

	s.SaveUser(context.Background(), Profile{Email: "a@b.mx"}, "tok")
	if !s.Current().LoggedIn || Value(s.Current().Token) != "tok" {
		t.Fatalf("in-memory session must reflect the update")
	}
	if !strings.Contains(logs.String(), "disk full") {
		t.Fatalf("expected persistence failure to be logged, got %q", logs.String())
	}
}

func TestOnAuthenticatedHook(t *testing.T) {
	var calls []Session
	s := New(kv.NewMemory(), testKey, WithOnAuthenticated(func(_ context.Context, sess Session) {
		calls = append(calls, sess)
	}))

	s.SaveUser(context.Background(), Profile{UserID: "u-7"}, "tok")
	s.Logout(context.Background())

	if len(calls) != 1 {
		t.Fatalf("expected hook once, got %d", len(calls))
	}
	if Value(calls[0].UserID) != "u-7" || !calls[0].LoggedIn {
		t.Fatalf("hook received %+v", calls[0])
	}
}

func TestRestoreRunsOnce(t *testing.T) {
	ctx := context.Background()
	store := kv.NewMemory()
	s := New(store, testKey)

	done := make(chan struct{})
	go func() {
		s.Restore(ctx)
		close(done)
	}()
	select {
	case <-s.Ready():
	case <-time.After(time.Second):
		t.Fatalf("restore never completed")
	}
	<-done

	_ = store.Set(ctx, testKey, `{"email":"other@x.mx","logged_in":true}`)
	if got := s.Restore(ctx); got.LoggedIn || got.Email != nil {
		t.Fatalf("second restore must not reload, got %+v", got)
	}
}

func TestRestoreKeepsSessionSavedBeforeIt(t *testing.T) {
	ctx := context.Background()
	store := kv.NewMemory()
	_ = store.Set(ctx, testKey, `{"email":"stale@x.mx","logged_in":false}`)

	s := New(store, testKey)
	saved := s.SaveUser(ctx, Profile{UserID: "u-9", Email: "fresh@x.mx"}, "tok-new")

	got := s.Restore(ctx)
	if !reflect.DeepEqual(got, saved) {
		t.Fatalf("restore replaced a newer session:\nsaved %+v\ngot   %+v", saved, got)
	}
	select {
	case <-s.Ready():
	default:
		t.Fatalf("ready must be closed after restore")
	}

	restarted := New(store, testKey).Restore(ctx)
	if Value(restarted.Email) != "fresh@x.mx" || !restarted.LoggedIn {
		t.Fatalf("the newer session must also be the persisted one, got %+v", restarted)
	}
}

func TestCurrentReturnsCopy(t *testing.T) {
	s := New(kv.NewMemory(), testKey)
	s.SaveUser(context.Background(), Profile{Email: "a@b.mx"}, "tok")

	snapshot := s.Current()
	*snapshot.Email = "mutated@x.mx"
	if Value(s.Current().Email) != "a@b.mx" {
		t.Fatalf("callers must not be able to mutate the store through Current")
	}
}
