package auth_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/sudo-init-do/gigledger/internal/auth"
	"github.com/sudo-init-do/gigledger/internal/logger"
	"github.com/sudo-init-do/gigledger/internal/marketplace"
	"github.com/sudo-init-do/gigledger/internal/store/memory"
)

var secret = []byte("unit-test-secret")

func TestTokenRoundTrip(t *testing.T) {
	tok, err := auth.IssueToken(secret, "u-1", auth.RoleOwner, time.Minute)
	if err != nil {
		t.Fatalf("IssueToken: %v", err)
	}
	claims, err := auth.ParseToken(secret, tok)
	if err != nil {
		t.Fatalf("ParseToken: %v", err)
	}
	if claims.UserID != "u-1" || claims.Role != auth.RoleOwner {
		t.Fatalf("claims: %+v", claims)
	}

	if _, err := auth.ParseToken([]byte("other"), tok); err == nil {
		t.Fatalf("token verified with the wrong secret")
	}
	expired, _ := auth.IssueToken(secret, "u-1", auth.RoleMember, -time.Second)
	if _, err := auth.ParseToken(secret, expired); err == nil {
		t.Fatalf("expired token accepted")
	}
}

func post(h echo.HandlerFunc, body any) *httptest.ResponseRecorder {
	b, _ := json.Marshal(body)
	req := httptest.NewRequest(http.MethodPost, "/", bytes.NewReader(b))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	_ = h(echo.New().NewContext(req, rec))
	return rec
}

func TestSignupAndLogin(t *testing.T) {
	store := memory.New()
	h := auth.NewHandler(store, string(secret), time.Hour, logger.Nop())

	rec := post(h.Signup, auth.SignupRequest{Name: "Ada", Email: " Ada@Example.com ", Password: "hunter22"})
	if rec.Code != http.StatusCreated {
		t.Fatalf("signup: want=201 got=%d body=%s", rec.Code, rec.Body.String())
	}
	var created auth.TokenResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &created); err != nil {
		t.Fatalf("decode: %v", err)
	}
	claims, err := auth.ParseToken(secret, created.Token)
	if err != nil || claims.UserID != created.UserID || claims.Role != auth.RoleMember {
		t.Fatalf("signup token: claims=%+v err=%v", claims, err)
	}

	if rec := post(h.Signup, auth.SignupRequest{Name: "Ada", Email: "ada@example.com", Password: "hunter22"}); rec.Code != http.StatusConflict {
		t.Fatalf("duplicate email: want=409 got=%d", rec.Code)
	}
	if rec := post(h.Signup, auth.SignupRequest{Name: "Bob", Email: "bob@example.com", Password: "short"}); rec.Code != http.StatusBadRequest {
		t.Fatalf("short password: want=400 got=%d", rec.Code)
	}

	if rec := post(h.Login, auth.LoginRequest{Email: "ada@example.com", Password: "wrong-pass"}); rec.Code != http.StatusUnauthorized {
		t.Fatalf("wrong password: want=401 got=%d", rec.Code)
	}
	if rec := post(h.Login, auth.LoginRequest{Email: "nobody@example.com", Password: "hunter22"}); rec.Code != http.StatusUnauthorized {
		t.Fatalf("unknown email: want=401 got=%d", rec.Code)
	}
	rec = post(h.Login, auth.LoginRequest{Email: "ADA@example.com", Password: "hunter22"})
	if rec.Code != http.StatusOK {
		t.Fatalf("login: want=200 got=%d", rec.Code)
	}
}

func TestBootstrapOwner(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	ledger := marketplace.NewService(store, marketplace.NewManualClock(0), nil, logger.Nop())

	for _, a := range []auth.Account{
		{ID: "a1", Name: "Ada", Email: "ada@example.com", Role: auth.RoleMember},
		{ID: "b1", Name: "Bob", Email: "bob@example.com", Role: auth.RoleMember},
	} {
		if err := store.CreateAccount(ctx, a); err != nil {
			t.Fatalf("CreateAccount: %v", err)
		}
	}

	if _, err := auth.BootstrapOwner(ctx, store, ledger, "nobody@example.com"); !errors.Is(err, auth.ErrAccountNotFound) {
		t.Fatalf("unknown email: want ErrAccountNotFound got=%v", err)
	}

	acc, err := auth.BootstrapOwner(ctx, store, ledger, "ADA@example.com")
	if err != nil {
		t.Fatalf("BootstrapOwner: %v", err)
	}
	if acc.ID != "a1" || acc.Role != auth.RoleOwner {
		t.Fatalf("account: %+v", acc)
	}
	if owner, _ := ledger.Owner(ctx); owner != "a1" {
		t.Fatalf("ledger owner: want=a1 got=%s", owner)
	}

	_, err = auth.BootstrapOwner(ctx, store, ledger, "bob@example.com")
	if !marketplace.IsCode(err, marketplace.CodeAlreadyInitialized) {
		t.Fatalf("second owner: want already-initialized got=%v", err)
	}
	bob, _ := store.AccountByID(ctx, "b1")
	if bob.Role != auth.RoleMember {
		t.Fatalf("role granted despite failed initialization: %s", bob.Role)
	}
}

// flakyRoles fails the first SetRole call.
type flakyRoles struct {
	*memory.Store
	failed bool
}

func (f *flakyRoles) SetRole(ctx context.Context, id, role string) error {
	if !f.failed {
		f.failed = true
		return errors.New("connection reset")
	}
	return f.Store.SetRole(ctx, id, role)
}

func TestBootstrapOwnerRetryAfterRoleFailure(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	ledger := marketplace.NewService(store, marketplace.NewManualClock(0), nil, logger.Nop())
	for _, a := range []auth.Account{
		{ID: "a1", Email: "ada@example.com", Role: auth.RoleMember},
		{ID: "b1", Email: "bob@example.com", Role: auth.RoleMember},
	} {
		if err := store.CreateAccount(ctx, a); err != nil {
			t.Fatalf("CreateAccount: %v", err)
		}
	}
	accounts := &flakyRoles{Store: store}

	if _, err := auth.BootstrapOwner(ctx, accounts, ledger, "ada@example.com"); err == nil {
		t.Fatalf("first run: want role error got nil")
	}
	if owner, _ := ledger.Owner(ctx); owner != "a1" {
		t.Fatalf("ledger owner: want=a1 got=%q", owner)
	}

	acc, err := auth.BootstrapOwner(ctx, accounts, ledger, "ada@example.com")
	if err != nil {
		t.Fatalf("retry: %v", err)
	}
	stored, _ := store.AccountByID(ctx, "a1")
	if acc.Role != auth.RoleOwner || stored.Role != auth.RoleOwner {
		t.Fatalf("role after retry: want=%s got=%s", auth.RoleOwner, stored.Role)
	}

	if _, err := auth.BootstrapOwner(ctx, accounts, ledger, "bob@example.com"); !marketplace.IsCode(err, marketplace.CodeAlreadyInitialized) {
		t.Fatalf("other account: want already-initialized got=%v", err)
	}
	if bob, _ := store.AccountByID(ctx, "b1"); bob.Role != auth.RoleMember {
		t.Fatalf("bob role: want=%s got=%s", auth.RoleMember, bob.Role)
	}
}
