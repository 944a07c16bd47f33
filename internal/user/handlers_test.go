package user_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"

	"github.com/sudo-init-do/gigledger/internal/logger"
	"github.com/sudo-init-do/gigledger/internal/marketplace"
	"github.com/sudo-init-do/gigledger/internal/store/memory"
	"github.com/sudo-init-do/gigledger/internal/user"
)

func serve(t *testing.T, h *user.Handler, method, path, userID string, body any) *httptest.ResponseRecorder {
	t.Helper()
	e := echo.New()
	withUser := func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if userID != "" {
				c.Set("user_id", userID)
			}
			return next(c)
		}
	}
	e.PUT("/users/me/profile", h.UpdateProfile, withUser)
	e.PUT("/users/me/skills", h.UpdateSkills, withUser)
	e.GET("/users/:id/profile", h.GetPublicProfile)

	b, _ := json.Marshal(body)
	req := httptest.NewRequest(method, path, bytes.NewReader(b))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func TestProfileFlow(t *testing.T) {
	store := memory.New()
	ledger := marketplace.NewService(store, marketplace.NewManualClock(0), nil, logger.Nop())
	h := user.NewHandler(store, ledger, logger.Nop())

	if rec := serve(t, h, http.MethodGet, "/users/u1/profile", "", nil); rec.Code != http.StatusNotFound {
		t.Fatalf("missing profile: want=404 got=%d", rec.Code)
	}
	if rec := serve(t, h, http.MethodPut, "/users/me/profile", "", user.UpdateProfileRequest{Name: "x"}); rec.Code != http.StatusUnauthorized {
		t.Fatalf("anonymous update: want=401 got=%d", rec.Code)
	}

	rec := serve(t, h, http.MethodPut, "/users/me/skills", "u1", user.UpdateSkillsRequest{Skills: []string{"Go", "go", "Postgres"}})
	if rec.Code != http.StatusOK {
		t.Fatalf("skills: want=200 got=%d body=%s", rec.Code, rec.Body.String())
	}
	rec = serve(t, h, http.MethodPut, "/users/me/profile", "u1", user.UpdateProfileRequest{Name: " Ada ", Bio: "Backend", HourlyRate: 5000})
	if rec.Code != http.StatusOK {
		t.Fatalf("profile: want=200 got=%d body=%s", rec.Code, rec.Body.String())
	}
	rec = serve(t, h, http.MethodPut, "/users/me/profile", "u1", user.UpdateProfileRequest{HourlyRate: -1})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("negative rate: want=400 got=%d", rec.Code)
	}

	rec = serve(t, h, http.MethodGet, "/users/u1/profile", "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("public profile: want=200 got=%d", rec.Code)
	}
	var out struct {
		Profile user.Profile       `json:"profile"`
		Rating  marketplace.Rating `json:"rating"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if out.Profile.Name != "Ada" || out.Profile.HourlyRate != 5000 || len(out.Profile.Skills) != 2 {
		t.Fatalf("profile: %+v", out.Profile)
	}
	if out.Rating.User != "u1" || out.Rating.Count != 0 {
		t.Fatalf("rating: %+v", out.Rating)
	}
}
