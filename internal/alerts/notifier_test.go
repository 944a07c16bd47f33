package alerts_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/sudo-init-do/gigledger/internal/alerts"
	"github.com/sudo-init-do/gigledger/internal/logger"
	"github.com/sudo-init-do/gigledger/internal/marketplace"
	"github.com/sudo-init-do/gigledger/internal/store/memory"
)

func TestDeliverOnePerRecipient(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	n := alerts.NewNotifier(store, logger.Nop())

	err := n.Publish(ctx, marketplace.Event{
		Type:       marketplace.EventDisputeOpened,
		JobID:      3,
		DisputeID:  2,
		Actor:      "f",
		Recipients: []string{"c", "o"},
		Detail:     "missed deadline",
	})
	if err != nil {
		t.Fatalf("Publish: %v", err)
	}

	for _, u := range []string{"c", "o"} {
		items, err := store.ListNotifications(ctx, u, false, 10)
		if err != nil {
			t.Fatalf("ListNotifications: %v", err)
		}
		if len(items) != 1 {
			t.Fatalf("%s: want 1 notification got %d", u, len(items))
		}
		got := items[0]
		if got.Type != "dispute:opened" || got.Reference != "dispute:2" || got.Body != "missed deadline" ||
			!strings.Contains(got.Title, "job #3") {
			t.Fatalf("%s: unexpected notification %+v", u, got)
		}
	}
	if items, _ := store.ListNotifications(ctx, "f", false, 10); len(items) != 0 {
		t.Fatalf("actor was notified")
	}
}

func TestDeliverWithoutRecipients(t *testing.T) {
	n := alerts.NewNotifier(memory.New(), logger.Nop())
	if err := n.Deliver(context.Background(), marketplace.Event{Type: marketplace.EventJobPosted, JobID: 1}); err != nil {
		t.Fatalf("Deliver: %v", err)
	}
}

func TestNotificationHandlers(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	n := alerts.NewNotifier(store, logger.Nop())
	for _, typ := range []marketplace.EventType{marketplace.EventBidSubmitted, marketplace.EventJobRated} {
		if err := n.Deliver(ctx, marketplace.Event{Type: typ, JobID: 1, Recipients: []string{"u1"}}); err != nil {
			t.Fatalf("Deliver: %v", err)
		}
	}
	items, _ := store.ListNotifications(ctx, "u1", false, 10)
	if len(items) != 2 || items[0].Type != string(marketplace.EventJobRated) {
		t.Fatalf("want newest first, got %+v", items)
	}

	h := alerts.NewHandler(store, logger.Nop())
	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.Set("user_id", "u1")
	c.SetParamNames("id")
	c.SetParamValues(items[0].ID)
	if err := h.MarkNotificationRead(c); err != nil || rec.Code != http.StatusOK {
		t.Fatalf("mark read: code=%d err=%v", rec.Code, err)
	}

	unread, _ := store.ListNotifications(ctx, "u1", true, 10)
	if len(unread) != 1 || unread[0].ID != items[1].ID {
		t.Fatalf("unread: %+v", unread)
	}
	if err := store.MarkRead(ctx, "u1", items[0].ID); !errors.Is(err, alerts.ErrNotificationNotFound) {
		t.Fatalf("second mark: want ErrNotificationNotFound got=%v", err)
	}
	if err := store.MarkRead(ctx, "u2", items[1].ID); !errors.Is(err, alerts.ErrNotificationNotFound) {
		t.Fatalf("foreign mark: want ErrNotificationNotFound got=%v", err)
	}
}

// failAfter fails one insert once the first n have gone through.
type failAfter struct {
	*memory.Store
	n      int
	calls  int
	failed bool
}

func (f *failAfter) CreateNotification(ctx context.Context, n alerts.Notification) error {
	f.calls++
	if !f.failed && f.calls > f.n {
		f.failed = true
		return errors.New("insert timed out")
	}
	return f.Store.CreateNotification(ctx, n)
}

func TestRedeliveryDoesNotDuplicate(t *testing.T) {
	ctx := context.Background()
	store := &failAfter{Store: memory.New(), n: 1}
	n := alerts.NewNotifier(store, logger.Nop())
	e := marketplace.Event{
		Type:       marketplace.EventDisputeResolved,
		JobID:      4,
		DisputeID:  1,
		Actor:      "o",
		Recipients: []string{"f", "c"},
		Amount:     10,
		At:         time.Date(2026, 1, 2, 3, 4, 5, 6, time.UTC),
	}

	if err := n.Deliver(ctx, e); err == nil {
		t.Fatalf("first delivery: want insert error got nil")
	}
	if err := n.Deliver(ctx, e); err != nil {
		t.Fatalf("redelivery: %v", err)
	}

	for _, u := range []string{"f", "c"} {
		items, _ := store.ListNotifications(ctx, u, false, 10)
		if len(items) != 1 {
			t.Fatalf("%s: want=1 notification got=%d", u, len(items))
		}
		if !items[0].CreatedAt.Equal(e.At) {
			t.Fatalf("%s: created_at want=%v got=%v", u, e.At, items[0].CreatedAt)
		}
	}

	later := e
	later.At = e.At.Add(time.Second)
	if err := n.Deliver(ctx, later); err != nil {
		t.Fatalf("second event: %v", err)
	}
	if items, _ := store.ListNotifications(ctx, "f", false, 10); len(items) != 2 {
		t.Fatalf("distinct event: want=2 notifications got=%d", len(items))
	}
}
