package wallet_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"

	"github.com/sudo-init-do/gigledger/internal/logger"
	"github.com/sudo-init-do/gigledger/internal/store/memory"
	"github.com/sudo-init-do/gigledger/internal/wallet"
)

func call(h echo.HandlerFunc, userID string, body any) (*httptest.ResponseRecorder, map[string]any) {
	var r *bytes.Reader
	if body != nil {
		b, _ := json.Marshal(body)
		r = bytes.NewReader(b)
	} else {
		r = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(http.MethodPost, "/", r)
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := echo.New().NewContext(req, rec)
	if userID != "" {
		c.Set("user_id", userID)
	}
	_ = h(c)
	out := map[string]any{}
	_ = json.Unmarshal(rec.Body.Bytes(), &out)
	return rec, out
}

func TestTopupWithdrawBalance(t *testing.T) {
	h := wallet.NewHandler(memory.New(), logger.Nop())

	if rec, _ := call(h.Topup, "", wallet.TopupRequest{Amount: 10}); rec.Code != http.StatusUnauthorized {
		t.Fatalf("anonymous topup: want=401 got=%d", rec.Code)
	}
	if rec, _ := call(h.Topup, "u1", wallet.TopupRequest{Amount: 0}); rec.Code != http.StatusBadRequest {
		t.Fatalf("zero topup: want=400 got=%d", rec.Code)
	}
	rec, out := call(h.Topup, "u1", wallet.TopupRequest{Amount: 500})
	if rec.Code != http.StatusOK || out["balance"] != float64(500) {
		t.Fatalf("topup: code=%d body=%v", rec.Code, out)
	}

	if rec, _ := call(h.Withdraw, "u1", map[string]int64{"amount": 501}); rec.Code != http.StatusBadRequest {
		t.Fatalf("overdraft: want=400 got=%d", rec.Code)
	}
	rec, out = call(h.Withdraw, "u1", map[string]int64{"amount": 200})
	if rec.Code != http.StatusOK || out["balance"] != float64(300) {
		t.Fatalf("withdraw: code=%d body=%v", rec.Code, out)
	}

	rec, out = call(h.Balance, "u1", nil)
	if rec.Code != http.StatusOK || out["balance"] != float64(300) {
		t.Fatalf("balance: code=%d body=%v", rec.Code, out)
	}

	rec, out = call(h.Transactions, "u1", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("transactions: code=%d", rec.Code)
	}
	items, _ := out["transactions"].([]any)
	if len(items) != 2 {
		t.Fatalf("want 2 transactions, got %v", out)
	}
	newest, _ := items[0].(map[string]any)
	if newest["type"] != string(wallet.KindWithdrawal) || newest["amount"] != float64(-200) {
		t.Fatalf("newest entry: %v", newest)
	}
}
