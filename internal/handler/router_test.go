package handler

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"bankpro/internal/config"
	"bankpro/internal/repository"
	"bankpro/internal/service"
	"bankpro/pkg/response"

	"github.com/gin-gonic/gin"
)

type envelope struct {
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

func newTestRouter(t *testing.T) *gin.Engine {
	t.Helper()
	ledger := service.NewLedger(repository.NewMemoryStore(), nil)
	return SetupRouter(NewHandler(ledger, nil, config.Default()))
}

func do(t *testing.T, r *gin.Engine, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) envelope {
	t.Helper()
	var env envelope
	if err := json.Unmarshal(w.Body.Bytes(), &env); err != nil {
		t.Fatalf("decode %q: %v", w.Body.String(), err)
	}
	return env
}

func login(t *testing.T, r *gin.Engine, username, password string) envelope {
	t.Helper()
	return decode(t, do(t, r, http.MethodPost, "/api/v1/auth/login",
		`{"username":"`+username+`","password":"`+password+`"}`))
}

func TestHealth(t *testing.T) {
	w := do(t, newTestRouter(t), http.MethodGet, "/health", "")
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), "ok") {
		t.Fatalf("unexpected health response: %d %s", w.Code, w.Body.String())
	}
	if w.Header().Get("X-Request-ID") == "" {
		t.Fatal("expected generated request id")
	}
}

func TestRequiresLogin(t *testing.T) {
	r := newTestRouter(t)
	for _, path := range []string{"/api/v1/auth/me", "/api/v1/accounts", "/api/v1/cards", "/api/v1/statements"} {
		if env := decode(t, do(t, r, http.MethodGet, path, "")); env.Code != response.CodeUnauthorized {
			t.Fatalf("%s: expected 401 code, got %d", path, env.Code)
		}
	}
	env := decode(t, do(t, r, http.MethodPost, "/api/v1/transfers", `{"fromAccount":"SBIN0001001","toAccount":"SBIN0001002","amount":1}`))
	if env.Code != response.CodeUnauthorized {
		t.Fatalf("expected 401 code for transfer, got %d", env.Code)
	}
}

func TestLoginFlow(t *testing.T) {
	r := newTestRouter(t)

	if env := login(t, r, "sharmila", "bad"); env.Code != response.CodeInvalidCredentials {
		t.Fatalf("expected invalid credentials, got %d", env.Code)
	}
	if env := login(t, r, "sharmila", "password123"); env.Code != response.CodeSuccess {
		t.Fatalf("login failed: %+v", env)
	}

	env := decode(t, do(t, r, http.MethodGet, "/api/v1/auth/me", ""))
	var me struct {
		ID       int64  `json:"id"`
		Username string `json:"username"`
		FullName string `json:"fullName"`
	}
	if err := json.Unmarshal(env.Data, &me); err != nil {
		t.Fatalf("decode me: %v", err)
	}
	if me.ID != 1 || me.FullName != "Sharmila R" {
		t.Fatalf("unexpected me: %+v", me)
	}
	if strings.Contains(string(env.Data), "password") {
		t.Fatal("password must not be returned")
	}

	if env := decode(t, do(t, r, http.MethodPost, "/api/v1/auth/logout", "")); env.Code != response.CodeSuccess {
		t.Fatalf("logout failed: %+v", env)
	}
	if env := decode(t, do(t, r, http.MethodGet, "/api/v1/auth/me", "")); env.Code != response.CodeUnauthorized {
		t.Fatalf("expected 401 after logout, got %d", env.Code)
	}
}

func TestAccountsShowFormattedBalance(t *testing.T) {
	r := newTestRouter(t)
	login(t, r, "sharmila", "password123")

	env := decode(t, do(t, r, http.MethodGet, "/api/v1/accounts", ""))
	var accounts []struct {
		AccountNumber string `json:"accountNumber"`
		Balance       int64  `json:"balance"`
		BalanceText   string `json:"balanceText"`
	}
	if err := json.Unmarshal(env.Data, &accounts); err != nil {
		t.Fatalf("decode accounts: %v", err)
	}
	if len(accounts) != 2 || accounts[0].AccountNumber != "SBIN0001001" {
		t.Fatalf("unexpected accounts: %+v", accounts)
	}
	if accounts[0].Balance != 50000 || accounts[0].BalanceText != "₹50,000" {
		t.Fatalf("unexpected balance: %+v", accounts[0])
	}
}

func TestTransferEndpoint(t *testing.T) {
	r := newTestRouter(t)
	login(t, r, "sharmila", "password123")

	cases := []struct {
		body string
		code int
	}{
		{`{"fromAccount":"SBIN0001001","toAccount":"SBIN0001002","amount":0}`, response.CodeParamError},
		{`{"fromAccount":"NOPE","toAccount":"SBIN0001002","amount":1}`, response.CodeSourceNotFound},
		{`{"fromAccount":"SBIN0001001","toAccount":"NOPE","amount":1}`, response.CodeDestinationNotFound},
		{`{"fromAccount":"SBIN0001001","toAccount":"SBIN0001002","amount":50001}`, response.CodeBalanceNotEnough},
		{`{"fromAccount":"SBIN0001001","toAccount":"SBIN0001002","amount":"x"}`, response.CodeParamError},
		{`{"fromAccount":"SBIN0001001","toAccount":"SBIN0001002","amount":5000,"type":"SAME"}`, response.CodeSuccess},
	}
	for _, tc := range cases {
		if env := decode(t, do(t, r, http.MethodPost, "/api/v1/transfers", tc.body)); env.Code != tc.code {
			t.Fatalf("%s: expected code %d, got %d (%s)", tc.body, tc.code, env.Code, env.Message)
		}
	}

	env := decode(t, do(t, r, http.MethodGet, "/api/v1/statements?account=SBIN0001002", ""))
	var page struct {
		List []struct {
			ID          int64  `json:"id"`
			Amount      int64  `json:"amount"`
			Description string `json:"description"`
		} `json:"list"`
		Total int `json:"total"`
	}
	if err := json.Unmarshal(env.Data, &page); err != nil {
		t.Fatalf("decode statements: %v", err)
	}
	if page.Total != 1 || page.List[0].Amount != 5000 || page.List[0].Description != "Same-bank transfer" {
		t.Fatalf("unexpected statements: %+v", page)
	}
}

func TestCardEndpoints(t *testing.T) {
	r := newTestRouter(t)
	login(t, r, "john", "johnpwd")

	env := decode(t, do(t, r, http.MethodPost, "/api/v1/cards", ""))
	if env.Code != response.CodeSuccess {
		t.Fatalf("issue failed: %+v", env)
	}
	var card struct {
		CardNumber string `json:"cardNumber"`
		CardType   string `json:"cardType"`
		OwnerID    int64  `json:"ownerId"`
	}
	if err := json.Unmarshal(env.Data, &card); err != nil {
		t.Fatalf("decode card: %v", err)
	}
	if card.CardType != "VISA" || card.OwnerID != 2 || len(card.CardNumber) != 16 {
		t.Fatalf("unexpected card: %+v", card)
	}

	env = decode(t, do(t, r, http.MethodPost, "/api/v1/cards", `{"cardType":"MasterCard"}`))
	if env.Code != response.CodeSuccess || !strings.Contains(string(env.Data), `"MasterCard"`) {
		t.Fatalf("issue with type failed: %+v", env)
	}

	for i := 0; i < 2; i++ {
		env = decode(t, do(t, r, http.MethodPost, "/api/v1/cards/"+card.CardNumber+"/block", ""))
		if env.Code != response.CodeSuccess || !strings.Contains(string(env.Data), `"blocked":true`) {
			t.Fatalf("block %d failed: %+v", i, env)
		}
	}

	if env := decode(t, do(t, r, http.MethodPost, "/api/v1/cards/4000000000000000/block", "")); env.Code != response.CodeCardNotFound {
		t.Fatalf("expected card not found, got %d", env.Code)
	}

	env = decode(t, do(t, r, http.MethodGet, "/api/v1/cards", ""))
	var cards []json.RawMessage
	if err := json.Unmarshal(env.Data, &cards); err != nil {
		t.Fatalf("decode cards: %v", err)
	}
	if len(cards) != 3 {
		t.Fatalf("expected 3 cards for john, got %d", len(cards))
	}
}

func TestStatementEndpoints(t *testing.T) {
	r := newTestRouter(t)
	login(t, r, "sharmila", "password123")

	if env := decode(t, do(t, r, http.MethodGet, "/api/v1/statements?from=03/01/2026", "")); env.Code != response.CodeParamError {
		t.Fatalf("expected param error for bad date, got %d", env.Code)
	}
	if env := decode(t, do(t, r, http.MethodGet, "/api/v1/statements/export", "")); env.Code != response.CodeNoTransactions {
		t.Fatalf("expected no transactions code, got %d", env.Code)
	}

	do(t, r, http.MethodPost, "/api/v1/transfers",
		`{"fromAccount":"SBIN0001001","toAccount":"HDFC0002001","amount":250,"description":"dinner"}`)

	w := do(t, r, http.MethodGet, "/api/v1/statements/export?account=SBIN0001001", "")
	if w.Code != http.StatusOK {
		t.Fatalf("unexpected status %d", w.Code)
	}
	if ct := w.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/csv") {
		t.Fatalf("unexpected content type %q", ct)
	}
	if cd := w.Header().Get("Content-Disposition"); !strings.Contains(cd, "statements_SBIN0001001.csv") {
		t.Fatalf("unexpected content disposition %q", cd)
	}
	lines := strings.Split(w.Body.String(), "\n")
	if len(lines) != 2 || lines[0] != "ID,Date,From,To,Amount,Description,Status" {
		t.Fatalf("unexpected csv %q", w.Body.String())
	}
	if !strings.HasPrefix(lines[1], `1,"`) || !strings.HasSuffix(lines[1], `"SBIN0001001","HDFC0002001",250,"dinner","SUCCESS"`) {
		t.Fatalf("unexpected row %q", lines[1])
	}
}

func TestLoginWithMissingFieldsIsInvalidCredentials(t *testing.T) {
	r := newTestRouter(t)

	for _, body := range []string{
		`{"username":"sharmila","password":""}`,
		`{"username":"sharmila"}`,
		`{}`,
	} {
		env := decode(t, do(t, r, http.MethodPost, "/api/v1/auth/login", body))
		if env.Code != response.CodeInvalidCredentials {
			t.Fatalf("%s: expected invalid credentials, got %d", body, env.Code)
		}
	}
	if env := decode(t, do(t, r, http.MethodPost, "/api/v1/auth/login", `not json`)); env.Code != response.CodeParamError {
		t.Fatalf("expected param error for malformed body, got %d", env.Code)
	}
}
