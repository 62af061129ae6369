package integration

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	httpHandler "corebank/internal/adapter/http/handler"
	redisStorage "corebank/internal/adapter/storage/redis"
	"corebank/internal/core/domain"
	"corebank/internal/service"
	"corebank/pkg/logger"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// testApp builds the full application stack: the real HTTP layer,
// middleware, handlers and services on top of in-memory repositories and
// miniredis for the idempotency cache and the long-poll event bus.

const (
	testCurrency     = "KUDOS"
	testFiatCurrency = "EUR"
	adminLogin       = "admin"
	adminPassword    = "AdminPass123!"
	testPassword     = "StrongPass123!"
)

type testApp struct {
	server *httptest.Server
	redis  *miniredis.Miniredis
	sender *recordingTanSender
}

func newTestApp(t *testing.T) *testApp {
	t.Helper()

	mr, err := miniredis.Run()
	require.NoError(t, err)

	rdb := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})

	idempotencyCache := redisStorage.NewIdempotencyCache(rdb)
	eventBus := redisStorage.NewEventBus(rdb)

	accountRepo := newInMemoryAccountRepo()
	txRepo := newInMemoryTransactionRepo()
	idempotencyRepo := newInMemoryIdempotencyRepo()
	withdrawalRepo := newInMemoryWithdrawalRepo()
	cashoutRepo := newInMemoryCashoutRepo()
	tanRepo := newInMemoryTanRepo()
	transactor := newInMemoryTransactor()
	sender := &recordingTanSender{}

	log := logger.New("debug", false)
	hashSvc := service.NewArgon2HashService()
	tokenSvc := service.NewJWTTokenService("test-jwt-secret-key-32bytes!!", 24*time.Hour, "test-issuer")

	accountSvc := service.NewAccountService(
		accountRepo, hashSvc, tokenSvc,
		testCurrency, "DE", domain.ZeroAmount(testCurrency), log,
	)
	ledgerSvc := service.NewLedgerService(
		accountRepo, txRepo, idempotencyRepo, idempotencyCache,
		transactor, eventBus, testCurrency, log,
	)
	historySvc := service.NewHistoryService(accountRepo, txRepo, eventBus, log)
	tanSvc := service.NewTanService(tanRepo, sender, 3, 5*time.Minute, domain.TanChannelLog, log)
	conversionSvc := service.NewConversionService(
		oneToOneRate(t, testFiatCurrency, testCurrency),
		oneToOneRate(t, testCurrency, testFiatCurrency),
	)
	withdrawalSvc := service.NewWithdrawalService(
		withdrawalRepo, accountRepo, ledgerSvc, transactor, testCurrency, false, log,
	)
	cashoutSvc := service.NewCashoutService(
		cashoutRepo, accountRepo, tanRepo, tanSvc, conversionSvc,
		ledgerSvc, transactor, adminLogin, log,
	)

	// The settlement account seeds test balances, so it gets a deep debt
	// allowance the way a real deployment would configure its house account.
	adminHash, err := hashSvc.Hash(adminPassword)
	require.NoError(t, err)
	adminThreshold, err := domain.ParseAmount(testCurrency + ":1000000000")
	require.NoError(t, err)
	adminPayto := domain.Payto{Iban: domain.NewIban("DE"), ReceiverName: "Bank Administration"}
	require.NoError(t, accountRepo.Create(context.Background(), &domain.Account{
		Login:         adminLogin,
		Name:          "Bank Administration",
		PasswordHash:  adminHash,
		PaytoURI:      adminPayto.URI(),
		Balance:       domain.ZeroAmount(testCurrency),
		DebtThreshold: adminThreshold,
		IsAdmin:       true,
		CreatedAt:     time.Now().UTC(),
	}))

	router := httpHandler.SetupRouter(httpHandler.RouterDeps{
		AccountSvc:    accountSvc,
		LedgerSvc:     ledgerSvc,
		HistorySvc:    historySvc,
		WithdrawalSvc: withdrawalSvc,
		CashoutSvc:    cashoutSvc,
		ConversionSvc: conversionSvc,
		TokenSvc:      tokenSvc,
		Logger:        log,
	})

	return &testApp{
		server: httptest.NewServer(router),
		redis:  mr,
		sender: sender,
	}
}

func (a *testApp) close() {
	a.server.Close()
	a.redis.Close()
}

func oneToOneRate(t *testing.T, debitCurrency, creditCurrency string) domain.ConversionRate {
	t.Helper()
	ratio, err := domain.ParseDecimal("1")
	require.NoError(t, err)
	return domain.ConversionRate{
		Ratio:      ratio,
		Fee:        domain.ZeroAmount(creditCurrency),
		MinAmount:  domain.ZeroAmount(debitCurrency),
		TinyAmount: domain.ZeroAmount(creditCurrency),
		Rounding:   domain.RoundNearest,
	}
}

// --- Integration Tests ---

func TestIntegration_HealthCheck(t *testing.T) {
	app := newTestApp(t)
	defer app.close()

	resp, err := http.Get(app.server.URL + "/health")
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	var body map[string]interface{}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, "healthy", body["status"])
}

func TestIntegration_RegisterAndLogin(t *testing.T) {
	app := newTestApp(t)
	defer app.close()

	status, data := app.register(t, "alice")
	require.Equal(t, http.StatusCreated, status)
	assert.Equal(t, "alice", data["login"])
	assert.NotEmpty(t, data["payto_uri"])
	balance := data["balance"].(map[string]interface{})
	assert.Equal(t, testCurrency, balance["currency"])
	assert.Equal(t, float64(0), balance["value"])

	token := app.login(t, "alice", testPassword)
	assert.NotEmpty(t, token)
}

func TestIntegration_LoginWrongCredentials(t *testing.T) {
	app := newTestApp(t)
	defer app.close()

	app.register(t, "alice")

	resp := app.postJSON(t, "/api/v1/auth/login", "", map[string]string{
		"login":    "alice",
		"password": "not-the-password",
	})
	defer resp.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestIntegration_DuplicateLogin(t *testing.T) {
	app := newTestApp(t)
	defer app.close()

	status, _ := app.register(t, "alice")
	require.Equal(t, http.StatusCreated, status)

	status, _ = app.register(t, "alice")
	assert.Equal(t, http.StatusConflict, status)
}

func TestIntegration_UnauthorizedWithoutToken(t *testing.T) {
	app := newTestApp(t)
	defer app.close()

	app.register(t, "alice")

	resp := app.getJSON(t, "/api/v1/accounts/alice", "")
	defer resp.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestIntegration_CrossAccountDenied(t *testing.T) {
	app := newTestApp(t)
	defer app.close()

	app.register(t, "alice")
	app.register(t, "bob")
	aliceToken := app.login(t, "alice", testPassword)

	resp := app.getJSON(t, "/api/v1/accounts/bob", aliceToken)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	assert.Equal(t, "BANK_AUTH_DENIED", errorCode(t, resp))

	// The admin token passes the same check.
	adminToken := app.login(t, adminLogin, adminPassword)
	resp2 := app.getJSON(t, "/api/v1/accounts/bob", adminToken)
	defer resp2.Body.Close()
	assert.Equal(t, http.StatusOK, resp2.StatusCode)
}

func TestIntegration_TransferAndHistory(t *testing.T) {
	app := newTestApp(t)
	defer app.close()

	_, aliceData := app.register(t, "alice")
	_, bobData := app.register(t, "bob")
	app.seed(t, "alice", testCurrency+":100")

	aliceToken := app.login(t, "alice", testPassword)
	resp := app.postJSON(t, "/api/v1/accounts/alice/transactions", aliceToken, map[string]string{
		"creditor_payto": bobData["payto_uri"].(string),
		"subject":        "rent",
		"amount":         testCurrency + ":40",
	})
	defer resp.Body.Close()
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	txn := decodeData(t, resp)
	assert.Equal(t, "debit", txn["direction"])
	assert.Equal(t, "rent", txn["subject"])
	rowID := int64(txn["row_id"].(float64))

	assert.Equal(t, testCurrency+":60", app.balanceOf(t, "alice", aliceToken))
	bobToken := app.login(t, "bob", testPassword)
	assert.Equal(t, testCurrency+":40", app.balanceOf(t, "bob", bobToken))

	// Reading back the debit row by its id.
	respGet := app.getJSON(t, fmt.Sprintf("/api/v1/accounts/alice/transactions/%d", rowID), aliceToken)
	defer respGet.Body.Close()
	assert.Equal(t, http.StatusOK, respGet.StatusCode)

	// Bob's side of the ledger shows one credit row.
	respHist := app.getJSON(t, "/api/v1/accounts/bob/transactions?delta=-10", bobToken)
	defer respHist.Body.Close()
	require.Equal(t, http.StatusOK, respHist.StatusCode)
	hist := decodeData(t, respHist)
	rows := hist["transactions"].([]interface{})
	require.Len(t, rows, 1)
	row := rows[0].(map[string]interface{})
	assert.Equal(t, "credit", row["direction"])
	assert.Equal(t, aliceData["payto_uri"], row["counterparty_payto"])

	// Alice cannot read bob's feed row by id.
	respCross := app.getJSON(t, fmt.Sprintf("/api/v1/accounts/bob/transactions/%d", rowID), aliceToken)
	defer respCross.Body.Close()
	assert.Equal(t, http.StatusForbidden, respCross.StatusCode)
}

func TestIntegration_InsufficientFunds(t *testing.T) {
	app := newTestApp(t)
	defer app.close()

	app.register(t, "alice")
	_, bobData := app.register(t, "bob")

	aliceToken := app.login(t, "alice", testPassword)
	resp := app.postJSON(t, "/api/v1/accounts/alice/transactions", aliceToken, map[string]string{
		"creditor_payto": bobData["payto_uri"].(string),
		"subject":        "too much",
		"amount":         testCurrency + ":1",
	})
	defer resp.Body.Close()
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	assert.Equal(t, "BANK_INSUFFICIENT_FUNDS", errorCode(t, resp))
}

func TestIntegration_TransactionIdempotency(t *testing.T) {
	app := newTestApp(t)
	defer app.close()

	app.register(t, "alice")
	_, bobData := app.register(t, "bob")
	app.seed(t, "alice", testCurrency+":100")
	aliceToken := app.login(t, "alice", testPassword)

	body := map[string]string{
		"creditor_payto": bobData["payto_uri"].(string),
		"subject":        "invoice 7",
		"amount":         testCurrency + ":25",
		"request_uid":    "client-uid-001",
	}

	resp1 := app.postJSON(t, "/api/v1/accounts/alice/transactions", aliceToken, body)
	defer resp1.Body.Close()
	require.Equal(t, http.StatusCreated, resp1.StatusCode)
	first := decodeData(t, resp1)

	resp2 := app.postJSON(t, "/api/v1/accounts/alice/transactions", aliceToken, body)
	defer resp2.Body.Close()
	require.Equal(t, http.StatusCreated, resp2.StatusCode)
	second := decodeData(t, resp2)
	assert.Equal(t, first["row_id"], second["row_id"])

	// The replay did not move money twice.
	assert.Equal(t, testCurrency+":75", app.balanceOf(t, "alice", aliceToken))

	// Same uid, different parameters.
	body["amount"] = testCurrency + ":26"
	resp3 := app.postJSON(t, "/api/v1/accounts/alice/transactions", aliceToken, body)
	defer resp3.Body.Close()
	assert.Equal(t, http.StatusConflict, resp3.StatusCode)
	assert.Equal(t, "BANK_UID_REUSE", errorCode(t, resp3))
}

func TestIntegration_HistoryLongPoll(t *testing.T) {
	app := newTestApp(t)
	defer app.close()

	app.register(t, "alice")
	aliceToken := app.login(t, "alice", testPassword)

	// Empty history without news within the budget is a 204.
	respEmpty := app.getJSON(t, "/api/v1/accounts/alice/transactions?delta=10&long_poll_ms=100", aliceToken)
	defer respEmpty.Body.Close()
	assert.Equal(t, http.StatusNoContent, respEmpty.StatusCode)

	// A waiter parked on the feed wakes when a transfer lands.
	type result struct {
		status int
		rows   int
	}
	done := make(chan result, 1)
	go func() {
		resp := app.getJSON(t, "/api/v1/accounts/alice/transactions?delta=10&long_poll_ms=5000", aliceToken)
		defer resp.Body.Close()
		rows := 0
		if resp.StatusCode == http.StatusOK {
			data := decodeData(t, resp)
			rows = len(data["transactions"].([]interface{}))
		}
		done <- result{status: resp.StatusCode, rows: rows}
	}()

	time.Sleep(200 * time.Millisecond)
	app.seed(t, "alice", testCurrency+":5")

	select {
	case res := <-done:
		assert.Equal(t, http.StatusOK, res.status)
		assert.Equal(t, 1, res.rows)
	case <-time.After(4 * time.Second):
		t.Fatal("long poll did not wake on the transfer")
	}
}

func TestIntegration_WithdrawalFlow(t *testing.T) {
	app := newTestApp(t)
	defer app.close()

	app.register(t, "alice")
	_, exchangeData := app.registerWith(t, "exchange", map[string]interface{}{
		"login":       "exchange",
		"password":    testPassword,
		"name":        "Taler Exchange",
		"is_exchange": true,
	})
	app.seed(t, "alice", testCurrency+":100")
	aliceToken := app.login(t, "alice", testPassword)

	resp := app.postJSON(t, "/api/v1/accounts/alice/withdrawals", aliceToken, map[string]string{
		"amount": testCurrency + ":25",
	})
	defer resp.Body.Close()
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	op := decodeData(t, resp)
	withdrawalID := op["withdrawal_id"].(string)
	assert.Equal(t, "pending", op["status"])

	// The wallet knows only the uuid, no bearer token.
	respSel := app.postJSON(t, "/api/v1/withdrawals/"+withdrawalID+"/select", "", map[string]string{
		"selected_exchange": exchangeData["payto_uri"].(string),
		"reserve_pub":       "RESERVE-PUB-TEST-1",
	})
	defer respSel.Body.Close()
	require.Equal(t, http.StatusOK, respSel.StatusCode)
	assert.Equal(t, "selected", decodeData(t, respSel)["status"])

	respConf := app.postJSON(t, "/api/v1/withdrawals/"+withdrawalID+"/confirm", "", nil)
	defer respConf.Body.Close()
	require.Equal(t, http.StatusOK, respConf.StatusCode)
	assert.Equal(t, "confirmed", decodeData(t, respConf)["status"])

	assert.Equal(t, testCurrency+":75", app.balanceOf(t, "alice", aliceToken))
	exchangeToken := app.login(t, "exchange", testPassword)
	assert.Equal(t, testCurrency+":25", app.balanceOf(t, "exchange", exchangeToken))

	// The credit row carries the reserve public key as subject.
	respHist := app.getJSON(t, "/api/v1/accounts/exchange/transactions?delta=-10", exchangeToken)
	defer respHist.Body.Close()
	rows := decodeData(t, respHist)["transactions"].([]interface{})
	require.Len(t, rows, 1)
	assert.Equal(t, "RESERVE-PUB-TEST-1", rows[0].(map[string]interface{})["subject"])

	// Confirming again is a no-op replay.
	respAgain := app.postJSON(t, "/api/v1/withdrawals/"+withdrawalID+"/confirm", "", nil)
	defer respAgain.Body.Close()
	assert.Equal(t, http.StatusOK, respAgain.StatusCode)
	assert.Equal(t, testCurrency+":75", app.balanceOf(t, "alice", aliceToken))
}

func TestIntegration_CashoutFlow(t *testing.T) {
	app := newTestApp(t)
	defer app.close()

	app.register(t, "alice")
	app.seed(t, "alice", testCurrency+":100")
	aliceToken := app.login(t, "alice", testPassword)

	resp := app.postJSON(t, "/api/v1/accounts/alice/cashouts", aliceToken, map[string]string{
		"amount_debit":    testCurrency + ":20",
		"amount_credit":   testFiatCurrency + ":20",
		"subject":         "to my bank",
		"cashout_address": "payto://iban/DE9876543210",
	})
	defer resp.Body.Close()
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	created := decodeData(t, resp)
	cashoutID := created["cashout_id"].(string)
	assert.Equal(t, "pending", created["status"])

	code := app.sender.lastCode()
	require.NotEmpty(t, code)

	respConf := app.postJSON(t, "/api/v1/accounts/alice/cashouts/"+cashoutID+"/confirm", aliceToken, map[string]string{
		"code": code,
	})
	defer respConf.Body.Close()
	require.Equal(t, http.StatusOK, respConf.StatusCode)
	confirmed := decodeData(t, respConf)
	assert.Equal(t, "confirmed", confirmed["status"])
	assert.NotNil(t, confirmed["local_transaction_id"])

	assert.Equal(t, testCurrency+":80", app.balanceOf(t, "alice", aliceToken))

	// The challenge is consumed; a replayed confirmation cannot debit twice.
	respAgain := app.postJSON(t, "/api/v1/accounts/alice/cashouts/"+cashoutID+"/confirm", aliceToken, map[string]string{
		"code": code,
	})
	defer respAgain.Body.Close()
	assert.Equal(t, http.StatusConflict, respAgain.StatusCode)
	assert.Equal(t, "BANK_TAN_CONSUMED", errorCode(t, respAgain))
	assert.Equal(t, testCurrency+":80", app.balanceOf(t, "alice", aliceToken))
}

func TestIntegration_CashoutWrongQuoteRejected(t *testing.T) {
	app := newTestApp(t)
	defer app.close()

	app.register(t, "alice")
	app.seed(t, "alice", testCurrency+":100")
	aliceToken := app.login(t, "alice", testPassword)

	resp := app.postJSON(t, "/api/v1/accounts/alice/cashouts", aliceToken, map[string]string{
		"amount_debit":  testCurrency + ":20",
		"amount_credit": testFiatCurrency + ":21",
		"subject":       "stale quote",
	})
	defer resp.Body.Close()
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	assert.Equal(t, "BANK_CONVERSION_MISMATCH", errorCode(t, resp))
}

func TestIntegration_ConversionQuotes(t *testing.T) {
	app := newTestApp(t)
	defer app.close()

	resp := app.getJSON(t, "/api/v1/conversion/cashout-quote?amount_debit="+testCurrency+":20", "")
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	quote := decodeData(t, resp)
	assert.Equal(t, testFiatCurrency+":20", quote["amount_credit"])

	respIn := app.getJSON(t, "/api/v1/conversion/cashin-quote?amount_debit="+testFiatCurrency+":5", "")
	defer respIn.Body.Close()
	require.Equal(t, http.StatusOK, respIn.StatusCode)
	quoteIn := decodeData(t, respIn)
	assert.Equal(t, testCurrency+":5", quoteIn["amount_credit"])
}

func TestIntegration_AdminSetsDebtThreshold(t *testing.T) {
	app := newTestApp(t)
	defer app.close()

	app.register(t, "alice")
	aliceToken := app.login(t, "alice", testPassword)
	adminToken := app.login(t, adminLogin, adminPassword)

	// Only the admin may move the debt limit.
	respDenied := app.patchJSON(t, "/api/v1/accounts/alice/debt-threshold", aliceToken, map[string]string{
		"debt_threshold": testCurrency + ":50",
	})
	defer respDenied.Body.Close()
	assert.Equal(t, http.StatusForbidden, respDenied.StatusCode)

	respOK := app.patchJSON(t, "/api/v1/accounts/alice/debt-threshold", adminToken, map[string]string{
		"debt_threshold": testCurrency + ":50",
	})
	defer respOK.Body.Close()
	require.Equal(t, http.StatusNoContent, respOK.StatusCode)

	// Alice can now overdraw up to the new limit.
	_, bobData := app.register(t, "bob")
	respTx := app.postJSON(t, "/api/v1/accounts/alice/transactions", aliceToken, map[string]string{
		"creditor_payto": bobData["payto_uri"].(string),
		"subject":        "on credit",
		"amount":         testCurrency + ":30",
	})
	defer respTx.Body.Close()
	require.Equal(t, http.StatusCreated, respTx.StatusCode)

	respAcct := app.getJSON(t, "/api/v1/accounts/alice", aliceToken)
	defer respAcct.Body.Close()
	acct := decodeData(t, respAcct)
	assert.Equal(t, true, acct["has_debt"])
}

// --- Helpers ---

func (a *testApp) register(t *testing.T, login string) (int, map[string]interface{}) {
	t.Helper()
	return a.registerWith(t, login, map[string]interface{}{
		"login":    login,
		"password": testPassword,
		"name":     "Test " + login,
	})
}

func (a *testApp) registerWith(t *testing.T, login string, body map[string]interface{}) (int, map[string]interface{}) {
	t.Helper()
	resp := a.postJSON(t, "/api/v1/auth/register", "", body)
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusCreated {
		return resp.StatusCode, nil
	}
	return resp.StatusCode, decodeData(t, resp)
}

func (a *testApp) login(t *testing.T, login, password string) string {
	t.Helper()
	resp := a.postJSON(t, "/api/v1/auth/login", "", map[string]string{
		"login":    login,
		"password": password,
	})
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	return decodeData(t, resp)["token"].(string)
}

// seed moves funds from the settlement account onto the target account.
func (a *testApp) seed(t *testing.T, login, amount string) {
	t.Helper()
	adminToken := a.login(t, adminLogin, adminPassword)

	respAcct := a.getJSON(t, "/api/v1/accounts/"+login, adminToken)
	defer respAcct.Body.Close()
	require.Equal(t, http.StatusOK, respAcct.StatusCode)
	payto := decodeData(t, respAcct)["payto_uri"].(string)

	resp := a.postJSON(t, "/api/v1/accounts/"+adminLogin+"/transactions", adminToken, map[string]string{
		"creditor_payto": payto,
		"subject":        "seed",
		"amount":         amount,
	})
	defer resp.Body.Close()
	require.Equal(t, http.StatusCreated, resp.StatusCode)
}

func (a *testApp) balanceOf(t *testing.T, login, token string) string {
	t.Helper()
	resp := a.getJSON(t, "/api/v1/accounts/"+login, token)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	balance := decodeData(t, resp)["balance"].(map[string]interface{})
	amt, err := domain.NewAmount(balance["currency"].(string), uint64(balance["value"].(float64)), uint32(balance["frac"].(float64)))
	require.NoError(t, err)
	return amt.String()
}

func (a *testApp) postJSON(t *testing.T, path, token string, body interface{}) *http.Response {
	t.Helper()
	return a.doJSON(t, http.MethodPost, path, token, body)
}

func (a *testApp) patchJSON(t *testing.T, path, token string, body interface{}) *http.Response {
	t.Helper()
	return a.doJSON(t, http.MethodPatch, path, token, body)
}

func (a *testApp) getJSON(t *testing.T, path, token string) *http.Response {
	t.Helper()
	return a.doJSON(t, http.MethodGet, path, token, nil)
}

func (a *testApp) doJSON(t *testing.T, method, path, token string, body interface{}) *http.Response {
	t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}
	req, err := http.NewRequest(method, a.server.URL+path, reader)
	require.NoError(t, err)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	return resp
}

func decodeData(t *testing.T, resp *http.Response) map[string]interface{} {
	t.Helper()
	var envelope struct {
		Data map[string]interface{} `json:"data"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&envelope))
	return envelope.Data
}

func errorCode(t *testing.T, resp *http.Response) string {
	t.Helper()
	var envelope struct {
		ErrorCode string `json:"error_code"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&envelope))
	return envelope.ErrorCode
}
