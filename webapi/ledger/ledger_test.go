package ledger_test

import (
	"net/http"
	"testing"

	pkgtestutils "github.com/amirasaad/corebank/pkg/testutils"
	"github.com/amirasaad/corebank/webapi/testutils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newEnv(t *testing.T) *testutils.Env {
	t.Helper()
	db := pkgtestutils.NewSQLiteDB(t)
	env := testutils.New(t, db)
	pkgtestutils.SeedAccount(t, db, "1000000001", "VND", 500000)
	pkgtestutils.SeedAccount(t, db, "1000000002", "VND", 0)
	return env
}

func TestLockThenDebitBeyondAvailable(t *testing.T) {
	env := newEnv(t)

	status, body := env.Do(t, http.MethodPost, "/ledger/locks",
		`{"accountNumber":"1000000001","amount":200000,"lockType":"SAVINGS","referenceId":"sav-1"}`, "")
	require.Equal(t, http.StatusCreated, status, body)
	lock := testutils.Data(t, body)
	assert.Equal(t, "LOCKED", lock["status"])
	assert.Equal(t, "300000", lock["availableBalance"])

	status, body = env.Do(t, http.MethodPost, "/ledger/debit",
		`{"accountNumber":"1000000001","amount":350000,"transactionReference":"tx-1"}`, "")
	assert.Equal(t, http.StatusUnprocessableEntity, status)
	assert.Equal(t, "INSUFFICIENT_BALANCE", body["code"])
	assert.Equal(t, "Business", body["kind"])

	status, body = env.Do(t, http.MethodGet, "/ledger/accounts/1000000001/balance", "", "")
	require.Equal(t, http.StatusOK, status)
	bal := testutils.Data(t, body)
	assert.Equal(t, "500000", bal["balance"])
	assert.Equal(t, "200000", bal["holdAmount"])
	assert.Equal(t, "300000", bal["availableBalance"])
	assert.Equal(t, "VND", bal["currency"])
}

func TestDebitCreditReplay(t *testing.T) {
	env := newEnv(t)
	credit := `{"accountNumber":"1000000002","amount":1000,"transactionReference":"cr-1"}`

	status, body := env.Do(t, http.MethodPost, "/ledger/credit", credit, "")
	require.Equal(t, http.StatusOK, status, body)
	res := testutils.Data(t, body)
	assert.Equal(t, "0", res["previousBalance"])
	assert.Equal(t, "1000", res["newBalance"])
	assert.Equal(t, false, res["replayed"])

	status, body = env.Do(t, http.MethodPost, "/ledger/credit", credit, "")
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, true, testutils.Data(t, body)["replayed"])

	status, body = env.Do(t, http.MethodPost, "/ledger/credit",
		`{"accountNumber":"1000000002","amount":2000,"transactionReference":"cr-1"}`, "")
	assert.Equal(t, http.StatusConflict, status)
	assert.Equal(t, "IDEMPOTENCY_CONFLICT", body["code"])

	status, body = env.Do(t, http.MethodPost, "/ledger/debit",
		`{"accountNumber":"1000000002","amount":400,"transactionReference":"db-1","description":"fee"}`, "")
	require.Equal(t, http.StatusOK, status, body)
	assert.Equal(t, "600", testutils.Data(t, body)["newBalance"])

	status, body = env.Do(t, http.MethodGet, "/ledger/accounts/1000000002/audit", "", "")
	require.Equal(t, http.StatusOK, status)
	assert.Len(t, body["data"], 2)

	status, body = env.Do(t, http.MethodGet, "/ledger/audit/cr-1", "", "")
	require.Equal(t, http.StatusOK, status)
	assert.Len(t, body["data"], 1)
}

func TestValidationProblems(t *testing.T) {
	env := newEnv(t)

	tests := []struct {
		name   string
		method string
		path   string
		body   string
		status int
		code   string
	}{
		{"malformed body", http.MethodPost, "/ledger/debit", `{"accountNumber":`, http.StatusBadRequest, "VALIDATION_ERROR"},
		{"missing reference", http.MethodPost, "/ledger/debit", `{"accountNumber":"1000000001","amount":1}`, http.StatusBadRequest, "VALIDATION_ERROR"},
		{"zero amount", http.MethodPost, "/ledger/credit", `{"accountNumber":"1000000001","amount":0,"transactionReference":"z"}`, http.StatusBadRequest, "INVALID_AMOUNT"},
		{"unknown lock type", http.MethodPost, "/ledger/locks", `{"accountNumber":"1000000001","amount":1,"lockType":"OTHER","referenceId":"r"}`, http.StatusBadRequest, "VALIDATION_ERROR"},
		{"bad lock id", http.MethodPost, "/ledger/locks/not-a-uuid/unlock", "", http.StatusBadRequest, "VALIDATION_ERROR"},
		{"unknown account", http.MethodGet, "/ledger/accounts/404/balance", "", http.StatusNotFound, "ACCOUNT_NOT_FOUND"},
		{"unknown transaction", http.MethodGet, "/ledger/transactions/nope", "", http.StatusNotFound, "TRANSACTION_NOT_FOUND"},
		{"same account", http.MethodPost, "/ledger/transfers", `{"sourceAccountNumber":"1000000001","destinationAccountNumber":"1000000001","amount":1,"transactionReference":"s"}`, http.StatusBadRequest, "SAME_ACCOUNT"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, body := env.Do(t, tt.method, tt.path, tt.body, "")
			assert.Equal(t, tt.status, status, body)
			assert.Equal(t, tt.code, body["code"])
			assert.EqualValues(t, tt.status, body["status"])
		})
	}
}

func TestTransferAndReverse(t *testing.T) {
	env := newEnv(t)
	transfer := `{"sourceAccountNumber":"1000000001","destinationAccountNumber":"1000000002","amount":100000,"fee":1000,"transactionReference":"tx-2"}`

	status, body := env.Do(t, http.MethodPost, "/ledger/transfers", transfer, "")
	require.Equal(t, http.StatusCreated, status, body)
	first := testutils.Data(t, body)
	assert.Equal(t, "COMPLETED", first["status"])
	assert.Equal(t, "399000", first["sourceBalanceAfter"])
	assert.Equal(t, "100000", first["destBalanceAfter"])

	status, body = env.Do(t, http.MethodPost, "/ledger/transfers", transfer, "")
	require.Equal(t, http.StatusOK, status)
	again := testutils.Data(t, body)
	assert.Equal(t, first["transactionId"], again["transactionId"])
	assert.Equal(t, true, again["replayed"])

	status, body = env.Do(t, http.MethodGet, "/ledger/transactions/tx-2", "", "")
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, first["transactionId"], testutils.Data(t, body)["transactionId"])

	status, body = env.Do(t, http.MethodPost, "/ledger/transfers/tx-2/reverse", `{"reason":"customer dispute"}`, "")
	require.Equal(t, http.StatusCreated, status, body)
	rev := testutils.Data(t, body)
	assert.Equal(t, "tx-2:reversal", rev["transactionReference"])
	assert.Equal(t, first["transactionId"], rev["reversalOf"])

	status, body = env.Do(t, http.MethodGet, "/ledger/accounts/1000000001/reconcile", "", "")
	require.Equal(t, http.StatusOK, status)
	report := testutils.Data(t, body)
	assert.Equal(t, true, report["consistent"], report["violations"])
}

func TestUnlockAndRelease(t *testing.T) {
	env := newEnv(t)

	status, body := env.Do(t, http.MethodPost, "/ledger/locks",
		`{"accountNumber":"1000000001","amount":1000,"lockType":"HOLD","referenceId":"h-1"}`, "")
	require.Equal(t, http.StatusCreated, status, body)
	lockID := testutils.Data(t, body)["lockId"].(string)

	status, body = env.Do(t, http.MethodPost, "/ledger/locks/"+lockID+"/unlock", `{"reason":"done"}`, "")
	require.Equal(t, http.StatusOK, status, body)
	assert.Equal(t, "RELEASED", testutils.Data(t, body)["status"])

	// Unlocking a released lock is a replay.
	status, body = env.Do(t, http.MethodPost, "/ledger/locks/"+lockID+"/unlock", "", "")
	require.Equal(t, http.StatusOK, status, body)
	assert.Equal(t, true, testutils.Data(t, body)["replayed"])

	status, body = env.Do(t, http.MethodPost, "/ledger/locks",
		`{"accountNumber":"1000000001","amount":500,"lockType":"COLLATERAL","referenceId":"loan-7"}`, "")
	require.Equal(t, http.StatusCreated, status, body)

	status, body = env.Do(t, http.MethodGet, "/ledger/accounts/1000000001/locks?status=LOCKED", "", "")
	require.Equal(t, http.StatusOK, status)
	assert.Len(t, body["data"], 1)

	status, body = env.Do(t, http.MethodPost, "/ledger/locks/release",
		`{"referenceId":"loan-7","lockType":"COLLATERAL","reason":"loan repaid"}`, "")
	require.Equal(t, http.StatusOK, status, body)
	assert.Equal(t, "RELEASED", testutils.Data(t, body)["status"])

	status, body = env.Do(t, http.MethodGet, "/ledger/accounts/1000000001/locks", "", "")
	require.Equal(t, http.StatusOK, status)
	assert.Len(t, body["data"], 2)
}
