package transfer_test

import (
	"net/http"
	"testing"

	"github.com/amirasaad/corebank/pkg/domain"
	"github.com/amirasaad/corebank/pkg/domain/events"
	pkgtestutils "github.com/amirasaad/corebank/pkg/testutils"
	"github.com/amirasaad/corebank/webapi/testutils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newEnv(t *testing.T) *testutils.Env {
	t.Helper()
	db := pkgtestutils.NewSQLiteDB(t)
	env := testutils.New(t, db)
	pkgtestutils.SeedAccount(t, db, "1000000001", "VND", 1000000)
	pkgtestutils.SeedAccount(t, db, "1000000002", "VND", 0)
	env.Partner.AddAccount("PARTNER", "5000000001", "Le Van C", true)
	return env
}

func countOf(env *testutils.Env, et events.EventType) int {
	n := 0
	for _, e := range env.Bus.Published() {
		if e.Type() == et.String() {
			n++
		}
	}
	return n
}

func TestInternalTransfer(t *testing.T) {
	env := newEnv(t)
	body := `{"traceId":"t-1","sourceAccountNumber":"1000000001","destinationAccountNumber":"1000000002","amount":250000}`

	status, res := env.Do(t, http.MethodPost, "/transfers", body, "")
	require.Equal(t, http.StatusCreated, status, res)
	first := testutils.Data(t, res)
	assert.Equal(t, "COMPLETED", first["status"])
	assert.Equal(t, "INTERNAL_TRANSFER", first["type"])

	status, res = env.Do(t, http.MethodPost, "/transfers", body, "")
	require.Equal(t, http.StatusOK, status, res)
	assert.Equal(t, first["transactionId"], testutils.Data(t, res)["transactionId"])
	assert.Equal(t, 1, countOf(env, events.EventTypeTransferCompleted))

	status, res = env.Do(t, http.MethodPost, "/transfers/t-1/reverse", `{"reason":"duplicate order"}`, "")
	require.Equal(t, http.StatusCreated, status, res)
	assert.Equal(t, "t-1:reversal", testutils.Data(t, res)["transactionReference"])

	status, res = env.Do(t, http.MethodPost, "/transfers/t-1/reverse", "", "")
	require.Equal(t, http.StatusOK, status, res)
	assert.Equal(t, 1, countOf(env, events.EventTypeTransferReversed))
}

func TestInterbankTransfer(t *testing.T) {
	env := newEnv(t)

	status, res := env.Do(t, http.MethodPost, "/transfers",
		`{"traceId":"ib-1","sourceAccountNumber":"1000000001","destinationAccountNumber":"5000000001","destinationBankCode":"PARTNER","amount":100000}`, "")
	require.Equal(t, http.StatusCreated, status, res)
	data := testutils.Data(t, res)
	assert.Equal(t, "COMPLETED", data["status"])
	assert.Equal(t, "PARTNER", data["destinationBankCode"])
	assert.Len(t, env.Partner.Settlements(), 1)

	status, res = env.Do(t, http.MethodPost, "/transfers",
		`{"traceId":"ib-2","sourceAccountNumber":"1000000001","destinationAccountNumber":"5000000404","destinationBankCode":"PARTNER","amount":100000}`, "")
	assert.Equal(t, http.StatusUnprocessableEntity, status)
	assert.Equal(t, "DESTINATION_NOT_FOUND", res["code"])

	env.Partner.FailNext("VerifyAccount", domain.ErrConnectionFailure)
	status, res = env.Do(t, http.MethodPost, "/transfers",
		`{"traceId":"ib-3","sourceAccountNumber":"1000000001","destinationAccountNumber":"5000000001","destinationBankCode":"PARTNER","amount":100000}`, "")
	assert.Equal(t, http.StatusServiceUnavailable, status)
	assert.Equal(t, "SERVICE_UNAVAILABLE", res["code"])

	status, res = env.Do(t, http.MethodGet, "/ledger/accounts/1000000001/balance", "", "")
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "900000", testutils.Data(t, res)["balance"])
}

func TestTransferProblems(t *testing.T) {
	env := newEnv(t)

	status, res := env.Do(t, http.MethodPost, "/transfers",
		`{"traceId":"p-1","sourceAccountNumber":"1000000002","destinationAccountNumber":"1000000001","amount":5}`, "")
	assert.Equal(t, http.StatusUnprocessableEntity, status)
	assert.Equal(t, "INSUFFICIENT_BALANCE", res["code"])

	status, res = env.Do(t, http.MethodPost, "/transfers",
		`{"sourceAccountNumber":"1000000001","destinationAccountNumber":"1000000002","amount":5}`, "")
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "VALIDATION_ERROR", res["code"])

	status, res = env.Do(t, http.MethodPost, "/transfers/missing/reverse", "", "")
	assert.Equal(t, http.StatusNotFound, status)
	assert.Equal(t, "TRANSACTION_NOT_FOUND", res["code"])
}
