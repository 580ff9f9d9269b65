package account_test

import (
	"net/http"
	"testing"

	"github.com/amirasaad/corebank/pkg/domain/events"
	pkgtestutils "github.com/amirasaad/corebank/pkg/testutils"
	"github.com/amirasaad/corebank/webapi/testutils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSyncAccount(t *testing.T) {
	env := testutils.New(t, pkgtestutils.NewSQLiteDB(t))
	body := `{"accountNumber":"2000000001","customerRef":"CUST-1","currency":"VND"}`

	status, res := env.Do(t, http.MethodPost, "/accounts/sync", body, "")
	require.Equal(t, http.StatusCreated, status, res)
	data := testutils.Data(t, res)
	assert.Equal(t, "ACTIVE", data["status"])
	assert.Equal(t, false, data["alreadySynced"])

	status, res = env.Do(t, http.MethodPost, "/accounts/sync", body, "")
	require.Equal(t, http.StatusOK, status, res)
	assert.Equal(t, true, testutils.Data(t, res)["alreadySynced"])

	synced := 0
	for _, e := range env.Bus.Published() {
		if e.Type() == events.EventTypeAccountSynced.String() {
			synced++
		}
	}
	assert.Equal(t, 1, synced)

	status, res = env.Do(t, http.MethodGet, "/ledger/accounts/2000000001/balance", "", "")
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "0", testutils.Data(t, res)["balance"])
}

func TestSyncAccountProblems(t *testing.T) {
	env := testutils.New(t, pkgtestutils.NewSQLiteDB(t))

	tests := []struct {
		name   string
		body   string
		status int
		code   string
	}{
		{"blocked customer", `{"accountNumber":"2000000002","customerRef":"CUST-2","currency":"VND"}`, http.StatusUnprocessableEntity, "CUSTOMER_NOT_ELIGIBLE"},
		{"unknown customer", `{"accountNumber":"2000000003","customerRef":"CUST-404","currency":"VND"}`, http.StatusUnprocessableEntity, "CUSTOMER_NOT_ELIGIBLE"},
		{"lowercase currency", `{"accountNumber":"2000000004","customerRef":"CUST-1","currency":"vnd"}`, http.StatusBadRequest, "VALIDATION_ERROR"},
		{"unknown type", `{"accountNumber":"2000000005","customerRef":"CUST-1","currency":"VND","type":"LOAN"}`, http.StatusBadRequest, "VALIDATION_ERROR"},
		{"missing customer", `{"accountNumber":"2000000006","currency":"VND"}`, http.StatusBadRequest, "VALIDATION_ERROR"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, res := env.Do(t, http.MethodPost, "/accounts/sync", tt.body, "")
			assert.Equal(t, tt.status, status, res)
			assert.Equal(t, tt.code, res["code"])
		})
	}
}

func TestUpdateStatus(t *testing.T) {
	db := pkgtestutils.NewSQLiteDB(t)
	env := testutils.New(t, db)
	pkgtestutils.SeedAccount(t, db, "2000000010", "VND", 1000)

	status, res := env.Do(t, http.MethodPatch, "/accounts/2000000010/status", `{"status":"FROZEN","reason":"court order"}`, "")
	require.Equal(t, http.StatusOK, status, res)
	data := testutils.Data(t, res)
	assert.Equal(t, "ACTIVE", data["previousStatus"])
	assert.Equal(t, "FROZEN", data["status"])
	assert.Equal(t, true, data["changed"])

	status, res = env.Do(t, http.MethodPatch, "/accounts/2000000010/status", `{"status":"FROZEN"}`, "")
	require.Equal(t, http.StatusOK, status, res)
	assert.Equal(t, false, testutils.Data(t, res)["changed"])

	status, res = env.Do(t, http.MethodPost, "/ledger/debit",
		`{"accountNumber":"2000000010","amount":10,"transactionReference":"frozen-1"}`, "")
	assert.Equal(t, http.StatusUnprocessableEntity, status)
	assert.Equal(t, "ACCOUNT_NOT_ACTIVE", res["code"])

	status, res = env.Do(t, http.MethodPatch, "/accounts/2000000010/status", `{"status":"SLEEPING"}`, "")
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "VALIDATION_ERROR", res["code"])

	status, res = env.Do(t, http.MethodPatch, "/accounts/404/status", `{"status":"FROZEN"}`, "")
	assert.Equal(t, http.StatusNotFound, status)
	assert.Equal(t, "ACCOUNT_NOT_FOUND", res["code"])
}
