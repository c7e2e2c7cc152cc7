package tests

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chuteinicial/backend/core/billing"
)

func Test_billingApi_issue(t *testing.T) {
	a := setup(t)
	_, adminToken := a.createAdmin(t)
	reg := a.registerStudent(t, "Pedro Souza", "Sub-9", "maria@test.br")

	payload := func(studentID, guardianID, month string) map[string]interface{} {
		return map[string]interface{}{
			"alunoId":       studentID,
			"responsavelId": guardianID,
			"mesReferencia": month,
			"valor":         80,
		}
	}

	t.Run("bad reference month", func(t *testing.T) {
		rec := a.do(t, http.MethodPost, "/v1/lancarMensalidade", adminToken,
			payload(reg.Student.ID, reg.Guardian.ID, "08-2026"))
		require.Equal(t, http.StatusBadRequest, rec.Code, "body: %s", rec.Body.String())
	})

	t.Run("unknown student", func(t *testing.T) {
		rec := a.do(t, http.MethodPost, "/v1/lancarMensalidade", adminToken,
			payload("ghost", reg.Guardian.ID, "2026-08"))
		checkErr(t, rec, http.StatusNotFound, "student not found")
	})

	t.Run("ok then conflict", func(t *testing.T) {
		rec := a.do(t, http.MethodPost, "/v1/lancarMensalidade", adminToken,
			payload(reg.Student.ID, reg.Guardian.ID, "2026-08"))
		require.Equal(t, http.StatusCreated, rec.Code, "body: %s", rec.Body.String())

		var chg billing.Charge
		decode(t, rec, &chg)
		assert.Equal(t, billing.StatusPending, chg.Status)
		assert.Equal(t, "Pedro Souza", chg.StudentName)
		assert.Equal(t, "maria@test.br", chg.GuardianEmail)

		// the same (student, month) cannot be billed twice
		rec = a.do(t, http.MethodPost, "/v1/lancarMensalidade", adminToken,
			payload(reg.Student.ID, reg.Guardian.ID, "2026-08"))
		require.Equal(t, http.StatusConflict, rec.Code, "body: %s", rec.Body.String())
	})
}

func Test_billingApi_issueBatch(t *testing.T) {
	a := setup(t)
	_, adminToken := a.createAdmin(t)
	a.registerStudent(t, "Pedro Souza", "Sub-9", "maria@test.br")
	a.registerStudent(t, "Lucas Dias", "Sub-11", "carla@test.br")

	batch := map[string]string{"mesReferencia": "2026-08"}

	rec := a.do(t, http.MethodPost, "/v1/lancarMensalidadesEmLote", adminToken, batch)
	require.Equal(t, http.StatusOK, rec.Code, "body: %s", rec.Body.String())

	var summary billing.BatchSummary
	decode(t, rec, &summary)
	assert.Equal(t, 2, summary.Created)
	assert.Equal(t, 0, summary.Skipped)

	// idempotent re-run
	rec = a.do(t, http.MethodPost, "/v1/lancarMensalidadesEmLote", adminToken, batch)
	require.Equal(t, http.StatusOK, rec.Code)
	decode(t, rec, &summary)
	assert.Equal(t, 0, summary.Created)
	assert.Equal(t, 2, summary.Skipped)

	rec = a.do(t, http.MethodGet, "/v1/mensalidades?mesReferencia=2026-08", adminToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var charges []billing.Charge
	decode(t, rec, &charges)
	assert.Len(t, charges, 2)
}
