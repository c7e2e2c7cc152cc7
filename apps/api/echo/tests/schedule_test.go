package tests

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chuteinicial/backend/core/schedule"
)

func Test_scheduleApi(t *testing.T) {
	a := setup(t)
	_, adminToken := a.createAdmin(t)
	grd := a.createGuardian(t, "Maria Souza", "maria@test.br", "Sup3r!Pwd", true)
	grdToken := a.token(t, grd)

	slot := map[string]string{
		"categoria": "Sub-9",
		"diaSemana": "Terça",
		"horario":   "17:00 - 18:00",
		"local":     "Campo Municipal",
	}

	t.Run("create requires admin", func(t *testing.T) {
		rec := a.do(t, http.MethodPost, "/v1/horarios", grdToken, slot)
		checkErr(t, rec, http.StatusForbidden, "permission denied")
	})

	var created schedule.Schedule

	t.Run("create", func(t *testing.T) {
		rec := a.do(t, http.MethodPost, "/v1/horarios", adminToken, slot)
		require.Equal(t, http.StatusCreated, rec.Code, "body: %s", rec.Body.String())

		decode(t, rec, &created)
		assert.NotEmpty(t, created.ID)
		assert.Equal(t, "Sub-9", created.Category)
	})

	t.Run("any guardian can list", func(t *testing.T) {
		rec := a.do(t, http.MethodGet, "/v1/horarios", grdToken, nil)
		require.Equal(t, http.StatusOK, rec.Code, "body: %s", rec.Body.String())

		var schs []schedule.Schedule
		decode(t, rec, &schs)
		require.Len(t, schs, 1)
		assert.Equal(t, created.ID, schs[0].ID)
	})

	t.Run("delete", func(t *testing.T) {
		rec := a.do(t, http.MethodDelete, "/v1/horarios/"+created.ID, adminToken, nil)
		require.Equal(t, http.StatusNoContent, rec.Code)

		rec = a.do(t, http.MethodDelete, "/v1/horarios/"+created.ID, adminToken, nil)
		checkErr(t, rec, http.StatusNotFound, "not found")
	})
}
