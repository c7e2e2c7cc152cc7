package tests

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	echoapi "github.com/chuteinicial/backend/apps/api/echo"
	"github.com/chuteinicial/backend/core/student"
)

func Test_studentApi_register(t *testing.T) {
	a := setup(t)
	_, adminToken := a.createAdmin(t)
	grd := a.createGuardian(t, "Maria Souza", "maria2@test.br", "Sup3r!Pwd", true)

	payload := func(name, dob, category, email string) map[string]interface{} {
		return map[string]interface{}{
			"aluno": map[string]string{
				"nome":           name,
				"dataNascimento": dob,
				"categoria":      category,
			},
			"responsavel": map[string]string{
				"nome":     "Maria Souza",
				"email":    email,
				"telefone": "+55 11 91234-5678",
			},
		}
	}

	t.Run("auth required", func(t *testing.T) {
		rec := a.do(t, http.MethodPost, "/v1/criarResponsavelAluno", "", payload("Pedro", "2015-06-15", "Sub-9", "maria@test.br"))
		checkErr(t, rec, http.StatusUnauthorized, "missing or malformed jwt")
	})

	t.Run("admin required", func(t *testing.T) {
		rec := a.do(t, http.MethodPost, "/v1/criarResponsavelAluno", a.token(t, grd), payload("Pedro", "2015-06-15", "Sub-9", "maria@test.br"))
		checkErr(t, rec, http.StatusForbidden, "permission denied")
	})

	t.Run("unknown category", func(t *testing.T) {
		rec := a.do(t, http.MethodPost, "/v1/criarResponsavelAluno", adminToken, payload("Pedro", "2015-06-15", "Sub-99", "maria@test.br"))
		require.Equal(t, http.StatusBadRequest, rec.Code, "body: %s", rec.Body.String())
	})

	t.Run("bad birth date", func(t *testing.T) {
		rec := a.do(t, http.MethodPost, "/v1/criarResponsavelAluno", adminToken, payload("Pedro", "15/06/2015", "Sub-9", "maria@test.br"))
		require.Equal(t, http.StatusBadRequest, rec.Code, "body: %s", rec.Body.String())
	})

	t.Run("ok", func(t *testing.T) {
		rec := a.do(t, http.MethodPost, "/v1/criarResponsavelAluno", adminToken, payload("Pedro Souza", "2015-06-15", "Sub-9", "maria@test.br"))
		require.Equal(t, http.StatusCreated, rec.Code, "body: %s", rec.Body.String())

		var body echoapi.RegistrationResponse
		decode(t, rec, &body)
		assert.True(t, body.NewGuardian)
		assert.True(t, body.Student.IsActive)
		assert.Equal(t, body.Guardian.ID, body.Student.GuardianID)
		assert.Contains(t, body.Guardian.StudentIDs, body.Student.ID)
		assert.Contains(t, body.Message, "temporary credential")

		// a sibling reuses the guardian identity
		rec = a.do(t, http.MethodPost, "/v1/criarResponsavelAluno", adminToken, payload("Paula Souza", "2017-02-01", "Sub-7", "maria@test.br"))
		require.Equal(t, http.StatusCreated, rec.Code, "body: %s", rec.Body.String())

		var body2 echoapi.RegistrationResponse
		decode(t, rec, &body2)
		assert.False(t, body2.NewGuardian)
		assert.Equal(t, body.Guardian.ID, body2.Guardian.ID)
		assert.Contains(t, body2.Message, "existing guardian")
	})
}

func Test_studentApi_attendance(t *testing.T) {
	a := setup(t)
	_, adminToken := a.createAdmin(t)
	reg := a.registerStudent(t, "Pedro Souza", "Sub-9", "maria@test.br")

	t.Run("set", func(t *testing.T) {
		rec := a.do(t, http.MethodPost, "/v1/alunos/"+reg.Student.ID+"/presenca", adminToken,
			map[string]interface{}{"data": "2026-08-24", "presente": true})
		require.Equal(t, http.StatusOK, rec.Code, "body: %s", rec.Body.String())
	})

	t.Run("resubmit overwrites", func(t *testing.T) {
		rec := a.do(t, http.MethodPost, "/v1/alunos/"+reg.Student.ID+"/presenca", adminToken,
			map[string]interface{}{"data": "2026-08-24", "presente": false})
		require.Equal(t, http.StatusOK, rec.Code)

		rec = a.do(t, http.MethodGet, "/v1/alunos/"+reg.Student.ID+"/presencas", adminToken, nil)
		require.Equal(t, http.StatusOK, rec.Code)

		var atts []student.Attendance
		decode(t, rec, &atts)
		require.Len(t, atts, 1)
		assert.False(t, atts[0].Present)
	})

	t.Run("unknown student", func(t *testing.T) {
		rec := a.do(t, http.MethodPost, "/v1/alunos/ghost/presenca", adminToken,
			map[string]interface{}{"data": "2026-08-24", "presente": true})
		checkErr(t, rec, http.StatusNotFound, "not found")
	})
}

func Test_studentApi_markRoster(t *testing.T) {
	a := setup(t)
	_, adminToken := a.createAdmin(t)
	reg1 := a.registerStudent(t, "Pedro Souza", "Sub-9", "maria@test.br")
	reg2 := a.registerStudent(t, "Paula Souza", "Sub-7", "maria@test.br")

	rec := a.do(t, http.MethodPost, "/v1/chamada", adminToken, map[string]interface{}{
		"data": "2026-08-24",
		"presencas": []map[string]interface{}{
			{"alunoId": reg1.Student.ID, "presente": true},
			{"alunoId": reg2.Student.ID, "presente": false},
		},
	})
	require.Equal(t, http.StatusOK, rec.Code, "body: %s", rec.Body.String())

	var body echoapi.RosterResponse
	decode(t, rec, &body)
	assert.Equal(t, 2, body.Marked)
}

func Test_studentApi_lifecycle(t *testing.T) {
	a := setup(t)
	_, adminToken := a.createAdmin(t)
	reg := a.registerStudent(t, "Pedro Souza", "Sub-9", "maria@test.br")

	t.Run("query by category", func(t *testing.T) {
		rec := a.do(t, http.MethodGet, "/v1/alunos?categoria=Sub-9", adminToken, nil)
		require.Equal(t, http.StatusOK, rec.Code)

		var students []student.Student
		decode(t, rec, &students)
		require.Len(t, students, 1)

		rec = a.do(t, http.MethodGet, "/v1/alunos?categoria=Sub-13", adminToken, nil)
		require.Equal(t, http.StatusOK, rec.Code)
		decode(t, rec, &students)
		assert.Empty(t, students)
	})

	t.Run("update", func(t *testing.T) {
		rec := a.do(t, http.MethodPut, "/v1/alunos/"+reg.Student.ID, adminToken,
			map[string]interface{}{"categoria": "Sub-11", "ativo": false})
		require.Equal(t, http.StatusOK, rec.Code, "body: %s", rec.Body.String())

		var std student.Student
		decode(t, rec, &std)
		assert.Equal(t, "Sub-11", std.Category)
		assert.False(t, std.IsActive)
		assert.Equal(t, "Pedro Souza", std.Name, "untouched fields are preserved")
	})

	t.Run("delete", func(t *testing.T) {
		rec := a.do(t, http.MethodDelete, "/v1/alunos/"+reg.Student.ID, adminToken, nil)
		require.Equal(t, http.StatusNoContent, rec.Code)

		rec = a.do(t, http.MethodGet, "/v1/alunos/"+reg.Student.ID, adminToken, nil)
		checkErr(t, rec, http.StatusNotFound, "not found")
	})
}
