package problem

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewAndWithErrors(t *testing.T) {
	fieldErrors := []FieldError{{Field: "answers.age", Message: "is required"}}
	p := New(http.StatusBadRequest, "bad-request", "Bad Request", "details").WithErrors(fieldErrors)

	assert.Equal(t, BaseURI+"/bad-request", p.Type)
	assert.Equal(t, http.StatusBadRequest, p.Status)
	assert.Equal(t, fieldErrors, p.Errors)
	assert.Equal(t, "Bad Request: details", p.Error())
}

func TestProblemWrite(t *testing.T) {
	resp := httptest.NewRecorder()
	BadRequest("invalid").Write(resp)

	assert.Equal(t, http.StatusBadRequest, resp.Code)
	assert.Equal(t, ContentType, resp.Header().Get("Content-Type"))

	var decoded Problem
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&decoded))
	assert.Equal(t, "Bad Request", decoded.Title)
	assert.Equal(t, "invalid", decoded.Detail)
	assert.Empty(t, decoded.Errors)
}

func TestConstructors(t *testing.T) {
	tests := []struct {
		name   string
		p      *Problem
		status int
		typ    string
	}{
		{"not found", NotFound("x"), http.StatusNotFound, "not-found"},
		{"validation", ValidationError("x", nil), http.StatusUnprocessableEntity, "validation-error"},
		{"invalid document", InvalidDocument("x"), http.StatusUnprocessableEntity, "invalid-report"},
		{"too large", PayloadTooLarge("x"), http.StatusRequestEntityTooLarge, "payload-too-large"},
		{"conflict", Conflict("x"), http.StatusConflict, "conflict"},
		{"unavailable", ServiceUnavailable("x"), http.StatusServiceUnavailable, "service-unavailable"},
		{"internal", InternalError("x"), http.StatusInternalServerError, "internal-error"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.status, tt.p.Status)
			assert.Equal(t, BaseURI+"/"+tt.typ, tt.p.Type)
		})
	}
}
