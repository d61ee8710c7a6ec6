package core_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/memberhub/core"
)

func renderToRecorder(t *testing.T, resp core.Response) (*httptest.ResponseRecorder, core.JSONBody) {
	t.Helper()
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	core.Render(rec, req, resp)

	var body core.JSONBody
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return rec, body
}

func TestJSON(t *testing.T) {
	t.Parallel()

	rec, body := renderToRecorder(t, core.JSON("ok", map[string]string{"checkout_url": "https://pay.example.com"}))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json; charset=utf-8", rec.Header().Get("Content-Type"))
	assert.Equal(t, "ok", body.Status)
	assert.Nil(t, body.Error)
}

func TestJSONStatus(t *testing.T) {
	t.Parallel()

	rec, body := renderToRecorder(t, core.JSONStatus("already_processed"))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "already_processed", body.Status)
	assert.Nil(t, body.Data)
}

func TestJSONError(t *testing.T) {
	t.Parallel()

	t.Run("http error uses its code", func(t *testing.T) {
		t.Parallel()

		rec, body := renderToRecorder(t, core.JSONError(core.ErrBadRequest))
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		require.NotNil(t, body.Error)
		assert.Equal(t, "bad_request", body.Error.Code)
	})

	t.Run("validation error renders details", func(t *testing.T) {
		t.Parallel()

		valErr := core.NewValidationError()
		valErr.Add("tier_slug", "unknown tier")
		valErr.Add("billing_period", "must be monthly or annual")

		rec, body := renderToRecorder(t, core.JSONError(valErr))
		assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
		require.NotNil(t, body.Error)
		assert.Equal(t, "validation_error", body.Error.Code)
		assert.Equal(t, []string{"unknown tier"}, body.Error.Details["tier_slug"])
	})

	t.Run("unknown error defaults to 500", func(t *testing.T) {
		t.Parallel()

		rec, body := renderToRecorder(t, core.JSONError(assert.AnError))
		assert.Equal(t, http.StatusInternalServerError, rec.Code)
		require.NotNil(t, body.Error)
		assert.Equal(t, "internal_server_error", body.Error.Code)
	})
}

func TestValidationError(t *testing.T) {
	t.Parallel()

	valErr := core.NewValidationError()
	assert.True(t, valErr.IsEmpty())
	assert.Equal(t, "validation failed", valErr.Error())

	valErr.Add("email", "required")
	assert.False(t, valErr.IsEmpty())
	assert.True(t, valErr.Has("email"))
	assert.Equal(t, "required", valErr.Get("email"))
	assert.Equal(t, "validation error: email: required", valErr.Error())
}

func TestHTTPError(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "not_found", core.ErrNotFound.Error())
	custom := core.NewHTTPError(http.StatusTeapot, "teapot")
	assert.Equal(t, http.StatusTeapot, custom.Code)
}
