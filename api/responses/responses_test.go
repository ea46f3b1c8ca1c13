package responses

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	pkgerrors "github.com/angelmondragon/pos-inventory/pkg/errors"
	"github.com/angelmondragon/pos-inventory/pkg/logger"
	"github.com/angelmondragon/pos-inventory/pkg/types"
)

func TestWriteSuccess(t *testing.T) {
	w := httptest.NewRecorder()
	WriteSuccess(w, map[string]string{"hello": "world"})

	require.Equal(t, http.StatusOK, w.Code)
	var body types.SuccessEnvelope
	require.NoError(t, json.NewDecoder(w.Body).Decode(&body))
	assert.Equal(t, "world", body.Data.(map[string]any)["hello"])
}

func TestWritePageIncludesCursor(t *testing.T) {
	w := httptest.NewRecorder()
	WritePage(w, []string{"a", "b"}, 2, "next")

	var body struct {
		Data []string       `json:"data"`
		Meta types.PageMeta `json:"meta"`
	}
	require.NoError(t, json.NewDecoder(w.Body).Decode(&body))
	assert.Equal(t, []string{"a", "b"}, body.Data)
	assert.Equal(t, "next", body.Meta.NextCursor)
	assert.Equal(t, 2, body.Meta.Count)
}

func TestWriteErrorMapsTypedErrors(t *testing.T) {
	cases := []struct {
		name    string
		err     error
		status  int
		code    pkgerrors.Code
		message string
	}{
		{"validation", pkgerrors.New(pkgerrors.CodeValidation, "quantity must be positive"), http.StatusBadRequest, pkgerrors.CodeValidation, "quantity must be positive"},
		{"configuration", pkgerrors.New(pkgerrors.CodeConfiguration, "unsupported unit type"), http.StatusUnprocessableEntity, pkgerrors.CodeConfiguration, "unsupported unit type"},
		{"not tracked", pkgerrors.New(pkgerrors.CodeNotTracked, "category is not tracked"), http.StatusNotFound, pkgerrors.CodeNotTracked, "category is not tracked"},
		{"dependency hides message", pkgerrors.Wrap(pkgerrors.CodeDependency, errors.New("dial tcp"), "load item"), http.StatusServiceUnavailable, pkgerrors.CodeDependency, "dependency unavailable"},
		{"untyped becomes internal", errors.New("boom"), http.StatusInternalServerError, pkgerrors.CodeInternal, "internal server error"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			WriteError(context.Background(), logger.Nop(), w, tc.err)

			require.Equal(t, tc.status, w.Code)
			var body types.ErrorEnvelope
			require.NoError(t, json.NewDecoder(w.Body).Decode(&body))
			assert.Equal(t, string(tc.code), body.Error.Code)
			assert.Equal(t, tc.message, body.Error.Message)
		})
	}
}

func TestWriteErrorKeepsAllowedDetails(t *testing.T) {
	w := httptest.NewRecorder()
	err := pkgerrors.New(pkgerrors.CodeConfiguration, "unsupported unit type").
		WithDetails(map[string]any{"allowed": []string{"ml", "pcs"}})
	WriteError(context.Background(), nil, w, err)

	var body struct {
		Error struct {
			Details map[string]any `json:"details"`
		} `json:"error"`
	}
	require.NoError(t, json.NewDecoder(w.Body).Decode(&body))
	assert.Equal(t, []any{"ml", "pcs"}, body.Error.Details["allowed"])
}

func TestWriteErrorSetsRetryAfterForDependencies(t *testing.T) {
	w := httptest.NewRecorder()
	WriteError(context.Background(), logger.Nop(), w, pkgerrors.Wrap(pkgerrors.CodeDependency, errors.New("dial tcp"), "load item"))
	assert.Equal(t, retryAfterSeconds, w.Header().Get("Retry-After"))

	w = httptest.NewRecorder()
	WriteError(context.Background(), logger.Nop(), w, pkgerrors.New(pkgerrors.CodeValidation, "bad"))
	assert.Empty(t, w.Header().Get("Retry-After"))
}
