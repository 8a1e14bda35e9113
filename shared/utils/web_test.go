package utils

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/itchan-dev/blogfront/shared/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeValidate(t *testing.T) {
	type TestStruct struct {
		Field1 string `json:"field1" validate:"required,notblank"`
		Field2 int    `json:"field2"`
	}

	tests := []struct {
		name        string
		requestBody string
		expectedErr *errors.ErrorWithStatusCode
	}{
		{
			name:        "Valid JSON and Validation",
			requestBody: `{"field1": "value", "field2": 123}`,
		},
		{
			name:        "Invalid JSON",
			requestBody: `{"field1": "value", "field2": 123`,
			expectedErr: &errors.ErrorWithStatusCode{Message: "Body is invalid json", StatusCode: 400},
		},
		{
			name:        "Missing Required Field",
			requestBody: `{"field2": 123}`,
			expectedErr: &errors.ErrorWithStatusCode{Message: "Required fields missing", StatusCode: 400},
		},
		{
			name:        "Blank Required Field",
			requestBody: `{"field1": "   "}`,
			expectedErr: &errors.ErrorWithStatusCode{Message: "Required fields missing", StatusCode: 400},
		},
		{
			name:        "Empty Body",
			requestBody: "",
			expectedErr: &errors.ErrorWithStatusCode{Message: "Body is invalid json", StatusCode: 400},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var target TestStruct
			err := DecodeValidate(strings.NewReader(tt.requestBody), &target)
			if tt.expectedErr == nil {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Equal(t, tt.expectedErr, err)
		})
	}
}

func TestWriteErrorAndStatusCode(t *testing.T) {
	rr := httptest.NewRecorder()
	WriteErrorAndStatusCode(rr, &errors.ErrorWithStatusCode{Message: "gone", StatusCode: http.StatusGone})
	assert.Equal(t, http.StatusGone, rr.Code)
	assert.Contains(t, rr.Body.String(), "gone")

	rr = httptest.NewRecorder()
	WriteErrorAndStatusCode(rr, assert.AnError)
	assert.Equal(t, http.StatusInternalServerError, rr.Code)
}

func TestWriteJSON(t *testing.T) {
	rr := httptest.NewRecorder()
	WriteJSON(rr, http.StatusCreated, map[string]string{"ok": "yes"})
	assert.Equal(t, http.StatusCreated, rr.Code)
	assert.Equal(t, "application/json", rr.Header().Get("Content-Type"))
	assert.JSONEq(t, `{"ok":"yes"}`, rr.Body.String())
}

func TestDeriveKey(t *testing.T) {
	a, err := DeriveKey("secret-secret-secret", PurposeSession)
	require.NoError(t, err)
	b, err := DeriveKey("secret-secret-secret", PurposeCSRF)
	require.NoError(t, err)
	again, err := DeriveKey("secret-secret-secret", PurposeSession)
	require.NoError(t, err)

	assert.Len(t, a, 32)
	assert.NotEqual(t, a, b)
	assert.Equal(t, a, again)

	_, err = DeriveKey("", PurposeSession)
	assert.Error(t, err)
}
