package response

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"pricemind-sync-api/pkg/apierror"
)

func TestOK(t *testing.T) {
	rec := httptest.NewRecorder()
	OK(rec, map[string]int{"n": 1})

	if rec.Code != http.StatusOK || rec.Header().Get("Content-Type") != "application/json" {
		t.Fatalf("status %d type %q", rec.Code, rec.Header().Get("Content-Type"))
	}
	var body struct {
		Success bool           `json:"success"`
		Data    map[string]int `json:"data"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil || !body.Success || body.Data["n"] != 1 {
		t.Fatalf("body %s", rec.Body.String())
	}
}

func TestError(t *testing.T) {
	tests := []struct {
		err    error
		status int
		code   string
	}{
		{apierror.BadRequest("sku is required"), http.StatusBadRequest, "BAD_REQUEST"},
		{fmt.Errorf("wrapped: %w", apierror.NotFound("")), http.StatusNotFound, "NOT_FOUND"},
		{errors.New("db exploded"), http.StatusInternalServerError, "INTERNAL_ERROR"},
	}
	for _, tt := range tests {
		rec := httptest.NewRecorder()
		Error(rec, tt.err)

		var body struct {
			Success bool `json:"success"`
			Error   struct {
				Code string `json:"code"`
			} `json:"error"`
		}
		_ = json.Unmarshal(rec.Body.Bytes(), &body)
		if rec.Code != tt.status || body.Success || body.Error.Code != tt.code {
			t.Errorf("%v: status %d body %s", tt.err, rec.Code, rec.Body.String())
		}
	}
}
