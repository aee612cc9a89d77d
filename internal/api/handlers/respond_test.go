package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/promptforge/promptforge/internal/apperr"
)

func TestWriteErrStatusMapping(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   string
	}{
		{"validation", apperr.Validation("title too long"), http.StatusBadRequest, "validation_error"},
		{"not found", apperr.NotFound("prompt missing"), http.StatusNotFound, "not_found"},
		{"conflict", apperr.Conflict("version already exists"), http.StatusConflict, "conflict"},
		{"decryption", apperr.Decryption("decode config", errors.New("cipher: message authentication failed")), http.StatusInternalServerError, "decryption_error"},
		{"store", apperr.Store("insert version", errors.New("connection reset")), http.StatusInternalServerError, "store_error"},
		{"plain error defaults to store", errors.New("boom"), http.StatusInternalServerError, "store_error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			writeErr(rec, tt.err)

			if rec.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", rec.Code, tt.wantStatus)
			}
			if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
				t.Errorf("content type = %q", ct)
			}

			var body errorBody
			if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
				t.Fatalf("decode body: %v", err)
			}
			if body.Code != tt.wantCode {
				t.Errorf("code = %q, want %q", body.Code, tt.wantCode)
			}
			if body.Error == "" {
				t.Error("error message is empty")
			}
		})
	}
}

func TestWriteErrHidesInternalDetail(t *testing.T) {
	rec := httptest.NewRecorder()
	writeErr(rec, apperr.Store("insert version", errors.New("pq: password authentication failed for user postgres")))

	if got := rec.Body.String(); len(got) > 0 {
		var body errorBody
		if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
			t.Fatalf("decode body: %v", err)
		}
		if body.Error != "internal server error" {
			t.Errorf("error = %q, internal detail should not reach the client", body.Error)
		}
	}
}
