package problem

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestWrite_DevIncludesDetail(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "http://example.com/api/events", nil)
	res := httptest.NewRecorder()

	Write(res, req, http.StatusBadRequest, TypeValidation, "Title is required", errors.New("boom"), "development")

	if got := res.Result().Header.Get("Content-Type"); got != "application/problem+json" {
		t.Fatalf("expected content type problem+json, got %s", got)
	}

	var body ProblemDetails
	if err := json.NewDecoder(res.Body).Decode(&body); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if body.Message != "Title is required" {
		t.Fatalf("expected message, got %q", body.Message)
	}
	if body.Detail != "boom" {
		t.Fatalf("expected detail boom, got %s", body.Detail)
	}
	if body.Instance != "/api/events" {
		t.Fatalf("expected instance /api/events, got %s", body.Instance)
	}
	if body.Title != "Bad Request" || body.Status != http.StatusBadRequest {
		t.Fatalf("unexpected title/status: %s %d", body.Title, body.Status)
	}
}

func TestWrite_ProdOmitsDetail(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "http://example.com/api/events", nil)
	res := httptest.NewRecorder()

	Write(res, req, http.StatusInternalServerError, TypeServerError, "Something went wrong", errors.New("db password leaked"), "production")

	var body ProblemDetails
	if err := json.NewDecoder(res.Body).Decode(&body); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if body.Detail != "" {
		t.Fatalf("expected no detail, got %s", body.Detail)
	}
	if body.Message != "Something went wrong" {
		t.Fatalf("expected message, got %q", body.Message)
	}
}

func TestWrite_FieldErrors(t *testing.T) {
	res := httptest.NewRecorder()

	Write(res, nil, http.StatusUnprocessableEntity, TypeValidation, "Invalid event", nil, "test",
		WithErrors(map[string]string{"title": "title is required"}))

	var body ProblemDetails
	if err := json.NewDecoder(res.Body).Decode(&body); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if body.Errors["title"] != "title is required" {
		t.Fatalf("expected field error, got %#v", body.Errors)
	}
	if res.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d", res.Code)
	}
}
