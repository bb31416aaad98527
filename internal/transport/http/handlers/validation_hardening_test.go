package handlers_test

import (
	"net/http"
	"strings"
	"testing"
)

func TestHighRiskEndpointsReturnValidationErrors(t *testing.T) {
	ts, cfg := newTestServer(t)
	client := ts.Client()
	api := ts.URL + "/api/v1"

	adminToken := login(t, client, ts.URL, cfg.SeedAdminUsername, cfg.SeedAdminPassword)

	registerResp := postJSONStatus(t, client, api+"/auth/register", "", map[string]any{
		"username": "",
		"password": "weak",
		"name":     "Someone",
		"email":    "not-an-email",
	}, http.StatusBadRequest)
	assertValidationErrorField(t, registerResp, "username")
	assertValidationErrorField(t, registerResp, "password")
	assertValidationErrorField(t, registerResp, "email")

	mealsResp := putJSONStatus(t, client, api+"/meals/participation", adminToken, map[string]any{
		"date":  "12/03/2026",
		"meals": map[string]bool{},
	}, http.StatusBadRequest)
	assertValidationErrorField(t, mealsResp, "meals")
	assertValidationErrorField(t, mealsResp, "date")

	periodResp := postJSONStatus(t, client, api+"/wfh-periods", adminToken, map[string]any{
		"start_date": "2026-04-10",
		"end_date":   "2026-04-01",
	}, http.StatusBadRequest)
	assertValidationErrorField(t, periodResp, "start_date")
	assertValidationErrorField(t, periodResp, "end_date")

	approveResp := putJSONStatus(t, client, api+"/admin/approve-user", adminToken, map[string]any{
		"user_id": 0,
		"role":    "Chef",
	}, http.StatusBadRequest)
	assertValidationErrorField(t, approveResp, "user_id")
	assertValidationErrorField(t, approveResp, "role")

	dayResp := postJSONStatus(t, client, api+"/special-days", adminToken, map[string]any{
		"date": "2026-04-01",
		"type": "Party",
	}, http.StatusBadRequest)
	assertValidationErrorField(t, dayResp, "type")

	unknown := postJSONStatus(t, client, api+"/teams", adminToken, map[string]any{
		"name":  "Ops",
		"extra": true,
	}, http.StatusBadRequest)
	if code := envelopeErrorCode(unknown); code != "validation_error" {
		t.Fatalf("expected unknown fields to be rejected, got %q", code)
	}

	huge := postJSONStatus(t, client, api+"/teams", adminToken, map[string]any{
		"name": strings.Repeat("x", 1<<20),
	}, http.StatusRequestEntityTooLarge)
	if code := envelopeErrorCode(huge); code != "payload_too_large" {
		t.Fatalf("expected payload_too_large, got %q", code)
	}

	getJSONStatus(t, client, api+"/meals/today", "", http.StatusUnauthorized)
	getJSONStatus(t, client, api+"/meals/today", "not-a-token", http.StatusUnauthorized)
}

func assertValidationErrorField(t *testing.T, env envelope, field string) {
	t.Helper()
	if code := envelopeErrorCode(env); code != "validation_error" {
		t.Fatalf("expected validation_error, got %+v", env.Error)
	}
	errMap, ok := env.Error.(map[string]any)
	if !ok {
		t.Fatalf("expected error object, got %T", env.Error)
	}
	details, ok := errMap["details"].(map[string]any)
	if !ok {
		t.Fatalf("expected details object, got %+v", errMap["details"])
	}
	fieldsRaw, ok := details["fields"].([]any)
	if !ok {
		t.Fatalf("expected details.fields array, got %+v", details["fields"])
	}
	for _, item := range fieldsRaw {
		entry, ok := item.(map[string]any)
		if !ok {
			continue
		}
		if value, _ := entry["field"].(string); value == field {
			return
		}
	}
	t.Fatalf("expected validation field %q in %+v", field, fieldsRaw)
}
