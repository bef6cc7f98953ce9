package response

import (
	"encoding/json"
	"net/http"
	"testing"
)

func TestSuccess_JSONFormat(t *testing.T) {
	resp := Success(map[string]string{"id": "123"})

	jsonBytes, err := json.Marshal(resp)
	if err != nil {
		t.Fatalf("Failed to marshal response: %v", err)
	}

	var parsed map[string]interface{}
	if err := json.Unmarshal(jsonBytes, &parsed); err != nil {
		t.Fatalf("Failed to unmarshal response: %v", err)
	}

	if parsed["success"] != true {
		t.Errorf("Expected success=true, got %v", parsed["success"])
	}
	if _, ok := parsed["error"]; ok {
		t.Error("Expected error field to be omitted")
	}
	if _, ok := parsed["meta"]; ok {
		t.Error("Expected meta field to be omitted")
	}
}

func TestError(t *testing.T) {
	resp := Error(ErrCodeNotFound, "Event not found")

	if resp.Success {
		t.Error("Expected success to be false")
	}
	if resp.Data != nil {
		t.Error("Expected data to be nil")
	}
	if resp.Error == nil || resp.Error.Code != ErrCodeNotFound {
		t.Fatalf("Expected error code %s, got %+v", ErrCodeNotFound, resp.Error)
	}
	if resp.Error.Message != "Event not found" {
		t.Errorf("Expected message 'Event not found', got %q", resp.Error.Message)
	}
}

func TestList(t *testing.T) {
	resp := List([]string{"a", "b"}, 20, 40, 42)

	if !resp.Success {
		t.Error("Expected success to be true")
	}
	if resp.Meta == nil {
		t.Fatal("Expected meta to be set")
	}
	if resp.Meta.Limit != 20 || resp.Meta.Offset != 40 || resp.Meta.Total != 42 {
		t.Errorf("Unexpected meta %+v", resp.Meta)
	}
}

func TestValidationFailed(t *testing.T) {
	resp := ValidationFailed(map[string]string{"email": "is required"})

	if resp.Error.Code != ErrCodeValidationFailed {
		t.Errorf("Expected code %s, got %s", ErrCodeValidationFailed, resp.Error.Code)
	}
	if resp.Error.Details["email"] != "is required" {
		t.Errorf("Expected email detail, got %v", resp.Error.Details)
	}
}

func TestDefaultMessages(t *testing.T) {
	tests := []struct {
		name string
		resp *Response
		code string
	}{
		{"Unauthorized", Unauthorized(""), ErrCodeUnauthorized},
		{"Forbidden", Forbidden(""), ErrCodeForbidden},
		{"NotFound", NotFound(""), ErrCodeNotFound},
		{"InternalError", InternalError(""), ErrCodeInternalError},
		{"TooManyRequests", TooManyRequests(""), ErrCodeTooManyRequests},
		{"SourceUnavailable", SourceUnavailable(""), ErrCodeSourceUnavailable},
		{"ServiceUnavailable", ServiceUnavailable(""), ErrCodeServiceUnavailable},
		{"Conflict", Conflict("", "busy"), ErrCodeConflict},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.resp.Error.Code != tt.code {
				t.Errorf("Expected code %s, got %s", tt.code, tt.resp.Error.Code)
			}
			if tt.resp.Error.Message == "" {
				t.Error("Expected a default message")
			}
		})
	}
}

func TestGetHTTPStatus(t *testing.T) {
	tests := []struct {
		code     string
		expected int
	}{
		{ErrCodeBadRequest, http.StatusBadRequest},
		{ErrCodeUnauthorized, http.StatusUnauthorized},
		{ErrCodeNotFound, http.StatusNotFound},
		{ErrCodeValidationFailed, http.StatusBadRequest},
		{ErrCodeSourceUnavailable, http.StatusBadGateway},
		{ErrCodeRunInProgress, http.StatusConflict},
		{"UNKNOWN_CODE", http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			if status := GetHTTPStatus(tt.code); status != tt.expected {
				t.Errorf("GetHTTPStatus(%s) = %d, want %d", tt.code, status, tt.expected)
			}
		})
	}
}
