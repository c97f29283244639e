package logger

import (
	"bytes"
	"errors"
	"strings"
	"testing"
)

func TestMaskURL(t *testing.T) {
	sl := NewSecurityLogger(New(Config{Level: "debug", Writer: &bytes.Buffer{}}))

	got := sl.MaskURL("https://example.com/private/path?token=abc")
	if !strings.HasPrefix(got, "example.com#") {
		t.Errorf("expected host prefix, got %s", got)
	}
	if strings.Contains(got, "private") {
		t.Errorf("path leaked: %s", got)
	}

	domain := sl.MaskURL("sc-domain:example.com")
	if !strings.HasPrefix(domain, "sc-domain:example.com#") {
		t.Errorf("unexpected domain property mask: %s", domain)
	}

	if sl.MaskURL("") != "" {
		t.Error("expected empty mask for empty url")
	}
}

func TestMaskSensitiveData(t *testing.T) {
	sl := NewSecurityLogger(New(Config{Writer: &bytes.Buffer{}}))

	masked := sl.MaskSensitiveData(map[string]interface{}{
		"access_token": "ya29.secret-value",
		"site_url":     "https://example.com/",
		"rows":         12,
		"component":    "gsc",
	})

	if masked["access_token"] == "ya29.secret-value" {
		t.Error("access token was not masked")
	}
	if !strings.HasPrefix(masked["site_url"].(string), "example.com#") {
		t.Errorf("unexpected site mask: %v", masked["site_url"])
	}
	if masked["rows"] != 12 || masked["component"] != "gsc" {
		t.Error("non-sensitive fields must pass through")
	}
}

func TestMaskLogMessage(t *testing.T) {
	sl := NewSecurityLogger(New(Config{Writer: &bytes.Buffer{}}))

	msg := sl.MaskLogMessage("calling https://api.example.com/v3?key=AIzaXYZ with Bearer ya29.abc.def api_key=12345")

	for _, leaked := range []string{"AIzaXYZ", "ya29.abc.def", "12345", "/v3"} {
		if strings.Contains(msg, leaked) {
			t.Errorf("message leaked %q: %s", leaked, msg)
		}
	}
}

func TestSafeErrorWritesMaskedJSON(t *testing.T) {
	var buf bytes.Buffer
	sl := NewSecurityLogger(New(Config{Level: "debug", Writer: &buf}))

	sl.SafeError("upstream failed", errors.New("GET https://www.googleapis.com/secret failed"), map[string]interface{}{
		"refresh_token": "1//refresh",
	})

	out := buf.String()
	if strings.Contains(out, "1//refresh") || strings.Contains(out, "/secret") {
		t.Errorf("log line leaked sensitive data: %s", out)
	}
	if !strings.Contains(out, `"level":"error"`) {
		t.Errorf("expected error level JSON line, got %s", out)
	}
}
