package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"runtime"
	"testing"

	"github.com/gin-gonic/gin"
)

func TestParseGitDescribe(t *testing.T) {
	tests := []struct {
		name        string
		input       string
		wantVersion string
		wantCommit  string
	}{
		{"release", "v1.4.0", "1.4.0", ""},
		{"release without prefix", "2.0.1", "2.0.1", ""},
		{"commits after tag", "v1.4.0-12-g0a1b2c3", "1.4.0.dev+0a1b2c3", "0a1b2c3"},
		{"dirty release", "v1.4.0-dirty", "1.4.0.dev", ""},
		{"dirty commits after tag", "v1.4.0-3-gdeadbee-dirty", "1.4.0.dev+deadbee", "deadbee"},
		{"pre-release", "v2.0.0-rc2", "2.0.0-rc2", ""},
		{"pre-release with commits", "v2.0.0-rc2-7-gfeed123", "2.0.0-rc2.dev+feed123", "feed123"},
		{"untagged repo", "c0ffee1", "dev+c0ffee1", "c0ffee1"},
		{"surrounding whitespace", "  v1.0.0\n", "1.0.0", ""},
		{"default build", "dev", "dev", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gotVersion, gotCommit := parseGitDescribe(tt.input)
			if gotVersion != tt.wantVersion {
				t.Errorf("version = %q, want %q", gotVersion, tt.wantVersion)
			}
			if gotCommit != tt.wantCommit {
				t.Errorf("commit = %q, want %q", gotCommit, tt.wantCommit)
			}
		})
	}
}

func TestGetVersion(t *testing.T) {
	gin.SetMode(gin.TestMode)

	prev := Version
	Version = "v1.4.0-2-gabcdef0"
	defer func() { Version = prev }()

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/api/v1/version", nil)

	GetVersion(c)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	var resp map[string]string
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode: %v", err)
	}
	if resp["version"] != "1.4.0.dev+abcdef0" || resp["commit"] != "abcdef0" {
		t.Errorf("unexpected version payload: %v", resp)
	}
	if resp["go_version"] != runtime.Version() {
		t.Errorf("expected go_version %s, got %s", runtime.Version(), resp["go_version"])
	}
}
