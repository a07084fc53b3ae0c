package models

import (
	"testing"

	"github.com/goccy/go-json"
)

func TestUserIDFromJSON(t *testing.T) {
	tests := []struct {
		raw  string
		want UserID
	}{
		{`42`, "42"},
		{`42.0`, "42"},
		{`1e2`, "100"},
		{`-7`, "-7"},
		{`1.50`, "1.5"},
		{`"42"`, "42"},
		{`" 42 "`, "42"},
		{`"007"`, "007"},
		{`"1e2"`, "1e2"},
		{`"42.0"`, "42.0"},
		{`"anna"`, "anna"},
		{`null`, ""},
	}
	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			var body struct {
				UserID UserID `json:"userId"`
			}
			if err := json.Unmarshal([]byte(`{"userId":`+tt.raw+`}`), &body); err != nil {
				t.Fatalf("Unmarshal: %v", err)
			}
			if body.UserID != tt.want {
				t.Errorf("userId %s = %q, want %q", tt.raw, body.UserID, tt.want)
			}
		})
	}
}

func TestNormalizeUserIDOnlyTrims(t *testing.T) {
	if got := NormalizeUserID("  007 "); got != "007" {
		t.Errorf("NormalizeUserID = %q, want 007", got)
	}
	if NormalizeUserID("007") == NormalizeUserID("7") {
		t.Error("007 and 7 must stay distinct users")
	}
	if !NormalizeUserID("   ").IsZero() {
		t.Error("blank id should be zero")
	}
}
