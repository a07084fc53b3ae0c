package helpers

import (
	"testing"
	"time"
)

func TestParseTimestamp(t *testing.T) {
	want := time.Date(2025, 9, 1, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name string
		raw  string
		ok   bool
	}{
		{"unix millis", "1756728000000", true},
		{"rfc3339", "2025-09-01T12:00:00Z", true},
		{"offset", "2025-09-01T15:00:00+03:00", true},
		{"garbage", "yesterday", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseTimestamp(tt.raw)
			if (err == nil) != tt.ok {
				t.Fatalf("err = %v, want ok=%v", err, tt.ok)
			}
			if tt.ok && !got.Equal(want) {
				t.Errorf("got %v, want %v", got, want)
			}
		})
	}
}

func TestNewTimeIDIncreases(t *testing.T) {
	now := time.Now()
	a := NewTimeID(now)
	b := NewTimeID(now)
	if a == b {
		t.Fatalf("ids collide: %s", a)
	}
}

func TestPaginate(t *testing.T) {
	items := []int{1, 2, 3, 4, 5}
	page, info := Paginate(items, 2, 2)
	if len(page) != 2 || page[0] != 3 || info.TotalPages != 3 || info.TotalItems != 5 {
		t.Errorf("page = %v, info = %+v", page, info)
	}
	empty, _ := Paginate(items, 9, 2)
	if len(empty) != 0 {
		t.Errorf("out of range page = %v", empty)
	}
}
