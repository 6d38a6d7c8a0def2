package ratelimit

import (
	"net/http/httptest"
	"testing"
	"time"
)

func TestLimiter_AllowAndWindowExpiry(t *testing.T) {
	l := New(2, time.Minute)
	defer l.Stop()
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	l.now = func() time.Time { return now }

	if !l.Allow("k") || !l.Allow("k") {
		t.Fatal("first two hits should pass")
	}
	if l.Allow("k") {
		t.Error("third hit should be refused")
	}
	if l.Remaining("k") != 0 {
		t.Errorf("Remaining = %d", l.Remaining("k"))
	}
	if !l.Allow("other") {
		t.Error("keys are independent")
	}

	now = now.Add(time.Minute + time.Second)
	if !l.Allow("k") {
		t.Error("hit after window expiry should pass")
	}
	if l.Remaining("k") != 1 {
		t.Errorf("Remaining = %d, want 1", l.Remaining("k"))
	}
}

func TestLimiter_Reset(t *testing.T) {
	l := New(1, time.Minute)
	defer l.Stop()
	l.Allow("k")
	l.Reset("k")
	if !l.Allow("k") {
		t.Error("Reset should clear the window")
	}
}

func TestLimiter_StopTwice(t *testing.T) {
	l := New(1, time.Minute)
	l.Stop()
	l.Stop()
}

func TestClientIP(t *testing.T) {
	tests := []struct {
		name   string
		xff    string
		xri    string
		remote string
		want   string
	}{
		{"forwarded", "203.0.113.5, 10.0.0.1", "", "10.0.0.9:1234", "203.0.113.5"},
		{"real ip", "", "198.51.100.7", "10.0.0.9:1234", "198.51.100.7"},
		{"remote addr", "", "", "192.0.2.1:5555", "192.0.2.1"},
		{"remote without port", "", "", "192.0.2.1", "192.0.2.1"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest("POST", "/public/login", nil)
			r.RemoteAddr = tt.remote
			if tt.xff != "" {
				r.Header.Set("X-Forwarded-For", tt.xff)
			}
			if tt.xri != "" {
				r.Header.Set("X-Real-IP", tt.xri)
			}
			if got := ClientIP(r); got != tt.want {
				t.Errorf("ClientIP = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestLoginLimiter_PerEmail(t *testing.T) {
	ll := NewLoginLimiter(4) // 2 per email
	defer ll.Stop()
	r := httptest.NewRequest("POST", "/public/login", nil)

	for i := 0; i < 2; i++ {
		if ok, _ := ll.Check(r, "Jane@Example.com "); !ok {
			t.Fatalf("attempt %d refused", i+1)
		}
	}
	if ok, reason := ll.Check(r, "jane@example.com"); ok || reason == "" {
		t.Error("third attempt for the same email should be refused")
	}

	ll.ResetEmail("JANE@example.com")
	if ok, _ := ll.Check(r, "jane@example.com"); !ok {
		t.Error("ResetEmail should clear the email window")
	}
	if ok, _ := ll.Check(r, "bob@example.com"); ok {
		t.Error("fifth attempt from the same IP should be refused")
	}
}
