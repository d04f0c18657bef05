package auth

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
)

func TestIssueParseRoundTrip(t *testing.T) {
	s := NewSigner("mycally", "secret", 15*time.Minute, time.Hour)
	pair, err := s.Issue("u-1", "a@b.c")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	if pair.AccessToken == pair.RefreshToken {
		t.Fatalf("access and refresh tokens should differ")
	}

	claims, err := s.Parse(pair.AccessToken, TypeAccess)
	if err != nil {
		t.Fatalf("parse access: %v", err)
	}
	if claims.UserID != "u-1" || claims.Email != "a@b.c" {
		t.Fatalf("unexpected claims: %+v", claims)
	}

	if _, err := s.Parse(pair.RefreshToken, TypeAccess); !errors.Is(err, ErrWrongType) {
		t.Fatalf("refresh token accepted as access: %v", err)
	}
}

func TestParseRejectsOtherKeyAndIssuer(t *testing.T) {
	s := NewSigner("mycally", "secret", time.Minute, time.Hour)
	pair, err := s.Issue("u-1", "a@b.c")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	if _, err := NewSigner("mycally", "other", time.Minute, time.Hour).Parse(pair.AccessToken, TypeAccess); err == nil {
		t.Fatalf("expected signature failure")
	}
	if _, err := NewSigner("someone-else", "secret", time.Minute, time.Hour).Parse(pair.AccessToken, TypeAccess); err == nil {
		t.Fatalf("expected issuer mismatch")
	}
}

func TestParseRejectsExpired(t *testing.T) {
	s := NewSigner("mycally", "secret", time.Minute, time.Hour)
	issued := time.Date(2024, 4, 1, 12, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return issued }
	pair, err := s.Issue("u-1", "a@b.c")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	s.now = func() time.Time { return issued.Add(2 * time.Minute) }
	if _, err := s.Parse(pair.AccessToken, TypeAccess); err == nil {
		t.Fatalf("expected expiry failure")
	}
	if _, err := s.Parse(pair.RefreshToken, TypeRefresh); err != nil {
		t.Fatalf("refresh should still be valid: %v", err)
	}
}

func TestRequireUser(t *testing.T) {
	gin.SetMode(gin.TestMode)
	s := NewSigner("mycally", "secret", time.Minute, time.Hour)
	pair, _ := s.Issue("u-42", "a@b.c")

	r := gin.New()
	r.GET("/me", RequireUser(s), func(c *gin.Context) {
		c.String(http.StatusOK, UserID(c))
	})

	cases := []struct {
		name   string
		header string
		status int
		body   string
	}{
		{"missing", "", http.StatusUnauthorized, ""},
		{"garbage", "Bearer nope", http.StatusUnauthorized, ""},
		{"refresh token", "Bearer " + pair.RefreshToken, http.StatusUnauthorized, ""},
		{"ok", "Bearer " + pair.AccessToken, http.StatusOK, "u-42"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/me", nil)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)
			if w.Code != tc.status {
				t.Fatalf("status = %d, want %d", w.Code, tc.status)
			}
			if tc.body != "" && w.Body.String() != tc.body {
				t.Fatalf("body = %q", w.Body.String())
			}
		})
	}
}
