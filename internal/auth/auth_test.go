package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
)

func TestIssueAndParse(t *testing.T) {
	iss := NewIssuer("s3cret", time.Minute, time.Hour)
	pair, err := iss.Issue("u1", RoleAdmin)
	if err != nil {
		t.Fatal(err)
	}
	c, err := iss.ParseAccess(pair.AccessToken)
	if err != nil || c.UserID != "u1" || c.Role != RoleAdmin {
		t.Fatalf("claims=%+v err=%v", c, err)
	}
	if _, err := iss.ParseAccess(pair.RefreshToken); err == nil {
		t.Fatalf("refresh token accepted as access token")
	}
	if _, err := iss.ParseRefresh(pair.RefreshToken); err != nil {
		t.Fatalf("refresh: %v", err)
	}
	if _, err := NewIssuer("other", time.Minute, time.Hour).ParseAccess(pair.AccessToken); err == nil {
		t.Fatalf("token signed with another secret accepted")
	}
}

func TestExpiredToken(t *testing.T) {
	iss := NewIssuer("s3cret", time.Minute, time.Hour)
	pair, _ := iss.Issue("u1", RoleUser)
	iss.now = func() time.Time { return time.Now().Add(2 * time.Minute) }
	if _, err := iss.ParseAccess(pair.AccessToken); err == nil {
		t.Fatalf("expired token accepted")
	}
}

func TestGuard(t *testing.T) {
	gin.SetMode(gin.TestMode)
	iss := NewIssuer("s3cret", time.Minute, time.Hour)
	r := gin.New()
	r.GET("/me", Guard(iss), func(c *gin.Context) { c.String(http.StatusOK, UserID(c)) })
	r.GET("/admin", AdminGuard(iss), func(c *gin.Context) { c.Status(http.StatusOK) })

	user, _ := iss.Issue("u1", RoleUser)

	cases := []struct {
		path, header string
		want         int
	}{
		{"/me", "", http.StatusUnauthorized},
		{"/me", "Token abc", http.StatusUnauthorized},
		{"/me", "Bearer " + user.AccessToken, http.StatusOK},
		{"/admin", "Bearer " + user.AccessToken, http.StatusForbidden},
	}
	for _, tc := range cases {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, tc.path, nil)
		if tc.header != "" {
			req.Header.Set("Authorization", tc.header)
		}
		r.ServeHTTP(w, req)
		if w.Code != tc.want {
			t.Fatalf("%s %q: status=%d want %d", tc.path, tc.header, w.Code, tc.want)
		}
		if tc.want == http.StatusOK && w.Body.String() != "u1" {
			t.Fatalf("uid=%q", w.Body.String())
		}
	}
}
