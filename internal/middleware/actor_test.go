package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/psds-microservice/helpdesk-service/internal/model"
)

func newTestRouter(got *model.Actor) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/probe", WithActor(), func(c *gin.Context) {
		*got = Actor(c)
		c.Status(http.StatusNoContent)
	})
	return r
}

func TestWithActorParsesHeaders(t *testing.T) {
	var got model.Actor
	r := newTestRouter(&got)

	req := httptest.NewRequest(http.MethodGet, "/probe", nil)
	req.Header.Set(HeaderActorID, "42")
	req.Header.Set(HeaderActorRole, "engineer")
	req.Header.Set(HeaderActorName, "Evan Engineer")
	req.Header.Set(HeaderActorEmail, "evan@corp.test")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusNoContent {
		t.Fatalf("status = %d, want 204", w.Code)
	}
	want := model.Actor{ID: 42, Role: model.RoleEngineer, FullName: "Evan Engineer", Email: "evan@corp.test"}
	if got != want {
		t.Fatalf("actor = %+v, want %+v", got, want)
	}
}

func TestWithActorRejectsMissingHeaders(t *testing.T) {
	var got model.Actor
	r := newTestRouter(&got)

	cases := map[string]map[string]string{
		"no headers":   {},
		"missing role": {HeaderActorID: "1"},
		"missing id":   {HeaderActorRole: "admin"},
		"bad id":       {HeaderActorID: "abc", HeaderActorRole: "admin"},
	}
	for name, headers := range cases {
		t.Run(name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/probe", nil)
			for k, v := range headers {
				req.Header.Set(k, v)
			}
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)
			if w.Code != http.StatusUnauthorized {
				t.Fatalf("status = %d, want 401", w.Code)
			}
		})
	}
}
