package httpkit

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"minimusiker_backend/platform/apperr"

	"github.com/gin-gonic/gin"
)

type testSessionConfig struct{ secret string }

func (c testSessionConfig) GetSessionSecret() string { return c.secret }

func newTestRouter(roles ...string) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/protected", AuthRequired(testSessionConfig{secret: "test-secret"}, roles...), func(c *gin.Context) {
		id := MustGetIdentity(c)
		if id == nil {
			return
		}
		OK(c, gin.H{"subject": id.SubjectID(), "role": id.Role(), "email": id.Email()})
	})
	return r
}

func doRequest(r http.Handler, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func TestAuthRequiredRejectsMissingToken(t *testing.T) {
	rec := doRequest(newTestRouter(RoleTeacher), "")
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
}

func TestAuthRequiredRejectsWrongSecret(t *testing.T) {
	token, err := SignSession("other-secret", "t-1", RoleTeacher, "a@b.de", time.Hour)
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	rec := doRequest(newTestRouter(RoleTeacher), token)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
}

func TestAuthRequiredEnforcesRole(t *testing.T) {
	token, _ := SignSession("test-secret", "p-1", RoleParent, "parent@example.com", time.Hour)
	rec := doRequest(newTestRouter(RoleTeacher), token)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", rec.Code)
	}
}

func TestAuthRequiredAcceptsAdminEverywhere(t *testing.T) {
	token, _ := SignSession("test-secret", "a-1", RoleAdmin, "admin@example.com", time.Hour)
	rec := doRequest(newTestRouter(RoleStaff), token)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
}

func TestAuthRequiredExposesIdentity(t *testing.T) {
	token, _ := SignSession("test-secret", "t-1", RoleTeacher, "Teacher@School.de", time.Hour)
	rec := doRequest(newTestRouter(RoleTeacher), token)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	var body struct {
		Success bool              `json:"success"`
		Data    map[string]string `json:"data"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !body.Success {
		t.Fatal("expected success envelope")
	}
	if body.Data["email"] != "teacher@school.de" {
		t.Fatalf("expected lowercased email, got %q", body.Data["email"])
	}
}

func TestHandleErrorUsesKindStatus(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/missing", func(c *gin.Context) {
		HandleError(c, apperr.NotFound("event not found"))
	})
	r.GET("/boom", func(c *gin.Context) {
		HandleError(c, http.ErrHandlerTimeout)
	})

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/missing", nil))
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
	var body Envelope
	_ = json.Unmarshal(rec.Body.Bytes(), &body)
	if body.Success || body.Error != "event not found" {
		t.Fatalf("unexpected body %+v", body)
	}

	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/boom", nil))
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", rec.Code)
	}
}
