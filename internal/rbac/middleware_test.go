package rbac

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"telecom-network/internal/auth"

	"github.com/gin-gonic/gin"
)

func withIdentity(clientKey, role string) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := auth.WithIdentity(c.Request.Context(), "u", clientKey, role)
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}

func serve(r *gin.Engine, path string) int {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	r.ServeHTTP(w, req)
	return w.Code
}

func TestRequireAnyRole_SuperAdminBypasses(t *testing.T) {
	gin.SetMode(gin.TestMode)

	r := gin.New()
	r.GET("/x", withIdentity("", RoleSuperAdmin), RequireAnyRole(RoleOperator), func(c *gin.Context) {
		c.Status(200)
	})

	if code := serve(r, "/x"); code != 200 {
		t.Fatalf("expected 200, got %d", code)
	}
}

func TestRequireAnyRole_DeniesOtherRoles(t *testing.T) {
	gin.SetMode(gin.TestMode)

	r := gin.New()
	r.GET("/x", withIdentity("alice", RoleClient), RequireAnyRole(RoleOperator), func(c *gin.Context) {
		c.Status(200)
	})

	if code := serve(r, "/x"); code != 403 {
		t.Fatalf("expected 403, got %d", code)
	}
}

func TestRequireAnyRole_RoleRequired(t *testing.T) {
	gin.SetMode(gin.TestMode)

	r := gin.New()
	r.GET("/x", RequireAnyRole(RoleOperator), func(c *gin.Context) {
		c.Status(200)
	})

	if code := serve(r, "/x"); code != 401 {
		t.Fatalf("expected 401, got %d", code)
	}
}

func TestRequireClientScope(t *testing.T) {
	gin.SetMode(gin.TestMode)

	owners := map[string]string{"111111": "alice", "222222": "bob"}
	resolver := func(c *gin.Context) (string, bool) {
		o, ok := owners[c.Param("key")]
		return o, ok
	}
	ok := func(c *gin.Context) { c.Status(200) }

	r := gin.New()
	r.GET("/client/:key", withIdentity("alice", RoleClient), RequireClientScope(resolver), ok)
	r.GET("/operator/:key", withIdentity("", RoleOperator), RequireClientScope(resolver), ok)

	cases := map[string]int{
		"/client/111111":   200,
		"/client/222222":   403,
		"/client/999999":   200,
		"/operator/222222": 200,
	}
	for path, want := range cases {
		if code := serve(r, path); code != want {
			t.Fatalf("%s: expected %d, got %d", path, want, code)
		}
	}
}
