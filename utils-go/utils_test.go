package utils

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/automate/orgs-server/credentials"
	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidOrganizationName(t *testing.T) {
	for _, name := range []string{"acme", "Acme_Corp", "a", "9lives", "a-b-c", strings.Repeat("a", MaxOrganizationName)} {
		assert.True(t, ValidOrganizationName(name), name)
	}
	for _, name := range []string{"", "-acme", "_acme", "a b", "a/b", "a.b", "a$b", strings.Repeat("a", MaxOrganizationName+1)} {
		assert.False(t, ValidOrganizationName(name), name)
	}
}

func TestValidate(t *testing.T) {
	type request struct {
		Name  string `json:"organization_name" validate:"required,orgname"`
		Email string `json:"email" validate:"omitempty,email"`
	}

	require.NoError(t, Validate(&request{Name: "acme"}))

	err := Validate(&request{Name: "a b", Email: "nope"})
	var validationErr *ValidationError
	require.ErrorAs(t, err, &validationErr)
	require.Len(t, validationErr.Errors, 2)
	assert.Equal(t, "organization_name", validationErr.Errors[0].FailedField)
	assert.Equal(t, "orgname", validationErr.Errors[0].Tag)
	assert.Equal(t, "email", validationErr.Errors[1].FailedField)
	assert.Contains(t, err.Error(), "organization_name (orgname)")
}

func TestConvertConfig(t *testing.T) {
	type big struct {
		Port         string
		IsProduction bool
		Secret       string
	}
	type small struct {
		Port         string
		IsProduction bool
	}

	out, err := ConvertConfig[big, small](&big{Port: ":3000", IsProduction: true, Secret: "x"})
	require.NoError(t, err)
	assert.Equal(t, &small{Port: ":3000", IsProduction: true}, out)
}

func TestProtected(t *testing.T) {
	creds, err := credentials.NewService(credentials.Config{Secret: "secret", ExpireIn: time.Hour})
	require.NoError(t, err)
	token, _, err := creds.IssueToken(credentials.Principal{AdminId: "1", OrgId: "2"})
	require.NoError(t, err)

	app := fiber.New()
	handler := func(c *fiber.Ctx) error {
		if p := PrincipalFrom(c); p != nil {
			return c.SendString(p.OrgId)
		}
		return c.SendString("anonymous")
	}
	app.Get("/required", Protected(JwtMiddlewareConfig{Credentials: creds}), handler)
	app.Get("/optional", Protected(JwtMiddlewareConfig{Credentials: creds, Optional: true}), handler)

	cases := []struct {
		path   string
		header string
		status int
		body   string
	}{
		{"/required", "", http.StatusUnauthorized, ""},
		{"/required", "Basic abc", http.StatusUnauthorized, ""},
		{"/required", "Bearer nope", http.StatusUnauthorized, ""},
		{"/required", "Bearer " + token, http.StatusOK, "2"},
		{"/required", "bearer " + token, http.StatusOK, "2"},
		{"/optional", "", http.StatusOK, "anonymous"},
		{"/optional", "Bearer nope", http.StatusUnauthorized, ""},
		{"/optional", "Bearer " + token, http.StatusOK, "2"},
	}

	for _, tc := range cases {
		req := httptest.NewRequest(http.MethodGet, tc.path, nil)
		if tc.header != "" {
			req.Header.Set(fiber.HeaderAuthorization, tc.header)
		}
		res, err := app.Test(req, -1)
		require.NoError(t, err)
		assert.Equal(t, tc.status, res.StatusCode, "%s %q", tc.path, tc.header)

		if tc.body != "" {
			body, err := io.ReadAll(res.Body)
			require.NoError(t, err)
			assert.Equal(t, tc.body, string(body))
		}
	}
}
