package validation

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type loginForm struct {
	Email    string `form:"email" binding:"required,email"`
	Password string `form:"password" binding:"required,pwd"`
}

func bind(t *testing.T, values url.Values) error {
	t.Helper()
	gin.SetMode(gin.TestMode)
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	req, err := http.NewRequest(http.MethodPost, "/", strings.NewReader(values.Encode()))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	c.Request = req
	var f loginForm
	return c.ShouldBind(&f)
}

func TestToDetails(t *testing.T) {
	Init()

	details := ToDetails(bind(t, url.Values{"email": {"not-an-email"}}))
	assert.Equal(t, map[string]string{
		"email":    "must be a valid email",
		"password": "is required",
	}, details)

	assert.Nil(t, ToDetails(bind(t, url.Values{"email": {"bob@example.com"}, "password": {"pw"}})))

	details = ToDetails(bind(t, url.Values{"email": {"bob@example.com"}, "password": {strings.Repeat("x", 73)}}))
	assert.Equal(t, "must be between 1 and 72 characters long", details["password"])
}
