package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var key = []byte("test-secret")

func call(t *testing.T, authorization string) (*httptest.ResponseRecorder, string, error) {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/golf/rounds", nil)
	if authorization != "" {
		req.Header.Set(echo.HeaderAuthorization, authorization)
	}
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	var user string
	err := JWT(key)(func(c echo.Context) error {
		user, _ = c.Get("username").(string)
		return c.NoContent(http.StatusOK)
	})(c)
	return rec, user, err
}

func status(t *testing.T, err error) int {
	t.Helper()
	var he *echo.HTTPError
	require.ErrorAs(t, err, &he)
	return he.Code
}

func TestJWT_Valid(t *testing.T) {
	token, err := NewToken("padraic", key, time.Now())
	require.NoError(t, err)

	for _, header := range []string{token, "Bearer " + token} {
		rec, user, err := call(t, header)
		require.NoError(t, err)
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "padraic", user)
	}
}

func TestJWT_Missing(t *testing.T) {
	_, _, err := call(t, "")
	assert.Equal(t, http.StatusBadRequest, status(t, err))
}

func TestJWT_WrongKey(t *testing.T) {
	token, err := NewToken("padraic", []byte("other"), time.Now())
	require.NoError(t, err)

	_, _, err = call(t, token)
	assert.Equal(t, http.StatusUnauthorized, status(t, err))
}

func TestJWT_Expired(t *testing.T) {
	token, err := NewToken("padraic", key, time.Now().Add(-TokenTTL-time.Hour))
	require.NoError(t, err)

	_, _, err = call(t, token)
	assert.Equal(t, http.StatusUnauthorized, status(t, err))
}

func TestJWT_ForgedUsername(t *testing.T) {
	claims := &Claims{
		Username:         "admin",
		UserHash:         UserHashFromUsername("padraic", key),
		RegisteredClaims: jwt.RegisteredClaims{ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour))},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(key)
	require.NoError(t, err)

	_, _, err = call(t, token)
	assert.Equal(t, http.StatusUnauthorized, status(t, err))
}

func TestUserHashFromUsername(t *testing.T) {
	assert.Equal(t, UserHashFromUsername(" Padraic ", key), UserHashFromUsername("padraic", key))
	assert.NotEqual(t, UserHashFromUsername("padraic", key), UserHashFromUsername("padraic", []byte("other")))
}
