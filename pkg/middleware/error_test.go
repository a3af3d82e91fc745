package middleware

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"community-points/pkg/errutil"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func init() {
	zap.ReplaceGlobals(zap.NewNop())
	gin.SetMode(gin.TestMode)
}

func serve(t *testing.T, handler gin.HandlerFunc) *httptest.ResponseRecorder {
	t.Helper()

	r := gin.New()
	r.Use(Error())
	r.GET("/", handler)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
	return w
}

func TestErrorRendersBaseError(t *testing.T) {
	w := serve(t, func(c *gin.Context) {
		_ = c.Error(errutil.BadRequest("invalid order", nil))
	})

	require.Equal(t, http.StatusBadRequest, w.Code)

	var body struct {
		Error struct {
			Code    string `json:"code"`
			Message string `json:"message"`
		} `json:"error"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	require.Equal(t, "bad_request", body.Error.Code)
	require.Equal(t, "invalid order", body.Error.Message)
}

func TestErrorUnknownBecomesInternal(t *testing.T) {
	w := serve(t, func(c *gin.Context) {
		_ = c.Error(errors.New("boom"))
	})

	require.Equal(t, http.StatusInternalServerError, w.Code)
}

func TestErrorPassThrough(t *testing.T) {
	w := serve(t, func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"ok": true})
	})

	require.Equal(t, http.StatusOK, w.Code)
}
