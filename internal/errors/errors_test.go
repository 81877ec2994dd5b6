package errors

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return body
}

func TestUnauthorizedForcesLogout(t *testing.T) {
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)

	Unauthorized(c, "")

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.True(t, c.IsAborted())
	body := decode(t, w)
	assert.Equal(t, false, body["success"])
	assert.Equal(t, "Authentication required", body["message"])
	data := body["data"].(map[string]interface{})
	assert.Equal(t, ErrCodeUnauthorized, data["code"])
	assert.Equal(t, true, data["force_logout"])
}

func TestSessionExpiredForcesLogout(t *testing.T) {
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)

	SessionExpired(c, "")

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.True(t, c.IsAborted())
	body := decode(t, w)
	assert.Equal(t, "Session expired, please log in again", body["message"])
	data := body["data"].(map[string]interface{})
	assert.Equal(t, ErrCodeSessionExpired, data["code"])
	assert.Equal(t, true, data["force_logout"])
}

func TestNotFoundAsksToFetchAgain(t *testing.T) {
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)

	NotFound(c, "")

	assert.Equal(t, http.StatusNotFound, w.Code)
	body := decode(t, w)
	assert.Equal(t, "Data not found, please fetch again", body["message"])
	assert.NotContains(t, body["data"].(map[string]interface{}), "force_logout")
}

func TestOK(t *testing.T) {
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)

	OK(c, gin.H{"id": "1"}, "done")

	body := decode(t, w)
	assert.Equal(t, true, body["success"])
	assert.Equal(t, "done", body["message"])
	assert.Equal(t, "1", body["data"].(map[string]interface{})["id"])
}
