package response

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"vaultmarket/pkg/apperror"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupContext(t *testing.T) (*gin.Context, *httptest.ResponseRecorder) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/", nil)
	return c, w
}

func TestOK(t *testing.T) {
	c, w := setupContext(t)

	OK(c, gin.H{"balance": "42.00"})

	assert.Equal(t, http.StatusOK, w.Code)

	var resp SuccessResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.NotEmpty(t, resp.RequestID)
	assert.NotEmpty(t, resp.Timestamp)
}

func TestCreated(t *testing.T) {
	c, w := setupContext(t)

	Created(c, gin.H{"order_id": "abc"})

	assert.Equal(t, http.StatusCreated, w.Code)
}

func TestError_AppError(t *testing.T) {
	c, w := setupContext(t)

	Error(c, apperror.ErrListingUnavailable())

	assert.Equal(t, http.StatusConflict, w.Code)

	var resp ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "SET_004", resp.ErrorCode)
	assert.Equal(t, "Listing is no longer available", resp.Message)
}

func TestError_WrappedAppError(t *testing.T) {
	c, w := setupContext(t)

	Error(c, apperror.ErrLedgerWriteFailure(errors.New("credit seller: timeout")))

	assert.Equal(t, http.StatusInternalServerError, w.Code)

	var resp ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "SET_005", resp.ErrorCode)
	// Internal detail must never leak to the client.
	assert.NotContains(t, resp.Message, "timeout")
}

func TestError_UnknownError(t *testing.T) {
	c, w := setupContext(t)

	Error(c, errors.New("some raw error"))

	assert.Equal(t, http.StatusInternalServerError, w.Code)

	var resp ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "SYS_001", resp.ErrorCode)
	assert.NotContains(t, resp.Message, "raw error")
}

func TestGetRequestID_FromHeader(t *testing.T) {
	c, _ := setupContext(t)
	c.Request.Header.Set("X-Request-ID", "req-123")

	assert.Equal(t, "req-123", getRequestID(c))
}
