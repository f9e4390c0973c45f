package render

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestISO(t *testing.T) {
	berlin := time.FixedZone("CET", 3600)
	got := ISO(time.Date(2024, 1, 1, 1, 0, 0, 0, berlin))
	assert.Equal(t, "2024-01-01T00:00:00.000Z", got)

	assert.Nil(t, ISOPtr(nil))
	ts := time.Date(2024, 3, 5, 7, 8, 9, 123456789, time.UTC)
	require.NotNil(t, ISOPtr(&ts))
	assert.Equal(t, "2024-03-05T07:08:09.123Z", *ISOPtr(&ts))
}

func TestNumberIsBareJSON(t *testing.T) {
	out, err := json.Marshal(map[string]any{"amount": Number(decimal.RequireFromString("1200.50"))})
	require.NoError(t, err)
	assert.JSONEq(t, `{"amount":1200.5}`, string(out))

	assert.Nil(t, NumberPtr(nil))
}

func TestEnvelopes(t *testing.T) {
	gin.SetMode(gin.TestMode)

	t.Run("entity", func(t *testing.T) {
		w := httptest.NewRecorder()
		c, _ := gin.CreateTestContext(w)
		Entity(c, http.StatusCreated, "event", map[string]string{"id": "e1"})

		assert.Equal(t, http.StatusCreated, w.Code)
		assert.JSONEq(t, `{"success":true,"event":{"id":"e1"}}`, w.Body.String())
	})

	t.Run("list", func(t *testing.T) {
		w := httptest.NewRecorder()
		c, _ := gin.CreateTestContext(w)
		List(c, "events", []string{}, Pagination{Limit: 50, Offset: 0, Total: 0})

		assert.JSONEq(t, `{"success":true,"events":[],"pagination":{"limit":50,"offset":0,"total":0}}`, w.Body.String())
	})

	t.Run("error aborts", func(t *testing.T) {
		w := httptest.NewRecorder()
		c, _ := gin.CreateTestContext(w)
		Error(c, http.StatusForbidden, "Forbidden")

		assert.True(t, c.IsAborted())
		assert.Equal(t, http.StatusForbidden, w.Code)
		assert.JSONEq(t, `{"success":false,"error":"Forbidden"}`, w.Body.String())
	})

	t.Run("error details", func(t *testing.T) {
		w := httptest.NewRecorder()
		c, _ := gin.CreateTestContext(w)
		ErrorDetails(c, http.StatusBadRequest, "Validation failed", []string{"label"})

		assert.JSONEq(t, `{"success":false,"error":"Validation failed","details":["label"]}`, w.Body.String())
	})
}
