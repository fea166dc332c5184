package api

import (
	"net/http"
	"os"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMain(m *testing.M) {
	gin.SetMode(gin.TestMode)
	EnableStrictJSON()
	os.Exit(m.Run())
}

type payload struct {
	Symbol string   `json:"symbol"`
	Price  *float64 `json:"price"`
}

func contextWithBody(body string) *gin.Context {
	gin.SetMode(gin.TestMode)
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	c.Request = httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
	return c
}

func TestBindStrictJSON(t *testing.T) {
	t.Run("valid", func(t *testing.T) {
		var p payload
		require.NoError(t, BindStrictJSON(contextWithBody(`{"symbol":"AAPL","price":1.5}`), &p))
		assert.Equal(t, "AAPL", p.Symbol)
		require.NotNil(t, p.Price)
		assert.Equal(t, 1.5, *p.Price)
	})

	t.Run("trailing whitespace is accepted", func(t *testing.T) {
		var p payload
		require.NoError(t, BindStrictJSON(contextWithBody("{\"symbol\":\"AAPL\"}\n"), &p))
		assert.Equal(t, "AAPL", p.Symbol)
	})

	tests := []struct {
		name    string
		body    string
		wantErr string
	}{
		{"empty body", ``, "request body is required"},
		{"whitespace only", "  \n", "invalid request body"},
		{"unknown field", `{"symbol":"AAPL","ceo":"x"}`, `json: unknown field "ceo"`},
		{"wrong type", `{"price":"high"}`, "invalid request body"},
		{"malformed", `{"symbol":`, "invalid request body"},
		{"trailing value", `{"symbol":"A"}{"symbol":"B"}`, "unexpected data after JSON object"},
		{"trailing garbage", `{"symbol":"A"} x`, "unexpected data after JSON object"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var p payload
			err := BindStrictJSON(contextWithBody(tt.body), &p)
			assert.ErrorContains(t, err, tt.wantErr)
		})
	}
}
