package http

import (
	"encoding/json"
	"net/http"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func TestFieldText(t *testing.T) {
	for _, tc := range []struct {
		raw    string
		want   string
		wantOK bool
	}{
		{``, "", false},
		{`null`, "", false},
		{`false`, "", false},
		{`true`, "true", true},
		{`""`, "", false},
		{`"hi"`, "hi", true},
		{`"été"`, "été", true},
		{`0`, "", false},
		{`0.0`, "", false},
		{`-0`, "", false},
		{`42`, "42", true},
		{`-3.25`, "-3.25", true},
		{`1e-7`, "1e-7", true},
		{`0.000001`, "0.000001", true},
		{`123456789012`, "123456789012", true},
		{`1e400`, "Infinity", true},
		{`-1e400`, "-Infinity", true},
		{`[]`, "[]", true},
		{`[ 1, "a" ]`, `[1,"a"]`, true},
		{`{}`, "{}", true},
	} {
		got, ok := fieldText(json.RawMessage(tc.raw))
		assert.Equal(t, tc.wantOK, ok, "raw %q", tc.raw)
		assert.Equal(t, tc.want, got, "raw %q", tc.raw)
	}
}

func TestBodyLimitMiddleware(t *testing.T) {
	engine := gin.New()
	engine.Use(BodyLimitMiddleware(8))
	engine.POST("/echo", func(c *gin.Context) {
		data, err := c.GetRawData()
		if err != nil {
			c.String(http.StatusRequestEntityTooLarge, err.Error())
			return
		}
		c.String(http.StatusOK, string(data))
	})

	resp := doRequest(engine, http.MethodPost, "/echo", "12345678")
	assert.Equal(t, http.StatusOK, resp.Code)
	assert.Equal(t, "12345678", resp.Body.String())

	resp = doRequest(engine, http.MethodPost, "/echo", strings.Repeat("9", 9))
	assert.Equal(t, http.StatusRequestEntityTooLarge, resp.Code)
}
