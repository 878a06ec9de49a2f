package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	"social-service/internal/middleware"
	"social-service/internal/services"
)

var testActor = services.Actor{UserID: 1, Name: "Ann", Email: "ann@example.com"}

// authenticated stands in for TokenAuth.
func authenticated(actor services.Actor) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(middleware.ContextUserID, actor.UserID)
		c.Set(middleware.ContextActor, actor)
		c.Next()
	}
}

func doJSON(router http.Handler, method, target, body string) *httptest.ResponseRecorder {
	var reader *bytes.Buffer
	if body != "" {
		reader = bytes.NewBufferString(body)
	} else {
		reader = &bytes.Buffer{}
	}
	req := httptest.NewRequest(method, target, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

func fetchMetrics(t *testing.T, router http.Handler) string {
	t.Helper()
	rec := doJSON(router, http.MethodGet, "/metrics", "")
	require.Equal(t, http.StatusOK, rec.Code)
	return rec.Body.String()
}

func metricValue(metricsBody, name, label, value string) (float64, bool) {
	target := name + `{` + label + `="` + value + `"}`
	for _, line := range strings.Split(metricsBody, "\n") {
		if strings.HasPrefix(line, target+" ") {
			fields := strings.Fields(line)
			if len(fields) < 2 {
				return 0, false
			}
			v, err := strconv.ParseFloat(fields[1], 64)
			if err != nil {
				return 0, false
			}
			return v, true
		}
	}
	return 0, false
}

func assertMetricIncrement(t *testing.T, router http.Handler, name, label, value string, call func()) {
	t.Helper()
	before, _ := metricValue(fetchMetrics(t, router), name, label, value)
	call()
	after, found := metricValue(fetchMetrics(t, router), name, label, value)
	require.True(t, found)
	require.Greater(t, after, before)
}
