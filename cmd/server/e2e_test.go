package main

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/wadjakorntonsri/visitlog/pkg/adapters/handler"
	"github.com/wadjakorntonsri/visitlog/pkg/adapters/repository/sqlite"
	"github.com/wadjakorntonsri/visitlog/pkg/config"
	"github.com/wadjakorntonsri/visitlog/pkg/core/services"
)

func TestIntegration(t *testing.T) {
	// 1. Setup DB
	dbPath := filepath.Join(t.TempDir(), "visitors.db")
	repo, err := sqlite.NewSQLiteRepository(dbPath)
	require.NoError(t, err, "Failed to init db")
	defer repo.Close()

	// 2. Setup Service and Router
	service := services.NewVisitService(repo, zap.NewNop())
	cfg := &config.Config{LogsLimit: 1000}
	server := httptest.NewServer(handler.NewRouter(cfg, service, zap.NewNop()))
	defer server.Close()

	client := server.Client()

	get := func(path string, headers map[string]string) *http.Response {
		req, err := http.NewRequest(http.MethodGet, server.URL+path, nil)
		require.NoError(t, err)
		for k, v := range headers {
			req.Header.Set(k, v)
		}
		resp, err := client.Do(req)
		require.NoError(t, err)
		return resp
	}

	// TEST 1: Empty export is just the header
	resp := get("/export.csv", nil)
	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "id,address,userAgent,referer,path,timestamp\n", string(body))

	// TEST 2: Log three visits A, B, C
	visits := []struct {
		forwarded string
		path      string
		expected  string
	}{
		{"203.0.113.5, 10.0.0.1", "/a", "203.0.113.5"},
		{"", "/b", "127.0.0.1"},
		{"198.51.100.9", "/c", "198.51.100.9"},
	}
	var ids []int64
	for _, v := range visits {
		headers := map[string]string{"User-Agent": "e2e-agent", "Referer": "https://ref.example/"}
		if v.forwarded != "" {
			headers["X-Forwarded-For"] = v.forwarded
		}
		resp := get("/log?path="+v.path, headers)
		require.Equal(t, http.StatusOK, resp.StatusCode)

		var out handler.LogResponse
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
		resp.Body.Close()

		assert.Equal(t, "ok", out.Status)
		assert.Equal(t, v.expected, out.Address)
		assert.True(t, out.Recorded)
		ids = append(ids, out.ID)
	}
	assert.True(t, ids[0] < ids[1] && ids[1] < ids[2], "ids must increase: %v", ids)

	// TEST 3: /visit records too
	resp = get("/visit", map[string]string{"X-Forwarded-For": "192.0.2.44"})
	body, _ = io.ReadAll(resp.Body)
	resp.Body.Close()
	assert.Equal(t, "Hello! Your IP is: 192.0.2.44\n", string(body))

	// TEST 4: Export is chronological
	resp = get("/export.csv", nil)
	assert.Equal(t, `attachment; filename="visitors.csv"`, resp.Header.Get("Content-Disposition"))
	records, err := csv.NewReader(resp.Body).ReadAll()
	resp.Body.Close()
	require.NoError(t, err)
	require.Len(t, records, 5)
	assert.Equal(t, []string{"/a", "/b", "/c", "/visit"}, []string{records[1][4], records[2][4], records[3][4], records[4][4]})
	assert.Equal(t, "e2e-agent", records[1][2])
	assert.Equal(t, "https://ref.example/", records[1][3])

	// TEST 5: Listing is newest first
	resp = get("/api/v1/visits?limit=3", nil)
	var listed struct {
		Data []struct {
			Path string `json:"path"`
		} `json:"data"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&listed))
	resp.Body.Close()
	require.Len(t, listed.Data, 3)
	assert.Equal(t, "/visit", listed.Data[0].Path)
	assert.Equal(t, "/b", listed.Data[2].Path)

	// TEST 6: HTML listing
	resp = get("/logs?limit=oops", nil)
	body, _ = io.ReadAll(resp.Body)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.True(t, strings.Contains(string(body), "203.0.113.5"))

	// TEST 7: Stats and metrics
	resp = get("/api/v1/stats", nil)
	var stats struct {
		TotalVisits int64 `json:"total_visits"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&stats))
	resp.Body.Close()
	assert.Equal(t, int64(4), stats.TotalVisits)

	resp = get("/metrics", nil)
	body, _ = io.ReadAll(resp.Body)
	resp.Body.Close()
	assert.Contains(t, string(body), "visitlog_visits_recorded_total")

	// TEST 8: Store failure does not break /log
	require.NoError(t, repo.Close())
	resp = get("/log", map[string]string{"X-Forwarded-For": "203.0.113.77"})
	var degraded handler.LogResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&degraded))
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "203.0.113.77", degraded.Address)
	assert.False(t, degraded.Recorded)

	// and reads say so instead of returning nothing
	resp = get("/export.csv", nil)
	resp.Body.Close()
	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)

	// TEST 9: Reopening keeps every row
	reopened, err := sqlite.NewSQLiteRepository(dbPath)
	require.NoError(t, err)
	defer reopened.Close()
	all, err := reopened.ExportAll(context.Background())
	require.NoError(t, err)
	assert.Len(t, all, 4)
}
