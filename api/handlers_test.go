package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/TbrosN/clarity/adapters/excel"
	"github.com/TbrosN/clarity/app"
	"github.com/TbrosN/clarity/domain/core"
	"github.com/TbrosN/clarity/domain/survey"
	"github.com/TbrosN/clarity/internal"
	"github.com/TbrosN/clarity/internal/config"
	"github.com/TbrosN/clarity/internal/evidence"
	"github.com/TbrosN/clarity/internal/testkit"
)

// memoryStore is an in-process ports.ResponseStore for handler tests.
type memoryStore struct {
	catalog *survey.Catalog
	nextID  int64
	byUser  map[core.UserID]map[core.CivilDate]map[core.MetricKey]survey.Response
}

func newMemoryStore() *memoryStore {
	return &memoryStore{
		catalog: survey.DefaultCatalog(),
		byUser:  map[core.UserID]map[core.CivilDate]map[core.MetricKey]survey.Response{},
	}
}

func (s *memoryStore) Upsert(_ context.Context, userID core.UserID, date core.CivilDate, key core.MetricKey, value any) (survey.Response, error) {
	days, ok := s.byUser[userID]
	if !ok {
		days = map[core.CivilDate]map[core.MetricKey]survey.Response{}
		s.byUser[userID] = days
	}
	responses, ok := days[date]
	if !ok {
		responses = map[core.MetricKey]survey.Response{}
		days[date] = responses
	}

	response, exists := responses[key]
	if !exists {
		s.nextID++
		response = survey.Response{ID: s.nextID, UserID: userID, LocalDate: date}
	}
	response.Apply(survey.Classify(s.catalog.SpecOrDefault(key), value))
	responses[key] = response
	return response, nil
}

func (s *memoryStore) History(_ context.Context, userID core.UserID, days int) ([]survey.DailyLog, error) {
	var logs []survey.DailyLog
	for date, responses := range s.byUser[userID] {
		log := survey.NewDailyLog(date)
		for key, r := range responses {
			log.Set(key, r)
		}
		logs = append(logs, log)
	}
	// newest first
	for i := 0; i < len(logs); i++ {
		for j := i + 1; j < len(logs); j++ {
			if logs[i].Date.Before(logs[j].Date) {
				logs[i], logs[j] = logs[j], logs[i]
			}
		}
	}
	return logs, nil
}

func (s *memoryStore) LogByDate(_ context.Context, userID core.UserID, date core.CivilDate) (*survey.DailyLog, error) {
	responses, ok := s.byUser[userID][date]
	if !ok || len(responses) == 0 {
		return nil, nil
	}
	log := survey.NewDailyLog(date)
	for key, r := range responses {
		log.Set(key, r)
	}
	return &log, nil
}

func (s *memoryStore) UpdateResponse(_ context.Context, userID core.UserID, responseID int64, value survey.ResponseValue) (survey.Response, error) {
	for _, days := range s.byUser[userID] {
		for key, r := range days {
			if r.ID == responseID {
				r.Apply(value)
				days[key] = r
				return r, nil
			}
		}
	}
	return survey.Response{}, nil
}

func (s *memoryStore) EraseUser(_ context.Context, userID core.UserID) (int64, error) {
	var deleted int64
	for _, responses := range s.byUser[userID] {
		deleted += int64(len(responses))
	}
	delete(s.byUser, userID)
	return deleted, nil
}

func testRouter(store *memoryStore) http.Handler {
	logger := internal.NewLogger(internal.LogLevelError)
	catalog := survey.DefaultCatalog()
	builder := evidence.NewBuilder(catalog)
	cfg := config.InsightsConfig{Enabled: false, MaxInsights: 4, WindowDays: 14}
	insights := app.NewInsightService(store, nil, builder, cfg, logger)
	handlers := NewHandlers(store, insights, builder, excel.NewExporter(catalog), catalog, cfg, logger)
	return NewRouter(handlers, logger)
}

func doJSON(t *testing.T, router http.Handler, method, path, user, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if user != "" {
		req.Header.Set("X-User-ID", user)
	}
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestRequireUserHeader(t *testing.T) {
	router := testRouter(newMemoryStore())

	rec := doJSON(t, router, http.MethodGet, "/logs/history", "", "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	// Whitespace-only identities are rejected the same as missing ones
	rec = doJSON(t, router, http.MethodGet, "/logs/history", "   ", "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestUpsertAndFetchLog(t *testing.T) {
	router := testRouter(newMemoryStore())

	body := `{"date":"2026-08-01","responses":{"sleepQuality":4,"screensOff":"2+hours","wakeTime":"7:15"}}`
	rec := doJSON(t, router, http.MethodPost, "/logs/upsert", "u1", body)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = doJSON(t, router, http.MethodGet, "/logs/2026-08-01", "u1", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var log survey.DailyLog
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &log))
	assert.Equal(t, core.CivilDate("2026-08-01"), log.Date)
	assert.Equal(t, "2+hours", log.Responses["screensOff"].Value)
	assert.Equal(t, "ordinal", log.Responses["screensOff"].ValueType)
	assert.Equal(t, "07:15:00", log.Responses["wakeTime"].Value)

	// Re-submitting supersedes in place rather than duplicating
	rec = doJSON(t, router, http.MethodPost, "/logs/upsert", "u1", `{"date":"2026-08-01","responses":{"sleepQuality":5}}`)
	require.Equal(t, http.StatusOK, rec.Code)
	rec = doJSON(t, router, http.MethodGet, "/logs/2026-08-01", "u1", "")
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &log))
	assert.Len(t, log.Responses, 3)
	assert.Equal(t, 5.0, log.Responses["sleepQuality"].Value)

	// Another user cannot see it
	rec = doJSON(t, router, http.MethodGet, "/logs/2026-08-01", "u2", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestUpsertValidation(t *testing.T) {
	router := testRouter(newMemoryStore())

	rec := doJSON(t, router, http.MethodPost, "/logs/upsert", "u1", `{"date":"not-a-date","responses":{"energy":3}}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = doJSON(t, router, http.MethodPost, "/logs/upsert", "u1", `{"date":"2026-08-01","responses":{}}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestEraseLogs(t *testing.T) {
	store := newMemoryStore()
	router := testRouter(store)

	doJSON(t, router, http.MethodPost, "/logs/upsert", "u1", `{"date":"2026-08-01","responses":{"energy":3,"stress":2}}`)
	rec := doJSON(t, router, http.MethodDelete, "/logs/", "u1", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var out map[string]int64
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	assert.Equal(t, int64(2), out["deleted"])
}

func TestInsightsDisabledReturnsStaticTip(t *testing.T) {
	router := testRouter(newMemoryStore())
	rec := doJSON(t, router, http.MethodGet, "/insights/", "u1", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "temporarily unavailable")
}

func TestEnergyEfficiencyEndpoint(t *testing.T) {
	store := newMemoryStore()
	for _, log := range testkit.SampleLogs(7) {
		for key, entry := range log.Responses {
			_, err := store.Upsert(context.Background(), "u1", log.Date, key, entry.Value)
			require.NoError(t, err)
		}
	}
	router := testRouter(store)

	rec := doJSON(t, router, http.MethodGet, "/energy-efficiency", "u1", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var score evidence.EfficiencyScore
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &score))
	assert.Greater(t, score.Score, 0.0)
	assert.NotEmpty(t, score.Color)
}

func TestExportHistoryHeaders(t *testing.T) {
	router := testRouter(newMemoryStore())
	rec := doJSON(t, router, http.MethodGet, "/logs/export", "u1", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Type"), "spreadsheetml")
	assert.NotZero(t, rec.Body.Len())
}
