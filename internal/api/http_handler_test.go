package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"catalog-migrator/internal/domain"
	"catalog-migrator/internal/transfer"
)

// MockRunner is a mock implementation of Runner
type MockRunner struct {
	mock.Mock
}

func (m *MockRunner) Run(ctx context.Context, req transfer.Request) (*transfer.Report, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*transfer.Report), args.Error(1)
}

// MockPinger is a mock implementation of Pinger
type MockPinger struct {
	mock.Mock
}

func (m *MockPinger) Ping(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}

// Helper for setting up tests with a chi router and handler
func setupTestChiServer(t *testing.T, runner Runner, db Pinger) (*HTTPHandler, *httptest.Server) {
	handler := NewHTTPHandler(context.Background(), runner, db, nil)
	router := chi.NewRouter()
	handler.RegisterRoutes(router)

	server := httptest.NewServer(router)
	t.Cleanup(server.Close)
	return handler, server
}

func postTransfer(t *testing.T, server *httptest.Server, input interface{}) *http.Response {
	reqBody, err := json.Marshal(input)
	require.NoError(t, err)
	res, err := http.Post(server.URL+"/api/v1/transfers", "application/json", bytes.NewBuffer(reqBody))
	require.NoError(t, err)
	return res
}

func TestHTTPHandler_CreateTransfer_Success(t *testing.T) {
	runner := new(MockRunner)
	handler, server := setupTestChiServer(t, runner, nil)

	runner.On("Run", mock.Anything, mock.MatchedBy(func(req transfer.Request) bool {
		return req.Selector == domain.Selector{CategoryID: 66} && req.Type == domain.ProductTypeVariable && req.RunID != ""
	})).Return(&transfer.Report{
		Products: []transfer.ProductResult{
			{SourceID: 1, Name: "Shirt", Status: transfer.StatusCreated, Variations: []transfer.VariationResult{
				{Option: "M", Status: transfer.StatusCreated},
				{Option: "L", Status: transfer.StatusFailed, Error: "rejected"},
			}},
		},
	}, nil).Once()

	res := postTransfer(t, server, TransferCreateInput{CategoryID: 66, Type: "variable"})
	defer res.Body.Close()
	require.Equal(t, http.StatusAccepted, res.StatusCode)

	var accepted Run
	require.NoError(t, json.NewDecoder(res.Body).Decode(&accepted))
	assert.Equal(t, RunStateRunning, accepted.State)
	require.NotEmpty(t, accepted.ID)

	handler.Wait()

	getRes, err := http.Get(server.URL + "/api/v1/transfers/" + accepted.ID)
	require.NoError(t, err)
	defer getRes.Body.Close()
	require.Equal(t, http.StatusOK, getRes.StatusCode)

	var run Run
	require.NoError(t, json.NewDecoder(getRes.Body).Decode(&run))
	assert.Equal(t, RunStateCompleted, run.State)
	require.NotNil(t, run.Summary)
	assert.Equal(t, 1, run.Summary.ProductsCreated)
	assert.Equal(t, 1, run.Summary.VariationsFailed)
	require.NotNil(t, run.Report)
	assert.Len(t, run.Report.Products, 1)

	runner.AssertExpectations(t)
}

func TestHTTPHandler_CreateTransfer_Validation(t *testing.T) {
	runner := new(MockRunner)
	_, server := setupTestChiServer(t, runner, nil)

	for _, input := range []interface{}{
		TransferCreateInput{Type: "grouped"},
		TransferCreateInput{Type: "simple", Limit: -1},
		map[string]interface{}{"category_id": 3},
	} {
		res := postTransfer(t, server, input)
		res.Body.Close()
		assert.Equal(t, http.StatusBadRequest, res.StatusCode)
	}

	res, err := http.Post(server.URL+"/api/v1/transfers", "application/json", bytes.NewBufferString("{"))
	require.NoError(t, err)
	res.Body.Close()
	assert.Equal(t, http.StatusBadRequest, res.StatusCode)

	runner.AssertNotCalled(t, "Run", mock.Anything, mock.Anything)
}

func TestHTTPHandler_CreateTransfer_ConflictWhileRunning(t *testing.T) {
	runner := new(MockRunner)
	handler, server := setupTestChiServer(t, runner, nil)

	release := make(chan struct{})
	runner.On("Run", mock.Anything, mock.Anything).
		Run(func(mock.Arguments) { <-release }).
		Return(&transfer.Report{}, nil).Once()

	first := postTransfer(t, server, TransferCreateInput{Type: "simple", Limit: 2})
	first.Body.Close()
	require.Equal(t, http.StatusAccepted, first.StatusCode)

	second := postTransfer(t, server, TransferCreateInput{Type: "simple", Limit: 2})
	second.Body.Close()
	assert.Equal(t, http.StatusConflict, second.StatusCode)

	close(release)
	handler.Wait()

	listRes, err := http.Get(server.URL + "/api/v1/transfers")
	require.NoError(t, err)
	defer listRes.Body.Close()

	var runs []Run
	require.NoError(t, json.NewDecoder(listRes.Body).Decode(&runs))
	require.Len(t, runs, 1)
	assert.Equal(t, RunStateCompleted, runs[0].State)
	assert.Nil(t, runs[0].Report)
}

func TestHTTPHandler_CreateTransfer_RunError(t *testing.T) {
	runner := new(MockRunner)
	handler, server := setupTestChiServer(t, runner, nil)

	runner.On("Run", mock.Anything, mock.Anything).Return(nil, errors.New("transfer: reading source products: db down")).Once()

	res := postTransfer(t, server, TransferCreateInput{Type: "variable"})
	defer res.Body.Close()
	var accepted Run
	require.NoError(t, json.NewDecoder(res.Body).Decode(&accepted))
	handler.Wait()

	run, ok := handler.snapshot(accepted.ID)
	require.True(t, ok)
	assert.Equal(t, RunStateFailed, run.State)
	assert.Contains(t, run.Error, "db down")
}

func TestHTTPHandler_GetTransfer_NotFound(t *testing.T) {
	_, server := setupTestChiServer(t, new(MockRunner), nil)

	res, err := http.Get(server.URL + "/api/v1/transfers/9b2f3c1e-8d4a-4b6e-9f10-2a3b4c5d6e7f")
	require.NoError(t, err)
	res.Body.Close()
	assert.Equal(t, http.StatusNotFound, res.StatusCode)

	res, err = http.Get(server.URL + "/api/v1/transfers/not-a-uuid")
	require.NoError(t, err)
	res.Body.Close()
	assert.Equal(t, http.StatusBadRequest, res.StatusCode)
}

func TestHTTPHandler_Health(t *testing.T) {
	db := new(MockPinger)
	db.On("Ping", mock.Anything).Return(errors.New("gone")).Once()
	_, server := setupTestChiServer(t, new(MockRunner), db)

	res, err := http.Get(server.URL + "/api/v1/healthz")
	require.NoError(t, err)
	defer res.Body.Close()
	require.Equal(t, http.StatusOK, res.StatusCode)

	var body map[string]interface{}
	require.NoError(t, json.NewDecoder(res.Body).Decode(&body))
	assert.Equal(t, "unhealthy", body["database"])
	db.AssertExpectations(t)
}

func TestHTTPHandler_ListTransfers_KeepsRecentRuns(t *testing.T) {
	runner := new(MockRunner)
	handler, server := setupTestChiServer(t, runner, nil)
	handler.mu.Lock()
	handler.historyLimit = 2
	handler.mu.Unlock()

	runner.On("Run", mock.Anything, mock.Anything).Return(&transfer.Report{}, nil).Times(3)

	var ids []string
	for i := 0; i < 3; i++ {
		res := postTransfer(t, server, TransferCreateInput{Type: "simple"})
		var accepted Run
		require.NoError(t, json.NewDecoder(res.Body).Decode(&accepted))
		res.Body.Close()
		require.Equal(t, http.StatusAccepted, res.StatusCode)
		ids = append(ids, accepted.ID)
		handler.Wait()
	}

	listRes, err := http.Get(server.URL + "/api/v1/transfers")
	require.NoError(t, err)
	defer listRes.Body.Close()

	var runs []Run
	require.NoError(t, json.NewDecoder(listRes.Body).Decode(&runs))
	require.Len(t, runs, 2)
	assert.Equal(t, ids[2], runs[0].ID)
	assert.Equal(t, ids[1], runs[1].ID)

	res, err := http.Get(server.URL + "/api/v1/transfers/" + ids[0])
	require.NoError(t, err)
	res.Body.Close()
	assert.Equal(t, http.StatusNotFound, res.StatusCode)
	runner.AssertExpectations(t)
}
