package trust

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func intPtr(v int) *int { return &v }

// MockRepository implements RepositoryInterface for testing
type MockRepository struct {
	GetProfileFunc        func(ctx context.Context, requesterID uuid.UUID) (*RequesterProfile, error)
	GetReturnSamplesFunc  func(ctx context.Context, requesterID uuid.UUID) ([]ReturnSample, error)
	CountOrdersFunc       func(ctx context.Context, requesterID uuid.UUID) (int64, error)
	UpdateTrustFieldsFunc func(ctx context.Context, requesterID uuid.UUID, score int, riskLevel RiskLevel, factors Factors) error
	ListRequesterIDsFunc  func(ctx context.Context) ([]uuid.UUID, error)
}

func (m *MockRepository) GetProfile(ctx context.Context, requesterID uuid.UUID) (*RequesterProfile, error) {
	if m.GetProfileFunc != nil {
		return m.GetProfileFunc(ctx, requesterID)
	}
	return &RequesterProfile{ID: requesterID, CreatedAt: time.Now().AddDate(-2, 0, 0), TrustScore: 100}, nil
}

func (m *MockRepository) GetReturnSamples(ctx context.Context, requesterID uuid.UUID) ([]ReturnSample, error) {
	if m.GetReturnSamplesFunc != nil {
		return m.GetReturnSamplesFunc(ctx, requesterID)
	}
	return nil, nil
}

func (m *MockRepository) CountOrders(ctx context.Context, requesterID uuid.UUID) (int64, error) {
	if m.CountOrdersFunc != nil {
		return m.CountOrdersFunc(ctx, requesterID)
	}
	return 20, nil
}

func (m *MockRepository) UpdateTrustFields(ctx context.Context, requesterID uuid.UUID, score int, riskLevel RiskLevel, factors Factors) error {
	if m.UpdateTrustFieldsFunc != nil {
		return m.UpdateTrustFieldsFunc(ctx, requesterID, score, riskLevel, factors)
	}
	return nil
}

func (m *MockRepository) ListRequesterIDs(ctx context.Context) ([]uuid.UUID, error) {
	if m.ListRequesterIDsFunc != nil {
		return m.ListRequesterIDsFunc(ctx)
	}
	return nil, nil
}

func TestCompute_CleanHistoryKeepsHighScore(t *testing.T) {
	// One modest, well-spaced, approved return on an old account
	repo := &MockRepository{
		GetReturnSamplesFunc: func(ctx context.Context, requesterID uuid.UUID) ([]ReturnSample, error) {
			return []ReturnSample{
				{Price: 20, Status: "approved", CreatedAt: time.Now().AddDate(0, -6, 0)},
			}, nil
		},
	}
	service := NewService(repo)

	breakdown, err := service.Compute(context.Background(), uuid.New())

	require.NoError(t, err)
	// 100 + success(+10) + account age(+10), no penalties
	assert.Equal(t, 100, breakdown.CurrentScore)
	assert.Equal(t, RiskLow, breakdown.RiskLevel)
	assert.Equal(t, 10.0, breakdown.Impacts.Success)
	assert.Equal(t, 10.0, breakdown.Impacts.AccountAge)
	assert.Contains(t, breakdown.Recommendations, "Excellent trust score - can process returns automatically")
}

func TestCompute_FraudFlagsDominates(t *testing.T) {
	repo := &MockRepository{
		GetReturnSamplesFunc: func(ctx context.Context, requesterID uuid.UUID) ([]ReturnSample, error) {
			return []ReturnSample{
				{Price: 200, Status: "rejected", FraudFlag: true, CreatedAt: time.Now().AddDate(0, 0, -2)},
				{Price: 180, Status: "rejected", FraudFlag: true, CreatedAt: time.Now().AddDate(0, 0, -4)},
			}, nil
		},
	}
	service := NewService(repo)

	breakdown, err := service.Compute(context.Background(), uuid.New())

	require.NoError(t, err)
	assert.Equal(t, -50.0, breakdown.Impacts.Fraud)
	// 100 - 15 price - 5 frequency - 14 timing - 15 success + 10 age - 50 fraud
	assert.Equal(t, 11, breakdown.CurrentScore)
	assert.Equal(t, RiskHigh, breakdown.RiskLevel)
	assert.Contains(t, breakdown.Recommendations, "Previous fraud flags detected - enhanced verification required")
}

func TestCompute_ClusteredReturnsPenalized(t *testing.T) {
	// Three returns within a week of each other
	now := time.Now()
	repo := &MockRepository{
		GetReturnSamplesFunc: func(ctx context.Context, requesterID uuid.UUID) ([]ReturnSample, error) {
			return []ReturnSample{
				{Price: 10, Status: "approved", CreatedAt: now.AddDate(0, 0, -1)},
				{Price: 10, Status: "approved", CreatedAt: now.AddDate(0, 0, -3)},
				{Price: 10, Status: "approved", CreatedAt: now.AddDate(0, 0, -5)},
			}, nil
		},
	}
	service := NewService(repo)

	breakdown, err := service.Compute(context.Background(), uuid.New())

	require.NoError(t, err)
	assert.Equal(t, 0.3, breakdown.Factors.TimePatternScore)
	assert.InDelta(t, -14.0, breakdown.Impacts.Timing, 0.001)
	assert.Contains(t, breakdown.Recommendations, "Returns are clustered - potential abuse pattern")
}

func TestCompute_ScoreAlwaysBounded(t *testing.T) {
	now := time.Now()
	cases := [][]ReturnSample{
		nil,
		{{Price: 500, Status: "rejected", FraudFlag: true, CreatedAt: now}},
		{
			{Price: 500, Status: "rejected", FraudFlag: true, CreatedAt: now},
			{Price: 500, Status: "rejected", FraudFlag: true, CreatedAt: now.AddDate(0, 0, -1)},
			{Price: 500, Status: "rejected", FraudFlag: true, CreatedAt: now.AddDate(0, 0, -2)},
		},
	}

	for _, samples := range cases {
		repo := &MockRepository{
			GetReturnSamplesFunc: func(ctx context.Context, requesterID uuid.UUID) ([]ReturnSample, error) {
				return samples, nil
			},
		}
		breakdown, err := NewService(repo).Compute(context.Background(), uuid.New())
		require.NoError(t, err)
		assert.GreaterOrEqual(t, breakdown.CurrentScore, 0)
		assert.LessOrEqual(t, breakdown.CurrentScore, 100)
	}
}

func TestCompute_NotFound(t *testing.T) {
	repo := &MockRepository{
		GetProfileFunc: func(ctx context.Context, requesterID uuid.UUID) (*RequesterProfile, error) {
			return nil, ErrNotFound
		},
	}
	_, err := NewService(repo).Compute(context.Background(), uuid.New())
	assert.Error(t, err)
}

func TestUpdate_PersistsComputedScore(t *testing.T) {
	var persistedScore int
	var persistedRisk RiskLevel
	repo := &MockRepository{
		UpdateTrustFieldsFunc: func(ctx context.Context, requesterID uuid.UUID, score int, riskLevel RiskLevel, factors Factors) error {
			persistedScore = score
			persistedRisk = riskLevel
			return nil
		},
	}
	service := NewService(repo)

	breakdown, err := service.Update(context.Background(), uuid.New())

	require.NoError(t, err)
	assert.Equal(t, breakdown.CurrentScore, persistedScore)
	assert.Equal(t, breakdown.RiskLevel, persistedRisk)
}

func TestBatchUpdate_ContinuesPastFailures(t *testing.T) {
	good := uuid.New()
	bad := uuid.New()
	repo := &MockRepository{
		ListRequesterIDsFunc: func(ctx context.Context) ([]uuid.UUID, error) {
			return []uuid.UUID{bad, good}, nil
		},
		GetProfileFunc: func(ctx context.Context, requesterID uuid.UUID) (*RequesterProfile, error) {
			if requesterID == bad {
				return nil, ErrNotFound
			}
			return &RequesterProfile{ID: requesterID, CreatedAt: time.Now().AddDate(-1, 0, 0)}, nil
		},
	}
	service := NewService(repo)

	result, err := service.BatchUpdate(context.Background())

	require.NoError(t, err)
	assert.Equal(t, 1, result.Updated)
	assert.Len(t, result.Errors, 1)
}

func TestOverride_PersistsRequestedScore(t *testing.T) {
	var persistedScore int
	var persistedRisk RiskLevel
	repo := &MockRepository{
		UpdateTrustFieldsFunc: func(ctx context.Context, requesterID uuid.UUID, score int, riskLevel RiskLevel, factors Factors) error {
			persistedScore = score
			persistedRisk = riskLevel
			return nil
		},
	}
	service := NewService(repo)

	_, err := service.Override(context.Background(), uuid.New(), uuid.New(),
		&OverrideRequest{Score: intPtr(35), Reason: "confirmed abuse report"})

	require.NoError(t, err)
	assert.Equal(t, 35, persistedScore)
	assert.Equal(t, RiskHigh, persistedRisk)
}

func TestOverride_AcceptsBoundaryScores(t *testing.T) {
	persisted := []int{}
	repo := &MockRepository{
		UpdateTrustFieldsFunc: func(ctx context.Context, requesterID uuid.UUID, score int, riskLevel RiskLevel, factors Factors) error {
			persisted = append(persisted, score)
			return nil
		},
	}
	service := NewService(repo)

	_, err := service.Override(context.Background(), uuid.New(), uuid.New(),
		&OverrideRequest{Score: intPtr(0), Reason: "account banned"})
	require.NoError(t, err)

	_, err = service.Override(context.Background(), uuid.New(), uuid.New(),
		&OverrideRequest{Score: intPtr(100), Reason: "verified corporate account"})
	require.NoError(t, err)

	assert.Equal(t, []int{0, 100}, persisted)
}

func TestOverrideRequest_BindsBoundaryScores(t *testing.T) {
	gin.SetMode(gin.TestMode)

	tests := []struct {
		name    string
		body    string
		want    int
		wantErr bool
	}{
		{name: "zero is a valid override", body: `{"score": 0, "reason": "confirmed abuse"}`, want: 0},
		{name: "hundred is a valid override", body: `{"score": 100, "reason": "restored"}`, want: 100},
		{name: "above range is rejected", body: `{"score": 101, "reason": "r"}`, wantErr: true},
		{name: "below range is rejected", body: `{"score": -1, "reason": "r"}`, wantErr: true},
		{name: "missing score is rejected", body: `{"reason": "r"}`, wantErr: true},
		{name: "missing reason is rejected", body: `{"score": 50}`, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			c, _ := gin.CreateTestContext(w)
			c.Request = httptest.NewRequest(http.MethodPut, "/trust/override", strings.NewReader(tt.body))
			c.Request.Header.Set("Content-Type", "application/json")

			var req OverrideRequest
			err := c.ShouldBindJSON(&req)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			require.NotNil(t, req.Score)
			assert.Equal(t, tt.want, *req.Score)
		})
	}
}
