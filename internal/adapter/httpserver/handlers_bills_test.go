package httpserver

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jschilling12/justabill/internal/domain"
)

func TestListBills(t *testing.T) {
	app := &mockAppService{
		listBillsFn: func(_ context.Context, filter domain.BillFilter, page, pageSize int) (*domain.BillPage, error) {
			assert.True(t, filter.PopularOnly)
			assert.Equal(t, 2, page)
			assert.Equal(t, 10, pageSize)
			return &domain.BillPage{
				Items:    []domain.Bill{{ID: uuid.New(), Title: "Test Bill"}},
				Total:    11,
				Page:     2,
				PageSize: 10,
				Pages:    2,
			}, nil
		},
	}
	srv := newTestServer(t, app)

	req := httptest.NewRequest(http.MethodGet, "/api/bills?popular=true&page=2&page_size=10", nil)
	rec := doRequest(srv, req)

	assert.Equal(t, http.StatusOK, rec.Code)

	var response billListResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &response))
	assert.Equal(t, 11, response.Total)
	assert.Equal(t, 2, response.Pages)
	require.Len(t, response.Items, 1)
	assert.Nil(t, response.Items[0].Stats)
}

func TestListBills_WithStats(t *testing.T) {
	billID := uuid.New()

	app := &mockAppService{
		listBillsFn: func(context.Context, domain.BillFilter, int, int) (*domain.BillPage, error) {
			return &domain.BillPage{
				Items: []domain.Bill{{ID: billID}}, Total: 1, Page: 1, PageSize: 20, Pages: 1,
			}, nil
		},
		getBillsStatsFn: func(_ context.Context, ids []uuid.UUID) (map[uuid.UUID]domain.VoteStats, error) {
			require.Equal(t, []uuid.UUID{billID}, ids)
			return map[uuid.UUID]domain.VoteStats{
				billID: {Counts: domain.VoteCounts{Up: 5, Total: 5}, Percents: domain.VotePercents{AgreePct: 100}},
			}, nil
		},
	}
	srv := newTestServer(t, app)

	req := httptest.NewRequest(http.MethodGet, "/api/bills?include_stats=true", nil)
	rec := doRequest(srv, req)

	assert.Equal(t, http.StatusOK, rec.Code)

	var response billListResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &response))
	require.Len(t, response.Items, 1)
	require.NotNil(t, response.Items[0].Stats)
	assert.Equal(t, 100.0, response.Items[0].Stats.Percents.AgreePct)
}

func TestListBills_InvalidStatus(t *testing.T) {
	srv := newTestServer(t, &mockAppService{})

	req := httptest.NewRequest(http.MethodGet, "/api/bills?status=bogus", nil)
	rec := doRequest(srv, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestBillsStats_Batch(t *testing.T) {
	first, second := uuid.New(), uuid.New()

	app := &mockAppService{
		getBillsStatsFn: func(_ context.Context, ids []uuid.UUID) (map[uuid.UUID]domain.VoteStats, error) {
			require.Equal(t, []uuid.UUID{first, second}, ids)
			return map[uuid.UUID]domain.VoteStats{
				first:  {Counts: domain.VoteCounts{Up: 3, Down: 1, Total: 4}},
				second: {},
			}, nil
		},
	}
	srv := newTestServer(t, app)

	req := httptest.NewRequest(http.MethodGet, "/api/bills/stats?ids="+first.String()+","+second.String(), nil)
	rec := doRequest(srv, req)

	assert.Equal(t, http.StatusOK, rec.Code)

	var response struct {
		Stats map[uuid.UUID]domain.VoteStats `json:"stats"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &response))
	require.Len(t, response.Stats, 2)
	assert.Equal(t, 4, response.Stats[first].Counts.Total)
	assert.Equal(t, 0, response.Stats[second].Counts.Total)
}

func TestBillsStats_EmptyIDs(t *testing.T) {
	srv := newTestServer(t, &mockAppService{})

	req := httptest.NewRequest(http.MethodGet, "/api/bills/stats", nil)
	rec := doRequest(srv, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestBillsStats_InvalidID(t *testing.T) {
	srv := newTestServer(t, &mockAppService{})

	req := httptest.NewRequest(http.MethodGet, "/api/bills/stats?ids=not-a-uuid", nil)
	rec := doRequest(srv, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestBillsStats_UnknownBill(t *testing.T) {
	app := &mockAppService{
		getBillsStatsFn: func(context.Context, []uuid.UUID) (map[uuid.UUID]domain.VoteStats, error) {
			return nil, domain.ErrBillNotFound
		},
	}
	srv := newTestServer(t, app)

	req := httptest.NewRequest(http.MethodGet, "/api/bills/stats?ids="+uuid.NewString(), nil)
	rec := doRequest(srv, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestGetBill_WithSections(t *testing.T) {
	billID := uuid.New()

	app := &mockAppService{
		getBillWithSectionsFn: func(_ context.Context, id uuid.UUID) (*domain.Bill, []domain.Section, error) {
			assert.Equal(t, billID, id)
			return &domain.Bill{ID: billID, Title: "Test Bill"},
				[]domain.Section{{ID: uuid.New(), BillID: billID, Heading: "Sec. 1"}}, nil
		},
	}
	srv := newTestServer(t, app)

	req := httptest.NewRequest(http.MethodGet, "/api/bills/"+billID.String(), nil)
	rec := doRequest(srv, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Sec. 1")
}

func TestGetBill_NotFound(t *testing.T) {
	app := &mockAppService{
		getBillWithSectionsFn: func(context.Context, uuid.UUID) (*domain.Bill, []domain.Section, error) {
			return nil, nil, domain.ErrBillNotFound
		},
	}
	srv := newTestServer(t, app)

	req := httptest.NewRequest(http.MethodGet, "/api/bills/"+uuid.NewString(), nil)
	rec := doRequest(srv, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestGetBill_InvalidID(t *testing.T) {
	srv := newTestServer(t, &mockAppService{})

	req := httptest.NewRequest(http.MethodGet, "/api/bills/not-a-uuid", nil)
	rec := doRequest(srv, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestBillStats(t *testing.T) {
	billID := uuid.New()

	app := &mockAppService{
		getBillStatsFn: func(_ context.Context, id uuid.UUID) (*domain.VoteStats, error) {
			return &domain.VoteStats{
				Counts:   domain.VoteCounts{Up: 3, Down: 1, Skip: 1, Total: 5},
				Percents: domain.VotePercents{AgreePct: 75, DisagreePct: 25},
			}, nil
		},
	}
	srv := newTestServer(t, app)

	req := httptest.NewRequest(http.MethodGet, "/api/bills/"+billID.String()+"/stats", nil)
	rec := doRequest(srv, req)

	assert.Equal(t, http.StatusOK, rec.Code)

	var stats domain.VoteStats
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &stats))
	assert.Equal(t, 5, stats.Counts.Total)
	assert.Equal(t, 75.0, stats.Percents.AgreePct)
}

func TestSectionStats(t *testing.T) {
	billID := uuid.New()

	app := &mockAppService{
		getSectionStatsFn: func(_ context.Context, id uuid.UUID) ([]domain.SectionStats, error) {
			return []domain.SectionStats{
				{SectionID: uuid.New()},
				{SectionID: uuid.New()},
			}, nil
		},
	}
	srv := newTestServer(t, app)

	req := httptest.NewRequest(http.MethodGet, "/api/bills/"+billID.String()+"/stats/sections", nil)
	rec := doRequest(srv, req)

	assert.Equal(t, http.StatusOK, rec.Code)

	var response struct {
		Sections []domain.SectionStats `json:"sections"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &response))
	assert.Len(t, response.Sections, 2)
}

func TestSegmentedStats_RequiresAffiliation(t *testing.T) {
	userID := uuid.New()

	app := &mockAppService{
		getUserFn: func(_ context.Context, id uuid.UUID) (*domain.User, error) {
			return &domain.User{ID: id, IsAnonymous: true}, nil
		},
	}
	srv := newTestServer(t, app)

	req := httptest.NewRequest(http.MethodGet, "/api/bills/"+uuid.NewString()+"/stats/segmented", nil)
	req.Header.Set("Authorization", authHeader(t, srv, userID))

	rec := doRequest(srv, req)

	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestSegmentedStats_WithAffiliation(t *testing.T) {
	userID := uuid.New()
	bucket := domain.BucketLiberal

	app := &mockAppService{
		getUserFn: func(_ context.Context, id uuid.UUID) (*domain.User, error) {
			return &domain.User{ID: id, AffiliationBucket: &bucket}, nil
		},
		getSegmentedBillStatsFn: func(_ context.Context, billID uuid.UUID) (*domain.VoteStats, []domain.SegmentStats, error) {
			return &domain.VoteStats{Counts: domain.VoteCounts{Total: 4}},
				[]domain.SegmentStats{
					{Bucket: domain.BucketRepublican},
					{Bucket: domain.BucketLiberal},
					{Bucket: domain.BucketOther},
				}, nil
		},
	}
	srv := newTestServer(t, app)

	req := httptest.NewRequest(http.MethodGet, "/api/bills/"+uuid.NewString()+"/stats/segmented", nil)
	req.Header.Set("Authorization", authHeader(t, srv, userID))

	rec := doRequest(srv, req)

	assert.Equal(t, http.StatusOK, rec.Code)

	var response struct {
		Overall  domain.VoteStats      `json:"overall"`
		Segments []domain.SegmentStats `json:"segments"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &response))
	assert.Equal(t, 4, response.Overall.Counts.Total)
	assert.Len(t, response.Segments, 3)
}

func TestUserSummary(t *testing.T) {
	userID := uuid.New()
	billID := uuid.New()

	app := &mockAppService{
		getUserSummaryFn: func(_ context.Context, u, b uuid.UUID) (*domain.BillSummary, error) {
			assert.Equal(t, userID, u)
			assert.Equal(t, billID, b)
			return &domain.BillSummary{
				UserID: u, BillID: b,
				UpvoteCount:  2,
				VerdictLabel: "Likely Support",
			}, nil
		},
	}
	srv := newTestServer(t, app)

	req := httptest.NewRequest(http.MethodGet, "/api/bills/"+billID.String()+"/summary", nil)
	req.Header.Set("Authorization", authHeader(t, srv, userID))

	rec := doRequest(srv, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Likely Support")
}

func TestUserSummary_Unauthenticated(t *testing.T) {
	srv := newTestServer(t, &mockAppService{})

	req := httptest.NewRequest(http.MethodGet, "/api/bills/"+uuid.NewString()+"/summary", nil)
	rec := doRequest(srv, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}
