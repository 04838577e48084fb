package handler

import (
	"context"
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nexskill/institute-api/internal/middleware"
	"github.com/nexskill/institute-api/internal/models"
	"github.com/nexskill/institute-api/internal/service"
)

type stubLeadRepo struct {
	leads      map[string]*models.Lead
	total      int
	lastFilter models.LeadFilter
}

func newStubLeadRepo() *stubLeadRepo {
	return &stubLeadRepo{leads: map[string]*models.Lead{}}
}

func (s *stubLeadRepo) List(_ context.Context, filter models.LeadFilter) ([]models.Lead, int, error) {
	s.lastFilter = filter
	out := make([]models.Lead, 0, len(s.leads))
	for _, lead := range s.leads {
		out = append(out, *lead)
	}
	return out, s.total, nil
}

func (s *stubLeadRepo) FindByID(_ context.Context, id string) (*models.Lead, error) {
	lead, ok := s.leads[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	cp := *lead
	return &cp, nil
}

func (s *stubLeadRepo) Create(_ context.Context, lead *models.Lead) error {
	s.leads[lead.ID] = lead
	return nil
}

func (s *stubLeadRepo) Update(_ context.Context, lead *models.Lead) error {
	s.leads[lead.ID] = lead
	return nil
}

func (s *stubLeadRepo) Delete(_ context.Context, id string) error {
	if _, ok := s.leads[id]; !ok {
		return sql.ErrNoRows
	}
	delete(s.leads, id)
	return nil
}

func (s *stubLeadRepo) UpdateStatus(_ context.Context, id string, status models.LeadStatus) error {
	s.leads[id].Status = status
	return nil
}

type stubAdmissionSink struct {
	created []*models.Admission
}

func (s *stubAdmissionSink) NextAdmissionNo(context.Context) (string, error) {
	return "ADM-0007", nil
}

func (s *stubAdmissionSink) Create(_ context.Context, admission *models.Admission) error {
	s.created = append(s.created, admission)
	return nil
}

type stubAudit struct {
	logs []*models.AuditLog
}

func (s *stubAudit) CreateAuditLog(_ context.Context, log *models.AuditLog) error {
	s.logs = append(s.logs, log)
	return nil
}

type stubNotify struct {
	userNotes []string
	roleNotes []string
}

func (s *stubNotify) NotifyUsers(title, _ string, _ ...string) {
	s.userNotes = append(s.userNotes, title)
}

func (s *stubNotify) NotifyRoles(title, _ string, _ ...models.UserRole) {
	s.roleNotes = append(s.roleNotes, title)
}

type testEnvelope struct {
	Success    bool                   `json:"success"`
	Data       interface{}            `json:"data"`
	Message    string                 `json:"message"`
	Code       string                 `json:"code"`
	Pagination map[string]interface{} `json:"pagination"`
}

func decodeEnvelope(t *testing.T, rec *httptest.ResponseRecorder) testEnvelope {
	t.Helper()
	var envelope testEnvelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
	return envelope
}

func jsonRequest(method, target, body string) *http.Request {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	return req
}

func newLeadFixture() (*LeadHandler, *stubLeadRepo, *stubNotify) {
	repo := newStubLeadRepo()
	notify := &stubNotify{}
	svc := service.NewLeadService(repo, &stubAdmissionSink{}, &stubAudit{}, notify, service.NewValidator(), nil)
	return NewLeadHandler(svc), repo, notify
}

func TestLeadHandlerCreateAssignsActor(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler, repo, _ := newLeadFixture()

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = jsonRequest(http.MethodPost, "/leads", `{"name":"Ravi Iyer","phone":"9876543210","branch_id":"b1"}`)
	c.Set(middleware.ContextUserKey, &models.JWTClaims{UserID: "staff-1"})

	handler.Create(c)

	assert.Equal(t, http.StatusCreated, rec.Code)
	require.Len(t, repo.leads, 1)
	for _, lead := range repo.leads {
		require.NotNil(t, lead.AssignedTo)
		assert.Equal(t, "staff-1", *lead.AssignedTo)
		assert.Equal(t, "WALK_IN", lead.Source)
	}
}

func TestLeadHandlerCreateRejectsMalformedBody(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler, repo, _ := newLeadFixture()

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = jsonRequest(http.MethodPost, "/leads", `{"name":`)

	handler.Create(c)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	envelope := decodeEnvelope(t, rec)
	assert.False(t, envelope.Success)
	assert.Equal(t, "VALIDATION_ERROR", envelope.Code)
	assert.Empty(t, repo.leads)
}

func TestLeadHandlerPublicForcesWebsiteSource(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler, repo, notify := newLeadFixture()

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = jsonRequest(http.MethodPost, "/leads/public", `{"name":"Asha Verma","phone":"9876500001","branch_id":"b1","source":"REFERRAL"}`)

	handler.CreatePublic(c)

	assert.Equal(t, http.StatusCreated, rec.Code)
	require.Len(t, repo.leads, 1)
	for _, lead := range repo.leads {
		assert.Equal(t, "WEBSITE", lead.Source)
		assert.Nil(t, lead.AssignedTo)
	}
	assert.Len(t, notify.roleNotes, 1)
}

func TestLeadHandlerPublicRoutesStaffToAssignedCapture(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler, repo, notify := newLeadFixture()

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = jsonRequest(http.MethodPost, "/leads/public", `{"name":"Asha Verma","phone":"9876500001","branch_id":"b1","source":"REFERRAL"}`)
	c.Set(middleware.ContextUserKey, &models.JWTClaims{UserID: "staff-1"})

	handler.CreatePublic(c)

	assert.Equal(t, http.StatusCreated, rec.Code)
	for _, lead := range repo.leads {
		require.NotNil(t, lead.AssignedTo)
		assert.Equal(t, "staff-1", *lead.AssignedTo)
		assert.Equal(t, "REFERRAL", lead.Source)
	}
	assert.Empty(t, notify.roleNotes)
}

func TestLeadHandlerGetNotFound(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler, _, _ := newLeadFixture()

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodGet, "/leads/missing", nil)
	c.Params = gin.Params{{Key: "id", Value: "missing"}}

	handler.Get(c)

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "NOT_FOUND", decodeEnvelope(t, rec).Code)
}

func TestLeadHandlerUpdateStatusRejectsConvertShortcut(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler, repo, _ := newLeadFixture()
	repo.leads["ld1"] = &models.Lead{ID: "ld1", Name: "Ravi Iyer", Status: models.LeadStatusNew}

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = jsonRequest(http.MethodPatch, "/leads/ld1/status", `{"status":"CONVERTED"}`)
	c.Params = gin.Params{{Key: "id", Value: "ld1"}}

	handler.UpdateStatus(c)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, models.LeadStatusNew, repo.leads["ld1"].Status)
}

func TestLeadHandlerListParsesQuery(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler, repo, _ := newLeadFixture()
	repo.leads["ld1"] = &models.Lead{ID: "ld1", Name: "Ravi Iyer", Status: models.LeadStatusQualified}
	repo.total = 41

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodGet, "/leads?status=QUALIFIED&branch_id=b1&search=ravi&page=3&limit=10", nil)

	handler.List(c)

	assert.Equal(t, http.StatusOK, rec.Code)
	require.NotNil(t, repo.lastFilter.Status)
	assert.Equal(t, models.LeadStatusQualified, *repo.lastFilter.Status)
	assert.Equal(t, "b1", repo.lastFilter.BranchID)
	assert.Equal(t, "ravi", repo.lastFilter.Search)
	assert.Equal(t, 3, repo.lastFilter.Page)

	envelope := decodeEnvelope(t, rec)
	assert.True(t, envelope.Success)
	assert.Equal(t, float64(41), envelope.Pagination["total_count"])
}

func TestLeadHandlerListPinsChannelPartnerBranch(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler, repo, _ := newLeadFixture()
	repo.leads["ld1"] = &models.Lead{ID: "ld1", Name: "Ravi Iyer", BranchID: "other-branch"}

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodGet, "/leads?branch_id=other-branch", nil)
	c.Set(middleware.ContextUserKey, &models.JWTClaims{UserID: "cp-1", Role: models.RoleChannelPartner, BranchID: "my-branch"})

	handler.List(c)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "my-branch", repo.lastFilter.BranchID)
}

func TestLeadHandlerConvertReturnsAdmission(t *testing.T) {
	gin.SetMode(gin.TestMode)
	repo := newStubLeadRepo()
	sink := &stubAdmissionSink{}
	svc := service.NewLeadService(repo, sink, &stubAudit{}, &stubNotify{}, service.NewValidator(), nil)
	handler := NewLeadHandler(svc)
	repo.leads["ld1"] = &models.Lead{ID: "ld1", Name: "Ravi Iyer", Phone: "9876543210", BranchID: "b1", Status: models.LeadStatusQualified}

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = jsonRequest(http.MethodPost, "/leads/ld1/convert", `{"course_id":"c1","total_fee":45000}`)
	c.Params = gin.Params{{Key: "id", Value: "ld1"}}
	c.Set(middleware.ContextUserKey, &models.JWTClaims{UserID: "staff-1"})

	handler.Convert(c)

	assert.Equal(t, http.StatusCreated, rec.Code)
	require.Len(t, sink.created, 1)
	assert.Equal(t, "ADM-0007", sink.created[0].AdmissionNo)
	envelope := decodeEnvelope(t, rec)
	data, ok := envelope.Data.(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, "ADM-0007", data["admission_no"])
}

func TestLeadHandlerDelete(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler, repo, _ := newLeadFixture()
	repo.leads["ld1"] = &models.Lead{ID: "ld1"}

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodDelete, "/leads/ld1", nil)
	c.Params = gin.Params{{Key: "id", Value: "ld1"}}

	handler.Delete(c)
	c.Writer.WriteHeaderNow()

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Empty(t, repo.leads)
}
