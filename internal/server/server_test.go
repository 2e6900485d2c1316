package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"vridhashram/internal/ratelimit"
	"vridhashram/pkg/types"

	"github.com/alicebob/miniredis/v2"
	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/cognitoidentityprovider"
	cognitotypes "github.com/aws/aws-sdk-go-v2/service/cognitoidentityprovider/types"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockDonationService struct {
	mock.Mock
}

func (m *MockDonationService) Submit(ctx context.Context, in types.SubmitDonationInput, proof *types.Upload) (*types.SubmitReceipt, error) {
	args := m.Called(ctx, in, proof)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*types.SubmitReceipt), args.Error(1)
}

func (m *MockDonationService) Verify(ctx context.Context, id, actorID string) (*types.Donation, error) {
	args := m.Called(ctx, id, actorID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*types.Donation), args.Error(1)
}

func (m *MockDonationService) Reject(ctx context.Context, id, actorID, reason string) (*types.Donation, error) {
	args := m.Called(ctx, id, actorID, reason)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*types.Donation), args.Error(1)
}

func (m *MockDonationService) Donation(ctx context.Context, id string) (*types.Donation, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*types.Donation), args.Error(1)
}

func (m *MockDonationService) Donations(ctx context.Context, filter types.DonationFilter) ([]*types.Donation, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*types.Donation), args.Error(1)
}

func (m *MockDonationService) ResendCertificate(ctx context.Context, id string) (*types.Donation, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*types.Donation), args.Error(1)
}

type MockRegistrations struct {
	mock.Mock
}

func (m *MockRegistrations) CreateRegistration(ctx context.Context, registration *types.Registration) error {
	args := m.Called(ctx, registration)
	if args.Error(0) == nil {
		registration.ID = "reg_1"
	}
	return args.Error(0)
}

func (m *MockRegistrations) Registration(ctx context.Context, id string) (*types.Registration, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*types.Registration), args.Error(1)
}

func (m *MockRegistrations) Registrations(ctx context.Context) ([]*types.Registration, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*types.Registration), args.Error(1)
}

func (m *MockRegistrations) UpdateRegistrationStatus(ctx context.Context, id string, status types.RegistrationStatus) error {
	return m.Called(ctx, id, status).Error(0)
}

func (m *MockRegistrations) CountByStatus(ctx context.Context) (*types.RegistrationCounts, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*types.RegistrationCounts), args.Error(1)
}

func (m *MockRegistrations) RecentRegistrations(ctx context.Context, limit uint64) ([]*types.RecentRegistration, error) {
	args := m.Called(ctx, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*types.RecentRegistration), args.Error(1)
}

func (m *MockRegistrations) MonthlyCounts(ctx context.Context, months uint64) ([]*types.MonthlyCount, error) {
	args := m.Called(ctx, months)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*types.MonthlyCount), args.Error(1)
}

type MockAuthenticator struct {
	mock.Mock
}

func (m *MockAuthenticator) InitiateAuth(ctx context.Context, params *cognitoidentityprovider.InitiateAuthInput, optFns ...func(*cognitoidentityprovider.Options)) (*cognitoidentityprovider.InitiateAuthOutput, error) {
	args := m.Called(ctx, params)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*cognitoidentityprovider.InitiateAuthOutput), args.Error(1)
}

type stubPinger struct {
	err error
}

func (p stubPinger) Ping(context.Context) error {
	return p.err
}

type stubPrograms []*types.Program

func (p stubPrograms) ActivePrograms(context.Context) ([]*types.Program, error) {
	return p, nil
}

// tokenVerifier resolves fixed bearer tokens to principals.
type tokenVerifier map[string]*types.Principal

func (v tokenVerifier) Verify(_ context.Context, token string) (*types.Principal, error) {
	principal, ok := v[token]
	if !ok {
		return nil, errors.New("unknown token")
	}
	return principal, nil
}

const (
	adminToken = "admin-token"
	staffToken = "staff-token"
)

var testVerifier = tokenVerifier{
	adminToken: {UserID: "u-admin", Email: "admin@vridhashram.org", Groups: []string{"admin"}},
	staffToken: {UserID: "u-staff", Email: "staff@vridhashram.org", Groups: []string{"staff"}},
}

func testConfig() *types.Config {
	return &types.Config{
		Environment:        "test",
		OrgName:            "Vridh Ashram",
		OrgEmail:           "info@vridhashram.org",
		OrgMission:         "Care for the elderly",
		AdminGroup:         "admin",
		MaxUploadBytes:     5 << 20,
		CORSAllowedOrigins: []string{"*"},
	}
}

func newTestServer(t *testing.T, deps Deps) http.Handler {
	t.Helper()
	return newTestServerWithConfig(t, testConfig(), deps)
}

func newTestServerWithConfig(t *testing.T, config *types.Config, deps Deps) http.Handler {
	t.Helper()

	logger := logrus.New()
	logger.SetOutput(io.Discard)

	if deps.Verifier == nil {
		deps.Verifier = testVerifier
	}

	srv, err := New(config, logger, deps)
	require.NoError(t, err)

	return srv.Handler()
}

func do(h http.Handler, method, target, token string, body io.Reader, contentType string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, body)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

func donationForm(t *testing.T, withFile bool) (*bytes.Buffer, string) {
	t.Helper()

	buf := new(bytes.Buffer)
	w := multipart.NewWriter(buf)
	require.NoError(t, w.WriteField("donorName", "Asha Verma"))
	require.NoError(t, w.WriteField("email", "asha@example.com"))
	require.NoError(t, w.WriteField("amount", "500"))
	require.NoError(t, w.WriteField("transactionId", "UPI123"))
	if withFile {
		part, err := w.CreateFormFile("paymentProof", "proof.png")
		require.NoError(t, err)
		_, err = part.Write([]byte("\x89PNG fake"))
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())

	return buf, w.FormDataContentType()
}

func TestSubmitDonation(t *testing.T) {
	donations := new(MockDonationService)
	h := newTestServer(t, Deps{Donations: donations})

	donations.On("Submit", mock.Anything,
		mock.MatchedBy(func(in types.SubmitDonationInput) bool {
			return in.DonorName == "Asha Verma" && in.Amount.Equal(decimal.NewFromInt(500)) && in.TransactionID == "UPI123"
		}),
		mock.MatchedBy(func(u *types.Upload) bool {
			return u != nil && u.Filename == "proof.png" && u.ContentType == "image/png"
		}),
	).Return(&types.SubmitReceipt{
		ID:        "don_1",
		DonorName: "Asha Verma",
		Amount:    decimal.NewFromInt(500),
		Status:    types.DonationStatusPending,
	}, nil)

	body, contentType := donationForm(t, true)
	rec := do(h, http.MethodPost, "/api/donations/submit", "", body, contentType)

	require.Equal(t, http.StatusCreated, rec.Code)
	resp := decodeBody(t, rec)
	donation := resp["donation"].(map[string]any)
	assert.Equal(t, "don_1", donation["id"])
	assert.Equal(t, "pending", donation["status"])
	assert.EqualValues(t, 500, donation["amount"])
	donations.AssertExpectations(t)
}

func TestSubmitDonation_MissingProof(t *testing.T) {
	donations := new(MockDonationService)
	h := newTestServer(t, Deps{Donations: donations})

	donations.On("Submit", mock.Anything, mock.Anything, (*types.Upload)(nil)).
		Return(nil, types.NewValidationError("paymentProof", "payment proof file is required"))

	body, contentType := donationForm(t, false)
	rec := do(h, http.MethodPost, "/api/donations/submit", "", body, contentType)

	require.Equal(t, http.StatusBadRequest, rec.Code)
	resp := decodeBody(t, rec)
	assert.Equal(t, "paymentProof", resp["field"])
	assert.Equal(t, "payment proof file is required", resp["message"])
}

func TestAdminRoutes_RequireAdmin(t *testing.T) {
	donations := new(MockDonationService)
	h := newTestServer(t, Deps{Donations: donations})

	rec := do(h, http.MethodGet, "/api/donations", "", nil, "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = do(h, http.MethodGet, "/api/donations", "bogus", nil, "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = do(h, http.MethodGet, "/api/donations", staffToken, nil, "")
	assert.Equal(t, http.StatusForbidden, rec.Code)

	donations.AssertNotCalled(t, "Donations", mock.Anything, mock.Anything)
}

func TestListDonations_StatusFilter(t *testing.T) {
	donations := new(MockDonationService)
	h := newTestServer(t, Deps{Donations: donations})

	pending := types.DonationStatusPending
	donations.On("Donations", mock.Anything, types.DonationFilter{Status: &pending}).
		Return([]*types.Donation{{ID: "don_2"}, {ID: "don_1"}}, nil)

	rec := do(h, http.MethodGet, "/api/donations?status=pending", adminToken, nil, "")
	require.Equal(t, http.StatusOK, rec.Code)

	var list []types.Donation
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &list))
	require.Len(t, list, 2)
	assert.Equal(t, "don_2", list[0].ID)
}

func TestVerifyDonation(t *testing.T) {
	tests := []struct {
		name    string
		result  *types.Donation
		err     error
		status  int
		message string
	}{
		{
			name:    "certificate sent",
			result:  &types.Donation{ID: "don_1", Status: types.DonationStatusCertificateSent},
			status:  http.StatusOK,
			message: "Donation verified and certificate sent",
		},
		{
			name:    "mail failed",
			result:  &types.Donation{ID: "don_1", Status: types.DonationStatusVerified},
			status:  http.StatusOK,
			message: "Donation verified. Certificate email could not be sent and can be resent later",
		},
		{
			name:    "already processed",
			err:     types.ErrInvalidState,
			status:  http.StatusBadRequest,
			message: "already processed",
		},
		{
			name:    "missing",
			err:     types.ErrDonationNotFound,
			status:  http.StatusNotFound,
			message: "donation not found",
		},
		{
			name:    "database down",
			err:     types.NewDependencyError(types.DependencyDatabase, errors.New("conn refused")),
			status:  http.StatusInternalServerError,
			message: "internal server error",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			donations := new(MockDonationService)
			h := newTestServer(t, Deps{Donations: donations})

			if tt.result != nil {
				donations.On("Verify", mock.Anything, "don_1", "admin@vridhashram.org").Return(tt.result, nil)
			} else {
				donations.On("Verify", mock.Anything, "don_1", "admin@vridhashram.org").Return(nil, tt.err)
			}

			rec := do(h, http.MethodPut, "/api/donations/don_1/verify", adminToken, nil, "")
			assert.Equal(t, tt.status, rec.Code)
			assert.Equal(t, tt.message, decodeBody(t, rec)["message"])
		})
	}
}

func TestRejectDonation(t *testing.T) {
	donations := new(MockDonationService)
	h := newTestServer(t, Deps{Donations: donations})

	reason := "transaction not found"
	donations.On("Reject", mock.Anything, "don_1", "admin@vridhashram.org", reason).
		Return(&types.Donation{ID: "don_1", Status: types.DonationStatusRejected, RejectionReason: &reason}, nil)

	rec := do(h, http.MethodPut, "/api/donations/don_1/reject", adminToken,
		strings.NewReader(`{"reason":"transaction not found"}`), "application/json")

	require.Equal(t, http.StatusOK, rec.Code)
	donation := decodeBody(t, rec)["donation"].(map[string]any)
	assert.Equal(t, "rejected", donation["status"])
	assert.Equal(t, reason, donation["rejectionReason"])
}

func TestResendCertificate_MailFailure(t *testing.T) {
	donations := new(MockDonationService)
	h := newTestServer(t, Deps{Donations: donations})

	donations.On("ResendCertificate", mock.Anything, "don_1").
		Return(nil, types.NewDependencyError(types.DependencyMail, errors.New("smtp timeout")))

	rec := do(h, http.MethodPost, "/api/donations/don_1/resend-certificate", adminToken, nil, "")
	assert.Equal(t, http.StatusBadGateway, rec.Code)
}

func TestTrailingSlashIsRewritten(t *testing.T) {
	donations := new(MockDonationService)
	h := newTestServer(t, Deps{Donations: donations})

	donations.On("Donation", mock.Anything, "don_1").Return(&types.Donation{ID: "don_1"}, nil)

	rec := do(h, http.MethodGet, "/api/donations/don_1/", adminToken, nil, "")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestUnknownRoute(t *testing.T) {
	h := newTestServer(t, Deps{})

	rec := do(h, http.MethodGet, "/api/nope", "", nil, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "route not found", decodeBody(t, rec)["message"])
}

func TestSubmitRateLimit(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	registrations := new(MockRegistrations)
	h := newTestServer(t, Deps{
		Registrations: registrations,
		Limiter:       ratelimit.New(client, 1, time.Hour, "test"),
	})

	registrations.On("CreateRegistration", mock.Anything, mock.Anything).Return(nil)

	body := `{"name":"Ravi","email":"ravi@example.com","phone":"999","address":"Delhi",` +
		`"dateOfBirth":"1990-01-02","gender":"Male",` +
		`"emergencyContact":{"name":"Sita","phone":"888","relationship":"Sister"}}`

	rec := do(h, http.MethodPost, "/api/registrations", "", strings.NewReader(body), "application/json")
	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, "0", rec.Header().Get("X-RateLimit-Remaining"))

	rec = do(h, http.MethodPost, "/api/registrations", "", strings.NewReader(body), "application/json")
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.NotEmpty(t, rec.Header().Get("Retry-After"))

	registrations.AssertNumberOfCalls(t, "CreateRegistration", 1)
}

func TestCreateRegistration_Validation(t *testing.T) {
	registrations := new(MockRegistrations)
	h := newTestServer(t, Deps{Registrations: registrations})

	rec := do(h, http.MethodPost, "/api/registrations", "",
		strings.NewReader(`{"name":"Ravi","email":"not-an-email"}`), "application/json")

	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "email", decodeBody(t, rec)["field"])
	registrations.AssertNotCalled(t, "CreateRegistration", mock.Anything, mock.Anything)
}

func TestUpdateRegistrationStatus(t *testing.T) {
	registrations := new(MockRegistrations)
	h := newTestServer(t, Deps{Registrations: registrations})

	rec := do(h, http.MethodPatch, "/api/registrations/reg_1/status", adminToken,
		strings.NewReader(`{"status":"archived"}`), "application/json")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	registrations.On("UpdateRegistrationStatus", mock.Anything, "reg_1", types.RegistrationStatusApproved).Return(nil)
	registrations.On("Registration", mock.Anything, "reg_1").
		Return(&types.Registration{ID: "reg_1", Status: types.RegistrationStatusApproved}, nil)

	rec = do(h, http.MethodPatch, "/api/registrations/reg_1/status", adminToken,
		strings.NewReader(`{"status":"approved"}`), "application/json")
	require.Equal(t, http.StatusOK, rec.Code)
	registration := decodeBody(t, rec)["registration"].(map[string]any)
	assert.Equal(t, "approved", registration["status"])
}

func TestHealth(t *testing.T) {
	h := newTestServer(t, Deps{Database: stubPinger{}, MailConfigured: true})

	rec := do(h, http.MethodGet, "/api/health", "", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	body := decodeBody(t, rec)
	assert.Equal(t, "OK", body["status"])
	assert.Equal(t, "connected", body["database"])
	assert.Equal(t, true, body["mailConfigured"])
	assert.Equal(t, false, body["storageConfigured"])

	h = newTestServer(t, Deps{Database: stubPinger{err: errors.New("down")}})
	rec = do(h, http.MethodGet, "/api/health", "", nil, "")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Equal(t, "unreachable", decodeBody(t, rec)["database"])
}

func TestNGOInfo(t *testing.T) {
	h := newTestServer(t, Deps{Programs: stubPrograms{{ID: "p1", Title: "Elder Care", Slug: "elder-care"}}})

	rec := do(h, http.MethodGet, "/api/ngo/info", "", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)

	var info types.OrgInfo
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &info))
	assert.Equal(t, "Vridh Ashram", info.Name)
	assert.Equal(t, "info@vridhashram.org", info.Contact.Email)
	require.Len(t, info.Programs, 1)
	assert.Equal(t, "elder-care", info.Programs[0].Slug)
}

func TestLoginSetsCookie(t *testing.T) {
	auth := new(MockAuthenticator)
	h := newTestServer(t, Deps{Authenticator: auth})

	auth.On("InitiateAuth", mock.Anything, mock.MatchedBy(func(in *cognitoidentityprovider.InitiateAuthInput) bool {
		return in.AuthFlow == cognitotypes.AuthFlowTypeUserPasswordAuth && in.AuthParameters["USERNAME"] == "admin@vridhashram.org"
	})).Return(&cognitoidentityprovider.InitiateAuthOutput{
		AuthenticationResult: &cognitotypes.AuthenticationResultType{
			AccessToken: aws.String(adminToken),
			ExpiresIn:   3600,
		},
	}, nil)

	rec := do(h, http.MethodPost, "/api/auth/login", "",
		strings.NewReader(`{"email":"Admin@VridhAshram.org","password":"secret"}`), "application/json")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, adminToken, decodeBody(t, rec)["accessToken"])

	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.True(t, cookies[0].HttpOnly)
	assert.NotEqual(t, adminToken, cookies[0].Value)

	req := httptest.NewRequest(http.MethodGet, "/api/auth/me", nil)
	req.AddCookie(cookies[0])
	me := httptest.NewRecorder()
	h.ServeHTTP(me, req)

	require.Equal(t, http.StatusOK, me.Code)
	assert.Equal(t, "u-admin", decodeBody(t, me)["userId"])
}

func TestLoginInvalidCredentials(t *testing.T) {
	auth := new(MockAuthenticator)
	h := newTestServer(t, Deps{Authenticator: auth})

	auth.On("InitiateAuth", mock.Anything, mock.Anything).Return(nil, errors.New("NotAuthorizedException"))

	rec := do(h, http.MethodPost, "/api/auth/login", "",
		strings.NewReader(`{"email":"admin@vridhashram.org","password":"wrong"}`), "application/json")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Empty(t, rec.Result().Cookies())
}

type stubPaymentStats struct{}

func (stubPaymentStats) CompletedTotals(context.Context) (*types.PaymentTotals, error) {
	return &types.PaymentTotals{TotalDonations: 3, TotalAmount: decimal.NewFromInt(4500)}, nil
}

func (stubPaymentStats) RecentPayments(context.Context, uint64) ([]*types.RecentPayment, error) {
	return []*types.RecentPayment{{ID: "pay_1", DonorName: "Meera", Amount: decimal.NewFromInt(1500)}}, nil
}

func (stubPaymentStats) MonthlyTotals(context.Context, uint64) ([]*types.MonthlyTotal, error) {
	return []*types.MonthlyTotal{{Year: 2024, Month: 3, Amount: decimal.NewFromInt(4500), Count: 3}}, nil
}

type stubDonationStats struct{}

func (stubDonationStats) CountByStatus(context.Context) (*types.DonationCounts, error) {
	return &types.DonationCounts{Pending: 2, CertificateSent: 1, VerifiedAmount: decimal.NewFromInt(1000)}, nil
}

func TestDashboard(t *testing.T) {
	registrations := new(MockRegistrations)
	h := newTestServer(t, Deps{
		Registrations: registrations,
		PaymentStats:  stubPaymentStats{},
		DonationStats: stubDonationStats{},
	})

	registrations.On("CountByStatus", mock.Anything).Return(&types.RegistrationCounts{Total: 4, Pending: 1, Approved: 3}, nil)
	registrations.On("RecentRegistrations", mock.Anything, uint64(dashboardRecentLimit)).Return([]*types.RecentRegistration{{ID: "reg_1"}}, nil)
	registrations.On("MonthlyCounts", mock.Anything, uint64(12)).Return([]*types.MonthlyCount{{Year: 2024, Month: 3, Count: 4}}, nil)

	rec := do(h, http.MethodGet, "/api/admin/dashboard", adminToken, nil, "")
	require.Equal(t, http.StatusOK, rec.Code)

	var dashboard types.Dashboard
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &dashboard))
	assert.EqualValues(t, 4, dashboard.Registrations.Total)
	assert.EqualValues(t, 3, dashboard.Payments.TotalDonations)
	assert.True(t, dashboard.Payments.TotalAmount.Equal(decimal.NewFromInt(4500)))
	assert.EqualValues(t, 2, dashboard.Donations.Pending)
	assert.Len(t, dashboard.Recent.Registrations, 1)
	assert.Len(t, dashboard.Recent.Payments, 1)
	assert.Len(t, dashboard.Trends.Payments, 1)
}

func TestSubmitDonation_BadAmount(t *testing.T) {
	donations := new(MockDonationService)
	h := newTestServer(t, Deps{Donations: donations})

	buf := new(bytes.Buffer)
	w := multipart.NewWriter(buf)
	require.NoError(t, w.WriteField("donorName", "Asha"))
	require.NoError(t, w.WriteField("amount", "five hundred"))
	require.NoError(t, w.Close())

	rec := do(h, http.MethodPost, "/api/donations/submit", "", buf, w.FormDataContentType())

	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "amount", decodeBody(t, rec)["field"])
	donations.AssertNotCalled(t, "Submit", mock.Anything, mock.Anything, mock.Anything)
}

const registrationBody = `{"name":"Ravi","email":"ravi@example.com","phone":"999","address":"Delhi",` +
	`"dateOfBirth":"1990-01-02","gender":"Male",` +
	`"emergencyContact":{"name":"Sita","phone":"888","relationship":"Sister"}}`

func postRegistration(h http.Handler, remoteAddr, forwardedFor string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/api/registrations", strings.NewReader(registrationBody))
	req.Header.Set("Content-Type", "application/json")
	req.RemoteAddr = remoteAddr
	if forwardedFor != "" {
		req.Header.Set("X-Forwarded-For", forwardedFor)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func limitedRegistrations(t *testing.T, config *types.Config) (http.Handler, *MockRegistrations) {
	t.Helper()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	registrations := new(MockRegistrations)
	registrations.On("CreateRegistration", mock.Anything, mock.Anything).Return(nil)

	h := newTestServerWithConfig(t, config, Deps{
		Registrations: registrations,
		Limiter:       ratelimit.New(client, 1, time.Hour, "test"),
	})
	return h, registrations
}

func TestRateLimit_IgnoresForwardedForFromUntrustedPeer(t *testing.T) {
	h, registrations := limitedRegistrations(t, testConfig())

	rec := postRegistration(h, "203.0.113.9:4000", "10.0.0.1")
	require.Equal(t, http.StatusCreated, rec.Code)

	for i := 2; i <= 5; i++ {
		rec = postRegistration(h, "203.0.113.9:4000", fmt.Sprintf("10.0.0.%d", i))
		assert.Equal(t, http.StatusTooManyRequests, rec.Code, "spoofed hop 10.0.0.%d", i)
	}

	registrations.AssertNumberOfCalls(t, "CreateRegistration", 1)
}

func TestRateLimit_TrustedProxyUsesRightmostUntrustedHop(t *testing.T) {
	config := testConfig()
	config.TrustedProxies = []string{"10.0.0.0/8", "192.0.2.1"}
	h, registrations := limitedRegistrations(t, config)

	rec := postRegistration(h, "10.1.2.3:5000", "198.51.100.7, 10.0.0.8")
	require.Equal(t, http.StatusCreated, rec.Code)

	// a client prepending its own hop is still keyed on the address the proxy saw
	rec = postRegistration(h, "10.1.2.3:5000", "1.1.1.1, 198.51.100.7, 10.0.0.8")
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)

	// a different real client behind the same proxy has its own window
	rec = postRegistration(h, "192.0.2.1:5000", "198.51.100.8")
	assert.Equal(t, http.StatusCreated, rec.Code)

	registrations.AssertNumberOfCalls(t, "CreateRegistration", 2)
}

func TestClientIP(t *testing.T) {
	trusting := &Service{}
	var err error
	trusting.trustedProxies, err = parseTrustedProxies([]string{"10.0.0.0/8", " ", "::1"})
	require.NoError(t, err)

	tests := []struct {
		name      string
		svc       *Service
		remote    string
		forwarded []string
		want      string
	}{
		{name: "no proxies configured", svc: &Service{}, remote: "203.0.113.9:80", forwarded: []string{"1.2.3.4"}, want: "203.0.113.9"},
		{name: "untrusted peer", svc: trusting, remote: "203.0.113.9:80", forwarded: []string{"1.2.3.4"}, want: "203.0.113.9"},
		{name: "trusted peer", svc: trusting, remote: "10.0.0.2:80", forwarded: []string{"1.2.3.4"}, want: "1.2.3.4"},
		{name: "skips trusted hops", svc: trusting, remote: "10.0.0.2:80", forwarded: []string{"6.6.6.6, 1.2.3.4, 10.9.9.9"}, want: "1.2.3.4"},
		{name: "repeated headers", svc: trusting, remote: "[::1]:80", forwarded: []string{"6.6.6.6", "1.2.3.4"}, want: "1.2.3.4"},
		{name: "only trusted hops", svc: trusting, remote: "10.0.0.2:80", forwarded: []string{"10.0.0.3"}, want: "10.0.0.2"},
		{name: "no header", svc: trusting, remote: "10.0.0.2:80", want: "10.0.0.2"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.RemoteAddr = tt.remote
			for _, v := range tt.forwarded {
				req.Header.Add("X-Forwarded-For", v)
			}
			assert.Equal(t, tt.want, tt.svc.clientIP(req))
		})
	}
}

func TestNew_InvalidTrustedProxy(t *testing.T) {
	config := testConfig()
	config.TrustedProxies = []string{"not-an-ip"}

	logger := logrus.New()
	logger.SetOutput(io.Discard)

	_, err := New(config, logger, Deps{})
	assert.ErrorContains(t, err, "TRUSTED_PROXIES")
}
