package server

import (
	"context"
	"encoding/base64"
	"fmt"
	"net/http"
	"net/netip"
	"strings"
	"time"

	"vridhashram/internal/metrics"
	"vridhashram/internal/ratelimit"
	"vridhashram/pkg/types"

	"github.com/alexedwards/flow"
	"github.com/aws/aws-sdk-go-v2/service/cognitoidentityprovider"
	"github.com/go-chi/cors"
	"github.com/go-playground/form/v4"
	"github.com/gorilla/securecookie"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

var decoder = newDecoder()

func newDecoder() *form.Decoder {
	d := form.NewDecoder()
	d.RegisterCustomTypeFunc(func(vals []string) (any, error) {
		if len(vals) == 0 || vals[0] == "" {
			return decimal.Zero, nil
		}
		return decimal.NewFromString(vals[0])
	}, decimal.Decimal{})
	return d
}

type DonationService interface {
	Submit(ctx context.Context, in types.SubmitDonationInput, proof *types.Upload) (*types.SubmitReceipt, error)
	Verify(ctx context.Context, id, actorID string) (*types.Donation, error)
	Reject(ctx context.Context, id, actorID, reason string) (*types.Donation, error)
	Donation(ctx context.Context, id string) (*types.Donation, error)
	Donations(ctx context.Context, filter types.DonationFilter) ([]*types.Donation, error)
	ResendCertificate(ctx context.Context, id string) (*types.Donation, error)
}

type PaymentService interface {
	CreateIntent(ctx context.Context, in types.CreatePaymentIntentInput) (string, error)
	Confirm(ctx context.Context, in types.ConfirmPaymentInput) (*types.Payment, error)
	Payment(ctx context.Context, id string) (*types.Payment, error)
	Payments(ctx context.Context) ([]*types.Payment, error)
	Summary(ctx context.Context) (*types.PaymentSummary, error)
}

type GalleryService interface {
	Upload(ctx context.Context, form types.PhotoForm, file *types.Upload, uploadedBy string) (*types.Photo, error)
	UploadMany(ctx context.Context, form types.PhotoForm, files []*types.Upload, uploadedBy string) ([]*types.Photo, error)
	Photos(ctx context.Context) ([]*types.Photo, error)
	Update(ctx context.Context, id string, in types.UpdatePhotoInput) (*types.Photo, error)
	Delete(ctx context.Context, id string) error
}

type RegistrationRepository interface {
	CreateRegistration(ctx context.Context, registration *types.Registration) error
	Registration(ctx context.Context, id string) (*types.Registration, error)
	Registrations(ctx context.Context) ([]*types.Registration, error)
	UpdateRegistrationStatus(ctx context.Context, id string, status types.RegistrationStatus) error
	CountByStatus(ctx context.Context) (*types.RegistrationCounts, error)
	RecentRegistrations(ctx context.Context, limit uint64) ([]*types.RecentRegistration, error)
	MonthlyCounts(ctx context.Context, months uint64) ([]*types.MonthlyCount, error)
}

type PaymentStats interface {
	CompletedTotals(ctx context.Context) (*types.PaymentTotals, error)
	RecentPayments(ctx context.Context, limit uint64) ([]*types.RecentPayment, error)
	MonthlyTotals(ctx context.Context, months uint64) ([]*types.MonthlyTotal, error)
}

type DonationStats interface {
	CountByStatus(ctx context.Context) (*types.DonationCounts, error)
}

type ProgramLister interface {
	ActivePrograms(ctx context.Context) ([]*types.Program, error)
}

type Pinger interface {
	Ping(ctx context.Context) error
}

type Authenticator interface {
	InitiateAuth(ctx context.Context, params *cognitoidentityprovider.InitiateAuthInput, optFns ...func(*cognitoidentityprovider.Options)) (*cognitoidentityprovider.InitiateAuthOutput, error)
}

type TokenVerifier interface {
	Verify(ctx context.Context, token string) (*types.Principal, error)
}

// Deps are the collaborators the HTTP layer is wired to.
type Deps struct {
	Donations     DonationService
	Payments      PaymentService
	Gallery       GalleryService
	Registrations RegistrationRepository
	PaymentStats  PaymentStats
	DonationStats DonationStats
	Programs      ProgramLister
	Database      Pinger

	Authenticator Authenticator
	Verifier      TokenVerifier
	Limiter       *ratelimit.Limiter
	Metrics       *metrics.Metrics

	MailConfigured    bool
	StorageConfigured bool
	StripeConfigured  bool
}

type Service struct {
	logger *logrus.Logger
	config *types.Config
	deps   Deps
	cookie *securecookie.SecureCookie

	trustedProxies []netip.Prefix

	handler http.Handler
	server  *http.Server
}

func New(config *types.Config, logger *logrus.Logger, deps Deps) (*Service, error) {
	hashKey, err := base64.StdEncoding.DecodeString(config.CookieHashKey)
	if err != nil {
		return nil, fmt.Errorf("decode COOKIE_HASH_KEY: %w", err)
	}
	blockKey, err := base64.StdEncoding.DecodeString(config.CookieBlockKey)
	if err != nil {
		return nil, fmt.Errorf("decode COOKIE_BLOCK_KEY: %w", err)
	}
	if len(hashKey) == 0 {
		hashKey = securecookie.GenerateRandomKey(32)
		logger.Warn("COOKIE_HASH_KEY not set - using a random key, sessions will not survive restarts")
	}
	if len(blockKey) == 0 {
		blockKey = securecookie.GenerateRandomKey(32)
	}

	trustedProxies, err := parseTrustedProxies(config.TrustedProxies)
	if err != nil {
		return nil, err
	}

	s := &Service{
		logger:         logger,
		config:         config,
		deps:           deps,
		cookie:         securecookie.New(hashKey, blockKey),
		trustedProxies: trustedProxies,
	}

	mux := flow.New()
	s.buildRouter(mux)

	corsHandler := cors.Handler(cors.Options{
		AllowedOrigins:   config.CORSAllowedOrigins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete, http.MethodOptions},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	})

	// routing happens before flow middleware runs, so path rewriting and
	// access logging wrap the mux itself
	s.handler = s.LoggingMiddleware(corsHandler(s.StripTrailingSlash(mux)))

	s.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", config.ServerPort),
		Handler:           s.handler,
		ReadTimeout:       time.Duration(config.ReadTimeoutSec) * time.Second,
		ReadHeaderTimeout: time.Duration(config.ReadTimeoutSec) * time.Second,
		WriteTimeout:      time.Duration(config.WriteTimeoutSec) * time.Second,
		MaxHeaderBytes:    1 << 20,
	}

	return s, nil
}

func (s *Service) Handler() http.Handler {
	return s.handler
}

func (s *Service) Start() error {
	return s.server.ListenAndServe()
}

func (s *Service) Stop(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}

func (s *Service) buildRouter(r *flow.Mux) {
	r.HandleFunc("/api/health", s.handleHealth, http.MethodGet)
	r.HandleFunc("/api/ngo/info", s.handleNGOInfo, http.MethodGet)
	r.Handle("/metrics", s.deps.Metrics.Handler(), http.MethodGet)

	r.HandleFunc("/api/auth/login", s.handleLogin, http.MethodPost)
	r.HandleFunc("/api/auth/logout", s.handleLogout, http.MethodPost)

	r.HandleFunc("/api/payments/create-payment-intent", s.handleCreatePaymentIntent, http.MethodPost)
	r.HandleFunc("/api/payments/confirm", s.handleConfirmPayment, http.MethodPost)
	r.HandleFunc("/api/photos", s.handleListPhotos, http.MethodGet)

	r.Group(func(r *flow.Mux) {
		r.Use(s.RateLimit)

		r.HandleFunc("/api/donations/submit", s.handleSubmitDonation, http.MethodPost)
		r.HandleFunc("/api/registrations", s.handleCreateRegistration, http.MethodPost)
	})

	r.Group(func(r *flow.Mux) {
		r.Use(s.RequireAuth)

		r.HandleFunc("/api/auth/me", s.handleMe, http.MethodGet)
	})

	r.Group(func(r *flow.Mux) {
		r.Use(s.RequireAuth)
		r.Use(s.RequireAdmin)

		r.HandleFunc("/api/donations", s.handleListDonations, http.MethodGet)
		r.HandleFunc("/api/donations/:id", s.handleGetDonation, http.MethodGet)
		r.HandleFunc("/api/donations/:id/verify", s.handleVerifyDonation, http.MethodPut)
		r.HandleFunc("/api/donations/:id/reject", s.handleRejectDonation, http.MethodPut)
		r.HandleFunc("/api/donations/:id/resend-certificate", s.handleResendCertificate, http.MethodPost)

		r.HandleFunc("/api/payments", s.handleListPayments, http.MethodGet)
		r.HandleFunc("/api/payments/stats/summary", s.handlePaymentSummary, http.MethodGet)
		r.HandleFunc("/api/payments/:id", s.handleGetPayment, http.MethodGet)

		r.HandleFunc("/api/registrations", s.handleListRegistrations, http.MethodGet)
		r.HandleFunc("/api/registrations/:id", s.handleGetRegistration, http.MethodGet)
		r.HandleFunc("/api/registrations/:id/status", s.handleUpdateRegistrationStatus, http.MethodPatch)

		r.HandleFunc("/api/photos/upload", s.handleUploadPhoto, http.MethodPost)
		r.HandleFunc("/api/photos/upload-multiple", s.handleUploadPhotos, http.MethodPost)
		r.HandleFunc("/api/photos/:id", s.handleUpdatePhoto, http.MethodPut)
		r.HandleFunc("/api/photos/:id", s.handleDeletePhoto, http.MethodDelete)

		r.HandleFunc("/api/admin/dashboard", s.handleDashboard, http.MethodGet)
	})

	r.NotFound = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.writeJSON(w, http.StatusNotFound, errorResponse{Message: "route not found"})
	})
}

func parseTrustedProxies(values []string) ([]netip.Prefix, error) {
	prefixes := make([]netip.Prefix, 0, len(values))
	for _, v := range values {
		v = strings.TrimSpace(v)
		if v == "" {
			continue
		}
		if strings.Contains(v, "/") {
			prefix, err := netip.ParsePrefix(v)
			if err != nil {
				return nil, fmt.Errorf("parse TRUSTED_PROXIES entry %q: %w", v, err)
			}
			prefixes = append(prefixes, prefix.Masked())
			continue
		}
		addr, err := netip.ParseAddr(v)
		if err != nil {
			return nil, fmt.Errorf("parse TRUSTED_PROXIES entry %q: %w", v, err)
		}
		addr = addr.Unmap()
		prefixes = append(prefixes, netip.PrefixFrom(addr, addr.BitLen()))
	}
	return prefixes, nil
}
