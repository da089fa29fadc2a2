package accountdelivery

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-petr/account-ledger/internal/domain"
	"github.com/go-petr/account-ledger/internal/middleware"
	"github.com/go-petr/account-ledger/pkg/errorspkg"
	"github.com/go-petr/account-ledger/pkg/randompkg"
	"github.com/go-petr/account-ledger/pkg/tokenpkg"
	"github.com/go-playground/validator/v10"
	"github.com/golang/mock/gomock"
	"github.com/stretchr/testify/require"
)

func TestMain(m *testing.M) {
	gin.SetMode(gin.TestMode)

	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		if err := v.RegisterValidation("accnumber", ValidAccountNumber); err != nil {
			os.Exit(1)
		}
	}

	os.Exit(m.Run())
}

func newTestServer(t *testing.T, service Service) (*gin.Engine, tokenpkg.Maker) {
	t.Helper()

	tokenMaker, err := tokenpkg.NewPasetoMaker(randompkg.String(32))
	require.NoError(t, err)

	handler := NewHandler(service)

	server := gin.New()
	authorized := server.Group("/").Use(middleware.AuthMiddleware(tokenMaker))
	authorized.POST("/accounts", handler.Create)
	authorized.DELETE("/accounts", handler.Close)
	authorized.GET("/accounts", handler.List)

	return server, tokenMaker
}

func TestCreateAPI(t *testing.T) {
	testAccount := domain.Account{
		ID:      1,
		UserID:  1,
		Number:  "1000000000",
		Status:  domain.AccountActive,
		Balance: 0,
	}

	testCases := []struct {
		name           string
		requestBody    gin.H
		setupAuth      func(t *testing.T, r *http.Request, tokenMaker tokenpkg.Maker) error
		buildStubs     func(service *MockService)
		wantStatusCode int
	}{
		{
			name:        "OK",
			requestBody: gin.H{"user_id": testAccount.UserID},
			setupAuth: func(t *testing.T, r *http.Request, tokenMaker tokenpkg.Maker) error {
				return middleware.AddAuthorization(r, tokenMaker, middleware.AuthTypeBearer, "pollen", time.Minute)
			},
			buildStubs: func(service *MockService) {
				service.EXPECT().
					Create(gomock.Any(), gomock.Eq(testAccount.UserID)).
					Times(1).
					Return(testAccount, nil)
			},
			wantStatusCode: http.StatusOK,
		},
		{
			name:        "NoAuthorization",
			requestBody: gin.H{"user_id": testAccount.UserID},
			setupAuth: func(t *testing.T, r *http.Request, tokenMaker tokenpkg.Maker) error {
				return nil
			},
			buildStubs: func(service *MockService) {
				service.EXPECT().Create(gomock.Any(), gomock.Any()).Times(0)
			},
			wantStatusCode: http.StatusUnauthorized,
		},
		{
			name:        "InvalidUserID",
			requestBody: gin.H{"user_id": 0},
			setupAuth: func(t *testing.T, r *http.Request, tokenMaker tokenpkg.Maker) error {
				return middleware.AddAuthorization(r, tokenMaker, middleware.AuthTypeBearer, "pollen", time.Minute)
			},
			buildStubs: func(service *MockService) {
				service.EXPECT().Create(gomock.Any(), gomock.Any()).Times(0)
			},
			wantStatusCode: http.StatusBadRequest,
		},
		{
			name:        "UserNotFound",
			requestBody: gin.H{"user_id": testAccount.UserID},
			setupAuth: func(t *testing.T, r *http.Request, tokenMaker tokenpkg.Maker) error {
				return middleware.AddAuthorization(r, tokenMaker, middleware.AuthTypeBearer, "pollen", time.Minute)
			},
			buildStubs: func(service *MockService) {
				service.EXPECT().
					Create(gomock.Any(), gomock.Eq(testAccount.UserID)).
					Times(1).
					Return(domain.Account{}, domain.ErrUserNotFound)
			},
			wantStatusCode: http.StatusNotFound,
		},
		{
			name:        "AccountLimitExceeded",
			requestBody: gin.H{"user_id": testAccount.UserID},
			setupAuth: func(t *testing.T, r *http.Request, tokenMaker tokenpkg.Maker) error {
				return middleware.AddAuthorization(r, tokenMaker, middleware.AuthTypeBearer, "pollen", time.Minute)
			},
			buildStubs: func(service *MockService) {
				service.EXPECT().
					Create(gomock.Any(), gomock.Eq(testAccount.UserID)).
					Times(1).
					Return(domain.Account{}, domain.ErrAccountLimitExceeded)
			},
			wantStatusCode: http.StatusConflict,
		},
		{
			name:        "InternalError",
			requestBody: gin.H{"user_id": testAccount.UserID},
			setupAuth: func(t *testing.T, r *http.Request, tokenMaker tokenpkg.Maker) error {
				return middleware.AddAuthorization(r, tokenMaker, middleware.AuthTypeBearer, "pollen", time.Minute)
			},
			buildStubs: func(service *MockService) {
				service.EXPECT().
					Create(gomock.Any(), gomock.Eq(testAccount.UserID)).
					Times(1).
					Return(domain.Account{}, errorspkg.ErrInternal)
			},
			wantStatusCode: http.StatusInternalServerError,
		},
	}

	for i := range testCases {
		tc := testCases[i]

		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			ctrl := gomock.NewController(t)
			defer ctrl.Finish()

			service := NewMockService(ctrl)
			tc.buildStubs(service)

			server, tokenMaker := newTestServer(t, service)

			body, err := json.Marshal(tc.requestBody)
			require.NoError(t, err)

			request, err := http.NewRequest(http.MethodPost, "/accounts", bytes.NewReader(body))
			require.NoError(t, err)
			require.NoError(t, tc.setupAuth(t, request, tokenMaker))

			recorder := httptest.NewRecorder()
			server.ServeHTTP(recorder, request)

			require.Equal(t, tc.wantStatusCode, recorder.Code)
		})
	}
}

func TestCloseAPI(t *testing.T) {
	testAccount := domain.Account{
		ID:      1,
		UserID:  1,
		Number:  "1000000000",
		Status:  domain.AccountClosed,
		Balance: 0,
	}

	testCases := []struct {
		name           string
		requestBody    gin.H
		buildStubs     func(service *MockService)
		wantStatusCode int
	}{
		{
			name:        "OK",
			requestBody: gin.H{"user_id": testAccount.UserID, "account_number": testAccount.Number},
			buildStubs: func(service *MockService) {
				service.EXPECT().
					Close(gomock.Any(), gomock.Eq(testAccount.UserID), gomock.Eq(testAccount.Number)).
					Times(1).
					Return(testAccount, nil)
			},
			wantStatusCode: http.StatusOK,
		},
		{
			name:        "MalformedAccountNumber",
			requestBody: gin.H{"user_id": testAccount.UserID, "account_number": "12ab"},
			buildStubs: func(service *MockService) {
				service.EXPECT().Close(gomock.Any(), gomock.Any(), gomock.Any()).Times(0)
			},
			wantStatusCode: http.StatusBadRequest,
		},
		{
			name:        "AccountNotFound",
			requestBody: gin.H{"user_id": testAccount.UserID, "account_number": testAccount.Number},
			buildStubs: func(service *MockService) {
				service.EXPECT().
					Close(gomock.Any(), gomock.Eq(testAccount.UserID), gomock.Eq(testAccount.Number)).
					Times(1).
					Return(domain.Account{}, domain.ErrAccountNotFound)
			},
			wantStatusCode: http.StatusNotFound,
		},
		{
			name:        "UserAccountMismatch",
			requestBody: gin.H{"user_id": testAccount.UserID, "account_number": testAccount.Number},
			buildStubs: func(service *MockService) {
				service.EXPECT().
					Close(gomock.Any(), gomock.Eq(testAccount.UserID), gomock.Eq(testAccount.Number)).
					Times(1).
					Return(domain.Account{}, domain.ErrUserAccountMismatch)
			},
			wantStatusCode: http.StatusUnauthorized,
		},
		{
			name:        "AlreadyClosed",
			requestBody: gin.H{"user_id": testAccount.UserID, "account_number": testAccount.Number},
			buildStubs: func(service *MockService) {
				service.EXPECT().
					Close(gomock.Any(), gomock.Eq(testAccount.UserID), gomock.Eq(testAccount.Number)).
					Times(1).
					Return(domain.Account{}, domain.ErrAccountAlreadyClosed)
			},
			wantStatusCode: http.StatusConflict,
		},
		{
			name:        "BalanceNotEmpty",
			requestBody: gin.H{"user_id": testAccount.UserID, "account_number": testAccount.Number},
			buildStubs: func(service *MockService) {
				service.EXPECT().
					Close(gomock.Any(), gomock.Eq(testAccount.UserID), gomock.Eq(testAccount.Number)).
					Times(1).
					Return(domain.Account{}, domain.ErrBalanceNotEmpty)
			},
			wantStatusCode: http.StatusBadRequest,
		},
	}

	for i := range testCases {
		tc := testCases[i]

		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			ctrl := gomock.NewController(t)
			defer ctrl.Finish()

			service := NewMockService(ctrl)
			tc.buildStubs(service)

			server, tokenMaker := newTestServer(t, service)

			body, err := json.Marshal(tc.requestBody)
			require.NoError(t, err)

			request, err := http.NewRequest(http.MethodDelete, "/accounts", bytes.NewReader(body))
			require.NoError(t, err)
			require.NoError(t, middleware.AddAuthorization(request, tokenMaker, middleware.AuthTypeBearer, "pollen", time.Minute))

			recorder := httptest.NewRecorder()
			server.ServeHTTP(recorder, request)

			require.Equal(t, tc.wantStatusCode, recorder.Code)
		})
	}
}

func TestListAPI(t *testing.T) {
	testAccounts := []domain.Account{
		{ID: 1, UserID: 1, Number: "1000000000", Status: domain.AccountActive},
		{ID: 2, UserID: 1, Number: "1000000001", Status: domain.AccountActive},
	}

	testCases := []struct {
		name           string
		query          string
		buildStubs     func(service *MockService)
		wantStatusCode int
	}{
		{
			name:  "OK",
			query: "?user_id=1",
			buildStubs: func(service *MockService) {
				service.EXPECT().
					List(gomock.Any(), gomock.Eq(int64(1))).
					Times(1).
					Return(testAccounts, nil)
			},
			wantStatusCode: http.StatusOK,
		},
		{
			name:  "MissingUserID",
			query: "",
			buildStubs: func(service *MockService) {
				service.EXPECT().List(gomock.Any(), gomock.Any()).Times(0)
			},
			wantStatusCode: http.StatusBadRequest,
		},
		{
			name:  "InternalError",
			query: "?user_id=1",
			buildStubs: func(service *MockService) {
				service.EXPECT().
					List(gomock.Any(), gomock.Eq(int64(1))).
					Times(1).
					Return(nil, errorspkg.ErrInternal)
			},
			wantStatusCode: http.StatusInternalServerError,
		},
	}

	for i := range testCases {
		tc := testCases[i]

		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			ctrl := gomock.NewController(t)
			defer ctrl.Finish()

			service := NewMockService(ctrl)
			tc.buildStubs(service)

			server, tokenMaker := newTestServer(t, service)

			request, err := http.NewRequest(http.MethodGet, "/accounts"+tc.query, nil)
			require.NoError(t, err)
			require.NoError(t, middleware.AddAuthorization(request, tokenMaker, middleware.AuthTypeBearer, "pollen", time.Minute))

			recorder := httptest.NewRecorder()
			server.ServeHTTP(recorder, request)

			require.Equal(t, tc.wantStatusCode, recorder.Code)
		})
	}
}
