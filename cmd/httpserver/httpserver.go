// Package httpserver manages server creation and api routing.
package httpserver

import (
	"database/sql"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/go-petr/account-ledger/internal/accountdelivery"
	"github.com/go-petr/account-ledger/internal/accountrepo"
	"github.com/go-petr/account-ledger/internal/accountservice"
	"github.com/go-petr/account-ledger/internal/lockguard"
	"github.com/go-petr/account-ledger/internal/middleware"
	"github.com/go-petr/account-ledger/internal/transactiondelivery"
	"github.com/go-petr/account-ledger/internal/transactionrepo"
	"github.com/go-petr/account-ledger/internal/transactionservice"
	"github.com/go-petr/account-ledger/internal/userdelivery"
	"github.com/go-petr/account-ledger/internal/userrepo"
	"github.com/go-petr/account-ledger/internal/userservice"
	"github.com/go-petr/account-ledger/pkg/configpkg"
	"github.com/go-petr/account-ledger/pkg/redispkg"
	"github.com/go-petr/account-ledger/pkg/tokenpkg"
)

// Server holds db and redis connections, handlers router and configuration.
type Server struct {
	DB     *sql.DB
	Redis  redis.UniversalClient
	Engine *gin.Engine
	Config configpkg.Config
}

// ServeHTTP implements the http.Handler interface for the Server type.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.Engine.ServeHTTP(w, r)
}

// New creates Server type with instantiated domains and routes.
func New(conn *sql.DB, redisClient redis.UniversalClient, logger zerolog.Logger, config configpkg.Config) (*Server, error) {
	userRepo := userrepo.NewRepoPGS(conn)
	accountRepo := accountrepo.NewRepoPGS(conn)
	transactionRepo := transactionrepo.NewRepoPGS(conn)

	tokenMaker, err := tokenpkg.NewPasetoMaker(config.TokenSymmetricKey)
	if err != nil {
		return nil, errors.New("cannot create token maker")
	}

	lockProvider := redispkg.NewLockProvider(redisClient)
	coordinator := lockguard.NewCoordinator(lockProvider, config.LockWaitTimeout, config.LockHoldTimeout)
	guard := lockguard.NewGuard(coordinator)

	userService := userservice.New(userRepo)
	accountService := accountservice.New(accountRepo, userRepo)
	transactionService := transactionservice.New(userRepo, accountRepo, transactionRepo, guard)

	userHandler := userdelivery.NewHandler(userService, tokenMaker, config.AccessTokenDuration)
	accountHandler := accountdelivery.NewHandler(accountService)
	transactionHandler := transactiondelivery.NewHandler(transactionService)

	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()

	engine.Use(middleware.RequestLogger(logger))
	engine.Use(gin.Recovery())

	engine.POST("/users", userHandler.Create)
	engine.POST("/users/login", userHandler.Login)

	authRoutes := engine.Group("/").Use(middleware.AuthMiddleware(tokenMaker))

	authRoutes.POST("/accounts", accountHandler.Create)
	authRoutes.GET("/accounts", accountHandler.List)
	authRoutes.DELETE("/accounts", accountHandler.Close)

	authRoutes.POST("/transactions/use", transactionHandler.Use)
	authRoutes.POST("/transactions/cancel", transactionHandler.Cancel)
	authRoutes.GET("/transactions/:transaction_id", transactionHandler.Get)

	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		err := v.RegisterValidation("accnumber", accountdelivery.ValidAccountNumber)
		if err != nil {
			return nil, errors.New("cannot register account number validator")
		}
	}

	server := &Server{
		DB:     conn,
		Redis:  redisClient,
		Engine: engine,
		Config: config,
	}

	return server, nil
}
