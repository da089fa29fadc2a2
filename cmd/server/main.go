package main

import (
	"context"

	"github.com/rs/zerolog/log"

	_ "github.com/lib/pq"

	"github.com/go-petr/account-ledger/cmd/httpserver"
	"github.com/go-petr/account-ledger/internal/middleware"
	"github.com/go-petr/account-ledger/pkg/configpkg"
	"github.com/go-petr/account-ledger/pkg/dbpkg"
	"github.com/go-petr/account-ledger/pkg/redispkg"
)

func main() {
	config, err := configpkg.Load("./configs")
	if err != nil {
		log.Fatal().Err(err).Msg("cannot load config")
	}

	logger := middleware.CreateLogger(config)

	conn, err := dbpkg.Setup(config.DBDriver, config.DBSource)
	if err != nil {
		logger.Fatal().Err(err).Msg("cannot connect to db")
	}

	redisClient, err := redispkg.NewClient(context.Background(), config.RedisAddress, config.RedisPassword, config.RedisDB)
	if err != nil {
		logger.Fatal().Err(err).Msg("cannot connect to redis")
	}

	server, err := httpserver.New(conn, redisClient, logger, config)
	if err != nil {
		logger.Fatal().Err(err).Msg("cannot create server")
	}

	err = server.Engine.Run(config.ServerAddress)
	if err != nil {
		logger.Fatal().Err(err).Msg("cannot start server")
	}
}
