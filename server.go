// SPDX-License-Identifier: GPL-3.0-only

package main

import (
	"marketquery-server/apikeys"
	"marketquery-server/commons"
	"marketquery-server/db"
	"marketquery-server/handlers"
	"marketquery-server/middlewares"
	"marketquery-server/migrations"
	"marketquery-server/routes"
	"marketquery-server/store"
	"os"
	"slices"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/labstack/gommon/log"
)

func main() {
	commons.LoadEnvFile()

	e := echo.New()
	e.HideBanner = true

	e.Logger.SetLevel(commons.Logger.Level())
	e.Logger.SetHeader("${time_rfc3339} ${level} ${short_file}:${line} -")

	e.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogURI:      true,
		LogStatus:   true,
		LogMethod:   true,
		LogLatency:  true,
		LogRemoteIP: true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			logMsg := func(format string, args ...any) {
				switch {
				case v.Status >= 500:
					e.Logger.Errorf(format, args...)
				case v.Status >= 400:
					e.Logger.Warnf(format, args...)
				default:
					e.Logger.Infof(format, args...)
				}
			}
			logMsg("%s %s - %d - %.2fms - %s",
				v.Method,
				v.URI,
				v.Status,
				float64(v.Latency.Microseconds())/1000.0,
				v.RemoteIP,
			)
			return nil
		},
	}))
	debugMode := slices.Contains(os.Args[1:], "--debug")
	if debugMode {
		e.Logger.Warn("Debug mode is enabled.")
		e.Debug = true
		e.Logger.SetLevel(log.DEBUG)
	}

	e.Use(middleware.Recover())

	conn, err := db.Connect()
	if err != nil {
		commons.Logger.Error("Failed to connect to database:", err)
		os.Exit(1)
	}
	if slices.Contains(os.Args[1:], "--migrate-db") {
		commons.Logger.Debug("--migrate-db flag detected, running migrations")
		if err := migrations.Run(conn); err != nil {
			commons.Logger.Error(err)
			os.Exit(1)
		}
	}

	dataStore := store.New(conn)
	issuer := apikeys.NewIssuer(dataStore)
	evaluator := apikeys.NewEvaluator(dataStore)
	sessionAuth := middlewares.NewSessionAuth()
	gate := middlewares.NewGate(dataStore, evaluator)

	router := routes.Router{
		Auth: &handlers.AuthHandler{
			Store:    dataStore,
			Issuer:   issuer,
			Sessions: sessionAuth,
		},
		Users: &handlers.UserHandler{
			Store:     dataStore,
			Issuer:    issuer,
			Evaluator: evaluator,
		},
		Stats: &handlers.StatsHandler{
			Store:     dataStore,
			Evaluator: evaluator,
		},
		Products: &handlers.ProductHandler{
			Store: dataStore,
		},
		Session: sessionAuth,
		Gate:    gate,
	}
	router.Register(e)

	port := commons.GetEnv("PORT")
	if port == "" {
		port = ":8080"
	}
	if port[0] != ':' {
		port = ":" + port
	}
	e.Logger.Fatal(e.Start(port))
}
