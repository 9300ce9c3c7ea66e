// Command scheduler runs the appointment scheduling API and its maintenance
// tasks.
//
//	scheduler serve     # HTTP API
//	scheduler migrate   # create or update the schema
//	scheduler seed      # sample doctor and patient accounts
//
// Settings come from the environment; a .env file in the working directory
// is loaded first when present.
//
// @title                      Appointment Scheduler API
// @version                    1.0
// @description                Doctors book appointments with patients, write patient reports and query appointment statistics.
// @BasePath                   /api
// @securityDefinitions.apikey BearerAuth
// @in                         header
// @name                       Authorization
// @description                Type "Bearer" followed by a space and the JWT.
package main

import (
	"os"

	"github.com/rs/zerolog/log"
)

// version is stamped at build time with -ldflags "-X main.version=...".
var version = "dev"

func main() {
	if err := newRootCmd().Execute(); err != nil {
		log.Error().Err(err).Msg("scheduler failed")
		os.Exit(1)
	}
}
