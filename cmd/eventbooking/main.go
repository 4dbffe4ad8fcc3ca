// @title Event Booking API
// @version 1.0
// @description Create events, RSVP to them and manage attendance with capacity limits.
// @BasePath /
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and the JWT.
package main

import (
	"log/slog"
	"os"

	"github.com/urfave/cli/v2"

	_ "eventbooking/docs"
)

func main() {
	app := &cli.App{
		Name:  "eventbooking",
		Usage: "Event booking API with capacity-safe RSVPs.",
		Commands: []*cli.Command{
			serveCommand(),
			migrateCommand(),
		},
	}

	if err := app.Run(os.Args); err != nil {
		slog.Error("application failed", "err", err)
		os.Exit(1)
	}
}
