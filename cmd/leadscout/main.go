package main

import (
	"github.com/joho/godotenv"

	"leadscout-backend/cmd/leadscout/commands"
	"leadscout-backend/lib/telemetry"
	"leadscout-backend/lib/util/serviceutil"
)

func main() {
	// credentials come from .env in development and the real environment in
	// production, a missing file is fine
	godotenv.Load()

	telemetry.InitSlog(false)
	commands.ExecuteContext(serviceutil.SignalContext())
}
