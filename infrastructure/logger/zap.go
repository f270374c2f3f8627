package logger

import (
	"os"

	"go.uber.org/zap"
)

var Logger *zap.Logger = zap.NewNop()

// InitializeLogger must run before any other service starts so boot
// failures are captured.
func InitializeLogger() {
	var err error
	if os.Getenv("APP_ENV") == "dev" {
		Logger, err = zap.NewDevelopment()
	} else {
		Logger, err = zap.NewProduction()
	}
	if err != nil {
		panic(err)
	}
}
