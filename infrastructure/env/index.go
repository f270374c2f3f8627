package env

import (
	"likeness.io/infrastructure/logger"

	"github.com/joho/godotenv"
)

func LoadEnv() {
	err := godotenv.Load()
	if err != nil {
		logger.Info("no .env file found, relying on process environment")
	}
}
