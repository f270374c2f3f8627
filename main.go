package main

import (
	"likeness.io/infrastructure"
	"likeness.io/infrastructure/env"
)

func init() {
	env.LoadEnv()
}

func main() {
	infrastructure.StartServer()
}
