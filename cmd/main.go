package main

import "github.com/adanyl0v/go-tasks/internal/app"

func main() {
	app.InitDefaultLogger()
	app.MustReadEnv()
	app.MustInitApplicationLogger()

	app.MustInitTaskStore()
	defer app.CloseTaskStore()

	app.ConnectRedis()
	defer app.DisconnectRedis()

	app.MustListenAndServeHTTP()
}
