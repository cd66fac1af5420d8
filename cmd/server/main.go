package main

import (
	"context"
	"log"
	"os"
	"strconv"

	"forum/internal/server"
	"forum/internal/server/config"
)

// portArg returns the first bare numeric argument, supporting the
// classic invocation "server <port>" alongside the flag interface.
func portArg(args []string) (string, bool) {
	for _, a := range args {
		if len(a) > 0 && a[0] == '-' {
			break
		}
		if _, err := strconv.Atoi(a); err == nil {
			return a, true
		}
	}
	return "", false
}

func main() {

	ctx := context.Background()
	cfg := config.LoadConfig()

	if port, ok := portArg(os.Args[1:]); ok {
		cfg.EndpointAddr = ":" + port
	}

	app, err := server.NewApp(ctx, cfg)
	if err != nil {
		log.Printf("%v", err)
		return
	}

	if err := app.Run(ctx); err != nil {
		os.Exit(1)
	}
}
