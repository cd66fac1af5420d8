package main

import (
	"log"
	"net"
	"os"
	"strconv"

	"forum/internal/client/cli"
	"forum/internal/client/config"
)

// serverArg supports the classic invocation "client <host> <port>"
// alongside the flag interface.
func serverArg(args []string) (string, bool) {
	if len(args) < 2 {
		return "", false
	}
	host, port := args[0], args[1]
	if host == "" || len(host) > 0 && host[0] == '-' {
		return "", false
	}
	if _, err := strconv.Atoi(port); err != nil {
		return "", false
	}
	return net.JoinHostPort(host, port), true
}

func main() {

	cfg := config.LoadConfig()

	if addr, ok := serverArg(os.Args[1:]); ok {
		cfg.ServerAddr = addr
	}

	app, err := cli.NewApp(cfg)
	if err != nil {
		log.Fatalf("%v", err)
		return
	}

	if err := app.Run(); err != nil {
		log.Fatalf("%v", err)
	}
}
