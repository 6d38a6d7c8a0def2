// Command hubctl is a terminal client for the Community Hub API.
//
//	hubctl [-server URL] [-token-file PATH] [-v] <command> [args]
//
// The server URL defaults to $HUBCTL_SERVER_URL and the token file to
// $HUBCTL_TOKEN_FILE (or <user config dir>/communityhub/token).
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := run(ctx, os.Args[1:], env{
		stdin:  os.Stdin,
		stdout: os.Stdout,
		stderr: os.Stderr,
		getenv: os.Getenv,
	})
	stop()
	os.Exit(code)
}
