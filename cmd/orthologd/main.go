// Command orthologd serves the PaxDb ortholog API and offers offline
// inspection of the reference taxonomy.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
)

var exitFunc = os.Exit

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	cmd := newRootCmd()
	if err := cmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "orthologd:", err)
		stop()
		exitFunc(1)
	}
}
