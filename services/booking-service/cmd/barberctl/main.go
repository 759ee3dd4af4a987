package main

import (
	"fmt"
	"os"

	"github.com/md-rashed-zaman/barberbook/libs/runtime"
)

func main() {
	ctx, stop := runtime.SignalContext()
	defer stop()
	if err := newRoot().ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		stop()
		os.Exit(1)
	}
}
