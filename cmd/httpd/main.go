package main

import (
	"fmt"
	"os"

	"github.com/jonesrussell/posture-report/internal/bootstrap"
)

func main() {
	if err := bootstrap.Start(); err != nil {
		fmt.Fprintf(os.Stderr, "posture-report: %v\n", err)
		os.Exit(1)
	}
}
