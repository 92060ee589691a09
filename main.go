package main

import (
	"os"

	"github.com/ecotrack/ecotrack/app"
)

func main() {
	err := app.Execute()
	if err != nil {
		os.Exit(1)
	}
}
