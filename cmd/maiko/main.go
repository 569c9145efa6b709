package main

import (
	"os"

	"github.com/AmirejibiIlia/maiko/internal/cli"
)

func main() {
	os.Exit(int(cli.Run()))
}
