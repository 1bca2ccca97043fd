// Command widgettools lists, renders and serves widget tools.
package main

import (
	"os"

	"github.com/goliatone/go-widgettools/internal/cli"
)

func main() {
	os.Exit(cli.Main())
}
