package main

import (
	"os"

	"github.com/colorfulnotion/a64map/cli"
)

func main() {
	cli.Main(cli.NewRootCmd(os.Stdout))
}
