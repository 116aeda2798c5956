// Command fat32shell is an interactive shell for inspecting and mutating a
// FAT32 image without mounting it.
package main

import (
	"log"
	"os"

	"github.com/urfave/cli/v2"

	"github.com/dargueta/fat32shell/engine"
	"github.com/dargueta/fat32shell/shell"
)

func main() {
	app := &cli.App{
		Name:      "fat32shell",
		Usage:     "Inspect and mutate a FAT32 image file interactively",
		ArgsUsage: "IMAGE",
		Action:    run,
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatalf("fatal error: %s", err.Error())
	}
}

func run(c *cli.Context) error {
	if c.NArg() != 1 {
		return cli.Exit("usage: fat32shell IMAGE", 1)
	}

	eng, err := engine.Open(c.Args().Get(0))
	if err != nil {
		return cli.Exit(err.Error(), 1)
	}
	defer eng.Close()

	repl := shell.New(eng, os.Stdin, os.Stdout)
	if err := repl.Run(); err != nil {
		return cli.Exit(err.Error(), 1)
	}
	return nil
}
