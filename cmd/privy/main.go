package main

import (
	"fmt"
	"os"

	"github.com/jet/privy/commands"
)

func main() {
	natives, err := commands.SystemNatives()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	app := commands.NewApp(natives, os.Stdout)
	if err := app.Execute(os.Args[1:]); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
