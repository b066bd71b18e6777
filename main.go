package main

import (
	"fmt"
	"os"

	"github.com/caseprep/qgate/cmd"
)

func main() {
	err := cmd.Execute()
	if err != nil && !cmd.IsExitCode(err) {
		fmt.Fprintln(os.Stderr, "error:", err)
	}
	os.Exit(cmd.ExitCode(err))
}
