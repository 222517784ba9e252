package main

import (
	"fmt"
	"os"

	"github.com/gooseworks/goose/internal/cli"
	clierrors "github.com/gooseworks/goose/internal/errors"
)

func main() {
	if err := cli.Execute(); err != nil {
		if cliErr := clierrors.AsCLIError(err); cliErr != nil {
			clierrors.PrintError(cliErr)
		} else {
			fmt.Fprint(os.Stderr, clierrors.FormatSimpleError(err, clierrors.Runtime))
		}
		os.Exit(cli.ExitCode(err))
	}
}
