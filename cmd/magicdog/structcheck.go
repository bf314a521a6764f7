package main

import (
	"fmt"
	"io"
	"os"

	"github.com/magicdog/sdk/pkg/verify"
)

const structCheckPassed = "ALL STRUCT CHECKS PASSED"

// StructCheckCommand needs no robot: it round-trips every SDK value type
// through the wire codec.
type StructCheckCommand struct{}

func (c *StructCheckCommand) Execute(args []string) error {
	if err := runStructCheck(os.Stdout); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	return nil
}

func runStructCheck(w io.Writer) error {
	if err := verify.DTOSuite().RunFailFast(w); err != nil {
		return err
	}
	fmt.Fprintln(w, structCheckPassed)
	return nil
}
