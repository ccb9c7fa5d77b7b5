package cmd

import "fmt"

type VersionCmd struct{}

func (v *VersionCmd) Run(ctx *Context) error {
	fmt.Fprintf(ctx.Out, "wdjobs %s\n", ctx.Version)
	return nil
}
