package main

import (
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/sessionkit/cookie-session/internal/config"
)

var version = "dev"

func newRootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:          "cookie-session",
		Short:        "Cookie based session service",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer()
		},
	}
	root.AddCommand(newCheckConfigCommand(), newVersionCommand())
	return root
}

func newCheckConfigCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "check-config",
		Short: "Validate the environment and report every invalid setting",
		RunE: func(cmd *cobra.Command, args []string) error {
			_, err := config.Load()
			return reportConfig(cmd.OutOrStdout(), cmd.ErrOrStderr(), err)
		},
	}
}

func newVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintln(cmd.OutOrStdout(), version)
		},
	}
}

func reportConfig(out, errOut io.Writer, err error) error {
	if err == nil {
		fmt.Fprintln(out, "configuration ok")
		return nil
	}

	var verrs config.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	fmt.Fprintln(errOut, "ENVIRONMENT VARIABLES ERROR:")
	for _, fe := range verrs {
		fmt.Fprintf(errOut, "  %s (%s): %s\n", fe.Key, fe.Rule, fe.Message)
	}
	return fmt.Errorf("%d invalid settings", len(verrs))
}
