// Package cli builds the cobra commands behind formserver and formsubmit.
package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/spf13/cobra"

	adminauth "service-request-form/internal/admin/auth"
	"service-request-form/internal/app"
)

// ServerDependencies lets tests replace the blocking server run.
type ServerDependencies struct {
	Run    func(context.Context, app.Options) error
	Input  io.Reader
	Output io.Writer
}

// NewServerCommand returns the formserver root command.
func NewServerCommand(deps ServerDependencies) *cobra.Command {
	var opts app.Options

	root := &cobra.Command{
		Use:           "formserver",
		Short:         "Serve the service request form and store what it receives",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			run := deps.Run
			if run == nil {
				run = app.Run
			}
			return run(cmd.Context(), opts)
		},
	}

	root.Flags().StringVar(&opts.ConfigPath, "config", "config.json", "Path to the JSON config file")
	root.Flags().StringVar(&opts.LogDir, "log-dir", "data", "Directory for the log file")
	root.Flags().DurationVar(&opts.ReadTimeout, "read-timeout", 10*time.Second, "Header read timeout")
	root.Flags().DurationVar(&opts.ShutdownTimeout, "shutdown-timeout", 15*time.Second, "Grace period for in-flight uploads on shutdown")

	root.AddCommand(buildHashPasswordCommand(deps))
	return root
}

func buildHashPasswordCommand(deps ServerDependencies) *cobra.Command {
	return &cobra.Command{
		Use:   "hash-password [password]",
		Short: "Print a bcrypt hash for admin.password_hash",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			password := ""
			if len(args) == 1 {
				password = args[0]
			} else if deps.Input != nil {
				line, err := bufio.NewReader(deps.Input).ReadString('\n')
				if err != nil && !errors.Is(err, io.EOF) {
					return fmt.Errorf("read password: %w", err)
				}
				password = strings.TrimRight(line, "\r\n")
			}
			if password == "" {
				return errors.New("password is required")
			}

			hash, err := adminauth.HashPassword(password)
			if err != nil {
				return fmt.Errorf("hash password: %w", err)
			}
			output := deps.Output
			if output == nil {
				output = io.Discard
			}
			_, err = fmt.Fprintln(output, hash)
			return err
		},
	}
}
