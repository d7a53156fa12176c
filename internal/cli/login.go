package cli

import (
	"bufio"
	"fmt"
	"os"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/timevault/timevault/internal/storage/httpkv"
)

func newLoginCmd(appOf func() *App) *cobra.Command {
	return &cobra.Command{
		Use:   "login",
		Short: "Authenticate against the sync server",
		RunE: func(cmd *cobra.Command, args []string) error {
			app := appOf()

			fmt.Fprint(cmd.OutOrStdout(), "Access key: ")
			keyBytes, err := term.ReadPassword(int(syscall.Stdin))
			fmt.Fprintln(cmd.OutOrStdout())
			if err != nil {
				// Not a terminal (e.g. piped input): fall back to a
				// plain line read.
				reader := bufio.NewReader(os.Stdin)
				line, readErr := reader.ReadString('\n')
				if readErr != nil && line == "" {
					return fmt.Errorf("failed to read access key: %w", err)
				}
				keyBytes = []byte(strings.TrimSpace(line))
			}

			resp, err := httpkv.Login(cmd.Context(), app.Config.ServerURL, string(keyBytes))
			if err != nil {
				return fmt.Errorf("login failed: %w", err)
			}

			if err := app.SaveToken(cmd.Context(), resp.AccessToken); err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Logged in (token valid for %ds)\n", resp.ExpiresIn)
			return nil
		},
	}
}
