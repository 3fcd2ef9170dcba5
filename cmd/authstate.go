package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/bnema/chat-sessiond/internal/adapters/authstate"
	"github.com/bnema/chat-sessiond/internal/adapters/render/summary"
	"github.com/bnema/chat-sessiond/internal/application"
	"github.com/bnema/chat-sessiond/internal/domain"
	toml "github.com/pelletier/go-toml/v2"
	"github.com/spf13/cobra"
)

const defaultPairTimeout = 2 * time.Minute

var errEmptyAuthState = errors.New("auth state input is empty")

func newAuthStateCmd(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "authstate",
		Short: "Create, pair and inspect credential blobs",
	}

	cmd.AddCommand(newAuthStateNewCmd(), newAuthStateInspectCmd(), newAuthStatePairCmd(opts))

	return cmd
}

func newAuthStateNewCmd() *cobra.Command {
	var accountID string

	cmd := &cobra.Command{
		Use:   "new",
		Short: "Print a fresh, unpaired credential blob",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			store, _, err := authstate.Create(domain.AccountID(accountID), "")
			if err != nil {
				return fmt.Errorf("create auth state: %w", err)
			}
			blob, err := store.Serialize()
			if err != nil {
				return err
			}

			_, err = fmt.Fprintln(cmd.OutOrStdout(), blob)
			return err
		},
	}

	cmd.Flags().StringVar(&accountID, "account", "", "Account ID")
	_ = cmd.MarkFlagRequired("account")

	return cmd
}

func newAuthStateInspectCmd() *cobra.Command {
	var accountID string
	var file string
	var asTOML bool

	cmd := &cobra.Command{
		Use:   "inspect",
		Short: "Summarize a credential blob without printing key material",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			raw, err := readAuthState(cmd.InOrStdin(), file)
			if err != nil {
				return err
			}
			store, err := authstate.Parse(domain.AccountID(accountID), raw)
			if err != nil {
				return err
			}

			view := summary.FromStore(store)
			if asTOML {
				data, err := toml.Marshal(view)
				if err != nil {
					return fmt.Errorf("encode summary: %w", err)
				}
				_, err = cmd.OutOrStdout().Write(data)
				return err
			}

			rendered, err := summary.Render(view)
			if err != nil {
				return fmt.Errorf("render summary: %w", err)
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), rendered)
			return err
		},
	}

	cmd.Flags().StringVar(&accountID, "account", "", "Account ID shown in the summary")
	cmd.Flags().StringVar(&file, "file", "", "Read the blob from this file instead of stdin")
	cmd.Flags().BoolVar(&asTOML, "toml", false, "Print the summary as TOML")

	return cmd
}

func newAuthStatePairCmd(opts *rootOptions) *cobra.Command {
	var accountID string
	var file string
	var timeout time.Duration

	cmd := &cobra.Command{
		Use:   "pair",
		Short: "Pair an account through the configured engine and print its blob",
		Long:  "pair connects one account, prints each pairing QR payload to stderr and, once the connection opens, writes the resulting credential blob to stdout.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			app, err := wireApp(opts, cmd.ErrOrStderr())
			if err != nil {
				return err
			}

			id := domain.AccountID(accountID)
			store, err := openPairingState(id, file)
			if err != nil {
				return err
			}

			ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
			defer cancel()

			var blob string
			err = runPairProgress(ctx, cmd.ErrOrStderr(), string(id), func(ctx context.Context, showQR func(string)) error {
				var pairErr error
				blob, pairErr = application.Pair(ctx, app.engine, store, id, showQR)
				return pairErr
			})
			if err != nil {
				return fmt.Errorf("pair %s: %w", id, err)
			}

			_, err = fmt.Fprintln(cmd.OutOrStdout(), blob)
			return err
		},
	}

	cmd.Flags().StringVar(&accountID, "account", "", "Account ID")
	cmd.Flags().StringVar(&file, "file", "", "Resume from an existing blob")
	cmd.Flags().DurationVar(&timeout, "timeout", defaultPairTimeout, "Give up after this long")
	_ = cmd.MarkFlagRequired("account")

	return cmd
}

// openPairingState resumes from file when given, otherwise starts from fresh
// credentials.
func openPairingState(id domain.AccountID, file string) (*authstate.Store, error) {
	if file == "" {
		store, _, err := authstate.Create(id, "")
		if err != nil {
			return nil, fmt.Errorf("create auth state: %w", err)
		}
		return store, nil
	}

	raw, err := readAuthState(nil, file)
	if err != nil {
		return nil, err
	}
	return authstate.Parse(id, raw)
}

// readAuthState reads the blob from file, or from stdin when file is empty.
func readAuthState(stdin io.Reader, file string) (string, error) {
	var (
		data []byte
		err  error
	)
	if file != "" {
		data, err = os.ReadFile(file)
	} else {
		data, err = io.ReadAll(stdin)
	}
	if err != nil {
		return "", fmt.Errorf("read auth state: %w", err)
	}

	raw := strings.TrimSpace(string(data))
	if raw == "" {
		return "", errEmptyAuthState
	}
	return raw, nil
}
