// Command lockctl is the operator CLI of memorylocks. It issues service
// tokens, converts lock ids to and from their public form, triggers bulk
// lock creation and uploads media through presigned URLs.
package main

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/dmitrijs2005/memorylocks/internal/obfuscate"
	"github.com/dmitrijs2005/memorylocks/internal/server/auth"
	"github.com/dmitrijs2005/memorylocks/internal/server/config"
)

type options struct {
	apiURL    string
	apiKey    string
	salt      string
	minLength int
	tokenTTL  time.Duration
}

func envOr(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok {
		return v
	}
	return fallback
}

func newRootCmd(out io.Writer) *cobra.Command {
	var defaults config.Config
	defaults.LoadDefaults()
	o := &options{tokenTTL: defaults.ServiceTokenValidityDuration}

	rootCmd := &cobra.Command{
		Use:           "lockctl",
		Short:         "Operator CLI for the memorylocks backend",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.SetOut(out)

	rootCmd.PersistentFlags().StringVarP(&o.apiURL, "api", "a", envOr("LOCKCTL_API", "http://localhost:8080"), "memorylocks base URL")
	rootCmd.PersistentFlags().StringVarP(&o.apiKey, "key", "k", envOr("API_KEY", ""), "shared API key")
	rootCmd.PersistentFlags().StringVar(&o.salt, "salt", envOr("HASHIDS_SALT", defaults.HashSalt), "lock id salt")
	rootCmd.PersistentFlags().IntVar(&o.minLength, "min-length", defaults.HashMinLength, "minimum length of public lock ids")

	rootCmd.AddCommand(newTokenCmd(o), newIDCmd(o), newLocksCmd(o), newMediaCmd(o))
	return rootCmd
}

func newTokenCmd(o *options) *cobra.Command {
	tokenCmd := &cobra.Command{Use: "token", Short: "Service token operations"}

	var subject string
	issueCmd := &cobra.Command{
		Use:   "issue",
		Short: "Issue a service token signed with the API key",
		RunE: func(cmd *cobra.Command, args []string) error {
			if o.apiKey == "" {
				return fmt.Errorf("--key required")
			}
			token, err := auth.GenerateToken(subject, []byte(o.apiKey), o.tokenTTL)
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintln(cmd.OutOrStdout(), token)
			return nil
		},
	}
	issueCmd.Flags().StringVarP(&subject, "subject", "s", "worker", "token subject")
	issueCmd.Flags().DurationVarP(&o.tokenTTL, "ttl", "t", o.tokenTTL, "token validity")
	tokenCmd.AddCommand(issueCmd)

	return tokenCmd
}

func newIDCmd(o *options) *cobra.Command {
	idCmd := &cobra.Command{Use: "id", Short: "Convert lock ids"}

	codec := func() (*obfuscate.Codec, error) {
		return obfuscate.New(o.salt, o.minLength)
	}

	idCmd.AddCommand(&cobra.Command{
		Use:   "encode LOCK_ID",
		Short: "Print the public id of a lock",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid lock id %q", args[0])
			}
			c, err := codec()
			if err != nil {
				return err
			}
			hashed, err := c.Encode(id)
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintln(cmd.OutOrStdout(), hashed)
			return nil
		},
	})

	idCmd.AddCommand(&cobra.Command{
		Use:   "decode PUBLIC_ID",
		Short: "Print the lock id behind a public id",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := codec()
			if err != nil {
				return err
			}
			id, ok := c.Decode(args[0])
			if !ok {
				return fmt.Errorf("%q is not a valid public id", args[0])
			}
			_, _ = fmt.Fprintln(cmd.OutOrStdout(), id)
			return nil
		},
	})

	return idCmd
}

func newLocksCmd(o *options) *cobra.Command {
	locksCmd := &cobra.Command{Use: "locks", Short: "Lock operations"}

	locksCmd.AddCommand(&cobra.Command{
		Use:   "bulk-create TOTAL",
		Short: "Create TOTAL placeholder locks after the current maximum id",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			total, err := strconv.Atoi(args[0])
			if err != nil {
				return fmt.Errorf("invalid total %q", args[0])
			}
			data, err := newAPIClient(o.apiURL, o.apiKey).bulkCreate(cmd.Context(), total)
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintln(cmd.OutOrStdout(), string(data))
			return nil
		},
	})

	return locksCmd
}

func newMediaCmd(o *options) *cobra.Command {
	mediaCmd := &cobra.Command{Use: "media", Short: "Media operations"}

	var isImage, isMain bool
	uploadCmd := &cobra.Command{
		Use:   "upload LOCK_ID FILE",
		Short: "Upload FILE to asset storage and attach it to a lock",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			lockID, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil || lockID < 1 {
				return fmt.Errorf("invalid lock id %q", args[0])
			}
			content, err := os.ReadFile(args[1])
			if err != nil {
				return err
			}
			data, err := newAPIClient(o.apiURL, o.apiKey).uploadMedia(cmd.Context(), lockID, args[1], content, isImage, isMain)
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintln(cmd.OutOrStdout(), string(data))
			return nil
		},
	}
	uploadCmd.Flags().BoolVar(&isImage, "image", true, "file is an image")
	uploadCmd.Flags().BoolVar(&isMain, "main", false, "make it the main picture of the lock")
	mediaCmd.AddCommand(uploadCmd)

	return mediaCmd
}

func main() {
	if err := newRootCmd(os.Stdout).Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
