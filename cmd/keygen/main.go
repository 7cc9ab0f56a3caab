// Command keygen issues license keys bound to a machine fingerprint.
package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"pos-backend/config"
	"pos-backend/internal/license"
)

const usage = `
=== POS License Key Generator ===

Usage: keygen <HWID> [LICENSE_TYPE] [EXPIRE_DAYS]

LICENSE_TYPE options:
  TRIAL   - Trial license
  FULL    - Full license (default)
  PREMIUM - Premium license

Examples:
  keygen ABC123DEF456GH89
  keygen ABC123DEF456GH89 PREMIUM 365
  keygen ABC123DEF456GH89 TRIAL 30

The HWID is shown to users when they first run the app.
`

const (
	defaultClass = "FULL"
	defaultDays  = 365
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr, time.Now))
}

// run executes keygen and returns the process exit code.
func run(args []string, stdout, stderr io.Writer, now func() time.Time) int {
	cmd := newRootCommand(stdout, now)
	cmd.SetArgs(args)
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)
	if err := cmd.Execute(); err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}
	return 0
}

func newRootCommand(stdout io.Writer, now func() time.Time) *cobra.Command {
	secret := os.Getenv("POS_LICENSE_SECRET")
	if secret == "" {
		secret = config.DefaultLicenseSecret
	}

	cmd := &cobra.Command{
		Use:           "keygen <HWID> [LICENSE_TYPE] [EXPIRE_DAYS]",
		Short:         "Generate a license key for a machine",
		Args:          cobra.MaximumNArgs(3),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 {
				fmt.Fprint(stdout, usage)
				return nil
			}

			hwid := strings.ToUpper(strings.TrimSpace(args[0]))
			class := defaultClass
			if len(args) > 1 {
				class = strings.ToUpper(args[1])
			}
			days := defaultDays
			if len(args) > 2 {
				n, err := strconv.Atoi(strings.TrimSpace(args[2]))
				if err != nil {
					return fmt.Errorf("EXPIRE_DAYS must be a whole number of days, got %q", args[2])
				}
				days = n
			}

			key, err := license.Generate(secret, hwid, class, days, now())
			if errors.Is(err, license.ErrInvalidFingerprint) {
				return errors.New("HWID must be at least 8 characters")
			}
			if err != nil {
				return err
			}
			printKey(stdout, key)
			return nil
		},
	}
	cmd.Flags().StringVar(&secret, "secret", secret, "shared license secret (env POS_LICENSE_SECRET)")
	return cmd
}

func printKey(w io.Writer, key license.Key) {
	fmt.Fprintln(w)
	fmt.Fprintln(w, "=== Generated License ===")
	fmt.Fprintln(w)
	fmt.Fprintf(w, "HWID:          %s\n", key.Fingerprint)
	fmt.Fprintf(w, "License Type:  %s\n", key.Class)
	fmt.Fprintf(w, "Expire Date:   %s\n", key.ExpiryDate.Format("2006-01-02"))
	fmt.Fprintf(w, "Valid Days:    %d\n", key.ValidDays)
	fmt.Fprintln(w)
	fmt.Fprintln(w, "========================")
	fmt.Fprintf(w, "LICENSE KEY:   %s\n", key.LicenseKey)
	fmt.Fprintln(w, "========================")
}
