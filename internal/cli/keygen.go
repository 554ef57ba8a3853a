package cli

import (
	"fmt"

	"devguard/internal/attest"

	"github.com/spf13/cobra"
)

var keygenDir string

var keygenCmd = &cobra.Command{
	Use:   "keygen",
	Short: "Generate an ed25519 keypair for attestation signing",
	Long: `Generate an ed25519 keypair for attestation signing.

Writes devguard.key (private, 0600) and devguard.pub (public) into --dir.
Point verify at the private key with --signing-key or DEVGUARD_SIGNING_KEY;
distribute the public key to whoever verifies envelopes.

Examples:
  devguard keygen --dir ./keys
  devguard verify --signing-key ./keys/devguard.key
`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		priv, pub, err := attest.GenerateKeyPair(keygenDir)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "private key: %s\npublic key:  %s\n", priv, pub)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(keygenCmd)
	keygenCmd.Flags().StringVar(&keygenDir, "dir", ".", "Directory to write the keypair into")
}
