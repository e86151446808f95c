package main

import (
	"crypto/ed25519"
	"encoding/json"
	"fmt"
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"sanitizer-engine/internal/signer"
)

var (
	verifyArtifactPath  string
	verifyPublicKeyPath string
)

var verifyArtifactCmd = &cobra.Command{
	Use:   "verify-artifact",
	Short: "Verify a signed artifact's Ed25519 signature",
	RunE:  runVerifyArtifactCmd,
}

func init() {
	verifyArtifactCmd.Flags().StringVar(&verifyArtifactPath, "artifact", "", "Path to the signed artifact JSON file (required)")
	verifyArtifactCmd.Flags().StringVar(&verifyPublicKeyPath, "public-key", "", "Path to a raw 32-byte Ed25519 public key file")
	_ = verifyArtifactCmd.MarkFlagRequired("artifact")
}

func runVerifyArtifactCmd(cmd *cobra.Command, args []string) error {
	pub, err := resolvePublicKey()
	if err != nil {
		return err
	}

	fmt.Fprintf(os.Stdout, "Verifying artifact: %s\n", verifyArtifactPath)

	raw, err := os.ReadFile(verifyArtifactPath) //nolint:gosec // G304: operator-supplied CLI path
	if err != nil {
		return fmt.Errorf("read artifact file %s: %w", verifyArtifactPath, err)
	}

	var env signer.Envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return fmt.Errorf("parse artifact file %s: %w", verifyArtifactPath, err)
	}

	s := signer.New(zerolog.New(os.Stderr).With().Timestamp().Logger())
	if !s.Verify(pub, env) {
		fmt.Fprintln(os.Stderr, "Artifact signature verification FAILED.")
		os.Exit(exitDenied)
	}

	fmt.Fprintln(os.Stdout, "Artifact signature verified successfully.")
	return nil
}

// resolvePublicKey prefers an explicit --public-key file, falling back to
// CLEANSH_LICENSE_PUBLIC_KEY_BASE64 (via config.LicensePublicKey), matching
// the two public-key sourcing mechanisms the verification flow supports.
func resolvePublicKey() (ed25519.PublicKey, error) {
	if verifyPublicKeyPath != "" {
		return signer.LoadPublicKeyFile(verifyPublicKeyPath)
	}
	if cfg.LicensePublicKey != "" {
		return signer.DecodePublicKeyBase64(cfg.LicensePublicKey)
	}
	return nil, fmt.Errorf("no public key supplied: set --public-key or %s", "CLEANSH_LICENSE_PUBLIC_KEY_BASE64")
}
