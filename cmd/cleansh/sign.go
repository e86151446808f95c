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
	signPrivateKeyPath string
	signDataFile       string
	signOutputFile     string
)

var signArtifactCmd = &cobra.Command{
	Use:   "sign-artifact",
	Short: "Sign a JSON data file, producing a {data, signature} artifact",
	RunE:  runSignArtifactCmd,
}

func init() {
	signArtifactCmd.Flags().StringVar(&signPrivateKeyPath, "private-key", "", "Path to a raw 64-byte Ed25519 private key (required)")
	signArtifactCmd.Flags().StringVar(&signDataFile, "data", "", "Path to the JSON data file to sign (reads stdin if unset)")
	signArtifactCmd.Flags().StringVar(&signOutputFile, "output", "", "Write the signed artifact to this file instead of stdout")
	_ = signArtifactCmd.MarkFlagRequired("private-key")
}

func runSignArtifactCmd(cmd *cobra.Command, args []string) error {
	privKey, err := loadPrivateKeyFile(signPrivateKeyPath)
	if err != nil {
		return err
	}

	var data []byte
	if signDataFile != "" {
		data, err = os.ReadFile(signDataFile) //nolint:gosec // G304: operator-supplied CLI path
		if err != nil {
			return fmt.Errorf("read data file %s: %w", signDataFile, err)
		}
	} else {
		data, err = readInputBytes()
		if err != nil {
			return err
		}
	}

	s := signer.New(zerolog.New(os.Stderr).With().Timestamp().Logger())
	env, err := s.Sign(privKey, data)
	if err != nil {
		return fmt.Errorf("sign artifact: %w", err)
	}

	out, err := json.MarshalIndent(env, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal signed artifact: %w", err)
	}

	if signOutputFile != "" {
		return os.WriteFile(signOutputFile, out, 0o600)
	}
	fmt.Fprintln(os.Stdout, string(out))
	return nil
}

func loadPrivateKeyFile(path string) (ed25519.PrivateKey, error) {
	raw, err := os.ReadFile(path) //nolint:gosec // G304: operator-supplied CLI path
	if err != nil {
		return nil, fmt.Errorf("read private key file %s: %w", path, err)
	}
	if len(raw) != ed25519.PrivateKeySize {
		return nil, fmt.Errorf("private key file %s: expected %d bytes, got %d", path, ed25519.PrivateKeySize, len(raw))
	}
	return ed25519.PrivateKey(raw), nil
}
