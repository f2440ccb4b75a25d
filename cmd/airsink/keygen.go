package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/bluenviron/airsink/pkg/pairing"
)

func writeDeviceKey(path string, force bool) (string, error) {
	if !force {
		if _, err := os.Stat(path); err == nil {
			return "", fmt.Errorf("%s already exists", path)
		}
	}

	key, err := pairing.GenerateDeviceKey()
	if err != nil {
		return "", err
	}

	byts, err := pairing.MarshalDeviceKey(key)
	if err != nil {
		return "", err
	}

	err = os.WriteFile(path, byts, 0o600)
	if err != nil {
		return "", err
	}

	return pairing.PublicKeyHex(key), nil
}

func newKeygenCmd() *cobra.Command {
	var out string
	var force bool

	cmd := &cobra.Command{
		Use:   "keygen",
		Short: "Generate a device key",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			pk, err := writeDeviceKey(out, force)
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "device key written to %s\npk: %s\n", out, pk)
			return nil
		},
	}
	cmd.Flags().StringVar(&out, "out", "airsink.key", "path of the generated key")
	cmd.Flags().BoolVar(&force, "force", false, "overwrite an existing key")
	return cmd
}
