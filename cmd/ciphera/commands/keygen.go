package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"ciphera/internal/crypto"
	"ciphera/internal/store"
)

func keygenCmd() *cobra.Command {
	var force bool
	cmd := &cobra.Command{
		Use:   "keygen <path>",
		Short: "Generate a shared relay key and write it to path",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			k, err := crypto.GenerateKey()
			if err != nil {
				return err
			}
			if err := store.NewKeyFileStore(args[0]).SaveKey(k, force); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Key written to %s.\nFingerprint: %s\n", args[0], crypto.Fingerprint(k))
			return nil
		},
	}
	cmd.Flags().BoolVar(&force, "force", false, "overwrite an existing key file")
	return cmd
}
