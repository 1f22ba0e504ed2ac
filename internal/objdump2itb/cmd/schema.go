package cmd

import (
	"encoding/json"
	"fmt"

	"github.com/invopop/jsonschema"
	"github.com/spf13/cobra"

	"objdump2itb/internal/config"
	"objdump2itb/internal/itb"
)

var schemaCmd = &cobra.Command{
	Use:    "schema",
	Short:  "Generate JSON schema for configuration",
	Long:   "Generate JSON schema for the objdump2itb configuration, or with --entry for the entries show emits as JSON",
	Hidden: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		entry, _ := cmd.Flags().GetBool("entry")

		var v any = &config.Config{}
		if entry {
			v = &itb.Entry{}
		}

		reflector := new(jsonschema.Reflector)
		bts, err := json.MarshalIndent(reflector.Reflect(v), "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal schema: %w", err)
		}
		fmt.Fprintln(cmd.OutOrStdout(), string(bts))
		return nil
	},
}

func init() {
	schemaCmd.Flags().Bool("entry", false, "Print the schema of an instruction table entry")
	rootCmd.AddCommand(schemaCmd)
}
