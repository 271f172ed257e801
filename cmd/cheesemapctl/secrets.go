package main

import (
	"fmt"

	"github.com/shadikamal997/cheesemap-sub001/internal/utils"
	"github.com/spf13/cobra"
)

// generateSecretsCmd prints a fresh JWT secret pair for a .env file
var generateSecretsCmd = &cobra.Command{
	Use:   "generate-secrets",
	Short: "Generate JWT signing secrets",
	RunE: func(cmd *cobra.Command, args []string) error {
		secrets, err := utils.GenerateJWTSecrets()
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "JWT_SECRET=%s\n", secrets.Access)
		fmt.Fprintf(out, "JWT_REFRESH_SECRET=%s\n", secrets.Refresh)
		return nil
	},
}
