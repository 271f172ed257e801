// Command cheesemapctl is the operator CLI: schema migrations, admin accounts,
// development data resets and secret generation.
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
