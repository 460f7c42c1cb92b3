/*
PURPOSE:
  Defines the 'list-solvers' subcommand.
  Helps debug connectivity, tokens and solver names.

REQUIREMENTS:
  User-specified:
  - List available solvers.

  Implementation-discovered:
  - Useful validation step before full run: a bad token or endpoint shows
    up here without touching the dataset.

ARCHITECTURE INTEGRATION:
  - Calls: internal/sapi Connection.Solvers()

ERROR HANDLING:
  - Returns AuthError / HTTPError from the service.

IMPLEMENTATION RULES:
  - Simple output to stdout.

USAGE:
  anneal-runner list-solvers --endpoint ...

SELF-HEALING INSTRUCTIONS:
  - None.

RELATED FILES:
  - internal/sapi/solver.go

MAINTENANCE:
  - None.
*/

package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/daryltucker/anneal-runner/internal/engine"
	"github.com/daryltucker/anneal-runner/internal/sapi"
)

var listFlags struct {
	endpoint, token string
}

var listSolversCmd = &cobra.Command{
	Use:   "list-solvers",
	Short: "List solvers available on the solver service",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		if cmd.Flags().Changed("endpoint") {
			cfg.Endpoint = listFlags.endpoint
		}
		if cmd.Flags().Changed("token") {
			cfg.Token = listFlags.token
		}

		conn, err := sapi.RemoteConnection(cfg.Endpoint, cfg.Token, engine.Options(cfg))
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "Querying %s...\n", conn.Endpoint)
		solvers, err := conn.Solvers(cmd.Context())
		if err != nil {
			return err
		}
		for _, s := range solvers {
			qubits := 0
			if s.Properties != nil {
				qubits = len(s.Properties.Qubits)
			}
			fmt.Fprintf(out, "- %s (%s, %d working qubits)\n", s.ID, s.Status, qubits)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(listSolversCmd)
	listSolversCmd.Flags().StringVar(&listFlags.endpoint, "endpoint", "", "Solver API endpoint")
	listSolversCmd.Flags().StringVar(&listFlags.token, "token", "", "Solver API token")
}
