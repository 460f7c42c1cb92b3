package cli

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/daryltucker/anneal-runner/internal/localsolver"
)

var serveFlags struct {
	addr string
	opts localsolver.Options
}

var serveLocalCmd = &cobra.Command{
	Use:   "serve-local",
	Short: "Serve a local simulated-annealing solver",
	Long: `Starts an HTTP server that speaks the solver API for one synthetic solver on
a Chimera C(rows, cols, shore) graph. Point 'run --endpoint' at
http://<addr>/sapi for dry runs without hardware access.`,
	Example: `  anneal-runner serve-local --addr 127.0.0.1:8686 --rows 16 --cols 16
  anneal-runner run --endpoint http://127.0.0.1:8686/sapi --solver chimera-local`,
	RunE: func(cmd *cobra.Command, args []string) error {
		srv, err := localsolver.New(serveFlags.opts)
		if err != nil {
			return err
		}
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		return srv.ListenAndServe(ctx, serveFlags.addr)
	},
}

func init() {
	rootCmd.AddCommand(serveLocalCmd)

	f := serveLocalCmd.Flags()
	f.StringVar(&serveFlags.addr, "addr", "127.0.0.1:8686", "Listen address")
	f.StringVar(&serveFlags.opts.Name, "name", "chimera-local", "Solver id")
	f.StringVar(&serveFlags.opts.Token, "token", "", "Require this X-Auth-Token")
	f.IntVar(&serveFlags.opts.Rows, "rows", 16, "Chimera rows")
	f.IntVar(&serveFlags.opts.Cols, "cols", 16, "Chimera columns")
	f.IntVar(&serveFlags.opts.Shore, "shore", 4, "Qubits per shore")
	f.IntSliceVar(&serveFlags.opts.Broken, "broken", nil, "Qubits to mark as not working")
	f.IntVar(&serveFlags.opts.Sweeps, "sweeps", 200, "Metropolis sweeps per read")
	f.Uint64Var(&serveFlags.opts.Seed, "seed", 0, "RNG seed")
	f.IntVar(&serveFlags.opts.PendingPolls, "pending-polls", 0, "Polls answered IN_PROGRESS before COMPLETED")
}
