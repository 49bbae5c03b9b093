package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/muesli/termenv"

	"github.com/aretw0/weft/internal/presentation/graph"
	"github.com/aretw0/weft/internal/presentation/tui"
	"github.com/aretw0/weft/pkg/domain"
	"github.com/aretw0/weft/pkg/flow"
)

// RunOptions contains all the configuration for the run command.
type RunOptions struct {
	Options
	JSON   bool
	Report bool

	// Stdout receives the run output. Defaults to os.Stdout.
	Stdout io.Writer
}

func stdout(w io.Writer) io.Writer {
	if w == nil {
		return os.Stdout
	}
	return w
}

// Execute loads the flow at path, runs it once and prints the result.
func Execute(ctx context.Context, path string, opts RunOptions) error {
	out := stdout(opts.Stdout)

	def, err := flow.Load(path)
	if err != nil {
		return err
	}

	rt, err := NewRuntime(ctx, opts.Options)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := rt.Close(context.Background()); cerr != nil {
			rt.Logger.Warn("failed to close services", "err", cerr)
		}
	}()

	res, err := rt.Engine.RunFlow(ctx, def)
	if err != nil {
		return err
	}

	switch {
	case opts.JSON:
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(res)
	case opts.Report:
		render, err := tui.NewRenderer(100)
		if err != nil {
			return fmt.Errorf("error initializing renderer: %w", err)
		}
		md, err := render(tui.Report(def.Name, res))
		if err != nil {
			return fmt.Errorf("error rendering report: %w", err)
		}
		_, err = io.WriteString(out, md)
		return err
	default:
		printResult(out, res)
		return nil
	}
}

// printResult writes one status line per invocation followed by the
// terminal outputs.
func printResult(w io.Writer, res *domain.RunResult) {
	p := termenv.NewOutput(w).EnvColorProfile()
	for _, st := range res.Statuses {
		fmt.Fprintln(w, tui.StatusLine(p, st))
	}
	for _, key := range res.OutputKeys() {
		fmt.Fprintf(w, "%s: %s\n", p.String(key).Bold(), displayValue(res.Outputs[key]))
	}
	printSystemMessage(w, "Run %s finished in %s.", res.RunID, res.Duration)
}

func displayValue(v any) string {
	if s, ok := domain.AsText(v); ok {
		return s
	}
	if b, err := json.Marshal(v); err == nil {
		return string(b)
	}
	return fmt.Sprintf("%v", v)
}

// Validate builds the flow at path without running it.
func Validate(ctx context.Context, path string, opts Options) error {
	def, err := flow.Load(path)
	if err != nil {
		return err
	}
	rt, err := NewRuntime(ctx, opts)
	if err != nil {
		return err
	}
	defer rt.Close(context.Background())
	return rt.Engine.Validate(def)
}

// GraphOptions configures the graph command.
type GraphOptions struct {
	Options
	// Run executes the flow first and overlays the outcome of every output.
	Run    bool
	Stdout io.Writer
}

// Graph prints the Mermaid diagram of the flow at path. With opts.Run, a
// failing run still prints the overlay before returning the error.
func Graph(ctx context.Context, path string, opts GraphOptions) error {
	out := stdout(opts.Stdout)

	def, err := flow.Load(path)
	if err != nil {
		return err
	}
	rt, err := NewRuntime(ctx, opts.Options)
	if err != nil {
		return err
	}
	defer rt.Close(context.Background())

	g, err := rt.Engine.Build(def)
	if err != nil {
		return err
	}

	var overlay *graph.Overlay
	var runErr error
	if opts.Run {
		run := rt.Engine.NewRun(g)
		_, runErr = run.Execute(ctx)
		overlay = &graph.Overlay{Statuses: run.Statuses()}
	}

	fmt.Fprint(out, graph.GenerateMermaid(g, overlay))
	return runErr
}
