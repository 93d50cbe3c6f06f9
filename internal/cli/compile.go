package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	json "github.com/goccy/go-json"
	"github.com/spf13/cobra"

	"github.com/roach88/canspec/internal/compiler"
	"github.com/roach88/canspec/internal/emit"
	"github.com/roach88/canspec/internal/emit/hpp"
	"github.com/roach88/canspec/internal/emit/kcd"
	"github.com/roach88/canspec/internal/ir"
	"github.com/roach88/canspec/internal/store"
)

// CompileOptions holds flags for the compile command.
type CompileOptions struct {
	*RootOptions
	KCD    string // KCD output path
	HPP    string // C++ header output path
	IR     string // IR JSON output path
	IDBase uint32 // first auto-assigned identifier
	DB     string // build history database
}

// MessageSummary describes one compiled message.
type MessageSummary struct {
	Name     string `json:"name"`
	ID       string `json:"id"`
	Extended bool   `json:"extended,omitempty"`
	Length   int    `json:"length"`
	Width    int    `json:"bit_width"`
	Signals  int    `json:"signals"`
}

// CompileSummary is the result of a successful compile.
type CompileSummary struct {
	Bus         string           `json:"bus"`
	Fingerprint string           `json:"fingerprint"`
	Types       int              `json:"types"`
	Messages    []MessageSummary `json:"messages"`
	Written     []string         `json:"written,omitempty"`
	BuildSeq    int64            `json:"build_seq,omitempty"`
	Drift       []store.Change   `json:"drift,omitempty"`
}

// NewCompileCommand creates the compile command.
func NewCompileCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &CompileOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "compile <schema>",
		Short: "Compile a schema to KCD and a C++ header",
		Long: `Compile a YAML or CUE bus schema.

Both emitters run from the same frozen IR. Nothing is written unless every
emitter succeeds. With --db, the build is recorded and compared with the
previous build of the same bus.

Examples:
  canspec compile rover.yaml --kcd rover.kcd --hpp rover.hpp
  canspec compile rover.cue --ir rover.json --id-base 0x100
  canspec compile rover.yaml --db builds.db --format json`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCompile(cmd.Context(), opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.KCD, "kcd", "", "write the KCD network definition to this path")
	cmd.Flags().StringVar(&opts.HPP, "hpp", "", "write the C++ header to this path")
	cmd.Flags().StringVar(&opts.IR, "ir", "", "write the IR as JSON to this path")
	cmd.Flags().Uint32Var(&opts.IDBase, "id-base", 0, "first automatically assigned CAN identifier")
	cmd.Flags().StringVar(&opts.DB, "db", "", "record the build in this SQLite database")

	return cmd
}

func runCompile(ctx context.Context, opts *CompileOptions, path string, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd)

	bus, err := LoadBus(path, compiler.Options{
		IDBase: opts.IDBase,
		Logger: compileLogger(opts.RootOptions, formatter.GetErrWriter()),
	})
	if err != nil {
		return formatter.Fail(ExitCommandError, err)
	}
	formatter.VerboseLog("Compiled bus %s (%d types, %d messages)", bus.Name, len(bus.Types), len(bus.Messages))

	artifacts, err := emit.Run(ctx, bus, kcd.New(), hpp.New())
	if err != nil {
		return formatter.Fail(ExitCommandError, err)
	}

	summary := summarize(bus)

	outputs := map[string]string{"kcd": opts.KCD, "hpp": opts.HPP}
	var pending []outputFile
	for _, a := range artifacts {
		if target := outputs[a.Name]; target != "" {
			pending = append(pending, outputFile{Name: a.Name, Path: target, Data: a.Data})
		}
	}
	if opts.IR != "" {
		data, err := marshalIR(bus)
		if err != nil {
			return formatter.Fail(ExitCommandError, &LoadError{Code: ErrCodeWriteFailed, Message: err.Error(), Err: err})
		}
		pending = append(pending, outputFile{Name: "ir", Path: opts.IR, Data: data})
	}

	if err := writeOutputs(pending); err != nil {
		return formatter.Fail(ExitCommandError, &LoadError{Code: ErrCodeWriteFailed, Message: err.Error(), Err: err})
	}
	for _, f := range pending {
		formatter.VerboseLog("Wrote %s to %s", f.Name, f.Path)
		summary.Written = append(summary.Written, f.Path)
	}

	if opts.DB != "" {
		if err := recordBuild(ctx, opts.DB, bus, &summary); err != nil {
			return formatter.Fail(ExitCommandError, &LoadError{Code: ErrCodeStore, Message: err.Error(), Err: err})
		}
	}

	return outputCompileSuccess(formatter, summary)
}

func summarize(bus *ir.Bus) CompileSummary {
	summary := CompileSummary{
		Bus:         bus.Name,
		Fingerprint: bus.Fingerprint,
		Types:       len(bus.Types),
		Messages:    make([]MessageSummary, len(bus.Messages)),
	}
	for i, m := range bus.Messages {
		summary.Messages[i] = MessageSummary{
			Name:     m.Name,
			ID:       kcd.FormatID(m.ID, m.Extended),
			Extended: m.Extended,
			Length:   m.Length,
			Width:    m.Width,
			Signals:  len(m.Slots),
		}
	}
	return summary
}

// recordBuild stores the build and fills in its sequence number and the
// drift against the previous build of the same bus.
func recordBuild(ctx context.Context, dbPath string, bus *ir.Bus, summary *CompileSummary) error {
	st, err := store.Open(dbPath)
	if err != nil {
		return fmt.Errorf("opening build history: %w", err)
	}
	defer st.Close()

	prev, hasPrev, err := st.LatestBuild(ctx, bus.Name)
	if err != nil {
		return err
	}
	build, err := st.RecordBuild(ctx, bus)
	if err != nil {
		return err
	}

	summary.BuildSeq = build.Seq
	if hasPrev {
		summary.Drift = store.Diff(prev, build)
	}
	return nil
}

// outputCompileSuccess outputs successful compilation results.
func outputCompileSuccess(formatter *OutputFormatter, summary CompileSummary) error {
	if formatter.Format == "json" {
		return formatter.Success(summary)
	}

	w := formatter.Writer
	fmt.Fprintf(w, "\u2713 Compiled bus %s: %d type(s), %d message(s)\n\n",
		summary.Bus, summary.Types, len(summary.Messages))

	if len(summary.Messages) > 0 {
		fmt.Fprintln(w, "Messages:")
		for _, m := range summary.Messages {
			fmt.Fprintf(w, "  %-24s %s  %d byte(s), %d bit(s), %d signal(s)\n",
				m.Name, m.ID, m.Length, m.Width, m.Signals)
		}
		fmt.Fprintln(w)
	}

	fmt.Fprintf(w, "Fingerprint: %s\n", summary.Fingerprint)
	for _, path := range summary.Written {
		fmt.Fprintf(w, "Wrote %s\n", path)
	}

	if summary.BuildSeq > 0 {
		fmt.Fprintf(w, "Recorded build #%d\n", summary.BuildSeq)
		for _, c := range summary.Drift {
			fmt.Fprintf(w, "  drift: %s %s %s\n", c.Kind, c.Message, c.Detail)
		}
	}

	return nil
}

// marshalIR renders the bus as indented JSON. The canonical form is
// used only for hashing.
func marshalIR(bus *ir.Bus) ([]byte, error) {
	data, err := json.MarshalIndent(bus, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshaling IR: %w", err)
	}
	return append(data, '\n'), nil
}

// outputFile is one artifact waiting to be written.
type outputFile struct {
	Name string
	Path string
	Data []byte
}

// writeOutputs stages every file as a temporary next to its target and
// renames them into place only once all of them are written. On a failed
// write no target is touched.
func writeOutputs(files []outputFile) error {
	temps := make([]string, 0, len(files))
	defer func() {
		for _, tmp := range temps {
			os.Remove(tmp)
		}
	}()

	for _, f := range files {
		tmp, err := stageFile(f)
		if err != nil {
			return fmt.Errorf("writing %s: %w", f.Name, err)
		}
		temps = append(temps, tmp)
	}

	for i, f := range files {
		if err := os.Rename(temps[i], f.Path); err != nil {
			return fmt.Errorf("writing %s: %w", f.Name, err)
		}
	}
	return nil
}

func stageFile(f outputFile) (string, error) {
	tmp, err := os.CreateTemp(filepath.Dir(f.Path), "."+filepath.Base(f.Path)+".tmp*")
	if err != nil {
		return "", err
	}
	name := tmp.Name()
	if _, err := tmp.Write(f.Data); err != nil {
		tmp.Close()
		os.Remove(name)
		return "", err
	}
	if err := tmp.Chmod(0644); err != nil {
		tmp.Close()
		os.Remove(name)
		return "", err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(name)
		return "", err
	}
	return name, nil
}
