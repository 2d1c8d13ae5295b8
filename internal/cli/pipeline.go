package cli

import (
	"io"
	"log/slog"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/mlprov/internal/prov"
)

// pipeline is the state shared by the stages of one run: the document
// stream and the streams documents are read from and written to.
type pipeline struct {
	in     io.Reader
	out    io.Writer
	logger *slog.Logger
	docs   []*prov.Document
}

// stageTable lists the stage constructors in the order they are documented.
var stageTable = []struct {
	name string
	new  func(*pipeline) *cobra.Command
}{
	{"extract", newExtractCommand},
	{"load", newLoadCommand},
	{"save", newSaveCommand},
	{"merge", newMergeCommand},
	{"transform", newTransformCommand},
	{"statistics", newStatisticsCommand},
}

func newStage(name string, p *pipeline) *cobra.Command {
	for _, s := range stageTable {
		if s.name == name {
			return s.new(p)
		}
	}
	return nil
}

// parseStages splits args at stage names and parses each stage's flags.
// Nothing runs until every stage parsed. It returns nil stages when a
// stage printed its help.
func parseStages(p *pipeline, args []string) ([]*cobra.Command, error) {
	segments, err := splitStages(p, args)
	if err != nil {
		return nil, err
	}

	var out []*cobra.Command
	for _, seg := range segments {
		cmd := seg.cmd
		cmd.SetOut(p.out)
		cmd.InitDefaultHelpFlag()
		if err := cmd.ParseFlags(seg.args); err != nil {
			return nil, WrapExitError(ExitUsage, cmd.Name(), err)
		}
		if help, _ := cmd.Flags().GetBool("help"); help {
			return nil, cmd.Help()
		}
		if err := cmd.ValidateArgs(cmd.Flags().Args()); err != nil {
			return nil, WrapExitError(ExitUsage, cmd.Name(), err)
		}
		if err := cmd.ValidateRequiredFlags(); err != nil {
			return nil, WrapExitError(ExitUsage, cmd.Name(), err)
		}
		if cmd.PreRunE != nil {
			if err := cmd.PreRunE(cmd, cmd.Flags().Args()); err != nil {
				return nil, WrapExitError(ExitUsage, cmd.Name(), err)
			}
		}
		out = append(out, cmd)
	}
	return out, nil
}

type segment struct {
	cmd  *cobra.Command
	args []string
}

// splitStages cuts args into one segment per stage. A stage name that is
// the value of the preceding flag does not start a new stage.
func splitStages(p *pipeline, args []string) ([]segment, error) {
	if len(args) == 0 {
		return nil, nil
	}
	first := newStage(args[0], p)
	if first == nil {
		return nil, usageError("unknown stage %q, expected one of %s", args[0], strings.Join(stageNames(), ", "))
	}

	segments := []segment{{cmd: first}}
	for i := 1; i < len(args); i++ {
		current := &segments[len(segments)-1]
		tok := args[i]
		if next := newStage(tok, p); next != nil && !takesValue(current.cmd, args[i-1]) {
			segments = append(segments, segment{cmd: next})
			continue
		}
		current.args = append(current.args, tok)
	}
	return segments, nil
}

// takesValue reports whether tok is a flag of cmd that consumes the next
// argument as its value.
func takesValue(cmd *cobra.Command, tok string) bool {
	if !strings.HasPrefix(tok, "-") || tok == "-" || tok == "--" || strings.Contains(tok, "=") {
		return false
	}
	var flagName string
	if strings.HasPrefix(tok, "--") {
		flagName = tok[2:]
	} else if len(tok) == 2 {
		if f := cmd.Flags().ShorthandLookup(tok[1:]); f != nil {
			flagName = f.Name
		}
	}
	f := cmd.Flags().Lookup(flagName)
	return f != nil && f.NoOptDefVal == ""
}

func stageNames() []string {
	names := make([]string, 0, len(stageTable))
	for _, s := range stageTable {
		names = append(names, s.name)
	}
	return names
}
