package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/spf13/cobra"

	"github.com/mvp-joe/archextract/internal/config"
	"github.com/mvp-joe/archextract/internal/extract"
	"github.com/mvp-joe/archextract/internal/indexer"
	"github.com/mvp-joe/archextract/internal/syntax"
)

// validateCmd represents the validate command
var validateCmd = &cobra.Command{
	Use:   "validate [dir]",
	Short: "Check the configuration and print the resolved modules",
	Long: `Validate loads archextract.yaml, resolves every module's extends chain and
prints the rule each component type ends up with. No source files are read.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		rootDir := "."
		if len(args) > 0 {
			rootDir = args[0]
		}
		return runValidate(cmd.OutOrStdout(), rootDir, configPath())
	},
}

func init() {
	rootCmd.AddCommand(validateCmd)
}

func runValidate(out io.Writer, rootDir, configFile string) error {
	p, err := loadProject(rootDir, configFile)
	if err != nil {
		return err
	}

	fmt.Fprintf(out, "Config:  %s\n", p.configPath)
	fmt.Fprintf(out, "Include: %s\n", strings.Join(p.resolved.Include, ", "))
	fmt.Fprintf(out, "Sources: %s\n", describeExtensions(p.config.SourceExtensions()))
	fmt.Fprintf(out, "Ignore:  %s\n", strings.Join(p.resolved.Ignore, ", "))
	fmt.Fprintf(out, "Output:  %s\n", p.resolved.Output)
	fmt.Fprintln(out)

	fmt.Fprintf(out, "Modules (%d):\n", len(p.resolved.Modules))
	for _, m := range p.resolved.Modules {
		formatModule(out, m)
	}

	fmt.Fprintln(out, "✓ Configuration is valid")
	return nil
}

// describeExtensions lists the source extensions named by the include
// patterns and marks the ones no parser handles.
func describeExtensions(exts []string) string {
	if len(exts) == 0 {
		return "any"
	}
	parts := make([]string, 0, len(exts))
	for _, ext := range exts {
		if !indexer.SupportsExtension(ext) {
			ext += " (no parser, skipped)"
		}
		parts = append(parts, ext)
	}
	return strings.Join(parts, ", ")
}

func formatModule(out io.Writer, m *config.Module) {
	fmt.Fprintf(out, "  %s (%s)\n", m.Name, m.Path)
	for _, t := range config.BuiltinTypes {
		fmt.Fprintf(out, "    %-13s %s\n", string(t)+":", describeRule(m.Rules[t]))
	}

	names := make([]string, 0, len(m.CustomTypes))
	for name := range m.CustomTypes {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		fmt.Fprintf(out, "    %-13s %s\n", name+":", describeRule(m.CustomTypes[name]))
	}
	fmt.Fprintln(out)
}

// describeRule renders a compiled rule on one line.
// Example: "methods where {"hasDecorator":{"name":["Get"]}} extract route=fromDecoratorArg"
func describeRule(r *config.Rule) string {
	if r == nil {
		return "missing"
	}
	if r.NotUsed {
		return "notUsed"
	}

	var b strings.Builder
	switch r.Find {
	case syntax.KindClass:
		b.WriteString("classes")
	default:
		b.WriteString(string(r.Find) + "s")
	}
	if r.Where != nil {
		where, err := json.Marshal(r.Where)
		if err == nil {
			b.WriteString(" where " + string(where))
		}
	}

	if len(r.Extract) > 0 {
		fields := make([]string, 0, len(r.Extract))
		for field := range r.Extract {
			fields = append(fields, field)
		}
		sort.Strings(fields)

		parts := make([]string, 0, len(fields))
		for _, field := range fields {
			parts = append(parts, field+"="+ruleVariant(r.Extract[field]))
		}
		b.WriteString(" extract " + strings.Join(parts, ", "))
	}
	return b.String()
}

// ruleVariant names the extraction strategy as it is spelled in config.
func ruleVariant(r extract.Rule) string {
	name := fmt.Sprintf("%T", r)
	if i := strings.LastIndex(name, "."); i >= 0 {
		name = name[i+1:]
	}
	first, size := utf8.DecodeRuneInString(name)
	return string(unicode.ToLower(first)) + name[size:]
}
