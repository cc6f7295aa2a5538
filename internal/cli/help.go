package cli

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/law-makers/mallcrawl/internal/ui"
)

const minFlagWidth = 28

func heading(w io.Writer, title string) {
	fmt.Fprintf(w, "\n%s%s%s\n", ui.ColorBold+ui.ColorWhite, title, ui.ColorReset)
}

// helpFunc prints colorized help to stdout.
func helpFunc(cmd *cobra.Command, _ []string) {
	w := os.Stdout
	fmt.Fprintf(w, "\n%s%s%s\n", ui.ColorBold+ui.ColorCyan, strings.ToUpper(cmd.Name()), ui.ColorReset)
	if cmd.Short != "" {
		fmt.Fprintln(w, cmd.Short)
	}
	if cmd.Long != "" && cmd.Long != cmd.Short {
		fmt.Fprintf(w, "\n%s\n", wrapText(cmd.Long, 80))
	}

	writeUsage(w, cmd)

	if cmd.HasExample() {
		heading(w, "Examples")
		for _, line := range strings.Split(cmd.Example, "\n") {
			line = strings.TrimSpace(line)
			switch {
			case line == "":
				continue
			case strings.HasPrefix(line, "#"):
				fmt.Fprintf(w, "\n  %s%s%s\n", ui.ColorDim, line, ui.ColorReset)
			default:
				fmt.Fprintf(w, "  %s$ %s%s\n", ui.ColorGreen, line, ui.ColorReset)
			}
		}
	}

	writeCommands(w, cmd)
	if cmd.HasAvailableLocalFlags() {
		heading(w, "Flags")
		writeFlags(w, cmd.LocalFlags().FlagUsages())
	}
	if cmd.HasAvailableInheritedFlags() {
		heading(w, "Global Flags")
		writeFlags(w, cmd.InheritedFlags().FlagUsages())
	}
	if cmd.HasAvailableSubCommands() {
		fmt.Fprintf(w, "\n%sUse \"%s <command> --help\" for more information about a command.%s\n",
			ui.ColorDim, cmd.CommandPath(), ui.ColorReset)
	}
	fmt.Fprintln(w)
}

// usageFunc prints a short colorized usage to stderr.
func usageFunc(cmd *cobra.Command) error {
	w := os.Stderr
	writeUsage(w, cmd)
	writeCommands(w, cmd)
	if cmd.HasAvailableLocalFlags() {
		heading(w, "Flags")
		writeFlags(w, cmd.LocalFlags().FlagUsages())
	}
	fmt.Fprintf(w, "\n%sUse \"%s --help\" for more information.%s\n", ui.ColorDim, cmd.CommandPath(), ui.ColorReset)
	return nil
}

func writeUsage(w io.Writer, cmd *cobra.Command) {
	heading(w, "Usage")
	if cmd.Runnable() {
		fmt.Fprintf(w, "  %s%s%s\n", ui.ColorCyan, cmd.UseLine(), ui.ColorReset)
	}
	if cmd.HasAvailableSubCommands() {
		fmt.Fprintf(w, "  %s%s%s %s<command>%s %s[flags]%s\n",
			ui.ColorCyan, cmd.CommandPath(), ui.ColorReset,
			ui.ColorYellow, ui.ColorReset,
			ui.ColorDim, ui.ColorReset)
	}
}

func writeCommands(w io.Writer, cmd *cobra.Command) {
	if !cmd.HasAvailableSubCommands() {
		return
	}
	heading(w, "Commands")
	width := 0
	var cmds []*cobra.Command
	for _, c := range cmd.Commands() {
		if c.IsAvailableCommand() && c.Name() != "help" {
			cmds = append(cmds, c)
			width = max(width, len(c.Name()))
		}
	}
	for _, c := range cmds {
		fmt.Fprintf(w, "  %s%-*s%s  %s%s%s\n", ui.ColorCyan, width, c.Name(), ui.ColorReset, ui.ColorDim, c.Short, ui.ColorReset)
	}
}

// writeFlags re-aligns pflag's usage block and colors flag names.
func writeFlags(w io.Writer, usages string) {
	lines := strings.Split(usages, "\n")

	width := minFlagWidth
	for _, line := range lines {
		trimmed := strings.TrimLeft(line, " ")
		if strings.HasPrefix(trimmed, "-") {
			flag, _, _ := strings.Cut(trimmed, "  ")
			width = max(width, len(strings.TrimSpace(flag)))
		}
	}

	for _, line := range lines {
		trimmed := strings.TrimLeft(line, " ")
		if trimmed == "" {
			continue
		}
		if !strings.HasPrefix(trimmed, "-") {
			fmt.Fprintf(w, "%s%s%s%s\n", strings.Repeat(" ", width+4), ui.ColorDim, trimmed, ui.ColorReset)
			continue
		}
		flag, desc, ok := strings.Cut(trimmed, "  ")
		if !ok {
			fmt.Fprintf(w, "  %s%s%s\n", ui.ColorGreen, trimmed, ui.ColorReset)
			continue
		}
		fmt.Fprintf(w, "  %s%-*s%s  %s%s%s\n",
			ui.ColorGreen, width, strings.TrimSpace(flag), ui.ColorReset,
			ui.ColorDim, strings.TrimSpace(desc), ui.ColorReset)
	}
}

// wrapText wraps text at width, keeping paragraphs and list items intact.
func wrapText(text string, width int) string {
	var paragraphs []string
	for _, para := range strings.Split(text, "\n\n") {
		var out []string
		for _, line := range strings.Split(para, "\n") {
			line = strings.TrimSpace(line)
			if line == "" {
				continue
			}
			if strings.HasPrefix(line, "-") || strings.HasPrefix(line, "*") {
				out = append(out, line)
				continue
			}
			var cur strings.Builder
			for _, word := range strings.Fields(line) {
				if cur.Len() > 0 && cur.Len()+1+len(word) > width {
					out = append(out, cur.String())
					cur.Reset()
				}
				if cur.Len() > 0 {
					cur.WriteByte(' ')
				}
				cur.WriteString(word)
			}
			if cur.Len() > 0 {
				out = append(out, cur.String())
			}
		}
		if len(out) > 0 {
			paragraphs = append(paragraphs, strings.Join(out, "\n"))
		}
	}
	return strings.Join(paragraphs, "\n\n")
}
