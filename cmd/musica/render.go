package main

import (
	"encoding/json"
	"io"
	"os"
	"strconv"
	"unicode/utf8"

	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"musica/internal/queue"
)

const maxContentWidth = 60

// writeJSON encodes v as indented JSON to the command's stdout.
func writeJSON(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func shouldColorize(writer io.Writer) bool {
	file, ok := writer.(*os.File)
	if !ok {
		return false
	}
	fd := file.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

func statusLabel(status string, colorize bool) string {
	if !colorize {
		return status
	}
	switch queue.Status(status) {
	case queue.StatusFailed:
		return text.FgRed.Sprint(status)
	case queue.StatusRunning:
		return text.FgYellow.Sprint(status)
	default:
		return status
	}
}

func countLabel(n int, colorize bool, warn bool) string {
	label := strconv.Itoa(n)
	if colorize && warn && n > 0 {
		return text.FgRed.Sprint(label)
	}
	return label
}

func truncate(value string, width int) string {
	if utf8.RuneCountInString(value) <= width {
		return value
	}
	runes := []rune(value)
	return string(runes[:width-1]) + "…"
}
