// Package cli holds the interactive terminal menus of statload.
package cli

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"
)

// Console prompts
const (
	choicePrompt   = "\nInserisci il numero della tua scelta (0 per tornare indietro): "
	invalidChoice  = "Scelta non valida. Riprova."
	exitPrompt     = "\nVuoi uscire dallo script? (yes/no): "
	closingMessage = "Chiusura del processo..."
)

// Console reads answers from in and writes menus to out
type Console struct {
	in  *bufio.Reader
	out io.Writer

	title   *color.Color
	success *color.Color
	warning *color.Color
	failure *color.Color
}

// NewConsole creates a console over in and out
func NewConsole(in io.Reader, out io.Writer) *Console {
	return &Console{
		in:      bufio.NewReader(in),
		out:     out,
		title:   color.New(color.FgCyan, color.Bold),
		success: color.New(color.FgGreen),
		warning: color.New(color.FgYellow),
		failure: color.New(color.FgRed),
	}
}

// Out is the writer menus are printed to
func (c *Console) Out() io.Writer {
	return c.out
}

// Ask prints question and returns the trimmed answer. A last line without
// newline is returned; after it Ask returns io.EOF.
func (c *Console) Ask(question string) (string, error) {
	fmt.Fprint(c.out, question)
	line, err := c.in.ReadString('\n')
	if err != nil {
		if errors.Is(err, io.EOF) && line != "" {
			return strings.TrimSpace(line), nil
		}
		return "", err
	}
	return strings.TrimSpace(line), nil
}

// Confirm asks a yes/no question. "si" and "yes" are a yes.
func (c *Console) Confirm(question string) (bool, error) {
	answer, err := c.Ask(question)
	if err != nil {
		return false, err
	}
	switch strings.ToLower(answer) {
	case "si", "sì", "yes":
		return true, nil
	}
	return false, nil
}

// AskToExit asks whether to leave. End of input counts as a yes.
func (c *Console) AskToExit() bool {
	ok, err := c.Confirm(exitPrompt)
	if err != nil || ok {
		fmt.Fprintln(c.out, closingMessage)
		return true
	}
	return false
}

// Choose prints options numbered from 1 and reads a number between 0 and
// len(options). Invalid answers are reported and asked again.
func (c *Console) Choose(header []string, options [][]string) (int, error) {
	c.Table(header, numbered(options))
	for {
		answer, err := c.Ask(choicePrompt)
		if err != nil {
			return 0, err
		}
		n, err := strconv.Atoi(answer)
		if err == nil && n >= 0 && n <= len(options) {
			return n, nil
		}
		c.Warn(invalidChoice)
	}
}

func numbered(rows [][]string) [][]string {
	out := make([][]string, len(rows))
	for i, r := range rows {
		out[i] = append([]string{strconv.Itoa(i + 1)}, r...)
	}
	return out
}

// Table renders rows under header
func (c *Console) Table(header []string, rows [][]string) {
	table := tablewriter.NewWriter(c.out)
	table.SetHeader(header)
	table.SetAutoWrapText(false)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.AppendBulk(rows)
	table.Render()
}

// Title prints a highlighted line preceded by a blank line
func (c *Console) Title(format string, args ...any) {
	fmt.Fprintln(c.out)
	c.title.Fprintf(c.out, format+"\n", args...)
}

// Println prints a plain line
func (c *Console) Println(format string, args ...any) {
	fmt.Fprintf(c.out, format+"\n", args...)
}

// Success prints a line in green
func (c *Console) Success(format string, args ...any) {
	c.success.Fprintf(c.out, format+"\n", args...)
}

// Warn prints a line in yellow
func (c *Console) Warn(format string, args ...any) {
	c.warning.Fprintf(c.out, format+"\n", args...)
}

// Error prints a line in red
func (c *Console) Error(format string, args ...any) {
	c.failure.Fprintf(c.out, format+"\n", args...)
}
