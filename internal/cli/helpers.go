package cli

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"golang.org/x/term"
	"gopkg.in/yaml.v3"

	"github.com/yapishu/up8-ticket/internal/validation"
)

var (
	green  = color.New(color.FgGreen, color.Bold)
	yellow = color.New(color.FgYellow)
	red    = color.New(color.FgRed, color.Bold)
	cyan   = color.New(color.FgCyan, color.Bold)
)

// stdinTerminal reports whether the command reads from an interactive
// terminal.
func stdinTerminal(cmd *cobra.Command) bool {
	f, ok := cmd.InOrStdin().(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

// readSecret reads one line of secret input. On a terminal the input is not
// echoed; otherwise the first non-empty line is used.
func readSecret(cmd *cobra.Command, prompt string) (string, error) {
	if stdinTerminal(cmd) {
		fmt.Fprint(cmd.ErrOrStderr(), prompt)
		f := cmd.InOrStdin().(*os.File)
		b, err := term.ReadPassword(int(f.Fd()))
		fmt.Fprintln(cmd.ErrOrStderr())
		if err != nil {
			return "", err
		}
		return strings.TrimSpace(string(b)), nil
	}

	scanner := bufio.NewScanner(cmd.InOrStdin())
	for scanner.Scan() {
		if line := strings.TrimSpace(scanner.Text()); line != "" {
			return line, nil
		}
	}
	if err := scanner.Err(); err != nil {
		return "", err
	}
	return "", fmt.Errorf("no input provided")
}

// readPassphrase reads a passphrase from file, or prompts for one.
func readPassphrase(cmd *cobra.Command, file, prompt string) ([]byte, error) {
	if file != "" {
		data, err := os.ReadFile(file)
		if err != nil {
			return nil, fmt.Errorf("failed to read passphrase file: %w", err)
		}
		pass := []byte(strings.TrimRight(string(data), "\r\n"))
		if len(pass) == 0 {
			return nil, fmt.Errorf("passphrase file is empty")
		}
		return pass, nil
	}

	pass, err := readSecret(cmd, prompt)
	if err != nil {
		return nil, err
	}
	return []byte(pass), nil
}

// confirm asks a yes/no question on an interactive terminal. Without a
// terminal it answers no.
func confirm(cmd *cobra.Command, question string) bool {
	if !stdinTerminal(cmd) {
		return false
	}
	fmt.Fprintf(cmd.ErrOrStderr(), "%s [y/N]: ", question)
	scanner := bufio.NewScanner(cmd.InOrStdin())
	if !scanner.Scan() {
		return false
	}
	answer := strings.ToLower(strings.TrimSpace(scanner.Text()))
	return answer == "y" || answer == "yes"
}

// readLines collects share lines until a blank line (on a terminal) or EOF.
func readLines(cmd *cobra.Command, prompt string) ([]string, error) {
	interactive := stdinTerminal(cmd)
	if interactive {
		fmt.Fprintln(cmd.ErrOrStderr())
		yellow.Fprintln(cmd.ErrOrStderr(), prompt)
		fmt.Fprintln(cmd.ErrOrStderr(), "Press Enter on an empty line when done")
		fmt.Fprintln(cmd.ErrOrStderr())
	}

	var lines []string
	scanner := bufio.NewScanner(cmd.InOrStdin())
	for {
		if interactive {
			fmt.Fprintf(cmd.ErrOrStderr(), "Share %d: ", len(lines)+1)
		}
		if !scanner.Scan() {
			break
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			if interactive && len(lines) > 0 {
				break
			}
			continue
		}
		if strings.HasPrefix(line, "#") {
			continue
		}
		lines = append(lines, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return lines, nil
}

func writeJSON(w io.Writer, v any) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(v)
}

func writeYAML(w io.Writer, v any) error {
	encoder := yaml.NewEncoder(w)
	encoder.SetIndent(2)
	if err := encoder.Encode(v); err != nil {
		return err
	}
	return encoder.Close()
}

// writeStructured renders v as json or yaml. It reports false for the text
// format so the caller can print its own layout.
func writeStructured(w io.Writer, format string, v any) (bool, error) {
	if err := validation.ValidateFormat(format); err != nil {
		return false, err
	}
	switch format {
	case "json":
		return true, writeJSON(w, v)
	case "yaml":
		return true, writeYAML(w, v)
	default:
		return false, nil
	}
}

func securityNotice(w io.Writer) {
	fmt.Fprintln(w)
	red.Fprintln(w, "SECURITY NOTICE:")
	fmt.Fprintln(w, "- Anyone holding the ticket controls everything derived from it")
	fmt.Fprintln(w, "- Store each share in a different secure location")
	fmt.Fprintln(w, "- Test recovery with the minimum number of shares before relying on it")
}
