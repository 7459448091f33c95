package clipboard

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"runtime"
	"strings"

	"github.com/atotto/clipboard"
)

// ErrNoTool is returned when no clipboard mechanism is available
var ErrNoTool = errors.New("no clipboard tool found (install xclip, xsel, or wl-clipboard)")

// Service copies text to and from the system clipboard
type Service interface {
	Read(ctx context.Context) (string, error)
	Write(ctx context.Context, text string) error
}

type clipboardService struct {
	logger  *slog.Logger
	command []string // user override, copy direction only

	// swapped in tests
	primaryWrite func(string) error
	primaryRead  func() (string, error)
	lookPath     func(string) (string, error)
	wsl          func() bool
}

// NewService creates a clipboard service. command, when set, replaces the
// platform copy tools (for example "wl-copy --primary").
func NewService(logger *slog.Logger, command string) Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &clipboardService{
		logger:       logger,
		command:      parseCommand(command),
		primaryWrite: clipboard.WriteAll,
		primaryRead:  clipboard.ReadAll,
		lookPath:     exec.LookPath,
		wsl:          isWSL,
	}
}

// Read returns the clipboard contents
func (s *clipboardService) Read(ctx context.Context) (string, error) {
	text, err := s.primaryRead()
	if err == nil {
		return strings.TrimSpace(text), nil
	}
	s.logger.Debug("primary clipboard read failed", "error", err)

	argv, err := s.readCommand()
	if err != nil {
		return "", err
	}

	out, err := exec.CommandContext(ctx, argv[0], argv[1:]...).Output()
	if err != nil {
		return "", fmt.Errorf("failed to execute clipboard command: %w", err)
	}
	return strings.TrimSpace(string(out)), nil
}

// Write copies text to the clipboard, falling back to command-line tools
// when the native mechanism is unavailable
func (s *clipboardService) Write(ctx context.Context, text string) error {
	if len(s.command) == 0 {
		err := s.primaryWrite(text)
		if err == nil {
			s.logger.Debug("copied to clipboard", "method", "native", "text_length", len(text))
			return nil
		}
		s.logger.Warn("failed to copy to clipboard using primary method", "error", err)
	}

	argv, err := s.writeCommand()
	if err != nil {
		return err
	}

	cmd := exec.CommandContext(ctx, argv[0], argv[1:]...)
	cmd.Stdin = strings.NewReader(text)
	if err := cmd.Run(); err != nil {
		s.logger.Error("failed to copy to clipboard", "error", err, "command", argv[0], "os", runtime.GOOS)
		return fmt.Errorf("clipboard command %s: %w", argv[0], err)
	}

	s.logger.Debug("copied to clipboard", "method", argv[0], "text_length", len(text))
	return nil
}

func (s *clipboardService) writeCommand() ([]string, error) {
	if len(s.command) > 0 {
		return s.command, nil
	}

	switch runtime.GOOS {
	case "windows":
		return []string{"clip.exe"}, nil
	case "darwin":
		return []string{"pbcopy"}, nil
	}

	if s.wsl() {
		return []string{"clip.exe"}, nil
	}
	return s.firstAvailable(
		[]string{"wl-copy"},
		[]string{"xclip", "-selection", "clipboard"},
		[]string{"xsel", "--clipboard", "--input"},
	)
}

func (s *clipboardService) readCommand() ([]string, error) {
	switch runtime.GOOS {
	case "windows":
		return []string{"powershell.exe", "-command", "Get-Clipboard"}, nil
	case "darwin":
		return []string{"pbpaste"}, nil
	}

	if s.wsl() {
		return []string{"powershell.exe", "-command", "Get-Clipboard"}, nil
	}
	return s.firstAvailable(
		[]string{"wl-paste"},
		[]string{"xclip", "-selection", "clipboard", "-o"},
		[]string{"xsel", "--clipboard", "--output"},
	)
}

func (s *clipboardService) firstAvailable(candidates ...[]string) ([]string, error) {
	for _, argv := range candidates {
		if _, err := s.lookPath(argv[0]); err == nil {
			return argv, nil
		}
	}
	return nil, ErrNoTool
}

// parseCommand splits a command line on spaces, honoring single and
// double quotes
func parseCommand(command string) []string {
	var parts []string
	var current strings.Builder
	var inQuotes bool
	var quoteChar rune

	for _, char := range command {
		switch {
		case char == '\'' || char == '"':
			if !inQuotes {
				inQuotes = true
				quoteChar = char
			} else if char == quoteChar {
				inQuotes = false
			} else {
				current.WriteRune(char)
			}
		case char == ' ' && !inQuotes:
			if current.Len() > 0 {
				parts = append(parts, current.String())
				current.Reset()
			}
		default:
			current.WriteRune(char)
		}
	}

	if current.Len() > 0 {
		parts = append(parts, current.String())
	}
	return parts
}

// isWSL reports whether the kernel is a WSL kernel
func isWSL() bool {
	data, err := os.ReadFile("/proc/version")
	if err != nil {
		return false
	}
	version := strings.ToLower(string(data))
	return strings.Contains(version, "microsoft") || strings.Contains(version, "wsl")
}
