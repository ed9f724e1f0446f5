package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/benbjohnson/wile"
	"github.com/fatih/color"
	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/yaml.v3"
)

// DefaultConfigPath is read when --config is not given, if it exists.
const DefaultConfigPath = ".wile.yaml"

var (
	errorStyle = color.New(color.FgRed, color.Bold)
	sinkStyle  = color.New(color.FgYellow)
)

func main() {
	if err := run(context.Background(), os.Args[1:]); err != nil {
		errorStyle.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string) error {
	m := NewMain()
	m.Stdin, m.Stdout, m.Stderr = os.Stdin, os.Stdout, os.Stderr

	cmd := m.Command()
	cmd.SetArgs(args)
	return cmd.ExecuteContext(ctx)
}

// Config holds the defaults read from the configuration file.
type Config struct {
	Encoding string `yaml:"encoding"`
	Depth    int    `yaml:"depth"`
	LogLevel string `yaml:"log_level"`
}

// DefaultConfig returns the configuration used when no file is present.
func DefaultConfig() Config {
	return Config{
		Encoding: "smt",
		Depth:    10,
		LogLevel: "warn",
	}
}

// ReadConfigFile reads path over the defaults. A missing file is an error
// only if required is set.
func ReadConfigFile(path string, required bool) (Config, error) {
	config := DefaultConfig()

	buf, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) && !required {
		return config, nil
	} else if err != nil {
		return config, err
	}

	if err := yaml.Unmarshal(buf, &config); err != nil {
		return config, fmt.Errorf("%s: %w", path, err)
	}
	return config, nil
}

// Main holds the shared state of every command.
type Main struct {
	Config Config
	Logger *zap.Logger

	Stdin  io.Reader
	Stdout io.Writer
	Stderr io.Writer

	configPath string
	logLevel   string
	noColor    bool
}

// NewMain returns a new instance of Main with default configuration.
func NewMain() *Main {
	return &Main{
		Config: DefaultConfig(),
		Logger: zap.NewNop(),
		Stdin:  os.Stdin,
		Stdout: io.Discard,
		Stderr: io.Discard,
	}
}

// Command returns the root command with every subcommand attached.
func (m *Main) Command() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "wile",
		Short: "Wile compiles, runs and model checks WHILE programs",
		Long: `
Wile is a toolchain for a small WHILE language: it compiles programs to
jump-addressed instructions, interprets them, unrolls their explicit state
space and encodes their transition relation as logic formulas.
`[1:],
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error { return m.setup(cmd) },
	}
	cmd.SetIn(m.Stdin)
	cmd.SetOut(m.Stdout)
	cmd.SetErr(m.Stderr)

	flags := cmd.PersistentFlags()
	flags.StringVar(&m.configPath, "config", "", "configuration file (default "+DefaultConfigPath+")")
	flags.StringVar(&m.logLevel, "log-level", "", "log level: debug, info, warn or error")
	flags.BoolVar(&m.noColor, "no-color", false, "disable colored output")

	cmd.AddCommand(
		m.newCompileCommand(),
		m.newRunCommand(),
		m.newShellCommand(),
		m.newUnrollCommand(),
		m.newEncodeCommand(),
		m.newCheckCommand(),
	)
	return cmd
}

// setup loads configuration, builds the logger and configures color.
func (m *Main) setup(cmd *cobra.Command) error {
	path, required := m.configPath, true
	if path == "" {
		path, required = DefaultConfigPath, false
	}
	config, err := ReadConfigFile(path, required)
	if err != nil {
		return err
	}
	m.Config = config

	if m.logLevel != "" {
		m.Config.LogLevel = m.logLevel
	}
	if m.Logger, err = NewLogger(m.Config.LogLevel, m.Stderr); err != nil {
		return err
	}

	if m.noColor || !isTerminal(m.Stdout) {
		color.NoColor = true
	}
	return nil
}

// NewLogger returns a console logger writing to w at the named level.
func NewLogger(level string, w io.Writer) (*zap.Logger, error) {
	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		return nil, err
	}

	enc := zap.NewDevelopmentEncoderConfig()
	enc.TimeKey = ""
	core := zapcore.NewCore(zapcore.NewConsoleEncoder(enc), zapcore.AddSync(w), lvl)
	return zap.New(core), nil
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && (isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd()))
}

// readProgram compiles the file at path.
func readProgram(path string) (wile.Program, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	p, err := wile.Compile(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return p, nil
}

// formatState returns s as text, highlighting the sink state.
func formatState(s wile.State) string {
	if s.Location == wile.SinkLocation {
		return sinkStyle.Sprint(s.String())
	}
	return s.String()
}
