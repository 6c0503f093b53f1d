// Package commands implements the privy command line: the privilege and
// right commands, their planning and the configuration they run with.
package commands

import (
	"fmt"
	"io"
	"sort"

	"github.com/Showmax/go-fqdn"
	"github.com/pkg/errors"
	"github.com/shirou/gopsutil/v3/process"
	"github.com/spf13/cobra"

	"github.com/jet/privy/log"
	"github.com/jet/privy/metrics"
	"github.com/jet/privy/privilege"
	"github.com/jet/privy/status"
	"github.com/jet/privy/version"
	"github.com/jet/privy/win32"
)

// ErrItemsFailed is returned when some of the requested names or accounts
// failed; each failure has been logged
var ErrItemsFailed = errors.New("one or more items failed")

// App runs the privy commands against a set of natives
type App struct {
	Natives Natives
	Out     io.Writer

	// NewLogger builds the logger once the configuration is resolved
	NewLogger func(cfg log.LogConfig) (log.Logger, error)
	// ProcessName names the process targeted with --pid, for the logs
	ProcessName func(pid int32) (string, error)
	// Hostname is the computer name reported when none is configured
	Hostname func() (string, error)

	computer    string
	pid         int32
	json        bool
	whatIf      bool
	verbose     bool
	configFile  string
	metricsFile string

	cfg      Config
	logger   log.Logger
	metrics  *metrics.Metrics
	printer  *Printer
	failures int
}

func NewApp(natives Natives, out io.Writer) *App {
	return &App{
		Natives:     natives,
		Out:         out,
		NewLogger:   log.NewLogger,
		ProcessName: processName,
		Hostname:    fqdn.FqdnHostname,
		logger:      log.Nop(),
	}
}

func processName(pid int32) (string, error) {
	p, err := process.NewProcess(pid)
	if err != nil {
		return "", err
	}
	return p.Name()
}

// Command builds the root command
func (a *App) Command() *cobra.Command {
	root := &cobra.Command{
		Use:               "privy",
		Short:             "Manage process token privileges and LSA account rights",
		Version:           version.GetInfo().FullString(true),
		SilenceErrors:     true,
		SilenceUsage:      true,
		PersistentPreRunE: a.setup,
	}
	flags := root.PersistentFlags()
	flags.StringVar(&a.computer, "computer", "", "Computer whose LSA policy is managed (default: local)")
	flags.Int32Var(&a.pid, "pid", 0, "Process whose token is managed (default: this process)")
	flags.BoolVar(&a.json, "json", false, "Write JSON even on a terminal")
	flags.BoolVar(&a.whatIf, "what-if", false, "Show the changes without making them")
	flags.BoolVarP(&a.verbose, "verbose", "v", false, "Log at debug level")
	flags.StringVar(&a.configFile, "config", "", "INI configuration file (default: $"+EnvPrivyConfig+")")
	flags.StringVar(&a.metricsFile, "metrics-file", "", "Write metrics in text format to this file on exit")

	root.AddCommand(a.privilegeCommand(), a.rightCommand(), a.versionCommand())
	return root
}

// Execute runs the command line args and releases everything it set up
func (a *App) Execute(args []string) error {
	root := a.Command()
	root.SetArgs(args)
	root.SetOut(a.Out)
	err := root.Execute()
	a.finish()
	return err
}

func (a *App) setup(cmd *cobra.Command, args []string) error {
	cfg, err := LoadConfig(a.configFile)
	if err != nil {
		return err
	}
	if a.computer != "" {
		cfg.ComputerName = a.computer
	}
	if a.metricsFile != "" {
		cfg.MetricsFile = a.metricsFile
	}
	cfg.Log.Verbose = cfg.Log.Verbose || a.verbose
	a.cfg = cfg

	logger, err := a.NewLogger(cfg.Log)
	if err != nil {
		return err
	}
	fields := version.GetInfo().Fields()
	fields["command"] = cmd.CommandPath()
	a.logger = logger.WithFields(fields)
	win32.SetLogger(a.logger)

	a.metrics = &metrics.Metrics{
		Namespace: "privy",
		Labels:    map[string]string{"computer": a.computerName()},
	}
	a.metrics.Init()
	status.SetObserver(a.metrics)

	a.printer = NewPrinter(a.Out, a.json)
	a.failures = 0
	return nil
}

func (a *App) finish() {
	status.SetObserver(nil)
	win32.SetLogger(nil)
	if a.metrics != nil && a.cfg.MetricsFile != "" {
		a.logger.Error(a.metrics.WriteTextfile(a.cfg.MetricsFile), "unable to write metrics file")
	}
	a.logger.Error(a.logger.Close(), "unable to close log file")
	a.logger = log.Nop()
}

// system is the LSA target; empty is the local computer
func (a *App) system() string {
	return a.cfg.ComputerName
}

// computerName is the name reported in RightInfo
func (a *App) computerName() string {
	if a.cfg.ComputerName != "" {
		return a.cfg.ComputerName
	}
	if a.Hostname != nil {
		if name, err := a.Hostname(); err == nil && name != "" {
			return name
		}
	}
	return "localhost"
}

// fail logs the per-item failures and counts them
func (a *App) fail(failed map[string]error) {
	names := make([]string, 0, len(failed))
	for name := range failed {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		a.failures++
		a.logger.WithFields(map[string]interface{}{"name": name}).Error(failed[name], "item failed")
	}
}

// result is the error a command returns once every item was processed
func (a *App) result() error {
	if a.failures > 0 {
		return ErrItemsFailed
	}
	return nil
}

func (a *App) privilegeEngine() (*privilege.Engine, error) {
	if a.Natives.Tokens == nil {
		return nil, errors.New("privy: no token API available")
	}
	return privilege.New(a.Natives.Tokens), nil
}

// openProcess returns the target process and the function that releases it
func (a *App) openProcess(e *privilege.Engine) (win32.Handle, func(), error) {
	if a.pid == 0 {
		return e.CurrentProcess(), func() {}, nil
	}
	if name, err := a.ProcessName(a.pid); err == nil {
		a.logger.Debugf("target process %d is %s", a.pid, name)
	} else {
		a.logger.Warnf("unable to name process %d: %v", a.pid, err)
	}
	h, err := e.OpenProcess(uint32(a.pid))
	if err != nil {
		return win32.InvalidHandle, nil, err
	}
	return h, func() {
		a.logger.Error(e.CloseProcess(h), "unable to close process handle")
	}, nil
}

func (a *App) versionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show privy version information",
		Args:  cobra.NoArgs,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			_, err := fmt.Fprintln(cmd.OutOrStdout(), version.GetInfo().FullString(true))
			return err
		},
	}
}
