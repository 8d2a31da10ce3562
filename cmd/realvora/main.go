package main

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"realvora-go/internal/app"
	"realvora-go/internal/config"
	"realvora-go/internal/ledger"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		printError(err)
		os.Exit(1)
	}
}

// printError prints ledger rejections as "error: <kind>: <reason>".
func printError(err error) {
	le, ok := ledger.AsError(err)
	if !ok {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		return
	}
	fmt.Fprintf(os.Stderr, "error: %s\n", le.Error())
	if full := err.Error(); full != le.Error() {
		fmt.Fprintf(os.Stderr, "  %s\n", full)
	}
}

var (
	caller  string // --as
	queued  bool   // --queue
	rootCmd = &cobra.Command{
		Use:           "realvora",
		Short:         "Fractional property ledger",
		SilenceErrors: true,
		SilenceUsage:  true,
	}
)

// loadConfig reads the config file named by the environment defaults.
func loadConfig() (*config.Config, error) {
	defaults, err := app.GetDefaults()
	if err != nil {
		return nil, fmt.Errorf("getting defaults: %w", err)
	}
	cfg, err := config.ReadFromFile(defaults["config_path"])
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}
	return cfg, nil
}

// newApp reads the config and creates an App. The caller must defer a.Close().
func newApp() (*app.App, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	a, err := app.NewApp(cfg)
	if err != nil {
		return nil, fmt.Errorf("initializing app: %w", err)
	}
	return a, nil
}

// mutate executes op as the --as caller, or queues it with --queue.
func mutate(op string, args any) error {
	if caller == "" {
		return errors.New("--as ADDRESS is required for this command")
	}
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.Close()

	if queued {
		call, err := a.Submit(caller, op, args)
		if err != nil {
			return err
		}
		fmt.Printf("Queued %s as call %s\n", op, call.ID)
		return nil
	}

	r, err := a.Run(caller, op, args)
	if r != nil {
		printReceipt(r)
	}
	return err
}

// query opens the app for a read-only command.
func query(fn func(a *app.App) error) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.Close()
	return fn(a)
}

func printReceipt(r *app.Receipt) {
	line := fmt.Sprintf("#%d  %s  block %d  %s", r.OperationID, r.Operation, r.Block, r.Status)
	if len(r.Result) > 0 {
		line += "  " + string(r.Result)
	}
	if r.Error != "" {
		line += "  " + r.Error
	}
	fmt.Println(line)
}

func parseUint(s, name string) (uint64, error) {
	v, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q", name, s)
	}
	return v, nil
}

// parseUints parses args positionally, naming each for error messages.
func parseUints(args []string, names ...string) ([]uint64, error) {
	out := make([]uint64, len(names))
	for i, name := range names {
		v, err := parseUint(args[i], name)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

var stdin = bufio.NewReader(os.Stdin)

// readPassphrase prompts on the terminal without echo. Piped input is read
// one line at a time.
func readPassphrase(prompt string) (string, error) {
	fd := int(os.Stdin.Fd())
	if !term.IsTerminal(fd) {
		line, err := stdin.ReadString('\n')
		if err != nil && line == "" {
			return "", fmt.Errorf("reading passphrase: %w", err)
		}
		return strings.TrimRight(line, "\r\n"), nil
	}

	fmt.Fprint(os.Stderr, prompt)
	b, err := term.ReadPassword(fd)
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return "", fmt.Errorf("reading passphrase: %w", err)
	}
	return string(b), nil
}

func init() {
	rootCmd.PersistentFlags().StringVar(&caller, "as", "", "Caller address for mutating commands")
	rootCmd.PersistentFlags().BoolVar(&queued, "queue", false, "Submit to the mempool instead of executing now")
}
