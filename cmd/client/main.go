// Command mini-rpc-client drives the echo example server through the
// basic/concurrency/stress/interactive scenarios spec.md §6 names.
package main

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/Jashshor/mini-rpc/client"
	"github.com/Jashshor/mini-rpc/config"
)

var (
	serverHost string
	serverPort uint16
	testMode   string
	configPath string
	outputPath string
	verbose    bool
)

func main() {
	cmd := &cobra.Command{
		Use:   "mini-rpc-client",
		Short: "Exercise a mini-rpc server with a scripted test scenario",
		RunE:  run,
	}
	flags := cmd.Flags()
	flags.StringVarP(&serverHost, "server", "s", "127.0.0.1", "server host")
	flags.Uint16VarP(&serverPort, "port", "p", 8080, "server port")
	flags.StringVarP(&testMode, "test", "t", "basic", "test scenario: basic|concurrency|stress|interactive")
	flags.StringVarP(&configPath, "config", "c", "", "path to a key=value config file")
	flags.StringVarP(&outputPath, "output", "o", "", "file to write results to, instead of stdout")
	flags.BoolVarP(&verbose, "verbose", "v", false, "log each call")

	if err := cmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(cmd *cobra.Command, args []string) error {
	cfg := config.Default()
	if configPath != "" {
		loaded, err := config.Load(configPath)
		if err != nil {
			return err
		}
		cfg = loaded
	}

	logger := zap.NewNop()
	if verbose {
		l, err := zap.NewDevelopment()
		if err != nil {
			return err
		}
		logger = l
	}
	defer logger.Sync()

	out := os.Stdout
	if outputPath != "" {
		f, err := os.Create(outputPath)
		if err != nil {
			return err
		}
		defer f.Close()
		out = f
	}

	addr := fmt.Sprintf("%s:%d", serverHost, serverPort)
	c, err := client.Dial("tcp", addr, logger)
	if err != nil {
		return err
	}
	defer c.Close()

	switch testMode {
	case "basic":
		return runBasic(c, out, time.Duration(cfg.TimeoutMs)*time.Millisecond)
	case "concurrency":
		return runConcurrency(c, out)
	case "stress":
		return runStress(c, out)
	case "interactive":
		return runInteractive(c, out)
	default:
		return fmt.Errorf("mini-rpc-client: unknown test mode %q", testMode)
	}
}

func runBasic(c *client.Client, out *os.File, timeout time.Duration) error {
	params, _ := json.Marshal(map[string]int{"a": 1, "b": 2})
	result, err := c.Call(context.Background(), "add", string(params), timeout)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "add(1, 2) = %s\n", result)
	return nil
}

func runConcurrency(c *client.Client, out *os.File) error {
	const n = 20
	var wg sync.WaitGroup
	errs := make([]error, n)

	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			params, _ := json.Marshal(map[string]int{"a": i, "b": i})
			_, errs[i] = c.Call(context.Background(), "add", string(params), 5*time.Second)
		}(i)
	}
	wg.Wait()

	failures := 0
	for _, err := range errs {
		if err != nil {
			failures++
		}
	}
	fmt.Fprintf(out, "concurrency: %d/%d calls succeeded\n", n-failures, n)
	if failures > 0 {
		return fmt.Errorf("mini-rpc-client: %d concurrent calls failed", failures)
	}
	return nil
}

func runStress(c *client.Client, out *os.File) error {
	const n = 1000
	start := time.Now()
	for i := 0; i < n; i++ {
		params, _ := json.Marshal(map[string]int{"a": i, "b": 1})
		if _, err := c.Call(context.Background(), "add", string(params), 5*time.Second); err != nil {
			return err
		}
	}
	elapsed := time.Since(start)
	fmt.Fprintf(out, "stress: %d calls in %s (%.0f calls/sec)\n", n, elapsed, float64(n)/elapsed.Seconds())
	return nil
}

func runInteractive(c *client.Client, out *os.File) error {
	fmt.Fprintln(out, "mini-rpc interactive client. Enter: <method> <json params>. Ctrl-D to exit.")
	scanner := bufio.NewScanner(os.Stdin)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		parts := strings.SplitN(line, " ", 2)
		method := parts[0]
		params := ""
		if len(parts) == 2 {
			params = parts[1]
		}

		result, err := c.Call(context.Background(), method, params, 5*time.Second)
		if err != nil {
			fmt.Fprintf(out, "error: %v\n", err)
			continue
		}
		fmt.Fprintln(out, result)
	}
	return scanner.Err()
}
