package framework

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"
)

const serviceQueryInterval = time.Millisecond * 100

// AwaitService polls the service at url until it answers with any HTTP status, or
// until timeout elapses. Containers started right before a test run often take a few
// seconds to begin accepting connections.
func AwaitService(ctx context.Context, url string, timeout time.Duration, output io.Writer) error {
	fmt.Fprintf(output, "Connecting to service at %s", url)

	deadline := time.Now().Add(timeout)
	for {
		fmt.Fprintf(output, ".")
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			fmt.Fprintln(output)
			return err
		}
		resp, err := http.DefaultClient.Do(req)
		if err == nil {
			_ = resp.Body.Close()
			fmt.Fprintln(output)
			fmt.Fprintf(output, "Service responded with status %d\n", resp.StatusCode)
			return nil
		}
		if !time.Now().Before(deadline) {
			fmt.Fprintln(output)
			return fmt.Errorf("timed out, result of last query was: %w", err)
		}
		select {
		case <-ctx.Done():
			fmt.Fprintln(output)
			return ctx.Err()
		case <-time.After(serviceQueryInterval):
		}
	}
}

// PrintResults writes a summary of the run, listing every failed step.
func PrintResults(out io.Writer, results Results) {
	fmt.Fprintf(out, "Ran %d steps, %d skipped\n", len(results.Tests), len(results.Skipped))
	if results.OK() {
		fmt.Fprintln(out, "All steps passed")
		return
	}
	fmt.Fprintf(out, "FAILED STEPS (%d):\n", len(results.Failures))
	for _, f := range results.Failures {
		fmt.Fprintf(out, "* %s\n", f.TestID)
		for _, err := range f.Errors {
			fmt.Fprintf(out, "    %s\n", err)
		}
	}
}
