package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/jo-hoe/aisign/internal/client"
	"github.com/jo-hoe/aisign/internal/core"
)

// aisign embed -endpoint http://127.0.0.1:5000/embed -in photo.png -out signed.png -check-status
// aisign verify -endpoint http://127.0.0.1:5000/verify -in signed.png -context media_marketing
// aisign verify -config config.yaml -in signed.png -context education_exam -json

const defaultOutput = "ai_signed_image"

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	if len(args) == 0 {
		usage(stderr)
		return 2
	}
	switch args[0] {
	case "embed":
		return runEmbed(args[1:], stdout, stderr)
	case "verify":
		return runVerify(args[1:], stdout, stderr)
	default:
		fmt.Fprintf(stderr, "unknown command %q\n", args[0])
		usage(stderr)
		return 2
	}
}

func usage(w io.Writer) {
	fmt.Fprintln(w, "usage: aisign <embed|verify> [flags]")
	fmt.Fprintln(w, "  embed  -endpoint URL -in FILE [-out PATH] [-check-status] [-config FILE] [-profile NAME]")
	fmt.Fprintln(w, "  verify -endpoint URL -in FILE -context NAME [-json] [-config FILE]")
}

func runEmbed(args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("embed", flag.ContinueOnError)
	fs.SetOutput(stderr)
	endpoint := fs.String("endpoint", "", "Embed endpoint URL (defaults to the configured profile)")
	input := fs.String("in", "", "Path to the image to sign")
	output := fs.String("out", defaultOutput, "Output path for the signed image")
	checkStatus := fs.Bool("check-status", false, "Fail on non-2xx responses")
	configPath := fs.String("config", "", "Config file providing endpoints (yaml or toml)")
	profileName := fs.String("profile", "", "Embed profile to take the endpoint from")
	timeout := fs.Duration("timeout", client.DefaultTimeout, "Request timeout")
	if err := fs.Parse(args); err != nil {
		return 2
	}

	policy := client.Policy{CheckStatus: *checkStatus}
	if *endpoint == "" {
		config, err := loadConfig(*configPath)
		if err != nil {
			fmt.Fprintf(stderr, "load config: %v\n", err)
			return 1
		}
		profile, ok := config.Frontend.Profile(*profileName)
		if *profileName == "" && len(config.Frontend.Embed) > 0 {
			profile, ok = config.Frontend.Embed[0], true
		}
		if !ok {
			fmt.Fprintf(stderr, "unknown embed profile %q\n", *profileName)
			return 1
		}
		*endpoint = profile.Endpoint
		policy.CheckStatus = policy.CheckStatus || profile.CheckStatus
	}

	file, err := selectFile(*input)
	if err != nil {
		fmt.Fprintf(stderr, "open input: %v\n", err)
		return 1
	}

	blob, err := client.NewImageClient(*timeout).SubmitImage(context.Background(), *endpoint, file, policy)
	if err != nil {
		return reportError(stderr, "embed", err)
	}
	if len(blob.Data) == 0 {
		fmt.Fprintln(stderr, "embed: empty response body")
		return 1
	}

	if err := os.WriteFile(*output, blob.Data, 0644); err != nil {
		fmt.Fprintf(stderr, "write output: %v\n", err)
		return 1
	}
	fmt.Fprintf(stdout, "Signed %s -> %s (%s, %d bytes)\n", *input, *output, blob.ContentType, len(blob.Data))
	return 0
}

func runVerify(args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("verify", flag.ContinueOnError)
	fs.SetOutput(stderr)
	endpoint := fs.String("endpoint", "", "Verify endpoint URL (defaults to the configured one)")
	input := fs.String("in", "", "Path to the image to verify")
	usageContext := fs.String("context", "", "Usage context, e.g. media_marketing")
	asJSON := fs.Bool("json", false, "Print the verdict as JSON")
	configPath := fs.String("config", "", "Config file providing endpoints (yaml or toml)")
	timeout := fs.Duration("timeout", client.DefaultTimeout, "Request timeout")
	if err := fs.Parse(args); err != nil {
		return 2
	}

	if *endpoint == "" {
		config, err := loadConfig(*configPath)
		if err != nil {
			fmt.Fprintf(stderr, "load config: %v\n", err)
			return 1
		}
		*endpoint = config.Frontend.Verify.Endpoint
	}

	file, err := selectFile(*input)
	if err != nil {
		fmt.Fprintf(stderr, "open input: %v\n", err)
		return 1
	}

	result, err := client.NewImageClient(*timeout).Verify(context.Background(), *endpoint, file, *usageContext)
	if err != nil {
		return reportError(stderr, "verify", err)
	}

	if *asJSON {
		encoder := json.NewEncoder(stdout)
		encoder.SetIndent("", "  ")
		if err := encoder.Encode(result); err != nil {
			fmt.Fprintf(stderr, "encode result: %v\n", err)
			return 1
		}
		return 0
	}

	fmt.Fprintf(stdout, "Status:     %s\n", result.DetectionStatus)
	fmt.Fprintf(stdout, "Confidence: %s\n", result.Confidence)
	fmt.Fprintf(stdout, "Decision:   %s\n", result.Verdict())
	fmt.Fprintf(stdout, "Reason:     %s\n", result.Reason)
	return 0
}

// selectFile returns nil for an empty path so the client reports the missing file
func selectFile(path string) (*client.File, error) {
	if path == "" {
		return nil, nil
	}
	return client.OpenFile(path)
}

func loadConfig(path string) (*core.ServiceConfig, error) {
	if path == "" {
		return core.ParseConfig(nil)
	}
	return core.LoadConfig(path)
}

func reportError(stderr io.Writer, command string, err error) int {
	var statusErr *client.StatusError
	switch {
	case errors.Is(err, client.ErrNoFile):
		fmt.Fprintf(stderr, "%s: %v (use -in)\n", command, err)
		return 2
	case errors.As(err, &statusErr):
		fmt.Fprintf(stderr, "%s: service answered %d: %s\n", command, statusErr.StatusCode, statusErr.Message)
	case errors.Is(err, context.DeadlineExceeded):
		fmt.Fprintf(stderr, "%s: request timed out\n", command)
	default:
		fmt.Fprintf(stderr, "%s: %v\n", command, err)
	}
	return 1
}

