// Command quill queries the API Mart chat-completions endpoint from the
// terminal. It resolves configuration from flags and the environment, hands
// the client a fully-built request, and owns everything the client does not:
// writing the response and its artifacts to the output directory, streaming
// text to the console as it arrives, and turning typed failures into
// actionable advice.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"time"

	"github.com/apimart/quill"
	"github.com/apimart/quill/extract"
	"github.com/apimart/quill/pkg/slogx"
	"github.com/apimart/quill/pkg/stdx"
	"github.com/fatih/color"
	_ "github.com/joho/godotenv/autoload"
	"github.com/phsym/zeroslog"
	"github.com/rs/zerolog"
	"github.com/tidwall/sjson"
)

const outputDir = "output"

func main() {
	model := flag.String("model", quill.DefaultModel, "model to query")
	stream := flag.Bool("stream", false, "stream the response incrementally")
	timeout := flag.Int("timeout", 0, "read timeout in seconds (0 resolves a per-model default)")
	retries := flag.Int("retries", quill.DefaultMaxRetries, "retry budget, including the first attempt")
	debug := flag.Bool("debug", false, "log attempts, retries and frames verbosely")
	flag.Usage = usage
	flag.Parse()

	if flag.NArg() < 1 {
		usage()
		os.Exit(1)
	}
	prompt := flag.Arg(0)

	apiKey := os.Getenv("APIMART_API_KEY")
	if apiKey == "" {
		fmt.Fprintln(os.Stderr, color.RedString("ERROR:")+" set your API Mart key first:")
		fmt.Fprintln(os.Stderr, "  export APIMART_API_KEY=sk-...")
		os.Exit(1)
	}

	stamp := time.Now().Format("20060102_150405")
	log, cleanup, err := setupLogging(*debug, stamp)
	if err != nil {
		fmt.Fprintln(os.Stderr, "ERROR:", err)
		os.Exit(1)
	}
	defer cleanup()

	slog.Debug("resolved credentials", slogx.Masked("api_key", apiKey))
	if *debug {
		dump, _ := sjson.Set("{}", "model", *model)
		dump, _ = sjson.Set(dump, "stream", *stream)
		dump, _ = sjson.Set(dump, "retries", *retries)
		dump, _ = sjson.Set(dump, "prompt", clip(prompt, 120))
		log.Debug().RawJSON("request", []byte(dump)).Msg("resolved request")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := run(ctx, apiKey, prompt, *model, *stream, *timeout, *retries, stamp); err != nil {
		advise(err, prompt, *model, *stream)
		os.Exit(1)
	}
}

func run(ctx context.Context, apiKey, prompt, model string, stream bool, timeoutSecs, retries int, stamp string) error {
	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return fmt.Errorf("create output directory: %w", err)
	}

	textPath := filepath.Join(outputDir, "response_"+stamp+".txt")
	out, err := os.Create(textPath)
	if err != nil {
		return fmt.Errorf("create response file: %w", err)
	}
	defer out.Close()

	fmt.Printf("Model: %s\n", color.MagentaString(model))
	fmt.Printf("Prompt: %s\n", prompt)
	fmt.Printf("Streaming: %v\n", stream)
	fmt.Printf("Output: %s\n", textPath)
	fmt.Println("----------------------------------------")
	fmt.Fprintf(out, "Model: %s\nPrompt: %s\nStreaming: %v\n", model, prompt, stream)
	fmt.Fprintln(out, "----------------------------------------")

	// New only fails when options are misapplied; none are passed here.
	client := stdx.Must1(quill.New(apiKey))

	req := quill.Request{
		Prompt:      prompt,
		Model:       model,
		Stream:      stream,
		ReadTimeout: time.Duration(timeoutSecs) * time.Second,
		MaxRetries:  retries,
	}
	if stream {
		// Mirror each delta to the console and the response file as it
		// arrives, so partial output survives a mid-stream failure.
		fmt.Println("\nResponse:")
		fmt.Fprintln(out, "\nResponse:")
		req.OnDelta = func(d quill.Delta) {
			fmt.Print(d.Content)
			io.WriteString(out, d.Content)
		}
	}

	res, err := client.Complete(ctx, req)
	if err != nil {
		return err
	}

	if !stream {
		if res.ContentMissing {
			fmt.Println("\nFailed to parse response:")
			fmt.Println(string(res.RawBody))
			fmt.Fprintf(out, "\nFailed to parse response:\n%s\n", res.RawBody)
			return nil
		}
		fmt.Println("\nResponse:")
		fmt.Println(res.Text)
		fmt.Fprintf(out, "\nResponse:\n%s\n", res.Text)

		jsonPath := filepath.Join(outputDir, "response_"+stamp+".json")
		if werr := os.WriteFile(jsonPath, res.RawBody, 0o644); werr == nil {
			fmt.Println(color.GreenString("✓") + " JSON saved: " + jsonPath)
		}
	}
	if res.Truncated {
		fmt.Println(color.YellowString("\n(response truncated by a stream failure)"))
		fmt.Fprintln(out, "\n(response truncated by a stream failure)")
	}

	for _, art := range res.Artifacts {
		path := artifactPath(art, stamp)
		if werr := os.WriteFile(path, art.Content, 0o644); werr != nil {
			slog.Warn("could not save artifact", slog.String("path", path), slogx.Error(werr))
			continue
		}
		fmt.Printf("%s File saved (%s): %s\n", color.GreenString("✓"), art.Label, path)
		fmt.Fprintf(out, "✓ File saved (%s): %s\n", art.Label, path)
	}

	fmt.Println("\nDone.")
	fmt.Fprintln(out, "\nDone.")
	return nil
}

func artifactPath(art extract.Artifact, stamp string) string {
	if art.Kind == extract.KindCode {
		return filepath.Join(outputDir, "output_"+stamp+"_code."+art.Ext)
	}
	return filepath.Join(outputDir, "output_"+stamp+"."+art.Ext)
}

// advise prints targeted troubleshooting guidance. A gateway timeout gets
// model/timeout suggestions, other server failures get retry advice, and
// terminal statuses are shown with the raw body.
func advise(err error, prompt, model string, stream bool) {
	fmt.Fprintln(os.Stderr)

	var exhausted *quill.RetriesExhaustedError
	if errors.As(err, &exhausted) {
		fmt.Fprintln(os.Stderr, color.RedString("Failed after %d attempts.", exhausted.Attempts))
		switch {
		case exhausted.GatewayTimeout():
			fmt.Fprintln(os.Stderr, "Gateway timeout - the server took too long to respond.")
			fmt.Fprintln(os.Stderr, "\nTroubleshooting suggestions:")
			if stream {
				fmt.Fprintf(os.Stderr, "  1. Try without -stream:\n     quill -model %s %q\n", model, prompt)
				fmt.Fprintf(os.Stderr, "  2. Try a faster model:\n     quill -model gpt-4o -stream %q\n", prompt)
			} else {
				fmt.Fprintf(os.Stderr, "  1. Try a faster model:\n     quill -model gpt-4o %q\n", prompt)
				fmt.Fprintf(os.Stderr, "  2. Increase the timeout:\n     quill -model %s -timeout 600 %q\n", model, prompt)
				fmt.Fprintf(os.Stderr, "  3. Try with streaming:\n     quill -model %s -stream %q\n", model, prompt)
			}
		case exhausted.LastStatus != 0:
			fmt.Fprintf(os.Stderr, "Server error (http %d) - the API may be temporarily unavailable.\n", exhausted.LastStatus)
			fmt.Fprintln(os.Stderr, "Wait a few minutes and retry, or try a different model.")
		default:
			fmt.Fprintf(os.Stderr, "Connection failed: %v\n", exhausted.LastErr)
			fmt.Fprintln(os.Stderr, "Check your network and the service status.")
		}
		if len(exhausted.LastBody) > 0 {
			fmt.Fprintf(os.Stderr, "\n%s\n", exhausted.LastBody)
		}
		return
	}

	var status *quill.StatusError
	if errors.As(err, &status) {
		fmt.Fprintln(os.Stderr, color.RedString("Failed (http %d)", status.Status))
		fmt.Fprintf(os.Stderr, "%s\n", status.Body)
		return
	}

	var malformed *quill.MalformedEnvelopeError
	if errors.As(err, &malformed) {
		fmt.Fprintln(os.Stderr, color.RedString("Failed to parse response:"))
		fmt.Fprintf(os.Stderr, "%s\n", clip(string(malformed.RawBody), 500))
		return
	}

	fmt.Fprintln(os.Stderr, color.RedString("Error:"), err)
}

func setupLogging(debug bool, stamp string) (zerolog.Logger, func(), error) {
	console := zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Stamp}

	var w io.Writer = console
	cleanup := func() {}
	if debug {
		if err := os.MkdirAll(outputDir, 0o755); err != nil {
			return zerolog.Logger{}, nil, fmt.Errorf("create output directory: %w", err)
		}
		f, err := os.Create(filepath.Join(outputDir, "debug_"+stamp+".log"))
		if err != nil {
			return zerolog.Logger{}, nil, fmt.Errorf("create debug log: %w", err)
		}
		w = zerolog.MultiLevelWriter(console, f)
		cleanup = func() { f.Close() }
	}

	level := zerolog.InfoLevel
	slogLevel := slog.LevelInfo
	if debug {
		level = zerolog.DebugLevel
		slogLevel = slog.LevelDebug
	}

	log := zerolog.New(w).Level(level).With().Timestamp().Logger()
	slog.SetDefault(slog.New(
		zeroslog.NewHandler(log, &zeroslog.HandlerOptions{Level: slogLevel}),
	))
	return log, cleanup, nil
}

func clip(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}

func usage() {
	fmt.Fprintln(os.Stderr, `Usage: quill [flags] "Your prompt"

Flags:
  -model MODEL       model to query (default `+quill.DefaultModel+`)
  -stream            stream the response incrementally
  -timeout SECONDS   read timeout (default: per-model, 300 when streaming)
  -retries N         retry budget including the first attempt (default 5)
  -debug             verbose logging to stderr and output/debug_*.log

Environment:
  APIMART_API_KEY    your API key (loaded from .env if present)

Example: quill -model gpt-4o -stream "write python code"`)
}
