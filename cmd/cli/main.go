package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/mediagrab/media-relay/internal/app"
	"github.com/mediagrab/media-relay/internal/client"
	"github.com/mediagrab/media-relay/internal/domain"
	"github.com/mediagrab/media-relay/pkg/logger"
)

var (
	configPath  string
	backendURL  string
	noAutoStart bool
	verbose     bool

	cfg *domain.Config
	log *zap.Logger

	rootCmd = &cobra.Command{
		Use:   "media-relay",
		Short: "media-relay CLI - analyze and download videos through a relay",
		Long: `A command-line front-end for the media relay. It validates URLs from
supported platforms, lists the formats the relay offers and saves downloads.`,
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: setup,
	}
)

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to config file")
	rootCmd.PersistentFlags().StringVar(&backendURL, "backend", "", "Relay URL (default from config or BACKEND_URL)")
	rootCmd.PersistentFlags().BoolVar(&noAutoStart, "no-auto-start", false, "Don't auto-start a local relay if not running")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Log requests to stderr")

	analyzeCmd.Flags().BoolP("json", "j", false, "Output in JSON format")
	downloadCmd.Flags().StringP("format", "f", "", "Format identifier (default: first offered)")
	downloadCmd.Flags().StringP("title", "t", "", "Title used for the filename (default: video title)")
	downloadCmd.Flags().StringP("output", "o", ".", "Output directory")

	rootCmd.AddCommand(analyzeCmd)
	rootCmd.AddCommand(downloadCmd)
	rootCmd.AddCommand(shellCmd)
	rootCmd.AddCommand(gatewayCmd)
}

// setup loads config and the logger before any command runs
func setup(cmd *cobra.Command, args []string) error {
	var err error
	cfg, err = app.LoadConfig(configPath)
	if err != nil {
		return err
	}
	if backendURL != "" {
		cfg.Client.BackendURL = backendURL
	}

	level := "warn"
	if verbose {
		level = "debug"
	}
	log, err = logger.New(logger.Config{Level: level, Format: "console", OutputPath: "stderr"})
	return err
}

func newClient() *client.Client {
	return client.New(cfg.Client.BackendURL, cfg.Client.Timeout, log)
}

// ensureServer checks if the relay is running and starts it if needed (unless --no-auto-start)
func ensureServer(c *client.Client) {
	if noAutoStart {
		return
	}
	if err := ensureServerRunning(c); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: %v\n", err)
	}
}

// signalContext is cancelled on Ctrl-C so a running request is abandoned
func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}

var analyzeCmd = &cobra.Command{
	Use:   "analyze [url]",
	Short: "Show title, platform and available formats of a video",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		c := newClient()
		if _, err := domain.ValidateURL(args[0]); err != nil {
			return describe(err)
		}
		ensureServer(c)

		ctx, cancel := signalContext()
		defer cancel()

		meta, err := c.Analyze(ctx, args[0])
		if err != nil {
			return describe(err)
		}

		if jsonOutput, _ := cmd.Flags().GetBool("json"); jsonOutput {
			out, _ := json.MarshalIndent(domain.AnalyzeResponse{VideoInfo: meta}, "", "  ")
			fmt.Println(string(out))
			return nil
		}

		printMetadata(meta)
		return nil
	},
}

var downloadCmd = &cobra.Command{
	Use:   "download [url]",
	Short: "Download a video in the chosen format",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		format, _ := cmd.Flags().GetString("format")
		title, _ := cmd.Flags().GetString("title")
		output, _ := cmd.Flags().GetString("output")

		c := newClient()
		if _, err := domain.ValidateURL(args[0]); err != nil {
			return describe(err)
		}
		ensureServer(c)

		ctx, cancel := signalContext()
		defer cancel()

		req := domain.DownloadRequest{URL: args[0], Format: format, Title: title}
		if format == "" || title == "" {
			meta, err := c.Analyze(ctx, args[0])
			if err != nil {
				return describe(err)
			}
			if len(meta.Formats) == 0 {
				return fmt.Errorf("no formats available for %s", args[0])
			}
			if req.Format == "" {
				req.Format = meta.Formats[0].FormatID
			}
			if req.Title == "" {
				req.Title = meta.Title
			}
			if option, ok := meta.FindFormat(req.Format); ok {
				req.Label = option.Quality
			}
		}

		fmt.Fprintf(os.Stderr, "Downloading %q (format %s)...\n", req.Title, req.Format)

		dl, err := c.Download(ctx, req)
		if err != nil {
			return describe(err)
		}
		defer dl.Body.Close()

		path, size, err := client.SaveFile(dl.Body, output, dl.Filename)
		if err != nil {
			return err
		}

		fmt.Printf("Saved %s (%s)\n", path, humanSize(size))
		return nil
	},
}

func printMetadata(meta *domain.MediaMetadata) {
	fmt.Printf("Title:    %s\n", meta.Title)
	fmt.Printf("Platform: %s\n", meta.Platform)
	fmt.Printf("Duration: %s\n", meta.Duration)
	if meta.Views != "" {
		fmt.Printf("Views:    %s\n", meta.Views)
	}
	fmt.Println()

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "#\tQUALITY\tFORMAT\tSIZE\tFORMAT ID")
	for i, f := range meta.Formats {
		fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\n", i+1, f.Quality, f.Format, f.Size, f.FormatID)
	}
	w.Flush()
}

// describe turns client errors into the message a user should see
func describe(err error) error {
	var apiErr *client.APIError
	if errors.As(err, &apiErr) {
		return errors.New(apiErr.Message)
	}
	var derr *domain.Error
	if errors.As(err, &derr) && domain.IsClientError(err) {
		switch derr.Kind {
		case domain.KindUnsupportedPlatform:
			return fmt.Errorf("%s (supported: %v)", derr.Message, domain.SupportedPlatforms())
		default:
			return errors.New(derr.Message)
		}
	}
	return err
}

func humanSize(n int64) string {
	const unit = 1024
	if n < unit {
		return fmt.Sprintf("%d B", n)
	}
	div, exp := int64(unit), 0
	for m := n / unit; m >= unit; m /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %cB", float64(n)/float64(div), "KMGTPE"[exp])
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
