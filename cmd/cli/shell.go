package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/mediagrab/media-relay/internal/client"
	"github.com/mediagrab/media-relay/internal/domain"
)

const shellHelp = `Commands:
  <url>                   analyze a video
  analyze <url>           analyze a video
  formats                 list formats of the current video
  download [n|id] [dir]   download format n (1-based) or id, default first
  history                 show recent downloads
  reset                   forget the current video
  help                    show this help
  quit                    leave the shell`

var shellCmd = &cobra.Command{
	Use:   "shell",
	Short: "Interactive analyze/download session with recent downloads",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		c := newClient()
		ensureServer(c)

		sh := &shell{
			session: client.NewSession(c),
			out:     cmd.OutOrStdout(),
			dir:     ".",
		}
		return sh.run(cmd.InOrStdin())
	},
}

// shell drives a client.Session from line-based input
type shell struct {
	session *client.Session
	out     io.Writer
	dir     string
}

func (s *shell) run(in io.Reader) error {
	fmt.Fprintln(s.out, "media-relay shell. Type 'help' for commands.")
	scanner := bufio.NewScanner(in)
	for {
		fmt.Fprint(s.out, "> ")
		if !scanner.Scan() {
			fmt.Fprintln(s.out)
			return scanner.Err()
		}
		if quit := s.exec(strings.Fields(scanner.Text())); quit {
			return nil
		}
	}
}

// exec runs one command line and reports whether the shell should exit
func (s *shell) exec(fields []string) bool {
	if len(fields) == 0 {
		return false
	}

	ctx, cancel := signalContext()
	defer cancel()

	switch cmd := strings.ToLower(fields[0]); cmd {
	case "quit", "exit", "q":
		return true
	case "help", "?":
		fmt.Fprintln(s.out, shellHelp)
	case "analyze", "a":
		if len(fields) < 2 {
			fmt.Fprintln(s.out, "Usage: analyze <url>")
			return false
		}
		s.analyze(ctx, fields[1])
	case "formats", "f":
		s.formats()
	case "download", "d":
		s.download(ctx, fields[1:])
	case "history", "h":
		s.history()
	case "reset":
		s.session.Reset()
		fmt.Fprintln(s.out, "Cleared.")
	default:
		if strings.Contains(cmd, "://") {
			s.analyze(ctx, fields[0])
			return false
		}
		fmt.Fprintf(s.out, "Unknown command %q. Type 'help' for commands.\n", fields[0])
	}
	return false
}

func (s *shell) analyze(ctx context.Context, url string) {
	meta, err := s.session.Analyze(ctx, url)
	if err != nil {
		fmt.Fprintf(s.out, "Error: %v\n", describe(err))
		return
	}
	fmt.Fprintf(s.out, "%s [%s, %s]\n", meta.Title, meta.Platform, meta.Duration)
	s.formats()
}

func (s *shell) formats() {
	formats := s.session.Formats()
	if formats == nil {
		fmt.Fprintln(s.out, "No video analyzed yet.")
		return
	}
	w := tabwriter.NewWriter(s.out, 0, 0, 2, ' ', 0)
	for i, f := range formats {
		fmt.Fprintf(w, "  %d\t%s\t%s\t%s\n", i+1, f.Quality, f.Format, f.Size)
	}
	w.Flush()
}

func (s *shell) download(ctx context.Context, args []string) {
	formats := s.session.Formats()
	if len(formats) == 0 {
		fmt.Fprintln(s.out, "No video analyzed yet.")
		return
	}

	formatID := formats[0].FormatID
	if len(args) > 0 {
		formatID = resolveFormat(formats, args[0])
	}
	dir := s.dir
	if len(args) > 1 {
		dir = args[1]
	}

	saved, err := s.session.Download(ctx, formatID, dir)
	if err != nil {
		fmt.Fprintf(s.out, "Error: %v\n", describe(err))
		return
	}
	fmt.Fprintf(s.out, "Saved %s (%s)\n", saved.Path, humanSize(saved.Size))
}

// resolveFormat accepts a 1-based index into formats or a format id
func resolveFormat(formats []domain.FormatOption, arg string) string {
	if n, err := strconv.Atoi(arg); err == nil && n >= 1 && n <= len(formats) {
		return formats[n-1].FormatID
	}
	return arg
}

func (s *shell) history() {
	records := s.session.History()
	if len(records) == 0 {
		fmt.Fprintln(s.out, "No downloads yet.")
		return
	}
	w := tabwriter.NewWriter(s.out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "WHEN\tTITLE\tPLATFORM\tFORMAT")
	for _, r := range records {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", r.Timestamp, truncate(r.Title, 40), r.Platform, r.Format)
	}
	w.Flush()
}

func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen-3] + "..."
}

