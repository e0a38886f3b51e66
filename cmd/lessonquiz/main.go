// Command lessonquiz plays the quiz from a lesson markdown file in the
// terminal.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"golang.org/x/term"

	"github.com/p-n-ai/pai-lessons/internal/quiz"
	"github.com/p-n-ai/pai-lessons/internal/ui/player"
)

const (
	exitOK    = 0
	exitError = 1
	exitUsage = 2
)

// isTerminal reports whether a writer is a TTY.
var isTerminal = defaultIsTerminal

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
	defer stop()
	os.Exit(run(ctx, os.Args[1:], os.Stdin, os.Stdout, os.Stderr))
}

func run(ctx context.Context, args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	slog.SetDefault(slog.New(slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: slog.LevelWarn})))

	fs := flag.NewFlagSet("lessonquiz", flag.ContinueOnError)
	fs.SetOutput(stderr)
	noColor := fs.Bool("no-color", false, "disable colour output")
	asJSON := fs.Bool("json", false, "print the extracted questions as JSON and exit")
	title := fs.String("title", "", "title shown above the quiz (default: file name)")
	fs.Usage = func() {
		fmt.Fprintln(stderr, "Usage: lessonquiz [flags] [lesson.md | -]")
		fs.PrintDefaults()
	}
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return exitOK
		}
		return exitUsage
	}
	if fs.NArg() > 1 {
		fs.Usage()
		return exitUsage
	}

	path := fs.Arg(0)
	markdown, err := readLesson(path, stdin)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return exitError
	}

	questions := quiz.Extract(markdown)
	if *asJSON {
		if questions == nil {
			questions = []quiz.Question{}
		}
		enc := json.NewEncoder(stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(questions); err != nil {
			fmt.Fprintf(stderr, "Error: %v\n", err)
			return exitError
		}
		return exitOK
	}
	if len(questions) == 0 {
		fmt.Fprintln(stderr, "No quiz found in lesson.")
		return exitError
	}

	if *title == "" && path != "" && path != "-" {
		*title = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}
	snap, err := player.Run(ctx, questions, stdin, stdout, player.Options{
		Title:   *title,
		NoColor: *noColor || !isTerminal(stdout),
	})
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return exitError
	}
	if snap.Phase == quiz.PhaseComplete {
		fmt.Fprintf(stdout, "Final score: %d/%d (%s)\n", snap.Score, snap.Total, snap.Label)
	}
	return exitOK
}

// readLesson reads path, or stdin when path is empty or "-".
func readLesson(path string, stdin io.Reader) (string, error) {
	var (
		data []byte
		err  error
	)
	if path == "" || path == "-" {
		data, err = io.ReadAll(stdin)
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return "", fmt.Errorf("reading lesson: %w", err)
	}
	return string(data), nil
}

// defaultIsTerminal inspects stdout for TTY support.
func defaultIsTerminal(stdout io.Writer) bool {
	if file, ok := stdout.(*os.File); ok {
		return term.IsTerminal(int(file.Fd()))
	}
	return false
}
