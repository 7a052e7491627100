package main

import (
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/mattn/go-isatty"
	flag "github.com/spf13/pflag"
	"golang.org/x/term"

	"github.com/cj3636/gblame/internal/blame"
	"github.com/cj3636/gblame/internal/config"
)

var (
	showVersion  bool
	help         bool
	noLineNumber bool
	compact      bool
	noAdaptive   bool
	noPager      bool
	marginWidth  int
	tabWidth     int
	highlight    string
	timezone     string
	palette      string
	configPath   string
	revision     string
)

func init() {
	flag.BoolVarP(&showVersion, "version", "v", false, "Show version information")
	flag.BoolVarP(&noLineNumber, "no-line-numbers", "n", false, "Hide line numbers")
	flag.BoolVar(&compact, "compact", false, "Single-line margins only (no auxiliary line)")
	flag.BoolVar(&noAdaptive, "no-adaptive", false, "Plain round-robin color cycling")
	flag.BoolVar(&noPager, "no-pager", false, "Never pipe output through a pager")
	flag.IntVarP(&marginWidth, "margin-width", "m", 0, "Margin width in cells (0 = per-mode default)")
	flag.IntVarP(&tabWidth, "tab-width", "t", 0, "Tab stop width for source text")
	flag.StringVar(&highlight, "highlight", "", "Margin emphasis: who, what, or when")
	flag.StringVar(&timezone, "timezone", "", "Date timezone: host, utc, or author")
	flag.StringVar(&palette, "palette", "", "Comma-separated 256-color ids for run colors")
	flag.StringVar(&configPath, "config", "", "Path to a TOML config file")
	flag.StringVarP(&revision, "revision", "r", "", "Blame the file as of this revision")
	flag.BoolVarP(&help, "help", "h", false, "Show help information")
	flag.Usage = usage
}

func usage() {
	fmt.Println("gblame - a colorized git blame annotator")
	fmt.Println("")
	fmt.Println("Usage:")
	fmt.Println("  gblame [options] <file>")
	fmt.Println("  git blame --porcelain <file> | gblame [options]")
	fmt.Println("")
	fmt.Println("Options:")
	flag.PrintDefaults()
	fmt.Println("")
	fmt.Println("Examples:")
	fmt.Println("  gblame main.go")
	fmt.Println("  gblame --highlight who -m 30 main.go")
	fmt.Println("  gblame -r HEAD~5 --timezone author main.go")
	fmt.Println("  git blame --porcelain main.go | gblame --compact")
	fmt.Println("")
	fmt.Println("Environment:")
	fmt.Println("  HIGHLIGHT, OUTPUT_TIMEZONE, MARGIN_WIDTH, LINE_NUMBERS, VERBOSE,")
	fmt.Println("  ADAPTIVE_COLORS, PALETTE, BOUNDARY_COLOR, UNCOMMITTED_COLOR, TAB_WIDTH")
}

func main() {
	flag.Parse()

	if help {
		usage()
		os.Exit(0)
	}

	if showVersion {
		fmt.Println("gblame version 0.1.0")
		fmt.Println("A colorized git blame annotator")
		os.Exit(0)
	}

	cfg, err := config.Load(resolveConfigPath())
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading configuration: %v\n", err)
		os.Exit(1)
	}
	applyFlags(cfg)

	cfg.ScreenRows = terminalRows()
	_, offset := time.Now().Zone()
	cfg.HostOffsetSeconds = offset

	if err := cfg.Finalize(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	input := io.ReadCloser(os.Stdin)
	var blameCmd *exec.Cmd
	if args := flag.Args(); len(args) > 0 {
		blameCmd, input, err = startBlame(args[0], revision)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error running git blame: %v\n", err)
			os.Exit(1)
		}
	}

	out, pager, closePager := startPager()

	session := blame.NewSession(cfg)
	runErr := session.Run(input, out)

	input.Close()
	if closePager != nil {
		closePager()
	}
	if blameCmd != nil {
		if err := blameCmd.Wait(); err != nil && runErr == nil {
			runErr = fmt.Errorf("git blame: %w", err)
		}
	}
	if pager != nil {
		_ = pager.Wait()
	}

	if runErr != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", runErr)
		os.Exit(1)
	}
}

func applyFlags(cfg *config.Config) {
	if highlight != "" {
		cfg.Highlight = config.Highlight(highlight)
	}
	if timezone != "" {
		cfg.Timezone = config.Timezone(timezone)
	}
	if marginWidth > 0 {
		cfg.MarginWidth = marginWidth
	}
	if tabWidth > 0 {
		cfg.TabWidth = tabWidth
	}
	if noLineNumber {
		cfg.LineNumbers = false
	}
	if compact {
		cfg.Verbose = false
	}
	if noAdaptive {
		cfg.Adaptive = false
	}
	if palette != "" {
		p, err := config.ParsePalette(palette)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		cfg.Palette = p
	}
}

func resolveConfigPath() string {
	if configPath != "" {
		return configPath
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".config", "gblame", "config.toml")
}

// startBlame spawns git blame --porcelain for the target file and
// returns its stdout as the input stream.
func startBlame(target, rev string) (*exec.Cmd, io.ReadCloser, error) {
	abs, err := filepath.Abs(target)
	if err != nil {
		return nil, nil, err
	}
	args := []string{"blame", "--porcelain"}
	if rev != "" {
		args = append(args, rev)
	}
	args = append(args, "--", filepath.Base(abs))

	cmd := exec.Command("git", args...)
	cmd.Dir = filepath.Dir(abs)
	cmd.Stderr = os.Stderr
	pipe, err := cmd.StdoutPipe()
	if err != nil {
		return nil, nil, err
	}
	if err := cmd.Start(); err != nil {
		return nil, nil, err
	}
	return cmd, pipe, nil
}

// startPager pipes output through the user's pager when stdout is a
// terminal. On any failure it degrades to plain stdout.
func startPager() (io.Writer, *exec.Cmd, func()) {
	if noPager || !stdoutIsTerminal() {
		return os.Stdout, nil, nil
	}

	pager := os.Getenv("GIT_PAGER")
	if pager == "" {
		pager = os.Getenv("PAGER")
	}
	if pager == "" {
		pager = "less -R"
	}
	parts := strings.Fields(pager)
	if len(parts) == 0 {
		return os.Stdout, nil, nil
	}

	cmd := exec.Command(parts[0], parts[1:]...)
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	pipe, err := cmd.StdinPipe()
	if err != nil {
		return os.Stdout, nil, nil
	}
	if err := cmd.Start(); err != nil {
		return os.Stdout, nil, nil
	}
	return pipe, cmd, func() { pipe.Close() }
}

func stdoutIsTerminal() bool {
	fd := os.Stdout.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

// terminalRows reports the height of the output terminal, used by the
// adaptive allocator as its "scrolled out of view" horizon.
func terminalRows() int {
	if _, rows, err := term.GetSize(int(os.Stdout.Fd())); err == nil && rows > 0 {
		return rows
	}
	if v := os.Getenv("LINES"); v != "" {
		if rows, err := strconv.Atoi(v); err == nil && rows > 0 {
			return rows
		}
	}
	return 24
}
