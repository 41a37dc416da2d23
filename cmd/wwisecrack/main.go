// wwisecrack recovers Wwise event names from their 32-bit FNV-1 hashes.
//
// Targets are given in hex on the command line or one per line in a file.
// Two strategies are available: direct enumeration over a length range,
// and a meet-in-the-middle split for longer names.
package main

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	_ "net/http/pprof"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/edsrzf/mmap-go"
	"github.com/facebookincubator/go-belt/tool/logger"
	"github.com/facebookincubator/go-belt/tool/logger/implementation/logrus"
	flag "github.com/opencoff/pflag"
	"github.com/pterm/pterm"

	"github.com/Eriumsss/wwiseRE/pkg/crack"
	"github.com/Eriumsss/wwiseRE/pkg/fnv1"
)

func main() {
	var (
		strategy      string
		minLen        int
		maxLen        int
		prefix        string
		prefixLen     int
		suffixLen     int
		targetsFile   string
		ngramFile     string
		maxResults    int
		countAll      bool
		workers       int
		firstCharset  string
		restCharset   string
		logLevelName  string
		netPprofAddr  string
		verifyNames   bool
		show30BitIDs  bool
	)

	flag.StringVarP(&strategy, "strategy", "s", "direct", "Search strategy: 'direct' or 'mitm'")
	flag.IntVarP(&minLen, "min-len", "m", 1, "Minimum name length (direct)")
	flag.IntVarP(&maxLen, "max-len", "M", 6, "Maximum name length (direct)")
	flag.StringVarP(&prefix, "prefix", "p", "", "Fixed name prefix (direct); its hash is cached and reused")
	flag.IntVar(&prefixLen, "prefix-len", 4, "Maximum prefix length (mitm)")
	flag.IntVar(&suffixLen, "suffix-len", 3, "Maximum suffix length (mitm)")
	flag.StringVarP(&targetsFile, "targets-file", "T", "", "File with one hex target hash per line ('#' comments allowed)")
	flag.StringVar(&ngramFile, "ngram-filter", "", "Trigram plausibility bitmap to prune the search with")
	flag.IntVarP(&maxResults, "max-results", "n", crack.DefaultMaxResults, "Result capacity")
	flag.BoolVar(&countAll, "count-all", false, "Keep scanning after the result capacity is reached (direct)")
	flag.IntVarP(&workers, "workers", "j", 0, "Worker count, 0 = all CPUs")
	flag.StringVar(&firstCharset, "alphabet-first", "", "Override the first-position charset")
	flag.StringVar(&restCharset, "alphabet-rest", "", "Override the remaining-positions charset")
	flag.StringVar(&logLevelName, "log-level", "warning", "Log level: trace, debug, info, warning, error")
	flag.StringVar(&netPprofAddr, "net-pprof", "", "Serve net/pprof on this address")
	flag.BoolVar(&verifyNames, "verify", false, "Re-hash every reported name and flag mismatches")
	flag.BoolVar(&show30BitIDs, "hash30", false, "Also print the 30-bit folded ID of each match")
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "wwisecrack - recover Wwise event names from FNV-1 hashes\nUsage: %s [options] HEX_TARGET...\n", os.Args[0])
		flag.PrintDefaults()
	}
	flag.Parse()

	ctx := logger.CtxWithLogger(context.Background(),
		logrus.Default().WithLevel(parseLogLevel(logLevelName)))
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	if netPprofAddr != "" {
		go func() {
			logger.FromCtx(ctx).Error(http.ListenAndServe(netPprofAddr, nil))
		}()
	}

	targets, err := collectTargets(flag.Args(), targetsFile)
	if err != nil {
		fatalf(ctx, "failed to collect targets: %v", err)
	}
	if len(targets) == 0 {
		pterm.Error.Println("no target hashes given")
		fmt.Fprintln(os.Stderr)
		flag.Usage()
		os.Exit(int(syscall.EINVAL))
	}

	alphabet := crack.WwiseAlphabet()
	if firstCharset != "" || restCharset != "" {
		if firstCharset == "" {
			firstCharset = restCharset
		}
		if restCharset == "" {
			restCharset = firstCharset
		}
		alphabet, err = crack.NewSplitAlphabet(firstCharset, restCharset)
		if err != nil {
			fatalf(ctx, "bad alphabet: %v", err)
		}
	}

	var filter *crack.NgramFilter
	if ngramFile != "" {
		table, err := fileToBytes(ngramFile)
		if err != nil {
			fatalf(ctx, "failed to read n-gram filter: %v", err)
		}
		filter, err = crack.NewNgramFilter(alphabet, table)
		if err != nil {
			// A bad table must not poison the search; run unfiltered.
			pterm.Warning.Printf("ignoring n-gram filter: %v\n", err)
			filter = nil
		}
	}

	targetSet := crack.NewTargetSet(targets)
	pterm.Info.Printf("%d target hash(es), alphabet %d+%d chars\n",
		targetSet.Len(), alphabet.FirstSize(), alphabet.RestSize())

	switch strategy {
	case "direct":
		runDirect(ctx, targetSet, crack.DirectSearchSettings{
			Alphabet:   alphabet,
			MinLength:  minLen,
			MaxLength:  maxLen,
			Prefix:     prefix,
			Filter:     filter,
			MaxResults: maxResults,
			CountAll:   countAll,
			NumWorkers: workers,
		}, verifyNames, show30BitIDs)
	case "mitm":
		runMitm(ctx, targetSet, crack.MeetInMiddleSettings{
			Alphabet:        alphabet,
			PrefixMaxLength: prefixLen,
			SuffixMaxLength: suffixLen,
			Filter:          filter,
			MaxResults:      maxResults,
			NumWorkers:      workers,
		}, verifyNames, show30BitIDs)
	default:
		fatalf(ctx, "unknown strategy %q (want 'direct' or 'mitm')", strategy)
	}
}

func runDirect(
	ctx context.Context,
	targets *crack.TargetSet,
	settings crack.DirectSearchSettings,
	verify, hash30 bool,
) {
	// Lengths shorter than the fixed prefix cannot produce candidates.
	if l := len(settings.Prefix); settings.MinLength < l {
		settings.MinLength = l
	}

	// One search per length so the progress bar advances meaningfully.
	progress, _ := pterm.DefaultProgressbar.
		WithTotal(settings.MaxLength - settings.MinLength + 1).
		WithTitle("Lengths").
		WithShowElapsedTime(true).
		Start()

	var matches []crack.Match
	var guesses uint64
	truncated := false
	startedAt := time.Now()

	remaining := settings.MaxResults
	for length := settings.MinLength; length <= settings.MaxLength && remaining > 0; length++ {
		perLength := settings
		perLength.MinLength = length
		perLength.MaxLength = length
		perLength.MaxResults = remaining

		result, err := crack.DirectSearch(ctx, targets, perLength)
		if result == nil {
			_, _ = progress.Stop()
			fatalf(ctx, "direct search failed: %v", err)
		}
		if err != nil && !result.Truncated && ctx.Err() == nil {
			_, _ = progress.Stop()
			fatalf(ctx, "direct search failed: %v", err)
		}
		matches = append(matches, result.Matches...)
		guesses += result.GuessCount
		truncated = truncated || result.Truncated
		remaining -= len(result.Matches)

		progress.Increment()
		if ctx.Err() != nil {
			break
		}
	}
	_, _ = progress.Stop()

	reportRate(guesses, time.Since(startedAt))
	if truncated {
		pterm.Warning.Printf("result capacity reached; matches below are not exhaustive\n")
	}
	if ctx.Err() != nil {
		pterm.Warning.Printf("interrupted; matches below are partial\n")
	}
	if len(matches) == 0 {
		pterm.Info.Println("no names found")
		return
	}
	for _, m := range matches {
		printMatch(m.Name, m.Hash, verify, hash30)
	}
	pterm.Success.Printf("%d name(s) found\n", len(matches))
}

func runMitm(
	ctx context.Context,
	targets *crack.TargetSet,
	settings crack.MeetInMiddleSettings,
	verify, hash30 bool,
) {
	spinner, _ := pterm.DefaultSpinner.Start(
		fmt.Sprintf("meet-in-the-middle, prefix<=%d suffix<=%d",
			settings.PrefixMaxLength, settings.SuffixMaxLength))
	startedAt := time.Now()

	result, err := crack.MeetInMiddle(ctx, targets, settings)
	if result == nil {
		spinner.Fail()
		fatalf(ctx, "meet-in-the-middle failed: %v", err)
	}
	if err != nil && !result.Truncated && ctx.Err() == nil {
		spinner.Fail()
		fatalf(ctx, "meet-in-the-middle failed: %v", err)
	}
	spinner.Success()

	reportRate(result.GuessCount, time.Since(startedAt))
	pterm.Info.Printf("tables: %d prefix / %d suffix entries\n",
		result.PrefixEntries, result.SuffixEntries)
	if result.Truncated {
		pterm.Warning.Printf("capacity reached; names below are not exhaustive\n")
	}
	if ctx.Err() != nil {
		pterm.Warning.Printf("interrupted; names below are partial\n")
	}
	if len(result.Names) == 0 {
		pterm.Info.Println("no names found")
		return
	}
	for _, name := range result.Names {
		printMatch(name, fnv1.Hash(name), verify, hash30)
	}
	pterm.Success.Printf("%d name(s) found\n", len(result.Names))
}

func printMatch(name string, hash uint32, verify, hash30 bool) {
	line := fmt.Sprintf("0x%08X = %s", hash, name)
	if hash30 {
		line += fmt.Sprintf(" (hash30 0x%08X)", fnv1.FoldTo30(hash))
	}
	if verify && fnv1.Hash(name) != hash {
		pterm.Error.Printf("%s [verification FAILED]\n", line)
		return
	}
	fmt.Println(line)
}

func reportRate(guesses uint64, elapsed time.Duration) {
	rate := float64(guesses) / elapsed.Seconds() / 1e6
	pterm.Info.Printf("checked %d hash value(s) in %v (%.2fM/s)\n",
		guesses, elapsed.Round(time.Millisecond), rate)
}

// collectTargets merges hex targets from argv with the targets file, if
// any. Hex digits with an optional 0x prefix; '#' starts a comment.
func collectTargets(args []string, targetsFile string) ([]uint32, error) {
	var targets []uint32
	for _, arg := range args {
		h, err := parseTarget(arg)
		if err != nil {
			return nil, err
		}
		targets = append(targets, h)
	}

	if targetsFile == "" {
		return targets, nil
	}
	data, err := fileToBytes(targetsFile)
	if err != nil {
		return nil, err
	}
	scanner := bufio.NewScanner(bytes.NewReader(data))
	for scanner.Scan() {
		line := scanner.Text()
		if idx := strings.IndexByte(line, '#'); idx >= 0 {
			line = line[:idx]
		}
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		h, err := parseTarget(line)
		if err != nil {
			return nil, err
		}
		targets = append(targets, h)
	}
	return targets, scanner.Err()
}

func parseTarget(s string) (uint32, error) {
	s = strings.TrimPrefix(strings.ToLower(strings.TrimSpace(s)), "0x")
	v, err := strconv.ParseUint(s, 16, 32)
	if err != nil {
		return 0, fmt.Errorf("bad target hash %q: %w", s, err)
	}
	return uint32(v), nil
}

// fileToBytes returns the contents of the file by path filePath,
// preferring mmap() and falling back to a plain read.
func fileToBytes(filePath string) ([]byte, error) {
	file, err := os.Open(filePath)
	if err != nil {
		return nil, fmt.Errorf("unable to open %q: %w", filePath, err)
	}
	defer file.Close() // read-only Open(), so the Close() is unchecked

	contents, err := mmap.Map(file, mmap.RDONLY, 0)
	if err == nil {
		return contents, nil
	}

	contents, err = io.ReadAll(file)
	if err != nil {
		return nil, fmt.Errorf("unable to read %q: %w", filePath, err)
	}
	return contents, nil
}

func parseLogLevel(name string) logger.Level {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "trace":
		return logger.LevelTrace
	case "debug":
		return logger.LevelDebug
	case "info":
		return logger.LevelInfo
	case "warning", "warn":
		return logger.LevelWarning
	case "error":
		return logger.LevelError
	default:
		return logger.LevelWarning
	}
}

func fatalf(ctx context.Context, format string, args ...any) {
	pterm.Error.Printf(format+"\n", args...)
	logger.FromCtx(ctx).Debugf("fatal: "+format, args...)
	os.Exit(2)
}
