package crack

import (
	"context"
	"fmt"
	"runtime"

	"github.com/Eriumsss/wwiseRE/pkg/fnv1"
	"github.com/facebookincubator/go-belt/tool/logger"
	"github.com/hashicorp/go-multierror"
	"golang.org/x/exp/slices"
)

// DefaultMaxResults bounds the result sink when a settings struct leaves
// MaxResults zero.
const DefaultMaxResults = 4096

// Match is one recovered name together with its hash value.
type Match struct {
	Name string
	Hash uint32
}

// DirectSearchSettings configures DirectSearch. The zero value is not
// usable on its own: MaxLength must be set.
type DirectSearchSettings struct {
	// Alphabet defaults to WwiseAlphabet().
	Alphabet *Alphabet

	// MinLength and MaxLength bound the candidate name length,
	// inclusive. MinLength defaults to 1.
	MinLength int
	MaxLength int

	// Prefix fixes the leading characters of every candidate. Its hash
	// is computed once and every candidate continues from it.
	Prefix string

	// Filter optionally prunes enumeration subtrees whose leading
	// trigram is implausible. Nil disables pruning.
	Filter *NgramFilter

	// MaxResults caps the result sink; defaults to DefaultMaxResults.
	MaxResults int

	// CountAll makes the search keep scanning after the result sink is
	// full (further matches are dropped but still counted as a
	// truncation signal). When false the search stops early at capacity.
	CountAll bool

	// NumWorkers defaults to runtime.NumCPU().
	NumWorkers int
}

// DirectSearchResult is what a DirectSearch run produced.
type DirectSearchResult struct {
	// Matches, sorted by hash then name.
	Matches []Match

	// GuessCount is the number of candidate hashes evaluated.
	GuessCount uint64

	// Truncated means the result sink hit capacity; Matches is not
	// exhaustive. The run error wraps ErrCapacityExceeded as well.
	Truncated bool
}

// DirectSearch enumerates every candidate in the configured length range
// and reports the ones whose hash is in targets. Partial results remain
// valid when ctx is cancelled mid-run.
func DirectSearch(
	ctx context.Context,
	targets *TargetSet,
	settings DirectSearchSettings,
) (*DirectSearchResult, error) {
	searcher, err := newDirectSearcher(targets, settings)
	if err != nil {
		return nil, err
	}
	return searcher.Execute(ctx)
}

type directSearcher struct {
	// immutable:
	targets    *TargetSet
	settings   DirectSearchSettings
	prefixHash uint32
}

func newDirectSearcher(targets *TargetSet, settings DirectSearchSettings) (*directSearcher, error) {
	if settings.Alphabet == nil {
		settings.Alphabet = WwiseAlphabet()
	}
	if settings.MinLength == 0 {
		settings.MinLength = 1
	}
	if settings.MaxResults == 0 {
		settings.MaxResults = DefaultMaxResults
	}
	if settings.NumWorkers <= 0 {
		settings.NumWorkers = runtime.NumCPU()
	}

	switch {
	case settings.MinLength < 1 || settings.MaxLength > MaxCandidateLength:
		return nil, fmt.Errorf("%w: length range [%d, %d] outside [1, %d]",
			ErrLengthOutOfRange, settings.MinLength, settings.MaxLength, MaxCandidateLength)
	case settings.MinLength > settings.MaxLength:
		return nil, fmt.Errorf("%w: min length %d above max length %d",
			ErrLengthOutOfRange, settings.MinLength, settings.MaxLength)
	case len(settings.Prefix) > settings.MaxLength:
		return nil, fmt.Errorf("%w: prefix %q longer than max length %d",
			ErrLengthOutOfRange, settings.Prefix, settings.MaxLength)
	}
	if targets == nil {
		targets = NewTargetSet(nil)
	}

	return &directSearcher{
		targets:    targets,
		settings:   settings,
		prefixHash: fnv1.Hash(settings.Prefix),
	}, nil
}

// directJob is one shard of the search: one candidate length with the
// first free position pinned to one character (or the bare fixed prefix
// when the prefix already fills the whole length). Seed is the hash of
// Fixed, computed once so workers only fold the free positions.
type directJob struct {
	Length int
	Fixed  string
	Seed   uint32
}

type directWorkerResult struct {
	Matches []Match
	Error   error
}

func (s *directSearcher) jobs() []directJob {
	cfg := &s.settings
	prefixLen := len(cfg.Prefix)

	var jobs []directJob
	for length := cfg.MinLength; length <= cfg.MaxLength; length++ {
		if length < prefixLen {
			continue
		}
		if length == prefixLen {
			jobs = append(jobs, directJob{
				Length: length,
				Fixed:  cfg.Prefix,
				Seed:   s.prefixHash,
			})
			continue
		}
		// One job per choice of the first free character; each worker
		// continues from the prefix+first-char hash, computed once here.
		for i := 0; i < cfg.Alphabet.sizeAt(prefixLen, false); i++ {
			c := cfg.Alphabet.charAt(prefixLen, i, false)
			jobs = append(jobs, directJob{
				Length: length,
				Fixed:  cfg.Prefix + string(c),
				Seed:   fnv1.HashContinueBytes(s.prefixHash, []byte{c}),
			})
		}
	}
	return jobs
}

func (s *directSearcher) Execute(ctx context.Context) (*DirectSearchResult, error) {
	shared := &searchShared{}

	result := executeWorkers(
		ctx,
		newWorkerSemaphore(s.settings.NumWorkers),
		s.jobs(),
		s.executeWorker,
		aggregateDirectResults,
		shared,
	)

	slices.SortFunc(result.Matches, compareMatches)
	if len(result.Matches) > s.settings.MaxResults {
		result.Matches = result.Matches[:s.settings.MaxResults]
	}

	err := result.Error
	if shared.Truncated.Load() {
		err = multierror.Append(err,
			fmt.Errorf("%w: result capacity %d reached after %d matches",
				ErrCapacityExceeded, s.settings.MaxResults, len(result.Matches))).ErrorOrNil()
	}
	if ctx.Err() != nil {
		err = multierror.Append(err, ctx.Err()).ErrorOrNil()
	}

	return &DirectSearchResult{
		Matches:    result.Matches,
		GuessCount: shared.GuessCount.Load(),
		Truncated:  shared.Truncated.Load(),
	}, err
}

func (s *directSearcher) executeWorker(
	ctx context.Context,
	job *directJob,
	shared *searchShared,
) (result directWorkerResult) {
	log := logger.FromCtx(ctx)
	log.Debugf("started direct-search worker")
	defer func() {
		log.Debugf("ended direct-search worker; %d match(es)", len(result.Matches))
	}()

	if shared.stopped() {
		return
	}

	cfg := &s.settings
	enum, err := newEnumerator(cfg.Alphabet, job.Length, job.Fixed, false)
	if err != nil {
		result.Error = err
		return
	}

	targets := s.targets
	filter := cfg.Filter
	seed := job.Seed
	fixedLen := len(job.Fixed)

	// When the fixed part already covers the leading trigram, one check
	// decides the whole job.
	cand := enum.Candidate()
	if filter != nil && job.Length >= 3 && fixedLen >= 3 &&
		!filter.Plausible(cand[0], cand[1], cand[2]) {
		return
	}

	var guesses uint64
	var sinceCheck int
	defer func() { shared.GuessCount.Add(guesses) }()

	for ok := true; ok; {
		if sinceCheck++; sinceCheck >= cancelCheckInterval {
			sinceCheck = 0
			if !shared.checkContext(ctx) {
				return
			}
		} else if shared.stopped() {
			return
		}

		cand = enum.Candidate()
		if filter != nil && job.Length >= 3 && fixedLen < 3 &&
			!filter.Plausible(cand[0], cand[1], cand[2]) {
			ok = enum.SkipFrom(2)
			continue
		}

		h := fnv1.HashContinueBytes(seed, cand[fixedLen:])
		guesses++
		if targets.Contains(h) {
			if n := shared.ResultCount.Add(1); n <= uint64(cfg.MaxResults) {
				result.Matches = append(result.Matches, Match{Name: string(cand), Hash: h})
				if n == uint64(cfg.MaxResults) && !cfg.CountAll {
					shared.Truncated.Store(true)
					shared.Status.CompareAndSwap(searchStatusRunning, searchStatusStopped)
					return
				}
			} else {
				shared.Truncated.Store(true)
				if !cfg.CountAll {
					shared.Status.CompareAndSwap(searchStatusRunning, searchStatusStopped)
					return
				}
			}
		}
		ok = enum.Next()
	}
	return
}

func aggregateDirectResults(results <-chan directWorkerResult) directWorkerResult {
	var out directWorkerResult

	var errs *multierror.Error
	for r := range results {
		out.Matches = append(out.Matches, r.Matches...)
		errs = multierror.Append(errs, r.Error)
	}

	out.Error = errs.ErrorOrNil()
	return out
}

func compareMatches(a, b Match) int {
	switch {
	case a.Hash < b.Hash:
		return -1
	case a.Hash > b.Hash:
		return 1
	default:
		switch {
		case a.Name < b.Name:
			return -1
		case a.Name > b.Name:
			return 1
		}
		return 0
	}
}
