package crack

import (
	"context"
	"fmt"
	"runtime"

	"github.com/Eriumsss/wwiseRE/pkg/fnv1"
	"github.com/facebookincubator/go-belt/tool/logger"
	"github.com/hashicorp/go-multierror"
	"golang.org/x/exp/slices"
	"golang.org/x/sync/semaphore"
)

// DefaultTableCapacity bounds the prefix and suffix tables when the
// settings leave their capacities zero. Each HashEntry costs roughly the
// string plus 4 bytes of hash, so the default keeps a table in the
// hundreds of megabytes at worst.
const DefaultTableCapacity = 1 << 24

// HashEntry pairs a hash value with the string that produced it. In the
// prefix table the hash is the forward hash of Str; in the suffix table it
// is the hash the corresponding prefix would need to have for some target.
type HashEntry struct {
	Hash uint32
	Str  string
}

// MeetInMiddleSettings configures MeetInMiddle. PrefixMaxLength and
// SuffixMaxLength must be set.
type MeetInMiddleSettings struct {
	// Alphabet defaults to WwiseAlphabet(). The first-position rule
	// applies to prefix generation only; suffixes never occupy position
	// 0 of a name and draw from the rest-charset at every position.
	Alphabet *Alphabet

	// PrefixMaxLength bounds forward-hashed prefixes (lengths 1..max).
	PrefixMaxLength int

	// SuffixMaxLength bounds inverse-hashed suffixes (lengths 1..max).
	// The suffix table holds one entry per target per suffix candidate.
	SuffixMaxLength int

	// Filter optionally prunes prefix generation by leading trigram.
	Filter *NgramFilter

	// MaxPrefixEntries and MaxSuffixEntries cap the tables; both default
	// to DefaultTableCapacity. Exceeding a cap stops generation and is
	// reported via ErrCapacityExceeded, never silently truncated.
	MaxPrefixEntries int
	MaxSuffixEntries int

	// MaxResults caps recovered names; defaults to DefaultMaxResults.
	MaxResults int

	// NumWorkers defaults to runtime.NumCPU().
	NumWorkers int
}

// MeetInMiddleResult is what a MeetInMiddle run produced.
type MeetInMiddleResult struct {
	// Names holds every recovered full name (prefix+suffix), sorted,
	// deduplicated across split points.
	Names []string

	// PrefixEntries and SuffixEntries are the generated table sizes.
	PrefixEntries int
	SuffixEntries int

	// GuessCount is the number of hash evaluations across both tables.
	GuessCount uint64

	// Truncated means a table or the result list hit capacity.
	Truncated bool
}

// MeetInMiddle recovers names of combined length up to
// PrefixMaxLength+SuffixMaxLength by generating a forward-hash table of
// prefixes and an inverse-hash table of suffixes, sorting both, and
// joining them on equal hash values. Cost is
// O(alphabet^p + alphabet^s * targets) instead of O(alphabet^(p+s)),
// which is the reason this strategy exists; memory is the binding
// constraint, controlled by the table capacities.
func MeetInMiddle(
	ctx context.Context,
	targets *TargetSet,
	settings MeetInMiddleSettings,
) (*MeetInMiddleResult, error) {
	searcher, err := newMitmSearcher(targets, settings)
	if err != nil {
		return nil, err
	}
	return searcher.Execute(ctx)
}

type mitmSearcher struct {
	// immutable:
	targets  *TargetSet
	settings MeetInMiddleSettings
}

func newMitmSearcher(targets *TargetSet, settings MeetInMiddleSettings) (*mitmSearcher, error) {
	if settings.Alphabet == nil {
		settings.Alphabet = WwiseAlphabet()
	}
	if settings.MaxPrefixEntries == 0 {
		settings.MaxPrefixEntries = DefaultTableCapacity
	}
	if settings.MaxSuffixEntries == 0 {
		settings.MaxSuffixEntries = DefaultTableCapacity
	}
	if settings.MaxResults == 0 {
		settings.MaxResults = DefaultMaxResults
	}
	if settings.NumWorkers <= 0 {
		settings.NumWorkers = runtime.NumCPU()
	}

	switch {
	case settings.PrefixMaxLength < 1 || settings.SuffixMaxLength < 1:
		return nil, fmt.Errorf("%w: prefix and suffix max lengths must be at least 1",
			ErrLengthOutOfRange)
	case settings.PrefixMaxLength+settings.SuffixMaxLength > MaxCandidateLength:
		return nil, fmt.Errorf("%w: combined length %d above %d",
			ErrLengthOutOfRange,
			settings.PrefixMaxLength+settings.SuffixMaxLength, MaxCandidateLength)
	}
	if targets == nil {
		targets = NewTargetSet(nil)
	}

	return &mitmSearcher{
		targets:  targets,
		settings: settings,
	}, nil
}

// tableJob is one shard of table generation: one candidate length with the
// first enumerated position pinned to one character.
type tableJob struct {
	Length  int
	Fixed   string
	Suffix  bool
	MaxSize int
}

type tableWorkerResult struct {
	Entries []HashEntry
	Error   error
}

func aggregateTableResults(results <-chan tableWorkerResult) tableWorkerResult {
	var out tableWorkerResult

	var errs *multierror.Error
	for r := range results {
		out.Entries = append(out.Entries, r.Entries...)
		errs = multierror.Append(errs, r.Error)
	}

	out.Error = errs.ErrorOrNil()
	return out
}

type mitmJoinJob struct {
	// prefix-table shard, [Lo, Hi)
	Lo, Hi int
}

type mitmJoinResult struct {
	Names []string
}

func (s *mitmSearcher) Execute(ctx context.Context) (*MeetInMiddleResult, error) {
	// Each generation phase gets its own shared state: the entry budget
	// of one table must not be charged against the other.
	prefixShared := &searchShared{}
	suffixShared := &searchShared{}
	sem := newWorkerSemaphore(s.settings.NumWorkers)
	var errs *multierror.Error

	prefixTable := executeWorkers(
		ctx, sem,
		s.tableJobs(false),
		s.executeTableWorker,
		aggregateTableResults,
		prefixShared,
	)
	errs = multierror.Append(errs, prefixTable.Error)

	suffixTable := executeWorkers(
		ctx, sem,
		s.tableJobs(true),
		s.executeTableWorker,
		aggregateTableResults,
		suffixShared,
	)
	errs = multierror.Append(errs, suffixTable.Error)

	// Sort once, after every generation worker has returned; ties break
	// by string so join output is deterministic across worker counts.
	slices.SortFunc(prefixTable.Entries, compareHashEntries)
	slices.SortFunc(suffixTable.Entries, compareHashEntries)

	names, truncatedResults := s.join(ctx, prefixTable.Entries, suffixTable.Entries, sem)

	truncated := prefixShared.Truncated.Load() || suffixShared.Truncated.Load() || truncatedResults
	if truncated {
		errs = multierror.Append(errs,
			fmt.Errorf("%w: tables %d/%d entries, %d name(s) kept",
				ErrCapacityExceeded,
				len(prefixTable.Entries), len(suffixTable.Entries), len(names)))
	}
	if ctx.Err() != nil {
		errs = multierror.Append(errs, ctx.Err())
	}

	return &MeetInMiddleResult{
		Names:         names,
		PrefixEntries: len(prefixTable.Entries),
		SuffixEntries: len(suffixTable.Entries),
		GuessCount:    prefixShared.GuessCount.Load() + suffixShared.GuessCount.Load(),
		Truncated:     truncated,
	}, errs.ErrorOrNil()
}

func (s *mitmSearcher) tableJobs(suffix bool) []tableJob {
	cfg := &s.settings
	maxLength := cfg.PrefixMaxLength
	maxSize := cfg.MaxPrefixEntries
	if suffix {
		maxLength = cfg.SuffixMaxLength
		maxSize = cfg.MaxSuffixEntries
	}

	var jobs []tableJob
	for length := 1; length <= maxLength; length++ {
		if length == 1 {
			jobs = append(jobs, tableJob{Length: 1, Suffix: suffix, MaxSize: maxSize})
			continue
		}
		for i := 0; i < cfg.Alphabet.sizeAt(0, suffix); i++ {
			jobs = append(jobs, tableJob{
				Length:  length,
				Fixed:   string(cfg.Alphabet.charAt(0, i, suffix)),
				Suffix:  suffix,
				MaxSize: maxSize,
			})
		}
	}
	return jobs
}

func (s *mitmSearcher) executeTableWorker(
	ctx context.Context,
	job *tableJob,
	shared *searchShared,
) (result tableWorkerResult) {
	log := logger.FromCtx(ctx)
	log.Debugf("started table worker")
	defer func() {
		log.Debugf("ended table worker; %d entries", len(result.Entries))
	}()

	if shared.stopped() {
		return
	}

	enum, err := newEnumerator(s.settings.Alphabet, job.Length, job.Fixed, job.Suffix)
	if err != nil {
		result.Error = err
		return
	}

	if job.Suffix {
		result.Entries = s.generateSuffixEntries(ctx, enum, job, shared)
	} else {
		result.Entries = s.generatePrefixEntries(ctx, enum, job, shared)
	}
	return
}

func (s *mitmSearcher) generatePrefixEntries(
	ctx context.Context,
	enum *Enumerator,
	job *tableJob,
	shared *searchShared,
) []HashEntry {
	filter := s.settings.Filter

	var entries []HashEntry
	var guesses uint64
	var sinceCheck int
	defer func() { shared.GuessCount.Add(guesses) }()

	for ok := true; ok; {
		if sinceCheck++; sinceCheck >= cancelCheckInterval {
			sinceCheck = 0
			if !shared.checkContext(ctx) {
				return entries
			}
		} else if shared.stopped() {
			return entries
		}

		cand := enum.Candidate()
		if filter != nil && job.Length >= 3 &&
			!filter.Plausible(cand[0], cand[1], cand[2]) {
			ok = enum.SkipFrom(2)
			continue
		}

		if !reserveTableSlot(shared, job.MaxSize) {
			return entries
		}
		guesses++
		entries = append(entries, HashEntry{
			Hash: fnv1.HashLen(cand, len(cand)),
			Str:  string(cand),
		})
		ok = enum.Next()
	}
	return entries
}

func (s *mitmSearcher) generateSuffixEntries(
	ctx context.Context,
	enum *Enumerator,
	job *tableJob,
	shared *searchShared,
) []HashEntry {
	targets := s.targets.Values()

	var entries []HashEntry
	var guesses uint64
	var sinceCheck int
	defer func() { shared.GuessCount.Add(guesses) }()

	for ok := true; ok; ok = enum.Next() {
		if sinceCheck++; sinceCheck >= cancelCheckInterval {
			sinceCheck = 0
			if !shared.checkContext(ctx) {
				return entries
			}
		} else if shared.stopped() {
			return entries
		}

		cand := enum.Candidate()
		str := string(cand)
		// One entry per target: the hash a matching prefix must have.
		for _, target := range targets {
			if !reserveTableSlot(shared, job.MaxSize) {
				return entries
			}
			guesses++
			entries = append(entries, HashEntry{
				Hash: fnv1.HashInverseBytes(target, cand),
				Str:  str,
			})
		}
	}
	return entries
}

// reserveTableSlot claims one slot of a generation phase's entry budget.
// On overflow it flags truncation and stops the phase.
func reserveTableSlot(shared *searchShared, maxSize int) bool {
	if shared.ResultCount.Add(1) > uint64(maxSize) {
		shared.Truncated.Store(true)
		shared.Status.CompareAndSwap(searchStatusRunning, searchStatusStopped)
		return false
	}
	return true
}

// join binary-searches the suffix table for every prefix entry and emits
// the concatenations. Every suffix entry with an equal hash is reported,
// not just the one the binary search lands on; different split points can
// produce the same full name, so names are deduplicated afterwards.
func (s *mitmSearcher) join(
	ctx context.Context,
	prefixes, suffixes []HashEntry,
	sem *semaphore.Weighted,
) ([]string, bool) {
	if len(prefixes) == 0 || len(suffixes) == 0 {
		return nil, false
	}

	numShards := s.settings.NumWorkers
	if numShards > len(prefixes) {
		numShards = len(prefixes)
	}
	shardSize := (len(prefixes) + numShards - 1) / numShards

	var jobs []mitmJoinJob
	for lo := 0; lo < len(prefixes); lo += shardSize {
		jobs = append(jobs, mitmJoinJob{Lo: lo, Hi: min(lo+shardSize, len(prefixes))})
	}

	joined := executeWorkers(
		ctx, sem,
		jobs,
		func(ctx context.Context, job *mitmJoinJob, shared *searchShared) mitmJoinResult {
			return joinShard(ctx, shared, prefixes[job.Lo:job.Hi], suffixes)
		},
		func(results <-chan mitmJoinResult) mitmJoinResult {
			var out mitmJoinResult
			for r := range results {
				out.Names = append(out.Names, r.Names...)
			}
			return out
		},
		&searchShared{},
	)

	seen := make(map[string]struct{}, len(joined.Names))
	names := make([]string, 0, len(joined.Names))
	for _, name := range joined.Names {
		if _, dup := seen[name]; dup {
			continue
		}
		seen[name] = struct{}{}
		names = append(names, name)
	}
	slices.Sort(names)

	truncated := false
	if len(names) > s.settings.MaxResults {
		names = names[:s.settings.MaxResults]
		truncated = true
	}
	return names, truncated
}

func joinShard(
	ctx context.Context,
	shared *searchShared,
	prefixes, suffixes []HashEntry,
) (result mitmJoinResult) {
	var sinceCheck int
	for i := range prefixes {
		if sinceCheck++; sinceCheck >= cancelCheckInterval {
			sinceCheck = 0
			if !shared.checkContext(ctx) {
				return
			}
		}
		p := &prefixes[i]
		// BinarySearchFunc lands on the first equal-hash entry; walk
		// right to collect the whole run.
		idx, found := slices.BinarySearchFunc(suffixes, *p, func(e, t HashEntry) int {
			switch {
			case e.Hash < t.Hash:
				return -1
			case e.Hash > t.Hash:
				return 1
			}
			return 0
		})
		if !found {
			continue
		}
		for ; idx < len(suffixes) && suffixes[idx].Hash == p.Hash; idx++ {
			result.Names = append(result.Names, p.Str+suffixes[idx].Str)
		}
	}
	return
}

func compareHashEntries(a, b HashEntry) int {
	switch {
	case a.Hash < b.Hash:
		return -1
	case a.Hash > b.Hash:
		return 1
	default:
		switch {
		case a.Str < b.Str:
			return -1
		case a.Str > b.Str:
			return 1
		}
		return 0
	}
}
