package questionbank

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"

	"github.com/gabriel-vasile/mimetype"
	"github.com/rs/zerolog"

	"github.com/noah-isme/gema-study-api/internal/observability"
)

// ErrBankNotText indicates the configured bank file is not a text/CSV document.
var ErrBankNotText = errors.New("question bank is not a text file")

// Bank supplies the ordered question sequence.
type Bank interface {
	Load(ctx context.Context) ([]Question, error)
}

// FileBank reads the question sequence from a CSV file. Every call re-reads
// and re-parses the file, so edits to the bank are visible immediately.
type FileBank struct {
	path   string
	logger zerolog.Logger
}

// NewFileBank builds a bank backed by the CSV file at path.
func NewFileBank(path string, logger zerolog.Logger) *FileBank {
	return &FileBank{
		path:   path,
		logger: logger.With().Str("component", "question_bank").Str("path", path).Logger(),
	}
}

// Path returns the backing file path.
func (b *FileBank) Path() string {
	return b.path
}

// Load implements Bank.
func (b *FileBank) Load(ctx context.Context) ([]Question, error) {
	result, err := b.LoadDetailed(ctx)
	if err != nil {
		return nil, err
	}
	return result.Questions, nil
}

// LoadDetailed returns the questions together with the rows that were skipped.
func (b *FileBank) LoadDetailed(ctx context.Context) (LoadResult, error) {
	if err := ctx.Err(); err != nil {
		return LoadResult{}, err
	}

	data, err := os.ReadFile(b.path)
	if err != nil {
		return LoadResult{}, fmt.Errorf("open question bank: %w", err)
	}

	if !isText(mimetype.Detect(data)) {
		return LoadResult{}, ErrBankNotText
	}

	result, err := parseBytes(data)
	if err != nil {
		return LoadResult{}, err
	}

	observability.BankQuestions().Set(float64(len(result.Questions)))
	observability.BankRowsSkipped().Set(float64(len(result.Skipped)))
	for _, skipped := range result.Skipped {
		b.logger.Debug().Int("line", skipped.Line).Str("reason", skipped.Reason).Msg("question row skipped")
	}

	return result, nil
}

func isText(detected *mimetype.MIME) bool {
	for m := detected; m != nil; m = m.Parent() {
		if m.Is("text/plain") {
			return true
		}
	}
	return false
}

// CachedBank loads its source once and serves the same sequence afterwards.
// It suits large or slow banks that do not change while the service runs.
// Failed loads are not cached.
type CachedBank struct {
	source    Bank
	mu        sync.Mutex
	loaded    bool
	questions []Question
}

// NewCachedBank wraps source with a load-once cache.
func NewCachedBank(source Bank) *CachedBank {
	return &CachedBank{source: source}
}

// Load implements Bank.
func (b *CachedBank) Load(ctx context.Context) ([]Question, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.loaded {
		return b.questions, nil
	}

	questions, err := b.source.Load(ctx)
	if err != nil {
		return nil, err
	}

	b.questions = questions
	b.loaded = true
	return questions, nil
}

// StaticBank serves a fixed question sequence.
type StaticBank []Question

// Load implements Bank.
func (b StaticBank) Load(context.Context) ([]Question, error) {
	return []Question(b), nil
}
