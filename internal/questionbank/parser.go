package questionbank

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"github.com/noah-isme/gema-study-api/internal/fieldparse"
)

// Column headers expected in the bank. Matching ignores case and surrounding spaces.
const (
	ColumnCategory   = "category"
	ColumnNumbers    = "Numbers"
	ColumnOperations = "Operations"
	ColumnTarget     = "Target"
	ColumnAnswer     = "Answer"
)

// defaultCategory is used for rows that precede any labelled category block.
const defaultCategory = "-"

var (
	// ErrEmptyBank indicates the source had no header row.
	ErrEmptyBank = errors.New("question bank is empty")

	utf8BOM = []byte{0xEF, 0xBB, 0xBF}
)

// Parse reads a CSV question bank. Category labels carry forward into rows
// whose category cell is blank. Rows missing numbers, operations or a numeric
// target are skipped and reported in the result rather than failing the load.
func Parse(r io.Reader) (LoadResult, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return LoadResult{}, fmt.Errorf("read question bank: %w", err)
	}
	return parseBytes(data)
}

func parseBytes(data []byte) (LoadResult, error) {
	data = bytes.TrimPrefix(data, utf8BOM)

	reader := csv.NewReader(bytes.NewReader(data))
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return LoadResult{}, ErrEmptyBank
	}
	if err != nil {
		return LoadResult{}, fmt.Errorf("read question bank header: %w", err)
	}

	columns := indexColumns(header)
	result := LoadResult{Questions: []Question{}}
	lastCategory := ""

	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return LoadResult{}, fmt.Errorf("read question bank row: %w", err)
		}

		line, _ := reader.FieldPos(0)
		row := rowView{record: record, columns: columns}

		category := row.get(ColumnCategory)
		if category != "" {
			lastCategory = category
		} else if lastCategory != "" {
			category = lastCategory
		} else {
			category = defaultCategory
		}

		question, reason := buildQuestion(category, row)
		if reason != "" {
			result.Skipped = append(result.Skipped, SkippedRow{Line: line, Reason: reason})
			continue
		}
		result.Questions = append(result.Questions, question)
	}

	return result, nil
}

func buildQuestion(category string, row rowView) (Question, string) {
	numbersRaw := row.get(ColumnNumbers)
	opsRaw := row.get(ColumnOperations)
	targetRaw := row.get(ColumnTarget)

	switch {
	case numbersRaw == "":
		return Question{}, "missing numbers"
	case opsRaw == "":
		return Question{}, "missing operations"
	case targetRaw == "":
		return Question{}, "missing target"
	}

	numbers := fieldparse.ParseNumbers(numbersRaw).Value
	ops := fieldparse.ParseOperators(opsRaw).Value
	if len(numbers) == 0 {
		return Question{}, "no numbers parsed"
	}
	if len(ops) == 0 {
		return Question{}, "no operations parsed"
	}

	// ParseFloat accepts nan and inf spellings, which JSON cannot carry.
	target, err := strconv.ParseFloat(targetRaw, 64)
	if err != nil || math.IsNaN(target) || math.IsInf(target, 0) {
		return Question{}, fmt.Sprintf("target %q is not numeric", targetRaw)
	}

	return Question{
		Category:    category,
		Numbers:     numbers,
		Ops:         ops,
		Target:      target,
		Answer:      row.get(ColumnAnswer),
		NumbersText: fieldparse.FormatNumbers(numbers),
		OpsText:     fieldparse.FormatOperators(ops),
	}, ""
}

type rowView struct {
	record  []string
	columns map[string]int
}

func (r rowView) get(column string) string {
	idx, ok := r.columns[strings.ToLower(column)]
	if !ok || idx >= len(r.record) {
		return ""
	}
	return strings.TrimSpace(r.record[idx])
}

func indexColumns(header []string) map[string]int {
	columns := make(map[string]int, len(header))
	for i, name := range header {
		key := strings.ToLower(strings.TrimSpace(name))
		if _, exists := columns[key]; !exists {
			columns[key] = i
		}
	}
	return columns
}
