package worker

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/ppiankov/promessa/internal/model"
)

// Statement is one line of a batch file
type Statement struct {
	Line   int
	Author string
	Text   string
}

// AnalyzeFunc analyzes a single statement
type AnalyzeFunc func(ctx context.Context, s Statement) (*model.AnalysisReport, error)

// StatementResult pairs a statement with its report or error
type StatementResult struct {
	Statement Statement
	Report    *model.AnalysisReport
	Error     error
}

// BatchProcessor analyzes many statements concurrently
type BatchProcessor struct {
	analyze     AnalyzeFunc
	concurrency int
	tracker     *StatusTracker
}

// NewBatchProcessor creates a new batch processor. tracker may be nil.
func NewBatchProcessor(analyze AnalyzeFunc, concurrency int, tracker *StatusTracker) *BatchProcessor {
	return &BatchProcessor{
		analyze:     analyze,
		concurrency: concurrency,
		tracker:     tracker,
	}
}

// Process analyzes statements and returns results in input order
func (b *BatchProcessor) Process(ctx context.Context, statements []Statement) []*StatementResult {
	if len(statements) == 0 {
		return []*StatementResult{}
	}
	if b.tracker != nil {
		b.tracker.Begin(len(statements))
	}

	pool := NewPool[*model.AnalysisReport](ctx, b.concurrency)
	pool.Start()

	for _, s := range statements {
		s := s
		pool.Submit(func(ctx context.Context) (*model.AnalysisReport, error) {
			if b.tracker != nil {
				b.tracker.Started()
			}
			report, err := b.analyze(ctx, s)
			if b.tracker != nil {
				b.tracker.Finished(err)
			}
			return report, err
		})
	}

	results := make([]*StatementResult, len(statements))
	for i, s := range statements {
		results[i] = &StatementResult{Statement: s, Error: context.Canceled}
	}
	for _, r := range pool.Wait() {
		results[r.Index].Report = r.Value
		results[r.Index].Error = r.Err
	}
	return results
}

// ProcessFile reads statements from a file and analyzes them
func (b *BatchProcessor) ProcessFile(ctx context.Context, filePath string) ([]*StatementResult, error) {
	statements, err := ReadStatementsFromFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("read statements: %w", err)
	}
	return b.Process(ctx, statements), nil
}

// ReadStatementsFromFile reads statements from a file (one per line)
func ReadStatementsFromFile(filePath string) ([]Statement, error) {
	file, err := os.Open(filePath)
	if err != nil {
		return nil, fmt.Errorf("open file: %w", err)
	}
	defer func() { _ = file.Close() }()

	return ParseStatements(file)
}

// ParseStatements reads "text" or "author | text" lines. Blank lines and
// lines starting with # are skipped; repeated statements are kept once.
func ParseStatements(r io.Reader) ([]Statement, error) {
	var statements []Statement
	seen := make(map[string]bool)

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		s := Statement{Line: lineNo, Text: line}
		if author, text, ok := strings.Cut(line, "|"); ok {
			s.Author = strings.TrimSpace(author)
			s.Text = strings.TrimSpace(text)
		}
		if s.Text == "" {
			continue
		}

		key := strings.ToLower(s.Author) + "\x00" + strings.ToLower(s.Text)
		if seen[key] {
			continue
		}
		seen[key] = true
		statements = append(statements, s)
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scan file: %w", err)
	}
	return statements, nil
}
