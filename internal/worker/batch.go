package worker

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/google/uuid"

	"github.com/EunoiaC/Verify/internal/model"
)

// Analyzer defines the interface for analyzing a single post
type Analyzer interface {
	Analyze(ctx context.Context, post model.Post) (*model.Analysis, error)
}

// PostJob represents a post analysis job
type PostJob struct {
	Index    int
	Post     model.Post
	Analyzer Analyzer
}

// Execute executes the post job
func (j *PostJob) Execute(ctx context.Context) Result {
	analysis, err := j.Analyzer.Analyze(ctx, j.Post)
	return &PostResult{
		Index:    j.Index,
		PostID:   j.Post.ID,
		Analysis: analysis,
		Error:    err,
	}
}

// PostResult represents the result of a post job
type PostResult struct {
	Index    int
	PostID   string
	Analysis *model.Analysis
	Error    error
}

// GetError returns the error from the post result
func (r *PostResult) GetError() error {
	return r.Error
}

// BatchProcessor processes multiple posts concurrently
type BatchProcessor struct {
	analyzer    Analyzer
	concurrency int
}

// NewBatchProcessor creates a new batch processor
func NewBatchProcessor(analyzer Analyzer, concurrency int) *BatchProcessor {
	return &BatchProcessor{
		analyzer:    analyzer,
		concurrency: concurrency,
	}
}

// ProcessPosts analyzes posts concurrently and returns results in input order
func (b *BatchProcessor) ProcessPosts(ctx context.Context, posts []model.Post) []*PostResult {
	if len(posts) == 0 {
		return []*PostResult{}
	}

	jobs := make([]Job, len(posts))
	for i, post := range posts {
		jobs[i] = &PostJob{Index: i, Post: post, Analyzer: b.analyzer}
	}

	results := NewPool(ctx, b.concurrency).Run(jobs)

	// One slot per post; posts the pool never reported on were cut off by ctx
	postResults := make([]*PostResult, len(posts))
	for _, result := range results {
		r := result.(*PostResult)
		postResults[r.Index] = r
	}
	for i, post := range posts {
		if postResults[i] != nil {
			continue
		}
		err := ctx.Err()
		if err == nil {
			err = context.Canceled
		}
		postResults[i] = &PostResult{Index: i, PostID: post.ID, Error: err}
	}

	return postResults
}

// ProcessFile reads posts from a JSON-lines file and processes them concurrently
func (b *BatchProcessor) ProcessFile(ctx context.Context, filePath string) ([]*PostResult, error) {
	posts, err := ReadPostsFromFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("read posts: %w", err)
	}

	return b.ProcessPosts(ctx, posts), nil
}

// ReadPostsFromFile reads posts from a JSON-lines file (one post object per line).
// Empty lines and lines starting with # are skipped. Posts without an id get a
// generated one; repeated ids keep the first occurrence.
func ReadPostsFromFile(filePath string) ([]model.Post, error) {
	file, err := os.Open(filePath)
	if err != nil {
		return nil, fmt.Errorf("open file: %w", err)
	}
	defer func() { _ = file.Close() }()

	var posts []model.Post
	seen := make(map[string]bool)

	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)

	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())

		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		var post model.Post
		if err := json.Unmarshal([]byte(line), &post); err != nil {
			return nil, fmt.Errorf("line %d: %w", lineNo, err)
		}

		if post.ID == "" {
			post.ID = uuid.NewString()
		}

		if !seen[post.ID] {
			seen[post.ID] = true
			posts = append(posts, post)
		}
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scan file: %w", err)
	}

	return posts, nil
}
