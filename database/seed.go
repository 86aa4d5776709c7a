package database

import (
	"context"
	"fmt"
	"os"
	"strings"

	"foa-chat/web/types"

	"gopkg.in/yaml.v3"
)

// LoadSeedFile reads a YAML list of question/answer pairs:
//
//	- question: What is the mission of the department?
//	  answer: To qualify professional cadres ...
func LoadSeedFile(path string) ([]types.QAEntry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read seed file '%s': %w", path, err)
	}

	var entries []types.QAEntry
	if err := yaml.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("failed to parse seed YAML: %w", err)
	}

	for i, e := range entries {
		if strings.TrimSpace(e.Question) == "" {
			return nil, fmt.Errorf("seed entry %d: question is required", i)
		}
		if strings.TrimSpace(e.Answer) == "" {
			return nil, fmt.Errorf("seed entry %d: answer is required", i)
		}
	}
	return entries, nil
}

// Seed appends every entry to store and reports how many were written.
// It stops at the first failure.
func Seed(ctx context.Context, store Store, entries []types.QAEntry) (int, error) {
	for i, e := range entries {
		if err := store.AppendEntry(ctx, e.Question, e.Answer); err != nil {
			return i, fmt.Errorf("seed entry %d: %w", i, err)
		}
	}
	return len(entries), nil
}
