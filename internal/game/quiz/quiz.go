// Package quiz selects universe-scoped trivia questions and scores answers.
package quiz

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"

	"gopkg.in/yaml.v3"

	"github.com/cory-johannsen/mythic/internal/game/dice"
	"github.com/cory-johannsen/mythic/internal/game/species"
)

// DefaultQuestionCount is the number of questions served per quiz.
const DefaultQuestionCount = 5

// Question is a multiple-choice trivia question. CorrectAnswer is one of Options.
type Question struct {
	ID            int64            `yaml:"id"`
	Text          string           `yaml:"text"`
	Options       []string         `yaml:"options"`
	CorrectAnswer string           `yaml:"correct_answer"`
	Universe      species.Universe `yaml:"universe"`
}

// Validate checks the question invariants.
func (q *Question) Validate() error {
	var errs []error
	if q.ID <= 0 {
		errs = append(errs, fmt.Errorf("id must be > 0, got %d", q.ID))
	}
	if q.Text == "" {
		errs = append(errs, errors.New("text must not be empty"))
	}
	if len(q.Options) < 2 {
		errs = append(errs, fmt.Errorf("at least 2 options required, got %d", len(q.Options)))
	}
	if !slices.Contains(q.Options, q.CorrectAnswer) {
		errs = append(errs, fmt.Errorf("correct answer %q is not one of the options", q.CorrectAnswer))
	}
	if !q.Universe.Valid() {
		errs = append(errs, fmt.Errorf("unknown universe %q", q.Universe))
	}
	return errors.Join(errs...)
}

// Select returns up to n questions of universe from pool, drawn at random and
// returned in random order.
//
// Precondition: roller is non-nil.
// Postcondition: every returned question has Universe == universe; len(result) ==
// min(n, matching); result is never nil; pool is not modified.
func Select(pool []Question, universe species.Universe, n int, roller *dice.Roller) []Question {
	matching := make([]Question, 0, len(pool))
	for _, q := range pool {
		if q.Universe == universe {
			matching = append(matching, q)
		}
	}
	if n < 0 {
		n = 0
	}
	roller.Shuffle("quiz draw", len(matching), func(i, j int) {
		matching[i], matching[j] = matching[j], matching[i]
	})
	if len(matching) > n {
		matching = matching[:n]
	}
	roller.Shuffle("quiz order", len(matching), func(i, j int) {
		matching[i], matching[j] = matching[j], matching[i]
	})
	return matching
}

// Result summarises a scored submission.
type Result struct {
	Correct int
	Total   int
	Score   int
}

// Score grades answers (keyed by question ID) against questions. Score is the
// percentage of correct answers rounded down; an empty quiz scores 0.
func Score(questions []Question, answers map[int64]string) Result {
	res := Result{Total: len(questions)}
	for _, q := range questions {
		if a, ok := answers[q.ID]; ok && a == q.CorrectAnswer {
			res.Correct++
		}
	}
	if res.Total > 0 {
		res.Score = res.Correct * 100 / res.Total
	}
	return res
}

type questionFile struct {
	Questions []Question `yaml:"questions"`
}

// LoadDir reads every *.yaml file in dir and returns the validated questions.
//
// Postcondition: returns an error on any invalid or duplicate question.
func LoadDir(dir string) ([]Question, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("reading quiz dir %q: %w", dir, err)
	}
	seen := make(map[int64]bool)
	var out []Question
	for _, e := range entries {
		if e.IsDir() || filepath.Ext(e.Name()) != ".yaml" {
			continue
		}
		path := filepath.Join(dir, e.Name())
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading %q: %w", path, err)
		}
		var f questionFile
		if err := yaml.Unmarshal(data, &f); err != nil {
			return nil, fmt.Errorf("parsing %q: %w", path, err)
		}
		for i := range f.Questions {
			q := f.Questions[i]
			if err := q.Validate(); err != nil {
				return nil, fmt.Errorf("%s: question %d: %w", path, q.ID, err)
			}
			if seen[q.ID] {
				return nil, fmt.Errorf("%s: duplicate question id %d", path, q.ID)
			}
			seen[q.ID] = true
			out = append(out, q)
		}
	}
	return out, nil
}
