package problems

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"

	"github.com/hintwise/hintwise/internal/domain"
)

// PackFile represents the YAML structure for a problem pack
type PackFile struct {
	Name        string   `yaml:"name"`
	Version     string   `yaml:"version"`
	Description string   `yaml:"description"`
	Problems    []string `yaml:"problems"`
}

// ProblemFile represents the YAML structure for a single problem
type ProblemFile struct {
	Title       string   `yaml:"title"`
	Description string   `yaml:"description"`
	Difficulty  string   `yaml:"difficulty"`
	Tags        []string `yaml:"tags"`
}

// Pack is a loaded problem pack
type Pack struct {
	Name        string
	Version     string
	Description string
	Problems    []*domain.Problem
}

// Loader handles loading problems from YAML files
type Loader struct {
	basePath string
}

// NewLoader creates a new problem loader
func NewLoader(basePath string) *Loader {
	return &Loader{basePath: basePath}
}

// BasePath returns the loader's base directory
func (l *Loader) BasePath() string {
	return l.basePath
}

// LoadPack loads the pack manifest and every problem it lists
func (l *Loader) LoadPack() (*Pack, error) {
	packPath := filepath.Join(l.basePath, "pack.yaml")

	data, err := os.ReadFile(packPath)
	if err != nil {
		return nil, fmt.Errorf("read pack file: %w", err)
	}

	var packFile PackFile
	if err := yaml.Unmarshal(data, &packFile); err != nil {
		return nil, fmt.Errorf("parse pack file: %w", err)
	}

	pack := &Pack{
		Name:        packFile.Name,
		Version:     packFile.Version,
		Description: packFile.Description,
	}

	for _, slug := range packFile.Problems {
		problem, err := l.LoadProblem(slug)
		if err != nil {
			return nil, err
		}
		pack.Problems = append(pack.Problems, problem)
	}

	return pack, nil
}

// LoadProblem loads a single problem from a YAML file
func (l *Loader) LoadProblem(slug string) (*domain.Problem, error) {
	problemPath := filepath.Join(l.basePath, slug+".yaml")

	data, err := os.ReadFile(problemPath)
	if err != nil {
		return nil, fmt.Errorf("read problem file: %w", err)
	}

	var file ProblemFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parse problem file %s: %w", slug, err)
	}
	if file.Title == "" {
		return nil, fmt.Errorf("problem %s has no title", slug)
	}

	difficulty := domain.Difficulty(file.Difficulty)
	switch difficulty {
	case domain.DifficultyEasy, domain.DifficultyMedium, domain.DifficultyHard:
	case "":
		difficulty = domain.DifficultyEasy
	default:
		return nil, fmt.Errorf("problem %s has unknown difficulty %q", slug, file.Difficulty)
	}

	return &domain.Problem{
		ID:          uuid.New(),
		Title:       file.Title,
		Description: file.Description,
		Difficulty:  difficulty,
	}, nil
}

// Upserter persists problems, returning the stable stored ID
type Upserter interface {
	Upsert(ctx context.Context, p *domain.Problem) (uuid.UUID, error)
}

// Registrar accepts problems into the similarity corpus
type Registrar interface {
	Register(p *domain.Problem)
}

// Sync loads the pack, upserts every problem and registers it for
// similarity retrieval. Stored IDs win over freshly generated ones.
func Sync(ctx context.Context, loader *Loader, store Upserter, index Registrar, logger *slog.Logger) (*Pack, error) {
	if logger == nil {
		logger = slog.Default()
	}

	pack, err := loader.LoadPack()
	if err != nil {
		return nil, err
	}

	for _, p := range pack.Problems {
		id, err := store.Upsert(ctx, p)
		if err != nil {
			return nil, fmt.Errorf("upsert problem %q: %w", p.Title, err)
		}
		p.ID = id
		if index != nil {
			index.Register(p)
		}
	}

	logger.Info("problem pack synced",
		"name", pack.Name,
		"version", pack.Version,
		"problems", len(pack.Problems),
	)
	return pack, nil
}
