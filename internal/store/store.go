// Package store persists exams, grades, and evaluation results as JSON
// files keyed by id. Exams are immutable once written; every grading or
// evaluation run writes a fresh file under its own id, so concurrent
// runs over the same exam never race on a shared file.
package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"github.com/examgen/examgen/internal/exam"
)

// Config locates the store on disk. Relative directories are resolved
// under DataDir; absolute ones are used as given.
type Config struct {
	DataDir    string
	ExamsDir   string
	GradesDir  string
	ResultsDir string
}

// DefaultConfig returns the standard layout: everything under ./data.
func DefaultConfig() Config {
	return Config{
		DataDir:    "data",
		ExamsDir:   "exams",
		GradesDir:  "grades",
		ResultsDir: "results",
	}
}

// Store is a JSON file store rooted at a data directory.
type Store struct {
	exams   string
	grades  string
	results string
}

// Open resolves cfg's directories and creates them if missing.
func Open(cfg Config) (*Store, error) {
	if cfg.DataDir == "" {
		cfg = DefaultConfig()
	}
	s := &Store{
		exams:   resolveDir(cfg.DataDir, cfg.ExamsDir, "exams"),
		grades:  resolveDir(cfg.DataDir, cfg.GradesDir, "grades"),
		results: resolveDir(cfg.DataDir, cfg.ResultsDir, "results"),
	}
	for _, dir := range []string{s.exams, s.grades, s.results} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create store dir: %w", err)
		}
	}
	return s, nil
}

func resolveDir(root, dir, fallback string) string {
	if dir == "" {
		dir = fallback
	}
	if filepath.IsAbs(dir) {
		return dir
	}
	return filepath.Join(root, dir)
}

// SaveExam writes e under its exam id and returns the id.
func (s *Store) SaveExam(e *exam.Exam) (string, error) {
	if e.ExamID == "" {
		return "", fmt.Errorf("exam has no id")
	}
	if err := validID(e.ExamID); err != nil {
		return "", err
	}
	if err := writeJSON(filepath.Join(s.exams, e.ExamID+".json"), e); err != nil {
		return "", fmt.Errorf("save exam: %w", err)
	}
	return e.ExamID, nil
}

// LoadExam reads the exam stored under examID. A missing exam is a
// NotFoundError.
func (s *Store) LoadExam(examID string) (*exam.Exam, error) {
	if err := validID(examID); err != nil {
		return nil, err
	}
	var e exam.Exam
	if err := readJSON(filepath.Join(s.exams, examID+".json"), &e); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, &NotFoundError{Kind: "exam", ID: examID}
		}
		return nil, fmt.Errorf("load exam: %w", err)
	}
	return &e, nil
}

// SaveGrade writes gr under a fresh grade id (unless it already carries
// one) and returns the id. The GradeID on gr is set as a side effect.
func (s *Store) SaveGrade(gr *exam.GradeResponse) (string, error) {
	if gr.GradeID == "" {
		gr.GradeID = uuid.NewString()
	}
	if err := validID(gr.GradeID); err != nil {
		return "", err
	}
	if err := writeJSON(filepath.Join(s.grades, gr.GradeID+".json"), gr); err != nil {
		return "", fmt.Errorf("save grade: %w", err)
	}
	return gr.GradeID, nil
}

// LoadGrade reads the grade stored under gradeID.
func (s *Store) LoadGrade(gradeID string) (*exam.GradeResponse, error) {
	if err := validID(gradeID); err != nil {
		return nil, err
	}
	var gr exam.GradeResponse
	if err := readJSON(filepath.Join(s.grades, gradeID+".json"), &gr); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, &NotFoundError{Kind: "grade", ID: gradeID}
		}
		return nil, fmt.Errorf("load grade: %w", err)
	}
	return &gr, nil
}

// SaveResult writes an arbitrary result artifact (e.g. an evaluation
// report) under name in the results directory and returns the path.
func (s *Store) SaveResult(name string, v any) (string, error) {
	if err := validID(name); err != nil {
		return "", err
	}
	path := filepath.Join(s.results, name+".json")
	if err := writeJSON(path, v); err != nil {
		return "", fmt.Errorf("save result: %w", err)
	}
	return path, nil
}

// ListExamIDs returns the ids of all stored exams in lexical order.
func (s *Store) ListExamIDs() ([]string, error) {
	entries, err := os.ReadDir(s.exams)
	if err != nil {
		return nil, fmt.Errorf("list exams: %w", err)
	}
	var ids []string
	for _, ent := range entries {
		name := ent.Name()
		if ent.IsDir() || !strings.HasSuffix(name, ".json") {
			continue
		}
		ids = append(ids, strings.TrimSuffix(name, ".json"))
	}
	return ids, nil
}

// validID rejects ids that could escape the store directory.
func validID(id string) error {
	if id == "" || strings.ContainsAny(id, `/\`) || strings.Contains(id, "..") {
		return fmt.Errorf("invalid id %q", id)
	}
	return nil
}

// writeJSON writes v to path via a temp file and rename, so readers
// never observe a partially written artifact.
func writeJSON(path string, v any) error {
	raw, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	tmp, err := os.CreateTemp(filepath.Dir(path), ".tmp-*")
	if err != nil {
		return err
	}
	if _, err := tmp.Write(append(raw, '\n')); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return err
	}
	return os.Rename(tmp.Name(), path)
}

func readJSON(path string, v any) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	return json.Unmarshal(raw, v)
}
