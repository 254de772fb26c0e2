package study

import (
	"errors"
	"fmt"
	"time"

	"github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/klauspost/cpuid/v2"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// ErrNoCompletedTrials is returned when a study finished without a
// single completed trial.
var ErrNoCompletedTrials = errors.New("study: no completed trials")

// TrialState is the lifecycle state of a persisted trial.
type TrialState string

const (
	TrialRunning  TrialState = "running"
	TrialComplete TrialState = "complete"
	TrialPruned   TrialState = "pruned"
	TrialFailed   TrialState = "failed"
)

// StudyRecord is one hyperparameter search run. The CPU brand of the
// machine is captured so stored trial timings stay interpretable.
type StudyRecord struct {
	ID        string `gorm:"primaryKey;size:36"`
	Name      string `gorm:"index"`
	Direction string
	CPUBrand  string
	CreatedAt time.Time
}

// TableName keeps the irregular plural out of gorm's hands.
func (StudyRecord) TableName() string { return "studies" }

// TrialRecord is one persisted trial.
type TrialRecord struct {
	ID        string `gorm:"primaryKey;size:36"`
	StudyID   string `gorm:"index;size:36"`
	Number    int
	Params    string // TrialParams as JSON
	Value     float64
	State     TrialState
	Error     string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// TrialParams decodes the stored parameter JSON.
func (t *TrialRecord) TrialParams() (TrialParams, error) {
	var p TrialParams
	err := json.Unmarshal([]byte(t.Params), &p)
	return p, err
}

// Store persists studies and trials in a SQLite database.
type Store struct {
	db *gorm.DB
}

// Open opens (or creates) the study database at path and migrates the
// schema. Use ":memory:" for an ephemeral store.
func Open(path string) (*Store, error) {
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("study: opening %s: %w", path, err)
	}
	if err := db.AutoMigrate(&StudyRecord{}, &TrialRecord{}); err != nil {
		return nil, fmt.Errorf("study: migrating schema: %w", err)
	}
	return &Store{db: db}, nil
}

// CreateStudy inserts a new study row.
func (s *Store) CreateStudy(name string) (*StudyRecord, error) {
	rec := &StudyRecord{
		ID:        uuid.NewString(),
		Name:      name,
		Direction: "minimize",
		CPUBrand:  cpuid.CPU.BrandName,
	}
	if err := s.db.Create(rec).Error; err != nil {
		return nil, err
	}
	return rec, nil
}

// CreateTrial inserts a running trial.
func (s *Store) CreateTrial(studyID string, number int, p TrialParams) (*TrialRecord, error) {
	params, err := json.Marshal(p)
	if err != nil {
		return nil, err
	}
	rec := &TrialRecord{
		ID:      uuid.NewString(),
		StudyID: studyID,
		Number:  number,
		Params:  string(params),
		State:   TrialRunning,
	}
	if err := s.db.Create(rec).Error; err != nil {
		return nil, err
	}
	return rec, nil
}

// FinishTrial records the outcome of a trial.
func (s *Store) FinishTrial(trialID string, value float64, state TrialState, trialErr string) error {
	return s.db.Model(&TrialRecord{}).Where("id = ?", trialID).Updates(map[string]any{
		"value": value,
		"state": state,
		"error": trialErr,
	}).Error
}

// BestTrial returns the completed trial with the lowest value.
func (s *Store) BestTrial(studyID string) (*TrialRecord, error) {
	var rec TrialRecord
	err := s.db.Where("study_id = ? AND state = ?", studyID, TrialComplete).
		Order("value asc").First(&rec).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNoCompletedTrials
	}
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

// Trials returns every trial of a study ordered by number.
func (s *Store) Trials(studyID string) ([]TrialRecord, error) {
	var recs []TrialRecord
	err := s.db.Where("study_id = ?", studyID).Order("number asc").Find(&recs).Error
	return recs, err
}
