package service

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/gameia/engine/internal/scoring"
	"github.com/gameia/engine/internal/validation"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"gopkg.in/yaml.v3"
)

var defaultHealthCopy = map[string]string{
	scoring.HealthExcellent: "Great rhythm. Keep your streak alive and take on a new challenge.",
	scoring.HealthGood:      "Solid progress. Clear your pending actions to move up.",
	scoring.HealthAttention: "Progress is slowing. Pick one pending action and finish it today.",
	scoring.HealthCritical:  "Time to restart. Complete one short module to rebuild your streak.",
}

// Assessment is a health score with its status and advisory copy.
type Assessment struct {
	Score   int             `json:"score"`
	Status  string          `json:"status"`
	Label   string          `json:"label"`
	Message string          `json:"message"`
	Signals scoring.Signals `json:"signals"`
}

type healthCopyFile struct {
	Messages map[string]string `yaml:"messages"`
}

// HealthService scores signals and attaches advisory copy per status.
type HealthService struct {
	copy map[string]string
}

func NewHealthService(messages map[string]string) *HealthService {
	merged := make(map[string]string, len(defaultHealthCopy))
	for status, msg := range defaultHealthCopy {
		merged[status] = msg
	}
	for status, msg := range messages {
		if msg != "" {
			merged[status] = msg
		}
	}

	return &HealthService{copy: merged}
}

// LoadHealthCopy reads advisory messages from a YAML file. An empty path yields
// no overrides.
func LoadHealthCopy(path string) (map[string]string, error) {
	if path == "" {
		return nil, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read health copy: %w", err)
	}

	var file healthCopyFile
	err = yaml.Unmarshal(data, &file)
	if err != nil {
		return nil, fmt.Errorf("failed to parse health copy %s: %w", path, err)
	}

	for status := range file.Messages {
		switch status {
		case scoring.HealthExcellent, scoring.HealthGood, scoring.HealthAttention, scoring.HealthCritical:
		default:
			slog.Warn("health copy has unknown status", "status", status, "path", path)
		}
	}

	return file.Messages, nil
}

// Assess is pure: the same signals always produce the same assessment.
func (s *HealthService) Assess(signals scoring.Signals) Assessment {
	score := scoring.HealthScore(signals)
	status := scoring.HealthStatus(score)

	return Assessment{
		Score:   score,
		Status:  status,
		Label:   cases.Title(language.English).String(status),
		Message: s.copy[status],
		Signals: signals,
	}
}

// ValidateSignals rejects negative counters from request input. The score
// itself stays bounded for any input.
func ValidateSignals(signals scoring.Signals) error {
	return validation.Struct(signals)
}
