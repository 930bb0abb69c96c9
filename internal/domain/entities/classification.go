package entities

import (
	"strings"
)

// Severity is the urgency assigned by the classifier
type Severity string

const (
	SeverityHigh   Severity = "high"
	SeverityMedium Severity = "medium"
	SeverityLow    Severity = "low"
)

// IsValid reports whether the severity is a known value
func (s Severity) IsValid() bool {
	switch s {
	case SeverityHigh, SeverityMedium, SeverityLow:
		return true
	}
	return false
}

// Gender as captured on the symptom form
type Gender string

const (
	GenderMale   Gender = "male"
	GenderFemale Gender = "female"
)

// ClassificationResult is the specialty and urgency assessment for one
// symptom submission. It is never persisted.
type ClassificationResult struct {
	Specialty      string   `json:"specialty"`
	Severity       Severity `json:"severity"`
	NextStep       string   `json:"nextStep"`
	Confidence     float64  `json:"confidence"`
	SuggestedTests []string `json:"suggestedTests"`
}

// EmergencyFlags are the red-flag checkboxes on the symptom form
type EmergencyFlags struct {
	ChestPain           bool `json:"chestPain"`
	BreathingDifficulty bool `json:"breathingDifficulty"`
	SevereBleeding      bool `json:"severeBleeding"`
	LossOfConsciousness bool `json:"lossOfConsciousness"`
}

// Any reports whether at least one flag is set
func (f EmergencyFlags) Any() bool {
	return f.ChestPain || f.BreathingDifficulty || f.SevereBleeding || f.LossOfConsciousness
}

// SymptomReport is the patient input sent for classification
type SymptomReport struct {
	Symptoms        string         `json:"symptoms"`
	Age             *int           `json:"age,omitempty"`
	Gender          Gender         `json:"gender"`
	Duration        string         `json:"duration"`
	PainLevel       int            `json:"painLevel"`
	ChronicDiseases string         `json:"chronicDiseases"`
	EmergencyFlags  EmergencyFlags `json:"emergencyFlags"`
	Language        Language       `json:"language"`
}

// Normalize trims free text and fills defaults for optional enums
func (r *SymptomReport) Normalize() {
	r.Symptoms = strings.TrimSpace(r.Symptoms)
	r.Duration = strings.TrimSpace(r.Duration)
	r.ChronicDiseases = strings.TrimSpace(r.ChronicDiseases)
	if r.Language == "" {
		r.Language = LanguageEnglish
	}
	if r.Age != nil && *r.Age == 0 {
		// the form sends 0 when the field is left blank
		r.Age = nil
	}
}
