package openai

import (
	"fmt"
	"strings"

	"github.com/zatekoja/careroute/internal/domain/entities"
)

const classifyToolName = "classify_condition"

const specialtyExamples = "Cardiology, Ophthalmology, Orthopedics, Dermatology, Internal Medicine, Pediatrics, Neurology, ENT, Pulmonology, Emergency Medicine, Gynecology, Urology, Psychiatry, General Surgery, Endocrinology, Gastroenterology, Pharmacy Care"

const classifierSystemPromptTemplate = `You are an AI medical specialty classifier. Based on the patient's symptoms, classify them into the most suitable MEDICAL SPECIALTY.

You MUST respond using the "%s" tool. Do NOT respond with plain text.

Rules:
- Focus on SPECIALTY classification, not disease diagnosis
- Consider age, gender, pain level, duration, and chronic diseases
- Emergency flags (chest pain, breathing difficulty, severe bleeding, loss of consciousness) should increase severity
- Severity levels: "high" (go to ER immediately), "medium" (visit a doctor soon), "low" (pharmacy or home care)
- Confidence is 0-100 percentage
- Also suggest relevant lab tests or radiology scans that might be needed
- Respond in %s

Specialty examples: %s`

func buildSystemPrompt(lang entities.Language) string {
	answer := "English"
	if lang == entities.LanguageArabic {
		answer = "Arabic"
	}
	return fmt.Sprintf(classifierSystemPromptTemplate, classifyToolName, answer, specialtyExamples)
}

func buildUserPrompt(r *entities.SymptomReport) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Patient symptoms: %s\n", r.Symptoms)
	if r.Age != nil {
		fmt.Fprintf(&b, "Age: %d\n", *r.Age)
	} else {
		b.WriteString("Age: not provided\n")
	}
	fmt.Fprintf(&b, "Gender: %s\n", orDefault(string(r.Gender), "not provided"))
	fmt.Fprintf(&b, "Duration: %s\n", orDefault(r.Duration, "not provided"))
	fmt.Fprintf(&b, "Pain level: %d/10\n", r.PainLevel)
	fmt.Fprintf(&b, "Chronic diseases: %s\n", orDefault(r.ChronicDiseases, "none"))

	f := r.EmergencyFlags
	if f.Any() {
		fmt.Fprintf(&b, "Emergency flags: Chest pain: %t, Breathing difficulty: %t, Severe bleeding: %t, Loss of consciousness: %t",
			f.ChestPain, f.BreathingDifficulty, f.SevereBleeding, f.LossOfConsciousness)
	} else {
		b.WriteString("Emergency flags: None")
	}
	return b.String()
}

func orDefault(v, fallback string) string {
	if strings.TrimSpace(v) == "" {
		return fallback
	}
	return v
}

// classifyTool is the function schema the model is forced to call
var classifyTool = map[string]interface{}{
	"type": "function",
	"function": map[string]interface{}{
		"name":        classifyToolName,
		"description": "Classify the patient's condition into a medical specialty with severity assessment and suggested tests",
		"parameters": map[string]interface{}{
			"type": "object",
			"properties": map[string]interface{}{
				"specialty": map[string]interface{}{
					"type":        "string",
					"description": "The recommended medical specialty",
				},
				"severity": map[string]interface{}{
					"type":        "string",
					"enum":        []string{"high", "medium", "low"},
					"description": "Severity level",
				},
				"nextStep": map[string]interface{}{
					"type":        "string",
					"description": "Suggested next step for the patient",
				},
				"confidence": map[string]interface{}{
					"type":        "number",
					"description": "Confidence score 0-100",
				},
				"suggestedTests": map[string]interface{}{
					"type":        "array",
					"items":       map[string]string{"type": "string"},
					"description": "Suggested lab tests or radiology scans e.g. CBC, X-Ray, MRI, Blood Sugar, Urine Analysis, CT Scan, ECG",
				},
			},
			"required":             []string{"specialty", "severity", "nextStep", "confidence", "suggestedTests"},
			"additionalProperties": false,
		},
	},
}

var classifyToolChoice = map[string]interface{}{
	"type":     "function",
	"function": map[string]string{"name": classifyToolName},
}
