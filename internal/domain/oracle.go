package domain

import (
	"strings"

	"github.com/google/uuid"
)

// OracleType identifies one of the fixed analysis procedures
type OracleType string

const (
	OracleThemeCheck        OracleType = "theme-check"
	OracleBackButton        OracleType = "back-button"
	OracleLanguageDetection OracleType = "language-detection"
	OracleUserEnteredData   OracleType = "user-entered-data"
)

// OracleDefinition is everything that differs between two oracle runs
type OracleDefinition struct {
	Type          OracleType `json:"type"`
	DisplayName   string     `json:"displayName"`
	Script        string     `json:"script"`
	Dependencies  []string   `json:"dependencies"`
	WorkingSubdir string     `json:"workingSubdir"`
}

// RunRequest is the body of an oracle run call
type RunRequest struct {
	ArgA   string    `json:"argA"`
	ArgB   string    `json:"argB"`
	TestID uuid.UUID `json:"testId"`
}

// ScriptSpec describes one interpreter invocation
type ScriptSpec struct {
	Script          string
	Args            []string
	Dir             string
	Env             []string
	RemoveAfterExit []string
}

var oracleDefinitions = []OracleDefinition{
	{
		Type:          OracleThemeCheck,
		DisplayName:   "Theme Check",
		Script:        "theme_check_oracle.py",
		Dependencies:  []string{"theme_check_oracle.py", "oracle_utils.py", "report_utils.py", "theme_model.pkl", "Pipfile", "Pipfile.lock"},
		WorkingSubdir: "theme_check",
	},
	{
		Type:          OracleBackButton,
		DisplayName:   "Back Button",
		Script:        "back_button_oracle.py",
		Dependencies:  []string{"back_button_oracle.py", "oracle_utils.py", "report_utils.py", "screen_similarity.py", "Pipfile", "Pipfile.lock"},
		WorkingSubdir: "back_button",
	},
	{
		Type:          OracleLanguageDetection,
		DisplayName:   "Language Detection",
		Script:        "language_detection_oracle.py",
		Dependencies:  []string{"language_detection_oracle.py", "oracle_utils.py", "report_utils.py", "languages.json", "lid.176.ftz", "Pipfile", "Pipfile.lock"},
		WorkingSubdir: "language_detection",
	},
	{
		Type:          OracleUserEnteredData,
		DisplayName:   "User Entered Data",
		Script:        "user_entered_data_oracle.py",
		Dependencies:  []string{"user_entered_data_oracle.py", "oracle_utils.py", "report_utils.py", "input_fields.json", "Pipfile", "Pipfile.lock"},
		WorkingSubdir: "user_entered_data",
	},
}

// OracleDefinitions returns a copy of the oracle table in display order
func OracleDefinitions() []OracleDefinition {
	out := make([]OracleDefinition, len(oracleDefinitions))
	for i, def := range oracleDefinitions {
		def.Dependencies = append([]string(nil), def.Dependencies...)
		out[i] = def
	}
	return out
}

// LookupOracle resolves an oracle by type ("theme-check") or display name ("Theme Check"), ignoring case
func LookupOracle(name string) (OracleDefinition, bool) {
	name = strings.TrimSpace(name)
	for _, def := range OracleDefinitions() {
		if strings.EqualFold(string(def.Type), name) || strings.EqualFold(def.DisplayName, name) {
			return def, true
		}
	}
	return OracleDefinition{}, false
}
