// Package result assesses the quality of a tool's output, independent of
// whether the underlying call itself reported success. A tool can report
// success and still return structurally empty or statistically implausible
// data; the Execution Engine folds a Validator's verdict into the Quality
// field of the Result it hands back. The Orchestrator and Learning Loop
// read only Success, not Quality.
package result

import (
	"fmt"
	"reflect"
)

// Quality indicates how complete and trustworthy a tool's output looks.
type Quality string

const (
	// QualityFull represents complete, meaningful results.
	QualityFull Quality = "full"
	// QualityPartial represents some results but incomplete.
	QualityPartial Quality = "partial"
	// QualityEmpty represents output with no meaningful data at all.
	QualityEmpty Quality = "empty"
	// QualitySuspect represents output present but statistically anomalous.
	QualitySuspect Quality = "suspect"
)

// Validated wraps tool output with a quality assessment.
type Validated struct {
	Output      map[string]any `json:"output"`
	Quality     Quality        `json:"quality"`
	Confidence  float64        `json:"confidence"` // 0.0-1.0
	Warnings    []string       `json:"warnings,omitempty"`
	Suggestions []string       `json:"suggestions,omitempty"`
}

// Rule inspects output and returns a quality verdict, a confidence score,
// and any warnings explaining a downgrade.
type Rule func(output map[string]any) (Quality, float64, []string)

// Validator scores tool output against a configurable set of Rules.
type Validator struct {
	rules []Rule
}

// NewValidator returns a Validator with the default structural-emptiness
// and statistical-anomaly rules.
func NewValidator() *Validator {
	return &Validator{rules: []Rule{checkEmpty, checkAnomalies}}
}

// WithRules appends custom Rules, evaluated after the defaults.
func (v *Validator) WithRules(rules ...Rule) *Validator {
	v.rules = append(v.rules, rules...)
	return v
}

// Validate assesses output against every configured Rule and returns the
// worst quality verdict, the lowest confidence, and all accumulated
// warnings.
func (v *Validator) Validate(output map[string]any) *Validated {
	verdict := &Validated{Output: output, Quality: QualityFull, Confidence: 1.0}

	for _, rule := range v.rules {
		quality, confidence, warnings := rule(output)
		if worseThan(quality, verdict.Quality) {
			verdict.Quality = quality
		}
		if confidence < verdict.Confidence {
			verdict.Confidence = confidence
		}
		verdict.Warnings = append(verdict.Warnings, warnings...)
	}

	verdict.Suggestions = suggestionsForQuality(verdict.Quality)
	return verdict
}

var qualityRank = map[Quality]int{
	QualityFull:    4,
	QualityPartial: 3,
	QualityEmpty:   2,
	QualitySuspect: 1,
}

func worseThan(candidate, current Quality) bool {
	return qualityRank[candidate] < qualityRank[current]
}

// checkEmpty flags output whose well-known collection keys ("results",
// "items", "data", "output") are present but empty — a task that reports
// success while returning nothing to act on.
func checkEmpty(output map[string]any) (Quality, float64, []string) {
	for _, key := range []string{"results", "items", "data", "output"} {
		v, ok := output[key]
		if !ok {
			continue
		}
		if isEmpty(v) {
			return QualityEmpty, 0.5, []string{fmt.Sprintf("%q present but empty", key)}
		}
	}
	return QualityFull, 1.0, nil
}

// checkAnomalies flags output whose numeric fields look implausible: a
// negative count or a zero duration_ms alongside a nonzero total (suspect),
// or a processed count of zero alongside a nonzero total (partial), common
// signs of a tool that exited early without actually failing.
func checkAnomalies(output map[string]any) (Quality, float64, []string) {
	if count, ok := getNumericValue(output, "count"); ok && count < 0 {
		return QualitySuspect, 0.3, []string{fmt.Sprintf("negative count %v", count)}
	}
	if durationMS, ok := getNumericValue(output, "duration_ms"); ok && durationMS == 0 {
		if total, hasTotal := getNumericValue(output, "total"); hasTotal && total > 0 {
			return QualitySuspect, 0.4, []string{"zero duration_ms despite nonzero total"}
		}
	}
	if processed, hasProcessed := getNumericValue(output, "processed"); hasProcessed {
		if total, hasTotal := getNumericValue(output, "total"); hasTotal && total > 0 && processed == 0 {
			return QualityPartial, 0.6, []string{"none of the expected items were processed"}
		}
	}
	return QualityFull, 1.0, nil
}

func suggestionsForQuality(q Quality) []string {
	switch q {
	case QualityEmpty:
		return []string{
			"verify the task's inputs actually matched anything",
			"check whether the tool silently no-oped instead of erroring",
		}
	case QualityPartial:
		return []string{"consider retrying with a wider scope or longer timeout"}
	case QualitySuspect:
		return []string{"re-run the task and compare outputs before trusting this result"}
	default:
		return nil
	}
}

// isEmpty reports whether v is nil or a zero-length collection/string.
func isEmpty(v any) bool {
	if v == nil {
		return true
	}
	val := reflect.ValueOf(v)
	switch val.Kind() {
	case reflect.Array, reflect.Slice, reflect.Map, reflect.String:
		return val.Len() == 0
	case reflect.Ptr, reflect.Interface:
		if val.IsNil() {
			return true
		}
		return isEmpty(val.Elem().Interface())
	default:
		return false
	}
}

func getNumericValue(output map[string]any, key string) (float64, bool) {
	switch v := output[key].(type) {
	case int:
		return float64(v), true
	case int64:
		return float64(v), true
	case float64:
		return v, true
	case float32:
		return float64(v), true
	default:
		return 0, false
	}
}
