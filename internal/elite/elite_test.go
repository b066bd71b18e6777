package elite

import (
	"math"
	"strings"
	"testing"

	"github.com/caseprep/qgate/internal/question"
)

// eliteQuestion builds a question whose explanation satisfies every
// rubric dimension at full score.
func eliteQuestion() *question.Question {
	return &question.Question{
		ID:       "q-elite",
		Vignette: "A 62-year-old man presents with fever and dyspnea. His potassium is 6.2 mEq/L (normal 3.5-5.0).",
		Stem:     "Which of the following is the most likely diagnosis?",
		Choices: map[string]string{
			"A": "Community-acquired pneumonia",
			"B": "Pulmonary embolism",
			"C": "Acute decompensated heart failure",
			"D": "Chronic obstructive pulmonary disease exacerbation",
			"E": "Pericardial tamponade",
		},
		Answer: "A",
		Explanation: question.Explanation{
			Structured: &question.StructuredExplanation{
				QuickAnswer: "Fever with dyspnea and a focal infiltrate points to community-acquired pneumonia.",
				Principle:   "Alveolar infection causes consolidation, which results in impaired gas exchange.",
				ClinicalReasoning: "Bacterial invasion -> alveolar inflammation -> exudate fills airspaces, " +
					"which leads to hypoxemia and causes the fever response. " +
					"His potassium of 6.2 mEq/L (normal 3.5-5.0) reflects early renal stress.",
				CorrectAnswer: "Pneumonia results in the focal findings seen here.",
				Distractors: map[string]string{
					"B": "Tempting because dyspnea is shared, but PE rarely causes high fever.",
					"C": "Commonly confused with pneumonia on chest film; no volume overload here.",
					"D": "Students often choose this in any smoker, but there is no wheeze.",
					"E": "Might seem correct given the dyspnea, but there is no pulsus paradoxus.",
				},
			},
		},
	}
}

func TestWeightsSumToOne(t *testing.T) {
	sum := 0.0
	for _, w := range Weights() {
		sum += w
	}
	if math.Abs(sum-1.0) > 1e-9 {
		t.Fatalf("weights sum to %v, want 1.0", sum)
	}
}

func TestValidate_EliteExplanation(t *testing.T) {
	res := NewValidator().Validate(eliteQuestion())

	if res.Composite < EliteThreshold {
		t.Fatalf("composite = %v, want >= %v (dims %v)", res.Composite, EliteThreshold, res.Dimensions)
	}
	if res.Composite > 100 {
		t.Fatalf("composite %v exceeds 100", res.Composite)
	}
	if !res.IsElite {
		t.Fatal("IsElite false for composite above threshold")
	}
	if len(res.Issues) != 0 {
		t.Errorf("unexpected issues: %v", res.Issues)
	}
	if len(res.Recommendations) != 0 {
		t.Errorf("unexpected recommendations: %v", res.Recommendations)
	}
}

func TestValidate_MissingQuickAnswer(t *testing.T) {
	full := eliteQuestion()
	withScore := NewValidator().Validate(full)

	stripped := eliteQuestion()
	stripped.Explanation.Structured.QuickAnswer = ""
	res := NewValidator().Validate(stripped)

	if res.Dimensions[DimPatternRecognition] != 0 {
		t.Errorf("pattern_recognition = %v, want 0", res.Dimensions[DimPatternRecognition])
	}
	if res.Dimensions[DimBrevity] != 0 {
		t.Errorf("brevity = %v, want 0", res.Dimensions[DimBrevity])
	}
	if res.Composite >= withScore.Composite {
		t.Errorf("composite %v not strictly below %v", res.Composite, withScore.Composite)
	}
}

func TestValidate_LegacyExplanationScoresLow(t *testing.T) {
	q := eliteQuestion()
	q.Explanation = question.Explanation{Legacy: "The answer is A because the patient has pneumonia."}

	res := NewValidator().Validate(q)
	if res.IsElite {
		t.Fatalf("legacy prose explanation scored elite: %v", res.Composite)
	}
	if res.Dimensions[DimDistractorCoverage] != 0 {
		t.Errorf("distractor_coverage = %v, want 0 without structured distractors",
			res.Dimensions[DimDistractorCoverage])
	}
	if len(res.Recommendations) == 0 {
		t.Error("expected remediation recommendations")
	}
}

func TestScoreMechanismDepth_Tiers(t *testing.T) {
	cases := []struct {
		reasoning string
		want      float64
	}{
		{"Infection -> inflammation, which leads to exudate and causes hypoxemia; this results in dyspnea.", 1.0},
		{"Infection leads to inflammation and causes hypoxemia.", 0.7},
		{"Infection causes hypoxemia.", 0.4},
		{"The patient has an infection.", 0.1},
	}
	for _, tc := range cases {
		q := eliteQuestion()
		q.Explanation.Structured.Principle = ""
		q.Explanation.Structured.CorrectAnswer = ""
		q.Explanation.Structured.ClinicalReasoning = tc.reasoning
		got := scoreMechanismDepth(q)
		if got != tc.want {
			t.Errorf("mechanism(%q) = %v, want %v", tc.reasoning, got, tc.want)
		}
	}
}

func TestScoreDistractorCoverage_MissingLetters(t *testing.T) {
	cases := []struct {
		drop []string
		want float64
	}{
		{nil, 1.0},
		{[]string{"B"}, 0.8},
		{[]string{"B", "C"}, 0.5},
		{[]string{"B", "C", "D"}, 0.2},
	}
	for _, tc := range cases {
		q := eliteQuestion()
		for _, l := range tc.drop {
			delete(q.Explanation.Structured.Distractors, l)
		}
		got := scoreDistractorCoverage(q)
		if got != tc.want {
			t.Errorf("coverage with %d missing = %v, want %v", len(tc.drop), got, tc.want)
		}
	}
}

func TestScoreDistractorPsychology_CountsPhrases(t *testing.T) {
	q := eliteQuestion()
	q.Explanation.Structured.Distractors = map[string]string{
		"B": "Wrong because the timeline does not fit.",
		"C": "Incorrect given the exam findings.",
		"D": "Not supported by the labs.",
		"E": "Does not explain the fever.",
	}
	if got := scoreDistractorPsychology(q); got != 0.2 {
		t.Errorf("no psychology phrases = %v, want 0.2", got)
	}

	q.Explanation.Structured.Distractors["B"] = "Tempting because dyspnea is shared."
	if got := scoreDistractorPsychology(q); got != 0.5 {
		t.Errorf("one phrase = %v, want 0.5", got)
	}
}

func TestScoreThresholdExplicitness(t *testing.T) {
	cases := []struct {
		name      string
		reasoning string
		want      float64
	}{
		{"no numbers", "The picture is classic for pneumonia.", 0.7},
		{"all annotated", "Potassium 6.2 mEq/L (normal 3.5-5.0) is elevated.", 1.0},
		{"none annotated", "Potassium 6.2 mEq/L is elevated and sodium 128 mEq/L is low.", 0.2},
	}
	for _, tc := range cases {
		q := eliteQuestion()
		q.Explanation.Structured.Principle = ""
		q.Explanation.Structured.CorrectAnswer = ""
		q.Explanation.Structured.ClinicalReasoning = tc.reasoning
		if got := scoreThresholdExplicitness(q); got != tc.want {
			t.Errorf("%s: got %v, want %v", tc.name, got, tc.want)
		}
	}
}

func TestScoreBrevity_WordBudget(t *testing.T) {
	cases := []struct {
		words int
		want  float64
	}{
		{10, 1.0},
		{30, 1.0},
		{35, 0.7},
		{45, 0.4},
		{60, 0.1},
	}
	for _, tc := range cases {
		q := eliteQuestion()
		q.Explanation.Structured.QuickAnswer = strings.Repeat("word ", tc.words)
		if got := scoreBrevity(q); got != tc.want {
			t.Errorf("%d words = %v, want %v", tc.words, got, tc.want)
		}
	}
}

func TestFirstSentence_SkipsDecimalPoints(t *testing.T) {
	got := firstSentence("His potassium is 6.2 mEq/L today. Second sentence.")
	want := "His potassium is 6.2 mEq/L today."
	if got != want {
		t.Fatalf("firstSentence = %q, want %q", got, want)
	}
}

func TestRecommend_CapsAtFiveWeakestFirst(t *testing.T) {
	dims := map[string]float64{
		DimPatternRecognition:    0.1,
		DimMechanismDepth:        0.2,
		DimDistractorCoverage:    0.3,
		DimDistractorPsychology:  0.4,
		DimThresholdExplicitness: 0.5,
		DimBrevity:               0.6,
	}
	recs := recommend(dims)
	if len(recs) != 5 {
		t.Fatalf("got %d recommendations, want 5", len(recs))
	}
	if recs[0] != recommendationText[DimPatternRecognition] {
		t.Errorf("weakest dimension not first: %q", recs[0])
	}
}

func TestBatchValidate_Aggregates(t *testing.T) {
	weak := eliteQuestion()
	weak.Explanation = question.Explanation{Legacy: "Short answer."}

	summary := NewValidator().BatchValidate([]question.Question{*eliteQuestion(), *weak})
	if summary.Total != 2 {
		t.Fatalf("total = %d, want 2", summary.Total)
	}
	if summary.EliteCount != 1 {
		t.Fatalf("elite count = %d, want 1", summary.EliteCount)
	}
	if summary.EliteRate != 0.5 {
		t.Errorf("elite rate = %v, want 0.5", summary.EliteRate)
	}
	if summary.AverageComposite <= 0 || summary.AverageComposite >= 100 {
		t.Errorf("average composite %v out of expected band", summary.AverageComposite)
	}
}
