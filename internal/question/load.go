package question

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
)

// batchFile is the wrapped input format the generation stage exports.
type batchFile struct {
	Questions []Question `json:"questions"`
}

// LoadBatch reads a candidate batch from a JSON file. Both a bare array
// and a {"questions": [...]} wrapper are accepted. Questions without an
// ID are assigned a positional one.
func LoadBatch(path string) ([]Question, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read batch file: %w", err)
	}

	trimmed := strings.TrimSpace(string(data))
	var questions []Question
	if strings.HasPrefix(trimmed, "[") {
		if err := json.Unmarshal(data, &questions); err != nil {
			return nil, fmt.Errorf("decode batch file %s: %w", path, err)
		}
	} else {
		var wrapped batchFile
		if err := json.Unmarshal(data, &wrapped); err != nil {
			return nil, fmt.Errorf("decode batch file %s: %w", path, err)
		}
		questions = wrapped.Questions
	}

	for i := range questions {
		if questions[i].ID == "" {
			questions[i].ID = fmt.Sprintf("q-%04d", i+1)
		}
	}
	return questions, nil
}
