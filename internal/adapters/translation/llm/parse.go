package llm

import (
	"encoding/json"
	"fmt"
	"strings"
)

type reply struct {
	Translations     []string `json:"translations"`
	Translation      string   `json:"translation"`
	DetectedLanguage string   `json:"detected_language"`
}

func (r reply) texts() []string {
	if len(r.Translations) > 0 {
		return r.Translations
	}
	if r.Translation != "" {
		return []string{r.Translation}
	}
	return nil
}

// extractReply pulls the JSON answer out of model output, tolerating code
// fences and chatter around the object. A single expected text also accepts
// a plain-text answer.
func extractReply(content string, want int) (reply, error) {
	s := strings.TrimSpace(content)
	if idx := strings.Index(s, "```"); idx >= 0 {
		rest := strings.TrimPrefix(s[idx+3:], "json")
		if j := strings.Index(rest, "```"); j >= 0 {
			s = strings.TrimSpace(rest[:j])
		}
	}
	var r reply
	if err := json.Unmarshal([]byte(s), &r); err == nil && len(r.texts()) > 0 {
		return r, nil
	}
	if i := strings.Index(s, "{"); i >= 0 {
		if j := strings.LastIndex(s, "}"); j > i {
			r = reply{}
			if err := json.Unmarshal([]byte(s[i:j+1]), &r); err == nil && len(r.texts()) > 0 {
				return r, nil
			}
		}
	}
	if want == 1 && s != "" && !strings.Contains(s, "{") {
		lower := strings.ToLower(s)
		for _, k := range []string{"translation:", "translated:", "result:", "output:"} {
			if pos := strings.Index(lower, k); pos >= 0 && pos < 80 {
				if cand := strings.TrimSpace(s[pos+len(k):]); cand != "" {
					return reply{Translations: []string{cand}}, nil
				}
			}
		}
		return reply{Translations: []string{s}}, nil
	}
	return reply{}, fmt.Errorf("cannot parse model reply: %s", abbreviate(s, 500))
}

func abbreviate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n-3] + "..."
}
