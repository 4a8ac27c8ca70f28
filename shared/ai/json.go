package ai

import (
	"encoding/json"
	"fmt"
	"strings"
)

func extractObject(response string) (string, error) {
	response = StripFences(response)
	start := strings.Index(response, "{")
	end := strings.LastIndex(response, "}")
	if start == -1 || end < start {
		return "", fmt.Errorf("no JSON found in response: %s", truncate(response, 200))
	}
	return response[start : end+1], nil
}

func unmarshal(s string, v any) error {
	return json.Unmarshal([]byte(s), v)
}

// sanitizeJSON escapes stray quotes inside single-line string values, the
// most common defect in model-written JSON.
func sanitizeJSON(jsonStr string) string {
	lines := strings.Split(jsonStr, "\n")
	sanitized := make([]string, 0, len(lines))

	for _, line := range lines {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		if colonIdx := strings.Index(line, ":"); colonIdx != -1 && strings.Contains(line, "\"") {
			beforeColon := line[:colonIdx+1]
			afterColon := strings.TrimSpace(line[colonIdx+1:])

			if strings.HasPrefix(afterColon, "\"") {
				if lastQuote := strings.LastIndex(afterColon, "\""); lastQuote > 0 {
					content := afterColon[1:lastQuote]
					content = strings.ReplaceAll(content, `\"`, `"`)
					content = strings.ReplaceAll(content, `"`, `\"`)
					line = beforeColon + " \"" + content + "\"" + afterColon[lastQuote+1:]
				}
			}
		}

		sanitized = append(sanitized, line)
	}

	return strings.Join(sanitized, "\n")
}

func truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n]) + "..."
}
