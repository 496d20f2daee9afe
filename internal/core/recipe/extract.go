package recipe

import (
	"regexp"
	"strings"
)

var (
	leadingFence  = regexp.MustCompile("^```[A-Za-z0-9_-]*\\s*")
	trailingFence = regexp.MustCompile("\\s*```$")
)

// StripCodeFences 去除模型輸出前後的 markdown code fence
func StripCodeFences(s string) string {
	t := strings.TrimSpace(s)
	t = leadingFence.ReplaceAllString(t, "")
	t = trailingFence.ReplaceAllString(t, "")
	return strings.TrimSpace(t)
}

// ExtractJSONObject 取第一個 '{' 到最後一個 '}' 之間的片段
func ExtractJSONObject(s string) (string, bool) {
	start := strings.Index(s, "{")
	end := strings.LastIndex(s, "}")
	if start == -1 || end == -1 || end < start {
		return "", false
	}
	return s[start : end+1], true
}

// balancedObjects 依序回傳所有頂層且括號平衡的物件片段，字串內的括號不計
func balancedObjects(s string) []string {
	var out []string
	depth := 0
	start := -1
	inString := false
	escaped := false

	for i := 0; i < len(s); i++ {
		c := s[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}

		switch c {
		case '"':
			if depth > 0 {
				inString = true
			}
		case '{':
			if depth == 0 {
				start = i
			}
			depth++
		case '}':
			if depth == 0 {
				continue
			}
			depth--
			if depth == 0 {
				out = append(out, s[start:i+1])
				start = -1
			}
		}
	}
	return out
}
