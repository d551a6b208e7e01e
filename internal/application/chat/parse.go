package chat

import (
	"encoding/json"
	"regexp"
	"strings"
	"unicode/utf8"

	"storygpt-api/pkg/errors"
)

var codeFenceRe = regexp.MustCompile("(?s)```(?:json)?\\s*(.*?)\\s*```")

// leadingNumberRe 匹配 "1. " / "2) " / "Page 3:" 一类的行首编号
var leadingNumberRe = regexp.MustCompile(`^(?:[Pp]age\s+)?\d+\s*[.):：]?\s*`)

// parsePageTexts 将模型输出解析为页文本数组。
// 依次尝试:严格 JSON -> 去掉代码围栏 -> 截取中括号片段 ->
// {"pages": [...]} 包装 -> 按行拆分并去掉行首编号。
// 全部失败时报 MalformedLLMOutput。
func parsePageTexts(raw string) ([]string, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return nil, errors.New(errors.CodeMalformedLLMOutput, "empty generation output")
	}

	if texts, ok := tryDecodeTexts(s); ok {
		return texts, nil
	}

	// 去掉 markdown 代码围栏
	if m := codeFenceRe.FindStringSubmatch(s); len(m) == 2 {
		if texts, ok := tryDecodeTexts(strings.TrimSpace(m[1])); ok {
			return texts, nil
		}
		s = strings.TrimSpace(m[1])
	}

	// 截取第一个中括号片段
	if start := strings.Index(s, "["); start >= 0 {
		if end := strings.LastIndex(s, "]"); end > start {
			if texts, ok := tryDecodeTexts(s[start : end+1]); ok {
				return texts, nil
			}
		}
	}

	// 按行拆分兜底
	var texts []string
	for _, line := range strings.Split(s, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "```") {
			continue
		}
		line = leadingNumberRe.ReplaceAllString(line, "")
		line = strings.Trim(line, `"'，, `)
		if line != "" {
			texts = append(texts, line)
		}
	}
	if len(texts) == 0 {
		return nil, errors.New(errors.CodeMalformedLLMOutput, "failed to parse generation output as page list")
	}
	return texts, nil
}

// tryDecodeTexts 严格解析字符串数组,兼容 {"pages": [...]} 包装
func tryDecodeTexts(s string) ([]string, bool) {
	var texts []string
	if err := json.Unmarshal([]byte(s), &texts); err == nil {
		return texts, true
	}

	var wrapped struct {
		Pages []string `json:"pages"`
	}
	if err := json.Unmarshal([]byte(s), &wrapped); err == nil && len(wrapped.Pages) > 0 {
		return wrapped.Pages, true
	}

	// pages 可能是 [{"text": "..."}] 形式
	var objWrapped struct {
		Pages []struct {
			Text string `json:"text"`
		} `json:"pages"`
	}
	if err := json.Unmarshal([]byte(s), &objWrapped); err == nil && len(objWrapped.Pages) > 0 {
		out := make([]string, 0, len(objWrapped.Pages))
		for _, p := range objWrapped.Pages {
			out = append(out, p.Text)
		}
		return out, true
	}
	return nil, false
}

func truncateByRunes(s string, maxRunes int) string {
	if maxRunes <= 0 {
		return ""
	}
	if utf8.RuneCountInString(s) <= maxRunes {
		return s
	}
	n := 0
	for i := range s {
		if n == maxRunes {
			return s[:i]
		}
		n++
	}
	return s
}
