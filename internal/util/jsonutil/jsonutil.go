package jsonutil

import (
	"encoding/json"
	"errors"
	"strings"
)

var ErrNoJSON = errors.New("jsonutil: no json object found")

// StripCodeFence removes a surrounding Markdown code fence (``` or ```json)
// that models often wrap around JSON answers.
func StripCodeFence(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	if nl := strings.IndexByte(s, '\n'); nl >= 0 {
		// drop the info string, e.g. "json"
		if info := strings.TrimSpace(s[:nl]); !strings.ContainsAny(info, "{[") {
			s = s[nl+1:]
		}
	} else {
		s = strings.TrimPrefix(s, "json")
	}
	s = strings.TrimSpace(s)
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}

// ExtractObject returns the outermost {...} span of s, tolerating prose
// before or after the object.
func ExtractObject(s string) (string, error) {
	start := strings.IndexByte(s, '{')
	end := strings.LastIndexByte(s, '}')
	if start < 0 || end <= start {
		return "", ErrNoJSON
	}
	return s[start : end+1], nil
}

// UnmarshalFlex tries to unmarshal model output into v with best effort:
// 1) strip code fences and unmarshal directly
// 2) extract the outermost object and unmarshal
// 3) unwrap a JSON string that itself contains the object
func UnmarshalFlex(raw string, v any) error {
	body := StripCodeFence(raw)
	err := json.Unmarshal([]byte(body), v)
	if err == nil {
		return nil
	}
	if obj, xerr := ExtractObject(body); xerr == nil {
		if err2 := json.Unmarshal([]byte(obj), v); err2 == nil {
			return nil
		}
	}
	var inner string
	if json.Unmarshal([]byte(body), &inner) == nil && strings.TrimSpace(inner) != body {
		return UnmarshalFlex(inner, v)
	}
	return err
}
