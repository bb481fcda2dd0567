package generator

import (
	"fmt"
	"strings"

	jsoniter "github.com/json-iterator/go"
)

// Post is the structured reply a provider is asked for.
type Post struct {
	PostType    string   `json:"post_type"`
	Title       string   `json:"title,omitempty"`
	PostText    string   `json:"post_text"`
	Hashtags    []string `json:"hashtags,omitempty"`
	SafetyNotes string   `json:"safety_notes,omitempty"`

	// Provider is the name of the provider that wrote the post.
	Provider string `json:"-"`
}

type rawPost struct {
	PostType    any `json:"post_type"`
	Title       any `json:"title"`
	PostText    any `json:"post_text"`
	Hashtags    any `json:"hashtags"`
	SafetyNotes any `json:"safety_notes"`
}

// ParsePost extracts a Post from model output. Markdown fences and prose
// around the JSON are tolerated: the outermost {...} span is decoded. A
// missing or empty post_text is ErrMalformedOutput.
func ParsePost(output string) (Post, error) {
	body := stripFences(output)
	start := strings.Index(body, "{")
	end := strings.LastIndex(body, "}")
	if start < 0 || end <= start {
		return Post{}, fmt.Errorf("%w: no JSON object in response", ErrMalformedOutput)
	}

	var raw rawPost
	if err := jsoniter.UnmarshalFromString(body[start:end+1], &raw); err != nil {
		return Post{}, fmt.Errorf("%w: %v", ErrMalformedOutput, err)
	}

	post := Post{
		PostType:    asString(raw.PostType),
		Title:       asString(raw.Title),
		PostText:    strings.TrimSpace(asString(raw.PostText)),
		Hashtags:    asTags(raw.Hashtags),
		SafetyNotes: asString(raw.SafetyNotes),
	}
	if post.PostText == "" {
		return Post{}, fmt.Errorf("%w: empty post_text", ErrMalformedOutput)
	}
	return post, nil
}

// Message is the final text to publish: the post text followed by every
// hashtag not already present in it.
func (p Post) Message() string {
	text := strings.TrimSpace(p.PostText)
	lower := strings.ToLower(text)

	var missing []string
	seen := make(map[string]bool)
	for _, tag := range p.Hashtags {
		tag = normalizeTag(tag)
		key := strings.ToLower(tag)
		if tag == "" || seen[key] || containsTag(lower, key) {
			continue
		}
		seen[key] = true
		missing = append(missing, tag)
	}
	if len(missing) == 0 {
		return text
	}
	return text + "\n\n" + strings.Join(missing, " ")
}

// containsTag reports whether tag appears in text as a whole hashtag.
func containsTag(text, tag string) bool {
	for i := 0; ; {
		j := strings.Index(text[i:], tag)
		if j < 0 {
			return false
		}
		end := i + j + len(tag)
		if end == len(text) || !isTagRune(rune(text[end])) {
			return true
		}
		i = end
	}
}

func isTagRune(r rune) bool {
	return r == '_' || (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') || r >= 0x80
}

func normalizeTag(tag string) string {
	tag = strings.Join(strings.Fields(tag), "")
	tag = strings.TrimLeft(tag, "#")
	if tag == "" {
		return ""
	}
	return "#" + tag
}

func stripFences(s string) string {
	s = strings.TrimSpace(s)
	s = strings.ReplaceAll(s, "```json", "")
	s = strings.ReplaceAll(s, "```JSON", "")
	return strings.ReplaceAll(s, "```", "")
}

func asString(v any) string {
	switch typed := v.(type) {
	case string:
		return strings.TrimSpace(typed)
	case nil:
		return ""
	default:
		return strings.TrimSpace(fmt.Sprint(typed))
	}
}

// asTags accepts a JSON array of strings or one space/comma separated string.
func asTags(v any) []string {
	var tags []string
	switch typed := v.(type) {
	case []any:
		for _, item := range typed {
			if s, ok := item.(string); ok {
				if t := normalizeTag(s); t != "" {
					tags = append(tags, t)
				}
			}
		}
	case string:
		for _, f := range strings.FieldsFunc(typed, func(r rune) bool { return r == ',' || r == ' ' || r == '\n' }) {
			if t := normalizeTag(f); t != "" {
				tags = append(tags, t)
			}
		}
	}
	return tags
}
