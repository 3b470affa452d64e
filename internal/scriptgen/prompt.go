package scriptgen

import (
	"fmt"
	"math/rand/v2"
	"strings"
)

const systemPrompt = `Bạn là biên kịch phim kinh dị viết kịch bản cho video ngắn dọc.
Chỉ trả về JSON thô, không kèm giải thích hay markdown.`

const storyPromptTemplate = `Viết kịch bản về chủ đề: "%s".
Phong cách kể: %s.

YÊU CẦU JSON RESPONSE (RAW JSON ONLY):
{
  "narration": "Lời dẫn truyện tiếng Việt (khoảng 1500 từ). Viết thật cuốn hút, đáng sợ.",
  "visual_descriptions": [%s
  ]
}`

const scenePromptTemplate = `Viết kịch bản TikTok kinh dị về: "%s".
Phong cách kể: %s.
Hãy tách biệt rõ ràng lời dẫn truyện (để đọc) và mô tả hình ảnh.
Lời dẫn phải rùng rợn, liền mạch.

YÊU CẦU JSON RESPONSE (RAW JSON ONLY):
{
  "narration": "Lời dẫn truyện để đọc (Tiếng Việt), không chứa mô tả cảnh.",
  "visual_prompt": "Mô tả hình ảnh chi tiết (Tiếng Anh) để vẽ minh họa."
}`

// PickStyle returns one of styles chosen with rng, or "" when styles is empty.
func PickStyle(styles []string, rng *rand.Rand) string {
	if len(styles) == 0 {
		return ""
	}
	return styles[rng.IntN(len(styles))]
}

// EnhancePrompt expands a scene description into an image prompt.
func EnhancePrompt(topic, description, suffix string) string {
	parts := make([]string, 0, 3)
	for _, part := range []string{topic, description, suffix} {
		if part = strings.TrimSpace(part); part != "" {
			parts = append(parts, part)
		}
	}
	return strings.Join(parts, ", ")
}

func storyPrompt(topic, style string, scenes int) string {
	var lines strings.Builder
	for i := 1; i <= scenes; i++ {
		lang := "Tiếng Anh"
		if i == 1 {
			lang = "Tiếng Anh, tập trung vào sự vật chính"
		}
		sep := ","
		if i == scenes {
			sep = ""
		}
		fmt.Fprintf(&lines, "\n     \"Mô tả ngắn gọn cảnh %d (%s)\"%s", i, lang, sep)
	}
	return fmt.Sprintf(storyPromptTemplate, topic, styleOrDefault(style), lines.String())
}

func scenePrompt(topic, style string) string {
	return fmt.Sprintf(scenePromptTemplate, topic, styleOrDefault(style))
}

func styleOrDefault(style string) string {
	if strings.TrimSpace(style) == "" {
		return "Creepypasta"
	}
	return style
}
