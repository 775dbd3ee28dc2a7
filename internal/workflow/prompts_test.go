package workflow

import (
	"testing"

	"admix-studio/pkg/models"

	"github.com/stretchr/testify/assert"
)

func TestDetectLanguage(t *testing.T) {
	assert.Equal(t, models.LanguageHindi, DetectLanguage("भारत ने मैच जीता"))
	assert.Equal(t, models.LanguageHindi, DetectLanguage("India won the मैच"))
	assert.Equal(t, models.LanguageEnglish, DetectLanguage("India wins the final"))
	assert.Equal(t, models.LanguageEnglish, DetectLanguage(""))
}

func TestBuildPromptLanguageInstruction(t *testing.T) {
	types := []models.ContentType{
		models.ContentTitle,
		models.ContentDescription,
		models.ContentHashtags,
		models.ContentTags,
		models.ContentCustom,
	}
	for _, ct := range types {
		t.Run(string(ct), func(t *testing.T) {
			hindi := BuildPrompt(ct, "खबर", models.LanguageHindi)
			assert.Contains(t, hindi, "केवल हिंदी में लिखें")
			assert.Contains(t, hindi, "खबर")

			english := BuildPrompt(ct, "news", models.LanguageEnglish)
			assert.Contains(t, english, "Respond in English only.")
			assert.Contains(t, english, `Do NOT use \n`)
		})
	}

	assert.Contains(t, BuildPrompt(models.ContentTitle, "x", "eng"), "60 characters or less")
	assert.Contains(t, BuildPrompt(models.ContentDescription, "x", "eng"), "140-160 characters")
	assert.Contains(t, BuildPrompt(models.ContentHashtags, "x", "eng"), "5-8 relevant hashtags")
	assert.Contains(t, BuildPrompt(models.ContentTags, "x", "eng"), "5-10 relevant keywords/tags")
	assert.Contains(t, BuildPrompt(models.ContentCustom, "summarize", "eng"), "User Request: summarize")
}

func TestCleanContent(t *testing.T) {
	tests := []struct {
		in, out string
	}{
		{`  Title\n\nBody  `, "Title\n\nBody"},
		{`line\nnext`, "line\nnext"},
		{`a\tb`, "a  b"},
		{`say \"hi\"`, `say "hi"`},
		{`path\\file`, `path\file`},
		{"already clean", "already clean"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.out, CleanContent(tt.in))
	}
}
