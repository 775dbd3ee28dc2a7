package workflow

import (
	"fmt"
	"strings"
	"unicode"

	"admix-studio/pkg/models"
)

var devanagari = &unicode.RangeTable{
	R16: []unicode.Range16{{Lo: 0x0900, Hi: 0x097F, Stride: 1}},
}

// DetectLanguage renvoie "hin" dès qu'un caractère devanagari est présent
func DetectLanguage(text string) string {
	for _, r := range text {
		if unicode.Is(devanagari, r) {
			return models.LanguageHindi
		}
	}
	return models.LanguageEnglish
}

const (
	hindiInstruction   = "\n\nआपको हिंदी में जवाब देना है। केवल हिंदी में लिखें।"
	englishInstruction = "\n\nRespond in English only."

	noLineBreaks = `          - Do NOT use \n or line break characters in your response.
          - Write naturally with actual spacing.`

	formattingRules = `IMPORTANT FORMATTING RULES:
    - Do NOT use markdown formatting (no *, **, -, #, etc.)
    - Write in plain text paragraphs
    - Use simple numbered lists if needed (1., 2., 3.)
    - Be clear and concise`
)

func languageInstruction(language string) string {
	if language == models.LanguageHindi {
		return hindiInstruction
	}
	return englishInstruction
}

// BuildPrompt construit le prompt du type de contenu demandé
func BuildPrompt(contentType models.ContentType, text, language string) string {
	instruction := languageInstruction(language)

	switch contentType {
	case models.ContentTitle:
		return fmt.Sprintf(`You are an expert SEO copywriter.

Generate an SEO-friendly title (60 characters or less) for the article below.

IMPORTANT: Start your response with "Here's an SEO-friendly title for your article:" followed by the title.
%s

%s

Article:
"""%s"""%s`, noLineBreaks, formattingRules, text, instruction)

	case models.ContentDescription:
		return fmt.Sprintf(`You are an SEO copywriter.

Generate a compelling meta description (140-160 characters) for the article below.

IMPORTANT: Start your response with "Here's a meta description for your article:" followed by the description.
%s

%s

Article:
"""%s"""%s`, noLineBreaks, formattingRules, text, instruction)

	case models.ContentHashtags:
		return fmt.Sprintf(`You are a social media expert.

Generate 5-8 relevant hashtags for the article below.

IMPORTANT: Start your response with "Here are relevant hashtags for your article:" followed by the hashtags separated by spaces.
%s

%s

Article:
"""%s"""%s`, noLineBreaks, formattingRules, text, instruction)

	case models.ContentTags:
		return fmt.Sprintf(`You are a content analyst.

Generate 5-10 relevant keywords/tags for the article below.

IMPORTANT: Start your response with "Here are the tags for your article:" followed by the tags separated by commas.
%s

%s

Article:
"""%s"""%s`, noLineBreaks, formattingRules, text, instruction)

	default:
		return fmt.Sprintf(`You are an AI assistant specialized in news content optimization and analysis.

When responding:
1. Start with a friendly introduction like "Sure!", "Here's what you asked for:", etc.
2. Clearly label what you're providing
3. Use plain text without markdown formatting
4. Be helpful and conversational
%s

%s

User Request: %s%s`, noLineBreaks, formattingRules, text, instruction)
	}
}

var escapeReplacer = strings.NewReplacer(
	`\n\n`, "\n\n",
	`\n`, "\n",
	`\t`, "  ",
	`\\`, `\`,
	`\"`, `"`,
)

// CleanContent remplace les séquences d'échappement littérales renvoyées
// par le modèle par les vrais caractères
func CleanContent(text string) string {
	return strings.TrimSpace(escapeReplacer.Replace(text))
}
