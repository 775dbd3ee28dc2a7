package workflow

import (
	"context"

	"admix-studio/internal/apperrors"
	"admix-studio/internal/queue"
	"admix-studio/pkg/models"
)

const WorkflowContentOptimize = "content-optimize"

// ContentWorkflow génère un titre, une description, des hashtags, des tags
// ou une réponse libre pour un article
type ContentWorkflow struct {
	store     ContentStore
	generator TextGenerator
}

func NewContentWorkflow(store ContentStore, generator TextGenerator) *ContentWorkflow {
	return &ContentWorkflow{store: store, generator: generator}
}

func (w *ContentWorkflow) Definition() Definition {
	return Definition{Name: WorkflowContentOptimize, Event: queue.EventContentOptimize, Handler: w.Run}
}

func (w *ContentWorkflow) Run(ctx context.Context, run *Run, event queue.Event) (interface{}, error) {
	var req ContentRequest
	if err := event.Decode(&req); err != nil {
		return nil, apperrors.Validation("%v", err)
	}
	contentType, ok := models.ParseContentType(string(req.QuickAction))
	if !ok {
		contentType = models.ContentCustom
	}

	record, err := Step(ctx, run, "create-db-record", func(ctx context.Context) (*models.ContentJob, error) {
		return w.store.CreateContent(ctx, &models.ContentJob{
			RunID:       run.ID,
			UserID:      req.UserID,
			InputText:   req.UserMessage,
			ContentType: contentType,
			Language:    models.LanguageEnglish,
			Status:      models.StatusProcessing,
		})
	})
	if err != nil {
		return nil, err
	}

	result, err := w.generate(ctx, run, req.UserMessage, contentType)
	if err != nil {
		return nil, Fail(ctx, run, "update-db-error", err, func(ctx context.Context, message string) error {
			return w.store.FailContent(ctx, run.ID, message)
		})
	}
	result.RecordID = record.ID
	return result, nil
}

func (w *ContentWorkflow) generate(ctx context.Context, run *Run, message string, contentType models.ContentType) (*models.ContentResult, error) {
	language, err := Step(ctx, run, "detect-language", func(ctx context.Context) (string, error) {
		return DetectLanguage(message), nil
	})
	if err != nil {
		return nil, err
	}

	text, err := Step(ctx, run, "generate-content", func(ctx context.Context) (string, error) {
		raw, err := w.generator.Generate(ctx, BuildPrompt(contentType, message, language))
		if err != nil {
			return "", err
		}
		cleaned := CleanContent(raw)
		if cleaned == "" {
			return "", &apperrors.ProviderError{Provider: "gemini", Message: "generated content is empty"}
		}
		return cleaned, nil
	})
	if err != nil {
		return nil, err
	}

	if err := Do(ctx, run, "update-db-record", func(ctx context.Context) error {
		return w.store.CompleteContent(ctx, run.ID, text, language)
	}); err != nil {
		return nil, err
	}

	return &models.ContentResult{Text: text, Language: language, ContentType: contentType}, nil
}
