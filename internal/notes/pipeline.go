package notes

import (
	"context"
	"fmt"
	"time"

	"github.com/HongCH-code/Notes-Assistant/internal/enrich"
	"github.com/HongCH-code/Notes-Assistant/internal/objectstore"
	"github.com/HongCH-code/Notes-Assistant/pkg/logging"
)

// Outcome classifies how a background job ended. Saved and SaveFailed are
// both successful job completions (the user got their result); Failed means
// the job aborted and the user got an apology.
type Outcome string

const (
	OutcomeSaved      Outcome = "saved"
	OutcomeSaveFailed Outcome = "save_failed"
	OutcomeFailed     Outcome = "failed"
)

// Substituted when the vision call fails; there is no raw text to fall back on.
const fallbackImageDescription = "Image (analysis unavailable)"

// ContentFetcher retrieves the binary payload of a media message.
type ContentFetcher interface {
	GetContent(ctx context.Context, messageID string) ([]byte, error)
}

// Uploader stores image blobs and returns a shareable link.
type Uploader interface {
	Upload(ctx context.Context, data []byte, filename string) (*objectstore.UploadResult, error)
	SetPublicReadable(ctx context.Context, key string) bool
}

// NoteStore is the persistence sink for finished records.
type NoteStore interface {
	CreateNote(ctx context.Context, note *NoteRecord) error
}

// Pipeline runs one background job through its linear stages:
// fetch -> transform/classify -> [upload] -> persist -> notify.
//
// Enrichment failures are masked by documented fallback values so the job
// keeps going once content is in hand; fetch and upload failures abort the
// job. Either way the sender receives exactly one push.
type Pipeline struct {
	fetcher     ContentFetcher
	transcriber enrich.Transcriber
	summarizer  enrich.Summarizer
	tagger      enrich.Tagger
	vision      enrich.VisionAnalyzer
	uploader    Uploader
	store       NoteStore
	messenger   Messenger
	logger      *logging.Logger

	transcribeLanguage string
}

// PipelineConfig wires the pipeline's collaborators. Uploader may be nil when
// image uploads are disabled; every other field is required.
type PipelineConfig struct {
	Fetcher            ContentFetcher
	Transcriber        enrich.Transcriber
	Summarizer         enrich.Summarizer
	Tagger             enrich.Tagger
	Vision             enrich.VisionAnalyzer
	Uploader           Uploader
	Store              NoteStore
	Messenger          Messenger
	Logger             *logging.Logger
	TranscribeLanguage string
}

// NewPipeline validates the wiring and builds a Pipeline.
func NewPipeline(cfg PipelineConfig) *Pipeline {
	if cfg.Fetcher == nil {
		panic("notes: content fetcher cannot be nil")
	}
	if cfg.Transcriber == nil {
		panic("notes: transcriber cannot be nil")
	}
	if cfg.Summarizer == nil || cfg.Tagger == nil || cfg.Vision == nil {
		panic("notes: classifier cannot be nil")
	}
	if cfg.Store == nil {
		panic("notes: note store cannot be nil")
	}
	if cfg.Messenger == nil {
		panic("notes: messenger cannot be nil")
	}
	logger := cfg.Logger
	if logger == nil {
		logger = logging.Default()
	}

	return &Pipeline{
		fetcher:            cfg.Fetcher,
		transcriber:        cfg.Transcriber,
		summarizer:         cfg.Summarizer,
		tagger:             cfg.Tagger,
		vision:             cfg.Vision,
		uploader:           cfg.Uploader,
		store:              cfg.Store,
		messenger:          cfg.Messenger,
		logger:             logger,
		transcribeLanguage: cfg.TranscribeLanguage,
	}
}

// Run executes one job to completion. It never panics past its boundary and
// performs exactly one push: the composed result on completion, an apology on
// abort. A failure while sending the apology is swallowed.
func (p *Pipeline) Run(ctx context.Context, payload jobPayload) (outcome Outcome) {
	defer func() {
		r := recover()
		if r == nil {
			return
		}
		p.logger.Error("note job panicked", "job_id", payload.ID, "kind", payload.Kind, "panic", r)
		p.push(ctx, payload.senderID(), msgApology)
		outcome = OutcomeFailed
	}()

	var (
		message string
		saved   bool
		err     error
	)
	switch payload.Kind {
	case jobKindSummary:
		message, saved, err = p.runSummary(ctx, *payload.Summary)
	case jobKindAudio:
		message, saved, err = p.runAudio(ctx, *payload.Audio)
	case jobKindImage:
		message, saved, err = p.runImage(ctx, *payload.Image)
	default:
		err = fmt.Errorf("notes: unknown job kind %q", payload.Kind)
	}

	if err != nil {
		p.logger.Error("note job failed", "error", err, "job_id", payload.ID, "kind", payload.Kind)
		p.push(ctx, payload.senderID(), msgApology)
		return OutcomeFailed
	}

	p.push(ctx, payload.senderID(), message)
	if saved {
		return OutcomeSaved
	}
	return OutcomeSaveFailed
}

func (p *Pipeline) runSummary(ctx context.Context, job SummaryJob) (string, bool, error) {
	summary, err := p.summarizer.Summarize(ctx, job.Content)
	if err != nil {
		p.logger.Warn("summarization failed, using fallback", "error", err)
		summary = enrich.Summary{
			Summary:  enrich.FallbackSummary(job.Content),
			Category: enrich.FallbackCategory,
		}
	}
	tags := p.tagOrFallback(ctx, job.Content)

	saved := p.persist(ctx, &NoteRecord{
		Kind:     NoteKindSummary,
		SenderID: job.SenderID,
		Content:  job.Content,
		Summary:  summary.Summary,
		Category: summary.Category,
		Tags:     tags,
	})

	return composeSummaryResult(summary.Summary, summary.Category, tags, saved), saved, nil
}

func (p *Pipeline) runAudio(ctx context.Context, job AudioJob) (string, bool, error) {
	data, err := p.fetcher.GetContent(ctx, job.MessageID)
	if err != nil {
		return "", false, fmt.Errorf("fetch audio content: %w", err)
	}

	// No transcript means nothing to classify or persist: a transcription
	// failure is fatal to the job, unlike the other enrichment calls.
	transcript, err := p.transcriber.Transcribe(ctx, data, p.transcribeLanguage)
	if err != nil {
		return "", false, fmt.Errorf("transcribe audio: %w", err)
	}

	tags := p.tagOrFallback(ctx, transcript)

	saved := p.persist(ctx, &NoteRecord{
		Kind:       NoteKindAudio,
		SenderID:   job.SenderID,
		Content:    transcript,
		Tags:       tags,
		DurationMS: job.DurationMS,
	})

	return composeAudioResult(transcript, tags, saved), saved, nil
}

func (p *Pipeline) runImage(ctx context.Context, job ImageJob) (string, bool, error) {
	data, err := p.fetcher.GetContent(ctx, job.MessageID)
	if err != nil {
		return "", false, fmt.Errorf("fetch image content: %w", err)
	}

	analysis, err := p.vision.AnalyzeImage(ctx, data)
	if err != nil {
		p.logger.Warn("image analysis failed, using fallback", "error", err)
		analysis = enrich.ImageAnalysis{
			Description: fallbackImageDescription,
			Tags:        []string{enrich.FallbackTag},
		}
	}
	if len(analysis.Tags) == 0 {
		analysis.Tags = []string{enrich.FallbackTag}
	}

	var link string
	if p.uploader != nil {
		res, err := p.uploader.Upload(ctx, data, objectstore.ImageFilename(time.Now()))
		if err != nil {
			return "", false, fmt.Errorf("upload image: %w", err)
		}
		// Permission failures are logged inside the uploader; the link
		// stays usable either way.
		p.uploader.SetPublicReadable(ctx, res.Key)
		link = res.Link
	}

	saved := p.persist(ctx, &NoteRecord{
		Kind:     NoteKindImage,
		SenderID: job.SenderID,
		Content:  analysis.Description,
		Tags:     analysis.Tags,
		Link:     link,
	})

	return composeImageResult(analysis.Description, analysis.Tags, link, saved), saved, nil
}

// tagOrFallback absorbs tagging failures with the sentinel tag.
func (p *Pipeline) tagOrFallback(ctx context.Context, text string) []string {
	tags, err := p.tagger.Tag(ctx, text)
	if err != nil || len(tags) == 0 {
		if err != nil {
			p.logger.Warn("tagging failed, using fallback", "error", err)
		}
		return []string{enrich.FallbackTag}
	}
	return tags
}

// persist writes the record and reports success. Persistence failures are
// surfaced to the user as a qualified success, never retried.
func (p *Pipeline) persist(ctx context.Context, note *NoteRecord) bool {
	if err := p.store.CreateNote(ctx, note); err != nil {
		p.logger.Error("failed to persist note", "error", err, "kind", note.Kind)
		return false
	}
	return true
}

func (p *Pipeline) push(ctx context.Context, to, text string) {
	if err := p.messenger.PushText(ctx, to, text); err != nil {
		p.logger.Warn("failed to push job result", "error", err, "to", to)
	}
}
