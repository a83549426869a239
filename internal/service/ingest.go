package service

import (
	"context"
	"errors"
	"strings"
	"unicode/utf8"

	"newsrag/internal/cleaner"
	"newsrag/internal/domain"
	"newsrag/internal/events"
	"newsrag/internal/fetcher"
	"newsrag/internal/logger"
	"newsrag/internal/sources"
	"newsrag/internal/summarizer"
	"newsrag/internal/textutil"
	"newsrag/internal/validator"
)

// Status is the outcome of one ingest attempt.
type Status string

const (
	StatusIngested Status = "ingested"
	StatusRejected Status = "rejected"
	StatusError    Status = "error"
)

// Reasons for StatusError reports that are not validation rejections.
const (
	ReasonFetchFailed        = "fetch_failed"
	ReasonNoTextExtracted    = "no_text_extracted"
	ReasonEmptyAfterCleaning = "empty_after_cleaning"
	ReasonFeedFailed         = "feed_failed"
	ReasonInternal           = "internal_error"
)

// minExtractedChars is the least page text worth sending to the cleaner.
const minExtractedChars = 20

// IngestReport describes what happened to one URL.
type IngestReport struct {
	URL             string                   `json:"url"`
	SourceID        string                   `json:"source_id,omitempty"`
	Status          Status                   `json:"status"`
	Reason          string                   `json:"reason,omitempty"`
	ID              string                   `json:"id,omitempty"`
	Title           string                   `json:"title,omitempty"`
	Words           int                      `json:"words,omitempty"`
	Validation      *domain.ValidationResult `json:"validation,omitempty"`
	CleanerFellBack bool                     `json:"cleaner_fell_back,omitempty"`
	Error           string                   `json:"error,omitempty"`
}

// BatchReport collects the reports of a batch run in source order.
type BatchReport struct {
	Results   []IngestReport `json:"results"`
	Total     int            `json:"total"`
	Ingested  int            `json:"ingested"`
	Rejected  int            `json:"rejected"`
	Failed    int            `json:"failed"`
	Cancelled bool           `json:"cancelled,omitempty"`
}

func (b *BatchReport) add(r IngestReport) {
	b.Results = append(b.Results, r)
	b.Total++
	switch r.Status {
	case StatusIngested:
		b.Ingested++
	case StatusRejected:
		b.Rejected++
	default:
		b.Failed++
	}
}

// PageFetcher downloads and extracts a page.
type PageFetcher interface {
	Fetch(ctx context.Context, url string) (fetcher.Page, error)
}

// Deps are the pipeline stages the Manager drives.
type Deps struct {
	Fetcher    PageFetcher
	Cleaner    *cleaner.Cleaner
	Validator  *validator.Validator
	Embedder   domain.Embedder
	Store      domain.VectorStore
	Summarizer *summarizer.FrequencySummarizer
	Publisher  events.Publisher
	Resolver   *sources.Resolver
}

// Manager runs the write path: fetch, clean, validate, embed, store.
type Manager struct {
	Deps
	sources          []sources.Source
	summarySentences int
	log              *logger.Logger
}

func NewManager(deps Deps, srcs []sources.Source, summarySentences int, log *logger.Logger) *Manager {
	if deps.Publisher == nil {
		deps.Publisher = events.Noop{}
	}
	if deps.Summarizer == nil {
		deps.Summarizer = summarizer.NewFrequencySummarizer()
	}
	if summarySentences <= 0 {
		summarySentences = summarizer.DefaultSentences
	}
	if log == nil {
		log = logger.Discard()
	}
	return &Manager{
		Deps:             deps,
		sources:          srcs,
		summarySentences: summarySentences,
		log:              log.Component("ingest"),
	}
}

// IngestURL runs the pipeline for one URL. Rejections and unusable pages are
// reported with a nil error; fetch, embedding and storage failures are
// returned together with an error report.
func (m *Manager) IngestURL(ctx context.Context, url string) (IngestReport, error) {
	return m.ingest(ctx, strings.TrimSpace(url), "")
}

func (m *Manager) ingest(ctx context.Context, url, sourceID string) (IngestReport, error) {
	rep := IngestReport{URL: url, SourceID: sourceID}
	fail := func(reason string, err error) (IngestReport, error) {
		rep.Status, rep.Reason = StatusError, reason
		if err != nil {
			rep.Error = err.Error()
			m.log.Error("ingest failed", "url", url, "reason", reason, "error", err)
		} else {
			m.log.Warn("ingest failed", "url", url, "reason", reason)
		}
		return rep, err
	}

	if url == "" {
		return fail(ReasonInternal, domain.ErrInvalidArgument)
	}

	page, err := m.Fetcher.Fetch(ctx, url)
	if err != nil {
		return fail(ReasonFetchFailed, err)
	}
	if utf8.RuneCountInString(strings.TrimSpace(page.Text)) < minExtractedChars {
		return fail(ReasonNoTextExtracted, nil)
	}

	cleaned, err := m.Cleaner.Clean(ctx, page.Text)
	if err != nil {
		m.log.Warn("cleaner fell back to raw text", "url", url, "error", err)
	}
	rep.CleanerFellBack = cleaned.FellBack
	content := strings.TrimSpace(cleaned.Content)
	if content == "" {
		return fail(ReasonEmptyAfterCleaning, nil)
	}
	title := cleaned.Title
	if title == "" {
		title = page.Title
	}
	rep.Title = title
	rep.Words = textutil.WordCount(content)

	vr, err := m.Validator.Validate(ctx, content)
	if err != nil {
		return fail(ReasonInternal, err)
	}
	rep.Validation = &vr
	if !vr.Accepted {
		rep.Status, rep.Reason = StatusRejected, string(vr.Reason)
		m.log.Info("article rejected", "url", url, "reason", vr.Reason, "similarity", vr.Similarity)
		return rep, nil
	}

	vec := vr.Embedding
	if len(vec) == 0 {
		if vec, err = m.Embedder.Embed(ctx, content); err != nil {
			return fail(ReasonInternal, err)
		}
	}

	article := domain.Article{
		URL:         url,
		Title:       title,
		RawText:     page.Text,
		CleanedText: content,
		Summary:     m.Summarizer.Summarize(content, m.summarySentences),
		Embedding:   vec,
		SourceID:    sourceID,
	}
	id, err := m.Store.Add(ctx, article)
	if err != nil {
		return fail(ReasonInternal, err)
	}
	article.ID = id

	if err := m.Validator.Remember(ctx, content); err != nil {
		m.log.Warn("fingerprint not recorded", "id", id, "error", err)
	}
	if err := m.Publisher.Publish(ctx, events.FromArticle(article, rep.Words)); err != nil {
		m.log.Warn("ingest event not published", "id", id, "error", err)
	}

	rep.Status, rep.Reason, rep.ID = StatusIngested, string(domain.ReasonOK), id
	m.log.Info("article ingested", "url", url, "id", id, "words", rep.Words)
	return rep, nil
}

// RunBatch ingests every configured source in order, continuing past
// individual failures. Cancelling ctx stops the batch between URLs.
func (m *Manager) RunBatch(ctx context.Context) BatchReport {
	var batch BatchReport
	if len(m.sources) == 0 {
		m.log.Warn("batch has no sources configured; add entries under sources in the config file")
		return batch
	}
	entries := m.Resolver.Resolve(ctx, m.sources)
	m.log.Info("batch started", "urls", len(entries))

	for _, e := range entries {
		if ctx.Err() != nil {
			batch.Cancelled = true
			m.log.Warn("batch cancelled", "done", batch.Total, "remaining", len(entries)-batch.Total)
			break
		}
		if e.Err != nil {
			m.log.Error("source not resolved", "source", e.SourceID, "error", e.Err)
			batch.add(IngestReport{URL: e.URL, SourceID: e.SourceID, Status: StatusError, Reason: ReasonFeedFailed, Error: e.Err.Error()})
			continue
		}
		rep, _ := m.ingest(ctx, e.URL, e.SourceID)
		batch.add(rep)
	}

	m.log.Info("batch finished", "total", batch.Total, "ingested", batch.Ingested, "rejected", batch.Rejected, "failed", batch.Failed)
	return batch
}

// IsFetchError reports whether err came from the fetch stage.
func IsFetchError(err error) bool {
	var fe *domain.FetchError
	return errors.As(err, &fe)
}
