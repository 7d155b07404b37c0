// Package ingest turns raw free-text submissions into structured notes:
// first line becomes the title, the rest the body, and every #hashtag in
// the original text becomes a user-scoped tag.
package ingest

import (
	"regexp"
	"strings"

	"github.com/ilmarsk/notehub/internal/database"
	"github.com/ilmarsk/notehub/internal/logger"
	noteservice "github.com/ilmarsk/notehub/internal/service/note"
)

// tagPattern matches hashtag tokens: '#' followed by lowercase ASCII
// letters only. Uppercase or digit-bearing tokens are not tags.
var tagPattern = regexp.MustCompile(`#([a-z]+)`)

// Submission is the parsed form of a raw text submission.
type Submission struct {
	Title    string
	Body     string
	TagNames []string // in order of appearance, duplicates preserved
}

// Parse splits raw text on the first newline into title and body and
// collects hashtag tokens from the entire original text. Empty input
// parses to an empty submission.
func Parse(text string) Submission {
	sub := Submission{}

	parts := strings.SplitN(text, "\n", 2)
	sub.Title = strings.TrimSpace(parts[0])
	if len(parts) == 2 {
		sub.Body = strings.TrimSpace(parts[1])
	}

	for _, match := range tagPattern.FindAllStringSubmatch(text, -1) {
		sub.TagNames = append(sub.TagNames, match[1])
	}

	return sub
}

// IngestService converts raw submissions into persisted notes.
type IngestService interface {
	// Ingest parses text and persists the note together with its tags in
	// one atomic write; a failed ingestion leaves no rows behind. The
	// note service publishes the change event once the write commits;
	// nothing is published on failure.
	Ingest(userID uint, text string) (*database.Note, error)
}

type ingestService struct {
	notes noteservice.NoteService
}

// NewIngestService creates the ingestion service.
func NewIngestService(notes noteservice.NoteService) IngestService {
	return &ingestService{notes: notes}
}

// Ingest implements IngestService.
func (s *ingestService) Ingest(userID uint, text string) (*database.Note, error) {
	sub := Parse(text)

	note, err := s.notes.Create(userID, sub.Title, sub.Body, sub.TagNames)
	if err != nil {
		return nil, err
	}

	logger.WithField("user_id", userID).Debugf("ingested note %s with %d tags", note.NoteID, len(note.Tags))
	return note, nil
}
