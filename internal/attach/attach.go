// Package attach creates plain-text attachments on issues. The attachment
// author is always the issue's reporter, not the acting user, so the audit
// trail on the issue stays with its owner.
package attach

import (
	"github.com/relenghq/releng/internal/log"
	"github.com/relenghq/releng/internal/tracker/application"
	"github.com/relenghq/releng/internal/tracker/domain"
)

// ContentTypeText is the content type of every attachment this service
// creates.
const ContentTypeText = "text/plain"

// Service writes attachments through the sink port.
type Service struct {
	issues application.IssueReader
	sink   application.AttachmentSink
}

// NewService wires an attachment service.
func NewService(issues application.IssueReader, sink application.AttachmentSink) *Service {
	return &Service{issues: issues, sink: sink}
}

// CreateForIssueKey looks up the issue by key and attaches the content to it.
func (s *Service) CreateForIssueKey(key, filename string, content []byte) error {
	issue, err := s.issues.IssueByKey(key)
	if err != nil {
		return err
	}
	return s.CreateForIssue(*issue, filename, content)
}

// CreateForIssue attaches the content to the issue as text/plain, authored
// by the issue's reporter. Sink failures come back as InternalError carrying
// the issue key.
func (s *Service) CreateForIssue(issue domain.Issue, filename string, content []byte) error {
	author := domain.User{Name: issue.Reporter}
	log.Debug(log.CatAttach, "creating attachment",
		"issue", issue.Key, "filename", filename, "author", author.Name, "bytes", len(content))

	if err := s.sink.CreateAttachment(author, issue, filename, ContentTypeText, content); err != nil {
		log.ErrorErr(log.CatAttach, "attachment creation failed", err, "issue", issue.Key, "filename", filename)
		return &domain.InternalError{
			EntityKey: issue.Key,
			Message:   "failed to create attachment " + filename,
			Err:       err,
		}
	}
	log.Info(log.CatAttach, "attachment created", "issue", issue.Key, "filename", filename)
	return nil
}
