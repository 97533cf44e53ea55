package domain

import "strings"

// Issue is a single newsletter issue. Issues are constructed per publish
// request and never persisted.
type Issue struct {
	Title   string
	Content IssueContent
}

type IssueContent struct {
	Text string
	HTML string
}

// NewIssue validates raw newsletter input. content may be nil when the
// payload omitted it entirely.
func NewIssue(title string, content *IssueContent) (Issue, error) {
	if strings.TrimSpace(title) == "" {
		return Issue{}, &ValidationError{Field: "title", Reason: "must not be empty"}
	}
	if content == nil {
		return Issue{}, &ValidationError{Field: "content", Reason: "is required"}
	}
	if strings.TrimSpace(content.Text) == "" {
		return Issue{}, &ValidationError{Field: "content.text", Reason: "must not be empty"}
	}
	if strings.TrimSpace(content.HTML) == "" {
		return Issue{}, &ValidationError{Field: "content.html", Reason: "must not be empty"}
	}

	return Issue{Title: title, Content: *content}, nil
}
