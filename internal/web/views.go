package web

import (
	"html/template"

	"github.com/casestudy-ai/cli/internal/api"
	"github.com/casestudy-ai/cli/internal/render"
)

type pageData struct {
	Health healthView

	Question    string
	FormError   string
	Placeholder string
	Examples    []exampleView
	EmptyTitle  string

	Answer *answerView
	Error  string

	Accept       string
	Supported    string
	MaxMB        int
	UploadError  string
	UploadNotice string

	CopyFeedbackMillis int64
	NoticeMillis       int64
}

type healthView struct {
	Err          string
	Healthy      bool
	Status       string
	StoreName    string
	FileCount    int
	HasFileCount bool
}

type exampleView struct {
	Index string
	Text  string
}

type alertView struct {
	Title   string
	Message string
}

type citationView struct {
	Index string
	Text  string
}

type answerView struct {
	Text         string
	HTML         template.HTML
	SourcesLabel string
	Citations    []citationView
}

func newAnswerView(a *api.Answer) *answerView {
	view := &answerView{
		Text:         a.Text,
		HTML:         render.HTML(a.Text),
		SourcesLabel: render.SourcesLabel(len(a.Citations)),
	}
	for i, c := range a.Citations {
		view.Citations = append(view.Citations, citationView{
			Index: render.Index(i),
			Text:  render.Citation(c),
		})
	}
	return view
}
