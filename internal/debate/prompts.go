package debate

import (
	"bytes"
	"text/template"

	"github.com/davidbz/quorum/internal/domain"
)

// LabeledResponse pairs a previous-round response with the identifier it
// is presented under (the real model name, or an anonymized alias when
// identities are hidden).
type LabeledResponse struct {
	Label string
	Text  string
}

var initialGenericTmpl = template.Must(template.New("initial").Parse(
	`You are one of several independent AI models debating the same question.
Give your best answer to the question below. Be direct and complete.

Question: {{.Query}}`))

var initialFactualTmpl = template.Must(template.New("factual").Parse(
	`You are one of several independent AI models debating a factual question.
Answer precisely and concisely. If the question has a single correct answer,
state it plainly before any explanation.

Question: {{.Query}}`))

var initialAbstractTmpl = template.Must(template.New("abstract").Parse(
	`You are one of several independent AI models debating an open-ended question.
Give a reasoned position. Name the assumptions your position rests on and
acknowledge the strongest opposing view.

Question: {{.Query}}`))

var debateTmpl = template.Must(template.New("debate").Parse(
	`You are debating the following question with other AI models.

Question: {{.Query}}

Responses from the previous round:
{{range .Responses}}
--- {{.Label}} ---
{{.Text}}
{{end}}
Critique the previous responses. For each one, state explicitly whether you
agree with {{range $i, $r := .Responses}}{{if $i}} or {{end}}{{$r.Label}}{{end}},
and why. Then give your own answer, revised if the critiques changed your view.`))

var finalTmpl = template.Must(template.New("final").Parse(
	`This is the final round of a debate between AI models.

Question: {{.Query}}

Responses from the previous round:
{{range .Responses}}
--- {{.Label}} ---
{{.Text}}
{{end}}
State your definitive final answer to the question. After your answer, include
a line of the form "Confidence: X" where X is a number between 0 and 1.`))

type promptData struct {
	Query     string
	Responses []LabeledResponse
}

// BuildInitialPrompt renders the first-round prompt. When specialization is
// enabled the template is chosen by query type; otherwise, or when the type
// is unknown, the generic template is used.
func BuildInitialPrompt(queryType domain.QueryType, query string, specialized bool) string {
	tmpl := initialGenericTmpl
	if specialized {
		switch queryType {
		case domain.QueryFactual:
			tmpl = initialFactualTmpl
		case domain.QueryAbstract:
			tmpl = initialAbstractTmpl
		case domain.QueryUnknown:
		}
	}

	return render(tmpl, promptData{Query: query})
}

// BuildDebatePrompt renders a critique-round prompt embedding the previous
// round's responses.
func BuildDebatePrompt(query string, previous []LabeledResponse) string {
	return render(debateTmpl, promptData{Query: query, Responses: previous})
}

// BuildFinalPrompt renders the final-round prompt asking for a definitive
// answer with a stated confidence.
func BuildFinalPrompt(query string, previous []LabeledResponse) string {
	return render(finalTmpl, promptData{Query: query, Responses: previous})
}

func render(tmpl *template.Template, data promptData) string {
	var buf bytes.Buffer
	// The templates are static and the data is plain strings; execution
	// cannot fail in practice.
	_ = tmpl.Execute(&buf, data)
	return buf.String()
}
