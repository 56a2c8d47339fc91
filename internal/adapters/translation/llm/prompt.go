package llm

import (
	"bytes"
	"encoding/json"
	"text/template"
)

const systemPrompt = `You are a professional localization translator for game mod listings. ` +
	`Translate each input text{{if .SrcLang}} from {{.SrcLang}}{{end}} to {{.TgtLang}}. ` +
	`Keep tokens like __TAG_0__ exactly as they are and do not add commentary. ` +
	`Return only JSON: {"translations":["..."],"detected_language":"<ISO 639-1 code of the input>"} ` +
	`with exactly {{.Count}} translations in input order.`

const userPrompt = `texts: {{.TextsJSON}}`

var (
	systemTpl = template.Must(template.New("system").Parse(systemPrompt))
	userTpl   = template.Must(template.New("user").Parse(userPrompt))
)

type promptData struct {
	SrcLang   string
	TgtLang   string
	Count     int
	TextsJSON string
}

func newPromptData(texts []string, src, tgt string) (promptData, error) {
	b, err := json.Marshal(texts)
	if err != nil {
		return promptData{}, err
	}
	return promptData{SrcLang: src, TgtLang: tgt, Count: len(texts), TextsJSON: string(b)}, nil
}

func render(t *template.Template, data promptData) (string, error) {
	var buf bytes.Buffer
	if err := t.Execute(&buf, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}
