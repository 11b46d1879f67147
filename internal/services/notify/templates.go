package notify

import (
	"bytes"
	"html/template"
)

var (
	shareTmpl = template.Must(template.New("share").Parse(`<!DOCTYPE html>
<html><body style="font-family: sans-serif;">
<p>Hi {{.Recipient}},</p>
<p><strong>{{.Sharer}}</strong> shared <strong>{{.FileName}}</strong> with you ({{.Permission}}).</p>
<p><a href="{{.Link}}">Open file</a></p>
</body></html>`))

	externalShareTmpl = template.Must(template.New("external").Parse(`<!DOCTYPE html>
<html><body style="font-family: sans-serif;">
<p>Hello,</p>
<p><strong>{{.Sharer}}</strong> shared <strong>{{.FileName}}</strong> with you.</p>
<p><a href="{{.Link}}">View file</a></p>
<p>Create an account to keep the files shared with you in one place.</p>
</body></html>`))

	welcomeTmpl = template.Must(template.New("welcome").Parse(`<!DOCTYPE html>
<html><body style="font-family: sans-serif;">
<p>Welcome, {{.Name}}!</p>
<p>Your account is ready. <a href="{{.Link}}">Start uploading files</a>.</p>
</body></html>`))
)

type shareView struct {
	Recipient  string
	Sharer     string
	FileName   string
	Permission string
	Link       string
}

type welcomeView struct {
	Name string
	Link string
}

func render(t *template.Template, data any) (string, error) {
	var buf bytes.Buffer
	if err := t.Execute(&buf, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}
