package config

import (
	"bytes"
	"os"
	"strings"
	"text/template"
)

// ExpandEnv expands environment variables in YAML content using Go
// template syntax ({{.VAR_NAME}}). Plain $ characters pass through
// untouched, so prompt text containing shell or regex fragments is
// never mangled. Missing variables expand to the empty string; a
// malformed template returns the original data so the YAML parser can
// produce the clearer error.
func ExpandEnv(data []byte) []byte {
	tmpl, err := template.New("defaults").Option("missingkey=zero").Parse(string(data))
	if err != nil {
		return data
	}

	envMap := make(map[string]string)
	for _, env := range os.Environ() {
		if idx := strings.IndexByte(env, '='); idx > 0 {
			envMap[env[:idx]] = env[idx+1:]
		}
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, envMap); err != nil {
		return data
	}
	return buf.Bytes()
}
