package main

import (
	"bytes"
	"errors"
	"fmt"
	"go/format"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"text/template"

	"github.com/stockdesk/schemachain/migrations"
)

var validName = regexp.MustCompile(`^[a-z][a-z0-9_]*$`)

// create writes the scaffold of a step that follows the current head into dir.
func create(w io.Writer, dir, name string) error {
	if !validName.MatchString(name) {
		return fmt.Errorf("step name %q must be lower snake case", name)
	}
	chain, err := migrations.Chain()
	if err != nil {
		return err
	}
	parent := chain.Head().Revision
	prefix, _, ok := strings.Cut(parent, "_")
	if !ok {
		return fmt.Errorf("head %s has no numeric prefix", parent)
	}
	n, err := strconv.Atoi(prefix)
	if err != nil {
		return fmt.Errorf("head %s has no numeric prefix: %w", parent, err)
	}
	revision := fmt.Sprintf("%0*d_%s", len(prefix), n+1, name)

	var buf bytes.Buffer
	if err := stepScaffoldTmpl.Execute(&buf, map[string]string{
		"Func":     funcName(name),
		"Revision": revision,
		"Parent":   parent,
	}); err != nil {
		return err
	}
	src, err := format.Source(buf.Bytes())
	if err != nil {
		return err
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	path := filepath.Join(dir, revision+".go")
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		if errors.Is(err, os.ErrExist) {
			return fmt.Errorf("step file already exists: %s", path)
		}
		return err
	}
	if _, err := f.Write(src); err != nil {
		_ = f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}
	fmt.Fprintf(w, "created %s\nadd %s() to migrations.Steps\n", path, funcName(name))
	return nil
}

// funcName turns add_user_language into addUserLanguage.
func funcName(name string) string {
	parts := strings.Split(name, "_")
	var sb strings.Builder
	for i, p := range parts {
		if p == "" {
			continue
		}
		if i == 0 {
			sb.WriteString(p)
			continue
		}
		sb.WriteString(strings.ToUpper(p[:1]) + p[1:])
	}
	return sb.String()
}

var stepScaffoldTmpl = template.Must(template.New("schemachain.step").Parse(`package migrations

import (
	"github.com/stockdesk/schemachain"
	"github.com/stockdesk/schemachain/schema"
)

func {{ .Func }}() *schemachain.Step {
	return &schemachain.Step{
		Revision: "{{ .Revision }}",
		Parent:   "{{ .Parent }}",
		// Down must undo Up in reverse order.
		Up:   []schema.Operation{},
		Down: []schema.Operation{},
	}
}
`))
