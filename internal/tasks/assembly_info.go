// SPDX-License-Identifier: MPL-2.0

package tasks

import (
	"bytes"
	"context"
	"encoding/xml"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"text/template"

	"github.com/andonyns/Data-Management-Service/internal/step"
	"github.com/andonyns/Data-Management-Service/internal/vcs"
)

// PropsFileName is the MSBuild file every project under the solution root
// imports implicitly.
const PropsFileName = "Directory.Build.props"

var propsTemplate = template.Must(template.New(PropsFileName).Funcs(template.FuncMap{
	"xml": xmlEscape,
}).Parse(`<Project>
  <PropertyGroup>
    <Product>{{ xml .Product }}</Product>
    <Authors>{{ xml .Maintainers }}</Authors>
    <Company>{{ xml .Maintainers }}</Company>
    <Copyright>Copyright © {{ .Year }} {{ xml .Maintainers }}</Copyright>
    <VersionPrefix>{{ .VersionPrefix }}</VersionPrefix>
{{- with .VersionSuffix }}
    <VersionSuffix>{{ xml . }}</VersionSuffix>
{{- end }}
    <InformationalVersion>{{ xml .InformationalVersion }}</InformationalVersion>
  </PropertyGroup>
</Project>
`))

// assemblyInfo is the data rendered into Directory.Build.props.
type assemblyInfo struct {
	Product              string
	Maintainers          string
	Year                 int
	VersionPrefix        string
	VersionSuffix        string
	InformationalVersion string
}

func xmlEscape(s string) string {
	var b strings.Builder
	_ = xml.EscapeText(&b, []byte(s))
	return b.String()
}

// assemblyInfo collects the stamp values. A missing git repository only
// drops the commit from InformationalVersion.
func (t *Toolchain) assemblyInfo() assemblyInfo {
	info := assemblyInfo{
		Product:              t.cfg.Project.Product,
		Maintainers:          t.cfg.Project.Maintainers,
		Year:                 t.now().Year(),
		VersionPrefix:        t.params.Version.Prefix(),
		VersionSuffix:        t.params.Version.Prerelease(),
		InformationalVersion: t.params.Version.String(),
	}

	commit, err := t.headCommit(t.solutionRoot())
	switch {
	case err == nil:
		info.InformationalVersion += "+" + commit.Short()
	case errors.Is(err, vcs.ErrNotRepository), errors.Is(err, vcs.ErrNoCommits):
		slog.Debug("no commit for informational version", "error", err)
	default:
		slog.Warn("reading git HEAD failed", "error", err)
	}
	return info
}

func renderProps(info assemblyInfo) ([]byte, error) {
	var buf bytes.Buffer
	if err := propsTemplate.Execute(&buf, info); err != nil {
		return nil, fmt.Errorf("render %s: %w", PropsFileName, err)
	}
	return buf.Bytes(), nil
}

// writeIfChanged writes content to path unless the file already holds
// exactly that content, so unchanged stamps do not trigger rebuilds.
func writeIfChanged(path string, content []byte) (bool, error) {
	existing, err := os.ReadFile(path)
	if err == nil && bytes.Equal(existing, content) {
		return false, nil
	}
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return false, fmt.Errorf("read %s: %w", path, err)
	}
	if err := os.WriteFile(path, content, 0o644); err != nil {
		return false, fmt.Errorf("write %s: %w", path, err)
	}
	return true, nil
}

// StampAssemblyInfoStep regenerates Directory.Build.props with the product,
// copyright and version metadata of this build.
func (t *Toolchain) StampAssemblyInfoStep() step.Step {
	target := func() string { return t.solutionRoot().Join(PropsFileName).String() }
	return newToolStep(StepStampAssemblyInfo, "Stamp assembly version metadata",
		func() []string {
			return []string{fmt.Sprintf("write %s (VersionPrefix %s)", target(), t.params.Version.Prefix())}
		},
		func(context.Context) error {
			content, err := renderProps(t.assemblyInfo())
			if err != nil {
				return err
			}
			changed, err := writeIfChanged(target(), content)
			if err != nil {
				return err
			}
			slog.Info("assembly info", "path", target(), "changed", changed)
			return nil
		},
	)
}
