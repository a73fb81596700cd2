// SPDX-License-Identifier: MPL-2.0

package issue

import (
	"strings"

	"github.com/charmbracelet/glamour"
	"golang.org/x/exp/slices"
)

// Id identifies a catalog entry.
type Id int

const (
	UnknownCommandId Id = iota + 1
	InvalidParameterId
	ProcessLaunchFailedId
	StepFailedId
	ProcessTimeoutId
	ConfigLoadFailedId
	BootstrapFailedId
	ContainerEngineNotFoundId
	TestAssembliesNotFoundId
)

type (
	MarkdownMsg string

	HttpLink string

	Issue struct {
		id       Id          // ID used to lookup the issue
		mdMsg    MarkdownMsg // Markdown text that will be rendered
		docLinks []HttpLink  // documentation for the failing tool
		extLinks []HttpLink  // external links that might be useful for the user
	}
)

func (i *Issue) Id() Id {
	return i.id
}

func (i *Issue) MarkdownMsg() MarkdownMsg {
	return i.mdMsg
}

func (i *Issue) DocLinks() []HttpLink {
	return slices.Clone(i.docLinks)
}

func (i *Issue) ExtLinks() []HttpLink {
	return slices.Clone(i.extLinks)
}

// Render renders the help page for the terminal. stylePath is a glamour
// style name ("dark", "light", "notty") or a path to a JSON style.
func (i *Issue) Render(stylePath string) (string, error) {
	var md strings.Builder
	md.WriteString(string(i.mdMsg))
	if len(i.docLinks) > 0 || len(i.extLinks) > 0 {
		md.WriteString("\n\n## See also\n")
		for _, link := range append(i.DocLinks(), i.extLinks...) {
			md.WriteString("\n- <" + string(link) + ">")
		}
	}
	return render(md.String(), stylePath)
}

var (
	render = glamour.Render

	unknownCommandIssue = &Issue{
		id: UnknownCommandId,
		mdMsg: `
# Unknown command

The requested command is not one of the build commands.

## Available commands
- ` + "`Clean`" + `, ` + "`Build`" + `, ` + "`BuildAndPublish`" + `
- ` + "`UnitTest`" + `, ` + "`E2ETest`" + `
- ` + "`DockerBuild`" + `, ` + "`DockerRun`" + `

## Things you can try
- List the commands and their steps:
~~~
$ dmsbuild list
~~~
- Command names are case-insensitive: ` + "`dmsbuild run unittest`" + ` works.`,
	}

	invalidParameterIssue = &Issue{
		id: InvalidParameterId,
		mdMsg: `
# Invalid option value

An option was given a value outside its allowed set. No step was run.

## Allowed values
- ` + "`--configuration`" + `: ` + "`Debug`" + ` or ` + "`Release`" + `
- ` + "`--version`" + `: a version such as ` + "`0.1`" + ` or ` + "`1.2.3-beta.1`" + `
- ` + "`--feed-url`" + `: an absolute http(s) URL`,
	}

	processLaunchFailedIssue = &Issue{
		id: ProcessLaunchFailedId,
		mdMsg: `
# A build tool could not be started

The executable was not found on your PATH, or the OS refused to start it.

## Things you can try
- Check the tool is installed: ` + "`dotnet --info`" + `, ` + "`docker version`" + `
- Point the build at a specific executable in ` + "`dmsbuild.cue`" + `:
~~~cue
build: dotnet: "/usr/local/share/dotnet/dotnet"
~~~
- Use ` + "`--local-build`" + ` to download the NuGet CLI automatically.`,
		docLinks: []HttpLink{"https://dotnet.microsoft.com/download"},
	}

	stepFailedIssue = &Issue{
		id: StepFailedId,
		mdMsg: `
# A build step failed

The step named above returned an error and the remaining steps were skipped.
The tool's own output is shown above this message.

## Things you can try
- Re-run with ` + "`--verbose`" + ` to see every command line launched
- Run only the failing part, e.g. ` + "`dmsbuild run Build`" + ` before ` + "`BuildAndPublish`" + `
- Preview the steps without running them with ` + "`--dry-run`",
	}

	processTimeoutIssue = &Issue{
		id: ProcessTimeoutId,
		mdMsg: `
# A build tool timed out

The process ran longer than the configured timeout and was killed.

## Things you can try
- Raise the limit: ` + "`--timeout 30m`" + `, or ` + "`build: timeout: \"30m\"`" + ` in ` + "`dmsbuild.cue`" + `
- Use ` + "`--timeout 0`" + ` to disable the limit`,
	}

	configLoadFailedIssue = &Issue{
		id: ConfigLoadFailedId,
		mdMsg: `
# Failed to load configuration

The configuration file could not be read or does not match the schema.

## Search order
1. The file given with ` + "`--config`" + `
2. ` + "`./dmsbuild.cue`" + `
3. ` + "`dmsbuild/config.cue`" + ` in your user configuration directory

## Things you can try
- Show where configuration is loaded from: ` + "`dmsbuild config path`" + `
- Write a fresh file with the defaults: ` + "`dmsbuild config init`",
		extLinks: []HttpLink{"https://cuelang.org/docs/"},
	}

	bootstrapFailedIssue = &Issue{
		id: BootstrapFailedId,
		mdMsg: `
# Local build bootstrap failed

` + "`--local-build`" + ` needs the NuGet CLI, and it could not be downloaded.

## Things you can try
- Check your network connection and proxy settings
- Download ` + "`nuget.exe`" + ` manually into the tools directory (` + "`bootstrap.tools_dir`" + `)
- Change the download location with ` + "`bootstrap: nuget_url`" + ` in ` + "`dmsbuild.cue`",
		docLinks: []HttpLink{"https://learn.microsoft.com/nuget/reference/nuget-exe-cli-reference"},
	}

	containerEngineNotFoundIssue = &Issue{
		id: ContainerEngineNotFoundId,
		mdMsg: `
# Container engine not found

Neither the configured container engine nor its alternative is available.

## Things you can try
- Install Docker or Podman
- Select the engine explicitly in ` + "`dmsbuild.cue`" + `:
~~~cue
container: engine: "podman"
~~~`,
		docLinks: []HttpLink{"https://docs.docker.com/get-docker/", "https://podman.io/docs/installation"},
	}

	testAssembliesNotFoundIssue = &Issue{
		id: TestAssembliesNotFoundId,
		mdMsg: `
# No test assemblies found

No compiled test assembly matched the filter under the solution root.

## Things you can try
- Build first with the same configuration: ` + "`dmsbuild run Build -c Release`" + `
- Check ` + "`test: unit_filter`" + ` / ` + "`test: e2e_filter`" + ` in ` + "`dmsbuild.cue`",
	}

	issues = map[Id]*Issue{
		unknownCommandIssue.Id():          unknownCommandIssue,
		invalidParameterIssue.Id():        invalidParameterIssue,
		processLaunchFailedIssue.Id():     processLaunchFailedIssue,
		stepFailedIssue.Id():              stepFailedIssue,
		processTimeoutIssue.Id():          processTimeoutIssue,
		configLoadFailedIssue.Id():        configLoadFailedIssue,
		bootstrapFailedIssue.Id():         bootstrapFailedIssue,
		containerEngineNotFoundIssue.Id(): containerEngineNotFoundIssue,
		testAssembliesNotFoundIssue.Id():  testAssembliesNotFoundIssue,
	}
)

// Values returns every catalog entry ordered by Id.
func Values() []*Issue {
	out := make([]*Issue, 0, len(issues))
	for _, i := range issues {
		out = append(out, i)
	}
	slices.SortFunc(out, func(a, b *Issue) int { return int(a.id) - int(b.id) })
	return out
}

// Get returns the catalog entry for id, or nil.
func Get(id Id) *Issue {
	return issues[id]
}
