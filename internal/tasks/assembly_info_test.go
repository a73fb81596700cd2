// SPDX-License-Identifier: MPL-2.0

package tasks

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/andonyns/Data-Management-Service/internal/params"
	"github.com/andonyns/Data-Management-Service/internal/testutil"
	"github.com/andonyns/Data-Management-Service/internal/vcs"
	"github.com/andonyns/Data-Management-Service/pkg/types"
)

func TestStampAssemblyInfo(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		version  string
		commit   func(types.FilesystemPath) (vcs.Commit, error)
		contains []string
		absent   []string
	}{
		{
			name:    "release with commit",
			version: "1.2.0",
			commit: func(types.FilesystemPath) (vcs.Commit, error) {
				return vcs.Commit{Hash: "0123456789abcdef", Branch: "main"}, nil
			},
			contains: []string{
				"<VersionPrefix>1.2.0</VersionPrefix>",
				"<InformationalVersion>1.2.0+0123456</InformationalVersion>",
				"<Copyright>Copyright © 2025 Ed-Fi Alliance, LLC and contributors</Copyright>",
				"<Product>Ed-Fi Data Management Service</Product>",
			},
			absent: []string{"VersionSuffix"},
		},
		{
			name:    "prerelease outside a repository",
			version: "0.3.0-beta.2",
			commit: func(types.FilesystemPath) (vcs.Commit, error) {
				return vcs.Commit{}, vcs.ErrNotRepository
			},
			contains: []string{
				"<VersionPrefix>0.3.0</VersionPrefix>",
				"<VersionSuffix>beta.2</VersionSuffix>",
				"<InformationalVersion>0.3.0-beta.2</InformationalVersion>",
			},
		},
		{
			name:    "unreadable repository",
			version: "0.1",
			commit: func(types.FilesystemPath) (vcs.Commit, error) {
				return vcs.Commit{}, errors.New("corrupt object")
			},
			contains: []string{"<InformationalVersion>0.1</InformationalVersion>"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			f := newFixture(t, params.RawParameters{Version: tt.version})
			if err := f.toolchain(WithCommitReader(tt.commit)).StampAssemblyInfoStep().Run(context.Background()); err != nil {
				t.Fatalf("Run() error = %v", err)
			}

			got := testutil.MustReadFile(t, filepath.Join(f.base, "src", PropsFileName))
			for _, want := range tt.contains {
				if !strings.Contains(got, want) {
					t.Errorf("props missing %q:\n%s", want, got)
				}
			}
			for _, bad := range tt.absent {
				if strings.Contains(got, bad) {
					t.Errorf("props should not contain %q:\n%s", bad, got)
				}
			}
		})
	}
}

func TestStampAssemblyInfo_EscapesXML(t *testing.T) {
	t.Parallel()

	f := newFixture(t, params.RawParameters{})
	f.cfg.Project.Product = "Data & <Management>"
	if err := f.toolchain().StampAssemblyInfoStep().Run(context.Background()); err != nil {
		t.Fatal(err)
	}
	got := testutil.MustReadFile(t, filepath.Join(f.base, "src", PropsFileName))
	if !strings.Contains(got, "<Product>Data &amp; &lt;Management&gt;</Product>") {
		t.Errorf("product not escaped:\n%s", got)
	}
}

func TestWriteIfChanged(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), PropsFileName)
	content := []byte("<Project />\n")

	changed, err := writeIfChanged(path, content)
	if err != nil || !changed {
		t.Fatalf("first write = (%v, %v), want (true, nil)", changed, err)
	}
	before, err := os.Stat(path)
	if err != nil {
		t.Fatal(err)
	}

	changed, err = writeIfChanged(path, content)
	if err != nil || changed {
		t.Fatalf("identical write = (%v, %v), want (false, nil)", changed, err)
	}
	after, _ := os.Stat(path)
	if !after.ModTime().Equal(before.ModTime()) {
		t.Error("identical content must not touch the file")
	}

	changed, err = writeIfChanged(path, []byte("<Project></Project>\n"))
	if err != nil || !changed {
		t.Errorf("changed write = (%v, %v), want (true, nil)", changed, err)
	}
}
