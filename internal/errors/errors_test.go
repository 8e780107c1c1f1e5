package errors

import (
	"bytes"
	stdErrors "errors"
	"fmt"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestWorkspaceError_Error(t *testing.T) {
	tests := []struct {
		name     string
		err      *WorkspaceError
		expected string
	}{
		{
			name:     "error without cause",
			err:      New(CategoryConfig, SeverityFatal, "configuration invalid"),
			expected: "config (fatal): configuration invalid",
		},
		{
			name:     "error with cause",
			err:      Wrap(fmt.Errorf("permission denied"), CategoryFileSystem, SeverityFatal, "can't read a/Cargo.toml"),
			expected: "filesystem (fatal): can't read a/Cargo.toml: permission denied",
		},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			require.Equal(t, test.expected, test.err.Error())
		})
	}
}

func TestConstructors_NameFileAndField(t *testing.T) {
	err := MissingSection("b/Cargo.toml", "package")
	require.Equal(t, CategorySection, err.Category)
	require.Contains(t, err.Message, "b/Cargo.toml")
	require.Contains(t, err.Message, "[package]")
	require.Equal(t, "b/Cargo.toml", err.File())

	err = MissingField("b/Cargo.toml", "package.version")
	require.Equal(t, CategoryField, err.Category)
	require.Equal(t, "package.version", err.Context[ContextField])

	err = SchemaMismatch("Cargo.toml", "workspace.members", "must be an array of strings")
	require.Equal(t, CategorySchema, err.Category)
	require.Equal(t, "workspace.members in Cargo.toml must be an array of strings", err.Message)
}

func TestAggregateMismatch(t *testing.T) {
	err := AggregateMismatch(3)
	require.Equal(t, CategoryMismatch, err.Category)
	require.Equal(t, 3, err.Context[ContextCount])
	require.Contains(t, err.Message, "3 version fields")
	require.Contains(t, AggregateMismatch(1).Message, "1 version field)")
}

func TestIsCategoryThroughWrapping(t *testing.T) {
	base := MissingField("a/Cargo.toml", "package.version")
	wrapped := fmt.Errorf("processing member a: %w", base)

	require.True(t, IsCategory(wrapped, CategoryField))
	require.False(t, IsCategory(wrapped, CategorySchema))
	require.False(t, IsCategory(stdErrors.New("plain"), CategoryField))
	require.Equal(t, CategoryField, GetCategory(wrapped))
	require.Equal(t, CategoryInternal, GetCategory(stdErrors.New("plain")))
}

func TestUnwrap(t *testing.T) {
	cause := stdErrors.New("disk full")
	err := WriteFailed("Cargo.toml", cause)
	require.ErrorIs(t, err, cause)
}

func TestCLIErrorAdapter_ExitCodes(t *testing.T) {
	adapter := NewCLIErrorAdapter(false, nil)

	tests := []struct {
		name string
		err  error
		want int
	}{
		{name: "nil", err: nil, want: ExitOK},
		{name: "mismatch", err: AggregateMismatch(2), want: ExitMismatch},
		{name: "usage", err: InvalidArgument("version must not be empty"), want: ExitUsage},
		{name: "section", err: MissingSection("Cargo.toml", "workspace"), want: ExitManifest},
		{name: "field", err: MissingField("a/Cargo.toml", "package.version"), want: ExitManifest},
		{name: "schema", err: SchemaMismatch("a/Cargo.toml", "package.version", "wasn't a string"), want: ExitManifest},
		{name: "io", err: ReadFailed("a/Cargo.toml", stdErrors.New("missing")), want: ExitFileSystem},
		{name: "config", err: ConfigInvalid("x.yaml", "bad format"), want: ExitConfig},
		{name: "git", err: DirtyWorktree([]string{"Cargo.toml"}), want: ExitGit},
		{name: "internal", err: InternalError("boom", nil), want: ExitInternal},
		{name: "plain", err: stdErrors.New("plain"), want: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, adapter.ExitCodeFor(tt.err))
		})
	}
}

func TestCLIErrorAdapter_Handle(t *testing.T) {
	var out, logs bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&logs, nil))
	adapter := NewCLIErrorAdapter(false, logger).WithOutput(&out)

	code := adapter.Handle(MissingSection("b/Cargo.toml", "package"))
	require.Equal(t, ExitManifest, code)
	require.Equal(t, "Error: no [package] section in b/Cargo.toml\n", out.String())
	require.Empty(t, logs.String())

	out.Reset()
	code = adapter.Handle(ReadFailed("a/Cargo.toml", stdErrors.New("no such file")))
	require.Equal(t, ExitFileSystem, code)
	require.Equal(t, "Error: can't read a/Cargo.toml: no such file\n", out.String())
}

func TestCLIErrorAdapter_VerboseLogsContext(t *testing.T) {
	var out, logs bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&logs, nil))
	adapter := NewCLIErrorAdapter(true, logger).WithOutput(&out)

	adapter.Handle(MissingField("a/Cargo.toml", "package.version"))
	require.Contains(t, out.String(), "field (fatal): no package.version in a/Cargo.toml")
	require.Contains(t, logs.String(), "file=a/Cargo.toml")
	require.Contains(t, logs.String(), "category=field")
}
