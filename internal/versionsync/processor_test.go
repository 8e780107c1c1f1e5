package versionsync

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/ava-labs/cargo-workspace-version/internal/manifest"
	"github.com/ava-labs/cargo-workspace-version/internal/util/sets"
	"github.com/ava-labs/cargo-workspace-version/internal/versioning"
)

type memberSet struct{ *sets.Ordered[string] }

func (m memberSet) IsMember(name string) bool { return m.Has(name) }

func TestProcess_DependencyFiltering(t *testing.T) {
	src := `[package]
name = "b"
version = "0.1.0"

[dependencies]
ext = { version = "0.1.0" }
short = "0.1.0"
nover = { path = "../nover" }
a = { path = "../a", version = "0.1.0", features = ["x"] }

[dependencies.table]
version = "0.1.0"

[build-dependencies]
a = { path = "../a", version = "0.1.0" }
`
	doc, err := manifest.Parse("b/Cargo.toml", []byte(src))
	require.NoError(t, err)

	var seen []string
	p := &Processor{
		Checker:    versioning.Checker{Target: "0.2.0", Mode: versioning.ModeUpdate},
		Membership: memberSet{sets.NewOrdered("a", "short", "nover", "table")},
		Tables:     []string{"dependencies"},
		OnResult:   func(r versioning.Result) { seen = append(seen, r.Location.Field()) },
	}
	results, err := p.Process(doc)
	require.NoError(t, err)
	require.Len(t, results, 3)
	require.Equal(t, []string{"package.version", "dependencies.a.version", "dependencies.table.version"}, seen)

	out, err := doc.Bytes()
	require.NoError(t, err)
	require.Equal(t, `[package]
name = "b"
version = "0.2.0"

[dependencies]
ext = { version = "0.1.0" }
short = "0.1.0"
nover = { path = "../nover" }
a = { path = "../a", version = "0.2.0", features = ["x"] }

[dependencies.table]
version = "0.2.0"

[build-dependencies]
a = { path = "../a", version = "0.1.0" }
`, string(out))
}

func TestProcess_MissingDependencyTable(t *testing.T) {
	doc, err := manifest.Parse("a/Cargo.toml", []byte("[package]\nname = \"a\"\nversion = \"0.2.0\"\n"))
	require.NoError(t, err)

	p := &Processor{
		Checker:    versioning.Checker{Target: "0.2.0", Mode: versioning.ModeCheck},
		Membership: memberSet{sets.NewOrdered[string]()},
		Tables:     []string{"dependencies", "dev-dependencies"},
	}
	results, err := p.Process(doc)
	require.NoError(t, err)
	require.Len(t, results, 1)
	require.Equal(t, versioning.OutcomeMatch, results[0].Outcome)
}
