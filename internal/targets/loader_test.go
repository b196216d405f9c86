package targets

import (
	"os"
	"path/filepath"
	"testing"

	. "github.com/onsi/gomega"
	"go.uber.org/multierr"

	"github.com/hamed0406/downtimebench/internal/domain"
)

func TestParse_ValidFile(t *testing.T) {
	g := NewWithT(t)

	got, err := Parse([]byte(`
targets:
  - name: api
    type: http
    args:
      url: https://example.com/health
  - name: db
    type: tcp
    args:
      host: "[::1]"
      port: 5432
`))
	g.Expect(err).NotTo(HaveOccurred())
	g.Expect(got).To(Equal([]domain.Target{
		{Name: "api", Kind: domain.KindHTTP, URL: "https://example.com/health"},
		{Name: "db", Kind: domain.KindTCP, Host: "[::1]", Port: 5432},
	}))
}

func TestParse_Errors(t *testing.T) {
	cases := []struct {
		name string
		doc  string
		want string
	}{
		{"unsupported type", `
targets:
  - name: a
    type: icmp
    args: {host: x}
`, `unsupported type "icmp". Supported types: http, tcp`},
		{"unknown arg", `
targets:
  - name: a
    type: http
    args: {url: "http://a.test", method: GET}
`, `unknown arg "method". Allowed args: url`},
		{"missing arg", `
targets:
  - name: a
    type: tcp
    args: {host: db.test}
`, `missing required arg "port"`},
		{"port as string", `
targets:
  - name: a
    type: tcp
    args: {host: db.test, port: "5432"}
`, `"port" must be a number`},
		{"port out of range", `
targets:
  - name: a
    type: tcp
    args: {host: db.test, port: 70000}
`, `"port" must be a valid port number (1-65535)`},
		{"url not a string", `
targets:
  - name: a
    type: http
    args: {url: 42}
`, `"url" must be a string`},
		{"bad scheme", `
targets:
  - name: a
    type: http
    args: {url: "ftp://a.test"}
`, "http or https"},
		{"duplicate name", `
targets:
  - name: a
    type: http
    args: {url: "http://a.test"}
  - name: a
    type: tcp
    args: {host: a.test, port: 80}
`, "duplicate name"},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			g := NewWithT(t)
			_, err := Parse([]byte(c.doc))
			g.Expect(err).To(HaveOccurred())
			g.Expect(err.Error()).To(ContainSubstring(c.want))
		})
	}
}

func TestParse_ReportsAllBadTargets(t *testing.T) {
	g := NewWithT(t)

	_, err := Parse([]byte(`
targets:
  - name: a
    type: icmp
  - name: b
    type: http
    args: {url: "http://b.test"}
  - name: c
    type: tcp
    args: {host: c.test}
`))
	errs := multierr.Errors(err)
	g.Expect(errs).To(HaveLen(2))
	g.Expect(errs[0].Error()).To(HavePrefix(`target #1 "a" (icmp)`))
	g.Expect(errs[1].Error()).To(HavePrefix(`target #3 "c" (tcp)`))
}

func TestParse_NoTargets(t *testing.T) {
	g := NewWithT(t)

	_, err := Parse([]byte("targets: []\n"))
	g.Expect(err).To(MatchError(ErrNoTargets))

	_, err = Parse([]byte("{}\n"))
	g.Expect(err).To(MatchError(ErrNoTargets))
}

func TestParse_MalformedYAML(t *testing.T) {
	g := NewWithT(t)
	_, err := Parse([]byte("targets: [\n"))
	g.Expect(err).To(MatchError(ContainSubstring("parse targets file")))
}

func TestLoad(t *testing.T) {
	g := NewWithT(t)

	path := filepath.Join(t.TempDir(), "targets.yaml")
	g.Expect(os.WriteFile(path, []byte(`
targets:
  - name: web
    type: http
    args:
      url: http://127.0.0.1:8080
`), 0o600)).To(Succeed())

	got, err := Load(path)
	g.Expect(err).NotTo(HaveOccurred())
	g.Expect(got).To(HaveLen(1))
	g.Expect(got[0].Name).To(Equal("web"))

	_, err = Load(filepath.Join(t.TempDir(), "missing.yaml"))
	g.Expect(err).To(MatchError(ContainSubstring("read targets file")))
}
