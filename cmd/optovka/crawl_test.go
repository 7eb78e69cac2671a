package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/nao1215/optovka/internal/config"
	"github.com/nao1215/optovka/internal/model"
	"github.com/nao1215/optovka/internal/report"
)

// directorySite serves a front page with one category whose listing has a
// single supplier with one in-page product.
func directorySite(t *testing.T) *httptest.Server {
	t.Helper()

	pages := map[string]string{
		"/": `<html><body><a href="/optom-electronics">Электроника</a></body></html>`,
		"/optom-electronics": `<html><body><ul>
			<li class="c-container">
				<div class="c-c-name"><a href="/company/777"><span>Acme Co LLC</span></a></div>
				<div class="c-c-region"><span><a>Almaty</a></span></div>
			</li>
		</ul></body></html>`,
		"/company/777": `<html><body>
			<div class="firm-about">Wholesale electronics</div>
			<ul class="firm-goods-list">
				<li itemscope itemtype="http://schema.org/Product"><span itemprop="name">Кабель</span></li>
			</ul>
		</body></html>`,
	}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		page, ok := pages[r.URL.Path]
		if !ok {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		fmt.Fprint(w, page)
	}))
	t.Cleanup(server.Close)
	return server
}

func TestCrawlCmdEndToEnd(t *testing.T) {
	t.Parallel()

	server := directorySite(t)
	dbDir := t.TempDir()
	configPath := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(configPath, []byte("crawl:\n  renderer: http\n  delay: 0s\n"), 0600); err != nil {
		t.Fatal(err)
	}

	run := func(t *testing.T, args ...string) string {
		t.Helper()
		var out bytes.Buffer
		cmd := NewRootCmd()
		cmd.SetOut(&out)
		cmd.SetArgs(append(args, "--config", configPath, "--db-dir", dbDir))
		if err := cmd.Execute(); err != nil {
			t.Fatalf("%v failed: %v", args, err)
		}
		return out.String()
	}

	var rep report.JSONReport
	if err := json.Unmarshal([]byte(run(t, "crawl", "--start-url", server.URL, "--json")), &rep); err != nil {
		t.Fatalf("invalid JSON report: %v", err)
	}
	s := rep.Summary
	if s == nil {
		t.Fatal("expected summary in report")
	}
	if rep.Status != "complete" || s.PagesFetched != 3 {
		t.Errorf("unexpected run: status %s, %d pages, abandoned %+v", rep.Status, s.PagesFetched, s.Abandoned)
	}
	for kind, want := range map[model.EntityKind]int{
		model.KindCategory:    1,
		model.KindSubcategory: 0,
		model.KindSupplier:    1,
		model.KindProduct:     1,
	} {
		if got := s.Entities[kind].Created; got != want {
			t.Errorf("expected %d %s created, got %d", want, kind, got)
		}
	}

	t.Run("second run finds nothing new", func(t *testing.T) {
		out := run(t, "crawl", "--start-url", server.URL)
		if !strings.Contains(out, "OPTOVKA CRAWL REPORT") {
			t.Errorf("expected text report, got %q", out)
		}
		history := run(t, "history")
		if !strings.Contains(history, "Crawl history (2 runs)") || !strings.Contains(history, "nothing new") {
			t.Errorf("unexpected history:\n%s", history)
		}
		if !strings.Contains(history, "C:1 SP:1 P:1") {
			t.Errorf("expected first run's created counts in history:\n%s", history)
		}
	})

	t.Run("list commands read the store", func(t *testing.T) {
		if out := run(t, "list", "categories"); !strings.Contains(out, "optom-electronics") {
			t.Errorf("unexpected categories:\n%s", out)
		}
		if out := run(t, "list", "suppliers", "--search", "almaty"); !strings.Contains(out, "Acme Co LLC") {
			t.Errorf("unexpected suppliers:\n%s", out)
		}
		if out := run(t, "list", "suppliers", "--city", "astana"); !strings.Contains(out, "No suppliers match") {
			t.Errorf("expected no match:\n%s", out)
		}

		var counts map[model.EntityKind]int
		if err := json.Unmarshal([]byte(run(t, "list", "counts", "--json")), &counts); err != nil {
			t.Fatalf("invalid counts JSON: %v", err)
		}
		if counts[model.KindSupplier] != 1 || counts[model.KindProduct] != 1 {
			t.Errorf("unexpected counts %v", counts)
		}
	})
}

func TestBuildCrawlConfig(t *testing.T) {
	t.Parallel()

	configPath := filepath.Join(t.TempDir(), "config.yaml")
	file := `crawl:
  concurrency: 3
  delay: 5s
  renderer: http
storage:
  redisAddr: localhost:6379
ignorePatterns: ["/news/*"]
`
	if err := os.WriteFile(configPath, []byte(file), 0600); err != nil {
		t.Fatal(err)
	}

	parse := func(t *testing.T, args ...string) *config.Config {
		t.Helper()
		root := NewRootCmd()
		cmd, rest, err := root.Find(append([]string{"crawl"}, args...))
		if err != nil {
			t.Fatal(err)
		}
		if err := cmd.ParseFlags(rest); err != nil {
			t.Fatal(err)
		}
		cfg, err := buildCrawlConfig(cmd)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		return cfg
	}

	t.Run("file overrides defaults", func(t *testing.T) {
		t.Parallel()
		cfg := parse(t, "--config", configPath)
		if cfg.Concurrency != 3 || cfg.Delay != 5*time.Second || cfg.Renderer != config.RendererHTTP {
			t.Errorf("file settings not applied: %+v", cfg)
		}
		if cfg.RedisAddr != "localhost:6379" || len(cfg.IgnorePatterns) != 1 {
			t.Errorf("file settings not applied: %+v", cfg)
		}
		if cfg.Timeout != config.DefaultTimeout {
			t.Errorf("expected default timeout, got %v", cfg.Timeout)
		}
	})

	t.Run("changed flags override file", func(t *testing.T) {
		t.Parallel()
		cfg := parse(t, "--config", configPath, "-n", "8", "--delay", "0s", "--ignore", "/a/*", "--ignore", "/b/*", "--markdown", "-v")
		if cfg.Concurrency != 8 || cfg.Delay != 0 {
			t.Errorf("flags not applied: concurrency %d, delay %v", cfg.Concurrency, cfg.Delay)
		}
		if len(cfg.IgnorePatterns) != 2 || !cfg.MarkdownReport || !cfg.Verbose {
			t.Errorf("flags not applied: %+v", cfg)
		}
		if cfg.Renderer != config.RendererHTTP {
			t.Error("unchanged flag must not override the file")
		}
	})

	t.Run("dump without a value uses the cache directory", func(t *testing.T) {
		t.Parallel()
		cfg := parse(t, "--config", configPath, "--dump")
		if cfg.DumpDir != config.DefaultDumpDir() {
			t.Errorf("expected %s, got %q", config.DefaultDumpDir(), cfg.DumpDir)
		}
	})

	t.Run("missing explicit config file", func(t *testing.T) {
		t.Parallel()
		root := NewRootCmd()
		cmd, rest, err := root.Find([]string{"crawl", "--config", filepath.Join(t.TempDir(), "nope.yaml")})
		if err != nil {
			t.Fatal(err)
		}
		if err := cmd.ParseFlags(rest); err != nil {
			t.Fatal(err)
		}
		if _, err := buildCrawlConfig(cmd); err == nil {
			t.Error("expected error for missing config file")
		}
	})
}

func TestCrawlCmdRejectsInvalidConfig(t *testing.T) {
	t.Parallel()

	cmd := NewRootCmd()
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetArgs([]string{"crawl", "--json", "--markdown", "--db-dir", t.TempDir(),
		"--config", writeEmptyConfig(t)})
	err := cmd.Execute()
	if err == nil || !strings.Contains(err.Error(), config.ErrConflictingReportFormats.Error()) {
		t.Errorf("expected conflicting formats error, got %v", err)
	}
}

func writeEmptyConfig(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "empty.yaml")
	if err := os.WriteFile(path, []byte("{}\n"), 0600); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestOutputReport(t *testing.T) {
	t.Parallel()

	summary := model.NewCrawlSummary("run-9", "https://www.optoviki.kz", time.Now())
	summary.FinishedAt = summary.StartedAt.Add(time.Minute)

	t.Run("writes markdown to a nested file", func(t *testing.T) {
		t.Parallel()
		cfg := config.NewConfig()
		cfg.MarkdownReport = true
		cfg.ReportFile = filepath.Join(t.TempDir(), "reports", "run.md")

		var stdout bytes.Buffer
		if err := outputReport(cfg, summary, &stdout); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if stdout.Len() != 0 {
			t.Error("expected nothing on stdout")
		}
		content, err := os.ReadFile(cfg.ReportFile)
		if err != nil {
			t.Fatalf("failed to read report: %v", err)
		}
		if !strings.Contains(string(content), "# Crawl Report") {
			t.Errorf("unexpected report:\n%s", content)
		}
	})

	t.Run("text report to stdout by default", func(t *testing.T) {
		t.Parallel()
		var stdout bytes.Buffer
		if err := outputReport(config.NewConfig(), summary, &stdout); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !strings.Contains(stdout.String(), "run-9") {
			t.Errorf("unexpected output %q", stdout.String())
		}
	})
}

func TestNewRenderer(t *testing.T) {
	t.Parallel()

	cfg := config.NewConfig()
	cfg.Renderer = config.RendererHTTP
	cfg.ProxyAddress = "localhost"
	if _, _, err := newRenderer(cfg); err == nil {
		t.Error("expected invalid proxy to be rejected")
	}

	cfg.ProxyAddress = ""
	r, closeFn, err := newRenderer(cfg)
	if err != nil || r == nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := closeFn(); err != nil {
		t.Errorf("close failed: %v", err)
	}

	cfg.Renderer = config.RendererChrome
	r, closeFn, err = newRenderer(cfg)
	if err != nil || r == nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := closeFn(); err != nil {
		t.Errorf("closing an unstarted browser failed: %v", err)
	}
}
