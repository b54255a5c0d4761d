package cmd

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
)

func runCommand(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out, errOut bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&errOut)
	rootCmd.SetArgs(args)
	t.Cleanup(func() {
		rootCmd.SetArgs(nil)
		rootFlags.relayURL, rootFlags.dbPath, rootFlags.logLevel = "", "", ""
		outputFlags.raw, outputFlags.title = false, false
	})
	err := rootCmd.Execute()
	return out.String(), err
}

func TestKeySetAndStatus(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "state.db")

	out, err := runCommand(t, "key", "status", "--db", dbPath, "--log-level", "error")
	if err != nil {
		t.Fatalf("key status: %v", err)
	}
	if strings.TrimSpace(out) != "API key is not set" {
		t.Errorf("unexpected output %q", out)
	}

	if _, err := runCommand(t, "key", "set", "sk-secret", "--db", dbPath, "--log-level", "error"); err != nil {
		t.Fatalf("key set: %v", err)
	}

	out, err = runCommand(t, "key", "status", "--db", dbPath, "--log-level", "error")
	if err != nil {
		t.Fatalf("key status: %v", err)
	}
	if strings.TrimSpace(out) != "API key is set" {
		t.Errorf("unexpected output %q", out)
	}
	if strings.Contains(out, "sk-secret") {
		t.Error("key status must not print the key")
	}
}

func TestAskWithoutSummary(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "state.db")

	_, err := runCommand(t, "ask", "what", "happened?", "--db", dbPath, "--log-level", "error")
	if err == nil || !strings.Contains(err.Error(), "No summary available") {
		t.Errorf("expected no summary error, got %v", err)
	}
}

func TestSummarizeThenAsk(t *testing.T) {
	youtube := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/watch" {
			captions := `{"playerCaptionsTracklistRenderer":{"captionTracks":[{"baseUrl":"http://` + r.Host + `/track","languageCode":"en"}]}}`
			w.Write([]byte(`<html><head><title>Demo - YouTube</title></head><body><script>var x = {"captions":` + captions + `,"videoDetails":{}};</script></body></html>`))
			return
		}
		w.Write([]byte(`<transcript><text start="0">hello</text><text start="1"> world</text></transcript>`))
	}))
	defer youtube.Close()

	var lastAuth string
	relay := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		lastAuth = r.Header.Get("Authorization")
		w.Header().Set("Content-Type", "application/json")
		if r.URL.Path == "/summarize" {
			w.Write([]byte(`{"summary":"1. greeting"}`))
			return
		}
		w.Write([]byte(`{"answer":"it says hello"}`))
	}))
	defer relay.Close()

	t.Setenv("YOUTUBE_BASE_URL", youtube.URL)
	dbPath := filepath.Join(t.TempDir(), "state.db")
	common := []string{"--db", dbPath, "--relay", relay.URL, "--log-level", "error"}

	if _, err := runCommand(t, append([]string{"key", "set", "sk-cli"}, common...)...); err != nil {
		t.Fatal(err)
	}

	out, err := runCommand(t, append([]string{"summarize", "https://www.youtube.com/watch?v=abc", "--raw"}, common...)...)
	if err != nil {
		t.Fatalf("summarize: %v", err)
	}
	if out != "1. greeting" {
		t.Errorf("unexpected summary output %q", out)
	}
	if lastAuth != "Bearer sk-cli" {
		t.Errorf("expected stored key to be sent, got %q", lastAuth)
	}

	out, err = runCommand(t, append([]string{"ask", "what", "is", "said?", "--raw"}, common...)...)
	if err != nil {
		t.Fatalf("ask: %v", err)
	}
	if out != "it says hello" {
		t.Errorf("unexpected answer output %q", out)
	}

	out, err = runCommand(t, append([]string{"transcript", "https://www.youtube.com/watch?v=abc", "--title"}, common...)...)
	if err != nil {
		t.Fatalf("transcript: %v", err)
	}
	if out != "Demo\n\nhello world\n" {
		t.Errorf("unexpected transcript output %q", out)
	}
}
