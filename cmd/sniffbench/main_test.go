package main

import (
	"bytes"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"
)

func TestHelperProcess(t *testing.T) {
	if os.Getenv("GO_WANT_HELPER_PROCESS") != "1" {
		return
	}

	args := os.Args
	i := 0
	for ; i < len(args); i++ {
		if args[i] == "--" {
			break
		}
	}
	if i < len(args) {
		os.Args = append([]string{args[0]}, args[i+1:]...)
	} else {
		os.Args = []string{args[0]}
	}

	main()
	os.Exit(0)
}

func runCmd(t *testing.T, args ...string) (stdout, stderr string, exitCode int) {
	t.Helper()

	cmdArgs := []string{"-test.run=TestHelperProcess", "--"}
	cmdArgs = append(cmdArgs, args...)

	cmd := exec.Command(os.Args[0], cmdArgs...)
	cmd.Env = append(os.Environ(), "GO_WANT_HELPER_PROCESS=1")

	var outBuf, errBuf bytes.Buffer
	cmd.Stdout = &outBuf
	cmd.Stderr = &errBuf

	err := cmd.Run()
	stdout = outBuf.String()
	stderr = errBuf.String()

	if err == nil {
		return stdout, stderr, 0
	}
	if ee, ok := err.(*exec.ExitError); ok {
		return stdout, stderr, ee.ExitCode()
	}
	t.Fatalf("unexpected run error: %T: %v", err, err)
	return "", "", 1
}

func writeFixture(t *testing.T, dir, name, content, sidecar string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0o600); err != nil {
		t.Fatalf("write fixture %s: %v", name, err)
	}
	if err := os.WriteFile(filepath.Join(dir, name+".dialect.json"), []byte(sidecar), 0o600); err != nil {
		t.Fatalf("write sidecar for %s: %v", name, err)
	}
}

func TestMain_RunsCorpusAndReportsAccuracy(t *testing.T) {
	t.Parallel()

	corpusDir := t.TempDir()
	writeFixture(t, corpusDir, "comma.csv",
		"a,b,c\n1,2,3\n4,5,6\n",
		`{"delimiter": ",", "quote": "none", "has_header": true}`,
	)
	writeFixture(t, corpusDir, "semicolon.csv",
		"a;b;c\n1;2;3\n4;5;6\n",
		`{"delimiter": ";", "quote": "none", "has_header": true}`,
	)

	dbPath := filepath.Join(t.TempDir(), "bench.db")
	stdout, stderr, code := runCmd(t, "-corpus", corpusDir, "-db", "file:"+dbPath)
	if code != 0 {
		t.Fatalf("expected exit code 0, got %d\nstderr:\n%s\nstdout:\n%s", code, stderr, stdout)
	}
	if !strings.Contains(stdout, "accuracy") {
		t.Fatalf("expected accuracy summary in stdout, got:\n%s", stdout)
	}
	if !strings.Contains(stdout, "comma.csv") || !strings.Contains(stdout, "semicolon.csv") {
		t.Fatalf("expected per-fixture lines in stdout, got:\n%s", stdout)
	}
	if !strings.Contains(stdout, "F1 score") || !strings.Contains(stdout, "Precision") {
		t.Fatalf("expected precision/recall/F1 summary in stdout, got:\n%s", stdout)
	}
}

func TestMain_MissingCorpus_ExitsWith2(t *testing.T) {
	t.Parallel()

	stdout, stderr, code := runCmd(t)
	if code != 2 {
		t.Fatalf("expected exit code 2, got %d\nstderr:\n%s\nstdout:\n%s", code, stderr, stdout)
	}
	if !strings.Contains(stderr, "missing -corpus") {
		t.Fatalf("expected missing -corpus message on stderr, got:\n%s", stderr)
	}
}
