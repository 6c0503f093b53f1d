package log

import (
	"bytes"
	"fmt"
	"io/ioutil"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pkg/errors"
)

func TestLogConfig(t *testing.T) {
	workingDir, err := os.Getwd()
	if err != nil {
		t.Fatalf("Getwd error: %v", err)
	}
	logName := "privy-static.log"
	privyDir := `c:\privy\logs`
	tests := []struct {
		cfg          LogConfig
		expectedDir  string
		expectedFile string
	}{
		{
			cfg:          LogConfig{},
			expectedDir:  workingDir,
			expectedFile: filepath.Join(workingDir, DefaultLogName),
		},
		{
			cfg:          LogConfig{LogDir: privyDir},
			expectedDir:  privyDir,
			expectedFile: filepath.Join(privyDir, DefaultLogName),
		},
		{
			cfg:          LogConfig{LogName: logName},
			expectedDir:  workingDir,
			expectedFile: filepath.Join(workingDir, logName),
		},
		{
			cfg:          LogConfig{LogName: logName, LogDir: privyDir},
			expectedDir:  privyDir,
			expectedFile: filepath.Join(privyDir, logName),
		},
	}
	for i, test := range tests {
		t.Run(fmt.Sprintf("%d", i), func(t *testing.T) {
			t.Logf("%#v", test.cfg)
			dir, err := test.cfg.Dir()
			if err != nil {
				t.Fatal(err)
			}
			path, err := test.cfg.Path()
			if err != nil {
				t.Fatal(err)
			}
			if dir != test.expectedDir {
				t.Errorf("directory: expected %s but got %s", test.expectedDir, dir)
			}
			if path != test.expectedFile {
				t.Errorf("path: expected %s but got %s", test.expectedFile, path)
			}
		})
	}
}

func TestLevels(t *testing.T) {
	var buf bytes.Buffer
	l := New(&buf, false)
	l.Debugf("hidden %d", 1)
	l.Warnf("shown %d", 2)
	if strings.Contains(buf.String(), "hidden") {
		t.Errorf("debug line written without verbose: %s", buf.String())
	}
	if !strings.Contains(buf.String(), `"level":"warn"`) {
		t.Errorf("expected a warn line: %s", buf.String())
	}

	buf.Reset()
	New(&buf, true).Debugf("visible")
	if !strings.Contains(buf.String(), "visible") {
		t.Errorf("expected a debug line: %s", buf.String())
	}
}

func TestErrorStackTrace(t *testing.T) {
	var buf bytes.Buffer
	l := New(&buf, false).WithFields(map[string]interface{}{"op": "test"})
	l.Error(nil, "nothing")
	if buf.Len() != 0 {
		t.Fatalf("nil error was logged: %s", buf.String())
	}
	l.Error(errors.New("boom"), "failed")
	out := buf.String()
	for _, want := range []string{`"stacktrace"`, `"error":"boom"`, `"op":"test"`, `"message":"failed"`} {
		if !strings.Contains(out, want) {
			t.Errorf("expected %s in %s", want, out)
		}
	}
}

func TestNewLoggerWritesFile(t *testing.T) {
	dir := t.TempDir()
	l, err := NewLogger(LogConfig{LogDir: dir, MaxSizeMB: 1, MaxLogFiles: 1})
	if err != nil {
		t.Fatal(err)
	}
	l.Logf("hello %s", "file")
	if err := l.Close(); err != nil {
		t.Fatal(err)
	}
	b, err := ioutil.ReadFile(filepath.Join(dir, DefaultLogName))
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(b), "hello file") {
		t.Errorf("log file content: %s", b)
	}
}
