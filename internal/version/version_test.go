package version

import (
	"context"
	"os"
	"os/exec"
	"strings"
	"testing"
)

// TestHelperProcess isn't a real test. It's used to mock exec.CommandContext.
func TestHelperProcess(t *testing.T) {
	if os.Getenv("GO_WANT_HELPER_PROCESS") != "1" {
		return
	}
	defer os.Exit(0)

	args := os.Args
	for len(args) > 0 {
		if args[0] == "--" {
			args = args[1:]
			break
		}
		args = args[1:]
	}
	if len(args) < 3 || args[0] != "git" || args[1] != "describe" {
		os.Exit(0)
	}

	switch args[2] {
	case "--always":
		if os.Getenv("MOCK_GIT_COMMIT_FAIL") == "1" {
			os.Exit(1)
		}
		os.Stdout.WriteString("mock-commit-hash")
	case "--tags":
		if os.Getenv("MOCK_GIT_VERSION_FAIL") == "1" {
			os.Exit(1)
		}
		if os.Getenv("MOCK_GIT_VERSION_EMPTY") != "1" {
			os.Stdout.WriteString("v1.0.0")
		}
	}
}

func mockExecCommand(command string, args ...string) *exec.Cmd {
	cs := []string{"-test.run=TestHelperProcess", "--", command}
	cs = append(cs, args...)
	cmd := exec.Command(os.Args[0], cs...)
	cmd.Env = []string{"GO_WANT_HELPER_PROCESS=1"}
	for _, name := range []string{"MOCK_GIT_COMMIT_FAIL", "MOCK_GIT_VERSION_FAIL", "MOCK_GIT_VERSION_EMPTY"} {
		if val := os.Getenv(name); val != "" {
			cmd.Env = append(cmd.Env, name+"="+val)
		}
	}
	return cmd
}

func withMockGit(t *testing.T) {
	t.Helper()
	orig := execCommand
	execCommand = func(ctx context.Context, name string, arg ...string) *exec.Cmd {
		return mockExecCommand(name, arg...)
	}
	t.Cleanup(func() { execCommand = orig })
}

func TestGitResolution(t *testing.T) {
	withMockGit(t)

	tests := []struct {
		name           string
		env            map[string]string
		expectedVer    string
		expectedCommit string
	}{
		{
			name:           "Success",
			expectedVer:    "v1.0.0",
			expectedCommit: "mock-commit-hash",
		},
		{
			name:           "CommitFail",
			env:            map[string]string{"MOCK_GIT_COMMIT_FAIL": "1"},
			expectedVer:    "v1.0.0",
			expectedCommit: "unknown",
		},
		{
			name:           "VersionFail",
			env:            map[string]string{"MOCK_GIT_VERSION_FAIL": "1"},
			expectedVer:    "dev",
			expectedCommit: "mock-commit-hash",
		},
		{
			name:           "VersionEmpty",
			env:            map[string]string{"MOCK_GIT_VERSION_EMPTY": "1"},
			expectedVer:    "dev",
			expectedCommit: "mock-commit-hash",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			Reset()
			for name, val := range tt.env {
				t.Setenv(name, val)
			}

			if got := GetVersion(); got != tt.expectedVer {
				t.Errorf("GetVersion() = %v, want %v", got, tt.expectedVer)
			}
			if got := GetCommit(); got != tt.expectedCommit {
				t.Errorf("GetCommit() = %v, want %v", got, tt.expectedCommit)
			}
		})
	}
}

func TestLdflagsWin(t *testing.T) {
	withMockGit(t)

	Reset()
	Version = "9.9.9"
	Commit = "abc1234"
	defer Reset()

	if got := GetVersion(); got != "9.9.9" {
		t.Errorf("GetVersion() = %v, want the ldflags value", got)
	}
	if got := GetCommit(); got != "abc1234" {
		t.Errorf("GetCommit() = %v, want the ldflags value", got)
	}
}

func TestInfo(t *testing.T) {
	withMockGit(t)

	Reset()
	info := Info()
	if info == "" {
		t.Fatal("Info() returned empty string")
	}
	if !strings.HasPrefix(info, "cursor-stats ") {
		t.Errorf("Info() = %q, want the binary name prefix", info)
	}
	if !strings.Contains(info, "commit:") {
		t.Errorf("Info() = %q, want a commit field", info)
	}
}

func TestGetDate(t *testing.T) {
	withMockGit(t)

	Reset()
	if d := GetDate(); d == "" {
		t.Error("GetDate() returned empty string")
	}
}
