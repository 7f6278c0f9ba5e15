package e2e

import (
	"strings"
	"testing"
)

func TestDoctorVerifiesRemoteAccess(t *testing.T) {
	ws := newWorkspace(t)
	ws.write(t, "index.md", "# Home\n")

	out, err := runCLI(t, "doctor", "--remote")
	if err != nil {
		t.Fatalf("doctor: %v\n%s", err, out)
	}
	mustContain(t, out, "Workspace Root", "reachable", "No problems found")
}

func TestDoctorFlagsRejectedToken(t *testing.T) {
	newWorkspace(t)
	t.Setenv("NOTIONEX_TOKEN", "wrong-token")

	out, err := runCLI(t, "doctor", "--remote")
	if err == nil || !strings.Contains(err.Error(), "problem(s) found") {
		t.Fatalf("error = %v, want the rejected token counted", err)
	}
	mustContain(t, out, "token rejected")
}
