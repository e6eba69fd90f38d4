package cli

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/marcelocantos/sush/internal/audit"
)

// RunAuditVerify checks the hash chain of the audit log at logPath.
func RunAuditVerify(w io.Writer, logPath string) int {
	if err := audit.Verify(logPath); err != nil {
		fmt.Fprintf(w, "audit verification FAILED: %v\n", err)
		return 1
	}
	fmt.Fprintln(w, "audit log integrity verified")
	return 0
}

// RunAuditTail prints the last n audit entries as indented JSON.
func RunAuditTail(w io.Writer, logPath string, n int) int {
	entries, err := audit.Tail(logPath, n)
	if err != nil {
		fmt.Fprintf(w, "sush audit: %v\n", err)
		return 1
	}
	if len(entries) == 0 {
		fmt.Fprintln(w, "no audit entries")
		return 0
	}
	for _, e := range entries {
		data, _ := json.MarshalIndent(e, "", "  ")
		fmt.Fprintf(w, "%s\n", data)
	}
	return 0
}
