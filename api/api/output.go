/* output.go
 * Contains the writers for the run's output artifacts: report.json with every tournament report, and digest.txt
 * with the run's notifications, written only when there are any
 */

package api

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/cockroachdb/errors"
)

const (
	ReportFileName = "report.json"
	DigestFileName = "digest.txt"
)

// Digest renders the notifications as plain text. Returns an empty string when there are none
func (r RunResult) Digest() string {
	if len(r.Notifications) == 0 {
		return ""
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Entry list updates for %s", r.RunDate)
	if r.RunID != "" {
		fmt.Fprintf(&b, " (run %s)", r.RunID)
	}
	b.WriteString("\n\n")
	for _, n := range r.Notifications {
		b.WriteString("- ")
		b.WriteString(n)
		b.WriteString("\n")
	}
	return b.String()
}

// WriteOutputs writes report.json and, when there are notifications, digest.txt into dir. A digest left by an
// earlier run is removed when this run has nothing to say
func WriteOutputs(dir string, result RunResult) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return errors.Wrapf(err, "creating output directory %s", dir)
	}

	report := ReportFile{
		RunID:   result.RunID,
		RunDate: result.RunDate,
		Groups:  result.Groups(),
		Omitted: result.Omitted,
	}
	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return errors.Wrap(err, "encoding report")
	}
	if err := os.WriteFile(filepath.Join(dir, ReportFileName), data, 0o644); err != nil {
		return errors.Wrap(err, "writing report")
	}

	digestPath := filepath.Join(dir, DigestFileName)
	digest := result.Digest()
	if digest == "" {
		if err := os.Remove(digestPath); err != nil && !errors.Is(err, os.ErrNotExist) {
			return errors.Wrap(err, "removing old digest")
		}
		return nil
	}
	if err := os.WriteFile(digestPath, []byte(digest), 0o644); err != nil {
		return errors.Wrap(err, "writing digest")
	}
	return nil
}
