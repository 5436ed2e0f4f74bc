package notifications

import (
	"fmt"
	"strings"
)

// Message is one outbound notification.
type Message struct {
	Recipient string
	Subject   string
	Body      string
	// Tags and Priority are used by push transports and ignored by mail.
	Tags     []string
	Priority string
}

// SubmissionReady builds the success message. When the submission had more
// than one resource the body always carries a manual-attachment section,
// listing the files that were not linked from the record ("none" when every
// file was linked).
func SubmissionReady(recipient, submission, recordName string, resources int, manual []string) Message {
	var body strings.Builder
	fmt.Fprintf(&body, "%s/%s is ready to be uploaded.\n", submission, recordName)
	if resources > 1 {
		body.WriteString("\nThe following files were not attached automatically and must be added by hand:\n")
		if len(manual) == 0 {
			body.WriteString("  (none)\n")
		}
		for _, name := range manual {
			body.WriteString("  - ")
			body.WriteString(name)
			body.WriteByte('\n')
		}
	}
	return Message{
		Recipient: recipient,
		Subject:   fmt.Sprintf("%s is ready for upload", submission),
		Body:      body.String(),
		Tags:      []string{"etdbridge", "submission", "ready"},
	}
}

// SubmissionFailed builds the failure message for a quarantined archive.
func SubmissionFailed(recipient, archivePath, kind, diagnostic string) Message {
	name := archivePath
	if idx := strings.LastIndexAny(archivePath, `/\`); idx >= 0 {
		name = archivePath[idx+1:]
	}
	var body strings.Builder
	fmt.Fprintf(&body, "Processing of %s failed and the archive has been quarantined.\n\n", archivePath)
	if kind != "" {
		fmt.Fprintf(&body, "Failure: %s\n", kind)
	}
	fmt.Fprintf(&body, "Details: %s\n\n", strings.TrimSpace(diagnostic))
	body.WriteString("Fix the cause, then run `etdbridge ledger release <path>` to process it again.\n")
	return Message{
		Recipient: recipient,
		Subject:   fmt.Sprintf("Processing of %s FAILED!", name),
		Body:      body.String(),
		Tags:      []string{"etdbridge", "error", "alert"},
		Priority:  "high",
	}
}

// Test builds a message used to confirm delivery settings.
func Test(recipient string) Message {
	return Message{
		Recipient: recipient,
		Subject:   "etdbridge test notification",
		Body:      "Notification delivery is configured correctly.\n",
		Tags:      []string{"etdbridge", "test"},
		Priority:  "low",
	}
}
