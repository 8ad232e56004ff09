package mailer

// EmailJob is one rendered-or-renderable message handed to a Sender.
// When Template is set, Subject/Text/HTML are produced from Data.
type EmailJob struct {
	To       string         `json:"to"`
	Subject  string         `json:"subject,omitempty"`
	Text     string         `json:"text,omitempty"`
	HTML     string         `json:"html,omitempty"`
	Template string         `json:"template,omitempty"` // "payout_processed" or "contract_completed"
	Data     map[string]any `json:"data,omitempty"`
}

// EnsureRecipient copies To into the template data when the caller left it out.
func EnsureRecipient(job *EmailJob) {
	if job.Data == nil {
		job.Data = map[string]any{}
	}
	if v, ok := job.Data["RecipientEmail"].(string); !ok || v == "" {
		job.Data["RecipientEmail"] = job.To
	}
}
