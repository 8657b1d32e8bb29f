package corpus

import "testing"

func TestTitle_FirstHeading(t *testing.T) {
	input := `# Password Reset

To reset your password, open Settings.

## Troubleshooting

Contact support.
`
	title, err := Title([]byte(input))
	if err != nil {
		t.Fatalf("Title failed: %v", err)
	}
	if title != "Password Reset" {
		t.Errorf("expected %q, got %q", "Password Reset", title)
	}
}

// A document that opens with a second-level heading still has a title.
func TestTitle_NoTopLevelHeading(t *testing.T) {
	input := "Intro paragraph.\n\n## Billing FAQ\n\nAnswers.\n"

	title, err := Title([]byte(input))
	if err != nil {
		t.Fatalf("Title failed: %v", err)
	}
	if title != "Billing FAQ" {
		t.Errorf("expected %q, got %q", "Billing FAQ", title)
	}
}

func TestTitle_NoHeadings(t *testing.T) {
	title, err := Title([]byte("just text, no headings"))
	if err != nil {
		t.Fatalf("Title failed: %v", err)
	}
	if title != "" {
		t.Errorf("expected empty title, got %q", title)
	}
}

func TestTitleOrStem(t *testing.T) {
	tests := []struct {
		name    string
		content string
		path    string
		want    string
	}{
		{"heading wins", "# Shipping\n\nbody", "guides/ship.md", "Shipping"},
		{"stem fallback", "plain text", "guides/returns-policy.txt", "returns-policy"},
		{"empty document", "", "a/b/empty.md", "empty"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := titleOrStem([]byte(tt.content), tt.path); got != tt.want {
				t.Errorf("titleOrStem() = %q, want %q", got, tt.want)
			}
		})
	}
}
