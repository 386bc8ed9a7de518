package summarizer

import (
	"fmt"
	"strings"
	"time"
)

// MarkdownFormatter renders a Summary as a Markdown report.
type MarkdownFormatter struct {
	translate func(string) string
	version   string
}

// MarkdownOption configures a MarkdownFormatter.
type MarkdownOption func(*MarkdownFormatter)

// WithTranslator sets the function used to translate labels.
func WithTranslator(t func(string) string) MarkdownOption {
	return func(f *MarkdownFormatter) {
		f.translate = t
	}
}

// WithVersion adds the program version to the footer.
func WithVersion(v string) MarkdownOption {
	return func(f *MarkdownFormatter) {
		f.version = v
	}
}

// NewMarkdownFormatter creates a MarkdownFormatter.
func NewMarkdownFormatter(opts ...MarkdownOption) *MarkdownFormatter {
	f := &MarkdownFormatter{
		translate: func(s string) string { return s },
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Format implements Formatter.
func (f *MarkdownFormatter) Format(s *Summary) string {
	t := f.translate
	var b strings.Builder

	fmt.Fprintf(&b, "# %s\n\n", t("Long Exposure Summary"))
	fmt.Fprintf(&b, "**%s:** %s\n\n", t("Status"), t(status(s.Run)))

	fmt.Fprintf(&b, "## %s\n\n", t("Source"))
	f.table(&b, [][2]string{
		{t("Path"), s.Source.Path},
		{t("Dimensions"), fmt.Sprintf("%dx%d", s.Source.Width, s.Source.Height)},
		{t("Frame Rate"), s.Source.FrameRate},
		{t("Frames"), fmt.Sprintf("%d", s.Source.FrameCount)},
		{t("Codec"), s.Source.Codec},
	})

	fmt.Fprintf(&b, "## %s\n\n", t("Settings"))
	rows := [][2]string{
		{t("Codec"), s.Settings.Codec},
		{t("FPS"), fmt.Sprintf("%g", s.Settings.FPS)},
	}
	if s.Settings.PixelFormat != "" {
		rows = append(rows, [2]string{t("Pixel Format"), s.Settings.PixelFormat})
	}
	if s.Settings.Probe != "" {
		rows = append(rows, [2]string{t("Probe"), s.Settings.Probe})
	}
	if s.Settings.StrictFrameCount {
		rows = append(rows, [2]string{t("Strict Frame Count"), t("Yes")})
	}
	f.table(&b, rows)

	fmt.Fprintf(&b, "## %s\n\n", t("Run"))
	f.table(&b, [][2]string{
		{t("Frames Written"), fmt.Sprintf("%d / %d", s.Run.FramesWritten, s.Run.TotalFrames)},
		{t("Elapsed"), s.Run.Elapsed.Round(time.Millisecond).String()},
	})
	if s.Run.Error != "" {
		fmt.Fprintf(&b, "```\n%s\n```\n\n", s.Run.Error)
	}

	if s.Output.Path != "" {
		fmt.Fprintf(&b, "## %s\n\n", t("Output"))
		verified := t("N/A")
		if s.Output.VerifiedFrames >= 0 {
			verified = fmt.Sprintf("%d", s.Output.VerifiedFrames)
		}
		f.table(&b, [][2]string{
			{t("Path"), s.Output.Path},
			{t("File Size"), formatBytes(s.Output.FileSize)},
			{t("Frames in Container"), verified},
		})
	}

	footer := fmt.Sprintf("%s %s", t("Generated at"), s.GeneratedAt.Format(time.RFC3339))
	if f.version != "" {
		footer += fmt.Sprintf(" (longexposure %s)", f.version)
	}
	fmt.Fprintf(&b, "---\n\n_%s_\n", footer)
	return b.String()
}

func (f *MarkdownFormatter) table(b *strings.Builder, rows [][2]string) {
	fmt.Fprintf(b, "| %s | %s |\n|---|---|\n", f.translate("Item"), f.translate("Value"))
	for _, r := range rows {
		fmt.Fprintf(b, "| %s | %s |\n", r[0], r[1])
	}
	b.WriteString("\n")
}

func status(r RunInfo) string {
	switch {
	case r.Error != "":
		return "Failed"
	case r.Cancelled:
		return "Cancelled"
	case r.Truncated:
		return "Truncated"
	default:
		return "Completed"
	}
}

func formatBytes(n int64) string {
	const unit = 1024
	if n < unit {
		return fmt.Sprintf("%d B", n)
	}
	div, exp := int64(unit), 0
	for m := n / unit; m >= unit && exp < 2; m /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.2f %cB", float64(n)/float64(div), "KMG"[exp])
}

var _ Formatter = (*MarkdownFormatter)(nil)
