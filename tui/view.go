package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
)

// Color palette - modern, readable
var (
	colorPrimary   = lipgloss.Color("#7C3AED") // Violet
	colorSecondary = lipgloss.Color("#06B6D4") // Cyan
	colorSuccess   = lipgloss.Color("#10B981") // Emerald
	colorError     = lipgloss.Color("#EF4444") // Red
	colorWarning   = lipgloss.Color("#F59E0B") // Amber
	colorMuted     = lipgloss.Color("#6B7280") // Gray
	colorText      = lipgloss.Color("#F9FAFB") // White
	colorTextDim   = lipgloss.Color("#9CA3AF") // Light gray
	colorBorder    = lipgloss.Color("#374151") // Dark gray
)

var (
	// Title bar
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(colorText).
			Background(colorPrimary).
			Padding(0, 2).
			MarginBottom(1)

	// Section headers
	sectionHeaderStyle = lipgloss.NewStyle().
				Foreground(colorSecondary).
				Bold(true).
				MarginTop(1)

	// Main stats box
	statsBoxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(colorBorder).
			Padding(1, 2).
			MarginTop(1)

	// Individual stat styles
	statLabelStyle = lipgloss.NewStyle().
			Foreground(colorMuted).
			Width(12)

	statValueStyle = lipgloss.NewStyle().
			Foreground(colorText).
			Bold(true)

	// File path styles
	fileBoxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(colorBorder).
			Padding(0, 2).
			MarginTop(1)

	fileLabelStyle = lipgloss.NewStyle().
			Foreground(colorMuted).
			Width(8)

	filePathStyle = lipgloss.NewStyle().
			Foreground(colorTextDim)

	// Status styles
	successStyle = lipgloss.NewStyle().
			Foreground(colorSuccess).
			Bold(true)

	errorStyle = lipgloss.NewStyle().
			Foreground(colorError).
			Bold(true)

	warningStyle = lipgloss.NewStyle().
			Foreground(colorWarning).
			Bold(true)

	// Help text
	helpStyle = lipgloss.NewStyle().
			Foreground(colorMuted).
			MarginTop(1)

	// Log viewport
	logBoxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(colorBorder).
			Padding(0, 1).
			MarginTop(1)

	// Percentage styles based on progress
	percentLowStyle = lipgloss.NewStyle().
			Foreground(colorWarning).
			Bold(true)

	percentMidStyle = lipgloss.NewStyle().
			Foreground(colorSecondary).
			Bold(true)

	percentHighStyle = lipgloss.NewStyle().
				Foreground(colorSuccess).
				Bold(true)
)

// getPercentageStyle returns appropriate style based on progress
func getPercentageStyle(pct float64) lipgloss.Style {
	if pct < 0.33 {
		return percentLowStyle
	} else if pct < 0.66 {
		return percentMidStyle
	}
	return percentHighStyle
}

// formatPass names the current pass for the stats grid
func formatPass(pass int) string {
	switch pass {
	case 1:
		return "1 / 2"
	case 2:
		return "2 / 2"
	default:
		return "single"
	}
}

// formatPreviewAge describes how fresh the preview frame is
func formatPreviewAge(at time.Time, size int64) string {
	if at.IsZero() {
		return "waiting for first frame"
	}
	age := time.Since(at).Round(time.Second)
	return fmt.Sprintf("updated %s ago (%s)", age, formatBytes(size))
}

// View renders the TUI
func (m Model) View() string {
	var b strings.Builder

	title := titleStyle.Render(" ⚡ vidcrush ")
	b.WriteString(title + "\n")

	switch m.State {
	case StateIdle:
		b.WriteString(m.renderIdleView())

	case StateCompressing:
		b.WriteString(m.renderCompressingView())

	case StateDone:
		b.WriteString(m.renderDoneView())

	case StateOversized:
		b.WriteString(m.renderOversizedView())

	case StateError:
		b.WriteString(m.renderErrorView())

	case StateCancelled:
		b.WriteString(m.renderCancelledView())
	}

	help := helpStyle.Render("  [L] Toggle logs  •  [Q] Quit")
	b.WriteString("\n" + help + "\n")

	return b.String()
}

func (m Model) renderIdleView() string {
	return "\n" + statValueStyle.Render("  Starting compression...") + "\n"
}

func (m Model) renderCompressingView() string {
	var b strings.Builder

	prog := m.Current

	b.WriteString("\n")

	pct := prog.Pct
	if pct > 1 {
		pct = 1
	}
	if pct < 0 {
		pct = 0
	}
	if pct == 0 {
		pct = 0.01 // show something is happening before the first sample
	}

	progressBar := m.Progress.ViewAs(pct)
	pctStyled := getPercentageStyle(prog.Pct).Render(fmt.Sprintf("%.1f%%", prog.Pct*100))
	b.WriteString("  " + progressBar + "  " + pctStyled + "\n")

	if m.Cancelling {
		b.WriteString(warningStyle.Render("  Stopping...") + "\n")
	}

	elapsed := time.Since(m.StartTime).Round(time.Second)
	b.WriteString(statsBoxStyle.Render(m.buildStatsGrid(elapsed)))
	b.WriteString("\n")

	b.WriteString(fileBoxStyle.Render(m.buildFilesSection()))

	if m.Job.PreviewPath != "" {
		b.WriteString("\n")
		b.WriteString(fileLabelStyle.Render("Preview") +
			filePathStyle.Render(formatPreviewAge(m.PreviewAt, m.PreviewSize)))
	}

	if m.ShowLogs {
		b.WriteString("\n")
		logHeader := sectionHeaderStyle.Render("  FFmpeg Output")
		b.WriteString(logHeader + "\n")
		b.WriteString(logBoxStyle.Render(m.LogViewport.View()))
	}

	return b.String()
}

func (m Model) buildStatsGrid(elapsed time.Duration) string {
	prog := m.Current

	var resVal, fpsVal string
	if prog.Resolution > 0 {
		resVal = fmt.Sprintf("%dp", prog.Resolution)
	} else {
		resVal = "—"
	}
	if prog.FPS > 0 {
		fpsVal = fmt.Sprintf("%.1f", prog.FPS)
	} else {
		fpsVal = "—"
	}

	line1 := lipgloss.JoinHorizontal(lipgloss.Top,
		statLabelStyle.Render("Resolution"),
		statValueStyle.Render(resVal),
		lipgloss.NewStyle().Width(8).Render(""),
		statLabelStyle.Render("FPS"),
		statValueStyle.Render(fpsVal),
	)

	speedVal := "—"
	if prog.Speed > 0 {
		speedVal = fmt.Sprintf("%.2fx", prog.Speed)
	}
	line2 := lipgloss.JoinHorizontal(lipgloss.Top,
		statLabelStyle.Render("Speed"),
		statValueStyle.Render(speedVal),
		lipgloss.NewStyle().Width(8).Render(""),
		statLabelStyle.Render("Pass"),
		statValueStyle.Render(formatPass(prog.Pass)),
	)

	etaVal := prog.Remaining
	if etaVal == "" {
		etaVal = "—"
	}
	line3 := lipgloss.JoinHorizontal(lipgloss.Top,
		statLabelStyle.Render("ETA"),
		statValueStyle.Render(etaVal),
		lipgloss.NewStyle().Width(8).Render(""),
		statLabelStyle.Render("Elapsed"),
		statValueStyle.Render(formatDuration(elapsed)),
	)

	line4 := lipgloss.JoinHorizontal(lipgloss.Top,
		statLabelStyle.Render("Target"),
		statValueStyle.Render(fmt.Sprintf("%.1f MB", m.Job.TargetMB)),
		lipgloss.NewStyle().Width(8).Render(""),
		statLabelStyle.Render("Codec"),
		statValueStyle.Render(m.Job.Codec),
	)

	return lipgloss.JoinVertical(lipgloss.Left, line1, line2, line3, line4)
}

func (m Model) buildFilesSection() string {
	maxPathLen := m.Width - 16
	if maxPathLen < 20 {
		maxPathLen = 60
	}

	inputDisplay := truncatePath(m.Job.Input, maxPathLen)
	outputDisplay := truncatePath(m.Job.Output, maxPathLen)
	if outputDisplay == "" {
		outputDisplay = "(auto)"
	}

	line1 := fileLabelStyle.Render("Input") + filePathStyle.Render(inputDisplay)
	line2 := fileLabelStyle.Render("Output") + filePathStyle.Render(outputDisplay)

	return line1 + "\n" + line2
}

func truncatePath(path string, maxLen int) string {
	if len(path) <= maxLen {
		return path
	}
	if maxLen < 20 {
		return path[:maxLen-3] + "..."
	}
	half := (maxLen - 5) / 2
	return path[:half] + " ... " + path[len(path)-half:]
}

func (m Model) renderDoneView() string {
	var b strings.Builder

	b.WriteString("\n")
	b.WriteString(successStyle.Render("  ✓ Compression Complete!") + "\n")

	elapsed := time.Since(m.StartTime).Round(time.Second)

	lines := []string{
		statLabelStyle.Render("Output") + filePathStyle.Render(m.Result.Path),
		statLabelStyle.Render("Size") + statValueStyle.Render(fmt.Sprintf("%.2f MB", m.Result.SizeMB)),
		statLabelStyle.Render("Target") + statValueStyle.Render(fmt.Sprintf("%.1f MB", m.Job.TargetMB)),
		statLabelStyle.Render("Time") + statValueStyle.Render(formatDuration(elapsed)),
	}
	b.WriteString(statsBoxStyle.Render(lipgloss.JoinVertical(lipgloss.Left, lines...)))

	return b.String()
}

func (m Model) renderOversizedView() string {
	var b strings.Builder

	b.WriteString("\n")
	b.WriteString(warningStyle.Render("  ⚠ Could Not Reach Target Size") + "\n\n")

	reasonBox := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(colorWarning).
		Padding(0, 2).
		Render(
			statLabelStyle.Render("Best size") +
				statValueStyle.Render(fmt.Sprintf("%.2f MB", m.Result.SizeMB)) + "\n" +
				statLabelStyle.Render("Target") +
				statValueStyle.Render(fmt.Sprintf("%.1f MB", m.Job.TargetMB)) + "\n" +
				statLabelStyle.Render("Output") +
				filePathStyle.Render(m.Result.Path),
		)

	b.WriteString(reasonBox + "\n")
	b.WriteString(filePathStyle.Render("  Every resolution tier produced a file above the target.") + "\n")

	return b.String()
}

func (m Model) renderErrorView() string {
	var b strings.Builder

	b.WriteString("\n")
	b.WriteString(errorStyle.Render("  ✗ Compression Failed") + "\n\n")

	errBox := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(colorError).
		Padding(0, 2).
		Foreground(colorError).
		Render(m.ErrorMessage)

	b.WriteString(errBox + "\n")

	if m.ShowLogs && m.LogViewport.TotalLineCount() > 0 {
		b.WriteString("\n")
		logHeader := sectionHeaderStyle.Render("  FFmpeg Output")
		b.WriteString(logHeader + "\n")
		b.WriteString(logBoxStyle.Render(m.LogViewport.View()))
	}

	return b.String()
}

func (m Model) renderCancelledView() string {
	var b strings.Builder

	b.WriteString("\n")
	b.WriteString(warningStyle.Render("  ⊘ Compression Cancelled") + "\n\n")
	b.WriteString(fileLabelStyle.Render("Input") + filePathStyle.Render(m.Job.Input) + "\n")

	return b.String()
}

func formatBytes(bytes int64) string {
	const unit = 1024
	if bytes < unit {
		return fmt.Sprintf("%d B", bytes)
	}
	div, exp := int64(unit), 0
	for n := bytes / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %ciB", float64(bytes)/float64(div), "KMGTPE"[exp])
}

func formatDuration(d time.Duration) string {
	if d < 0 {
		return "—"
	}
	d = d.Round(time.Second)
	h := d / time.Hour
	d -= h * time.Hour
	m := d / time.Minute
	d -= m * time.Minute
	s := d / time.Second

	if h > 0 {
		return fmt.Sprintf("%d:%02d:%02d", h, m, s)
	}
	return fmt.Sprintf("%d:%02d", m, s)
}
