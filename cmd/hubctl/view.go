package main

import (
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/ashureev/notifyhub/internal/domain"
	"github.com/ashureev/notifyhub/internal/feed"
)

type palette struct {
	header  lipgloss.Style
	muted   lipgloss.Style
	subject lipgloss.Style
	tiers   map[domain.Priority]lipgloss.Style
	toasts  map[domain.Severity]lipgloss.Style
}

func newPalette(noColor bool) palette {
	color := func(s lipgloss.Style, c string) lipgloss.Style {
		if noColor {
			return s
		}
		return s.Foreground(lipgloss.Color(c))
	}
	return palette{
		header:  color(lipgloss.NewStyle().Bold(true), "39").PaddingBottom(1),
		muted:   color(lipgloss.NewStyle(), "241"),
		subject: lipgloss.NewStyle().Bold(true),
		tiers: map[domain.Priority]lipgloss.Style{
			domain.PriorityHigh:   color(lipgloss.NewStyle().Bold(true), "196"),
			domain.PriorityMedium: color(lipgloss.NewStyle().Bold(true), "214"),
			domain.PriorityLow:    color(lipgloss.NewStyle().Bold(true), "70"),
		},
		toasts: map[domain.Severity]lipgloss.Style{
			domain.SeverityInfo:    color(lipgloss.NewStyle(), "39"),
			domain.SeveritySuccess: color(lipgloss.NewStyle(), "70"),
			domain.SeverityWarning: color(lipgloss.NewStyle(), "214"),
			domain.SeverityError:   color(lipgloss.NewStyle().Bold(true), "196"),
		},
	}
}

var tierTitles = map[domain.Priority]string{
	domain.PriorityHigh:   "High priority",
	domain.PriorityMedium: "Medium priority",
	domain.PriorityLow:    "Low priority",
}

// terminalView renders the hub to a terminal. It is the View, the
// Navigator and a toast sink for cmd/hubctl.
type terminalView struct {
	mu      sync.Mutex
	out     io.Writer
	status  io.Writer
	styles  palette
	now     func() time.Time
	loading bool
}

func newTerminalView(out, status io.Writer, noColor bool) *terminalView {
	return &terminalView{out: out, status: status, styles: newPalette(noColor), now: time.Now}
}

func (v *terminalView) printf(format string, args ...any) {
	v.mu.Lock()
	defer v.mu.Unlock()
	fmt.Fprintf(v.out, format, args...)
}

func (v *terminalView) ShowLanding() {
	v.printf("%s\n", v.styles.muted.Render("Not logged in. Run `hubctl login -email <email> -password <password>`."))
}

func (v *terminalView) ShowLogin(prefillEmail string) {
	v.printf("%s\n", v.styles.muted.Render(fmt.Sprintf("Log in with `hubctl login -email %s -password <password>`.", prefillEmail)))
}

func (v *terminalView) ShowDashboard(user domain.User) {
	v.printf("%s\n", v.styles.header.Render(fmt.Sprintf("Signed in as %s <%s>", user.Username, user.Email)))
}

func (v *terminalView) RenderFeed(snap domain.FeedSnapshot) {
	var b strings.Builder
	if snap.Source == domain.SourceDemo {
		b.WriteString(v.styles.muted.Render("Showing demo messages"))
		b.WriteString("\n")
	}
	fmt.Fprintf(&b, "%d messages: %d high, %d medium, %d low\n",
		snap.Counts.Total, snap.Counts.High, snap.Counts.Medium, snap.Counts.Low)
	if snap.Empty() {
		b.WriteString(v.styles.muted.Render("No messages."))
		b.WriteString("\n")
	}

	now := v.now()
	for _, p := range domain.Priorities {
		msgs := snap.Tier(p)
		if len(msgs) == 0 {
			continue
		}
		b.WriteString("\n")
		b.WriteString(v.styles.tiers[p].Render(fmt.Sprintf("%s (%d)", tierTitles[p], len(msgs))))
		b.WriteString("\n")
		for _, m := range msgs {
			fmt.Fprintf(&b, "  %s  %s  %s\n", m.Sender, v.styles.subject.Render(m.Subject), v.styles.muted.Render(feed.FormatAge(now, m.Timestamp)))
			if m.Body != "" {
				fmt.Fprintf(&b, "    %s\n", v.styles.muted.Render(m.Body))
			}
		}
	}
	v.printf("%s", b.String())
}

func (v *terminalView) SetLoading(loading bool) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if loading && !v.loading && v.status != nil {
		fmt.Fprintln(v.status, v.styles.muted.Render("Loading..."))
	}
	v.loading = loading
}

// Notify prints a toast as it arrives.
func (v *terminalView) Notify(severity domain.Severity, message string) {
	label := strings.ToUpper(string(severity))
	v.printf("%s %s\n", v.styles.toasts[severity].Render("["+label+"]"), message)
}

// Replace reports the landing URL after callback parameters are stripped.
func (v *terminalView) Replace(cleanURL string) {
	v.printf("%s\n", v.styles.muted.Render("Location: "+cleanURL))
}

// Navigate asks the user to open the authorization page.
func (v *terminalView) Navigate(target string) {
	v.printf("Open this URL in your browser to authorize Gmail access:\n  %s\n", target)
}
