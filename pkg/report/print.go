package report

import (
	"fmt"
	"io"
	"strconv"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"vpn-speedtest/pkg/models"
)

var (
	titleStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
	dimStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
)

func number(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// Print renders a summary table of r: the baseline first, then each location.
func Print(w io.Writer, r models.RunReport) error {
	t := table.New().
		Border(lipgloss.NormalBorder()).
		Headers("Location", "Connect (s)", "Download (Mbps)", "Upload (Mbps)", "Ping (ms)")

	t.Row("Without VPN", "-", number(r.WithoutVPN.DownloadMbps), number(r.WithoutVPN.UploadMbps), number(r.WithoutVPN.PingMs))
	for _, loc := range r.VPNStats {
		t.Row(loc.LocationName,
			strconv.FormatFloat(loc.ConnectDurationSeconds, 'f', 2, 64),
			number(loc.Speed.DownloadMbps),
			number(loc.Speed.UploadMbps),
			number(loc.Speed.PingMs))
	}

	_, err := fmt.Fprintf(w, "%s\n%s\n%s\n",
		titleStyle.Render(fmt.Sprintf("%s (%s)", r.MachineName, r.OS)),
		dimStyle.Render("run "+r.RunID),
		t.String())
	return err
}
