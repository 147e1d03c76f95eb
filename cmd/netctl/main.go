// Command netctl is a read-only operator TUI for a running netcored: it
// polls the REST API and renders interfaces and live sockets.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"net/http"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#4FC1FF"))
	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#569CD6"))
	okStyle = lipgloss.NewStyle().
		Foreground(lipgloss.Color("#6A9955"))
	downStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#F44747"))
	dimStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#808080"))
)

type interfaceView struct {
	Name    string `json:"name"`
	Driver  string `json:"driver"`
	Enabled bool   `json:"enabled"`
	IP      string `json:"ip"`
	Gateway string `json:"gateway"`
	Stats   struct {
		RXPacket uint64 `json:"rx_packet"`
		TXPacket uint64 `json:"tx_packet"`
	} `json:"stats"`
}

type socketView struct {
	Fd        int    `json:"fd"`
	Type      string `json:"type"`
	Protocol  string `json:"protocol"`
	Listen    bool   `json:"listen"`
	Connected bool   `json:"connected"`
	LocalPort uint16 `json:"local_port"`
}

type snapshot struct {
	interfaces []interfaceView
	sockets    []socketView
	err        error
}

type model struct {
	addr string
	snap snapshot
}

type tickMsg time.Time

func poll(addr string) tea.Cmd {
	return func() tea.Msg {
		var s snapshot
		s.interfaces, s.sockets, s.err = fetch(addr)
		return s
	}
}

func tick() tea.Cmd {
	return tea.Tick(time.Second, func(t time.Time) tea.Msg { return tickMsg(t) })
}

func fetch(addr string) ([]interfaceView, []socketView, error) {
	client := http.Client{Timeout: 2 * time.Second}

	var ifaces []interfaceView
	resp, err := client.Get("http://" + addr + "/api/v1/interfaces")
	if err != nil {
		return nil, nil, err
	}
	defer resp.Body.Close()
	if err := json.NewDecoder(resp.Body).Decode(&ifaces); err != nil {
		return nil, nil, err
	}

	var socks []socketView
	resp2, err := client.Get("http://" + addr + "/api/v1/sockets")
	if err != nil {
		return ifaces, nil, err
	}
	defer resp2.Body.Close()
	if err := json.NewDecoder(resp2.Body).Decode(&socks); err != nil {
		return ifaces, nil, err
	}
	return ifaces, socks, nil
}

func (m model) Init() tea.Cmd {
	return tea.Batch(poll(m.addr), tick())
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "q":
			return m, tea.Quit
		}
	case tickMsg:
		return m, tea.Batch(poll(m.addr), tick())
	case snapshot:
		m.snap = msg
	}
	return m, nil
}

func (m model) View() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("netctl") + dimStyle.Render("  "+m.addr+"  (q to quit)") + "\n\n")

	if m.snap.err != nil {
		b.WriteString(downStyle.Render("error: "+m.snap.err.Error()) + "\n")
		return b.String()
	}

	b.WriteString(headerStyle.Render(fmt.Sprintf("%-8s %-8s %-7s %-15s %-15s %8s %8s", "NAME", "DRIVER", "UP", "IP", "GATEWAY", "RX", "TX")) + "\n")
	for _, i := range m.snap.interfaces {
		state := downStyle.Render("down")
		if i.Enabled {
			state = okStyle.Render("up")
		}
		b.WriteString(fmt.Sprintf("%-8s %-8s %-16s %-15s %-15s %8d %8d\n",
			i.Name, i.Driver, state, i.IP, i.Gateway, i.Stats.RXPacket, i.Stats.TXPacket))
	}

	b.WriteString("\n" + headerStyle.Render(fmt.Sprintf("%-5s %-7s %-8s %-8s %-10s %-6s", "FD", "TYPE", "PROTO", "LISTEN", "CONNECTED", "PORT")) + "\n")
	for _, s := range m.snap.sockets {
		b.WriteString(fmt.Sprintf("%-5d %-7s %-8s %-8v %-10v %-6d\n",
			s.Fd, s.Type, s.Protocol, s.Listen, s.Connected, s.LocalPort))
	}

	return b.String()
}

func main() {
	addr := flag.String("addr", "127.0.0.1:8088", "netcored REST API address")
	flag.Parse()

	p := tea.NewProgram(model{addr: *addr})
	if _, err := p.Run(); err != nil {
		fmt.Println("netctl:", err)
	}
}
