package api

import (
	"net/http"
	"strconv"

	"github.com/cezamee/netcore/internal/core"
	"github.com/cezamee/netcore/internal/sched"
	"github.com/cezamee/netcore/internal/sysfs"
	"github.com/gin-gonic/gin"
)

// apiPID is the synthetic process id every socket opened through this
// read/control surface is registered under, so the dispatcher treats
// them as belonging to a live (Running) process (§4.F).
const apiPID = 0

type handlers struct {
	sub *core.Subsystem
}

func newHandlers(sub *core.Subsystem) *handlers {
	sub.Table.EnsureProcess(apiPID, sched.Running)
	return &handlers{sub: sub}
}

// ListInterfaces godoc
// @Summary List interfaces
// @Description Returns every registered interface's attributes and counters
// @Tags interfaces
// @Produce json
// @Success 200 {array} InterfaceView
// @Router /interfaces [get]
func (h *handlers) ListInterfaces(c *gin.Context) {
	n := h.sub.Registry.NumberOfInterfaces()
	out := make([]InterfaceView, 0, n)
	for i := 0; i < n; i++ {
		ifc := h.sub.Registry.Interface(i)
		out = append(out, InterfaceView{
			Attributes: sysfs.Publish(ifc),
			Stats:      sysfs.PublishStats(ifc),
		})
	}
	c.JSON(http.StatusOK, out)
}

// GetInterface godoc
// @Summary Get one interface
// @Tags interfaces
// @Produce json
// @Param name path string true "interface name"
// @Success 200 {object} InterfaceView
// @Failure 404 {object} ErrorResponse
// @Router /interfaces/{name} [get]
func (h *handlers) GetInterface(c *gin.Context) {
	ifc := h.sub.Registry.ByName(c.Param("name"))
	if ifc == nil {
		c.JSON(http.StatusNotFound, ErrorResponse{Error: "interface not found"})
		return
	}
	c.JSON(http.StatusOK, InterfaceView{
		Attributes: sysfs.Publish(ifc),
		Stats:      sysfs.PublishStats(ifc),
	})
}

// ListSockets godoc
// @Summary List live sockets
// @Tags sockets
// @Produce json
// @Success 200 {array} SocketView
// @Router /sockets [get]
func (h *handlers) ListSockets(c *gin.Context) {
	socks := h.sub.Table.LiveSockets()
	out := make([]SocketView, 0, len(socks))
	for _, s := range socks {
		out = append(out, toSocketView(s))
	}
	c.JSON(http.StatusOK, out)
}

// OpenSocket godoc
// @Summary Open a socket
// @Tags sockets
// @Accept json
// @Produce json
// @Param body body OpenSocketRequest true "socket parameters"
// @Success 200 {object} OpenSocketResponse
// @Failure 400 {object} ErrorResponse
// @Router /sockets [post]
func (h *handlers) OpenSocket(c *gin.Context) {
	var req OpenSocketRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
		return
	}
	typ, ok := parseType(req.Type)
	if !ok {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid type"})
		return
	}
	proto, ok := parseProtocol(req.Protocol)
	if !ok {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid protocol"})
		return
	}
	fd, err := h.sub.Open(apiPID, sched.AFInet, typ, proto)
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
		return
	}
	c.JSON(http.StatusOK, OpenSocketResponse{Fd: int(fd)})
}

// CloseSocket godoc
// @Summary Close a socket
// @Tags sockets
// @Param fd path int true "socket fd"
// @Success 204
// @Router /sockets/{fd} [delete]
func (h *handlers) CloseSocket(c *gin.Context) {
	fd, err := strconv.Atoi(c.Param("fd"))
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid fd"})
		return
	}
	h.sub.Close(sched.Fd(fd))
	c.Status(http.StatusNoContent)
}

func toSocketView(s *sched.Socket) SocketView {
	return SocketView{
		Fd:        int(s.Fd),
		Type:      typeString(s.Type),
		Protocol:  protocolString(s.Protocol),
		Listen:    s.Listen,
		Connected: s.Connected,
		LocalPort: s.LocalPort,
	}
}

func parseType(s string) (sched.Type, bool) {
	switch s {
	case "RAW":
		return sched.RAW, true
	case "DGRAM":
		return sched.DGRAM, true
	case "STREAM":
		return sched.STREAM, true
	default:
		return 0, false
	}
}

func typeString(t sched.Type) string {
	switch t {
	case sched.RAW:
		return "RAW"
	case sched.DGRAM:
		return "DGRAM"
	case sched.STREAM:
		return "STREAM"
	default:
		return "UNKNOWN"
	}
}

func parseProtocol(s string) (sched.Protocol, bool) {
	switch s {
	case "ICMP":
		return sched.ICMP, true
	case "DNS":
		return sched.DNS, true
	case "TCP":
		return sched.TCP, true
	default:
		return 0, false
	}
}

func protocolString(p sched.Protocol) string {
	switch p {
	case sched.ICMP:
		return "ICMP"
	case sched.DNS:
		return "DNS"
	case sched.TCP:
		return "TCP"
	default:
		return "UNKNOWN"
	}
}
