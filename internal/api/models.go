package api

import "github.com/cezamee/netcore/internal/sysfs"

// InterfaceView is the JSON shape returned for one interface: its
// sysfs attributes plus live counters.
type InterfaceView struct {
	sysfs.Attributes
	Stats sysfs.Counters `json:"stats"`
}

// SocketView is the JSON shape returned for one live socket.
type SocketView struct {
	Fd        int    `json:"fd"`
	Type      string `json:"type"`
	Protocol  string `json:"protocol"`
	Listen    bool   `json:"listen"`
	Connected bool   `json:"connected"`
	LocalPort uint16 `json:"local_port"`
}

// OpenSocketRequest is the POST /sockets request body.
type OpenSocketRequest struct {
	Type     string `json:"type" binding:"required"`
	Protocol string `json:"protocol" binding:"required"`
}

// OpenSocketResponse is the POST /sockets response body.
type OpenSocketResponse struct {
	Fd int `json:"fd"`
}

// ErrorResponse is the uniform error body every handler returns on
// failure.
type ErrorResponse struct {
	Error string `json:"error"`
}
