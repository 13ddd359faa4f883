package driver

// Status codes reported by drivers for each status axis
const (
	StatusTrue    = "TRUE"
	StatusFalse   = "FALSE"
	StatusUnknown = "UNKNOWN"
)

// StatusField carries one axis of the printer status
type StatusField struct {
	StatusCode string `json:"statusCode"`
}

// True reports whether the field carries the true sentinel
func (f StatusField) True() bool {
	return f.StatusCode == StatusTrue
}

// StatusResponse is the two-axis status a printer reports
type StatusResponse struct {
	Connection StatusField `json:"connection"`
	Online     StatusField `json:"online"`
}

// NewStatus builds a status from two booleans
func NewStatus(connected, online bool) StatusResponse {
	return StatusResponse{
		Connection: StatusField{StatusCode: code(connected)},
		Online:     StatusField{StatusCode: code(online)},
	}
}

// UnknownStatus is reported before a printer has been observed
func UnknownStatus() StatusResponse {
	return StatusResponse{
		Connection: StatusField{StatusCode: StatusUnknown},
		Online:     StatusField{StatusCode: StatusUnknown},
	}
}

func code(b bool) string {
	if b {
		return StatusTrue
	}
	return StatusFalse
}

// IsConnected reports whether the connection axis is true
func (s StatusResponse) IsConnected() bool {
	return s.Connection.True()
}

// IsOnline reports whether the online axis is true
func (s StatusResponse) IsOnline() bool {
	return s.Online.True()
}

// Ready reports whether the printer is both connected and online
func (s StatusResponse) Ready() bool {
	return s.IsConnected() && s.IsOnline()
}
