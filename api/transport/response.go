package transport

// Envelope wraps every gateway response. Success payloads carry Data;
// failures carry a machine-readable Code plus a human-readable Error.
type Envelope struct {
	Status string      `json:"status"`
	Code   string      `json:"code,omitempty"`
	Data   interface{} `json:"data,omitempty"`
	Error  interface{} `json:"error,omitempty"`
	Meta   interface{} `json:"meta,omitempty"`
}

const (
	statusSuccess = "success"
	statusError   = "error"
)

// NewSuccess wraps a payload in a success envelope.
func NewSuccess(data interface{}, meta interface{}) Envelope {
	return Envelope{
		Status: statusSuccess,
		Data:   data,
		Meta:   meta,
	}
}

// NewError wraps a failure in an error envelope. meta carries optional
// diagnostic context (the health endpoint attaches its status report).
func NewError(code string, err interface{}, meta interface{}) Envelope {
	return Envelope{
		Status: statusError,
		Code:   code,
		Error:  err,
		Meta:   meta,
	}
}
