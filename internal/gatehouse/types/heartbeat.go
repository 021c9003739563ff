package types

type HeartbeatRequest struct {
	TerminalID      string `json:"terminal_id"`
	FirmwareVersion string `json:"firmware_version,omitempty"`
	UptimeSeconds   uint64 `json:"uptime_s,omitempty"`
	ScannerOK       *bool  `json:"scanner_ok,omitempty"` // false = camera/scanner fault reported
	RSSIDbm         *int   `json:"rssi_dbm,omitempty"`
	IP              string `json:"ip,omitempty"`
}

type HeartbeatResponse struct {
	OK         bool   `json:"ok"`
	Known      bool   `json:"known"`
	TerminalID string `json:"terminal_id"`
	ServerTime string `json:"server_time"`
}
