package common

import (
	"fmt"
	"strings"
	"time"

	"github.com/ValentinKolb/kvsd/protocol/connection"
	"github.com/ValentinKolb/kvsd/protocol/message"
)

// --------------------------------------------------------------------------
// Shared configuration structs
// --------------------------------------------------------------------------

// ProtocolConf configures the wire protocol connection
type ProtocolConf struct {
	// BufferSize is the initial receive buffer size in bytes
	BufferSize int
	// MaxMessageLength bounds the declared length of one message
	MaxMessageLength uint64
	// MaxPayloadLength bounds a single string or timestamp payload
	MaxPayloadLength uint64
}

// Limits converts the configuration to message.Limits
func (c ProtocolConf) Limits() message.Limits {
	return message.Limits{
		MaxMessageLength: c.MaxMessageLength,
		MaxPayloadLength: c.MaxPayloadLength,
	}
}

// BufferSizeOrDefault returns BufferSize or connection.DefaultBufferSize if unset
func (c ProtocolConf) BufferSizeOrDefault() int {
	if c.BufferSize <= 0 {
		return connection.DefaultBufferSize
	}
	return c.BufferSize
}

// SocketConf holds socket level buffer sizes (0 keeps the OS default)
type SocketConf struct {
	WriteBufferSize int
	ReadBufferSize  int
}

// TCPConf holds TCP specific socket options
type TCPConf struct {
	TCPNoDelay      bool
	TCPKeepAliveSec int
	TCPLingerSec    int
}

// --------------------------------------------------------------------------
// Server configuration struct
// --------------------------------------------------------------------------

// ServerTransportConfig holds the listener configuration
type ServerTransportConfig struct {
	// Name of the connector, one of tcp, unix
	Name string
	// Endpoint is the listen address or socket path
	Endpoint string
	SocketConf
	TCPConf
}

// ServerConfig holds all configuration parameters for the protocol server
type ServerConfig struct {
	Transport ServerTransportConfig
	Protocol  ProtocolConf

	// ReadTimeoutSecond closes connections that stay silent for this long (0 disables)
	ReadTimeoutSecond int64
	// WriteTimeoutSecond bounds writing one reply (0 disables)
	WriteTimeoutSecond int64

	// MetricsEndpoint serves prometheus metrics if set (e.g. localhost:9090)
	MetricsEndpoint string

	// Logging configuration
	LogLevel string
	LogFile  string
}

// String returns a formatted string representation of the configuration
func (c *ServerConfig) String() string {
	var sb strings.Builder

	// Create helper functions for consistent formatting
	addSection := func(title string) {
		sb.WriteString("\n")
		sb.WriteString(fmt.Sprintf("%s\n", strings.ToUpper(title)))
	}

	addField := func(name, value string) {
		sb.WriteString(fmt.Sprintf("  %-22s: %s\n", name, value))
	}

	addSection("Server")
	addField("Transport", c.Transport.Name)
	addField("Endpoint", c.Transport.Endpoint)
	addField("Read Timeout", fmt.Sprintf("%d sec", c.ReadTimeoutSecond))
	addField("Write Timeout", fmt.Sprintf("%d sec", c.WriteTimeoutSecond))

	addSection("Protocol")
	addField("Buffer Size", fmt.Sprintf("%d bytes", c.Protocol.BufferSizeOrDefault()))
	addField("Max Message Length", formatLimit(c.Protocol.MaxMessageLength))
	addField("Max Payload Length", formatLimit(c.Protocol.MaxPayloadLength))

	if c.Transport.Name == "tcp" {
		addSection("TCP")
		addField("No Delay", fmt.Sprintf("%t", c.Transport.TCPNoDelay))
		addField("Keep Alive", fmt.Sprintf("%d sec", c.Transport.TCPKeepAliveSec))
		addField("Linger", fmt.Sprintf("%d sec", c.Transport.TCPLingerSec))
	}

	addSection("Observability")
	addField("Log Level", c.LogLevel)
	if c.LogFile != "" {
		addField("Log File", c.LogFile)
	}
	if c.MetricsEndpoint != "" {
		addField("Metrics Endpoint", c.MetricsEndpoint)
	}

	return sb.String()
}

// --------------------------------------------------------------------------
// Client configuration struct
// --------------------------------------------------------------------------

// ClientTransportConfig holds the dial configuration
type ClientTransportConfig struct {
	// Name of the connector, one of tcp, unix
	Name     string
	Endpoint string
	SocketConf
	TCPConf
}

// ClientConfig holds the client configuration
type ClientConfig struct {
	TimeoutSecond int
	Transport     ClientTransportConfig
	Protocol      ProtocolConf
}

// Timeout returns TimeoutSecond as a duration (0 disables timeouts)
func (c ClientConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSecond) * time.Second
}

// String returns a formatted string representation of the client configuration
func (c *ClientConfig) String() string {
	var sb strings.Builder

	addSection := func(title string) {
		sb.WriteString("\n")
		sb.WriteString(fmt.Sprintf("%s\n", strings.ToUpper(title)))
	}

	addField := func(name, value string) {
		sb.WriteString(fmt.Sprintf("  %-22s: %s\n", name, value))
	}

	addSection("Client Configuration")
	addField("Timeout", fmt.Sprintf("%d sec", c.TimeoutSecond))
	addField("Transport", c.Transport.Name)
	addField("Endpoint", c.Transport.Endpoint)
	addField("Buffer Size", fmt.Sprintf("%d bytes", c.Protocol.BufferSizeOrDefault()))

	return sb.String()
}

func formatLimit(v uint64) string {
	if v == 0 {
		return "default"
	}
	return fmt.Sprintf("%d bytes", v)
}
