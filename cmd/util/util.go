package util

import (
	"strings"

	"github.com/ValentinKolb/kvsd/rpc/common"
	"github.com/ValentinKolb/kvsd/rpc/transport"
	"github.com/ValentinKolb/kvsd/rpc/transport/tcp"
	"github.com/ValentinKolb/kvsd/rpc/transport/unix"
	"github.com/joho/godotenv"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

const (
	// Wrap is the number of characters to Wrap the help text at
	Wrap int = 50

	// EnvPrefix is the prefix of all environment variables read by kvsd
	EnvPrefix = "kvsd"
)

// WrapString wraps a string at Wrap characters
func WrapString(text string) string {
	var wrappedLines []string
	var currentLine strings.Builder
	lineWidth := 0

	for _, word := range strings.Fields(text) {
		wordWidth := len(word)

		// Check if we need to wrap
		if lineWidth > 0 && lineWidth+1+wordWidth > Wrap {
			wrappedLines = append(wrappedLines, currentLine.String())
			currentLine.Reset()
			lineWidth = 0
		}

		// Add space before word (if not first word on line)
		if lineWidth > 0 {
			currentLine.WriteString(" ")
			lineWidth++
		}

		currentLine.WriteString(word)
		lineWidth += wordWidth
	}

	// Add any remaining text
	if currentLine.Len() > 0 {
		wrappedLines = append(wrappedLines, currentLine.String())
	}

	return strings.Join(wrappedLines, "\n")
}

// SetupProtocolFlags adds the wire protocol flags to a command
func SetupProtocolFlags(cmd *cobra.Command) {
	key := "buffer-size"
	cmd.PersistentFlags().Int(key, 4, WrapString("Initial size of the receive buffer of a connection (in KB). The buffer grows as needed"))

	key = "max-message-length"
	cmd.PersistentFlags().Uint64(key, 4096, WrapString("Largest message length a peer may declare (in KB)"))

	key = "max-payload-length"
	cmd.PersistentFlags().Uint64(key, 1024, WrapString("Largest string or timestamp payload a peer may declare (in KB)"))
}

// SetupSocketFlags adds socket and TCP option flags to a command
func SetupSocketFlags(cmd *cobra.Command) {
	key := "transport-write-buffer"
	cmd.PersistentFlags().Int(key, 0, WrapString("The size of the socket write buffer (in KB, 0 keeps the OS default)"))

	key = "transport-read-buffer"
	cmd.PersistentFlags().Int(key, 0, WrapString("The size of the socket read buffer (in KB, 0 keeps the OS default)"))

	key = "transport-tcp-nodelay"
	cmd.PersistentFlags().Bool(key, true, WrapString("Whether to enable TCP_NODELAY (only for tcp)"))

	key = "transport-tcp-keepalive"
	cmd.PersistentFlags().Int(key, 0, WrapString("The keepalive interval (in seconds, 0 disables, only for tcp)"))

	key = "transport-tcp-linger"
	cmd.PersistentFlags().Int(key, -1, WrapString("The linger time (in seconds, -1 keeps the OS default, only for tcp)"))
}

// SetupRPCClientFlags adds common client connection flags to a command
func SetupRPCClientFlags(cmd *cobra.Command) {
	key := "timeout"
	cmd.PersistentFlags().Int(key, 10, WrapString("The timeout in seconds of the client"))

	key = "endpoint"
	cmd.PersistentFlags().String(key, "localhost:7450", WrapString("The address of the kvsd server (e.g. localhost:7450, /tmp/kvsd.sock)"))

	SetupSocketFlags(cmd)
	SetupProtocolFlags(cmd)
}

// InitConfig loads .env files and initializes viper to read environment variables
func InitConfig() {
	// load env files
	_ = godotenv.Load(".env")
	_ = godotenv.Load(".env.local")

	// initialize viper
	viper.SetEnvPrefix(EnvPrefix)
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv() // read in environment variables that match
}

// BindCommandFlags binds a command's flags to viper
func BindCommandFlags(cmd *cobra.Command) error {
	return viper.BindPFlags(cmd.Flags())
}

// GetProtocolConf reads the protocol configuration from viper
func GetProtocolConf() common.ProtocolConf {
	return common.ProtocolConf{
		BufferSize:       viper.GetInt("buffer-size") * 1024,
		MaxMessageLength: viper.GetUint64("max-message-length") * 1024,
		MaxPayloadLength: viper.GetUint64("max-payload-length") * 1024,
	}
}

// GetSocketConf reads the socket configuration from viper
func GetSocketConf() (common.SocketConf, common.TCPConf) {
	return common.SocketConf{
			WriteBufferSize: viper.GetInt("transport-write-buffer") * 1024,
			ReadBufferSize:  viper.GetInt("transport-read-buffer") * 1024,
		}, common.TCPConf{
			TCPNoDelay:      viper.GetBool("transport-tcp-nodelay"),
			TCPKeepAliveSec: viper.GetInt("transport-tcp-keepalive"),
			TCPLingerSec:    viper.GetInt("transport-tcp-linger"),
		}
}

// GetClientConfig reads client configuration from viper
func GetClientConfig() *common.ClientConfig {
	socketConf, tcpConf := GetSocketConf()
	return &common.ClientConfig{
		TimeoutSecond: viper.GetInt("timeout"),
		Transport: common.ClientTransportConfig{
			Name:       viper.GetString("transport"),
			Endpoint:   viper.GetString("endpoint"),
			SocketConf: socketConf,
			TCPConf:    tcpConf,
		},
		Protocol: GetProtocolConf(),
	}
}

// GetServerConnector creates the server connector for the named transport
func GetServerConnector(name string) (transport.IServerConnector, error) {
	switch name {
	case "tcp":
		return tcp.NewServerConnector(), nil
	case "unix":
		return unix.NewServerConnector(), nil
	default:
		return nil, errors.Errorf("invalid transport %s (expected one of: tcp, unix)", name)
	}
}

// GetClientConnector creates the client connector for the named transport
func GetClientConnector(name string) (transport.IClientConnector, error) {
	switch name {
	case "tcp":
		return tcp.NewClientConnector(), nil
	case "unix":
		return unix.NewClientConnector(), nil
	default:
		return nil, errors.Errorf("invalid transport %s (expected one of: tcp, unix)", name)
	}
}
