package serve

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	cmdUtil "github.com/ValentinKolb/kvsd/cmd/util"
	"github.com/ValentinKolb/kvsd/rpc/common"
	"github.com/ValentinKolb/kvsd/rpc/server"
	"github.com/VictoriaMetrics/metrics"
	"github.com/lni/dragonboat/v4/logger"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var Logger = logger.GetLogger("rpc")

const shutdownTimeout = 10 * time.Second

var (
	serveCmdConfig = &common.ServerConfig{}
	ServeCmd       = &cobra.Command{
		Use:     "serve",
		Short:   "Start the kvsd server",
		Long:    `Start the kvsd protocol server with the specified configuration. The configuration can be set via command line flags or environment variables. The format of the environment variables is KVSD_<flag> (e.g. KVSD_READ_TIMEOUT=30)`,
		PreRunE: processConfig,
		RunE:    run,
	}
)

func init() {
	// initialize viper
	cobra.OnInitialize(cmdUtil.InitConfig)

	// add flags
	key := "endpoint"
	ServeCmd.PersistentFlags().String(key, "0.0.0.0:7450", cmdUtil.WrapString("The address on which the server will listen (e.g. 0.0.0.0:7450, /tmp/kvsd.sock, ...)"))

	key = "read-timeout"
	ServeCmd.PersistentFlags().Int64(key, 0, cmdUtil.WrapString("Close connections that send nothing for this many seconds (0 disables)"))

	key = "write-timeout"
	ServeCmd.PersistentFlags().Int64(key, 5, cmdUtil.WrapString("Maximum time in seconds to write one reply (0 disables)"))

	key = "metrics-endpoint"
	ServeCmd.PersistentFlags().String(key, "", cmdUtil.WrapString("If set, serve prometheus metrics on this address under /metrics (e.g. localhost:9090)"))

	key = "log-file"
	ServeCmd.PersistentFlags().String(key, "", cmdUtil.WrapString("Write logs to this file instead of stdout. The file is rotated at 100 MB"))

	cmdUtil.SetupSocketFlags(ServeCmd)
	cmdUtil.SetupProtocolFlags(ServeCmd)
}

// processConfig reads the configuration from the command line flags and environment variables and converts them to the server configuration
func processConfig(cmd *cobra.Command, _ []string) error {
	// bind the flags to viper
	if err := cmdUtil.BindCommandFlags(cmd); err != nil {
		return err
	}

	socketConf, tcpConf := cmdUtil.GetSocketConf()
	serveCmdConfig.Transport = common.ServerTransportConfig{
		Name:       viper.GetString("transport"),
		Endpoint:   viper.GetString("endpoint"),
		SocketConf: socketConf,
		TCPConf:    tcpConf,
	}
	serveCmdConfig.Protocol = cmdUtil.GetProtocolConf()
	serveCmdConfig.ReadTimeoutSecond = viper.GetInt64("read-timeout")
	serveCmdConfig.WriteTimeoutSecond = viper.GetInt64("write-timeout")
	serveCmdConfig.MetricsEndpoint = viper.GetString("metrics-endpoint")
	serveCmdConfig.LogLevel = viper.GetString("log-level")
	serveCmdConfig.LogFile = viper.GetString("log-file")

	if serveCmdConfig.ReadTimeoutSecond < 0 || serveCmdConfig.WriteTimeoutSecond < 0 {
		return errors.New("timeouts must not be negative")
	}

	return common.InitLoggers(serveCmdConfig.LogLevel, serveCmdConfig.LogFile)
}

// run starts the kvsd server and blocks until it is interrupted
func run(_ *cobra.Command, _ []string) error {
	connector, err := cmdUtil.GetServerConnector(serveCmdConfig.Transport.Name)
	if err != nil {
		return err
	}

	Logger.Infof("Created RPC Server")
	Logger.Infof("%s", serveCmdConfig.String())

	serv := server.NewRPCServer(
		*serveCmdConfig,
		connector,
		server.NewDefaultHandler(),
	)
	if err := serv.Listen(); err != nil {
		return err
	}

	if serveCmdConfig.MetricsEndpoint != "" {
		go serveMetrics(serveCmdConfig.MetricsEndpoint)
	}

	// stop on SIGINT / SIGTERM
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	served := make(chan error, 1)
	go func() { served <- serv.Serve() }()

	select {
	case err := <-served:
		return err
	case <-ctx.Done():
		Logger.Infof("shutting down")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := serv.Shutdown(shutdownCtx); err != nil {
		return errors.Wrap(err, "shutdown")
	}
	if err := <-served; !errors.Is(err, server.ErrServerClosed) {
		return err
	}
	return nil
}

// serveMetrics exposes all registered metrics in prometheus text format
func serveMetrics(endpoint string) {
	mux := http.NewServeMux()
	mux.HandleFunc("/metrics", func(w http.ResponseWriter, _ *http.Request) {
		metrics.WritePrometheus(w, true)
	})

	Logger.Infof("Serving metrics on http://%s/metrics", endpoint)
	if err := http.ListenAndServe(endpoint, mux); err != nil {
		Logger.Errorf("metrics endpoint failed: %v", err)
	}
}
