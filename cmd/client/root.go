package client

import (
	"fmt"
	"time"

	cmdUtil "github.com/ValentinKolb/kvsd/cmd/util"
	"github.com/ValentinKolb/kvsd/rpc/client"
	"github.com/ValentinKolb/kvsd/rpc/common"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	PingCmd = &cobra.Command{
		Use:     "ping",
		Short:   "Ping a kvsd server",
		Long:    `Send ping messages to a kvsd server and print the server timestamp and round trip time of every reply. Settings can also be given as environment variables KVSD_<flag> (e.g. KVSD_ENDPOINT=localhost:7450)`,
		PreRunE: processConfig,
		RunE:    runPing,
	}

	AuthCmd = &cobra.Command{
		Use:     "auth <username> <password>",
		Short:   "Send credentials to a kvsd server",
		Long:    `Send an authenticate message with the given credentials. The server does not answer.`,
		Args:    cobra.ExactArgs(2),
		PreRunE: processConfig,
		RunE:    runAuth,
	}
)

func init() {
	cobra.OnInitialize(cmdUtil.InitConfig)

	cmdUtil.SetupRPCClientFlags(PingCmd)
	cmdUtil.SetupRPCClientFlags(AuthCmd)

	key := "count"
	PingCmd.Flags().Int(key, 1, cmdUtil.WrapString("Number of pings to send"))

	key = "interval"
	PingCmd.Flags().Duration(key, time.Second, cmdUtil.WrapString("Pause between two pings"))
}

// processConfig binds the flags and initializes the loggers
func processConfig(cmd *cobra.Command, _ []string) error {
	if err := cmdUtil.BindCommandFlags(cmd); err != nil {
		return err
	}
	return common.InitLoggers(viper.GetString("log-level"), "")
}

// connect creates a client from the configuration in viper
func connect() (*client.RPCClient, error) {
	conf := cmdUtil.GetClientConfig()
	connector, err := cmdUtil.GetClientConnector(conf.Transport.Name)
	if err != nil {
		return nil, err
	}
	return client.NewRPCClient(*conf, connector)
}

func runPing(cmd *cobra.Command, _ []string) error {
	c, err := connect()
	if err != nil {
		return err
	}
	defer c.Close()

	count := viper.GetInt("count")
	interval := viper.GetDuration("interval")

	for i := 0; i < count; i++ {
		if i > 0 {
			time.Sleep(interval)
		}

		reply, rtt, err := c.Ping()
		if err != nil {
			return err
		}

		server := "-"
		if reply.ServerTimestamp != nil {
			server = reply.ServerTimestamp.Format(time.RFC3339Nano)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "reply from %s: server_time=%s rtt=%s\n", viper.GetString("endpoint"), server, rtt)
	}
	return nil
}

func runAuth(cmd *cobra.Command, args []string) error {
	c, err := connect()
	if err != nil {
		return err
	}
	defer c.Close()

	if err := c.Authenticate(args[0], args[1]); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "sent credentials for user %s\n", args[0])
	return nil
}
